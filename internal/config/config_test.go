package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jask/dashtabs/internal/daterange"
	"github.com/jask/dashtabs/internal/filters"
	"github.com/jask/dashtabs/internal/query"
)

func loadDefaults(t *testing.T) Config {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DASHTABS_CONFIG", "")
	c, err := Load()
	require.NoError(t, err)
	return c
}

func TestDefaultsAreValid(t *testing.T) {
	c := loadDefaults(t)
	require.NoError(t, c.Validate(query.DefaultCatalog()))

	assert.Len(t, c.Dashboards, 3)
	assert.Equal(t, "created_date", c.DateFilter.Name)
	assert.Equal(t, daterange.Last7Days, c.DefaultRange().Preset)

	defs, err := c.FilterDefs()
	require.NoError(t, err)
	g := filters.NewGraph(defs)
	assert.Equal(t, []string{"state", "city"}, g.Descendants("country"))
	assert.Equal(t, []string{"brand"}, g.Descendants("gender"))
	gender, ok := g.Def("gender")
	require.True(t, ok)
	assert.Equal(t, filters.ButtonGroup, gender.Kind)
}

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dashtabs.toml")
	body := `
[database]
path = "/tmp/x.db"

[date_filter]
default = "last_30_days"

[[filters]]
name = "country"
label = "Country"
field = "users.country"

[[filters]]
name = "state"
field = "users.state"
listens_to = ["country"]

[[dashboards]]
id = "only"
label = "Only"

  [[dashboards.tiles]]
  title = "Orders"
  dimension = "users.state"
  measure = "order_items.count"
  limit = 5
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("DASHTABS_CONFIG", path)
	t.Setenv("DASHTABS_LOG_LEVEL", "debug")

	c, err := Load()
	require.NoError(t, err)
	require.NoError(t, c.Validate(query.DefaultCatalog()))

	assert.Equal(t, "/tmp/x.db", c.Database.Path)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, daterange.Last30Days, c.DefaultRange().Preset)
	require.Len(t, c.Filters, 2)
	assert.Equal(t, []string{"country"}, c.Filters[1].ListensTo)
	require.Len(t, c.Dashboards, 1)
	require.Len(t, c.Dashboards[0].Tiles, 1)
	assert.Equal(t, 5, c.Dashboards[0].Tiles[0].Limit)

	defs, err := c.FilterDefs()
	require.NoError(t, err)
	assert.Equal(t, "state", defs[1].Label)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Setenv("DASHTABS_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))
	_, err := Load()
	require.Error(t, err)
}

func TestValidateRejects(t *testing.T) {
	cat := query.DefaultCatalog()
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown parent", func(c *Config) { c.Filters[1].ListensTo = []string{"planet"} }, "unknown filter"},
		{"cycle", func(c *Config) { c.Filters[0].ListensTo = []string{"city"} }, "cycle"},
		{"duplicate filter", func(c *Config) { c.Filters[1].Name = "country" }, "duplicate"},
		{"bad kind", func(c *Config) { c.Filters[0].Kind = "slider" }, "slider"},
		{"unknown field", func(c *Config) { c.Filters[0].Field = "users.ssn" }, "unknown field"},
		{"date name clash", func(c *Config) {
			c.Filters[0].Name = "created_date"
			c.Filters[1].ListensTo = nil
			c.Filters[2].ListensTo = []string{"state"}
		}, "date filter"},
		{"no dashboards", func(c *Config) { c.Dashboards = nil }, "no dashboards"},
		{"duplicate dashboard", func(c *Config) { c.Dashboards[1].ID = c.Dashboards[0].ID }, "duplicate dashboard"},
		{"tile measure", func(c *Config) { c.Dashboards[0].Tiles[0].Measure = "users.state" }, "not a measure"},
		{"bad preset", func(c *Config) { c.DateFilter.Default = "forever" }, "date filter default"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log format"},
		{"bad timezone", func(c *Config) { c.UI.Timezone = "Mars/Olympus" }, "timezone"},
		{"wrong explore", func(c *Config) { c.Explore.View = "events" }, "unknown explore"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := loadDefaults(t)
			tt.mutate(&c)
			require.ErrorContains(t, c.Validate(cat), tt.want)
		})
	}
}

func TestDashboardFieldsIncludeDateFilter(t *testing.T) {
	c := loadDefaults(t)
	fields := c.DashboardFields()
	assert.Equal(t, "users.country", fields["country"])
	assert.Equal(t, "order_items.created_date", fields["created_date"])
}
