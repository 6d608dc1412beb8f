package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jask/dashtabs/internal/daterange"
	"github.com/jask/dashtabs/internal/filters"
	"github.com/jask/dashtabs/internal/query"
)

// Log levels and formats accepted in [log].
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"

	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config holds application configuration.
type Config struct {
	Database   DatabaseConfig
	Explore    ExploreConfig
	Dashboards []DashboardConfig
	Filters    []FilterConfig
	DateFilter DateFilterConfig `mapstructure:"date_filter"`
	Log        LogConfig
	UI         UIConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// ExploreConfig names the model and view every query runs against.
type ExploreConfig struct {
	Model string
	View  string
}

// DashboardConfig is one tab.
type DashboardConfig struct {
	ID    string
	Label string
	Tiles []TileConfig
}

// TileConfig is one chart on a dashboard.
type TileConfig struct {
	Title     string
	Dimension string
	Measure   string
	Limit     int
}

// FilterConfig declares one filter bar chip.
type FilterConfig struct {
	Name      string
	Label     string
	Field     string
	Kind      string
	ListensTo []string `mapstructure:"listens_to"`
}

// DateFilterConfig declares the date-range chip.
type DateFilterConfig struct {
	Name    string
	Label   string
	Field   string
	Default string
}

// LogConfig controls the log file.
type LogConfig struct {
	Level  string
	Format string
	Path   string
}

// UIConfig holds presentation settings.
type UIConfig struct {
	Timezone string
}

// Load reads configuration from file and env. Env var overrides use prefix
// DASHTABS_; DASHTABS_CONFIG names the file explicitly.
func Load() (Config, error) {
	return LoadFrom(os.Getenv("DASHTABS_CONFIG"))
}

// LoadFrom reads cfgPath, or ~/.config/dashtabs/config.toml when it is
// empty. A missing default file is not an error.
func LoadFrom(cfgPath string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")

	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "dashtabs"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("DASHTABS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "dashtabs", "explore.db"))
	v.SetDefault("explore.model", query.DefaultModel)
	v.SetDefault("explore.view", query.DefaultView)
	v.SetDefault("date_filter.name", "created_date")
	v.SetDefault("date_filter.label", "Date")
	v.SetDefault("date_filter.field", "order_items.created_date")
	v.SetDefault("date_filter.default", string(daterange.DefaultPreset))
	v.SetDefault("log.level", LogLevelInfo)
	v.SetDefault("log.format", LogFormatText)
	v.SetDefault("log.path", defaultLogPath())
	v.SetDefault("ui.timezone", "Local")

	v.SetDefault("filters", []map[string]any{
		{"name": "country", "label": "Country", "field": "users.country"},
		{"name": "state", "label": "State", "field": "users.state", "listens_to": []string{"country"}},
		{"name": "city", "label": "City", "field": "users.city", "listens_to": []string{"country", "state"}},
		{"name": "gender", "label": "Gender", "field": "users.gender", "kind": string(filters.ButtonGroup)},
		{"name": "category", "label": "Category", "field": "products.category"},
		{"name": "brand", "label": "Brand", "field": "products.brand", "listens_to": []string{"category", "gender"}},
	})
	v.SetDefault("dashboards", []map[string]any{
		{"id": "sales", "label": "Sales Overview", "tiles": []map[string]any{
			{"title": "Revenue by category", "dimension": "products.category", "measure": "order_items.total_sale_price"},
			{"title": "Orders by status", "dimension": "order_items.status", "measure": "order_items.count"},
			{"title": "Revenue by day", "dimension": "order_items.created_date", "measure": "order_items.total_sale_price", "limit": 14},
		}},
		{"id": "geo", "label": "Geography", "tiles": []map[string]any{
			{"title": "Customers by country", "dimension": "users.country", "measure": "users.count"},
			{"title": "Revenue by state", "dimension": "users.state", "measure": "order_items.total_sale_price"},
			{"title": "Items by city", "dimension": "users.city", "measure": "order_items.count"},
		}},
		{"id": "brands", "label": "Brand Performance", "tiles": []map[string]any{
			{"title": "Top brands", "dimension": "products.brand", "measure": "order_items.total_sale_price"},
			{"title": "Average price by brand", "dimension": "products.brand", "measure": "order_items.average_sale_price"},
			{"title": "Traffic sources", "dimension": "users.traffic_source", "measure": "users.count"},
		}},
	})
}

func defaultLogPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "dashtabs", "dashtabs.log")
}

// Validate checks the filter graph, dashboards and date filter against the
// explore catalog.
func (c Config) Validate(catalog query.Catalog) error {
	if c.Explore.Model != catalog.Model || c.Explore.View != catalog.View {
		return fmt.Errorf("explore %s/%s: %w", c.Explore.Model, c.Explore.View, query.ErrUnknownExplore)
	}

	defs, err := c.FilterDefs()
	if err != nil {
		return err
	}
	for _, d := range defs {
		if d.Name == "" {
			return errors.New("filter with empty name")
		}
		if _, ok := catalog.Dimensions[d.Field]; !ok {
			return fmt.Errorf("filter %s: %w: %s", d.Name, query.ErrUnknownField, d.Field)
		}
		if d.Name == c.DateFilter.Name {
			return fmt.Errorf("filter %s: name is used by the date filter", d.Name)
		}
	}
	if err := filters.NewGraph(defs).Validate(); err != nil {
		return err
	}

	if c.DateFilter.Name == "" {
		return errors.New("date filter: empty name")
	}
	if _, ok := catalog.DateFields[c.DateFilter.Field]; !ok {
		return fmt.Errorf("date filter: %w: %s", query.ErrUnknownField, c.DateFilter.Field)
	}
	if _, err := daterange.ParsePreset(c.DateFilter.Default); err != nil {
		return fmt.Errorf("date filter default: %w", err)
	}

	if len(c.Dashboards) == 0 {
		return errors.New("no dashboards configured")
	}
	seen := make(map[string]bool, len(c.Dashboards))
	for _, d := range c.Dashboards {
		if d.ID == "" {
			return errors.New("dashboard with empty id")
		}
		if seen[d.ID] {
			return fmt.Errorf("duplicate dashboard id %q", d.ID)
		}
		seen[d.ID] = true
		for _, t := range d.Tiles {
			if _, ok := catalog.Dimensions[t.Dimension]; !ok {
				return fmt.Errorf("dashboard %s tile %q: %w: %s", d.ID, t.Title, query.ErrUnknownField, t.Dimension)
			}
			if !catalog.IsMeasure(t.Measure) {
				return fmt.Errorf("dashboard %s tile %q: %w: %s is not a measure", d.ID, t.Title, query.ErrUnknownField, t.Measure)
			}
		}
	}

	switch c.Log.Level {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return fmt.Errorf("log level %q: want debug, info, warn or error", c.Log.Level)
	}
	switch c.Log.Format {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("log format %q: want text or json", c.Log.Format)
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// FilterDefs converts the configured filters, in declaration order.
func (c Config) FilterDefs() ([]filters.Def, error) {
	defs := make([]filters.Def, 0, len(c.Filters))
	for _, f := range c.Filters {
		kind, err := filters.ParseKind(f.Kind)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %w", f.Name, err)
		}
		label := f.Label
		if label == "" {
			label = f.Name
		}
		defs = append(defs, filters.Def{
			Name:      f.Name,
			Label:     label,
			Field:     f.Field,
			Kind:      kind,
			ListensTo: f.ListensTo,
		})
	}
	return defs, nil
}

// DefaultRange is the configured initial date range.
func (c Config) DefaultRange() daterange.Range {
	p, err := daterange.ParsePreset(c.DateFilter.Default)
	if err != nil {
		return daterange.Default()
	}
	return daterange.Of(p)
}

// DashboardFields maps every dashboard filter name, the date filter included,
// to its explore field.
func (c Config) DashboardFields() map[string]string {
	out := make(map[string]string, len(c.Filters)+1)
	for _, f := range c.Filters {
		out[f.Name] = f.Field
	}
	out[c.DateFilter.Name] = c.DateFilter.Field
	return out
}

// Location resolves UI.Timezone. "Local" and "" mean the system zone.
func (c Config) Location() (*time.Location, error) {
	if c.UI.Timezone == "" || c.UI.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.UI.Timezone)
	if err != nil {
		return nil, fmt.Errorf("ui timezone %q: %w", c.UI.Timezone, err)
	}
	return loc, nil
}
