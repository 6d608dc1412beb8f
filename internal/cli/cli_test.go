package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jask/dashtabs/internal/filters"
)

// executeCommand runs the CLI with the given args and captures stdout and
// stderr.
func executeCommand(args ...string) (stdout, stderr string, err error) {
	cmd := NewRootCommand()
	outBuf := new(bytes.Buffer)
	errBuf := new(bytes.Buffer)
	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

// writeConfig points the database and log into a temp dir and keeps the
// default filters and dashboards.
func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := fmt.Sprintf(`
[database]
path = %q

[log]
path = %q
level = "debug"
%s`, filepath.Join(dir, "explore.db"), filepath.Join(dir, "dashtabs.log"), extra)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestRootCommand_Help(t *testing.T) {
	stdout, _, err := executeCommand("--help")
	require.NoError(t, err)
	for _, sub := range []string{"filters", "options", "seed"} {
		assert.Contains(t, stdout, sub, "help should mention %q subcommand", sub)
	}
	assert.Contains(t, stdout, "--config")
}

func TestRootCommand_UnknownFlag(t *testing.T) {
	_, _, err := executeCommand("--nonexistent")
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestInvalidConfigExitsWithUsageCode(t *testing.T) {
	cfg := writeConfig(t, `
[[filters]]
name = "state"
field = "users.state"
listens_to = ["country"]
`)
	_, _, err := executeCommand("--config", cfg, "filters")
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, err.Error(), "unknown filter")
}

func TestFiltersPrintsDependencyTree(t *testing.T) {
	cfg := writeConfig(t, "")
	stdout, _, err := executeCommand("--config", cfg, "filters")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	assert.Equal(t, "country (select_multi, users.country)", lines[0])
	assert.Equal(t, "└─ state (select_multi, users.state)", lines[1])
	assert.Equal(t, "   └─ city (select_multi, users.city)", lines[2])
	assert.Contains(t, stdout, "gender (button_group, users.gender)")
	assert.Contains(t, stdout, "created_date (date, order_items.created_date) default Last 7 days")
}

func TestOptionsScopedByParent(t *testing.T) {
	cfg := writeConfig(t, "")

	stdout, _, err := executeCommand("--config", cfg, "options", "state", "--where", "country=USA")
	require.NoError(t, err)
	assert.Equal(t, "California\nNew York\nTexas\n", stdout)

	stdout, _, err = executeCommand("--config", cfg, "options", "country", "--json")
	require.NoError(t, err)
	var opts []filters.Option
	require.NoError(t, json.Unmarshal([]byte(stdout), &opts))
	assert.Len(t, opts, 4)
	assert.Equal(t, filters.Option{Value: "Australia", Label: "Australia"}, opts[0])
}

func TestOptionsRejectsBadInput(t *testing.T) {
	cfg := writeConfig(t, "")

	_, _, err := executeCommand("--config", cfg, "options", "planet")
	require.ErrorContains(t, err, "unknown filter")

	_, _, err = executeCommand("--config", cfg, "options", "state", "--where", "gender=Male")
	require.ErrorContains(t, err, "does not listen to")

	_, _, err = executeCommand("--config", cfg, "options", "state", "--where", "USA")
	require.ErrorContains(t, err, "want parent=v1,v2")
}

func TestSeedForceRegenerates(t *testing.T) {
	cfg := writeConfig(t, "")
	stdout, _, err := executeCommand("--config", cfg, "seed", "--force")
	require.NoError(t, err)
	assert.Contains(t, stdout, "reseeded")

	stdout, _, err = executeCommand("--config", cfg, "seed")
	require.NoError(t, err)
	assert.Contains(t, stdout, "explore ready")
	assert.Regexp(t, `data through \d{4}-\d{2}-\d{2}\n$`, stdout)
}

func TestRunClosesLogFileOnFailure(t *testing.T) {
	cfg := writeConfig(t, "")
	s := &session{}
	cmd := newRootCommand(s)
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"--config", cfg, "options", "planet"})

	assert.Equal(t, 2, run(s, cmd))
	assert.Nil(t, s.logFile)

	logged, err := os.ReadFile(filepath.Join(filepath.Dir(cfg), "dashtabs.log"))
	require.NoError(t, err)
	assert.Contains(t, string(logged), "configuration loaded")
}

func TestParseWhereTrimsInput(t *testing.T) {
	g := filters.NewGraph([]filters.Def{
		{Name: "country", Field: "users.country"},
		{Name: "state", Field: "users.state", ListensTo: []string{"country"}},
	})
	staged, err := parseWhere(g, "state", []string{" country = USA , Canada "})
	require.NoError(t, err)
	assert.Equal(t, []string{"USA", "Canada"}, staged.Values("country"))
}
