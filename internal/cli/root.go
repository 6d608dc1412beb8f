// Package cli implements the cobra command tree for dashtabs.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jask/dashtabs/internal/config"
	"github.com/jask/dashtabs/internal/logging"
	"github.com/jask/dashtabs/internal/query"
)

// ExitError wraps an error with a specific process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Execute builds the command tree, runs it, and returns the exit code.
func Execute() int {
	s := &session{}
	return run(s, newRootCommand(s))
}

// run executes cmd and closes the session's log file on every path.
func run(s *session, cmd *cobra.Command) int {
	defer s.close()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "dashtabs:", err)
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}
		return 1
	}
	return 0
}

// session is what PersistentPreRunE hands to subcommands. The logger
// travels in the command context.
type session struct {
	cfg     config.Config
	logFile io.Closer
}

func (s *session) close() {
	if s.logFile != nil {
		_ = s.logFile.Close()
		s.logFile = nil
	}
}

// NewRootCommand constructs the top-level cobra.Command with all
// subcommands attached.
func NewRootCommand() *cobra.Command { return newRootCommand(&session{}) }

func newRootCommand(s *session) *cobra.Command {
	var (
		cfgFile  string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "dashtabs",
		Short: "Browse dashboards in tabs behind a cascading filter bar",
		Long: `dashtabs renders several dashboards in terminal tabs behind one filter bar.

Filters may listen to other filters: changing a parent refetches the options
of every dependent filter scoped to the parent's staged values. Staged filters
reach the dashboards only when applied.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFrom(cfgFile)
			if err != nil {
				return &ExitError{Code: 2, Err: err}
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if err := cfg.Validate(query.DefaultCatalog()); err != nil {
				return &ExitError{Code: 2, Err: fmt.Errorf("invalid config: %w", err)}
			}

			logger, closer, err := logging.Setup(cfg.Log)
			if err != nil {
				return err
			}
			s.cfg, s.logFile = cfg, closer
			cmd.SetContext(logging.NewContext(cmd.Context(), logger))

			logger.Debug("configuration loaded",
				slog.String("database", cfg.Database.Path),
				slog.Int("filters", len(cfg.Filters)),
				slog.Int("dashboards", len(cfg.Dashboards)))
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) { s.close() },
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), s)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ~/.config/dashtabs/config.toml)")
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: 2, Err: err}
	})

	cmd.AddCommand(
		newFiltersCommand(s),
		newOptionsCommand(s),
		newSeedCommand(s),
	)
	return cmd
}
