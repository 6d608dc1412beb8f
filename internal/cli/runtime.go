package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/dashtabs/internal/config"
	"github.com/jask/dashtabs/internal/database"
	"github.com/jask/dashtabs/internal/embedding"
	"github.com/jask/dashtabs/internal/filters"
	"github.com/jask/dashtabs/internal/logging"
	"github.com/jask/dashtabs/internal/query"
	"github.com/jask/dashtabs/internal/service"
	"github.com/jask/dashtabs/internal/tui"
)

// runtime is the opened explore plus everything built on top of it.
type runtime struct {
	cfg    config.Config
	db     *sql.DB
	runner *query.SQLRunner
	graph  *filters.Graph
	logger *slog.Logger
}

func openRuntime(ctx context.Context, s *session) (*runtime, error) {
	cfg := s.cfg
	logger := logging.FromContext(ctx)
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}
	if err := database.RunMigrations(cfg.Database.Path); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	n, err := database.SeedDemo(ctx, db, time.Now())
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("seed demo data: %w", err)
	}
	if n > 0 {
		logger.Info("seeded demo explore", slog.Int("rows", n))
	}

	loc, err := cfg.Location()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	defs, err := cfg.FilterDefs()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &runtime{
		cfg:    cfg,
		db:     db,
		runner: query.NewSQLRunner(db, query.DefaultCatalog(), loc),
		graph:  filters.NewGraph(defs),
		logger: logger,
	}, nil
}

func (r *runtime) Close() error { return r.db.Close() }

func (r *runtime) fetcher() *service.OptionFetcher {
	return &service.OptionFetcher{
		Runner: r.runner,
		Model:  r.cfg.Explore.Model,
		View:   r.cfg.Explore.View,
		Graph:  r.graph,
		Logger: r.logger,
	}
}

func (r *runtime) connector() *embedding.LocalConnector {
	dashboards := make(map[string]embedding.DashboardDef, len(r.cfg.Dashboards))
	for _, d := range r.cfg.Dashboards {
		def := embedding.DashboardDef{ID: d.ID, Label: d.Label}
		for _, t := range d.Tiles {
			def.Tiles = append(def.Tiles, embedding.TileDef{Title: t.Title, Dimension: t.Dimension, Measure: t.Measure, Limit: t.Limit})
		}
		dashboards[d.ID] = def
	}
	return &embedding.LocalConnector{
		Runner:     r.runner,
		Model:      r.cfg.Explore.Model,
		View:       r.cfg.Explore.View,
		Dashboards: dashboards,
		Fields:     r.cfg.DashboardFields(),
		Logger:     r.logger,
	}
}

// store starts with the configured date range already active.
func (r *runtime) store() *filters.Store {
	st := filters.NewStore(filters.NewPropagator(r.graph))
	st.SetRange(r.cfg.DefaultRange())
	st.Apply()
	return st
}

func runTUI(ctx context.Context, s *session) error {
	rt, err := openRuntime(ctx, s)
	if err != nil {
		return err
	}
	defer rt.Close()

	conn := rt.connector()
	embedders := make([]*embedding.Embedder, 0, len(rt.cfg.Dashboards))
	for _, d := range rt.cfg.Dashboards {
		label := d.Label
		if label == "" {
			label = d.ID
		}
		embedders = append(embedders, embedding.NewEmbedder(conn, d.ID, label, rt.logger))
	}

	app := tui.New(ctx, tui.Deps{
		Store:      rt.store(),
		Fetcher:    rt.fetcher(),
		Embedders:  embedders,
		DateFilter: rt.cfg.DateFilter.Name,
		DateLabel:  rt.cfg.DateFilter.Label,
		Logger:     rt.logger,
	})
	if _, err := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
