package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Embedder is one dashboard tab. It connects once on Mount and afterwards
// pushes filter changes into that same connection. Connection failures are
// logged and not retried.
type Embedder struct {
	DashboardID string
	Label       string

	connector Connector
	logger    *slog.Logger

	mu      sync.Mutex
	handle  Handle
	mounted bool
	last    Filters
	frame   Frame
}

func NewEmbedder(c Connector, dashboardID, label string, logger *slog.Logger) *Embedder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Embedder{
		DashboardID: dashboardID,
		Label:       label,
		connector:   c,
		logger:      logger.With(slog.String("dashboard", dashboardID)),
	}
}

// Connected reports whether a connection was established.
func (e *Embedder) Connected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.handle != nil
}

// Frame returns the last successful run.
func (e *Embedder) Frame() Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frame
}

// Mount connects with the initial filters and runs the dashboard. Only the
// first call connects. A later call returns the last frame and leaves the
// connection's filters alone.
func (e *Embedder) Mount(ctx context.Context, f Filters) (Frame, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mounted {
		if e.handle == nil {
			return Frame{}, fmt.Errorf("mount %s: %w", e.DashboardID, ErrNotConnected)
		}
		if e.frame.RanAt.IsZero() {
			return e.runLocked(ctx)
		}
		return e.frame, nil
	}
	return e.connectLocked(ctx, f)
}

// Apply pushes f to the existing connection and re-runs the dashboard. An
// unchanged filter set returns the last frame without running. Before the
// first Mount has run, Apply connects with f as the initial filter set.
func (e *Embedder) Apply(ctx context.Context, f Filters) (Frame, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.mounted {
		return e.connectLocked(ctx, f)
	}
	if e.handle == nil {
		return Frame{}, fmt.Errorf("apply filters to %s: %w", e.DashboardID, ErrNotConnected)
	}
	if e.last.Equal(f) && !e.frame.RanAt.IsZero() {
		return e.frame, nil
	}
	if err := e.handle.UpdateFilters(ctx, f.Clone()); err != nil {
		e.logger.Error("update dashboard filters", slog.Any("error", err))
		return Frame{}, fmt.Errorf("update filters on %s: %w", e.DashboardID, err)
	}
	e.last = f.Clone()
	return e.runLocked(ctx)
}

func (e *Embedder) connectLocked(ctx context.Context, f Filters) (Frame, error) {
	e.mounted = true
	h, err := CreateDashboard(e.connector, e.DashboardID).WithFilters(f).Connect(ctx)
	if err != nil {
		e.logger.Error("connect dashboard", slog.Any("error", err))
		return Frame{}, fmt.Errorf("connect dashboard %s: %w", e.DashboardID, err)
	}
	e.handle = h
	e.last = f.Clone()
	e.logger.Info("dashboard connected", slog.String("connection", h.ID()))
	return e.runLocked(ctx)
}

func (e *Embedder) runLocked(ctx context.Context) (Frame, error) {
	frame, err := e.handle.Run(ctx)
	if err != nil {
		e.logger.Error("run dashboard", slog.Any("error", err))
		return Frame{}, fmt.Errorf("run dashboard %s: %w", e.DashboardID, err)
	}
	e.frame = frame
	e.logger.Debug("dashboard ran", slog.Int("tiles", len(frame.Tiles)), slog.Any("filters", frame.Filters))
	return frame, nil
}
