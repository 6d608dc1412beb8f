// Package embedding connects dashboards to the filter bar. An Embedder owns
// one connection per dashboard tab and re-applies the active filter set to
// it without reconnecting.
package embedding

import (
	"context"
	"errors"
	"maps"
	"time"
)

var (
	ErrNotConnected     = errors.New("dashboard not connected")
	ErrUnknownDashboard = errors.New("unknown dashboard")
)

// Filters maps dashboard filter name to filter value.
type Filters map[string]string

// Clone returns a copy of f.
func (f Filters) Clone() Filters {
	if f == nil {
		return Filters{}
	}
	return maps.Clone(f)
}

// Equal compares two filter sets, treating empty values as absent.
func (f Filters) Equal(o Filters) bool {
	for k, v := range f {
		if v != "" && o[k] != v {
			return false
		}
	}
	for k, v := range o {
		if v != "" && f[k] != v {
			return false
		}
	}
	return true
}

// TileFrame is one rendered tile.
type TileFrame struct {
	Title     string
	Dimension string
	Measure   string
	Points    []Point
	Err       error
}

// Point is one bar of a tile.
type Point struct {
	Label string
	Value float64
}

// Frame is the result of running a dashboard with its current filters.
type Frame struct {
	DashboardID  string
	ConnectionID string
	Filters      Filters
	Tiles        []TileFrame
	RanAt        time.Time
}

// Handle is a live connection to one dashboard.
type Handle interface {
	ID() string
	UpdateFilters(ctx context.Context, f Filters) error
	Run(ctx context.Context) (Frame, error)
}

// Connector establishes dashboard connections.
type Connector interface {
	Connect(ctx context.Context, dashboardID string, f Filters) (Handle, error)
}

// DashboardBuilder accumulates connection options for one dashboard.
type DashboardBuilder struct {
	connector Connector
	id        string
	filters   Filters
}

// CreateDashboard starts building a connection to dashboard id.
func CreateDashboard(c Connector, id string) *DashboardBuilder {
	return &DashboardBuilder{connector: c, id: id, filters: Filters{}}
}

// WithFilters sets the initial filter set.
func (b *DashboardBuilder) WithFilters(f Filters) *DashboardBuilder {
	b.filters = f.Clone()
	return b
}

// Connect opens the connection.
func (b *DashboardBuilder) Connect(ctx context.Context) (Handle, error) {
	return b.connector.Connect(ctx, b.id, b.filters)
}
