package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jask/dashtabs/internal/query"
)

const defaultTileLimit = 10

// DashboardDef describes a dashboard rendered by LocalConnector.
type DashboardDef struct {
	ID    string
	Label string
	Tiles []TileDef
}

// TileDef is one bar chart: a measure broken down by a dimension.
type TileDef struct {
	Title     string
	Dimension string
	Measure   string
	Limit     int
}

// LocalConnector renders dashboards by running each tile as an inline query.
// Dashboard filter names are translated to explore fields through Fields;
// names without a field are ignored.
type LocalConnector struct {
	Runner     query.Runner
	Model      string
	View       string
	Dashboards map[string]DashboardDef
	Fields     map[string]string
	Logger     *slog.Logger

	now func() time.Time
}

func (c *LocalConnector) Connect(ctx context.Context, dashboardID string, f Filters) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	def, ok := c.Dashboards[dashboardID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDashboard, dashboardID)
	}
	return &localHandle{
		id:      uuid.NewString(),
		def:     def,
		conn:    c,
		filters: f.Clone(),
	}, nil
}

func (c *LocalConnector) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

func (c *LocalConnector) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

type localHandle struct {
	id   string
	def  DashboardDef
	conn *LocalConnector

	mu      sync.Mutex
	filters Filters
}

func (h *localHandle) ID() string { return h.id }

func (h *localHandle) UpdateFilters(ctx context.Context, f Filters) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	h.filters = f.Clone()
	h.mu.Unlock()
	return nil
}

// Run executes every tile. A failing tile keeps its error in the frame; Run
// itself fails only when no tile succeeded.
func (h *localHandle) Run(ctx context.Context) (Frame, error) {
	h.mu.Lock()
	current := h.filters.Clone()
	h.mu.Unlock()

	fieldFilters := h.fieldFilters(current)
	frame := Frame{
		DashboardID:  h.def.ID,
		ConnectionID: h.id,
		Filters:      current,
		Tiles:        make([]TileFrame, 0, len(h.def.Tiles)),
	}
	var firstErr error
	ok := 0
	for _, t := range h.def.Tiles {
		tile := h.runTile(ctx, t, fieldFilters)
		if tile.Err != nil {
			if firstErr == nil {
				firstErr = tile.Err
			}
		} else {
			ok++
		}
		frame.Tiles = append(frame.Tiles, tile)
	}
	if ok == 0 && firstErr != nil {
		return Frame{}, firstErr
	}
	frame.RanAt = h.conn.clock()
	return frame, nil
}

func (h *localHandle) fieldFilters(f Filters) map[string]string {
	out := make(map[string]string, len(f))
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		field, ok := h.conn.Fields[name]
		if !ok {
			h.conn.logger().Warn("dashboard filter has no field", slog.String("dashboard", h.def.ID), slog.String("filter", name))
			continue
		}
		out[field] = f[name]
	}
	return out
}

func (h *localHandle) runTile(ctx context.Context, t TileDef, fs map[string]string) TileFrame {
	tile := TileFrame{Title: t.Title, Dimension: t.Dimension, Measure: t.Measure}
	limit := t.Limit
	if limit <= 0 {
		limit = defaultTileLimit
	}
	rows, err := h.conn.Runner.RunInlineQuery(ctx, query.Query{
		Model:   h.conn.Model,
		View:    h.conn.View,
		Fields:  []string{t.Dimension, t.Measure},
		Filters: fs,
		Sorts:   []string{t.Measure + " desc"},
		Limit:   limit,
	})
	if err != nil {
		tile.Err = fmt.Errorf("tile %q: %w", t.Title, err)
		h.conn.logger().Error("run tile", slog.String("dashboard", h.def.ID), slog.String("tile", t.Title), slog.Any("error", err))
		return tile
	}
	for _, row := range rows {
		tile.Points = append(tile.Points, Point{Label: labelOf(row[t.Dimension]), Value: numberOf(row[t.Measure])})
	}
	return tile
}

func labelOf(v any) string {
	switch t := v.(type) {
	case nil:
		return "(null)"
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

func numberOf(v any) float64 {
	switch t := v.(type) {
	case int64:
		return float64(t)
	case int:
		return float64(t)
	case float64:
		return t
	case []byte:
		f, _ := strconv.ParseFloat(string(t), 64)
		return f
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	default:
		return 0
	}
}

// IsNotConnected reports whether err came from applying to a dashboard whose
// connection was never established.
func IsNotConnected(err error) bool { return errors.Is(err, ErrNotConnected) }
