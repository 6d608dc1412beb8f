package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jask/dashtabs/internal/filters"
	"github.com/jask/dashtabs/internal/query"
)

// optionLimit caps how many distinct values a filter offers.
const optionLimit = 500

// OptionFetcher loads a filter's choices with a distinct-values query,
// scoped by the staged values of the filter's parents.
type OptionFetcher struct {
	Runner query.Runner
	Model  string
	View   string
	Graph  *filters.Graph
	Logger *slog.Logger
}

// Query builds the inline query for req. Parent constraints become
// comma-separated equality filters on the parents' fields.
func (f *OptionFetcher) Query(req filters.Request) (query.Query, error) {
	def, ok := f.Graph.Def(req.Filter)
	if !ok {
		return query.Query{}, fmt.Errorf("unknown filter %q", req.Filter)
	}
	q := query.Query{
		Model:  f.Model,
		View:   f.View,
		Fields: []string{def.Field},
		Sorts:  []string{def.Field},
		Limit:  optionLimit,
	}
	for parent, values := range req.Constraints {
		if len(values) == 0 {
			continue
		}
		pdef, ok := f.Graph.Def(parent)
		if !ok {
			return query.Query{}, fmt.Errorf("filter %q: unknown parent %q", req.Filter, parent)
		}
		if q.Filters == nil {
			q.Filters = map[string]string{}
		}
		q.Filters[pdef.Field] = filters.JoinValues(values)
	}
	return q, nil
}

// Fetch runs the options query for req. Failures are logged and returned;
// callers keep whatever options they had. There is no retry.
func (f *OptionFetcher) Fetch(ctx context.Context, req filters.Request) ([]filters.Option, error) {
	q, err := f.Query(req)
	if err != nil {
		f.logger().Error("build options query", slog.String("filter", req.Filter), slog.Any("error", err))
		return nil, err
	}
	rows, err := f.Runner.RunInlineQuery(ctx, q)
	if err != nil {
		f.logger().Error("fetch filter options",
			slog.String("filter", req.Filter),
			slog.Any("filters", q.Filters),
			slog.Any("error", err))
		return nil, fmt.Errorf("fetch options for %s: %w", req.Filter, err)
	}
	opts := RowsToOptions(rows, q.Fields[0])
	f.logger().Debug("fetched filter options",
		slog.String("filter", req.Filter),
		slog.Bool("scoped", req.Scoped()),
		slog.Int("count", len(opts)))
	return opts, nil
}

// RowsToOptions maps result rows to options, skipping null, missing and empty
// values and keeping the first occurrence of each value.
func RowsToOptions(rows []query.Row, field string) []filters.Option {
	out := make([]filters.Option, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		raw, ok := row[field]
		if !ok || raw == nil {
			continue
		}
		v := strings.TrimSpace(stringify(raw))
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, filters.Option{Value: v, Label: v})
	}
	return out
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func (f *OptionFetcher) logger() *slog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return slog.Default()
}
