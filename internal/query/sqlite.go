package query

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jask/dashtabs/internal/database/repository"
	"github.com/jask/dashtabs/internal/daterange"
	"github.com/jask/dashtabs/internal/filters"
)

// SQLRunner runs inline queries against a SQLite table described by a
// Catalog.
type SQLRunner struct {
	db      *sql.DB
	catalog Catalog
	loc     *time.Location
	now     func() time.Time
}

// NewSQLRunner evaluates relative date expressions in loc.
func NewSQLRunner(db *sql.DB, catalog Catalog, loc *time.Location) *SQLRunner {
	if loc == nil {
		loc = time.Local
	}
	return &SQLRunner{db: db, catalog: catalog, loc: loc, now: time.Now}
}

// Catalog returns the explore description.
func (r *SQLRunner) RunInlineQuery(ctx context.Context, q Query) ([]Row, error) {
	stmt, args, err := r.build(q)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("run query on %s/%s: %w", q.Model, q.View, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		vals := make([]any, len(q.Fields))
		ptrs := make([]any, len(q.Fields))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(Row, len(q.Fields))
		for i, f := range q.Fields {
			if b, ok := vals[i].([]byte); ok {
				row[f] = string(b)
				continue
			}
			row[f] = vals[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SQLRunner) build(q Query) (string, []any, error) {
	c := r.catalog
	if q.Model != c.Model || q.View != c.View {
		return "", nil, fmt.Errorf("%w: %s/%s", ErrUnknownExplore, q.Model, q.View)
	}
	if len(q.Fields) == 0 {
		return "", nil, fmt.Errorf("query on %s/%s: no fields", q.Model, q.View)
	}

	var selects, groupBy []string
	hasMeasure := false
	for i, f := range q.Fields {
		if expr, ok := c.Dimensions[f]; ok {
			selects = append(selects, fmt.Sprintf("%s AS c%d", expr, i))
			groupBy = append(groupBy, expr)
			continue
		}
		if expr, ok := c.Measures[f]; ok {
			selects = append(selects, fmt.Sprintf("%s AS c%d", expr, i))
			hasMeasure = true
			continue
		}
		return "", nil, fmt.Errorf("%w: %s", ErrUnknownField, f)
	}

	where, args, err := r.where(q.Filters)
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	if !hasMeasure {
		sb.WriteString("DISTINCT ")
	}
	sb.WriteString(strings.Join(selects, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(c.Table)
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	if hasMeasure && len(groupBy) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(groupBy, ", "))
	}

	order, err := orderBy(q)
	if err != nil {
		return "", nil, err
	}
	sb.WriteString(" ORDER BY ")
	sb.WriteString(order)

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	sb.WriteString(" LIMIT ?")
	args = append(args, limit)
	return sb.String(), args, nil
}

func (r *SQLRunner) where(fs map[string]string) ([]string, []any, error) {
	fields := make([]string, 0, len(fs))
	for f := range fs {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var clauses []string
	var args []any
	for _, f := range fields {
		expr := strings.TrimSpace(fs[f])
		if expr == "" {
			continue
		}
		if col, ok := r.catalog.DateFields[f]; ok {
			rng, err := daterange.Parse(expr)
			if err != nil {
				return nil, nil, fmt.Errorf("filter %s: %w", f, err)
			}
			start, end, ok := rng.Bounds(r.now().In(r.loc))
			if !ok {
				continue
			}
			clauses = append(clauses, fmt.Sprintf("%s >= ? AND %s < ?", col, col))
			args = append(args, start.UTC().Format(repository.TimestampLayout), end.UTC().Format(repository.TimestampLayout))
			continue
		}
		col, ok := r.catalog.Dimensions[f]
		if !ok {
			return nil, nil, fmt.Errorf("%w: filter on %s", ErrUnknownField, f)
		}
		values := filters.SplitValues(expr)
		if len(values) == 0 {
			continue
		}
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
		clauses = append(clauses, fmt.Sprintf("%s IN (%s)", col, marks))
		for _, v := range values {
			args = append(args, v)
		}
	}
	return clauses, args, nil
}

func orderBy(q Query) (string, error) {
	index := make(map[string]int, len(q.Fields))
	for i, f := range q.Fields {
		index[f] = i
	}
	if len(q.Sorts) == 0 {
		return "c0", nil
	}
	parts := make([]string, 0, len(q.Sorts))
	for _, s := range q.Sorts {
		field, dir, _ := strings.Cut(strings.TrimSpace(s), " ")
		i, ok := index[field]
		if !ok {
			return "", fmt.Errorf("%w: sort on %s is not a selected field", ErrUnknownField, field)
		}
		switch strings.ToLower(strings.TrimSpace(dir)) {
		case "", "asc":
			parts = append(parts, fmt.Sprintf("c%d ASC", i))
		case "desc":
			parts = append(parts, fmt.Sprintf("c%d DESC", i))
		default:
			return "", fmt.Errorf("sort %q: unknown direction", s)
		}
	}
	return strings.Join(parts, ", "), nil
}
