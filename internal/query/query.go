// Package query defines the inline-query collaborator used to fetch filter
// options and dashboard tiles, and a SQLite-backed implementation of it.
package query

import (
	"context"
	"errors"
)

// DefaultLimit caps rows when a query does not set one.
const DefaultLimit = 500

var (
	ErrUnknownExplore = errors.New("unknown explore")
	ErrUnknownField   = errors.New("unknown field")
)

// Query is a one-off query against a model's explore. Filters map a field to
// a filter expression: comma-separated values for dimensions, a date
// expression for date fields.
type Query struct {
	Model   string
	View    string
	Fields  []string
	Filters map[string]string
	// Sorts are field names, optionally suffixed with " desc".
	Sorts []string
	Limit int
}

// Row is one result row keyed by field name. NULL values are nil.
type Row map[string]any

// Runner executes inline queries.
type Runner interface {
	RunInlineQuery(ctx context.Context, q Query) ([]Row, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, q Query) ([]Row, error)

func (f RunnerFunc) RunInlineQuery(ctx context.Context, q Query) ([]Row, error) { return f(ctx, q) }
