package service

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jask/dashtabs/internal/database"
	"github.com/jask/dashtabs/internal/database/repository"
	"github.com/jask/dashtabs/internal/filters"
	"github.com/jask/dashtabs/internal/query"
)

func demoGraph() *filters.Graph {
	return filters.NewGraph([]filters.Def{
		{Name: "country", Label: "Country", Field: "users.country", Kind: filters.SelectMulti},
		{Name: "state", Label: "State", Field: "users.state", Kind: filters.SelectMulti, ListensTo: []string{"country"}},
		{Name: "city", Label: "City", Field: "users.city", Kind: filters.SelectMulti, ListensTo: []string{"state", "country"}},
	})
}

type recordingRunner struct {
	queries []query.Query
	rows    []query.Row
	err     error
}

func (r *recordingRunner) RunInlineQuery(_ context.Context, q query.Query) ([]query.Row, error) {
	r.queries = append(r.queries, q)
	return r.rows, r.err
}

func TestStateOptionsAreScopedToCountry(t *testing.T) {
	runner := &recordingRunner{rows: []query.Row{{"users.state": "California"}, {"users.state": "Texas"}}}
	f := &OptionFetcher{Runner: runner, Model: "thelook", View: "order_items", Graph: demoGraph()}

	store := filters.NewStore(filters.NewPropagator(demoGraph()))
	plan := store.Stage("country", []string{"USA"})
	require.Equal(t, "state", plan.Refetch[0].Filter)

	opts, err := f.Fetch(context.Background(), plan.Refetch[0])
	require.NoError(t, err)
	require.Len(t, runner.queries, 1)
	q := runner.queries[0]
	assert.Equal(t, "thelook", q.Model)
	assert.Equal(t, "order_items", q.View)
	assert.Equal(t, []string{"users.state"}, q.Fields)
	assert.Equal(t, map[string]string{"users.country": "USA"}, q.Filters)
	assert.Equal(t, []filters.Option{{Value: "California", Label: "California"}, {Value: "Texas", Label: "Texas"}}, opts)
}

func TestUnscopedRequestHasNoFilters(t *testing.T) {
	runner := &recordingRunner{}
	f := &OptionFetcher{Runner: runner, Model: "thelook", View: "order_items", Graph: demoGraph()}

	_, err := f.Fetch(context.Background(), filters.Request{Filter: "city"})
	require.NoError(t, err)
	assert.Nil(t, runner.queries[0].Filters)
}

func TestMultipleParentsJoinAsCommaSeparatedValues(t *testing.T) {
	f := &OptionFetcher{Model: "m", View: "v", Graph: demoGraph()}
	q, err := f.Query(filters.Request{Filter: "city", Constraints: map[string][]string{
		"country": {"USA", "Canada"},
		"state":   {"Texas"},
	}})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"users.country": "USA,Canada", "users.state": "Texas"}, q.Filters)

	_, err = f.Query(filters.Request{Filter: "zip"})
	require.Error(t, err)
}

func TestRowsToOptionsSkipsNullsAndDuplicates(t *testing.T) {
	rows := []query.Row{
		{"users.city": "Austin"},
		{"users.city": nil},
		{},
		{"users.city": "  "},
		{"users.city": "Austin"},
		{"users.city": []byte("Dallas")},
		{"users.city": int64(7)},
	}
	opts := RowsToOptions(rows, "users.city")
	assert.Equal(t, []filters.Option{
		{Value: "Austin", Label: "Austin"},
		{Value: "Dallas", Label: "Dallas"},
		{Value: "7", Label: "7"},
	}, opts)
}

func TestFetchFailureIsLoggedAndReturned(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	boom := errors.New("connection reset")
	f := &OptionFetcher{Runner: &recordingRunner{err: boom}, Model: "m", View: "v", Graph: demoGraph(), Logger: logger}

	opts, err := f.Fetch(context.Background(), filters.Request{Filter: "country"})
	require.ErrorIs(t, err, boom)
	assert.Nil(t, opts)
	assert.Contains(t, buf.String(), "fetch filter options")
	assert.Contains(t, buf.String(), "filter=country")
}

func TestFetchAgainstSQLiteExplore(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	dbPath := filepath.Join(t.TempDir(), "explore.db")
	require.NoError(t, database.RunMigrations(dbPath))
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = database.SeedDemo(ctx, db, time.Now())
	require.NoError(t, err)

	f := &OptionFetcher{
		Runner: query.NewSQLRunner(db, query.DefaultCatalog(), time.UTC),
		Model:  query.DefaultModel,
		View:   query.DefaultView,
		Graph:  demoGraph(),
	}
	states, err := f.Fetch(ctx, filters.Request{Filter: "state", Constraints: map[string][]string{"country": {"Australia"}}})
	require.NoError(t, err)
	assert.Equal(t, []filters.Option{
		{Value: "New South Wales", Label: "New South Wales"},
		{Value: "Victoria", Label: "Victoria"},
	}, states)

	cities, err := f.Fetch(ctx, filters.Request{Filter: "city", Constraints: map[string][]string{"state": {"Victoria"}}})
	require.NoError(t, err)
	for _, c := range cities {
		assert.NotEmpty(t, c.Value)
	}
	assert.Subset(t, []string{"Geelong", "Melbourne", "Victoria"}, values(cities))
}

func values(opts []filters.Option) []string {
	out := make([]string, 0, len(opts))
	for _, o := range opts {
		out = append(out, o.Value)
	}
	return out
}

func TestSequencerDiscardsSuperseded(t *testing.T) {
	s := NewSequencer()
	first := s.Next("state")
	second := s.Next("state")
	other := s.Next("city")

	assert.False(t, s.Latest("state", first))
	assert.True(t, s.Latest("state", second))
	assert.True(t, s.Latest("city", other))
	assert.False(t, s.Latest("country", 0))
}

func TestRankOptions(t *testing.T) {
	opts := []filters.Option{
		{Value: "San Diego", Label: "San Diego"},
		{Value: "San Francisco", Label: "San Francisco"},
		{Value: "Austin", Label: "Austin"},
		{Value: "Sacramento", Label: "Sacramento"},
	}
	assert.Equal(t, opts, RankOptions(opts, ""))

	got := RankOptions(opts, "san")
	assert.Equal(t, []string{"San Diego", "San Francisco"}, values(got)[:2])

	got = RankOptions(opts, "austn")
	require.NotEmpty(t, got)
	assert.Equal(t, "Austin", got[0].Value)

	assert.Empty(t, RankOptions(opts, "zzzzzz"))
}

func TestReseed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "explore.db")
	require.NoError(t, database.RunMigrations(dbPath))
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	svc := &MaintenanceService{DB: db}
	first, err := svc.Reseed(ctx, time.Now())
	require.NoError(t, err)
	require.Positive(t, first)

	second, err := svc.Reseed(ctx, time.Now())
	require.NoError(t, err)
	require.Equal(t, first, second)

	_, err = (&MaintenanceService{}).Reseed(ctx, time.Now())
	require.Error(t, err)
}

func TestReseedFailureKeepsPreviousRows(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "explore.db")
	require.NoError(t, database.RunMigrations(dbPath))
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	seeded, err := database.SeedDemo(ctx, db, time.Now())
	require.NoError(t, err)
	require.Positive(t, seeded)

	_, err = db.ExecContext(ctx, `CREATE TRIGGER fail_insert BEFORE INSERT ON order_items
		BEGIN SELECT RAISE(ABORT, 'boom'); END`)
	require.NoError(t, err)

	_, err = (&MaintenanceService{DB: db}).Reseed(ctx, time.Now())
	require.ErrorContains(t, err, "boom")

	n, err := repository.NewOrderItemRepo(db).Count(ctx)
	require.NoError(t, err)
	require.Equal(t, seeded, n)
}
