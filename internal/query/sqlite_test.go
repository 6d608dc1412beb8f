package query

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jask/dashtabs/internal/database"
	"github.com/jask/dashtabs/internal/database/repository"
)

var fixedNow = time.Date(2026, time.February, 11, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func newTestRunner(t *testing.T) (*SQLRunner, *sql.DB) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "explore.db")
	require.NoError(t, database.RunMigrations(dbPath))
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	items := []repository.OrderItem{
		{ID: "1", OrderID: "o1", UserID: "u1", CreatedAt: fixedNow.AddDate(0, 0, -1), Status: "Complete", SalePrice: 10, Country: "USA", State: "California", City: strPtr("Los Angeles"), Gender: "Female", ProductCategory: "Jeans", ProductBrand: "Levi's"},
		{ID: "2", OrderID: "o1", UserID: "u1", CreatedAt: fixedNow.AddDate(0, 0, -2), Status: "Complete", SalePrice: 20, Country: "USA", State: "Texas", City: strPtr("Austin"), Gender: "Female", ProductCategory: "Swim", ProductBrand: "Speedo"},
		{ID: "3", OrderID: "o2", UserID: "u2", CreatedAt: fixedNow.AddDate(0, 0, -3), Status: "Returned", SalePrice: 30, Country: "Canada", State: "Ontario", City: strPtr("Toronto"), Gender: "Male", ProductCategory: "Jeans", ProductBrand: "Wrangler"},
		{ID: "4", OrderID: "o3", UserID: "u3", CreatedAt: fixedNow.AddDate(0, 0, -40), Status: "Complete", SalePrice: 40, Country: "Canada", State: "Quebec", City: nil, Gender: "Male", ProductCategory: "Swim", ProductBrand: "Billabong"},
	}
	require.NoError(t, repository.NewOrderItemRepo(db).InsertBatch(context.Background(), items))

	r := NewSQLRunner(db, DefaultCatalog(), time.UTC)
	r.now = func() time.Time { return fixedNow }
	return r, db
}

func column(rows []Row, field string) []any {
	out := make([]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, r[field])
	}
	return out
}

func TestDistinctDimensionValues(t *testing.T) {
	r, _ := newTestRunner(t)
	rows, err := r.RunInlineQuery(context.Background(), Query{
		Model:  DefaultModel,
		View:   DefaultView,
		Fields: []string{"users.country"},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"Canada", "USA"}, column(rows, "users.country"))
}

func TestDimensionFilterIsEqualityOnEachValue(t *testing.T) {
	r, _ := newTestRunner(t)
	rows, err := r.RunInlineQuery(context.Background(), Query{
		Model:   DefaultModel,
		View:    DefaultView,
		Fields:  []string{"users.state"},
		Filters: map[string]string{"users.country": "USA"},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"California", "Texas"}, column(rows, "users.state"))

	rows, err = r.RunInlineQuery(context.Background(), Query{
		Model:   DefaultModel,
		View:    DefaultView,
		Fields:  []string{"users.state"},
		Filters: map[string]string{"users.country": "USA,Canada", "products.category": "Jeans"},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"California", "Ontario"}, column(rows, "users.state"))
}

func TestNullValuesComeBackAsNil(t *testing.T) {
	r, _ := newTestRunner(t)
	rows, err := r.RunInlineQuery(context.Background(), Query{
		Model:   DefaultModel,
		View:    DefaultView,
		Fields:  []string{"users.city"},
		Filters: map[string]string{"users.state": "Quebec"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0]["users.city"])
}

func TestMeasuresGroupByDimensions(t *testing.T) {
	r, _ := newTestRunner(t)
	rows, err := r.RunInlineQuery(context.Background(), Query{
		Model:  DefaultModel,
		View:   DefaultView,
		Fields: []string{"products.category", "order_items.total_sale_price", "order_items.count"},
		Sorts:  []string{"order_items.total_sale_price desc"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Swim", rows[0]["products.category"])
	assert.InDelta(t, 60.0, rows[0]["order_items.total_sale_price"], 0.001)
	assert.EqualValues(t, 2, rows[0]["order_items.count"])
}

func TestDateFilterUsesRelativeExpression(t *testing.T) {
	r, _ := newTestRunner(t)
	rows, err := r.RunInlineQuery(context.Background(), Query{
		Model:   DefaultModel,
		View:    DefaultView,
		Fields:  []string{"order_items.count"},
		Filters: map[string]string{"order_items.created_date": "7 days"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 3, rows[0]["order_items.count"])

	rows, err = r.RunInlineQuery(context.Background(), Query{
		Model:   DefaultModel,
		View:    DefaultView,
		Fields:  []string{"order_items.count"},
		Filters: map[string]string{"order_items.created_date": "2025/12/01 to 2026/01/15"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, rows[0]["order_items.count"])
}

func TestLimit(t *testing.T) {
	r, _ := newTestRunner(t)
	rows, err := r.RunInlineQuery(context.Background(), Query{
		Model:  DefaultModel,
		View:   DefaultView,
		Fields: []string{"users.state"},
		Limit:  2,
	})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestRejectsUnknownExploreAndFields(t *testing.T) {
	r, _ := newTestRunner(t)
	ctx := context.Background()

	_, err := r.RunInlineQuery(ctx, Query{Model: "other", View: DefaultView, Fields: []string{"users.state"}})
	require.ErrorIs(t, err, ErrUnknownExplore)

	_, err = r.RunInlineQuery(ctx, Query{Model: DefaultModel, View: DefaultView, Fields: []string{"users.ssn"}})
	require.ErrorIs(t, err, ErrUnknownField)

	_, err = r.RunInlineQuery(ctx, Query{Model: DefaultModel, View: DefaultView, Fields: []string{"users.state"}, Filters: map[string]string{"users.ssn": "1"}})
	require.ErrorIs(t, err, ErrUnknownField)

	_, err = r.RunInlineQuery(ctx, Query{Model: DefaultModel, View: DefaultView, Fields: []string{"users.state"}, Sorts: []string{"users.city"}})
	require.ErrorIs(t, err, ErrUnknownField)

	_, err = r.RunInlineQuery(ctx, Query{Model: DefaultModel, View: DefaultView})
	require.Error(t, err)
}

func TestBadDateExpression(t *testing.T) {
	r, _ := newTestRunner(t)
	_, err := r.RunInlineQuery(context.Background(), Query{
		Model:   DefaultModel,
		View:    DefaultView,
		Fields:  []string{"order_items.count"},
		Filters: map[string]string{"order_items.created_date": "someday"},
	})
	require.Error(t, err)
}
