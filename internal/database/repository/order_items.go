package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// TimestampLayout matches how created_at is stored (UTC).
const TimestampLayout = "2006-01-02 15:04:05"

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// OrderItemRepo handles order_items rows.
type OrderItemRepo struct {
	db DBTX
}

func NewOrderItemRepo(db DBTX) *OrderItemRepo { return &OrderItemRepo{db: db} }

const insertOrderItem = `
	INSERT INTO order_items(
	 id, order_id, user_id, created_at, status, sale_price,
	 users_country, users_state, users_city, users_gender, users_traffic_source,
	 products_department, products_category, products_brand)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO NOTHING;
	`

// InsertBatch inserts items with one prepared statement. Existing ids are
// skipped. Run it on a *sql.Tx to make the batch atomic.
func (r *OrderItemRepo) InsertBatch(ctx context.Context, items []OrderItem) error {
	stmt, err := r.db.PrepareContext(ctx, insertOrderItem)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, it := range items {
		if _, err := stmt.ExecContext(ctx,
			it.ID, it.OrderID, it.UserID, it.CreatedAt.UTC().Format(TimestampLayout), it.Status, it.SalePrice,
			it.Country, it.State, it.City, it.Gender, it.TrafficSource,
			it.ProductDepartment, it.ProductCategory, it.ProductBrand); err != nil {
			return fmt.Errorf("insert order item %s: %w", it.ID, err)
		}
	}
	return nil
}

// Count returns the number of rows.
func (r *OrderItemRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM order_items`).Scan(&n)
	return n, err
}

// DeleteAll wipes the table, keeping the schema.
func (r *OrderItemRepo) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM order_items`)
	return err
}

// Latest returns the newest created_at, or the zero time when empty.
func (r *OrderItemRepo) Latest(ctx context.Context) (time.Time, error) {
	var raw sql.NullString
	if err := r.db.QueryRowContext(ctx, `SELECT MAX(created_at) FROM order_items`).Scan(&raw); err != nil {
		return time.Time{}, err
	}
	if !raw.Valid {
		return time.Time{}, nil
	}
	return time.ParseInLocation(TimestampLayout, raw.String, time.UTC)
}
