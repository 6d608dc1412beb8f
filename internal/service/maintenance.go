package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jask/dashtabs/internal/database"
	"github.com/jask/dashtabs/internal/database/repository"
)

// MaintenanceService houses destructive/ops actions on the demo explore.
type MaintenanceService struct {
	DB *sql.DB
}

// Reseed wipes the explore and regenerates demo rows ending at now, in one
// transaction: when seeding fails the previous rows are kept. The schema
// stays intact so a running app can continue.
func (s *MaintenanceService) Reseed(ctx context.Context, now time.Time) (int, error) {
	if s.DB == nil {
		return 0, fmt.Errorf("maintenance: db not configured")
	}
	var n int
	if err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		if err := repository.NewOrderItemRepo(tx).DeleteAll(ctx); err != nil {
			return fmt.Errorf("reset order_items: %w", err)
		}
		var err error
		if n, err = database.SeedDemoTx(ctx, tx, now); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
		return nil
	}); err != nil {
		return 0, err
	}
	_, _ = s.DB.ExecContext(ctx, "VACUUM")
	return n, nil
}
