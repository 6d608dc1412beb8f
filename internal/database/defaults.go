package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/jask/dashtabs/internal/database/repository"
	"github.com/jask/dashtabs/internal/testdata"
)

const (
	demoSeed = 20240607
	demoRows = 4000
	demoDays = 180
)

// SeedDemo fills the explore with demo rows when it is empty.
// It is idempotent and safe to run on every startup.
func SeedDemo(ctx context.Context, db *sql.DB, now time.Time) (int, error) {
	var n int
	err := WithTx(ctx, db, func(tx *sql.Tx) error {
		var err error
		n, err = SeedDemoTx(ctx, tx, now)
		return err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// SeedDemoTx is SeedDemo inside a caller's transaction.
func SeedDemoTx(ctx context.Context, tx *sql.Tx, now time.Time) (int, error) {
	repo := repository.NewOrderItemRepo(tx)
	n, err := repo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	items := testdata.Generate(demoSeed, demoRows, demoDays, now)
	if err := repo.InsertBatch(ctx, items); err != nil {
		return 0, err
	}
	return len(items), nil
}
