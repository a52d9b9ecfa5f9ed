package persistence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	sqlassets "github.com/quartermaster-wms/quartermaster/database"
)

// ApplySchema applies the embedded DDL. Statements are idempotent
// (IF NOT EXISTS) so this is safe to run on every startup.
func ApplySchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, ddl := range []struct {
		name string
		sql  string
	}{
		{"core", sqlassets.CoreSQL},
		{"warehouse", sqlassets.WarehouseSQL},
	} {
		if _, err := pool.Exec(ctx, ddl.sql); err != nil {
			return fmt.Errorf("apply %s schema: %w", ddl.name, err)
		}
	}
	return nil
}
