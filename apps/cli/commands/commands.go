// Package commands implements the admin CLI subcommands. Every command
// opens its own pool against DATABASE_URL and closes it before returning.
package commands

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quartermaster-wms/quartermaster/platform/go/persistence"
)

func openPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	return persistence.NewPool(ctx, persistence.PoolConfig{ConnString: databaseURL})
}
