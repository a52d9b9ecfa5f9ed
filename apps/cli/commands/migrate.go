package commands

import (
	"context"
	"fmt"

	"github.com/quartermaster-wms/quartermaster/platform/go/persistence"
)

type MigrateCmd struct {
	DatabaseURL string `help:"Postgres connection string" required:"" env:"DATABASE_URL"`
}

func (m *MigrateCmd) Run(ctx context.Context) error {
	pool, err := openPool(ctx, m.DatabaseURL)
	if err != nil {
		return err
	}
	defer persistence.ClosePool(pool)

	if err := persistence.ApplySchema(ctx, pool); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	fmt.Println("schema applied")
	return nil
}
