package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quartermaster-wms/quartermaster/platform/go/persistence"
)

type CreateAccessKeyCmd struct {
	MaxUses     int           `help:"Maximum number of signups the key allows (0 = unlimited)" name:"max-uses"`
	ExpiresIn   time.Duration `help:"Key lifetime from now (0 = never expires)" name:"expires-in"`
	Notes       string        `help:"Free-form note recorded on the key"`
	DatabaseURL string        `help:"Postgres connection string" required:"" env:"DATABASE_URL"`
}

func (c *CreateAccessKeyCmd) Run(ctx context.Context) error {
	if c.MaxUses < 0 {
		return fmt.Errorf("max-uses must not be negative")
	}
	if c.ExpiresIn < 0 {
		return fmt.Errorf("expires-in must not be negative")
	}

	value, err := persistence.NewAccessKeyValue()
	if err != nil {
		return err
	}

	params := persistence.CreateAccessKeyParams{
		KeyID:     uuid.New(),
		Key:       value,
		CreatedBy: "cli",
	}
	if c.MaxUses > 0 {
		params.MaxUses = &c.MaxUses
	}
	if c.ExpiresIn > 0 {
		expiresAt := time.Now().Add(c.ExpiresIn)
		params.ExpiresAt = &expiresAt
	}
	if c.Notes != "" {
		params.Notes = &c.Notes
	}

	pool, err := openPool(ctx, c.DatabaseURL)
	if err != nil {
		return err
	}
	defer persistence.ClosePool(pool)

	store, err := persistence.NewAccessKeyStore(pool)
	if err != nil {
		return err
	}

	key, err := store.Create(ctx, params)
	if err != nil {
		return fmt.Errorf("create access key: %w", err)
	}

	fmt.Println(key.Key)
	return nil
}
