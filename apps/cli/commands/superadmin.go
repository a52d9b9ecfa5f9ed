package commands

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	platformauth "github.com/quartermaster-wms/quartermaster/platform/go/auth"
	"github.com/quartermaster-wms/quartermaster/platform/go/persistence"
)

type CreateSuperAdminCmd struct {
	Email       string `help:"Admin email address" required:""`
	Password    string `help:"Admin password" required:""`
	FullName    string `help:"Admin display name" required:"" name:"full-name"`
	DatabaseURL string `help:"Postgres connection string" required:"" env:"DATABASE_URL"`
}

func (c *CreateSuperAdminCmd) Run(ctx context.Context) error {
	email := strings.ToLower(strings.TrimSpace(c.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid email %q", c.Email)
	}
	if issues := platformauth.ValidatePassword(c.Password); len(issues) > 0 {
		return fmt.Errorf("weak password: %s", strings.Join(issues, "; "))
	}
	fullName := strings.TrimSpace(c.FullName)
	if fullName == "" {
		return fmt.Errorf("full name is required")
	}

	hash, err := platformauth.HashPassword(c.Password)
	if err != nil {
		return err
	}

	pool, err := openPool(ctx, c.DatabaseURL)
	if err != nil {
		return err
	}
	defer persistence.ClosePool(pool)

	store, err := persistence.NewSuperAdminStore(pool)
	if err != nil {
		return err
	}

	admin, err := store.Create(ctx, persistence.CreateSuperAdminParams{
		AdminID:      uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FullName:     fullName,
	})
	if err != nil {
		return fmt.Errorf("create super admin: %w", err)
	}

	fmt.Printf("created super admin %s (%s)\n", admin.Email, admin.AdminID)
	return nil
}
