package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const SuperAdminsTable = "super_admins"

// SuperAdmin represents a row in the super_admins table. Independent of any
// organization.
type SuperAdmin struct {
	AdminID      uuid.UUID `db:"admin_id" json:"adminId"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"fullName"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// SuperAdminStore exposes persistence helpers for the super_admins table.
type SuperAdminStore struct {
	pool *pgxpool.Pool
}

// NewSuperAdminStore returns a store instance.
func NewSuperAdminStore(pool *pgxpool.Pool) (*SuperAdminStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &SuperAdminStore{pool: pool}, nil
}

// CreateSuperAdminParams captures the fields required to insert an admin.
type CreateSuperAdminParams struct {
	AdminID      uuid.UUID
	Email        string
	PasswordHash string
	FullName     string
}

// Create inserts a new super admin.
func (s *SuperAdminStore) Create(ctx context.Context, params CreateSuperAdminParams) (SuperAdmin, error) {
	if params.AdminID == uuid.Nil {
		return SuperAdmin{}, errors.New("admin id is required")
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (admin_id, email, password_hash, full_name)
        VALUES ($1, $2, $3, $4)
        RETURNING admin_id, email, password_hash, full_name, created_at
    `, SuperAdminsTable),
		params.AdminID,
		strings.ToLower(strings.TrimSpace(params.Email)),
		params.PasswordHash,
		strings.TrimSpace(params.FullName),
	)
	return scanSuperAdmin(row)
}

// GetByEmail returns the admin owning the given email.
func (s *SuperAdminStore) GetByEmail(ctx context.Context, email string) (SuperAdmin, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT admin_id, email, password_hash, full_name, created_at
        FROM %s WHERE email = $1
    `, SuperAdminsTable), strings.ToLower(strings.TrimSpace(email)))
	return scanSuperAdmin(row)
}

func scanSuperAdmin(row pgx.Row) (SuperAdmin, error) {
	var admin SuperAdmin
	if err := row.Scan(&admin.AdminID, &admin.Email, &admin.PasswordHash, &admin.FullName, &admin.CreatedAt); err != nil {
		return SuperAdmin{}, mapError(err)
	}
	return admin, nil
}
