package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SignupStore owns the one multi-table transaction in the tenancy core:
// organization + owner user + access-key consumption, all or nothing.
type SignupStore struct {
	pool *pgxpool.Pool
}

// NewSignupStore returns a store instance.
func NewSignupStore(pool *pgxpool.Pool) (*SignupStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &SignupStore{pool: pool}, nil
}

// SignupParams captures everything the signup transaction writes. The
// password is already hashed by the service.
type SignupParams struct {
	OrgID        uuid.UUID
	OrgName      string
	Slug         string
	Plan         string
	UserID       uuid.UUID
	Email        string
	PasswordHash string
	FullName     string
	Role         string
	AccessKey    string
}

// CreateOrganizationWithOwner runs the signup transaction:
//
//  1. consume the access key via a guarded increment; the row lock taken by
//     the UPDATE serializes concurrent consumers, so a maxUses=1 key admits
//     exactly one of two racing signups;
//  2. insert the organization;
//  3. insert the OWNER user.
//
// Any failure rolls back the whole unit: a failed signup leaves no
// organization, no user, and an unconsumed key.
func (s *SignupStore) CreateOrganizationWithOwner(ctx context.Context, params SignupParams) (Organization, AuthUser, error) {
	if params.OrgID == uuid.Nil || params.UserID == uuid.Nil {
		return Organization{}, AuthUser{}, errors.New("organization and user ids are required")
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Organization{}, AuthUser{}, fmt.Errorf("begin signup tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, fmt.Sprintf(`
        UPDATE %s SET current_uses = current_uses + 1
        WHERE key = $1
          AND is_active = TRUE
          AND (expires_at IS NULL OR expires_at > NOW())
          AND (max_uses IS NULL OR current_uses < max_uses)
    `, AccessKeysTable), params.AccessKey)
	if err != nil {
		return Organization{}, AuthUser{}, fmt.Errorf("consume access key: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return Organization{}, AuthUser{}, ErrAccessKeyExhausted
	}

	orgRow := tx.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (organization_id, name, slug, plan, access_key_used)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING %s
    `, OrganizationsTable, organizationColumns),
		params.OrgID, strings.TrimSpace(params.OrgName), params.Slug, params.Plan, params.AccessKey,
	)
	org, err := scanOrganization(orgRow)
	if err != nil {
		return Organization{}, AuthUser{}, err
	}

	userRow := tx.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (user_id, organization_id, email, password_hash, full_name, role)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING %s
    `, AuthUsersTable, authUserColumns),
		params.UserID, params.OrgID,
		strings.ToLower(strings.TrimSpace(params.Email)),
		params.PasswordHash,
		strings.TrimSpace(params.FullName),
		params.Role,
	)
	user, err := scanAuthUser(userRow)
	if err != nil {
		return Organization{}, AuthUser{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return Organization{}, AuthUser{}, fmt.Errorf("commit signup tx: %w", err)
	}

	return org, user, nil
}
