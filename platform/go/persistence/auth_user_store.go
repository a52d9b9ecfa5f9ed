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

const AuthUsersTable = "auth_users"

// AuthUser represents a row in the auth_users table. PasswordHash never
// leaves the persistence/service boundary.
type AuthUser struct {
	UserID        uuid.UUID  `db:"user_id" json:"userId"`
	OrgID         uuid.UUID  `db:"organization_id" json:"organizationId"`
	Email         string     `db:"email" json:"email"`
	PasswordHash  string     `db:"password_hash" json:"-"`
	FullName      string     `db:"full_name" json:"fullName"`
	Role          string     `db:"role" json:"role"`
	EmailVerified bool       `db:"email_verified" json:"emailVerified"`
	LastLoginAt   *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
}

// AuthUserStore exposes persistence helpers for the auth_users table.
// Lookups by email are global by design: login emails are unique across
// organizations.
type AuthUserStore struct {
	pool *pgxpool.Pool
}

// NewAuthUserStore returns a store instance.
func NewAuthUserStore(pool *pgxpool.Pool) (*AuthUserStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &AuthUserStore{pool: pool}, nil
}

const authUserColumns = "user_id, organization_id, email, password_hash, full_name, role, email_verified, last_login_at, created_at"

// Get returns a single user by identifier.
func (s *AuthUserStore) Get(ctx context.Context, id uuid.UUID) (AuthUser, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		"SELECT %s FROM %s WHERE user_id = $1", authUserColumns, AuthUsersTable), id)
	return scanAuthUser(row)
}

// GetByEmail returns the user owning the given login email.
func (s *AuthUserStore) GetByEmail(ctx context.Context, email string) (AuthUser, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		"SELECT %s FROM %s WHERE email = $1", authUserColumns, AuthUsersTable),
		strings.ToLower(strings.TrimSpace(email)))
	return scanAuthUser(row)
}

// EmailExists reports whether a login email is already registered anywhere.
func (s *AuthUserStore) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, fmt.Sprintf(
		"SELECT EXISTS(SELECT 1 FROM %s WHERE email = $1)", AuthUsersTable),
		strings.ToLower(strings.TrimSpace(email))).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return exists, nil
}

// ListByOrg returns every user belonging to the given organization.
func (s *AuthUserStore) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]AuthUser, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		"SELECT %s FROM %s WHERE organization_id = $1 ORDER BY created_at", authUserColumns, AuthUsersTable), orgID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]AuthUser, 0)
	for rows.Next() {
		user, scanErr := scanAuthUser(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan user: %w", scanErr)
		}
		users = append(users, user)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// UpdatePassword replaces the stored hash for the given user.
func (s *AuthUserStore) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(
		"UPDATE %s SET password_hash = $1 WHERE user_id = $2", AuthUsersTable), passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchLastLogin stamps the user's last successful login time.
func (s *AuthUserStore) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(
		"UPDATE %s SET last_login_at = $1 WHERE user_id = $2", AuthUsersTable), at, id)
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}

func scanAuthUser(row pgx.Row) (AuthUser, error) {
	var user AuthUser
	if err := row.Scan(&user.UserID, &user.OrgID, &user.Email, &user.PasswordHash, &user.FullName, &user.Role, &user.EmailVerified, &user.LastLoginAt, &user.CreatedAt); err != nil {
		return AuthUser{}, mapError(err)
	}
	return user, nil
}
