package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const SessionsTable = "sessions"

// SessionPrincipal is the joined view a valid session resolves to: the user
// plus its organization. Resolution refuses suspended and inactive
// organizations, which is what makes suspension an enforced state rather than
// a dashboard flag.
type SessionPrincipal struct {
	UserID   uuid.UUID
	Email    string
	FullName string
	Role     string
	OrgID    uuid.UUID
	OrgName  string
}

// SessionStore exposes persistence helpers for server-side tenant sessions.
// Tokens are stored only as SHA-256 hashes.
type SessionStore struct {
	pool *pgxpool.Pool
}

// NewSessionStore returns a store instance.
func NewSessionStore(pool *pgxpool.Pool) (*SessionStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &SessionStore{pool: pool}, nil
}

// CreateSessionParams captures the fields required to persist a session.
type CreateSessionParams struct {
	TokenHash string
	UserID    uuid.UUID
	OrgID     uuid.UUID
	ExpiresAt time.Time
}

// Create inserts a session row.
func (s *SessionStore) Create(ctx context.Context, params CreateSessionParams) error {
	if params.TokenHash == "" {
		return errors.New("token hash is required")
	}

	_, err := s.pool.Exec(ctx, fmt.Sprintf(`
        INSERT INTO %s (token_hash, user_id, organization_id, expires_at)
        VALUES ($1, $2, $3, $4)
    `, SessionsTable), params.TokenHash, params.UserID, params.OrgID, params.ExpiresAt)
	if err != nil {
		return fmt.Errorf("create session: %w", mapError(err))
	}
	return nil
}

// Resolve returns the principal for an unexpired session whose organization
// is active and not suspended. Any other state is ErrNotFound.
func (s *SessionStore) Resolve(ctx context.Context, tokenHash string) (SessionPrincipal, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT u.user_id, u.email, u.full_name, u.role, o.organization_id, o.name
        FROM %s sess
        JOIN auth_users u ON u.user_id = sess.user_id
        JOIN organizations o ON o.organization_id = sess.organization_id
        WHERE sess.token_hash = $1
          AND sess.expires_at > NOW()
          AND o.is_active = TRUE
          AND o.is_suspended = FALSE
    `, SessionsTable), tokenHash)

	var p SessionPrincipal
	if err := row.Scan(&p.UserID, &p.Email, &p.FullName, &p.Role, &p.OrgID, &p.OrgName); err != nil {
		return SessionPrincipal{}, mapError(err)
	}
	return p, nil
}

// Delete revokes a single session. Missing rows are not an error: logout is
// idempotent.
func (s *SessionStore) Delete(ctx context.Context, tokenHash string) error {
	if _, err := s.pool.Exec(ctx, fmt.Sprintf(
		"DELETE FROM %s WHERE token_hash = $1", SessionsTable), tokenHash); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteForUser revokes every session belonging to a user, used after a
// password reset.
func (s *SessionStore) DeleteForUser(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.pool.Exec(ctx, fmt.Sprintf(
		"DELETE FROM %s WHERE user_id = $1", SessionsTable), userID); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

// DeleteExpired prunes expired rows and returns how many were removed.
func (s *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(
		"DELETE FROM %s WHERE expires_at <= NOW()", SessionsTable))
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
