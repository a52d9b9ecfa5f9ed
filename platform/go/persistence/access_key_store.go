package persistence

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const AccessKeysTable = "access_keys"

// AccessKeyPattern is the canonical key format.
var AccessKeyPattern = regexp.MustCompile(`^QW-[A-F0-9]{16}$`)

// AccessKey represents a row in the access_keys table.
type AccessKey struct {
	KeyID       uuid.UUID  `db:"key_id" json:"keyId"`
	Key         string     `db:"key" json:"key"`
	IsActive    bool       `db:"is_active" json:"isActive"`
	MaxUses     *int       `db:"max_uses" json:"maxUses,omitempty"`
	CurrentUses int        `db:"current_uses" json:"currentUses"`
	ExpiresAt   *time.Time `db:"expires_at" json:"expiresAt,omitempty"`
	CreatedBy   string     `db:"created_by" json:"createdBy"`
	Notes       *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
}

// Usable reports whether the key can still admit a signup at the given time.
func (k AccessKey) Usable(now time.Time) bool {
	if !k.IsActive {
		return false
	}
	if k.ExpiresAt != nil && !k.ExpiresAt.After(now) {
		return false
	}
	if k.MaxUses != nil && k.CurrentUses >= *k.MaxUses {
		return false
	}
	return true
}

// NewAccessKeyValue generates a fresh key in the QW-<16 hex> format.
func NewAccessKeyValue() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate access key: %w", err)
	}
	return "QW-" + strings.ToUpper(hex.EncodeToString(buf)), nil
}

// AccessKeyStore exposes persistence helpers for the access_keys table.
// Consumption happens inside the signup transaction (see SignupStore), not
// here.
type AccessKeyStore struct {
	pool *pgxpool.Pool
}

// NewAccessKeyStore returns a store instance.
func NewAccessKeyStore(pool *pgxpool.Pool) (*AccessKeyStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &AccessKeyStore{pool: pool}, nil
}

const accessKeyColumns = "key_id, key, is_active, max_uses, current_uses, expires_at, created_by, notes, created_at"

// CreateAccessKeyParams captures the fields required to mint a key.
type CreateAccessKeyParams struct {
	KeyID     uuid.UUID
	Key       string
	MaxUses   *int
	ExpiresAt *time.Time
	CreatedBy string
	Notes     *string
}

// Create inserts a new access key.
func (s *AccessKeyStore) Create(ctx context.Context, params CreateAccessKeyParams) (AccessKey, error) {
	if params.KeyID == uuid.Nil {
		return AccessKey{}, errors.New("key id is required")
	}
	if !AccessKeyPattern.MatchString(params.Key) {
		return AccessKey{}, fmt.Errorf("invalid access key format %q", params.Key)
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (key_id, key, max_uses, expires_at, created_by, notes)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING %s
    `, AccessKeysTable, accessKeyColumns),
		params.KeyID, params.Key, params.MaxUses, params.ExpiresAt,
		strings.TrimSpace(params.CreatedBy), params.Notes,
	)
	return scanAccessKey(row)
}

// GetByKey returns the key record for the given key value.
func (s *AccessKeyStore) GetByKey(ctx context.Context, key string) (AccessKey, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		"SELECT %s FROM %s WHERE key = $1", accessKeyColumns, AccessKeysTable), key)
	return scanAccessKey(row)
}

// List returns all keys, newest first.
func (s *AccessKeyStore) List(ctx context.Context) ([]AccessKey, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		"SELECT %s FROM %s ORDER BY created_at DESC", accessKeyColumns, AccessKeysTable))
	if err != nil {
		return nil, fmt.Errorf("list access keys: %w", err)
	}
	defer rows.Close()

	keys := make([]AccessKey, 0)
	for rows.Next() {
		key, scanErr := scanAccessKey(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan access key: %w", scanErr)
		}
		keys = append(keys, key)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate access keys: %w", err)
	}
	return keys, nil
}

func scanAccessKey(row pgx.Row) (AccessKey, error) {
	var key AccessKey
	if err := row.Scan(&key.KeyID, &key.Key, &key.IsActive, &key.MaxUses, &key.CurrentUses, &key.ExpiresAt, &key.CreatedBy, &key.Notes, &key.CreatedAt); err != nil {
		return AccessKey{}, mapError(err)
	}
	return key, nil
}
