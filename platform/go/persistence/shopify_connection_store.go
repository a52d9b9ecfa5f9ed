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

const ShopifyConnectionsTable = "shopify_connections"

// ShopifyConnection links an organization to one Shopify shop. The
// access token never leaves the persistence layer through JSON.
type ShopifyConnection struct {
	ConnectionID uuid.UUID  `db:"connection_id" json:"connectionId"`
	OrgID        uuid.UUID  `db:"organization_id" json:"organizationId"`
	ShopDomain   string     `db:"shop_domain" json:"shopDomain"`
	AccessToken  string     `db:"access_token" json:"-"`
	IsActive     bool       `db:"is_active" json:"isActive"`
	LastSyncAt   *time.Time `db:"last_sync_at" json:"lastSyncAt,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
}

// ShopifyConnectionStore exposes org-scoped persistence for Shopify links.
type ShopifyConnectionStore struct {
	pool *pgxpool.Pool
}

// NewShopifyConnectionStore returns a store instance.
func NewShopifyConnectionStore(pool *pgxpool.Pool) (*ShopifyConnectionStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &ShopifyConnectionStore{pool: pool}, nil
}

const shopifyConnectionColumns = "connection_id, organization_id, shop_domain, access_token, is_active, last_sync_at, created_at"

// CreateShopifyConnectionParams captures a new shop link.
type CreateShopifyConnectionParams struct {
	ConnectionID uuid.UUID
	ShopDomain   string
	AccessToken  string
}

// Create links a shop to the organization. A domain already linked to
// this organization surfaces as ErrShopConflict.
func (s *ShopifyConnectionStore) Create(ctx context.Context, orgID uuid.UUID, params CreateShopifyConnectionParams) (ShopifyConnection, error) {
	if params.ConnectionID == uuid.Nil {
		return ShopifyConnection{}, errors.New("connection id is required")
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (connection_id, organization_id, shop_domain, access_token)
        VALUES ($1, $2, $3, $4)
        RETURNING %s
    `, ShopifyConnectionsTable, shopifyConnectionColumns),
		params.ConnectionID, orgID, strings.ToLower(strings.TrimSpace(params.ShopDomain)), params.AccessToken)
	return scanShopifyConnection(row)
}

// List returns the organization's shop links.
func (s *ShopifyConnectionStore) List(ctx context.Context, orgID uuid.UUID) ([]ShopifyConnection, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		"SELECT %s FROM %s WHERE organization_id = $1 ORDER BY created_at DESC", shopifyConnectionColumns, ShopifyConnectionsTable), orgID)
	if err != nil {
		return nil, fmt.Errorf("list shopify connections: %w", err)
	}
	defer rows.Close()

	connections := []ShopifyConnection{}
	for rows.Next() {
		connection, scanErr := scanShopifyConnection(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan shopify connection: %w", scanErr)
		}
		connections = append(connections, connection)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shopify connections: %w", err)
	}

	return connections, nil
}

// Get returns a single shop link owned by the organization.
func (s *ShopifyConnectionStore) Get(ctx context.Context, orgID, id uuid.UUID) (ShopifyConnection, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		"SELECT %s FROM %s WHERE organization_id = $1 AND connection_id = $2", shopifyConnectionColumns, ShopifyConnectionsTable), orgID, id)
	return scanShopifyConnection(row)
}

// MarkSynced stamps last_sync_at after a successful sync.
func (s *ShopifyConnectionStore) MarkSynced(ctx context.Context, orgID, id uuid.UUID, at time.Time) (ShopifyConnection, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        UPDATE %s SET last_sync_at = $1
        WHERE organization_id = $2 AND connection_id = $3
        RETURNING %s
    `, ShopifyConnectionsTable, shopifyConnectionColumns), at, orgID, id)
	return scanShopifyConnection(row)
}

// SetActive toggles whether the link participates in syncs.
func (s *ShopifyConnectionStore) SetActive(ctx context.Context, orgID, id uuid.UUID, active bool) (ShopifyConnection, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        UPDATE %s SET is_active = $1
        WHERE organization_id = $2 AND connection_id = $3
        RETURNING %s
    `, ShopifyConnectionsTable, shopifyConnectionColumns), active, orgID, id)
	return scanShopifyConnection(row)
}

// Delete removes a shop link owned by the organization.
func (s *ShopifyConnectionStore) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(
		"DELETE FROM %s WHERE organization_id = $1 AND connection_id = $2", ShopifyConnectionsTable), orgID, id)
	if err != nil {
		return fmt.Errorf("delete shopify connection: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanShopifyConnection(row pgx.Row) (ShopifyConnection, error) {
	var connection ShopifyConnection
	if err := row.Scan(&connection.ConnectionID, &connection.OrgID, &connection.ShopDomain, &connection.AccessToken, &connection.IsActive, &connection.LastSyncAt, &connection.CreatedAt); err != nil {
		return ShopifyConnection{}, mapError(err)
	}
	return connection, nil
}
