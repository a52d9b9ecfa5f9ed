package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const ShippingCredentialsTable = "shipping_credentials"

// Carriers accepted by the shipping_credentials table's CHECK constraint.
const (
	CarrierUPS   = "ups"
	CarrierFedEx = "fedex"
)

// ValidCarrier reports whether carrier is one of the accepted values.
func ValidCarrier(carrier string) bool {
	return carrier == CarrierUPS || carrier == CarrierFedEx
}

// ShippingCredential stores one carrier account per organization. The
// API key never leaves the persistence layer through JSON.
type ShippingCredential struct {
	CredentialID  uuid.UUID `db:"credential_id" json:"credentialId"`
	OrgID         uuid.UUID `db:"organization_id" json:"organizationId"`
	Carrier       string    `db:"carrier" json:"carrier"`
	AccountNumber string    `db:"account_number" json:"accountNumber"`
	APIKey        string    `db:"api_key" json:"-"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

// ShippingCredentialStore exposes org-scoped persistence for carrier accounts.
type ShippingCredentialStore struct {
	pool *pgxpool.Pool
}

// NewShippingCredentialStore returns a store instance.
func NewShippingCredentialStore(pool *pgxpool.Pool) (*ShippingCredentialStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &ShippingCredentialStore{pool: pool}, nil
}

const shippingCredentialColumns = "credential_id, organization_id, carrier, account_number, api_key, created_at, updated_at"

// UpsertShippingCredentialParams captures one carrier account.
type UpsertShippingCredentialParams struct {
	CredentialID  uuid.UUID
	Carrier       string
	AccountNumber string
	APIKey        string
}

// Upsert creates or replaces the organization's credential for a carrier.
// One row per carrier per organization (shipping_credentials_carrier_per_org).
func (s *ShippingCredentialStore) Upsert(ctx context.Context, orgID uuid.UUID, params UpsertShippingCredentialParams) (ShippingCredential, error) {
	if params.CredentialID == uuid.Nil {
		return ShippingCredential{}, errors.New("credential id is required")
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (credential_id, organization_id, carrier, account_number, api_key)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (organization_id, carrier) DO UPDATE SET
            account_number = EXCLUDED.account_number,
            api_key = EXCLUDED.api_key,
            updated_at = NOW()
        RETURNING %s
    `, ShippingCredentialsTable, shippingCredentialColumns),
		params.CredentialID, orgID, params.Carrier, params.AccountNumber, params.APIKey)
	return scanShippingCredential(row)
}

// List returns the organization's carrier credentials.
func (s *ShippingCredentialStore) List(ctx context.Context, orgID uuid.UUID) ([]ShippingCredential, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		"SELECT %s FROM %s WHERE organization_id = $1 ORDER BY carrier ASC", shippingCredentialColumns, ShippingCredentialsTable), orgID)
	if err != nil {
		return nil, fmt.Errorf("list shipping credentials: %w", err)
	}
	defer rows.Close()

	credentials := []ShippingCredential{}
	for rows.Next() {
		credential, scanErr := scanShippingCredential(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan shipping credential: %w", scanErr)
		}
		credentials = append(credentials, credential)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shipping credentials: %w", err)
	}

	return credentials, nil
}

// GetByCarrier returns the organization's credential for one carrier.
func (s *ShippingCredentialStore) GetByCarrier(ctx context.Context, orgID uuid.UUID, carrier string) (ShippingCredential, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		"SELECT %s FROM %s WHERE organization_id = $1 AND carrier = $2", shippingCredentialColumns, ShippingCredentialsTable), orgID, carrier)
	return scanShippingCredential(row)
}

// Delete removes a credential owned by the organization.
func (s *ShippingCredentialStore) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(
		"DELETE FROM %s WHERE organization_id = $1 AND credential_id = $2", ShippingCredentialsTable), orgID, id)
	if err != nil {
		return fmt.Errorf("delete shipping credential: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanShippingCredential(row pgx.Row) (ShippingCredential, error) {
	var credential ShippingCredential
	if err := row.Scan(&credential.CredentialID, &credential.OrgID, &credential.Carrier, &credential.AccountNumber, &credential.APIKey, &credential.CreatedAt, &credential.UpdatedAt); err != nil {
		return ShippingCredential{}, mapError(err)
	}
	return credential, nil
}
