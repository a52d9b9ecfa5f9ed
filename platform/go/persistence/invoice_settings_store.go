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

const InvoiceSettingsTable = "invoice_settings"

// InvoiceSettings is the organization's single invoice configuration row.
type InvoiceSettings struct {
	OrgID       uuid.UUID `db:"organization_id" json:"organizationId"`
	CompanyName string    `db:"company_name" json:"companyName"`
	Address     *string   `db:"address" json:"address,omitempty"`
	TaxID       *string   `db:"tax_id" json:"taxId,omitempty"`
	FooterNote  *string   `db:"footer_note" json:"footerNote,omitempty"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// InvoiceSettingsStore persists the one-per-organization invoice settings.
type InvoiceSettingsStore struct {
	pool *pgxpool.Pool
}

// NewInvoiceSettingsStore returns a store instance.
func NewInvoiceSettingsStore(pool *pgxpool.Pool) (*InvoiceSettingsStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &InvoiceSettingsStore{pool: pool}, nil
}

const invoiceSettingsColumns = "organization_id, company_name, address, tax_id, footer_note, updated_at"

// UpsertInvoiceSettingsParams captures the writable fields.
type UpsertInvoiceSettingsParams struct {
	CompanyName string
	Address     *string
	TaxID       *string
	FooterNote  *string
}

// Upsert creates or replaces the organization's invoice settings.
func (s *InvoiceSettingsStore) Upsert(ctx context.Context, orgID uuid.UUID, params UpsertInvoiceSettingsParams) (InvoiceSettings, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (organization_id, company_name, address, tax_id, footer_note)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (organization_id) DO UPDATE SET
            company_name = EXCLUDED.company_name,
            address = EXCLUDED.address,
            tax_id = EXCLUDED.tax_id,
            footer_note = EXCLUDED.footer_note,
            updated_at = NOW()
        RETURNING %s
    `, InvoiceSettingsTable, invoiceSettingsColumns),
		orgID, strings.TrimSpace(params.CompanyName), params.Address, params.TaxID, params.FooterNote)
	return scanInvoiceSettings(row)
}

// Get returns the organization's invoice settings.
func (s *InvoiceSettingsStore) Get(ctx context.Context, orgID uuid.UUID) (InvoiceSettings, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		"SELECT %s FROM %s WHERE organization_id = $1", invoiceSettingsColumns, InvoiceSettingsTable), orgID)
	return scanInvoiceSettings(row)
}

func scanInvoiceSettings(row pgx.Row) (InvoiceSettings, error) {
	var settings InvoiceSettings
	if err := row.Scan(&settings.OrgID, &settings.CompanyName, &settings.Address, &settings.TaxID, &settings.FooterNote, &settings.UpdatedAt); err != nil {
		return InvoiceSettings{}, mapError(err)
	}
	return settings, nil
}
