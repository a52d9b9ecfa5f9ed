package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/quartermaster-wms/quartermaster/platform/go/persistence"
)

// Repository defines the persistence operations required by the
// integrations service, all scoped to the caller's organization. The
// product methods exist for the Shopify catalogue import.
type Repository interface {
	UpsertInvoiceSettings(ctx context.Context, orgID uuid.UUID, params persistence.UpsertInvoiceSettingsParams) (persistence.InvoiceSettings, error)
	GetInvoiceSettings(ctx context.Context, orgID uuid.UUID) (persistence.InvoiceSettings, error)

	UpsertShippingCredential(ctx context.Context, orgID uuid.UUID, params persistence.UpsertShippingCredentialParams) (persistence.ShippingCredential, error)
	ListShippingCredentials(ctx context.Context, orgID uuid.UUID) ([]persistence.ShippingCredential, error)
	GetShippingCredentialByCarrier(ctx context.Context, orgID uuid.UUID, carrier string) (persistence.ShippingCredential, error)
	DeleteShippingCredential(ctx context.Context, orgID, id uuid.UUID) error

	CreateShopifyConnection(ctx context.Context, orgID uuid.UUID, params persistence.CreateShopifyConnectionParams) (persistence.ShopifyConnection, error)
	ListShopifyConnections(ctx context.Context, orgID uuid.UUID) ([]persistence.ShopifyConnection, error)
	GetShopifyConnection(ctx context.Context, orgID, id uuid.UUID) (persistence.ShopifyConnection, error)
	MarkShopifySynced(ctx context.Context, orgID, id uuid.UUID, at time.Time) (persistence.ShopifyConnection, error)
	SetShopifyActive(ctx context.Context, orgID, id uuid.UUID, active bool) (persistence.ShopifyConnection, error)
	DeleteShopifyConnection(ctx context.Context, orgID, id uuid.UUID) error

	ProductSKUExists(ctx context.Context, orgID uuid.UUID, sku string) (bool, error)
	CreateProduct(ctx context.Context, orgID uuid.UUID, params persistence.CreateProductParams) (persistence.Product, error)
}

type postgresRepository struct {
	invoiceSettings *persistence.InvoiceSettingsStore
	credentials     *persistence.ShippingCredentialStore
	connections     *persistence.ShopifyConnectionStore
	products        *persistence.ProductStore
}

// NewPostgresRepository constructs a repository backed by the shared
// persistence layer.
func NewPostgresRepository(
	invoiceSettings *persistence.InvoiceSettingsStore,
	credentials *persistence.ShippingCredentialStore,
	connections *persistence.ShopifyConnectionStore,
	products *persistence.ProductStore,
) Repository {
	if invoiceSettings == nil || credentials == nil || connections == nil || products == nil {
		panic("all integration stores are required")
	}
	return &postgresRepository{
		invoiceSettings: invoiceSettings,
		credentials:     credentials,
		connections:     connections,
		products:        products,
	}
}

func (r *postgresRepository) UpsertInvoiceSettings(ctx context.Context, orgID uuid.UUID, params persistence.UpsertInvoiceSettingsParams) (persistence.InvoiceSettings, error) {
	return r.invoiceSettings.Upsert(ctx, orgID, params)
}

func (r *postgresRepository) GetInvoiceSettings(ctx context.Context, orgID uuid.UUID) (persistence.InvoiceSettings, error) {
	return r.invoiceSettings.Get(ctx, orgID)
}

func (r *postgresRepository) UpsertShippingCredential(ctx context.Context, orgID uuid.UUID, params persistence.UpsertShippingCredentialParams) (persistence.ShippingCredential, error) {
	return r.credentials.Upsert(ctx, orgID, params)
}

func (r *postgresRepository) ListShippingCredentials(ctx context.Context, orgID uuid.UUID) ([]persistence.ShippingCredential, error) {
	return r.credentials.List(ctx, orgID)
}

func (r *postgresRepository) GetShippingCredentialByCarrier(ctx context.Context, orgID uuid.UUID, carrier string) (persistence.ShippingCredential, error) {
	return r.credentials.GetByCarrier(ctx, orgID, carrier)
}

func (r *postgresRepository) DeleteShippingCredential(ctx context.Context, orgID, id uuid.UUID) error {
	return r.credentials.Delete(ctx, orgID, id)
}

func (r *postgresRepository) CreateShopifyConnection(ctx context.Context, orgID uuid.UUID, params persistence.CreateShopifyConnectionParams) (persistence.ShopifyConnection, error) {
	return r.connections.Create(ctx, orgID, params)
}

func (r *postgresRepository) ListShopifyConnections(ctx context.Context, orgID uuid.UUID) ([]persistence.ShopifyConnection, error) {
	return r.connections.List(ctx, orgID)
}

func (r *postgresRepository) GetShopifyConnection(ctx context.Context, orgID, id uuid.UUID) (persistence.ShopifyConnection, error) {
	return r.connections.Get(ctx, orgID, id)
}

func (r *postgresRepository) MarkShopifySynced(ctx context.Context, orgID, id uuid.UUID, at time.Time) (persistence.ShopifyConnection, error) {
	return r.connections.MarkSynced(ctx, orgID, id, at)
}

func (r *postgresRepository) SetShopifyActive(ctx context.Context, orgID, id uuid.UUID, active bool) (persistence.ShopifyConnection, error) {
	return r.connections.SetActive(ctx, orgID, id, active)
}

func (r *postgresRepository) DeleteShopifyConnection(ctx context.Context, orgID, id uuid.UUID) error {
	return r.connections.Delete(ctx, orgID, id)
}

func (r *postgresRepository) ProductSKUExists(ctx context.Context, orgID uuid.UUID, sku string) (bool, error) {
	return r.products.SKUExists(ctx, orgID, sku)
}

func (r *postgresRepository) CreateProduct(ctx context.Context, orgID uuid.UUID, params persistence.CreateProductParams) (persistence.Product, error) {
	return r.products.Create(ctx, orgID, params)
}
