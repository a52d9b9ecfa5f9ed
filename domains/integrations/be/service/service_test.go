package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/quartermaster-wms/quartermaster/domains/integrations/be/client"
	"github.com/quartermaster-wms/quartermaster/platform/go/persistence"
)

type mockRepository struct {
	upsertInvoiceSettingsFn func(ctx context.Context, orgID uuid.UUID, params persistence.UpsertInvoiceSettingsParams) (persistence.InvoiceSettings, error)
	getInvoiceSettingsFn    func(ctx context.Context, orgID uuid.UUID) (persistence.InvoiceSettings, error)
	upsertCredentialFn      func(ctx context.Context, orgID uuid.UUID, params persistence.UpsertShippingCredentialParams) (persistence.ShippingCredential, error)
	listCredentialsFn       func(ctx context.Context, orgID uuid.UUID) ([]persistence.ShippingCredential, error)
	getCredentialFn         func(ctx context.Context, orgID uuid.UUID, carrier string) (persistence.ShippingCredential, error)
	deleteCredentialFn      func(ctx context.Context, orgID, id uuid.UUID) error
	createConnectionFn      func(ctx context.Context, orgID uuid.UUID, params persistence.CreateShopifyConnectionParams) (persistence.ShopifyConnection, error)
	listConnectionsFn       func(ctx context.Context, orgID uuid.UUID) ([]persistence.ShopifyConnection, error)
	getConnectionFn         func(ctx context.Context, orgID, id uuid.UUID) (persistence.ShopifyConnection, error)
	markSyncedFn            func(ctx context.Context, orgID, id uuid.UUID, at time.Time) (persistence.ShopifyConnection, error)
	setActiveFn             func(ctx context.Context, orgID, id uuid.UUID, active bool) (persistence.ShopifyConnection, error)
	deleteConnectionFn      func(ctx context.Context, orgID, id uuid.UUID) error
	skuExistsFn             func(ctx context.Context, orgID uuid.UUID, sku string) (bool, error)
	createProductFn         func(ctx context.Context, orgID uuid.UUID, params persistence.CreateProductParams) (persistence.Product, error)
}

func (m *mockRepository) UpsertInvoiceSettings(ctx context.Context, orgID uuid.UUID, params persistence.UpsertInvoiceSettingsParams) (persistence.InvoiceSettings, error) {
	if m.upsertInvoiceSettingsFn == nil {
		panic("upsertInvoiceSettingsFn not configured")
	}
	return m.upsertInvoiceSettingsFn(ctx, orgID, params)
}

func (m *mockRepository) GetInvoiceSettings(ctx context.Context, orgID uuid.UUID) (persistence.InvoiceSettings, error) {
	if m.getInvoiceSettingsFn == nil {
		panic("getInvoiceSettingsFn not configured")
	}
	return m.getInvoiceSettingsFn(ctx, orgID)
}

func (m *mockRepository) UpsertShippingCredential(ctx context.Context, orgID uuid.UUID, params persistence.UpsertShippingCredentialParams) (persistence.ShippingCredential, error) {
	if m.upsertCredentialFn == nil {
		panic("upsertCredentialFn not configured")
	}
	return m.upsertCredentialFn(ctx, orgID, params)
}

func (m *mockRepository) ListShippingCredentials(ctx context.Context, orgID uuid.UUID) ([]persistence.ShippingCredential, error) {
	if m.listCredentialsFn == nil {
		panic("listCredentialsFn not configured")
	}
	return m.listCredentialsFn(ctx, orgID)
}

func (m *mockRepository) GetShippingCredentialByCarrier(ctx context.Context, orgID uuid.UUID, carrier string) (persistence.ShippingCredential, error) {
	if m.getCredentialFn == nil {
		panic("getCredentialFn not configured")
	}
	return m.getCredentialFn(ctx, orgID, carrier)
}

func (m *mockRepository) DeleteShippingCredential(ctx context.Context, orgID, id uuid.UUID) error {
	if m.deleteCredentialFn == nil {
		panic("deleteCredentialFn not configured")
	}
	return m.deleteCredentialFn(ctx, orgID, id)
}

func (m *mockRepository) CreateShopifyConnection(ctx context.Context, orgID uuid.UUID, params persistence.CreateShopifyConnectionParams) (persistence.ShopifyConnection, error) {
	if m.createConnectionFn == nil {
		panic("createConnectionFn not configured")
	}
	return m.createConnectionFn(ctx, orgID, params)
}

func (m *mockRepository) ListShopifyConnections(ctx context.Context, orgID uuid.UUID) ([]persistence.ShopifyConnection, error) {
	if m.listConnectionsFn == nil {
		panic("listConnectionsFn not configured")
	}
	return m.listConnectionsFn(ctx, orgID)
}

func (m *mockRepository) GetShopifyConnection(ctx context.Context, orgID, id uuid.UUID) (persistence.ShopifyConnection, error) {
	if m.getConnectionFn == nil {
		panic("getConnectionFn not configured")
	}
	return m.getConnectionFn(ctx, orgID, id)
}

func (m *mockRepository) MarkShopifySynced(ctx context.Context, orgID, id uuid.UUID, at time.Time) (persistence.ShopifyConnection, error) {
	if m.markSyncedFn == nil {
		panic("markSyncedFn not configured")
	}
	return m.markSyncedFn(ctx, orgID, id, at)
}

func (m *mockRepository) SetShopifyActive(ctx context.Context, orgID, id uuid.UUID, active bool) (persistence.ShopifyConnection, error) {
	if m.setActiveFn == nil {
		panic("setActiveFn not configured")
	}
	return m.setActiveFn(ctx, orgID, id, active)
}

func (m *mockRepository) DeleteShopifyConnection(ctx context.Context, orgID, id uuid.UUID) error {
	if m.deleteConnectionFn == nil {
		panic("deleteConnectionFn not configured")
	}
	return m.deleteConnectionFn(ctx, orgID, id)
}

func (m *mockRepository) ProductSKUExists(ctx context.Context, orgID uuid.UUID, sku string) (bool, error) {
	if m.skuExistsFn == nil {
		panic("skuExistsFn not configured")
	}
	return m.skuExistsFn(ctx, orgID, sku)
}

func (m *mockRepository) CreateProduct(ctx context.Context, orgID uuid.UUID, params persistence.CreateProductParams) (persistence.Product, error) {
	if m.createProductFn == nil {
		panic("createProductFn not configured")
	}
	return m.createProductFn(ctx, orgID, params)
}

type mockShopifyClient struct {
	pullProductsFn func(ctx context.Context, shopDomain, accessToken string) ([]client.ShopProduct, error)
}

func (m *mockShopifyClient) PullProducts(ctx context.Context, shopDomain, accessToken string) ([]client.ShopProduct, error) {
	if m.pullProductsFn == nil {
		panic("pullProductsFn not configured")
	}
	return m.pullProductsFn(ctx, shopDomain, accessToken)
}

type mockTrackingClient struct {
	trackFn func(ctx context.Context, carrier string, creds client.CarrierCredentials, trackingNumber string) (client.TrackingStatus, error)
}

func (m *mockTrackingClient) Track(ctx context.Context, carrier string, creds client.CarrierCredentials, trackingNumber string) (client.TrackingStatus, error) {
	if m.trackFn == nil {
		panic("trackFn not configured")
	}
	return m.trackFn(ctx, carrier, creds, trackingNumber)
}

func newService(repo *mockRepository, shopify *mockShopifyClient, tracking *mockTrackingClient) Service {
	if shopify == nil {
		shopify = &mockShopifyClient{}
	}
	if tracking == nil {
		tracking = &mockTrackingClient{}
	}
	return New(repo, shopify, tracking)
}

func strPtr(s string) *string { return &s }

func TestUpsertInvoiceSettingsValidation(t *testing.T) {
	t.Parallel()

	svc := newService(&mockRepository{}, nil, nil)

	_, err := svc.UpsertInvoiceSettings(context.Background(), uuid.New(), InvoiceSettingsInput{CompanyName: "  "})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "companyName")
}

func TestUpsertInvoiceSettingsTrimsFields(t *testing.T) {
	t.Parallel()

	mock := &mockRepository{
		upsertInvoiceSettingsFn: func(_ context.Context, _ uuid.UUID, params persistence.UpsertInvoiceSettingsParams) (persistence.InvoiceSettings, error) {
			require.Equal(t, "Acme Logistics", params.CompanyName)
			require.Nil(t, params.Address)
			require.NotNil(t, params.TaxID)
			require.Equal(t, "GB123456789", *params.TaxID)
			return persistence.InvoiceSettings{CompanyName: params.CompanyName}, nil
		},
	}
	svc := newService(mock, nil, nil)

	_, err := svc.UpsertInvoiceSettings(context.Background(), uuid.New(), InvoiceSettingsInput{
		CompanyName: " Acme Logistics ",
		Address:     strPtr("   "),
		TaxID:       strPtr(" GB123456789 "),
	})
	require.NoError(t, err)
}

func TestGetInvoiceSettingsMissing(t *testing.T) {
	t.Parallel()

	mock := &mockRepository{
		getInvoiceSettingsFn: func(context.Context, uuid.UUID) (persistence.InvoiceSettings, error) {
			return persistence.InvoiceSettings{}, persistence.ErrNotFound
		},
	}
	svc := newService(mock, nil, nil)

	_, err := svc.GetInvoiceSettings(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertCredentialValidation(t *testing.T) {
	t.Parallel()

	svc := newService(&mockRepository{}, nil, nil)

	_, err := svc.UpsertCredential(context.Background(), uuid.New(), CredentialInput{Carrier: "dhl"})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "carrier")
	require.Contains(t, validationErr.Fields, "accountNumber")
	require.Contains(t, validationErr.Fields, "apiKey")
}

func TestUpsertCredentialNormalizesCarrier(t *testing.T) {
	t.Parallel()

	mock := &mockRepository{
		upsertCredentialFn: func(_ context.Context, _ uuid.UUID, params persistence.UpsertShippingCredentialParams) (persistence.ShippingCredential, error) {
			require.Equal(t, persistence.CarrierUPS, params.Carrier)
			require.NotEqual(t, uuid.Nil, params.CredentialID)
			return persistence.ShippingCredential{Carrier: params.Carrier}, nil
		},
	}
	svc := newService(mock, nil, nil)

	_, err := svc.UpsertCredential(context.Background(), uuid.New(), CredentialInput{
		Carrier:       " UPS ",
		AccountNumber: "A1B2C3",
		APIKey:        "secret",
	})
	require.NoError(t, err)
}

func TestTrackRequiresOwnCredential(t *testing.T) {
	t.Parallel()

	mock := &mockRepository{
		getCredentialFn: func(context.Context, uuid.UUID, string) (persistence.ShippingCredential, error) {
			return persistence.ShippingCredential{}, persistence.ErrNotFound
		},
	}
	svc := newService(mock, nil, nil)

	_, err := svc.Track(context.Background(), uuid.New(), TrackInput{
		Carrier:        persistence.CarrierFedEx,
		TrackingNumber: "794812345678",
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestTrackUsesStoredCredential(t *testing.T) {
	t.Parallel()

	orgID := uuid.New()
	mock := &mockRepository{
		getCredentialFn: func(_ context.Context, gotOrg uuid.UUID, carrier string) (persistence.ShippingCredential, error) {
			require.Equal(t, orgID, gotOrg)
			require.Equal(t, persistence.CarrierUPS, carrier)
			return persistence.ShippingCredential{
				Carrier:       carrier,
				AccountNumber: "A1B2C3",
				APIKey:        "secret",
			}, nil
		},
	}
	tracking := &mockTrackingClient{
		trackFn: func(_ context.Context, carrier string, creds client.CarrierCredentials, trackingNumber string) (client.TrackingStatus, error) {
			require.Equal(t, persistence.CarrierUPS, carrier)
			require.Equal(t, "A1B2C3", creds.AccountNumber)
			require.Equal(t, "secret", creds.APIKey)
			require.Equal(t, "1Z999AA10123456784", trackingNumber)
			return client.TrackingStatus{TrackingNumber: trackingNumber, Carrier: carrier, Status: "in_transit"}, nil
		},
	}
	svc := newService(mock, nil, tracking)

	status, err := svc.Track(context.Background(), orgID, TrackInput{
		Carrier:        "ups",
		TrackingNumber: "1Z999AA10123456784",
	})
	require.NoError(t, err)
	require.Equal(t, "in_transit", status.Status)
}

func TestConnectShopValidation(t *testing.T) {
	t.Parallel()

	svc := newService(&mockRepository{}, nil, nil)

	_, err := svc.ConnectShop(context.Background(), uuid.New(), ConnectShopInput{
		ShopDomain: "example.com",
	})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "shopDomain")
	require.Contains(t, validationErr.Fields, "accessToken")
}

func TestConnectShopLowercasesDomain(t *testing.T) {
	t.Parallel()

	mock := &mockRepository{
		createConnectionFn: func(_ context.Context, _ uuid.UUID, params persistence.CreateShopifyConnectionParams) (persistence.ShopifyConnection, error) {
			require.Equal(t, "acme.myshopify.com", params.ShopDomain)
			return persistence.ShopifyConnection{ShopDomain: params.ShopDomain}, nil
		},
	}
	svc := newService(mock, nil, nil)

	_, err := svc.ConnectShop(context.Background(), uuid.New(), ConnectShopInput{
		ShopDomain:  " Acme.MyShopify.com ",
		AccessToken: "shpat_abc123",
	})
	require.NoError(t, err)
}

func TestConnectShopDuplicate(t *testing.T) {
	t.Parallel()

	mock := &mockRepository{
		createConnectionFn: func(context.Context, uuid.UUID, persistence.CreateShopifyConnectionParams) (persistence.ShopifyConnection, error) {
			return persistence.ShopifyConnection{}, persistence.ErrShopConflict
		},
	}
	svc := newService(mock, nil, nil)

	_, err := svc.ConnectShop(context.Background(), uuid.New(), ConnectShopInput{
		ShopDomain:  "acme.myshopify.com",
		AccessToken: "shpat_abc123",
	})
	require.ErrorIs(t, err, ErrShopTaken)
}

func TestSyncShopCrossTenant(t *testing.T) {
	t.Parallel()

	mock := &mockRepository{
		getConnectionFn: func(context.Context, uuid.UUID, uuid.UUID) (persistence.ShopifyConnection, error) {
			return persistence.ShopifyConnection{}, persistence.ErrNotFound
		},
	}
	svc := newService(mock, nil, nil)

	_, err := svc.SyncShop(context.Background(), uuid.New(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSyncShopRefusesInactive(t *testing.T) {
	t.Parallel()

	mock := &mockRepository{
		getConnectionFn: func(context.Context, uuid.UUID, uuid.UUID) (persistence.ShopifyConnection, error) {
			return persistence.ShopifyConnection{IsActive: false}, nil
		},
	}
	svc := newService(mock, nil, nil)

	_, err := svc.SyncShop(context.Background(), uuid.New(), uuid.New())
	require.ErrorIs(t, err, ErrShopInactive)
}

func TestSyncShopImportsUnknownSKUs(t *testing.T) {
	t.Parallel()

	orgID := uuid.New()
	connectionID := uuid.New()
	syncedAt := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

	mock := &mockRepository{
		getConnectionFn: func(_ context.Context, gotOrg uuid.UUID, id uuid.UUID) (persistence.ShopifyConnection, error) {
			require.Equal(t, orgID, gotOrg)
			require.Equal(t, connectionID, id)
			return persistence.ShopifyConnection{
				ConnectionID: connectionID,
				ShopDomain:   "acme.myshopify.com",
				AccessToken:  "shpat_abc123",
				IsActive:     true,
			}, nil
		},
		skuExistsFn: func(_ context.Context, _ uuid.UUID, sku string) (bool, error) {
			return sku == "KNOWN-1", nil
		},
		createProductFn: func(_ context.Context, gotOrg uuid.UUID, params persistence.CreateProductParams) (persistence.Product, error) {
			require.Equal(t, orgID, gotOrg)
			require.Equal(t, "NEW-1", params.SKU)
			require.Equal(t, int64(1999), params.PriceCents)
			require.Equal(t, 7, params.StockQty)
			return persistence.Product{SKU: params.SKU}, nil
		},
		markSyncedFn: func(_ context.Context, _ uuid.UUID, id uuid.UUID, at time.Time) (persistence.ShopifyConnection, error) {
			require.Equal(t, syncedAt, at)
			return persistence.ShopifyConnection{ConnectionID: id, LastSyncAt: &at}, nil
		},
	}
	shopify := &mockShopifyClient{
		pullProductsFn: func(_ context.Context, shopDomain, accessToken string) ([]client.ShopProduct, error) {
			require.Equal(t, "acme.myshopify.com", shopDomain)
			require.Equal(t, "shpat_abc123", accessToken)
			return []client.ShopProduct{
				{SKU: "KNOWN-1", Title: "Existing Widget", PriceCents: 999, Qty: 3},
				{SKU: "NEW-1", Title: "New Widget", PriceCents: 1999, Qty: 7},
			}, nil
		},
	}
	svc := newService(mock, shopify, nil).(*service)
	svc.now = func() time.Time { return syncedAt }

	result, err := svc.SyncShop(context.Background(), orgID, connectionID)
	require.NoError(t, err)
	require.Equal(t, 2, result.ProductsPulled)
	require.Equal(t, 1, result.ProductsCreated)
	require.Equal(t, 1, result.SkippedExisting)
	require.NotNil(t, result.Connection.LastSyncAt)
}
