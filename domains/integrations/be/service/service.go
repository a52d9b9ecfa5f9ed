package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quartermaster-wms/quartermaster/domains/integrations/be/client"
	"github.com/quartermaster-wms/quartermaster/domains/integrations/be/repo"
	"github.com/quartermaster-wms/quartermaster/platform/go/persistence"
)

// FieldErrors maps request fields to validation issues.
type FieldErrors map[string][]string

// ValidationError is returned when the input payload is invalid.
type ValidationError struct {
	Fields FieldErrors
}

func (v *ValidationError) Error() string {
	return "validation error"
}

// Domain sentinel errors.
var (
	ErrNotFound     = errors.New("record not found")
	ErrShopTaken    = errors.New("shop already connected")
	ErrShopInactive = errors.New("connection is disabled")
)

const maxCompanyNameLength = 200

// InvoiceSettingsInput captures the writable invoice fields.
type InvoiceSettingsInput struct {
	CompanyName string
	Address     *string
	TaxID       *string
	FooterNote  *string
}

// CredentialInput captures one carrier account.
type CredentialInput struct {
	Carrier       string
	AccountNumber string
	APIKey        string
}

// TrackInput identifies a shipment to look up.
type TrackInput struct {
	Carrier        string
	TrackingNumber string
}

// ConnectShopInput links a Shopify shop to the organization.
type ConnectShopInput struct {
	ShopDomain  string
	AccessToken string
}

// SyncResult summarizes one catalogue import.
type SyncResult struct {
	Connection      persistence.ShopifyConnection `json:"connection"`
	ProductsPulled  int                           `json:"productsPulled"`
	ProductsCreated int                           `json:"productsCreated"`
	SkippedExisting int                           `json:"skippedExisting"`
}

// Service defines the business operations for the integrations domain.
// Stored tokens are only dereferenced after the owning row is resolved
// through the caller's organization.
type Service interface {
	UpsertInvoiceSettings(ctx context.Context, orgID uuid.UUID, input InvoiceSettingsInput) (persistence.InvoiceSettings, error)
	GetInvoiceSettings(ctx context.Context, orgID uuid.UUID) (persistence.InvoiceSettings, error)

	UpsertCredential(ctx context.Context, orgID uuid.UUID, input CredentialInput) (persistence.ShippingCredential, error)
	ListCredentials(ctx context.Context, orgID uuid.UUID) ([]persistence.ShippingCredential, error)
	DeleteCredential(ctx context.Context, orgID, id uuid.UUID) error
	Track(ctx context.Context, orgID uuid.UUID, input TrackInput) (client.TrackingStatus, error)

	ConnectShop(ctx context.Context, orgID uuid.UUID, input ConnectShopInput) (persistence.ShopifyConnection, error)
	ListShops(ctx context.Context, orgID uuid.UUID) ([]persistence.ShopifyConnection, error)
	SetShopActive(ctx context.Context, orgID, id uuid.UUID, active bool) (persistence.ShopifyConnection, error)
	DeleteShop(ctx context.Context, orgID, id uuid.UUID) error
	SyncShop(ctx context.Context, orgID, id uuid.UUID) (SyncResult, error)
}

type service struct {
	repo     repo.Repository
	shopify  client.ShopifyClient
	tracking client.TrackingClient
	now      func() time.Time
}

// New constructs an integrations Service.
func New(r repo.Repository, shopify client.ShopifyClient, tracking client.TrackingClient) Service {
	if r == nil {
		panic("integrations repository is required")
	}
	if shopify == nil {
		panic("shopify client is required")
	}
	if tracking == nil {
		panic("tracking client is required")
	}
	return &service{repo: r, shopify: shopify, tracking: tracking, now: time.Now}
}

func (s *service) UpsertInvoiceSettings(ctx context.Context, orgID uuid.UUID, input InvoiceSettingsInput) (persistence.InvoiceSettings, error) {
	fieldErrors := FieldErrors{}

	companyName := strings.TrimSpace(input.CompanyName)
	if companyName == "" {
		fieldErrors.add("companyName", "company name is required")
	} else if len(companyName) > maxCompanyNameLength {
		fieldErrors.add("companyName", fmt.Sprintf("company name must be at most %d characters", maxCompanyNameLength))
	}

	if len(fieldErrors) > 0 {
		return persistence.InvoiceSettings{}, &ValidationError{Fields: fieldErrors}
	}

	settings, err := s.repo.UpsertInvoiceSettings(ctx, orgID, persistence.UpsertInvoiceSettingsParams{
		CompanyName: companyName,
		Address:     trimOptional(input.Address),
		TaxID:       trimOptional(input.TaxID),
		FooterNote:  trimOptional(input.FooterNote),
	})
	if err != nil {
		return persistence.InvoiceSettings{}, mapPersistenceError(err)
	}
	return settings, nil
}

func (s *service) GetInvoiceSettings(ctx context.Context, orgID uuid.UUID) (persistence.InvoiceSettings, error) {
	settings, err := s.repo.GetInvoiceSettings(ctx, orgID)
	if err != nil {
		return persistence.InvoiceSettings{}, mapPersistenceError(err)
	}
	return settings, nil
}

func (s *service) UpsertCredential(ctx context.Context, orgID uuid.UUID, input CredentialInput) (persistence.ShippingCredential, error) {
	fieldErrors := FieldErrors{}

	carrier := strings.TrimSpace(strings.ToLower(input.Carrier))
	if !persistence.ValidCarrier(carrier) {
		fieldErrors.add("carrier", fmt.Sprintf("unknown carrier %q", input.Carrier))
	}
	accountNumber := strings.TrimSpace(input.AccountNumber)
	if accountNumber == "" {
		fieldErrors.add("accountNumber", "account number is required")
	}
	apiKey := strings.TrimSpace(input.APIKey)
	if apiKey == "" {
		fieldErrors.add("apiKey", "api key is required")
	}

	if len(fieldErrors) > 0 {
		return persistence.ShippingCredential{}, &ValidationError{Fields: fieldErrors}
	}

	credential, err := s.repo.UpsertShippingCredential(ctx, orgID, persistence.UpsertShippingCredentialParams{
		CredentialID:  uuid.New(),
		Carrier:       carrier,
		AccountNumber: accountNumber,
		APIKey:        apiKey,
	})
	if err != nil {
		return persistence.ShippingCredential{}, mapPersistenceError(err)
	}
	return credential, nil
}

func (s *service) ListCredentials(ctx context.Context, orgID uuid.UUID) ([]persistence.ShippingCredential, error) {
	return s.repo.ListShippingCredentials(ctx, orgID)
}

func (s *service) DeleteCredential(ctx context.Context, orgID, id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrNotFound
	}

	if err := s.repo.DeleteShippingCredential(ctx, orgID, id); err != nil {
		return mapPersistenceError(err)
	}
	return nil
}

func (s *service) Track(ctx context.Context, orgID uuid.UUID, input TrackInput) (client.TrackingStatus, error) {
	fieldErrors := FieldErrors{}

	carrier := strings.TrimSpace(strings.ToLower(input.Carrier))
	if !persistence.ValidCarrier(carrier) {
		fieldErrors.add("carrier", fmt.Sprintf("unknown carrier %q", input.Carrier))
	}
	trackingNumber := strings.TrimSpace(input.TrackingNumber)
	if trackingNumber == "" {
		fieldErrors.add("trackingNumber", "tracking number is required")
	}

	if len(fieldErrors) > 0 {
		return client.TrackingStatus{}, &ValidationError{Fields: fieldErrors}
	}

	// The org's own credential gates the outbound call.
	credential, err := s.repo.GetShippingCredentialByCarrier(ctx, orgID, carrier)
	if err != nil {
		return client.TrackingStatus{}, mapPersistenceError(err)
	}

	status, err := s.tracking.Track(ctx, carrier, client.CarrierCredentials{
		AccountNumber: credential.AccountNumber,
		APIKey:        credential.APIKey,
	}, trackingNumber)
	if err != nil {
		return client.TrackingStatus{}, fmt.Errorf("tracking shipment: %w", err)
	}
	return status, nil
}

func (s *service) ConnectShop(ctx context.Context, orgID uuid.UUID, input ConnectShopInput) (persistence.ShopifyConnection, error) {
	fieldErrors := FieldErrors{}

	shopDomain := strings.TrimSpace(strings.ToLower(input.ShopDomain))
	if shopDomain == "" {
		fieldErrors.add("shopDomain", "shop domain is required")
	} else if !strings.HasSuffix(shopDomain, ".myshopify.com") {
		fieldErrors.add("shopDomain", "shop domain must end in .myshopify.com")
	}
	accessToken := strings.TrimSpace(input.AccessToken)
	if accessToken == "" {
		fieldErrors.add("accessToken", "access token is required")
	}

	if len(fieldErrors) > 0 {
		return persistence.ShopifyConnection{}, &ValidationError{Fields: fieldErrors}
	}

	connection, err := s.repo.CreateShopifyConnection(ctx, orgID, persistence.CreateShopifyConnectionParams{
		ConnectionID: uuid.New(),
		ShopDomain:   shopDomain,
		AccessToken:  accessToken,
	})
	if err != nil {
		return persistence.ShopifyConnection{}, mapPersistenceError(err)
	}
	return connection, nil
}

func (s *service) ListShops(ctx context.Context, orgID uuid.UUID) ([]persistence.ShopifyConnection, error) {
	return s.repo.ListShopifyConnections(ctx, orgID)
}

func (s *service) SetShopActive(ctx context.Context, orgID, id uuid.UUID, active bool) (persistence.ShopifyConnection, error) {
	if id == uuid.Nil {
		return persistence.ShopifyConnection{}, ErrNotFound
	}

	connection, err := s.repo.SetShopifyActive(ctx, orgID, id, active)
	if err != nil {
		return persistence.ShopifyConnection{}, mapPersistenceError(err)
	}
	return connection, nil
}

func (s *service) DeleteShop(ctx context.Context, orgID, id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrNotFound
	}

	if err := s.repo.DeleteShopifyConnection(ctx, orgID, id); err != nil {
		return mapPersistenceError(err)
	}
	return nil
}

// SyncShop pulls the shop catalogue and imports unknown SKUs as new
// products. Existing SKUs are left untouched, the shop never overwrites
// local stock.
func (s *service) SyncShop(ctx context.Context, orgID, id uuid.UUID) (SyncResult, error) {
	if id == uuid.Nil {
		return SyncResult{}, ErrNotFound
	}

	connection, err := s.repo.GetShopifyConnection(ctx, orgID, id)
	if err != nil {
		return SyncResult{}, mapPersistenceError(err)
	}
	if !connection.IsActive {
		return SyncResult{}, ErrShopInactive
	}

	products, err := s.shopify.PullProducts(ctx, connection.ShopDomain, connection.AccessToken)
	if err != nil {
		return SyncResult{}, fmt.Errorf("pulling shop catalogue: %w", err)
	}

	result := SyncResult{ProductsPulled: len(products)}
	for _, product := range products {
		exists, err := s.repo.ProductSKUExists(ctx, orgID, product.SKU)
		if err != nil {
			return SyncResult{}, fmt.Errorf("checking sku %q: %w", product.SKU, err)
		}
		if exists {
			result.SkippedExisting++
			continue
		}

		_, err = s.repo.CreateProduct(ctx, orgID, persistence.CreateProductParams{
			ProductID:  uuid.New(),
			SKU:        product.SKU,
			Name:       product.Title,
			PriceCents: product.PriceCents,
			StockQty:   product.Qty,
		})
		if err != nil {
			// Concurrent imports can race on the same SKU.
			if errors.Is(err, persistence.ErrSKUConflict) {
				result.SkippedExisting++
				continue
			}
			return SyncResult{}, fmt.Errorf("importing sku %q: %w", product.SKU, err)
		}
		result.ProductsCreated++
	}

	synced, err := s.repo.MarkShopifySynced(ctx, orgID, id, s.now())
	if err != nil {
		return SyncResult{}, mapPersistenceError(err)
	}
	result.Connection = synced
	return result, nil
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func mapPersistenceError(err error) error {
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrShopConflict):
		return ErrShopTaken
	default:
		return err
	}
}

func (f FieldErrors) add(field, message string) {
	if f == nil {
		return
	}
	f[field] = append(f[field], message)
}
