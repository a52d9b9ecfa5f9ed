package main

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/quartermaster-wms/quartermaster/platform/go/persistence"
)

// stores bundles every persistence store the server wires into a domain.
type stores struct {
	accessKeys          *persistence.AccessKeyStore
	organizations       *persistence.OrganizationStore
	users               *persistence.AuthUserStore
	sessions            *persistence.SessionStore
	signup              *persistence.SignupStore
	admins              *persistence.SuperAdminStore
	products            *persistence.ProductStore
	categories          *persistence.CategoryStore
	adjustments         *persistence.StockAdjustmentStore
	orders              *persistence.OrderStore
	people              *persistence.PersonStore
	reports             *persistence.ReportStore
	invoiceSettings     *persistence.InvoiceSettingsStore
	shippingCredentials *persistence.ShippingCredentialStore
	shopifyConnections  *persistence.ShopifyConnectionStore
}

func mustBuildStores(pool *pgxpool.Pool, logger *zap.Logger) stores {
	var (
		s   stores
		err error
	)
	fatal := func(name string, err error) {
		if err != nil {
			logger.Fatal("init store", zap.String("store", name), zap.Error(err))
		}
	}

	s.accessKeys, err = persistence.NewAccessKeyStore(pool)
	fatal("access_keys", err)
	s.organizations, err = persistence.NewOrganizationStore(pool)
	fatal("organizations", err)
	s.users, err = persistence.NewAuthUserStore(pool)
	fatal("users", err)
	s.sessions, err = persistence.NewSessionStore(pool)
	fatal("sessions", err)
	s.signup, err = persistence.NewSignupStore(pool)
	fatal("signup", err)
	s.admins, err = persistence.NewSuperAdminStore(pool)
	fatal("super_admins", err)
	s.products, err = persistence.NewProductStore(pool)
	fatal("products", err)
	s.categories, err = persistence.NewCategoryStore(pool)
	fatal("categories", err)
	s.adjustments, err = persistence.NewStockAdjustmentStore(pool)
	fatal("stock_adjustments", err)
	s.orders, err = persistence.NewOrderStore(pool)
	fatal("orders", err)
	s.people, err = persistence.NewPersonStore(pool)
	fatal("people", err)
	s.reports, err = persistence.NewReportStore(pool)
	fatal("reports", err)
	s.invoiceSettings, err = persistence.NewInvoiceSettingsStore(pool)
	fatal("invoice_settings", err)
	s.shippingCredentials, err = persistence.NewShippingCredentialStore(pool)
	fatal("shipping_credentials", err)
	s.shopifyConnections, err = persistence.NewShopifyConnectionStore(pool)
	fatal("shopify_connections", err)

	return s
}
