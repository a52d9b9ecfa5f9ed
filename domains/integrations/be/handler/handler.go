package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quartermaster-wms/quartermaster/domains/integrations/be/service"
	platformauth "github.com/quartermaster-wms/quartermaster/platform/go/auth"
	"github.com/quartermaster-wms/quartermaster/platform/go/httpjson"
	platformlogging "github.com/quartermaster-wms/quartermaster/platform/go/logging"
)

// Handler exposes invoice settings, shipping credentials and Shopify
// connection endpoints.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("integrations service is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// InvoiceSettingsRoutes returns the router for the invoice settings
// endpoints. Session middleware is applied by the caller.
func (h *Handler) InvoiceSettingsRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetInvoiceSettings)
	r.Put("/", h.UpsertInvoiceSettings)
	return r
}

// ShippingRoutes returns the router for carrier credentials and shipment
// tracking.
func (h *Handler) ShippingRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListCredentials)
	r.Post("/", h.UpsertCredential)
	r.Delete("/{credentialID}", h.DeleteCredential)
	r.Post("/track", h.Track)
	return r
}

// ShopifyRoutes returns the router for shop connections.
func (h *Handler) ShopifyRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.ConnectShop)
	r.Get("/", h.ListShops)
	r.Patch("/{connectionID}", h.SetShopActive)
	r.Delete("/{connectionID}", h.DeleteShop)
	r.Post("/{connectionID}/sync", h.SyncShop)
	return r
}

type invoiceSettingsRequest struct {
	CompanyName string  `json:"companyName"`
	Address     *string `json:"address"`
	TaxID       *string `json:"taxId"`
	FooterNote  *string `json:"footerNote"`
}

type credentialRequest struct {
	Carrier       string `json:"carrier"`
	AccountNumber string `json:"accountNumber"`
	APIKey        string `json:"apiKey"`
}

type trackRequest struct {
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"trackingNumber"`
}

type connectShopRequest struct {
	ShopDomain  string `json:"shopDomain"`
	AccessToken string `json:"accessToken"`
}

type setShopActiveRequest struct {
	IsActive *bool `json:"isActive"`
}

func (h *Handler) GetInvoiceSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}

	settings, err := h.svc.GetInvoiceSettings(r.Context(), user.OrgID)
	if err != nil {
		h.respondError(r.Context(), w, err, "integrations.invoice-settings.get")
		return
	}

	httpjson.Respond(w, http.StatusOK, settings)
}

func (h *Handler) UpsertInvoiceSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var req invoiceSettingsRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	settings, err := h.svc.UpsertInvoiceSettings(r.Context(), user.OrgID, service.InvoiceSettingsInput{
		CompanyName: req.CompanyName,
		Address:     req.Address,
		TaxID:       req.TaxID,
		FooterNote:  req.FooterNote,
	})
	if err != nil {
		h.respondError(r.Context(), w, err, "integrations.invoice-settings.upsert")
		return
	}

	httpjson.Respond(w, http.StatusOK, settings)
}

func (h *Handler) ListCredentials(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}

	credentials, err := h.svc.ListCredentials(r.Context(), user.OrgID)
	if err != nil {
		h.respondError(r.Context(), w, err, "integrations.credentials.list")
		return
	}

	httpjson.Respond(w, http.StatusOK, map[string]any{"credentials": credentials})
}

func (h *Handler) UpsertCredential(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var req credentialRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	credential, err := h.svc.UpsertCredential(r.Context(), user.OrgID, service.CredentialInput{
		Carrier:       req.Carrier,
		AccountNumber: req.AccountNumber,
		APIKey:        req.APIKey,
	})
	if err != nil {
		h.respondError(r.Context(), w, err, "integrations.credentials.upsert")
		return
	}

	httpjson.Respond(w, http.StatusCreated, credential)
}

func (h *Handler) DeleteCredential(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}
	credentialID, ok := pathUUID(w, r, "credentialID")
	if !ok {
		return
	}

	if err := h.svc.DeleteCredential(r.Context(), user.OrgID, credentialID); err != nil {
		h.respondError(r.Context(), w, err, "integrations.credentials.delete")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Track(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var req trackRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	status, err := h.svc.Track(r.Context(), user.OrgID, service.TrackInput{
		Carrier:        req.Carrier,
		TrackingNumber: req.TrackingNumber,
	})
	if err != nil {
		h.respondError(r.Context(), w, err, "integrations.track")
		return
	}

	httpjson.Respond(w, http.StatusOK, status)
}

func (h *Handler) ConnectShop(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var req connectShopRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	connection, err := h.svc.ConnectShop(r.Context(), user.OrgID, service.ConnectShopInput{
		ShopDomain:  req.ShopDomain,
		AccessToken: req.AccessToken,
	})
	if err != nil {
		h.respondError(r.Context(), w, err, "integrations.shopify.connect")
		return
	}

	httpjson.Respond(w, http.StatusCreated, connection)
}

func (h *Handler) ListShops(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}

	connections, err := h.svc.ListShops(r.Context(), user.OrgID)
	if err != nil {
		h.respondError(r.Context(), w, err, "integrations.shopify.list")
		return
	}

	httpjson.Respond(w, http.StatusOK, map[string]any{"connections": connections})
}

func (h *Handler) SetShopActive(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}
	connectionID, ok := pathUUID(w, r, "connectionID")
	if !ok {
		return
	}

	var req setShopActiveRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.IsActive == nil {
		httpjson.ValidationError(w, map[string][]string{"isActive": {"isActive is required"}})
		return
	}

	connection, err := h.svc.SetShopActive(r.Context(), user.OrgID, connectionID, *req.IsActive)
	if err != nil {
		h.respondError(r.Context(), w, err, "integrations.shopify.set-active")
		return
	}

	httpjson.Respond(w, http.StatusOK, connection)
}

func (h *Handler) DeleteShop(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}
	connectionID, ok := pathUUID(w, r, "connectionID")
	if !ok {
		return
	}

	if err := h.svc.DeleteShop(r.Context(), user.OrgID, connectionID); err != nil {
		h.respondError(r.Context(), w, err, "integrations.shopify.delete")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SyncShop(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}
	connectionID, ok := pathUUID(w, r, "connectionID")
	if !ok {
		return
	}

	result, err := h.svc.SyncShop(r.Context(), user.OrgID, connectionID)
	if err != nil {
		h.respondError(r.Context(), w, err, "integrations.shopify.sync")
		return
	}

	h.loggerFrom(r.Context()).Info("shopify catalogue synced",
		zap.String("connectionId", connectionID.String()),
		zap.Int("productsPulled", result.ProductsPulled),
		zap.Int("productsCreated", result.ProductsCreated))

	httpjson.Respond(w, http.StatusOK, result)
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, err error, op string) {
	logger := h.loggerFrom(ctx).With(zap.String("operation", op))

	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		httpjson.ValidationError(w, validationErr.Fields)
	case errors.Is(err, service.ErrNotFound):
		httpjson.NotFound(w)
	case errors.Is(err, service.ErrShopTaken):
		httpjson.Error(w, http.StatusBadRequest, "shop already connected")
	case errors.Is(err, service.ErrShopInactive):
		httpjson.Error(w, http.StatusBadRequest, "connection is disabled")
	default:
		logger.Error("integrations operation failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) loggerFrom(ctx context.Context) *zap.Logger {
	if logger, ok := platformlogging.FromContext(ctx); ok {
		return logger
	}
	return h.logger
}

func requireTenant(w http.ResponseWriter, r *http.Request) (platformauth.TenantUser, bool) {
	user, ok := platformauth.TenantUserFromContext(r.Context())
	if !ok {
		httpjson.Unauthorized(w)
		return platformauth.TenantUser{}, false
	}
	return user, true
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		httpjson.NotFound(w)
		return uuid.Nil, false
	}
	return id, true
}
