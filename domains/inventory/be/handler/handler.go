package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quartermaster-wms/quartermaster/domains/inventory/be/service"
	platformauth "github.com/quartermaster-wms/quartermaster/platform/go/auth"
	"github.com/quartermaster-wms/quartermaster/platform/go/httpjson"
	platformlogging "github.com/quartermaster-wms/quartermaster/platform/go/logging"
)

// Handler exposes products, categories, and stock adjustments.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("inventory service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// ProductRoutes mounts the product endpoints. Callers must already be
// session-guarded.
func (h *Handler) ProductRoutes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreateProduct)
	r.Get("/", h.ListProducts)
	r.Get("/{productID}", h.GetProduct)
	r.Patch("/{productID}", h.UpdateProduct)
	r.Delete("/{productID}", h.DeleteProduct)
	r.Post("/{productID}/adjustments", h.AdjustStock)
	r.Get("/{productID}/adjustments", h.ListAdjustments)

	return r
}

// AdjustmentRoutes mounts the flat stock-adjustment endpoints. The same
// operations are reachable nested under a product.
func (h *Handler) AdjustmentRoutes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreateAdjustment)
	r.Get("/", h.ListAdjustmentsByQuery)

	return r
}

// CategoryRoutes mounts the category endpoints.
func (h *Handler) CategoryRoutes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreateCategory)
	r.Get("/", h.ListCategories)
	r.Patch("/{categoryID}", h.UpdateCategory)
	r.Delete("/{categoryID}", h.DeleteCategory)

	return r
}

type productRequest struct {
	CategoryID  *uuid.UUID `json:"categoryId"`
	SKU         string     `json:"sku"`
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	PriceCents  int64      `json:"priceCents"`
	StockQty    int        `json:"stockQty"`
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var req productRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := h.svc.CreateProduct(r.Context(), user.OrgID, service.CreateProductInput{
		CategoryID:  req.CategoryID,
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		StockQty:    req.StockQty,
	})
	if err != nil {
		h.respondError(r.Context(), w, err, "productsCreate")
		return
	}

	httpjson.Respond(w, http.StatusCreated, product)
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}

	input := service.ListProductsInput{
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "pageSize", 20),
	}
	if raw := r.URL.Query().Get("categoryId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "categoryId must be a UUID")
			return
		}
		input.CategoryID = &id
	}
	if search := strings.TrimSpace(r.URL.Query().Get("search")); search != "" {
		input.Search = &search
	}

	result, err := h.svc.ListProducts(r.Context(), user.OrgID, input)
	if err != nil {
		h.respondError(r.Context(), w, err, "productsList")
		return
	}

	httpjson.Respond(w, http.StatusOK, map[string]any{
		"items":      result.Products,
		"totalItems": result.TotalItems,
	})
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}
	productID, ok := pathUUID(w, r, "productID")
	if !ok {
		return
	}

	product, err := h.svc.GetProduct(r.Context(), user.OrgID, productID)
	if err != nil {
		h.respondError(r.Context(), w, err, "productsGet")
		return
	}

	httpjson.Respond(w, http.StatusOK, product)
}

type updateProductRequest struct {
	CategoryID  *uuid.UUID `json:"categoryId"`
	SKU         *string    `json:"sku"`
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	PriceCents  *int64     `json:"priceCents"`
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}
	productID, ok := pathUUID(w, r, "productID")
	if !ok {
		return
	}

	var req updateProductRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := h.svc.UpdateProduct(r.Context(), user.OrgID, productID, service.UpdateProductInput{
		CategoryID:  req.CategoryID,
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
	})
	if err != nil {
		h.respondError(r.Context(), w, err, "productsUpdate")
		return
	}

	httpjson.Respond(w, http.StatusOK, product)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}
	productID, ok := pathUUID(w, r, "productID")
	if !ok {
		return
	}

	if err := h.svc.DeleteProduct(r.Context(), user.OrgID, productID); err != nil {
		h.respondError(r.Context(), w, err, "productsDelete")
		return
	}

	httpjson.Respond(w, http.StatusNoContent, nil)
}

type adjustStockRequest struct {
	Delta  int    `json:"delta"`
	Reason string `json:"reason"`
}

func (h *Handler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}
	productID, ok := pathUUID(w, r, "productID")
	if !ok {
		return
	}

	var req adjustStockRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	adjustment, err := h.svc.AdjustStock(r.Context(), user.OrgID, productID, service.AdjustStockInput{
		Delta:       req.Delta,
		Reason:      req.Reason,
		ActorUserID: user.UserID,
	})
	if err != nil {
		h.respondError(r.Context(), w, err, "stockAdjust")
		return
	}

	httpjson.Respond(w, http.StatusCreated, adjustment)
}

func (h *Handler) ListAdjustments(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}
	productID, ok := pathUUID(w, r, "productID")
	if !ok {
		return
	}

	adjustments, err := h.svc.ListAdjustments(r.Context(), user.OrgID, productID)
	if err != nil {
		h.respondError(r.Context(), w, err, "stockAdjustmentsList")
		return
	}

	httpjson.Respond(w, http.StatusOK, map[string]any{"items": adjustments})
}

type createAdjustmentRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Delta     int       `json:"delta"`
	Reason    string    `json:"reason"`
}

func (h *Handler) CreateAdjustment(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var req createAdjustmentRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ProductID == uuid.Nil {
		httpjson.ValidationError(w, map[string][]string{"productId": {"productId is required"}})
		return
	}

	adjustment, err := h.svc.AdjustStock(r.Context(), user.OrgID, req.ProductID, service.AdjustStockInput{
		Delta:       req.Delta,
		Reason:      req.Reason,
		ActorUserID: user.UserID,
	})
	if err != nil {
		h.respondError(r.Context(), w, err, "stockAdjust")
		return
	}

	httpjson.Respond(w, http.StatusCreated, adjustment)
}

func (h *Handler) ListAdjustmentsByQuery(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}

	productID, err := uuid.Parse(r.URL.Query().Get("productId"))
	if err != nil {
		httpjson.ValidationError(w, map[string][]string{"productId": {"productId query parameter is required"}})
		return
	}

	adjustments, err := h.svc.ListAdjustments(r.Context(), user.OrgID, productID)
	if err != nil {
		h.respondError(r.Context(), w, err, "stockAdjustmentsList")
		return
	}

	httpjson.Respond(w, http.StatusOK, map[string]any{"items": adjustments})
}

type categoryRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var req categoryRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	category, err := h.svc.CreateCategory(r.Context(), user.OrgID, service.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.respondError(r.Context(), w, err, "categoriesCreate")
		return
	}

	httpjson.Respond(w, http.StatusCreated, category)
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}

	categories, err := h.svc.ListCategories(r.Context(), user.OrgID)
	if err != nil {
		h.respondError(r.Context(), w, err, "categoriesList")
		return
	}

	httpjson.Respond(w, http.StatusOK, map[string]any{"items": categories})
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}
	categoryID, ok := pathUUID(w, r, "categoryID")
	if !ok {
		return
	}

	var req categoryRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	category, err := h.svc.UpdateCategory(r.Context(), user.OrgID, categoryID, service.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.respondError(r.Context(), w, err, "categoriesUpdate")
		return
	}

	httpjson.Respond(w, http.StatusOK, category)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}
	categoryID, ok := pathUUID(w, r, "categoryID")
	if !ok {
		return
	}

	if err := h.svc.DeleteCategory(r.Context(), user.OrgID, categoryID); err != nil {
		h.respondError(r.Context(), w, err, "categoriesDelete")
		return
	}

	httpjson.Respond(w, http.StatusNoContent, nil)
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, err error, op string) {
	logger := h.loggerFrom(ctx).With(zap.String("operation", op))

	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		logger.Warn("request rejected", zap.Error(err))
		httpjson.ValidationError(w, validationErr.Fields)
	case errors.Is(err, service.ErrNotFound):
		logger.Info("inventory resource not found", zap.Error(err))
		httpjson.NotFound(w)
	case errors.Is(err, service.ErrSKUConflict):
		logger.Info("sku conflict")
		httpjson.Error(w, http.StatusBadRequest, "sku already in use")
	case errors.Is(err, service.ErrCategoryConflict):
		logger.Info("category conflict")
		httpjson.Error(w, http.StatusBadRequest, "category name already in use")
	case errors.Is(err, service.ErrProductInUse):
		logger.Info("product delete blocked by order history")
		httpjson.Error(w, http.StatusBadRequest, "product is referenced by orders")
	case errors.Is(err, service.ErrInsufficientStock):
		logger.Info("stock underflow refused")
		httpjson.Error(w, http.StatusBadRequest, "insufficient stock")
	default:
		logger.Error("inventory operation failed", zap.Error(err))
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

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
