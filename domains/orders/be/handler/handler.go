package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quartermaster-wms/quartermaster/domains/orders/be/service"
	platformauth "github.com/quartermaster-wms/quartermaster/platform/go/auth"
	"github.com/quartermaster-wms/quartermaster/platform/go/httpjson"
	platformlogging "github.com/quartermaster-wms/quartermaster/platform/go/logging"
)

// Handler exposes the order endpoints.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("orders service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the order endpoints. Callers must already be
// session-guarded.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{orderID}", h.Get)
	r.Patch("/{orderID}/status", h.UpdateStatus)
	r.Delete("/{orderID}", h.Delete)

	return r
}

type orderItemRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Qty       int       `json:"qty"`
}

type createOrderRequest struct {
	PersonID *uuid.UUID         `json:"personId"`
	Items    []orderItemRequest `json:"items"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var req createOrderRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	items := make([]service.ItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.ItemInput{ProductID: item.ProductID, Qty: item.Qty})
	}

	order, err := h.svc.Create(r.Context(), user.OrgID, service.CreateInput{
		PersonID:    req.PersonID,
		ActorUserID: user.UserID,
		Items:       items,
	})
	if err != nil {
		h.respondError(r.Context(), w, err, "ordersCreate")
		return
	}

	httpjson.Respond(w, http.StatusCreated, order)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}

	input := service.ListInput{
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "pageSize", 20),
	}
	if status := r.URL.Query().Get("status"); status != "" {
		input.Status = &status
	}
	if raw := r.URL.Query().Get("personId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "personId must be a UUID")
			return
		}
		input.PersonID = &id
	}

	result, err := h.svc.List(r.Context(), user.OrgID, input)
	if err != nil {
		h.respondError(r.Context(), w, err, "ordersList")
		return
	}

	httpjson.Respond(w, http.StatusOK, map[string]any{
		"items":      result.Orders,
		"totalItems": result.TotalItems,
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}
	orderID, ok := pathUUID(w, r, "orderID")
	if !ok {
		return
	}

	order, err := h.svc.Get(r.Context(), user.OrgID, orderID)
	if err != nil {
		h.respondError(r.Context(), w, err, "ordersGet")
		return
	}

	httpjson.Respond(w, http.StatusOK, order)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}
	orderID, ok := pathUUID(w, r, "orderID")
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.svc.UpdateStatus(r.Context(), user.OrgID, orderID, req.Status, user.UserID)
	if err != nil {
		h.respondError(r.Context(), w, err, "ordersUpdateStatus")
		return
	}

	httpjson.Respond(w, http.StatusOK, order)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}
	orderID, ok := pathUUID(w, r, "orderID")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), user.OrgID, orderID); err != nil {
		h.respondError(r.Context(), w, err, "ordersDelete")
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
		logger.Info("order resource not found", zap.Error(err))
		httpjson.NotFound(w)
	case errors.Is(err, service.ErrInsufficientStock):
		logger.Info("order refused for stock")
		httpjson.Error(w, http.StatusBadRequest, "insufficient stock")
	case errors.Is(err, service.ErrInvalidTransition):
		logger.Info("order transition refused", zap.Error(err))
		httpjson.Error(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error("orders operation failed", zap.Error(err))
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
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
