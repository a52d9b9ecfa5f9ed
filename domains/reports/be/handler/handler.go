package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quartermaster-wms/quartermaster/domains/reports/be/service"
	platformauth "github.com/quartermaster-wms/quartermaster/platform/go/auth"
	"github.com/quartermaster-wms/quartermaster/platform/go/httpjson"
	platformlogging "github.com/quartermaster-wms/quartermaster/platform/go/logging"
)

// Handler exposes the reports endpoints.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("reports service is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes returns the router for the reports endpoints. Session middleware
// is applied by the caller.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{reportID}", h.Get)
	r.Post("/{reportID}/run", h.Run)
	r.Delete("/{reportID}", h.Delete)
	return r
}

type createReportRequest struct {
	Kind string     `json:"kind"`
	From *time.Time `json:"from"`
	To   *time.Time `json:"to"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var req createReportRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.svc.Create(r.Context(), user.OrgID, service.CreateInput{
		Kind: req.Kind,
		From: req.From,
		To:   req.To,
	})
	if err != nil {
		h.respondError(r.Context(), w, err, "reports.create")
		return
	}

	httpjson.Respond(w, http.StatusCreated, report)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}

	reports, err := h.svc.List(r.Context(), user.OrgID)
	if err != nil {
		h.respondError(r.Context(), w, err, "reports.list")
		return
	}

	httpjson.Respond(w, http.StatusOK, map[string]any{"reports": reports})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}
	reportID, ok := pathUUID(w, r, "reportID")
	if !ok {
		return
	}

	report, err := h.svc.Get(r.Context(), user.OrgID, reportID)
	if err != nil {
		h.respondError(r.Context(), w, err, "reports.get")
		return
	}

	httpjson.Respond(w, http.StatusOK, report)
}

func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}
	reportID, ok := pathUUID(w, r, "reportID")
	if !ok {
		return
	}

	report, err := h.svc.Run(r.Context(), user.OrgID, reportID)
	if err != nil {
		h.respondError(r.Context(), w, err, "reports.run")
		return
	}

	httpjson.Respond(w, http.StatusOK, report)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}
	reportID, ok := pathUUID(w, r, "reportID")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), user.OrgID, reportID); err != nil {
		h.respondError(r.Context(), w, err, "reports.delete")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, err error, op string) {
	logger := h.loggerFrom(ctx).With(zap.String("operation", op))

	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		httpjson.ValidationError(w, validationErr.Fields)
	case errors.Is(err, service.ErrNotFound):
		httpjson.NotFound(w)
	default:
		logger.Error("reports operation failed", zap.Error(err))
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
