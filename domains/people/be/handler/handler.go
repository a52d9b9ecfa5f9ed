package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quartermaster-wms/quartermaster/domains/people/be/service"
	platformauth "github.com/quartermaster-wms/quartermaster/platform/go/auth"
	"github.com/quartermaster-wms/quartermaster/platform/go/httpjson"
	platformlogging "github.com/quartermaster-wms/quartermaster/platform/go/logging"
)

// Handler exposes the people endpoints.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("people service is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes returns the router for the people endpoints. Session middleware
// is applied by the caller.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{personID}", h.Get)
	r.Patch("/{personID}", h.Update)
	r.Delete("/{personID}", h.Delete)
	return r
}

type createPersonRequest struct {
	Kind     string  `json:"kind"`
	FullName string  `json:"fullName"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	Notes    *string `json:"notes"`
}

type updatePersonRequest struct {
	FullName *string `json:"fullName"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	Notes    *string `json:"notes"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}

	var req createPersonRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	person, err := h.svc.Create(r.Context(), user.OrgID, service.CreateInput{
		Kind:     req.Kind,
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		Notes:    req.Notes,
	})
	if err != nil {
		h.respondError(r.Context(), w, err, "people.create")
		return
	}

	httpjson.Respond(w, http.StatusCreated, person)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}

	input := service.ListInput{}
	if kind := r.URL.Query().Get("kind"); kind != "" {
		input.Kind = &kind
	}

	people, err := h.svc.List(r.Context(), user.OrgID, input)
	if err != nil {
		h.respondError(r.Context(), w, err, "people.list")
		return
	}

	httpjson.Respond(w, http.StatusOK, map[string]any{"people": people})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}
	personID, ok := pathUUID(w, r, "personID")
	if !ok {
		return
	}

	person, err := h.svc.Get(r.Context(), user.OrgID, personID)
	if err != nil {
		h.respondError(r.Context(), w, err, "people.get")
		return
	}

	httpjson.Respond(w, http.StatusOK, person)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}
	personID, ok := pathUUID(w, r, "personID")
	if !ok {
		return
	}

	var req updatePersonRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	person, err := h.svc.Update(r.Context(), user.OrgID, personID, service.UpdateInput{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		Notes:    req.Notes,
	})
	if err != nil {
		h.respondError(r.Context(), w, err, "people.update")
		return
	}

	httpjson.Respond(w, http.StatusOK, person)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := requireTenant(w, r)
	if !ok {
		return
	}
	personID, ok := pathUUID(w, r, "personID")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), user.OrgID, personID); err != nil {
		h.respondError(r.Context(), w, err, "people.delete")
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
		logger.Error("people operation failed", zap.Error(err))
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
