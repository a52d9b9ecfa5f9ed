package handler

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quartermaster-wms/quartermaster/domains/admin/be/service"
	platformauth "github.com/quartermaster-wms/quartermaster/platform/go/auth"
	"github.com/quartermaster-wms/quartermaster/platform/go/httpjson"
	platformlogging "github.com/quartermaster-wms/quartermaster/platform/go/logging"
	"github.com/quartermaster-wms/quartermaster/platform/go/ratelimit"
)

const (
	loginLimit  = 5
	loginWindow = 15 * time.Minute
)

// Handler exposes the super-admin endpoints under /admin.
type Handler struct {
	svc     service.Service
	tokens  *platformauth.AdminTokens
	limiter ratelimit.Limiter
	logger  *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, tokens *platformauth.AdminTokens, limiter ratelimit.Limiter, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("admin service is required")
	}
	if tokens == nil {
		panic("admin tokens are required")
	}
	if limiter == nil {
		panic("rate limiter is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, tokens: tokens, limiter: limiter, logger: logger}
}

// Routes mounts the admin endpoints. Everything except login requires the
// bearer token.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(platformauth.RequireAdmin(h.tokens))

		r.Get("/organizations", h.ListOrganizations)
		r.Post("/organizations/{orgID}/toggle-suspend", h.ToggleSuspend)
		r.Delete("/organizations/{orgID}", h.DeleteOrganization)
		r.Get("/organizations/{orgID}/users", h.ListOrgUsers)

		r.Get("/access-keys", h.ListAccessKeys)
		r.Post("/access-keys", h.CreateAccessKey)

		r.Post("/users/reset-password", h.ResetUserPassword)
	})

	return r
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	key := "admin-login:" + clientIP(r)
	check, err := h.limiter.Check(r.Context(), key, loginLimit, loginWindow)
	if err != nil {
		h.loggerFrom(r.Context()).Error("admin login rate limit check failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !check.Allowed {
		httpjson.RateLimited(w, check.ResetIn)
		return
	}

	var req loginRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.svc.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondError(r.Context(), w, err, "adminLogin")
		return
	}

	httpjson.Respond(w, http.StatusOK, loginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		Email:     result.Admin.Email,
		FullName:  result.Admin.FullName,
	})
}

func (h *Handler) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "pageSize", 20)

	result, err := h.svc.ListOrganizations(r.Context(), page, pageSize)
	if err != nil {
		h.respondError(r.Context(), w, err, "adminOrgsList")
		return
	}

	httpjson.Respond(w, http.StatusOK, map[string]any{
		"items":      result.Organizations,
		"page":       result.Page,
		"pageSize":   result.PageSize,
		"totalItems": result.TotalItems,
		"totalPages": result.TotalPages,
	})
}

func (h *Handler) ToggleSuspend(w http.ResponseWriter, r *http.Request) {
	orgID, ok := pathUUID(w, r, "orgID")
	if !ok {
		return
	}

	org, err := h.svc.ToggleSuspend(r.Context(), orgID)
	if err != nil {
		h.respondError(r.Context(), w, err, "adminOrgSuspend")
		return
	}

	h.loggerFrom(r.Context()).Info("organization suspension toggled",
		zap.String("organizationId", org.OrgID.String()),
		zap.Bool("suspended", org.IsSuspended))
	httpjson.Respond(w, http.StatusOK, org)
}

func (h *Handler) DeleteOrganization(w http.ResponseWriter, r *http.Request) {
	orgID, ok := pathUUID(w, r, "orgID")
	if !ok {
		return
	}

	if err := h.svc.DeleteOrganization(r.Context(), orgID); err != nil {
		h.respondError(r.Context(), w, err, "adminOrgDelete")
		return
	}

	h.loggerFrom(r.Context()).Info("organization deleted", zap.String("organizationId", orgID.String()))
	httpjson.Respond(w, http.StatusNoContent, nil)
}

func (h *Handler) ListOrgUsers(w http.ResponseWriter, r *http.Request) {
	orgID, ok := pathUUID(w, r, "orgID")
	if !ok {
		return
	}

	users, err := h.svc.ListOrgUsers(r.Context(), orgID)
	if err != nil {
		h.respondError(r.Context(), w, err, "adminOrgUsers")
		return
	}

	httpjson.Respond(w, http.StatusOK, map[string]any{"items": users})
}

func (h *Handler) ListAccessKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.svc.ListAccessKeys(r.Context())
	if err != nil {
		h.respondError(r.Context(), w, err, "adminKeysList")
		return
	}

	httpjson.Respond(w, http.StatusOK, map[string]any{"items": keys})
}

type createAccessKeyRequest struct {
	MaxUses   *int       `json:"maxUses"`
	ExpiresAt *time.Time `json:"expiresAt"`
	Notes     *string    `json:"notes"`
}

func (h *Handler) CreateAccessKey(w http.ResponseWriter, r *http.Request) {
	admin, ok := platformauth.SuperAdminFromContext(r.Context())
	if !ok {
		httpjson.Unauthorized(w)
		return
	}

	var req createAccessKeyRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	key, err := h.svc.CreateAccessKey(r.Context(), admin, service.CreateAccessKeyInput{
		MaxUses:   req.MaxUses,
		ExpiresAt: req.ExpiresAt,
		Notes:     req.Notes,
	})
	if err != nil {
		h.respondError(r.Context(), w, err, "adminKeyCreate")
		return
	}

	httpjson.Respond(w, http.StatusCreated, key)
}

type resetPasswordRequest struct {
	UserID      uuid.UUID `json:"userId"`
	NewPassword string    `json:"newPassword"`
}

func (h *Handler) ResetUserPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID == uuid.Nil {
		httpjson.ValidationError(w, map[string][]string{"userId": {"userId is required"}})
		return
	}

	if err := h.svc.ResetUserPassword(r.Context(), req.UserID, service.ResetPasswordInput{Password: req.NewPassword}); err != nil {
		h.respondError(r.Context(), w, err, "adminResetPassword")
		return
	}

	h.loggerFrom(r.Context()).Info("user password reset", zap.String("userId", req.UserID.String()))
	httpjson.Respond(w, http.StatusNoContent, nil)
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, err error, op string) {
	logger := h.loggerFrom(ctx).With(zap.String("operation", op))

	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		logger.Warn("request rejected", zap.Error(err))
		httpjson.ValidationError(w, validationErr.Fields)
	case errors.Is(err, service.ErrInvalidCredentials):
		logger.Info("admin authentication refused")
		httpjson.Unauthorized(w)
	case errors.Is(err, service.ErrNotFound):
		logger.Info("admin resource not found", zap.Error(err))
		httpjson.NotFound(w)
	default:
		logger.Error("admin operation failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) loggerFrom(ctx context.Context) *zap.Logger {
	if logger, ok := platformlogging.FromContext(ctx); ok {
		return logger
	}
	return h.logger
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

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
