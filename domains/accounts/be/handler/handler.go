package handler

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/quartermaster-wms/quartermaster/domains/accounts/be/service"
	platformauth "github.com/quartermaster-wms/quartermaster/platform/go/auth"
	"github.com/quartermaster-wms/quartermaster/platform/go/httpjson"
	platformlogging "github.com/quartermaster-wms/quartermaster/platform/go/logging"
	"github.com/quartermaster-wms/quartermaster/platform/go/ratelimit"
)

const (
	signupLimit  = 10
	signupWindow = time.Hour
)

// Handler exposes the auth endpoints: signup, login, logout, me.
type Handler struct {
	svc     service.Service
	limiter ratelimit.Limiter
	logger  *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, limiter ratelimit.Limiter, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("accounts service is required")
	}
	if limiter == nil {
		panic("rate limiter is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, limiter: limiter, logger: logger}
}

// Routes mounts the public and session-guarded auth endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/signup", h.Signup)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(platformauth.RequireSession(h.svc))
		r.Get("/me", h.Me)
	})

	return r
}

type signupRequest struct {
	OrgName   string `json:"orgName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FullName  string `json:"fullName"`
	AccessKey string `json:"accessKey"`
}

type accountResponse struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
	OrgID    string `json:"organizationId"`
	OrgName  string `json:"organizationName"`
	OrgSlug  string `json:"organizationSlug"`
	Plan     string `json:"plan"`
}

type sessionResponse struct {
	Account   accountResponse `json:"account"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	key := "signup:" + clientIP(r)
	check, err := h.limiter.Check(r.Context(), key, signupLimit, signupWindow)
	if err != nil {
		h.loggerFrom(r.Context()).Error("signup rate limit check failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !check.Allowed {
		httpjson.RateLimited(w, check.ResetIn)
		return
	}

	var req signupRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	account, session, err := h.svc.Signup(r.Context(), service.SignupInput{
		OrgName:   req.OrgName,
		Email:     req.Email,
		Password:  req.Password,
		FullName:  req.FullName,
		AccessKey: req.AccessKey,
	})
	if err != nil {
		h.respondError(r.Context(), w, err, "authSignup")
		return
	}

	setSessionCookie(w, session)
	httpjson.Respond(w, http.StatusCreated, sessionResponse{
		Account:   toAccountResponse(account),
		ExpiresAt: session.ExpiresAt,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	account, session, err := h.svc.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondError(r.Context(), w, err, "authLogin")
		return
	}

	setSessionCookie(w, session)
	httpjson.Respond(w, http.StatusOK, sessionResponse{
		Account:   toAccountResponse(account),
		ExpiresAt: session.ExpiresAt,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, found := platformauth.ExtractSessionToken(r); found {
		if err := h.svc.Logout(r.Context(), token); err != nil {
			h.loggerFrom(r.Context()).Warn("logout failed", zap.Error(err))
		}
	}

	clearSessionCookie(w)
	httpjson.Respond(w, http.StatusNoContent, nil)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := platformauth.TenantUserFromContext(r.Context())
	if !ok {
		httpjson.Unauthorized(w)
		return
	}

	httpjson.Respond(w, http.StatusOK, accountResponse{
		UserID:   user.UserID.String(),
		Email:    user.Email,
		FullName: user.FullName,
		Role:     user.Role,
		OrgID:    user.OrgID.String(),
		OrgName:  user.OrgName,
	})
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, err error, op string) {
	logger := h.loggerFrom(ctx).With(zap.String("operation", op))

	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		logger.Warn("request rejected", zap.Error(err))
		httpjson.ValidationError(w, validationErr.Fields)
	case errors.Is(err, service.ErrInvalidCredentials):
		logger.Info("authentication refused")
		httpjson.Unauthorized(w)
	case errors.Is(err, service.ErrAccessKeyExhausted):
		logger.Info("access key exhausted")
		httpjson.Error(w, http.StatusBadRequest, "usage limit reached")
	case errors.Is(err, service.ErrAccessKeyRejected):
		logger.Info("access key refused")
		httpjson.Error(w, http.StatusBadRequest, "access key is not valid")
	case errors.Is(err, service.ErrEmailTaken):
		logger.Info("duplicate email")
		httpjson.Error(w, http.StatusBadRequest, "email already registered")
	default:
		logger.Error("accounts operation failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) loggerFrom(ctx context.Context) *zap.Logger {
	if logger, ok := platformlogging.FromContext(ctx); ok {
		return logger
	}
	return h.logger
}

func toAccountResponse(account service.Account) accountResponse {
	return accountResponse{
		UserID:   account.UserID.String(),
		Email:    account.Email,
		FullName: account.FullName,
		Role:     account.Role,
		OrgID:    account.OrgID.String(),
		OrgName:  account.OrgName,
		OrgSlug:  account.OrgSlug,
		Plan:     account.Plan,
	}
}

func setSessionCookie(w http.ResponseWriter, session service.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     platformauth.SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     platformauth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
