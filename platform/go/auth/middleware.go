package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/quartermaster-wms/quartermaster/platform/go/httpjson"
)

// SessionResolver turns a raw session token into a tenant principal. The
// resolver owns the lookup, expiry check, and the suspended-organization
// refusal; any failure means the request is unauthenticated.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (TenantUser, error)
}

// RequireSession guards tenant-scoped routes. The session token is read from
// the qm_session cookie or the Authorization header; every failure mode
// returns the same 401 body without reaching the wrapped handler.
func RequireSession(sessions SessionResolver) func(http.Handler) http.Handler {
	if sessions == nil {
		panic("auth.RequireSession: session resolver is required")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			token, found := ExtractSessionToken(r)
			if !found {
				httpjson.Unauthorized(w)
				return
			}

			user, err := sessions.ResolveSession(r.Context(), token)
			if err != nil {
				httpjson.Unauthorized(w)
				return
			}

			ctx := WithTenantUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin guards admin routes with the stateless bearer scheme. A
// missing header and a bad token are distinct conditions internally but share
// the 401 response.
func RequireAdmin(tokens *AdminTokens) func(http.Handler) http.Handler {
	if tokens == nil {
		panic("auth.RequireAdmin: admin tokens are required")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			token, found := ExtractBearerToken(r)
			if !found {
				httpjson.Unauthorized(w)
				return
			}

			admin, err := tokens.Verify(token)
			if err != nil {
				httpjson.Unauthorized(w)
				return
			}

			ctx := WithSuperAdmin(r.Context(), admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ExtractBearerToken pulls the token out of an Authorization: Bearer header.
func ExtractBearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	const prefix = "Bearer "
	// Case-insensitive prefix match.
	if len(authHeader) < len(prefix) || !strings.EqualFold(authHeader[:len(prefix)], prefix) {
		return "", false
	}

	token := strings.TrimSpace(authHeader[len(prefix):])
	return token, token != ""
}

// ExtractSessionToken reads the session token from the cookie, falling back
// to the Authorization header for non-browser clients.
func ExtractSessionToken(r *http.Request) (string, bool) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	return ExtractBearerToken(r)
}
