package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	resolveFn func(ctx context.Context, token string) (TenantUser, error)
}

func (s *stubResolver) ResolveSession(ctx context.Context, token string) (TenantUser, error) {
	if s.resolveFn == nil {
		panic("resolveFn not configured")
	}
	return s.resolveFn(ctx, token)
}

func okHandler(t *testing.T, sawUser *TenantUser) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, ok := TenantUserFromContext(r.Context()); ok && sawUser != nil {
			*sawUser = user
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireSessionMissingToken(t *testing.T) {
	t.Parallel()

	mw := RequireSession(&stubResolver{
		resolveFn: func(context.Context, string) (TenantUser, error) {
			t.Fatal("resolver must not be called without a token")
			return TenantUser{}, nil
		},
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	mw(okHandler(t, nil)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())
}

func TestRequireSessionCookie(t *testing.T) {
	t.Parallel()

	user := TenantUser{UserID: uuid.New(), OrgID: uuid.New(), Email: "owner@example.com"}
	mw := RequireSession(&stubResolver{
		resolveFn: func(_ context.Context, token string) (TenantUser, error) {
			require.Equal(t, "tok123", token)
			return user, nil
		},
	})

	var saw TenantUser
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "tok123"})
	mw(okHandler(t, &saw)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, user, saw)
}

func TestRequireSessionBearerFallback(t *testing.T) {
	t.Parallel()

	user := TenantUser{UserID: uuid.New(), OrgID: uuid.New()}
	mw := RequireSession(&stubResolver{
		resolveFn: func(_ context.Context, token string) (TenantUser, error) {
			require.Equal(t, "tok456", token)
			return user, nil
		},
	})

	var saw TenantUser
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.Header.Set("Authorization", "Bearer tok456")
	mw(okHandler(t, &saw)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, user, saw)
}

func TestRequireSessionResolveFailure(t *testing.T) {
	t.Parallel()

	mw := RequireSession(&stubResolver{
		resolveFn: func(context.Context, string) (TenantUser, error) {
			return TenantUser{}, errors.New("expired")
		},
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "stale"})
	mw(okHandler(t, nil)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()

	tokens, err := NewAdminTokens(testSecret, time.Hour)
	require.NoError(t, err)

	admin := SuperAdmin{AdminID: uuid.New(), Email: "root@example.com"}
	signed, err := tokens.Issue(admin)
	require.NoError(t, err)

	mw := RequireAdmin(tokens)

	var saw SuperAdmin
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := SuperAdminFromContext(r.Context())
		require.True(t, ok)
		saw = got
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/organizations", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	mw(handler).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, admin.AdminID, saw.AdminID)

	// No header and a garbage token share the same response.
	for _, header := range []string{"", "Bearer nonsense"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin/organizations", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("handler must not run")
		})).ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())
	}
}

func TestExtractBearerToken(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		header string
		want   string
		found  bool
	}{
		{"plain", "Bearer abc", "abc", true},
		{"lowercase scheme", "bearer abc", "abc", true},
		{"padded", "Bearer   abc  ", "abc", true},
		{"missing", "", "", false},
		{"wrong scheme", "Basic abc", "", false},
		{"empty token", "Bearer ", "", false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			got, found := ExtractBearerToken(req)
			require.Equal(t, tc.found, found)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestPrincipalOrgAccess(t *testing.T) {
	t.Parallel()

	orgID := uuid.New()
	user := TenantUser{UserID: uuid.New(), OrgID: orgID}
	require.True(t, user.CanAccessOrg(orgID))
	require.False(t, user.CanAccessOrg(uuid.New()))

	admin := SuperAdmin{AdminID: uuid.New()}
	require.True(t, admin.CanAccessOrg(orgID))
	require.True(t, admin.CanAccessOrg(uuid.New()))
}
