// Package auth carries the principal model shared by the tenant and admin
// authorities, plus the HTTP middleware that resolves credentials into
// principals.
package auth

import (
	"context"

	"github.com/google/uuid"
)

// Principal is any authenticated caller. The two variants are TenantUser
// (bound to exactly one organization) and SuperAdmin (cross-tenant).
type Principal interface {
	// CanAccessOrg reports whether the principal may touch rows owned by the
	// given organization.
	CanAccessOrg(orgID uuid.UUID) bool
}

// TenantUser is the session-authenticated member of a single organization.
type TenantUser struct {
	UserID   uuid.UUID
	Email    string
	FullName string
	Role     string
	OrgID    uuid.UUID
	OrgName  string
}

func (u TenantUser) CanAccessOrg(orgID uuid.UUID) bool {
	return u.OrgID == orgID
}

// SuperAdmin is the bearer-token-authenticated operator identity. It is not
// tied to any organization and passes every org check.
type SuperAdmin struct {
	AdminID  uuid.UUID
	Email    string
	FullName string
}

func (SuperAdmin) CanAccessOrg(uuid.UUID) bool {
	return true
}

type ctxKey string

const (
	ctxTenantUser ctxKey = "QM_TENANT_USER"
	ctxSuperAdmin ctxKey = "QM_SUPER_ADMIN"
)

// WithTenantUser returns a derived context carrying the tenant principal.
func WithTenantUser(ctx context.Context, user TenantUser) context.Context {
	return context.WithValue(ctx, ctxTenantUser, user)
}

// TenantUserFromContext extracts the tenant principal set by RequireSession.
func TenantUserFromContext(ctx context.Context) (TenantUser, bool) {
	user, ok := ctx.Value(ctxTenantUser).(TenantUser)
	return user, ok
}

// WithSuperAdmin returns a derived context carrying the admin principal.
func WithSuperAdmin(ctx context.Context, admin SuperAdmin) context.Context {
	return context.WithValue(ctx, ctxSuperAdmin, admin)
}

// SuperAdminFromContext extracts the admin principal set by RequireAdmin.
func SuperAdminFromContext(ctx context.Context) (SuperAdmin, bool) {
	admin, ok := ctx.Value(ctxSuperAdmin).(SuperAdmin)
	return admin, ok
}
