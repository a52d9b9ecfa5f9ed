package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/quartermaster-wms/quartermaster/platform/go/persistence"
)

// Repository defines the persistence operations required by the admin
// service. Everything here is deliberately cross-tenant: the caller is a
// super admin.
type Repository interface {
	GetAdminByEmail(ctx context.Context, email string) (persistence.SuperAdmin, error)

	ListOrganizations(ctx context.Context, page, pageSize int) ([]persistence.OrganizationSummary, int, error)
	GetOrganization(ctx context.Context, id uuid.UUID) (persistence.Organization, error)
	ToggleSuspend(ctx context.Context, id uuid.UUID) (persistence.Organization, error)
	DeleteOrganization(ctx context.Context, id uuid.UUID) error
	ListOrgUsers(ctx context.Context, orgID uuid.UUID) ([]persistence.AuthUser, error)

	ListAccessKeys(ctx context.Context) ([]persistence.AccessKey, error)
	CreateAccessKey(ctx context.Context, params persistence.CreateAccessKeyParams) (persistence.AccessKey, error)

	GetUser(ctx context.Context, id uuid.UUID) (persistence.AuthUser, error)
	UpdateUserPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	DeleteUserSessions(ctx context.Context, userID uuid.UUID) error
}

type postgresRepository struct {
	admins     *persistence.SuperAdminStore
	orgs       *persistence.OrganizationStore
	users      *persistence.AuthUserStore
	accessKeys *persistence.AccessKeyStore
	sessions   *persistence.SessionStore
}

// NewPostgresRepository constructs a repository backed by the shared
// persistence layer.
func NewPostgresRepository(
	admins *persistence.SuperAdminStore,
	orgs *persistence.OrganizationStore,
	users *persistence.AuthUserStore,
	accessKeys *persistence.AccessKeyStore,
	sessions *persistence.SessionStore,
) Repository {
	if admins == nil || orgs == nil || users == nil || accessKeys == nil || sessions == nil {
		panic("admin repository requires all stores")
	}
	return &postgresRepository{
		admins:     admins,
		orgs:       orgs,
		users:      users,
		accessKeys: accessKeys,
		sessions:   sessions,
	}
}

func (r *postgresRepository) GetAdminByEmail(ctx context.Context, email string) (persistence.SuperAdmin, error) {
	return r.admins.GetByEmail(ctx, email)
}

func (r *postgresRepository) ListOrganizations(ctx context.Context, page, pageSize int) ([]persistence.OrganizationSummary, int, error) {
	return r.orgs.ListWithCounts(ctx, page, pageSize)
}

func (r *postgresRepository) GetOrganization(ctx context.Context, id uuid.UUID) (persistence.Organization, error) {
	return r.orgs.Get(ctx, id)
}

func (r *postgresRepository) ToggleSuspend(ctx context.Context, id uuid.UUID) (persistence.Organization, error) {
	return r.orgs.ToggleSuspend(ctx, id)
}

func (r *postgresRepository) DeleteOrganization(ctx context.Context, id uuid.UUID) error {
	return r.orgs.Delete(ctx, id)
}

func (r *postgresRepository) ListOrgUsers(ctx context.Context, orgID uuid.UUID) ([]persistence.AuthUser, error) {
	return r.users.ListByOrg(ctx, orgID)
}

func (r *postgresRepository) ListAccessKeys(ctx context.Context) ([]persistence.AccessKey, error) {
	return r.accessKeys.List(ctx)
}

func (r *postgresRepository) CreateAccessKey(ctx context.Context, params persistence.CreateAccessKeyParams) (persistence.AccessKey, error) {
	return r.accessKeys.Create(ctx, params)
}

func (r *postgresRepository) GetUser(ctx context.Context, id uuid.UUID) (persistence.AuthUser, error) {
	return r.users.Get(ctx, id)
}

func (r *postgresRepository) UpdateUserPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.users.UpdatePassword(ctx, id, passwordHash)
}

func (r *postgresRepository) DeleteUserSessions(ctx context.Context, userID uuid.UUID) error {
	return r.sessions.DeleteForUser(ctx, userID)
}
