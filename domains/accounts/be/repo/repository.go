package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/quartermaster-wms/quartermaster/platform/go/persistence"
)

// Repository defines the persistence operations required by the accounts
// service: signup, login, and session lifecycle.
type Repository interface {
	GetAccessKey(ctx context.Context, key string) (persistence.AccessKey, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	CreateOrganizationWithOwner(ctx context.Context, params persistence.SignupParams) (persistence.Organization, persistence.AuthUser, error)

	GetUserByEmail(ctx context.Context, email string) (persistence.AuthUser, error)
	GetOrganization(ctx context.Context, id uuid.UUID) (persistence.Organization, error)
	TouchLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error

	CreateSession(ctx context.Context, params persistence.CreateSessionParams) error
	ResolveSession(ctx context.Context, tokenHash string) (persistence.SessionPrincipal, error)
	DeleteSession(ctx context.Context, tokenHash string) error
}

type postgresRepository struct {
	accessKeys *persistence.AccessKeyStore
	orgs       *persistence.OrganizationStore
	users      *persistence.AuthUserStore
	sessions   *persistence.SessionStore
	signup     *persistence.SignupStore
}

// NewPostgresRepository constructs a repository backed by the shared
// persistence layer.
func NewPostgresRepository(
	accessKeys *persistence.AccessKeyStore,
	orgs *persistence.OrganizationStore,
	users *persistence.AuthUserStore,
	sessions *persistence.SessionStore,
	signup *persistence.SignupStore,
) Repository {
	if accessKeys == nil || orgs == nil || users == nil || sessions == nil || signup == nil {
		panic("accounts repository requires all stores")
	}
	return &postgresRepository{
		accessKeys: accessKeys,
		orgs:       orgs,
		users:      users,
		sessions:   sessions,
		signup:     signup,
	}
}

func (r *postgresRepository) GetAccessKey(ctx context.Context, key string) (persistence.AccessKey, error) {
	return r.accessKeys.GetByKey(ctx, key)
}

func (r *postgresRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	return r.orgs.SlugExists(ctx, slug)
}

func (r *postgresRepository) CreateOrganizationWithOwner(ctx context.Context, params persistence.SignupParams) (persistence.Organization, persistence.AuthUser, error) {
	return r.signup.CreateOrganizationWithOwner(ctx, params)
}

func (r *postgresRepository) GetUserByEmail(ctx context.Context, email string) (persistence.AuthUser, error) {
	return r.users.GetByEmail(ctx, email)
}

func (r *postgresRepository) GetOrganization(ctx context.Context, id uuid.UUID) (persistence.Organization, error) {
	return r.orgs.Get(ctx, id)
}

func (r *postgresRepository) TouchLastLogin(ctx context.Context, userID uuid.UUID, at time.Time) error {
	return r.users.TouchLastLogin(ctx, userID, at)
}

func (r *postgresRepository) CreateSession(ctx context.Context, params persistence.CreateSessionParams) error {
	return r.sessions.Create(ctx, params)
}

func (r *postgresRepository) ResolveSession(ctx context.Context, tokenHash string) (persistence.SessionPrincipal, error) {
	return r.sessions.Resolve(ctx, tokenHash)
}

func (r *postgresRepository) DeleteSession(ctx context.Context, tokenHash string) error {
	return r.sessions.Delete(ctx, tokenHash)
}
