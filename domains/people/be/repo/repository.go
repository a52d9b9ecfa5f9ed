package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/quartermaster-wms/quartermaster/platform/go/persistence"
)

// Repository defines the persistence operations required by the people
// service, all scoped to the caller's organization.
type Repository interface {
	Create(ctx context.Context, orgID uuid.UUID, params persistence.CreatePersonParams) (persistence.Person, error)
	List(ctx context.Context, orgID uuid.UUID, kind *string) ([]persistence.Person, error)
	Get(ctx context.Context, orgID, id uuid.UUID) (persistence.Person, error)
	Update(ctx context.Context, orgID, id uuid.UUID, params persistence.UpdatePersonParams) (persistence.Person, error)
	Delete(ctx context.Context, orgID, id uuid.UUID) error
}

type postgresRepository struct {
	people *persistence.PersonStore
}

// NewPostgresRepository constructs a repository backed by the shared
// persistence layer.
func NewPostgresRepository(people *persistence.PersonStore) Repository {
	if people == nil {
		panic("person store is required")
	}
	return &postgresRepository{people: people}
}

func (r *postgresRepository) Create(ctx context.Context, orgID uuid.UUID, params persistence.CreatePersonParams) (persistence.Person, error) {
	return r.people.Create(ctx, orgID, params)
}

func (r *postgresRepository) List(ctx context.Context, orgID uuid.UUID, kind *string) ([]persistence.Person, error) {
	return r.people.List(ctx, orgID, kind)
}

func (r *postgresRepository) Get(ctx context.Context, orgID, id uuid.UUID) (persistence.Person, error) {
	return r.people.Get(ctx, orgID, id)
}

func (r *postgresRepository) Update(ctx context.Context, orgID, id uuid.UUID, params persistence.UpdatePersonParams) (persistence.Person, error) {
	return r.people.Update(ctx, orgID, id, params)
}

func (r *postgresRepository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	return r.people.Delete(ctx, orgID, id)
}
