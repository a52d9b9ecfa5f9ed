package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/quartermaster-wms/quartermaster/platform/go/persistence"
)

// Repository defines the persistence operations required by the orders
// service, all scoped to the caller's organization.
type Repository interface {
	Create(ctx context.Context, orgID uuid.UUID, params persistence.CreateOrderParams) (persistence.Order, error)
	List(ctx context.Context, orgID uuid.UUID, params persistence.ListOrdersParams) (persistence.ListOrdersResult, error)
	Get(ctx context.Context, orgID, id uuid.UUID) (persistence.Order, error)
	UpdateStatus(ctx context.Context, orgID, id uuid.UUID, status string, actorUserID *uuid.UUID) (persistence.Order, error)
	Delete(ctx context.Context, orgID, id uuid.UUID) error
}

type postgresRepository struct {
	orders *persistence.OrderStore
}

// NewPostgresRepository constructs a repository backed by the shared
// persistence layer.
func NewPostgresRepository(orders *persistence.OrderStore) Repository {
	if orders == nil {
		panic("order store is required")
	}
	return &postgresRepository{orders: orders}
}

func (r *postgresRepository) Create(ctx context.Context, orgID uuid.UUID, params persistence.CreateOrderParams) (persistence.Order, error) {
	return r.orders.Create(ctx, orgID, params)
}

func (r *postgresRepository) List(ctx context.Context, orgID uuid.UUID, params persistence.ListOrdersParams) (persistence.ListOrdersResult, error) {
	return r.orders.List(ctx, orgID, params)
}

func (r *postgresRepository) Get(ctx context.Context, orgID, id uuid.UUID) (persistence.Order, error) {
	return r.orders.Get(ctx, orgID, id)
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, orgID, id uuid.UUID, status string, actorUserID *uuid.UUID) (persistence.Order, error) {
	return r.orders.UpdateStatus(ctx, orgID, id, status, actorUserID)
}

func (r *postgresRepository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	return r.orders.Delete(ctx, orgID, id)
}
