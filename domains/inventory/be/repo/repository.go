package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/quartermaster-wms/quartermaster/platform/go/persistence"
)

// Repository defines the persistence operations required by the inventory
// service. Every method takes the caller's organization id; data from other
// organizations is unreachable through this interface.
type Repository interface {
	CreateProduct(ctx context.Context, orgID uuid.UUID, params persistence.CreateProductParams) (persistence.Product, error)
	ListProducts(ctx context.Context, orgID uuid.UUID, params persistence.ListProductsParams) (persistence.ListProductsResult, error)
	GetProduct(ctx context.Context, orgID, id uuid.UUID) (persistence.Product, error)
	UpdateProduct(ctx context.Context, orgID, id uuid.UUID, params persistence.UpdateProductParams) (persistence.Product, error)
	DeleteProduct(ctx context.Context, orgID, id uuid.UUID) error

	CreateCategory(ctx context.Context, orgID uuid.UUID, params persistence.CreateCategoryParams) (persistence.Category, error)
	ListCategories(ctx context.Context, orgID uuid.UUID) ([]persistence.Category, error)
	GetCategory(ctx context.Context, orgID, id uuid.UUID) (persistence.Category, error)
	UpdateCategory(ctx context.Context, orgID, id uuid.UUID, params persistence.UpdateCategoryParams) (persistence.Category, error)
	DeleteCategory(ctx context.Context, orgID, id uuid.UUID) error

	ApplyAdjustment(ctx context.Context, orgID uuid.UUID, params persistence.ApplyAdjustmentParams) (persistence.StockAdjustment, error)
	ListAdjustments(ctx context.Context, orgID, productID uuid.UUID) ([]persistence.StockAdjustment, error)
}

type postgresRepository struct {
	products    *persistence.ProductStore
	categories  *persistence.CategoryStore
	adjustments *persistence.StockAdjustmentStore
}

// NewPostgresRepository constructs a repository backed by the shared
// persistence layer.
func NewPostgresRepository(
	products *persistence.ProductStore,
	categories *persistence.CategoryStore,
	adjustments *persistence.StockAdjustmentStore,
) Repository {
	if products == nil || categories == nil || adjustments == nil {
		panic("inventory repository requires all stores")
	}
	return &postgresRepository{
		products:    products,
		categories:  categories,
		adjustments: adjustments,
	}
}

func (r *postgresRepository) CreateProduct(ctx context.Context, orgID uuid.UUID, params persistence.CreateProductParams) (persistence.Product, error) {
	return r.products.Create(ctx, orgID, params)
}

func (r *postgresRepository) ListProducts(ctx context.Context, orgID uuid.UUID, params persistence.ListProductsParams) (persistence.ListProductsResult, error) {
	return r.products.List(ctx, orgID, params)
}

func (r *postgresRepository) GetProduct(ctx context.Context, orgID, id uuid.UUID) (persistence.Product, error) {
	return r.products.Get(ctx, orgID, id)
}

func (r *postgresRepository) UpdateProduct(ctx context.Context, orgID, id uuid.UUID, params persistence.UpdateProductParams) (persistence.Product, error) {
	return r.products.Update(ctx, orgID, id, params)
}

func (r *postgresRepository) DeleteProduct(ctx context.Context, orgID, id uuid.UUID) error {
	return r.products.Delete(ctx, orgID, id)
}

func (r *postgresRepository) CreateCategory(ctx context.Context, orgID uuid.UUID, params persistence.CreateCategoryParams) (persistence.Category, error) {
	return r.categories.Create(ctx, orgID, params)
}

func (r *postgresRepository) ListCategories(ctx context.Context, orgID uuid.UUID) ([]persistence.Category, error) {
	return r.categories.List(ctx, orgID)
}

func (r *postgresRepository) GetCategory(ctx context.Context, orgID, id uuid.UUID) (persistence.Category, error) {
	return r.categories.Get(ctx, orgID, id)
}

func (r *postgresRepository) UpdateCategory(ctx context.Context, orgID, id uuid.UUID, params persistence.UpdateCategoryParams) (persistence.Category, error) {
	return r.categories.Update(ctx, orgID, id, params)
}

func (r *postgresRepository) DeleteCategory(ctx context.Context, orgID, id uuid.UUID) error {
	return r.categories.Delete(ctx, orgID, id)
}

func (r *postgresRepository) ApplyAdjustment(ctx context.Context, orgID uuid.UUID, params persistence.ApplyAdjustmentParams) (persistence.StockAdjustment, error) {
	return r.adjustments.Apply(ctx, orgID, params)
}

func (r *postgresRepository) ListAdjustments(ctx context.Context, orgID, productID uuid.UUID) ([]persistence.StockAdjustment, error) {
	return r.adjustments.ListForProduct(ctx, orgID, productID)
}
