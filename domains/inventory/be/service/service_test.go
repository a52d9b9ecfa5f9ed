package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/quartermaster-wms/quartermaster/platform/go/persistence"
)

type mockRepository struct {
	createProductFn   func(ctx context.Context, orgID uuid.UUID, params persistence.CreateProductParams) (persistence.Product, error)
	listProductsFn    func(ctx context.Context, orgID uuid.UUID, params persistence.ListProductsParams) (persistence.ListProductsResult, error)
	getProductFn      func(ctx context.Context, orgID, id uuid.UUID) (persistence.Product, error)
	updateProductFn   func(ctx context.Context, orgID, id uuid.UUID, params persistence.UpdateProductParams) (persistence.Product, error)
	deleteProductFn   func(ctx context.Context, orgID, id uuid.UUID) error
	createCategoryFn  func(ctx context.Context, orgID uuid.UUID, params persistence.CreateCategoryParams) (persistence.Category, error)
	listCategoriesFn  func(ctx context.Context, orgID uuid.UUID) ([]persistence.Category, error)
	getCategoryFn     func(ctx context.Context, orgID, id uuid.UUID) (persistence.Category, error)
	updateCategoryFn  func(ctx context.Context, orgID, id uuid.UUID, params persistence.UpdateCategoryParams) (persistence.Category, error)
	deleteCategoryFn  func(ctx context.Context, orgID, id uuid.UUID) error
	applyAdjustmentFn func(ctx context.Context, orgID uuid.UUID, params persistence.ApplyAdjustmentParams) (persistence.StockAdjustment, error)
	listAdjustmentsFn func(ctx context.Context, orgID, productID uuid.UUID) ([]persistence.StockAdjustment, error)
}

func (m *mockRepository) CreateProduct(ctx context.Context, orgID uuid.UUID, params persistence.CreateProductParams) (persistence.Product, error) {
	if m.createProductFn == nil {
		panic("createProductFn not configured")
	}
	return m.createProductFn(ctx, orgID, params)
}

func (m *mockRepository) ListProducts(ctx context.Context, orgID uuid.UUID, params persistence.ListProductsParams) (persistence.ListProductsResult, error) {
	if m.listProductsFn == nil {
		panic("listProductsFn not configured")
	}
	return m.listProductsFn(ctx, orgID, params)
}

func (m *mockRepository) GetProduct(ctx context.Context, orgID, id uuid.UUID) (persistence.Product, error) {
	if m.getProductFn == nil {
		panic("getProductFn not configured")
	}
	return m.getProductFn(ctx, orgID, id)
}

func (m *mockRepository) UpdateProduct(ctx context.Context, orgID, id uuid.UUID, params persistence.UpdateProductParams) (persistence.Product, error) {
	if m.updateProductFn == nil {
		panic("updateProductFn not configured")
	}
	return m.updateProductFn(ctx, orgID, id, params)
}

func (m *mockRepository) DeleteProduct(ctx context.Context, orgID, id uuid.UUID) error {
	if m.deleteProductFn == nil {
		panic("deleteProductFn not configured")
	}
	return m.deleteProductFn(ctx, orgID, id)
}

func (m *mockRepository) CreateCategory(ctx context.Context, orgID uuid.UUID, params persistence.CreateCategoryParams) (persistence.Category, error) {
	if m.createCategoryFn == nil {
		panic("createCategoryFn not configured")
	}
	return m.createCategoryFn(ctx, orgID, params)
}

func (m *mockRepository) ListCategories(ctx context.Context, orgID uuid.UUID) ([]persistence.Category, error) {
	if m.listCategoriesFn == nil {
		panic("listCategoriesFn not configured")
	}
	return m.listCategoriesFn(ctx, orgID)
}

func (m *mockRepository) GetCategory(ctx context.Context, orgID, id uuid.UUID) (persistence.Category, error) {
	if m.getCategoryFn == nil {
		panic("getCategoryFn not configured")
	}
	return m.getCategoryFn(ctx, orgID, id)
}

func (m *mockRepository) UpdateCategory(ctx context.Context, orgID, id uuid.UUID, params persistence.UpdateCategoryParams) (persistence.Category, error) {
	if m.updateCategoryFn == nil {
		panic("updateCategoryFn not configured")
	}
	return m.updateCategoryFn(ctx, orgID, id, params)
}

func (m *mockRepository) DeleteCategory(ctx context.Context, orgID, id uuid.UUID) error {
	if m.deleteCategoryFn == nil {
		panic("deleteCategoryFn not configured")
	}
	return m.deleteCategoryFn(ctx, orgID, id)
}

func (m *mockRepository) ApplyAdjustment(ctx context.Context, orgID uuid.UUID, params persistence.ApplyAdjustmentParams) (persistence.StockAdjustment, error) {
	if m.applyAdjustmentFn == nil {
		panic("applyAdjustmentFn not configured")
	}
	return m.applyAdjustmentFn(ctx, orgID, params)
}

func (m *mockRepository) ListAdjustments(ctx context.Context, orgID, productID uuid.UUID) ([]persistence.StockAdjustment, error) {
	if m.listAdjustmentsFn == nil {
		panic("listAdjustmentsFn not configured")
	}
	return m.listAdjustmentsFn(ctx, orgID, productID)
}

func TestCreateProductValidation(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})

	_, err := svc.CreateProduct(context.Background(), uuid.New(), CreateProductInput{
		SKU:        "",
		Name:       " ",
		PriceCents: -100,
		StockQty:   -1,
	})
	require.Error(t, err)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Contains(t, validationErr.Fields, "sku")
	require.Contains(t, validationErr.Fields, "name")
	require.Contains(t, validationErr.Fields, "priceCents")
	require.Contains(t, validationErr.Fields, "stockQty")
}

func TestCreateProductScopesOrg(t *testing.T) {
	t.Parallel()

	orgID := uuid.New()
	repository := &mockRepository{
		createProductFn: func(ctx context.Context, gotOrg uuid.UUID, params persistence.CreateProductParams) (persistence.Product, error) {
			require.Equal(t, orgID, gotOrg)
			require.Equal(t, "WDG-1", params.SKU)
			return persistence.Product{ProductID: params.ProductID, OrgID: gotOrg, SKU: params.SKU}, nil
		},
	}

	svc := New(repository)

	product, err := svc.CreateProduct(context.Background(), orgID, CreateProductInput{
		SKU:        " WDG-1 ",
		Name:       "Widget",
		PriceCents: 995,
		StockQty:   10,
	})
	require.NoError(t, err)
	require.Equal(t, orgID, product.OrgID)
}

func TestCreateProductForeignCategoryRejected(t *testing.T) {
	t.Parallel()

	categoryID := uuid.New()
	repository := &mockRepository{
		getCategoryFn: func(ctx context.Context, orgID, id uuid.UUID) (persistence.Category, error) {
			// The category belongs to another organization; the scoped read
			// cannot see it.
			return persistence.Category{}, persistence.ErrNotFound
		},
	}

	svc := New(repository)

	_, err := svc.CreateProduct(context.Background(), uuid.New(), CreateProductInput{
		CategoryID: &categoryID,
		SKU:        "WDG-1",
		Name:       "Widget",
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCreateProductSKUConflict(t *testing.T) {
	t.Parallel()

	repository := &mockRepository{
		createProductFn: func(ctx context.Context, orgID uuid.UUID, params persistence.CreateProductParams) (persistence.Product, error) {
			return persistence.Product{}, persistence.ErrSKUConflict
		},
	}

	svc := New(repository)

	_, err := svc.CreateProduct(context.Background(), uuid.New(), CreateProductInput{
		SKU:  "WDG-1",
		Name: "Widget",
	})
	require.ErrorIs(t, err, ErrSKUConflict)
}

func TestUpdateProductRequiresFields(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})

	_, err := svc.UpdateProduct(context.Background(), uuid.New(), uuid.New(), UpdateProductInput{})
	require.Error(t, err)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Contains(t, validationErr.Fields, "payload")
}

func TestGetProductCrossTenant(t *testing.T) {
	t.Parallel()

	repository := &mockRepository{
		getProductFn: func(ctx context.Context, orgID, id uuid.UUID) (persistence.Product, error) {
			return persistence.Product{}, persistence.ErrNotFound
		},
	}

	svc := New(repository)

	_, err := svc.GetProduct(context.Background(), uuid.New(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteProductWithOrderHistory(t *testing.T) {
	t.Parallel()

	repository := &mockRepository{
		deleteProductFn: func(ctx context.Context, orgID, id uuid.UUID) error {
			return persistence.ErrRowReferenced
		},
	}

	svc := New(repository)

	err := svc.DeleteProduct(context.Background(), uuid.New(), uuid.New())
	require.ErrorIs(t, err, ErrProductInUse)
}

func TestCreateCategoryConflict(t *testing.T) {
	t.Parallel()

	repository := &mockRepository{
		createCategoryFn: func(ctx context.Context, orgID uuid.UUID, params persistence.CreateCategoryParams) (persistence.Category, error) {
			return persistence.Category{}, persistence.ErrCategoryConflict
		},
	}

	svc := New(repository)

	_, err := svc.CreateCategory(context.Background(), uuid.New(), CategoryInput{Name: "Tools"})
	require.ErrorIs(t, err, ErrCategoryConflict)
}

func TestAdjustStockValidation(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})

	_, err := svc.AdjustStock(context.Background(), uuid.New(), uuid.New(), AdjustStockInput{
		Delta:  0,
		Reason: " ",
	})
	require.Error(t, err)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Contains(t, validationErr.Fields, "delta")
	require.Contains(t, validationErr.Fields, "reason")
}

func TestAdjustStockUnderflow(t *testing.T) {
	t.Parallel()

	repository := &mockRepository{
		applyAdjustmentFn: func(ctx context.Context, orgID uuid.UUID, params persistence.ApplyAdjustmentParams) (persistence.StockAdjustment, error) {
			return persistence.StockAdjustment{}, persistence.ErrInsufficientStock
		},
	}

	svc := New(repository)

	_, err := svc.AdjustStock(context.Background(), uuid.New(), uuid.New(), AdjustStockInput{
		Delta:  -50,
		Reason: "damaged",
	})
	require.ErrorIs(t, err, ErrInsufficientStock)
}

func TestAdjustStockRecordsActor(t *testing.T) {
	t.Parallel()

	actorID := uuid.New()
	repository := &mockRepository{
		applyAdjustmentFn: func(ctx context.Context, orgID uuid.UUID, params persistence.ApplyAdjustmentParams) (persistence.StockAdjustment, error) {
			require.NotNil(t, params.ActorUserID)
			require.Equal(t, actorID, *params.ActorUserID)
			require.Equal(t, 5, params.Delta)
			require.Equal(t, "recount", params.Reason)
			return persistence.StockAdjustment{AdjustmentID: params.AdjustmentID, Delta: params.Delta}, nil
		},
	}

	svc := New(repository)

	adjustment, err := svc.AdjustStock(context.Background(), uuid.New(), uuid.New(), AdjustStockInput{
		Delta:       5,
		Reason:      " recount ",
		ActorUserID: actorID,
	})
	require.NoError(t, err)
	require.Equal(t, 5, adjustment.Delta)
}
