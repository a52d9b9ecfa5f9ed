package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const ProductsTable = "products"

// Product represents a row in the products table. Prices are integer cents.
type Product struct {
	ProductID   uuid.UUID  `db:"product_id" json:"productId"`
	OrgID       uuid.UUID  `db:"organization_id" json:"organizationId"`
	CategoryID  *uuid.UUID `db:"category_id" json:"categoryId,omitempty"`
	SKU         string     `db:"sku" json:"sku"`
	Name        string     `db:"name" json:"name"`
	Description *string    `db:"description" json:"description,omitempty"`
	PriceCents  int64      `db:"price_cents" json:"priceCents"`
	StockQty    int        `db:"stock_qty" json:"stockQty"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
}

// ProductStore exposes org-scoped persistence helpers for products. SKU
// uniqueness is per organization (products_sku_per_org), not global.
type ProductStore struct {
	pool *pgxpool.Pool
}

// NewProductStore returns a store instance.
func NewProductStore(pool *pgxpool.Pool) (*ProductStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &ProductStore{pool: pool}, nil
}

const productColumns = "product_id, organization_id, category_id, sku, name, description, price_cents, stock_qty, created_at, updated_at"

// CreateProductParams captures the fields required to insert a product.
type CreateProductParams struct {
	ProductID   uuid.UUID
	CategoryID  *uuid.UUID
	SKU         string
	Name        string
	Description *string
	PriceCents  int64
	StockQty    int
}

// Create inserts a product stamped with the caller's organization.
func (s *ProductStore) Create(ctx context.Context, orgID uuid.UUID, params CreateProductParams) (Product, error) {
	if params.ProductID == uuid.Nil {
		return Product{}, errors.New("product id is required")
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (product_id, organization_id, category_id, sku, name, description, price_cents, stock_qty)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING %s
    `, ProductsTable, productColumns),
		params.ProductID, orgID, params.CategoryID,
		strings.TrimSpace(params.SKU), strings.TrimSpace(params.Name), params.Description,
		params.PriceCents, params.StockQty,
	)
	return scanProduct(row)
}

// ListProductsParams captures filters and pagination for List.
type ListProductsParams struct {
	Page       int
	PageSize   int
	CategoryID *uuid.UUID
	Search     *string
}

// ListProductsResult includes the rows and the total count for pagination metadata.
type ListProductsResult struct {
	Products   []Product
	TotalItems int
}

// List returns the organization's products matching the filters.
func (s *ProductStore) List(ctx context.Context, orgID uuid.UUID, params ListProductsParams) (ListProductsResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize <= 0 {
		params.PageSize = 20
	}
	if params.PageSize > 100 {
		params.PageSize = 100
	}

	whereParts := []string{"organization_id = $1"}
	args := []any{orgID}

	if params.CategoryID != nil {
		args = append(args, *params.CategoryID)
		whereParts = append(whereParts, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if params.Search != nil && strings.TrimSpace(*params.Search) != "" {
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(*params.Search))+"%")
		whereParts = append(whereParts, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(sku) LIKE $%d)", len(args), len(args)))
	}

	whereSQL := strings.Join(whereParts, " AND ")

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", ProductsTable, whereSQL)
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return ListProductsResult{}, fmt.Errorf("count products: %w", err)
	}

	result := ListProductsResult{Products: []Product{}, TotalItems: total}
	if total == 0 {
		return result, nil
	}

	args = append(args, params.PageSize, (params.Page-1)*params.PageSize)
	query := fmt.Sprintf(`
        SELECT %s FROM %s
        WHERE %s
        ORDER BY created_at DESC
        LIMIT $%d OFFSET $%d
    `, productColumns, ProductsTable, whereSQL, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return ListProductsResult{}, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		product, scanErr := scanProduct(rows)
		if scanErr != nil {
			return ListProductsResult{}, fmt.Errorf("scan product: %w", scanErr)
		}
		result.Products = append(result.Products, product)
	}
	if err = rows.Err(); err != nil {
		return ListProductsResult{}, fmt.Errorf("iterate products: %w", err)
	}

	return result, nil
}

// Get returns a single product owned by the organization.
func (s *ProductStore) Get(ctx context.Context, orgID, id uuid.UUID) (Product, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		"SELECT %s FROM %s WHERE organization_id = $1 AND product_id = $2", productColumns, ProductsTable), orgID, id)
	return scanProduct(row)
}

// SKUExists reports whether the SKU is taken inside this organization.
func (s *ProductStore) SKUExists(ctx context.Context, orgID uuid.UUID, sku string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, fmt.Sprintf(
		"SELECT EXISTS(SELECT 1 FROM %s WHERE organization_id = $1 AND sku = $2)", ProductsTable),
		orgID, strings.TrimSpace(sku)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check sku: %w", err)
	}
	return exists, nil
}

// UpdateProductParams represents editable fields. Stock is mutated only
// through stock adjustments and orders, never directly.
type UpdateProductParams struct {
	CategoryID  *uuid.UUID
	SKU         *string
	Name        *string
	Description *string
	PriceCents  *int64
}

// Update applies the provided fields to a product owned by the organization.
func (s *ProductStore) Update(ctx context.Context, orgID, id uuid.UUID, params UpdateProductParams) (Product, error) {
	setParts := []string{}
	args := []any{}

	if params.CategoryID != nil {
		args = append(args, *params.CategoryID)
		setParts = append(setParts, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if params.SKU != nil {
		args = append(args, strings.TrimSpace(*params.SKU))
		setParts = append(setParts, fmt.Sprintf("sku = $%d", len(args)))
	}
	if params.Name != nil {
		args = append(args, strings.TrimSpace(*params.Name))
		setParts = append(setParts, fmt.Sprintf("name = $%d", len(args)))
	}
	if params.Description != nil {
		args = append(args, params.Description)
		setParts = append(setParts, fmt.Sprintf("description = $%d", len(args)))
	}
	if params.PriceCents != nil {
		args = append(args, *params.PriceCents)
		setParts = append(setParts, fmt.Sprintf("price_cents = $%d", len(args)))
	}
	if len(setParts) == 0 {
		return Product{}, errors.New("no fields to update")
	}

	args = append(args, orgID, id)
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        UPDATE %s SET %s, updated_at = NOW()
        WHERE organization_id = $%d AND product_id = $%d
        RETURNING %s
    `, ProductsTable, strings.Join(setParts, ", "), len(args)-1, len(args), productColumns), args...)
	return scanProduct(row)
}

// Delete removes a product owned by the organization.
func (s *ProductStore) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(
		"DELETE FROM %s WHERE organization_id = $1 AND product_id = $2", ProductsTable), orgID, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var product Product
	if err := row.Scan(&product.ProductID, &product.OrgID, &product.CategoryID, &product.SKU, &product.Name, &product.Description, &product.PriceCents, &product.StockQty, &product.CreatedAt, &product.UpdatedAt); err != nil {
		return Product{}, mapError(err)
	}
	return product, nil
}
