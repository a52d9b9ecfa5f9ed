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

const CategoriesTable = "categories"

// Category represents a row in the categories table.
type Category struct {
	CategoryID  uuid.UUID `db:"category_id" json:"categoryId"`
	OrgID       uuid.UUID `db:"organization_id" json:"organizationId"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// CategoryStore exposes org-scoped persistence helpers for categories. Every
// method requires the caller's organization id; there is no unscoped variant.
type CategoryStore struct {
	pool *pgxpool.Pool
}

// NewCategoryStore returns a store instance.
func NewCategoryStore(pool *pgxpool.Pool) (*CategoryStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &CategoryStore{pool: pool}, nil
}

const categoryColumns = "category_id, organization_id, name, description, created_at, updated_at"

// CreateCategoryParams captures the fields required to insert a category.
type CreateCategoryParams struct {
	CategoryID  uuid.UUID
	Name        string
	Description *string
}

// Create inserts a category stamped with the caller's organization.
func (s *CategoryStore) Create(ctx context.Context, orgID uuid.UUID, params CreateCategoryParams) (Category, error) {
	if params.CategoryID == uuid.Nil {
		return Category{}, errors.New("category id is required")
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (category_id, organization_id, name, description)
        VALUES ($1, $2, $3, $4)
        RETURNING %s
    `, CategoriesTable, categoryColumns),
		params.CategoryID, orgID, strings.TrimSpace(params.Name), params.Description,
	)
	return scanCategory(row)
}

// List returns the organization's categories ordered by name.
func (s *CategoryStore) List(ctx context.Context, orgID uuid.UUID) ([]Category, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		"SELECT %s FROM %s WHERE organization_id = $1 ORDER BY name", categoryColumns, CategoriesTable), orgID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]Category, 0)
	for rows.Next() {
		category, scanErr := scanCategory(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan category: %w", scanErr)
		}
		categories = append(categories, category)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

// Get returns a single category owned by the organization.
func (s *CategoryStore) Get(ctx context.Context, orgID, id uuid.UUID) (Category, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		"SELECT %s FROM %s WHERE organization_id = $1 AND category_id = $2", categoryColumns, CategoriesTable), orgID, id)
	return scanCategory(row)
}

// UpdateCategoryParams represents editable fields.
type UpdateCategoryParams struct {
	Name        *string
	Description *string
}

// Update applies the provided fields to a category owned by the organization.
func (s *CategoryStore) Update(ctx context.Context, orgID, id uuid.UUID, params UpdateCategoryParams) (Category, error) {
	setParts := []string{}
	args := []any{}

	if params.Name != nil {
		args = append(args, strings.TrimSpace(*params.Name))
		setParts = append(setParts, fmt.Sprintf("name = $%d", len(args)))
	}
	if params.Description != nil {
		args = append(args, params.Description)
		setParts = append(setParts, fmt.Sprintf("description = $%d", len(args)))
	}
	if len(setParts) == 0 {
		return Category{}, errors.New("no fields to update")
	}

	args = append(args, orgID, id)
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        UPDATE %s SET %s, updated_at = NOW()
        WHERE organization_id = $%d AND category_id = $%d
        RETURNING %s
    `, CategoriesTable, strings.Join(setParts, ", "), len(args)-1, len(args), categoryColumns), args...)
	return scanCategory(row)
}

// Delete removes a category owned by the organization.
func (s *CategoryStore) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(
		"DELETE FROM %s WHERE organization_id = $1 AND category_id = $2", CategoriesTable), orgID, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCategory(row pgx.Row) (Category, error) {
	var category Category
	if err := row.Scan(&category.CategoryID, &category.OrgID, &category.Name, &category.Description, &category.CreatedAt, &category.UpdatedAt); err != nil {
		return Category{}, mapError(err)
	}
	return category, nil
}
