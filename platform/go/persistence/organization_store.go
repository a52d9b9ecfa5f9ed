package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const OrganizationsTable = "organizations"

// Organization represents a row in the organizations table.
type Organization struct {
	OrgID        uuid.UUID `db:"organization_id" json:"organizationId"`
	Name         string    `db:"name" json:"name"`
	Slug         string    `db:"slug" json:"slug"`
	Plan         string    `db:"plan" json:"plan"`
	IsActive     bool      `db:"is_active" json:"isActive"`
	IsSuspended  bool      `db:"is_suspended" json:"isSuspended"`
	AccessKeyUsed *string  `db:"access_key_used" json:"accessKeyUsed,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// OrganizationSummary is an organization with nested entity counts, used by
// the admin listing.
type OrganizationSummary struct {
	Organization
	UserCount    int `json:"userCount"`
	ProductCount int `json:"productCount"`
	OrderCount   int `json:"orderCount"`
}

// OrganizationStore exposes persistence helpers for the organizations table.
// These are admin-path and signup-path operations; they are deliberately not
// org-scoped.
type OrganizationStore struct {
	pool *pgxpool.Pool
}

// NewOrganizationStore returns a store instance; assumes the schema is applied.
func NewOrganizationStore(pool *pgxpool.Pool) (*OrganizationStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &OrganizationStore{pool: pool}, nil
}

const organizationColumns = "organization_id, name, slug, plan, is_active, is_suspended, access_key_used, created_at"

// Get returns a single organization by identifier.
func (s *OrganizationStore) Get(ctx context.Context, id uuid.UUID) (Organization, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		"SELECT %s FROM %s WHERE organization_id = $1", organizationColumns, OrganizationsTable), id)
	return scanOrganization(row)
}

// GetBySlug returns a single organization by its slug.
func (s *OrganizationStore) GetBySlug(ctx context.Context, slug string) (Organization, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		"SELECT %s FROM %s WHERE slug = $1", organizationColumns, OrganizationsTable), slug)
	return scanOrganization(row)
}

// SlugExists reports whether a slug is already taken.
func (s *OrganizationStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, fmt.Sprintf(
		"SELECT EXISTS(SELECT 1 FROM %s WHERE slug = $1)", OrganizationsTable), slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return exists, nil
}

// ListWithCounts returns all organizations with nested user/product/order
// counts, newest first, with pagination metadata.
func (s *OrganizationStore) ListWithCounts(ctx context.Context, page, pageSize int) ([]OrganizationSummary, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	var total int
	if err := s.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", OrganizationsTable)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count organizations: %w", err)
	}

	query := fmt.Sprintf(`
        SELECT o.organization_id, o.name, o.slug, o.plan, o.is_active, o.is_suspended, o.access_key_used, o.created_at,
            (SELECT COUNT(*) FROM auth_users u WHERE u.organization_id = o.organization_id),
            (SELECT COUNT(*) FROM products p WHERE p.organization_id = o.organization_id),
            (SELECT COUNT(*) FROM orders ord WHERE ord.organization_id = o.organization_id)
        FROM %s o
        ORDER BY o.created_at DESC
        LIMIT $1 OFFSET $2
    `, OrganizationsTable)

	rows, err := s.pool.Query(ctx, query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	summaries := make([]OrganizationSummary, 0)
	for rows.Next() {
		var sum OrganizationSummary
		if err := rows.Scan(
			&sum.OrgID, &sum.Name, &sum.Slug, &sum.Plan, &sum.IsActive, &sum.IsSuspended,
			&sum.AccessKeyUsed, &sum.CreatedAt,
			&sum.UserCount, &sum.ProductCount, &sum.OrderCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan organization summary: %w", err)
		}
		summaries = append(summaries, sum)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate organizations: %w", err)
	}

	return summaries, total, nil
}

// ToggleSuspend flips the suspension flag and returns the updated record.
func (s *OrganizationStore) ToggleSuspend(ctx context.Context, id uuid.UUID) (Organization, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        UPDATE %s SET is_suspended = NOT is_suspended
        WHERE organization_id = $1
        RETURNING %s
    `, OrganizationsTable, organizationColumns), id)
	return scanOrganization(row)
}

// Delete removes the organization and, through FK cascades, every entity it
// owns. Irreversible.
func (s *OrganizationStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(
		"DELETE FROM %s WHERE organization_id = $1", OrganizationsTable), id)
	if err != nil {
		return fmt.Errorf("delete organization: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanOrganization(row pgx.Row) (Organization, error) {
	var org Organization
	if err := row.Scan(&org.OrgID, &org.Name, &org.Slug, &org.Plan, &org.IsActive, &org.IsSuspended, &org.AccessKeyUsed, &org.CreatedAt); err != nil {
		return Organization{}, mapError(err)
	}
	return org, nil
}
