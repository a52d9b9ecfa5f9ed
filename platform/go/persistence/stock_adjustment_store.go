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

const StockAdjustmentsTable = "stock_adjustments"

// StockAdjustment is one append-only entry in a product's stock history.
type StockAdjustment struct {
	AdjustmentID uuid.UUID  `db:"adjustment_id" json:"adjustmentId"`
	OrgID        uuid.UUID  `db:"organization_id" json:"organizationId"`
	ProductID    uuid.UUID  `db:"product_id" json:"productId"`
	Delta        int        `db:"delta" json:"delta"`
	Reason       string     `db:"reason" json:"reason"`
	ActorUserID  *uuid.UUID `db:"actor_user_id" json:"actorUserId,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
}

// StockAdjustmentStore applies manual stock deltas and reads the audit trail.
type StockAdjustmentStore struct {
	pool *pgxpool.Pool
}

// NewStockAdjustmentStore returns a store instance.
func NewStockAdjustmentStore(pool *pgxpool.Pool) (*StockAdjustmentStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &StockAdjustmentStore{pool: pool}, nil
}

const stockAdjustmentColumns = "adjustment_id, organization_id, product_id, delta, reason, actor_user_id, created_at"

// ApplyAdjustmentParams captures a manual stock correction.
type ApplyAdjustmentParams struct {
	AdjustmentID uuid.UUID
	ProductID    uuid.UUID
	Delta        int
	Reason       string
	ActorUserID  *uuid.UUID
}

// Apply mutates a product's stock and records the change in one
// transaction. The guarded UPDATE keeps the organization check and the
// stock_qty >= 0 constraint on the same statement, so a cross-tenant
// product surfaces as ErrNotFound and an over-deduction as
// ErrInsufficientStock with nothing written.
func (s *StockAdjustmentStore) Apply(ctx context.Context, orgID uuid.UUID, params ApplyAdjustmentParams) (StockAdjustment, error) {
	if params.AdjustmentID == uuid.Nil {
		return StockAdjustment{}, errors.New("adjustment id is required")
	}
	if params.Delta == 0 {
		return StockAdjustment{}, errors.New("delta must be non-zero")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return StockAdjustment{}, fmt.Errorf("begin adjustment tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, fmt.Sprintf(
		"UPDATE %s SET stock_qty = stock_qty + $1, updated_at = NOW() WHERE organization_id = $2 AND product_id = $3", ProductsTable),
		params.Delta, orgID, params.ProductID)
	if err != nil {
		return StockAdjustment{}, mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return StockAdjustment{}, ErrNotFound
	}

	row := tx.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (adjustment_id, organization_id, product_id, delta, reason, actor_user_id)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING %s
    `, StockAdjustmentsTable, stockAdjustmentColumns),
		params.AdjustmentID, orgID, params.ProductID, params.Delta, params.Reason, params.ActorUserID)
	adjustment, err := scanStockAdjustment(row)
	if err != nil {
		return StockAdjustment{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return StockAdjustment{}, fmt.Errorf("commit adjustment tx: %w", err)
	}
	return adjustment, nil
}

// ListForProduct returns a product's adjustment history, newest first.
// The product must belong to the organization.
func (s *StockAdjustmentStore) ListForProduct(ctx context.Context, orgID, productID uuid.UUID) ([]StockAdjustment, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, fmt.Sprintf(
		"SELECT EXISTS(SELECT 1 FROM %s WHERE organization_id = $1 AND product_id = $2)", ProductsTable),
		orgID, productID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check product: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		"SELECT %s FROM %s WHERE organization_id = $1 AND product_id = $2 ORDER BY created_at DESC", stockAdjustmentColumns, StockAdjustmentsTable),
		orgID, productID)
	if err != nil {
		return nil, fmt.Errorf("list adjustments: %w", err)
	}
	defer rows.Close()

	adjustments := []StockAdjustment{}
	for rows.Next() {
		adjustment, scanErr := scanStockAdjustment(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan adjustment: %w", scanErr)
		}
		adjustments = append(adjustments, adjustment)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate adjustments: %w", err)
	}

	return adjustments, nil
}

func scanStockAdjustment(row pgx.Row) (StockAdjustment, error) {
	var adjustment StockAdjustment
	if err := row.Scan(&adjustment.AdjustmentID, &adjustment.OrgID, &adjustment.ProductID, &adjustment.Delta, &adjustment.Reason, &adjustment.ActorUserID, &adjustment.CreatedAt); err != nil {
		return StockAdjustment{}, mapError(err)
	}
	return adjustment, nil
}
