package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const ReportsTable = "reports"

// Report kinds accepted by the reports table's CHECK constraint.
const (
	ReportKindInventorySummary = "inventory-summary"
	ReportKindOrdersSummary    = "orders-summary"
)

// Report statuses.
const (
	ReportStatusPending   = "pending"
	ReportStatusCompleted = "completed"
)

// ValidReportKind reports whether kind is one of the accepted values.
func ValidReportKind(kind string) bool {
	return kind == ReportKindInventorySummary || kind == ReportKindOrdersSummary
}

// Report represents a row in the reports table. Params and Result are
// stored as JSONB and surfaced as raw JSON.
type Report struct {
	ReportID  uuid.UUID       `db:"report_id" json:"reportId"`
	OrgID     uuid.UUID       `db:"organization_id" json:"organizationId"`
	Kind      string          `db:"kind" json:"kind"`
	Status    string          `db:"status" json:"status"`
	Params    json.RawMessage `db:"params" json:"params"`
	Result    json.RawMessage `db:"result" json:"result,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time       `db:"updated_at" json:"updatedAt"`
}

// InventorySummary aggregates the organization's current stock position.
type InventorySummary struct {
	TotalProducts   int   `json:"totalProducts"`
	TotalStockUnits int64 `json:"totalStockUnits"`
	StockValueCents int64 `json:"stockValueCents"`
	OutOfStockCount int   `json:"outOfStockCount"`
}

// OrdersSummary aggregates order volume inside a time window.
type OrdersSummary struct {
	TotalOrders     int   `json:"totalOrders"`
	PendingOrders   int   `json:"pendingOrders"`
	PaidOrders      int   `json:"paidOrders"`
	ShippedOrders   int   `json:"shippedOrders"`
	CancelledOrders int   `json:"cancelledOrders"`
	RevenueCents    int64 `json:"revenueCents"`
}

// ReportStore persists report rows and runs the aggregate queries that
// fill them in.
type ReportStore struct {
	pool *pgxpool.Pool
}

// NewReportStore returns a store instance.
func NewReportStore(pool *pgxpool.Pool) (*ReportStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &ReportStore{pool: pool}, nil
}

const reportColumns = "report_id, organization_id, kind, status, params, result, created_at, updated_at"

// CreateReportParams captures the fields required to insert a pending report.
type CreateReportParams struct {
	ReportID uuid.UUID
	Kind     string
	Params   json.RawMessage
}

// Create inserts a pending report stamped with the caller's organization.
func (s *ReportStore) Create(ctx context.Context, orgID uuid.UUID, params CreateReportParams) (Report, error) {
	if params.ReportID == uuid.Nil {
		return Report{}, errors.New("report id is required")
	}
	if len(params.Params) == 0 {
		params.Params = json.RawMessage("{}")
	}

	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (report_id, organization_id, kind, status, params)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING %s
    `, ReportsTable, reportColumns),
		params.ReportID, orgID, params.Kind, ReportStatusPending, params.Params)
	return scanReport(row)
}

// SetResult stores a completed result payload on a report owned by the
// organization.
func (s *ReportStore) SetResult(ctx context.Context, orgID, id uuid.UUID, result json.RawMessage) (Report, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(`
        UPDATE %s SET status = $1, result = $2, updated_at = NOW()
        WHERE organization_id = $3 AND report_id = $4
        RETURNING %s
    `, ReportsTable, reportColumns),
		ReportStatusCompleted, result, orgID, id)
	return scanReport(row)
}

// List returns the organization's reports, newest first.
func (s *ReportStore) List(ctx context.Context, orgID uuid.UUID) ([]Report, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		"SELECT %s FROM %s WHERE organization_id = $1 ORDER BY created_at DESC", reportColumns, ReportsTable), orgID)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	reports := []Report{}
	for rows.Next() {
		report, scanErr := scanReport(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan report: %w", scanErr)
		}
		reports = append(reports, report)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}

	return reports, nil
}

// Get returns a single report owned by the organization.
func (s *ReportStore) Get(ctx context.Context, orgID, id uuid.UUID) (Report, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(
		"SELECT %s FROM %s WHERE organization_id = $1 AND report_id = $2", reportColumns, ReportsTable), orgID, id)
	return scanReport(row)
}

// Delete removes a report owned by the organization.
func (s *ReportStore) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, fmt.Sprintf(
		"DELETE FROM %s WHERE organization_id = $1 AND report_id = $2", ReportsTable), orgID, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ComputeInventorySummary aggregates current stock for the organization.
func (s *ReportStore) ComputeInventorySummary(ctx context.Context, orgID uuid.UUID) (InventorySummary, error) {
	var summary InventorySummary
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT COUNT(*),
               COALESCE(SUM(stock_qty), 0),
               COALESCE(SUM(stock_qty::BIGINT * price_cents), 0),
               COUNT(*) FILTER (WHERE stock_qty = 0)
        FROM %s WHERE organization_id = $1
    `, ProductsTable), orgID).Scan(
		&summary.TotalProducts, &summary.TotalStockUnits, &summary.StockValueCents, &summary.OutOfStockCount)
	if err != nil {
		return InventorySummary{}, fmt.Errorf("compute inventory summary: %w", err)
	}
	return summary, nil
}

// ComputeOrdersSummary aggregates orders for the organization inside
// [from, to). Revenue counts paid and shipped orders only.
func (s *ReportStore) ComputeOrdersSummary(ctx context.Context, orgID uuid.UUID, from, to time.Time) (OrdersSummary, error) {
	var summary OrdersSummary
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status = 'pending'),
               COUNT(*) FILTER (WHERE status = 'paid'),
               COUNT(*) FILTER (WHERE status = 'shipped'),
               COUNT(*) FILTER (WHERE status = 'cancelled'),
               COALESCE(SUM(total_cents) FILTER (WHERE status IN ('paid', 'shipped')), 0)
        FROM %s
        WHERE organization_id = $1 AND created_at >= $2 AND created_at < $3
    `, OrdersTable), orgID, from, to).Scan(
		&summary.TotalOrders, &summary.PendingOrders, &summary.PaidOrders,
		&summary.ShippedOrders, &summary.CancelledOrders, &summary.RevenueCents)
	if err != nil {
		return OrdersSummary{}, fmt.Errorf("compute orders summary: %w", err)
	}
	return summary, nil
}

func scanReport(row pgx.Row) (Report, error) {
	var report Report
	if err := row.Scan(&report.ReportID, &report.OrgID, &report.Kind, &report.Status, &report.Params, &report.Result, &report.CreatedAt, &report.UpdatedAt); err != nil {
		return Report{}, mapError(err)
	}
	return report, nil
}
