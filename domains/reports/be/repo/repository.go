package repo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/quartermaster-wms/quartermaster/platform/go/persistence"
)

// Repository defines the persistence operations required by the reports
// service, all scoped to the caller's organization.
type Repository interface {
	Create(ctx context.Context, orgID uuid.UUID, params persistence.CreateReportParams) (persistence.Report, error)
	SetResult(ctx context.Context, orgID, id uuid.UUID, result json.RawMessage) (persistence.Report, error)
	List(ctx context.Context, orgID uuid.UUID) ([]persistence.Report, error)
	Get(ctx context.Context, orgID, id uuid.UUID) (persistence.Report, error)
	Delete(ctx context.Context, orgID, id uuid.UUID) error
	ComputeInventorySummary(ctx context.Context, orgID uuid.UUID) (persistence.InventorySummary, error)
	ComputeOrdersSummary(ctx context.Context, orgID uuid.UUID, from, to time.Time) (persistence.OrdersSummary, error)
}

type postgresRepository struct {
	reports *persistence.ReportStore
}

// NewPostgresRepository constructs a repository backed by the shared
// persistence layer.
func NewPostgresRepository(reports *persistence.ReportStore) Repository {
	if reports == nil {
		panic("report store is required")
	}
	return &postgresRepository{reports: reports}
}

func (r *postgresRepository) Create(ctx context.Context, orgID uuid.UUID, params persistence.CreateReportParams) (persistence.Report, error) {
	return r.reports.Create(ctx, orgID, params)
}

func (r *postgresRepository) SetResult(ctx context.Context, orgID, id uuid.UUID, result json.RawMessage) (persistence.Report, error) {
	return r.reports.SetResult(ctx, orgID, id, result)
}

func (r *postgresRepository) List(ctx context.Context, orgID uuid.UUID) ([]persistence.Report, error) {
	return r.reports.List(ctx, orgID)
}

func (r *postgresRepository) Get(ctx context.Context, orgID, id uuid.UUID) (persistence.Report, error) {
	return r.reports.Get(ctx, orgID, id)
}

func (r *postgresRepository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	return r.reports.Delete(ctx, orgID, id)
}

func (r *postgresRepository) ComputeInventorySummary(ctx context.Context, orgID uuid.UUID) (persistence.InventorySummary, error) {
	return r.reports.ComputeInventorySummary(ctx, orgID)
}

func (r *postgresRepository) ComputeOrdersSummary(ctx context.Context, orgID uuid.UUID, from, to time.Time) (persistence.OrdersSummary, error) {
	return r.reports.ComputeOrdersSummary(ctx, orgID, from, to)
}
