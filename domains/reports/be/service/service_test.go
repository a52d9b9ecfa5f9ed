package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/quartermaster-wms/quartermaster/platform/go/persistence"
)

type mockRepository struct {
	createFn           func(ctx context.Context, orgID uuid.UUID, params persistence.CreateReportParams) (persistence.Report, error)
	setResultFn        func(ctx context.Context, orgID, id uuid.UUID, result json.RawMessage) (persistence.Report, error)
	listFn             func(ctx context.Context, orgID uuid.UUID) ([]persistence.Report, error)
	getFn              func(ctx context.Context, orgID, id uuid.UUID) (persistence.Report, error)
	deleteFn           func(ctx context.Context, orgID, id uuid.UUID) error
	inventorySummaryFn func(ctx context.Context, orgID uuid.UUID) (persistence.InventorySummary, error)
	ordersSummaryFn    func(ctx context.Context, orgID uuid.UUID, from, to time.Time) (persistence.OrdersSummary, error)
}

func (m *mockRepository) Create(ctx context.Context, orgID uuid.UUID, params persistence.CreateReportParams) (persistence.Report, error) {
	if m.createFn == nil {
		panic("createFn not configured")
	}
	return m.createFn(ctx, orgID, params)
}

func (m *mockRepository) SetResult(ctx context.Context, orgID, id uuid.UUID, result json.RawMessage) (persistence.Report, error) {
	if m.setResultFn == nil {
		panic("setResultFn not configured")
	}
	return m.setResultFn(ctx, orgID, id, result)
}

func (m *mockRepository) List(ctx context.Context, orgID uuid.UUID) ([]persistence.Report, error) {
	if m.listFn == nil {
		panic("listFn not configured")
	}
	return m.listFn(ctx, orgID)
}

func (m *mockRepository) Get(ctx context.Context, orgID, id uuid.UUID) (persistence.Report, error) {
	if m.getFn == nil {
		panic("getFn not configured")
	}
	return m.getFn(ctx, orgID, id)
}

func (m *mockRepository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	if m.deleteFn == nil {
		panic("deleteFn not configured")
	}
	return m.deleteFn(ctx, orgID, id)
}

func (m *mockRepository) ComputeInventorySummary(ctx context.Context, orgID uuid.UUID) (persistence.InventorySummary, error) {
	if m.inventorySummaryFn == nil {
		panic("inventorySummaryFn not configured")
	}
	return m.inventorySummaryFn(ctx, orgID)
}

func (m *mockRepository) ComputeOrdersSummary(ctx context.Context, orgID uuid.UUID, from, to time.Time) (persistence.OrdersSummary, error) {
	if m.ordersSummaryFn == nil {
		panic("ordersSummaryFn not configured")
	}
	return m.ordersSummaryFn(ctx, orgID, from, to)
}

func TestCreateRejectsUnknownKind(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})

	_, err := svc.Create(context.Background(), uuid.New(), CreateInput{Kind: "profit-forecast"})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "kind")
}

func TestCreateInventorySummary(t *testing.T) {
	t.Parallel()

	orgID := uuid.New()
	summary := persistence.InventorySummary{
		TotalProducts:   12,
		TotalStockUnits: 340,
		StockValueCents: 125000,
		OutOfStockCount: 2,
	}

	mock := &mockRepository{
		createFn: func(_ context.Context, gotOrg uuid.UUID, params persistence.CreateReportParams) (persistence.Report, error) {
			require.Equal(t, orgID, gotOrg)
			require.Equal(t, persistence.ReportKindInventorySummary, params.Kind)
			return persistence.Report{ReportID: params.ReportID, Kind: params.Kind, Status: persistence.ReportStatusPending}, nil
		},
		inventorySummaryFn: func(_ context.Context, gotOrg uuid.UUID) (persistence.InventorySummary, error) {
			require.Equal(t, orgID, gotOrg)
			return summary, nil
		},
		setResultFn: func(_ context.Context, _ uuid.UUID, id uuid.UUID, result json.RawMessage) (persistence.Report, error) {
			var decoded persistence.InventorySummary
			require.NoError(t, json.Unmarshal(result, &decoded))
			require.Equal(t, summary, decoded)
			return persistence.Report{ReportID: id, Status: persistence.ReportStatusCompleted, Result: result}, nil
		},
	}
	svc := New(mock)

	report, err := svc.Create(context.Background(), orgID, CreateInput{Kind: "Inventory-Summary"})
	require.NoError(t, err)
	require.Equal(t, persistence.ReportStatusCompleted, report.Status)
}

func TestCreateOrdersSummaryDefaultsWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

	mock := &mockRepository{
		createFn: func(_ context.Context, _ uuid.UUID, params persistence.CreateReportParams) (persistence.Report, error) {
			var decoded ordersSummaryParams
			require.NoError(t, json.Unmarshal(params.Params, &decoded))
			require.Equal(t, now, decoded.To)
			require.Equal(t, now.Add(-defaultWindow), decoded.From)
			return persistence.Report{ReportID: params.ReportID, Kind: params.Kind}, nil
		},
		ordersSummaryFn: func(_ context.Context, _ uuid.UUID, from, to time.Time) (persistence.OrdersSummary, error) {
			require.Equal(t, now, to)
			require.Equal(t, now.Add(-defaultWindow), from)
			return persistence.OrdersSummary{TotalOrders: 5, PaidOrders: 3, RevenueCents: 9900}, nil
		},
		setResultFn: func(_ context.Context, _ uuid.UUID, id uuid.UUID, result json.RawMessage) (persistence.Report, error) {
			return persistence.Report{ReportID: id, Status: persistence.ReportStatusCompleted, Result: result}, nil
		},
	}
	svc := New(mock).(*service)
	svc.now = func() time.Time { return now }

	report, err := svc.Create(context.Background(), uuid.New(), CreateInput{Kind: persistence.ReportKindOrdersSummary})
	require.NoError(t, err)

	var decoded persistence.OrdersSummary
	require.NoError(t, json.Unmarshal(report.Result, &decoded))
	require.Equal(t, int64(9900), decoded.RevenueCents)
}

func TestCreateOrdersSummaryRejectsInvertedRange(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})
	from := time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)

	_, err := svc.Create(context.Background(), uuid.New(), CreateInput{
		Kind: persistence.ReportKindOrdersSummary,
		From: &from,
		To:   &to,
	})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "from")
}

func TestRunRecomputesWithStoredWindow(t *testing.T) {
	t.Parallel()

	reportID := uuid.New()
	from := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	params, err := json.Marshal(ordersSummaryParams{From: from, To: to})
	require.NoError(t, err)

	mock := &mockRepository{
		getFn: func(_ context.Context, _ uuid.UUID, id uuid.UUID) (persistence.Report, error) {
			require.Equal(t, reportID, id)
			return persistence.Report{
				ReportID: reportID,
				Kind:     persistence.ReportKindOrdersSummary,
				Status:   persistence.ReportStatusCompleted,
				Params:   params,
			}, nil
		},
		ordersSummaryFn: func(_ context.Context, _ uuid.UUID, gotFrom, gotTo time.Time) (persistence.OrdersSummary, error) {
			require.Equal(t, from, gotFrom)
			require.Equal(t, to, gotTo)
			return persistence.OrdersSummary{TotalOrders: 8}, nil
		},
		setResultFn: func(_ context.Context, _ uuid.UUID, id uuid.UUID, result json.RawMessage) (persistence.Report, error) {
			return persistence.Report{ReportID: id, Status: persistence.ReportStatusCompleted, Result: result}, nil
		},
	}
	svc := New(mock)

	report, err := svc.Run(context.Background(), uuid.New(), reportID)
	require.NoError(t, err)

	var decoded persistence.OrdersSummary
	require.NoError(t, json.Unmarshal(report.Result, &decoded))
	require.Equal(t, 8, decoded.TotalOrders)
}

func TestRunCrossTenant(t *testing.T) {
	t.Parallel()

	mock := &mockRepository{
		getFn: func(context.Context, uuid.UUID, uuid.UUID) (persistence.Report, error) {
			return persistence.Report{}, persistence.ErrNotFound
		},
	}
	svc := New(mock)

	_, err := svc.Run(context.Background(), uuid.New(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetCrossTenant(t *testing.T) {
	t.Parallel()

	mock := &mockRepository{
		getFn: func(context.Context, uuid.UUID, uuid.UUID) (persistence.Report, error) {
			return persistence.Report{}, persistence.ErrNotFound
		},
	}
	svc := New(mock)

	_, err := svc.Get(context.Background(), uuid.New(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCrossTenant(t *testing.T) {
	t.Parallel()

	mock := &mockRepository{
		deleteFn: func(context.Context, uuid.UUID, uuid.UUID) error {
			return persistence.ErrNotFound
		},
	}
	svc := New(mock)

	err := svc.Delete(context.Background(), uuid.New(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}
