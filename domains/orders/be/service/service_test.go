package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/quartermaster-wms/quartermaster/platform/go/persistence"
)

type mockRepository struct {
	createFn       func(ctx context.Context, orgID uuid.UUID, params persistence.CreateOrderParams) (persistence.Order, error)
	listFn         func(ctx context.Context, orgID uuid.UUID, params persistence.ListOrdersParams) (persistence.ListOrdersResult, error)
	getFn          func(ctx context.Context, orgID, id uuid.UUID) (persistence.Order, error)
	updateStatusFn func(ctx context.Context, orgID, id uuid.UUID, status string, actorUserID *uuid.UUID) (persistence.Order, error)
	deleteFn       func(ctx context.Context, orgID, id uuid.UUID) error
}

func (m *mockRepository) Create(ctx context.Context, orgID uuid.UUID, params persistence.CreateOrderParams) (persistence.Order, error) {
	if m.createFn == nil {
		panic("createFn not configured")
	}
	return m.createFn(ctx, orgID, params)
}

func (m *mockRepository) List(ctx context.Context, orgID uuid.UUID, params persistence.ListOrdersParams) (persistence.ListOrdersResult, error) {
	if m.listFn == nil {
		panic("listFn not configured")
	}
	return m.listFn(ctx, orgID, params)
}

func (m *mockRepository) Get(ctx context.Context, orgID, id uuid.UUID) (persistence.Order, error) {
	if m.getFn == nil {
		panic("getFn not configured")
	}
	return m.getFn(ctx, orgID, id)
}

func (m *mockRepository) UpdateStatus(ctx context.Context, orgID, id uuid.UUID, status string, actorUserID *uuid.UUID) (persistence.Order, error) {
	if m.updateStatusFn == nil {
		panic("updateStatusFn not configured")
	}
	return m.updateStatusFn(ctx, orgID, id, status, actorUserID)
}

func (m *mockRepository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	if m.deleteFn == nil {
		panic("deleteFn not configured")
	}
	return m.deleteFn(ctx, orgID, id)
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})
	productID := uuid.New()

	cases := []struct {
		name  string
		input CreateInput
		field string
	}{
		{
			name:  "no items",
			input: CreateInput{},
			field: "items",
		},
		{
			name: "missing product id",
			input: CreateInput{Items: []ItemInput{
				{ProductID: uuid.Nil, Qty: 1},
			}},
			field: "items",
		},
		{
			name: "zero quantity",
			input: CreateInput{Items: []ItemInput{
				{ProductID: productID, Qty: 0},
			}},
			field: "items",
		},
		{
			name: "duplicate product",
			input: CreateInput{Items: []ItemInput{
				{ProductID: productID, Qty: 1},
				{ProductID: productID, Qty: 2},
			}},
			field: "items",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := svc.Create(context.Background(), uuid.New(), tc.input)

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			require.Contains(t, validationErr.Fields, tc.field)
		})
	}
}

func TestCreateCapturesActorAndScope(t *testing.T) {
	t.Parallel()

	orgID := uuid.New()
	actorID := uuid.New()
	productID := uuid.New()

	var captured persistence.CreateOrderParams
	mock := &mockRepository{
		createFn: func(_ context.Context, gotOrg uuid.UUID, params persistence.CreateOrderParams) (persistence.Order, error) {
			require.Equal(t, orgID, gotOrg)
			captured = params
			return persistence.Order{OrderID: params.OrderID, OrgID: gotOrg, Status: persistence.OrderStatusPending}, nil
		},
	}
	svc := New(mock)

	order, err := svc.Create(context.Background(), orgID, CreateInput{
		ActorUserID: actorID,
		Items:       []ItemInput{{ProductID: productID, Qty: 3}},
	})
	require.NoError(t, err)
	require.Equal(t, persistence.OrderStatusPending, order.Status)
	require.NotEqual(t, uuid.Nil, captured.OrderID)
	require.Len(t, captured.Items, 1)
	require.Equal(t, productID, captured.Items[0].ProductID)
	require.Equal(t, 3, captured.Items[0].Qty)
	require.NotNil(t, captured.ActorUserID)
	require.Equal(t, actorID, *captured.ActorUserID)
}

func TestCreateInsufficientStock(t *testing.T) {
	t.Parallel()

	mock := &mockRepository{
		createFn: func(context.Context, uuid.UUID, persistence.CreateOrderParams) (persistence.Order, error) {
			return persistence.Order{}, persistence.ErrInsufficientStock
		},
	}
	svc := New(mock)

	_, err := svc.Create(context.Background(), uuid.New(), CreateInput{
		Items: []ItemInput{{ProductID: uuid.New(), Qty: 100}},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)
}

func TestCreateUnknownProduct(t *testing.T) {
	t.Parallel()

	mock := &mockRepository{
		createFn: func(context.Context, uuid.UUID, persistence.CreateOrderParams) (persistence.Order, error) {
			return persistence.Order{}, persistence.ErrNotFound
		},
	}
	svc := New(mock)

	_, err := svc.Create(context.Background(), uuid.New(), CreateInput{
		Items: []ItemInput{{ProductID: uuid.New(), Qty: 1}},
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListRejectsUnknownStatus(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})
	status := "refunded"

	_, err := svc.List(context.Background(), uuid.New(), ListInput{Status: &status})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "status")
}

func TestGetCrossTenant(t *testing.T) {
	t.Parallel()

	mock := &mockRepository{
		getFn: func(context.Context, uuid.UUID, uuid.UUID) (persistence.Order, error) {
			return persistence.Order{}, persistence.ErrNotFound
		},
	}
	svc := New(mock)

	_, err := svc.Get(context.Background(), uuid.New(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatusTransitions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from    string
		to      string
		allowed bool
	}{
		{persistence.OrderStatusPending, persistence.OrderStatusPaid, true},
		{persistence.OrderStatusPending, persistence.OrderStatusCancelled, true},
		{persistence.OrderStatusPending, persistence.OrderStatusShipped, false},
		{persistence.OrderStatusPaid, persistence.OrderStatusShipped, true},
		{persistence.OrderStatusPaid, persistence.OrderStatusCancelled, true},
		{persistence.OrderStatusPaid, persistence.OrderStatusPending, false},
		{persistence.OrderStatusShipped, persistence.OrderStatusCancelled, false},
		{persistence.OrderStatusShipped, persistence.OrderStatusPending, false},
		{persistence.OrderStatusCancelled, persistence.OrderStatusPaid, false},
		{persistence.OrderStatusPaid, persistence.OrderStatusPaid, true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.from+" to "+tc.to, func(t *testing.T) {
			t.Parallel()

			orderID := uuid.New()
			mock := &mockRepository{
				getFn: func(context.Context, uuid.UUID, uuid.UUID) (persistence.Order, error) {
					return persistence.Order{OrderID: orderID, Status: tc.from}, nil
				},
				updateStatusFn: func(_ context.Context, _ uuid.UUID, _ uuid.UUID, status string, _ *uuid.UUID) (persistence.Order, error) {
					return persistence.Order{OrderID: orderID, Status: status}, nil
				},
			}
			svc := New(mock)

			order, err := svc.UpdateStatus(context.Background(), uuid.New(), orderID, tc.to, uuid.New())
			if tc.allowed {
				require.NoError(t, err)
				require.Equal(t, tc.to, order.Status)
			} else {
				require.ErrorIs(t, err, ErrInvalidTransition)
			}
		})
	}
}

func TestUpdateStatusUnknownValue(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), uuid.New(), "archived", uuid.Nil)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "status")
}

func TestUpdateStatusRecordsActor(t *testing.T) {
	t.Parallel()

	actorID := uuid.New()
	mock := &mockRepository{
		getFn: func(context.Context, uuid.UUID, uuid.UUID) (persistence.Order, error) {
			return persistence.Order{Status: persistence.OrderStatusPending}, nil
		},
		updateStatusFn: func(_ context.Context, _ uuid.UUID, _ uuid.UUID, status string, actor *uuid.UUID) (persistence.Order, error) {
			require.NotNil(t, actor)
			require.Equal(t, actorID, *actor)
			return persistence.Order{Status: status}, nil
		},
	}
	svc := New(mock)

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), uuid.New(), persistence.OrderStatusPaid, actorID)
	require.NoError(t, err)
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
