package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/quartermaster-wms/quartermaster/platform/go/persistence"
)

type mockRepository struct {
	createFn func(ctx context.Context, orgID uuid.UUID, params persistence.CreatePersonParams) (persistence.Person, error)
	listFn   func(ctx context.Context, orgID uuid.UUID, kind *string) ([]persistence.Person, error)
	getFn    func(ctx context.Context, orgID, id uuid.UUID) (persistence.Person, error)
	updateFn func(ctx context.Context, orgID, id uuid.UUID, params persistence.UpdatePersonParams) (persistence.Person, error)
	deleteFn func(ctx context.Context, orgID, id uuid.UUID) error
}

func (m *mockRepository) Create(ctx context.Context, orgID uuid.UUID, params persistence.CreatePersonParams) (persistence.Person, error) {
	if m.createFn == nil {
		panic("createFn not configured")
	}
	return m.createFn(ctx, orgID, params)
}

func (m *mockRepository) List(ctx context.Context, orgID uuid.UUID, kind *string) ([]persistence.Person, error) {
	if m.listFn == nil {
		panic("listFn not configured")
	}
	return m.listFn(ctx, orgID, kind)
}

func (m *mockRepository) Get(ctx context.Context, orgID, id uuid.UUID) (persistence.Person, error) {
	if m.getFn == nil {
		panic("getFn not configured")
	}
	return m.getFn(ctx, orgID, id)
}

func (m *mockRepository) Update(ctx context.Context, orgID, id uuid.UUID, params persistence.UpdatePersonParams) (persistence.Person, error) {
	if m.updateFn == nil {
		panic("updateFn not configured")
	}
	return m.updateFn(ctx, orgID, id, params)
}

func (m *mockRepository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	if m.deleteFn == nil {
		panic("deleteFn not configured")
	}
	return m.deleteFn(ctx, orgID, id)
}

func strPtr(s string) *string { return &s }

func TestCreateValidation(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})

	cases := []struct {
		name  string
		input CreateInput
		field string
	}{
		{
			name:  "unknown kind",
			input: CreateInput{Kind: "vendor", FullName: "Ada Lovelace"},
			field: "kind",
		},
		{
			name:  "missing name",
			input: CreateInput{Kind: persistence.PersonKindCustomer, FullName: "   "},
			field: "fullName",
		},
		{
			name: "bad email",
			input: CreateInput{
				Kind:     persistence.PersonKindCustomer,
				FullName: "Ada Lovelace",
				Email:    strPtr("not-an-address"),
			},
			field: "email",
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

func TestCreateNormalizesInput(t *testing.T) {
	t.Parallel()

	orgID := uuid.New()
	var captured persistence.CreatePersonParams
	mock := &mockRepository{
		createFn: func(_ context.Context, gotOrg uuid.UUID, params persistence.CreatePersonParams) (persistence.Person, error) {
			require.Equal(t, orgID, gotOrg)
			captured = params
			return persistence.Person{PersonID: params.PersonID, OrgID: gotOrg, Kind: params.Kind}, nil
		},
	}
	svc := New(mock)

	_, err := svc.Create(context.Background(), orgID, CreateInput{
		Kind:     "  Customer ",
		FullName: "  Ada Lovelace ",
		Email:    strPtr(" Ada@Example.COM "),
		Phone:    strPtr("  "),
	})
	require.NoError(t, err)
	require.Equal(t, persistence.PersonKindCustomer, captured.Kind)
	require.Equal(t, "Ada Lovelace", captured.FullName)
	require.NotNil(t, captured.Email)
	require.Equal(t, "ada@example.com", *captured.Email)
	require.Nil(t, captured.Phone)
	require.NotEqual(t, uuid.Nil, captured.PersonID)
}

func TestListRejectsUnknownKind(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})
	kind := "robot"

	_, err := svc.List(context.Background(), uuid.New(), ListInput{Kind: &kind})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "kind")
}

func TestListPassesKindFilter(t *testing.T) {
	t.Parallel()

	mock := &mockRepository{
		listFn: func(_ context.Context, _ uuid.UUID, kind *string) ([]persistence.Person, error) {
			require.NotNil(t, kind)
			require.Equal(t, persistence.PersonKindSupplier, *kind)
			return []persistence.Person{}, nil
		},
	}
	svc := New(mock)

	kind := "Supplier"
	_, err := svc.List(context.Background(), uuid.New(), ListInput{Kind: &kind})
	require.NoError(t, err)
}

func TestGetCrossTenant(t *testing.T) {
	t.Parallel()

	mock := &mockRepository{
		getFn: func(context.Context, uuid.UUID, uuid.UUID) (persistence.Person, error) {
			return persistence.Person{}, persistence.ErrNotFound
		},
	}
	svc := New(mock)

	_, err := svc.Get(context.Background(), uuid.New(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateRequiresFields(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})

	_, err := svc.Update(context.Background(), uuid.New(), uuid.New(), UpdateInput{})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "payload")
}

func TestUpdateRejectsEmptyName(t *testing.T) {
	t.Parallel()

	svc := New(&mockRepository{})

	_, err := svc.Update(context.Background(), uuid.New(), uuid.New(), UpdateInput{
		FullName: strPtr("   "),
	})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "fullName")
}

func TestUpdateAppliesFields(t *testing.T) {
	t.Parallel()

	mock := &mockRepository{
		updateFn: func(_ context.Context, _ uuid.UUID, _ uuid.UUID, params persistence.UpdatePersonParams) (persistence.Person, error) {
			require.NotNil(t, params.FullName)
			require.Equal(t, "Grace Hopper", *params.FullName)
			require.NotNil(t, params.Notes)
			require.Equal(t, "prefers email", *params.Notes)
			require.Nil(t, params.Email)
			return persistence.Person{FullName: *params.FullName}, nil
		},
	}
	svc := New(mock)

	person, err := svc.Update(context.Background(), uuid.New(), uuid.New(), UpdateInput{
		FullName: strPtr(" Grace Hopper "),
		Notes:    strPtr("prefers email"),
	})
	require.NoError(t, err)
	require.Equal(t, "Grace Hopper", person.FullName)
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
