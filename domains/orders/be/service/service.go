package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/quartermaster-wms/quartermaster/domains/orders/be/repo"
	"github.com/quartermaster-wms/quartermaster/platform/go/persistence"
)

// FieldErrors maps request fields to validation issues.
type FieldErrors map[string][]string

// ValidationError is returned when the input payload is invalid.
type ValidationError struct {
	Fields FieldErrors
}

func (v *ValidationError) Error() string {
	return "validation error"
}

// Domain sentinel errors.
var (
	ErrNotFound          = errors.New("record not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// allowedTransitions encodes the order lifecycle. Shipped and cancelled are
// terminal.
var allowedTransitions = map[string][]string{
	persistence.OrderStatusPending: {persistence.OrderStatusPaid, persistence.OrderStatusCancelled},
	persistence.OrderStatusPaid:    {persistence.OrderStatusShipped, persistence.OrderStatusCancelled},
}

// ItemInput is one requested line item.
type ItemInput struct {
	ProductID uuid.UUID
	Qty       int
}

// CreateInput is the payload for placing an order.
type CreateInput struct {
	PersonID    *uuid.UUID
	ActorUserID uuid.UUID
	Items       []ItemInput
}

// ListInput carries list filters.
type ListInput struct {
	Page     int
	PageSize int
	Status   *string
	PersonID *uuid.UUID
}

// Service defines the business operations for the orders domain.
type Service interface {
	Create(ctx context.Context, orgID uuid.UUID, input CreateInput) (persistence.Order, error)
	List(ctx context.Context, orgID uuid.UUID, input ListInput) (persistence.ListOrdersResult, error)
	Get(ctx context.Context, orgID, id uuid.UUID) (persistence.Order, error)
	UpdateStatus(ctx context.Context, orgID, id uuid.UUID, status string, actorUserID uuid.UUID) (persistence.Order, error)
	Delete(ctx context.Context, orgID, id uuid.UUID) error
}

type service struct {
	repo repo.Repository
}

// New constructs an orders Service backed by the provided repository.
func New(r repo.Repository) Service {
	if r == nil {
		panic("orders repository is required")
	}
	return &service{repo: r}
}

func (s *service) Create(ctx context.Context, orgID uuid.UUID, input CreateInput) (persistence.Order, error) {
	fieldErrors := FieldErrors{}

	if len(input.Items) == 0 {
		fieldErrors.add("items", "at least one item is required")
	}
	seen := map[uuid.UUID]bool{}
	for i, item := range input.Items {
		if item.ProductID == uuid.Nil {
			fieldErrors.add("items", fmt.Sprintf("items[%d].productId is required", i))
		}
		if item.Qty < 1 {
			fieldErrors.add("items", fmt.Sprintf("items[%d].qty must be at least 1", i))
		}
		if seen[item.ProductID] {
			fieldErrors.add("items", fmt.Sprintf("items[%d] duplicates a product", i))
		}
		seen[item.ProductID] = true
	}

	if len(fieldErrors) > 0 {
		return persistence.Order{}, &ValidationError{Fields: fieldErrors}
	}

	items := make([]persistence.CreateOrderItemParams, 0, len(input.Items))
	for _, item := range input.Items {
		items = append(items, persistence.CreateOrderItemParams{
			ProductID: item.ProductID,
			Qty:       item.Qty,
		})
	}

	var actor *uuid.UUID
	if input.ActorUserID != uuid.Nil {
		actor = &input.ActorUserID
	}

	order, err := s.repo.Create(ctx, orgID, persistence.CreateOrderParams{
		OrderID:     uuid.New(),
		PersonID:    input.PersonID,
		ActorUserID: actor,
		Items:       items,
	})
	if err != nil {
		return persistence.Order{}, mapPersistenceError(err)
	}
	return order, nil
}

func (s *service) List(ctx context.Context, orgID uuid.UUID, input ListInput) (persistence.ListOrdersResult, error) {
	if input.Status != nil {
		status := strings.TrimSpace(*input.Status)
		if !persistence.ValidOrderStatus(status) {
			return persistence.ListOrdersResult{}, &ValidationError{
				Fields: FieldErrors{"status": {fmt.Sprintf("unknown status %q", status)}},
			}
		}
		input.Status = &status
	}

	return s.repo.List(ctx, orgID, persistence.ListOrdersParams{
		Page:     input.Page,
		PageSize: input.PageSize,
		Status:   input.Status,
		PersonID: input.PersonID,
	})
}

func (s *service) Get(ctx context.Context, orgID, id uuid.UUID) (persistence.Order, error) {
	if id == uuid.Nil {
		return persistence.Order{}, ErrNotFound
	}

	order, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return persistence.Order{}, mapPersistenceError(err)
	}
	return order, nil
}

func (s *service) UpdateStatus(ctx context.Context, orgID, id uuid.UUID, status string, actorUserID uuid.UUID) (persistence.Order, error) {
	if id == uuid.Nil {
		return persistence.Order{}, ErrNotFound
	}

	status = strings.TrimSpace(status)
	if !persistence.ValidOrderStatus(status) {
		return persistence.Order{}, &ValidationError{
			Fields: FieldErrors{"status": {fmt.Sprintf("unknown status %q", status)}},
		}
	}

	current, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return persistence.Order{}, mapPersistenceError(err)
	}
	if !transitionAllowed(current.Status, status) {
		return persistence.Order{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current.Status, status)
	}

	var actor *uuid.UUID
	if actorUserID != uuid.Nil {
		actor = &actorUserID
	}

	order, err := s.repo.UpdateStatus(ctx, orgID, id, status, actor)
	if err != nil {
		return persistence.Order{}, mapPersistenceError(err)
	}
	return order, nil
}

func (s *service) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrNotFound
	}

	if err := s.repo.Delete(ctx, orgID, id); err != nil {
		return mapPersistenceError(err)
	}
	return nil
}

func transitionAllowed(from, to string) bool {
	if from == to {
		return true
	}
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

func mapPersistenceError(err error) error {
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrInsufficientStock):
		return ErrInsufficientStock
	default:
		return err
	}
}

func (f FieldErrors) add(field, message string) {
	if f == nil {
		return
	}
	f[field] = append(f[field], message)
}
