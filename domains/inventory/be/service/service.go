package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/quartermaster-wms/quartermaster/domains/inventory/be/repo"
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
	ErrSKUConflict       = errors.New("sku already in use")
	ErrCategoryConflict  = errors.New("category name already in use")
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrProductInUse blocks deleting a product that appears on orders;
	// the order history keeps the row alive.
	ErrProductInUse = errors.New("product is referenced by orders")
)

// CreateProductInput is the payload for creating a product.
type CreateProductInput struct {
	CategoryID  *uuid.UUID
	SKU         string
	Name        string
	Description *string
	PriceCents  int64
	StockQty    int
}

// UpdateProductInput carries optional product edits. Stock is excluded:
// quantities change only through adjustments and orders.
type UpdateProductInput struct {
	CategoryID  *uuid.UUID
	SKU         *string
	Name        *string
	Description *string
	PriceCents  *int64
}

// ListProductsInput carries list filters.
type ListProductsInput struct {
	Page       int
	PageSize   int
	CategoryID *uuid.UUID
	Search     *string
}

// CategoryInput is the payload for creating or updating a category.
type CategoryInput struct {
	Name        string
	Description *string
}

// AdjustStockInput is a manual stock correction.
type AdjustStockInput struct {
	Delta       int
	Reason      string
	ActorUserID uuid.UUID
}

// Service defines the business operations for the inventory domain. The
// orgID on every call comes from the authenticated principal, never from the
// request payload.
type Service interface {
	CreateProduct(ctx context.Context, orgID uuid.UUID, input CreateProductInput) (persistence.Product, error)
	ListProducts(ctx context.Context, orgID uuid.UUID, input ListProductsInput) (persistence.ListProductsResult, error)
	GetProduct(ctx context.Context, orgID, id uuid.UUID) (persistence.Product, error)
	UpdateProduct(ctx context.Context, orgID, id uuid.UUID, input UpdateProductInput) (persistence.Product, error)
	DeleteProduct(ctx context.Context, orgID, id uuid.UUID) error

	CreateCategory(ctx context.Context, orgID uuid.UUID, input CategoryInput) (persistence.Category, error)
	ListCategories(ctx context.Context, orgID uuid.UUID) ([]persistence.Category, error)
	UpdateCategory(ctx context.Context, orgID, id uuid.UUID, input CategoryInput) (persistence.Category, error)
	DeleteCategory(ctx context.Context, orgID, id uuid.UUID) error

	AdjustStock(ctx context.Context, orgID, productID uuid.UUID, input AdjustStockInput) (persistence.StockAdjustment, error)
	ListAdjustments(ctx context.Context, orgID, productID uuid.UUID) ([]persistence.StockAdjustment, error)
}

type service struct {
	repo repo.Repository
}

// New constructs an inventory Service backed by the provided repository.
func New(r repo.Repository) Service {
	if r == nil {
		panic("inventory repository is required")
	}
	return &service{repo: r}
}

func (s *service) CreateProduct(ctx context.Context, orgID uuid.UUID, input CreateProductInput) (persistence.Product, error) {
	fieldErrors := FieldErrors{}

	sku := strings.TrimSpace(input.SKU)
	if sku == "" {
		fieldErrors.add("sku", "sku is required")
	} else if len(sku) > 64 {
		fieldErrors.add("sku", "sku must be at most 64 characters")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		fieldErrors.add("name", "name is required")
	}

	if input.PriceCents < 0 {
		fieldErrors.add("priceCents", "priceCents must not be negative")
	}
	if input.StockQty < 0 {
		fieldErrors.add("stockQty", "stockQty must not be negative")
	}

	if len(fieldErrors) > 0 {
		return persistence.Product{}, &ValidationError{Fields: fieldErrors}
	}

	if input.CategoryID != nil {
		if _, err := s.repo.GetCategory(ctx, orgID, *input.CategoryID); err != nil {
			return persistence.Product{}, mapPersistenceError(err)
		}
	}

	product, err := s.repo.CreateProduct(ctx, orgID, persistence.CreateProductParams{
		ProductID:   uuid.New(),
		CategoryID:  input.CategoryID,
		SKU:         sku,
		Name:        name,
		Description: input.Description,
		PriceCents:  input.PriceCents,
		StockQty:    input.StockQty,
	})
	if err != nil {
		return persistence.Product{}, mapPersistenceError(err)
	}
	return product, nil
}

func (s *service) ListProducts(ctx context.Context, orgID uuid.UUID, input ListProductsInput) (persistence.ListProductsResult, error) {
	result, err := s.repo.ListProducts(ctx, orgID, persistence.ListProductsParams{
		Page:       input.Page,
		PageSize:   input.PageSize,
		CategoryID: input.CategoryID,
		Search:     input.Search,
	})
	if err != nil {
		return persistence.ListProductsResult{}, err
	}
	return result, nil
}

func (s *service) GetProduct(ctx context.Context, orgID, id uuid.UUID) (persistence.Product, error) {
	if id == uuid.Nil {
		return persistence.Product{}, ErrNotFound
	}

	product, err := s.repo.GetProduct(ctx, orgID, id)
	if err != nil {
		return persistence.Product{}, mapPersistenceError(err)
	}
	return product, nil
}

func (s *service) UpdateProduct(ctx context.Context, orgID, id uuid.UUID, input UpdateProductInput) (persistence.Product, error) {
	if id == uuid.Nil {
		return persistence.Product{}, ErrNotFound
	}

	fieldErrors := FieldErrors{}
	params := persistence.UpdateProductParams{}
	fieldsSet := 0

	if input.SKU != nil {
		sku := strings.TrimSpace(*input.SKU)
		if sku == "" {
			fieldErrors.add("sku", "sku cannot be empty")
		} else {
			params.SKU = &sku
			fieldsSet++
		}
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			fieldErrors.add("name", "name cannot be empty")
		} else {
			params.Name = &name
			fieldsSet++
		}
	}
	if input.Description != nil {
		params.Description = input.Description
		fieldsSet++
	}
	if input.PriceCents != nil {
		if *input.PriceCents < 0 {
			fieldErrors.add("priceCents", "priceCents must not be negative")
		} else {
			params.PriceCents = input.PriceCents
			fieldsSet++
		}
	}
	if input.CategoryID != nil {
		params.CategoryID = input.CategoryID
		fieldsSet++
	}

	if fieldsSet == 0 && len(fieldErrors) == 0 {
		fieldErrors.add("payload", "at least one field must be provided")
	}
	if len(fieldErrors) > 0 {
		return persistence.Product{}, &ValidationError{Fields: fieldErrors}
	}

	if input.CategoryID != nil {
		if _, err := s.repo.GetCategory(ctx, orgID, *input.CategoryID); err != nil {
			return persistence.Product{}, mapPersistenceError(err)
		}
	}

	product, err := s.repo.UpdateProduct(ctx, orgID, id, params)
	if err != nil {
		return persistence.Product{}, mapPersistenceError(err)
	}
	return product, nil
}

func (s *service) DeleteProduct(ctx context.Context, orgID, id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrNotFound
	}

	if err := s.repo.DeleteProduct(ctx, orgID, id); err != nil {
		return mapPersistenceError(err)
	}
	return nil
}

func (s *service) CreateCategory(ctx context.Context, orgID uuid.UUID, input CategoryInput) (persistence.Category, error) {
	name, err := validateCategoryName(input.Name)
	if err != nil {
		return persistence.Category{}, err
	}

	category, err := s.repo.CreateCategory(ctx, orgID, persistence.CreateCategoryParams{
		CategoryID:  uuid.New(),
		Name:        name,
		Description: input.Description,
	})
	if err != nil {
		return persistence.Category{}, mapPersistenceError(err)
	}
	return category, nil
}

func (s *service) ListCategories(ctx context.Context, orgID uuid.UUID) ([]persistence.Category, error) {
	return s.repo.ListCategories(ctx, orgID)
}

func (s *service) UpdateCategory(ctx context.Context, orgID, id uuid.UUID, input CategoryInput) (persistence.Category, error) {
	if id == uuid.Nil {
		return persistence.Category{}, ErrNotFound
	}

	name, err := validateCategoryName(input.Name)
	if err != nil {
		return persistence.Category{}, err
	}

	category, err := s.repo.UpdateCategory(ctx, orgID, id, persistence.UpdateCategoryParams{
		Name:        &name,
		Description: input.Description,
	})
	if err != nil {
		return persistence.Category{}, mapPersistenceError(err)
	}
	return category, nil
}

func (s *service) DeleteCategory(ctx context.Context, orgID, id uuid.UUID) error {
	if id == uuid.Nil {
		return ErrNotFound
	}

	if err := s.repo.DeleteCategory(ctx, orgID, id); err != nil {
		return mapPersistenceError(err)
	}
	return nil
}

func (s *service) AdjustStock(ctx context.Context, orgID, productID uuid.UUID, input AdjustStockInput) (persistence.StockAdjustment, error) {
	if productID == uuid.Nil {
		return persistence.StockAdjustment{}, ErrNotFound
	}

	fieldErrors := FieldErrors{}
	if input.Delta == 0 {
		fieldErrors.add("delta", "delta must be non-zero")
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		fieldErrors.add("reason", "reason is required")
	}
	if len(fieldErrors) > 0 {
		return persistence.StockAdjustment{}, &ValidationError{Fields: fieldErrors}
	}

	var actor *uuid.UUID
	if input.ActorUserID != uuid.Nil {
		actor = &input.ActorUserID
	}

	adjustment, err := s.repo.ApplyAdjustment(ctx, orgID, persistence.ApplyAdjustmentParams{
		AdjustmentID: uuid.New(),
		ProductID:    productID,
		Delta:        input.Delta,
		Reason:       reason,
		ActorUserID:  actor,
	})
	if err != nil {
		return persistence.StockAdjustment{}, mapPersistenceError(err)
	}
	return adjustment, nil
}

func (s *service) ListAdjustments(ctx context.Context, orgID, productID uuid.UUID) ([]persistence.StockAdjustment, error) {
	if productID == uuid.Nil {
		return nil, ErrNotFound
	}

	adjustments, err := s.repo.ListAdjustments(ctx, orgID, productID)
	if err != nil {
		return nil, mapPersistenceError(err)
	}
	return adjustments, nil
}

func validateCategoryName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", &ValidationError{Fields: FieldErrors{"name": {"name is required"}}}
	}
	if len(name) > 100 {
		return "", &ValidationError{Fields: FieldErrors{"name": {"name must be at most 100 characters"}}}
	}
	return name, nil
}

func mapPersistenceError(err error) error {
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrSKUConflict):
		return ErrSKUConflict
	case errors.Is(err, persistence.ErrCategoryConflict):
		return ErrCategoryConflict
	case errors.Is(err, persistence.ErrInsufficientStock):
		return ErrInsufficientStock
	case errors.Is(err, persistence.ErrRowReferenced):
		return ErrProductInUse
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
