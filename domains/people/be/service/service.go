package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/quartermaster-wms/quartermaster/domains/people/be/repo"
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

// ErrNotFound is returned when the person does not exist in the caller's
// organization.
var ErrNotFound = errors.New("record not found")

const maxNameLength = 200

// CreateInput is the payload for registering a person.
type CreateInput struct {
	Kind     string
	FullName string
	Email    *string
	Phone    *string
	Address  *string
	Notes    *string
}

// UpdateInput carries the fields a caller may change. Kind is immutable,
// customers do not become suppliers.
type UpdateInput struct {
	FullName *string
	Email    *string
	Phone    *string
	Address  *string
	Notes    *string
}

// ListInput carries list filters.
type ListInput struct {
	Kind *string
}

// Service defines the business operations for the people domain.
type Service interface {
	Create(ctx context.Context, orgID uuid.UUID, input CreateInput) (persistence.Person, error)
	List(ctx context.Context, orgID uuid.UUID, input ListInput) ([]persistence.Person, error)
	Get(ctx context.Context, orgID, id uuid.UUID) (persistence.Person, error)
	Update(ctx context.Context, orgID, id uuid.UUID, input UpdateInput) (persistence.Person, error)
	Delete(ctx context.Context, orgID, id uuid.UUID) error
}

type service struct {
	repo repo.Repository
}

// New constructs a people Service backed by the provided repository.
func New(r repo.Repository) Service {
	if r == nil {
		panic("people repository is required")
	}
	return &service{repo: r}
}

func (s *service) Create(ctx context.Context, orgID uuid.UUID, input CreateInput) (persistence.Person, error) {
	fieldErrors := FieldErrors{}

	kind := strings.TrimSpace(strings.ToLower(input.Kind))
	if !persistence.ValidPersonKind(kind) {
		fieldErrors.add("kind", fmt.Sprintf("unknown kind %q", input.Kind))
	}

	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		fieldErrors.add("fullName", "full name is required")
	} else if len(fullName) > maxNameLength {
		fieldErrors.add("fullName", fmt.Sprintf("full name must be at most %d characters", maxNameLength))
	}

	email := normalizeEmail(input.Email, fieldErrors)

	if len(fieldErrors) > 0 {
		return persistence.Person{}, &ValidationError{Fields: fieldErrors}
	}

	person, err := s.repo.Create(ctx, orgID, persistence.CreatePersonParams{
		PersonID: uuid.New(),
		Kind:     kind,
		FullName: fullName,
		Email:    email,
		Phone:    trimOptional(input.Phone),
		Address:  trimOptional(input.Address),
		Notes:    trimOptional(input.Notes),
	})
	if err != nil {
		return persistence.Person{}, mapPersistenceError(err)
	}
	return person, nil
}

func (s *service) List(ctx context.Context, orgID uuid.UUID, input ListInput) ([]persistence.Person, error) {
	if input.Kind != nil {
		kind := strings.TrimSpace(strings.ToLower(*input.Kind))
		if !persistence.ValidPersonKind(kind) {
			return nil, &ValidationError{
				Fields: FieldErrors{"kind": {fmt.Sprintf("unknown kind %q", *input.Kind)}},
			}
		}
		input.Kind = &kind
	}

	return s.repo.List(ctx, orgID, input.Kind)
}

func (s *service) Get(ctx context.Context, orgID, id uuid.UUID) (persistence.Person, error) {
	if id == uuid.Nil {
		return persistence.Person{}, ErrNotFound
	}

	person, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return persistence.Person{}, mapPersistenceError(err)
	}
	return person, nil
}

func (s *service) Update(ctx context.Context, orgID, id uuid.UUID, input UpdateInput) (persistence.Person, error) {
	if id == uuid.Nil {
		return persistence.Person{}, ErrNotFound
	}

	fieldErrors := FieldErrors{}

	params := persistence.UpdatePersonParams{
		Phone:   trimOptional(input.Phone),
		Address: trimOptional(input.Address),
		Notes:   trimOptional(input.Notes),
	}
	if input.FullName != nil {
		fullName := strings.TrimSpace(*input.FullName)
		if fullName == "" {
			fieldErrors.add("fullName", "full name cannot be empty")
		} else if len(fullName) > maxNameLength {
			fieldErrors.add("fullName", fmt.Sprintf("full name must be at most %d characters", maxNameLength))
		}
		params.FullName = &fullName
	}
	params.Email = normalizeEmail(input.Email, fieldErrors)

	if len(fieldErrors) > 0 {
		return persistence.Person{}, &ValidationError{Fields: fieldErrors}
	}
	if params == (persistence.UpdatePersonParams{}) {
		return persistence.Person{}, &ValidationError{
			Fields: FieldErrors{"payload": {"at least one field must be provided"}},
		}
	}

	person, err := s.repo.Update(ctx, orgID, id, params)
	if err != nil {
		return persistence.Person{}, mapPersistenceError(err)
	}
	return person, nil
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

// normalizeEmail trims and lowercases the address, recording a field error
// when it does not parse. An empty string clears nothing and returns nil.
func normalizeEmail(email *string, fieldErrors FieldErrors) *string {
	if email == nil {
		return nil
	}
	value := strings.TrimSpace(strings.ToLower(*email))
	if value == "" {
		return nil
	}
	if _, err := mail.ParseAddress(value); err != nil {
		fieldErrors.add("email", "email address is not valid")
		return nil
	}
	return &value
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func mapPersistenceError(err error) error {
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (f FieldErrors) add(field, message string) {
	if f == nil {
		return
	}
	f[field] = append(f[field], message)
}
