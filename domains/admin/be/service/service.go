package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quartermaster-wms/quartermaster/domains/admin/be/repo"
	platformauth "github.com/quartermaster-wms/quartermaster/platform/go/auth"
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
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("record not found")
)

// LoginInput is the super-admin credential payload.
type LoginInput struct {
	Email    string
	Password string
}

// TokenResult is an issued admin bearer token.
type TokenResult struct {
	Token     string
	ExpiresAt time.Time
	Admin     persistence.SuperAdmin
}

// OrganizationPage is one page of the cross-tenant organization listing.
type OrganizationPage struct {
	Organizations []persistence.OrganizationSummary
	Page          int
	PageSize      int
	TotalItems    int
	TotalPages    int
}

// CreateAccessKeyInput mints a new signup key.
type CreateAccessKeyInput struct {
	MaxUses   *int
	ExpiresAt *time.Time
	Notes     *string
}

// ResetPasswordInput replaces a tenant user's password.
type ResetPasswordInput struct {
	Password string
}

// Service defines the super-admin operations: platform login, organization
// oversight, access-key minting, and break-glass password resets.
type Service interface {
	Login(ctx context.Context, input LoginInput) (TokenResult, error)
	ListOrganizations(ctx context.Context, page, pageSize int) (OrganizationPage, error)
	ToggleSuspend(ctx context.Context, orgID uuid.UUID) (persistence.Organization, error)
	DeleteOrganization(ctx context.Context, orgID uuid.UUID) error
	ListOrgUsers(ctx context.Context, orgID uuid.UUID) ([]persistence.AuthUser, error)
	ListAccessKeys(ctx context.Context) ([]persistence.AccessKey, error)
	CreateAccessKey(ctx context.Context, admin platformauth.SuperAdmin, input CreateAccessKeyInput) (persistence.AccessKey, error)
	ResetUserPassword(ctx context.Context, userID uuid.UUID, input ResetPasswordInput) error
}

type service struct {
	repo   repo.Repository
	tokens *platformauth.AdminTokens
	now    func() time.Time
}

// New constructs an admin Service backed by the provided repository.
func New(r repo.Repository, tokens *platformauth.AdminTokens) Service {
	if r == nil {
		panic("admin repository is required")
	}
	if tokens == nil {
		panic("admin tokens are required")
	}
	return &service{repo: r, tokens: tokens, now: time.Now}
}

func (s *service) Login(ctx context.Context, input LoginInput) (TokenResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return TokenResult{}, ErrInvalidCredentials
	}

	admin, err := s.repo.GetAdminByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return TokenResult{}, ErrInvalidCredentials
		}
		return TokenResult{}, err
	}

	if !platformauth.ComparePassword(admin.PasswordHash, input.Password) {
		return TokenResult{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(platformauth.SuperAdmin{
		AdminID:  admin.AdminID,
		Email:    admin.Email,
		FullName: admin.FullName,
	})
	if err != nil {
		return TokenResult{}, fmt.Errorf("issue admin token: %w", err)
	}

	return TokenResult{
		Token:     token,
		ExpiresAt: s.now().Add(s.tokens.TTL()),
		Admin:     admin,
	}, nil
}

func (s *service) ListOrganizations(ctx context.Context, page, pageSize int) (OrganizationPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	orgs, total, err := s.repo.ListOrganizations(ctx, page, pageSize)
	if err != nil {
		return OrganizationPage{}, err
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}

	return OrganizationPage{
		Organizations: orgs,
		Page:          page,
		PageSize:      pageSize,
		TotalItems:    total,
		TotalPages:    totalPages,
	}, nil
}

func (s *service) ToggleSuspend(ctx context.Context, orgID uuid.UUID) (persistence.Organization, error) {
	if orgID == uuid.Nil {
		return persistence.Organization{}, ErrNotFound
	}

	org, err := s.repo.ToggleSuspend(ctx, orgID)
	if err != nil {
		return persistence.Organization{}, mapPersistenceError(err)
	}
	return org, nil
}

func (s *service) DeleteOrganization(ctx context.Context, orgID uuid.UUID) error {
	if orgID == uuid.Nil {
		return ErrNotFound
	}

	if err := s.repo.DeleteOrganization(ctx, orgID); err != nil {
		return mapPersistenceError(err)
	}
	return nil
}

func (s *service) ListOrgUsers(ctx context.Context, orgID uuid.UUID) ([]persistence.AuthUser, error) {
	if orgID == uuid.Nil {
		return nil, ErrNotFound
	}

	// Resolve the organization first so an unknown id is a 404, not an
	// empty list.
	if _, err := s.repo.GetOrganization(ctx, orgID); err != nil {
		return nil, mapPersistenceError(err)
	}

	return s.repo.ListOrgUsers(ctx, orgID)
}

func (s *service) ListAccessKeys(ctx context.Context) ([]persistence.AccessKey, error) {
	return s.repo.ListAccessKeys(ctx)
}

func (s *service) CreateAccessKey(ctx context.Context, admin platformauth.SuperAdmin, input CreateAccessKeyInput) (persistence.AccessKey, error) {
	fieldErrors := FieldErrors{}

	if input.MaxUses != nil && *input.MaxUses < 1 {
		fieldErrors.add("maxUses", "maxUses must be at least 1")
	}
	if input.ExpiresAt != nil && !input.ExpiresAt.After(s.now()) {
		fieldErrors.add("expiresAt", "expiresAt must be in the future")
	}
	if len(fieldErrors) > 0 {
		return persistence.AccessKey{}, &ValidationError{Fields: fieldErrors}
	}

	value, err := persistence.NewAccessKeyValue()
	if err != nil {
		return persistence.AccessKey{}, err
	}

	key, err := s.repo.CreateAccessKey(ctx, persistence.CreateAccessKeyParams{
		KeyID:     uuid.New(),
		Key:       value,
		MaxUses:   input.MaxUses,
		ExpiresAt: input.ExpiresAt,
		CreatedBy: admin.Email,
		Notes:     input.Notes,
	})
	if err != nil {
		return persistence.AccessKey{}, mapPersistenceError(err)
	}
	return key, nil
}

func (s *service) ResetUserPassword(ctx context.Context, userID uuid.UUID, input ResetPasswordInput) error {
	if userID == uuid.Nil {
		return ErrNotFound
	}

	if issues := platformauth.ValidatePassword(input.Password); len(issues) > 0 {
		fieldErrors := FieldErrors{}
		for _, issue := range issues {
			fieldErrors.add("password", issue)
		}
		return &ValidationError{Fields: fieldErrors}
	}

	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return mapPersistenceError(err)
	}

	hash, err := platformauth.HashPassword(input.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.repo.UpdateUserPassword(ctx, userID, hash); err != nil {
		return mapPersistenceError(err)
	}

	// Old sessions die with the old password.
	return s.repo.DeleteUserSessions(ctx, userID)
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
