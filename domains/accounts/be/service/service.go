package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quartermaster-wms/quartermaster/domains/accounts/be/repo"
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
	// ErrInvalidCredentials covers every login failure mode so responses
	// cannot reveal whether an email is registered or an account suspended.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccessKeyRejected means the signup key is unknown, inactive, or
	// expired.
	ErrAccessKeyRejected = errors.New("access key rejected")

	// ErrAccessKeyExhausted means the key exists but every permitted use
	// has been consumed.
	ErrAccessKeyExhausted = errors.New("access key usage limit reached")

	ErrEmailTaken = errors.New("email already registered")
)

const (
	ownerRole   = "OWNER"
	defaultPlan = "free"

	slugRetries = 3
)

// Account is the domain view of an authenticated user plus its organization.
type Account struct {
	UserID    uuid.UUID
	Email     string
	FullName  string
	Role      string
	OrgID     uuid.UUID
	OrgName   string
	OrgSlug   string
	Plan      string
	CreatedAt time.Time
}

// Session is an issued tenant session. The raw token is returned exactly
// once; only its hash is stored.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// SignupInput is the payload for creating an organization with its owner.
type SignupInput struct {
	OrgName   string
	Email     string
	Password  string
	FullName  string
	AccessKey string
}

// LoginInput is the credential payload.
type LoginInput struct {
	Email    string
	Password string
}

// Service defines the business operations for the accounts domain. It also
// satisfies platformauth.SessionResolver so the HTTP middleware can resolve
// session cookies through the same code path as everything else.
type Service interface {
	Signup(ctx context.Context, input SignupInput) (Account, Session, error)
	Login(ctx context.Context, input LoginInput) (Account, Session, error)
	Logout(ctx context.Context, token string) error
	ResolveSession(ctx context.Context, token string) (platformauth.TenantUser, error)
}

type service struct {
	repo       repo.Repository
	sessionTTL time.Duration
	now        func() time.Time
}

// New constructs an accounts Service backed by the provided repository.
func New(r repo.Repository, sessionTTL time.Duration) Service {
	if r == nil {
		panic("accounts repository is required")
	}
	if sessionTTL <= 0 {
		sessionTTL = 7 * 24 * time.Hour
	}
	return &service{repo: r, sessionTTL: sessionTTL, now: time.Now}
}

func (s *service) Signup(ctx context.Context, input SignupInput) (Account, Session, error) {
	fieldErrors := FieldErrors{}

	orgName := strings.TrimSpace(input.OrgName)
	if len(orgName) < 2 || len(orgName) > 100 {
		fieldErrors.add("orgName", "organization name must be between 2 and 100 characters")
	} else if strings.ContainsAny(orgName, "<>") {
		fieldErrors.add("orgName", "organization name must not contain markup")
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		fieldErrors.add("email", "email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		fieldErrors.add("email", "email is not a valid address")
	}

	for _, issue := range platformauth.ValidatePassword(input.Password) {
		fieldErrors.add("password", issue)
	}

	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		fieldErrors.add("fullName", "fullName is required")
	} else if strings.ContainsAny(fullName, "<>") {
		fieldErrors.add("fullName", "fullName must not contain markup")
	}

	accessKey := strings.ToUpper(strings.TrimSpace(input.AccessKey))
	if !persistence.AccessKeyPattern.MatchString(accessKey) {
		fieldErrors.add("accessKey", "access key must match QW- followed by 16 hex characters")
	}

	if len(fieldErrors) > 0 {
		return Account{}, Session{}, &ValidationError{Fields: fieldErrors}
	}

	// Pre-check the key so a burned key is reported before the caller's
	// password is hashed. The transaction re-checks under lock, this read
	// is only for a better error.
	key, err := s.repo.GetAccessKey(ctx, accessKey)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Account{}, Session{}, ErrAccessKeyRejected
		}
		return Account{}, Session{}, err
	}
	if key.MaxUses != nil && key.CurrentUses >= *key.MaxUses {
		return Account{}, Session{}, ErrAccessKeyExhausted
	}
	if !key.Usable(s.now()) {
		return Account{}, Session{}, ErrAccessKeyRejected
	}

	passwordHash, err := platformauth.HashPassword(input.Password)
	if err != nil {
		return Account{}, Session{}, fmt.Errorf("hash password: %w", err)
	}

	slug, err := s.deriveSlug(ctx, orgName)
	if err != nil {
		return Account{}, Session{}, err
	}

	var org persistence.Organization
	var user persistence.AuthUser
	for attempt := 0; ; attempt++ {
		org, user, err = s.repo.CreateOrganizationWithOwner(ctx, persistence.SignupParams{
			OrgID:        uuid.New(),
			OrgName:      orgName,
			Slug:         slug,
			Plan:         defaultPlan,
			UserID:       uuid.New(),
			Email:        email,
			PasswordHash: passwordHash,
			FullName:     fullName,
			Role:         ownerRole,
			AccessKey:    accessKey,
		})
		if err == nil {
			break
		}
		// A slug collision between the existence check and the insert gets
		// a suffixed retry; everything else is final.
		if errors.Is(err, persistence.ErrSlugConflict) && attempt < slugRetries {
			if slug, err = persistence.SuffixSlug(slug); err != nil {
				return Account{}, Session{}, err
			}
			continue
		}
		return Account{}, Session{}, s.mapSignupError(err)
	}

	session, err := s.issueSession(ctx, user.UserID, org.OrgID)
	if err != nil {
		return Account{}, Session{}, err
	}

	return accountFrom(user, org), session, nil
}

func (s *service) Login(ctx context.Context, input LoginInput) (Account, Session, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return Account{}, Session{}, ErrInvalidCredentials
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			// Burn a comparison anyway so the miss costs the same as a hit.
			platformauth.ComparePassword(dummyHash, input.Password)
			return Account{}, Session{}, ErrInvalidCredentials
		}
		return Account{}, Session{}, err
	}

	if !platformauth.ComparePassword(user.PasswordHash, input.Password) {
		return Account{}, Session{}, ErrInvalidCredentials
	}

	org, err := s.repo.GetOrganization(ctx, user.OrgID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Account{}, Session{}, ErrInvalidCredentials
		}
		return Account{}, Session{}, err
	}
	if !org.IsActive || org.IsSuspended {
		return Account{}, Session{}, ErrInvalidCredentials
	}

	session, err := s.issueSession(ctx, user.UserID, org.OrgID)
	if err != nil {
		return Account{}, Session{}, err
	}

	_ = s.repo.TouchLastLogin(ctx, user.UserID, s.now())

	return accountFrom(user, org), session, nil
}

func (s *service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.repo.DeleteSession(ctx, platformauth.HashSessionToken(token))
}

func (s *service) ResolveSession(ctx context.Context, token string) (platformauth.TenantUser, error) {
	principal, err := s.repo.ResolveSession(ctx, platformauth.HashSessionToken(token))
	if err != nil {
		return platformauth.TenantUser{}, err
	}
	return platformauth.TenantUser{
		UserID:   principal.UserID,
		Email:    principal.Email,
		FullName: principal.FullName,
		Role:     principal.Role,
		OrgID:    principal.OrgID,
		OrgName:  principal.OrgName,
	}, nil
}

func (s *service) issueSession(ctx context.Context, userID, orgID uuid.UUID) (Session, error) {
	token, err := platformauth.NewSessionToken()
	if err != nil {
		return Session{}, err
	}

	expiresAt := s.now().Add(s.sessionTTL)
	err = s.repo.CreateSession(ctx, persistence.CreateSessionParams{
		TokenHash: platformauth.HashSessionToken(token),
		UserID:    userID,
		OrgID:     orgID,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return Session{}, fmt.Errorf("issue session: %w", err)
	}

	return Session{Token: token, ExpiresAt: expiresAt}, nil
}

func (s *service) deriveSlug(ctx context.Context, orgName string) (string, error) {
	slug, err := persistence.Slugify(orgName)
	if err != nil {
		return "", newValidationError(map[string]string{"orgName": "organization name cannot be turned into a URL slug"})
	}

	taken, err := s.repo.SlugExists(ctx, slug)
	if err != nil {
		return "", err
	}
	if taken {
		return persistence.SuffixSlug(slug)
	}
	return slug, nil
}

func (s *service) mapSignupError(err error) error {
	switch {
	case errors.Is(err, persistence.ErrEmailConflict):
		return ErrEmailTaken
	case errors.Is(err, persistence.ErrAccessKeyExhausted):
		return ErrAccessKeyExhausted
	default:
		return err
	}
}

func accountFrom(user persistence.AuthUser, org persistence.Organization) Account {
	return Account{
		UserID:    user.UserID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      user.Role,
		OrgID:     org.OrgID,
		OrgName:   org.Name,
		OrgSlug:   org.Slug,
		Plan:      org.Plan,
		CreatedAt: user.CreatedAt,
	}
}

// dummyHash is a valid bcrypt hash of a random value, compared against when
// the email is unknown.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

func newValidationError(fields map[string]string) error {
	fe := FieldErrors{}
	for key, message := range fields {
		fe.add(key, message)
	}
	return &ValidationError{Fields: fe}
}

func (f FieldErrors) add(field, message string) {
	if f == nil {
		return
	}
	f[field] = append(f[field], message)
}
