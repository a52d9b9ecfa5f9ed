package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestCreateOrganizationWithOwner(t *testing.T) {
	pool, cleanup := mustTestPool(t)
	defer cleanup()

	ctx := context.Background()

	keys, err := NewAccessKeyStore(pool)
	require.NoError(t, err)
	signup, err := NewSignupStore(pool)
	require.NoError(t, err)

	keyValue, err := NewAccessKeyValue()
	require.NoError(t, err)
	maxUses := 1
	_, err = keys.Create(ctx, CreateAccessKeyParams{
		KeyID:     uuid.New(),
		Key:       keyValue,
		MaxUses:   &maxUses,
		CreatedBy: "test",
	})
	require.NoError(t, err)

	params := SignupParams{
		OrgID:        uuid.New(),
		OrgName:      "Acme Logistics",
		Slug:         fmt.Sprintf("acme-%s", uuid.New().String()[:8]),
		Plan:         "free",
		UserID:       uuid.New(),
		Email:        fmt.Sprintf("owner-%s@example.com", uuid.New().String()[:8]),
		PasswordHash: "$2a$12$notarealhashnotarealhashnotarealhashnotarealha",
		FullName:     "Ada Owner",
		Role:         "OWNER",
		AccessKey:    keyValue,
	}

	org, user, err := signup.CreateOrganizationWithOwner(ctx, params)
	require.NoError(t, err)
	require.Equal(t, params.OrgID, org.OrgID)
	require.Equal(t, params.Slug, org.Slug)
	require.Equal(t, params.OrgID, user.OrgID)
	require.Equal(t, "OWNER", user.Role)

	// The key was single use; a second signup with it must fail and leave
	// no partial rows behind.
	second := params
	second.OrgID = uuid.New()
	second.UserID = uuid.New()
	second.Slug = fmt.Sprintf("acme-%s", uuid.New().String()[:8])
	second.Email = fmt.Sprintf("owner-%s@example.com", uuid.New().String()[:8])

	_, _, err = signup.CreateOrganizationWithOwner(ctx, second)
	require.ErrorIs(t, err, ErrAccessKeyExhausted)

	orgs, err := NewOrganizationStore(pool)
	require.NoError(t, err)
	_, err = orgs.Get(ctx, second.OrgID)
	require.ErrorIs(t, err, ErrNotFound)

	consumed, err := keys.GetByKey(ctx, keyValue)
	require.NoError(t, err)
	require.Equal(t, 1, consumed.CurrentUses)
}

// Two signups racing for the last use of a key must settle as exactly one
// success. The guarded UPDATE's row lock serializes the consumers, so this
// holds at read-committed without any extra isolation.
func TestSignupConcurrentKeyConsumption(t *testing.T) {
	pool, cleanup := mustTestPool(t)
	defer cleanup()

	ctx := context.Background()

	keys, err := NewAccessKeyStore(pool)
	require.NoError(t, err)
	signup, err := NewSignupStore(pool)
	require.NoError(t, err)

	keyValue, err := NewAccessKeyValue()
	require.NoError(t, err)
	maxUses := 1
	_, err = keys.Create(ctx, CreateAccessKeyParams{
		KeyID:     uuid.New(),
		Key:       keyValue,
		MaxUses:   &maxUses,
		CreatedBy: "test",
	})
	require.NoError(t, err)

	newParams := func() SignupParams {
		return SignupParams{
			OrgID:        uuid.New(),
			OrgName:      "Racing Logistics",
			Slug:         fmt.Sprintf("racing-%s", uuid.New().String()[:8]),
			Plan:         "free",
			UserID:       uuid.New(),
			Email:        fmt.Sprintf("owner-%s@example.com", uuid.New().String()[:8]),
			PasswordHash: "$2a$12$notarealhashnotarealhashnotarealhashnotarealha",
			FullName:     "Rae Owner",
			Role:         "OWNER",
			AccessKey:    keyValue,
		}
	}

	results := make(chan error, 2)
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < 2; i++ {
		params := newParams()
		go func() {
			start.Wait()
			_, _, err := signup.CreateOrganizationWithOwner(ctx, params)
			results <- err
		}()
	}
	start.Done()

	var succeeded, exhausted int
	for i := 0; i < 2; i++ {
		switch err := <-results; {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrAccessKeyExhausted):
			exhausted++
		default:
			t.Fatalf("unexpected signup error: %v", err)
		}
	}
	require.Equal(t, 1, succeeded)
	require.Equal(t, 1, exhausted)

	key, err := keys.GetByKey(ctx, keyValue)
	require.NoError(t, err)
	require.Equal(t, 1, key.CurrentUses)
}

func TestSignupRollsBackOnDuplicateEmail(t *testing.T) {
	pool, cleanup := mustTestPool(t)
	defer cleanup()

	ctx := context.Background()

	keys, err := NewAccessKeyStore(pool)
	require.NoError(t, err)
	signup, err := NewSignupStore(pool)
	require.NoError(t, err)

	keyValue, err := NewAccessKeyValue()
	require.NoError(t, err)
	_, err = keys.Create(ctx, CreateAccessKeyParams{
		KeyID:     uuid.New(),
		Key:       keyValue,
		CreatedBy: "test",
	})
	require.NoError(t, err)

	email := fmt.Sprintf("taken-%s@example.com", uuid.New().String()[:8])

	first := SignupParams{
		OrgID:        uuid.New(),
		OrgName:      "First Org",
		Slug:         fmt.Sprintf("first-%s", uuid.New().String()[:8]),
		Plan:         "free",
		UserID:       uuid.New(),
		Email:        email,
		PasswordHash: "$2a$12$notarealhashnotarealhashnotarealhashnotarealha",
		FullName:     "First Owner",
		Role:         "OWNER",
		AccessKey:    keyValue,
	}
	_, _, err = signup.CreateOrganizationWithOwner(ctx, first)
	require.NoError(t, err)

	second := first
	second.OrgID = uuid.New()
	second.UserID = uuid.New()
	second.Slug = fmt.Sprintf("second-%s", uuid.New().String()[:8])

	_, _, err = signup.CreateOrganizationWithOwner(ctx, second)
	require.ErrorIs(t, err, ErrEmailConflict)

	// The whole unit rolled back: no orphan organization, and the key's
	// usage counter did not move for the failed attempt.
	orgs, err := NewOrganizationStore(pool)
	require.NoError(t, err)
	_, err = orgs.Get(ctx, second.OrgID)
	require.ErrorIs(t, err, ErrNotFound)

	key, err := keys.GetByKey(ctx, keyValue)
	require.NoError(t, err)
	require.Equal(t, 1, key.CurrentUses)
}
