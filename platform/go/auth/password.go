package auth

import (
	"errors"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is fixed; rehashing on cost changes is out of scope.
const bcryptCost = 12

// Password policy violations, kept as distinct messages so validation
// responses can report every failed rule.
const (
	policyMinLength = "password must be at least 8 characters"
	policyLower     = "password must contain a lowercase letter"
	policyUpper     = "password must contain an uppercase letter"
	policyDigit     = "password must contain a digit"
)

// HashPassword hashes a plaintext password with bcrypt. The hash is the only
// form ever persisted or logged.
func HashPassword(plain string) (string, error) {
	if plain == "" {
		return "", errors.New("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ComparePassword reports whether plain matches the stored bcrypt hash.
func ComparePassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// ValidatePassword checks the complexity policy (>=8 chars, lower, upper,
// digit) and returns one message per violated rule.
func ValidatePassword(plain string) []string {
	var issues []string

	if len(plain) < 8 {
		issues = append(issues, policyMinLength)
	}

	var hasLower, hasUpper, hasDigit bool
	for _, r := range plain {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasLower {
		issues = append(issues, policyLower)
	}
	if !hasUpper {
		issues = append(issues, policyUpper)
	}
	if !hasDigit {
		issues = append(issues, policyDigit)
	}

	return issues
}
