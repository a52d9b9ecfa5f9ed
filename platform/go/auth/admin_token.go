package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Admin token failures. ErrNoToken means no credential was presented at all;
// ErrInvalidToken covers malformed, mis-signed, and expired tokens. Callers
// map both to the same 401 body.
var (
	ErrNoToken      = errors.New("no token provided")
	ErrInvalidToken = errors.New("invalid token")
)

// adminClaims is the signed payload of an admin bearer token.
type adminClaims struct {
	AdminID string `json:"adminId"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	jwt.RegisteredClaims
}

// AdminTokens issues and verifies HS256 bearer tokens for the super-admin
// authority. Tokens are stateless: expiry is the only revocation.
type AdminTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAdminTokens builds a token authority with the given signing secret and TTL.
func NewAdminTokens(secret string, ttl time.Duration) (*AdminTokens, error) {
	if len(secret) < 32 {
		return nil, errors.New("admin token secret must be at least 32 bytes")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AdminTokens{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a bearer token for the given admin.
func (t *AdminTokens) Issue(admin SuperAdmin) (string, error) {
	if admin.AdminID == uuid.Nil {
		return "", errors.New("admin id is required")
	}

	now := t.now()
	claims := adminClaims{
		AdminID: admin.AdminID.String(),
		Email:   admin.Email,
		Name:    admin.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   admin.AdminID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign admin token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a bearer token, returning the admin principal
// it carries. Any parse, signature, or expiry failure maps to ErrInvalidToken.
func (t *AdminTokens) Verify(tokenString string) (SuperAdmin, error) {
	if tokenString == "" {
		return SuperAdmin{}, ErrNoToken
	}

	var claims adminClaims
	parsed, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil || !parsed.Valid {
		return SuperAdmin{}, ErrInvalidToken
	}

	adminID, err := uuid.Parse(claims.AdminID)
	if err != nil {
		return SuperAdmin{}, ErrInvalidToken
	}

	return SuperAdmin{
		AdminID:  adminID,
		Email:    claims.Email,
		FullName: claims.Name,
	}, nil
}

// TTL exposes the configured token lifetime.
func (t *AdminTokens) TTL() time.Duration {
	return t.ttl
}
