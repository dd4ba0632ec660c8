// Package auth issues and verifies the HS256 session tokens used by the
// customer and admin surfaces.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

// Roles carried in the token's "role" claim.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// Claims is the verified content of a session token.
type Claims struct {
	Subject uuid.UUID
	Role    string
}

type Verifier interface {
	Verify(ctx context.Context, tokenString string) (*Claims, error)
}

// TokenService signs and verifies session tokens with a shared symmetric key.
type TokenService struct {
	issuer string
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. The secret must be long enough for
// HS256; config validation enforces that before we get here.
func NewTokenService(issuer, secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		issuer: issuer,
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue creates a signed token for the given principal.
func (s *TokenService) Issue(subject uuid.UUID, role string) (string, error) {
	now := time.Now()
	token, err := jwt.NewBuilder().
		Issuer(s.issuer).
		Subject(subject.String()).
		IssuedAt(now).
		Expiration(now.Add(s.ttl)).
		Claim("role", role).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), s.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return string(signed), nil
}

// Verify parses and validates a token string, returning its claims.
func (s *TokenService) Verify(_ context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.HS256(), s.secret),
		jwt.WithValidate(true),
		jwt.WithIssuer(s.issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}

	subject, ok := token.Subject()
	if !ok {
		return nil, fmt.Errorf("token has no `sub` claim")
	}
	subjectID, err := uuid.Parse(subject)
	if err != nil {
		return nil, fmt.Errorf("token subject is not a valid ID: %w", err)
	}

	var role string
	if err := token.Get("role", &role); err != nil {
		return nil, fmt.Errorf("token has no `role` claim: %w", err)
	}

	return &Claims{Subject: subjectID, Role: role}, nil
}
