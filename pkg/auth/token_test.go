package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func Test_TokenService_IssueAndVerify(t *testing.T) {
	svc := NewTokenService("storefront", testSecret, time.Hour)
	subject := uuid.New()

	signed, err := svc.Issue(subject, RoleCustomer)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := svc.Verify(context.Background(), signed)
	require.NoError(t, err)
	assert.Equal(t, subject, claims.Subject)
	assert.Equal(t, RoleCustomer, claims.Role)
}

func Test_TokenService_Verify_Errors(t *testing.T) {
	svc := NewTokenService("storefront", testSecret, time.Hour)
	subject := uuid.New()

	testCases := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			name: "garbage input",
			token: func(t *testing.T) string {
				return "not-a-token"
			},
		},
		{
			name: "wrong signing key",
			token: func(t *testing.T) string {
				other := NewTokenService("storefront", "ffffffffffffffffffffffffffffffff", time.Hour)
				signed, err := other.Issue(subject, RoleAdmin)
				require.NoError(t, err)
				return signed
			},
		},
		{
			name: "wrong issuer",
			token: func(t *testing.T) string {
				other := NewTokenService("someone-else", testSecret, time.Hour)
				signed, err := other.Issue(subject, RoleAdmin)
				require.NoError(t, err)
				return signed
			},
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				other := NewTokenService("storefront", testSecret, -time.Minute)
				signed, err := other.Issue(subject, RoleAdmin)
				require.NoError(t, err)
				return signed
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Verify(context.Background(), tc.token(t))
			assert.Error(t, err)
		})
	}
}
