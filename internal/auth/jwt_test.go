package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService("s3cret", time.Minute)
	require.True(t, svc.Enabled())

	tok, err := svc.Generate()
	require.NoError(t, err)

	claims, err := svc.Validate(tok)
	require.NoError(t, err)
	assert.Equal(t, SchedulerSubject, claims.Subject)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService("s3cret", time.Minute)

	sign := func(method jwt.SigningMethod, key interface{}, claims jwt.RegisteredClaims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	future := jwt.NewNumericDate(time.Now().Add(time.Minute))

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"wrong secret", sign(jwt.SigningMethodHS256, []byte("other"), jwt.RegisteredClaims{Subject: SchedulerSubject, ExpiresAt: future})},
		{"wrong subject", sign(jwt.SigningMethodHS256, []byte("s3cret"), jwt.RegisteredClaims{Subject: "user", ExpiresAt: future})},
		{"expired", sign(jwt.SigningMethodHS256, []byte("s3cret"), jwt.RegisteredClaims{Subject: SchedulerSubject, ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))})},
		{"hs512", sign(jwt.SigningMethodHS512, []byte("s3cret"), jwt.RegisteredClaims{Subject: SchedulerSubject, ExpiresAt: future})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Validate(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestJWTService_Disabled(t *testing.T) {
	assert.False(t, NewJWTService("", time.Minute).Enabled())
	var nilSvc *JWTService
	assert.False(t, nilSvc.Enabled())
}
