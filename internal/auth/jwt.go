package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SchedulerSubject is the only subject accepted on trigger tokens.
const SchedulerSubject = "scheduler"

var (
	ErrInvalidToken = errors.New("invalid token")
)

// JWTService issues and validates the tokens the external scheduler presents.
type JWTService struct {
	secret []byte
	ttl    time.Duration
}

// NewJWTService creates a JWT service. ttl applies to tokens issued by Generate.
func NewJWTService(secret string, ttl time.Duration) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Enabled reports whether a secret is configured.
func (s *JWTService) Enabled() bool {
	return s != nil && len(s.secret) > 0
}

// Generate creates a scheduler token.
func (s *JWTService) Generate() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   SchedulerSubject,
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        uuid.New().String(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate parses a token and checks its signature, expiry and subject.
func (s *JWTService) Validate(tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(SchedulerSubject),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
