package controlplane

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Common JWT errors surfaced by JWTService.
var (
	ErrInvalidToken        = errors.New("invalid token")
	ErrExpiredToken        = errors.New("token has expired")
	ErrInvalidSecretLength = errors.New("JWT secret must be at least 32 characters")
)

// JWTConfig configures operator token signing.
type JWTConfig struct {
	Secret   string
	Issuer   string
	Lifetime time.Duration
}

// JWTService issues and validates bearer tokens for operators driving the
// control plane's mutating routes.
type JWTService struct {
	config JWTConfig
}

type operatorClaims struct {
	jwt.RegisteredClaims
	Operator string `json:"operator"`
}

// NewJWTService returns a JWTService signing with an HMAC secret of at
// least 32 bytes.
func NewJWTService(config JWTConfig) (*JWTService, error) {
	if len(config.Secret) < 32 {
		return nil, ErrInvalidSecretLength
	}
	if config.Issuer == "" {
		config.Issuer = "cfdpd"
	}
	if config.Lifetime == 0 {
		config.Lifetime = time.Hour
	}
	return &JWTService{config: config}, nil
}

// IssueToken returns a signed bearer token identifying operator.
func (s *JWTService) IssueToken(operator string) (string, time.Time, error) {
	now := time.Now()
	expiry := now.Add(s.config.Lifetime)
	claims := operatorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
		Operator: operator,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiry, nil
}

// ValidateToken parses and verifies tokenString, returning the operator
// name embedded in it.
func (s *JWTService) ValidateToken(tokenString string) (string, error) {
	claims := &operatorClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}
	return claims.Operator, nil
}

// RequireAuth is chi middleware that rejects requests without a valid
// "Authorization: Bearer <token>" header.
func (s *JWTService) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		if _, err := s.ValidateToken(strings.TrimPrefix(header, prefix)); err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
