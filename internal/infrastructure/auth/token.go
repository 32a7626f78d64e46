// Package auth issues and verifies the bearer tokens that guard the
// operations endpoint.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/chronoshop/backend/internal/domain/shared"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Roles understood by the operations endpoint
const (
	RoleViewer   = "viewer"
	RoleOperator = "operator"
)

// Token errors
var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token has expired")
	ErrMissingSubject = errors.New("token names no user")
	ErrUnknownRole    = errors.New("unknown role")
)

// Claims are the JWT claims of an operations token
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Role     string `json:"role"`
}

// TokenConfig holds signing settings
type TokenConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// TokenService signs and verifies HS256 tokens
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a token service. The secret must not be empty.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token secret is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "chronoshop"
	}
	return &TokenService{secret: []byte(cfg.Secret), issuer: cfg.Issuer, ttl: cfg.TTL, now: time.Now}, nil
}

// Issue signs a token for actor and returns it with its expiry
func (s *TokenService) Issue(actor shared.Actor) (string, time.Time, error) {
	if actor.Username == "" {
		return "", time.Time{}, ErrMissingSubject
	}
	if !knownRole(actor.Role) {
		return "", time.Time{}, fmt.Errorf("%w: %q", ErrUnknownRole, actor.Role)
	}

	now := s.now()
	expires := now.Add(s.ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   actor.Username,
			ExpiresAt: jwt.NewNumericDate(expires),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Username: actor.Username,
		Role:     actor.Role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Verify checks the signature, issuer and lifetime and returns the actor
func (s *TokenService) Verify(token string) (shared.Actor, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return shared.Actor{}, ErrExpiredToken
		}
		return shared.Actor{}, ErrInvalidToken
	}
	if !parsed.Valid {
		return shared.Actor{}, ErrInvalidToken
	}
	if claims.Username == "" {
		return shared.Actor{}, ErrMissingSubject
	}
	if !knownRole(claims.Role) {
		return shared.Actor{}, ErrUnknownRole
	}
	return shared.Actor{Username: claims.Username, Role: claims.Role}, nil
}

func knownRole(role string) bool {
	return role == RoleViewer || role == RoleOperator
}
