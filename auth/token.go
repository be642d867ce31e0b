package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/user/markfy-go/apperror"
	"github.com/user/markfy-go/config"
)

// Claims defines the payload of a credential token.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies signed, time-limited identity tokens.
// The signing key is process-wide configuration loaded once at startup.
type TokenService struct {
	secret   []byte
	duration time.Duration
	// now is overridable for expiry tests.
	now func() time.Time
}

// NewTokenService creates a TokenService from auth configuration.
func NewTokenService(cfg config.AuthConfig) *TokenService {
	return &TokenService{
		secret:   []byte(cfg.JWTSecret),
		duration: cfg.TokenDuration,
		now:      time.Now,
	}
}

// Issue produces a compact signed token for the given identity, expiring
// after the configured duration (7 days by default).
func (s *TokenService) Issue(userID, email string) (string, error) {
	issuedAt := s.now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.duration)),
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token string and returns the Principal it
// encodes. Wrong-key, expired and malformed tokens all fail uniformly as an
// invalid-token error; callers treat any failure as "not authenticated".
func (s *TokenService) Verify(tokenString string) (*Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil {
		return nil, apperror.NewInvalidTokenError("invalid token", err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, apperror.NewInvalidTokenError("invalid token", nil)
	}

	return &Principal{UserID: claims.UserID, Email: claims.Email}, nil
}
