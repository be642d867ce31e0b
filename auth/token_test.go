package auth

import (
	"testing"
	"time"

	"github.com/user/markfy-go/apperror"
	"github.com/user/markfy-go/config"
)

func newTestTokenService(secret string) *TokenService {
	return NewTokenService(config.AuthConfig{
		JWTSecret:     secret,
		TokenDuration: 168 * time.Hour,
	})
}

func TestTokenIssueVerify(t *testing.T) {
	svc := newTestTokenService("test-secret")

	token, err := svc.Issue("user-1", "alice@example.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	principal, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if principal.UserID != "user-1" {
		t.Fatalf("UserID = %q, want %q", principal.UserID, "user-1")
	}
	if principal.Email != "alice@example.com" {
		t.Fatalf("Email = %q, want %q", principal.Email, "alice@example.com")
	}
}

func TestTokenVerifyWrongKey(t *testing.T) {
	issuer := newTestTokenService("secret-a")
	verifier := newTestTokenService("secret-b")

	token, err := issuer.Issue("user-1", "alice@example.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if _, err := verifier.Verify(token); !apperror.IsInvalidToken(err) {
		t.Fatalf("Verify error = %v, want invalid token", err)
	}
}

func TestTokenVerifyMalformed(t *testing.T) {
	svc := newTestTokenService("test-secret")

	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := svc.Verify(token); !apperror.IsInvalidToken(err) {
			t.Fatalf("Verify(%q) error = %v, want invalid token", token, err)
		}
	}
}

func TestTokenExpiry(t *testing.T) {
	svc := newTestTokenService("test-secret")

	issuedAt := time.Now()
	svc.now = func() time.Time { return issuedAt }

	token, err := svc.Issue("user-1", "alice@example.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	// Valid one hour after issuance.
	svc.now = func() time.Time { return issuedAt.Add(time.Hour) }
	if _, err := svc.Verify(token); err != nil {
		t.Fatalf("Verify at T+1h error: %v", err)
	}

	// Invalid one second past the 7-day expiry.
	svc.now = func() time.Time { return issuedAt.Add(168*time.Hour + time.Second) }
	if _, err := svc.Verify(token); !apperror.IsInvalidToken(err) {
		t.Fatalf("Verify at T+7d+1s error = %v, want invalid token", err)
	}
}
