package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

// principalCapture records the principal the middleware attached, if any.
func principalCapture(got **Principal, ok *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got, *ok = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddlewareAttachesPrincipal(t *testing.T) {
	tokens := newTestTokenService("test-secret")
	transport := newTestTransport()

	token, err := tokens.Issue("user-1", "alice@example.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	var principal *Principal
	var ok bool
	handler := Middleware(tokens, transport, zap.NewNop())(principalCapture(&principal, &ok))

	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if !ok {
		t.Fatal("principal not attached")
	}
	if principal.UserID != "user-1" {
		t.Fatalf("UserID = %q, want %q", principal.UserID, "user-1")
	}
}

// The context builder is fail-open: a missing or invalid token leaves the
// request anonymous and must never reject it.
func TestMiddlewareFailOpen(t *testing.T) {
	tokens := newTestTokenService("test-secret")
	transport := newTestTransport()

	otherKey := newTestTokenService("different-secret")
	foreignToken, err := otherKey.Issue("user-1", "alice@example.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	tests := []struct {
		name  string
		setup func(r *http.Request)
	}{
		{"no token", func(r *http.Request) {}},
		{"malformed cookie token", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: CookieName, Value: "garbage"})
		}},
		{"wrong key", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: CookieName, Value: foreignToken})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var principal *Principal
			var ok bool
			handler := Middleware(tokens, transport, zap.NewNop())(principalCapture(&principal, &ok))

			req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
			tt.setup(req)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d (must not reject)", rr.Code, http.StatusOK)
			}
			if ok {
				t.Fatalf("principal = %+v, want anonymous", principal)
			}
		})
	}
}

func TestMiddlewareHeaderToken(t *testing.T) {
	tokens := newTestTokenService("test-secret")
	transport := newTestTransport()

	token, err := tokens.Issue("user-2", "bob@example.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	var principal *Principal
	var ok bool
	handler := Middleware(tokens, transport, zap.NewNop())(principalCapture(&principal, &ok))

	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if !ok {
		t.Fatal("principal not attached from bearer header")
	}
	if principal.UserID != "user-2" {
		t.Fatalf("UserID = %q, want %q", principal.UserID, "user-2")
	}
}
