package auth

import (
	"net/http"
	"strings"

	"github.com/user/markfy-go/config"
)

// CookieName is the name of the session cookie carrying the credential token.
const CookieName = "token"

// cookieMaxAge is the session cookie lifetime in seconds (7 days), matching
// the default token expiry.
const cookieMaxAge = 604800

// SessionTransport moves the credential token between HTTP requests and
// responses. Inbound, the cookie takes precedence over the Authorization
// header. Outbound, the token is written as an HTTP-only cookie; it is never
// returned in a response body.
type SessionTransport struct {
	secure bool
	domain string
}

// NewSessionTransport creates a SessionTransport from auth configuration.
func NewSessionTransport(cfg config.AuthConfig) *SessionTransport {
	return &SessionTransport{
		secure: cfg.CookieSecure,
		domain: cfg.CookieDomain,
	}
}

// ExtractToken pulls a raw token from the request: the "token" cookie first,
// then an "Authorization: Bearer <token>" header. When both are present the
// cookie wins. Returns false when neither source carries a token.
func (t *SessionTransport) ExtractToken(r *http.Request) (string, bool) {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// SetSessionCookie attaches the token to the response as an HTTP-only,
// SameSite=Lax, path-scoped cookie.
func (t *SessionTransport) SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, t.sessionCookie(token, cookieMaxAge))
}

// ClearSessionCookie expires the session cookie. The attributes must match
// those of the cookie originally set: an attribute mismatch silently fails
// to clear in many user agents.
func (t *SessionTransport) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, t.sessionCookie("", -1))
}

func (t *SessionTransport) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Domain:   t.domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
