package auth

import (
	"net/http"

	"go.uber.org/zap"
)

// Middleware builds the per-request principal before any resolver runs:
// extract a raw token from the request, verify it, and attach the resulting
// Principal to the request context.
//
// This stage is fail-open: a missing, expired or otherwise invalid token
// leaves the request anonymous and never rejects it. Anonymous browsing and
// authenticated authoring share one pipeline, so authentication failures are
// deferred to the specific operations that require a principal, which fail
// closed.
func Middleware(tokens *TokenService, transport *SessionTransport, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := transport.ExtractToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := tokens.Verify(token)
			if err != nil {
				// Invalid token: continue anonymously. Logged at debug
				// only; this is routine after token expiry.
				logger.Debug("token verification failed", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			ctx := NewContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
