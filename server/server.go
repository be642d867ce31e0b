// Package server assembles the application's HTTP surface: services,
// middleware, and routes. Construction is separated from startup so that the
// same Server can back a long-running process or an environment that
// re-enters the handler repeatedly; the router is built exactly once.
package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/user/markfy-go/apperror"
	"github.com/user/markfy-go/auth"
	"github.com/user/markfy-go/comments"
	"github.com/user/markfy-go/config"
	"github.com/user/markfy-go/graphql"
	"github.com/user/markfy-go/posts"
	"github.com/user/markfy-go/users"
)

// Server holds the application's shared state. The handler is built lazily
// and exactly once; Handler is safe for concurrent callers and idempotent.
type Server struct {
	cfg    *config.AppConfig
	logger *zap.Logger
	pool   *pgxpool.Pool

	once    sync.Once
	handler http.Handler
}

// New creates a Server. No routes or services are constructed until the
// first Handler call.
func New(cfg *config.AppConfig, logger *zap.Logger, pool *pgxpool.Pool) *Server {
	return &Server{cfg: cfg, logger: logger, pool: pool}
}

// Handler returns the fully wired router, building it on first use.
func (s *Server) Handler() http.Handler {
	s.once.Do(func() {
		s.handler = s.build()
	})
	return s.handler
}

func (s *Server) build() http.Handler {
	tokens := auth.NewTokenService(*s.cfg.Auth)
	transport := auth.NewSessionTransport(*s.cfg.Auth)

	authService := auth.NewService(s.pool, s.logger)
	userService := users.NewService(s.pool)
	postService := posts.NewService(s.pool, s.logger)
	commentService := comments.NewService(s.pool, s.logger)

	gql := graphql.NewHandler(authService, userService, postService, commentService, tokens, transport, s.logger)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(s.recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Cookie", "X-Requested-With"},
		ExposedHeaders:   []string{"Set-Cookie"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// The auth context builder runs before every request is dispatched. It
	// never rejects: anonymous and authenticated requests share the
	// pipeline, and operations that need a principal fail closed
	// themselves.
	r.Use(auth.Middleware(tokens, transport, s.logger))

	r.Get("/health", s.handleHealth)
	r.Handle("/graphql", gql)

	return r
}

// requestLogger logs one line per request with method, path, status and
// duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// recoverer converts panics into a generic internal error response.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				s.logger.Error("panic recovered", zap.Any("panic", rvr))
				appErr := apperror.NewInternalError("internal server error", nil)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(appErr.StatusCode())
				w.Write([]byte(`{"error":"internal server error"}`))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok","timestamp":"` + time.Now().UTC().Format(time.RFC3339) + `"}`))
}
