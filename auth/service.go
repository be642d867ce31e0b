// Package auth is responsible for the credential issuance and verification
// lifecycle: user registration, login, password hashing, token signing and
// validation, and the session transport that carries tokens in and out of
// requests.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/user/markfy-go/apperror"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint
// violations.
const pgUniqueViolation = "23505"

// Service defines the credential lifecycle operations.
type Service interface {
	// Register creates a new user. A duplicate email fails with a
	// conflict error.
	Register(ctx context.Context, input RegisterInput) (*User, error)
	// Login authenticates a user. Unknown email and wrong password fail
	// with an identical invalid-credentials error.
	Login(ctx context.Context, input LoginInput) (*User, error)
}

type service struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewService creates the pgx-backed auth Service.
func NewService(db *pgxpool.Pool, logger *zap.Logger) Service {
	return &service{db: db, logger: logger}
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*User, error) {
	hashed, err := HashPassword(input.Password)
	if err != nil {
		// A bcrypt failure is an environment problem, not a user error.
		return nil, apperror.NewInternalError("failed to hash password", err)
	}

	user := &User{
		ID:             uuid.NewString(),
		Name:           input.Name,
		Email:          strings.ToLower(input.Email),
		HashedPassword: hashed,
	}

	query := `INSERT INTO users (id, name, email, password)
	          VALUES ($1, $2, $3, $4)
	          RETURNING created_at`
	err = s.db.QueryRow(ctx, query, user.ID, user.Name, user.Email, user.HashedPassword).Scan(&user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, apperror.NewConflictError("a user already exists with this email", nil)
		}
		return nil, apperror.NewDatabaseError("failed to create user", err)
	}

	return user, nil
}

func (s *service) Login(ctx context.Context, input LoginInput) (*User, error) {
	var user User
	query := `SELECT id, name, email, password, created_at FROM users WHERE email = $1`
	err := s.db.QueryRow(ctx, query, strings.ToLower(input.Email)).Scan(
		&user.ID, &user.Name, &user.Email, &user.HashedPassword, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Same error as a password mismatch so callers cannot probe
			// which emails are registered.
			return nil, apperror.NewInvalidCredentialsError("invalid credentials", nil)
		}
		s.logger.Error("failed to look up user during login", zap.Error(err))
		return nil, apperror.NewDatabaseError("failed to get user", err)
	}

	if !CheckPassword(input.Password, user.HashedPassword) {
		return nil, apperror.NewInvalidCredentialsError("invalid credentials", nil)
	}

	return &user, nil
}
