// Package users provides user profile lookups. It backs the `me` query and
// reuses the auth.User model for scanning.
package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/markfy-go/apperror"
	"github.com/user/markfy-go/auth"
)

// Service defines user profile operations.
type Service interface {
	// GetByID retrieves a user by id. An unknown id fails with a
	// not-found error.
	GetByID(ctx context.Context, userID string) (*auth.User, error)
}

type service struct {
	db *pgxpool.Pool
}

// NewService creates the pgx-backed users Service.
func NewService(db *pgxpool.Pool) Service {
	return &service{db: db}
}

func (s *service) GetByID(ctx context.Context, userID string) (*auth.User, error) {
	var user auth.User
	query := `SELECT id, name, email, created_at FROM users WHERE id = $1`
	err := s.db.QueryRow(ctx, query, userID).Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError("user not found", nil)
		}
		return nil, apperror.NewDatabaseError("failed to get user", err)
	}
	return &user, nil
}
