// Package comments contains the business logic for reader comments.
package comments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/user/markfy-go/apperror"
)

// Service defines comment operations.
type Service interface {
	// Create adds a comment to an existing post. A nonexistent post fails
	// with a not-found error and creates no record.
	Create(ctx context.Context, authorID string, input CreateCommentInput) (*Comment, error)
}

type service struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewService creates the pgx-backed comments Service.
func NewService(db *pgxpool.Pool, logger *zap.Logger) Service {
	return &service{db: db, logger: logger}
}

func (s *service) Create(ctx context.Context, authorID string, input CreateCommentInput) (*Comment, error) {
	comment := &Comment{
		ID:       uuid.NewString(),
		Content:  input.Content,
		AuthorID: authorID,
		PostID:   input.PostID,
	}

	// The post existence check and the insert run in one transaction so a
	// concurrent post deletion cannot leave an orphaned comment.
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `SELECT id, title, slug FROM posts WHERE id = $1`, input.PostID).
		Scan(&comment.Post.ID, &comment.Post.Title, &comment.Post.Slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError("post not found", nil)
		}
		return nil, apperror.NewDatabaseError("failed to load post", err)
	}

	query := `INSERT INTO comments (id, content, author_id, post_id)
	          VALUES ($1, $2, $3, $4)
	          RETURNING created_at`
	if err := tx.QueryRow(ctx, query, comment.ID, comment.Content, comment.AuthorID, comment.PostID).Scan(&comment.CreatedAt); err != nil {
		return nil, apperror.NewDatabaseError("failed to create comment", err)
	}

	err = tx.QueryRow(ctx, `SELECT id, name FROM users WHERE id = $1`, authorID).
		Scan(&comment.Author.ID, &comment.Author.Name)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to load comment author", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.NewDatabaseError("failed to commit transaction", err)
	}

	return comment, nil
}
