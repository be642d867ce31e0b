// Package posts contains the business logic for authoring and reading blog
// posts, including slug derivation, the publish timestamp transition, and
// the ownership gate on mutations.
package posts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/user/markfy-go/apperror"
)

const pgUniqueViolation = "23505"

// Ownership failures and absent posts are reported identically so the API
// does not leak which post ids exist.
const notFoundMessage = "post not found"

// Service defines post operations. Mutations follow a fixed authorization
// sequence: identify the principal, load the target, authorize ownership,
// then mutate.
type Service interface {
	Create(ctx context.Context, authorID string, input CreatePostInput) (*Post, error)
	Update(ctx context.Context, principalID, postID string, input UpdatePostInput) (*Post, error)
	Delete(ctx context.Context, principalID, postID string) error
	ListPublished(ctx context.Context) ([]Post, error)
	GetBySlug(ctx context.Context, slug string) (*Post, error)
	ListByAuthor(ctx context.Context, authorID string) ([]Post, error)
}

type service struct {
	db     *pgxpool.Pool
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates the pgx-backed posts Service.
func NewService(db *pgxpool.Pool, logger *zap.Logger) Service {
	return &service{db: db, logger: logger, now: time.Now}
}

// resolvePublishedAt decides the publish timestamp for a post transitioning
// to the published flag. It is set exactly once, on the first transition to
// published, and an existing value is always preserved.
func resolvePublishedAt(existing *time.Time, published bool, now time.Time) *time.Time {
	if published && existing == nil {
		return &now
	}
	return existing
}

func (s *service) Create(ctx context.Context, authorID string, input CreatePostInput) (*Post, error) {
	post := &Post{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Slug:        Slugify(input.Title),
		Content:     input.Content,
		Excerpt:     input.Excerpt,
		Published:   input.Published,
		PublishedAt: resolvePublishedAt(nil, input.Published, s.now()),
		AuthorID:    authorID,
	}

	query := `INSERT INTO posts (id, title, slug, content, excerpt, published, published_at, author_id)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING created_at, updated_at`
	err := s.db.QueryRow(ctx, query,
		post.ID, post.Title, post.Slug, post.Content, post.Excerpt,
		post.Published, post.PublishedAt, post.AuthorID,
	).Scan(&post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, apperror.NewConflictError("a post already exists with this slug", nil)
		}
		return nil, apperror.NewDatabaseError("failed to create post", err)
	}

	if author, err := s.loadAuthor(ctx, authorID); err == nil {
		post.Author = author
	}
	post.Comments = []Comment{}
	return post, nil
}

func (s *service) Update(ctx context.Context, principalID, postID string, input UpdatePostInput) (*Post, error) {
	// Load, authorize and mutate inside one transaction with a row lock,
	// closing the check-then-act race against a concurrent mutation of
	// the same post.
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	post, err := s.lockPost(ctx, tx, postID, principalID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		post.Title = *input.Title
		post.Slug = Slugify(*input.Title)
	}
	if input.Content != nil {
		post.Content = *input.Content
	}
	if input.Excerpt != nil {
		post.Excerpt = input.Excerpt
	}
	if input.Published != nil {
		post.Published = *input.Published
		post.PublishedAt = resolvePublishedAt(post.PublishedAt, post.Published, s.now())
	}

	query := `UPDATE posts
	          SET title = $1, slug = $2, content = $3, excerpt = $4,
	              published = $5, published_at = $6, updated_at = now()
	          WHERE id = $7
	          RETURNING updated_at`
	err = tx.QueryRow(ctx, query,
		post.Title, post.Slug, post.Content, post.Excerpt,
		post.Published, post.PublishedAt, post.ID,
	).Scan(&post.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, apperror.NewConflictError("a post already exists with this slug", nil)
		}
		return nil, apperror.NewDatabaseError("failed to update post", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.NewDatabaseError("failed to commit transaction", err)
	}

	if author, err := s.loadAuthor(ctx, post.AuthorID); err == nil {
		post.Author = author
	}
	post.Comments = []Comment{}
	return post, nil
}

func (s *service) Delete(ctx context.Context, principalID, postID string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return apperror.NewDatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	if _, err := s.lockPost(ctx, tx, postID, principalID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM posts WHERE id = $1`, postID); err != nil {
		return apperror.NewDatabaseError("failed to delete post", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return apperror.NewDatabaseError("failed to commit transaction", err)
	}
	return nil
}

// lockPost loads a post by id with a row lock and enforces the ownership
// gate. An absent post and a post owned by someone else fail with the same
// not-found error.
func (s *service) lockPost(ctx context.Context, tx pgx.Tx, postID, principalID string) (*Post, error) {
	var post Post
	query := `SELECT id, title, slug, content, excerpt, published, published_at,
	                 author_id, created_at, updated_at
	          FROM posts WHERE id = $1 FOR UPDATE`
	err := tx.QueryRow(ctx, query, postID).Scan(
		&post.ID, &post.Title, &post.Slug, &post.Content, &post.Excerpt,
		&post.Published, &post.PublishedAt, &post.AuthorID,
		&post.CreatedAt, &post.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError(notFoundMessage, nil)
		}
		return nil, apperror.NewDatabaseError("failed to load post", err)
	}
	if post.AuthorID != principalID {
		return nil, apperror.NewNotFoundError(notFoundMessage, nil)
	}
	return &post, nil
}

func (s *service) ListPublished(ctx context.Context) ([]Post, error) {
	query := `SELECT p.id, p.title, p.slug, p.content, p.excerpt, p.published,
	                 p.published_at, p.author_id, p.created_at, p.updated_at,
	                 u.id, u.name, u.email
	          FROM posts p
	          JOIN users u ON u.id = p.author_id
	          WHERE p.published
	          ORDER BY p.created_at DESC`
	list, err := s.queryPosts(ctx, query)
	if err != nil {
		return nil, err
	}
	if err := s.attachComments(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*Post, error) {
	query := `SELECT p.id, p.title, p.slug, p.content, p.excerpt, p.published,
	                 p.published_at, p.author_id, p.created_at, p.updated_at,
	                 u.id, u.name, u.email
	          FROM posts p
	          JOIN users u ON u.id = p.author_id
	          WHERE p.slug = $1`
	list, err := s.queryPosts(ctx, query, slug)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, apperror.NewNotFoundError(notFoundMessage, nil)
	}
	if err := s.attachComments(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (s *service) ListByAuthor(ctx context.Context, authorID string) ([]Post, error) {
	query := `SELECT p.id, p.title, p.slug, p.content, p.excerpt, p.published,
	                 p.published_at, p.author_id, p.created_at, p.updated_at,
	                 u.id, u.name, u.email
	          FROM posts p
	          JOIN users u ON u.id = p.author_id
	          WHERE p.author_id = $1
	          ORDER BY p.created_at DESC`
	list, err := s.queryPosts(ctx, query, authorID)
	if err != nil {
		return nil, err
	}
	if err := s.attachComments(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *service) queryPosts(ctx context.Context, query string, args ...interface{}) ([]Post, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to query posts", err)
	}
	defer rows.Close()

	var list []Post
	for rows.Next() {
		var post Post
		var author Author
		err := rows.Scan(
			&post.ID, &post.Title, &post.Slug, &post.Content, &post.Excerpt,
			&post.Published, &post.PublishedAt, &post.AuthorID,
			&post.CreatedAt, &post.UpdatedAt,
			&author.ID, &author.Name, &author.Email,
		)
		if err != nil {
			return nil, apperror.NewDatabaseError("failed to scan post", err)
		}
		post.Author = &author
		post.Comments = []Comment{}
		list = append(list, post)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to read posts", err)
	}
	if list == nil {
		list = []Post{}
	}
	return list, nil
}

// attachComments loads the comments for every post in list, oldest first,
// each with its author.
func (s *service) attachComments(ctx context.Context, list []Post) error {
	if len(list) == 0 {
		return nil
	}

	ids := make([]string, len(list))
	index := make(map[string]*Post, len(list))
	for i := range list {
		ids[i] = list[i].ID
		index[list[i].ID] = &list[i]
	}

	query := `SELECT c.id, c.content, c.created_at, c.post_id, u.id, u.name
	          FROM comments c
	          JOIN users u ON u.id = c.author_id
	          WHERE c.post_id = ANY($1)
	          ORDER BY c.created_at ASC`
	rows, err := s.db.Query(ctx, query, ids)
	if err != nil {
		return apperror.NewDatabaseError("failed to query comments", err)
	}
	defer rows.Close()

	for rows.Next() {
		var comment Comment
		var postID string
		if err := rows.Scan(&comment.ID, &comment.Content, &comment.CreatedAt, &postID, &comment.Author.ID, &comment.Author.Name); err != nil {
			return apperror.NewDatabaseError("failed to scan comment", err)
		}
		if post, ok := index[postID]; ok {
			post.Comments = append(post.Comments, comment)
		}
	}
	return rows.Err()
}

func (s *service) loadAuthor(ctx context.Context, authorID string) (*Author, error) {
	var author Author
	err := s.db.QueryRow(ctx, `SELECT id, name, email FROM users WHERE id = $1`, authorID).
		Scan(&author.ID, &author.Name, &author.Email)
	if err != nil {
		s.logger.Warn("failed to load post author", zap.Error(err))
		return nil, err
	}
	return &author, nil
}
