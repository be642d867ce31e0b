package graphql

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/user/markfy-go/apperror"
	"github.com/user/markfy-go/auth"
	"github.com/user/markfy-go/comments"
	"github.com/user/markfy-go/posts"
)

// Typed argument structs, one per operation that takes variables. Decoding
// into these replaces the dynamic argument handling a generic GraphQL
// executor would do.

type registerArgs struct {
	Input auth.RegisterInput `json:"input"`
}

type loginArgs struct {
	Input auth.LoginInput `json:"input"`
}

type postArgs struct {
	Slug string `json:"slug"`
}

type createPostArgs struct {
	Input posts.CreatePostInput `json:"input"`
}

type updatePostArgs struct {
	ID    string                `json:"id"`
	Input posts.UpdatePostInput `json:"input"`
}

type deletePostArgs struct {
	ID string `json:"id"`
}

type createCommentArgs struct {
	Input comments.CreateCommentInput `json:"input"`
}

// authPayload is returned by register and login. The token itself travels
// only in the session cookie, never in the body.
type authPayload struct {
	User    *auth.User `json:"user"`
	Success bool       `json:"success"`
}

// successPayload is returned by logout and deletePost.
type successPayload struct {
	Success bool `json:"success"`
}

// resolveMe returns the authenticated user, or null for anonymous requests
// and for principals whose account no longer exists.
func (h *Handler) resolveMe(_ http.ResponseWriter, r *http.Request, _ json.RawMessage) (interface{}, error) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		return nil, nil
	}

	user, err := h.users.GetByID(r.Context(), principal.UserID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func (h *Handler) resolvePosts(_ http.ResponseWriter, r *http.Request, _ json.RawMessage) (interface{}, error) {
	return h.posts.ListPublished(r.Context())
}

// resolvePost returns a post by slug, or null when no post matches.
func (h *Handler) resolvePost(_ http.ResponseWriter, r *http.Request, vars json.RawMessage) (interface{}, error) {
	var args postArgs
	if err := decodeVariables(vars, &args); err != nil {
		return nil, err
	}
	if args.Slug == "" {
		return nil, apperror.NewValidationError("slug is required", nil)
	}

	post, err := h.posts.GetBySlug(r.Context(), args.Slug)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return post, nil
}

func (h *Handler) resolveMyPosts(_ http.ResponseWriter, r *http.Request, _ json.RawMessage) (interface{}, error) {
	principal, err := requirePrincipal(r)
	if err != nil {
		return nil, err
	}
	return h.posts.ListByAuthor(r.Context(), principal.UserID)
}

func (h *Handler) resolveRegister(w http.ResponseWriter, r *http.Request, vars json.RawMessage) (interface{}, error) {
	var args registerArgs
	if err := decodeVariables(vars, &args); err != nil {
		return nil, err
	}
	if args.Input.Name == "" || args.Input.Email == "" || args.Input.Password == "" {
		return nil, apperror.NewValidationError("name, email, and password are required", nil)
	}

	user, err := h.auth.Register(r.Context(), args.Input)
	if err != nil {
		return nil, err
	}

	if err := h.issueSession(w, user); err != nil {
		return nil, err
	}
	h.logger.Info("user registered", zap.String("user_id", user.ID))
	return &authPayload{User: user, Success: true}, nil
}

func (h *Handler) resolveLogin(w http.ResponseWriter, r *http.Request, vars json.RawMessage) (interface{}, error) {
	var args loginArgs
	if err := decodeVariables(vars, &args); err != nil {
		return nil, err
	}
	if args.Input.Email == "" || args.Input.Password == "" {
		return nil, apperror.NewValidationError("email and password are required", nil)
	}

	user, err := h.auth.Login(r.Context(), args.Input)
	if err != nil {
		return nil, err
	}

	if err := h.issueSession(w, user); err != nil {
		return nil, err
	}
	h.logger.Info("user logged in", zap.String("user_id", user.ID))
	return &authPayload{User: user, Success: true}, nil
}

// resolveLogout clears the session cookie unconditionally and always
// succeeds. The token itself is not revoked and remains valid until its
// natural expiry.
func (h *Handler) resolveLogout(w http.ResponseWriter, _ *http.Request, _ json.RawMessage) (interface{}, error) {
	h.transport.ClearSessionCookie(w)
	return &successPayload{Success: true}, nil
}

func (h *Handler) resolveCreatePost(_ http.ResponseWriter, r *http.Request, vars json.RawMessage) (interface{}, error) {
	principal, err := requirePrincipal(r)
	if err != nil {
		return nil, err
	}

	var args createPostArgs
	if err := decodeVariables(vars, &args); err != nil {
		return nil, err
	}
	if args.Input.Title == "" || args.Input.Content == "" {
		return nil, apperror.NewValidationError("title and content are required", nil)
	}

	return h.posts.Create(r.Context(), principal.UserID, args.Input)
}

func (h *Handler) resolveUpdatePost(_ http.ResponseWriter, r *http.Request, vars json.RawMessage) (interface{}, error) {
	principal, err := requirePrincipal(r)
	if err != nil {
		return nil, err
	}

	var args updatePostArgs
	if err := decodeVariables(vars, &args); err != nil {
		return nil, err
	}
	if args.ID == "" {
		return nil, apperror.NewValidationError("id is required", nil)
	}
	if args.Input.Title != nil && *args.Input.Title == "" {
		return nil, apperror.NewValidationError("title cannot be empty", nil)
	}

	return h.posts.Update(r.Context(), principal.UserID, args.ID, args.Input)
}

func (h *Handler) resolveDeletePost(_ http.ResponseWriter, r *http.Request, vars json.RawMessage) (interface{}, error) {
	principal, err := requirePrincipal(r)
	if err != nil {
		return nil, err
	}

	var args deletePostArgs
	if err := decodeVariables(vars, &args); err != nil {
		return nil, err
	}
	if args.ID == "" {
		return nil, apperror.NewValidationError("id is required", nil)
	}

	if err := h.posts.Delete(r.Context(), principal.UserID, args.ID); err != nil {
		return nil, err
	}
	return &successPayload{Success: true}, nil
}

func (h *Handler) resolveCreateComment(_ http.ResponseWriter, r *http.Request, vars json.RawMessage) (interface{}, error) {
	principal, err := requirePrincipal(r)
	if err != nil {
		return nil, err
	}

	var args createCommentArgs
	if err := decodeVariables(vars, &args); err != nil {
		return nil, err
	}
	if args.Input.PostID == "" || args.Input.Content == "" {
		return nil, apperror.NewValidationError("postId and content are required", nil)
	}

	return h.comments.Create(r.Context(), principal.UserID, args.Input)
}

// issueSession signs a token for the user and writes it as the session
// cookie.
func (h *Handler) issueSession(w http.ResponseWriter, user *auth.User) error {
	token, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return apperror.NewInternalError("failed to issue token", err)
	}
	h.transport.SetSessionCookie(w, token)
	return nil
}
