// Package graphql exposes the API's single GraphQL-over-HTTP endpoint. It is
// deliberately not a full GraphQL engine: each operation the schema names is
// dispatched to a resolver with a typed argument struct, decoded and
// validated before any business logic runs. Query parsing is limited to
// locating the top-level field being requested.
package graphql

import (
	"encoding/json"
	"net/http"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/user/markfy-go/apperror"
	"github.com/user/markfy-go/auth"
	"github.com/user/markfy-go/comments"
	"github.com/user/markfy-go/posts"
	"github.com/user/markfy-go/users"
)

// request is the GraphQL-over-HTTP request envelope.
type request struct {
	Query         string          `json:"query"`
	OperationName string          `json:"operationName"`
	Variables     json.RawMessage `json:"variables"`
}

// gqlError is a single error in the GraphQL response envelope.
type gqlError struct {
	Message    string        `json:"message"`
	Extensions gqlExtensions `json:"extensions"`
}

type gqlExtensions struct {
	Code string `json:"code"`
}

// response is the GraphQL response envelope.
type response struct {
	Data   map[string]interface{} `json:"data"`
	Errors []gqlError             `json:"errors,omitempty"`
}

// resolverFunc executes one operation. The ResponseWriter is passed through
// so credential resolvers can set or clear the session cookie; data is keyed
// under the operation's field name by the handler.
type resolverFunc func(w http.ResponseWriter, r *http.Request, vars json.RawMessage) (interface{}, error)

// Handler dispatches GraphQL operations to typed resolvers. The principal,
// if any, is already attached to the request context by auth.Middleware.
type Handler struct {
	auth      auth.Service
	users     users.Service
	posts     posts.Service
	comments  comments.Service
	tokens    *auth.TokenService
	transport *auth.SessionTransport
	logger    *zap.Logger

	resolvers map[string]resolverFunc
}

// NewHandler creates the GraphQL handler with its service dependencies.
func NewHandler(
	authService auth.Service,
	userService users.Service,
	postService posts.Service,
	commentService comments.Service,
	tokens *auth.TokenService,
	transport *auth.SessionTransport,
	logger *zap.Logger,
) *Handler {
	h := &Handler{
		auth:      authService,
		users:     userService,
		posts:     postService,
		comments:  commentService,
		tokens:    tokens,
		transport: transport,
		logger:    logger,
	}
	h.resolvers = map[string]resolverFunc{
		"me":            h.resolveMe,
		"posts":         h.resolvePosts,
		"post":          h.resolvePost,
		"myPosts":       h.resolveMyPosts,
		"register":      h.resolveRegister,
		"login":         h.resolveLogin,
		"logout":        h.resolveLogout,
		"createPost":    h.resolveCreatePost,
		"updatePost":    h.resolveUpdatePost,
		"deletePost":    h.resolveDeletePost,
		"createComment": h.resolveCreateComment,
	}
	return h
}

// ServeHTTP handles POST /graphql. GET returns the SDL.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(Schema))
		return
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrors(w, http.StatusBadRequest, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
		return
	}
	defer r.Body.Close()

	field, ok := firstField(req.Query)
	if !ok {
		h.writeErrors(w, http.StatusBadRequest, apperror.NewBadRequestError("unable to determine operation from query", nil))
		return
	}

	resolver, ok := h.resolvers[field]
	if !ok {
		h.writeErrors(w, http.StatusBadRequest, apperror.NewBadRequestError("unknown operation: "+field, nil))
		return
	}

	data, err := resolver(w, r, req.Variables)
	if err != nil {
		// Resolver failures follow the GraphQL convention of a 200 with
		// an errors array.
		h.writeErrors(w, http.StatusOK, err)
		return
	}

	h.writeJSON(w, http.StatusOK, response{Data: map[string]interface{}{field: data}})
}

// firstField extracts the first top-level field of a GraphQL document,
// skipping the operation keyword, name and variable definitions. It accepts
// both shorthand ("{ me { id } }") and named operations
// ("query GetMe { me { id } }").
func firstField(query string) (string, bool) {
	idx := strings.IndexByte(query, '{')
	if idx < 0 {
		return "", false
	}
	rest := query[idx+1:]

	var b strings.Builder
	for _, r := range rest {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			break
		}
		if unicode.IsSpace(r) || r == ',' {
			continue
		}
		return "", false
	}
	if b.Len() == 0 {
		return "", false
	}
	return b.String(), true
}

// decodeVariables unmarshals the variables object into a typed args struct.
func decodeVariables(raw json.RawMessage, dst interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperror.NewBadRequestError("invalid variables: "+err.Error(), err)
	}
	return nil
}

// requirePrincipal reads the principal from the request context, failing
// with an unauthenticated error when the request is anonymous. Mutations
// call this first; queries open to anonymous browsing do not.
func requirePrincipal(r *http.Request) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		return nil, apperror.NewUnauthenticatedError("not authenticated", nil)
	}
	return principal, nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeErrors converts an error into the GraphQL error envelope. Unexpected
// errors are logged with their cause and surfaced as a generic internal
// error so storage detail never reaches the client.
func (h *Handler) writeErrors(w http.ResponseWriter, status int, err error) {
	appErr, ok := apperror.FromError(err)
	if !ok {
		appErr = apperror.NewInternalError("an unexpected error occurred", err)
	}
	if appErr.StatusCode() >= http.StatusInternalServerError {
		h.logger.Error("internal error", zap.Error(appErr))
		// Replace the message wholesale; internal messages may embed
		// driver detail.
		appErr = apperror.NewInternalError("internal server error", nil)
	}

	h.writeJSON(w, status, response{
		Data: nil,
		Errors: []gqlError{{
			Message:    appErr.Message,
			Extensions: gqlExtensions{Code: appErr.GraphQLCode()},
		}},
	})
}
