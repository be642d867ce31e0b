package comments

// CreateCommentInput carries the createComment mutation's input object.
type CreateCommentInput struct {
	PostID  string `json:"postId"`
	Content string `json:"content"`
}
