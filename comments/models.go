package comments

import "time"

// Author is the subset of a user embedded in a comment response.
type Author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PostSummary is the subset of a post embedded in a comment response.
type PostSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// Comment represents a reader comment. It references exactly one user and
// one post, both of which must exist at creation time.
type Comment struct {
	ID        string      `json:"id"`
	Content   string      `json:"content"`
	AuthorID  string      `json:"authorId"`
	PostID    string      `json:"postId"`
	CreatedAt time.Time   `json:"createdAt"`
	Author    Author      `json:"author"`
	Post      PostSummary `json:"post"`
}
