package posts

import "time"

// Author is the subset of a user embedded in post responses.
type Author struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Comment is a comment embedded in a post response.
type Comment struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Author    Author    `json:"author"`
}

// Post represents a blog post. The slug is unique and derived
// deterministically from the title; the owner is immutable after creation;
// PublishedAt is set once on the first transition to published and never
// cleared by a later unpublish.
type Post struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Content     string     `json:"content"`
	Excerpt     *string    `json:"excerpt"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"publishedAt"`
	AuthorID    string     `json:"authorId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	Author      *Author    `json:"author,omitempty"`
	Comments    []Comment  `json:"comments"`
}
