package posts

// CreatePostInput carries the createPost mutation's input object.
type CreatePostInput struct {
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	Excerpt   *string `json:"excerpt"`
	Published bool    `json:"published"`
}

// UpdatePostInput carries the updatePost mutation's input object. All fields
// are optional; absent fields leave the stored value unchanged.
type UpdatePostInput struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	Excerpt   *string `json:"excerpt"`
	Published *bool   `json:"published"`
}
