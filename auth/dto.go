package auth

// RegisterInput carries the register mutation's input object.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginInput carries the login mutation's input object.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
