package auth

import "time"

// User represents a registered account. HashedPassword is never serialized
// into API responses.
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Principal is the authenticated identity attached to a request. It is
// reconstructed from a verified token on every request and never persisted;
// its lifetime is one request. An anonymous request carries no Principal.
type Principal struct {
	UserID string
	Email  string
}
