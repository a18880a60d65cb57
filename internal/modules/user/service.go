package user

import (
	"context"
	"errors"
)

// ErrEmailTaken is returned when a registration reuses an existing email.
var ErrEmailTaken = errors.New("email already registered")

// RegisterRequest is the admin signup payload.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Service manages admin accounts. Passwords only ever exist as bcrypt hashes
// past this boundary.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	Get(ctx context.Context, id string) (*User, error)
}
