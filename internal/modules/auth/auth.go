package auth

import (
	"context"
	"errors"
)

// ErrInvalidCredentials covers unknown emails and wrong passwords alike, so a
// login probe cannot tell the two apart.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service issues admin session tokens.
type Service interface {
	// Login verifies the credentials and returns a signed session token.
	Login(ctx context.Context, email, password string) (string, error)
}
