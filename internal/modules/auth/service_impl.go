package auth

import (
	"context"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/sokohub/soko-backend/internal/modules/user"
	"golang.org/x/crypto/bcrypt"
)

// sessionTTL bounds how long an admin token stays valid.
const sessionTTL = 24 * time.Hour

type service struct {
	userRepo user.Repository
	jwtKey   []byte
}

// NewService creates the auth service signing tokens with the given secret.
func NewService(userRepo user.Repository, jwtSecret string) Service {
	return &service{userRepo: userRepo, jwtKey: []byte(jwtSecret)}
}

func (s *service) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	claims := &jwt.StandardClaims{
		Subject:   u.ID.String(),
		ExpiresAt: time.Now().Add(sessionTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtKey)
}
