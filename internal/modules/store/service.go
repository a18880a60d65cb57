package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Service defines store business logic.
type Service interface {
	Create(ctx context.Context, ownerID string, req CreateStoreRequest) (*Store, error)
	Get(ctx context.Context, id string) (*Store, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, ownerID string, req CreateStoreRequest) (*Store, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id: %w", err)
	}

	st := &Store{
		ID:      uuid.New(),
		OwnerID: owner,
		Name:    req.Name,
	}
	if err := s.repo.Create(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *service) Get(ctx context.Context, id string) (*Store, error) {
	return s.repo.GetByID(ctx, id)
}
