package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service defines catalog business logic.
type Service interface {
	Create(ctx context.Context, storeID string, req CreateProductRequest) (*Product, error)
	Get(ctx context.Context, id string) (*Product, error)
	ListByStore(ctx context.Context, storeID string, activeOnly bool) ([]*Product, error)
	Update(ctx context.Context, id string, req UpdateProductRequest) (*Product, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, storeID string, req CreateProductRequest) (*Product, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if req.Price.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("price must be greater than 0")
	}
	if req.Stock < 0 {
		return nil, fmt.Errorf("stock cannot be negative")
	}
	sid, err := uuid.Parse(storeID)
	if err != nil {
		return nil, fmt.Errorf("invalid store id: %w", err)
	}

	p := &Product{
		ID:          uuid.New(),
		StoreID:     sid,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) Get(ctx context.Context, id string) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListByStore(ctx context.Context, storeID string, activeOnly bool) ([]*Product, error) {
	return s.repo.ListByStore(ctx, storeID, activeOnly)
}

func (s *service) Update(ctx context.Context, id string, req UpdateProductRequest) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("product not found: %w", err)
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		if req.Price.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("price must be greater than 0")
		}
		p.Price = *req.Price
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, fmt.Errorf("stock cannot be negative")
		}
		p.Stock = *req.Stock
	}
	if req.IsArchived != nil {
		p.IsArchived = *req.IsArchived
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
