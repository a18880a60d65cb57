package catalog

import "context"

// Repository defines data access for store products.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	ListByStore(ctx context.Context, storeID string, activeOnly bool) ([]*Product, error)
	Update(ctx context.Context, p *Product) error
}
