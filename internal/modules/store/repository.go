package store

import "context"

// Repository defines data access for stores.
type Repository interface {
	Create(ctx context.Context, s *Store) error
	GetByID(ctx context.Context, id string) (*Store, error)

	// Owner returns the owning user id for a store.
	Owner(ctx context.Context, storeID string) (string, error)

	// IPNRegistration returns the cached provider registration, empty strings
	// when the store has never registered one.
	IPNRegistration(ctx context.Context, storeID string) (ipnID string, ipnURL string, err error)

	// SaveIPNRegistration persists a fresh provider registration on the store.
	SaveIPNRegistration(ctx context.Context, storeID, ipnID, ipnURL string) error
}
