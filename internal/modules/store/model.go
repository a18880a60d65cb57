package store

import (
	"time"

	"github.com/google/uuid"
)

// Store is a merchant storefront owned by an admin user. The Pesapal IPN
// registration is cached on the row after the first registration so the
// provider is only asked once per store.
type Store struct {
	ID            uuid.UUID `json:"id"`
	OwnerID       uuid.UUID `json:"owner_id"`
	Name          string    `json:"name"`
	PesapalIPNID  *string   `json:"pesapal_ipn_id,omitempty"`
	PesapalIPNURL *string   `json:"pesapal_ipn_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateStoreRequest is the payload for creating a new store.
type CreateStoreRequest struct {
	Name string `json:"name"`
}
