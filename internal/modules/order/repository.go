package order

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository defines data access for orders.
type Repository interface {
	// CreateWithItems persists the order, its items, and the optional shipping
	// details in one transaction, checking and decrementing product stock under
	// row locks. Nothing is persisted when any item fails validation.
	// The order's Items and Total are filled in from the locked product rows.
	CreateWithItems(ctx context.Context, o *Order, items []CheckoutItem, multiplier decimal.Decimal) (*Order, error)

	// FailAndRestock marks the order FAILED and restores the stock its items
	// consumed, in one compensating transaction.
	FailAndRestock(ctx context.Context, orderID string) error

	// SetTracking records the provider tracking id after a successful
	// submission and moves the order to PROCESSING.
	SetTracking(ctx context.Context, orderID, trackingID string) error

	// ApplyReconciliation persists the mapped provider status and payment
	// metadata. Safe to call repeatedly with the same inputs.
	ApplyReconciliation(ctx context.Context, orderID string, status Status, isPaid bool, meta PaymentMetadata) error

	GetByID(ctx context.Context, id string) (*Order, error)
	GetByTrackingID(ctx context.Context, trackingID string) (*Order, error)
	ListByStore(ctx context.Context, storeID string) ([]*Order, error)

	// UpdateAdmin applies a dashboard edit; nil fields are left untouched.
	UpdateAdmin(ctx context.Context, orderID string, isPaid *bool, status *Status) error
	Delete(ctx context.Context, orderID string) error
}
