package order

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of an order.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
	StatusFailed     Status = "FAILED"
	StatusReversed   Status = "REVERSED"
)

var (
	ErrEmptyCart         = errors.New("order must contain at least one item")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrOrderNotFound     = errors.New("order not found")
)

// Order is a customer purchase at a store, created by checkout and mutated
// by payment reconciliation. Payment metadata stays nil until the provider
// reports a result.
type Order struct {
	ID       uuid.UUID `json:"id"`
	StoreID  uuid.UUID `json:"store_id"`
	IsPaid   bool      `json:"is_paid"`
	Status   Status    `json:"status"`
	Phone    string    `json:"phone,omitempty"`
	Address  string    `json:"address,omitempty"`
	Provider string    `json:"provider"`

	TrackingID *string `json:"tracking_id,omitempty"`

	PaymentMethod           *string `json:"payment_method,omitempty"`
	PaymentConfirmationCode *string `json:"payment_confirmation_code,omitempty"`
	PaymentDescription      *string `json:"payment_description,omitempty"`
	PaymentAccount          *string `json:"payment_account,omitempty"`
	PaymentDate             *string `json:"payment_date,omitempty"`

	Total    decimal.Decimal `json:"total"`
	Currency string          `json:"currency"`

	Items    []*Item          `json:"items,omitempty"`
	Shipping *ShippingDetails `json:"shipping_details,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Item is a single line item within an order. The unit price is captured at
// purchase time; catalog price changes never rewrite history.
type Item struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"order_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// ShippingDetails is the optional delivery record owned by one order.
type ShippingDetails struct {
	ID           uuid.UUID `json:"id"`
	OrderID      uuid.UUID `json:"order_id"`
	AddressLine1 string    `json:"address_line_1"`
	AddressLine2 string    `json:"address_line_2,omitempty"`
	City         string    `json:"city"`
	State        string    `json:"state,omitempty"`
	ZipCode      string    `json:"zip_code,omitempty"`
	Country      string    `json:"country"`
	PhoneNumber  string    `json:"phone_number"`
}

// CheckoutItem is a transient (productId, quantity) pair from a checkout
// request.
type CheckoutItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// PaymentMetadata carries the provider's view of a settled payment, persisted
// onto the order during reconciliation. Empty fields leave the stored value
// untouched.
type PaymentMetadata struct {
	Method           string
	ConfirmationCode string
	Description      string
	Account          string
	Date             string
}

// ComputeTotal sums unit price × quantity across items and scales the result
// by the currency multiplier.
func ComputeTotal(items []*Item, multiplier decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total.Mul(multiplier)
}
