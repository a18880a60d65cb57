package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest is the internal payload the checkout flow builds once a
// cart has been validated and priced for a currency.
type CreateOrderRequest struct {
	StoreID    string
	Provider   string
	Phone      string
	Address    string
	Items      []CheckoutItem
	Shipping   *ShippingDetails
	Currency   string
	Multiplier decimal.Decimal
}

// AdminUpdateRequest is the dashboard PATCH payload.
type AdminUpdateRequest struct {
	IsPaid *bool   `json:"isPaid,omitempty"`
	Status *string `json:"status,omitempty"`
}

// Service defines the order management business logic.
type Service interface {
	// Create validates the cart and persists the order atomically, decrementing
	// stock for every line item or nothing at all.
	Create(ctx context.Context, req CreateOrderRequest) (*Order, error)

	Get(ctx context.Context, id string) (*Order, error)
	GetByTracking(ctx context.Context, trackingID string) (*Order, error)
	ListByStore(ctx context.Context, storeID string) ([]*Order, error)

	// SetTracking records the provider tracking id after submission.
	SetTracking(ctx context.Context, orderID, trackingID string) error

	// FailAndRestock compensates a failed provider submission.
	FailAndRestock(ctx context.Context, orderID string) error

	// ApplyReconciliation persists a reconciled provider status idempotently.
	ApplyReconciliation(ctx context.Context, orderID string, status Status, isPaid bool, meta PaymentMetadata) error

	UpdateAdmin(ctx context.Context, orderID string, req AdminUpdateRequest) (*Order, error)
	Delete(ctx context.Context, orderID string) error
}

type service struct {
	repo Repository
}

// NewService creates a new order service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

var validStatuses = map[Status]bool{
	StatusPending:    true,
	StatusProcessing: true,
	StatusCompleted:  true,
	StatusCancelled:  true,
	StatusFailed:     true,
	StatusReversed:   true,
}

func (s *service) Create(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}
	if req.StoreID == "" {
		return nil, fmt.Errorf("store id is required")
	}
	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		return nil, fmt.Errorf("invalid store id: %w", err)
	}

	multiplier := req.Multiplier
	if multiplier.IsZero() {
		multiplier = decimal.NewFromInt(1)
	}
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	o := &Order{
		ID:       uuid.New(),
		StoreID:  storeID,
		Status:   StatusPending,
		Phone:    req.Phone,
		Address:  req.Address,
		Provider: req.Provider,
		Currency: currency,
		Shipping: req.Shipping,
	}
	return s.repo.CreateWithItems(ctx, o, req.Items, multiplier)
}

func (s *service) Get(ctx context.Context, id string) (*Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetByTracking(ctx context.Context, trackingID string) (*Order, error) {
	return s.repo.GetByTrackingID(ctx, trackingID)
}

func (s *service) ListByStore(ctx context.Context, storeID string) ([]*Order, error) {
	return s.repo.ListByStore(ctx, storeID)
}

func (s *service) SetTracking(ctx context.Context, orderID, trackingID string) error {
	return s.repo.SetTracking(ctx, orderID, trackingID)
}

func (s *service) FailAndRestock(ctx context.Context, orderID string) error {
	return s.repo.FailAndRestock(ctx, orderID)
}

func (s *service) ApplyReconciliation(ctx context.Context, orderID string, status Status, isPaid bool, meta PaymentMetadata) error {
	return s.repo.ApplyReconciliation(ctx, orderID, status, isPaid, meta)
}

func (s *service) UpdateAdmin(ctx context.Context, orderID string, req AdminUpdateRequest) (*Order, error) {
	if _, err := s.repo.GetByID(ctx, orderID); err != nil {
		return nil, err
	}

	var status *Status
	if req.Status != nil {
		st := Status(*req.Status)
		if !validStatuses[st] {
			return nil, fmt.Errorf("invalid status: %s", *req.Status)
		}
		status = &st
	}

	if err := s.repo.UpdateAdmin(ctx, orderID, req.IsPaid, status); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, orderID)
}

func (s *service) Delete(ctx context.Context, orderID string) error {
	if _, err := s.repo.GetByID(ctx, orderID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, orderID)
}
