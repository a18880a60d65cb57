package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sokohub/soko-backend/internal/modules/order"
	"github.com/sokohub/soko-backend/internal/modules/payment"
)

var (
	ErrShippingRequired = errors.New("shipping details are required")
	ErrUnknownProvider  = errors.New("unknown payment provider")
)

// ShippingInput is the storefront's shipping block.
type ShippingInput struct {
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state,omitempty"`
	ZipCode      string `json:"zipCode,omitempty"`
	Country      string `json:"country"`
	PhoneNumber  string `json:"phoneNumber"`
}

// CheckoutRequest is the storefront checkout payload.
type CheckoutRequest struct {
	Products        []order.CheckoutItem `json:"products"`
	ShippingDetails *ShippingInput       `json:"shippingDetails"`
	Location        string               `json:"location,omitempty"`
	Provider        string               `json:"provider,omitempty"`
	Email           string               `json:"email,omitempty"`
}

// CheckoutResponse carries the created order id and the provider-hosted
// payment page the customer is redirected to.
type CheckoutResponse struct {
	OrderID string `json:"orderId"`
	URL     string `json:"url"`
}

// Service orchestrates a checkout: stock-checked order creation, gateway
// submission, and the compensating rollback when submission fails.
type Service interface {
	Checkout(ctx context.Context, storeID string, req CheckoutRequest) (*CheckoutResponse, error)
}

type service struct {
	orders      order.Service
	gateways    payment.Registry
	frontendURL string
	log         zerolog.Logger
}

func NewService(orders order.Service, gateways payment.Registry, frontendURL string, log zerolog.Logger) Service {
	return &service{
		orders:      orders,
		gateways:    gateways,
		frontendURL: frontendURL,
		log:         log.With().Str("component", "checkout").Logger(),
	}
}

func (s *service) Checkout(ctx context.Context, storeID string, req CheckoutRequest) (*CheckoutResponse, error) {
	if len(req.Products) == 0 {
		return nil, order.ErrEmptyCart
	}
	if req.ShippingDetails == nil {
		return nil, ErrShippingRequired
	}
	sd := req.ShippingDetails
	if sd.AddressLine1 == "" || sd.Country == "" || sd.PhoneNumber == "" {
		return nil, ErrShippingRequired
	}

	providerName := payment.Provider(strings.ToUpper(req.Provider))
	if providerName == "" {
		providerName = payment.ProviderPesapal
	}
	gateway, ok := s.gateways[providerName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, providerName)
	}

	location := req.Location
	if location == "" {
		location = sd.Country
	}
	currency := ResolveCurrency(location)

	o, err := s.orders.Create(ctx, order.CreateOrderRequest{
		StoreID:  storeID,
		Provider: string(providerName),
		Phone:    sd.PhoneNumber,
		Address:  sd.AddressLine1,
		Items:    req.Products,
		Shipping: &order.ShippingDetails{
			AddressLine1: sd.AddressLine1,
			AddressLine2: sd.AddressLine2,
			City:         sd.City,
			State:        sd.State,
			ZipCode:      sd.ZipCode,
			Country:      sd.Country,
			PhoneNumber:  sd.PhoneNumber,
		},
		Currency:   currency.Code,
		Multiplier: currency.Multiplier,
	})
	if err != nil {
		return nil, err
	}

	callbackURL := fmt.Sprintf("%s/api/%s/checkout/callback?orderId=%s", s.frontendURL, storeID, o.ID)
	cancelURL := fmt.Sprintf("%s/cart", s.frontendURL)

	submitted, err := gateway.SubmitOrder(ctx, &payment.SubmitOrderRequest{
		OrderID:         o.ID.String(),
		StoreID:         storeID,
		Amount:          o.Total,
		Currency:        o.Currency,
		Description:     fmt.Sprintf("Order %s", o.ID),
		CallbackURL:     callbackURL,
		CancellationURL: cancelURL,
		Billing: payment.BillingAddress{
			PhoneNumber: sd.PhoneNumber,
			Email:       req.Email,
			Line1:       sd.AddressLine1,
			Line2:       sd.AddressLine2,
			City:        sd.City,
			State:       sd.State,
			PostalCode:  sd.ZipCode,
			CountryCode: sd.Country,
		},
	})
	if err != nil {
		// Compensate: the order row survives as FAILED, the stock goes back.
		s.log.Error().Err(err).Str("order_id", o.ID.String()).Str("provider", string(providerName)).
			Msg("order submission failed, rolling back stock")
		if rbErr := s.orders.FailAndRestock(ctx, o.ID.String()); rbErr != nil {
			s.log.Error().Err(rbErr).Str("order_id", o.ID.String()).Msg("compensating restock failed")
		}
		return nil, err
	}

	if err := s.orders.SetTracking(ctx, o.ID.String(), submitted.TrackingID); err != nil {
		return nil, err
	}

	return &CheckoutResponse{OrderID: o.ID.String(), URL: submitted.RedirectURL}, nil
}
