package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// Gateway is the provider-agnostic interface every payment adapter must
// implement. To add a new provider, implement this interface and register it.
type Gateway interface {
	// SubmitOrder registers the order with the provider and returns the
	// provider tracking id plus the hosted payment page URL.
	SubmitOrder(ctx context.Context, req *SubmitOrderRequest) (*SubmitOrderResponse, error)

	// TransactionStatus queries the provider for the current status of a
	// submitted order.
	TransactionStatus(ctx context.Context, trackingID string) (*TransactionStatus, error)
}

// Registry maps provider names to their Gateway implementations.
type Registry map[Provider]Gateway

// IPNStore persists a provider notification registration per store. Satisfied
// by the store repository.
type IPNStore interface {
	IPNRegistration(ctx context.Context, storeID string) (ipnID string, ipnURL string, err error)
	SaveIPNRegistration(ctx context.Context, storeID, ipnID, ipnURL string) error
}

var (
	ErrAuthFailed       = errors.New("provider authentication failed")
	ErrSubmissionFailed = errors.New("order submission rejected by provider")
	ErrTrackingMissing  = errors.New("provider response lacks a tracking id")
	ErrRedirectMissing  = errors.New("provider response lacks a redirect url")
)

// stringFromMap tries multiple keys and returns the first non-empty string
// value. Provider responses are loosely typed and field names drift between
// API versions, so every adapter normalises through this.
func stringFromMap(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func floatFromMap(m map[string]interface{}, keys ...string) float64 {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			switch n := v.(type) {
			case float64:
				return n
			case int:
				return float64(n)
			}
		}
	}
	return 0
}

func decimalFromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}
