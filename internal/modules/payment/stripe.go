package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const stripeBaseURL = "https://api.stripe.com/v1"

// stripeGateway drives Stripe Checkout: a hosted session is the tracking
// unit, its URL the redirect target.
type stripeGateway struct {
	secretKey string
	baseURL   string
	client    *http.Client
	log       zerolog.Logger
}

// NewStripeGateway creates the Stripe adapter. baseURL overrides the live
// endpoint when non-empty.
func NewStripeGateway(secretKey, baseURL string, log zerolog.Logger) Gateway {
	if baseURL == "" {
		baseURL = stripeBaseURL
	}
	return &stripeGateway{
		secretKey: secretKey,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: 30 * time.Second},
		log:       log.With().Str("component", "stripe").Logger(),
	}
}

func (g *stripeGateway) SubmitOrder(ctx context.Context, req *SubmitOrderRequest) (*SubmitOrderResponse, error) {
	if g.secretKey == "" {
		return nil, fmt.Errorf("%w: secret key not configured", ErrAuthFailed)
	}

	// Stripe amounts are integer minor units.
	unitAmount := req.Amount.Mul(decimalFromFloat(100)).Round(0).String()

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", req.CallbackURL)
	form.Set("cancel_url", req.CancellationURL)
	form.Set("client_reference_id", req.OrderID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", strings.ToLower(req.Currency))
	form.Set("line_items[0][price_data][unit_amount]", unitAmount)
	form.Set("line_items[0][price_data][product_data][name]", req.Description)
	if req.Billing.Email != "" {
		form.Set("customer_email", req.Billing.Email)
	}

	raw, err := g.do(ctx, http.MethodPost, "/checkout/sessions", form)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}

	resp := &SubmitOrderResponse{
		TrackingID:  stringFromMap(raw, "id"),
		RedirectURL: stringFromMap(raw, "url"),
	}
	if resp.TrackingID == "" {
		return nil, ErrTrackingMissing
	}
	if resp.RedirectURL == "" {
		return nil, ErrRedirectMissing
	}
	return resp, nil
}

func (g *stripeGateway) TransactionStatus(ctx context.Context, trackingID string) (*TransactionStatus, error) {
	if g.secretKey == "" {
		return nil, fmt.Errorf("%w: secret key not configured", ErrAuthFailed)
	}

	raw, err := g.do(ctx, http.MethodGet, "/checkout/sessions/"+url.PathEscape(trackingID), nil)
	if err != nil {
		return nil, err
	}

	paymentStatus := stringFromMap(raw, "payment_status")
	sessionStatus := stringFromMap(raw, "status")

	code := CodeInvalid
	description := "PENDING"
	switch {
	case paymentStatus == "paid":
		code = CodeCompleted
		description = "COMPLETED"
	case sessionStatus == "expired":
		code = CodeFailed
		description = "FAILED"
	case sessionStatus == "open" || paymentStatus == "unpaid":
		// Customer is still on the hosted page; not a terminal state.
		code = CodePending
	}

	return &TransactionStatus{
		StatusCode:       code,
		Description:      description,
		Method:           "card",
		ConfirmationCode: stringFromMap(raw, "payment_intent"),
		Amount:           decimalFromFloat(floatFromMap(raw, "amount_total") / 100),
		Currency:         strings.ToUpper(stringFromMap(raw, "currency")),
	}, nil
}

func (g *stripeGateway) do(ctx context.Context, method, path string, form url.Values) (map[string]interface{}, error) {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var raw map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	if errObj, ok := raw["error"].(map[string]interface{}); ok {
		return nil, fmt.Errorf("stripe error: %s", stringFromMap(errObj, "message", "type"))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}
	return raw, nil
}
