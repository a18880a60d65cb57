package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

const flutterwaveBaseURL = "https://api.flutterwave.com/v3"

// flutterwaveGateway drives the Flutterwave v3 hosted payments API. The
// transaction reference is our order id, so the order id doubles as the
// tracking id for this provider.
type flutterwaveGateway struct {
	secretKey string
	baseURL   string
	client    *http.Client
	log       zerolog.Logger
}

// NewFlutterwaveGateway creates the Flutterwave adapter. baseURL overrides
// the live endpoint when non-empty.
func NewFlutterwaveGateway(secretKey, baseURL string, log zerolog.Logger) Gateway {
	if baseURL == "" {
		baseURL = flutterwaveBaseURL
	}
	return &flutterwaveGateway{
		secretKey: secretKey,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: 30 * time.Second},
		log:       log.With().Str("component", "flutterwave").Logger(),
	}
}

func (g *flutterwaveGateway) SubmitOrder(ctx context.Context, req *SubmitOrderRequest) (*SubmitOrderResponse, error) {
	if g.secretKey == "" {
		return nil, fmt.Errorf("%w: secret key not configured", ErrAuthFailed)
	}

	amount, _ := req.Amount.Round(2).Float64()
	body := map[string]interface{}{
		"tx_ref":       req.OrderID,
		"amount":       amount,
		"currency":     req.Currency,
		"redirect_url": req.CallbackURL,
		"customer": map[string]string{
			"email":       req.Billing.Email,
			"phonenumber": req.Billing.PhoneNumber,
			"name":        req.Billing.FirstName + " " + req.Billing.LastName,
		},
		"customizations": map[string]string{
			"description": req.Description,
		},
	}

	raw, err := g.postJSON(ctx, "/payments", body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}
	if stringFromMap(raw, "status") != "success" {
		return nil, fmt.Errorf("%w: %s", ErrSubmissionFailed, stringFromMap(raw, "message"))
	}

	data, _ := raw["data"].(map[string]interface{})
	if data == nil {
		return nil, ErrRedirectMissing
	}
	link := stringFromMap(data, "link")
	if link == "" {
		return nil, ErrRedirectMissing
	}
	return &SubmitOrderResponse{TrackingID: req.OrderID, RedirectURL: link}, nil
}

func (g *flutterwaveGateway) TransactionStatus(ctx context.Context, trackingID string) (*TransactionStatus, error) {
	if g.secretKey == "" {
		return nil, fmt.Errorf("%w: secret key not configured", ErrAuthFailed)
	}

	endpoint := g.baseURL + "/transactions/verify_by_reference?tx_ref=" + url.QueryEscape(trackingID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.secretKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transaction verification failed: %s", resp.Status)
	}

	var raw map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	data, _ := raw["data"].(map[string]interface{})
	if data == nil {
		return nil, fmt.Errorf("transaction verification error: %s", stringFromMap(raw, "message"))
	}

	code := CodeInvalid
	switch stringFromMap(data, "status") {
	case "successful":
		code = CodeCompleted
	case "failed":
		code = CodeFailed
	case "pending":
		code = CodePending
	}

	return &TransactionStatus{
		StatusCode:       code,
		Description:      stringFromMap(data, "status"),
		Method:           stringFromMap(data, "payment_type"),
		ConfirmationCode: stringFromMap(data, "flw_ref"),
		Amount:           decimalFromFloat(floatFromMap(data, "amount")),
		Currency:         stringFromMap(data, "currency"),
		CreatedDate:      stringFromMap(data, "created_at"),
	}, nil
}

func (g *flutterwaveGateway) postJSON(ctx context.Context, path string, body interface{}) (map[string]interface{}, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.secretKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var raw map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}
