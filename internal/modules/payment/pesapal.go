package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	pesapalSandboxURL    = "https://cybqa.pesapal.com/v3/api"
	pesapalProductionURL = "https://pay.pesapal.com/v3/api"

	// Fallback token lifetime when the provider returns an unparseable expiry.
	pesapalTokenFallbackTTL = 5 * time.Minute
)

// PesapalConfig holds the merchant credentials. BaseURL overrides the
// environment-derived endpoint when set (tests point it at a local server).
type PesapalConfig struct {
	ConsumerKey    string
	ConsumerSecret string
	Environment    string // sandbox | production
	BaseURL        string
}

type cachedToken struct {
	value  string
	expiry time.Time
}

func (t cachedToken) valid(now time.Time) bool {
	return t.value != "" && now.Before(t.expiry)
}

type pesapalGateway struct {
	cfg         PesapalConfig
	baseURL     string
	frontendURL string
	client      *http.Client
	ipns        IPNStore
	log         zerolog.Logger

	mu      sync.Mutex
	token   cachedToken
	refresh singleflight.Group
}

// NewPesapalGateway creates the Pesapal adapter. The IPN registration is
// fetched from ipns and registered with the provider on first use per store.
func NewPesapalGateway(cfg PesapalConfig, ipns IPNStore, frontendURL string, log zerolog.Logger) Gateway {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		if cfg.Environment == "production" {
			baseURL = pesapalProductionURL
		} else {
			baseURL = pesapalSandboxURL
		}
	}
	return &pesapalGateway{
		cfg:         cfg,
		baseURL:     baseURL,
		frontendURL: frontendURL,
		client:      &http.Client{Timeout: 30 * time.Second},
		ipns:        ipns,
		log:         log.With().Str("component", "pesapal").Logger(),
	}
}

// ── authentication ───────────────────────────────────────────────────────────

// authToken returns the cached token while it is valid; otherwise one refresh
// runs and concurrent callers share its result.
func (g *pesapalGateway) authToken(ctx context.Context) (string, error) {
	g.mu.Lock()
	if g.token.valid(time.Now()) {
		token := g.token.value
		g.mu.Unlock()
		return token, nil
	}
	g.mu.Unlock()

	v, err, _ := g.refresh.Do("token", func() (interface{}, error) {
		token, err := g.requestToken(ctx)
		if err != nil {
			return nil, err
		}
		g.mu.Lock()
		g.token = token
		g.mu.Unlock()
		return token.value, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (g *pesapalGateway) requestToken(ctx context.Context) (cachedToken, error) {
	if g.cfg.ConsumerKey == "" || g.cfg.ConsumerSecret == "" {
		return cachedToken{}, fmt.Errorf("%w: consumer credentials not configured", ErrAuthFailed)
	}

	body := map[string]string{
		"consumer_key":    g.cfg.ConsumerKey,
		"consumer_secret": g.cfg.ConsumerSecret,
	}
	var resp struct {
		Token      string          `json:"token"`
		ExpiryDate string          `json:"expiryDate"`
		Error      json.RawMessage `json:"error"`
	}
	if err := g.postJSON(ctx, g.baseURL+"/Auth/RequestToken", "", body, &resp); err != nil {
		g.log.Error().Err(err).Msg("authentication request failed")
		return cachedToken{}, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	if hasError(resp.Error) || resp.Token == "" {
		g.log.Error().RawJSON("provider_error", orNull(resp.Error)).Msg("authentication rejected")
		return cachedToken{}, ErrAuthFailed
	}

	expiry, err := time.Parse(time.RFC3339, resp.ExpiryDate)
	if err != nil {
		expiry = time.Now().Add(pesapalTokenFallbackTTL)
	}
	return cachedToken{value: resp.Token, expiry: expiry}, nil
}

// ── IPN registration ─────────────────────────────────────────────────────────

// ensureIPN returns the store's cached registration id, registering a new IPN
// URL with the provider exactly once per store.
func (g *pesapalGateway) ensureIPN(ctx context.Context, storeID, token string) (string, error) {
	ipnID, _, err := g.ipns.IPNRegistration(ctx, storeID)
	if err != nil {
		return "", fmt.Errorf("load ipn registration: %w", err)
	}
	if ipnID != "" {
		return ipnID, nil
	}

	ipnURL := fmt.Sprintf("%s/api/%s/checkout/callback", g.frontendURL, storeID)
	body := map[string]string{
		"url":                   ipnURL,
		"ipn_notification_type": "GET",
	}
	var resp struct {
		IPNID  string          `json:"ipn_id"`
		URL    string          `json:"url"`
		Status string          `json:"status"`
		Error  json.RawMessage `json:"error"`
	}
	if err := g.postJSON(ctx, g.baseURL+"/URLSetup/RegisterIPN", token, body, &resp); err != nil {
		return "", fmt.Errorf("register ipn: %w", err)
	}
	if hasError(resp.Error) || resp.IPNID == "" {
		return "", fmt.Errorf("register ipn rejected: %s", string(orNull(resp.Error)))
	}

	if err := g.ipns.SaveIPNRegistration(ctx, storeID, resp.IPNID, ipnURL); err != nil {
		return "", fmt.Errorf("save ipn registration: %w", err)
	}
	g.log.Info().Str("store_id", storeID).Str("ipn_id", resp.IPNID).Msg("registered ipn url")
	return resp.IPNID, nil
}

// ── order submission ─────────────────────────────────────────────────────────

func (g *pesapalGateway) SubmitOrder(ctx context.Context, req *SubmitOrderRequest) (*SubmitOrderResponse, error) {
	token, err := g.authToken(ctx)
	if err != nil {
		return nil, err
	}
	ipnID, err := g.ensureIPN(ctx, req.StoreID, token)
	if err != nil {
		return nil, err
	}

	amount, _ := req.Amount.Round(2).Float64()
	body := map[string]interface{}{
		"id":               req.OrderID,
		"currency":         req.Currency,
		"amount":           amount,
		"description":      req.Description,
		"callback_url":     req.CallbackURL,
		"cancellation_url": req.CancellationURL,
		"notification_id":  ipnID,
		"billing_address":  req.Billing,
	}

	var raw map[string]interface{}
	if err := g.postJSON(ctx, g.baseURL+"/Transactions/SubmitOrderRequest", token, body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}
	if errVal, ok := raw["error"]; ok && errVal != nil {
		return nil, fmt.Errorf("%w: %v", ErrSubmissionFailed, errVal)
	}

	// Field names have drifted across provider API versions; normalise the
	// known variants into one result and fail loudly when none match.
	resp := &SubmitOrderResponse{
		TrackingID:  stringFromMap(raw, "order_tracking_id", "tracking_id", "orderTrackingId"),
		RedirectURL: stringFromMap(raw, "redirect_url", "payment_url", "redirectUrl"),
	}
	if resp.TrackingID == "" {
		return nil, ErrTrackingMissing
	}
	if resp.RedirectURL == "" {
		return nil, ErrRedirectMissing
	}
	return resp, nil
}

// ── transaction status ───────────────────────────────────────────────────────

func (g *pesapalGateway) TransactionStatus(ctx context.Context, trackingID string) (*TransactionStatus, error) {
	token, err := g.authToken(ctx)
	if err != nil {
		return nil, err
	}

	statusURL := fmt.Sprintf("%s/Transactions/GetTransactionStatus?orderTrackingId=%s",
		g.baseURL, url.QueryEscape(trackingID))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	httpResp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transaction status check failed: %s", httpResp.Status)
	}

	var raw map[string]interface{}
	if err := json.NewDecoder(httpResp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	if errVal, ok := raw["error"]; ok && errVal != nil {
		return nil, fmt.Errorf("transaction status error: %v", errVal)
	}

	return &TransactionStatus{
		StatusCode:       int(floatFromMap(raw, "status_code")),
		Description:      stringFromMap(raw, "payment_status_description", "description"),
		Method:           stringFromMap(raw, "payment_method"),
		ConfirmationCode: stringFromMap(raw, "confirmation_code"),
		Account:          stringFromMap(raw, "payment_account"),
		Amount:           decimalFromFloat(floatFromMap(raw, "amount")),
		Currency:         stringFromMap(raw, "currency"),
		CreatedDate:      stringFromMap(raw, "created_date"),
		Message:          stringFromMap(raw, "message"),
	}, nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (g *pesapalGateway) postJSON(ctx context.Context, endpoint, token string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// hasError reports whether a provider "error" field carries a real error;
// the API sends JSON null for success.
func hasError(raw json.RawMessage) bool {
	s := string(bytes.TrimSpace(raw))
	return s != "" && s != "null" && s != `""`
}

func orNull(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return raw
}
