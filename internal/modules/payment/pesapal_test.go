package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type memIPNStore struct {
	mu   sync.Mutex
	ipns map[string][2]string
}

func newMemIPNStore() *memIPNStore { return &memIPNStore{ipns: map[string][2]string{}} }

func (m *memIPNStore) IPNRegistration(_ context.Context, storeID string) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reg := m.ipns[storeID]
	return reg[0], reg[1], nil
}

func (m *memIPNStore) SaveIPNRegistration(_ context.Context, storeID, ipnID, ipnURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ipns[storeID] = [2]string{ipnID, ipnURL}
	return nil
}

// fakePesapal is a local stand-in for the provider API.
type fakePesapal struct {
	authCalls   int
	ipnCalls    int
	submitCalls int
	submitBody  map[string]interface{}
	statusBody  map[string]interface{}
}

func (f *fakePesapal) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/Auth/RequestToken", func(w http.ResponseWriter, r *http.Request) {
		f.authCalls++
		json.NewEncoder(w).Encode(map[string]interface{}{
			"token":      "tok-1",
			"expiryDate": time.Now().Add(5 * time.Minute).Format(time.RFC3339),
			"error":      nil,
		})
	})
	mux.HandleFunc("/URLSetup/RegisterIPN", func(w http.ResponseWriter, r *http.Request) {
		f.ipnCalls++
		json.NewEncoder(w).Encode(map[string]interface{}{
			"ipn_id": "ipn-123",
			"url":    "https://store.example/api/s1/checkout/callback",
			"status": "200",
		})
	})
	mux.HandleFunc("/Transactions/SubmitOrderRequest", func(w http.ResponseWriter, r *http.Request) {
		f.submitCalls++
		json.NewEncoder(w).Encode(f.submitBody)
	})
	mux.HandleFunc("/Transactions/GetTransactionStatus", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(f.statusBody)
	})
	return httptest.NewServer(mux)
}

func newTestGateway(t *testing.T, f *fakePesapal, ipns IPNStore) Gateway {
	t.Helper()
	srv := f.server(t)
	t.Cleanup(srv.Close)
	return NewPesapalGateway(PesapalConfig{
		ConsumerKey:    "key",
		ConsumerSecret: "secret",
		BaseURL:        srv.URL,
	}, ipns, "https://store.example", zerolog.Nop())
}

func submitReq(storeID string) *SubmitOrderRequest {
	return &SubmitOrderRequest{
		OrderID:     "order-1",
		StoreID:     storeID,
		Amount:      decimal.RequireFromString("25.50"),
		Currency:    "USD",
		Description: "Order order-1",
		CallbackURL: "https://store.example/api/s1/checkout/callback",
	}
}

func TestSubmitOrderCachesAuthToken(t *testing.T) {
	f := &fakePesapal{submitBody: map[string]interface{}{
		"order_tracking_id": "trk-1",
		"redirect_url":      "https://pay.example/trk-1",
	}}
	gw := newTestGateway(t, f, newMemIPNStore())

	_, err := gw.SubmitOrder(context.Background(), submitReq("s1"))
	require.NoError(t, err)
	_, err = gw.SubmitOrder(context.Background(), submitReq("s1"))
	require.NoError(t, err)

	require.Equal(t, 1, f.authCalls, "second submit must reuse the cached token")
	require.Equal(t, 2, f.submitCalls)
}

func TestSubmitOrderRegistersIPNOncePerStore(t *testing.T) {
	f := &fakePesapal{submitBody: map[string]interface{}{
		"order_tracking_id": "trk-1",
		"redirect_url":      "https://pay.example/trk-1",
	}}
	ipns := newMemIPNStore()
	gw := newTestGateway(t, f, ipns)

	_, err := gw.SubmitOrder(context.Background(), submitReq("s1"))
	require.NoError(t, err)
	_, err = gw.SubmitOrder(context.Background(), submitReq("s1"))
	require.NoError(t, err)

	require.Equal(t, 1, f.ipnCalls, "registration must be reused from the store record")
	id, url, _ := ipns.IPNRegistration(context.Background(), "s1")
	require.Equal(t, "ipn-123", id)
	require.NotEmpty(t, url)
}

func TestSubmitOrderNormalisesFieldVariants(t *testing.T) {
	f := &fakePesapal{submitBody: map[string]interface{}{
		"tracking_id": "trk-variant",
		"payment_url": "https://pay.example/trk-variant",
	}}
	gw := newTestGateway(t, f, newMemIPNStore())

	resp, err := gw.SubmitOrder(context.Background(), submitReq("s1"))
	require.NoError(t, err)
	require.Equal(t, "trk-variant", resp.TrackingID)
	require.Equal(t, "https://pay.example/trk-variant", resp.RedirectURL)
}

func TestSubmitOrderMissingTracking(t *testing.T) {
	f := &fakePesapal{submitBody: map[string]interface{}{
		"redirect_url": "https://pay.example/x",
	}}
	gw := newTestGateway(t, f, newMemIPNStore())

	_, err := gw.SubmitOrder(context.Background(), submitReq("s1"))
	require.ErrorIs(t, err, ErrTrackingMissing)
}

func TestSubmitOrderMissingRedirect(t *testing.T) {
	f := &fakePesapal{submitBody: map[string]interface{}{
		"order_tracking_id": "trk-1",
	}}
	gw := newTestGateway(t, f, newMemIPNStore())

	_, err := gw.SubmitOrder(context.Background(), submitReq("s1"))
	require.ErrorIs(t, err, ErrRedirectMissing)
}

func TestTransactionStatus(t *testing.T) {
	f := &fakePesapal{statusBody: map[string]interface{}{
		"status_code":                1,
		"payment_status_description": "COMPLETED",
		"payment_method":             "MPESA",
		"confirmation_code":          "ABC123",
		"payment_account":            "254700000000",
		"amount":                     25.5,
		"currency":                   "KES",
		"created_date":               "2026-08-29T10:00:00Z",
	}}
	gw := newTestGateway(t, f, newMemIPNStore())

	ts, err := gw.TransactionStatus(context.Background(), "trk-1")
	require.NoError(t, err)
	require.Equal(t, CodeCompleted, ts.StatusCode)
	require.Equal(t, "COMPLETED", ts.Description)
	require.Equal(t, "MPESA", ts.Method)
	require.Equal(t, "ABC123", ts.ConfirmationCode)
	require.Equal(t, "KES", ts.Currency)
}

func TestAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	gw := NewPesapalGateway(PesapalConfig{
		ConsumerKey:    "key",
		ConsumerSecret: "secret",
		BaseURL:        srv.URL,
	}, newMemIPNStore(), "https://store.example", zerolog.Nop())

	_, err := gw.SubmitOrder(context.Background(), submitReq("s1"))
	require.ErrorIs(t, err, ErrAuthFailed)
}

func TestMissingCredentials(t *testing.T) {
	gw := NewPesapalGateway(PesapalConfig{BaseURL: "http://127.0.0.1:0"},
		newMemIPNStore(), "https://store.example", zerolog.Nop())

	_, err := gw.SubmitOrder(context.Background(), submitReq("s1"))
	require.ErrorIs(t, err, ErrAuthFailed)
}
