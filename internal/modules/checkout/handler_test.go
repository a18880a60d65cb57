package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/sokohub/soko-backend/internal/modules/order"
	"github.com/sokohub/soko-backend/internal/modules/payment"
)

func newTestRouter(svc Service, rec *Reconciler) *chi.Mux {
	router := chi.NewRouter()
	NewHandler(svc, rec, zerolog.Nop()).RegisterRoutes(router)
	return router
}

func TestCheckoutEndpointRejectsEmptyCart(t *testing.T) {
	_, svc := checkoutFixture(&fakeGateway{})
	_, rec := reconcilerFixture(&fakeGateway{})
	router := newTestRouter(svc, rec)

	req := httptest.NewRequest(http.MethodPost, "/api/store-1/checkout/",
		strings.NewReader(`{"products": []}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "Need at least 1 product")
}

func TestCheckoutEndpointReturnsRedirect(t *testing.T) {
	gw := &fakeGateway{submitResp: &payment.SubmitOrderResponse{
		TrackingID:  "trk-1",
		RedirectURL: "https://pay.example/trk-1",
	}}
	_, svc := checkoutFixture(gw)
	_, rec := reconcilerFixture(gw)
	router := newTestRouter(svc, rec)

	body, err := json.Marshal(validRequest())
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/11111111-1111-1111-1111-111111111111/checkout/",
		strings.NewReader(string(body)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp CheckoutResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "https://pay.example/trk-1", resp.URL)
	require.NotEmpty(t, resp.OrderID)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCallbackIPNAcknowledges(t *testing.T) {
	gw := &fakeGateway{status: &payment.TransactionStatus{StatusCode: payment.CodeCompleted}}
	orders, rec := reconcilerFixture(gw)
	orders.seed(trackedOrder("trk-1"))
	_, svc := checkoutFixture(gw)
	router := newTestRouter(svc, rec)

	req := httptest.NewRequest(http.MethodGet,
		"/api/store-1/checkout/callback?OrderTrackingId=trk-1&OrderMerchantReference=order-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var ack ipnAck
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))
	require.Equal(t, "IPNCHANGE", ack.OrderNotificationType)
	require.Equal(t, "trk-1", ack.OrderTrackingID)
	require.Equal(t, "order-1", ack.OrderMerchantReference)
	require.Equal(t, http.StatusOK, ack.Status)

	o, _ := orders.GetByTracking(context.Background(), "trk-1")
	require.True(t, o.IsPaid)
}

func TestCallbackIPNUnknownTracking(t *testing.T) {
	gw := &fakeGateway{}
	_, rec := reconcilerFixture(gw)
	_, svc := checkoutFixture(gw)
	router := newTestRouter(svc, rec)

	req := httptest.NewRequest(http.MethodGet,
		"/api/store-1/checkout/callback?OrderTrackingId=trk-ghost", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// The provider always gets HTTP 200; the failure rides in the ack body.
	require.Equal(t, http.StatusOK, w.Code)
	var ack ipnAck
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))
	require.Equal(t, http.StatusInternalServerError, ack.Status)
}

func TestCallbackPollReturnsOrderState(t *testing.T) {
	gw := &fakeGateway{status: &payment.TransactionStatus{
		StatusCode: payment.CodeCompleted,
		Method:     "MPESA",
	}}
	orders, rec := reconcilerFixture(gw)
	o := trackedOrder("trk-1")
	orders.seed(o)
	_, svc := checkoutFixture(gw)
	router := newTestRouter(svc, rec)

	req := httptest.NewRequest(http.MethodGet,
		"/api/store-1/checkout/callback?orderId="+o.ID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Status  string                     `json:"status"`
		IsPaid  bool                       `json:"isPaid"`
		Details *payment.TransactionStatus `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, string(order.StatusCompleted), resp.Status)
	require.True(t, resp.IsPaid)
	require.Equal(t, "MPESA", resp.Details.Method)
}

func TestCallbackPollUnknownOrder(t *testing.T) {
	gw := &fakeGateway{}
	_, rec := reconcilerFixture(gw)
	_, svc := checkoutFixture(gw)
	router := newTestRouter(svc, rec)

	req := httptest.NewRequest(http.MethodGet,
		"/api/store-1/checkout/callback?orderId=order-ghost", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var ack ipnAck
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))
	require.Equal(t, http.StatusInternalServerError, ack.Status)
	require.Equal(t, "order-ghost", ack.OrderMerchantReference)
}

func TestCallbackWithoutIdentifiers(t *testing.T) {
	gw := &fakeGateway{}
	_, rec := reconcilerFixture(gw)
	_, svc := checkoutFixture(gw)
	router := newTestRouter(svc, rec)

	req := httptest.NewRequest(http.MethodGet, "/api/store-1/checkout/callback", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var ack ipnAck
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))
	require.Equal(t, http.StatusInternalServerError, ack.Status)
}
