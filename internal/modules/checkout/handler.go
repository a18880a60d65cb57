package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/sokohub/soko-backend/internal/modules/order"
)

// ipnAck is the acknowledgment shape the payment provider expects from its
// notification endpoint. Delivery failures are signalled through the embedded
// status, never through the HTTP status, so the provider does not retry
// forever against an order we will never know.
type ipnAck struct {
	OrderNotificationType  string `json:"orderNotificationType"`
	OrderTrackingID        string `json:"orderTrackingId"`
	OrderMerchantReference string `json:"orderMerchantReference"`
	Status                 int    `json:"status"`
}

// Handler exposes the public checkout endpoints consumed by the storefront
// and the payment provider.
type Handler struct {
	service    Service
	reconciler *Reconciler
	log        zerolog.Logger
}

func NewHandler(service Service, reconciler *Reconciler, log zerolog.Logger) *Handler {
	return &Handler{
		service:    service,
		reconciler: reconciler,
		log:        log.With().Str("component", "checkout").Logger(),
	}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/{storeId}/checkout", func(r chi.Router) {
		r.Options("/", h.preflight)
		r.Post("/", h.checkout)
		r.Get("/callback", h.callback)
	})
}

// The storefront runs on a different origin than this API.
var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":      "*",
	"Access-Control-Allow-Methods":     "GET,HEAD,PUT,PATCH,POST,DELETE,OPTIONS",
	"Access-Control-Allow-Headers":     "Content-Type, Authorization, Accept",
	"Access-Control-Allow-Credentials": "true",
}

func setCORS(w http.ResponseWriter) {
	for k, v := range corsHeaders {
		w.Header().Set(k, v)
	}
}

func (h *Handler) preflight(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	setCORS(w)
	storeID := chi.URLParam(r, "storeId")

	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	resp, err := h.service.Checkout(r.Context(), storeID, req)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrEmptyCart):
			respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Need at least 1 product"})
		case errors.Is(err, ErrShippingRequired):
			respondJSON(w, http.StatusBadRequest, map[string]string{"error": "Shipping details are required"})
		case errors.Is(err, order.ErrProductNotFound), errors.Is(err, order.ErrInsufficientStock),
			errors.Is(err, ErrUnknownProvider):
			respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			h.log.Error().Err(err).Str("store_id", storeID).Msg("checkout failed")
			respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal error"})
		}
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// callback serves both the provider IPN (OrderTrackingId query parameter) and
// storefront status polls (orderId query parameter).
func (h *Handler) callback(w http.ResponseWriter, r *http.Request) {
	setCORS(w)

	trackingID := r.URL.Query().Get("OrderTrackingId")
	merchantRef := r.URL.Query().Get("OrderMerchantReference")
	orderID := r.URL.Query().Get("orderId")

	if trackingID != "" {
		h.handleIPN(w, r, trackingID, merchantRef)
		return
	}
	if orderID != "" {
		h.handlePoll(w, r, orderID)
		return
	}
	respondJSON(w, http.StatusOK, ipnAck{
		OrderNotificationType: "IPNCHANGE",
		Status:                http.StatusInternalServerError,
	})
}

func (h *Handler) handleIPN(w http.ResponseWriter, r *http.Request, trackingID, merchantRef string) {
	ack := ipnAck{
		OrderNotificationType:  "IPNCHANGE",
		OrderTrackingID:        trackingID,
		OrderMerchantReference: merchantRef,
		Status:                 http.StatusOK,
	}

	if _, _, err := h.reconciler.ByTracking(r.Context(), trackingID); err != nil {
		if !errors.Is(err, order.ErrOrderNotFound) {
			h.log.Error().Err(err).Str("tracking_id", trackingID).Msg("ipn reconciliation failed")
		}
		ack.Status = http.StatusInternalServerError
	}
	respondJSON(w, http.StatusOK, ack)
}

func (h *Handler) handlePoll(w http.ResponseWriter, r *http.Request, orderID string) {
	o, details, err := h.reconciler.ByOrderID(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			respondJSON(w, http.StatusOK, ipnAck{
				OrderNotificationType:  "IPNCHANGE",
				OrderMerchantReference: orderID,
				Status:                 http.StatusInternalServerError,
			})
			return
		}
		h.log.Error().Err(err).Str("order_id", orderID).Msg("status poll failed")
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal error"})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  o.Status,
		"isPaid":  o.IsPaid,
		"details": details,
	})
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
