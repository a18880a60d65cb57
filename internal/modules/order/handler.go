package order

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/sokohub/soko-backend/internal/modules/auth"
)

// StoreOwnership resolves the owning user of a store. Satisfied by the store
// repository.
type StoreOwnership interface {
	Owner(ctx context.Context, storeID string) (string, error)
}

// Handler exposes the order admin HTTP endpoints. Mutations require a session
// owning the store.
type Handler struct {
	service Service
	stores  StoreOwnership
	log     zerolog.Logger
}

func NewHandler(service Service, stores StoreOwnership, log zerolog.Logger) *Handler {
	return &Handler{service: service, stores: stores, log: log.With().Str("component", "orders").Logger()}
}

func (h *Handler) RegisterRoutes(r *chi.Mux, requireAuth func(http.Handler) http.Handler) {
	r.Route("/api/{storeId}/orders", func(r chi.Router) {
		r.Get("/", h.list)
		r.Get("/{orderId}", h.get)
		r.With(requireAuth).Patch("/{orderId}", h.update)
		r.With(requireAuth).Delete("/{orderId}", h.remove)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "storeId")
	if storeID == "" {
		http.Error(w, "Store ID is required", http.StatusBadRequest)
		return
	}

	orders, err := h.service.ListByStore(r.Context(), storeID)
	if err != nil {
		h.log.Error().Err(err).Str("store_id", storeID).Msg("list orders failed")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	respond(w, http.StatusOK, orders)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.Get(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			respond(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		h.log.Error().Err(err).Msg("get order failed")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	if !h.ownsStore(w, r, chi.URLParam(r, "storeId")) {
		return
	}

	var req AdminUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	o, err := h.service.UpdateAdmin(r.Context(), chi.URLParam(r, "orderId"), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrOrderNotFound):
			respond(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		case strings.Contains(err.Error(), "invalid"):
			respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			h.log.Error().Err(err).Msg("update order failed")
			http.Error(w, "Internal error", http.StatusInternalServerError)
		}
		return
	}
	respond(w, http.StatusOK, o)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if !h.ownsStore(w, r, chi.URLParam(r, "storeId")) {
		return
	}

	if err := h.service.Delete(r.Context(), chi.URLParam(r, "orderId")); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			respond(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		h.log.Error().Err(err).Msg("delete order failed")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	respond(w, http.StatusOK, map[string]string{"status": "order deleted"})
}

// ownsStore writes the error response and returns false when the session user
// does not own the store. The 405 status mirrors the storefront admin client's
// existing contract.
func (h *Handler) ownsStore(w http.ResponseWriter, r *http.Request, storeID string) bool {
	owner, err := h.stores.Owner(r.Context(), storeID)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "store not found"})
		return false
	}
	if owner != auth.UserID(r.Context()) {
		http.Error(w, "Unauthorized", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
