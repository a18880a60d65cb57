package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sokohub/soko-backend/internal/modules/auth"
)

// StoreOwnership resolves the owning user of a store. Satisfied by the store
// repository.
type StoreOwnership interface {
	Owner(ctx context.Context, storeID string) (string, error)
}

// Handler exposes catalog HTTP endpoints. Reads are public (the storefront
// lists products); mutations require a session owning the store.
type Handler struct {
	service Service
	stores  StoreOwnership
}

func NewHandler(service Service, stores StoreOwnership) *Handler {
	return &Handler{service: service, stores: stores}
}

func (h *Handler) RegisterRoutes(r *chi.Mux, requireAuth func(http.Handler) http.Handler) {
	r.Route("/api/{storeId}/products", func(r chi.Router) {
		r.Get("/", h.list)
		r.Get("/{productId}", h.get)
		r.With(requireAuth).Post("/", h.create)
		r.With(requireAuth).Patch("/{productId}", h.update)
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "storeId")
	if !h.ownsStore(w, r, storeID) {
		return
	}

	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	p, err := h.service.Create(r.Context(), storeID, req)
	if err != nil {
		code := http.StatusInternalServerError
		if strings.Contains(err.Error(), "required") || strings.Contains(err.Error(), "invalid") ||
			strings.Contains(err.Error(), "must be") || strings.Contains(err.Error(), "negative") {
			code = http.StatusBadRequest
		}
		respond(w, code, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, p)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": "product not found"})
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("all") == ""
	products, err := h.service.ListByStore(r.Context(), chi.URLParam(r, "storeId"), activeOnly)
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]string{"error": "Internal error"})
		return
	}
	respond(w, http.StatusOK, products)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	if !h.ownsStore(w, r, chi.URLParam(r, "storeId")) {
		return
	}

	var req UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	p, err := h.service.Update(r.Context(), chi.URLParam(r, "productId"), req)
	if err != nil {
		code := http.StatusInternalServerError
		if strings.Contains(err.Error(), "not found") {
			code = http.StatusNotFound
		} else if strings.Contains(err.Error(), "must be") || strings.Contains(err.Error(), "negative") {
			code = http.StatusBadRequest
		}
		respond(w, code, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, p)
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
