package store

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sokohub/soko-backend/internal/modules/auth"
)

// Handler exposes store HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux, requireAuth func(http.Handler) http.Handler) {
	r.Route("/api/stores", func(r chi.Router) {
		r.With(requireAuth).Post("/", h.create)
		r.Get("/{id}", h.get)
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateStoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	st, err := h.service.Create(r.Context(), auth.UserID(r.Context()), req)
	if err != nil {
		code := http.StatusInternalServerError
		if strings.Contains(err.Error(), "required") || strings.Contains(err.Error(), "invalid") {
			code = http.StatusBadRequest
		}
		respond(w, code, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusCreated, st)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusNotFound, map[string]string{"error": "store not found"})
		return
	}
	respond(w, http.StatusOK, st)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
