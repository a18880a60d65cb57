package order

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/sokohub/soko-backend/internal/modules/auth"
	"github.com/stretchr/testify/require"
)

type spyService struct {
	Service
	updateCalls int
	deleteCalls int
}

func (s *spyService) UpdateAdmin(ctx context.Context, orderID string, req AdminUpdateRequest) (*Order, error) {
	s.updateCalls++
	return &Order{}, nil
}

func (s *spyService) Delete(ctx context.Context, orderID string) error {
	s.deleteCalls++
	return nil
}

type staticOwnership struct{ owner string }

func (s staticOwnership) Owner(context.Context, string) (string, error) { return s.owner, nil }

func signToken(t *testing.T, secret, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &jwt.StandardClaims{
		Subject:   subject,
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestAdminPatchRejectsNonOwner(t *testing.T) {
	const secret = "test-secret"
	svc := &spyService{}
	router := chi.NewRouter()
	NewHandler(svc, staticOwnership{owner: "owner-a"}, zerolog.Nop()).
		RegisterRoutes(router, auth.Middleware(secret))

	req := httptest.NewRequest(http.MethodPatch, "/api/store-1/orders/order-1",
		strings.NewReader(`{"isPaid": true}`))
	req.Header.Set("Authorization", "Bearer "+signToken(t, secret, "intruder-b"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.Contains(t, rec.Body.String(), "Unauthorized")
	require.Zero(t, svc.updateCalls, "a rejected request must not mutate the order")
}

func TestAdminPatchAllowsOwner(t *testing.T) {
	const secret = "test-secret"
	svc := &spyService{}
	router := chi.NewRouter()
	NewHandler(svc, staticOwnership{owner: "owner-a"}, zerolog.Nop()).
		RegisterRoutes(router, auth.Middleware(secret))

	req := httptest.NewRequest(http.MethodPatch, "/api/store-1/orders/order-1",
		strings.NewReader(`{"isPaid": true}`))
	req.Header.Set("Authorization", "Bearer "+signToken(t, secret, "owner-a"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, svc.updateCalls)
}

func TestAdminDeleteRequiresToken(t *testing.T) {
	svc := &spyService{}
	router := chi.NewRouter()
	NewHandler(svc, staticOwnership{owner: "owner-a"}, zerolog.Nop()).
		RegisterRoutes(router, auth.Middleware("test-secret"))

	req := httptest.NewRequest(http.MethodDelete, "/api/store-1/orders/order-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Zero(t, svc.deleteCalls)
}
