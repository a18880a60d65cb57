package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("APP_PORT", "")
	t.Setenv("PESAPAL_ENV", "")

	cfg := Load()
	require.Equal(t, DefaultJWTSecret, cfg.JWTSecret)
	require.Equal(t, "8080", cfg.AppPort)
	require.Equal(t, "sandbox", cfg.PesapalEnvironment)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "prod-secret")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("PESAPAL_ENV", "production")
	t.Setenv("STRIPE_SECRET_KEY", "sk_live_1")

	cfg := Load()
	require.Equal(t, "prod-secret", cfg.JWTSecret)
	require.Equal(t, "9090", cfg.AppPort)
	require.Equal(t, "production", cfg.PesapalEnvironment)
	require.Equal(t, "sk_live_1", cfg.StripeSecretKey)
	require.NotEqual(t, DefaultJWTSecret, cfg.JWTSecret)
}
