package main

import (
	"database/sql"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/sokohub/soko-backend/internal/config"
	"github.com/sokohub/soko-backend/internal/modules/auth"
	"github.com/sokohub/soko-backend/internal/modules/catalog"
	"github.com/sokohub/soko-backend/internal/modules/checkout"
	"github.com/sokohub/soko-backend/internal/modules/order"
	"github.com/sokohub/soko-backend/internal/modules/payment"
	"github.com/sokohub/soko-backend/internal/modules/store"
	"github.com/sokohub/soko-backend/internal/modules/user"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if cfg.JWTSecret == config.DefaultJWTSecret {
		log.Warn().Msg("JWT_SECRET is not set; admin tokens are signed with the development fallback")
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("ping database")
	}
	log.Info().Msg("connected to database")

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)

	requireAuth := auth.Middleware(cfg.JWTSecret)

	// ── Identity ────────────────────────────────────────────
	userRepo := user.NewPostgresRepository(db)
	userService := user.NewService(userRepo)
	user.NewHandler(userService).RegisterRoutes(router)

	authService := auth.NewService(userRepo, cfg.JWTSecret)
	auth.NewHandler(authService).RegisterRoutes(router)

	// ── Stores & Catalog ────────────────────────────────────
	storeRepo := store.NewPostgresRepository(db)
	storeService := store.NewService(storeRepo)
	store.NewHandler(storeService).RegisterRoutes(router, requireAuth)

	catalogRepo := catalog.NewPostgresRepository(db)
	catalogService := catalog.NewService(catalogRepo)
	catalog.NewHandler(catalogService, storeRepo).RegisterRoutes(router, requireAuth)

	// ── Orders ──────────────────────────────────────────────
	orderRepo := order.NewPostgresRepository(db)
	orderService := order.NewService(orderRepo)
	order.NewHandler(orderService, storeRepo, log).RegisterRoutes(router, requireAuth)

	// ── Payment gateways ────────────────────────────────────
	gateways := payment.Registry{
		payment.ProviderPesapal: payment.NewPesapalGateway(payment.PesapalConfig{
			ConsumerKey:    cfg.PesapalConsumerKey,
			ConsumerSecret: cfg.PesapalConsumerSecret,
			Environment:    cfg.PesapalEnvironment,
		}, storeRepo, cfg.FrontendStoreURL, log),
		payment.ProviderStripe:      payment.NewStripeGateway(cfg.StripeSecretKey, "", log),
		payment.ProviderFlutterwave: payment.NewFlutterwaveGateway(cfg.FlutterwaveSecretKey, "", log),
	}

	// ── Checkout & reconciliation ───────────────────────────
	checkoutService := checkout.NewService(orderService, gateways, cfg.FrontendStoreURL, log)
	reconciler := checkout.NewReconciler(orderService, gateways, log)
	checkout.NewHandler(checkoutService, reconciler, log).RegisterRoutes(router)

	// ── Start server ────────────────────────────────────────
	log.Info().Str("port", cfg.AppPort).Msg("api server starting")
	if err := http.ListenAndServe(":"+cfg.AppPort, router); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
