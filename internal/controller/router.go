package controller

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cassiomorais/cardgateway/internal/config"
	customMW "github.com/cassiomorais/cardgateway/internal/middleware"
	"github.com/cassiomorais/cardgateway/internal/observability"
)

type RouterDeps struct {
	Pool           *pgxpool.Pool
	RedisClient    *redis.Client
	PaymentService PaymentOperations
	CardService    CardOperations
	ResponseCache  customMW.ResponseCache
	Metrics        *observability.Metrics
	CORSConfig     config.CORSConfig
	Logger         zerolog.Logger
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(customMW.Tracing())
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSConfig.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: deps.CORSConfig.AllowCredentials,
		MaxAge:           300,
	}))
	r.Use(customMW.Metrics(deps.Metrics))

	healthH := NewHealthController(deps.Pool, deps.RedisClient)
	paymentH := NewPaymentController(deps.PaymentService)
	cardH := NewCardController(deps.CardService)

	r.Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", healthH.Readiness)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Mutating charge endpoints are idempotency protected.
		idempotencyMW := customMW.Idempotency(deps.ResponseCache, deps.Logger)

		// Cards
		r.With(idempotencyMW).Post("/cards", cardH.Register)
		r.With(idempotencyMW).Post("/cards/{id}/profile", cardH.CreateProfile)

		// Payments
		r.With(idempotencyMW).Post("/payments", paymentH.Create)
		r.Get("/payments/{id}", paymentH.Get)
		r.Get("/orders/{id}/payments", paymentH.ListByOrder)
		r.With(idempotencyMW).Post("/payments/{id}/purchase", paymentH.Purchase)
		r.With(idempotencyMW).Post("/payments/{id}/authorize", paymentH.Authorize)
		r.With(idempotencyMW).Post("/payments/{id}/capture", paymentH.Capture)
		r.With(idempotencyMW).Post("/payments/{id}/refund", paymentH.Refund)
		r.With(idempotencyMW).Post("/payments/{id}/void", paymentH.Void)
	})

	return r
}
