package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/cassiomorais/cardgateway/internal/bootstrap"
	"github.com/cassiomorais/cardgateway/internal/controller"
	"github.com/cassiomorais/cardgateway/internal/gateway"
	"github.com/cassiomorais/cardgateway/internal/providers/stripecard"
	appRedis "github.com/cassiomorais/cardgateway/internal/redis"
	"github.com/cassiomorais/cardgateway/internal/repository/postgres"
	"github.com/cassiomorais/cardgateway/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, "cardgateway-api", "cardgateway")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	// --- Repositories ---
	orderRepo := postgres.NewOrderRepository(app.Pool)
	cardRepo := postgres.NewCardRepository(app.Pool)
	paymentRepo := postgres.NewPaymentRepository(app.Pool)
	txManager := postgres.NewTxManager(app.Pool)

	// --- Provider and gateway ---
	provider := stripecard.New(stripecard.Config{
		BaseURL:                 app.Config.Stripe.APIBase,
		SecretKey:               app.Config.Stripe.SecretKey,
		RequestTimeout:          app.Config.Stripe.RequestTimeout,
		MaxRetries:              app.Config.Stripe.MaxRetries,
		RetryDelay:              app.Config.Stripe.RetryDelay,
		CircuitBreakerThreshold: app.Config.Stripe.CircuitBreakerThreshold,
		CircuitBreakerTimeout:   app.Config.Stripe.CircuitBreakerTimeout,
	}, app.Metrics, app.Logger)

	gw := gateway.New(provider, gateway.Credentials{
		SecretKey:      app.Config.Stripe.SecretKey,
		PublishableKey: app.Config.Stripe.PublishableKey,
	}, app.Logger)

	// --- Service ---
	paymentService := service.NewPaymentService(
		paymentRepo, orderRepo, cardRepo, gw, txManager, app.Metrics, app.Logger,
	)

	// --- Router ---
	responseCache := appRedis.NewIdempotencyCache(app.Redis, app.Config.Redis.IdempotencyTTL)
	router := controller.NewRouter(controller.RouterDeps{
		Pool:           app.Pool,
		RedisClient:    app.Redis,
		PaymentService: paymentService,
		CardService:    paymentService,
		ResponseCache:  responseCache,
		Metrics:        app.Metrics,
		CORSConfig:     app.Config.Server.CORS,
		Logger:         app.Logger,
	})

	addr := fmt.Sprintf(":%d", app.Config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.Logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		app.Logger.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		app.Logger.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}
	app.Logger.Info().Msg("Server exited")
}
