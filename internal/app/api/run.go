package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"

	storefrontserver "github.com/Apurer/go-gin-storefront/go"

	orderworkflows "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/workflows"
	orderports "github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-storefront/internal/platform/metrics"
	platformobservability "github.com/Apurer/go-gin-storefront/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-gin-storefront/internal/platform/postgres"
)

const serviceName = "storefront-api"

// Run boots the storefront HTTP API with observability, storage, and workflows wired.
// It returns when ctx is cancelled and the server has drained.
func Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName, platformobservability.WithLogLevel(cfg.LogLevel))
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	deps, cleanup, err := BuildDependencies(ctx, cfg, instruments)
	if err != nil {
		return err
	}
	defer cleanup()

	checks := map[string]storefrontserver.HealthCheck{}
	if deps.Persistent() {
		db := deps.DB
		checks["postgres"] = func(ctx context.Context) error { return platformpostgres.Ping(ctx, db) }
	}

	var temporalClient client.Client
	if deps.Persistent() {
		temporalClient, err = ConnectTemporal(cfg, instruments, "temporal-client")
		if err != nil {
			logger.Warn("Temporal workflows unavailable, running checkout inline", slog.String("error", err.Error()))
			temporalClient = nil
		} else {
			defer temporalClient.Close()
			checks["temporal"] = func(ctx context.Context) error {
				_, err := temporalClient.CheckHealth(ctx, &client.CheckHealthRequest{})
				return err
			}
			logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
		}
	} else {
		logger.Info("in-memory stores are private to this process, running checkout inline")
	}
	checkout := selectCheckout(deps, temporalClient)

	// The worker relays the postgres outbox. Anything else has to be relayed here.
	if !deps.Persistent() || temporalClient == nil {
		relay := deps.NewRelay(cfg, logger)
		go relay.Run(ctx)
		logger.Info("outbox relay running in API process")
	}

	handlers := storefrontserver.ApiHandleFunctions{
		AuthAPI:       storefrontserver.NewAuthAPI(deps.Accounts),
		OrdersAPI:     storefrontserver.NewOrdersAPI(deps.Orders, checkout),
		WebhooksAPI:   storefrontserver.NewWebhooksAPI(deps.Reconciler),
		HealthAPI:     storefrontserver.NewHealthAPI(checks),
		Authenticator: deps.Accounts,
	}
	serverMetrics := metrics.NewServerMetrics("api")
	router := gin.New()
	router.Use(gin.Recovery(), otelgin.Middleware(serviceName), serverMetrics.Middleware())
	router.GET("/metrics", gin.WrapH(serverMetrics.Handler()))
	storefrontserver.NewRouterWithGinEngine(router, handlers)

	return serve(ctx, logger, cfg.Addr(), router)
}

// selectCheckout runs checkouts as workflows only when the worker shares the API's
// PostgreSQL stores. Memory stores live in one process, so they always check out inline.
func selectCheckout(deps *Dependencies, temporalClient client.Client) orderports.CheckoutOrchestrator {
	if temporalClient == nil || !deps.Persistent() {
		return orderworkflows.NewInlineCheckout(deps.Orders)
	}
	return orderworkflows.NewTemporalCheckout(temporalClient)
}

func serve(ctx context.Context, logger *slog.Logger, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("storefront API listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("storefront API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down storefront API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
