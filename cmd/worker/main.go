package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-gin-storefront/internal/app/api"
	platformobservability "github.com/Apurer/go-gin-storefront/internal/platform/observability"
	checkoutactivities "github.com/Apurer/go-gin-storefront/internal/platform/temporal/activities/checkout"
	checkoutworkflows "github.com/Apurer/go-gin-storefront/internal/platform/temporal/workflows/checkout"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	const serviceName = "storefront-worker"

	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName, platformobservability.WithLogLevel(cfg.LogLevel))
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	deps, cleanup, err := api.BuildDependencies(ctx, cfg, instruments)
	if err != nil {
		logger.Error("failed to wire dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cleanup()
	if !deps.Persistent() {
		logger.Error("worker requires POSTGRES_DSN, in-memory stores are not shared with the API")
		cleanup()
		os.Exit(1)
	}

	temporalClient, err := api.ConnectTemporal(cfg, instruments, "temporal-worker")
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	relay := deps.NewRelay(cfg, logger)
	go relay.Run(ctx)

	checkoutActivities := checkoutactivities.NewActivities(deps.Orders)
	w := worker.New(temporalClient, checkoutworkflows.CheckoutTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(checkoutworkflows.CheckoutWorkflow, workflow.RegisterOptions{Name: checkoutworkflows.CheckoutWorkflowName})
	w.RegisterActivityWithOptions(checkoutActivities.PlaceOrder, activity.RegisterOptions{Name: checkoutactivities.PlaceOrderActivityName})

	logger.Info("worker listening", slog.String("taskQueue", checkoutworkflows.CheckoutTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(interruptOn(ctx)); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}

func interruptOn(ctx context.Context) <-chan interface{} {
	ch := make(chan interface{}, 1)
	go func() {
		<-ctx.Done()
		ch <- struct{}{}
	}()
	return ch
}
