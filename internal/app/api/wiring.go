package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	paypalclient "github.com/Apurer/go-gin-storefront/internal/clients/http/paypal"
	accountmemory "github.com/Apurer/go-gin-storefront/internal/domains/accounts/adapters/memory"
	accountsobs "github.com/Apurer/go-gin-storefront/internal/domains/accounts/adapters/observability"
	accountpostgres "github.com/Apurer/go-gin-storefront/internal/domains/accounts/adapters/persistence/postgres"
	accountapp "github.com/Apurer/go-gin-storefront/internal/domains/accounts/application"
	accountports "github.com/Apurer/go-gin-storefront/internal/domains/accounts/ports"
	inventorymemory "github.com/Apurer/go-gin-storefront/internal/domains/inventory/adapters/memory"
	inventoryobs "github.com/Apurer/go-gin-storefront/internal/domains/inventory/adapters/observability"
	inventorypostgres "github.com/Apurer/go-gin-storefront/internal/domains/inventory/adapters/persistence/postgres"
	"github.com/Apurer/go-gin-storefront/internal/domains/inventory/adapters/seed"
	inventoryports "github.com/Apurer/go-gin-storefront/internal/domains/inventory/ports"
	orderevents "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/events"
	ordermemory "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/memory"
	ordersobs "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/observability"
	orderpostgres "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/persistence/postgres"
	orderapp "github.com/Apurer/go-gin-storefront/internal/domains/orders/application"
	orderports "github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	paymentsobs "github.com/Apurer/go-gin-storefront/internal/domains/payments/adapters/observability"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/adapters/paypal"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/adapters/signature"
	paymentapp "github.com/Apurer/go-gin-storefront/internal/domains/payments/application"
	paymentports "github.com/Apurer/go-gin-storefront/internal/domains/payments/ports"
	"github.com/Apurer/go-gin-storefront/internal/platform/kafka"
	"github.com/Apurer/go-gin-storefront/internal/platform/migrations"
	platformobservability "github.com/Apurer/go-gin-storefront/internal/platform/observability"
	"github.com/Apurer/go-gin-storefront/internal/platform/outbox"
	platformpostgres "github.com/Apurer/go-gin-storefront/internal/platform/postgres"
)

// Dependencies is the wired application core shared by the API and the worker.
type Dependencies struct {
	DB         *gorm.DB
	Orders     orderports.Service
	Accounts   accountports.Service
	Reconciler paymentports.Reconciler
	Outbox     outbox.Store
	Publisher  outbox.Publisher
}

// Persistent reports whether the dependencies are backed by PostgreSQL.
func (d *Dependencies) Persistent() bool {
	return d.DB != nil
}

type stores struct {
	catalog     inventoryports.Catalog
	ledger      inventoryports.Ledger
	orders      orderports.Repository
	idempotency orderports.IdempotencyStore
	tx          orderports.Transactor
	accounts    accountports.Repository
	sessions    accountports.SessionStore
	outbox      outbox.Store
}

// BuildDependencies connects storage and wires every service. Without a usable
// POSTGRES_DSN it falls back to in-memory adapters.
func BuildDependencies(ctx context.Context, cfg Config, instruments *platformobservability.Instruments) (*Dependencies, func(), error) {
	logger := instruments.Logger
	db, cleanup := platformpostgres.ConnectOptional(ctx, cfg.PostgresDSN, logger)
	if db != nil {
		if err := migrations.Run(cfg.PostgresDSN); err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("database migrations applied")
	}
	st := buildStores(db)

	if cfg.CatalogSeedFile != "" {
		n, err := seed.LoadFile(ctx, cfg.CatalogSeedFile, st.catalog)
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("seed catalog: %w", err)
		}
		logger.Info("catalog seeded", slog.Int("products", n), slog.String("file", cfg.CatalogSeedFile))
	}

	pricing, err := cfg.Pricing()
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	ledger := inventoryobs.New(st.ledger,
		inventoryobs.WithLogger(logger),
		inventoryobs.WithTracer(instruments.Tracer("internal.inventory.ledger")),
		inventoryobs.WithMeter(instruments.Meter("internal.inventory.ledger")),
	)
	coreOrders := orderapp.NewService(st.orders, st.catalog, ledger,
		orderapp.WithTransactor(st.tx),
		orderapp.WithEventRecorder(orderevents.NewOutboxRecorder(st.outbox, cfg.OrderEventsTopic)),
		orderapp.WithIdempotencyStore(st.idempotency),
		orderapp.WithPricing(pricing),
		orderapp.WithLogger(logger),
	)
	orders := ordersobs.New(coreOrders,
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)

	coreAccounts := accountapp.NewService(st.accounts, st.sessions, accountapp.WithSessionTTL(cfg.SessionTTL))
	accounts := accountsobs.New(coreAccounts,
		accountsobs.WithLogger(logger),
		accountsobs.WithTracer(instruments.Tracer("internal.accounts.application")),
		accountsobs.WithMeter(instruments.Meter("internal.accounts.application")),
	)
	if cfg.AdminEmail != "" {
		if _, err := accounts.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("bootstrap admin account: %w", err)
		}
		logger.Info("admin account ensured", slog.String("email", cfg.AdminEmail))
	}

	verifier, err := buildPayPalVerifier(cfg, logger)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	coreReconciler := paymentapp.NewReconciler(orders,
		paymentapp.WithProvider(paypal.ProviderName, verifier, paypal.Decoder{}),
		paymentapp.WithLogger(logger),
	)
	reconciler := paymentsobs.New(coreReconciler,
		paymentsobs.WithLogger(logger),
		paymentsobs.WithTracer(instruments.Tracer("internal.payments.application")),
		paymentsobs.WithMeter(instruments.Meter("internal.payments.application")),
	)

	publisher, closePublisher := buildPublisher(cfg, logger)
	return &Dependencies{
			DB:         db,
			Orders:     orders,
			Accounts:   accounts,
			Reconciler: reconciler,
			Outbox:     st.outbox,
			Publisher:  publisher,
		}, func() {
			closePublisher()
			cleanup()
		}, nil
}

func buildStores(db *gorm.DB) stores {
	if db == nil {
		stock := inventorymemory.NewStore()
		return stores{
			catalog:     stock,
			ledger:      stock,
			orders:      ordermemory.NewRepository(),
			idempotency: ordermemory.NewIdempotencyStore(),
			tx:          orderports.Serialized(),
			accounts:    accountmemory.NewRepository(),
			sessions:    accountmemory.NewSessionStore(),
			outbox:      outbox.NewMemoryStore(),
		}
	}
	return stores{
		catalog:     inventorypostgres.NewCatalog(db),
		ledger:      inventorypostgres.NewLedger(db),
		orders:      orderpostgres.NewRepository(db),
		idempotency: orderpostgres.NewIdempotencyStore(db),
		tx:          platformpostgres.NewTransactor(db),
		accounts:    accountpostgres.NewRepository(db),
		sessions:    accountpostgres.NewSessionStore(db),
		outbox:      outbox.NewPostgresStore(db),
	}
}

// buildPayPalVerifier prefers PayPal's verification API, then a shared secret,
// and otherwise rejects every delivery.
func buildPayPalVerifier(cfg Config, logger *slog.Logger) (paymentports.Verifier, error) {
	switch {
	case cfg.PayPalVerificationEnabled():
		client, err := paypalclient.NewClient(cfg.PayPalAPIBase, cfg.PayPalClientID, cfg.PayPalClientSecret, nil)
		if err != nil {
			return nil, fmt.Errorf("configure paypal client: %w", err)
		}
		logger.Info("paypal webhooks verified remotely", slog.String("api", cfg.PayPalAPIBase))
		return paypal.NewVerifier(client, cfg.PayPalWebhookID), nil
	case cfg.WebhookSharedSecret != "":
		verifier, err := signature.NewHMAC(cfg.WebhookSharedSecret, cfg.WebhookSignatureHeader)
		if err != nil {
			return nil, err
		}
		logger.Info("paypal webhooks verified with shared secret")
		return verifier, nil
	default:
		logger.Warn("no webhook verification configured, payment webhooks will be rejected")
		return signature.RejectAll{}, nil
	}
}

func buildPublisher(cfg Config, logger *slog.Logger) (outbox.Publisher, func()) {
	publisher, err := kafka.NewPublisher(kafka.ParseBrokers(cfg.KafkaBrokers))
	if err != nil {
		if !errors.Is(err, kafka.ErrDisabled) {
			logger.Warn("kafka publisher unavailable, logging order events instead", slog.String("error", err.Error()))
		}
		return outbox.LogPublisher{Logger: logger}, func() {}
	}
	logger.Info("order events published to kafka", slog.String("brokers", cfg.KafkaBrokers))
	return publisher, func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("failed to close kafka publisher", slog.String("error", err.Error()))
		}
	}
}

// NewRelay builds the outbox relay for these dependencies.
func (d *Dependencies) NewRelay(cfg Config, logger *slog.Logger) *outbox.Relay {
	return outbox.NewRelay(d.Outbox, d.Publisher,
		outbox.WithLogger(logger),
		outbox.WithInterval(cfg.OutboxInterval),
	)
}
