package api

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	orderdomain "github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/platform/migrations"
)

// Config carries environment-driven settings for the API and worker processes.
// POSTGRES_DSN must use the URL form because migrations run through golang-migrate.
type Config struct {
	Port              string        `envconfig:"PORT" default:"8080"`
	PostgresDSN       string        `envconfig:"POSTGRES_DSN"`
	LogLevel          string        `envconfig:"LOG_LEVEL" default:"info"`
	TemporalAddress   string        `envconfig:"TEMPORAL_ADDRESS" default:"localhost:7233"`
	TemporalNamespace string        `envconfig:"TEMPORAL_NAMESPACE" default:"default"`
	TemporalDisabled  bool          `envconfig:"TEMPORAL_DISABLED"`
	KafkaBrokers      string        `envconfig:"KAFKA_BROKERS"`
	OrderEventsTopic  string        `envconfig:"ORDER_EVENTS_TOPIC" default:"storefront.orders"`
	OutboxInterval    time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"2s"`
	ShippingFlatRate  string        `envconfig:"SHIPPING_FLAT_RATE" default:"10.00"`
	TaxRate           string        `envconfig:"TAX_RATE" default:"0.08"`
	SessionTTL        time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	AdminEmail        string        `envconfig:"ADMIN_EMAIL"`
	AdminPassword     string        `envconfig:"ADMIN_PASSWORD"`
	CatalogSeedFile   string        `envconfig:"CATALOG_SEED_FILE"`

	PayPalAPIBase      string `envconfig:"PAYPAL_API_BASE" default:"https://api-m.sandbox.paypal.com"`
	PayPalClientID     string `envconfig:"PAYPAL_CLIENT_ID"`
	PayPalClientSecret string `envconfig:"PAYPAL_CLIENT_SECRET"`
	PayPalWebhookID    string `envconfig:"PAYPAL_WEBHOOK_ID"`

	WebhookSharedSecret    string `envconfig:"WEBHOOK_SHARED_SECRET"`
	WebhookSignatureHeader string `envconfig:"WEBHOOK_SIGNATURE_HEADER"`
}

// LoadConfig reads an optional .env file, then the environment, and validates the result.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values envconfig cannot express.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	if c.PostgresDSN != "" {
		if err := migrations.CheckDSN(c.PostgresDSN); err != nil {
			errs = append(errs, fmt.Errorf("POSTGRES_DSN: %w", err))
		}
	}
	if c.OutboxInterval <= 0 {
		errs = append(errs, errors.New("OUTBOX_POLL_INTERVAL must be positive"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if _, err := c.Pricing(); err != nil {
		errs = append(errs, err)
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		errs = append(errs, errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together"))
	}
	if c.PayPalWebhookID != "" && (c.PayPalClientID == "" || c.PayPalClientSecret == "") {
		errs = append(errs, errors.New("PAYPAL_WEBHOOK_ID requires PAYPAL_CLIENT_ID and PAYPAL_CLIENT_SECRET"))
	}
	return errors.Join(errs...)
}

// Pricing parses the shipping and tax settings.
func (c Config) Pricing() (orderdomain.PricingPolicy, error) {
	shipping, err := decimal.NewFromString(strings.TrimSpace(c.ShippingFlatRate))
	if err != nil || shipping.IsNegative() {
		return orderdomain.PricingPolicy{}, fmt.Errorf("SHIPPING_FLAT_RATE must be a non-negative amount, got %q", c.ShippingFlatRate)
	}
	tax, err := decimal.NewFromString(strings.TrimSpace(c.TaxRate))
	if err != nil || tax.IsNegative() || tax.GreaterThan(decimal.NewFromInt(1)) {
		return orderdomain.PricingPolicy{}, fmt.Errorf("TAX_RATE must be a fraction between 0 and 1, got %q", c.TaxRate)
	}
	return orderdomain.PricingPolicy{ShippingFlatRate: shipping, TaxRate: tax}, nil
}

// Addr is the listen address derived from Port.
func (c Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}

// PayPalVerificationEnabled reports whether remote PayPal signature checks are configured.
func (c Config) PayPalVerificationEnabled() bool {
	return c.PayPalWebhookID != ""
}
