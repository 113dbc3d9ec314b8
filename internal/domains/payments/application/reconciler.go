package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	ordertypes "github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	orderports "github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/ports"
)

var _ ports.Reconciler = (*Reconciler)(nil)

// Reconciler verifies and decodes provider webhooks and settles the referenced order.
type Reconciler struct {
	orders    ports.OrderPayments
	providers map[string]ports.Provider
	logger    *slog.Logger
}

// Option customizes the reconciler.
type Option func(*Reconciler)

// WithProvider registers the verifier and decoder used for deliveries to name.
func WithProvider(name string, verifier ports.Verifier, decoder ports.Decoder) Option {
	return func(r *Reconciler) {
		r.providers[normalizeProvider(name)] = ports.Provider{Verifier: verifier, Decoder: decoder}
	}
}

// WithLogger sets the logger used for ignored and settled-after-cancel events.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewReconciler wires the order capture port and the registered providers.
func NewReconciler(orders ports.OrderPayments, opts ...Option) *Reconciler {
	r := &Reconciler{
		orders:    orders,
		providers: make(map[string]ports.Provider),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Apply runs one delivery. Verification always happens before the body is decoded.
func (r *Reconciler) Apply(ctx context.Context, delivery domain.Delivery) (domain.Outcome, error) {
	provider, ok := r.providers[normalizeProvider(delivery.Provider)]
	if !ok || provider.Verifier == nil || provider.Decoder == nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, delivery.Provider)
	}

	if err := provider.Verifier.Verify(ctx, delivery); err != nil {
		if errors.Is(err, ports.ErrSignatureInvalid) {
			return "", fmt.Errorf("%w: %w", ErrUntrustedEvent, err)
		}
		return "", fmt.Errorf("verify %s delivery: %w", delivery.Provider, err)
	}

	event, err := provider.Decoder.Decode(delivery.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	if err := event.Validate(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}

	if event.Type != domain.EventPaymentCaptured {
		r.logger.LogAttrs(ctx, slog.LevelInfo, "ignoring payment event",
			slog.String("payment.provider", delivery.Provider),
			slog.String("payment.event_id", event.ID),
			slog.String("payment.event_type", string(event.Type)),
		)
		return domain.OutcomeIgnored, nil
	}

	result, err := r.orders.CapturePayment(ctx, ordertypes.CapturePaymentInput{
		OrderID:          event.OrderReference,
		PaymentReference: event.PaymentReference,
	})
	if err != nil {
		if errors.Is(err, orderports.ErrNotFound) {
			return "", fmt.Errorf("%w: %s", ErrOrderNotFound, event.OrderReference)
		}
		return "", err
	}

	switch result.Outcome {
	case ordertypes.CaptureApplied:
		return domain.OutcomeApplied, nil
	case ordertypes.CaptureDuplicate:
		return domain.OutcomeDuplicate, nil
	default:
		r.logger.LogAttrs(ctx, slog.LevelWarn, "payment captured for an order that can no longer be paid",
			slog.String("order.id", event.OrderReference),
			slog.String("order.status", string(result.Order.Status)),
			slog.String("payment.reference", event.PaymentReference),
		)
		return domain.OutcomeIgnored, nil
	}
}

func normalizeProvider(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
