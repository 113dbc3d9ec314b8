package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/go-gin-storefront/internal/domains/payments/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/ports"
)

const tracerName = "github.com/Apurer/go-gin-storefront/internal/domains/payments/adapters/observability/reconciler"

// Reconciler decorates webhook reconciliation with tracing, logging, and metrics.
type Reconciler struct {
	inner      ports.Reconciler
	tracer     trace.Tracer
	logger     *slog.Logger
	deliveries metric.Int64Counter
}

type Option func(*Reconciler)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(r *Reconciler) {
		r.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(r *Reconciler) {
		if m == nil {
			return
		}
		r.deliveries, _ = m.Int64Counter("payments.webhook.deliveries", metric.WithDescription("Webhook deliveries by provider and outcome"))
	}
}

// New wraps a reconciler.
func New(inner ports.Reconciler, opts ...Option) ports.Reconciler {
	r := &Reconciler{
		inner:  inner,
		tracer: nooptrace.NewTracerProvider().Tracer(tracerName),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.tracer == nil {
		r.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r
}

func (r *Reconciler) Apply(ctx context.Context, delivery domain.Delivery) (domain.Outcome, error) {
	ctx, span := r.tracer.Start(ctx, "PaymentReconciler.Apply",
		trace.WithAttributes(attribute.String("payment.provider", delivery.Provider), attribute.Int("http.request.body.size", len(delivery.Body))))
	defer span.End()

	outcome, err := r.inner.Apply(ctx, delivery)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.record(ctx, delivery.Provider, "error")
		r.logger.LogAttrs(ctx, slog.LevelError, "webhook delivery rejected",
			slog.String("payment.provider", delivery.Provider),
			slog.String("error", err.Error()),
		)
		return "", err
	}
	span.SetAttributes(attribute.String("payment.outcome", string(outcome)))
	r.record(ctx, delivery.Provider, string(outcome))
	r.logger.LogAttrs(ctx, slog.LevelInfo, "webhook delivery handled",
		slog.String("payment.provider", delivery.Provider),
		slog.String("payment.outcome", string(outcome)),
	)
	return outcome, nil
}

func (r *Reconciler) record(ctx context.Context, provider, outcome string) {
	if r.deliveries == nil {
		return
	}
	r.deliveries.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", provider), attribute.String("outcome", outcome)))
}
