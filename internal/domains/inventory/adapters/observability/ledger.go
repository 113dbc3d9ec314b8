package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/go-gin-storefront/internal/domains/inventory/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/inventory/ports"
)

const tracerName = "github.com/Apurer/go-gin-storefront/internal/domains/inventory/adapters/observability/ledger"

// Ledger decorates a stock ledger with tracing, logging, and metrics.
type Ledger struct {
	inner   ports.Ledger
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics ledgerMetrics
}

type Option func(*Ledger)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(l *Ledger) {
		l.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(l *Ledger) {
		l.metrics = newLedgerMetrics(m)
	}
}

// New wraps the ledger.
func New(inner ports.Ledger, opts ...Option) ports.Ledger {
	l := &Ledger{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: newLedgerMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	if l.tracer == nil {
		l.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return l
}

func (l *Ledger) Reserve(ctx context.Context, lines []domain.Line) error {
	ctx, span := l.tracer.Start(ctx, "InventoryLedger.Reserve", trace.WithAttributes(attribute.Int("reservation.lines", len(lines))))
	defer span.End()

	err := l.inner.Reserve(ctx, lines)
	if err != nil {
		var stockErr *domain.InsufficientStockError
		if errors.As(err, &stockErr) {
			l.metrics.recordRejected(ctx)
			span.SetAttributes(attribute.Int("reservation.shortages", len(stockErr.Shortages)))
			l.logger.LogAttrs(ctx, slog.LevelInfo, "reservation rejected", slog.String("reason", err.Error()))
			return err
		}
		return l.handleError(ctx, span, err, "reservation failed")
	}
	l.metrics.recordReserved(ctx, lines)
	return nil
}

func (l *Ledger) Release(ctx context.Context, lines []domain.Line) error {
	ctx, span := l.tracer.Start(ctx, "InventoryLedger.Release", trace.WithAttributes(attribute.Int("reservation.lines", len(lines))))
	defer span.End()

	if err := l.inner.Release(ctx, lines); err != nil {
		return l.handleError(ctx, span, err, "stock release failed")
	}
	l.logger.LogAttrs(ctx, slog.LevelInfo, "stock released", slog.Int("reservation.lines", len(lines)))
	return nil
}

func (l *Ledger) Available(ctx context.Context, productID string) (int, error) {
	return l.inner.Available(ctx, productID)
}

func (l *Ledger) handleError(ctx context.Context, span trace.Span, err error, msg string) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	l.logger.LogAttrs(ctx, slog.LevelError, msg, slog.String("error", err.Error()))
	return err
}

type ledgerMetrics struct {
	unitsReserved metric.Int64Counter
	rejected      metric.Int64Counter
}

func newLedgerMetrics(m metric.Meter) ledgerMetrics {
	if m == nil {
		return ledgerMetrics{}
	}
	unitsReserved, _ := m.Int64Counter("inventory.ledger.units_reserved", metric.WithDescription("Units of stock reserved"))
	rejected, _ := m.Int64Counter("inventory.ledger.reservations_rejected", metric.WithDescription("Reservations rejected for insufficient stock"))
	return ledgerMetrics{unitsReserved: unitsReserved, rejected: rejected}
}

func (m ledgerMetrics) recordReserved(ctx context.Context, lines []domain.Line) {
	if m.unitsReserved == nil {
		return
	}
	var units int64
	for _, line := range lines {
		units += int64(line.Quantity)
	}
	m.unitsReserved.Add(ctx, units)
}

func (m ledgerMetrics) recordRejected(ctx context.Context) {
	if m.rejected != nil {
		m.rejected.Add(ctx, 1)
	}
}

var _ ports.Ledger = (*Ledger)(nil)
