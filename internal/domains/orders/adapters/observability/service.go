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

	inventorydomain "github.com/Apurer/go-gin-storefront/internal/domains/inventory/domain"
	ordertypes "github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	orderdomain "github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	orderports "github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-storefront/internal/shared/auth"
)

const tracerName = "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/observability/service"

// Service decorates the order service with tracing, logging, and metrics.
type Service struct {
	inner   orderports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core order service.
func New(inner orderports.Service, opts ...Option) orderports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) CreateOrder(ctx context.Context, input ordertypes.PlaceOrderInput) (*orderdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CreateOrder",
		trace.WithAttributes(attribute.String("user.id", input.Principal.UserID), attribute.Int("order.lines", len(input.Items))))
	defer span.End()

	s.logInfo(ctx, "creating order", slog.String("user.id", input.Principal.UserID), slog.Int("order.lines", len(input.Items)))
	result, err := s.inner.CreateOrder(ctx, input)
	if err != nil {
		s.metrics.recordRejected(ctx, err)
		return nil, s.handleError(ctx, span, err, "failed to create order", slog.String("user.id", input.Principal.UserID))
	}
	span.SetAttributes(attribute.String("order.id", result.ID), attribute.String("order.total", result.Totals.Total().StringFixed(2)))
	s.metrics.recordCreated(ctx, result.PaymentMethod)
	s.logInfo(ctx, "order created", slog.String("order.id", result.ID), slog.String("order.total", result.Totals.Total().StringFixed(2)))
	return result, nil
}

func (s *Service) ListOrders(ctx context.Context, principal auth.Principal) ([]*orderdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListOrders",
		trace.WithAttributes(attribute.String("user.id", principal.UserID), attribute.Bool("user.admin", principal.IsAdmin)))
	defer span.End()

	result, err := s.inner.ListOrders(ctx, principal)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders", slog.String("user.id", principal.UserID))
	}
	span.SetAttributes(attribute.Int("orders.count", len(result)))
	return result, nil
}

func (s *Service) GetOrder(ctx context.Context, principal auth.Principal, id string) (*orderdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetOrder", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	result, err := s.inner.GetOrder(ctx, principal, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.String("order.id", id), slog.String("user.id", principal.UserID))
	}
	return result, nil
}

func (s *Service) UpdateStatus(ctx context.Context, input ordertypes.UpdateStatusInput) (*orderdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.UpdateStatus",
		trace.WithAttributes(attribute.String("order.id", input.OrderID), attribute.String("order.target_status", string(input.Status))))
	defer span.End()

	s.logInfo(ctx, "updating order status", slog.String("order.id", input.OrderID), slog.String("status", string(input.Status)))
	result, err := s.inner.UpdateStatus(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update order status", slog.String("order.id", input.OrderID))
	}
	s.metrics.recordTransition(ctx, result.Status)
	s.logInfo(ctx, "order status updated", slog.String("order.id", result.ID), slog.String("status", string(result.Status)))
	return result, nil
}

func (s *Service) CapturePayment(ctx context.Context, input ordertypes.CapturePaymentInput) (*ordertypes.CaptureResult, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CapturePayment", trace.WithAttributes(attribute.String("order.id", input.OrderID)))
	defer span.End()

	result, err := s.inner.CapturePayment(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to capture payment", slog.String("order.id", input.OrderID))
	}
	span.SetAttributes(attribute.String("payment.outcome", string(result.Outcome)))
	if result.Outcome == ordertypes.CaptureApplied {
		s.metrics.recordTransition(ctx, result.Order.Status)
	}
	s.logInfo(ctx, "payment capture handled",
		slog.String("order.id", input.OrderID),
		slog.String("payment.reference", input.PaymentReference),
		slog.String("payment.outcome", string(result.Outcome)),
	)
	return result, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

type serviceMetrics struct {
	ordersCreated  metric.Int64Counter
	ordersRejected metric.Int64Counter
	transitions    metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	ordersCreated, _ := m.Int64Counter("orders.service.orders_created", metric.WithDescription("Number of orders created"))
	ordersRejected, _ := m.Int64Counter("orders.service.orders_rejected", metric.WithDescription("Number of checkouts rejected"))
	transitions, _ := m.Int64Counter("orders.service.status_transitions", metric.WithDescription("Number of applied status transitions"))
	return serviceMetrics{ordersCreated: ordersCreated, ordersRejected: ordersRejected, transitions: transitions}
}

func (m serviceMetrics) recordCreated(ctx context.Context, method orderdomain.PaymentMethod) {
	if m.ordersCreated != nil {
		m.ordersCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("payment.method", string(method))))
	}
}

func (m serviceMetrics) recordRejected(ctx context.Context, err error) {
	if m.ordersRejected == nil {
		return
	}
	reason := "error"
	if errors.Is(err, inventorydomain.ErrInsufficientStock) {
		reason = "insufficient_stock"
	}
	m.ordersRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m serviceMetrics) recordTransition(ctx context.Context, status orderdomain.Status) {
	if m.transitions != nil {
		m.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("order.status", string(status))))
	}
}

var _ orderports.Service = (*Service)(nil)
