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

	accountdomain "github.com/Apurer/go-gin-storefront/internal/domains/accounts/domain"
	accountports "github.com/Apurer/go-gin-storefront/internal/domains/accounts/ports"
	"github.com/Apurer/go-gin-storefront/internal/shared/auth"
)

const tracerName = "github.com/Apurer/go-gin-storefront/internal/domains/accounts/adapters/observability/service"

// Service decorates the account service with tracing, logging, and metrics.
// Authenticate runs on every request and is traced but not logged on success.
type Service struct {
	inner   accountports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) { s.tracer = tr }
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) { s.metrics = newServiceMetrics(m) }
}

// New wraps the core account service.
func New(inner accountports.Service, opts ...Option) accountports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
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
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

func (s *Service) Register(ctx context.Context, email, name, password string) (*accountdomain.Account, error) {
	ctx, span := s.tracer.Start(ctx, "AccountService.Register")
	defer span.End()
	result, err := s.inner.Register(ctx, email, name, password)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to register account")
	}
	s.metrics.recordRegistered(ctx)
	s.logger.LogAttrs(ctx, slog.LevelInfo, "account registered", slog.String("account.id", result.ID))
	return result, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*accountdomain.Account, *accountdomain.Session, error) {
	ctx, span := s.tracer.Start(ctx, "AccountService.Login")
	defer span.End()
	account, session, err := s.inner.Login(ctx, email, password)
	if err != nil {
		s.metrics.recordLogin(ctx, false)
		return nil, nil, s.handleError(ctx, span, err, "login failed")
	}
	s.metrics.recordLogin(ctx, true)
	span.SetAttributes(attribute.String("account.id", account.ID))
	s.logger.LogAttrs(ctx, slog.LevelInfo, "account logged in", slog.String("account.id", account.ID))
	return account, session, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	ctx, span := s.tracer.Start(ctx, "AccountService.Logout")
	defer span.End()
	if err := s.inner.Logout(ctx, token); err != nil {
		return s.handleError(ctx, span, err, "logout failed")
	}
	return nil
}

func (s *Service) Authenticate(ctx context.Context, token string) (auth.Principal, error) {
	ctx, span := s.tracer.Start(ctx, "AccountService.Authenticate")
	defer span.End()
	principal, err := s.inner.Authenticate(ctx, token)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return auth.Principal{}, err
	}
	span.SetAttributes(attribute.String("user.id", principal.UserID), attribute.Bool("user.admin", principal.IsAdmin))
	return principal, nil
}

func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (*accountdomain.Account, error) {
	ctx, span := s.tracer.Start(ctx, "AccountService.EnsureAdmin")
	defer span.End()
	result, err := s.inner.EnsureAdmin(ctx, email, password)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to bootstrap admin account")
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "admin account ready", slog.String("account.id", result.ID), slog.String("account.email", result.Email))
	return result, nil
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	attrs = append(attrs, slog.String("error", err.Error()))
	s.logger.LogAttrs(ctx, slog.LevelWarn, msg, attrs...)
	return err
}

type serviceMetrics struct {
	registered metric.Int64Counter
	logins     metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	registered, _ := m.Int64Counter("accounts.service.registered", metric.WithDescription("Number of accounts registered"))
	logins, _ := m.Int64Counter("accounts.service.logins", metric.WithDescription("Login attempts by result"))
	return serviceMetrics{registered: registered, logins: logins}
}

func (m serviceMetrics) recordRegistered(ctx context.Context) {
	if m.registered != nil {
		m.registered.Add(ctx, 1)
	}
}

func (m serviceMetrics) recordLogin(ctx context.Context, ok bool) {
	if m.logins != nil {
		m.logins.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", ok)))
	}
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
