package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	inventorydomain "github.com/Apurer/go-gin-storefront/internal/domains/inventory/domain"
	inventoryports "github.com/Apurer/go-gin-storefront/internal/domains/inventory/ports"
	ordertypes "github.com/Apurer/go-gin-storefront/internal/domains/orders/application/types"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-storefront/internal/shared/auth"
)

// Service orchestrates checkout and the order lifecycle.
type Service struct {
	orders      ports.Repository
	catalog     inventoryports.Catalog
	ledger      inventoryports.Ledger
	tx          ports.Transactor
	events      ports.EventRecorder
	idempotency ports.IdempotencyStore
	pricing     domain.PricingPolicy
	clock       func() time.Time
	newID       func() string
	logger      *slog.Logger
}

// Option customizes the service.
type Option func(*Service)

// WithTransactor makes reservation, order insert and event recording one atomic unit.
func WithTransactor(tx ports.Transactor) Option {
	return func(s *Service) {
		if tx != nil {
			s.tx = tx
		}
	}
}

// WithEventRecorder sets where integration events are written.
func WithEventRecorder(events ports.EventRecorder) Option {
	return func(s *Service) {
		if events != nil {
			s.events = events
		}
	}
}

// WithIdempotencyStore enables Idempotency-Key handling on checkout.
func WithIdempotencyStore(store ports.IdempotencyStore) Option {
	return func(s *Service) {
		s.idempotency = store
	}
}

// WithPricing overrides the shipping and tax policy.
func WithPricing(policy domain.PricingPolicy) Option {
	return func(s *Service) {
		s.pricing = policy
	}
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator overrides order id generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithLogger sets the logger used for pricing drift warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService wires the order use cases.
func NewService(orders ports.Repository, catalog inventoryports.Catalog, ledger inventoryports.Ledger, opts ...Option) *Service {
	s := &Service{
		orders:  orders,
		catalog: catalog,
		ledger:  ledger,
		tx:      ports.Serialized(),
		events:  discardEvents{},
		pricing: domain.DefaultPricing(),
		clock:   func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// CreateOrder prices the request from the catalog, reserves stock and stores a pending order.
func (s *Service) CreateOrder(ctx context.Context, input ordertypes.PlaceOrderInput) (*domain.Order, error) {
	userID := strings.TrimSpace(input.Principal.UserID)
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	key := strings.TrimSpace(input.IdempotencyKey)
	useIdempotency := key != "" && s.idempotency != nil
	var fingerprint string
	if useIdempotency {
		key = scopedIdempotencyKey(userID, key)
		var err error
		fingerprint, err = FingerprintPlaceOrder(input)
		if err != nil {
			return nil, err
		}
		existing, err := s.replay(ctx, key, fingerprint)
		if err != nil || existing != nil {
			return existing, err
		}
	}

	items, err := s.priceItems(ctx, input.Items)
	if err != nil {
		return nil, mapError(err)
	}
	totals := s.pricing.Price(items)
	s.compareClientTotals(ctx, input.ClientTotals, totals)

	now := s.clock()
	order, err := domain.NewOrder(s.newID(), userID, items, trimAddress(input.ShippingAddress), domain.PaymentMethod(strings.TrimSpace(string(input.PaymentMethod))), totals, now)
	if err != nil {
		return nil, mapError(err)
	}
	order.ClientPaymentID = strings.TrimSpace(input.ClientPaymentID)

	var created *domain.Order
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if useIdempotency {
			// A concurrent checkout under the same key may have committed since the first lookup.
			existing, err := s.replay(ctx, key, fingerprint)
			if err != nil {
				return err
			}
			if existing != nil {
				created = existing
				return nil
			}
		}
		if err := s.ledger.Reserve(ctx, reservationLines(order.Items)); err != nil {
			return err
		}
		var err error
		created, err = s.orders.Create(ctx, order)
		if err != nil {
			return err
		}
		if err := s.events.Record(ctx, domain.OrderCreated(created)); err != nil {
			return err
		}
		if useIdempotency {
			return s.idempotency.Save(ctx, ports.IdempotencyRecord{
				Key:         key,
				RequestHash: fingerprint,
				OrderID:     created.ID,
				CreatedAt:   now,
			})
		}
		return nil
	})
	if err != nil {
		if useIdempotency && errors.Is(err, ports.ErrIdempotencyKeyExists) {
			existing, replayErr := s.replay(ctx, key, fingerprint)
			if replayErr != nil || existing != nil {
				return existing, replayErr
			}
		}
		return nil, mapError(err)
	}
	return created, nil
}

// ListOrders returns every order for admins and the caller's own orders otherwise, newest first.
func (s *Service) ListOrders(ctx context.Context, principal auth.Principal) ([]*domain.Order, error) {
	if strings.TrimSpace(principal.UserID) == "" {
		return nil, ErrUnauthenticated
	}
	filter := ports.ListFilter{}
	if !principal.IsAdmin {
		filter.UserID = principal.UserID
	}
	return s.orders.List(ctx, filter)
}

// GetOrder returns an order visible to the caller.
func (s *Service) GetOrder(ctx context.Context, principal auth.Principal, id string) (*domain.Order, error) {
	if strings.TrimSpace(principal.UserID) == "" {
		return nil, ErrUnauthenticated
	}
	order, err := s.orders.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if !principal.Owns(order.UserID) {
		return nil, ErrForbidden
	}
	return order, nil
}

// UpdateStatus lets an admin ship, deliver or cancel an order. Moving to
// processing is reserved for confirmed payments. Cancelling returns the stock.
func (s *Service) UpdateStatus(ctx context.Context, input ordertypes.UpdateStatusInput) (*domain.Order, error) {
	if strings.TrimSpace(input.Principal.UserID) == "" {
		return nil, ErrUnauthenticated
	}
	if !input.Principal.IsAdmin {
		return nil, ErrForbidden
	}
	target, err := domain.ParseStatus(string(input.Status))
	if err != nil {
		return nil, mapError(err)
	}

	var updated *domain.Order
	var change domain.StatusChange
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.orders.Update(ctx, strings.TrimSpace(input.OrderID), func(order *domain.Order) (bool, error) {
			if target == domain.StatusProcessing {
				return false, &domain.InvalidTransitionError{From: order.Status, To: target}
			}
			change, err = order.TransitionTo(target, s.clock())
			if err != nil {
				return false, err
			}
			return true, nil
		})
		if err != nil {
			return err
		}
		if change.To == domain.StatusCancelled {
			if err := s.ledger.Release(ctx, reservationLines(updated.Items)); err != nil {
				return err
			}
		}
		return s.events.Record(ctx, domain.StatusChanged(updated, change))
	})
	if err != nil {
		return nil, mapError(err)
	}
	return updated, nil
}

// CapturePayment moves a pending order to processing after the provider confirmed
// the capture. Orders already past pending are left alone and reported as duplicates.
func (s *Service) CapturePayment(ctx context.Context, input ordertypes.CapturePaymentInput) (*ordertypes.CaptureResult, error) {
	orderID := strings.TrimSpace(input.OrderID)
	if orderID == "" {
		return nil, fmt.Errorf("%w: order reference is required", ErrInvalidInput)
	}
	reference := strings.TrimSpace(input.PaymentReference)

	var updated *domain.Order
	var change domain.StatusChange
	outcome := ordertypes.CaptureApplied
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.orders.Update(ctx, orderID, func(order *domain.Order) (bool, error) {
			switch {
			case order.Status == domain.StatusPending:
				change, err = order.TransitionTo(domain.StatusProcessing, s.clock())
				if err != nil {
					return false, err
				}
				if reference != "" {
					order.PaymentReference = reference
				}
				outcome = ordertypes.CaptureApplied
				return true, nil
			case order.Status.PaymentSettled():
				outcome = ordertypes.CaptureDuplicate
				return false, nil
			default:
				outcome = ordertypes.CaptureIgnored
				return false, nil
			}
		})
		if err != nil {
			return err
		}
		if outcome != ordertypes.CaptureApplied {
			return nil
		}
		return s.events.Record(ctx, domain.StatusChanged(updated, change))
	})
	if err != nil {
		return nil, err
	}
	return &ordertypes.CaptureResult{Order: updated, Outcome: outcome}, nil
}

func (s *Service) replay(ctx context.Context, key, fingerprint string) (*domain.Order, error) {
	record, err := s.idempotency.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	if record.RequestHash != fingerprint {
		return nil, ports.ErrIdempotencyConflict
	}
	return s.orders.GetByID(ctx, record.OrderID)
}

func (s *Service) priceItems(ctx context.Context, inputs []ordertypes.ItemInput) ([]domain.Item, error) {
	requested := make([]domain.Item, 0, len(inputs))
	for _, in := range inputs {
		requested = append(requested, domain.Item{
			ProductID: strings.TrimSpace(in.ProductID),
			Size:      strings.TrimSpace(in.Size),
			Quantity:  in.Quantity,
		})
	}
	if err := domain.ValidateItems(requested); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(requested))
	seen := make(map[string]struct{}, len(requested))
	for _, item := range requested {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	products, err := s.catalog.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i, item := range requested {
		product, ok := products[item.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", inventoryports.ErrProductNotFound, item.ProductID)
		}
		price, err := product.UnitPrice(item.Size)
		if err != nil {
			return nil, fmt.Errorf("%s size %q: %w", item.ProductID, item.Size, err)
		}
		requested[i].Name = product.Name
		requested[i].UnitPrice = price
	}
	return requested, nil
}

func (s *Service) compareClientTotals(ctx context.Context, client *ordertypes.ClientTotals, server domain.Totals) {
	if client == nil {
		return
	}
	if client.Total.Equal(server.Total()) && client.Items.Equal(server.Items) {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelWarn, "client totals differ from server pricing",
		slog.String("client.total", client.Total.StringFixed(2)),
		slog.String("server.total", server.Total().StringFixed(2)),
	)
}

func reservationLines(items []domain.Item) []inventorydomain.Line {
	lines := make([]inventorydomain.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, inventorydomain.Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines
}

func trimAddress(a domain.ShippingAddress) domain.ShippingAddress {
	return domain.ShippingAddress{
		FullName:     strings.TrimSpace(a.FullName),
		AddressLine1: strings.TrimSpace(a.AddressLine1),
		AddressLine2: strings.TrimSpace(a.AddressLine2),
		City:         strings.TrimSpace(a.City),
		State:        strings.TrimSpace(a.State),
		PostalCode:   strings.TrimSpace(a.PostalCode),
		Country:      strings.TrimSpace(a.Country),
		Phone:        strings.TrimSpace(a.Phone),
	}
}

type discardEvents struct{}

func (discardEvents) Record(context.Context, ...domain.Event) error { return nil }

var _ ports.Service = (*Service)(nil)
