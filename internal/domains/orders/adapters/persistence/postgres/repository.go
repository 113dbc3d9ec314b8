package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	platformpostgres "github.com/Apurer/go-gin-storefront/internal/platform/postgres"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists orders in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle and schema.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// orderRecord maps the order aggregate to the orders table.
type orderRecord struct {
	ID               string                 `gorm:"primaryKey;column:id"`
	UserID           string                 `gorm:"column:user_id"`
	Items            []domain.Item          `gorm:"column:items;type:jsonb;serializer:json"`
	ShippingAddress  domain.ShippingAddress `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	PaymentMethod    string                 `gorm:"column:payment_method"`
	PaymentReference *string                `gorm:"column:payment_reference"`
	ClientPaymentID  *string                `gorm:"column:client_payment_id"`
	ItemsTotal       decimal.Decimal        `gorm:"column:items_total;type:numeric(12,2)"`
	ShippingTotal    decimal.Decimal        `gorm:"column:shipping_total;type:numeric(12,2)"`
	TaxTotal         decimal.Decimal        `gorm:"column:tax_total;type:numeric(12,2)"`
	Total            decimal.Decimal        `gorm:"column:total;type:numeric(12,2)"`
	Status           string                 `gorm:"column:status"`
	IsPaid           bool                   `gorm:"column:is_paid"`
	PaidAt           *time.Time             `gorm:"column:paid_at"`
	IsShipped        bool                   `gorm:"column:is_shipped"`
	ShippedAt        *time.Time             `gorm:"column:shipped_at"`
	IsDelivered      bool                   `gorm:"column:is_delivered"`
	DeliveredAt      *time.Time             `gorm:"column:delivered_at"`
	CreatedAt        time.Time              `gorm:"column:created_at"`
	UpdatedAt        time.Time              `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

// Create inserts a new order.
func (r *Repository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	record := toRecord(order)
	if err := platformpostgres.Conn(ctx, r.db).Create(&record).Error; err != nil {
		return nil, err
	}
	return record.toDomain()
}

// GetByID fetches an order by identifier.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	if err := platformpostgres.Conn(ctx, r.db).First(&record, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return record.toDomain()
}

// List returns orders newest first, optionally restricted to one owner.
func (r *Repository) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	query := platformpostgres.Conn(ctx, r.db).Order("created_at DESC, id DESC")
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	var records []orderRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		order, err := records[i].toDomain()
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// Update locks the row with SELECT ... FOR UPDATE, applies mutate and writes
// the lifecycle columns in the same transaction.
func (r *Repository) Update(ctx context.Context, id string, mutate ports.Mutation) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var result *domain.Order
	err := platformpostgres.Conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var record orderRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&record, "id = ?", id).Error; err != nil {
			return translate(err)
		}
		order, err := record.toDomain()
		if err != nil {
			return err
		}
		changed, err := mutate(order)
		if err != nil {
			return err
		}
		if !changed {
			result = order
			return nil
		}
		updates := lifecycleColumns(order)
		if err := tx.Model(&orderRecord{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return translate(err)
		}
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// lifecycleColumns is the fixed column set a transition may write.
func lifecycleColumns(order *domain.Order) map[string]any {
	return map[string]any{
		"status":            string(order.Status),
		"is_paid":           order.IsPaid,
		"paid_at":           order.PaidAt,
		"is_shipped":        order.IsShipped,
		"shipped_at":        order.ShippedAt,
		"is_delivered":      order.IsDelivered,
		"delivered_at":      order.DeliveredAt,
		"payment_reference": optionalString(order.PaymentReference),
		"updated_at":        order.UpdatedAt,
	}
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ports.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %w", ports.ErrPaymentReferenceTaken, err)
	default:
		return err
	}
}

func toRecord(order *domain.Order) orderRecord {
	return orderRecord{
		ID:               order.ID,
		UserID:           order.UserID,
		Items:            append([]domain.Item{}, order.Items...),
		ShippingAddress:  order.ShippingAddress,
		PaymentMethod:    string(order.PaymentMethod),
		PaymentReference: optionalString(order.PaymentReference),
		ClientPaymentID:  optionalString(order.ClientPaymentID),
		ItemsTotal:       order.Totals.Items,
		ShippingTotal:    order.Totals.Shipping,
		TaxTotal:         order.Totals.Tax,
		Total:            order.Totals.Total(),
		Status:           string(order.Status),
		IsPaid:           order.IsPaid,
		PaidAt:           order.PaidAt,
		IsShipped:        order.IsShipped,
		ShippedAt:        order.ShippedAt,
		IsDelivered:      order.IsDelivered,
		DeliveredAt:      order.DeliveredAt,
		CreatedAt:        order.CreatedAt,
		UpdatedAt:        order.UpdatedAt,
	}
}

func (r orderRecord) toDomain() (*domain.Order, error) {
	order := &domain.Order{
		ID:               r.ID,
		UserID:           r.UserID,
		Items:            append([]domain.Item(nil), r.Items...),
		ShippingAddress:  r.ShippingAddress,
		PaymentMethod:    domain.PaymentMethod(r.PaymentMethod),
		PaymentReference: derefString(r.PaymentReference),
		ClientPaymentID:  derefString(r.ClientPaymentID),
		Totals: domain.Totals{
			Items:    r.ItemsTotal,
			Shipping: r.ShippingTotal,
			Tax:      r.TaxTotal,
		},
		Status:      domain.Status(r.Status),
		IsPaid:      r.IsPaid,
		PaidAt:      utc(r.PaidAt),
		IsShipped:   r.IsShipped,
		ShippedAt:   utc(r.ShippedAt),
		IsDelivered: r.IsDelivered,
		DeliveredAt: utc(r.DeliveredAt),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
	if !order.Totals.Total().Equal(r.Total) {
		return nil, fmt.Errorf("order %s: %w", r.ID, domain.ErrInconsistentTotals)
	}
	return order, nil
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
