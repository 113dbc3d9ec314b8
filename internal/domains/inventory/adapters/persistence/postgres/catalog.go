package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-storefront/internal/domains/inventory/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/inventory/ports"
	platformpostgres "github.com/Apurer/go-gin-storefront/internal/platform/postgres"
)

var _ ports.Catalog = (*Catalog)(nil)

// productRecord maps a catalog product to the products table.
type productRecord struct {
	ID          string          `gorm:"primaryKey;column:id"`
	Name        string          `gorm:"column:name"`
	Description string          `gorm:"column:description"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2)"`
	Sizes       []domain.Size   `gorm:"column:sizes;type:jsonb;serializer:json"`
	Categories  pq.StringArray  `gorm:"column:categories;type:text[]"`
	Tags        pq.StringArray  `gorm:"column:tags;type:text[]"`
	Stock       int             `gorm:"column:stock"`
	CreatedAt   time.Time       `gorm:"column:created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "products" }

// Catalog reads and seeds products in PostgreSQL.
type Catalog struct {
	db *gorm.DB
}

// NewCatalog wires a gorm-backed catalog. Caller manages DB lifecycle.
func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

func (c *Catalog) GetProducts(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	if err := ensureDB(c.db); err != nil {
		return nil, err
	}
	out := make(map[string]*domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var records []productRecord
	if err := platformpostgres.Conn(ctx, c.db).Where("id IN ?", ids).Find(&records).Error; err != nil {
		return nil, err
	}
	for i := range records {
		out[records[i].ID] = records[i].toDomain()
	}
	return out, nil
}

func (c *Catalog) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	if err := ensureDB(c.db); err != nil {
		return nil, err
	}
	var records []productRecord
	if err := platformpostgres.Conn(ctx, c.db).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	products := make([]*domain.Product, 0, len(records))
	for i := range records {
		products = append(products, records[i].toDomain())
	}
	return products, nil
}

// UpsertProduct inserts a product or refreshes its catalog fields and stock.
func (c *Catalog) UpsertProduct(ctx context.Context, product *domain.Product) error {
	if err := ensureDB(c.db); err != nil {
		return err
	}
	if product == nil {
		return errors.New("product is nil")
	}
	if err := product.Validate(); err != nil {
		return err
	}
	record := toRecord(product)
	return platformpostgres.Conn(ctx, c.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"name":        record.Name,
				"description": record.Description,
				"price":       record.Price,
				"sizes":       gorm.Expr("EXCLUDED.sizes"),
				"categories":  record.Categories,
				"tags":        record.Tags,
				"stock":       record.Stock,
				"updated_at":  gorm.Expr("NOW()"),
			}),
		}).Create(&record).Error
}

func ensureDB(db *gorm.DB) error {
	if db == nil {
		return errors.New("postgres inventory adapter not configured")
	}
	return nil
}

func toRecord(p *domain.Product) productRecord {
	now := time.Now().UTC()
	created := p.CreatedAt
	if created.IsZero() {
		created = now
	}
	return productRecord{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Sizes:       append([]domain.Size{}, p.Sizes...),
		Categories:  pq.StringArray(append([]string{}, p.Categories...)),
		Tags:        pq.StringArray(append([]string{}, p.Tags...)),
		Stock:       p.Stock,
		CreatedAt:   created,
		UpdatedAt:   now,
	}
}

func (r productRecord) toDomain() *domain.Product {
	return &domain.Product{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Sizes:       append([]domain.Size(nil), r.Sizes...),
		Categories:  append([]string(nil), r.Categories...),
		Tags:        append([]string(nil), r.Tags...),
		Stock:       r.Stock,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
