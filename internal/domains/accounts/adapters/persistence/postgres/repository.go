package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Apurer/go-gin-storefront/internal/domains/accounts/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/accounts/ports"
	platformpostgres "github.com/Apurer/go-gin-storefront/internal/platform/postgres"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists accounts in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type accountRecord struct {
	ID           string    `gorm:"primaryKey;column:id"`
	Email        string    `gorm:"column:email;uniqueIndex"`
	Name         string    `gorm:"column:name"`
	PasswordHash string    `gorm:"column:password_hash"`
	IsAdmin      bool      `gorm:"column:is_admin"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (accountRecord) TableName() string { return "accounts" }

func (r *Repository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if account == nil {
		return nil, errors.New("account is nil")
	}
	record := toRecord(account)
	if err := platformpostgres.Conn(ctx, r.db).Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ports.ErrEmailTaken
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.first(ctx, "email = ?", email)
}

// Update rewrites the mutable columns of an existing account.
func (r *Repository) Update(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if account == nil {
		return nil, errors.New("account is nil")
	}
	result := platformpostgres.Conn(ctx, r.db).
		Model(&accountRecord{}).
		Where("id = ?", account.ID).
		Updates(map[string]any{
			"email":         account.Email,
			"name":          account.Name,
			"password_hash": account.PasswordHash,
			"is_admin":      account.IsAdmin,
			"updated_at":    account.UpdatedAt,
		})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ports.ErrEmailTaken
		}
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ports.ErrNotFound
	}
	return r.GetByID(ctx, account.ID)
}

func (r *Repository) first(ctx context.Context, query string, arg string) (*domain.Account, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record accountRecord
	if err := platformpostgres.Conn(ctx, r.db).First(&record, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres account repository not configured")
	}
	return nil
}

func toRecord(a *domain.Account) accountRecord {
	return accountRecord{
		ID:           a.ID,
		Email:        a.Email,
		Name:         a.Name,
		PasswordHash: a.PasswordHash,
		IsAdmin:      a.IsAdmin,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func (r accountRecord) toDomain() *domain.Account {
	return &domain.Account{
		ID:           r.ID,
		Email:        r.Email,
		Name:         r.Name,
		PasswordHash: r.PasswordHash,
		IsAdmin:      r.IsAdmin,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}
