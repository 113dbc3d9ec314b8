package ports

import (
	"context"
	"errors"
	"time"

	"github.com/Apurer/go-gin-storefront/internal/domains/accounts/domain"
	"github.com/Apurer/go-gin-storefront/internal/shared/auth"
)

var (
	ErrNotFound           = errors.New("account not found")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found")
)

// Repository persists accounts.
type Repository interface {
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	Update(ctx context.Context, account *domain.Account) (*domain.Account, error)
}

// SessionStore persists bearer sessions.
type SessionStore interface {
	Save(ctx context.Context, session domain.Session) error
	Get(ctx context.Context, token string) (*domain.Session, error)
	Delete(ctx context.Context, token string) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Service exposes account use cases to adapters.
type Service interface {
	Register(ctx context.Context, email, name, password string) (*domain.Account, error)
	Login(ctx context.Context, email, password string) (*domain.Account, *domain.Session, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (auth.Principal, error)
	EnsureAdmin(ctx context.Context, email, password string) (*domain.Account, error)
}
