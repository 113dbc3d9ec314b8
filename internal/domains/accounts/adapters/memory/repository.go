package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/Apurer/go-gin-storefront/internal/domains/accounts/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/accounts/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository keeps accounts in memory, indexed by id and email.
type Repository struct {
	mu      sync.RWMutex
	byID    map[string]*domain.Account
	byEmail map[string]string
}

func NewRepository() *Repository {
	return &Repository{
		byID:    make(map[string]*domain.Account),
		byEmail: make(map[string]string),
	}
}

func (r *Repository) Create(_ context.Context, account *domain.Account) (*domain.Account, error) {
	if account == nil {
		return nil, errors.New("account is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byEmail[account.Email]; taken {
		return nil, ports.ErrEmailTaken
	}
	if _, exists := r.byID[account.ID]; exists {
		return nil, errors.New("account already exists")
	}
	clone := *account
	r.byID[clone.ID] = &clone
	r.byEmail[clone.Email] = clone.ID
	out := clone
	return &out, nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.byID[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := *account
	return &clone, nil
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	r.mu.RLock()
	id, ok := r.byEmail[email]
	r.mu.RUnlock()
	if !ok {
		return nil, ports.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *Repository) Update(_ context.Context, account *domain.Account) (*domain.Account, error) {
	if account == nil {
		return nil, errors.New("account is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.byID[account.ID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if owner, taken := r.byEmail[account.Email]; taken && owner != account.ID {
		return nil, ports.ErrEmailTaken
	}
	delete(r.byEmail, current.Email)
	clone := *account
	clone.CreatedAt = current.CreatedAt
	r.byID[clone.ID] = &clone
	r.byEmail[clone.Email] = clone.ID
	out := clone
	return &out, nil
}
