package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Apurer/go-gin-storefront/internal/domains/accounts/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/accounts/ports"
	"github.com/Apurer/go-gin-storefront/internal/shared/auth"
)

// DefaultSessionTTL applies when no TTL is configured.
const DefaultSessionTTL = 24 * time.Hour

// Service implements registration, login and bearer-token authentication.
type Service struct {
	repo     ports.Repository
	sessions ports.SessionStore
	ttl      time.Duration
	hashCost int
	clock    func() time.Time
	newID    func() string
	newToken func() (string, error)
}

// Option customizes the service.
type Option func(*Service)

// WithSessionTTL sets how long issued sessions stay valid.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithHashCost sets the bcrypt cost for new password hashes.
func WithHashCost(cost int) Option {
	return func(s *Service) {
		s.hashCost = cost
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

// WithTokenGenerator overrides session token generation.
func WithTokenGenerator(gen func() (string, error)) Option {
	return func(s *Service) {
		if gen != nil {
			s.newToken = gen
		}
	}
}

func NewService(repo ports.Repository, sessions ports.SessionStore, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		sessions: sessions,
		ttl:      DefaultSessionTTL,
		hashCost: bcrypt.DefaultCost,
		clock:    func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
		newToken: randomToken,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Register creates a customer account. Admin rights are only granted through EnsureAdmin.
func (s *Service) Register(ctx context.Context, email, name, password string) (*domain.Account, error) {
	account, err := domain.NewAccount(s.newID(), email, name, password, s.hashCost, s.clock())
	if err != nil {
		return nil, mapError(err)
	}
	return s.repo.Create(ctx, account)
}

// Login checks credentials and issues a session.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.Account, *domain.Session, error) {
	normalized, err := domain.NormalizeEmail(email)
	if err != nil || password == "" {
		return nil, nil, mapError(ports.ErrInvalidCredentials)
	}
	account, err := s.repo.GetByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, nil, mapError(ports.ErrInvalidCredentials)
		}
		return nil, nil, err
	}
	if !account.CheckPassword(password) {
		return nil, nil, mapError(ports.ErrInvalidCredentials)
	}
	token, err := s.newToken()
	if err != nil {
		return nil, nil, err
	}
	now := s.clock()
	session := domain.Session{Token: token, AccountID: account.ID, ExpiresAt: now.Add(s.ttl), CreatedAt: now}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, nil, err
	}
	return account, &session, nil
}

// Logout revokes a session. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return s.sessions.Delete(ctx, token)
}

// Authenticate resolves a bearer token to the caller's principal.
func (s *Service) Authenticate(ctx context.Context, token string) (auth.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Principal{}, mapError(ports.ErrSessionNotFound)
	}
	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		return auth.Principal{}, mapError(err)
	}
	if session.Expired(s.clock()) {
		_ = s.sessions.Delete(ctx, token)
		return auth.Principal{}, mapError(ports.ErrSessionNotFound)
	}
	account, err := s.repo.GetByID(ctx, session.AccountID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return auth.Principal{}, mapError(ports.ErrSessionNotFound)
		}
		return auth.Principal{}, err
	}
	return auth.Principal{UserID: account.ID, IsAdmin: account.IsAdmin}, nil
}

// EnsureAdmin creates the administrator account, or promotes and re-keys an
// existing account with the same email.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (*domain.Account, error) {
	normalized, err := domain.NormalizeEmail(email)
	if err != nil {
		return nil, mapError(err)
	}
	existing, err := s.repo.GetByEmail(ctx, normalized)
	switch {
	case errors.Is(err, ports.ErrNotFound):
		account, err := domain.NewAccount(s.newID(), normalized, "Administrator", password, s.hashCost, s.clock())
		if err != nil {
			return nil, mapError(err)
		}
		account.IsAdmin = true
		return s.repo.Create(ctx, account)
	case err != nil:
		return nil, err
	}
	if existing.IsAdmin && existing.CheckPassword(password) {
		return existing, nil
	}
	if err := existing.SetPassword(password, s.hashCost); err != nil {
		return nil, mapError(err)
	}
	existing.IsAdmin = true
	existing.UpdatedAt = s.clock()
	return s.repo.Update(ctx, existing)
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

var _ ports.Service = (*Service)(nil)
