package domain

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidEmail  = errors.New("email address is invalid")
	ErrEmptyPassword = errors.New("password is required")
	ErrWeakPassword  = errors.New("password must be at least 8 characters")
	ErrMissingID     = errors.New("account id is required")
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

// Account is a storefront customer or administrator.
type Account struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewAccount validates the credentials and stores a bcrypt hash of password.
func NewAccount(id, email, name, password string, cost int, now time.Time) (*Account, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrMissingID
	}
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	account := &Account{
		ID:        id,
		Email:     normalized,
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := account.SetPassword(password, cost); err != nil {
		return nil, err
	}
	return account, nil
}

// NormalizeEmail lower-cases and validates an address.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrInvalidEmail
	}
	parsed, err := mail.ParseAddress(email)
	if err != nil || parsed.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// SetPassword replaces the stored hash.
func (a *Account) SetPassword(password string, cost int) error {
	if password == "" {
		return ErrEmptyPassword
	}
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether password matches the stored hash.
func (a *Account) CheckPassword(password string) bool {
	if a == nil || a.PasswordHash == "" || password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) == nil
}

// Session binds an opaque bearer token to an account until ExpiresAt.
type Session struct {
	Token     string
	AccountID string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
