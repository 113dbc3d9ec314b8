package mapper

import (
	"time"

	accountdomain "github.com/Apurer/go-gin-storefront/internal/domains/accounts/domain"
)

// Register is the sign-up payload.
type Register struct {
	Email    string `json:"email" binding:"required"`
	Name     string `json:"name"`
	Password string `json:"password" binding:"required"`
}

// Login is the credential payload.
type Login struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Account is the transport view of an account. It never carries the password hash.
type Account struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is returned by a successful login.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Account   Account   `json:"account"`
}

// FromDomainAccount converts a domain account into a transport representation.
func FromDomainAccount(account *accountdomain.Account) Account {
	if account == nil {
		return Account{}
	}
	return Account{
		ID:        account.ID,
		Email:     account.Email,
		Name:      account.Name,
		IsAdmin:   account.IsAdmin,
		CreatedAt: account.CreatedAt,
	}
}

// FromDomainSession pairs a session token with its account.
func FromDomainSession(account *accountdomain.Account, session *accountdomain.Session) Session {
	if session == nil {
		return Session{Account: FromDomainAccount(account)}
	}
	return Session{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		Account:   FromDomainAccount(account),
	}
}
