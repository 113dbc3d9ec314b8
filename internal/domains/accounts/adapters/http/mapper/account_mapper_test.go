package mapper

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	accountdomain "github.com/Apurer/go-gin-storefront/internal/domains/accounts/domain"
)

func TestFromDomainSessionOmitsPasswordHash(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	account := &accountdomain.Account{
		ID:           "acc-1",
		Email:        "ada@example.com",
		Name:         "Ada",
		PasswordHash: "$2a$04$secret",
		CreatedAt:    now,
	}
	session := &accountdomain.Session{Token: "tok", AccountID: "acc-1", ExpiresAt: now.Add(time.Hour)}

	view := FromDomainSession(account, session)
	require.Equal(t, "tok", view.Token)
	require.Equal(t, "acc-1", view.Account.ID)

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "secret")
}

func TestFromDomainAccountNil(t *testing.T) {
	require.Equal(t, Account{}, FromDomainAccount(nil))
}
