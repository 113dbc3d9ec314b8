//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Apurer/go-gin-storefront/internal/domains/accounts/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/accounts/ports"
	"github.com/Apurer/go-gin-storefront/internal/platform/postgres/pgtest"
)

func TestRepository_CreateAndLookup(t *testing.T) {
	db := pgtest.Start(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	account, err := domain.NewAccount("acc-1", "ada@example.com", "Ada", "correct horse", bcrypt.MinCost, now)
	require.NoError(t, err)
	created, err := repo.Create(ctx, account)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", created.ID)

	byEmail, err := repo.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.True(t, byEmail.CheckPassword("correct horse"))

	dup, err := domain.NewAccount("acc-2", "ada@example.com", "", "correct horse", bcrypt.MinCost, now)
	require.NoError(t, err)
	_, err = repo.Create(ctx, dup)
	require.ErrorIs(t, err, ports.ErrEmailTaken)

	byEmail.IsAdmin = true
	updated, err := repo.Update(ctx, byEmail)
	require.NoError(t, err)
	assert.True(t, updated.IsAdmin)

	_, err = repo.GetByID(ctx, "missing")
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestSessionStore_LifecycleAndPurge(t *testing.T) {
	db := pgtest.Start(t)
	repo := NewRepository(db)
	store := NewSessionStore(db)
	ctx := context.Background()
	now := time.Now().UTC()

	account, err := domain.NewAccount("acc-1", "ada@example.com", "Ada", "correct horse", bcrypt.MinCost, now)
	require.NoError(t, err)
	_, err = repo.Create(ctx, account)
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, domain.Session{Token: "live", AccountID: "acc-1", ExpiresAt: now.Add(time.Hour), CreatedAt: now}))
	require.NoError(t, store.Save(ctx, domain.Session{Token: "stale", AccountID: "acc-1", ExpiresAt: now.Add(-time.Hour), CreatedAt: now}))

	got, err := store.Get(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", got.AccountID)

	purged, err := store.PurgeExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
	_, err = store.Get(ctx, "stale")
	require.ErrorIs(t, err, ports.ErrSessionNotFound)

	require.NoError(t, store.Delete(ctx, "live"))
	_, err = store.Get(ctx, "live")
	require.ErrorIs(t, err, ports.ErrSessionNotFound)
}
