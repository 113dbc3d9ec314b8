package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-storefront/internal/domains/accounts/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/accounts/ports"
)

var _ ports.SessionStore = (*SessionStore)(nil)

// SessionStore persists bearer sessions in PostgreSQL.
type SessionStore struct {
	db *gorm.DB
}

// NewSessionStore wires a PostgreSQL-backed session store. Caller owns DB lifecycle.
func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db}
}

type sessionRecord struct {
	Token     string     `gorm:"primaryKey;column:token;size:512"`
	AccountID string     `gorm:"column:account_id;index"`
	ExpiresAt *time.Time `gorm:"column:expires_at;index"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at"`
}

func (sessionRecord) TableName() string { return "account_sessions" }

// Save upserts a session keyed by token.
func (s *SessionStore) Save(ctx context.Context, session domain.Session) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	token := strings.TrimSpace(session.Token)
	accountID := strings.TrimSpace(session.AccountID)
	if token == "" || accountID == "" {
		return errors.New("token and account id are required")
	}
	expiry := session.ExpiresAt
	rec := sessionRecord{Token: token, AccountID: accountID, ExpiresAt: &expiry, CreatedAt: session.CreatedAt}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token"}},
			DoUpdates: clause.AssignmentColumns([]string{"account_id", "expires_at", "updated_at"}),
		}).
		Create(&rec).Error
}

func (s *SessionStore) Get(ctx context.Context, token string) (*domain.Session, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var rec sessionRecord
	if err := s.db.WithContext(ctx).First(&rec, "token = ?", strings.TrimSpace(token)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrSessionNotFound
		}
		return nil, err
	}
	session := domain.Session{Token: rec.Token, AccountID: rec.AccountID, CreatedAt: rec.CreatedAt}
	if rec.ExpiresAt != nil {
		session.ExpiresAt = *rec.ExpiresAt
	}
	return &session, nil
}

// Delete removes a session by token.
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return s.db.WithContext(ctx).Delete(&sessionRecord{}, "token = ?", token).Error
}

// PurgeExpired removes all sessions that expired at or before now. Use for housekeeping or cron.
func (s *SessionStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	if err := s.ensureDB(); err != nil {
		return 0, err
	}
	result := s.db.WithContext(ctx).Where("expires_at IS NOT NULL AND expires_at <= ?", now).Delete(&sessionRecord{})
	return result.RowsAffected, result.Error
}

func (s *SessionStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres session store not configured")
	}
	return nil
}
