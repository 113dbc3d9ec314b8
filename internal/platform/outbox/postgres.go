package outbox

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	platformpostgres "github.com/Apurer/go-gin-storefront/internal/platform/postgres"
)

type messageRecord struct {
	ID          string     `gorm:"primaryKey;column:id"`
	Topic       string     `gorm:"column:topic"`
	MessageKey  string     `gorm:"column:message_key"`
	EventType   string     `gorm:"column:event_type"`
	Payload     []byte     `gorm:"column:payload;type:jsonb"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	PublishedAt *time.Time `gorm:"column:published_at"`
}

func (messageRecord) TableName() string { return "outbox_messages" }

// PostgresStore persists messages in the outbox_messages table.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore wires a gorm-backed store.
func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, messages ...Message) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	if len(messages) == 0 {
		return nil
	}
	records := make([]messageRecord, 0, len(messages))
	for _, msg := range messages {
		createdAt := msg.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		records = append(records, messageRecord{
			ID:         msg.ID,
			Topic:      msg.Topic,
			MessageKey: msg.Key,
			EventType:  msg.EventType,
			Payload:    msg.Payload,
			CreatedAt:  createdAt,
		})
	}
	return platformpostgres.Conn(ctx, s.db).Create(&records).Error
}

func (s *PostgresStore) FetchPending(ctx context.Context, limit int) ([]Message, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var records []messageRecord
	query := platformpostgres.Conn(ctx, s.db).Where("published_at IS NULL").Order("created_at ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]Message, 0, len(records))
	for _, rec := range records {
		out = append(out, Message{
			ID:          rec.ID,
			Topic:       rec.Topic,
			Key:         rec.MessageKey,
			EventType:   rec.EventType,
			Payload:     rec.Payload,
			CreatedAt:   rec.CreatedAt,
			PublishedAt: rec.PublishedAt,
		})
	}
	return out, nil
}

func (s *PostgresStore) MarkPublished(ctx context.Context, id string, at time.Time) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	return platformpostgres.Conn(ctx, s.db).
		Model(&messageRecord{}).
		Where("id = ? AND published_at IS NULL", id).
		Update("published_at", at).Error
}

func (s *PostgresStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("outbox: postgres store not configured")
	}
	return nil
}
