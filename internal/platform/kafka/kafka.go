package kafka

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Apurer/go-gin-storefront/internal/platform/outbox"
)

// ErrDisabled is returned when no brokers are configured.
var ErrDisabled = errors.New("kafka disabled")

// ParseBrokers splits a comma separated broker list.
func ParseBrokers(csv string) []string {
	brokers := []string{}
	for _, b := range strings.Split(csv, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// Publisher writes outbox messages to Kafka, one topic per message.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher builds a writer that routes by message topic and hashes on key
// so events of one order stay on one partition.
func NewPublisher(brokers []string) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, ErrDisabled
	}
	return &Publisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}}, nil
}

func (p *Publisher) Publish(ctx context.Context, message outbox.Message) error {
	created := message.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: message.Topic,
		Key:   []byte(message.Key),
		Value: message.Payload,
		Time:  created,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(message.EventType)},
			{Key: "message_id", Value: []byte(message.ID)},
		},
	})
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
