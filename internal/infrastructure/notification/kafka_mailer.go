package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"gradvillage.backend/internal/domain/services"
	"gradvillage.backend/pkg/logger"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EmailCommand is the notification command consumed by the mail relay service
type EmailCommand struct {
	To       string    `json:"to"`
	From     string    `json:"from"`
	Subject  string    `json:"subject"`
	HTML     string    `json:"html"`
	Text     string    `json:"text"`
	Category string    `json:"category,omitempty"`
	QueuedAt time.Time `json:"queuedAt"`
}

// KafkaMailer publishes email commands to a topic, keyed by recipient
type KafkaMailer struct {
	writer messageWriter
	from   string
}

// NewKafkaMailer creates a mailer with its own producer
func NewKafkaMailer(brokers []string, topic, from string) *KafkaMailer {
	return newKafkaMailer(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}, from)
}

func newKafkaMailer(w messageWriter, from string) *KafkaMailer {
	return &KafkaMailer{writer: w, from: from}
}

// Send publishes one command; the recipient key keeps per-recipient order
func (m *KafkaMailer) Send(ctx context.Context, msg services.EmailMessage) error {
	payload, err := json.Marshal(EmailCommand{
		To:       msg.To,
		From:     m.from,
		Subject:  msg.Subject,
		HTML:     msg.HTML,
		Text:     msg.Text,
		Category: msg.Category,
		QueuedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email command: %w", err)
	}

	if err := m.writer.WriteMessages(ctx, kafka.Message{Key: []byte(msg.To), Value: payload}); err != nil {
		logger.Error(ctx, "Failed to publish email command", zap.String("to", msg.To), zap.Error(err))
		return err
	}
	logger.Debug(ctx, "Email command published", zap.String("to", msg.To), zap.String("category", msg.Category))
	return nil
}

// Close flushes and closes the producer
func (m *KafkaMailer) Close() error {
	return m.writer.Close()
}
