package notification

import (
	"context"

	"go.uber.org/zap"
	"gradvillage.backend/internal/domain/services"
	"gradvillage.backend/pkg/logger"
)

// LogMailer only logs messages. Used in development.
type LogMailer struct{}

// NewLogMailer creates a log-only mailer
func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

// Send logs the message envelope
func (LogMailer) Send(ctx context.Context, msg services.EmailMessage) error {
	logger.Info(ctx, "Email (log transport)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("category", msg.Category),
		zap.Int("html_bytes", len(msg.HTML)),
	)
	return nil
}
