package notification

import (
	"fmt"

	"gradvillage.backend/internal/config"
	"gradvillage.backend/internal/domain/services"
)

// NewMailer selects the transport named in config
func NewMailer(cfg config.MailConfig) (services.Mailer, error) {
	switch cfg.Transport {
	case "", "log":
		return NewLogMailer(), nil
	case "smtp":
		return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.From)
	case "kafka":
		if len(cfg.KafkaBrokers) == 0 || cfg.KafkaTopic == "" {
			return nil, fmt.Errorf("kafka mail transport needs brokers and a topic")
		}
		return NewKafkaMailer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.From), nil
	}
	return nil, fmt.Errorf("unknown mail transport %q", cfg.Transport)
}
