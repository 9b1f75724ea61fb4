package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gradvillage.backend/internal/domain/entities"
	domainerrors "gradvillage.backend/internal/domain/errors"
	"gradvillage.backend/internal/domain/repositories"
	"gradvillage.backend/pkg/logger"
	"gradvillage.backend/pkg/metrics"
	"gradvillage.backend/pkg/utils"
)

// OutboxHandler delivers one deferred side effect. A returned error schedules a retry.
type OutboxHandler func(ctx context.Context, msg *entities.OutboxMessage) error

// OutboxConfig controls retry behaviour
type OutboxConfig struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	LockTimeout time.Duration
}

var errNotClaimed = errors.New("outbox message held by another worker")

// OutboxDispatcher records side effects with their cause and delivers them afterwards
type OutboxDispatcher struct {
	repo     repositories.OutboxRepository
	cfg      OutboxConfig
	handlers map[string]OutboxHandler
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewOutboxDispatcher creates a new outbox dispatcher
func NewOutboxDispatcher(repo repositories.OutboxRepository, cfg OutboxConfig, m *metrics.Metrics) *OutboxDispatcher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultOutboxMaxAttempts
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = DefaultOutboxBaseBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = DefaultOutboxMaxBackoff
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = DefaultOutboxLockTimeout
	}
	return &OutboxDispatcher{
		repo:     repo,
		cfg:      cfg,
		handlers: make(map[string]OutboxHandler),
		metrics:  m,
		now:      time.Now,
	}
}

// SetClock replaces the time source.
func (d *OutboxDispatcher) SetClock(now func() time.Time) {
	d.now = now
}

// Register binds a handler to a topic. Registration happens at startup only.
func (d *OutboxDispatcher) Register(topic string, h OutboxHandler) {
	d.handlers[topic] = h
}

// Enqueue stores a message. Pass the transaction context so it commits with its cause.
func (d *OutboxDispatcher) Enqueue(ctx context.Context, topic string, payload interface{}) (*entities.OutboxMessage, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", topic, err)
	}
	msg := &entities.OutboxMessage{
		Topic:         topic,
		Payload:       raw,
		Status:        entities.OutboxPending,
		MaxAttempts:   d.cfg.MaxAttempts,
		NextAttemptAt: d.now(),
	}
	if err := d.repo.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Dispatch delivers the given messages now, in order. Anything that fails stays
// pending for the background worker.
func (d *OutboxDispatcher) Dispatch(ctx context.Context, msgs []*entities.OutboxMessage) entities.SideEffectReport {
	report := entities.SideEffectReport{Sent: []string{}, Pending: []string{}}
	for _, msg := range msgs {
		if err := d.process(ctx, msg); err != nil {
			report.Pending = append(report.Pending, msg.Topic)
			continue
		}
		report.Sent = append(report.Sent, msg.Topic)
	}
	return report
}

// DispatchDue delivers up to limit due messages and returns how many were sent.
func (d *OutboxDispatcher) DispatchDue(ctx context.Context, limit int) (int, error) {
	msgs, err := d.repo.ListDue(ctx, d.now(), limit)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, msg := range msgs {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		if err := d.process(ctx, msg); err == nil {
			sent++
		}
	}
	return sent, nil
}

func (d *OutboxDispatcher) process(ctx context.Context, msg *entities.OutboxMessage) error {
	now := d.now()
	claimed, err := d.repo.Claim(ctx, msg.ID, now, now.Add(d.cfg.LockTimeout))
	if err != nil {
		logger.Error(ctx, "Failed to claim outbox message", zap.String("outbox_id", msg.ID.String()), zap.Error(err))
		return err
	}
	if !claimed {
		return errNotClaimed
	}

	handlerErr := d.deliver(ctx, msg)
	if handlerErr == nil {
		if err := d.repo.MarkSent(ctx, msg.ID, d.now()); err != nil {
			logger.Error(ctx, "Failed to mark outbox message sent", zap.String("outbox_id", msg.ID.String()), zap.Error(err))
			return err
		}
		d.metrics.OutboxOutcome(msg.Topic, "sent")
		return nil
	}

	maxAttempts := msg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = d.cfg.MaxAttempts
	}
	failure := entities.OutboxFailure{
		ID:            msg.ID,
		Attempts:      msg.Attempts + 1,
		NextAttemptAt: now.Add(d.backoff(msg.Attempts)),
		LastError:     handlerErr.Error(),
		Dead:          msg.Attempts+1 >= maxAttempts,
	}
	if err := d.repo.MarkFailed(ctx, failure); err != nil {
		logger.Error(ctx, "Failed to record outbox failure", zap.String("outbox_id", msg.ID.String()), zap.Error(err))
	}

	outcome := "retry"
	if failure.Dead {
		outcome = "dead"
	}
	d.metrics.OutboxOutcome(msg.Topic, outcome)
	logger.Warn(ctx, "Outbox delivery failed",
		zap.String("outbox_id", msg.ID.String()),
		zap.String("topic", msg.Topic),
		zap.Int("attempts", failure.Attempts),
		zap.Bool("dead", failure.Dead),
		zap.Error(handlerErr),
	)
	return handlerErr
}

func (d *OutboxDispatcher) deliver(ctx context.Context, msg *entities.OutboxMessage) (err error) {
	h, ok := d.handlers[msg.Topic]
	if !ok {
		return fmt.Errorf("no handler registered for topic %q", msg.Topic)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, msg)
}

// backoff returns base * 2^attempts, capped at the configured maximum.
func (d *OutboxDispatcher) backoff(attempts int) time.Duration {
	delay := d.cfg.BaseBackoff
	for i := 0; i < attempts && delay < d.cfg.MaxBackoff; i++ {
		delay *= 2
	}
	if delay > d.cfg.MaxBackoff {
		delay = d.cfg.MaxBackoff
	}
	return delay
}

// List returns messages for the admin console, optionally filtered by status.
func (d *OutboxDispatcher) List(ctx context.Context, status entities.OutboxStatus, page, limit int) ([]*entities.OutboxMessage, utils.PaginationMeta, error) {
	switch status {
	case "", entities.OutboxPending, entities.OutboxProcessing, entities.OutboxSent, entities.OutboxDead:
	default:
		return nil, utils.PaginationMeta{}, domainerrors.FieldError("status", "status must be one of pending, processing, sent, dead")
	}
	p := utils.GetPaginationParams(page, limit)
	msgs, total, err := d.repo.List(ctx, status, p.Limit, p.CalculateOffset())
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}
	return msgs, utils.CalculateMeta(total, p.Page, p.Limit), nil
}

// Retry moves a dead message back to pending and attempts delivery once.
func (d *OutboxDispatcher) Retry(ctx context.Context, id uuid.UUID) (*entities.OutboxMessage, error) {
	if err := d.repo.Requeue(ctx, id, d.now()); err != nil {
		switch {
		case errors.Is(err, domainerrors.ErrNotFound):
			return nil, domainerrors.NotFound("outbox message not found")
		case errors.Is(err, domainerrors.ErrInvalidTransition):
			return nil, domainerrors.InvalidTransition("only dead messages can be retried")
		}
		return nil, err
	}

	msg, err := d.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	_ = d.process(ctx, msg)

	return d.repo.GetByID(ctx, id)
}
