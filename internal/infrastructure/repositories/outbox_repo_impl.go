package repositories

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"gradvillage.backend/internal/domain/entities"
	domainerrors "gradvillage.backend/internal/domain/errors"
	"gradvillage.backend/internal/infrastructure/models"
	"gradvillage.backend/pkg/utils"
)

const maxLastErrorLen = 2000

// OutboxRepository implements deferred side-effect storage
type OutboxRepository struct {
	db *gorm.DB
}

// NewOutboxRepository creates a new outbox repository
func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// Create stores a message in the caller's transaction
func (r *OutboxRepository) Create(ctx context.Context, msg *entities.OutboxMessage) error {
	now := time.Now()
	if msg.ID == uuid.Nil {
		msg.ID = utils.GenerateUUIDv7()
	}
	if msg.Status == "" {
		msg.Status = entities.OutboxPending
	}
	if msg.NextAttemptAt.IsZero() {
		msg.NextAttemptAt = now
	}
	msg.CreatedAt, msg.UpdatedAt = now, now

	payload := "{}"
	if len(msg.Payload) > 0 {
		payload = string(msg.Payload)
	}

	m := &models.OutboxMessage{
		ID:            msg.ID,
		Topic:         msg.Topic,
		Payload:       payload,
		Status:        string(msg.Status),
		Attempts:      msg.Attempts,
		MaxAttempts:   msg.MaxAttempts,
		NextAttemptAt: msg.NextAttemptAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return translateErr(GetDB(ctx, r.db).Create(m).Error)
}

// GetByID gets a message by ID
func (r *OutboxRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.OutboxMessage, error) {
	var m models.OutboxMessage
	if err := GetDB(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translateErr(err)
	}
	return toOutboxEntity(&m), nil
}

// GetByIDs gets messages by ID in creation order
func (r *OutboxRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*entities.OutboxMessage, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var ms []models.OutboxMessage
	if err := GetDB(ctx, r.db).Where("id IN ?", ids).Order("created_at ASC").Find(&ms).Error; err != nil {
		return nil, err
	}
	return toOutboxEntities(ms), nil
}

// ListDue returns messages ready for delivery
func (r *OutboxRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*entities.OutboxMessage, error) {
	var ms []models.OutboxMessage
	if err := GetDB(ctx, r.db).
		Where("(status = ? AND next_attempt_at <= ?) OR (status = ? AND locked_until < ?)",
			string(entities.OutboxPending), now, string(entities.OutboxProcessing), now).
		Order("next_attempt_at ASC").
		Limit(limit).
		Find(&ms).Error; err != nil {
		return nil, err
	}
	return toOutboxEntities(ms), nil
}

// Claim moves a due message to processing with a conditional update
func (r *OutboxRepository) Claim(ctx context.Context, id uuid.UUID, now, lockUntil time.Time) (bool, error) {
	result := GetDB(ctx, r.db).Model(&models.OutboxMessage{}).
		Where("id = ? AND ((status = ? AND next_attempt_at <= ?) OR (status = ? AND locked_until < ?))",
			id, string(entities.OutboxPending), now, string(entities.OutboxProcessing), now).
		Updates(map[string]interface{}{
			"status":       string(entities.OutboxProcessing),
			"locked_until": lockUntil,
			"updated_at":   now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// MarkSent records a successful delivery
func (r *OutboxRepository) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	return GetDB(ctx, r.db).Model(&models.OutboxMessage{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       string(entities.OutboxSent),
			"attempts":     gorm.Expr("attempts + ?", 1),
			"processed_at": at,
			"locked_until": nil,
			"last_error":   nil,
			"updated_at":   at,
		}).Error
}

// MarkFailed schedules a retry or buries the message
func (r *OutboxRepository) MarkFailed(ctx context.Context, failure entities.OutboxFailure) error {
	status := entities.OutboxPending
	if failure.Dead {
		status = entities.OutboxDead
	}
	lastErr := failure.LastError
	if len(lastErr) > maxLastErrorLen {
		lastErr = lastErr[:maxLastErrorLen]
	}
	return GetDB(ctx, r.db).Model(&models.OutboxMessage{}).
		Where("id = ?", failure.ID).
		Updates(map[string]interface{}{
			"status":          string(status),
			"attempts":        failure.Attempts,
			"next_attempt_at": failure.NextAttemptAt,
			"last_error":      lastErr,
			"locked_until":    nil,
			"updated_at":      time.Now(),
		}).Error
}

// Requeue gives a dead message a fresh attempt budget
func (r *OutboxRepository) Requeue(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := GetDB(ctx, r.db).Model(&models.OutboxMessage{}).
		Where("id = ? AND status = ?", id, string(entities.OutboxDead)).
		Updates(map[string]interface{}{
			"status":          string(entities.OutboxPending),
			"attempts":        0,
			"next_attempt_at": at,
			"updated_at":      at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return domainerrors.ErrInvalidTransition
	}
	return nil
}

// List lists messages by status, newest first
func (r *OutboxRepository) List(ctx context.Context, status entities.OutboxStatus, limit, offset int) ([]*entities.OutboxMessage, int64, error) {
	query := GetDB(ctx, r.db).Model(&models.OutboxMessage{})
	if status != "" {
		query = query.Where("status = ?", string(status))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []models.OutboxMessage
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&ms).Error; err != nil {
		return nil, 0, err
	}
	return toOutboxEntities(ms), total, nil
}

// CountByStatus groups messages by status
func (r *OutboxRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return countByStatus(GetDB(ctx, r.db), &models.OutboxMessage{}, "status")
}

func toOutboxEntities(ms []models.OutboxMessage) []*entities.OutboxMessage {
	out := make([]*entities.OutboxMessage, 0, len(ms))
	for i := range ms {
		out = append(out, toOutboxEntity(&ms[i]))
	}
	return out
}

func toOutboxEntity(m *models.OutboxMessage) *entities.OutboxMessage {
	return &entities.OutboxMessage{
		ID:            m.ID,
		Topic:         m.Topic,
		Payload:       json.RawMessage(m.Payload),
		Status:        entities.OutboxStatus(m.Status),
		Attempts:      m.Attempts,
		MaxAttempts:   m.MaxAttempts,
		NextAttemptAt: m.NextAttemptAt,
		LockedUntil:   null.TimeFromPtr(m.LockedUntil),
		LastError:     null.StringFromPtr(m.LastError),
		ProcessedAt:   null.TimeFromPtr(m.ProcessedAt),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
