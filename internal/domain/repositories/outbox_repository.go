package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gradvillage.backend/internal/domain/entities"
)

// OutboxRepository defines deferred side-effect storage
type OutboxRepository interface {
	Create(ctx context.Context, msg *entities.OutboxMessage) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.OutboxMessage, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*entities.OutboxMessage, error)
	// ListDue returns pending rows whose next attempt is due and processing rows whose lock expired.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*entities.OutboxMessage, error)
	// Claim atomically moves a due row to processing; false when another worker holds it.
	Claim(ctx context.Context, id uuid.UUID, now, lockUntil time.Time) (bool, error)
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, failure entities.OutboxFailure) error
	// Requeue moves a dead row back to pending with a fresh attempt budget.
	Requeue(ctx context.Context, id uuid.UUID, at time.Time) error
	List(ctx context.Context, status entities.OutboxStatus, limit, offset int) ([]*entities.OutboxMessage, int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}
