package usecases_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"gradvillage.backend/internal/domain/entities"
)

// MockOutboxRepository is a mock implementation of repositories.OutboxRepository
type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Create(ctx context.Context, msg *entities.OutboxMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockOutboxRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.OutboxMessage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.OutboxMessage), args.Error(1)
}

func (m *MockOutboxRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*entities.OutboxMessage, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.OutboxMessage), args.Error(1)
}

func (m *MockOutboxRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*entities.OutboxMessage, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.OutboxMessage), args.Error(1)
}

func (m *MockOutboxRepository) Claim(ctx context.Context, id uuid.UUID, now, lockUntil time.Time) (bool, error) {
	args := m.Called(ctx, id, now, lockUntil)
	return args.Bool(0), args.Error(1)
}

func (m *MockOutboxRepository) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockOutboxRepository) MarkFailed(ctx context.Context, failure entities.OutboxFailure) error {
	args := m.Called(ctx, failure)
	return args.Error(0)
}

func (m *MockOutboxRepository) Requeue(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockOutboxRepository) List(ctx context.Context, status entities.OutboxStatus, limit, offset int) ([]*entities.OutboxMessage, int64, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entities.OutboxMessage), args.Get(1).(int64), args.Error(2)
}

func (m *MockOutboxRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}
