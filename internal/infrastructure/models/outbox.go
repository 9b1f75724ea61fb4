package models

import (
	"time"

	"github.com/google/uuid"
)

type OutboxMessage struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Topic         string    `gorm:"type:varchar(100);not null;index"`
	Payload       string    `gorm:"type:jsonb;not null"`
	Status        string    `gorm:"type:varchar(20);not null;index:idx_outbox_due"`
	Attempts      int       `gorm:"not null"`
	MaxAttempts   int       `gorm:"not null"`
	NextAttemptAt time.Time `gorm:"not null;index:idx_outbox_due"`
	LockedUntil   *time.Time
	LastError     *string `gorm:"type:text"`
	ProcessedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (OutboxMessage) TableName() string { return "outbox_messages" }
