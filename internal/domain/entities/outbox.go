package entities

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// OutboxStatus tracks delivery of a deferred side effect
type OutboxStatus string

const (
	OutboxPending    OutboxStatus = "pending"
	OutboxProcessing OutboxStatus = "processing"
	OutboxSent       OutboxStatus = "sent"
	OutboxDead       OutboxStatus = "dead"
)

// Outbox topics
const (
	TopicIssueTaxReceipt       = "tax_receipt.issue"
	TopicPaymentConfirmation   = "email.payment_confirmation"
	TopicReceiptDownload       = "email.receipt_download"
	TopicWelcomeEmail          = "email.welcome"
	TopicDonationReceipt       = "email.donation_receipt"
	TopicVerificationResult    = "email.verification_result"
	TopicDonationReceivedEmail = "email.donation_received"
)

// OutboxMessage is a side effect recorded in the same transaction as its cause
type OutboxMessage struct {
	ID            uuid.UUID       `json:"id"`
	Topic         string          `json:"topic"`
	Payload       json.RawMessage `json:"payload"`
	Status        OutboxStatus    `json:"status"`
	Attempts      int             `json:"attempts"`
	MaxAttempts   int             `json:"maxAttempts"`
	NextAttemptAt time.Time       `json:"nextAttemptAt"`
	LockedUntil   null.Time       `json:"lockedUntil"`
	LastError     null.String     `json:"lastError"`
	ProcessedAt   null.Time       `json:"processedAt"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// SourceRef points at a registration fee or donation
type SourceRef struct {
	SourceType SourceType `json:"sourceType"`
	SourceID   uuid.UUID  `json:"sourceId"`
}

// EntityRef points at a single row by id
type EntityRef struct {
	ID uuid.UUID `json:"id"`
}

// OutboxFailure is the bookkeeping applied after a failed delivery
type OutboxFailure struct {
	ID            uuid.UUID
	Attempts      int
	NextAttemptAt time.Time
	LastError     string
	Dead          bool
}

// SideEffectReport lists deferred topics by delivery state
type SideEffectReport struct {
	Sent    []string `json:"sent"`
	Pending []string `json:"pending"`
}
