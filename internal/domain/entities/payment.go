package entities

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

// Amounts are JSON numbers in every API payload and outbox message.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// SourceType identifies what a transaction or receipt was issued for
type SourceType string

const (
	SourceRegistrationFee SourceType = "registration_fee"
	SourceDonation        SourceType = "donation"
)

// RegistrationFee records a paid student registration
type RegistrationFee struct {
	ID              uuid.UUID       `json:"id"`
	StudentID       uuid.UUID       `json:"studentId"`
	PayerEmail      string          `json:"payerEmail"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Status          PaymentStatus   `json:"status"`
	PaymentIntentID string          `json:"paymentIntentId"`
	ReceiptNumber   string          `json:"receiptNumber"`
	IdempotencyKey  null.String     `json:"-"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Donation is a one-off gift to a student
type Donation struct {
	ID              uuid.UUID       `json:"id"`
	StudentID       uuid.UUID       `json:"studentId"`
	DonorUserID     *uuid.UUID      `json:"donorUserId,omitempty"`
	DonorName       string          `json:"donorName"`
	DonorEmail      string          `json:"donorEmail"`
	Amount          decimal.Decimal `json:"amount"`
	NetAmount       decimal.Decimal `json:"netAmount"`
	Currency        string          `json:"currency"`
	Status          PaymentStatus   `json:"status"`
	PaymentIntentID string          `json:"paymentIntentId"`
	ReceiptNumber   string          `json:"receiptNumber"`
	Message         string          `json:"message,omitempty"`
	Anonymous       bool            `json:"anonymous"`
	IdempotencyKey  null.String     `json:"-"`
	FailureReason   null.String     `json:"failureReason,omitempty"`
	CompletedAt     null.Time       `json:"completedAt"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// PaymentTransaction is the gateway-facing audit row
type PaymentTransaction struct {
	ID                    uuid.UUID       `json:"id"`
	SourceType            SourceType      `json:"sourceType"`
	SourceID              uuid.UUID       `json:"sourceId"`
	Provider              string          `json:"provider"`
	ProviderTransactionID string          `json:"providerTransactionId"`
	GrossAmount           decimal.Decimal `json:"grossAmount"`
	NetAmount             decimal.Decimal `json:"netAmount"`
	FeeAmount             decimal.Decimal `json:"feeAmount"`
	Currency              string          `json:"currency"`
	Status                PaymentStatus   `json:"status"`
	RiskMetadata          json.RawMessage `json:"riskMetadata,omitempty"`
	CreatedAt             time.Time       `json:"createdAt"`
}

// DonationStatusChange is a guarded status transition
type DonationStatusChange struct {
	ID            uuid.UUID
	From          PaymentStatus
	To            PaymentStatus
	NetAmount     *decimal.Decimal
	CompletedAt   null.Time
	FailureReason null.String
}

// PaymentTotals aggregates completed payments
type PaymentTotals struct {
	Count int64           `json:"count"`
	Sum   decimal.Decimal `json:"sum"`
}
