package entities

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateDonationInput is a donor's one-off gift request
type CreateDonationInput struct {
	StudentID       uuid.UUID       `json:"studentId"`
	StudentSlug     string          `json:"studentSlug"`
	Amount          decimal.Decimal `json:"amount"`
	AmountUnit      string          `json:"amountUnit"`
	Currency        string          `json:"currency"`
	DonorName       string          `json:"donorName"`
	DonorEmail      string          `json:"donorEmail"`
	Message         string          `json:"message"`
	Anonymous       bool            `json:"anonymous"`
	PaymentMethodID string          `json:"paymentMethodId"`
	TestCardData    *TestCardData   `json:"testCardData"`
	IdempotencyKey  string          `json:"idempotencyKey"`

	// DonorUserID is set from the bearer token, never from the body.
	DonorUserID *uuid.UUID `json:"-"`
}

// DonationResult is returned after a donation attempt succeeds
type DonationResult struct {
	Donation         *Donation            `json:"donation"`
	PaymentIntent    PaymentIntentSummary `json:"paymentIntent"`
	AmountRaised     decimal.Decimal      `json:"amountRaised"`
	TaxReceipt       ReceiptSummary       `json:"taxReceipt"`
	SideEffects      SideEffectReport     `json:"sideEffects"`
	IdempotentReplay bool                 `json:"idempotentReplay"`
}
