package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RegistrationData is the student identity submitted with the fee payment
type RegistrationData struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	School    string `json:"school"`
	Email     string `json:"email"`
	Major     string `json:"major"`
	Password  string `json:"password"`
}

// TestCardData is a raw card used only outside production
type TestCardData struct {
	Number   string `json:"number"`
	ExpMonth string `json:"expMonth"`
	ExpYear  string `json:"expYear"`
	CVC      string `json:"cvc"`
}

// RegistrationPaymentInput is the signup-with-payment request
type RegistrationPaymentInput struct {
	Email            string            `json:"email"`
	Amount           decimal.Decimal   `json:"amount"`
	AmountUnit       string            `json:"amountUnit"`
	Currency         string            `json:"currency"`
	RegistrationData *RegistrationData `json:"registrationData"`
	PaymentMethodID  string            `json:"paymentMethodId"`
	TestCardData     *TestCardData     `json:"testCardData"`
	IdempotencyKey   string            `json:"idempotencyKey"`
}

// PaymentIntentSummary echoes the charged intent; Amount is in major units
type PaymentIntentSummary struct {
	ID       string          `json:"id"`
	Status   string          `json:"status"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// RegisteredUser is the identity block returned after registration
type RegisteredUser struct {
	ID                 uuid.UUID          `json:"id"`
	UserID             uuid.UUID          `json:"userId"`
	Email              string             `json:"email"`
	FirstName          string             `json:"firstName"`
	LastName           string             `json:"lastName"`
	School             string             `json:"school"`
	ProfileSlug        string             `json:"profileSlug"`
	RegistrationStatus RegistrationStatus `json:"registrationStatus"`
	PaymentComplete    bool               `json:"paymentComplete"`
	UserType           UserRole           `json:"userType"`
}

// RegistrationMetadata carries processing details
type RegistrationMetadata struct {
	ProcessingStartedAt  time.Time  `json:"processingStartedAt"`
	ProcessedAt          time.Time  `json:"processedAt"`
	StudentCreated       bool       `json:"studentCreated"`
	RegistrationFeeID    uuid.UUID  `json:"registrationFeeId"`
	PaymentTransactionID *uuid.UUID `json:"paymentTransactionId"`
	AmountUnit           string     `json:"amountUnit"`
	TestMode             bool       `json:"testMode"`
	IdempotentReplay     bool       `json:"idempotentReplay"`
}

// RegistrationPaymentResult is the composite success response
type RegistrationPaymentResult struct {
	Message       string               `json:"message"`
	PaymentIntent PaymentIntentSummary `json:"paymentIntent"`
	User          RegisteredUser       `json:"user"`
	Token         string               `json:"token"`
	TaxReceipt    ReceiptSummary       `json:"taxReceipt"`
	SideEffects   SideEffectReport     `json:"sideEffects"`
	Metadata      RegistrationMetadata `json:"metadata"`
}

// RegistrationFeeStatus is the student's own fee view
type RegistrationFeeStatus struct {
	RegistrationPaid   bool               `json:"registrationPaid"`
	PaymentStatus      PaymentStatus      `json:"paymentStatus"`
	RegistrationStatus RegistrationStatus `json:"registrationStatus"`
	Fee                *RegistrationFee   `json:"fee"`
	TaxReceipt         ReceiptSummary     `json:"taxReceipt"`
}
