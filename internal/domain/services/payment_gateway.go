package services

import (
	"context"
	"encoding/json"
	"fmt"
)

// Payment intent statuses reported by the gateway
const (
	IntentSucceeded             = "succeeded"
	IntentRequiresAction        = "requires_action"
	IntentRequiresPaymentMethod = "requires_payment_method"
	IntentProcessing            = "processing"
	IntentCanceled              = "canceled"
)

// Webhook event types handled by the API
const (
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
	EventPaymentIntentFailed    = "payment_intent.payment_failed"
)

// PaymentIntentInput shapes a create-and-confirm call
type PaymentIntentInput struct {
	AmountInCents   int64
	Currency        string
	PaymentMethodID string
	CustomerID      string
	Description     string
	ReceiptEmail    string
	Metadata        map[string]string
	StripeAccount   string
	IdempotencyKey  string
	Confirm         bool
}

// PaymentIntent is the gateway's view of a charge
type PaymentIntent struct {
	ID              string
	Status          string
	ClientSecret    string
	AmountInCents   int64
	Currency        string
	LatestChargeID  string
	FailureCode     string
	FailureMessage  string
	Metadata        map[string]string
	RiskMetadata    json.RawMessage
	SyntheticResult bool
}

// WebhookEvent is a verified gateway callback
type WebhookEvent struct {
	ID            string
	Type          string
	PaymentIntent *PaymentIntent
}

// GatewayError is a card or request error returned by the gateway
type GatewayError struct {
	Type        string
	Code        string
	DeclineCode string
	Message     string
	HTTPStatus  int
}

func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// PaymentGateway abstracts the external payment provider
type PaymentGateway interface {
	Name() string
	CreatePaymentIntent(ctx context.Context, input PaymentIntentInput) (*PaymentIntent, error)
	ConfirmPayment(ctx context.Context, intentID, paymentMethodID string) (*PaymentIntent, error)
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
