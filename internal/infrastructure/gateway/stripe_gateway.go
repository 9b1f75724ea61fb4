package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
	domainerrors "gradvillage.backend/internal/domain/errors"
	"gradvillage.backend/internal/domain/services"
	"gradvillage.backend/pkg/logger"
)

// ProviderStripe is recorded on every payment transaction row
const ProviderStripe = "stripe"

// StripeConfig configures the Stripe adapter
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	// APIBaseURL points the client at stripe-mock or a test server.
	APIBaseURL string
}

// StripeGateway implements services.PaymentGateway on stripe-go
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

// NewStripeGateway builds an adapter with its own client. A blank secret key
// yields a gateway whose calls fail with ErrGatewayNotConfigured.
func NewStripeGateway(cfg StripeConfig) *StripeGateway {
	g := &StripeGateway{webhookSecret: cfg.WebhookSecret}
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return g
	}

	backendCfg := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &zapLeveledLogger{log: logger.GetLogger().Sugar()},
	}
	if cfg.APIBaseURL != "" {
		backendCfg.URL = stripe.String(cfg.APIBaseURL)
	}
	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendCfg),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendCfg),
	}
	g.api = client.New(cfg.SecretKey, backends)
	return g
}

// Name returns the provider name
func (g *StripeGateway) Name() string {
	return ProviderStripe
}

// CreatePaymentIntent creates (and optionally confirms) a card payment
func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, input services.PaymentIntentInput) (*services.PaymentIntent, error) {
	if g.api == nil {
		return nil, domainerrors.ErrGatewayNotConfigured
	}
	if input.AmountInCents <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domainerrors.ErrInvalidInput)
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(input.AmountInCents),
		Currency: stripe.String(strings.ToLower(input.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	params.Context = ctx
	if input.PaymentMethodID != "" {
		params.PaymentMethod = stripe.String(input.PaymentMethodID)
	}
	if input.CustomerID != "" {
		params.Customer = stripe.String(input.CustomerID)
	}
	if input.Description != "" {
		params.Description = stripe.String(input.Description)
	}
	if input.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(input.ReceiptEmail)
	}
	if input.Confirm {
		params.Confirm = stripe.Bool(true)
	}
	for k, v := range input.Metadata {
		params.AddMetadata(k, v)
	}
	if input.IdempotencyKey != "" {
		params.SetIdempotencyKey(input.IdempotencyKey)
	}
	if input.StripeAccount != "" {
		params.SetStripeAccount(input.StripeAccount)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, mapStripeError(err)
	}
	return toPaymentIntent(pi), nil
}

// ConfirmPayment confirms an existing intent with a payment method
func (g *StripeGateway) ConfirmPayment(ctx context.Context, intentID, paymentMethodID string) (*services.PaymentIntent, error) {
	if g.api == nil {
		return nil, domainerrors.ErrGatewayNotConfigured
	}
	params := &stripe.PaymentIntentConfirmParams{}
	params.Context = ctx
	if paymentMethodID != "" {
		params.PaymentMethod = stripe.String(paymentMethodID)
	}

	pi, err := g.api.PaymentIntents.Confirm(intentID, params)
	if err != nil {
		return nil, mapStripeError(err)
	}
	return toPaymentIntent(pi), nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*services.WebhookEvent, error) {
	if g.webhookSecret == "" {
		return nil, domainerrors.ErrGatewayNotConfigured
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrUnauthorized, err)
	}

	out := &services.WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if strings.HasPrefix(out.Type, "payment_intent.") && event.Data != nil {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("%w: malformed payment intent: %v", domainerrors.ErrBadRequest, err)
		}
		out.PaymentIntent = toPaymentIntent(&pi)
	}
	return out, nil
}

func toPaymentIntent(pi *stripe.PaymentIntent) *services.PaymentIntent {
	out := &services.PaymentIntent{
		ID:            pi.ID,
		Status:        string(pi.Status),
		ClientSecret:  pi.ClientSecret,
		AmountInCents: pi.Amount,
		Currency:      string(pi.Currency),
		Metadata:      pi.Metadata,
	}
	if pi.LastPaymentError != nil {
		out.FailureCode = string(pi.LastPaymentError.Code)
		out.FailureMessage = pi.LastPaymentError.Msg
	}
	if pi.LatestCharge != nil {
		out.LatestChargeID = pi.LatestCharge.ID
		if pi.LatestCharge.Outcome != nil {
			if raw, err := json.Marshal(pi.LatestCharge.Outcome); err == nil {
				out.RiskMetadata = raw
			}
		}
	}
	return out
}

func mapStripeError(err error) error {
	var serr *stripe.Error
	if !errors.As(err, &serr) {
		return err
	}
	return &services.GatewayError{
		Type:        string(serr.Type),
		Code:        string(serr.Code),
		DeclineCode: string(serr.DeclineCode),
		Message:     serr.Msg,
		HTTPStatus:  serr.HTTPStatusCode,
	}
}

// zapLeveledLogger routes stripe-go client logs into zap.
type zapLeveledLogger struct {
	log *zap.SugaredLogger
}

func (l *zapLeveledLogger) Debugf(format string, v ...interface{}) { l.log.Debugf(format, v...) }
func (l *zapLeveledLogger) Infof(format string, v ...interface{})  { l.log.Debugf(format, v...) }
func (l *zapLeveledLogger) Warnf(format string, v ...interface{})  { l.log.Warnf(format, v...) }
func (l *zapLeveledLogger) Errorf(format string, v ...interface{}) { l.log.Errorf(format, v...) }
