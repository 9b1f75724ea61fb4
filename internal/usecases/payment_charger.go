package usecases

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gradvillage.backend/internal/domain/entities"
	domainerrors "gradvillage.backend/internal/domain/errors"
	"gradvillage.backend/internal/domain/services"
	"gradvillage.backend/pkg/crypto"
	"gradvillage.backend/pkg/logger"
	"gradvillage.backend/pkg/metrics"
	"gradvillage.backend/pkg/money"
)

// ChargeConfig controls how payments are taken
type ChargeConfig struct {
	// AllowTestCards enables raw test card numbers; always false in production.
	AllowTestCards bool
	SyntheticDelay time.Duration
	Currency       string
	FeePercentage  float64
	FeeFixedCents  int64
}

type chargeRequest struct {
	Flow            string
	Amount          decimal.Decimal
	Currency        string
	PaymentMethodID string
	TestCard        *entities.TestCardData
	Email           string
	Description     string
	Metadata        map[string]string
	IdempotencyKey  string
}

var sleepContext = func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// paymentCharger runs the test-card and gateway branches shared by registrations and donations
type paymentCharger struct {
	gateway services.PaymentGateway
	cfg     ChargeConfig
	metrics *metrics.Metrics
}

func newPaymentCharger(gateway services.PaymentGateway, cfg ChargeConfig, m *metrics.Metrics) *paymentCharger {
	if cfg.Currency == "" {
		cfg.Currency = DefaultCurrency
	}
	return &paymentCharger{gateway: gateway, cfg: cfg, metrics: m}
}

func (c *paymentCharger) currency(requested string) string {
	if cur := strings.ToLower(strings.TrimSpace(requested)); cur != "" {
		return cur
	}
	return strings.ToLower(c.cfg.Currency)
}

func (c *paymentCharger) providerName() string {
	if c.gateway == nil {
		return "none"
	}
	return c.gateway.Name()
}

// testMode reports whether the request takes the raw test card branch.
func (c *paymentCharger) testMode(req chargeRequest) bool {
	return req.TestCard != nil && c.cfg.AllowTestCards
}

// charge takes the payment and returns the resulting intent. Card declines and
// gateway failures come back as *AppError; the caller inspects the intent status.
func (c *paymentCharger) charge(ctx context.Context, req chargeRequest) (*services.PaymentIntent, error) {
	paymentMethodID := strings.TrimSpace(req.PaymentMethodID)

	if c.testMode(req) {
		card := services.ResolveTestCard(req.TestCard.Number)
		switch card.Kind {
		case services.TestCardDecline:
			c.metrics.PaymentOutcome(req.Flow, "declined")
			return nil, gatewayAppError(card.Error())
		case services.TestCardSynthetic:
			return c.synthetic(ctx, req)
		case services.TestCardToken:
			paymentMethodID = card.Token
		}
	}

	if paymentMethodID == "" {
		return nil, domainerrors.FieldError("paymentMethodId", "paymentMethodId is required")
	}
	if c.gateway == nil {
		c.metrics.PaymentOutcome(req.Flow, "error")
		return nil, gatewayUnavailable(domainerrors.ErrGatewayNotConfigured)
	}

	idempotencyKey := ""
	if req.IdempotencyKey != "" {
		idempotencyKey = req.Flow + ":" + req.IdempotencyKey
	}

	pi, err := c.gateway.CreatePaymentIntent(ctx, services.PaymentIntentInput{
		AmountInCents:   money.ToMinorUnits(req.Amount),
		Currency:        c.currency(req.Currency),
		PaymentMethodID: paymentMethodID,
		Description:     req.Description,
		ReceiptEmail:    req.Email,
		Metadata:        req.Metadata,
		IdempotencyKey:  idempotencyKey,
		Confirm:         true,
	})
	if err != nil {
		var gwErr *services.GatewayError
		switch {
		case errors.As(err, &gwErr):
			c.metrics.PaymentOutcome(req.Flow, "declined")
			return nil, gatewayAppError(gwErr)
		case errors.Is(err, domainerrors.ErrGatewayNotConfigured):
			c.metrics.PaymentOutcome(req.Flow, "error")
			return nil, gatewayUnavailable(err)
		default:
			c.metrics.PaymentOutcome(req.Flow, "error")
			logger.Error(ctx, "Payment gateway call failed", zap.String("flow", req.Flow), zap.Error(err))
			return nil, domainerrors.NewAppError(http.StatusBadRequest, domainerrors.CodePaymentFailed, "payment could not be processed", err)
		}
	}

	c.metrics.PaymentOutcome(req.Flow, pi.Status)
	return pi, nil
}

func (c *paymentCharger) synthetic(ctx context.Context, req chargeRequest) (*services.PaymentIntent, error) {
	delay := c.cfg.SyntheticDelay
	if err := sleepContext(ctx, delay); err != nil {
		return nil, err
	}
	suffix, err := crypto.RandomBase36(24)
	if err != nil {
		return nil, err
	}
	c.metrics.PaymentOutcome(req.Flow, "synthetic")
	return &services.PaymentIntent{
		ID:              syntheticIntentPrefix + suffix,
		Status:          services.IntentSucceeded,
		AmountInCents:   money.ToMinorUnits(req.Amount),
		Currency:        c.currency(req.Currency),
		Metadata:        req.Metadata,
		SyntheticResult: true,
	}, nil
}

// fees splits a gross amount into net and processing fee.
func (c *paymentCharger) fees(gross decimal.Decimal) (net, fee decimal.Decimal) {
	fee = gross.Mul(decimal.NewFromFloat(c.cfg.FeePercentage)).Div(decimal.NewFromInt(100)).
		Add(money.FromMinorUnits(c.cfg.FeeFixedCents)).
		Round(2)
	if fee.GreaterThan(gross) {
		fee = gross
	}
	return gross.Sub(fee), fee
}

// intentOutcomeError converts a non-succeeded intent into the client-facing error.
func intentOutcomeError(pi *services.PaymentIntent) error {
	switch pi.Status {
	case services.IntentSucceeded:
		return nil
	case services.IntentRequiresAction:
		return domainerrors.PaymentError(domainerrors.CodeRequiresAction, "additional authentication is required to complete this payment").
			WithDetail("clientSecret", pi.ClientSecret).
			WithDetail("paymentIntentId", pi.ID)
	default:
		msg := "payment was not completed"
		if pi.FailureMessage != "" {
			msg = pi.FailureMessage
		}
		return domainerrors.PaymentError(domainerrors.CodePaymentFailed, msg).
			WithDetail("status", pi.Status).
			WithDetail("paymentIntentId", pi.ID)
	}
}

func gatewayAppError(gwErr *services.GatewayError) *domainerrors.AppError {
	appErr := domainerrors.PaymentError(gwErr.Code, gwErr.Message)
	if gwErr.DeclineCode != "" {
		appErr.WithDetail("declineCode", gwErr.DeclineCode)
	}
	return appErr
}

func gatewayUnavailable(err error) *domainerrors.AppError {
	return domainerrors.NewAppError(http.StatusServiceUnavailable, CodeGatewayUnavailable, "payment gateway is not configured", err)
}

func intentSummary(pi *services.PaymentIntent) entities.PaymentIntentSummary {
	return entities.PaymentIntentSummary{
		ID:       pi.ID,
		Status:   pi.Status,
		Amount:   money.FromMinorUnits(pi.AmountInCents),
		Currency: pi.Currency,
	}
}
