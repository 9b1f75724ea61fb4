package usecases

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gradvillage.backend/internal/domain/entities"
	domainerrors "gradvillage.backend/internal/domain/errors"
	"gradvillage.backend/internal/domain/services"
)

func TestPaymentCharger_Fees(t *testing.T) {
	c := newPaymentCharger(nil, ChargeConfig{FeePercentage: 2.9, FeeFixedCents: 30}, nil)
	tests := []struct {
		gross, net, fee string
	}{
		{"25", "23.97", "1.03"},
		{"50", "48.25", "1.75"},
		{"10", "9.41", "0.59"},
		{"0.20", "0", "0.20"},
	}
	for _, tt := range tests {
		net, fee := c.fees(decimal.RequireFromString(tt.gross))
		assert.True(t, decimal.RequireFromString(tt.net).Equal(net), "net for %s: %s", tt.gross, net)
		assert.True(t, decimal.RequireFromString(tt.fee).Equal(fee), "fee for %s: %s", tt.gross, fee)
	}

	free := newPaymentCharger(nil, ChargeConfig{}, nil)
	net, fee := free.fees(decimal.NewFromInt(25))
	assert.True(t, net.Equal(decimal.NewFromInt(25)))
	assert.True(t, fee.IsZero())
}

func TestPaymentCharger_SyntheticHonoursDelay(t *testing.T) {
	orig := sleepContext
	defer func() { sleepContext = orig }()

	var slept time.Duration
	sleepContext = func(_ context.Context, d time.Duration) error {
		slept = d
		return nil
	}

	c := newPaymentCharger(nil, ChargeConfig{AllowTestCards: true, SyntheticDelay: 750 * time.Millisecond}, nil)
	pi, err := c.charge(context.Background(), chargeRequest{
		Flow:     FlowRegistration,
		Amount:   decimal.RequireFromString("12.34"),
		TestCard: &entities.TestCardData{Number: "6011111111111117"},
	})
	require.NoError(t, err)
	assert.Equal(t, 750*time.Millisecond, slept)
	assert.True(t, pi.SyntheticResult)
	assert.Equal(t, int64(1234), pi.AmountInCents)
	assert.Equal(t, "usd", pi.Currency)
	assert.Len(t, pi.ID, len(syntheticIntentPrefix)+24)
}

func TestPaymentCharger_SyntheticCancelled(t *testing.T) {
	c := newPaymentCharger(nil, ChargeConfig{AllowTestCards: true, SyntheticDelay: time.Minute}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.charge(ctx, chargeRequest{
		Flow:     FlowDonation,
		Amount:   decimal.NewFromInt(5),
		TestCard: &entities.TestCardData{Number: "6011111111111117"},
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPaymentCharger_TestCardsDisabled(t *testing.T) {
	c := newPaymentCharger(nil, ChargeConfig{AllowTestCards: false}, nil)
	_, err := c.charge(context.Background(), chargeRequest{
		Flow:     FlowRegistration,
		Amount:   decimal.NewFromInt(25),
		TestCard: &entities.TestCardData{Number: "6011111111111117"},
	})
	appErr, ok := domainerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, "paymentMethodId", appErr.Details["field"])
}

func TestPaymentCharger_NoGateway(t *testing.T) {
	c := newPaymentCharger(nil, ChargeConfig{}, nil)
	assert.Equal(t, "none", c.providerName())

	_, err := c.charge(context.Background(), chargeRequest{
		Flow:            FlowRegistration,
		Amount:          decimal.NewFromInt(25),
		PaymentMethodID: "pm_123",
	})
	appErr, ok := domainerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, appErr.Status)
	assert.Equal(t, CodeGatewayUnavailable, appErr.Code)
	assert.ErrorIs(t, err, domainerrors.ErrGatewayNotConfigured)
}

type stubGateway struct {
	pi  *services.PaymentIntent
	err error
	in  services.PaymentIntentInput
}

func (g *stubGateway) Name() string { return "stub" }

func (g *stubGateway) CreatePaymentIntent(_ context.Context, in services.PaymentIntentInput) (*services.PaymentIntent, error) {
	g.in = in
	return g.pi, g.err
}

func (g *stubGateway) ConfirmPayment(context.Context, string, string) (*services.PaymentIntent, error) {
	return g.pi, g.err
}

func (g *stubGateway) ParseWebhook([]byte, string) (*services.WebhookEvent, error) {
	return nil, errors.New("not implemented")
}

func TestPaymentCharger_GatewayErrors(t *testing.T) {
	gw := &stubGateway{err: errors.New("connection reset")}
	c := newPaymentCharger(gw, ChargeConfig{Currency: "USD"}, nil)

	_, err := c.charge(context.Background(), chargeRequest{
		Flow:            FlowDonation,
		Amount:          decimal.RequireFromString("19.99"),
		PaymentMethodID: " pm_abc ",
		IdempotencyKey:  "k1",
	})
	appErr, ok := domainerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, domainerrors.CodePaymentFailed, appErr.Code)

	assert.Equal(t, "pm_abc", gw.in.PaymentMethodID)
	assert.Equal(t, int64(1999), gw.in.AmountInCents)
	assert.Equal(t, "usd", gw.in.Currency)
	assert.Equal(t, "donation:k1", gw.in.IdempotencyKey)
	assert.True(t, gw.in.Confirm)

	gw.err = domainerrors.ErrGatewayNotConfigured
	_, err = c.charge(context.Background(), chargeRequest{Flow: FlowDonation, Amount: decimal.NewFromInt(1), PaymentMethodID: "pm"})
	appErr, _ = domainerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusServiceUnavailable, appErr.Status)
}

func TestIntentOutcomeError(t *testing.T) {
	assert.NoError(t, intentOutcomeError(&services.PaymentIntent{Status: services.IntentSucceeded}))

	err := intentOutcomeError(&services.PaymentIntent{ID: "pi_1", Status: services.IntentRequiresAction, ClientSecret: "sec"})
	appErr, ok := domainerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, domainerrors.CodeRequiresAction, appErr.Code)
	assert.Equal(t, "sec", appErr.Details["clientSecret"])

	err = intentOutcomeError(&services.PaymentIntent{ID: "pi_2", Status: services.IntentRequiresPaymentMethod, FailureMessage: "Card expired"})
	appErr, ok = domainerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, domainerrors.CodePaymentFailed, appErr.Code)
	assert.Equal(t, "Card expired", appErr.Message)
	assert.Equal(t, services.IntentRequiresPaymentMethod, appErr.Details["status"])
}

func TestOutboxDispatcher_Backoff(t *testing.T) {
	d := NewOutboxDispatcher(nil, OutboxConfig{BaseBackoff: 30 * time.Second, MaxBackoff: 10 * time.Minute}, nil)
	assert.Equal(t, 30*time.Second, d.backoff(0))
	assert.Equal(t, time.Minute, d.backoff(1))
	assert.Equal(t, 8*time.Minute, d.backoff(4))
	assert.Equal(t, 10*time.Minute, d.backoff(5))
	assert.Equal(t, 10*time.Minute, d.backoff(40))
}
