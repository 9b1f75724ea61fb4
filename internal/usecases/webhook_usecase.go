package usecases

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"
	domainerrors "gradvillage.backend/internal/domain/errors"
	"gradvillage.backend/internal/domain/services"
	"gradvillage.backend/pkg/logger"
)

// WebhookUsecase applies verified payment gateway callbacks
type WebhookUsecase struct {
	gateway   services.PaymentGateway
	donations *DonationUsecase
}

// NewWebhookUsecase creates a new webhook usecase
func NewWebhookUsecase(gateway services.PaymentGateway, donations *DonationUsecase) *WebhookUsecase {
	return &WebhookUsecase{gateway: gateway, donations: donations}
}

// HandlePaymentWebhook verifies the signature and applies the event.
func (u *WebhookUsecase) HandlePaymentWebhook(ctx context.Context, payload []byte, signature string) (*services.WebhookEvent, error) {
	if u.gateway == nil {
		return nil, gatewayUnavailable(domainerrors.ErrGatewayNotConfigured)
	}
	event, err := u.gateway.ParseWebhook(payload, signature)
	if err != nil {
		switch {
		case errors.Is(err, domainerrors.ErrUnauthorized):
			return nil, domainerrors.Unauthorized("invalid webhook signature")
		case errors.Is(err, domainerrors.ErrGatewayNotConfigured):
			return nil, domainerrors.NewAppError(http.StatusServiceUnavailable, CodeGatewayUnavailable, "webhook secret is not configured", err)
		case errors.Is(err, domainerrors.ErrBadRequest):
			return nil, domainerrors.BadRequest("malformed webhook payload")
		}
		return nil, err
	}

	switch event.Type {
	case services.EventPaymentIntentSucceeded:
		if event.PaymentIntent != nil {
			err = u.donations.CompleteFromWebhook(ctx, event.PaymentIntent)
		}
	case services.EventPaymentIntentFailed:
		if event.PaymentIntent != nil {
			err = u.donations.FailFromWebhook(ctx, event.PaymentIntent)
		}
	default:
		logger.Info(ctx, "Unhandled webhook event", zap.String("event_id", event.ID), zap.String("type", event.Type))
	}
	if err != nil {
		logger.Error(ctx, "Failed to apply webhook event",
			zap.String("event_id", event.ID), zap.String("type", event.Type), zap.Error(err))
		return nil, err
	}
	return event, nil
}
