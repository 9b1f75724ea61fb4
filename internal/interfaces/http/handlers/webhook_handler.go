package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	domainerrors "gradvillage.backend/internal/domain/errors"
	"gradvillage.backend/internal/domain/services"
	"gradvillage.backend/internal/interfaces/http/response"
)

const (
	// StripeSignatureHeader carries the webhook signature
	StripeSignatureHeader = "Stripe-Signature"
	maxWebhookBody        = 1 << 20
)

type webhookService interface {
	HandlePaymentWebhook(ctx context.Context, payload []byte, signature string) (*services.WebhookEvent, error)
}

// WebhookHandler handles payment gateway callbacks
type WebhookHandler struct {
	webhookUsecase webhookService
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(webhookUsecase webhookService) *WebhookHandler {
	return &WebhookHandler{webhookUsecase: webhookUsecase}
}

// HandlePaymentWebhook verifies and applies a gateway event
// POST /api/webhooks/payment
func (h *WebhookHandler) HandlePaymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("unable to read webhook body"))
		return
	}

	event, err := h.webhookUsecase.HandlePaymentWebhook(c.Request.Context(), payload, c.GetHeader(StripeSignatureHeader))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true, "type": event.Type})
}
