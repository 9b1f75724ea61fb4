package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gradvillage.backend/internal/domain/entities"
	domainerrors "gradvillage.backend/internal/domain/errors"
	"gradvillage.backend/internal/interfaces/http/middleware"
	"gradvillage.backend/internal/interfaces/http/response"
	"gradvillage.backend/internal/usecases"
)

type registrationPaymentService interface {
	ProcessRegistrationPayment(ctx context.Context, input *entities.RegistrationPaymentInput) (*entities.RegistrationPaymentResult, error)
	GatewayStatus() usecases.GatewayStatus
}

type taxReceiptService interface {
	GetByNumber(ctx context.Context, number string) (*entities.TaxReceipt, error)
	ListByEmail(ctx context.Context, email string) ([]*entities.TaxReceipt, error)
}

// RegistrationPaymentHandler serves the signup-with-payment flow and its receipts
type RegistrationPaymentHandler struct {
	registration registrationPaymentService
	receipts     taxReceiptService
}

// NewRegistrationPaymentHandler creates a new registration payment handler
func NewRegistrationPaymentHandler(registration registrationPaymentService, receipts taxReceiptService) *RegistrationPaymentHandler {
	return &RegistrationPaymentHandler{registration: registration, receipts: receipts}
}

// ProcessPayment charges the registration fee and activates the student
// POST /api/registration-payment/process
func (h *RegistrationPaymentHandler) ProcessPayment(c *gin.Context) {
	var input entities.RegistrationPaymentInput
	if !bindJSON(c, &input) {
		return
	}
	if input.IdempotencyKey == "" {
		input.IdempotencyKey = strings.TrimSpace(c.GetHeader(middleware.IdempotencyHeader))
	}

	result, err := h.registration.ProcessRegistrationPayment(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Payload(c, http.StatusOK, gin.H{
		"message":       result.Message,
		"paymentIntent": result.PaymentIntent,
		"user":          result.User,
		"token":         result.Token,
		"taxReceipt":    result.TaxReceipt,
		"sideEffects":   result.SideEffects,
		"metadata":      result.Metadata,
	})
}

// GetTaxReceipt returns one issued receipt
// GET /api/registration-payment/tax-receipt/:receiptNumber
func (h *RegistrationPaymentHandler) GetTaxReceipt(c *gin.Context) {
	receipt, err := h.receipts.GetByNumber(c.Request.Context(), c.Param("receiptNumber"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, receipt)
}

// ListTaxReceipts lists receipts issued to the caller's email
// GET /api/registration-payment/tax-receipts
func (h *RegistrationPaymentHandler) ListTaxReceipts(c *gin.Context) {
	email, ok := middleware.GetUserEmail(c)
	if !ok || email == "" {
		response.Error(c, domainerrors.Unauthorized("User not authenticated"))
		return
	}

	receipts, err := h.receipts.ListByEmail(c.Request.Context(), email)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"receipts": receipts})
}

// Health reports the payment backend capabilities
// GET /api/registration-payment/health
func (h *RegistrationPaymentHandler) Health(c *gin.Context) {
	status := h.registration.GatewayStatus()
	response.Payload(c, http.StatusOK, gin.H{
		"status":  "ok",
		"gateway": status,
		"features": []string{
			"registration_payment",
			"test_cards",
			"tax_receipts",
			"email_notifications",
			"idempotency_keys",
			"donations",
			"webhooks",
		},
	})
}
