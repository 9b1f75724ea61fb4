package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gradvillage.backend/internal/domain/entities"
	domainerrors "gradvillage.backend/internal/domain/errors"
	"gradvillage.backend/internal/usecases"
)

type registrationServiceStub struct {
	processFn func(ctx context.Context, input *entities.RegistrationPaymentInput) (*entities.RegistrationPaymentResult, error)
	status    usecases.GatewayStatus
}

func (s registrationServiceStub) ProcessRegistrationPayment(ctx context.Context, input *entities.RegistrationPaymentInput) (*entities.RegistrationPaymentResult, error) {
	return s.processFn(ctx, input)
}

func (s registrationServiceStub) GatewayStatus() usecases.GatewayStatus {
	return s.status
}

type receiptServiceStub struct {
	getFn  func(ctx context.Context, number string) (*entities.TaxReceipt, error)
	listFn func(ctx context.Context, email string) ([]*entities.TaxReceipt, error)
}

func (s receiptServiceStub) GetByNumber(ctx context.Context, number string) (*entities.TaxReceipt, error) {
	return s.getFn(ctx, number)
}

func (s receiptServiceStub) ListByEmail(ctx context.Context, email string) ([]*entities.TaxReceipt, error) {
	return s.listFn(ctx, email)
}

func TestRegistrationPaymentHandler_ProcessPayment(t *testing.T) {
	var got *entities.RegistrationPaymentInput
	number := "GV2026-123456-AB12"
	url := "https://files.test/receipts/" + number + ".pdf"

	h := NewRegistrationPaymentHandler(registrationServiceStub{
		processFn: func(_ context.Context, input *entities.RegistrationPaymentInput) (*entities.RegistrationPaymentResult, error) {
			got = input
			if input.TestCardData != nil && input.TestCardData.Number == "4000000000000002" {
				return nil, domainerrors.PaymentError("card_declined", "Your card was declined.")
			}
			return &entities.RegistrationPaymentResult{
				Message: "Registration payment processed successfully",
				PaymentIntent: entities.PaymentIntentSummary{
					ID: "pi_test_1", Status: "succeeded", Amount: decimal.NewFromInt(25), Currency: "usd",
				},
				User:       entities.RegisteredUser{ID: uuid.New(), Email: input.Email, UserType: entities.UserRoleStudent},
				Token:      "jwt-token",
				TaxReceipt: entities.ReceiptSummary{ReceiptNumber: &number, ReceiptURL: &url, Issued: true},
				SideEffects: entities.SideEffectReport{
					Sent:    []string{entities.TopicIssueTaxReceipt},
					Pending: []string{},
				},
			}, nil
		},
	}, nil)
	r := gin.New()
	r.POST("/process", h.ProcessPayment)

	body := `{"email":"a@b.com","amount":2500,"registrationData":{"firstName":"Ada","lastName":"Lovelace","school":"State","email":"a@b.com"},"testCardData":{"number":"4242424242424242"}}`
	w := doRequest(r, http.MethodPost, "/process", body, "Idempotency-Key", "header-key")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "header-key", got.IdempotencyKey)
	assert.True(t, decimal.NewFromInt(2500).Equal(got.Amount))

	resp := decodeBody(t, w)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "jwt-token", resp["token"])
	pi := resp["paymentIntent"].(map[string]interface{})
	assert.Equal(t, "succeeded", pi["status"])
	assert.Equal(t, float64(25), pi["amount"])
	receipt := resp["taxReceipt"].(map[string]interface{})
	assert.Equal(t, true, receipt["issued"])
	assert.Equal(t, number, receipt["receiptNumber"])
	assert.Contains(t, resp, "metadata")
	assert.NotContains(t, resp, "data")

	// a key in the body wins over the header
	w = doRequest(r, http.MethodPost, "/process", `{"email":"a@b.com","amount":25,"idempotencyKey":"body-key"}`, "Idempotency-Key", "header-key")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "body-key", got.IdempotencyKey)

	w = doRequest(r, http.MethodPost, "/process", `{"email":"a@b.com","amount":25,"testCardData":{"number":"4000000000000002"}}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp = decodeBody(t, w)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "card_declined", resp["code"])
	assert.Equal(t, "Your card was declined.", resp["message"])

	w = doRequest(r, http.MethodPost, "/process", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegistrationPaymentHandler_ErrorDetailsAreRendered(t *testing.T) {
	h := NewRegistrationPaymentHandler(registrationServiceStub{
		processFn: func(context.Context, *entities.RegistrationPaymentInput) (*entities.RegistrationPaymentResult, error) {
			return nil, domainerrors.PaymentError(domainerrors.CodeRequiresAction, "Additional authentication required").
				WithDetail("clientSecret", "pi_1_secret")
		},
	}, nil)
	r := gin.New()
	r.POST("/process", h.ProcessPayment)

	w := doRequest(r, http.MethodPost, "/process", `{"email":"a@b.com","amount":25}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeBody(t, w)
	assert.Equal(t, domainerrors.CodeRequiresAction, resp["code"])
	assert.Equal(t, "pi_1_secret", resp["clientSecret"])
}

func TestRegistrationPaymentHandler_TaxReceipts(t *testing.T) {
	receipt := &entities.TaxReceipt{ReceiptNumber: "GV2026-000001-ZZZZ", DonorEmail: "a@b.com", Amount: decimal.NewFromInt(25)}
	var listedFor string
	h := NewRegistrationPaymentHandler(nil, receiptServiceStub{
		getFn: func(_ context.Context, number string) (*entities.TaxReceipt, error) {
			if number == receipt.ReceiptNumber {
				return receipt, nil
			}
			return nil, domainerrors.NotFound("Tax receipt not found")
		},
		listFn: func(_ context.Context, email string) ([]*entities.TaxReceipt, error) {
			listedFor = email
			return []*entities.TaxReceipt{receipt}, nil
		},
	})
	r := gin.New()
	r.GET("/tax-receipt/:receiptNumber", h.GetTaxReceipt)
	r.GET("/tax-receipts", h.ListTaxReceipts)
	r.GET("/tax-receipts-auth", as(caller{userID: uuid.New(), email: "a@b.com", role: "student"}), h.ListTaxReceipts)

	first := doRequest(r, http.MethodGet, "/tax-receipt/"+receipt.ReceiptNumber, "")
	second := doRequest(r, http.MethodGet, "/tax-receipt/"+receipt.ReceiptNumber, "")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())

	assert.Equal(t, http.StatusNotFound, doRequest(r, http.MethodGet, "/tax-receipt/nope", "").Code)

	assert.Equal(t, http.StatusUnauthorized, doRequest(r, http.MethodGet, "/tax-receipts", "").Code)
	w := doRequest(r, http.MethodGet, "/tax-receipts-auth", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a@b.com", listedFor)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Len(t, data["receipts"], 1)
}

func TestRegistrationPaymentHandler_Health(t *testing.T) {
	h := NewRegistrationPaymentHandler(registrationServiceStub{
		status: usecases.GatewayStatus{Provider: "stripe", TestCardsEnabled: true, Currency: "usd"},
	}, nil)
	r := gin.New()
	r.GET("/health", h.Health)

	w := doRequest(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)
	assert.Equal(t, "ok", resp["status"])
	gateway := resp["gateway"].(map[string]interface{})
	assert.Equal(t, "stripe", gateway["provider"])
	assert.Equal(t, true, gateway["testCardsEnabled"])
	assert.Contains(t, resp["features"], "registration_payment")
}
