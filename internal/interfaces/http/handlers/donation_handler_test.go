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
	"gradvillage.backend/pkg/utils"
)

type donationServiceStub struct {
	createFn func(ctx context.Context, input *entities.CreateDonationInput) (*entities.DonationResult, error)
	listFn   func(ctx context.Context, userID uuid.UUID, email string, page, limit int) ([]*entities.Donation, utils.PaginationMeta, error)
}

func (s donationServiceStub) CreateDonation(ctx context.Context, input *entities.CreateDonationInput) (*entities.DonationResult, error) {
	return s.createFn(ctx, input)
}

func (s donationServiceStub) ListMine(ctx context.Context, userID uuid.UUID, email string, page, limit int) ([]*entities.Donation, utils.PaginationMeta, error) {
	return s.listFn(ctx, userID, email, page, limit)
}

func TestDonationHandler_CreateDonation(t *testing.T) {
	donor := uuid.New()
	var got *entities.CreateDonationInput
	replay := false
	h := NewDonationHandler(donationServiceStub{
		createFn: func(_ context.Context, input *entities.CreateDonationInput) (*entities.DonationResult, error) {
			got = input
			if input.Amount.IsZero() {
				return nil, domainerrors.FieldError("amount", "Amount must be greater than zero")
			}
			return &entities.DonationResult{
				Donation:         &entities.Donation{ID: uuid.New(), Amount: input.Amount, Status: entities.PaymentStatusCompleted},
				IdempotentReplay: replay,
			}, nil
		},
	})
	r := gin.New()
	r.POST("/donations", h.CreateDonation)
	r.POST("/signed-in/donations", as(caller{userID: donor, email: "grace@example.com", role: "donor"}), h.CreateDonation)

	studentID := uuid.New()
	body := `{"studentId":"` + studentID.String() + `","amount":"50","donorName":"Grace","donorEmail":"grace@example.com"}`

	w := doRequest(r, http.MethodPost, "/donations", body, "Idempotency-Key", "gift-1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Nil(t, got.DonorUserID)
	assert.Equal(t, "gift-1", got.IdempotencyKey)
	assert.Equal(t, studentID, got.StudentID)
	assert.True(t, decimal.NewFromInt(50).Equal(got.Amount))

	replay = true
	w = doRequest(r, http.MethodPost, "/signed-in/donations", `{"studentSlug":"ada-lovelace","amount":"50"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got.DonorUserID)
	assert.Equal(t, donor, *got.DonorUserID)
	assert.Equal(t, "grace@example.com", got.DonorEmail)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, true, data["idempotentReplay"])

	w = doRequest(r, http.MethodPost, "/donations", `{"studentSlug":"ada-lovelace","amount":"0"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeBody(t, w)
	assert.Equal(t, domainerrors.CodeInvalidInput, resp["code"])
	assert.Equal(t, "amount", resp["field"])
}

func TestDonationHandler_ListMyDonations(t *testing.T) {
	donor := uuid.New()
	var gotPage, gotLimit int
	h := NewDonationHandler(donationServiceStub{
		listFn: func(_ context.Context, userID uuid.UUID, email string, page, limit int) ([]*entities.Donation, utils.PaginationMeta, error) {
			assert.Equal(t, donor, userID)
			assert.Equal(t, "grace@example.com", email)
			gotPage, gotLimit = page, limit
			return []*entities.Donation{{ID: uuid.New()}}, utils.CalculateMeta(21, page, limit), nil
		},
	})
	r := gin.New()
	r.GET("/anon/mine", h.ListMyDonations)
	r.GET("/mine", as(caller{userID: donor, email: "grace@example.com", role: "donor"}), h.ListMyDonations)

	assert.Equal(t, http.StatusUnauthorized, doRequest(r, http.MethodGet, "/anon/mine", "").Code)

	w := doRequest(r, http.MethodGet, "/mine?page=2&limit=10", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, gotPage)
	assert.Equal(t, 10, gotLimit)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Len(t, data["donations"], 1)
	pagination := data["pagination"].(map[string]interface{})
	assert.Equal(t, float64(21), pagination["totalCount"])
	assert.Equal(t, float64(3), pagination["totalPages"])

	doRequest(r, http.MethodGet, "/mine?limit=500", "")
	assert.Equal(t, utils.MaxLimit, gotLimit)
}
