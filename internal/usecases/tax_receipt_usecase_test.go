package usecases_test

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gradvillage.backend/internal/domain/entities"
	domainerrors "gradvillage.backend/internal/domain/errors"
	"gradvillage.backend/internal/domain/services"
)

func TestTaxReceipt_FetchedTwiceIsIdentical(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res, err := h.registration.ProcessRegistrationPayment(ctx, syntheticInput("receipt@example.com"))
	require.NoError(t, err)
	require.NotNil(t, res.TaxReceipt.ReceiptNumber)
	number := *res.TaxReceipt.ReceiptNumber

	first, err := h.receipts.GetByNumber(ctx, number)
	require.NoError(t, err)
	second, err := h.receipts.GetByNumber(ctx, " "+number+" ")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Equal(t, "Ada Lovelace", first.DonorName)
	assert.Equal(t, "receipt@example.com", first.DonorEmail)
	assert.True(t, mustDecimal("25").Equal(first.Amount))
	assert.Equal(t, "GradVillage", first.NonprofitName)
	assert.Equal(t, "12-3456789", first.NonprofitEIN)
	assert.Equal(t, entities.SourceRegistrationFee, first.SourceType)
	assert.Equal(t, "https://files.test/receipts/"+number+".pdf", first.PDFURL)

	body := h.storage.objects["receipts/"+number+".pdf"]
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
}

func TestTaxReceipt_IssueIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res, err := h.registration.ProcessRegistrationPayment(ctx, syntheticInput("again@example.com"))
	require.NoError(t, err)
	puts := h.storage.puts

	ref := entities.SourceRef{SourceID: res.Metadata.RegistrationFeeID}
	receipt, err := h.receipts.IssueForRegistrationFee(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, *res.TaxReceipt.ReceiptNumber, receipt.ReceiptNumber)
	assert.Equal(t, puts, h.storage.puts, "issued receipts are never regenerated")
}

func TestTaxReceipt_PendingDonationHasNoReceipt(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	student := h.publishedStudent(t, "pending-receipt@example.com")

	h.gateway.On("CreatePaymentIntent", mock.Anything, mock.Anything).Return(&services.PaymentIntent{
		ID:     "pi_wait",
		Status: services.IntentRequiresAction,
	}, nil).Once()
	input := donationInput(student.ID)
	input.TestCardData = nil
	input.PaymentMethodID = "pm_3ds"
	_, err := h.donations.CreateDonation(ctx, input)
	require.Error(t, err)

	d, err := h.donationRepo.GetByPaymentIntentID(ctx, "pi_wait")
	require.NoError(t, err)

	_, err = h.receipts.IssueForDonation(ctx, entities.SourceRef{SourceID: d.ID})
	requireAppError(t, err, http.StatusConflict, domainerrors.CodeInvalidTransition)
}

func TestTaxReceipt_LookupErrors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.receipts.GetByNumber(ctx, "  ")
	appErr := requireAppError(t, err, http.StatusBadRequest, domainerrors.CodeInvalidInput)
	assert.Equal(t, "receiptNumber", appErr.Details["field"])

	_, err = h.receipts.GetByNumber(ctx, "GV-20260101-NOPE")
	requireAppError(t, err, http.StatusNotFound, domainerrors.CodeNotFound)
}

func TestTaxReceipt_ListByEmail(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	student := h.publishedStudent(t, "lister@example.com")

	_, err := h.donations.CreateDonation(ctx, donationInput(student.ID))
	require.NoError(t, err)
	_, err = h.donations.CreateDonation(ctx, donationInput(student.ID))
	require.NoError(t, err)

	receipts, err := h.receipts.ListByEmail(ctx, "GRACE@example.com")
	require.NoError(t, err)
	assert.Len(t, receipts, 2)
	for _, r := range receipts {
		assert.Equal(t, entities.SourceDonation, r.SourceType)
		assert.Contains(t, r.Description, "Ada Lovelace")
	}
}
