package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gradvillage.backend/internal/domain/entities"
	domainerrors "gradvillage.backend/internal/domain/errors"
)

func TestTaxReceiptRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaxReceiptRepository(db)
	ctx := context.Background()
	source := uuid.New()

	rc := &entities.TaxReceipt{
		ReceiptNumber: "GV2025-123456-abcd",
		SourceType:    entities.SourceDonation,
		SourceID:      source,
		DonorName:     "Don",
		DonorEmail:    "Don@X.io",
		Amount:        decimal.NewFromInt(50),
		Currency:      "usd",
		Description:   "Donation",
		DonationDate:  time.Now(),
		NonprofitName: "GradVillage",
		NonprofitEIN:  "12-3456789",
		PDFURL:        "/static/receipts/GV2025-123456-abcd.pdf",
	}
	require.NoError(t, repo.Create(ctx, rc))
	assert.False(t, rc.IssuedAt.IsZero())

	bySource, err := repo.GetBySource(ctx, entities.SourceDonation, source)
	require.NoError(t, err)
	assert.Equal(t, rc.ReceiptNumber, bySource.ReceiptNumber)
	assert.Equal(t, "don@x.io", bySource.DonorEmail)

	byNumber, err := repo.GetByNumber(ctx, rc.ReceiptNumber)
	require.NoError(t, err)
	assert.Equal(t, rc.ID, byNumber.ID)

	list, err := repo.ListByEmail(ctx, "DON@x.io")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	second := *rc
	second.ID = uuid.Nil
	second.ReceiptNumber = "GV2025-654321-wxyz"
	assert.ErrorIs(t, repo.Create(ctx, &second), domainerrors.ErrAlreadyExists)

	_, err = repo.GetBySource(ctx, entities.SourceRegistrationFee, source)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}
