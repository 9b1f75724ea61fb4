package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gradvillage.backend/internal/domain/entities"
	"gradvillage.backend/internal/infrastructure/models"
	"gradvillage.backend/pkg/utils"
)

// TaxReceiptRepository implements tax receipt data operations
type TaxReceiptRepository struct {
	db *gorm.DB
}

// NewTaxReceiptRepository creates a new tax receipt repository
func NewTaxReceiptRepository(db *gorm.DB) *TaxReceiptRepository {
	return &TaxReceiptRepository{db: db}
}

// Create stores an issued receipt; a second receipt for the same source is rejected
func (r *TaxReceiptRepository) Create(ctx context.Context, rc *entities.TaxReceipt) error {
	if rc.ID == uuid.Nil {
		rc.ID = utils.GenerateUUIDv7()
	}
	if rc.IssuedAt.IsZero() {
		rc.IssuedAt = time.Now()
	}

	m := &models.TaxReceipt{
		ID:               rc.ID,
		ReceiptNumber:    rc.ReceiptNumber,
		SourceType:       string(rc.SourceType),
		SourceID:         rc.SourceID,
		DonorName:        rc.DonorName,
		DonorEmail:       utils.NormalizeEmail(rc.DonorEmail),
		Amount:           rc.Amount,
		Currency:         rc.Currency,
		Description:      rc.Description,
		DonationDate:     rc.DonationDate,
		NonprofitName:    rc.NonprofitName,
		NonprofitEIN:     rc.NonprofitEIN,
		NonprofitAddress: rc.NonprofitAddress,
		PDFURL:           rc.PDFURL,
		IssuedAt:         rc.IssuedAt,
	}
	return translateErr(GetDB(ctx, r.db).Create(m).Error)
}

// GetByNumber gets a receipt by its public number
func (r *TaxReceiptRepository) GetByNumber(ctx context.Context, number string) (*entities.TaxReceipt, error) {
	var m models.TaxReceipt
	if err := GetDB(ctx, r.db).Where("receipt_number = ?", number).First(&m).Error; err != nil {
		return nil, translateErr(err)
	}
	return toTaxReceiptEntity(&m), nil
}

// GetBySource gets the receipt issued for a fee or donation
func (r *TaxReceiptRepository) GetBySource(ctx context.Context, sourceType entities.SourceType, sourceID uuid.UUID) (*entities.TaxReceipt, error) {
	var m models.TaxReceipt
	if err := GetDB(ctx, r.db).Where("source_type = ? AND source_id = ?", string(sourceType), sourceID).First(&m).Error; err != nil {
		return nil, translateErr(err)
	}
	return toTaxReceiptEntity(&m), nil
}

// ListByEmail lists receipts issued to an email, newest first
func (r *TaxReceiptRepository) ListByEmail(ctx context.Context, email string) ([]*entities.TaxReceipt, error) {
	var ms []models.TaxReceipt
	if err := GetDB(ctx, r.db).Where("donor_email = ?", utils.NormalizeEmail(email)).Order("issued_at DESC").Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]*entities.TaxReceipt, 0, len(ms))
	for i := range ms {
		out = append(out, toTaxReceiptEntity(&ms[i]))
	}
	return out, nil
}

func toTaxReceiptEntity(m *models.TaxReceipt) *entities.TaxReceipt {
	return &entities.TaxReceipt{
		ID:               m.ID,
		ReceiptNumber:    m.ReceiptNumber,
		SourceType:       entities.SourceType(m.SourceType),
		SourceID:         m.SourceID,
		DonorName:        m.DonorName,
		DonorEmail:       m.DonorEmail,
		Amount:           m.Amount,
		Currency:         m.Currency,
		Description:      m.Description,
		DonationDate:     m.DonationDate,
		NonprofitName:    m.NonprofitName,
		NonprofitEIN:     m.NonprofitEIN,
		NonprofitAddress: m.NonprofitAddress,
		PDFURL:           m.PDFURL,
		IssuedAt:         m.IssuedAt,
	}
}
