package repositories

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"gradvillage.backend/internal/domain/entities"
	domainerrors "gradvillage.backend/internal/domain/errors"
	"gradvillage.backend/internal/infrastructure/models"
	"gradvillage.backend/pkg/utils"
)

// RegistrationFeeRepository implements registration fee data operations
type RegistrationFeeRepository struct {
	db *gorm.DB
}

// NewRegistrationFeeRepository creates a new registration fee repository
func NewRegistrationFeeRepository(db *gorm.DB) *RegistrationFeeRepository {
	return &RegistrationFeeRepository{db: db}
}

// Create inserts a fee record
func (r *RegistrationFeeRepository) Create(ctx context.Context, fee *entities.RegistrationFee) error {
	now := time.Now()
	if fee.ID == uuid.Nil {
		fee.ID = utils.GenerateUUIDv7()
	}
	fee.CreatedAt, fee.UpdatedAt = now, now

	m := &models.RegistrationFee{
		ID:              fee.ID,
		StudentID:       fee.StudentID,
		PayerEmail:      fee.PayerEmail,
		Amount:          fee.Amount,
		Currency:        fee.Currency,
		Status:          string(fee.Status),
		PaymentIntentID: fee.PaymentIntentID,
		ReceiptNumber:   fee.ReceiptNumber,
		IdempotencyKey:  fee.IdempotencyKey.Ptr(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return translateErr(GetDB(ctx, r.db).Create(m).Error)
}

// GetByID gets a fee by ID
func (r *RegistrationFeeRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.RegistrationFee, error) {
	var m models.RegistrationFee
	if err := GetDB(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translateErr(err)
	}
	return toRegistrationFeeEntity(&m), nil
}

// GetByIdempotencyKey gets the fee created for a client idempotency key
func (r *RegistrationFeeRepository) GetByIdempotencyKey(ctx context.Context, key string) (*entities.RegistrationFee, error) {
	var m models.RegistrationFee
	if err := GetDB(ctx, r.db).Where("idempotency_key = ?", key).First(&m).Error; err != nil {
		return nil, translateErr(err)
	}
	return toRegistrationFeeEntity(&m), nil
}

// GetLatestByStudentID gets the student's most recent fee
func (r *RegistrationFeeRepository) GetLatestByStudentID(ctx context.Context, studentID uuid.UUID) (*entities.RegistrationFee, error) {
	var m models.RegistrationFee
	if err := GetDB(ctx, r.db).Where("student_id = ?", studentID).Order("created_at DESC").First(&m).Error; err != nil {
		return nil, translateErr(err)
	}
	return toRegistrationFeeEntity(&m), nil
}

// CountByStudentID counts fee rows for a student
func (r *RegistrationFeeRepository) CountByStudentID(ctx context.Context, studentID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&models.RegistrationFee{}).Where("student_id = ?", studentID).Count(&count).Error
	return count, err
}

// CompletedTotals sums completed fees
func (r *RegistrationFeeRepository) CompletedTotals(ctx context.Context) (entities.PaymentTotals, error) {
	return completedTotals(GetDB(ctx, r.db), &models.RegistrationFee{}, "amount")
}

func toRegistrationFeeEntity(m *models.RegistrationFee) *entities.RegistrationFee {
	return &entities.RegistrationFee{
		ID:              m.ID,
		StudentID:       m.StudentID,
		PayerEmail:      m.PayerEmail,
		Amount:          m.Amount,
		Currency:        m.Currency,
		Status:          entities.PaymentStatus(m.Status),
		PaymentIntentID: m.PaymentIntentID,
		ReceiptNumber:   m.ReceiptNumber,
		IdempotencyKey:  null.StringFromPtr(m.IdempotencyKey),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// DonationRepository implements donation data operations
type DonationRepository struct {
	db *gorm.DB
}

// NewDonationRepository creates a new donation repository
func NewDonationRepository(db *gorm.DB) *DonationRepository {
	return &DonationRepository{db: db}
}

// Create inserts a donation
func (r *DonationRepository) Create(ctx context.Context, d *entities.Donation) error {
	now := time.Now()
	if d.ID == uuid.Nil {
		d.ID = utils.GenerateUUIDv7()
	}
	d.CreatedAt, d.UpdatedAt = now, now

	m := &models.Donation{
		ID:              d.ID,
		StudentID:       d.StudentID,
		DonorUserID:     d.DonorUserID,
		DonorName:       d.DonorName,
		DonorEmail:      d.DonorEmail,
		Amount:          d.Amount,
		NetAmount:       d.NetAmount,
		Currency:        d.Currency,
		Status:          string(d.Status),
		PaymentIntentID: d.PaymentIntentID,
		ReceiptNumber:   d.ReceiptNumber,
		Message:         d.Message,
		Anonymous:       d.Anonymous,
		IdempotencyKey:  d.IdempotencyKey.Ptr(),
		FailureReason:   d.FailureReason.Ptr(),
		CompletedAt:     d.CompletedAt.Ptr(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return translateErr(GetDB(ctx, r.db).Create(m).Error)
}

// GetByID gets a donation by ID
func (r *DonationRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Donation, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByIdempotencyKey gets the donation created for a client idempotency key
func (r *DonationRepository) GetByIdempotencyKey(ctx context.Context, key string) (*entities.Donation, error) {
	return r.first(ctx, "idempotency_key = ?", key)
}

// GetByPaymentIntentID gets the donation charged by a gateway intent
func (r *DonationRepository) GetByPaymentIntentID(ctx context.Context, intentID string) (*entities.Donation, error) {
	return r.first(ctx, "payment_intent_id = ?", intentID)
}

func (r *DonationRepository) first(ctx context.Context, query string, arg interface{}) (*entities.Donation, error) {
	var m models.Donation
	if err := GetDB(ctx, r.db).Where(query, arg).First(&m).Error; err != nil {
		return nil, translateErr(err)
	}
	return toDonationEntity(&m), nil
}

// ListByDonor lists donations made by a donor account or email
func (r *DonationRepository) ListByDonor(ctx context.Context, userID uuid.UUID, email string, limit, offset int) ([]*entities.Donation, int64, error) {
	query := GetDB(ctx, r.db).Model(&models.Donation{}).Where("donor_user_id = ? OR donor_email = ?", userID, email)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []models.Donation
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&ms).Error; err != nil {
		return nil, 0, err
	}
	out := make([]*entities.Donation, 0, len(ms))
	for i := range ms {
		out = append(out, toDonationEntity(&ms[i]))
	}
	return out, total, nil
}

// UpdateStatus applies a guarded status change
func (r *DonationRepository) UpdateStatus(ctx context.Context, change entities.DonationStatusChange) error {
	updates := map[string]interface{}{
		"status":         string(change.To),
		"completed_at":   change.CompletedAt.Ptr(),
		"failure_reason": change.FailureReason.Ptr(),
		"updated_at":     time.Now(),
	}
	if change.NetAmount != nil {
		updates["net_amount"] = *change.NetAmount
	}

	result := GetDB(ctx, r.db).Model(&models.Donation{}).
		Where("id = ? AND status = ?", change.ID, string(change.From)).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrInvalidTransition
	}
	return nil
}

// GetStalePending lists donations left pending since before the cutoff
func (r *DonationRepository) GetStalePending(ctx context.Context, before time.Time, limit int) ([]*entities.Donation, error) {
	var ms []models.Donation
	if err := GetDB(ctx, r.db).
		Where("status = ? AND created_at < ?", string(entities.PaymentStatusPending), before).
		Order("created_at ASC").
		Limit(limit).
		Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]*entities.Donation, 0, len(ms))
	for i := range ms {
		out = append(out, toDonationEntity(&ms[i]))
	}
	return out, nil
}

// CompletedTotals sums completed donations
func (r *DonationRepository) CompletedTotals(ctx context.Context) (entities.PaymentTotals, error) {
	return completedTotals(GetDB(ctx, r.db), &models.Donation{}, "amount")
}

func toDonationEntity(m *models.Donation) *entities.Donation {
	return &entities.Donation{
		ID:              m.ID,
		StudentID:       m.StudentID,
		DonorUserID:     m.DonorUserID,
		DonorName:       m.DonorName,
		DonorEmail:      m.DonorEmail,
		Amount:          m.Amount,
		NetAmount:       m.NetAmount,
		Currency:        m.Currency,
		Status:          entities.PaymentStatus(m.Status),
		PaymentIntentID: m.PaymentIntentID,
		ReceiptNumber:   m.ReceiptNumber,
		Message:         m.Message,
		Anonymous:       m.Anonymous,
		IdempotencyKey:  null.StringFromPtr(m.IdempotencyKey),
		FailureReason:   null.StringFromPtr(m.FailureReason),
		CompletedAt:     null.TimeFromPtr(m.CompletedAt),
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// PaymentTransactionRepository implements gateway audit rows
type PaymentTransactionRepository struct {
	db *gorm.DB
}

// NewPaymentTransactionRepository creates a new payment transaction repository
func NewPaymentTransactionRepository(db *gorm.DB) *PaymentTransactionRepository {
	return &PaymentTransactionRepository{db: db}
}

// Create inserts a transaction row
func (r *PaymentTransactionRepository) Create(ctx context.Context, tx *entities.PaymentTransaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = utils.GenerateUUIDv7()
	}
	tx.CreatedAt = time.Now()

	risk := "{}"
	if len(tx.RiskMetadata) > 0 && json.Valid(tx.RiskMetadata) {
		risk = string(tx.RiskMetadata)
	}

	m := &models.PaymentTransaction{
		ID:                    tx.ID,
		SourceType:            string(tx.SourceType),
		SourceID:              tx.SourceID,
		Provider:              tx.Provider,
		ProviderTransactionID: tx.ProviderTransactionID,
		GrossAmount:           tx.GrossAmount,
		NetAmount:             tx.NetAmount,
		FeeAmount:             tx.FeeAmount,
		Currency:              tx.Currency,
		Status:                string(tx.Status),
		RiskMetadata:          risk,
		CreatedAt:             tx.CreatedAt,
	}
	return translateErr(GetDB(ctx, r.db).Create(m).Error)
}

// ListBySource lists transactions recorded for a fee or donation
func (r *PaymentTransactionRepository) ListBySource(ctx context.Context, sourceType entities.SourceType, sourceID uuid.UUID) ([]*entities.PaymentTransaction, error) {
	var ms []models.PaymentTransaction
	if err := GetDB(ctx, r.db).
		Where("source_type = ? AND source_id = ?", string(sourceType), sourceID).
		Order("created_at ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]*entities.PaymentTransaction, 0, len(ms))
	for _, m := range ms {
		out = append(out, &entities.PaymentTransaction{
			ID:                    m.ID,
			SourceType:            entities.SourceType(m.SourceType),
			SourceID:              m.SourceID,
			Provider:              m.Provider,
			ProviderTransactionID: m.ProviderTransactionID,
			GrossAmount:           m.GrossAmount,
			NetAmount:             m.NetAmount,
			FeeAmount:             m.FeeAmount,
			Currency:              m.Currency,
			Status:                entities.PaymentStatus(m.Status),
			RiskMetadata:          json.RawMessage(m.RiskMetadata),
			CreatedAt:             m.CreatedAt,
		})
	}
	return out, nil
}
