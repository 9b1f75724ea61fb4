package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gradvillage.backend/internal/domain/entities"
)

// RegistrationFeeRepository defines registration fee data operations
type RegistrationFeeRepository interface {
	Create(ctx context.Context, fee *entities.RegistrationFee) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.RegistrationFee, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*entities.RegistrationFee, error)
	GetLatestByStudentID(ctx context.Context, studentID uuid.UUID) (*entities.RegistrationFee, error)
	CountByStudentID(ctx context.Context, studentID uuid.UUID) (int64, error)
	CompletedTotals(ctx context.Context) (entities.PaymentTotals, error)
}

// DonationRepository defines donation data operations
type DonationRepository interface {
	Create(ctx context.Context, donation *entities.Donation) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Donation, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*entities.Donation, error)
	GetByPaymentIntentID(ctx context.Context, intentID string) (*entities.Donation, error)
	ListByDonor(ctx context.Context, userID uuid.UUID, email string, limit, offset int) ([]*entities.Donation, int64, error)
	// UpdateStatus applies the change only while the row is in change.From.
	UpdateStatus(ctx context.Context, change entities.DonationStatusChange) error
	GetStalePending(ctx context.Context, before time.Time, limit int) ([]*entities.Donation, error)
	CompletedTotals(ctx context.Context) (entities.PaymentTotals, error)
}

// PaymentTransactionRepository defines gateway audit row operations
type PaymentTransactionRepository interface {
	Create(ctx context.Context, tx *entities.PaymentTransaction) error
	ListBySource(ctx context.Context, sourceType entities.SourceType, sourceID uuid.UUID) ([]*entities.PaymentTransaction, error)
}

// TaxReceiptRepository defines tax receipt data operations
type TaxReceiptRepository interface {
	Create(ctx context.Context, receipt *entities.TaxReceipt) error
	GetByNumber(ctx context.Context, number string) (*entities.TaxReceipt, error)
	GetBySource(ctx context.Context, sourceType entities.SourceType, sourceID uuid.UUID) (*entities.TaxReceipt, error)
	ListByEmail(ctx context.Context, email string) ([]*entities.TaxReceipt, error)
}
