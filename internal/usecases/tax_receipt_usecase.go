package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gradvillage.backend/internal/domain/entities"
	domainerrors "gradvillage.backend/internal/domain/errors"
	"gradvillage.backend/internal/domain/repositories"
	"gradvillage.backend/internal/domain/services"
	"gradvillage.backend/pkg/logger"
	"gradvillage.backend/pkg/utils"
)

// Nonprofit identifies the organisation issuing receipts
type Nonprofit struct {
	Name    string
	EIN     string
	Address string
}

// TaxReceiptUsecase issues and serves tax receipts
type TaxReceiptUsecase struct {
	receiptRepo  repositories.TaxReceiptRepository
	feeRepo      repositories.RegistrationFeeRepository
	donationRepo repositories.DonationRepository
	studentRepo  repositories.StudentRepository
	renderer     services.ReceiptRenderer
	storage      services.ObjectStorage
	nonprofit    Nonprofit
	now          func() time.Time
}

// NewTaxReceiptUsecase creates a new tax receipt usecase
func NewTaxReceiptUsecase(
	receiptRepo repositories.TaxReceiptRepository,
	feeRepo repositories.RegistrationFeeRepository,
	donationRepo repositories.DonationRepository,
	studentRepo repositories.StudentRepository,
	renderer services.ReceiptRenderer,
	storage services.ObjectStorage,
	nonprofit Nonprofit,
) *TaxReceiptUsecase {
	return &TaxReceiptUsecase{
		receiptRepo:  receiptRepo,
		feeRepo:      feeRepo,
		donationRepo: donationRepo,
		studentRepo:  studentRepo,
		renderer:     renderer,
		storage:      storage,
		nonprofit:    nonprofit,
		now:          time.Now,
	}
}

// GenerateAndUploadReceipt renders the receipt document and returns its public URL.
func (u *TaxReceiptUsecase) GenerateAndUploadReceipt(ctx context.Context, receipt *entities.TaxReceipt) (string, error) {
	body, err := u.renderer.Render(receipt)
	if err != nil {
		return "", fmt.Errorf("render receipt %s: %w", receipt.ReceiptNumber, err)
	}
	key := "receipts/" + receipt.ReceiptNumber + u.renderer.Extension()
	url, err := u.storage.Put(ctx, key, body, u.renderer.ContentType())
	if err != nil {
		return "", fmt.Errorf("upload receipt %s: %w", receipt.ReceiptNumber, err)
	}
	return url, nil
}

// IssueForRegistrationFee issues the receipt for a completed registration fee.
func (u *TaxReceiptUsecase) IssueForRegistrationFee(ctx context.Context, ref entities.SourceRef) (*entities.TaxReceipt, error) {
	ref.SourceType = entities.SourceRegistrationFee
	return u.IssueForSource(ctx, ref)
}

// IssueForDonation issues the receipt for a completed donation.
func (u *TaxReceiptUsecase) IssueForDonation(ctx context.Context, ref entities.SourceRef) (*entities.TaxReceipt, error) {
	ref.SourceType = entities.SourceDonation
	return u.IssueForSource(ctx, ref)
}

// IssueForSource returns the existing receipt for the source or issues a new one.
// Issued receipts are never regenerated.
func (u *TaxReceiptUsecase) IssueForSource(ctx context.Context, ref entities.SourceRef) (*entities.TaxReceipt, error) {
	existing, err := u.receiptRepo.GetBySource(ctx, ref.SourceType, ref.SourceID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}

	receipt, err := u.draft(ctx, ref)
	if err != nil {
		return nil, err
	}

	url, err := u.GenerateAndUploadReceipt(ctx, receipt)
	if err != nil {
		return nil, err
	}
	receipt.PDFURL = url

	if err := u.receiptRepo.Create(ctx, receipt); err != nil {
		if errors.Is(err, domainerrors.ErrAlreadyExists) {
			return u.receiptRepo.GetBySource(ctx, ref.SourceType, ref.SourceID)
		}
		return nil, err
	}

	logger.Info(ctx, "Tax receipt issued",
		zap.String("receipt_number", receipt.ReceiptNumber),
		zap.String("source_type", string(ref.SourceType)),
		zap.String("source_id", ref.SourceID.String()),
	)
	return receipt, nil
}

func (u *TaxReceiptUsecase) draft(ctx context.Context, ref entities.SourceRef) (*entities.TaxReceipt, error) {
	receipt := &entities.TaxReceipt{
		SourceType:       ref.SourceType,
		SourceID:         ref.SourceID,
		NonprofitName:    u.nonprofit.Name,
		NonprofitEIN:     u.nonprofit.EIN,
		NonprofitAddress: u.nonprofit.Address,
		IssuedAt:         u.now().UTC(),
	}

	switch ref.SourceType {
	case entities.SourceRegistrationFee:
		fee, err := u.feeRepo.GetByID(ctx, ref.SourceID)
		if err != nil {
			return nil, err
		}
		if fee.Status != entities.PaymentStatusCompleted {
			return nil, domainerrors.InvalidTransition("receipts are only issued for completed payments")
		}
		student, err := u.studentRepo.GetByID(ctx, fee.StudentID)
		if err != nil {
			return nil, err
		}
		receipt.ReceiptNumber = fee.ReceiptNumber
		receipt.DonorName = utils.DisplayName(student.FirstName, student.LastName)
		receipt.DonorEmail = fee.PayerEmail
		receipt.Amount = fee.Amount
		receipt.Currency = fee.Currency
		receipt.Description = RegistrationFeeDescription
		receipt.DonationDate = fee.CreatedAt.UTC()

	case entities.SourceDonation:
		donation, err := u.donationRepo.GetByID(ctx, ref.SourceID)
		if err != nil {
			return nil, err
		}
		if donation.Status != entities.PaymentStatusCompleted {
			return nil, domainerrors.InvalidTransition("receipts are only issued for completed payments")
		}
		student, err := u.studentRepo.GetByID(ctx, donation.StudentID)
		if err != nil {
			return nil, err
		}
		receipt.ReceiptNumber = donation.ReceiptNumber
		receipt.DonorName = donation.DonorName
		receipt.DonorEmail = donation.DonorEmail
		receipt.Amount = donation.Amount
		receipt.Currency = donation.Currency
		receipt.Description = fmt.Sprintf("%s supporting %s", DonationDescription, utils.DisplayName(student.FirstName, student.LastName))
		receipt.DonationDate = donation.CreatedAt.UTC()
		if donation.CompletedAt.Valid {
			receipt.DonationDate = donation.CompletedAt.Time.UTC()
		}

	default:
		return nil, domainerrors.BadRequest("unknown receipt source type")
	}

	return receipt, nil
}

// GetByNumber returns an issued receipt. Repeated calls return the same record.
func (u *TaxReceiptUsecase) GetByNumber(ctx context.Context, number string) (*entities.TaxReceipt, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, domainerrors.FieldError("receiptNumber", "receipt number is required")
	}
	receipt, err := u.receiptRepo.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("tax receipt not found")
		}
		return nil, err
	}
	return receipt, nil
}

// ListByEmail returns every receipt issued to the address.
func (u *TaxReceiptUsecase) ListByEmail(ctx context.Context, email string) ([]*entities.TaxReceipt, error) {
	return u.receiptRepo.ListByEmail(ctx, utils.NormalizeEmail(email))
}

// receiptSummary looks up the receipt for a source without failing the caller.
func receiptSummary(ctx context.Context, repo repositories.TaxReceiptRepository, sourceType entities.SourceType, sourceID uuid.UUID) entities.ReceiptSummary {
	receipt, err := repo.GetBySource(ctx, sourceType, sourceID)
	if err != nil {
		if !errors.Is(err, domainerrors.ErrNotFound) {
			logger.Warn(ctx, "Failed to load tax receipt", zap.String("source_id", sourceID.String()), zap.Error(err))
		}
		return entities.ReceiptSummary{}
	}
	return receipt.Summary()
}
