package usecases

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
	"gradvillage.backend/internal/domain/entities"
	domainerrors "gradvillage.backend/internal/domain/errors"
	"gradvillage.backend/internal/domain/repositories"
	"gradvillage.backend/internal/domain/services"
	"gradvillage.backend/pkg/logger"
	"gradvillage.backend/pkg/metrics"
	"gradvillage.backend/pkg/money"
	"gradvillage.backend/pkg/utils"
)

// DonationUsecase handles one-off donations to students
type DonationUsecase struct {
	uow          repositories.UnitOfWork
	studentRepo  repositories.StudentRepository
	donationRepo repositories.DonationRepository
	txRepo       repositories.PaymentTransactionRepository
	receiptRepo  repositories.TaxReceiptRepository
	charger      *paymentCharger
	outbox       *OutboxDispatcher
	now          func() time.Time
}

// NewDonationUsecase creates a new donation usecase
func NewDonationUsecase(
	uow repositories.UnitOfWork,
	studentRepo repositories.StudentRepository,
	donationRepo repositories.DonationRepository,
	txRepo repositories.PaymentTransactionRepository,
	receiptRepo repositories.TaxReceiptRepository,
	gateway services.PaymentGateway,
	outbox *OutboxDispatcher,
	cfg ChargeConfig,
	m *metrics.Metrics,
) *DonationUsecase {
	return &DonationUsecase{
		uow:          uow,
		studentRepo:  studentRepo,
		donationRepo: donationRepo,
		txRepo:       txRepo,
		receiptRepo:  receiptRepo,
		charger:      newPaymentCharger(gateway, cfg, m),
		outbox:       outbox,
		now:          time.Now,
	}
}

func (u *DonationUsecase) loadStudent(ctx context.Context, input *entities.CreateDonationInput) (*entities.Student, error) {
	var (
		student *entities.Student
		err     error
	)
	switch {
	case input.StudentID != uuid.Nil:
		student, err = u.studentRepo.GetByID(ctx, input.StudentID)
	case strings.TrimSpace(input.StudentSlug) != "":
		student, err = u.studentRepo.GetBySlug(ctx, strings.TrimSpace(input.StudentSlug))
	default:
		return nil, domainerrors.FieldError("studentId", "studentId or studentSlug is required")
	}
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("student not found")
		}
		return nil, err
	}
	if !student.AcceptsDonations() {
		return nil, domainerrors.FieldError("studentId", "student is not accepting donations")
	}
	return student, nil
}

// CreateDonation charges the donor and records the completed donation.
func (u *DonationUsecase) CreateDonation(ctx context.Context, input *entities.CreateDonationInput) (*entities.DonationResult, error) {
	if input == nil {
		return nil, domainerrors.BadRequest("request body is required")
	}

	unit, err := money.ParseUnit(input.AmountUnit)
	if err != nil {
		return nil, domainerrors.FieldError("amountUnit", err.Error())
	}
	if unit == money.UnitUnspecified {
		unit = money.UnitDollars
	}
	amount, err := money.Normalize(input.Amount, unit)
	if err != nil {
		return nil, domainerrors.FieldError("amount", err.Error())
	}

	email := utils.NormalizeEmail(input.DonorEmail)
	if email == "" || !strings.Contains(email, "@") {
		return nil, domainerrors.FieldError("donorEmail", "a valid donor email is required")
	}
	name := strings.TrimSpace(input.DonorName)
	if name == "" {
		if !input.Anonymous {
			return nil, domainerrors.FieldError("donorName", "donor name is required")
		}
		name = "Anonymous"
	}
	message := strings.TrimSpace(input.Message)
	if len(message) > maxDonationMessageLen {
		return nil, domainerrors.FieldError("message", "message must be at most 500 characters")
	}
	if input.TestCardData == nil && strings.TrimSpace(input.PaymentMethodID) == "" {
		return nil, domainerrors.FieldError("paymentMethodId", "paymentMethodId or testCardData is required")
	}

	student, err := u.loadStudent(ctx, input)
	if err != nil {
		return nil, err
	}

	key := strings.TrimSpace(input.IdempotencyKey)
	if key != "" {
		prior, err := u.donationRepo.GetByIdempotencyKey(ctx, key)
		if err == nil {
			return u.replay(ctx, prior)
		}
		if !errors.Is(err, domainerrors.ErrNotFound) {
			return nil, err
		}
	}

	receiptNumber, err := utils.GenerateReceiptNumber(u.now())
	if err != nil {
		return nil, err
	}
	donation := &entities.Donation{
		ID:            utils.GenerateUUIDv7(),
		StudentID:     student.ID,
		DonorUserID:   input.DonorUserID,
		DonorName:     name,
		DonorEmail:    email,
		Amount:        amount.Value,
		Currency:      u.charger.currency(input.Currency),
		Status:        entities.PaymentStatusPending,
		ReceiptNumber: receiptNumber,
		Message:       message,
		Anonymous:     input.Anonymous,
	}
	if key != "" {
		donation.IdempotencyKey = null.StringFrom(key)
	}

	pi, err := u.charger.charge(ctx, chargeRequest{
		Flow:            FlowDonation,
		Amount:          amount.Value,
		Currency:        donation.Currency,
		PaymentMethodID: input.PaymentMethodID,
		TestCard:        input.TestCardData,
		Email:           email,
		Description:     DonationDescription,
		Metadata: map[string]string{
			"flow":        FlowDonation,
			"donation_id": donation.ID.String(),
			"student_id":  student.ID.String(),
		},
		IdempotencyKey: key,
	})
	if err != nil {
		return nil, err
	}
	donation.PaymentIntentID = pi.ID

	switch pi.Status {
	case services.IntentSucceeded:
	case services.IntentRequiresAction, services.IntentProcessing:
		// completed later by the payment webhook
		if err := u.donationRepo.Create(ctx, donation); err != nil {
			logger.Error(ctx, "Failed to record pending donation",
				zap.String("payment_intent_id", pi.ID), zap.Error(err))
			return nil, err
		}
		return nil, intentOutcomeError(pi)
	default:
		return nil, intentOutcomeError(pi)
	}

	var msgs []*entities.OutboxMessage
	var raised decimal.Decimal
	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		now := u.now()
		net, _ := u.charger.fees(donation.Amount)
		donation.Status = entities.PaymentStatusCompleted
		donation.NetAmount = net
		donation.CompletedAt = null.TimeFrom(now)
		if err := u.donationRepo.Create(txCtx, donation); err != nil {
			return err
		}
		var err error
		msgs, raised, err = u.recordCompletion(txCtx, donation, pi)
		return err
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrAlreadyExists) && key != "" {
			if prior, lookupErr := u.donationRepo.GetByIdempotencyKey(ctx, key); lookupErr == nil {
				return u.replay(ctx, prior)
			}
		}
		logger.Error(ctx, "Donation charged but not recorded",
			zap.String("payment_intent_id", pi.ID), zap.Error(err))
		return nil, err
	}

	sideEffects := u.outbox.Dispatch(ctx, msgs)
	logger.Info(ctx, "Donation completed",
		zap.String("donation_id", donation.ID.String()),
		zap.String("student_id", student.ID.String()),
		zap.String("amount", donation.Amount.String()),
	)

	return &entities.DonationResult{
		Donation:      donation,
		PaymentIntent: intentSummary(pi),
		AmountRaised:  raised,
		TaxReceipt:    receiptSummary(ctx, u.receiptRepo, entities.SourceDonation, donation.ID),
		SideEffects:   sideEffects,
	}, nil
}

// recordCompletion writes the audit row, recomputes the student's total and
// enqueues the receipt and emails. Must run inside a transaction.
func (u *DonationUsecase) recordCompletion(txCtx context.Context, d *entities.Donation, pi *services.PaymentIntent) ([]*entities.OutboxMessage, decimal.Decimal, error) {
	net, fee := u.charger.fees(d.Amount)
	provider := u.charger.providerName()
	if pi.SyntheticResult {
		provider = "synthetic"
	}
	if err := u.txRepo.Create(txCtx, &entities.PaymentTransaction{
		SourceType:            entities.SourceDonation,
		SourceID:              d.ID,
		Provider:              provider,
		ProviderTransactionID: pi.ID,
		GrossAmount:           d.Amount,
		NetAmount:             net,
		FeeAmount:             fee,
		Currency:              d.Currency,
		Status:                entities.PaymentStatusCompleted,
		RiskMetadata:          pi.RiskMetadata,
	}); err != nil {
		return nil, decimal.Zero, err
	}

	raised, err := u.studentRepo.RecalculateAmountRaised(txCtx, d.StudentID)
	if err != nil {
		return nil, decimal.Zero, err
	}

	source := entities.SourceRef{SourceType: entities.SourceDonation, SourceID: d.ID}
	var msgs []*entities.OutboxMessage
	for _, topic := range []string{
		entities.TopicIssueTaxReceipt,
		entities.TopicDonationReceipt,
		entities.TopicDonationReceivedEmail,
	} {
		msg, err := u.outbox.Enqueue(txCtx, topic, source)
		if err != nil {
			return nil, decimal.Zero, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, raised, nil
}

func (u *DonationUsecase) replay(ctx context.Context, d *entities.Donation) (*entities.DonationResult, error) {
	switch d.Status {
	case entities.PaymentStatusPending:
		return nil, domainerrors.Conflict("a donation with this idempotency key is still being processed")
	case entities.PaymentStatusFailed:
		return nil, domainerrors.PaymentError(domainerrors.CodePaymentFailed, d.FailureReason.String).
			WithDetail("paymentIntentId", d.PaymentIntentID)
	}

	student, err := u.studentRepo.GetByID(ctx, d.StudentID)
	if err != nil {
		return nil, err
	}
	return &entities.DonationResult{
		Donation: d,
		PaymentIntent: entities.PaymentIntentSummary{
			ID:       d.PaymentIntentID,
			Status:   services.IntentSucceeded,
			Amount:   d.Amount,
			Currency: d.Currency,
		},
		AmountRaised:     student.AmountRaised,
		TaxReceipt:       receiptSummary(ctx, u.receiptRepo, entities.SourceDonation, d.ID),
		SideEffects:      entities.SideEffectReport{Sent: []string{}, Pending: []string{}},
		IdempotentReplay: true,
	}, nil
}

// ListMine returns donations made by the signed-in donor.
func (u *DonationUsecase) ListMine(ctx context.Context, userID uuid.UUID, email string, page, limit int) ([]*entities.Donation, utils.PaginationMeta, error) {
	p := utils.GetPaginationParams(page, limit)
	donations, total, err := u.donationRepo.ListByDonor(ctx, userID, utils.NormalizeEmail(email), p.Limit, p.CalculateOffset())
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}
	return donations, utils.CalculateMeta(total, p.Page, p.Limit), nil
}

// CompleteFromWebhook completes a pending donation whose intent succeeded.
// Unknown intents and donations that already moved are ignored.
func (u *DonationUsecase) CompleteFromWebhook(ctx context.Context, pi *services.PaymentIntent) error {
	d, err := u.donationRepo.GetByPaymentIntentID(ctx, pi.ID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			logger.Debug(ctx, "No donation for payment intent", zap.String("payment_intent_id", pi.ID))
			return nil
		}
		return err
	}
	if d.Status != entities.PaymentStatusPending {
		return nil
	}

	var msgs []*entities.OutboxMessage
	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		net, _ := u.charger.fees(d.Amount)
		if err := u.donationRepo.UpdateStatus(txCtx, entities.DonationStatusChange{
			ID:          d.ID,
			From:        entities.PaymentStatusPending,
			To:          entities.PaymentStatusCompleted,
			NetAmount:   &net,
			CompletedAt: null.TimeFrom(u.now()),
		}); err != nil {
			return err
		}
		d.Status = entities.PaymentStatusCompleted
		d.NetAmount = net
		var err error
		msgs, _, err = u.recordCompletion(txCtx, d, pi)
		return err
	})
	if errors.Is(err, domainerrors.ErrInvalidTransition) {
		return nil
	}
	if err != nil {
		return err
	}

	u.outbox.Dispatch(ctx, msgs)
	logger.Info(ctx, "Donation completed from webhook", zap.String("donation_id", d.ID.String()))
	return nil
}

// FailFromWebhook marks a pending donation failed.
func (u *DonationUsecase) FailFromWebhook(ctx context.Context, pi *services.PaymentIntent) error {
	d, err := u.donationRepo.GetByPaymentIntentID(ctx, pi.ID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil
		}
		return err
	}
	reason := pi.FailureMessage
	if reason == "" {
		reason = "payment failed"
	}
	return u.fail(ctx, d.ID, reason)
}

func (u *DonationUsecase) fail(ctx context.Context, id uuid.UUID, reason string) error {
	err := u.donationRepo.UpdateStatus(ctx, entities.DonationStatusChange{
		ID:            id,
		From:          entities.PaymentStatusPending,
		To:            entities.PaymentStatusFailed,
		FailureReason: null.StringFrom(reason),
	})
	if errors.Is(err, domainerrors.ErrInvalidTransition) {
		return nil
	}
	return err
}

// ExpireStalePending fails donations pending since before the cutoff and returns how many moved.
func (u *DonationUsecase) ExpireStalePending(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	if olderThan <= 0 {
		olderThan = DefaultPendingDonationExpiry
	}
	stale, err := u.donationRepo.GetStalePending(ctx, u.now().Add(-olderThan), limit)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, d := range stale {
		if err := u.fail(ctx, d.ID, "payment was not completed in time"); err != nil {
			logger.Error(ctx, "Failed to expire donation", zap.String("donation_id", d.ID.String()), zap.Error(err))
			continue
		}
		expired++
	}
	return expired, nil
}
