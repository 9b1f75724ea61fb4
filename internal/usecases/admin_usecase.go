package usecases

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
	"gradvillage.backend/internal/domain/entities"
	domainerrors "gradvillage.backend/internal/domain/errors"
	"gradvillage.backend/internal/domain/repositories"
	"gradvillage.backend/pkg/logger"
	"gradvillage.backend/pkg/utils"
)

// AdminUsecase handles the admin console
type AdminUsecase struct {
	uow              repositories.UnitOfWork
	studentRepo      repositories.StudentRepository
	verificationRepo repositories.SchoolVerificationRepository
	welcomeBoxRepo   repositories.WelcomeBoxRepository
	feeRepo          repositories.RegistrationFeeRepository
	donationRepo     repositories.DonationRepository
	outboxRepo       repositories.OutboxRepository
	outbox           *OutboxDispatcher
	now              func() time.Time
}

// NewAdminUsecase creates a new admin usecase
func NewAdminUsecase(
	uow repositories.UnitOfWork,
	studentRepo repositories.StudentRepository,
	verificationRepo repositories.SchoolVerificationRepository,
	welcomeBoxRepo repositories.WelcomeBoxRepository,
	feeRepo repositories.RegistrationFeeRepository,
	donationRepo repositories.DonationRepository,
	outboxRepo repositories.OutboxRepository,
	outbox *OutboxDispatcher,
) *AdminUsecase {
	return &AdminUsecase{
		uow:              uow,
		studentRepo:      studentRepo,
		verificationRepo: verificationRepo,
		welcomeBoxRepo:   welcomeBoxRepo,
		feeRepo:          feeRepo,
		donationRepo:     donationRepo,
		outboxRepo:       outboxRepo,
		outbox:           outbox,
		now:              time.Now,
	}
}

// ListStudents lists students with optional status and search filters.
func (u *AdminUsecase) ListStudents(ctx context.Context, filter entities.StudentFilter) ([]*entities.Student, utils.PaginationMeta, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, utils.PaginationMeta{}, domainerrors.FieldError("status", "unknown registration status")
	}
	p := utils.GetPaginationParams(filter.Page, filter.Limit)
	filter.Page, filter.Limit = p.Page, p.Limit
	filter.Search = strings.TrimSpace(filter.Search)

	students, total, err := u.studentRepo.List(ctx, filter)
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}
	return students, utils.CalculateMeta(total, p.Page, p.Limit), nil
}

// GetStudent returns a student with verification, latest fee and welcome box.
func (u *AdminUsecase) GetStudent(ctx context.Context, id uuid.UUID) (*entities.StudentDetail, error) {
	s, err := u.studentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("student not found")
		}
		return nil, err
	}
	detail := &entities.StudentDetail{Student: s}

	if v, err := u.verificationRepo.GetByStudentID(ctx, id); err == nil {
		detail.Verification = v
	} else if !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}
	if fee, err := u.feeRepo.GetLatestByStudentID(ctx, id); err == nil {
		detail.RegistrationFee = fee
	} else if !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}
	if detail.FeeCount, err = u.feeRepo.CountByStudentID(ctx, id); err != nil {
		return nil, err
	}
	if box, err := u.welcomeBoxRepo.GetByStudentID(ctx, id); err == nil {
		detail.WelcomeBox = box
	} else if !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}
	return detail, nil
}

// UpdateStudentStatus overrides a student's registration status.
func (u *AdminUsecase) UpdateStudentStatus(ctx context.Context, id uuid.UUID, input *entities.UpdateStudentStatusInput) (*entities.Student, error) {
	if !input.RegistrationStatus.Valid() {
		return nil, domainerrors.FieldError("registrationStatus", "registrationStatus must be pending_payment, complete or verified")
	}
	s, err := u.studentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("student not found")
		}
		return nil, err
	}
	if input.RegistrationStatus != entities.RegistrationPendingPayment && !s.PaymentComplete {
		return nil, domainerrors.InvalidTransition("student has not paid the registration fee")
	}

	if err := u.studentRepo.UpdateRegistrationStatus(ctx, id, input.RegistrationStatus); err != nil {
		return nil, err
	}
	s.RegistrationStatus = input.RegistrationStatus
	logger.Info(ctx, "Student status overridden",
		zap.String("student_id", id.String()),
		zap.String("status", string(input.RegistrationStatus)),
	)
	return s, nil
}

// ListVerifications lists verifications, optionally by status.
func (u *AdminUsecase) ListVerifications(ctx context.Context, status entities.VerificationStatus, page, limit int) ([]*entities.SchoolVerification, utils.PaginationMeta, error) {
	switch status {
	case "", entities.VerificationPending, entities.VerificationVerified, entities.VerificationRejected:
	default:
		return nil, utils.PaginationMeta{}, domainerrors.FieldError("status", "status must be pending, verified or rejected")
	}
	p := utils.GetPaginationParams(page, limit)
	items, total, err := u.verificationRepo.List(ctx, status, p.Limit, p.CalculateOffset())
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}
	return items, utils.CalculateMeta(total, p.Page, p.Limit), nil
}

// GetVerification returns one verification.
func (u *AdminUsecase) GetVerification(ctx context.Context, id uuid.UUID) (*entities.SchoolVerification, error) {
	v, err := u.verificationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("verification not found")
		}
		return nil, err
	}
	return v, nil
}

// ReviewVerification approves or rejects a pending verification. The rejection
// reason is stored exactly as given and one result email is queued when the
// verification carries an email address.
func (u *AdminUsecase) ReviewVerification(ctx context.Context, adminID, id uuid.UUID, input *entities.ReviewVerificationInput) (*entities.SchoolVerification, error) {
	review := entities.VerificationReview{
		ID:         id,
		Status:     input.Status,
		ReviewedBy: adminID,
		ReviewedAt: u.now(),
	}
	switch input.Status {
	case entities.VerificationVerified:
	case entities.VerificationRejected:
		if strings.TrimSpace(input.RejectionReason) == "" {
			return nil, domainerrors.FieldError("rejectionReason", "a rejection reason is required")
		}
		review.RejectionReason = null.StringFrom(input.RejectionReason)
	default:
		return nil, domainerrors.FieldError("status", "status must be verified or rejected")
	}

	v, err := u.GetVerification(ctx, id)
	if err != nil {
		return nil, err
	}

	var msgs []*entities.OutboxMessage
	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		if err := u.verificationRepo.Review(txCtx, review); err != nil {
			return err
		}
		if review.Status == entities.VerificationVerified {
			if err := u.studentRepo.UpdateRegistrationStatus(txCtx, v.StudentID, entities.RegistrationVerified); err != nil {
				return err
			}
		}
		if v.VerificationEmail.Valid && v.VerificationEmail.String != "" {
			msg, err := u.outbox.Enqueue(txCtx, entities.TopicVerificationResult, entities.EntityRef{ID: v.ID})
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrInvalidTransition) {
			return nil, domainerrors.InvalidTransition("verification has already been reviewed")
		}
		return nil, err
	}

	u.outbox.Dispatch(ctx, msgs)
	logger.Info(ctx, "Verification reviewed",
		zap.String("verification_id", id.String()),
		zap.String("status", string(review.Status)),
		zap.String("admin_id", adminID.String()),
	)

	v.Status = review.Status
	v.RejectionReason = review.RejectionReason
	v.ReviewedBy = &adminID
	v.ReviewedAt = null.TimeFrom(review.ReviewedAt)
	return v, nil
}

// GetAnalytics aggregates the dashboard figures.
func (u *AdminUsecase) GetAnalytics(ctx context.Context) (*entities.Analytics, error) {
	students, err := u.studentRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	verifications, err := u.verificationRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	fees, err := u.feeRepo.CompletedTotals(ctx)
	if err != nil {
		return nil, err
	}
	donations, err := u.donationRepo.CompletedTotals(ctx)
	if err != nil {
		return nil, err
	}
	boxes, err := u.welcomeBoxRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	outbox, err := u.outboxRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, n := range students {
		total += n
	}
	return &entities.Analytics{
		StudentsByStatus:      students,
		VerificationsByStatus: verifications,
		RegistrationFees:      fees,
		Donations:             donations,
		WelcomeBoxesByStatus:  boxes,
		OutboxByStatus:        outbox,
		TotalStudents:         total,
	}, nil
}

// ListWelcomeBoxes lists shipments, optionally by status.
func (u *AdminUsecase) ListWelcomeBoxes(ctx context.Context, status entities.WelcomeBoxStatus, page, limit int) ([]*entities.WelcomeBox, utils.PaginationMeta, error) {
	switch status {
	case "", entities.WelcomeBoxRequested, entities.WelcomeBoxShipped, entities.WelcomeBoxDelivered:
	default:
		return nil, utils.PaginationMeta{}, domainerrors.FieldError("status", "status must be requested, shipped or delivered")
	}
	p := utils.GetPaginationParams(page, limit)
	boxes, total, err := u.welcomeBoxRepo.List(ctx, status, p.Limit, p.CalculateOffset())
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}
	return boxes, utils.CalculateMeta(total, p.Page, p.Limit), nil
}

// UpdateWelcomeBox advances a shipment requested -> shipped -> delivered.
func (u *AdminUsecase) UpdateWelcomeBox(ctx context.Context, id uuid.UUID, input *entities.UpdateWelcomeBoxInput) (*entities.WelcomeBox, error) {
	box, err := u.welcomeBoxRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("welcome box not found")
		}
		return nil, err
	}
	from := box.Status
	if !from.CanTransitionTo(input.Status) {
		return nil, domainerrors.InvalidTransition("welcome box cannot move from " + string(from) + " to " + string(input.Status))
	}

	now := u.now()
	box.Status = input.Status
	if tracking := strings.TrimSpace(input.TrackingNumber); tracking != "" {
		box.TrackingNumber = null.StringFrom(tracking)
	}
	switch input.Status {
	case entities.WelcomeBoxShipped:
		box.ShippedAt = null.TimeFrom(now)
	case entities.WelcomeBoxDelivered:
		box.DeliveredAt = null.TimeFrom(now)
	}

	if err := u.welcomeBoxRepo.UpdateStatus(ctx, box, from); err != nil {
		if errors.Is(err, domainerrors.ErrInvalidTransition) {
			return nil, domainerrors.InvalidTransition("welcome box was updated concurrently")
		}
		return nil, err
	}
	return box, nil
}

// ListOutbox lists deferred side effects.
func (u *AdminUsecase) ListOutbox(ctx context.Context, status entities.OutboxStatus, page, limit int) ([]*entities.OutboxMessage, utils.PaginationMeta, error) {
	return u.outbox.List(ctx, status, page, limit)
}

// RetryOutbox requeues a dead message and attempts it once.
func (u *AdminUsecase) RetryOutbox(ctx context.Context, id uuid.UUID) (*entities.OutboxMessage, error) {
	return u.outbox.Retry(ctx, id)
}
