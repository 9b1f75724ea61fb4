package usecases

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gradvillage.backend/internal/domain/entities"
	domainerrors "gradvillage.backend/internal/domain/errors"
	"gradvillage.backend/internal/domain/repositories"
	"gradvillage.backend/pkg/utils"
)

// StudentUsecase handles student self-service and the public directory
type StudentUsecase struct {
	uow              repositories.UnitOfWork
	studentRepo      repositories.StudentRepository
	schoolRepo       repositories.SchoolRepository
	verificationRepo repositories.SchoolVerificationRepository
	welcomeBoxRepo   repositories.WelcomeBoxRepository
	feeRepo          repositories.RegistrationFeeRepository
	receiptRepo      repositories.TaxReceiptRepository
}

// NewStudentUsecase creates a new student usecase
func NewStudentUsecase(
	uow repositories.UnitOfWork,
	studentRepo repositories.StudentRepository,
	schoolRepo repositories.SchoolRepository,
	verificationRepo repositories.SchoolVerificationRepository,
	welcomeBoxRepo repositories.WelcomeBoxRepository,
	feeRepo repositories.RegistrationFeeRepository,
	receiptRepo repositories.TaxReceiptRepository,
) *StudentUsecase {
	return &StudentUsecase{
		uow:              uow,
		studentRepo:      studentRepo,
		schoolRepo:       schoolRepo,
		verificationRepo: verificationRepo,
		welcomeBoxRepo:   welcomeBoxRepo,
		feeRepo:          feeRepo,
		receiptRepo:      receiptRepo,
	}
}

func (u *StudentUsecase) getStudent(ctx context.Context, id uuid.UUID) (*entities.Student, error) {
	s, err := u.studentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("student not found")
		}
		return nil, err
	}
	return s, nil
}

// GetProfile returns the caller's own student record.
func (u *StudentUsecase) GetProfile(ctx context.Context, studentID uuid.UUID) (*entities.Student, error) {
	return u.getStudent(ctx, studentID)
}

// UpdateProfile applies the editable profile fields.
func (u *StudentUsecase) UpdateProfile(ctx context.Context, studentID uuid.UUID, input *entities.UpdateStudentProfileInput) (*entities.Student, error) {
	s, err := u.getStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	if input.Bio != nil {
		s.Bio = strings.TrimSpace(*input.Bio)
	}
	if input.PhotoURL != nil {
		s.PhotoURL = strings.TrimSpace(*input.PhotoURL)
	}
	if input.Major != nil {
		s.Major = strings.TrimSpace(*input.Major)
	}
	if input.FundingGoal != nil {
		if input.FundingGoal.IsNegative() {
			return nil, domainerrors.FieldError("fundingGoal", "funding goal cannot be negative")
		}
		s.FundingGoal = input.FundingGoal.Round(2)
	}
	if input.IsPublished != nil {
		if *input.IsPublished && !s.RegistrationCompleted() {
			return nil, domainerrors.FieldError("isPublished", "complete registration before publishing your profile")
		}
		s.IsPublished = *input.IsPublished
	}

	if err := u.studentRepo.Update(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// SubmitVerification records the school the student claims to attend. A rejected
// verification can be resubmitted; any other existing one is a conflict.
func (u *StudentUsecase) SubmitVerification(ctx context.Context, studentID uuid.UUID, input *entities.SubmitVerificationInput) (*entities.SchoolVerification, error) {
	s, err := u.getStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if !s.RegistrationPaid {
		return nil, domainerrors.Forbidden("registration fee must be paid before verifying your school")
	}

	schoolName := strings.TrimSpace(input.SchoolName)
	if schoolName == "" {
		return nil, domainerrors.FieldError("schoolName", "school name is required")
	}
	v := &entities.SchoolVerification{
		StudentID:  s.ID,
		SchoolName: schoolName,
		Method:     input.Method,
	}
	emailDomain := ""
	switch input.Method {
	case entities.VerificationMethodEmail:
		email := utils.NormalizeEmail(input.VerificationEmail)
		at := strings.LastIndex(email, "@")
		if at <= 0 || at == len(email)-1 {
			return nil, domainerrors.FieldError("verificationEmail", "a school email address is required")
		}
		v.VerificationEmail = null.StringFrom(email)
		emailDomain = email[at+1:]
	case entities.VerificationMethodDocument:
		doc := strings.TrimSpace(input.DocumentURL)
		if doc == "" {
			return nil, domainerrors.FieldError("documentUrl", "a document URL is required")
		}
		v.DocumentURL = null.StringFrom(doc)
		if email := utils.NormalizeEmail(input.VerificationEmail); email != "" {
			v.VerificationEmail = null.StringFrom(email)
		}
	default:
		return nil, domainerrors.FieldError("method", "method must be email or document")
	}

	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		school, err := u.schoolRepo.FindOrCreate(txCtx, schoolName, emailDomain)
		if err != nil {
			return err
		}
		v.SchoolID = school.ID
		v.SchoolName = school.Name

		existing, err := u.verificationRepo.GetByStudentID(u.uow.WithLock(txCtx), s.ID)
		switch {
		case err == nil:
			if existing.Status != entities.VerificationRejected {
				return domainerrors.Conflict("a school verification has already been submitted")
			}
			v.ID = existing.ID
			v.CreatedAt = existing.CreatedAt
			return u.verificationRepo.Resubmit(txCtx, v)
		case errors.Is(err, domainerrors.ErrNotFound):
			return u.verificationRepo.Create(txCtx, v)
		default:
			return err
		}
	})
	if err != nil {
		if _, ok := domainerrors.As(err); ok {
			return nil, err
		}
		if errors.Is(err, domainerrors.ErrAlreadyExists) || errors.Is(err, domainerrors.ErrInvalidTransition) {
			return nil, domainerrors.Conflict("a school verification has already been submitted")
		}
		return nil, err
	}
	return v, nil
}

// GetVerificationStatus returns the caller's verification.
func (u *StudentUsecase) GetVerificationStatus(ctx context.Context, studentID uuid.UUID) (*entities.SchoolVerification, error) {
	v, err := u.verificationRepo.GetByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("no school verification submitted")
		}
		return nil, err
	}
	return v, nil
}

// GetRegistrationFeeStatus returns the caller's fee, payment state and receipt.
func (u *StudentUsecase) GetRegistrationFeeStatus(ctx context.Context, studentID uuid.UUID) (*entities.RegistrationFeeStatus, error) {
	s, err := u.getStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	status := &entities.RegistrationFeeStatus{
		RegistrationPaid:   s.RegistrationPaid,
		PaymentStatus:      s.PaymentStatus,
		RegistrationStatus: s.RegistrationStatus,
	}

	fee, err := u.feeRepo.GetLatestByStudentID(ctx, studentID)
	switch {
	case err == nil:
		status.Fee = fee
		status.TaxReceipt = receiptSummary(ctx, u.receiptRepo, entities.SourceRegistrationFee, fee.ID)
	case errors.Is(err, domainerrors.ErrNotFound):
	default:
		return nil, err
	}
	return status, nil
}

// RequestWelcomeBox creates the student's single welcome box shipment.
func (u *StudentUsecase) RequestWelcomeBox(ctx context.Context, studentID uuid.UUID, input *entities.RequestWelcomeBoxInput) (*entities.WelcomeBox, error) {
	s, err := u.getStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if !s.RegistrationPaid {
		return nil, domainerrors.Forbidden("registration fee must be paid before requesting a welcome box")
	}

	box := &entities.WelcomeBox{
		StudentID:     s.ID,
		RecipientName: strings.TrimSpace(input.RecipientName),
		AddressLine1:  strings.TrimSpace(input.AddressLine1),
		AddressLine2:  strings.TrimSpace(input.AddressLine2),
		City:          strings.TrimSpace(input.City),
		State:         strings.TrimSpace(input.State),
		PostalCode:    strings.TrimSpace(input.PostalCode),
		Country:       strings.ToUpper(strings.TrimSpace(input.Country)),
		Status:        entities.WelcomeBoxRequested,
	}
	if box.RecipientName == "" {
		box.RecipientName = utils.DisplayName(s.FirstName, s.LastName)
	}
	if err := u.welcomeBoxRepo.Create(ctx, box); err != nil {
		if errors.Is(err, domainerrors.ErrAlreadyExists) {
			return nil, domainerrors.Conflict("a welcome box has already been requested")
		}
		return nil, err
	}
	return box, nil
}

// GetWelcomeBox returns the caller's welcome box.
func (u *StudentUsecase) GetWelcomeBox(ctx context.Context, studentID uuid.UUID) (*entities.WelcomeBox, error) {
	box, err := u.welcomeBoxRepo.GetByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("no welcome box requested")
		}
		return nil, err
	}
	return box, nil
}

// ListPublic returns published students for donors to browse.
func (u *StudentUsecase) ListPublic(ctx context.Context, search string, page, limit int) ([]*entities.PublicStudent, utils.PaginationMeta, error) {
	p := utils.GetPaginationParams(page, limit)
	students, total, err := u.studentRepo.List(ctx, entities.StudentFilter{
		Search:        strings.TrimSpace(search),
		PublishedOnly: true,
		Page:          p.Page,
		Limit:         p.Limit,
	})
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}
	out := make([]*entities.PublicStudent, 0, len(students))
	for _, s := range students {
		out = append(out, s.Public())
	}
	return out, utils.CalculateMeta(total, p.Page, p.Limit), nil
}

// GetPublicBySlug returns a published profile.
func (u *StudentUsecase) GetPublicBySlug(ctx context.Context, slug string) (*entities.PublicStudent, error) {
	s, err := u.studentRepo.GetBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("student not found")
		}
		return nil, err
	}
	if !s.IsPublished {
		return nil, domainerrors.NotFound("student not found")
	}
	return s.Public(), nil
}
