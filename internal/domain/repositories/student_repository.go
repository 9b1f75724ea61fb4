package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gradvillage.backend/internal/domain/entities"
)

// StudentRepository defines student data operations
type StudentRepository interface {
	Create(ctx context.Context, student *entities.Student) error
	Update(ctx context.Context, student *entities.Student) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Student, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*entities.Student, error)
	GetByEmail(ctx context.Context, email string) (*entities.Student, error)
	GetBySlug(ctx context.Context, slug string) (*entities.Student, error)
	List(ctx context.Context, filter entities.StudentFilter) ([]*entities.Student, int64, error)
	UpdateRegistrationStatus(ctx context.Context, id uuid.UUID, status entities.RegistrationStatus) error
	// RecalculateAmountRaised rewrites amount_raised from completed donations and returns it.
	RecalculateAmountRaised(ctx context.Context, id uuid.UUID) (decimal.Decimal, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// SchoolRepository defines school data operations
type SchoolRepository interface {
	FindOrCreate(ctx context.Context, name, emailDomain string) (*entities.School, error)
}

// SchoolVerificationRepository defines verification data operations
type SchoolVerificationRepository interface {
	Create(ctx context.Context, v *entities.SchoolVerification) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.SchoolVerification, error)
	GetByStudentID(ctx context.Context, studentID uuid.UUID) (*entities.SchoolVerification, error)
	List(ctx context.Context, status entities.VerificationStatus, limit, offset int) ([]*entities.SchoolVerification, int64, error)
	// Review applies the decision only while the row is still pending.
	Review(ctx context.Context, review entities.VerificationReview) error
	// Resubmit reopens a rejected verification with new evidence.
	Resubmit(ctx context.Context, v *entities.SchoolVerification) error
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// WelcomeBoxRepository defines welcome box data operations
type WelcomeBoxRepository interface {
	Create(ctx context.Context, box *entities.WelcomeBox) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.WelcomeBox, error)
	GetByStudentID(ctx context.Context, studentID uuid.UUID) (*entities.WelcomeBox, error)
	List(ctx context.Context, status entities.WelcomeBoxStatus, limit, offset int) ([]*entities.WelcomeBox, int64, error)
	// UpdateStatus moves the box from `from` to box.Status; ErrInvalidTransition when it already moved.
	UpdateStatus(ctx context.Context, box *entities.WelcomeBox, from entities.WelcomeBoxStatus) error
	CountByStatus(ctx context.Context) (map[string]int64, error)
}
