package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

// RegistrationStatus is the student account lifecycle
type RegistrationStatus string

const (
	RegistrationPendingPayment RegistrationStatus = "pending_payment"
	RegistrationComplete       RegistrationStatus = "complete"
	RegistrationVerified       RegistrationStatus = "verified"
)

// Valid reports whether s is a known registration status.
func (s RegistrationStatus) Valid() bool {
	switch s {
	case RegistrationPendingPayment, RegistrationComplete, RegistrationVerified:
		return true
	}
	return false
}

// PaymentStatus is shared by students, registration fees and donations
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Student represents a registered scholarship candidate
type Student struct {
	ID                 uuid.UUID          `json:"id"`
	UserID             uuid.UUID          `json:"userId"`
	Email              string             `json:"email"`
	FirstName          string             `json:"firstName"`
	LastName           string             `json:"lastName"`
	School             string             `json:"school"`
	Major              string             `json:"major,omitempty"`
	Bio                string             `json:"bio,omitempty"`
	PhotoURL           string             `json:"photoUrl,omitempty"`
	ProfileSlug        string             `json:"profileSlug"`
	RegistrationStatus RegistrationStatus `json:"registrationStatus"`
	PaymentComplete    bool               `json:"paymentComplete"`
	RegistrationPaid   bool               `json:"registrationPaid"`
	PaymentStatus      PaymentStatus      `json:"paymentStatus"`
	PaymentIntentID    null.String        `json:"paymentIntentId"`
	PaymentCompletedAt null.Time          `json:"paymentCompletedAt"`
	RegistrationFee    decimal.Decimal    `json:"registrationFee"`
	FundingGoal        decimal.Decimal    `json:"fundingGoal"`
	AmountRaised       decimal.Decimal    `json:"amountRaised"`
	IsPublished        bool               `json:"isPublished"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

// FullName joins first and last name.
func (s *Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// RegistrationCompleted reports whether the registration fee flow already finished.
func (s *Student) RegistrationCompleted() bool {
	if !s.PaymentComplete {
		return false
	}
	return s.RegistrationStatus == RegistrationComplete || s.RegistrationStatus == RegistrationVerified
}

// AcceptsDonations reports whether the public profile can be funded.
func (s *Student) AcceptsDonations() bool {
	return s.IsPublished && s.RegistrationCompleted()
}

// PublicStudent is the donor-facing projection of a student
type PublicStudent struct {
	ID           uuid.UUID       `json:"id"`
	FirstName    string          `json:"firstName"`
	LastName     string          `json:"lastName"`
	School       string          `json:"school"`
	Major        string          `json:"major,omitempty"`
	Bio          string          `json:"bio,omitempty"`
	PhotoURL     string          `json:"photoUrl,omitempty"`
	ProfileSlug  string          `json:"profileSlug"`
	Verified     bool            `json:"verified"`
	FundingGoal  decimal.Decimal `json:"fundingGoal"`
	AmountRaised decimal.Decimal `json:"amountRaised"`
}

// Public returns the donor-facing projection.
func (s *Student) Public() *PublicStudent {
	return &PublicStudent{
		ID:           s.ID,
		FirstName:    s.FirstName,
		LastName:     s.LastName,
		School:       s.School,
		Major:        s.Major,
		Bio:          s.Bio,
		PhotoURL:     s.PhotoURL,
		ProfileSlug:  s.ProfileSlug,
		Verified:     s.RegistrationStatus == RegistrationVerified,
		FundingGoal:  s.FundingGoal,
		AmountRaised: s.AmountRaised,
	}
}

// UpdateStudentProfileInput carries the editable profile fields
type UpdateStudentProfileInput struct {
	Bio         *string          `json:"bio" binding:"omitempty,max=2000"`
	PhotoURL    *string          `json:"photoUrl" binding:"omitempty,max=500"`
	Major       *string          `json:"major" binding:"omitempty,max=150"`
	FundingGoal *decimal.Decimal `json:"fundingGoal"`
	IsPublished *bool            `json:"isPublished"`
}

// UpdateStudentStatusInput is the admin status override
type UpdateStudentStatusInput struct {
	RegistrationStatus RegistrationStatus `json:"registrationStatus" binding:"required"`
}

// StudentFilter narrows student listings
type StudentFilter struct {
	Status        RegistrationStatus
	Search        string
	PublishedOnly bool
	Page          int
	Limit         int
}

// StudentDetail is the admin view of a student and its related records
type StudentDetail struct {
	Student         *Student            `json:"student"`
	Verification    *SchoolVerification `json:"verification"`
	RegistrationFee *RegistrationFee    `json:"registrationFee"`
	FeeCount        int64               `json:"feeCount"`
	WelcomeBox      *WelcomeBox         `json:"welcomeBox"`
}
