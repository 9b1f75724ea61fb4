package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// School is an institution a student can be verified against
type School struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	EmailDomain string    `json:"emailDomain,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// VerificationStatus represents school verification state
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// VerificationMethod is how the student proves enrolment
type VerificationMethod string

const (
	VerificationMethodEmail    VerificationMethod = "email"
	VerificationMethodDocument VerificationMethod = "document"
)

// SchoolVerification links a student to a school for admin review
type SchoolVerification struct {
	ID                uuid.UUID          `json:"id"`
	StudentID         uuid.UUID          `json:"studentId"`
	SchoolID          uuid.UUID          `json:"schoolId"`
	SchoolName        string             `json:"schoolName"`
	Status            VerificationStatus `json:"status"`
	Method            VerificationMethod `json:"method"`
	VerificationEmail null.String        `json:"verificationEmail"`
	DocumentURL       null.String        `json:"documentUrl"`
	RejectionReason   null.String        `json:"rejectionReason"`
	ReviewedBy        *uuid.UUID         `json:"reviewedBy,omitempty"`
	ReviewedAt        null.Time          `json:"reviewedAt"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`

	Student *Student `json:"student,omitempty"`
}

// SubmitVerificationInput is a student's verification request
type SubmitVerificationInput struct {
	SchoolName        string             `json:"schoolName" binding:"required,max=255"`
	Method            VerificationMethod `json:"method" binding:"required,oneof=email document"`
	VerificationEmail string             `json:"verificationEmail" binding:"omitempty,email"`
	DocumentURL       string             `json:"documentUrl" binding:"omitempty,url"`
}

// ReviewVerificationInput is an admin decision
type ReviewVerificationInput struct {
	Status          VerificationStatus `json:"status" binding:"required,oneof=verified rejected"`
	RejectionReason string             `json:"rejectionReason" binding:"max=1000"`
}

// VerificationReview is the state change applied by a review
type VerificationReview struct {
	ID              uuid.UUID
	Status          VerificationStatus
	RejectionReason null.String
	ReviewedBy      uuid.UUID
	ReviewedAt      time.Time
}
