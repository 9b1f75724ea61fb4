package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Student struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID             uuid.UUID       `gorm:"type:uuid;not null;index"`
	Email              string          `gorm:"type:varchar(255);uniqueIndex;not null"`
	FirstName          string          `gorm:"type:varchar(100);not null"`
	LastName           string          `gorm:"type:varchar(100);not null"`
	School             string          `gorm:"type:varchar(255);not null"`
	Major              string          `gorm:"type:varchar(150)"`
	Bio                string          `gorm:"type:text"`
	PhotoURL           string          `gorm:"type:varchar(500)"`
	ProfileSlug        string          `gorm:"type:varchar(255);uniqueIndex;not null"`
	RegistrationStatus string          `gorm:"type:varchar(30);not null;index"`
	PaymentComplete    bool            `gorm:"not null"`
	RegistrationPaid   bool            `gorm:"not null"`
	PaymentStatus      string          `gorm:"type:varchar(20);not null"`
	PaymentIntentID    *string         `gorm:"type:varchar(255);index"`
	PaymentCompletedAt *time.Time
	RegistrationFee    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	FundingGoal        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	AmountRaised       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	IsPublished        bool            `gorm:"not null;index"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
	DeletedAt          gorm.DeletedAt `gorm:"index"`
}

func (Student) TableName() string { return "students" }

type School struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	EmailDomain string    `gorm:"type:varchar(255)"`
	CreatedAt   time.Time
}

func (School) TableName() string { return "schools" }

type SchoolVerification struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey"`
	StudentID         uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null"`
	SchoolID          uuid.UUID  `gorm:"type:uuid;not null;index"`
	SchoolName        string     `gorm:"type:varchar(255);not null"`
	Status            string     `gorm:"type:varchar(20);not null;index"`
	Method            string     `gorm:"type:varchar(20);not null"`
	VerificationEmail *string    `gorm:"type:varchar(255)"`
	DocumentURL       *string    `gorm:"type:varchar(500)"`
	RejectionReason   *string    `gorm:"type:text"`
	ReviewedBy        *uuid.UUID `gorm:"type:uuid"`
	ReviewedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Student *Student `gorm:"foreignKey:StudentID"`
}

func (SchoolVerification) TableName() string { return "school_verifications" }

type WelcomeBox struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	StudentID      uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	RecipientName  string    `gorm:"type:varchar(200);not null"`
	AddressLine1   string    `gorm:"type:varchar(255);not null"`
	AddressLine2   string    `gorm:"type:varchar(255)"`
	City           string    `gorm:"type:varchar(100);not null"`
	State          string    `gorm:"type:varchar(100);not null"`
	PostalCode     string    `gorm:"type:varchar(20);not null"`
	Country        string    `gorm:"type:varchar(2);not null"`
	Status         string    `gorm:"type:varchar(20);not null;index"`
	TrackingNumber *string   `gorm:"type:varchar(100)"`
	ShippedAt      *time.Time
	DeliveredAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (WelcomeBox) TableName() string { return "welcome_boxes" }
