package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RegistrationFee struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	StudentID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	PayerEmail      string          `gorm:"type:varchar(255);not null"`
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency        string          `gorm:"type:varchar(3);not null"`
	Status          string          `gorm:"type:varchar(20);not null;index"`
	PaymentIntentID string          `gorm:"type:varchar(255);index"`
	ReceiptNumber   string          `gorm:"type:varchar(50);uniqueIndex;not null"`
	IdempotencyKey  *string         `gorm:"type:varchar(255);uniqueIndex"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (RegistrationFee) TableName() string { return "registration_fees" }

type Donation struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	StudentID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	DonorUserID     *uuid.UUID      `gorm:"type:uuid;index"`
	DonorName       string          `gorm:"type:varchar(200);not null"`
	DonorEmail      string          `gorm:"type:varchar(255);not null;index"`
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	NetAmount       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency        string          `gorm:"type:varchar(3);not null"`
	Status          string          `gorm:"type:varchar(20);not null;index"`
	PaymentIntentID string          `gorm:"type:varchar(255);index"`
	ReceiptNumber   string          `gorm:"type:varchar(50);uniqueIndex;not null"`
	Message         string          `gorm:"type:text"`
	Anonymous       bool            `gorm:"not null"`
	IdempotencyKey  *string         `gorm:"type:varchar(255);uniqueIndex"`
	FailureReason   *string         `gorm:"type:text"`
	CompletedAt     *time.Time
	CreatedAt       time.Time `gorm:"index"`
	UpdatedAt       time.Time
}

func (Donation) TableName() string { return "donations" }

type PaymentTransaction struct {
	ID                    uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SourceType            string          `gorm:"type:varchar(30);not null;index:idx_payment_tx_source"`
	SourceID              uuid.UUID       `gorm:"type:uuid;not null;index:idx_payment_tx_source"`
	Provider              string          `gorm:"type:varchar(50);not null"`
	ProviderTransactionID string          `gorm:"type:varchar(255);index"`
	GrossAmount           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	NetAmount             decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	FeeAmount             decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency              string          `gorm:"type:varchar(3);not null"`
	Status                string          `gorm:"type:varchar(20);not null"`
	RiskMetadata          string          `gorm:"type:jsonb;not null"`
	CreatedAt             time.Time
}

func (PaymentTransaction) TableName() string { return "payment_transactions" }

type TaxReceipt struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ReceiptNumber    string          `gorm:"type:varchar(50);uniqueIndex;not null"`
	SourceType       string          `gorm:"type:varchar(30);not null;uniqueIndex:idx_tax_receipt_source"`
	SourceID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_tax_receipt_source"`
	DonorName        string          `gorm:"type:varchar(200);not null"`
	DonorEmail       string          `gorm:"type:varchar(255);not null;index"`
	Amount           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency         string          `gorm:"type:varchar(3);not null"`
	Description      string          `gorm:"type:varchar(255)"`
	DonationDate     time.Time       `gorm:"not null"`
	NonprofitName    string          `gorm:"type:varchar(255);not null"`
	NonprofitEIN     string          `gorm:"type:varchar(20);not null"`
	NonprofitAddress string          `gorm:"type:varchar(500)"`
	PDFURL           string          `gorm:"type:varchar(1000);not null"`
	IssuedAt         time.Time       `gorm:"not null"`
}

func (TaxReceipt) TableName() string { return "tax_receipts" }
