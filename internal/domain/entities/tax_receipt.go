package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxReceipt is the issued donation receipt; never regenerated once stored
type TaxReceipt struct {
	ID               uuid.UUID       `json:"id"`
	ReceiptNumber    string          `json:"receiptNumber"`
	SourceType       SourceType      `json:"sourceType"`
	SourceID         uuid.UUID       `json:"sourceId"`
	DonorName        string          `json:"donorName"`
	DonorEmail       string          `json:"donorEmail"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	Description      string          `json:"description"`
	DonationDate     time.Time       `json:"donationDate"`
	NonprofitName    string          `json:"nonprofitName"`
	NonprofitEIN     string          `json:"nonprofitEin"`
	NonprofitAddress string          `json:"nonprofitAddress"`
	PDFURL           string          `json:"pdfUrl"`
	IssuedAt         time.Time       `json:"issuedAt"`
}

// ReceiptSummary is the receipt block embedded in payment responses
type ReceiptSummary struct {
	ReceiptNumber *string `json:"receiptNumber"`
	ReceiptURL    *string `json:"receiptUrl"`
	Issued        bool    `json:"issued"`
}

// Summary returns the response block for an issued receipt.
func (r *TaxReceipt) Summary() ReceiptSummary {
	if r == nil {
		return ReceiptSummary{}
	}
	number, url := r.ReceiptNumber, r.PDFURL
	return ReceiptSummary{ReceiptNumber: &number, ReceiptURL: &url, Issued: true}
}
