package services

import "gradvillage.backend/internal/domain/entities"

// ReceiptRenderer turns a receipt into a printable document
type ReceiptRenderer interface {
	Render(receipt *entities.TaxReceipt) ([]byte, error)
	ContentType() string
	Extension() string
}
