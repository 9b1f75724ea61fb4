package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// WelcomeBoxStatus tracks the physical shipment
type WelcomeBoxStatus string

const (
	WelcomeBoxRequested WelcomeBoxStatus = "requested"
	WelcomeBoxShipped   WelcomeBoxStatus = "shipped"
	WelcomeBoxDelivered WelcomeBoxStatus = "delivered"
)

// CanTransitionTo enforces requested -> shipped -> delivered.
func (s WelcomeBoxStatus) CanTransitionTo(next WelcomeBoxStatus) bool {
	switch s {
	case WelcomeBoxRequested:
		return next == WelcomeBoxShipped
	case WelcomeBoxShipped:
		return next == WelcomeBoxDelivered
	}
	return false
}

// WelcomeBox is a shipping request tied 1:1 to a paid student
type WelcomeBox struct {
	ID             uuid.UUID        `json:"id"`
	StudentID      uuid.UUID        `json:"studentId"`
	RecipientName  string           `json:"recipientName"`
	AddressLine1   string           `json:"addressLine1"`
	AddressLine2   string           `json:"addressLine2,omitempty"`
	City           string           `json:"city"`
	State          string           `json:"state"`
	PostalCode     string           `json:"postalCode"`
	Country        string           `json:"country"`
	Status         WelcomeBoxStatus `json:"status"`
	TrackingNumber null.String      `json:"trackingNumber"`
	ShippedAt      null.Time        `json:"shippedAt"`
	DeliveredAt    null.Time        `json:"deliveredAt"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// RequestWelcomeBoxInput is the student's shipping address
type RequestWelcomeBoxInput struct {
	RecipientName string `json:"recipientName" binding:"required,max=200"`
	AddressLine1  string `json:"addressLine1" binding:"required,max=255"`
	AddressLine2  string `json:"addressLine2" binding:"max=255"`
	City          string `json:"city" binding:"required,max=100"`
	State         string `json:"state" binding:"required,max=100"`
	PostalCode    string `json:"postalCode" binding:"required,max=20"`
	Country       string `json:"country" binding:"required,max=2"`
}

// UpdateWelcomeBoxInput is an admin shipment update
type UpdateWelcomeBoxInput struct {
	Status         WelcomeBoxStatus `json:"status" binding:"required,oneof=shipped delivered"`
	TrackingNumber string           `json:"trackingNumber" binding:"max=100"`
}
