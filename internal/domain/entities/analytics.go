package entities

// Analytics is the admin dashboard aggregate
type Analytics struct {
	StudentsByStatus      map[string]int64 `json:"studentsByStatus"`
	VerificationsByStatus map[string]int64 `json:"verificationsByStatus"`
	RegistrationFees      PaymentTotals    `json:"registrationFees"`
	Donations             PaymentTotals    `json:"donations"`
	WelcomeBoxesByStatus  map[string]int64 `json:"welcomeBoxesByStatus"`
	OutboxByStatus        map[string]int64 `json:"outboxByStatus"`
	TotalStudents         int64            `json:"totalStudents"`
}
