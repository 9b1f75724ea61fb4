package models

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Student{},
		&School{},
		&SchoolVerification{},
		&RegistrationFee{},
		&Donation{},
		&PaymentTransaction{},
		&TaxReceipt{},
		&WelcomeBox{},
		&OutboxMessage{},
	}
}
