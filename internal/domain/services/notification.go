package services

import "context"

// EmailMessage is a rendered transactional email
type EmailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
	// Category tags the message for the transport (e.g. "welcome").
	Category string `json:"category,omitempty"`
}

// Mailer sends transactional email
type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
}
