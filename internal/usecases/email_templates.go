package usecases

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"gradvillage.backend/internal/domain/services"
)

const (
	emailPaymentConfirmation = "payment_confirmation"
	emailReceiptDownload     = "receipt_download"
	emailWelcome             = "welcome"
	emailDonationReceipt     = "donation_receipt"
	emailDonationReceived    = "donation_received"
	emailVerificationResult  = "verification_result"
)

type paymentConfirmationData struct {
	Name          string
	Amount        string
	IntentID      string
	ReceiptNumber string
	ReceiptURL    string
}

type receiptDownloadData struct {
	Name          string
	Amount        string
	ReceiptNumber string
	ReceiptURL    string
}

type welcomeData struct {
	Name         string
	ProfileURL   string
	DashboardURL string
}

type donationReceiptData struct {
	DonorName     string
	StudentName   string
	Amount        string
	ReceiptNumber string
	ReceiptURL    string
}

type donationReceivedData struct {
	StudentName string
	DonorName   string
	Amount      string
	Message     string
	ProfileURL  string
}

type verificationResultData struct {
	Name       string
	SchoolName string
	Verified   bool
	Reason     string
}

type emailTemplate struct {
	subject *texttemplate.Template
	html    *htmltemplate.Template
	text    *texttemplate.Template
}

func mustEmailTemplate(name, subject, html, text string) emailTemplate {
	return emailTemplate{
		subject: texttemplate.Must(texttemplate.New(name + ".subject").Parse(subject)),
		html:    htmltemplate.Must(htmltemplate.New(name + ".html").Parse(emailLayoutStart + html + emailLayoutEnd)),
		text:    texttemplate.Must(texttemplate.New(name + ".text").Parse(text + emailTextFooter)),
	}
}

const emailLayoutStart = `<!DOCTYPE html><html><body style="font-family:Arial,sans-serif;color:#1f2933;max-width:600px;margin:0 auto;">` +
	`<h2 style="color:#2f6f4f;">GradVillage</h2>`

const emailLayoutEnd = `<p style="font-size:12px;color:#7b8794;">GradVillage is a 501(c)(3) nonprofit. This is an automated message.</p></body></html>`

const emailTextFooter = `

GradVillage is a 501(c)(3) nonprofit. This is an automated message.`

var emailTemplates = map[string]emailTemplate{
	emailPaymentConfirmation: mustEmailTemplate(emailPaymentConfirmation,
		`Your GradVillage registration payment of {{.Amount}} was received`,
		`<p>Hi {{.Name}},</p>
<p>We received your registration payment of <strong>{{.Amount}}</strong>. Your student account is now active.</p>
<p>Payment reference: {{.IntentID}}</p>
{{if .ReceiptURL}}<p>Your tax receipt <strong>{{.ReceiptNumber}}</strong> is available <a href="{{.ReceiptURL}}">here</a>.</p>{{end}}`,
		`Hi {{.Name}},

We received your registration payment of {{.Amount}}. Your student account is now active.
Payment reference: {{.IntentID}}
{{if .ReceiptURL}}Your tax receipt {{.ReceiptNumber}} is available at {{.ReceiptURL}}{{end}}`),

	emailReceiptDownload: mustEmailTemplate(emailReceiptDownload,
		`Your GradVillage tax receipt {{.ReceiptNumber}}`,
		`<p>Hi {{.Name}},</p>
<p>Your tax-deductible receipt <strong>{{.ReceiptNumber}}</strong> for {{.Amount}} is ready.</p>
<p><a href="{{.ReceiptURL}}">Download your receipt</a></p>`,
		`Hi {{.Name}},

Your tax-deductible receipt {{.ReceiptNumber}} for {{.Amount}} is ready.
Download it at {{.ReceiptURL}}`),

	emailWelcome: mustEmailTemplate(emailWelcome,
		`Welcome to GradVillage, {{.Name}}!`,
		`<p>Welcome to GradVillage, {{.Name}}!</p>
<p>Your next steps: verify your school, complete your profile and request your welcome box.</p>
<p><a href="{{.DashboardURL}}">Open your dashboard</a></p>
<p>Once published, donors can find you at <a href="{{.ProfileURL}}">{{.ProfileURL}}</a>.</p>`,
		`Welcome to GradVillage, {{.Name}}!

Your next steps: verify your school, complete your profile and request your welcome box.
Dashboard: {{.DashboardURL}}
Once published, donors can find you at {{.ProfileURL}}`),

	emailDonationReceipt: mustEmailTemplate(emailDonationReceipt,
		`Thank you for supporting {{.StudentName}}`,
		`<p>Dear {{.DonorName}},</p>
<p>Thank you for your donation of <strong>{{.Amount}}</strong> to {{.StudentName}}.</p>
<p>Your tax receipt <strong>{{.ReceiptNumber}}</strong> is available <a href="{{.ReceiptURL}}">here</a>.</p>`,
		`Dear {{.DonorName}},

Thank you for your donation of {{.Amount}} to {{.StudentName}}.
Your tax receipt {{.ReceiptNumber}} is available at {{.ReceiptURL}}`),

	emailDonationReceived: mustEmailTemplate(emailDonationReceived,
		`You received a donation of {{.Amount}}`,
		`<p>Hi {{.StudentName}},</p>
<p>{{.DonorName}} just donated <strong>{{.Amount}}</strong> to your education.</p>
{{if .Message}}<blockquote>{{.Message}}</blockquote>{{end}}
<p><a href="{{.ProfileURL}}">View your profile</a></p>`,
		`Hi {{.StudentName}},

{{.DonorName}} just donated {{.Amount}} to your education.
{{if .Message}}"{{.Message}}"
{{end}}View your profile at {{.ProfileURL}}`),

	emailVerificationResult: mustEmailTemplate(emailVerificationResult,
		`{{if .Verified}}Your school verification was approved{{else}}Your school verification was not approved{{end}}`,
		`<p>Hi {{.Name}},</p>
{{if .Verified}}<p>Your enrolment at <strong>{{.SchoolName}}</strong> has been verified. Your profile now shows a verified badge.</p>
{{else}}<p>We could not verify your enrolment at <strong>{{.SchoolName}}</strong>.</p>
<p>Reason: {{.Reason}}</p>
<p>You can submit a new verification request from your dashboard.</p>{{end}}`,
		`Hi {{.Name}},

{{if .Verified}}Your enrolment at {{.SchoolName}} has been verified. Your profile now shows a verified badge.{{else}}We could not verify your enrolment at {{.SchoolName}}.
Reason: {{.Reason}}
You can submit a new verification request from your dashboard.{{end}}`),
}

func renderEmail(name, to string, data interface{}) (services.EmailMessage, error) {
	tmpl, ok := emailTemplates[name]
	if !ok {
		return services.EmailMessage{}, fmt.Errorf("unknown email template %q", name)
	}

	var subject, html, text bytes.Buffer
	if err := tmpl.subject.Execute(&subject, data); err != nil {
		return services.EmailMessage{}, fmt.Errorf("render %s subject: %w", name, err)
	}
	if err := tmpl.html.Execute(&html, data); err != nil {
		return services.EmailMessage{}, fmt.Errorf("render %s html: %w", name, err)
	}
	if err := tmpl.text.Execute(&text, data); err != nil {
		return services.EmailMessage{}, fmt.Errorf("render %s text: %w", name, err)
	}

	return services.EmailMessage{
		To:       to,
		Subject:  subject.String(),
		HTML:     html.String(),
		Text:     text.String(),
		Category: name,
	}, nil
}
