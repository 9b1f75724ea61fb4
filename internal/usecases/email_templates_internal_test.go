package usecases

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderEmail_VerificationResult(t *testing.T) {
	reason := `Letter is <illegible> & unsigned`
	msg, err := renderEmail(emailVerificationResult, "ada@state.edu", verificationResultData{
		Name:       "Ada",
		SchoolName: "State University",
		Reason:     reason,
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@state.edu", msg.To)
	assert.Equal(t, emailVerificationResult, msg.Category)
	assert.Equal(t, "Your school verification was not approved", msg.Subject)
	assert.Contains(t, msg.Text, "Reason: "+reason)
	assert.Contains(t, msg.HTML, "Letter is &lt;illegible&gt; &amp; unsigned")
	assert.NotContains(t, msg.HTML, "<illegible>")

	msg, err = renderEmail(emailVerificationResult, "ada@state.edu", verificationResultData{Name: "Ada", SchoolName: "State University", Verified: true})
	require.NoError(t, err)
	assert.Equal(t, "Your school verification was approved", msg.Subject)
	assert.NotContains(t, msg.Text, "Reason:")
}

func TestRenderEmail_AllTemplates(t *testing.T) {
	cases := map[string]interface{}{
		emailPaymentConfirmation: paymentConfirmationData{Name: "Ada", Amount: "$25.00", IntentID: "pi_1", ReceiptNumber: "R-1", ReceiptURL: "https://x/r.pdf"},
		emailReceiptDownload:     receiptDownloadData{Name: "Ada", Amount: "$25.00", ReceiptNumber: "R-1", ReceiptURL: "https://x/r.pdf"},
		emailWelcome:             welcomeData{Name: "Ada", ProfileURL: "https://x/students/ada", DashboardURL: "https://x/dashboard"},
		emailDonationReceipt:     donationReceiptData{DonorName: "Grace", StudentName: "Ada Lovelace", Amount: "$50.00", ReceiptNumber: "R-2", ReceiptURL: "https://x/r2.pdf"},
		emailDonationReceived:    donationReceivedData{StudentName: "Ada", DonorName: "Grace", Amount: "$50.00", ProfileURL: "https://x/students/ada"},
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			msg, err := renderEmail(name, "to@example.com", data)
			require.NoError(t, err)
			assert.NotEmpty(t, msg.Subject)
			assert.Contains(t, msg.HTML, "GradVillage")
			assert.Contains(t, msg.Text, "501(c)(3)")
			assert.Equal(t, name, msg.Category)
		})
	}

	msg, err := renderEmail(emailPaymentConfirmation, "to@example.com", paymentConfirmationData{Name: "Ada", Amount: "$25.00", IntentID: "pi_1"})
	require.NoError(t, err)
	assert.Equal(t, "Your GradVillage registration payment of $25.00 was received", msg.Subject)
	assert.NotContains(t, msg.Text, "tax receipt")

	_, err = renderEmail("missing", "to@example.com", nil)
	assert.Error(t, err)
}
