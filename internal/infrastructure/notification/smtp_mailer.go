package notification

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gradvillage.backend/internal/domain/services"
	"gradvillage.backend/pkg/logger"
)

var smtpSendMail = smtp.SendMail

// SMTPMailer delivers mail through an SMTP relay
type SMTPMailer struct {
	addr string
	auth smtp.Auth
	from *mail.Address
}

// NewSMTPMailer creates an SMTP mailer. Auth is skipped when user is empty.
func NewSMTPMailer(host string, port int, user, password, from string) (*SMTPMailer, error) {
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return nil, fmt.Errorf("invalid from address %q: %w", from, err)
	}
	m := &SMTPMailer{
		addr: net.JoinHostPort(host, strconv.Itoa(port)),
		from: addr,
	}
	if user != "" {
		m.auth = smtp.PlainAuth("", user, password, host)
	}
	return m, nil
}

// Send renders a multipart message and hands it to the relay
func (m *SMTPMailer) Send(ctx context.Context, msg services.EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to, err := mail.ParseAddress(msg.To)
	if err != nil {
		return fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}

	body, err := buildMIME(m.from, to, msg, time.Now())
	if err != nil {
		return err
	}
	if err := smtpSendMail(m.addr, m.auth, m.from.Address, []string{to.Address}, body); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	logger.Info(ctx, "Email sent",
		zap.String("transport", "smtp"),
		zap.String("to", to.Address),
		zap.String("category", msg.Category),
	)
	return nil
}

func buildMIME(from, to *mail.Address, msg services.EmailMessage, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", from.String())
	fmt.Fprintf(&buf, "To: %s\r\n", to.String())
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", now.Format(time.RFC1123Z))
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", mw.Boundary())

	parts := []struct {
		contentType string
		content     string
	}{
		{"text/plain; charset=utf-8", msg.Text},
		{"text/html; charset=utf-8", msg.HTML},
	}
	for _, p := range parts {
		if p.content == "" {
			continue
		}
		w, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {p.contentType},
			"Content-Transfer-Encoding": {"8bit"},
		})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(p.content)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
