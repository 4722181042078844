package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/smtp"

	"github.com/sirupsen/logrus"
)

// EmailAttachment is an optional document attached to an outgoing email
type EmailAttachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// EmailService sends transactional email over an SMTP relay
type EmailService struct {
	smtpHost     string
	smtpPort     int
	smtpUsername string
	smtpPassword string
	fromEmail    string
	fromName     string
	logger       *logrus.Logger
}

// NewEmailService creates a new email service
func NewEmailService(host string, port int, username, password, fromEmail, fromName string, logger *logrus.Logger) *EmailService {
	return &EmailService{
		smtpHost:     host,
		smtpPort:     port,
		smtpUsername: username,
		smtpPassword: password,
		fromEmail:    fromEmail,
		fromName:     fromName,
		logger:       logger,
	}
}

// Send delivers one HTML email, with an optional attachment. When SMTP
// credentials are missing the email is logged instead of sent, so local
// environments work without a relay.
func (es *EmailService) Send(ctx context.Context, to, subject, htmlBody string, attachment *EmailAttachment) error {
	if es.smtpUsername == "" || es.smtpPassword == "" {
		es.logger.WithFields(logrus.Fields{
			"to":      to,
			"subject": subject,
		}).Info("smtp not configured, skipping email")
		return nil
	}

	auth := smtp.PlainAuth("", es.smtpUsername, es.smtpPassword, es.smtpHost)
	from := fmt.Sprintf("%s <%s>", es.fromName, es.fromEmail)
	boundary := "boundary-wellness"

	var body bytes.Buffer
	body.WriteString(fmt.Sprintf("From: %s\n", from))
	body.WriteString(fmt.Sprintf("To: %s\n", to))
	body.WriteString(fmt.Sprintf("Subject: %s\n", subject))
	body.WriteString("MIME-Version: 1.0\n")
	body.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=\"%s\"\n\n", boundary))

	body.WriteString(fmt.Sprintf("--%s\n", boundary))
	body.WriteString("Content-Type: text/html; charset=\"utf-8\"\n\n")
	body.WriteString(htmlBody)
	body.WriteString("\n\n")

	if attachment != nil {
		body.WriteString(fmt.Sprintf("--%s\n", boundary))
		body.WriteString(fmt.Sprintf("Content-Type: %s; name=\"%s\"\n", attachment.ContentType, attachment.Filename))
		body.WriteString("Content-Transfer-Encoding: base64\n")
		body.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=\"%s\"\n\n", attachment.Filename))
		body.WriteString(base64.StdEncoding.EncodeToString(attachment.Data))
		body.WriteString("\n\n")
	}

	body.WriteString(fmt.Sprintf("--%s--", boundary))

	addr := fmt.Sprintf("%s:%d", es.smtpHost, es.smtpPort)
	if err := smtp.SendMail(addr, auth, es.fromEmail, []string{to}, body.Bytes()); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
