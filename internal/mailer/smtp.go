package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// SMTPMailer delivers account emails over plain SMTP.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	baseURL  string // link prefix for tokenized emails, e.g. https://app.example.com
	log      *slog.Logger
}

func NewSMTPMailer(host string, port int, username, password, from, baseURL string, log *slog.Logger) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		baseURL:  strings.TrimRight(baseURL, "/"),
		log:      log,
	}
}

func (m *SMTPMailer) SendValidationEmail(ctx context.Context, email, name, token string) error {
	body := fmt.Sprintf(
		"Hello %s,\r\n\r\nPlease confirm your email address within 24 hours:\r\n%s/validate-email?token=%s\r\n\r\nIf you did not create this account, ignore this email.\r\n",
		name, m.baseURL, token,
	)
	return m.send(ctx, email, "Confirm your email address", body)
}

func (m *SMTPMailer) SendWelcomeEmail(ctx context.Context, email, name string) error {
	body := fmt.Sprintf("Hello %s,\r\n\r\nYour email address is confirmed and your account is now active.\r\n", name)
	return m.send(ctx, email, "Welcome", body)
}

func (m *SMTPMailer) SendPasswordResetEmail(ctx context.Context, email, name, token string) error {
	body := fmt.Sprintf(
		"Hello %s,\r\n\r\nA password reset was requested for your account. The link below is valid for one hour:\r\n%s/reset-password?token=%s\r\n\r\nIf you did not request this, ignore this email.\r\n",
		name, m.baseURL, token,
	)
	return m.send(ctx, email, "Reset your password", body)
}

func (m *SMTPMailer) SendPasswordChangedConfirmationEmail(ctx context.Context, email, name string) error {
	body := fmt.Sprintf(
		"Hello %s,\r\n\r\nYour password was changed. If this was not you, request a password reset immediately.\r\n",
		name,
	)
	return m.send(ctx, email, "Your password was changed", body)
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, body string) error {
	// net/smtp has no context support; at least respect an already-cancelled one.
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder

	msg.WriteString("From: " + m.from + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", m.host, m.port)

	var auth smtp.Auth

	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	err := smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg.String()))

	if err != nil {
		m.log.Error("smtp send failed", "to", to, "subject", subject, "err", err)
		return fmt.Errorf("smtp.SendMail: %w", err)
	}

	m.log.Info("mail sent", "to", to, "subject", subject)
	return nil
}
