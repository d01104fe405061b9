package mailer

import (
	"context"

	"github.com/virtuline/accounthub/internal/observability"
)

// MeteredMailer records dispatch counts and latency for each mail kind.
type MeteredMailer struct {
	inner Mailer
	prom  *observability.Prom
}

func NewMeteredMailer(inner Mailer, prom *observability.Prom) *MeteredMailer {
	return &MeteredMailer{inner: inner, prom: prom}
}

func (m *MeteredMailer) SendValidationEmail(ctx context.Context, email, name, token string) error {
	return m.prom.ObserveMail("validation", func() error {
		return m.inner.SendValidationEmail(ctx, email, name, token)
	})
}

func (m *MeteredMailer) SendWelcomeEmail(ctx context.Context, email, name string) error {
	return m.prom.ObserveMail("welcome", func() error {
		return m.inner.SendWelcomeEmail(ctx, email, name)
	})
}

func (m *MeteredMailer) SendPasswordResetEmail(ctx context.Context, email, name, token string) error {
	return m.prom.ObserveMail("password_reset", func() error {
		return m.inner.SendPasswordResetEmail(ctx, email, name, token)
	})
}

func (m *MeteredMailer) SendPasswordChangedConfirmationEmail(ctx context.Context, email, name string) error {
	return m.prom.ObserveMail("password_changed", func() error {
		return m.inner.SendPasswordChangedConfirmationEmail(ctx, email, name)
	})
}
