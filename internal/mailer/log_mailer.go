package mailer

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// LogMailer writes mail to the process log instead of sending it. Default
// for dev runs and tests that want a real Mailer.
type LogMailer struct{}

func NewLogMailer() *LogMailer { return &LogMailer{} }

func (m *LogMailer) deliver(ctx context.Context, kind, email, name, token string) error {
	// Optional: simulate slow provider
	if msStr := os.Getenv("MAILER_SLEEP_MS"); msStr != "" {
		ms, _ := strconv.Atoi(msStr)
		if ms > 0 {
			select {
			case <-time.After(time.Duration(ms) * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	// Optional: simulate provider outage
	if os.Getenv("MAILER_FAIL") == "1" {
		return fmt.Errorf("provider down (simulated)")
	}

	log.Printf("mail.%s email=%s name=%s token=%s", kind, email, name, token)
	return nil
}

func (m *LogMailer) SendValidationEmail(ctx context.Context, email, name, token string) error {
	return m.deliver(ctx, "validation", email, name, token)
}

func (m *LogMailer) SendWelcomeEmail(ctx context.Context, email, name string) error {
	return m.deliver(ctx, "welcome", email, name, "")
}

func (m *LogMailer) SendPasswordResetEmail(ctx context.Context, email, name, token string) error {
	return m.deliver(ctx, "password_reset", email, name, token)
}

func (m *LogMailer) SendPasswordChangedConfirmationEmail(ctx context.Context, email, name string) error {
	return m.deliver(ctx, "password_changed", email, name, "")
}
