package mailer

import "context"

// Mailer dispatches the four account lifecycle emails. Implementations must
// be safe for concurrent use.
type Mailer interface {
	SendValidationEmail(ctx context.Context, email, name, token string) error
	SendWelcomeEmail(ctx context.Context, email, name string) error
	SendPasswordResetEmail(ctx context.Context, email, name, token string) error
	SendPasswordChangedConfirmationEmail(ctx context.Context, email, name string) error
}
