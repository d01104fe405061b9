package account

import (
	"errors"
	"fmt"
)

// MinPasswordLength is shared by the complexity policy and the error message
// below so the two can never drift apart.
const MinPasswordLength = 8

var (
	ErrNotFound = errors.New("account not found")

	// ErrEmailAlreadyUsed is the store's atomic uniqueness signal; the HTTP
	// layer folds it into the generic creation error before it leaves the
	// process.
	ErrEmailAlreadyUsed = errors.New("email already in use")

	// Input validation, surfaced verbatim.
	ErrInvalidEmailFormat = errors.New("Invalid email format.")
	ErrPasswordComplexity = fmt.Errorf(
		"Password does not meet the complexity requirements (minimum %d characters, one uppercase letter, one lowercase letter, one digit, one symbol).",
		MinPasswordLength,
	)

	// Deliberately vague: identical wording for "email taken" and any other
	// creation failure, and for "unknown email" vs "wrong password".
	ErrAccountCreationGeneric = errors.New("Unable to create the account. Please check your details or try again later.")
	ErrInvalidCredentials     = errors.New("Email or password is incorrect.")

	// Account-state errors, surfaced verbatim.
	ErrAccountPendingValidation = errors.New("Your account is awaiting validation. Please check your email.")
	ErrAccountInactive          = errors.New("Your account is currently inactive or suspended.")

	// Email-validation flow.
	ErrValidationTokenInvalid = errors.New("Validation token is invalid or has expired.")
	ErrValidationTokenExpired = errors.New("Validation token has expired. Please request a new validation link.")
	ErrAccountAlreadyActive   = errors.New("This account is already active.")

	// Password-reset flow.
	ErrResetTokenInvalid = errors.New("Password reset token is invalid or has expired.")
	ErrResetTokenExpired = errors.New("Password reset token has expired. Please make a new request.")
)

// PasswordResetRequestedInfo is the neutral response body for a reset
// request; it is the same whether or not the account exists.
const PasswordResetRequestedInfo = "If an account with this email exists and is eligible, a reset email has been sent."
