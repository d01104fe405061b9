package account

import "time"

type Status string

const (
	StatusPendingEmailValidation Status = "PENDING_EMAIL_VALIDATION"
	StatusActive                 Status = "ACTIVE"
	StatusSuspended              Status = "SUSPENDED"
)

type Account struct {
	ID           string  `json:"id"`
	FullName     string  `json:"fullName"`
	Email        string  `json:"email"` // unique, matched exactly
	PasswordHash string  `json:"-"`     // never expose hash in JSON
	PhoneNumber  *string `json:"phoneNumber,omitempty"`

	Status       Status     `json:"status"`
	RegisteredAt time.Time  `json:"registeredAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`

	// Token and expiry travel together: both set or both nil.
	EmailValidationToken     *string    `json:"-"`
	EmailValidationExpiresAt *time.Time `json:"-"`
	PasswordResetToken       *string    `json:"-"`
	PasswordResetExpiresAt   *time.Time `json:"-"`
}

// Public is the caller-facing view of an account: no hash, no tokens.
type Public struct {
	ID           string     `json:"id"`
	FullName     string     `json:"fullName"`
	Email        string     `json:"email"`
	PhoneNumber  *string    `json:"phoneNumber,omitempty"`
	Status       Status     `json:"status"`
	RegisteredAt time.Time  `json:"registeredAt"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
}

func (a Account) Public() Public {
	return Public{
		ID:           a.ID,
		FullName:     a.FullName,
		Email:        a.Email,
		PhoneNumber:  a.PhoneNumber,
		Status:       a.Status,
		RegisteredAt: a.RegisteredAt,
		LastLoginAt:  a.LastLoginAt,
	}
}
