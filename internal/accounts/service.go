package accounts

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/virtuline/accounthub/internal/domain/account"
	"github.com/virtuline/accounthub/internal/security"
)

const (
	// token lifetimes
	ValidationTokenTTL = 24 * time.Hour
	ResetTokenTTL      = 1 * time.Hour
)

// Store is everything the service needs from the persistence layer.
// Email matching is exact; uniqueness is enforced by the store itself,
// the service pre-check is only there for a friendlier failure path.
type Store interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	PhoneNumberExists(ctx context.Context, phoneNumber string) (bool, error)
	Save(ctx context.Context, acc account.Account) (account.Account, error)
	FindByEmail(ctx context.Context, email string) (account.Account, error)
	FindByValidationToken(ctx context.Context, token string) (account.Account, error)
	FindByPasswordResetToken(ctx context.Context, token string) (account.Account, error)
	Update(ctx context.Context, acc account.Account) (account.Account, error)
	DeleteValidationToken(ctx context.Context, id string) error
}

type Mailer interface {
	SendValidationEmail(ctx context.Context, email, name, token string) error
	SendWelcomeEmail(ctx context.Context, email, name string) error
	SendPasswordResetEmail(ctx context.Context, email, name, token string) error
	SendPasswordChangedConfirmationEmail(ctx context.Context, email, name string) error
}

type SessionIssuer interface {
	GenerateSessionToken(userID string, roles []string) (string, error)
	InvalidateSessionToken(ctx context.Context, token string) error
}

var validate = validator.New()

func emailIsValid(email string) bool {
	return validate.Var(email, "required,email") == nil
}

// Service is the account lifecycle orchestrator. It holds no state of its
// own; every call runs store lookup -> computation -> store write -> mail
// dispatch in sequence.
type Service struct {
	store    Store
	mailer   Mailer
	sessions SessionIssuer
	log      *slog.Logger

	validationTTL time.Duration
	resetTTL      time.Duration
}

func NewService(store Store, mailer Mailer, sessions SessionIssuer, log *slog.Logger) *Service {
	return &Service{
		store:         store,
		mailer:        mailer,
		sessions:      sessions,
		log:           log,
		validationTTL: ValidationTokenTTL,
		resetTTL:      ResetTokenTTL,
	}
}

// CreateUser registers a new account in PENDING_EMAIL_VALIDATION and sends
// the validation email. The returned view never carries the hash or tokens.
func (s *Service) CreateUser(ctx context.Context, email, password, fullName string) (account.Public, error) {
	if !emailIsValid(email) {
		s.log.Warn("account creation with malformed email", "email", email)
		return account.Public{}, account.ErrInvalidEmailFormat
	}

	if !PasswordIsComplex(password) {
		s.log.Warn("account creation with a password failing the complexity policy", "email", email)
		return account.Public{}, account.ErrPasswordComplexity
	}

	_, err := s.store.FindByEmail(ctx, email)

	if err == nil {
		// Same response as any other creation failure so callers cannot
		// probe which emails are registered.
		s.log.Info("account creation for an already registered email", "email", email)
		return account.Public{}, account.ErrAccountCreationGeneric
	}

	if !errors.Is(err, account.ErrNotFound) {
		return account.Public{}, err
	}

	hash, err := security.HashPassword(password)

	if err != nil {
		return account.Public{}, err
	}

	now := time.Now().UTC()
	id := uuid.NewString()
	token := uuid.NewString()
	expiresAt := now.Add(s.validationTTL)

	saved, err := s.store.Save(ctx, account.Account{
		ID:                       id,
		FullName:                 fullName,
		Email:                    email,
		PasswordHash:             hash,
		Status:                   account.StatusPendingEmailValidation,
		RegisteredAt:             now,
		EmailValidationToken:     &token,
		EmailValidationExpiresAt: &expiresAt,
	})

	if err != nil {
		return account.Public{}, err
	}

	err = s.mailer.SendValidationEmail(ctx, saved.Email, saved.FullName, token)

	if err != nil {
		return account.Public{}, err
	}

	pub := saved.Public()

	// force the id we generated, in case the store rewrote it on save
	pub.ID = id

	return pub, nil
}

// LoginUser authenticates and returns a session token.
//
// Ordering is load-bearing: format -> lookup -> status -> password. Status
// short-circuits before a hash comparison is attempted; changing the order
// changes the observable errors.
func (s *Service) LoginUser(ctx context.Context, email, password string) (string, error) {
	if !emailIsValid(email) {
		s.log.Warn("login with malformed email", "email", email)
		return "", account.ErrInvalidEmailFormat
	}

	acc, err := s.store.FindByEmail(ctx, email)

	if errors.Is(err, account.ErrNotFound) {
		return "", account.ErrInvalidCredentials
	}

	if err != nil {
		return "", err
	}

	if acc.Status == account.StatusPendingEmailValidation {
		return "", account.ErrAccountPendingValidation
	}

	if acc.Status != account.StatusActive {
		return "", account.ErrAccountInactive
	}

	err = security.CheckPassword(acc.PasswordHash, password)

	if err != nil {
		return "", account.ErrInvalidCredentials
	}

	// no roles system yet: empty role set
	token, err := s.sessions.GenerateSessionToken(acc.ID, nil)

	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	acc.LastLoginAt = &now

	_, err = s.store.Update(ctx, acc)

	if err != nil {
		return "", err
	}

	return token, nil
}

// ValidateEmail flips a pending account to ACTIVE. An expired token is
// cleared from the record before the expiry error is returned, so a retry
// with the same token reports it as invalid.
func (s *Service) ValidateEmail(ctx context.Context, token string) error {
	acc, err := s.store.FindByValidationToken(ctx, token)

	if errors.Is(err, account.ErrNotFound) {
		return account.ErrValidationTokenInvalid
	}

	if err != nil {
		return err
	}

	now := time.Now().UTC()

	if acc.EmailValidationExpiresAt == nil || acc.EmailValidationExpiresAt.Before(now) {
		err = s.store.DeleteValidationToken(ctx, acc.ID)

		if err != nil {
			return err
		}

		return account.ErrValidationTokenExpired
	}

	if acc.Status == account.StatusActive {
		return account.ErrAccountAlreadyActive
	}

	acc.Status = account.StatusActive
	acc.EmailValidationToken = nil
	acc.EmailValidationExpiresAt = nil

	_, err = s.store.Update(ctx, acc)

	if err != nil {
		return err
	}

	return s.mailer.SendWelcomeEmail(ctx, acc.Email, acc.FullName)
}

// RequestPasswordReset issues a reset token for an eligible account. Apart
// from a malformed email it never reports failure to the caller: unknown or
// ineligible accounts are logged and swallowed so the endpoint cannot be
// used to enumerate accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	if !emailIsValid(email) {
		s.log.Warn("password reset requested with malformed email", "email", email)
		return account.ErrInvalidEmailFormat
	}

	acc, err := s.store.FindByEmail(ctx, email)

	if errors.Is(err, account.ErrNotFound) {
		s.log.Info("password reset requested for unknown email", "email", email)
		return nil
	}

	if err != nil {
		return err
	}

	if acc.Status != account.StatusActive && acc.Status != account.StatusPendingEmailValidation {
		s.log.Warn("password reset requested for ineligible account", "email", email, "status", acc.Status)
		return nil
	}

	token := uuid.NewString()
	expiresAt := time.Now().UTC().Add(s.resetTTL)

	acc.PasswordResetToken = &token
	acc.PasswordResetExpiresAt = &expiresAt

	_, err = s.store.Update(ctx, acc)

	if err != nil {
		return err
	}

	return s.mailer.SendPasswordResetEmail(ctx, acc.Email, acc.FullName, token)
}

// ResetPassword sets a new password from a live reset token. The token is
// single-use: cleared on success and on expiry detection, but left valid
// when only the new password fails the complexity policy.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	acc, err := s.store.FindByPasswordResetToken(ctx, token)

	if errors.Is(err, account.ErrNotFound) {
		s.log.Warn("password reset with unknown token")
		return account.ErrResetTokenInvalid
	}

	if err != nil {
		return err
	}

	now := time.Now().UTC()

	if acc.PasswordResetExpiresAt == nil || acc.PasswordResetExpiresAt.Before(now) {
		acc.PasswordResetToken = nil
		acc.PasswordResetExpiresAt = nil

		_, err = s.store.Update(ctx, acc)

		if err != nil {
			return err
		}

		return account.ErrResetTokenExpired
	}

	// complexity runs after the token check; a failing password leaves the
	// token usable for another attempt
	if !PasswordIsComplex(newPassword) {
		s.log.Warn("password reset with a password failing the complexity policy", "email", acc.Email)
		return account.ErrPasswordComplexity
	}

	hash, err := security.HashPassword(newPassword)

	if err != nil {
		return err
	}

	acc.PasswordHash = hash
	acc.PasswordResetToken = nil
	acc.PasswordResetExpiresAt = nil

	_, err = s.store.Update(ctx, acc)

	if err != nil {
		return err
	}

	s.log.Info("password reset completed", "email", acc.Email)

	return s.mailer.SendPasswordChangedConfirmationEmail(ctx, acc.Email, acc.FullName)
}

// Logout revokes a previously issued session token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.InvalidateSessionToken(ctx, token)
}
