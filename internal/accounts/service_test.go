package accounts_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/virtuline/accounthub/internal/accounts"
	"github.com/virtuline/accounthub/internal/domain/account"
	"github.com/virtuline/accounthub/internal/repo/memory"
	"github.com/virtuline/accounthub/internal/security"
)

const goodPassword = "Str0ng!Pass"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Fake store implementation of the accounts.Store interface

type fakeStore struct {
	emailExistsFn       func(ctx context.Context, email string) (bool, error)
	phoneExistsFn       func(ctx context.Context, phone string) (bool, error)
	saveFn              func(ctx context.Context, acc account.Account) (account.Account, error)
	findByEmailFn       func(ctx context.Context, email string) (account.Account, error)
	findByValidationFn  func(ctx context.Context, token string) (account.Account, error)
	findByResetFn       func(ctx context.Context, token string) (account.Account, error)
	updateFn            func(ctx context.Context, acc account.Account) (account.Account, error)
	deleteValidationFn  func(ctx context.Context, id string) error
}

func (f *fakeStore) EmailExists(ctx context.Context, email string) (bool, error) {
	if f.emailExistsFn != nil {
		return f.emailExistsFn(ctx, email)
	}
	return false, nil
}

func (f *fakeStore) PhoneNumberExists(ctx context.Context, phone string) (bool, error) {
	if f.phoneExistsFn != nil {
		return f.phoneExistsFn(ctx, phone)
	}
	return false, nil
}

func (f *fakeStore) Save(ctx context.Context, acc account.Account) (account.Account, error) {
	if f.saveFn != nil {
		return f.saveFn(ctx, acc)
	}
	return acc, nil
}

func (f *fakeStore) FindByEmail(ctx context.Context, email string) (account.Account, error) {
	if f.findByEmailFn != nil {
		return f.findByEmailFn(ctx, email)
	}
	return account.Account{}, account.ErrNotFound
}

func (f *fakeStore) FindByValidationToken(ctx context.Context, token string) (account.Account, error) {
	if f.findByValidationFn != nil {
		return f.findByValidationFn(ctx, token)
	}
	return account.Account{}, account.ErrNotFound
}

func (f *fakeStore) FindByPasswordResetToken(ctx context.Context, token string) (account.Account, error) {
	if f.findByResetFn != nil {
		return f.findByResetFn(ctx, token)
	}
	return account.Account{}, account.ErrNotFound
}

func (f *fakeStore) Update(ctx context.Context, acc account.Account) (account.Account, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, acc)
	}
	return acc, nil
}

func (f *fakeStore) DeleteValidationToken(ctx context.Context, id string) error {
	if f.deleteValidationFn != nil {
		return f.deleteValidationFn(ctx, id)
	}
	return nil
}

// Fake mailer that records every send

type sentMail struct {
	kind  string
	email string
	name  string
	token string
}

type fakeMailer struct {
	sent   []sentMail
	failFn func(kind string) error
}

func (f *fakeMailer) record(kind, email, name, token string) error {
	if f.failFn != nil {
		if err := f.failFn(kind); err != nil {
			return err
		}
	}

	f.sent = append(f.sent, sentMail{kind: kind, email: email, name: name, token: token})
	return nil
}

func (f *fakeMailer) SendValidationEmail(ctx context.Context, email, name, token string) error {
	return f.record("validation", email, name, token)
}

func (f *fakeMailer) SendWelcomeEmail(ctx context.Context, email, name string) error {
	return f.record("welcome", email, name, "")
}

func (f *fakeMailer) SendPasswordResetEmail(ctx context.Context, email, name, token string) error {
	return f.record("reset", email, name, token)
}

func (f *fakeMailer) SendPasswordChangedConfirmationEmail(ctx context.Context, email, name string) error {
	return f.record("changed", email, name, "")
}

type fakeSessions struct {
	generateFn   func(userID string, roles []string) (string, error)
	invalidateFn func(ctx context.Context, token string) error
}

func (f *fakeSessions) GenerateSessionToken(userID string, roles []string) (string, error) {
	if f.generateFn != nil {
		return f.generateFn(userID, roles)
	}
	return "session-token", nil
}

func (f *fakeSessions) InvalidateSessionToken(ctx context.Context, token string) error {
	if f.invalidateFn != nil {
		return f.invalidateFn(ctx, token)
	}
	return nil
}

func newService(store accounts.Store, mailer accounts.Mailer, sessions accounts.SessionIssuer) *accounts.Service {
	return accounts.NewService(store, mailer, sessions, discardLogger())
}

// memoryService wires the real in-memory store behind the service, for
// flow tests that need persistence across calls.
func memoryService(m *fakeMailer) (*accounts.Service, *memory.AccountsRepo) {
	repo := memory.NewAccountsRepo()
	return newService(repo, m, &fakeSessions{}), repo
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()

	t.Run("persists a pending account and sends one validation email", func(t *testing.T) {
		m := &fakeMailer{}
		svc, repo := memoryService(m)

		pub, err := svc.CreateUser(ctx, "ada@example.com", goodPassword, "Ada Lovelace")

		if err != nil {
			t.Fatalf("CreateUser: %v", err)
		}

		if pub.ID == "" {
			t.Fatal("expected a generated id")
		}

		if pub.Status != account.StatusPendingEmailValidation {
			t.Fatalf("status = %s, want %s", pub.Status, account.StatusPendingEmailValidation)
		}

		stored, err := repo.FindByEmail(ctx, "ada@example.com")

		if err != nil {
			t.Fatalf("FindByEmail after create: %v", err)
		}

		if stored.PasswordHash == "" || stored.PasswordHash == goodPassword {
			t.Fatal("password must be stored hashed")
		}

		if err := security.CheckPassword(stored.PasswordHash, goodPassword); err != nil {
			t.Fatalf("stored hash does not verify: %v", err)
		}

		if stored.EmailValidationToken == nil || stored.EmailValidationExpiresAt == nil {
			t.Fatal("expected a validation token with expiry")
		}

		if len(m.sent) != 1 || m.sent[0].kind != "validation" {
			t.Fatalf("sent = %+v, want exactly one validation email", m.sent)
		}

		if m.sent[0].token != *stored.EmailValidationToken {
			t.Fatal("emailed token differs from the persisted one")
		}

		ttl := time.Until(*stored.EmailValidationExpiresAt)

		if ttl < 23*time.Hour || ttl > 25*time.Hour {
			t.Fatalf("validation token ttl = %v, want about 24h", ttl)
		}
	})

	t.Run("rejects a malformed email before touching the store", func(t *testing.T) {
		stored := false
		store := &fakeStore{
			saveFn: func(ctx context.Context, acc account.Account) (account.Account, error) {
				stored = true
				return acc, nil
			},
		}
		m := &fakeMailer{}
		svc := newService(store, m, &fakeSessions{})

		_, err := svc.CreateUser(ctx, "not-an-email", goodPassword, "Ada")

		if !errors.Is(err, account.ErrInvalidEmailFormat) {
			t.Fatalf("err = %v, want ErrInvalidEmailFormat", err)
		}

		if stored || len(m.sent) != 0 {
			t.Fatal("nothing may be written or sent for a malformed email")
		}
	})

	t.Run("rejects weak passwords without a store write", func(t *testing.T) {
		weak := []string{
			"Ab1!",         // too short
			"lower1!aaaa",  // no uppercase
			"UPPER1!AAAA",  // no lowercase
			"NoDigits!abc", // no digit
			"NoSymbol1abc", // no symbol
		}

		for _, pw := range weak {
			stored := false
			store := &fakeStore{
				saveFn: func(ctx context.Context, acc account.Account) (account.Account, error) {
					stored = true
					return acc, nil
				},
			}
			m := &fakeMailer{}
			svc := newService(store, m, &fakeSessions{})

			_, err := svc.CreateUser(ctx, "ada@example.com", pw, "Ada")

			if !errors.Is(err, account.ErrPasswordComplexity) {
				t.Fatalf("password %q: err = %v, want ErrPasswordComplexity", pw, err)
			}

			if stored || len(m.sent) != 0 {
				t.Fatalf("password %q: nothing may be written or sent", pw)
			}
		}
	})

	t.Run("complexity message names the minimum length", func(t *testing.T) {
		_, err := newService(&fakeStore{}, &fakeMailer{}, &fakeSessions{}).CreateUser(ctx, "ada@example.com", "short", "Ada")

		if err == nil || !strings.Contains(err.Error(), "minimum 8 characters") {
			t.Fatalf("err = %v, want the minimum length in the message", err)
		}
	})

	t.Run("duplicate email gets the generic failure and no second email", func(t *testing.T) {
		m := &fakeMailer{}
		svc, _ := memoryService(m)

		_, err := svc.CreateUser(ctx, "ada@example.com", goodPassword, "Ada")

		if err != nil {
			t.Fatalf("first CreateUser: %v", err)
		}

		_, err = svc.CreateUser(ctx, "ada@example.com", goodPassword, "Impostor")

		if !errors.Is(err, account.ErrAccountCreationGeneric) {
			t.Fatalf("err = %v, want ErrAccountCreationGeneric", err)
		}

		if len(m.sent) != 1 {
			t.Fatalf("sent %d emails, want only the first", len(m.sent))
		}
	})

	t.Run("returned id survives a store that rewrites it on save", func(t *testing.T) {
		var generatedID string
		store := &fakeStore{
			saveFn: func(ctx context.Context, acc account.Account) (account.Account, error) {
				generatedID = acc.ID
				acc.ID = "store-assigned-id"
				return acc, nil
			},
		}
		svc := newService(store, &fakeMailer{}, &fakeSessions{})

		pub, err := svc.CreateUser(ctx, "ada@example.com", goodPassword, "Ada")

		if err != nil {
			t.Fatalf("CreateUser: %v", err)
		}

		if generatedID == "" {
			t.Fatal("no id reached the store")
		}

		if pub.ID != generatedID {
			t.Fatalf("public id = %q, want the pre-save id %q", pub.ID, generatedID)
		}
	})

	t.Run("public view never leaks the hash or tokens", func(t *testing.T) {
		m := &fakeMailer{}
		svc, _ := memoryService(m)

		pub, err := svc.CreateUser(ctx, "ada@example.com", goodPassword, "Ada")

		if err != nil {
			t.Fatalf("CreateUser: %v", err)
		}

		if pub.Email != "ada@example.com" || pub.FullName != "Ada" {
			t.Fatalf("unexpected public view %+v", pub)
		}
		// Public carries no hash/token fields at all; this is a compile-time
		// property, the assertion above just pins the payload shape.
	})
}

func TestLoginUser(t *testing.T) {
	ctx := context.Background()

	activeAccount := func(hash string) account.Account {
		return account.Account{
			ID:           "id-1",
			FullName:     "Ada",
			Email:        "ada@example.com",
			PasswordHash: hash,
			Status:       account.StatusActive,
			RegisteredAt: time.Now().UTC(),
		}
	}

	hash, err := security.HashPassword(goodPassword)

	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	t.Run("success issues a token and stamps lastLoginAt", func(t *testing.T) {
		var updated account.Account
		store := &fakeStore{
			findByEmailFn: func(ctx context.Context, email string) (account.Account, error) {
				return activeAccount(hash), nil
			},
			updateFn: func(ctx context.Context, acc account.Account) (account.Account, error) {
				updated = acc
				return acc, nil
			},
		}
		sessions := &fakeSessions{
			generateFn: func(userID string, roles []string) (string, error) {
				if userID != "id-1" {
					t.Fatalf("token minted for %q", userID)
				}
				return "tok-123", nil
			},
		}
		svc := newService(store, &fakeMailer{}, sessions)

		tok, err := svc.LoginUser(ctx, "ada@example.com", goodPassword)

		if err != nil {
			t.Fatalf("LoginUser: %v", err)
		}

		if tok != "tok-123" {
			t.Fatalf("token = %q", tok)
		}

		if updated.LastLoginAt == nil {
			t.Fatal("lastLoginAt was not persisted")
		}
	})

	t.Run("unknown email and wrong password share one message", func(t *testing.T) {
		store := &fakeStore{
			findByEmailFn: func(ctx context.Context, email string) (account.Account, error) {
				if email == "ada@example.com" {
					return activeAccount(hash), nil
				}
				return account.Account{}, account.ErrNotFound
			},
		}
		svc := newService(store, &fakeMailer{}, &fakeSessions{})

		_, errUnknown := svc.LoginUser(ctx, "ghost@example.com", goodPassword)
		_, errWrongPw := svc.LoginUser(ctx, "ada@example.com", "Wrong1!pass")

		if !errors.Is(errUnknown, account.ErrInvalidCredentials) {
			t.Fatalf("unknown email: %v", errUnknown)
		}

		if !errors.Is(errWrongPw, account.ErrInvalidCredentials) {
			t.Fatalf("wrong password: %v", errWrongPw)
		}

		if errUnknown.Error() != errWrongPw.Error() {
			t.Fatal("the two failures must be indistinguishable")
		}
	})

	t.Run("status check runs before the password check", func(t *testing.T) {
		cases := []struct {
			name   string
			status account.Status
			want   error
		}{
			{"pending", account.StatusPendingEmailValidation, account.ErrAccountPendingValidation},
			{"suspended", account.StatusSuspended, account.ErrAccountInactive},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				acc := activeAccount(hash)
				acc.Status = tc.status

				store := &fakeStore{
					findByEmailFn: func(ctx context.Context, email string) (account.Account, error) {
						return acc, nil
					},
				}
				svc := newService(store, &fakeMailer{}, &fakeSessions{})

				// even the correct password must not flip the outcome
				_, err := svc.LoginUser(ctx, "ada@example.com", goodPassword)

				if !errors.Is(err, tc.want) {
					t.Fatalf("err = %v, want %v", err, tc.want)
				}
			})
		}
	})

	t.Run("malformed email fails fast", func(t *testing.T) {
		svc := newService(&fakeStore{}, &fakeMailer{}, &fakeSessions{})

		_, err := svc.LoginUser(ctx, "nope", goodPassword)

		if !errors.Is(err, account.ErrInvalidEmailFormat) {
			t.Fatalf("err = %v, want ErrInvalidEmailFormat", err)
		}
	})
}

func TestValidateEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("activates a pending account and sends the welcome email", func(t *testing.T) {
		m := &fakeMailer{}
		svc, repo := memoryService(m)

		_, err := svc.CreateUser(ctx, "ada@example.com", goodPassword, "Ada")

		if err != nil {
			t.Fatalf("CreateUser: %v", err)
		}

		token := m.sent[0].token

		if err := svc.ValidateEmail(ctx, token); err != nil {
			t.Fatalf("ValidateEmail: %v", err)
		}

		acc, err := repo.FindByEmail(ctx, "ada@example.com")

		if err != nil {
			t.Fatalf("FindByEmail: %v", err)
		}

		if acc.Status != account.StatusActive {
			t.Fatalf("status = %s, want ACTIVE", acc.Status)
		}

		if acc.EmailValidationToken != nil || acc.EmailValidationExpiresAt != nil {
			t.Fatal("validation token must be cleared after use")
		}

		if len(m.sent) != 2 || m.sent[1].kind != "welcome" {
			t.Fatalf("sent = %+v, want validation then welcome", m.sent)
		}
	})

	t.Run("unknown token is invalid", func(t *testing.T) {
		svc, _ := memoryService(&fakeMailer{})

		err := svc.ValidateEmail(ctx, "no-such-token")

		if !errors.Is(err, account.ErrValidationTokenInvalid) {
			t.Fatalf("err = %v, want ErrValidationTokenInvalid", err)
		}
	})

	t.Run("expired token is cleared, a retry reports invalid", func(t *testing.T) {
		m := &fakeMailer{}
		svc, repo := memoryService(m)

		_, err := svc.CreateUser(ctx, "ada@example.com", goodPassword, "Ada")

		if err != nil {
			t.Fatalf("CreateUser: %v", err)
		}

		acc, _ := repo.FindByEmail(ctx, "ada@example.com")
		past := time.Now().UTC().Add(-time.Minute)
		acc.EmailValidationExpiresAt = &past

		if _, err := repo.Update(ctx, acc); err != nil {
			t.Fatalf("Update: %v", err)
		}

		token := m.sent[0].token

		err = svc.ValidateEmail(ctx, token)

		if !errors.Is(err, account.ErrValidationTokenExpired) {
			t.Fatalf("first attempt: err = %v, want ErrValidationTokenExpired", err)
		}

		err = svc.ValidateEmail(ctx, token)

		if !errors.Is(err, account.ErrValidationTokenInvalid) {
			t.Fatalf("retry: err = %v, want ErrValidationTokenInvalid", err)
		}

		acc, _ = repo.FindByEmail(ctx, "ada@example.com")

		if acc.Status != account.StatusPendingEmailValidation {
			t.Fatalf("status = %s, the account must stay pending", acc.Status)
		}
	})

	t.Run("already active account reports a conflict", func(t *testing.T) {
		token := "tok-1"
		future := time.Now().UTC().Add(time.Hour)
		store := &fakeStore{
			findByValidationFn: func(ctx context.Context, tok string) (account.Account, error) {
				return account.Account{
					ID:                       "id-1",
					Status:                   account.StatusActive,
					EmailValidationToken:     &token,
					EmailValidationExpiresAt: &future,
				}, nil
			},
		}
		svc := newService(store, &fakeMailer{}, &fakeSessions{})

		err := svc.ValidateEmail(ctx, token)

		if !errors.Is(err, account.ErrAccountAlreadyActive) {
			t.Fatalf("err = %v, want ErrAccountAlreadyActive", err)
		}
	})
}

func TestRequestPasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("eligible account gets a token with a 1h expiry", func(t *testing.T) {
		m := &fakeMailer{}
		svc, repo := memoryService(m)

		_, err := svc.CreateUser(ctx, "ada@example.com", goodPassword, "Ada")

		if err != nil {
			t.Fatalf("CreateUser: %v", err)
		}

		if err := svc.RequestPasswordReset(ctx, "ada@example.com"); err != nil {
			t.Fatalf("RequestPasswordReset: %v", err)
		}

		acc, _ := repo.FindByEmail(ctx, "ada@example.com")

		if acc.PasswordResetToken == nil || acc.PasswordResetExpiresAt == nil {
			t.Fatal("expected a reset token with expiry")
		}

		last := m.sent[len(m.sent)-1]

		if last.kind != "reset" || last.token != *acc.PasswordResetToken {
			t.Fatalf("last mail = %+v, want the persisted reset token", last)
		}

		ttl := time.Until(*acc.PasswordResetExpiresAt)

		if ttl < 55*time.Minute || ttl > 65*time.Minute {
			t.Fatalf("reset token ttl = %v, want about 1h", ttl)
		}
	})

	t.Run("unknown email is swallowed", func(t *testing.T) {
		m := &fakeMailer{}
		svc, _ := memoryService(m)

		if err := svc.RequestPasswordReset(ctx, "ghost@example.com"); err != nil {
			t.Fatalf("err = %v, want nil", err)
		}

		if len(m.sent) != 0 {
			t.Fatalf("sent = %+v, want no email", m.sent)
		}
	})

	t.Run("suspended account is swallowed without a token", func(t *testing.T) {
		updated := false
		store := &fakeStore{
			findByEmailFn: func(ctx context.Context, email string) (account.Account, error) {
				return account.Account{ID: "id-1", Email: email, Status: account.StatusSuspended}, nil
			},
			updateFn: func(ctx context.Context, acc account.Account) (account.Account, error) {
				updated = true
				return acc, nil
			},
		}
		m := &fakeMailer{}
		svc := newService(store, m, &fakeSessions{})

		if err := svc.RequestPasswordReset(ctx, "ada@example.com"); err != nil {
			t.Fatalf("err = %v, want nil", err)
		}

		if updated || len(m.sent) != 0 {
			t.Fatal("a suspended account must get neither token nor email")
		}
	})

	t.Run("malformed email is the only reported failure", func(t *testing.T) {
		svc, _ := memoryService(&fakeMailer{})

		err := svc.RequestPasswordReset(ctx, "nope")

		if !errors.Is(err, account.ErrInvalidEmailFormat) {
			t.Fatalf("err = %v, want ErrInvalidEmailFormat", err)
		}
	})
}

func TestResetPassword(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*accounts.Service, *memory.AccountsRepo, *fakeMailer, string) {
		t.Helper()

		m := &fakeMailer{}
		svc, repo := memoryService(m)

		_, err := svc.CreateUser(ctx, "ada@example.com", goodPassword, "Ada")

		if err != nil {
			t.Fatalf("CreateUser: %v", err)
		}

		if err := svc.RequestPasswordReset(ctx, "ada@example.com"); err != nil {
			t.Fatalf("RequestPasswordReset: %v", err)
		}

		acc, _ := repo.FindByEmail(ctx, "ada@example.com")
		return svc, repo, m, *acc.PasswordResetToken
	}

	t.Run("replaces the hash and clears the token", func(t *testing.T) {
		svc, repo, m, token := setup(t)

		newPassword := "An0ther!Pass"

		if err := svc.ResetPassword(ctx, token, newPassword); err != nil {
			t.Fatalf("ResetPassword: %v", err)
		}

		acc, _ := repo.FindByEmail(ctx, "ada@example.com")

		if err := security.CheckPassword(acc.PasswordHash, newPassword); err != nil {
			t.Fatalf("new password does not verify: %v", err)
		}

		if err := security.CheckPassword(acc.PasswordHash, goodPassword); err == nil {
			t.Fatal("old password still verifies")
		}

		if acc.PasswordResetToken != nil || acc.PasswordResetExpiresAt != nil {
			t.Fatal("reset token must be cleared after use")
		}

		last := m.sent[len(m.sent)-1]

		if last.kind != "changed" {
			t.Fatalf("last mail = %+v, want the change confirmation", last)
		}

		// token is single-use
		err := svc.ResetPassword(ctx, token, "Yet4nother!Pw")

		if !errors.Is(err, account.ErrResetTokenInvalid) {
			t.Fatalf("reuse: err = %v, want ErrResetTokenInvalid", err)
		}
	})

	t.Run("unknown token is invalid", func(t *testing.T) {
		svc, _, _, _ := setup(t)

		err := svc.ResetPassword(ctx, "no-such-token", "An0ther!Pass")

		if !errors.Is(err, account.ErrResetTokenInvalid) {
			t.Fatalf("err = %v, want ErrResetTokenInvalid", err)
		}
	})

	t.Run("expired token is cleared, a retry reports invalid", func(t *testing.T) {
		svc, repo, _, token := setup(t)

		acc, _ := repo.FindByEmail(ctx, "ada@example.com")
		past := time.Now().UTC().Add(-time.Minute)
		acc.PasswordResetExpiresAt = &past

		if _, err := repo.Update(ctx, acc); err != nil {
			t.Fatalf("Update: %v", err)
		}

		err := svc.ResetPassword(ctx, token, "An0ther!Pass")

		if !errors.Is(err, account.ErrResetTokenExpired) {
			t.Fatalf("first attempt: err = %v, want ErrResetTokenExpired", err)
		}

		err = svc.ResetPassword(ctx, token, "An0ther!Pass")

		if !errors.Is(err, account.ErrResetTokenInvalid) {
			t.Fatalf("retry: err = %v, want ErrResetTokenInvalid", err)
		}
	})

	t.Run("weak password leaves the token usable", func(t *testing.T) {
		svc, _, _, token := setup(t)

		err := svc.ResetPassword(ctx, token, "weak")

		if !errors.Is(err, account.ErrPasswordComplexity) {
			t.Fatalf("err = %v, want ErrPasswordComplexity", err)
		}

		// same token again, this time with a good password
		if err := svc.ResetPassword(ctx, token, "An0ther!Pass"); err != nil {
			t.Fatalf("retry with a good password: %v", err)
		}
	})
}

// Full journeys across the lifecycle, backed by the in-memory store.

func TestLifecycleFlows(t *testing.T) {
	ctx := context.Background()

	t.Run("signup, validate, login", func(t *testing.T) {
		m := &fakeMailer{}
		svc, _ := memoryService(m)

		_, err := svc.CreateUser(ctx, "ada@example.com", goodPassword, "Ada")

		if err != nil {
			t.Fatalf("CreateUser: %v", err)
		}

		// pending accounts cannot log in yet
		_, err = svc.LoginUser(ctx, "ada@example.com", goodPassword)

		if !errors.Is(err, account.ErrAccountPendingValidation) {
			t.Fatalf("login before validation: %v", err)
		}

		if err := svc.ValidateEmail(ctx, m.sent[0].token); err != nil {
			t.Fatalf("ValidateEmail: %v", err)
		}

		tok, err := svc.LoginUser(ctx, "ada@example.com", goodPassword)

		if err != nil {
			t.Fatalf("login after validation: %v", err)
		}

		if tok == "" {
			t.Fatal("expected a session token")
		}
	})

	t.Run("forgot password, reset, old password dead", func(t *testing.T) {
		m := &fakeMailer{}
		svc, _ := memoryService(m)

		_, err := svc.CreateUser(ctx, "ada@example.com", goodPassword, "Ada")

		if err != nil {
			t.Fatalf("CreateUser: %v", err)
		}

		if err := svc.ValidateEmail(ctx, m.sent[0].token); err != nil {
			t.Fatalf("ValidateEmail: %v", err)
		}

		if err := svc.RequestPasswordReset(ctx, "ada@example.com"); err != nil {
			t.Fatalf("RequestPasswordReset: %v", err)
		}

		var resetToken string

		for _, s := range m.sent {
			if s.kind == "reset" {
				resetToken = s.token
			}
		}

		if resetToken == "" {
			t.Fatal("no reset email was sent")
		}

		newPassword := "An0ther!Pass"

		if err := svc.ResetPassword(ctx, resetToken, newPassword); err != nil {
			t.Fatalf("ResetPassword: %v", err)
		}

		_, err = svc.LoginUser(ctx, "ada@example.com", goodPassword)

		if !errors.Is(err, account.ErrInvalidCredentials) {
			t.Fatalf("old password after reset: %v", err)
		}

		if _, err := svc.LoginUser(ctx, "ada@example.com", newPassword); err != nil {
			t.Fatalf("new password after reset: %v", err)
		}
	})
}
