package memory

import (
	"context"
	"sync"

	"github.com/virtuline/accounthub/internal/domain/account"
)

// AccountsRepo is the in-memory store used by tests and DB-less dev runs.
type AccountsRepo struct {
	mu    sync.RWMutex
	items map[string]account.Account // keyed by account id
}

func NewAccountsRepo() *AccountsRepo {
	return &AccountsRepo{
		items: make(map[string]account.Account),
	}
}

// clone deep-copies the pointer fields so callers never share memory with
// the stored record.
func clone(a account.Account) account.Account {
	c := a
	c.PhoneNumber = copyStr(a.PhoneNumber)
	c.EmailValidationToken = copyStr(a.EmailValidationToken)
	c.PasswordResetToken = copyStr(a.PasswordResetToken)

	if a.LastLoginAt != nil {
		t := *a.LastLoginAt
		c.LastLoginAt = &t
	}
	if a.EmailValidationExpiresAt != nil {
		t := *a.EmailValidationExpiresAt
		c.EmailValidationExpiresAt = &t
	}
	if a.PasswordResetExpiresAt != nil {
		t := *a.PasswordResetExpiresAt
		c.PasswordResetExpiresAt = &t
	}
	return c
}

func copyStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func (r *AccountsRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.items {
		if a.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *AccountsRepo) PhoneNumberExists(ctx context.Context, phoneNumber string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.items {
		if a.PhoneNumber != nil && *a.PhoneNumber == phoneNumber {
			return true, nil
		}
	}
	return false, nil
}

func (r *AccountsRepo) Save(ctx context.Context, acc account.Account) (account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// uniqueness is enforced here, not by the caller's pre-check
	for _, existing := range r.items {
		if existing.Email == acc.Email {
			return account.Account{}, account.ErrEmailAlreadyUsed
		}
	}

	r.items[acc.ID] = clone(acc)
	return clone(acc), nil
}

func (r *AccountsRepo) FindByEmail(ctx context.Context, email string) (account.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.items {
		if a.Email == email {
			return clone(a), nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

func (r *AccountsRepo) FindByValidationToken(ctx context.Context, token string) (account.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.items {
		if a.EmailValidationToken != nil && *a.EmailValidationToken == token {
			return clone(a), nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

func (r *AccountsRepo) FindByPasswordResetToken(ctx context.Context, token string) (account.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.items {
		if a.PasswordResetToken != nil && *a.PasswordResetToken == token {
			return clone(a), nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

func (r *AccountsRepo) Update(ctx context.Context, acc account.Account) (account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.items[acc.ID]

	if !ok {
		return account.Account{}, account.ErrNotFound
	}

	r.items[acc.ID] = clone(acc)
	return clone(acc), nil
}

func (r *AccountsRepo) DeleteValidationToken(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.items[id]

	if !ok {
		return account.ErrNotFound
	}

	a.EmailValidationToken = nil
	a.EmailValidationExpiresAt = nil
	r.items[id] = a

	return nil
}
