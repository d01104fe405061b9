package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/virtuline/accounthub/internal/domain/account"
	"github.com/virtuline/accounthub/internal/observability"
)

const accountColumns = `id, full_name, email, password_hash, phone_number, status,
         registered_at, last_login_at,
         email_validation_token, email_validation_expires_at,
         password_reset_token, password_reset_expires_at`

type AccountsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewAccountsRepo(pool *pgxpool.Pool, prom *observability.Prom) *AccountsRepo {
	return &AccountsRepo{
		pool: pool,
		prom: prom,
	}
}

func (repo *AccountsRepo) observe(op string, fn func() error) error {
	if repo.prom != nil {

		return repo.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (repo *AccountsRepo) EmailExists(ctx context.Context, email string) (exists bool, err error) {
	err = repo.observe("accounts.email_exists", func() error {
		return repo.pool.QueryRow(
			ctx,
			`SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1)`,
			email,
		).Scan(&exists)
	})

	return
}

func (repo *AccountsRepo) PhoneNumberExists(ctx context.Context, phoneNumber string) (exists bool, err error) {
	err = repo.observe("accounts.phone_number_exists", func() error {
		return repo.pool.QueryRow(
			ctx,
			`SELECT EXISTS (SELECT 1 FROM accounts WHERE phone_number = $1)`,
			phoneNumber,
		).Scan(&exists)
	})

	return
}

func (repo *AccountsRepo) Save(ctx context.Context, acc account.Account) (account.Account, error) {
	var saved account.Account

	err := repo.observe("accounts.save", func() error {
		row := repo.pool.QueryRow(
			ctx,
			`INSERT INTO accounts (`+accountColumns+`)
             VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
             RETURNING `+accountColumns,
			acc.ID,
			acc.FullName,
			acc.Email,
			acc.PasswordHash,
			acc.PhoneNumber,
			acc.Status,
			acc.RegisteredAt,
			acc.LastLoginAt,
			acc.EmailValidationToken,
			acc.EmailValidationExpiresAt,
			acc.PasswordResetToken,
			acc.PasswordResetExpiresAt,
		)

		var scanErr error
		saved, scanErr = scanAccount(row)
		return scanErr
	})

	if err != nil {
		// the unique index on email is the real uniqueness guarantee; the
		// service's pre-check only makes the common case friendlier
		if IsUniqueViolation(err) {
			return account.Account{}, account.ErrEmailAlreadyUsed
		}

		return account.Account{}, err
	}

	return saved, nil
}

func (repo *AccountsRepo) FindByEmail(ctx context.Context, email string) (account.Account, error) {
	return repo.findOne(ctx, "accounts.find_by_email",
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
}

func (repo *AccountsRepo) FindByValidationToken(ctx context.Context, token string) (account.Account, error) {
	return repo.findOne(ctx, "accounts.find_by_validation_token",
		`SELECT `+accountColumns+` FROM accounts WHERE email_validation_token = $1`, token)
}

func (repo *AccountsRepo) FindByPasswordResetToken(ctx context.Context, token string) (account.Account, error) {
	return repo.findOne(ctx, "accounts.find_by_password_reset_token",
		`SELECT `+accountColumns+` FROM accounts WHERE password_reset_token = $1`, token)
}

func (repo *AccountsRepo) findOne(ctx context.Context, op, query string, arg any) (account.Account, error) {
	var found account.Account

	err := repo.observe(op, func() error {
		var scanErr error
		found, scanErr = scanAccount(repo.pool.QueryRow(ctx, query, arg))
		return scanErr
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return account.Account{}, account.ErrNotFound
		}

		return account.Account{}, err
	}

	return found, nil
}

func (repo *AccountsRepo) Update(ctx context.Context, acc account.Account) (account.Account, error) {
	var updated account.Account

	err := repo.observe("accounts.update", func() error {
		row := repo.pool.QueryRow(
			ctx,
			`UPDATE accounts SET
                full_name = $2,
                email = $3,
                password_hash = $4,
                phone_number = $5,
                status = $6,
                last_login_at = $7,
                email_validation_token = $8,
                email_validation_expires_at = $9,
                password_reset_token = $10,
                password_reset_expires_at = $11
             WHERE id = $1
             RETURNING `+accountColumns,
			acc.ID,
			acc.FullName,
			acc.Email,
			acc.PasswordHash,
			acc.PhoneNumber,
			acc.Status,
			acc.LastLoginAt,
			acc.EmailValidationToken,
			acc.EmailValidationExpiresAt,
			acc.PasswordResetToken,
			acc.PasswordResetExpiresAt,
		)

		var scanErr error
		updated, scanErr = scanAccount(row)
		return scanErr
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return account.Account{}, account.ErrNotFound
		}

		return account.Account{}, err
	}

	return updated, nil
}

func (repo *AccountsRepo) DeleteValidationToken(ctx context.Context, id string) error {
	return repo.observe("accounts.delete_validation_token", func() error {
		tag, err := repo.pool.Exec(
			ctx,
			`UPDATE accounts
             SET email_validation_token = NULL, email_validation_expires_at = NULL
             WHERE id = $1`,
			id,
		)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return account.ErrNotFound
		}

		return nil
	})
}

func scanAccount(row pgx.Row) (account.Account, error) {
	var a account.Account

	err := row.Scan(
		&a.ID,
		&a.FullName,
		&a.Email,
		&a.PasswordHash,
		&a.PhoneNumber,
		&a.Status,
		&a.RegisteredAt,
		&a.LastLoginAt,
		&a.EmailValidationToken,
		&a.EmailValidationExpiresAt,
		&a.PasswordResetToken,
		&a.PasswordResetExpiresAt,
	)

	if err != nil {
		return account.Account{}, err
	}

	return a, nil
}

// IsUniqueViolation reports whether err is a postgres 23505.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	return false
}
