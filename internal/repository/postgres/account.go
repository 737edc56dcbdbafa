package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nxkoriyav/accountd/internal/apperrors"
	"github.com/nxkoriyav/accountd/internal/models"
)

type AccountRepo struct {
	DB DBTX
}

const createAccount = `-- name: CreateAccount
INSERT INTO accounts (id, user_id, account_number, status, balance, registered_at, unregistered_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, user_id, account_number, status, balance, registered_at, unregistered_at
`

func (r *AccountRepo) CreateAccount(ctx context.Context, account models.Account) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, createAccount,
		account.ID, account.UserID, account.Number, account.Status,
		account.Balance, account.RegisteredAt, account.UnregisteredAt,
	)
	created, err := pgx.CollectOneRow(rows, rowToAccount)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return created, fmt.Errorf("account number taken: %w", err)
		}

		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const getByAccountNumber = `-- name: GetByAccountNumber
SELECT id, user_id, account_number, status, balance, registered_at, unregistered_at
FROM accounts
WHERE account_number = $1
`

func (r *AccountRepo) GetByAccountNumber(ctx context.Context, number string) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, getByAccountNumber, number)
	account, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return account, nil
	case errors.Is(err, pgx.ErrNoRows):
		return account, apperrors.ErrAccountNotFound
	default:
		return account, fmt.Errorf("db error: %w", err)
	}
}

const saveAccount = `-- name: SaveAccount
UPDATE accounts
SET status = $2, balance = $3, unregistered_at = $4
WHERE id = $1
RETURNING id, user_id, account_number, status, balance, registered_at, unregistered_at
`

func (r *AccountRepo) Save(ctx context.Context, account models.Account) (models.Account, error) {
	rows, _ := r.DB.Query(ctx, saveAccount,
		account.ID, account.Status, account.Balance, account.UnregisteredAt,
	)
	saved, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return saved, nil
	case errors.Is(err, pgx.ErrNoRows):
		return saved, apperrors.ErrAccountNotFound
	default:
		return saved, fmt.Errorf("db error: %w", err)
	}
}

const countByUser = `-- name: CountByUser
SELECT count(*) FROM accounts
WHERE user_id = $1
`

func (r *AccountRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	rows, _ := r.DB.Query(ctx, countByUser, userID)
	count, err := pgx.CollectOneRow(rows, pgx.RowTo[int64])
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return count, nil
}

const listByUser = `-- name: ListByUser
SELECT id, user_id, account_number, status, balance, registered_at, unregistered_at
FROM accounts
WHERE user_id = $1
ORDER BY registered_at
`

func (r *AccountRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Account, error) {
	rows, _ := r.DB.Query(ctx, listByUser, userID)
	accounts, err := pgx.CollectRows(rows, rowToAccount)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return accounts, nil
}

const getMostRecentAccountNumber = `-- name: GetMostRecentAccountNumber
SELECT account_number FROM accounts
ORDER BY account_number DESC
LIMIT 1
`

func (r *AccountRepo) GetMostRecentAccountNumber(ctx context.Context) (string, error) {
	rows, _ := r.DB.Query(ctx, getMostRecentAccountNumber)
	number, err := pgx.CollectOneRow(rows, pgx.RowTo[string])

	switch {
	case err == nil:
		return number, nil
	case errors.Is(err, pgx.ErrNoRows):
		return "", nil
	default:
		return "", fmt.Errorf("db error: %w", err)
	}
}

func rowToAccount(row pgx.CollectableRow) (models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.UserID, &a.Number, &a.Status, &a.Balance, &a.RegisteredAt, &a.UnregisteredAt)
	return a, err
}
