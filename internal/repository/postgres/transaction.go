package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nxkoriyav/accountd/internal/apperrors"
	"github.com/nxkoriyav/accountd/internal/models"
)

// TransactionRepo appends to and reads the ledger. Inserts only: the schema
// has no update path for transactions and neither does this repo.
type TransactionRepo struct {
	DB DBTX
}

const createTransaction = `-- name: CreateTransaction
INSERT INTO transactions (id, transaction_id, account_id, account_number, type, result, amount, balance_snapshot, transacted_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, transaction_id, account_id, account_number, type, result, amount, balance_snapshot, transacted_at
`

func (r *TransactionRepo) CreateTransaction(ctx context.Context, tr models.Transaction) (models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, createTransaction,
		tr.ID, tr.TransactionID, tr.AccountID, tr.AccountNumber,
		tr.Type, tr.Result, tr.Amount, tr.BalanceSnapshot, tr.TransactedAt,
	)
	created, err := pgx.CollectOneRow(rows, rowToTransaction)
	if err != nil {
		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const getByTransactionID = `-- name: GetByTransactionID
SELECT id, transaction_id, account_id, account_number, type, result, amount, balance_snapshot, transacted_at
FROM transactions
WHERE transaction_id = $1
`

func (r *TransactionRepo) GetByTransactionID(ctx context.Context, transactionID string) (models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, getByTransactionID, transactionID)
	tr, err := pgx.CollectOneRow(rows, rowToTransaction)

	switch {
	case err == nil:
		return tr, nil
	case errors.Is(err, pgx.ErrNoRows):
		return tr, apperrors.ErrTransactionNotFound
	default:
		return tr, fmt.Errorf("db error: %w", err)
	}
}

func rowToTransaction(row pgx.CollectableRow) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.TransactionID, &t.AccountID, &t.AccountNumber, &t.Type, &t.Result, &t.Amount, &t.BalanceSnapshot, &t.TransactedAt)
	return t, err
}
