package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nxkoriyav/accountd/internal/apperrors"
	"github.com/nxkoriyav/accountd/internal/lock"
	"github.com/nxkoriyav/accountd/internal/logger"
	"github.com/nxkoriyav/accountd/internal/models"
	"github.com/nxkoriyav/accountd/internal/repository"
)

// A use transaction may be cancelled for one year after it happened
const cancelWindow = 365 * 24 * time.Hour

// LedgerService mutates account balances and records every attempt in the
// transaction ledger. All balance mutations for one account number run
// strictly one at a time: the critical section (load, validate, mutate,
// persist, record) executes under the account lock, and the balance update
// plus the ledger insert commit in a single database transaction.
type LedgerService struct {
	storage repository.Storage
	locks   *lock.Coordinator
	logger  logger.Logger

	// Overridable in tests
	now func() time.Time
}

func NewService(storage repository.Storage, locks *lock.Coordinator, l logger.Logger) *LedgerService {
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &LedgerService{
		storage: storage,
		locks:   locks,
		logger:  l,
		now:     time.Now,
	}
}

// UseBalance withdraws amount from the user's account and records a
// SUCCESS/USE ledger entry with the balance after the withdrawal.
//
// When the amount exceeds the balance the spend attempt is still audited:
// a FAIL/USE entry with the untouched balance snapshot is written after the
// account lock is released, and apperrors.ErrAmountExceedsBalance is
// returned. Earlier validation failures (unknown user or account, wrong
// owner, closed account) leave no ledger trace since there is no valid
// account context to record against.
func (s *LedgerService) UseBalance(ctx context.Context, userID uuid.UUID, accountNumber string, amount int64) (models.Transaction, error) {
	var tr models.Transaction

	err := s.locks.WithAccountLock(ctx, accountNumber, func(ctx context.Context) error {
		return s.storage.InTx(ctx, func(store repository.Storage) error {
			user, err := store.User().GetUserByID(ctx, userID)
			if err != nil {
				return fmt.Errorf("use balance: %w", err)
			}

			account, err := store.Account().GetByAccountNumber(ctx, accountNumber)
			if err != nil {
				return fmt.Errorf("use balance: %w", err)
			}

			if account.UserID != user.ID {
				return apperrors.ErrUserAccountMismatch
			}
			if account.Status != models.AccountStatusInUse {
				return apperrors.ErrAccountAlreadyUnregistered
			}

			if err := account.UseBalance(amount); err != nil {
				return err
			}

			account, err = store.Account().Save(ctx, account)
			if err != nil {
				return fmt.Errorf("use balance: %w", err)
			}

			tr, err = store.Transaction().CreateTransaction(ctx, models.Transaction{
				ID:              uuid.New(),
				TransactionID:   models.NewTransactionID(),
				AccountID:       account.ID,
				AccountNumber:   account.Number,
				Type:            models.TransactionTypeUse,
				Result:          models.TransactionResultSuccess,
				Amount:          amount,
				BalanceSnapshot: account.Balance,
				TransactedAt:    s.now(),
			})
			if err != nil {
				return fmt.Errorf("use balance: %w", err)
			}

			return nil
		})
	})

	if errors.Is(err, apperrors.ErrAmountExceedsBalance) {
		s.saveFailedUseTransaction(ctx, accountNumber, amount)
	}

	return tr, err
}

// saveFailedUseTransaction audits a rejected spend attempt. It runs outside
// the account lock: the snapshot is the balance the rejection was decided on
// and a FAIL entry mutates nothing, so there is nothing to serialize.
func (s *LedgerService) saveFailedUseTransaction(ctx context.Context, accountNumber string, amount int64) {
	account, err := s.storage.Account().GetByAccountNumber(ctx, accountNumber)
	if err != nil {
		s.logger.Error("failed use transaction not recorded", "account", accountNumber, "error", err)
		return
	}

	_, err = s.storage.Transaction().CreateTransaction(ctx, models.Transaction{
		ID:              uuid.New(),
		TransactionID:   models.NewTransactionID(),
		AccountID:       account.ID,
		AccountNumber:   account.Number,
		Type:            models.TransactionTypeUse,
		Result:          models.TransactionResultFail,
		Amount:          amount,
		BalanceSnapshot: account.Balance,
		TransactedAt:    s.now(),
	})
	if err != nil {
		s.logger.Error("failed use transaction not recorded", "account", accountNumber, "error", err)
	}
}

// CancelBalance reverses a use transaction in full and records a
// SUCCESS/CANCEL ledger entry. Partial reversal is unsupported: the amount
// must equal the original transaction's amount exactly.
func (s *LedgerService) CancelBalance(ctx context.Context, transactionID string, accountNumber string, amount int64) (models.Transaction, error) {
	var tr models.Transaction

	err := s.locks.WithAccountLock(ctx, accountNumber, func(ctx context.Context) error {
		return s.storage.InTx(ctx, func(store repository.Storage) error {
			original, err := store.Transaction().GetByTransactionID(ctx, transactionID)
			if err != nil {
				return fmt.Errorf("cancel balance: %w", err)
			}

			account, err := store.Account().GetByAccountNumber(ctx, accountNumber)
			if err != nil {
				return fmt.Errorf("cancel balance: %w", err)
			}

			if original.AccountID != account.ID {
				return apperrors.ErrTransactionAccountMismatch
			}
			if original.Amount != amount {
				return apperrors.ErrCancelMustBeFull
			}
			if original.TransactedAt.Before(s.now().Add(-cancelWindow)) {
				return apperrors.ErrTooOldToCancel
			}

			if err := account.CancelBalance(amount); err != nil {
				return err
			}

			account, err = store.Account().Save(ctx, account)
			if err != nil {
				return fmt.Errorf("cancel balance: %w", err)
			}

			tr, err = store.Transaction().CreateTransaction(ctx, models.Transaction{
				ID:              uuid.New(),
				TransactionID:   models.NewTransactionID(),
				AccountID:       account.ID,
				AccountNumber:   account.Number,
				Type:            models.TransactionTypeCancel,
				Result:          models.TransactionResultSuccess,
				Amount:          amount,
				BalanceSnapshot: account.Balance,
				TransactedAt:    s.now(),
			})
			if err != nil {
				return fmt.Errorf("cancel balance: %w", err)
			}

			return nil
		})
	})

	return tr, err
}

// QueryTransaction returns the ledger entry by its public transaction id.
// Read-only, so no account lock is taken.
func (s *LedgerService) QueryTransaction(ctx context.Context, transactionID string) (models.Transaction, error) {
	tr, err := s.storage.Transaction().GetByTransactionID(ctx, transactionID)
	if err != nil {
		return tr, fmt.Errorf("query transaction: %w", err)
	}

	return tr, nil
}
