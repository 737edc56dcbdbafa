package account

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/nxkoriyav/accountd/internal/apperrors"
	"github.com/nxkoriyav/accountd/internal/models"
	"github.com/nxkoriyav/accountd/internal/repository"
)

const (
	maxAccountsPerUser = 10

	// First account number ever issued; later ones are most-recent plus one
	initialAccountNumber = "1000000000"
)

// AccountService owns the account lifecycle: open, soft-close, list.
// Balances are mutated by the ledger service only, never here.
type AccountService struct {
	storage repository.Storage

	now func() time.Time
}

func NewService(storage repository.Storage) *AccountService {
	return &AccountService{
		storage: storage,
		now:     time.Now,
	}
}

// CreateAccount opens an account for the user with the given starting balance.
func (s *AccountService) CreateAccount(ctx context.Context, userID uuid.UUID, initialBalance int64) (models.Account, error) {
	var account models.Account

	err := s.storage.InTx(ctx, func(store repository.Storage) error {
		user, err := store.User().GetUserByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("create account: %w", err)
		}

		count, err := store.Account().CountByUser(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("create account: %w", err)
		}
		if count >= maxAccountsPerUser {
			return apperrors.ErrMaxAccountsPerUser
		}

		number, err := s.nextAccountNumber(ctx, store)
		if err != nil {
			return fmt.Errorf("create account: %w", err)
		}

		account, err = store.Account().CreateAccount(ctx, models.Account{
			ID:           uuid.New(),
			UserID:       user.ID,
			Number:       number,
			Status:       models.AccountStatusInUse,
			Balance:      initialBalance,
			RegisteredAt: s.now(),
		})
		if err != nil {
			return fmt.Errorf("create account: %w", err)
		}

		return nil
	})

	return account, err
}

func (s *AccountService) nextAccountNumber(ctx context.Context, store repository.Storage) (string, error) {
	last, err := store.Account().GetMostRecentAccountNumber(ctx)
	if err != nil {
		return "", err
	}
	if last == "" {
		return initialAccountNumber, nil
	}

	n, err := strconv.ParseInt(last, 10, 64)
	if err != nil {
		return "", fmt.Errorf("malformed account number %q: %w", last, err)
	}

	return strconv.FormatInt(n+1, 10), nil
}

// DeleteAccount soft-closes the account: the row stays for the ledger's sake,
// only the status flips to UNREGISTERED. Requires a zero balance.
func (s *AccountService) DeleteAccount(ctx context.Context, userID uuid.UUID, accountNumber string) (models.Account, error) {
	var account models.Account

	err := s.storage.InTx(ctx, func(store repository.Storage) error {
		user, err := store.User().GetUserByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("delete account: %w", err)
		}

		account, err = store.Account().GetByAccountNumber(ctx, accountNumber)
		if err != nil {
			return fmt.Errorf("delete account: %w", err)
		}

		if account.UserID != user.ID {
			return apperrors.ErrUserAccountMismatch
		}
		if account.Status == models.AccountStatusUnregistered {
			return apperrors.ErrAccountAlreadyUnregistered
		}
		if account.Balance > 0 {
			return apperrors.ErrBalanceNotEmpty
		}

		now := s.now()
		account.Status = models.AccountStatusUnregistered
		account.UnregisteredAt = &now

		account, err = store.Account().Save(ctx, account)
		if err != nil {
			return fmt.Errorf("delete account: %w", err)
		}

		return nil
	})

	return account, err
}

// ListAccounts returns the user's accounts, oldest first.
func (s *AccountService) ListAccounts(ctx context.Context, userID uuid.UUID) ([]models.Account, error) {
	user, err := s.storage.User().GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	accounts, err := s.storage.Account().ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	return accounts, nil
}
