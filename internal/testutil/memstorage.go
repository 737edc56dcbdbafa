package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/nxkoriyav/accountd/internal/apperrors"
	"github.com/nxkoriyav/accountd/internal/models"
	"github.com/nxkoriyav/accountd/internal/repository"
)

// MemStorage is an in-memory repository.Storage for service tests.
// It keeps the repository error contracts (not-found sentinels, unique
// usernames and account numbers) but InTx carries no rollback: the
// callback runs directly against shared state.
type MemStorage struct {
	mu sync.Mutex

	users        map[uuid.UUID]models.User
	accounts     map[string]models.Account     // keyed by account number
	transactions map[string]models.Transaction // keyed by public transaction id
}

func NewMemStorage() *MemStorage {
	return &MemStorage{
		users:        make(map[uuid.UUID]models.User),
		accounts:     make(map[string]models.Account),
		transactions: make(map[string]models.Transaction),
	}
}

var _ repository.Storage = (*MemStorage)(nil)

func (s *MemStorage) User() repository.UserRepo               { return s }
func (s *MemStorage) Account() repository.AccountRepo         { return s }
func (s *MemStorage) Transaction() repository.TransactionRepo { return s }

func (s *MemStorage) InTx(ctx context.Context, fn func(repository.Storage) error) error {
	return fn(s)
}

func (s *MemStorage) CreateUser(ctx context.Context, username string, hashedPassword string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username {
			return models.User{}, apperrors.ErrUserAlreadyExists
		}
	}

	user := models.User{
		ID:             uuid.New(),
		Username:       username,
		HashedPassword: hashedPassword,
	}
	s.users[user.ID] = user
	return user, nil
}

func (s *MemStorage) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return models.User{}, apperrors.ErrUserNotFound
	}
	return user, nil
}

func (s *MemStorage) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, apperrors.ErrUserNotFound
}

func (s *MemStorage) CreateAccount(ctx context.Context, account models.Account) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.accounts[account.Number]; taken {
		return models.Account{}, apperrors.ErrInvalidRequest
	}

	s.accounts[account.Number] = account
	return account, nil
}

func (s *MemStorage) GetByAccountNumber(ctx context.Context, number string) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[number]
	if !ok {
		return models.Account{}, apperrors.ErrAccountNotFound
	}
	return account, nil
}

func (s *MemStorage) Save(ctx context.Context, account models.Account) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.Number]; !ok {
		return models.Account{}, apperrors.ErrAccountNotFound
	}

	s.accounts[account.Number] = account
	return account, nil
}

func (s *MemStorage) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, a := range s.accounts {
		if a.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (s *MemStorage) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts := make([]models.Account, 0)
	for _, a := range s.accounts {
		if a.UserID == userID {
			accounts = append(accounts, a)
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].RegisteredAt.Before(accounts[j].RegisteredAt)
	})
	return accounts, nil
}

func (s *MemStorage) GetMostRecentAccountNumber(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	most := ""
	for number := range s.accounts {
		if number > most {
			most = number
		}
	}
	return most, nil
}

func (s *MemStorage) CreateTransaction(ctx context.Context, tr models.Transaction) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.transactions[tr.TransactionID]; taken {
		return models.Transaction{}, apperrors.ErrInvalidRequest
	}

	s.transactions[tr.TransactionID] = tr
	return tr, nil
}

func (s *MemStorage) GetByTransactionID(ctx context.Context, transactionID string) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tr, ok := s.transactions[transactionID]
	if !ok {
		return models.Transaction{}, apperrors.ErrTransactionNotFound
	}
	return tr, nil
}

// SeedTransaction puts a ledger entry in place directly, bypassing the
// services. Handy for aging entries past the cancel window.
func (s *MemStorage) SeedTransaction(tr models.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[tr.TransactionID] = tr
}

// Transactions returns a copy of every ledger entry, oldest first.
func (s *MemStorage) Transactions() []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]models.Transaction, 0, len(s.transactions))
	for _, tr := range s.transactions {
		all = append(all, tr)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].TransactedAt.Before(all[j].TransactedAt)
	})
	return all
}
