package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/nxkoriyav/accountd/internal/models"
)

// User repository interface
type UserRepo interface {
	// Create user
	// If user with username exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, username string, hashedPassword string) (models.User, error)

	// Get user by it's id or username
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
}

// Account repository interface
type AccountRepo interface {
	// Create account
	// Account numbers are unique: inserting a taken number must fail
	CreateAccount(ctx context.Context, account models.Account) (models.Account, error)

	// If account not found must return apperrors.ErrAccountNotFound
	GetByAccountNumber(ctx context.Context, number string) (models.Account, error)

	// Persist mutable account state (balance, status, unregistered_at)
	Save(ctx context.Context, account models.Account) (models.Account, error)

	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Account, error)

	// Most recently issued account number or empty string if none yet
	GetMostRecentAccountNumber(ctx context.Context) (string, error)
}

// Transaction repository interface
// The ledger is append-only, so there are no update or delete methods
type TransactionRepo interface {
	CreateTransaction(ctx context.Context, tr models.Transaction) (models.Transaction, error)

	// If transaction not found must return apperrors.ErrTransactionNotFound
	GetByTransactionID(ctx context.Context, transactionID string) (models.Transaction, error)
}

// Storage bundles the repositories over one connection or transaction
type Storage interface {
	User() UserRepo
	Account() AccountRepo
	Transaction() TransactionRepo

	// Run fn within a database transaction
	// The Storage passed to fn is bound to that transaction
	InTx(ctx context.Context, fn func(Storage) error) error
}
