package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nxkoriyav/accountd/internal/apperrors"
)

const (
	AccountStatusInUse        = "IN_USE"
	AccountStatusUnregistered = "UNREGISTERED"
)

type Account struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Number         string
	Status         string
	Balance        int64
	RegisteredAt   time.Time
	UnregisteredAt *time.Time
}

// UseBalance subtracts amount from the account balance.
// Balance-changing logic lives on the entity so the invariant (balance never
// goes negative) can't be bypassed; persisting the result is the caller's job.
func (a *Account) UseBalance(amount int64) error {
	if amount > a.Balance {
		return apperrors.ErrAmountExceedsBalance
	}
	a.Balance -= amount
	return nil
}

// CancelBalance adds amount back to the account balance.
func (a *Account) CancelBalance(amount int64) error {
	if amount < 0 {
		return apperrors.ErrInvalidRequest
	}
	a.Balance += amount
	return nil
}
