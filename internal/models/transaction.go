package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	TransactionTypeUse    = "USE"
	TransactionTypeCancel = "CANCEL"

	TransactionResultSuccess = "SUCCESS"
	TransactionResultFail    = "FAIL"
)

// Transaction is one immutable ledger entry. Both successful mutations and
// rejected spend attempts are recorded; records are never updated or deleted.
type Transaction struct {
	ID              uuid.UUID
	TransactionID   string
	AccountID       uuid.UUID
	AccountNumber   string
	Type            string
	Result          string
	Amount          int64
	BalanceSnapshot int64
	TransactedAt    time.Time
}

// NewTransactionID returns an opaque id exposed to callers instead of the
// surface row id.
func NewTransactionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
