package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	ErrAccountNotFound            = errors.New("account not found")
	ErrUserAccountMismatch        = errors.New("user and account owner do not match")
	ErrAccountAlreadyUnregistered = errors.New("account is already unregistered")
	ErrMaxAccountsPerUser         = errors.New("maximum number of accounts per user is 10")
	ErrBalanceNotEmpty            = errors.New("account balance is not empty")

	ErrAmountExceedsBalance       = errors.New("amount exceeds account balance")
	ErrTransactionNotFound        = errors.New("transaction not found")
	ErrTransactionAccountMismatch = errors.New("transaction and account do not match")
	ErrCancelMustBeFull           = errors.New("cancel amount must equal the original amount")
	ErrTooOldToCancel             = errors.New("transaction is too old to cancel")

	ErrLockUnavailable = errors.New("account lock unavailable")
	ErrInvalidRequest  = errors.New("invalid request")
)

// Code returns the stable machine-readable code for a business error.
// Unknown errors (db faults, lock backend faults and so on) are reported
// as INTERNAL_SERVER_ERROR so internals never leak to callers.
func Code(err error) string {
	code, _ := Describe(err)
	return code
}

// Describe returns the stable code and the caller-safe description for an
// error. The description is always the sentinel's own text, never the
// wrapped chain, so store and lock internals stay out of responses.
func Describe(err error) (code string, message string) {
	for _, known := range codes {
		if errors.Is(err, known.err) {
			return known.code, known.err.Error()
		}
	}
	return "INTERNAL_SERVER_ERROR", "internal server error"
}

var codes = []struct {
	err  error
	code string
}{
	{ErrUserAlreadyExists, "USER_ALREADY_EXISTS"},
	{ErrUserNotFound, "USER_NOT_FOUND"},
	{ErrAccountNotFound, "ACCOUNT_NOT_FOUND"},
	{ErrUserAccountMismatch, "USER_ACCOUNT_UNMATCH"},
	{ErrAccountAlreadyUnregistered, "ACCOUNT_ALREADY_UNREGISTERED"},
	{ErrMaxAccountsPerUser, "MAX_ACCOUNT_PER_USER_10"},
	{ErrBalanceNotEmpty, "BALANCE_NOT_EMPTY"},
	{ErrAmountExceedsBalance, "AMOUNT_EXCEED_BALANCE"},
	{ErrTransactionNotFound, "TRANSACTION_NOT_FOUND"},
	{ErrTransactionAccountMismatch, "TRANSACTION_ACCOUNT_UNMATCH"},
	{ErrCancelMustBeFull, "CANCEL_MUST_FULLY"},
	{ErrTooOldToCancel, "TOO_OLD_TO_CANCEL"},
	{ErrLockUnavailable, "ACCOUNT_TRANSACTION_LOCK"},
	{ErrInvalidRequest, "INVALID_REQUEST"},
}
