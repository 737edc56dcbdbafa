package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/nxkoriyav/accountd/internal/apperrors"
	"github.com/nxkoriyav/accountd/internal/handlers/render"
	"github.com/nxkoriyav/accountd/internal/handlers/userctx"
	"github.com/nxkoriyav/accountd/internal/logger"
	"github.com/nxkoriyav/accountd/internal/models"
)

// Transaction summary returned by use and cancel
type transactionResponse struct {
	AccountNumber     string    `json:"account_number"`
	TransactionResult string    `json:"transaction_result"`
	TransactionID     string    `json:"transaction_id"`
	Amount            int64     `json:"amount"`
	BalanceSnapshot   int64     `json:"balance_snapshot"`
	TransactedAt      time.Time `json:"transacted_at"`
}

func toTransactionResponse(tr models.Transaction) transactionResponse {
	return transactionResponse{
		AccountNumber:     tr.AccountNumber,
		TransactionResult: tr.Result,
		TransactionID:     tr.TransactionID,
		Amount:            tr.Amount,
		BalanceSnapshot:   tr.BalanceSnapshot,
		TransactedAt:      tr.TransactedAt,
	}
}

func handleUseBalance(ls ledgerService, l logger.Logger) http.Handler {
	type request struct {
		AccountNumber string `json:"account_number" validate:"required,len=10,numeric"`
		Amount        int64  `json:"amount" validate:"required,gte=1,lte=1000000000"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.InternalError(w)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		tr, err := ls.UseBalance(r.Context(), user.ID, data.AccountNumber, data.Amount)

		switch {
		case err == nil:
			render.JSON(w, toTransactionResponse(tr))
		case errors.Is(err, apperrors.ErrUserNotFound), errors.Is(err, apperrors.ErrAccountNotFound):
			render.BusinessError(w, err, http.StatusNotFound)
		case errors.Is(err, apperrors.ErrAmountExceedsBalance):
			render.BusinessError(w, err, http.StatusPaymentRequired)
		case errors.Is(err, apperrors.ErrUserAccountMismatch),
			errors.Is(err, apperrors.ErrAccountAlreadyUnregistered):
			render.BusinessError(w, err, http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrLockUnavailable):
			render.BusinessError(w, err, http.StatusConflict)
		default:
			l.Error("Failed to use balance", "error", err)
			render.InternalError(w)
		}
	})
}

func handleCancelBalance(ls ledgerService, l logger.Logger) http.Handler {
	type request struct {
		TransactionID string `json:"transaction_id" validate:"required"`
		AccountNumber string `json:"account_number" validate:"required,len=10,numeric"`
		Amount        int64  `json:"amount" validate:"required,gte=1,lte=1000000000"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		tr, err := ls.CancelBalance(r.Context(), data.TransactionID, data.AccountNumber, data.Amount)

		switch {
		case err == nil:
			render.JSON(w, toTransactionResponse(tr))
		case errors.Is(err, apperrors.ErrTransactionNotFound), errors.Is(err, apperrors.ErrAccountNotFound):
			render.BusinessError(w, err, http.StatusNotFound)
		case errors.Is(err, apperrors.ErrTransactionAccountMismatch),
			errors.Is(err, apperrors.ErrCancelMustBeFull),
			errors.Is(err, apperrors.ErrTooOldToCancel),
			errors.Is(err, apperrors.ErrInvalidRequest):
			render.BusinessError(w, err, http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrLockUnavailable):
			render.BusinessError(w, err, http.StatusConflict)
		default:
			l.Error("Failed to cancel balance", "error", err)
			render.InternalError(w)
		}
	})
}

func handleQueryTransaction(ls ledgerService, l logger.Logger) http.Handler {
	type response struct {
		AccountNumber     string    `json:"account_number"`
		TransactionType   string    `json:"transaction_type"`
		TransactionResult string    `json:"transaction_result"`
		TransactionID     string    `json:"transaction_id"`
		Amount            int64     `json:"amount"`
		TransactedAt      time.Time `json:"transacted_at"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tr, err := ls.QueryTransaction(r.Context(), r.PathValue("transactionId"))

		switch {
		case err == nil:
			render.JSON(w, response{
				AccountNumber:     tr.AccountNumber,
				TransactionType:   tr.Type,
				TransactionResult: tr.Result,
				TransactionID:     tr.TransactionID,
				Amount:            tr.Amount,
				TransactedAt:      tr.TransactedAt,
			})
		case errors.Is(err, apperrors.ErrTransactionNotFound):
			render.BusinessError(w, err, http.StatusNotFound)
		default:
			l.Error("Failed to query transaction", "error", err)
			render.InternalError(w)
		}
	})
}
