package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/nxkoriyav/accountd/internal/apperrors"
	"github.com/nxkoriyav/accountd/internal/handlers/render"
	"github.com/nxkoriyav/accountd/internal/handlers/userctx"
	"github.com/nxkoriyav/accountd/internal/logger"
)

func handleCreateAccount(as accountService, l logger.Logger) http.Handler {
	type request struct {
		InitialBalance int64 `json:"initial_balance" validate:"gte=0"`
	}

	type response struct {
		AccountNumber string    `json:"account_number"`
		Balance       int64     `json:"balance"`
		RegisteredAt  time.Time `json:"registered_at"`
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

		account, err := as.CreateAccount(r.Context(), user.ID, data.InitialBalance)

		switch {
		case err == nil:
			render.JSONWithStatus(w, response{
				AccountNumber: account.Number,
				Balance:       account.Balance,
				RegisteredAt:  account.RegisteredAt,
			}, http.StatusCreated)
		case errors.Is(err, apperrors.ErrMaxAccountsPerUser):
			render.BusinessError(w, err, http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.BusinessError(w, err, http.StatusNotFound)
		default:
			l.Error("Failed to create account", "error", err)
			render.InternalError(w)
		}
	})
}

func handleDeleteAccount(as accountService, l logger.Logger) http.Handler {
	type request struct {
		AccountNumber string `json:"account_number" validate:"required,len=10,numeric"`
	}

	type response struct {
		AccountNumber  string     `json:"account_number"`
		UnregisteredAt *time.Time `json:"unregistered_at"`
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

		account, err := as.DeleteAccount(r.Context(), user.ID, data.AccountNumber)

		switch {
		case err == nil:
			render.JSON(w, response{
				AccountNumber:  account.Number,
				UnregisteredAt: account.UnregisteredAt,
			})
		case errors.Is(err, apperrors.ErrUserNotFound), errors.Is(err, apperrors.ErrAccountNotFound):
			render.BusinessError(w, err, http.StatusNotFound)
		case errors.Is(err, apperrors.ErrUserAccountMismatch),
			errors.Is(err, apperrors.ErrAccountAlreadyUnregistered),
			errors.Is(err, apperrors.ErrBalanceNotEmpty):
			render.BusinessError(w, err, http.StatusBadRequest)
		default:
			l.Error("Failed to delete account", "error", err)
			render.InternalError(w)
		}
	})
}

func handleListAccounts(as accountService, l logger.Logger) http.Handler {
	type accountInfo struct {
		AccountNumber string `json:"account_number"`
		Balance       int64  `json:"balance"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.InternalError(w)
			return
		}

		accounts, err := as.ListAccounts(r.Context(), user.ID)

		switch {
		case err == nil:
			infos := make([]accountInfo, 0, len(accounts))
			for _, a := range accounts {
				infos = append(infos, accountInfo{AccountNumber: a.Number, Balance: a.Balance})
			}
			render.JSON(w, infos)
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.BusinessError(w, err, http.StatusNotFound)
		default:
			l.Error("Failed to list accounts", "error", err)
			render.InternalError(w)
		}
	})
}
