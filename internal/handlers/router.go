package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/nxkoriyav/accountd/internal/handlers/middleware"
	"github.com/nxkoriyav/accountd/internal/logger"
	"github.com/nxkoriyav/accountd/internal/models"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authSvc authService,
	accountSvc accountService,
	ledgerSvc ledgerService,
	l logger.Logger,
) http.Handler {
	authMiddleware := middleware.AuthMiddleware(authSvc)
	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(h)
	}

	mux := http.NewServeMux()

	mux.Handle("POST /auth/register", handleRegister(authSvc, l))
	mux.Handle("POST /auth/login", handleLogin(authSvc, l))

	mux.Handle("POST /account", withAuth(handleCreateAccount(accountSvc, l)))
	mux.Handle("DELETE /account", withAuth(handleDeleteAccount(accountSvc, l)))
	mux.Handle("GET /accounts", withAuth(handleListAccounts(accountSvc, l)))

	mux.Handle("POST /transaction/use", withAuth(handleUseBalance(ledgerSvc, l)))
	mux.Handle("POST /transaction/cancel", withAuth(handleCancelBalance(ledgerSvc, l)))
	mux.Handle("GET /transaction/{transactionId}", withAuth(handleQueryTransaction(ledgerSvc, l)))

	return chain(mux,
		middleware.LoggerMiddleware(l),
	)
}

type authService interface {
	// Register user; has to return apperrors.ErrUserAlreadyExists on duplicates
	Register(ctx context.Context, username string, password string) (models.User, string, error)

	// Login user; has to return apperrors.ErrUserNotFound on bad credentials
	Login(ctx context.Context, username string, password string) (models.User, string, error)

	// Authenticate request by its bearer token
	GetUserFromRequest(ctx context.Context, r *http.Request) (models.User, error)
}

type accountService interface {
	CreateAccount(ctx context.Context, userID uuid.UUID, initialBalance int64) (models.Account, error)
	DeleteAccount(ctx context.Context, userID uuid.UUID, accountNumber string) (models.Account, error)
	ListAccounts(ctx context.Context, userID uuid.UUID) ([]models.Account, error)
}

type ledgerService interface {
	UseBalance(ctx context.Context, userID uuid.UUID, accountNumber string, amount int64) (models.Transaction, error)
	CancelBalance(ctx context.Context, transactionID string, accountNumber string, amount int64) (models.Transaction, error)
	QueryTransaction(ctx context.Context, transactionID string) (models.Transaction, error)
}
