package middleware

import (
	"context"
	"net/http"

	"github.com/nxkoriyav/accountd/internal/apperrors"
	"github.com/nxkoriyav/accountd/internal/handlers/render"
	"github.com/nxkoriyav/accountd/internal/handlers/userctx"
	"github.com/nxkoriyav/accountd/internal/models"
)

type authService interface {
	GetUserFromRequest(ctx context.Context, r *http.Request) (models.User, error)
}

func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := as.GetUserFromRequest(r.Context(), r)
			if err != nil {
				render.BusinessError(w, apperrors.ErrUserNotFound, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(userctx.New(r.Context(), user)))
		})
	}
}
