package handlers

import (
	"errors"
	"net/http"

	"github.com/nxkoriyav/accountd/internal/apperrors"
	"github.com/nxkoriyav/accountd/internal/handlers/render"
	"github.com/nxkoriyav/accountd/internal/logger"
)

func handleRegister(as authService, l logger.Logger) http.Handler {
	type request struct {
		Username string `json:"username" validate:"required,min=2,max=50"`
		Password string `json:"password" validate:"required,min=8"`
	}

	type response struct {
		Username    string `json:"username"`
		AccessToken string `json:"access_token"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		user, access, err := as.Register(r.Context(), data.Username, data.Password)

		switch {
		case err == nil:
			render.JSONWithStatus(w, response{Username: user.Username, AccessToken: access}, http.StatusCreated)
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.BusinessError(w, err, http.StatusConflict)
		default:
			l.Error("Failed to register user", "error", err)
			render.InternalError(w)
		}
	})
}

func handleLogin(as authService, l logger.Logger) http.Handler {
	type request struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	type response struct {
		Username    string `json:"username"`
		AccessToken string `json:"access_token"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		user, access, err := as.Login(r.Context(), data.Username, data.Password)

		switch {
		case err == nil:
			render.JSON(w, response{Username: user.Username, AccessToken: access})
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.BusinessError(w, err, http.StatusUnauthorized)
		default:
			l.Error("Failed to login user", "error", err)
			render.InternalError(w)
		}
	})
}
