package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nxkoriyav/accountd/internal/apperrors"
	"github.com/nxkoriyav/accountd/internal/testutil"
)

func newAuthService(t *testing.T) (*AuthService, *testutil.MemStorage) {
	t.Helper()

	tokens, err := NewTokenManager(TokenConfig{SecretKey: "test-secret"})
	require.NoError(t, err)

	storage := testutil.NewMemStorage()
	return NewService(nil, tokens, storage.User()), storage
}

func TestRegister(t *testing.T) {
	t.Run("creates user and issues token", func(t *testing.T) {
		svc, storage := newAuthService(t)

		user, access, err := svc.Register(t.Context(), "testuser", "password123")

		require.NoError(t, err)
		require.Equal(t, "testuser", user.Username)
		require.NotEqual(t, "password123", user.HashedPassword, "password must be stored hashed")
		require.NotEmpty(t, access)

		got, err := svc.tokens.Parse(access)
		require.NoError(t, err)
		require.Equal(t, user.ID, got, "token must carry the new user's id")

		stored, err := storage.GetUserByUsername(t.Context(), "testuser")
		require.NoError(t, err)
		require.Equal(t, user.ID, stored.ID)
	})

	t.Run("duplicate username", func(t *testing.T) {
		svc, _ := newAuthService(t)

		_, _, err := svc.Register(t.Context(), "testuser", "password123")
		require.NoError(t, err)

		_, _, err = svc.Register(t.Context(), "testuser", "otherpassword")

		require.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
	})
}

func TestLogin(t *testing.T) {
	t.Run("valid credentials", func(t *testing.T) {
		svc, _ := newAuthService(t)

		registered, _, err := svc.Register(t.Context(), "testuser", "password123")
		require.NoError(t, err)

		user, access, err := svc.Login(t.Context(), "testuser", "password123")

		require.NoError(t, err)
		require.Equal(t, registered.ID, user.ID)
		require.NotEmpty(t, access)
	})

	t.Run("wrong password looks like unknown user", func(t *testing.T) {
		svc, _ := newAuthService(t)

		_, _, err := svc.Register(t.Context(), "testuser", "password123")
		require.NoError(t, err)

		_, _, err = svc.Login(t.Context(), "testuser", "wrongpassword")

		require.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})

	t.Run("unknown username", func(t *testing.T) {
		svc, _ := newAuthService(t)

		_, _, err := svc.Login(t.Context(), "nobody", "password123")

		require.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})
}

func TestGetUserFromRequest(t *testing.T) {
	t.Run("valid bearer token", func(t *testing.T) {
		svc, _ := newAuthService(t)

		registered, access, err := svc.Register(t.Context(), "testuser", "password123")
		require.NoError(t, err)

		r := httptest.NewRequest("GET", "/accounts", nil)
		r.Header.Set("Authorization", "Bearer "+access)

		user, err := svc.GetUserFromRequest(t.Context(), r)

		require.NoError(t, err)
		require.Equal(t, registered.ID, user.ID)
	})

	t.Run("missing header", func(t *testing.T) {
		svc, _ := newAuthService(t)

		r := httptest.NewRequest("GET", "/accounts", nil)

		_, err := svc.GetUserFromRequest(t.Context(), r)

		require.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		svc, _ := newAuthService(t)

		r := httptest.NewRequest("GET", "/accounts", nil)
		r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

		_, err := svc.GetUserFromRequest(t.Context(), r)

		require.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})

	t.Run("garbage token", func(t *testing.T) {
		svc, _ := newAuthService(t)

		r := httptest.NewRequest("GET", "/accounts", nil)
		r.Header.Set("Authorization", "Bearer not-a-jwt")

		_, err := svc.GetUserFromRequest(t.Context(), r)

		require.Error(t, err)
	})
}
