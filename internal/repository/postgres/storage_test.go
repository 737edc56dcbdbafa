package postgres

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nxkoriyav/accountd/internal/apperrors"
	"github.com/nxkoriyav/accountd/internal/repository"
	"github.com/nxkoriyav/accountd/internal/testutil"
)

func TestStorageInTx(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	storage := NewStorage(pg.Pool)

	t.Run("commits on success", func(t *testing.T) {
		err := storage.InTx(t.Context(), func(store repository.Storage) error {
			_, err := store.User().CreateUser(t.Context(), "committed-user", "hashedpassword")
			return err
		})
		require.NoError(t, err)

		_, err = storage.User().GetUserByUsername(t.Context(), "committed-user")
		require.NoError(t, err, "changes from a successful fn must be visible after InTx")
	})

	t.Run("rolls back on error", func(t *testing.T) {
		wantErr := errors.New("boom")

		err := storage.InTx(t.Context(), func(store repository.Storage) error {
			_, err := store.User().CreateUser(t.Context(), "rolled-back-user", "hashedpassword")
			require.NoError(t, err)

			return wantErr
		})
		require.ErrorIs(t, err, wantErr, "fn error must come back to the caller")

		_, err = storage.User().GetUserByUsername(t.Context(), "rolled-back-user")
		require.ErrorIs(t, err, apperrors.ErrUserNotFound, "changes from a failed fn must be gone")
	})
}
