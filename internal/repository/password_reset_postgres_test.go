package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/internal/repository/testutil"
)

func TestPasswordResetRepository_Create(t *testing.T) {
	t.Run("replaces pending resets", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewPasswordResetRepository(db)
		expires := time.Now().Add(time.Hour).UTC()
		reset := &domain.PasswordReset{UserID: "u1", TokenHash: "abc", ExpiresAt: expires}

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM password_resets WHERE user_id = \$1`).WithArgs("u1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO password_resets \(id, user_id, token_hash, expires_at, created_at\)`).
			WithArgs(sqlmock.AnyArg(), "u1", "abc", expires, testutil.AnyTime{}).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.Create(context.Background(), reset))
		assert.NotEmpty(t, reset.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert failure rolls back", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM password_resets`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`INSERT INTO password_resets`).WillReturnError(errors.New("duplicate"))
		mock.ExpectRollback()

		err := NewPasswordResetRepository(db).Create(context.Background(), &domain.PasswordReset{UserID: "u1"})
		assert.ErrorContains(t, err, "failed to create password reset")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPasswordResetRepository_GetByTokenHash(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewPasswordResetRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, user_id, token_hash, expires_at, created_at FROM password_resets WHERE token_hash = \$1`).
		WithArgs("abc").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token_hash", "expires_at", "created_at"}).
			AddRow("pr1", "u1", "abc", now.Add(time.Hour), now))

	reset, err := repo.GetByTokenHash(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "u1", reset.UserID)
	assert.False(t, reset.Expired(now))

	mock.ExpectQuery(`FROM password_resets WHERE token_hash = \$1`).WithArgs("nope").WillReturnError(sql.ErrNoRows)
	_, err = repo.GetByTokenHash(context.Background(), "nope")
	assert.True(t, domain.IsNotFound(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPasswordResetRepository_Deletes(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewPasswordResetRepository(db)
	now := time.Now().UTC()

	mock.ExpectExec(`DELETE FROM password_resets WHERE user_id = \$1`).WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.DeleteByUserID(context.Background(), "u1"))

	mock.ExpectExec(`DELETE FROM password_resets WHERE expires_at <= \$1`).WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 7))
	n, err := repo.DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	assert.NoError(t, mock.ExpectationsWereMet())
}
