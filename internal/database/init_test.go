package database

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/simulai/simulai/pkg/crypto"
)

func init() {
	crypto.PasswordCost = bcrypt.MinCost
}

func TestEnsureRootAdmin(t *testing.T) {
	t.Run("creates the admin when missing", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)")).
			WithArgs("root@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec("INSERT INTO users").
			WithArgs(sqlmock.AnyArg(), "Root", "Admin", "root@example.com", sqlmock.AnyArg(), "admin", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		generated, err := EnsureRootAdmin(context.Background(), db, " Root@Example.com ", "s3cret-password")
		require.NoError(t, err)
		assert.Empty(t, generated)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("generates a password when none is configured", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT EXISTS").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec("INSERT INTO users").
			WillReturnResult(sqlmock.NewResult(1, 1))

		generated, err := EnsureRootAdmin(context.Background(), db, "root@example.com", "")
		require.NoError(t, err)
		assert.NotEmpty(t, generated)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("skips an existing admin", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT EXISTS").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		generated, err := EnsureRootAdmin(context.Background(), db, "root@example.com", "")
		require.NoError(t, err)
		assert.Empty(t, generated)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns query errors", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT EXISTS").WillReturnError(errors.New("connection refused"))

		_, err = EnsureRootAdmin(context.Background(), db, "root@example.com", "pw")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to check root user existence")
	})
}

func TestCleanDatabase(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for i := len(TableNames) - 1; i >= 0; i-- {
		mock.ExpectExec(regexp.QuoteMeta("DROP TABLE IF EXISTS " + TableNames[i] + " CASCADE")).
			WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec("DROP TABLE IF EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, CleanDatabase(db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
