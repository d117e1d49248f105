package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/internal/repository/testutil"
)

var userRowColumns = []string{"id", "name", "lastname", "email", "password_hash", "role", "company_id", "department_ids", "created_at", "updated_at"}

func TestUserRepository_CreateUser(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewUserRepository(db)

	t.Run("success", func(t *testing.T) {
		user := &domain.User{
			ID:            "0b6a3c1e-0000-4000-8000-000000000001",
			Name:          "Ada",
			Lastname:      "Lovelace",
			Email:         "ada@example.com",
			PasswordHash:  "hash",
			CompanyID:     "c1",
			DepartmentIDs: []string{"d1"},
		}

		mock.ExpectExec(`INSERT INTO users \(id, name, lastname, email, password_hash, role, company_id, department_ids, created_at, updated_at\)`).
			WithArgs(user.ID, "Ada", "Lovelace", "ada@example.com", "hash", "user",
				sqlmock.AnyArg(), sqlmock.AnyArg(), testutil.AnyTime{}, testutil.AnyTime{}).
			WillReturnResult(sqlmock.NewResult(1, 1))

		require.NoError(t, repo.CreateUser(context.Background(), user))
		assert.Equal(t, domain.RoleUser, user.Role)
		assert.False(t, user.CreatedAt.IsZero())
	})

	t.Run("duplicate email", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO users").
			WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

		err := repo.CreateUser(context.Background(), &domain.User{Email: "ada@example.com"})
		assert.ErrorIs(t, err, domain.ErrUserExists)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO users").WillReturnError(errors.New("database error"))

		err := repo.CreateUser(context.Background(), &domain.User{Email: "x@example.com"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create user")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetUserByID(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewUserRepository(db)
	now := time.Now().UTC().Truncate(time.Second)

	mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("u1", "Ada", "Lovelace", "ada@example.com", "hash", "company", "c1", "{d1,d2}", now, now))

	user, err := repo.GetUserByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)
	assert.Equal(t, domain.RoleCompany, user.Role)
	assert.Equal(t, "c1", user.CompanyID)
	assert.Equal(t, []string{"d1", "d2"}, user.DepartmentIDs)

	mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.GetUserByID(context.Background(), "missing")
	assert.True(t, domain.IsNotFound(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetUserByEmail(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewUserRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .* FROM users WHERE email = \$1`).
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("u1", "Ada", "", "ada@example.com", "hash", "admin", nil, "{}", now, now))

	user, err := repo.GetUserByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Empty(t, user.CompanyID)
	assert.Equal(t, []string{}, user.DepartmentIDs)

	mock.ExpectQuery(`SELECT .* FROM users WHERE email = \$1`).
		WillReturnError(sql.ErrNoRows)

	_, err = repo.GetUserByEmail(context.Background(), "nobody@example.com")
	assert.True(t, domain.IsNotFound(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_ListUsers(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewUserRepository(db)
	now := time.Now().UTC()

	t.Run("with filters", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM users WHERE company_id = \$1 AND role = \$2 AND \(name ILIKE \$3 OR lastname ILIKE \$4 OR email ILIKE \$5\) ORDER BY created_at DESC`).
			WithArgs("c1", "user", "%ada%", "%ada%", "%ada%").
			WillReturnRows(sqlmock.NewRows(userRowColumns).
				AddRow("u1", "Ada", "", "ada@example.com", "hash", "user", "c1", "{}", now, now).
				AddRow("u2", "Adam", "", "adam@example.com", "hash", "user", "c1", "{}", now, now))

		users, err := repo.ListUsers(context.Background(), domain.UserFilter{CompanyID: "c1", Role: domain.RoleUser, Search: "ada"})
		require.NoError(t, err)
		assert.Len(t, users, 2)
	})

	t.Run("by department", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM users WHERE \$1 = ANY\(department_ids\)`).
			WithArgs("d1").
			WillReturnRows(sqlmock.NewRows(userRowColumns))

		users, err := repo.ListUsers(context.Background(), domain.UserFilter{DepartmentID: "d1"})
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("empty id set skips the query", func(t *testing.T) {
		users, err := repo.ListUsers(context.Background(), domain.UserFilter{IDs: []string{}})
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("query error", func(t *testing.T) {
		mock.ExpectQuery("SELECT .* FROM users").WillReturnError(errors.New("boom"))

		_, err := repo.ListUsers(context.Background(), domain.UserFilter{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to list users")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdateUser(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewUserRepository(db)
	user := &domain.User{ID: "u1", Name: "Ada", Email: "ada@example.com", Role: domain.RoleUser}

	mock.ExpectExec(`UPDATE users SET name = \$1, lastname = \$2, email = \$3, role = \$4, company_id = \$5, department_ids = \$6, updated_at = \$7 WHERE id = \$8`).
		WithArgs("Ada", "", "ada@example.com", "user", sqlmock.AnyArg(), sqlmock.AnyArg(), testutil.AnyTime{}, "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateUser(context.Background(), user))

	mock.ExpectExec("UPDATE users").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.True(t, domain.IsNotFound(repo.UpdateUser(context.Background(), user)))

	mock.ExpectExec("UPDATE users").WillReturnError(&pq.Error{Code: "23505"})
	assert.ErrorIs(t, repo.UpdateUser(context.Background(), user), domain.ErrUserExists)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewUserRepository(db)

	mock.ExpectExec(`UPDATE users SET password_hash = \$1, updated_at = \$2 WHERE id = \$3`).
		WithArgs("new-hash", testutil.AnyTime{}, "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdatePassword(context.Background(), "u1", "new-hash"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Delete(t *testing.T) {
	t.Run("removes dependent rows in one transaction", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewUserRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).WithArgs("u1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`DELETE FROM password_resets WHERE user_id = \$1`).WithArgs("u1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`DELETE FROM conversations WHERE user_id = \$1`).WithArgs("u1").
			WillReturnResult(sqlmock.NewResult(0, 4))
		mock.ExpectExec(`UPDATE scenarios SET user_id_assigned = NULL`).WithArgs(testutil.AnyTime{}, "u1").
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(`UPDATE reports SET user_id = NULL WHERE user_id = \$1`).WithArgs("u1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.Delete(context.Background(), "u1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when the user does not exist", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewUserRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).WithArgs("u2").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		assert.True(t, domain.IsNotFound(repo.Delete(context.Background(), "u2")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on a failing step", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewUserRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM users`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`DELETE FROM password_resets`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`DELETE FROM conversations`).WillReturnError(errors.New("deadlock"))
		mock.ExpectRollback()

		err := repo.Delete(context.Background(), "u1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to delete conversations")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
