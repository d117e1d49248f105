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

func TestCompanyRepository_CRUD(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewCompanyRepository(db)
	now := time.Now().UTC()
	columns := []string{"id", "name", "logo_url", "created_by", "created_at", "updated_at"}

	mock.ExpectQuery(`SELECT id, name, logo_url, created_by, created_at, updated_at FROM companies ORDER BY name`).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("c1", "Acme", "https://cdn/logo.png", "u1", now, now).
			AddRow("c2", "Globex", nil, nil, now, now))

	companies, err := repo.ListCompanies(context.Background())
	require.NoError(t, err)
	require.Len(t, companies, 2)
	assert.Equal(t, "https://cdn/logo.png", companies[0].LogoURL)
	assert.Empty(t, companies[1].CreatedBy)

	mock.ExpectQuery(`FROM companies WHERE id = \$1`).WithArgs("missing").WillReturnError(sql.ErrNoRows)
	_, err = repo.GetCompany(context.Background(), "missing")
	assert.True(t, domain.IsNotFound(err))

	company := &domain.Company{Name: "Initech", CreatedBy: "u1"}
	mock.ExpectExec(`INSERT INTO companies`).
		WithArgs(sqlmock.AnyArg(), "Initech", "", sqlmock.AnyArg(), testutil.AnyTime{}, testutil.AnyTime{}).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.CreateCompany(context.Background(), company))
	assert.NotEmpty(t, company.ID)

	mock.ExpectExec(`UPDATE companies SET name = \$1, logo_url = \$2, updated_at = \$3 WHERE id = \$4`).
		WithArgs("Initech Ltd", "", testutil.AnyTime{}, company.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	company.Name = "Initech Ltd"
	require.NoError(t, repo.UpdateCompany(context.Background(), company))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompanyRepository_DeleteCompany(t *testing.T) {
	t.Run("cascades in one transaction", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewCompanyRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM companies WHERE id = \$1`).WithArgs("c1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT id FROM departments WHERE company_id = \$1`).WithArgs("c1").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("d1").AddRow("d2"))
		mock.ExpectExec(`UPDATE users SET department_ids = array_remove\(department_ids, \$1\)`).
			WithArgs("d1", testutil.AnyTime{}).WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectExec(`UPDATE users SET department_ids = array_remove\(department_ids, \$1\)`).
			WithArgs("d2", testutil.AnyTime{}).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`DELETE FROM departments WHERE company_id = \$1`).WithArgs("c1").
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(`UPDATE users SET company_id = NULL`).WithArgs(testutil.AnyTime{}, "c1").
			WillReturnResult(sqlmock.NewResult(0, 5))
		mock.ExpectCommit()

		require.NoError(t, repo.DeleteCompany(context.Background(), "c1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when the company does not exist", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewCompanyRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM companies`).WithArgs("missing").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.DeleteCompany(context.Background(), "missing")
		assert.True(t, domain.IsNotFound(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on a failing step", func(t *testing.T) {
		db, mock, cleanup := testutil.SetupMockDB(t)
		defer cleanup()

		repo := NewCompanyRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM companies`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT id FROM departments`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectExec(`DELETE FROM departments`).WillReturnError(errors.New("deadlock"))
		mock.ExpectRollback()

		err := repo.DeleteCompany(context.Background(), "c1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to delete departments")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCompanyRepository_Departments(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewCompanyRepository(db)
	now := time.Now().UTC()
	columns := []string{"id", "name", "company_id", "created_at", "updated_at"}

	mock.ExpectQuery(`FROM departments WHERE company_id = \$1 ORDER BY name`).WithArgs("c1").
		WillReturnRows(sqlmock.NewRows(columns).AddRow("d1", "Sales", "c1", now, now))
	departments, err := repo.ListDepartments(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, departments, 1)
	assert.Equal(t, "Sales", departments[0].Name)

	mock.ExpectQuery(`FROM departments WHERE id = \$1`).WithArgs("d1").
		WillReturnRows(sqlmock.NewRows(columns).AddRow("d1", "Sales", "c1", now, now))
	department, err := repo.GetDepartment(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "c1", department.CompanyID)

	mock.ExpectExec(`INSERT INTO departments`).
		WithArgs(sqlmock.AnyArg(), "Support", "c1", testutil.AnyTime{}, testutil.AnyTime{}).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.CreateDepartment(context.Background(), &domain.Department{Name: "Support", CompanyID: "c1"}))

	mock.ExpectExec(`UPDATE departments SET name = \$1`).WithArgs("Field sales", testutil.AnyTime{}, "d1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateDepartment(context.Background(), &domain.Department{ID: "d1", Name: "Field sales"}))

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM departments WHERE id = \$1`).WithArgs("d1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`array_remove`).WithArgs("d1", testutil.AnyTime{}).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()
	require.NoError(t, repo.DeleteDepartment(context.Background(), "d1"))

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM departments WHERE id = \$1`).WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()
	assert.True(t, domain.IsNotFound(repo.DeleteDepartment(context.Background(), "gone")))

	assert.NoError(t, mock.ExpectationsWereMet())
}
