package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/pkg/tracing"
)

type companyRepository struct {
	systemDB *sql.DB
}

// NewCompanyRepository creates a PostgreSQL repository for companies and their departments
func NewCompanyRepository(db *sql.DB) domain.CompanyRepository {
	return &companyRepository{systemDB: db}
}

func scanCompany(row rowScanner) (*domain.Company, error) {
	var (
		c         domain.Company
		logoURL   sql.NullString
		createdBy sql.NullString
	)
	if err := row.Scan(&c.ID, &c.Name, &logoURL, &createdBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.LogoURL = logoURL.String
	c.CreatedBy = createdBy.String
	return &c, nil
}

func scanDepartment(row rowScanner) (*domain.Department, error) {
	var d domain.Department
	if err := row.Scan(&d.ID, &d.Name, &d.CompanyID, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *companyRepository) ListCompanies(ctx context.Context) ([]*domain.Company, error) {
	rows, err := r.systemDB.QueryContext(ctx,
		`SELECT id, name, logo_url, created_by, created_at, updated_at FROM companies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	companies := []*domain.Company{}
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

func (r *companyRepository) GetCompany(ctx context.Context, id string) (*domain.Company, error) {
	c, err := scanCompany(r.systemDB.QueryRowContext(ctx,
		`SELECT id, name, logo_url, created_by, created_at, updated_at FROM companies WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("company", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return c, nil
}

func (r *companyRepository) CreateCompany(ctx context.Context, company *domain.Company) error {
	if company.ID == "" {
		company.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	company.CreatedAt = now
	company.UpdatedAt = now

	_, err := r.systemDB.ExecContext(ctx, `
		INSERT INTO companies (id, name, logo_url, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, company.ID, company.Name, company.LogoURL, nullableID(company.CreatedBy), company.CreatedAt, company.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create company: %w", err)
	}
	return nil
}

func (r *companyRepository) UpdateCompany(ctx context.Context, company *domain.Company) error {
	company.UpdatedAt = time.Now().UTC()
	result, err := r.systemDB.ExecContext(ctx,
		`UPDATE companies SET name = $1, logo_url = $2, updated_at = $3 WHERE id = $4`,
		company.Name, company.LogoURL, company.UpdatedAt, company.ID)
	if err != nil {
		return fmt.Errorf("failed to update company: %w", err)
	}
	return checkAffected(result, domain.NewNotFoundError("company", company.ID))
}

func (r *companyRepository) DeleteCompany(ctx context.Context, id string) (err error) {
	ctx, span := tracing.StartServiceSpan(ctx, "CompanyRepository", "DeleteCompany")
	defer func() { tracing.EndSpan(span, err) }()

	tx, err := r.systemDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	result, err := tx.ExecContext(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}
	if err = checkAffected(result, domain.NewNotFoundError("company", id)); err != nil {
		return err
	}

	departmentIDs, err := collectIDs(ctx, tx, `SELECT id FROM departments WHERE company_id = $1`, id)
	if err != nil {
		return err
	}
	for _, departmentID := range departmentIDs {
		if err = removeDepartmentFromUsers(ctx, tx, departmentID); err != nil {
			return err
		}
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM departments WHERE company_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete departments: %w", err)
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE users SET company_id = NULL, updated_at = $1 WHERE company_id = $2`,
		time.Now().UTC(), id); err != nil {
		return fmt.Errorf("failed to detach users: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *companyRepository) ListDepartments(ctx context.Context, companyID string) ([]*domain.Department, error) {
	rows, err := r.systemDB.QueryContext(ctx,
		`SELECT id, name, company_id, created_at, updated_at FROM departments WHERE company_id = $1 ORDER BY name`,
		companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	defer rows.Close()

	departments := []*domain.Department{}
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan department: %w", err)
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

func (r *companyRepository) GetDepartment(ctx context.Context, id string) (*domain.Department, error) {
	d, err := scanDepartment(r.systemDB.QueryRowContext(ctx,
		`SELECT id, name, company_id, created_at, updated_at FROM departments WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("department", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get department: %w", err)
	}
	return d, nil
}

func (r *companyRepository) CreateDepartment(ctx context.Context, department *domain.Department) error {
	if department.ID == "" {
		department.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	department.CreatedAt = now
	department.UpdatedAt = now

	_, err := r.systemDB.ExecContext(ctx, `
		INSERT INTO departments (id, name, company_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, department.ID, department.Name, department.CompanyID, department.CreatedAt, department.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create department: %w", err)
	}
	return nil
}

func (r *companyRepository) UpdateDepartment(ctx context.Context, department *domain.Department) error {
	department.UpdatedAt = time.Now().UTC()
	result, err := r.systemDB.ExecContext(ctx,
		`UPDATE departments SET name = $1, updated_at = $2 WHERE id = $3`,
		department.Name, department.UpdatedAt, department.ID)
	if err != nil {
		return fmt.Errorf("failed to update department: %w", err)
	}
	return checkAffected(result, domain.NewNotFoundError("department", department.ID))
}

func (r *companyRepository) DeleteDepartment(ctx context.Context, id string) (err error) {
	tx, err := r.systemDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	result, err := tx.ExecContext(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete department: %w", err)
	}
	if err = checkAffected(result, domain.NewNotFoundError("department", id)); err != nil {
		return err
	}
	if err = removeDepartmentFromUsers(ctx, tx, id); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func removeDepartmentFromUsers(ctx context.Context, tx *sql.Tx, departmentID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users SET department_ids = array_remove(department_ids, $1), updated_at = $2
		WHERE $1 = ANY(department_ids)
	`, departmentID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to remove department from users: %w", err)
	}
	return nil
}

// collectIDs reads a single id column fully so the transaction can be reused afterwards
func collectIDs(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) ([]string, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
