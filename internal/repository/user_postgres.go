package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opencensus.io/trace"

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/pkg/tracing"
)

const userColumns = "id, name, lastname, email, password_hash, role, company_id, department_ids, created_at, updated_at"

type userRepository struct {
	systemDB *sql.DB
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{systemDB: db}
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		user        domain.User
		companyID   sql.NullString
		departments pq.StringArray
	)
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Lastname,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&companyID,
		&departments,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.CompanyID = companyID.String
	user.DepartmentIDs = stringsOrEmpty(departments)
	return &user, nil
}

func (r *userRepository) CreateUser(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.DepartmentIDs = stringsOrEmpty(user.DepartmentIDs)

	query := `
		INSERT INTO users (id, name, lastname, email, password_hash, role, company_id, department_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.systemDB.ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Lastname,
		user.Email,
		user.PasswordHash,
		user.Role,
		nullableID(user.CompanyID),
		pq.Array(user.DepartmentIDs),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.systemDB.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("user", email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *userRepository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "UserRepository", "GetUserByID")
	defer span.End()
	span.AddAttributes(trace.StringAttribute("user.id", id))

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.systemDB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(trace.Status{Code: trace.StatusCodeNotFound, Message: "user not found"})
		return nil, domain.NewNotFoundError("user", id)
	}
	if err != nil {
		span.SetStatus(trace.Status{Code: trace.StatusCodeUnknown, Message: err.Error()})
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *userRepository) ListUsers(ctx context.Context, filter domain.UserFilter) ([]*domain.User, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "UserRepository", "ListUsers")
	defer span.End()

	if filter.IDs != nil && len(filter.IDs) == 0 {
		return []*domain.User{}, nil
	}

	builder := psql.Select(userColumns).From("users").OrderBy("created_at DESC")
	if filter.CompanyID != "" {
		builder = builder.Where(sq.Eq{"company_id": filter.CompanyID})
	}
	if filter.DepartmentID != "" {
		builder = builder.Where(sq.Expr("? = ANY(department_ids)", filter.DepartmentID))
	}
	if filter.Role != "" {
		builder = builder.Where(sq.Eq{"role": filter.Role})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		builder = builder.Where(sq.Or{
			sq.ILike{"name": pattern},
			sq.ILike{"lastname": pattern},
			sq.ILike{"email": pattern},
		})
	}
	if filter.IDs != nil {
		builder = builder.Where(sq.Expr("id = ANY(?)", pq.Array(filter.IDs)))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build users query: %w", err)
	}

	rows, err := r.systemDB.QueryContext(ctx, query, args...)
	if err != nil {
		span.SetStatus(trace.Status{Code: trace.StatusCodeUnknown, Message: err.Error()})
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

func (r *userRepository) UpdateUser(ctx context.Context, user *domain.User) error {
	user.UpdatedAt = time.Now().UTC()
	user.DepartmentIDs = stringsOrEmpty(user.DepartmentIDs)

	query := `
		UPDATE users
		SET name = $1, lastname = $2, email = $3, role = $4, company_id = $5, department_ids = $6, updated_at = $7
		WHERE id = $8
	`
	result, err := r.systemDB.ExecContext(ctx, query,
		user.Name,
		user.Lastname,
		user.Email,
		user.Role,
		nullableID(user.CompanyID),
		pq.Array(user.DepartmentIDs),
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return checkAffected(result, domain.NewNotFoundError("user", user.ID))
}

func (r *userRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	result, err := r.systemDB.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`,
		passwordHash, time.Now().UTC(), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return checkAffected(result, domain.NewNotFoundError("user", userID))
}

// Delete removes the user with its reset tokens and conversations, and
// detaches the scenarios assigned to it and the reports about it. Authorship
// columns keep the id.
func (r *userRepository) Delete(ctx context.Context, id string) (err error) {
	ctx, span := tracing.StartServiceSpan(ctx, "UserRepository", "Delete")
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

	result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if err = checkAffected(result, domain.NewNotFoundError("user", id)); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM password_resets WHERE user_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete password resets: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM conversations WHERE user_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete conversations: %w", err)
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE scenarios SET user_id_assigned = NULL, updated_at = $1 WHERE user_id_assigned = $2`,
		time.Now().UTC(), id); err != nil {
		return fmt.Errorf("failed to unassign scenarios: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `UPDATE reports SET user_id = NULL WHERE user_id = $1`, id); err != nil {
		return fmt.Errorf("failed to detach reports: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
