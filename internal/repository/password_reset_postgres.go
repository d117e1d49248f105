package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/simulai/simulai/internal/domain"
)

type passwordResetRepository struct {
	systemDB *sql.DB
}

// NewPasswordResetRepository creates a PostgreSQL store for pending password resets
func NewPasswordResetRepository(db *sql.DB) domain.PasswordResetRepository {
	return &passwordResetRepository{systemDB: db}
}

func (r *passwordResetRepository) Create(ctx context.Context, reset *domain.PasswordReset) (err error) {
	if reset.ID == "" {
		reset.ID = uuid.New().String()
	}
	reset.CreatedAt = time.Now().UTC()

	tx, err := r.systemDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM password_resets WHERE user_id = $1`, reset.UserID); err != nil {
		return fmt.Errorf("failed to clear previous resets: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO password_resets (id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, reset.ID, reset.UserID, reset.TokenHash, reset.ExpiresAt, reset.CreatedAt); err != nil {
		return fmt.Errorf("failed to create password reset: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *passwordResetRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.PasswordReset, error) {
	var reset domain.PasswordReset
	err := r.systemDB.QueryRowContext(ctx,
		`SELECT id, user_id, token_hash, expires_at, created_at FROM password_resets WHERE token_hash = $1`,
		tokenHash,
	).Scan(&reset.ID, &reset.UserID, &reset.TokenHash, &reset.ExpiresAt, &reset.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("password reset", "")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get password reset: %w", err)
	}
	return &reset, nil
}

func (r *passwordResetRepository) DeleteByUserID(ctx context.Context, userID string) error {
	if _, err := r.systemDB.ExecContext(ctx, `DELETE FROM password_resets WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete password resets: %w", err)
	}
	return nil
}

func (r *passwordResetRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.systemDB.ExecContext(ctx, `DELETE FROM password_resets WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired password resets: %w", err)
	}
	return result.RowsAffected()
}
