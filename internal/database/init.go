package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/simulai/simulai/config"
	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/internal/migrations"
	"github.com/simulai/simulai/pkg/crypto"
	"github.com/simulai/simulai/pkg/logger"
)

// TableNames lists the tables in creation order
var TableNames = []string{
	"users",
	"companies",
	"departments",
	"scenarios",
	"conversations",
	"reports",
	"settings",
	"password_resets",
}

// InitializeDatabase creates the database when missing, applies the migrations
// and seeds the root admin
// codecov:ignore:start
func InitializeDatabase(ctx context.Context, db *sql.DB, cfg *config.Config, log logger.Logger) error {
	if err := EnsureSystemDatabaseExists(GetPostgresDSN(&cfg.Database), cfg.Database.DBName); err != nil {
		return err
	}

	// the migrator owns and closes its connection
	migrationDB, err := sql.Open("postgres", GetSystemDSN(&cfg.Database))
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	manager, err := migrations.NewManager(migrationDB, cfg.Database.DBName, log)
	if err != nil {
		migrationDB.Close()
		return err
	}
	defer manager.Close()

	if err := manager.Up(); err != nil {
		return err
	}

	if cfg.RootEmail == "" {
		return nil
	}
	generated, err := EnsureRootAdmin(ctx, db, cfg.RootEmail, cfg.RootPass)
	if err != nil {
		return err
	}
	if generated != "" {
		log.WithField("email", cfg.RootEmail).Warn("Root admin created with a generated password, use password reset to set one: " + generated)
	}
	return nil
}

// codecov:ignore:end

// EnsureRootAdmin creates the admin account of email unless it exists. When
// password is empty a random one is generated and returned.
func EnsureRootAdmin(ctx context.Context, db *sql.DB, email, password string) (generated string, err error) {
	email = domain.NormalizeEmail(email)

	var exists bool
	err = db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)", email).Scan(&exists)
	if err != nil {
		return "", fmt.Errorf("failed to check root user existence: %w", err)
	}
	if exists {
		return "", nil
	}

	if password == "" {
		password, err = crypto.GenerateRandomToken(12)
		if err != nil {
			return "", err
		}
		generated = password
	}
	hash, err := crypto.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("failed to hash root password: %w", err)
	}

	now := time.Now().UTC()
	_, err = db.ExecContext(ctx, `
		INSERT INTO users (id, name, lastname, email, password_hash, role, department_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, '{}', $7, $8)
	`, uuid.New().String(), "Root", "Admin", email, hash, domain.RoleAdmin, now, now)
	if err != nil {
		return "", fmt.Errorf("failed to create root user: %w", err)
	}
	return generated, nil
}

// CleanDatabase drops all tables in reverse order
func CleanDatabase(db *sql.DB) error {
	for i := len(TableNames) - 1; i >= 0; i-- {
		query := fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", TableNames[i])
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", TableNames[i], err)
		}
	}
	if _, err := db.Exec("DROP TABLE IF EXISTS " + migrations.MigrationsTable); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", migrations.MigrationsTable, err)
	}
	return nil
}
