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

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/pkg/tracing"
)

const scenarioColumns = "id, title, description, context, status, user_id_assigned, user_id_created, aspects, files, avatar, time_limit, created_at, updated_at"

type scenarioRepository struct {
	systemDB *sql.DB
}

// NewScenarioRepository creates a new PostgreSQL scenario repository
func NewScenarioRepository(db *sql.DB) domain.ScenarioRepository {
	return &scenarioRepository{systemDB: db}
}

func scanScenario(row rowScanner) (*domain.Scenario, error) {
	var (
		s        domain.Scenario
		assigned sql.NullString
		created  sql.NullString
		aspects  pq.StringArray
	)
	err := row.Scan(
		&s.ID,
		&s.Title,
		&s.Description,
		&s.Context,
		&s.Status,
		&assigned,
		&created,
		&aspects,
		&s.Files,
		&s.Avatar,
		&s.TimeLimit,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.UserIDAssigned = assigned.String
	s.UserIDCreated = created.String
	s.Aspects = stringsOrEmpty(aspects)
	return &s, nil
}

func (r *scenarioRepository) ListScenarios(ctx context.Context, filter domain.ScenarioFilter) ([]*domain.Scenario, error) {
	builder := psql.Select(scenarioColumns).From("scenarios").OrderBy("created_at DESC")
	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": filter.Status})
	}
	if filter.ExcludeDrafts {
		builder = builder.Where(sq.NotEq{"status": domain.ScenarioStatusDraft})
	}
	if filter.UserIDAssigned != "" {
		builder = builder.Where(sq.Eq{"user_id_assigned": filter.UserIDAssigned})
	}
	if filter.Search != "" {
		builder = builder.Where(sq.ILike{"title": "%" + filter.Search + "%"})
	}
	if filter.CompanyID != "" {
		builder = builder.Where(sq.Expr(
			"(user_id_created IN (SELECT id FROM users WHERE company_id = ?) OR user_id_assigned IN (SELECT id FROM users WHERE company_id = ?))",
			filter.CompanyID, filter.CompanyID,
		))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build scenarios query: %w", err)
	}

	rows, err := r.systemDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	defer rows.Close()

	scenarios := []*domain.Scenario{}
	for rows.Next() {
		s, err := scanScenario(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scenario: %w", err)
		}
		scenarios = append(scenarios, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scenarios: %w", err)
	}
	return scenarios, nil
}

func (r *scenarioRepository) GetScenario(ctx context.Context, id string) (*domain.Scenario, error) {
	s, err := scanScenario(r.systemDB.QueryRowContext(ctx,
		`SELECT `+scenarioColumns+` FROM scenarios WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("scenario", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scenario: %w", err)
	}
	return s, nil
}

func (r *scenarioRepository) CreateScenario(ctx context.Context, scenario *domain.Scenario) error {
	if scenario.ID == "" {
		scenario.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	scenario.CreatedAt = now
	scenario.UpdatedAt = now
	scenario.Aspects = stringsOrEmpty(scenario.Aspects)

	query := `
		INSERT INTO scenarios (id, title, description, context, status, user_id_assigned, user_id_created, aspects, files, avatar, time_limit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.systemDB.ExecContext(ctx, query,
		scenario.ID,
		scenario.Title,
		scenario.Description,
		scenario.Context,
		scenario.Status,
		nullableID(scenario.UserIDAssigned),
		nullableID(scenario.UserIDCreated),
		pq.Array(scenario.Aspects),
		scenario.Files,
		scenario.Avatar,
		scenario.TimeLimit,
		scenario.CreatedAt,
		scenario.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create scenario: %w", err)
	}
	return nil
}

func (r *scenarioRepository) UpdateScenario(ctx context.Context, scenario *domain.Scenario) error {
	scenario.UpdatedAt = time.Now().UTC()
	scenario.Aspects = stringsOrEmpty(scenario.Aspects)

	query := `
		UPDATE scenarios
		SET title = $1, description = $2, context = $3, status = $4, user_id_assigned = $5,
			aspects = $6, files = $7, avatar = $8, time_limit = $9, updated_at = $10
		WHERE id = $11
	`
	result, err := r.systemDB.ExecContext(ctx, query,
		scenario.Title,
		scenario.Description,
		scenario.Context,
		scenario.Status,
		nullableID(scenario.UserIDAssigned),
		pq.Array(scenario.Aspects),
		scenario.Files,
		scenario.Avatar,
		scenario.TimeLimit,
		scenario.UpdatedAt,
		scenario.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update scenario: %w", err)
	}
	return checkAffected(result, domain.NewNotFoundError("scenario", scenario.ID))
}

func (r *scenarioRepository) DeleteScenario(ctx context.Context, id string) (err error) {
	ctx, span := tracing.StartServiceSpan(ctx, "ScenarioRepository", "DeleteScenario")
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

	if _, err = tx.ExecContext(ctx, `DELETE FROM reports WHERE scenario_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete reports: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM conversations WHERE scenario_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete conversations: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM scenarios WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete scenario: %w", err)
	}
	if err = checkAffected(result, domain.NewNotFoundError("scenario", id)); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
