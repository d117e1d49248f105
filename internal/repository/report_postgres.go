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
)

const reportColumns = "id, scenario_id, user_id, title, content, conversation_ids, assistant, scores, created_by, created_at"

type reportRepository struct {
	systemDB *sql.DB
}

// NewReportRepository creates a new PostgreSQL report repository
func NewReportRepository(db *sql.DB) domain.ReportRepository {
	return &reportRepository{systemDB: db}
}

func scanReport(row rowScanner) (*domain.Report, error) {
	var (
		rep             domain.Report
		userID          sql.NullString
		createdBy       sql.NullString
		conversationIDs pq.StringArray
	)
	err := row.Scan(
		&rep.ID,
		&rep.ScenarioID,
		&userID,
		&rep.Title,
		&rep.Content,
		&conversationIDs,
		&rep.Assistant,
		&rep.Scores,
		&createdBy,
		&rep.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rep.UserID = userID.String
	rep.CreatedBy = createdBy.String
	rep.ConversationIDs = stringsOrEmpty(conversationIDs)
	return &rep, nil
}

func (r *reportRepository) CreateReport(ctx context.Context, report *domain.Report) error {
	if report.ID == "" {
		report.ID = uuid.New().String()
	}
	report.CreatedAt = time.Now().UTC()
	report.ConversationIDs = stringsOrEmpty(report.ConversationIDs)

	query := `
		INSERT INTO reports (id, scenario_id, user_id, title, content, conversation_ids, assistant, scores, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.systemDB.ExecContext(ctx, query,
		report.ID,
		report.ScenarioID,
		nullableID(report.UserID),
		report.Title,
		report.Content,
		pq.Array(report.ConversationIDs),
		report.Assistant,
		report.Scores,
		nullableID(report.CreatedBy),
		report.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

func (r *reportRepository) GetReport(ctx context.Context, id string) (*domain.Report, error) {
	rep, err := scanReport(r.systemDB.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("report", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return rep, nil
}

func (r *reportRepository) ListReports(ctx context.Context, filter domain.ReportFilter) ([]*domain.Report, error) {
	builder := psql.Select(reportColumns).From("reports").OrderBy("created_at DESC")
	if filter.ScenarioID != "" {
		builder = builder.Where(sq.Eq{"scenario_id": filter.ScenarioID})
	}
	if filter.UserID != "" {
		builder = builder.Where(sq.Eq{"user_id": filter.UserID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build reports query: %w", err)
	}

	rows, err := r.systemDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	reports := []*domain.Report{}
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}
	return reports, nil
}

func (r *reportRepository) DeleteReport(ctx context.Context, id string) error {
	result, err := r.systemDB.ExecContext(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	return checkAffected(result, domain.NewNotFoundError("report", id))
}
