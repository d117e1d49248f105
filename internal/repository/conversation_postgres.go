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

const conversationColumns = "id, scenario_id, user_id, conversation, facial_expressions, elapsed_time, created_at"

type conversationRepository struct {
	systemDB *sql.DB
}

// NewConversationRepository creates a new PostgreSQL conversation repository
func NewConversationRepository(db *sql.DB) domain.ConversationRepository {
	return &conversationRepository{systemDB: db}
}

func scanConversation(row rowScanner) (*domain.Conversation, error) {
	var c domain.Conversation
	err := row.Scan(&c.ID, &c.ScenarioID, &c.UserID, &c.Conversation, &c.FacialExpressions, &c.ElapsedTime, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *conversationRepository) CreateConversation(ctx context.Context, conversation *domain.Conversation) error {
	if conversation.ID == "" {
		conversation.ID = uuid.New().String()
	}
	conversation.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO conversations (id, scenario_id, user_id, conversation, facial_expressions, elapsed_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.systemDB.ExecContext(ctx, query,
		conversation.ID,
		conversation.ScenarioID,
		conversation.UserID,
		conversation.Conversation,
		conversation.FacialExpressions,
		conversation.ElapsedTime,
		conversation.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

func (r *conversationRepository) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	c, err := scanConversation(r.systemDB.QueryRowContext(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("conversation", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return c, nil
}

func (r *conversationRepository) ListConversations(ctx context.Context, filter domain.ConversationFilter) ([]*domain.Conversation, error) {
	if filter.IDs != nil && len(filter.IDs) == 0 {
		return []*domain.Conversation{}, nil
	}

	builder := psql.Select(conversationColumns).From("conversations").OrderBy("created_at ASC")
	if filter.ScenarioID != "" {
		builder = builder.Where(sq.Eq{"scenario_id": filter.ScenarioID})
	}
	if filter.UserID != "" {
		builder = builder.Where(sq.Eq{"user_id": filter.UserID})
	}
	if filter.IDs != nil {
		builder = builder.Where(sq.Expr("id = ANY(?)", pq.Array(filter.IDs)))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build conversations query: %w", err)
	}

	rows, err := r.systemDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	conversations := []*domain.Conversation{}
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}
	return conversations, nil
}

func (r *conversationRepository) DeleteConversation(ctx context.Context, id string) error {
	result, err := r.systemDB.ExecContext(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return checkAffected(result, domain.NewNotFoundError("conversation", id))
}

func (r *conversationRepository) SumElapsed(ctx context.Context, scenarioID, userID string) (time.Duration, error) {
	var seconds int64
	err := r.systemDB.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(elapsed_time), 0) FROM conversations WHERE scenario_id = $1 AND user_id = $2`,
		scenarioID, userID,
	).Scan(&seconds)
	if err != nil {
		return 0, fmt.Errorf("failed to sum elapsed time: %w", err)
	}
	return time.Duration(seconds) * time.Second, nil
}
