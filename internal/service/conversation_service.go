package service

import (
	"context"
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/pkg/logger"
	"github.com/simulai/simulai/pkg/tracing"
)

// sessionLedger is the part of SessionService saving a conversation needs
type sessionLedger interface {
	Pending(ctx context.Context, scenarioID, userID string) (time.Duration, error)
	Clear(ctx context.Context, scenarioID, userID string) error
}

var conversationCSVColumns = []string{
	"conversation_id", "user_id", "created_at", "elapsed_time", "message", "role", "content", "timestamp",
}

type ConversationService struct {
	repo     domain.ConversationRepository
	access   scenarioAccess
	sessions sessionLedger
	logger   logger.Logger
}

func NewConversationService(repo domain.ConversationRepository, scenarios domain.ScenarioRepository, users domain.UserRepository, sessions sessionLedger, logger logger.Logger) *ConversationService {
	return &ConversationService{
		repo:     repo,
		access:   scenarioAccess{scenarios: scenarios, users: users},
		sessions: sessions,
		logger:   logger,
	}
}

// CreateConversation saves the transcript of the caller's session. Without
// an explicit elapsed time the pending session time is used, and the
// session state is cleared either way.
func (s *ConversationService) CreateConversation(ctx context.Context, scenarioID string, req domain.CreateConversationRequest) (*domain.Conversation, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "ConversationService", "CreateConversation")
	defer span.End()

	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.access.load(ctx, p, scenarioID); err != nil {
		return nil, err
	}

	elapsed := req.ElapsedTime
	if elapsed == 0 {
		pending, err := s.sessions.Pending(ctx, scenarioID, p.UserID)
		if err != nil {
			return nil, err
		}
		elapsed = int64(math.Round(pending.Seconds()))
	}

	conversation := &domain.Conversation{
		ScenarioID:        scenarioID,
		UserID:            p.UserID,
		Conversation:      req.Conversation,
		FacialExpressions: req.FacialExpressions,
		ElapsedTime:       elapsed,
	}
	if conversation.FacialExpressions == nil {
		conversation.FacialExpressions = domain.FacialExpressions{}
	}
	if err := s.repo.CreateConversation(ctx, conversation); err != nil {
		tracing.EndSpan(span, err)
		return nil, err
	}

	if err := s.sessions.Clear(ctx, scenarioID, p.UserID); err != nil {
		s.logger.WithFields(map[string]interface{}{
			"scenario_id": scenarioID,
			"user_id":     p.UserID,
			"error":       err.Error(),
		}).Warn("Failed to clear session state")
	}
	return conversation, nil
}

func (s *ConversationService) ListConversations(ctx context.Context, scenarioID string) ([]*domain.Conversation, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.load(ctx, p, scenarioID); err != nil {
		return nil, err
	}

	filter := domain.ConversationFilter{ScenarioID: scenarioID}
	if !p.HasRole(domain.RoleAdmin, domain.RoleCompany) {
		filter.UserID = p.UserID
	}
	return s.repo.ListConversations(ctx, filter)
}

func (s *ConversationService) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	conversation, err := s.repo.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.HasRole(domain.RoleAdmin, domain.RoleCompany) && conversation.UserID != p.UserID {
		return nil, domain.NewNotFoundError("conversation", id)
	}
	if _, err := s.access.load(ctx, p, conversation.ScenarioID); err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.NewNotFoundError("conversation", id)
		}
		return nil, err
	}
	return conversation, nil
}

func (s *ConversationService) DeleteConversation(ctx context.Context, id string) error {
	p, err := requireRole(ctx, "conversations", "delete", domain.RoleAdmin)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteConversation(ctx, id); err != nil {
		return err
	}
	s.logger.WithField("conversation_id", id).WithField("deleted_by", p.UserID).Info("Conversation deleted")
	return nil
}

// ExportConversations writes one CSV row per message of the visible conversations
func (s *ConversationService) ExportConversations(ctx context.Context, scenarioID string, w io.Writer) error {
	conversations, err := s.ListConversations(ctx, scenarioID)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(conversationCSVColumns); err != nil {
		return err
	}
	for _, c := range conversations {
		created := c.CreatedAt.UTC().Format(time.RFC3339)
		elapsed := strconv.FormatInt(c.ElapsedTime, 10)
		for i, m := range c.Conversation {
			ts := ""
			if !m.Timestamp.IsZero() {
				ts = m.Timestamp.UTC().Format(time.RFC3339)
			}
			record := []string{c.ID, c.UserID, created, elapsed, strconv.Itoa(i + 1), string(m.Role), m.Content, ts}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
