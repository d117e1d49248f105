package domain

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

//go:generate mockgen -destination mocks/mock_conversation_repository.go -package mocks github.com/simulai/simulai/internal/domain ConversationRepository
//go:generate mockgen -destination mocks/mock_conversation_service.go -package mocks github.com/simulai/simulai/internal/domain ConversationService

type MessageRole string

const (
	MessageRoleUser   MessageRole = "user"
	MessageRoleAvatar MessageRole = "avatar"
)

// Message is one utterance of a conversation
type Message struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
}

// Speaker is the label used for the message in transcripts
func (m Message) Speaker() string {
	if m.Role == MessageRoleAvatar {
		return "Avatar"
	}
	return "User"
}

type Transcript []Message

func (t Transcript) Value() (driver.Value, error) {
	if t == nil {
		t = Transcript{}
	}
	return json.Marshal(t)
}

func (t *Transcript) Scan(value interface{}) error {
	if value == nil {
		*t = Transcript{}
		return nil
	}
	v, err := jsonBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(v, t)
}

// FacialExpressionSample is one reading of the emotion detector, scores in 0..1
type FacialExpressionSample struct {
	Timestamp time.Time          `json:"timestamp"`
	Emotions  map[string]float64 `json:"emotions"`
}

type FacialExpressions []FacialExpressionSample

func (f FacialExpressions) Value() (driver.Value, error) {
	if f == nil {
		f = FacialExpressions{}
	}
	return json.Marshal(f)
}

func (f *FacialExpressions) Scan(value interface{}) error {
	if value == nil {
		*f = FacialExpressions{}
		return nil
	}
	v, err := jsonBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(v, f)
}

// Conversation is the saved transcript of one avatar session
type Conversation struct {
	ID                string            `json:"id"`
	ScenarioID        string            `json:"scenario_id"`
	UserID            string            `json:"user_id"`
	Conversation      Transcript        `json:"conversation"`
	FacialExpressions FacialExpressions `json:"facial_expressions"`
	// ElapsedTime is the session length in seconds
	ElapsedTime int64     `json:"elapsed_time"`
	CreatedAt   time.Time `json:"created_at"`
}

type CreateConversationRequest struct {
	Conversation      Transcript        `json:"conversation"`
	FacialExpressions FacialExpressions `json:"facial_expressions"`
	// ElapsedTime in seconds; 0 takes the time tracked by the session timer
	ElapsedTime int64 `json:"elapsed_time"`
}

func (r *CreateConversationRequest) Validate() error {
	if len(r.Conversation) == 0 {
		return NewValidationError("conversation cannot be empty")
	}
	for i, m := range r.Conversation {
		if m.Role != MessageRoleUser && m.Role != MessageRoleAvatar {
			return NewValidationError(fmt.Sprintf("message %d has an invalid role: %s", i, m.Role))
		}
		if strings.TrimSpace(m.Content) == "" {
			return NewValidationError(fmt.Sprintf("message %d is empty", i))
		}
	}
	if r.ElapsedTime < 0 {
		return NewValidationError("elapsed_time cannot be negative")
	}
	return nil
}

type ConversationFilter struct {
	ScenarioID string
	UserID     string
	IDs        []string
}

type ConversationService interface {
	CreateConversation(ctx context.Context, scenarioID string, req CreateConversationRequest) (*Conversation, error)
	ListConversations(ctx context.Context, scenarioID string) ([]*Conversation, error)
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
	ExportConversations(ctx context.Context, scenarioID string, w io.Writer) error
}

type ConversationRepository interface {
	CreateConversation(ctx context.Context, conversation *Conversation) error
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	ListConversations(ctx context.Context, filter ConversationFilter) ([]*Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
	// SumElapsed totals elapsed_time of a user's conversations on a scenario
	SumElapsed(ctx context.Context, scenarioID, userID string) (time.Duration, error)
}
