package domain

import (
	"bytes"
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

//go:generate mockgen -destination mocks/mock_scenario_repository.go -package mocks github.com/simulai/simulai/internal/domain ScenarioRepository
//go:generate mockgen -destination mocks/mock_scenario_service.go -package mocks github.com/simulai/simulai/internal/domain ScenarioService

type ScenarioStatus string

const (
	ScenarioStatusDraft     ScenarioStatus = "draft"
	ScenarioStatusPublished ScenarioStatus = "published"
	ScenarioStatusArchived  ScenarioStatus = "archived"
)

func (s ScenarioStatus) Valid() bool {
	switch s {
	case ScenarioStatusDraft, ScenarioStatusPublished, ScenarioStatusArchived:
		return true
	}
	return false
}

const MaxScenarioAspects = 20

// Scenario is a training exercise played against an avatar persona
type Scenario struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Context        string         `json:"context"`
	Status         ScenarioStatus `json:"status"`
	UserIDAssigned string         `json:"user_id_assigned,omitempty"`
	UserIDCreated  string         `json:"user_id_created"`
	Aspects        []string       `json:"aspects"`
	Files          ScenarioFiles  `json:"files"`
	Avatar         AvatarConfig   `json:"avatar"`
	// TimeLimit is the conversation budget in minutes, 0 means unlimited
	TimeLimit int       `json:"time_limit"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TimeLimitDuration converts the minute budget to a duration
func (s *Scenario) TimeLimitDuration() time.Duration {
	return time.Duration(s.TimeLimit) * time.Minute
}

// ScenarioFile is a document attached to a scenario for the avatar knowledge base
type ScenarioFile struct {
	Name        string    `json:"name"`
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

type ScenarioFiles []ScenarioFile

// Value implements the driver.Valuer interface for database serialization
func (f ScenarioFiles) Value() (driver.Value, error) {
	if f == nil {
		f = ScenarioFiles{}
	}
	return json.Marshal(f)
}

// Scan implements the sql.Scanner interface for database deserialization
func (f *ScenarioFiles) Scan(value interface{}) error {
	if value == nil {
		*f = ScenarioFiles{}
		return nil
	}
	v, err := jsonBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(v, f)
}

// AvatarConfig selects the HeyGen avatar and how it speaks
type AvatarConfig struct {
	AvatarID      string `json:"avatar_id,omitempty"`
	VoiceID       string `json:"voice_id,omitempty"`
	Language      string `json:"language,omitempty"`
	Quality       string `json:"quality,omitempty"`
	KnowledgeBase string `json:"knowledge_base,omitempty"`
}

func (a AvatarConfig) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *AvatarConfig) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	v, err := jsonBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(v, a)
}

func jsonBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return bytes.Clone(v), nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("type assertion to []byte failed")
	}
}

type ScenarioInput struct {
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Context        string         `json:"context"`
	Status         ScenarioStatus `json:"status"`
	UserIDAssigned string         `json:"user_id_assigned"`
	Aspects        []string       `json:"aspects"`
	Avatar         AvatarConfig   `json:"avatar"`
	TimeLimit      int            `json:"time_limit"`
}

func (i *ScenarioInput) Validate() error {
	i.Title = strings.TrimSpace(i.Title)
	if i.Title == "" {
		return NewValidationError("title is required")
	}
	if len(i.Title) > 255 {
		return NewValidationError("title must be 255 characters or less")
	}
	if i.Status == "" {
		i.Status = ScenarioStatusDraft
	}
	if !i.Status.Valid() {
		return NewValidationError(fmt.Sprintf("invalid status: %s", i.Status))
	}
	if i.TimeLimit < 0 {
		return NewValidationError("time_limit cannot be negative")
	}

	aspects, err := normalizeAspects(i.Aspects)
	if err != nil {
		return err
	}
	i.Aspects = aspects
	return nil
}

func normalizeAspects(aspects []string) ([]string, error) {
	if len(aspects) > MaxScenarioAspects {
		return nil, NewValidationError(fmt.Sprintf("a scenario can have at most %d aspects", MaxScenarioAspects))
	}
	seen := make(map[string]bool, len(aspects))
	out := make([]string, 0, len(aspects))
	for _, a := range aspects {
		a = strings.TrimSpace(a)
		if a == "" {
			return nil, NewValidationError("aspect names cannot be empty")
		}
		k := strings.ToLower(a)
		if seen[k] {
			return nil, NewValidationError(fmt.Sprintf("duplicate aspect: %s", a))
		}
		seen[k] = true
		out = append(out, a)
	}
	return out, nil
}

type ScenarioFilter struct {
	Status         ScenarioStatus
	UserIDAssigned string
	Search         string
	// ExcludeDrafts hides draft scenarios
	ExcludeDrafts bool
	// CompanyID limits to scenarios created by or assigned to users of this company
	CompanyID string
}

type ScenarioService interface {
	ListScenarios(ctx context.Context, filter ScenarioFilter) ([]*Scenario, error)
	GetScenario(ctx context.Context, id string) (*Scenario, error)
	CreateScenario(ctx context.Context, input ScenarioInput) (*Scenario, error)
	UpdateScenario(ctx context.Context, id string, input ScenarioInput) (*Scenario, error)
	DeleteScenario(ctx context.Context, id string) error
	AddFiles(ctx context.Context, id string, files []Upload) (*Scenario, error)
	RemoveFile(ctx context.Context, id, key string) (*Scenario, error)
}

type ScenarioRepository interface {
	ListScenarios(ctx context.Context, filter ScenarioFilter) ([]*Scenario, error)
	GetScenario(ctx context.Context, id string) (*Scenario, error)
	CreateScenario(ctx context.Context, scenario *Scenario) error
	UpdateScenario(ctx context.Context, scenario *Scenario) error
	// DeleteScenario removes the scenario with its conversations and reports
	DeleteScenario(ctx context.Context, id string) error
}
