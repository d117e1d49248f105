package domain

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

//go:generate mockgen -destination mocks/mock_report_repository.go -package mocks github.com/simulai/simulai/internal/domain ReportRepository
//go:generate mockgen -destination mocks/mock_report_service.go -package mocks github.com/simulai/simulai/internal/domain ReportService
//go:generate mockgen -destination mocks/mock_assistant.go -package mocks github.com/simulai/simulai/internal/domain Assistant
//go:generate mockgen -destination mocks/mock_assistant_factory.go -package mocks github.com/simulai/simulai/internal/domain AssistantFactory

type AssistantKind string

const (
	AssistantOpenAI  AssistantKind = "openai"
	AssistantMistral AssistantKind = "mistral"
	AssistantLlama   AssistantKind = "llama"
)

func (k AssistantKind) Valid() bool {
	switch k {
	case AssistantOpenAI, AssistantMistral, AssistantLlama:
		return true
	}
	return false
}

// AspectScores maps an aspect name to its 0..100 score
type AspectScores map[string]int

func (s AspectScores) Value() (driver.Value, error) {
	if s == nil {
		s = AspectScores{}
	}
	return json.Marshal(s)
}

func (s *AspectScores) Scan(value interface{}) error {
	if value == nil {
		*s = AspectScores{}
		return nil
	}
	v, err := jsonBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(v, s)
}

// Report is an LLM generated evaluation of one or more conversations
type Report struct {
	ID              string        `json:"id"`
	ScenarioID      string        `json:"scenario_id"`
	UserID          string        `json:"user_id,omitempty"`
	Title           string        `json:"title"`
	Content         string        `json:"content"`
	ConversationIDs []string      `json:"conversation_ids"`
	Assistant       AssistantKind `json:"assistant"`
	Scores          AspectScores  `json:"scores"`
	CreatedBy       string        `json:"created_by,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

type GenerateReportRequest struct {
	ConversationIDs []string      `json:"conversation_ids"`
	Assistant       AssistantKind `json:"assistant"`
	// UserID is the trainee the report is about, defaults to the conversations owner
	UserID string `json:"user_id"`
}

func (r *GenerateReportRequest) Validate() error {
	if len(r.ConversationIDs) == 0 {
		return NewValidationError("at least one conversation is required")
	}
	seen := make(map[string]bool, len(r.ConversationIDs))
	ids := make([]string, 0, len(r.ConversationIDs))
	for _, id := range r.ConversationIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	r.ConversationIDs = ids
	if len(ids) == 0 {
		return NewValidationError("at least one conversation is required")
	}
	if r.Assistant != "" && !r.Assistant.Valid() {
		return NewValidationError(fmt.Sprintf("unknown assistant: %s", r.Assistant))
	}
	return nil
}

type ReportFilter struct {
	ScenarioID string
	UserID     string
}

type ExportFormat string

const (
	ExportFormatPDF ExportFormat = "pdf"
	ExportFormatDoc ExportFormat = "doc"
)

// ExportedFile is a rendered document ready to download
type ExportedFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

type ReportService interface {
	GenerateReport(ctx context.Context, scenarioID string, req GenerateReportRequest) (*Report, error)
	ListReports(ctx context.Context, scenarioID string) ([]*Report, error)
	GetReport(ctx context.Context, id string) (*Report, error)
	DeleteReport(ctx context.Context, id string) error
	ExportReport(ctx context.Context, id string, format ExportFormat) (*ExportedFile, error)
}

type ReportRepository interface {
	CreateReport(ctx context.Context, report *Report) error
	GetReport(ctx context.Context, id string) (*Report, error)
	ListReports(ctx context.Context, filter ReportFilter) ([]*Report, error)
	DeleteReport(ctx context.Context, id string) error
}

// CompletionRequest is a single system+user prompt exchange
type CompletionRequest struct {
	System      string
	Prompt      string
	Model       string
	MaxTokens   int64
	Temperature float64
}

// Assistant is an LLM able to write the evaluation
type Assistant interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// AssistantFactory builds the assistant client for a provider from the current settings
type AssistantFactory interface {
	Assistant(ctx context.Context, kind AssistantKind) (Assistant, string, error)
}

var (
	genericScoreRe = regexp.MustCompile(`(?m)^[\s>*#\-]*\**([A-Za-zÀ-ÿ][^:\n*]{0,60}?)\**\s*:\s*\**\s*(\d{1,3})(?:\s*/\s*100)?\b`)
	overallLabel   = "Overall"
)

func aspectScoreRe(aspect string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + regexp.QuoteMeta(aspect) + `(?:\s+score)?\**\s*[:\-]\s*\**\s*(\d{1,3})(?:\s*/\s*100)?\b`)
}

func clampScore(raw string) (int, bool) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	if n < 0 {
		n = 0
	}
	if n > 100 {
		n = 100
	}
	return n, true
}

// ExtractAspectScores finds "Aspect: NN" scores in an evaluation. Scores are
// clamped to 0..100 and the first match of an aspect wins. With configured
// aspects only those are read, otherwise every "Label: NN" line is taken.
// An "Overall" score is picked up in both cases.
func ExtractAspectScores(text string, aspects []string) AspectScores {
	scores := AspectScores{}

	if len(aspects) == 0 {
		for _, m := range genericScoreRe.FindAllStringSubmatch(text, -1) {
			label := strings.TrimSpace(m[1])
			if label == "" {
				continue
			}
			if _, done := scores[label]; done {
				continue
			}
			if n, ok := clampScore(m[2]); ok {
				scores[label] = n
			}
		}
		return scores
	}

	for _, aspect := range aspects {
		if m := aspectScoreRe(aspect).FindStringSubmatch(text); m != nil {
			if n, ok := clampScore(m[1]); ok {
				scores[aspect] = n
			}
		}
	}

	hasOverall := false
	for _, a := range aspects {
		if strings.EqualFold(a, overallLabel) {
			hasOverall = true
		}
	}
	if !hasOverall {
		if m := aspectScoreRe(overallLabel).FindStringSubmatch(text); m != nil {
			if n, ok := clampScore(m[1]); ok {
				scores[overallLabel] = n
			}
		}
	}
	return scores
}

// EmotionSummary is the average of every facial expression sample
type EmotionSummary struct {
	Averages map[string]float64 `json:"averages"`
	Dominant string             `json:"dominant,omitempty"`
	Samples  int                `json:"samples"`
}

// SortedEmotions returns the emotion names by decreasing average
func (s EmotionSummary) SortedEmotions() []string {
	names := make([]string, 0, len(s.Averages))
	for k := range s.Averages {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool {
		if s.Averages[names[i]] == s.Averages[names[j]] {
			return names[i] < names[j]
		}
		return s.Averages[names[i]] > s.Averages[names[j]]
	})
	return names
}

// AverageEmotions averages every emotion over the samples of all conversations,
// rounded to two decimals. Emotions missing from a sample count as absent, not zero.
func AverageEmotions(conversations []*Conversation) EmotionSummary {
	sums := map[string]float64{}
	counts := map[string]int{}
	samples := 0

	for _, c := range conversations {
		for _, s := range c.FacialExpressions {
			if len(s.Emotions) == 0 {
				continue
			}
			samples++
			for k, v := range s.Emotions {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					continue
				}
				sums[k] += v
				counts[k]++
			}
		}
	}

	summary := EmotionSummary{Averages: map[string]float64{}, Samples: samples}
	for k, sum := range sums {
		summary.Averages[k] = math.Round(sum/float64(counts[k])*100) / 100
	}
	if sorted := summary.SortedEmotions(); len(sorted) > 0 {
		summary.Dominant = sorted[0]
	}
	return summary
}

// BuildTranscript renders the conversations as numbered plain text blocks
func BuildTranscript(conversations []*Conversation) string {
	var b strings.Builder
	for i, c := range conversations {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Conversation %d:\n", i+1)
		for _, m := range c.Conversation {
			fmt.Fprintf(&b, "%s: %s\n", m.Speaker(), strings.TrimSpace(m.Content))
		}
	}
	return b.String()
}
