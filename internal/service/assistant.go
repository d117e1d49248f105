package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/tidwall/gjson"
	"go.opencensus.io/plugin/ochttp"

	"github.com/simulai/simulai/internal/domain"
)

const (
	OpenAIModel  = "gpt-4o-mini"
	MistralModel = "mistral-large-latest"
	LlamaModel   = "llama3.1-70b"

	MistralBaseURL      = "https://api.mistral.ai/v1"
	DefaultLlamaBaseURL = "https://api.llama-api.com"

	assistantTimeout = 2 * time.Minute
)

// AssistantFactory builds chat completion clients from the current settings.
// Mistral and Llama expose OpenAI compatible APIs and share the same client.
type AssistantFactory struct {
	settings   settingsProvider
	httpClient *http.Client
	metrics    *Metrics
}

func NewAssistantFactory(settings settingsProvider, metrics *Metrics) *AssistantFactory {
	if metrics == nil {
		metrics = NewNopMetrics()
	}
	return &AssistantFactory{
		settings:   settings,
		httpClient: &http.Client{Transport: &ochttp.Transport{}, Timeout: assistantTimeout},
		metrics:    metrics,
	}
}

// Assistant returns the client for kind and the model it uses. An empty kind
// selects the default assistant of the settings.
func (f *AssistantFactory) Assistant(ctx context.Context, kind domain.AssistantKind) (domain.Assistant, string, error) {
	settings, err := f.settings.GetSettings(ctx)
	if err != nil {
		return nil, "", err
	}
	if kind == "" {
		kind = settings.DefaultAssistant
	}
	if kind == "" {
		kind = domain.AssistantOpenAI
	}

	key := settings.APIKey(kind)
	if key == "" {
		return nil, "", domain.ErrAssistantNotConfigured
	}

	opts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithHTTPClient(f.httpClient),
		option.WithMaxRetries(1),
	}
	var model string
	switch kind {
	case domain.AssistantOpenAI:
		model = OpenAIModel
	case domain.AssistantMistral:
		model = MistralModel
		opts = append(opts, option.WithBaseURL(MistralBaseURL))
	case domain.AssistantLlama:
		model = LlamaModel
		base := settings.LlamaBaseURL
		if base == "" {
			base = DefaultLlamaBaseURL
		}
		opts = append(opts, option.WithBaseURL(base))
	default:
		return nil, "", domain.NewValidationError(fmt.Sprintf("unknown assistant: %s", kind))
	}

	return &chatAssistant{
		client:  openai.NewClient(opts...),
		kind:    kind,
		model:   model,
		metrics: f.metrics,
	}, model, nil
}

type chatAssistant struct {
	client  openai.Client
	kind    domain.AssistantKind
	model   string
	metrics *Metrics
}

func (a *chatAssistant) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = a.model
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    model,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(req.MaxTokens)
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	start := time.Now()
	completion, err := a.client.Chat.Completions.New(ctx, params)
	a.metrics.AssistantLatency.WithLabelValues(string(a.kind)).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", assistantError(a.kind, err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", a.kind)
	}

	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%s returned an empty answer", a.kind)
	}
	return content, nil
}

// assistantError keeps the provider message of API errors. OpenAI nests it
// under error.message while Mistral and Llama return it at the top level.
func assistantError(kind domain.AssistantKind, err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%s request failed: %w", kind, err)
	}
	msg := providerMessage(apiErr.RawJSON())
	if msg == "" {
		msg = apiErr.Message
	}
	if apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden {
		return domain.NewValidationError(fmt.Sprintf("%s rejected the API key: %s", kind, msg))
	}
	return fmt.Errorf("%s request failed with status %d: %s", kind, apiErr.StatusCode, msg)
}

func providerMessage(body string) string {
	if body == "" || !gjson.Valid(body) {
		return ""
	}
	for _, path := range []string{"error.message", "message", "detail", "error"} {
		if r := gjson.Get(body, path); r.Exists() && r.Type == gjson.String {
			return r.String()
		}
	}
	return ""
}
