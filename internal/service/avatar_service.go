package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/tidwall/gjson"
	"go.opencensus.io/plugin/ochttp"

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/pkg/logger"
	"github.com/simulai/simulai/pkg/tracing"
)

const (
	HeyGenBaseURL     = "https://api.heygen.com"
	OpenAIBaseURL     = "https://api.openai.com/v1"
	heygenTokenPath   = "/v1/streaming.create_token"
	avatarHTTPTimeout = 30 * time.Second
)

// AvatarService issues HeyGen streaming tokens and transcribes trainee audio
type AvatarService struct {
	settings      settingsProvider
	httpClient    *http.Client
	heygenBaseURL string
	openaiBaseURL string
	logger        logger.Logger
}

func NewAvatarService(settings settingsProvider, logger logger.Logger) *AvatarService {
	return &AvatarService{
		settings:      settings,
		httpClient:    &http.Client{Transport: &ochttp.Transport{}, Timeout: avatarHTTPTimeout},
		heygenBaseURL: HeyGenBaseURL,
		openaiBaseURL: OpenAIBaseURL,
		logger:        logger,
	}
}

func (s *AvatarService) CreateStreamingToken(ctx context.Context) (*domain.AvatarToken, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "AvatarService", "CreateStreamingToken")
	defer span.End()

	if _, err := requirePrincipal(ctx); err != nil {
		return nil, err
	}
	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	if settings.HeyGenKey == "" {
		return nil, domain.ErrAvatarNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(s.heygenBaseURL, "/")+heygenTokenPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HeyGen request: %w", err)
	}
	req.Header.Set("X-Api-Key", settings.HeyGenKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		tracing.EndSpan(span, err)
		return nil, fmt.Errorf("HeyGen request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read HeyGen response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := providerMessage(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		s.logger.WithFields(map[string]interface{}{
			"status": resp.StatusCode,
			"error":  msg,
		}).Warn("HeyGen refused the streaming token request")
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, domain.NewValidationError("HeyGen rejected the API key: " + msg)
		}
		return nil, fmt.Errorf("HeyGen returned status %d: %s", resp.StatusCode, msg)
	}

	token := gjson.GetBytes(body, "data.token")
	if !token.Exists() || token.String() == "" {
		return nil, fmt.Errorf("HeyGen response has no token")
	}
	return &domain.AvatarToken{Token: token.String()}, nil
}

// Transcribe sends the trainee audio to Whisper with the OpenAI key of the settings
func (s *AvatarService) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "AvatarService", "Transcribe")
	defer span.End()

	if _, err := requirePrincipal(ctx); err != nil {
		return "", err
	}
	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return "", err
	}
	if settings.OpenAIKey == "" {
		return "", domain.ErrAssistantNotConfigured
	}
	if filename == "" {
		filename = "audio.webm"
	}

	client := openai.NewClient(
		option.WithAPIKey(settings.OpenAIKey),
		option.WithHTTPClient(s.httpClient),
		option.WithBaseURL(s.openaiBaseURL),
		option.WithMaxRetries(1),
	)
	transcription, err := client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  openai.File(audio, filepath.Base(filename), audioContentType(filename)),
		Model: openai.AudioModelWhisper1,
	})
	if err != nil {
		tracing.EndSpan(span, err)
		return "", assistantError(domain.AssistantOpenAI, err)
	}
	return strings.TrimSpace(transcription.Text), nil
}

func audioContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mp3", ".mpeg", ".mpga":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".m4a", ".mp4":
		return "audio/mp4"
	case ".ogg", ".oga":
		return "audio/ogg"
	default:
		return "audio/webm"
	}
}
