package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/internal/domain/mocks"
)

func chatServer(t *testing.T, status int, body string, inspect func(r *http.Request, payload map[string]interface{})) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var payload map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &payload))
		if inspect != nil {
			inspect(r, payload)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1714550400,
  "model": "llama3.1-70b",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "  Empathy: 80\nOverall: 75  "}}]
}`

func TestAssistantFactory_Llama(t *testing.T) {
	srv := chatServer(t, http.StatusOK, completionBody, func(r *http.Request, payload map[string]interface{}) {
		assert.Equal(t, "Bearer llama-key", r.Header.Get("Authorization"))
		assert.Equal(t, LlamaModel, payload["model"])
		messages := payload["messages"].([]interface{})
		require.Len(t, messages, 2)
		assert.Equal(t, "system", messages[0].(map[string]interface{})["role"])
	})

	ctrl := gomock.NewController(t)
	settings := mocks.NewMockSettingService(ctrl)
	settings.EXPECT().GetSettings(gomock.Any()).Return(&domain.AppSettings{
		LlamaKey:         "llama-key",
		LlamaBaseURL:     srv.URL,
		DefaultAssistant: domain.AssistantLlama,
	}, nil)

	factory := NewAssistantFactory(settings, nil)
	assistant, model, err := factory.Assistant(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, LlamaModel, model)

	out, err := assistant.Complete(context.Background(), domain.CompletionRequest{System: "You evaluate.", Prompt: "Transcript"})
	require.NoError(t, err)
	assert.Equal(t, "Empathy: 80\nOverall: 75", out)
}

func TestAssistantFactory_RejectedKey(t *testing.T) {
	srv := chatServer(t, http.StatusUnauthorized, `{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error"}}`, nil)

	ctrl := gomock.NewController(t)
	settings := mocks.NewMockSettingService(ctrl)
	settings.EXPECT().GetSettings(gomock.Any()).Return(&domain.AppSettings{LlamaKey: "bad", LlamaBaseURL: srv.URL}, nil)

	assistant, _, err := NewAssistantFactory(settings, nil).Assistant(context.Background(), domain.AssistantLlama)
	require.NoError(t, err)

	_, err = assistant.Complete(context.Background(), domain.CompletionRequest{Prompt: "x"})
	require.Error(t, err)
	assert.IsType(t, domain.ValidationError{}, err)
	assert.Contains(t, err.Error(), "Incorrect API key provided")
}

func TestAssistantFactory_NotConfigured(t *testing.T) {
	ctrl := gomock.NewController(t)
	settings := mocks.NewMockSettingService(ctrl)
	settings.EXPECT().GetSettings(gomock.Any()).Return(&domain.AppSettings{OpenAIKey: "sk"}, nil)

	_, _, err := NewAssistantFactory(settings, nil).Assistant(context.Background(), domain.AssistantMistral)
	assert.Equal(t, domain.ErrAssistantNotConfigured, err)
}

func TestProviderMessage(t *testing.T) {
	assert.Equal(t, "nested", providerMessage(`{"error":{"message":"nested"}}`))
	assert.Equal(t, "flat", providerMessage(`{"object":"error","message":"flat"}`))
	assert.Equal(t, "plain", providerMessage(`{"error":"plain"}`))
	assert.Empty(t, providerMessage("<html>"))
}
