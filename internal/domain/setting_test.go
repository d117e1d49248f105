package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simulai/simulai/pkg/crypto"
)

const testPassphrase = "settings-passphrase"

func TestAppSettings_EncryptDecryptSecretKeys(t *testing.T) {
	s := &AppSettings{
		OpenAIKey:    "sk-openai-1234567890",
		MistralKey:   "mistral-abcdefghij",
		HeyGenKey:    "heygen-key-000111",
		LlamaBaseURL: "https://api.llama-api.com",
		SMTP:         SMTPSettings{Host: "smtp.test", Password: "smtp-pass-123"},
		AWS:          AWSSettings{Bucket: "b", SecretAccessKey: "aws-secret-key-xyz"},
	}

	require.NoError(t, s.EncryptSecretKeys(testPassphrase))

	assert.Empty(t, s.OpenAIKey)
	assert.Empty(t, s.SMTP.Password)
	assert.Empty(t, s.AWS.SecretAccessKey)
	assert.NotEmpty(t, s.EncryptedOpenAIKey)
	assert.NotEmpty(t, s.SMTP.EncryptedPassword)
	assert.Empty(t, s.EncryptedLlamaKey, "empty secrets stay empty")

	require.NoError(t, s.DecryptSecretKeys(testPassphrase))

	assert.Equal(t, "sk-openai-1234567890", s.OpenAIKey)
	assert.Equal(t, "mistral-abcdefghij", s.MistralKey)
	assert.Equal(t, "heygen-key-000111", s.HeyGenKey)
	assert.Equal(t, "smtp-pass-123", s.SMTP.Password)
	assert.Equal(t, "aws-secret-key-xyz", s.AWS.SecretAccessKey)
	assert.Empty(t, s.LlamaKey)
}

func TestAppSettings_DecryptWithWrongPassphrase(t *testing.T) {
	s := &AppSettings{OpenAIKey: "sk-openai-1234567890"}
	require.NoError(t, s.EncryptSecretKeys(testPassphrase))

	err := s.DecryptSecretKeys("wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai_key")
}

func TestAppSettings_Masked(t *testing.T) {
	s := AppSettings{
		OpenAIKey:          "sk-openai-1234567890",
		EncryptedOpenAIKey: "deadbeef",
		SMTP:               SMTPSettings{Host: "smtp.test", Password: "smtp-pass-123"},
	}

	masked := s.Masked()

	assert.Equal(t, crypto.MaskPrefix+"7890", masked.OpenAIKey)
	assert.Empty(t, masked.EncryptedOpenAIKey)
	assert.Equal(t, crypto.MaskPrefix+"-123", masked.SMTP.Password)
	assert.Equal(t, "smtp.test", masked.SMTP.Host)

	assert.Equal(t, "sk-openai-1234567890", s.OpenAIKey, "original is untouched")
	assert.Equal(t, "smtp-pass-123", s.SMTP.Password)
}

func TestAppSettings_MergeSecrets(t *testing.T) {
	previous := &AppSettings{
		OpenAIKey:  "sk-openai-1234567890",
		MistralKey: "mistral-abcdefghij",
		HeyGenKey:  "heygen-old",
		SMTP:       SMTPSettings{Password: "smtp-pass-123"},
	}

	incoming := previous.Masked()
	incoming.MistralKey = ""
	incoming.HeyGenKey = " heygen-new "

	incoming.MergeSecrets(previous)

	assert.Equal(t, "sk-openai-1234567890", incoming.OpenAIKey, "masked value keeps secret")
	assert.Equal(t, "mistral-abcdefghij", incoming.MistralKey, "empty value keeps secret")
	assert.Equal(t, "heygen-new", incoming.HeyGenKey, "new value replaces secret")
	assert.Equal(t, "smtp-pass-123", incoming.SMTP.Password)
}

func TestAppSettings_APIKey(t *testing.T) {
	s := &AppSettings{OpenAIKey: "o", MistralKey: "m", LlamaKey: "l"}
	assert.Equal(t, "o", s.APIKey(AssistantOpenAI))
	assert.Equal(t, "m", s.APIKey(AssistantMistral))
	assert.Equal(t, "l", s.APIKey(AssistantLlama))
	assert.Empty(t, s.APIKey("other"))
}

func TestAppSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		s       AppSettings
		wantErr bool
	}{
		{"empty is valid", AppSettings{}, false},
		{"bad assistant", AppSettings{DefaultAssistant: "gpt"}, true},
		{"bad llama url", AppSettings{LlamaBaseURL: "not a url"}, true},
		{"bad port", AppSettings{SMTP: SMTPSettings{Port: 70000}}, true},
		{"bad from", AppSettings{SMTP: SMTPSettings{FromEmail: "nope"}}, true},
		{"valid", AppSettings{DefaultAssistant: AssistantMistral, LlamaBaseURL: "https://llama.example.com/v1", SMTP: SMTPSettings{Port: 587, FromEmail: "no-reply@example.com"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.s.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
