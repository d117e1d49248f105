package service

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/internal/domain/mocks"
	"github.com/simulai/simulai/pkg/crypto"
	"github.com/simulai/simulai/pkg/logger"
)

const testSecretKey = "settings-secret-key"

func setupSettingTest(t *testing.T) (*mocks.MockSettingRepository, *SettingService) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockSettingRepository(ctrl)
	return repo, NewSettingService(repo, testSecretKey, nil, logger.NewTestLogger(t))
}

func TestSettingService_UpdateAndRead(t *testing.T) {
	repo, svc := setupSettingTest(t)

	var stored string
	repo.EXPECT().Get(gomock.Any(), domain.AppSettingsKey).Return(nil, &domain.ErrSettingNotFound{Key: domain.AppSettingsKey})
	repo.EXPECT().Set(gomock.Any(), domain.AppSettingsKey, gomock.Any()).DoAndReturn(func(_ context.Context, _, value string) error {
		stored = value
		return nil
	})

	masked, err := svc.UpdateSettings(asAdmin(), domain.AppSettings{
		OpenAIKey:        "sk-abcdefghijkl",
		DefaultAssistant: domain.AssistantOpenAI,
		LlamaBaseURL:     "https://llama.example.com/",
		SMTP:             domain.SMTPSettings{Host: "smtp.example.com", Port: 587, FromEmail: "noreply@example.com", Password: "smtp-password"},
	})
	require.NoError(t, err)
	assert.Equal(t, crypto.MaskSecret("sk-abcdefghijkl"), masked.OpenAIKey)
	assert.Empty(t, masked.EncryptedOpenAIKey)
	assert.Equal(t, "https://llama.example.com", masked.LlamaBaseURL)

	assert.NotContains(t, stored, "sk-abcdefghijkl")
	assert.NotContains(t, stored, "smtp-password")
	assert.Contains(t, stored, "encrypted_openai_key")

	// the cache was invalidated, the stored row is read back and decrypted
	repo.EXPECT().Get(gomock.Any(), domain.AppSettingsKey).Return(&domain.Setting{Key: domain.AppSettingsKey, Value: stored}, nil)
	settings, err := svc.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sk-abcdefghijkl", settings.OpenAIKey)
	assert.Equal(t, "smtp-password", settings.SMTP.Password)

	// served from cache
	again, err := svc.GetSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, settings, again)

	t.Run("masked values keep stored secrets", func(t *testing.T) {
		repo.EXPECT().Set(gomock.Any(), domain.AppSettingsKey, gomock.Any()).DoAndReturn(func(_ context.Context, _, value string) error {
			stored = value
			return nil
		})
		_, err := svc.UpdateSettings(asAdmin(), domain.AppSettings{
			OpenAIKey:  masked.OpenAIKey,
			MistralKey: "mistral-key-123456",
		})
		require.NoError(t, err)

		repo.EXPECT().Get(gomock.Any(), domain.AppSettingsKey).Return(&domain.Setting{Value: stored}, nil)
		settings, err := svc.GetSettings(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "sk-abcdefghijkl", settings.OpenAIKey)
		assert.Equal(t, "mistral-key-123456", settings.MistralKey)
		assert.Equal(t, "smtp-password", settings.SMTP.Password)
	})
}

func TestSettingService_Validation(t *testing.T) {
	repo, svc := setupSettingTest(t)
	repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, &domain.ErrSettingNotFound{}).AnyTimes()

	_, err := svc.UpdateSettings(asAdmin(), domain.AppSettings{DefaultAssistant: "gemini"})
	assert.IsType(t, domain.ValidationError{}, err)

	_, err = svc.UpdateSettings(asAdmin(), domain.AppSettings{ReportPromptTemplate: "{% if scenario %}never closed"})
	assert.IsType(t, domain.ValidationError{}, err)

	_, err = svc.UpdateSettings(asCompany("c1"), domain.AppSettings{})
	assert.IsType(t, &domain.PermissionError{}, err)

	_, err = svc.GetMaskedSettings(asUser("u1"))
	assert.IsType(t, &domain.PermissionError{}, err)
}

func TestSettingService_CorruptRow(t *testing.T) {
	repo, svc := setupSettingTest(t)
	repo.EXPECT().Get(gomock.Any(), domain.AppSettingsKey).Return(&domain.Setting{Value: "{not json"}, nil)

	_, err := svc.GetSettings(context.Background())
	assert.ErrorContains(t, err, "failed to decode settings")
}
