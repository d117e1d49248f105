package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/simulai/simulai/pkg/crypto"
)

//go:generate mockgen -destination mocks/mock_setting_repository.go -package mocks github.com/simulai/simulai/internal/domain SettingRepository
//go:generate mockgen -destination mocks/mock_setting_service.go -package mocks github.com/simulai/simulai/internal/domain SettingService

// AppSettingsKey is the row of the settings table holding AppSettings
const AppSettingsKey = "app_settings"

// Setting represents a system setting
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SettingRepository defines the interface for setting-related database operations
type SettingRepository interface {
	// Get retrieves a setting by key
	Get(ctx context.Context, key string) (*Setting, error)

	// Set creates or updates a setting
	Set(ctx context.Context, key, value string) error

	// Delete removes a setting by key
	Delete(ctx context.Context, key string) error
}

// ErrSettingNotFound is returned when a setting is not found
type ErrSettingNotFound struct {
	Key string
}

func (e *ErrSettingNotFound) Error() string {
	return "setting not found: " + e.Key
}

type SMTPSettings struct {
	Host              string `json:"host"`
	Port              int    `json:"port"`
	Username          string `json:"username"`
	EncryptedPassword string `json:"encrypted_password,omitempty"`
	FromEmail         string `json:"from_email"`
	FromName          string `json:"from_name"`

	Password string `json:"password,omitempty"`
}

func (s *SMTPSettings) Configured() bool {
	return s.Host != "" && s.FromEmail != ""
}

type AWSSettings struct {
	Region                   string `json:"region"`
	Bucket                   string `json:"bucket"`
	AccessKeyID              string `json:"access_key_id"`
	EncryptedSecretAccessKey string `json:"encrypted_secret_access_key,omitempty"`
	Endpoint                 string `json:"endpoint,omitempty"`

	SecretAccessKey string `json:"secret_access_key,omitempty"`
}

func (a *AWSSettings) Configured() bool {
	return a.Bucket != "" && a.Region != ""
}

// AppSettings is the singleton configuration edited from the dashboard.
// Each secret has an Encrypted* twin; only the encrypted one is persisted.
type AppSettings struct {
	EncryptedOpenAIKey  string `json:"encrypted_openai_key,omitempty"`
	EncryptedMistralKey string `json:"encrypted_mistral_key,omitempty"`
	EncryptedLlamaKey   string `json:"encrypted_llama_key,omitempty"`
	EncryptedHeyGenKey  string `json:"encrypted_heygen_key,omitempty"`

	OpenAIKey  string `json:"openai_key,omitempty"`
	MistralKey string `json:"mistral_key,omitempty"`
	LlamaKey   string `json:"llama_key,omitempty"`
	HeyGenKey  string `json:"heygen_key,omitempty"`

	LlamaBaseURL         string        `json:"llama_base_url,omitempty"`
	DefaultAssistant     AssistantKind `json:"default_assistant,omitempty"`
	ReportPromptTemplate string        `json:"report_prompt_template,omitempty"`

	SMTP SMTPSettings `json:"smtp"`
	AWS  AWSSettings  `json:"aws"`

	UpdatedAt time.Time `json:"updated_at"`
}

type secretField struct {
	plain     *string
	encrypted *string
	name      string
}

func (s *AppSettings) secrets() []secretField {
	return []secretField{
		{&s.OpenAIKey, &s.EncryptedOpenAIKey, "openai_key"},
		{&s.MistralKey, &s.EncryptedMistralKey, "mistral_key"},
		{&s.LlamaKey, &s.EncryptedLlamaKey, "llama_key"},
		{&s.HeyGenKey, &s.EncryptedHeyGenKey, "heygen_key"},
		{&s.SMTP.Password, &s.SMTP.EncryptedPassword, "smtp.password"},
		{&s.AWS.SecretAccessKey, &s.AWS.EncryptedSecretAccessKey, "aws.secret_access_key"},
	}
}

// EncryptSecretKeys encrypts every plain secret into its twin and clears the plain value
func (s *AppSettings) EncryptSecretKeys(passphrase string) error {
	for _, f := range s.secrets() {
		if *f.plain == "" {
			*f.encrypted = ""
			continue
		}
		enc, err := crypto.EncryptString(*f.plain, passphrase)
		if err != nil {
			return fmt.Errorf("failed to encrypt %s: %w", f.name, err)
		}
		*f.encrypted = enc
		*f.plain = ""
	}
	return nil
}

// DecryptSecretKeys fills the plain secrets from their encrypted twins
func (s *AppSettings) DecryptSecretKeys(passphrase string) error {
	for _, f := range s.secrets() {
		if *f.encrypted == "" {
			*f.plain = ""
			continue
		}
		dec, err := crypto.DecryptFromHexString(*f.encrypted, passphrase)
		if err != nil {
			return fmt.Errorf("failed to decrypt %s: %w", f.name, err)
		}
		*f.plain = dec
	}
	return nil
}

// Masked returns a copy safe to send to clients
func (s AppSettings) Masked() AppSettings {
	out := s
	for _, f := range out.secrets() {
		*f.plain = crypto.MaskSecret(*f.plain)
		*f.encrypted = ""
	}
	return out
}

// MergeSecrets keeps the secrets of previous when the incoming value is
// empty or still the masked placeholder sent by GET
func (s *AppSettings) MergeSecrets(previous *AppSettings) {
	if previous == nil {
		return
	}
	prev := previous.secrets()
	for i, f := range s.secrets() {
		v := strings.TrimSpace(*f.plain)
		if v == "" || crypto.IsMasked(v) {
			*f.plain = *prev[i].plain
		} else {
			*f.plain = v
		}
	}
}

// APIKey returns the key configured for an assistant
func (s *AppSettings) APIKey(kind AssistantKind) string {
	switch kind {
	case AssistantOpenAI:
		return s.OpenAIKey
	case AssistantMistral:
		return s.MistralKey
	case AssistantLlama:
		return s.LlamaKey
	}
	return ""
}

func (s *AppSettings) Validate() error {
	if s.DefaultAssistant != "" && !s.DefaultAssistant.Valid() {
		return NewValidationError(fmt.Sprintf("unknown assistant: %s", s.DefaultAssistant))
	}
	if s.LlamaBaseURL != "" && !govalidator.IsURL(s.LlamaBaseURL) {
		return NewValidationError("llama_base_url must be a valid URL")
	}
	if s.SMTP.Port < 0 || s.SMTP.Port > 65535 {
		return NewValidationError("smtp.port must be between 0 and 65535")
	}
	if s.SMTP.FromEmail != "" && !govalidator.IsEmail(s.SMTP.FromEmail) {
		return NewValidationError("smtp.from_email must be a valid email")
	}
	if s.AWS.Endpoint != "" && !govalidator.IsURL(s.AWS.Endpoint) {
		return NewValidationError("aws.endpoint must be a valid URL")
	}
	return nil
}

type SettingService interface {
	// GetSettings returns the decrypted settings, for internal use
	GetSettings(ctx context.Context) (*AppSettings, error)
	// GetMaskedSettings returns the settings with secrets masked
	GetMaskedSettings(ctx context.Context) (*AppSettings, error)
	UpdateSettings(ctx context.Context, settings AppSettings) (*AppSettings, error)
}
