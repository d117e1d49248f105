package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/pkg/cache"
	"github.com/simulai/simulai/pkg/liquid"
	"github.com/simulai/simulai/pkg/logger"
)

const settingsCacheTTL = 5 * time.Minute

// SettingService stores AppSettings as one encrypted JSON row and keeps a
// decrypted copy in memory until the next update
type SettingService struct {
	repo      domain.SettingRepository
	secretKey string
	cache     cache.Store[domain.AppSettings]
	templates *liquid.Renderer
	logger    logger.Logger
	now       func() time.Time
}

func NewSettingService(repo domain.SettingRepository, secretKey string, templates *liquid.Renderer, logger logger.Logger) *SettingService {
	if templates == nil {
		templates = liquid.NewRenderer()
	}
	return &SettingService{
		repo:      repo,
		secretKey: secretKey,
		cache:     cache.NewInMemoryCache[domain.AppSettings](0),
		templates: templates,
		logger:    logger,
		now:       time.Now,
	}
}

// GetSettings returns the decrypted settings. A missing row yields empty settings.
func (s *SettingService) GetSettings(ctx context.Context) (*domain.AppSettings, error) {
	settings, err := s.cache.GetOrSet(domain.AppSettingsKey, settingsCacheTTL, func() (domain.AppSettings, error) {
		return s.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *SettingService) load(ctx context.Context) (domain.AppSettings, error) {
	var settings domain.AppSettings

	row, err := s.repo.Get(ctx, domain.AppSettingsKey)
	if err != nil {
		var notFound *domain.ErrSettingNotFound
		if errors.As(err, &notFound) {
			return settings, nil
		}
		return settings, err
	}

	if err := json.Unmarshal([]byte(row.Value), &settings); err != nil {
		return settings, fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := settings.DecryptSecretKeys(s.secretKey); err != nil {
		return settings, err
	}
	return settings, nil
}

func (s *SettingService) GetMaskedSettings(ctx context.Context) (*domain.AppSettings, error) {
	if _, err := requireRole(ctx, "settings", "read", domain.RoleAdmin); err != nil {
		return nil, err
	}
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	masked := settings.Masked()
	return &masked, nil
}

// UpdateSettings replaces the settings. Secrets left empty or masked keep
// their stored value.
func (s *SettingService) UpdateSettings(ctx context.Context, settings domain.AppSettings) (*domain.AppSettings, error) {
	p, err := requireRole(ctx, "settings", "update", domain.RoleAdmin)
	if err != nil {
		return nil, err
	}

	previous, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	settings.MergeSecrets(previous)
	settings.LlamaBaseURL = strings.TrimRight(strings.TrimSpace(settings.LlamaBaseURL), "/")
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(settings.ReportPromptTemplate) != "" {
		if err := s.templates.Validate(settings.ReportPromptTemplate); err != nil {
			return nil, domain.NewValidationError("report_prompt_template: " + err.Error())
		}
	}
	settings.UpdatedAt = s.now().UTC()

	stored := settings
	if err := stored.EncryptSecretKeys(s.secretKey); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := s.repo.Set(ctx, domain.AppSettingsKey, string(payload)); err != nil {
		return nil, err
	}
	s.cache.Delete(domain.AppSettingsKey)

	s.logger.WithField("user_id", p.UserID).Info("Settings updated")
	masked := settings.Masked()
	return &masked, nil
}
