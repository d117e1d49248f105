package service

import (
	"context"
	"strings"

	"github.com/simulai/simulai/config"
	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/pkg/logger"
	"github.com/simulai/simulai/pkg/mailer"
)

// settingsProvider is satisfied by SettingService
type settingsProvider interface {
	GetSettings(ctx context.Context) (*domain.AppSettings, error)
}

type EmailService struct {
	settings    settingsProvider
	fallback    config.SMTPConfig
	frontendURL string
	logger      logger.Logger
	metrics     *Metrics
	// newMailer builds the SMTP mailer, replaced in tests
	newMailer func(cfg *mailer.Config) mailer.Mailer
}

func NewEmailService(settings settingsProvider, fallback config.SMTPConfig, frontendURL string, logger logger.Logger, metrics *Metrics) *EmailService {
	if metrics == nil {
		metrics = NewNopMetrics()
	}
	return &EmailService{
		settings:    settings,
		fallback:    fallback,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger,
		metrics:     metrics,
		newMailer: func(cfg *mailer.Config) mailer.Mailer {
			return mailer.NewSMTPMailer(cfg)
		},
	}
}

// mailer picks the SMTP server from the settings, then the environment, and
// prints to the console when neither is configured
func (s *EmailService) mailer(ctx context.Context) (mailer.Mailer, error) {
	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	if settings.SMTP.Configured() {
		return s.newMailer(&mailer.Config{
			SMTPHost:     settings.SMTP.Host,
			SMTPPort:     settings.SMTP.Port,
			SMTPUsername: settings.SMTP.Username,
			SMTPPassword: settings.SMTP.Password,
			FromEmail:    settings.SMTP.FromEmail,
			FromName:     settings.SMTP.FromName,
		}), nil
	}
	if s.fallback.Host != "" {
		return s.newMailer(&mailer.Config{
			SMTPHost:     s.fallback.Host,
			SMTPPort:     s.fallback.Port,
			SMTPUsername: s.fallback.Username,
			SMTPPassword: s.fallback.Password,
			FromEmail:    s.fallback.FromEmail,
			FromName:     s.fallback.FromName,
		}), nil
	}
	return mailer.NewConsoleMailer(), nil
}

func (s *EmailService) SendEmail(ctx context.Context, req domain.SendEmailRequest) error {
	p, err := requireRole(ctx, "email", "send", domain.RoleAdmin, domain.RoleCompany)
	if err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}
	m, err := s.mailer(ctx)
	if err != nil {
		return err
	}

	err = m.Send(ctx, mailer.Message{To: req.To, Subject: req.Subject, HTML: req.HTML, Text: req.Text})
	s.metrics.EmailsSent.WithLabelValues("custom", outcome(err)).Inc()
	if err != nil {
		s.logger.WithField("sent_by", p.UserID).WithField("error", err.Error()).Error("Failed to send email")
		return err
	}
	return nil
}

func (s *EmailService) SendPasswordReset(ctx context.Context, user *domain.User, resetURL string) error {
	m, err := s.mailer(ctx)
	if err != nil {
		return err
	}
	err = m.SendPasswordReset(ctx, user.Email, user.FullName(), resetURL)
	s.metrics.EmailsSent.WithLabelValues("password_reset", outcome(err)).Inc()
	return err
}

func (s *EmailService) SendScenarioAssigned(ctx context.Context, user *domain.User, scenario *domain.Scenario) error {
	m, err := s.mailer(ctx)
	if err != nil {
		return err
	}
	scenarioURL := s.frontendURL + "/scenarios/" + scenario.ID
	err = m.SendScenarioAssigned(ctx, user.Email, user.FullName(), scenario.Title, scenarioURL)
	s.metrics.EmailsSent.WithLabelValues("scenario_assigned", outcome(err)).Inc()
	return err
}
