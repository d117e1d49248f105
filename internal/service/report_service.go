package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/pkg/liquid"
	"github.com/simulai/simulai/pkg/logger"
	"github.com/simulai/simulai/pkg/tracing"
)

const (
	reportMaxTokens   = 2000
	reportTemperature = 0.3
)

type ReportService struct {
	reports       domain.ReportRepository
	conversations domain.ConversationRepository
	access        scenarioAccess
	settings      settingsProvider
	assistants    domain.AssistantFactory
	prompt        reportPrompt
	logger        logger.Logger
	metrics       *Metrics
	now           func() time.Time
}

type ReportServiceConfig struct {
	Reports       domain.ReportRepository
	Conversations domain.ConversationRepository
	Scenarios     domain.ScenarioRepository
	Users         domain.UserRepository
	Settings      settingsProvider
	Assistants    domain.AssistantFactory
	Templates     *liquid.Renderer
	Logger        logger.Logger
	Metrics       *Metrics
}

func NewReportService(cfg ReportServiceConfig) *ReportService {
	templates := cfg.Templates
	if templates == nil {
		templates = liquid.NewRenderer()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewNopMetrics()
	}
	return &ReportService{
		reports:       cfg.Reports,
		conversations: cfg.Conversations,
		access:        scenarioAccess{scenarios: cfg.Scenarios, users: cfg.Users},
		settings:      cfg.Settings,
		assistants:    cfg.Assistants,
		prompt:        reportPrompt{renderer: templates},
		logger:        cfg.Logger,
		metrics:       metrics,
		now:           time.Now,
	}
}

// GenerateReport asks the assistant to evaluate the given conversations of a
// scenario and stores its answer with the aspect scores found in it
func (s *ReportService) GenerateReport(ctx context.Context, scenarioID string, req domain.GenerateReportRequest) (*domain.Report, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "ReportService", "GenerateReport")
	defer span.End()

	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var (
		scenario      *domain.Scenario
		conversations []*domain.Conversation
		settings      *domain.AppSettings
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		scenario, err = s.access.load(gctx, p, scenarioID)
		return err
	})
	g.Go(func() error {
		var err error
		conversations, err = s.conversations.ListConversations(gctx, domain.ConversationFilter{IDs: req.ConversationIDs})
		return err
	})
	g.Go(func() error {
		var err error
		settings, err = s.settings.GetSettings(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		tracing.EndSpan(span, err)
		return nil, err
	}

	userID, err := s.checkConversations(p, scenarioID, req, conversations)
	if err != nil {
		return nil, err
	}

	kind := req.Assistant
	if kind == "" {
		kind = settings.DefaultAssistant
	}
	if kind == "" {
		kind = domain.AssistantOpenAI
	}

	prompt, err := s.prompt.render(ctx, settings.ReportPromptTemplate, scenario, conversations)
	if err != nil {
		return nil, err
	}
	assistant, model, err := s.assistants.Assistant(ctx, kind)
	if err != nil {
		return nil, err
	}

	content, err := assistant.Complete(ctx, domain.CompletionRequest{
		System:      reportSystemPrompt,
		Prompt:      prompt,
		Model:       model,
		MaxTokens:   reportMaxTokens,
		Temperature: reportTemperature,
	})
	s.metrics.ReportsGenerated.WithLabelValues(string(kind), outcome(err)).Inc()
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"scenario_id": scenarioID,
			"assistant":   string(kind),
			"error":       err.Error(),
		}).Error("Report generation failed")
		tracing.EndSpan(span, err)
		return nil, err
	}

	report := &domain.Report{
		ScenarioID:      scenarioID,
		UserID:          userID,
		Title:           fmt.Sprintf("%s - %s", scenario.Title, s.now().Format("2006-01-02")),
		Content:         content,
		ConversationIDs: req.ConversationIDs,
		Assistant:       kind,
		Scores:          domain.ExtractAspectScores(content, scenario.Aspects),
		CreatedBy:       p.UserID,
	}
	if err := s.reports.CreateReport(ctx, report); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"report_id":   report.ID,
		"scenario_id": scenarioID,
		"assistant":   string(kind),
	}).Info("Report generated")
	return report, nil
}

// checkConversations verifies the conversations exist, belong to the
// scenario and to the caller when it is a trainee. It returns the user the
// report is about.
func (s *ReportService) checkConversations(p *domain.Principal, scenarioID string, req domain.GenerateReportRequest, conversations []*domain.Conversation) (string, error) {
	found := make(map[string]*domain.Conversation, len(conversations))
	for _, c := range conversations {
		found[c.ID] = c
	}

	owner := ""
	for i, id := range req.ConversationIDs {
		c, ok := found[id]
		if !ok {
			return "", domain.NewNotFoundError("conversation", id)
		}
		if c.ScenarioID != scenarioID {
			return "", domain.NewValidationError(fmt.Sprintf("conversation %s does not belong to this scenario", id))
		}
		if !p.HasRole(domain.RoleAdmin, domain.RoleCompany) && c.UserID != p.UserID {
			return "", domain.NewNotFoundError("conversation", id)
		}
		if i == 0 {
			owner = c.UserID
		} else if owner != c.UserID {
			owner = ""
		}
	}

	if req.UserID != "" {
		if !p.HasRole(domain.RoleAdmin, domain.RoleCompany) && req.UserID != p.UserID {
			return "", domain.NewPermissionError("reports", "create", "you can only create reports about yourself")
		}
		return req.UserID, nil
	}
	return owner, nil
}

func (s *ReportService) ListReports(ctx context.Context, scenarioID string) ([]*domain.Report, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.load(ctx, p, scenarioID); err != nil {
		return nil, err
	}
	filter := domain.ReportFilter{ScenarioID: scenarioID}
	if !p.HasRole(domain.RoleAdmin, domain.RoleCompany) {
		filter.UserID = p.UserID
	}
	return s.reports.ListReports(ctx, filter)
}

func (s *ReportService) GetReport(ctx context.Context, id string) (*domain.Report, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	report, err := s.reports.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.HasRole(domain.RoleAdmin, domain.RoleCompany) && report.UserID != p.UserID {
		return nil, domain.NewNotFoundError("report", id)
	}
	if _, err := s.access.load(ctx, p, report.ScenarioID); err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.NewNotFoundError("report", id)
		}
		return nil, err
	}
	return report, nil
}

func (s *ReportService) DeleteReport(ctx context.Context, id string) error {
	if _, err := requireRole(ctx, "reports", "delete", domain.RoleAdmin, domain.RoleCompany); err != nil {
		return err
	}
	if _, err := s.GetReport(ctx, id); err != nil {
		return err
	}
	return s.reports.DeleteReport(ctx, id)
}

func (s *ReportService) ExportReport(ctx context.Context, id string, format domain.ExportFormat) (*domain.ExportedFile, error) {
	report, err := s.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	switch format {
	case domain.ExportFormatPDF, "":
		return exportPDF(report)
	case domain.ExportFormatDoc:
		return exportDoc(report), nil
	default:
		return nil, domain.NewValidationError(fmt.Sprintf("unsupported export format: %s", format))
	}
}
