package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/pkg/logger"
	"github.com/simulai/simulai/pkg/tracing"
)

// MaxScenarioFiles caps the knowledge documents of a scenario
const MaxScenarioFiles = 20

type ScenarioService struct {
	repo    domain.ScenarioRepository
	users   domain.UserRepository
	access  scenarioAccess
	storage domain.FileStorage
	emails  domain.EmailService
	logger  logger.Logger
	metrics *Metrics
	now     func() time.Time
}

type ScenarioServiceConfig struct {
	Scenarios domain.ScenarioRepository
	Users     domain.UserRepository
	Storage   domain.FileStorage
	Emails    domain.EmailService
	Logger    logger.Logger
	Metrics   *Metrics
}

func NewScenarioService(cfg ScenarioServiceConfig) *ScenarioService {
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewNopMetrics()
	}
	return &ScenarioService{
		repo:    cfg.Scenarios,
		users:   cfg.Users,
		access:  scenarioAccess{scenarios: cfg.Scenarios, users: cfg.Users},
		storage: cfg.Storage,
		emails:  cfg.Emails,
		logger:  cfg.Logger,
		metrics: metrics,
		now:     time.Now,
	}
}

func (s *ScenarioService) ListScenarios(ctx context.Context, filter domain.ScenarioFilter) ([]*domain.Scenario, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	switch {
	case p.IsAdmin():
	case p.IsCompany():
		if p.CompanyID == "" {
			filter.CompanyID = ""
			scenarios, err := s.repo.ListScenarios(ctx, filter)
			if err != nil {
				return nil, err
			}
			return createdBy(scenarios, p.UserID), nil
		}
		filter.CompanyID = p.CompanyID
	default:
		filter.UserIDAssigned = p.UserID
		filter.ExcludeDrafts = true
		filter.CompanyID = ""
	}
	return s.repo.ListScenarios(ctx, filter)
}

func createdBy(scenarios []*domain.Scenario, userID string) []*domain.Scenario {
	out := make([]*domain.Scenario, 0, len(scenarios))
	for _, sc := range scenarios {
		if sc.UserIDCreated == userID {
			out = append(out, sc)
		}
	}
	return out
}

func (s *ScenarioService) GetScenario(ctx context.Context, id string) (*domain.Scenario, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	return s.access.load(ctx, p, id)
}

func (s *ScenarioService) CreateScenario(ctx context.Context, input domain.ScenarioInput) (*domain.Scenario, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "ScenarioService", "CreateScenario")
	defer span.End()

	p, err := requireRole(ctx, "scenarios", "create", domain.RoleAdmin, domain.RoleCompany)
	if err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	assignee, err := s.assignee(ctx, p, input.UserIDAssigned)
	if err != nil {
		return nil, err
	}

	scenario := &domain.Scenario{
		Title:          input.Title,
		Description:    input.Description,
		Context:        input.Context,
		Status:         input.Status,
		UserIDAssigned: input.UserIDAssigned,
		UserIDCreated:  p.UserID,
		Aspects:        input.Aspects,
		Files:          domain.ScenarioFiles{},
		Avatar:         input.Avatar,
		TimeLimit:      input.TimeLimit,
	}
	if err := s.repo.CreateScenario(ctx, scenario); err != nil {
		tracing.EndSpan(span, err)
		return nil, err
	}

	if assignee != nil && scenario.Status != domain.ScenarioStatusDraft {
		s.notifyAssignee(ctx, assignee, scenario)
	}
	s.logger.WithField("scenario_id", scenario.ID).WithField("created_by", p.UserID).Info("Scenario created")
	return scenario, nil
}

func (s *ScenarioService) UpdateScenario(ctx context.Context, id string, input domain.ScenarioInput) (*domain.Scenario, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	scenario, err := s.access.loadManaged(ctx, p, id, "update")
	if err != nil {
		return nil, err
	}

	wasVisible := scenario.UserIDAssigned != "" && scenario.Status != domain.ScenarioStatusDraft
	previousAssignee := scenario.UserIDAssigned

	var assignee *domain.User
	if input.UserIDAssigned != scenario.UserIDAssigned || !wasVisible {
		if assignee, err = s.assignee(ctx, p, input.UserIDAssigned); err != nil {
			return nil, err
		}
	}

	scenario.Title = input.Title
	scenario.Description = input.Description
	scenario.Context = input.Context
	scenario.Status = input.Status
	scenario.UserIDAssigned = input.UserIDAssigned
	scenario.Aspects = input.Aspects
	scenario.Avatar = input.Avatar
	scenario.TimeLimit = input.TimeLimit

	if err := s.repo.UpdateScenario(ctx, scenario); err != nil {
		return nil, err
	}

	nowVisible := scenario.UserIDAssigned != "" && scenario.Status != domain.ScenarioStatusDraft
	if assignee != nil && nowVisible && (!wasVisible || previousAssignee != scenario.UserIDAssigned) {
		s.notifyAssignee(ctx, assignee, scenario)
	}
	return scenario, nil
}

func (s *ScenarioService) DeleteScenario(ctx context.Context, id string) error {
	ctx, span := tracing.StartServiceSpan(ctx, "ScenarioService", "DeleteScenario")
	defer span.End()

	p, err := requirePrincipal(ctx)
	if err != nil {
		return err
	}
	scenario, err := s.access.loadManaged(ctx, p, id, "delete")
	if err != nil {
		return err
	}
	if err := s.repo.DeleteScenario(ctx, id); err != nil {
		tracing.EndSpan(span, err)
		return err
	}

	for _, f := range scenario.Files {
		s.deleteObject(ctx, id, f.Key)
	}
	s.logger.WithField("scenario_id", id).WithField("deleted_by", p.UserID).Info("Scenario deleted")
	return nil
}

// AddFiles uploads every file and appends them to the scenario. Uploads
// already stored are removed again when a later one fails.
func (s *ScenarioService) AddFiles(ctx context.Context, id string, files []domain.Upload) (*domain.Scenario, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "ScenarioService", "AddFiles")
	defer span.End()

	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, domain.NewValidationError("at least one file is required")
	}
	scenario, err := s.access.loadManaged(ctx, p, id, "update")
	if err != nil {
		return nil, err
	}
	if s.storage == nil {
		return nil, domain.ErrStorageNotConfigured
	}
	if len(scenario.Files)+len(files) > MaxScenarioFiles {
		return nil, domain.NewValidationError(fmt.Sprintf("a scenario can have at most %d files", MaxScenarioFiles))
	}

	var added domain.ScenarioFiles
	rollback := func() {
		for _, f := range added {
			s.deleteObject(ctx, id, f.Key)
		}
	}

	for _, file := range files {
		if file.Size > domain.MaxUploadSize {
			rollback()
			return nil, domain.NewValidationError(fmt.Sprintf("%s is too large", file.Filename))
		}
		name := safeFilename(file.Filename)
		key := fmt.Sprintf("scenarios/%s/%s-%s", id, uuid.NewString(), name)
		obj, err := s.storage.Upload(ctx, key, file)
		if err != nil {
			rollback()
			tracing.EndSpan(span, err)
			return nil, fmt.Errorf("failed to upload %s: %w", name, err)
		}
		s.metrics.Uploads.WithLabelValues("scenario_file").Inc()
		added = append(added, domain.ScenarioFile{
			Name:        name,
			Key:         obj.Key,
			URL:         obj.URL,
			ContentType: obj.ContentType,
			Size:        obj.Size,
			UploadedAt:  s.now().UTC(),
		})
	}

	scenario.Files = append(scenario.Files, added...)
	if err := s.repo.UpdateScenario(ctx, scenario); err != nil {
		rollback()
		return nil, err
	}
	return scenario, nil
}

func (s *ScenarioService) RemoveFile(ctx context.Context, id, key string) (*domain.Scenario, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	scenario, err := s.access.loadManaged(ctx, p, id, "update")
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, f := range scenario.Files {
		if f.Key == key {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, domain.NewNotFoundError("file", key)
	}

	files := make(domain.ScenarioFiles, 0, len(scenario.Files)-1)
	files = append(files, scenario.Files[:idx]...)
	scenario.Files = append(files, scenario.Files[idx+1:]...)
	if err := s.repo.UpdateScenario(ctx, scenario); err != nil {
		return nil, err
	}
	s.deleteObject(ctx, id, key)
	return scenario, nil
}

// assignee checks the user a scenario is assigned to. Company managers can
// only assign users of their own company.
func (s *ScenarioService) assignee(ctx context.Context, p *domain.Principal, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, nil
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.NewValidationError("assigned user does not exist: " + userID)
		}
		return nil, err
	}
	if p.IsCompany() && (p.CompanyID == "" || user.CompanyID != p.CompanyID) {
		return nil, domain.NewPermissionError("scenarios", "assign", "you can only assign scenarios to users of your company")
	}
	return user, nil
}

func (s *ScenarioService) notifyAssignee(ctx context.Context, user *domain.User, scenario *domain.Scenario) {
	if s.emails == nil {
		return
	}
	if err := s.emails.SendScenarioAssigned(ctx, user, scenario); err != nil {
		s.logger.WithFields(map[string]interface{}{
			"scenario_id": scenario.ID,
			"user_id":     user.ID,
			"error":       err.Error(),
		}).Warn("Failed to send scenario assignment email")
	}
}

func (s *ScenarioService) deleteObject(ctx context.Context, scenarioID, key string) {
	if s.storage == nil || key == "" {
		return
	}
	if err := s.storage.Delete(ctx, key); err != nil {
		s.logger.WithFields(map[string]interface{}{
			"scenario_id": scenarioID,
			"key":         key,
			"error":       err.Error(),
		}).Warn("Failed to delete scenario file")
	}
}

// safeFilename keeps the base name and drops characters that break object keys
func safeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '?' || r == '#' || r == '%' || r < 0x20:
			return -1
		case r == ' ':
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return "file"
	}
	return name
}
