package service

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/pkg/logger"
	"github.com/simulai/simulai/pkg/tracing"
)

var logoExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".svg":  true,
	".webp": true,
}

type CompanyService struct {
	repo    domain.CompanyRepository
	storage domain.FileStorage
	logger  logger.Logger
	metrics *Metrics
}

func NewCompanyService(repo domain.CompanyRepository, storage domain.FileStorage, logger logger.Logger, metrics *Metrics) *CompanyService {
	if metrics == nil {
		metrics = NewNopMetrics()
	}
	return &CompanyService{repo: repo, storage: storage, logger: logger, metrics: metrics}
}

func (s *CompanyService) ListCompanies(ctx context.Context) ([]*domain.Company, error) {
	p, err := requireRole(ctx, "companies", "list", domain.RoleAdmin, domain.RoleCompany)
	if err != nil {
		return nil, err
	}
	if p.IsAdmin() {
		return s.repo.ListCompanies(ctx)
	}
	if p.CompanyID == "" {
		return []*domain.Company{}, nil
	}
	company, err := s.repo.GetCompany(ctx, p.CompanyID)
	if err != nil {
		if domain.IsNotFound(err) {
			return []*domain.Company{}, nil
		}
		return nil, err
	}
	return []*domain.Company{company}, nil
}

func (s *CompanyService) GetCompany(ctx context.Context, id string) (*domain.Company, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	// trainees may read the company they belong to, for branding
	if !p.IsAdmin() && p.CompanyID != id {
		return nil, domain.NewNotFoundError("company", id)
	}
	return s.repo.GetCompany(ctx, id)
}

func (s *CompanyService) CreateCompany(ctx context.Context, input domain.CompanyInput) (*domain.Company, error) {
	p, err := requireRole(ctx, "companies", "create", domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	company := &domain.Company{Name: input.Name, CreatedBy: p.UserID}
	if err := s.repo.CreateCompany(ctx, company); err != nil {
		return nil, err
	}
	s.logger.WithField("company_id", company.ID).Info("Company created")
	return company, nil
}

func (s *CompanyService) UpdateCompany(ctx context.Context, id string, input domain.CompanyInput) (*domain.Company, error) {
	p, err := requireRole(ctx, "companies", "update", domain.RoleAdmin, domain.RoleCompany)
	if err != nil {
		return nil, err
	}
	if err := requireCompanyAccess(p, id, "update"); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	company, err := s.repo.GetCompany(ctx, id)
	if err != nil {
		return nil, err
	}
	company.Name = input.Name
	if err := s.repo.UpdateCompany(ctx, company); err != nil {
		return nil, err
	}
	return company, nil
}

func (s *CompanyService) DeleteCompany(ctx context.Context, id string) error {
	ctx, span := tracing.StartServiceSpan(ctx, "CompanyService", "DeleteCompany")
	defer span.End()

	if _, err := requireRole(ctx, "companies", "delete", domain.RoleAdmin); err != nil {
		return err
	}
	company, err := s.repo.GetCompany(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteCompany(ctx, id); err != nil {
		tracing.EndSpan(span, err)
		return err
	}

	if key := logoKeyFromURL(company.LogoURL, id); key != "" && s.storage != nil {
		if err := s.storage.Delete(ctx, key); err != nil {
			s.logger.WithField("company_id", id).WithField("error", err.Error()).Warn("Failed to delete company logo")
		}
	}
	s.logger.WithField("company_id", id).Info("Company deleted")
	return nil
}

// UploadLogo stores the image under companies/{id}/ and replaces the previous logo
func (s *CompanyService) UploadLogo(ctx context.Context, id string, file domain.Upload) (*domain.Company, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "CompanyService", "UploadLogo")
	defer span.End()

	p, err := requireRole(ctx, "companies", "update", domain.RoleAdmin, domain.RoleCompany)
	if err != nil {
		return nil, err
	}
	if err := requireCompanyAccess(p, id, "update"); err != nil {
		return nil, err
	}
	if s.storage == nil {
		return nil, domain.ErrStorageNotConfigured
	}

	ext := strings.ToLower(path.Ext(file.Filename))
	if !logoExtensions[ext] {
		return nil, domain.NewValidationError("logo must be a png, jpg, gif, svg or webp image")
	}
	if file.Size > domain.MaxUploadSize {
		return nil, domain.NewValidationError("file is too large")
	}

	company, err := s.repo.GetCompany(ctx, id)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("companies/%s/logo-%s%s", id, uuid.NewString(), ext)
	obj, err := s.storage.Upload(ctx, key, file)
	if err != nil {
		tracing.EndSpan(span, err)
		return nil, err
	}
	s.metrics.Uploads.WithLabelValues("logo").Inc()

	previous := logoKeyFromURL(company.LogoURL, id)
	company.LogoURL = obj.URL
	if err := s.repo.UpdateCompany(ctx, company); err != nil {
		return nil, err
	}

	if previous != "" {
		if err := s.storage.Delete(ctx, previous); err != nil {
			s.logger.WithField("company_id", id).WithField("error", err.Error()).Warn("Failed to delete previous logo")
		}
	}
	return company, nil
}

// logoKeyFromURL recovers the object key of a logo we uploaded ourselves
func logoKeyFromURL(logoURL, companyID string) string {
	prefix := "companies/" + companyID + "/logo-"
	i := strings.Index(logoURL, prefix)
	if i < 0 {
		return ""
	}
	return logoURL[i:]
}

func (s *CompanyService) ListDepartments(ctx context.Context, companyID string) ([]*domain.Department, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && p.CompanyID != companyID {
		return nil, domain.NewNotFoundError("company", companyID)
	}
	return s.repo.ListDepartments(ctx, companyID)
}

func (s *CompanyService) CreateDepartment(ctx context.Context, companyID string, input domain.DepartmentInput) (*domain.Department, error) {
	p, err := requireRole(ctx, "departments", "create", domain.RoleAdmin, domain.RoleCompany)
	if err != nil {
		return nil, err
	}
	if err := requireCompanyAccess(p, companyID, "manage departments of"); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetCompany(ctx, companyID); err != nil {
		return nil, err
	}

	dep := &domain.Department{Name: input.Name, CompanyID: companyID}
	if err := s.repo.CreateDepartment(ctx, dep); err != nil {
		return nil, err
	}
	return dep, nil
}

func (s *CompanyService) UpdateDepartment(ctx context.Context, companyID, departmentID string, input domain.DepartmentInput) (*domain.Department, error) {
	p, err := requireRole(ctx, "departments", "update", domain.RoleAdmin, domain.RoleCompany)
	if err != nil {
		return nil, err
	}
	if err := requireCompanyAccess(p, companyID, "manage departments of"); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	dep, err := s.companyDepartment(ctx, companyID, departmentID)
	if err != nil {
		return nil, err
	}
	dep.Name = input.Name
	if err := s.repo.UpdateDepartment(ctx, dep); err != nil {
		return nil, err
	}
	return dep, nil
}

func (s *CompanyService) DeleteDepartment(ctx context.Context, companyID, departmentID string) error {
	p, err := requireRole(ctx, "departments", "delete", domain.RoleAdmin, domain.RoleCompany)
	if err != nil {
		return err
	}
	if err := requireCompanyAccess(p, companyID, "manage departments of"); err != nil {
		return err
	}
	if _, err := s.companyDepartment(ctx, companyID, departmentID); err != nil {
		return err
	}
	return s.repo.DeleteDepartment(ctx, departmentID)
}

func (s *CompanyService) companyDepartment(ctx context.Context, companyID, departmentID string) (*domain.Department, error) {
	dep, err := s.repo.GetDepartment(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	if dep.CompanyID != companyID {
		return nil, domain.NewNotFoundError("department", departmentID)
	}
	return dep, nil
}
