package domain

import (
	"context"
	"strings"
	"time"
)

//go:generate mockgen -destination mocks/mock_company_repository.go -package mocks github.com/simulai/simulai/internal/domain CompanyRepository
//go:generate mockgen -destination mocks/mock_company_service.go -package mocks github.com/simulai/simulai/internal/domain CompanyService

type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	LogoURL   string    `json:"logo_url,omitempty"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Department struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CompanyID string    `json:"company_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CompanyInput struct {
	Name string `json:"name"`
}

func (i *CompanyInput) Validate() error {
	i.Name = strings.TrimSpace(i.Name)
	if i.Name == "" {
		return NewValidationError("name is required")
	}
	if len(i.Name) > 255 {
		return NewValidationError("name must be 255 characters or less")
	}
	return nil
}

type DepartmentInput struct {
	Name string `json:"name"`
}

func (i *DepartmentInput) Validate() error {
	i.Name = strings.TrimSpace(i.Name)
	if i.Name == "" {
		return NewValidationError("name is required")
	}
	if len(i.Name) > 255 {
		return NewValidationError("name must be 255 characters or less")
	}
	return nil
}

type CompanyService interface {
	ListCompanies(ctx context.Context) ([]*Company, error)
	GetCompany(ctx context.Context, id string) (*Company, error)
	CreateCompany(ctx context.Context, input CompanyInput) (*Company, error)
	UpdateCompany(ctx context.Context, id string, input CompanyInput) (*Company, error)
	DeleteCompany(ctx context.Context, id string) error
	UploadLogo(ctx context.Context, id string, file Upload) (*Company, error)

	ListDepartments(ctx context.Context, companyID string) ([]*Department, error)
	CreateDepartment(ctx context.Context, companyID string, input DepartmentInput) (*Department, error)
	UpdateDepartment(ctx context.Context, companyID, departmentID string, input DepartmentInput) (*Department, error)
	DeleteDepartment(ctx context.Context, companyID, departmentID string) error
}

type CompanyRepository interface {
	ListCompanies(ctx context.Context) ([]*Company, error)
	GetCompany(ctx context.Context, id string) (*Company, error)
	CreateCompany(ctx context.Context, company *Company) error
	UpdateCompany(ctx context.Context, company *Company) error
	// DeleteCompany removes the company with its departments and detaches its
	// users in a single transaction
	DeleteCompany(ctx context.Context, id string) error

	ListDepartments(ctx context.Context, companyID string) ([]*Department, error)
	GetDepartment(ctx context.Context, id string) (*Department, error)
	CreateDepartment(ctx context.Context, department *Department) error
	UpdateDepartment(ctx context.Context, department *Department) error
	// DeleteDepartment removes the department and clears it from user assignments
	DeleteDepartment(ctx context.Context, id string) error
}
