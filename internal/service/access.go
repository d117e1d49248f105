package service

import (
	"context"

	"github.com/simulai/simulai/internal/domain"
)

func requirePrincipal(ctx context.Context) (*domain.Principal, error) {
	p, ok := domain.PrincipalFromContext(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return p, nil
}

// requireRole returns the caller when it holds one of roles
func requireRole(ctx context.Context, resource, action string, roles ...domain.Role) (*domain.Principal, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if !p.HasRole(roles...) {
		return nil, domain.NewPermissionError(resource, action, "you are not allowed to "+action+" "+resource)
	}
	return p, nil
}

// requireCompanyAccess lets admins through and company managers only for their own company
func requireCompanyAccess(p *domain.Principal, companyID, action string) error {
	if p.IsAdmin() {
		return nil
	}
	if p.IsCompany() && p.CompanyID != "" && p.CompanyID == companyID {
		return nil
	}
	return domain.NewPermissionError("company", action, "you can only "+action+" your own company")
}
