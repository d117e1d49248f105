package service

import (
	"context"

	"github.com/simulai/simulai/internal/domain"
)

// scenarioAccess resolves which scenarios a caller can see. It is shared by
// every service working below a scenario.
type scenarioAccess struct {
	scenarios domain.ScenarioRepository
	users     domain.UserRepository
}

// load returns the scenario when p can see it, NotFound otherwise
func (a scenarioAccess) load(ctx context.Context, p *domain.Principal, id string) (*domain.Scenario, error) {
	scenario, err := a.scenarios.GetScenario(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := a.visible(ctx, p, scenario)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.NewNotFoundError("scenario", id)
	}
	return scenario, nil
}

// loadManaged is load restricted to admins and company managers
func (a scenarioAccess) loadManaged(ctx context.Context, p *domain.Principal, id, action string) (*domain.Scenario, error) {
	if !p.HasRole(domain.RoleAdmin, domain.RoleCompany) {
		return nil, domain.NewPermissionError("scenarios", action, "you are not allowed to "+action+" scenarios")
	}
	return a.load(ctx, p, id)
}

func (a scenarioAccess) visible(ctx context.Context, p *domain.Principal, s *domain.Scenario) (bool, error) {
	switch {
	case p.IsAdmin():
		return true, nil
	case p.IsCompany():
		if s.UserIDCreated == p.UserID {
			return true, nil
		}
		if p.CompanyID == "" {
			return false, nil
		}
		for _, id := range []string{s.UserIDCreated, s.UserIDAssigned} {
			ok, err := a.inCompany(ctx, id, p.CompanyID)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	default:
		return s.UserIDAssigned == p.UserID && s.Status != domain.ScenarioStatusDraft, nil
	}
}

func (a scenarioAccess) inCompany(ctx context.Context, userID, companyID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	u, err := a.users.GetUserByID(ctx, userID)
	if err != nil {
		if domain.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return u.CompanyID == companyID, nil
}
