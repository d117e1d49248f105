package service

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/pkg/crypto"
)

func init() {
	crypto.PasswordCost = bcrypt.MinCost
}

func asAdmin() context.Context {
	return domain.WithPrincipal(context.Background(), &domain.Principal{UserID: "admin-1", Role: domain.RoleAdmin})
}

func asCompany(companyID string) context.Context {
	return domain.WithPrincipal(context.Background(), &domain.Principal{UserID: "manager-1", Role: domain.RoleCompany, CompanyID: companyID})
}

func asUser(userID string) context.Context {
	return domain.WithPrincipal(context.Background(), &domain.Principal{UserID: userID, Role: domain.RoleUser, CompanyID: "c1"})
}
