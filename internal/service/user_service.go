package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/pkg/crypto"
	"github.com/simulai/simulai/pkg/logger"
	"github.com/simulai/simulai/pkg/tracing"
)

// importConcurrency bounds the rows created in parallel; each one runs bcrypt
const importConcurrency = 4

const generatedPasswordNote = "no password given, a random one was set; the user must use password reset to sign in"

type UserService struct {
	repo      domain.UserRepository
	companies domain.CompanyRepository
	logger    logger.Logger
}

func NewUserService(repo domain.UserRepository, companies domain.CompanyRepository, logger logger.Logger) *UserService {
	return &UserService{repo: repo, companies: companies, logger: logger}
}

// scopeFilter narrows filter to what the caller may see
func scopeFilter(p *domain.Principal, filter domain.UserFilter) domain.UserFilter {
	switch {
	case p.IsAdmin():
	case p.IsCompany():
		filter.CompanyID = p.CompanyID
	default:
		filter.IDs = []string{p.UserID}
	}
	return filter
}

func canSeeUser(p *domain.Principal, user *domain.User) bool {
	switch {
	case p.IsAdmin():
		return true
	case p.IsCompany():
		return p.CompanyID != "" && user.CompanyID == p.CompanyID
	default:
		return user.ID == p.UserID
	}
}

func (s *UserService) ListUsers(ctx context.Context, filter domain.UserFilter) ([]*domain.User, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if p.IsCompany() && p.CompanyID == "" {
		return []*domain.User{}, nil
	}
	return s.repo.ListUsers(ctx, scopeFilter(p, filter))
}

func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSeeUser(p, user) {
		// hide users of other companies
		return nil, domain.NewNotFoundError("user", id)
	}
	return user, nil
}

func (s *UserService) CreateUser(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "UserService", "CreateUser")
	defer span.End()

	p, err := requireRole(ctx, "users", "create", domain.RoleAdmin, domain.RoleCompany)
	if err != nil {
		return nil, err
	}

	if p.IsCompany() {
		if req.Role != "" && req.Role != domain.RoleUser {
			return nil, domain.NewPermissionError("users", "create", "company managers can only create trainees")
		}
		if req.CompanyID != "" && req.CompanyID != p.CompanyID {
			return nil, domain.NewPermissionError("users", "create", "you can only create users in your own company")
		}
		req.Role = domain.RoleUser
		req.CompanyID = p.CompanyID
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkMembership(ctx, req.CompanyID, req.DepartmentIDs); err != nil {
		return nil, err
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:          req.Name,
		Lastname:      req.Lastname,
		Email:         req.Email,
		PasswordHash:  hash,
		Role:          req.Role,
		CompanyID:     req.CompanyID,
		DepartmentIDs: dedupe(req.DepartmentIDs),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		tracing.EndSpan(span, err)
		return nil, err
	}

	s.logger.WithField("user_id", user.ID).WithField("created_by", p.UserID).Info("User created")
	return user, nil
}

func (s *UserService) UpdateUser(ctx context.Context, id string, req domain.UpdateUserRequest) (*domain.User, error) {
	p, err := requirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSeeUser(p, user) {
		return nil, domain.NewNotFoundError("user", id)
	}

	if !p.IsAdmin() {
		if p.IsCompany() && user.ID != p.UserID && user.Role != domain.RoleUser {
			return nil, domain.NewPermissionError("users", "update", "company managers can only update trainees")
		}
		if req.Role != nil && *req.Role != user.Role {
			return nil, domain.NewPermissionError("users", "update", "only administrators can change roles")
		}
		if req.CompanyID != nil && *req.CompanyID != user.CompanyID {
			return nil, domain.NewPermissionError("users", "update", "only administrators can move users between companies")
		}
		if !p.IsCompany() && req.DepartmentIDs != nil {
			return nil, domain.NewPermissionError("users", "update", "you cannot change your own departments")
		}
	}

	req.Apply(user)
	if user.Role == domain.RoleAdmin {
		user.CompanyID = ""
		user.DepartmentIDs = []string{}
	}
	if req.CompanyID != nil && req.DepartmentIDs == nil {
		// departments never survive a company change
		user.DepartmentIDs = []string{}
	}
	user.DepartmentIDs = dedupe(user.DepartmentIDs)
	if err := s.checkMembership(ctx, user.CompanyID, user.DepartmentIDs); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	if req.Password != nil {
		hash, err := crypto.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		if err := s.repo.UpdatePassword(ctx, user.ID, hash); err != nil {
			return nil, err
		}
	}
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	p, err := requireRole(ctx, "users", "delete", domain.RoleAdmin, domain.RoleCompany)
	if err != nil {
		return err
	}
	if id == p.UserID {
		return domain.NewValidationError("you cannot delete your own account")
	}

	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if !canSeeUser(p, user) {
		return domain.NewNotFoundError("user", id)
	}
	if p.IsCompany() && user.Role != domain.RoleUser {
		return domain.NewPermissionError("users", "delete", "company managers can only delete trainees")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.WithField("user_id", id).WithField("deleted_by", p.UserID).Info("User deleted")
	return nil
}

// checkMembership verifies the company exists and owns every department
func (s *UserService) checkMembership(ctx context.Context, companyID string, departmentIDs []string) error {
	if companyID == "" {
		if len(departmentIDs) > 0 {
			return domain.NewValidationError("departments require a company")
		}
		return nil
	}
	if _, err := s.companies.GetCompany(ctx, companyID); err != nil {
		if domain.IsNotFound(err) {
			return domain.NewValidationError("company does not exist: " + companyID)
		}
		return err
	}
	for _, id := range departmentIDs {
		dep, err := s.companies.GetDepartment(ctx, id)
		if err != nil {
			if domain.IsNotFound(err) {
				return domain.NewValidationError("department does not exist: " + id)
			}
			return err
		}
		if dep.CompanyID != companyID {
			return domain.NewValidationError("department " + id + " does not belong to the user's company")
		}
	}
	return nil
}

// ImportUsers creates one user per CSV row. Rows are independent: a failing
// row is reported and the others are still created.
func (s *UserService) ImportUsers(ctx context.Context, r io.Reader) ([]domain.UserImportResult, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "UserService", "ImportUsers")
	defer span.End()

	if _, err := requireRole(ctx, "users", "import", domain.RoleAdmin, domain.RoleCompany); err != nil {
		return nil, err
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, domain.NewValidationError("the CSV file is empty")
	}
	if err != nil {
		return nil, domain.NewValidationError("invalid CSV: " + err.Error())
	}
	columns, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	var requests []domain.CreateUserRequest
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.NewValidationError("invalid CSV: " + err.Error())
		}
		requests = append(requests, domain.CreateUserRequest{
			Name:      columns.get(record, "name"),
			Lastname:  columns.get(record, "lastname"),
			Email:     columns.get(record, "email"),
			Role:      domain.Role(strings.ToLower(columns.get(record, "role"))),
			CompanyID: columns.get(record, "company_id"),
			Password:  columns.get(record, "password"),
		})
	}

	results := make([]domain.UserImportResult, len(requests))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(importConcurrency)

	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			// row 1 is the header
			results[i] = s.importRow(gctx, i+2, req)
			return nil
		})
	}
	_ = g.Wait()

	created := 0
	for _, res := range results {
		if res.Status == domain.ImportStatusCreated {
			created++
		}
	}
	s.logger.WithField("rows", len(results)).WithField("created", created).Info("User import finished")
	return results, nil
}

func (s *UserService) importRow(ctx context.Context, row int, req domain.CreateUserRequest) domain.UserImportResult {
	result := domain.UserImportResult{Row: row, Email: domain.NormalizeEmail(req.Email)}

	if strings.TrimSpace(req.Password) == "" {
		password, err := crypto.GenerateRandomToken(12)
		if err != nil {
			result.Status = domain.ImportStatusFailed
			result.Error = err.Error()
			return result
		}
		req.Password = password
		result.Note = generatedPasswordNote
	}

	user, err := s.CreateUser(ctx, req)
	if err != nil {
		result.Status = domain.ImportStatusFailed
		result.Error = importErrorMessage(err)
		result.Note = ""
		return result
	}
	result.Status = domain.ImportStatusCreated
	result.UserID = user.ID
	return result
}

func importErrorMessage(err error) string {
	var ve domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return err.Error()
}

// ExportUsers writes the visible users as CSV
func (s *UserService) ExportUsers(ctx context.Context, filter domain.UserFilter, w io.Writer) error {
	users, err := s.ListUsers(ctx, filter)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := domain.UserCSVColumns[:len(domain.UserCSVColumns)-1]
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, u := range users {
		if err := cw.Write([]string{u.Name, u.Lastname, u.Email, string(u.Role), u.CompanyID}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type csvColumns map[string]int

func indexColumns(header []string) (csvColumns, error) {
	cols := csvColumns{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "﻿")))] = i
	}
	for _, required := range []string{"name", "email"} {
		if _, ok := cols[required]; !ok {
			return nil, domain.NewValidationError(fmt.Sprintf("missing %q column", required))
		}
	}
	return cols, nil
}

func (c csvColumns) get(record []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
