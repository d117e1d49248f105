package domain

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
)

//go:generate mockgen -destination mocks/mock_user_repository.go -package mocks github.com/simulai/simulai/internal/domain UserRepository
//go:generate mockgen -destination mocks/mock_user_service.go -package mocks github.com/simulai/simulai/internal/domain UserService

const MinPasswordLength = 8

// User represents an account of the dashboard
type User struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Lastname      string    `json:"lastname"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	Role          Role      `json:"role"`
	CompanyID     string    `json:"company_id,omitempty"`
	DepartmentIDs []string  `json:"department_ids"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// FullName joins name and lastname
func (u *User) FullName() string {
	return strings.TrimSpace(u.Name + " " + u.Lastname)
}

// NormalizeEmail lower-cases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidatePassword enforces the password policy
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return NewValidationError(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	return nil
}

type CreateUserRequest struct {
	Name          string   `json:"name"`
	Lastname      string   `json:"lastname"`
	Email         string   `json:"email"`
	Password      string   `json:"password"`
	Role          Role     `json:"role"`
	CompanyID     string   `json:"company_id"`
	DepartmentIDs []string `json:"department_ids"`
}

func (r *CreateUserRequest) Validate() error {
	r.Email = NormalizeEmail(r.Email)
	r.Name = strings.TrimSpace(r.Name)
	r.Lastname = strings.TrimSpace(r.Lastname)

	if r.Name == "" {
		return NewValidationError("name is required")
	}
	if r.Email == "" {
		return NewValidationError("email is required")
	}
	if !govalidator.IsEmail(r.Email) {
		return NewValidationError("invalid email format")
	}
	if r.Role == "" {
		r.Role = RoleUser
	}
	if !r.Role.Valid() {
		return NewValidationError(fmt.Sprintf("invalid role: %s", r.Role))
	}
	if r.Role != RoleAdmin && r.CompanyID == "" && len(r.DepartmentIDs) > 0 {
		return NewValidationError("departments require a company")
	}
	return ValidatePassword(r.Password)
}

// UpdateUserRequest carries a partial update; nil fields are left unchanged
type UpdateUserRequest struct {
	Name          *string   `json:"name,omitempty"`
	Lastname      *string   `json:"lastname,omitempty"`
	Email         *string   `json:"email,omitempty"`
	Password      *string   `json:"password,omitempty"`
	Role          *Role     `json:"role,omitempty"`
	CompanyID     *string   `json:"company_id,omitempty"`
	DepartmentIDs *[]string `json:"department_ids,omitempty"`
}

func (r *UpdateUserRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return NewValidationError("name cannot be empty")
	}
	if r.Email != nil {
		email := NormalizeEmail(*r.Email)
		if !govalidator.IsEmail(email) {
			return NewValidationError("invalid email format")
		}
		r.Email = &email
	}
	if r.Role != nil && !r.Role.Valid() {
		return NewValidationError(fmt.Sprintf("invalid role: %s", *r.Role))
	}
	if r.Password != nil {
		return ValidatePassword(*r.Password)
	}
	return nil
}

// Apply copies the set fields onto user
func (r *UpdateUserRequest) Apply(user *User) {
	if r.Name != nil {
		user.Name = strings.TrimSpace(*r.Name)
	}
	if r.Lastname != nil {
		user.Lastname = strings.TrimSpace(*r.Lastname)
	}
	if r.Email != nil {
		user.Email = *r.Email
	}
	if r.Role != nil {
		user.Role = *r.Role
	}
	if r.CompanyID != nil {
		user.CompanyID = *r.CompanyID
	}
	if r.DepartmentIDs != nil {
		user.DepartmentIDs = *r.DepartmentIDs
	}
}

type UserFilter struct {
	CompanyID    string
	DepartmentID string
	Role         Role
	Search       string
	// IDs restricts the result to these users when non-nil
	IDs []string
}

// UserImportResult is the outcome of one CSV row
type UserImportResult struct {
	Row    int    `json:"row"`
	Email  string `json:"email"`
	Status string `json:"status"`
	UserID string `json:"user_id,omitempty"`
	Error  string `json:"error,omitempty"`
	// Note tells the importer about generated passwords
	Note string `json:"note,omitempty"`
}

// UserCSVColumns is the header of user imports and exports. Exports omit the password.
var UserCSVColumns = []string{"name", "lastname", "email", "role", "company_id", "password"}

const (
	ImportStatusCreated = "created"
	ImportStatusFailed  = "failed"
)

type UserService interface {
	ListUsers(ctx context.Context, filter UserFilter) ([]*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	CreateUser(ctx context.Context, req CreateUserRequest) (*User, error)
	UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*User, error)
	DeleteUser(ctx context.Context, id string) error
	ImportUsers(ctx context.Context, r io.Reader) ([]UserImportResult, error)
	ExportUsers(ctx context.Context, filter UserFilter, w io.Writer) error
}

type UserRepository interface {
	// CreateUser creates a new user in the database
	CreateUser(ctx context.Context, user *User) error

	// GetUserByEmail retrieves a user by their email address
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// GetUserByID retrieves a user by their ID
	GetUserByID(ctx context.Context, id string) (*User, error)

	// ListUsers returns users matching filter ordered by creation date
	ListUsers(ctx context.Context, filter UserFilter) ([]*User, error)

	// UpdateUser persists every mutable column of user
	UpdateUser(ctx context.Context, user *User) error

	// UpdatePassword replaces the password hash of a user
	UpdatePassword(ctx context.Context, userID, passwordHash string) error

	// Delete removes a user by their ID
	Delete(ctx context.Context, id string) error
}
