package domain

import (
	"errors"
	"fmt"
)

// Common error types
type ErrNotFound struct {
	Entity string
	ID     string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found with ID: %s", e.Entity, e.ID)
}

// NewNotFoundError creates a not found error for the given entity
func NewNotFoundError(entity, id string) *ErrNotFound {
	return &ErrNotFound{Entity: entity, ID: id}
}

// ValidationError represents an error that occurs due to invalid input or parameters
type ValidationError struct {
	Message string
}

// Error implements the error interface
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError creates a new validation error with the given message
func NewValidationError(message string) error {
	return ValidationError{
		Message: message,
	}
}

// PermissionError represents insufficient permissions for an operation
type PermissionError struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
	Message  string `json:"message"`
}

// Error implements the error interface
func (e *PermissionError) Error() string {
	return e.Message
}

// NewPermissionError creates a new permission error
func NewPermissionError(resource, action, message string) *PermissionError {
	return &PermissionError{
		Resource: resource,
		Action:   action,
		Message:  message,
	}
}

// ConflictError is returned when a write collides with existing state
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// ErrUserExists is returned when trying to create a user whose email is taken
var ErrUserExists = &ConflictError{Message: "a user with this email already exists"}

// ErrSessionExhausted is returned when a scenario has no time left for the caller
var ErrSessionExhausted = &ConflictError{Message: "no time remaining for this scenario"}

var (
	// ErrInvalidCredentials is returned on a wrong email/password pair
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUnauthorized is returned when no valid access token was presented
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidResetToken covers unknown, used and expired reset tokens
	ErrInvalidResetToken = NewValidationError("invalid or expired reset token")

	// ErrRateLimited is returned when too many attempts were made
	ErrRateLimited = errors.New("too many attempts, please try again later")

	// ErrAssistantNotConfigured is returned when the selected LLM has no API key
	ErrAssistantNotConfigured = NewValidationError("the selected assistant is not configured")

	// ErrStorageNotConfigured is returned when no bucket is configured for uploads
	ErrStorageNotConfigured = NewValidationError("file storage is not configured")

	// ErrAvatarNotConfigured is returned when no HeyGen key is set
	ErrAvatarNotConfigured = NewValidationError("the avatar provider is not configured")
)

// IsNotFound reports whether err is or wraps an ErrNotFound
func IsNotFound(err error) bool {
	var nf *ErrNotFound
	return errors.As(err, &nf)
}
