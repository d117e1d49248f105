package domain

import (
	"context"
	"io"
	"strings"

	"github.com/asaskevich/govalidator"
)

//go:generate mockgen -destination mocks/mock_email_service.go -package mocks github.com/simulai/simulai/internal/domain EmailService
//go:generate mockgen -destination mocks/mock_avatar_service.go -package mocks github.com/simulai/simulai/internal/domain AvatarService

const MaxEmailRecipients = 50

type SendEmailRequest struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

func (r *SendEmailRequest) Validate() error {
	if len(r.To) == 0 {
		return NewValidationError("at least one recipient is required")
	}
	if len(r.To) > MaxEmailRecipients {
		return NewValidationError("too many recipients")
	}
	for i, to := range r.To {
		to = NormalizeEmail(to)
		if !govalidator.IsEmail(to) {
			return NewValidationError("invalid recipient: " + r.To[i])
		}
		r.To[i] = to
	}
	r.Subject = strings.TrimSpace(r.Subject)
	if r.Subject == "" {
		return NewValidationError("subject is required")
	}
	if strings.TrimSpace(r.HTML) == "" && strings.TrimSpace(r.Text) == "" {
		return NewValidationError("html or text body is required")
	}
	return nil
}

type EmailService interface {
	SendEmail(ctx context.Context, req SendEmailRequest) error
	SendPasswordReset(ctx context.Context, user *User, resetURL string) error
	SendScenarioAssigned(ctx context.Context, user *User, scenario *Scenario) error
}

// AvatarToken is a short lived HeyGen streaming token
type AvatarToken struct {
	Token string `json:"token"`
}

type AvatarService interface {
	CreateStreamingToken(ctx context.Context) (*AvatarToken, error)
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}
