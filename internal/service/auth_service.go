package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/pkg/crypto"
	"github.com/simulai/simulai/pkg/logger"
	"github.com/simulai/simulai/pkg/ratelimiter"
	"github.com/simulai/simulai/pkg/tracing"
)

const (
	RateLimitLogin         = "login"
	RateLimitPasswordReset = "password_reset"

	PasswordResetTTL = time.Hour
	resetTokenBytes  = 32
)

type AuthService struct {
	users       domain.UserRepository
	resets      domain.PasswordResetRepository
	tokens      *TokenService
	emails      domain.EmailService
	limiter     *ratelimiter.RateLimiter
	logger      logger.Logger
	metrics     *Metrics
	secretKey   string
	frontendURL string
	now         func() time.Time
}

type AuthServiceConfig struct {
	Users          domain.UserRepository
	PasswordResets domain.PasswordResetRepository
	Tokens         *TokenService
	Emails         domain.EmailService
	RateLimiter    *ratelimiter.RateLimiter
	Logger         logger.Logger
	Metrics        *Metrics
	// SecretKey keys the HMAC of stored reset tokens
	SecretKey   string
	FrontendURL string
}

func NewAuthService(cfg AuthServiceConfig) *AuthService {
	limiter := cfg.RateLimiter
	if limiter == nil {
		limiter = ratelimiter.NewRateLimiter()
	}
	limiter.SetPolicy(RateLimitLogin, 10, 15*time.Minute)
	limiter.SetPolicy(RateLimitPasswordReset, 5, time.Hour)

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewNopMetrics()
	}

	return &AuthService{
		users:       cfg.Users,
		resets:      cfg.PasswordResets,
		tokens:      cfg.Tokens,
		emails:      cfg.Emails,
		limiter:     limiter,
		logger:      cfg.Logger,
		metrics:     metrics,
		secretKey:   cfg.SecretKey,
		frontendURL: strings.TrimRight(cfg.FrontendURL, "/"),
		now:         time.Now,
	}
}

func (s *AuthService) Login(ctx context.Context, input domain.LoginInput) (*domain.LoginResult, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "AuthService", "Login")
	defer span.End()

	email := domain.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, domain.NewValidationError("email and password are required")
	}

	limitKey := email + "|" + input.IP
	if !s.limiter.Allow(RateLimitLogin, limitKey) {
		s.metrics.LoginAttempts.WithLabelValues("rate_limited").Inc()
		s.logger.WithField("email", email).WithField("ip", input.IP).Warn("Login rate limit exceeded")
		return nil, domain.ErrRateLimited
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if domain.IsNotFound(err) {
			s.metrics.LoginAttempts.WithLabelValues("invalid").Inc()
			return nil, domain.ErrInvalidCredentials
		}
		tracing.EndSpan(span, err)
		return nil, err
	}

	if !crypto.CheckPasswordHash(input.Password, user.PasswordHash) {
		s.metrics.LoginAttempts.WithLabelValues("invalid").Inc()
		s.logger.WithField("user_id", user.ID).Info("Login with wrong password")
		return nil, domain.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	s.limiter.Reset(RateLimitLogin, limitKey)
	s.metrics.LoginAttempts.WithLabelValues("success").Inc()

	return &domain.LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Authenticate resolves a token to its user. The role and company are read
// from the database so changes apply without waiting for token expiry.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Principal, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, fmt.Errorf("%w: user no longer exists", domain.ErrUnauthorized)
		}
		return nil, err
	}

	return &domain.Principal{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		CompanyID: user.CompanyID,
	}, nil
}

func (s *AuthService) CurrentUser(ctx context.Context) (*domain.User, error) {
	principal, ok := domain.PrincipalFromContext(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	user, err := s.users.GetUserByID(ctx, principal.UserID)
	if domain.IsNotFound(err) {
		return nil, domain.ErrUnauthorized
	}
	return user, err
}

// RequestPasswordReset never reveals whether email is registered
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	ctx, span := tracing.StartServiceSpan(ctx, "AuthService", "RequestPasswordReset")
	defer span.End()

	email = domain.NormalizeEmail(email)
	if email == "" {
		return domain.NewValidationError("email is required")
	}
	if !s.limiter.Allow(RateLimitPasswordReset, email) {
		s.logger.WithField("email", email).Warn("Password reset rate limit exceeded")
		return domain.ErrRateLimited
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if domain.IsNotFound(err) {
			s.logger.WithField("email", email).Debug("Password reset requested for unknown email")
			return nil
		}
		return err
	}

	token, err := crypto.GenerateRandomToken(resetTokenBytes)
	if err != nil {
		return err
	}

	reset := &domain.PasswordReset{
		UserID:    user.ID,
		TokenHash: crypto.HashToken(token, s.secretKey),
		ExpiresAt: s.now().UTC().Add(PasswordResetTTL),
	}
	if err := s.resets.Create(ctx, reset); err != nil {
		return err
	}

	resetURL := s.frontendURL + "/reset-password?token=" + url.QueryEscape(token)
	if err := s.emails.SendPasswordReset(ctx, user, resetURL); err != nil {
		s.logger.WithField("user_id", user.ID).WithField("error", err.Error()).Error("Failed to send password reset email")
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, input domain.ResetPasswordInput) error {
	ctx, span := tracing.StartServiceSpan(ctx, "AuthService", "ResetPassword")
	defer span.End()

	token := strings.TrimSpace(input.Token)
	if token == "" {
		return domain.ErrInvalidResetToken
	}
	if err := domain.ValidatePassword(input.Password); err != nil {
		return err
	}

	reset, err := s.resets.GetByTokenHash(ctx, crypto.HashToken(token, s.secretKey))
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.ErrInvalidResetToken
		}
		return err
	}
	if reset.Expired(s.now().UTC()) {
		return domain.ErrInvalidResetToken
	}

	hash, err := crypto.HashPassword(input.Password)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, reset.UserID, hash); err != nil {
		if domain.IsNotFound(err) {
			return domain.ErrInvalidResetToken
		}
		return err
	}
	if err := s.resets.DeleteByUserID(ctx, reset.UserID); err != nil {
		s.logger.WithField("user_id", reset.UserID).WithField("error", err.Error()).Warn("Failed to clear password resets")
	}
	return nil
}

// PurgeExpiredResets removes stale reset tokens, run periodically by the app
func (s *AuthService) PurgeExpiredResets(ctx context.Context) (int64, error) {
	n, err := s.resets.DeleteExpired(ctx, s.now().UTC())
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.WithField("error", err.Error()).Warn("Failed to purge expired password resets")
	}
	return n, err
}
