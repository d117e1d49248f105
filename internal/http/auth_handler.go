package http

import (
	"net/http"
	"time"

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/internal/http/middleware"
	"github.com/simulai/simulai/pkg/logger"
)

// AuthHandler serves login, logout and password reset
type AuthHandler struct {
	service      domain.AuthService
	tokenTTL     time.Duration
	secureCookie bool
	logger       logger.Logger
}

// NewAuthHandler creates the handler. secureCookie is false only in development,
// where the dashboard runs on plain http.
func NewAuthHandler(service domain.AuthService, tokenTTL time.Duration, secureCookie bool, logger logger.Logger) *AuthHandler {
	return &AuthHandler{
		service:      service,
		tokenTTL:     tokenTTL,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux) {
	requireAuth := middleware.RequireAuth(h.service)

	mux.HandleFunc("POST /login", h.Login)
	mux.HandleFunc("POST /logout", h.Logout)
	mux.HandleFunc("POST /request-password-reset", h.RequestPasswordReset)
	mux.HandleFunc("POST /reset-password", h.ResetPassword)
	mux.Handle("GET /verify-token", requireAuth(http.HandlerFunc(h.VerifyToken)))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input domain.LoginInput
	if !decodeJSON(w, r, &input) {
		return
	}
	input.IP = clientIP(r)

	result, err := h.service.Login(r.Context(), input)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	http.SetCookie(w, h.cookie(result.Token, int(h.tokenTTL.Seconds())))
	writeJSON(w, http.StatusOK, result)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.cookie("", -1))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (h *AuthHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.CurrentUser(r.Context())
	if err != nil {
		if domain.IsNotFound(err) {
			WriteJSONError(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.service.RequestPasswordReset(r.Context(), body.Email); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "If an account exists for this email, a reset link has been sent",
	})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var input domain.ResetPasswordInput
	if !decodeJSON(w, r, &input) {
		return
	}
	if err := h.service.ResetPassword(r.Context(), input); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}

func (h *AuthHandler) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}
