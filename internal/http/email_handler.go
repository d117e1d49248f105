package http

import (
	"net/http"

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/internal/http/middleware"
	"github.com/simulai/simulai/pkg/logger"
)

type EmailHandler struct {
	service domain.EmailService
	auth    middleware.Authenticator
	logger  logger.Logger
}

func NewEmailHandler(service domain.EmailService, auth middleware.Authenticator, logger logger.Logger) *EmailHandler {
	return &EmailHandler{
		service: service,
		auth:    auth,
		logger:  logger,
	}
}

func (h *EmailHandler) RegisterRoutes(mux *http.ServeMux) {
	requireAuth := middleware.RequireAuth(h.auth)
	mux.Handle("POST /email/send", requireAuth(http.HandlerFunc(h.SendEmail)))
}

func (h *EmailHandler) SendEmail(w http.ResponseWriter, r *http.Request) {
	var req domain.SendEmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.service.SendEmail(r.Context(), req); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Email sent"})
}
