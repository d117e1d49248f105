package http

import (
	"net/http"

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/internal/http/middleware"
	"github.com/simulai/simulai/pkg/logger"
)

type SettingHandler struct {
	service domain.SettingService
	auth    middleware.Authenticator
	logger  logger.Logger
}

func NewSettingHandler(service domain.SettingService, auth middleware.Authenticator, logger logger.Logger) *SettingHandler {
	return &SettingHandler{
		service: service,
		auth:    auth,
		logger:  logger,
	}
}

func (h *SettingHandler) RegisterRoutes(mux *http.ServeMux) {
	requireAuth := middleware.RequireAuth(h.auth)

	mux.Handle("GET /settings", requireAuth(http.HandlerFunc(h.GetSettings)))
	mux.Handle("PUT /settings", requireAuth(http.HandlerFunc(h.UpdateSettings)))
}

func (h *SettingHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.GetMaskedSettings(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *SettingHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings domain.AppSettings
	if !decodeJSON(w, r, &settings) {
		return
	}
	updated, err := h.service.UpdateSettings(r.Context(), settings)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
