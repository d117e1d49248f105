package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/internal/http/middleware"
	"github.com/simulai/simulai/pkg/logger"
)

// SessionHandler exposes the per-scenario session timer of the caller
type SessionHandler struct {
	service domain.SessionService
	auth    middleware.Authenticator
	logger  logger.Logger
}

func NewSessionHandler(service domain.SessionService, auth middleware.Authenticator, logger logger.Logger) *SessionHandler {
	return &SessionHandler{
		service: service,
		auth:    auth,
		logger:  logger,
	}
}

func (h *SessionHandler) RegisterRoutes(mux *http.ServeMux) {
	requireAuth := middleware.RequireAuth(h.auth)

	mux.Handle("GET /scenarios/{id}/session", requireAuth(http.HandlerFunc(h.Status)))
	mux.Handle("POST /scenarios/{id}/session/start", requireAuth(h.checkpoint(h.service.Start)))
	mux.Handle("POST /scenarios/{id}/session/heartbeat", requireAuth(h.checkpoint(h.service.Heartbeat)))
	mux.Handle("POST /scenarios/{id}/session/stop", requireAuth(h.checkpoint(h.service.Stop)))
}

func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Status(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

type checkpointFunc func(ctx context.Context, scenarioID string, checkpoint domain.SessionCheckpoint) (*domain.SessionStatus, error)

// checkpoint serves start, heartbeat and stop. The body is optional.
func (h *SessionHandler) checkpoint(fn checkpointFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var cp domain.SessionCheckpoint
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
		if err := decodeOptionalJSON(r.Body, &cp); err != nil {
			WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		status, err := fn(r.Context(), r.PathValue("id"), cp)
		if err != nil {
			writeServiceError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, status)
	})
}

func decodeOptionalJSON(body io.Reader, v interface{}) error {
	raw, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}
