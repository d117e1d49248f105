package http

import (
	"net/http"

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/internal/http/middleware"
	"github.com/simulai/simulai/pkg/logger"
)

const maxScenarioUploadBody = 256 << 20

type ScenarioHandler struct {
	service domain.ScenarioService
	auth    middleware.Authenticator
	logger  logger.Logger
}

func NewScenarioHandler(service domain.ScenarioService, auth middleware.Authenticator, logger logger.Logger) *ScenarioHandler {
	return &ScenarioHandler{
		service: service,
		auth:    auth,
		logger:  logger,
	}
}

func (h *ScenarioHandler) RegisterRoutes(mux *http.ServeMux) {
	requireAuth := middleware.RequireAuth(h.auth)

	mux.Handle("GET /scenarios", requireAuth(http.HandlerFunc(h.ListScenarios)))
	mux.Handle("POST /scenarios", requireAuth(http.HandlerFunc(h.CreateScenario)))
	mux.Handle("GET /scenarios/{id}", requireAuth(http.HandlerFunc(h.GetScenario)))
	mux.Handle("PUT /scenarios/{id}", requireAuth(http.HandlerFunc(h.UpdateScenario)))
	mux.Handle("DELETE /scenarios/{id}", requireAuth(http.HandlerFunc(h.DeleteScenario)))
	mux.Handle("POST /scenarios/{id}/files", requireAuth(http.HandlerFunc(h.AddFiles)))
	mux.Handle("DELETE /scenarios/{id}/files/{key...}", requireAuth(http.HandlerFunc(h.RemoveFile)))
}

func (h *ScenarioHandler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.ScenarioFilter{
		Status:         domain.ScenarioStatus(q.Get("status")),
		UserIDAssigned: q.Get("user_id_assigned"),
		Search:         q.Get("search"),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		WriteJSONError(w, "Invalid status", http.StatusBadRequest)
		return
	}

	scenarios, err := h.service.ListScenarios(r.Context(), filter)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, scenarios)
}

func (h *ScenarioHandler) GetScenario(w http.ResponseWriter, r *http.Request) {
	scenario, err := h.service.GetScenario(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, scenario)
}

func (h *ScenarioHandler) CreateScenario(w http.ResponseWriter, r *http.Request) {
	var input domain.ScenarioInput
	if !decodeJSON(w, r, &input) {
		return
	}
	scenario, err := h.service.CreateScenario(r.Context(), input)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, scenario)
}

func (h *ScenarioHandler) UpdateScenario(w http.ResponseWriter, r *http.Request) {
	var input domain.ScenarioInput
	if !decodeJSON(w, r, &input) {
		return
	}
	scenario, err := h.service.UpdateScenario(r.Context(), r.PathValue("id"), input)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, scenario)
}

func (h *ScenarioHandler) DeleteScenario(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteScenario(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Scenario deleted"})
}

func (h *ScenarioHandler) AddFiles(w http.ResponseWriter, r *http.Request) {
	if !parseMultipart(w, r, maxScenarioUploadBody) {
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		WriteJSONError(w, "No files uploaded", http.StatusBadRequest)
		return
	}

	uploads := make([]domain.Upload, 0, len(headers))
	for _, fh := range headers {
		upload, file, err := uploadFromHeader(fh)
		if err != nil {
			writeServiceError(w, h.logger, err)
			return
		}
		defer file.Close()
		uploads = append(uploads, upload)
	}

	scenario, err := h.service.AddFiles(r.Context(), r.PathValue("id"), uploads)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, scenario)
}

func (h *ScenarioHandler) RemoveFile(w http.ResponseWriter, r *http.Request) {
	scenario, err := h.service.RemoveFile(r.Context(), r.PathValue("id"), r.PathValue("key"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, scenario)
}
