package http

import (
	"net/http"

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/internal/http/middleware"
	"github.com/simulai/simulai/pkg/logger"
)

type ReportHandler struct {
	service domain.ReportService
	auth    middleware.Authenticator
	logger  logger.Logger
}

func NewReportHandler(service domain.ReportService, auth middleware.Authenticator, logger logger.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		auth:    auth,
		logger:  logger,
	}
}

func (h *ReportHandler) RegisterRoutes(mux *http.ServeMux) {
	requireAuth := middleware.RequireAuth(h.auth)

	mux.Handle("POST /scenarios/{id}/reports", requireAuth(http.HandlerFunc(h.GenerateReport)))
	mux.Handle("GET /scenarios/{id}/reports", requireAuth(http.HandlerFunc(h.ListReports)))
	mux.Handle("GET /reports/{id}", requireAuth(http.HandlerFunc(h.GetReport)))
	mux.Handle("DELETE /reports/{id}", requireAuth(http.HandlerFunc(h.DeleteReport)))
	mux.Handle("GET /reports/{id}/export", requireAuth(http.HandlerFunc(h.ExportReport)))
}

func (h *ReportHandler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	var req domain.GenerateReportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	report, err := h.service.GenerateReport(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.service.ListReports(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.GetReport(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *ReportHandler) DeleteReport(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteReport(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Report deleted"})
}

func (h *ReportHandler) ExportReport(w http.ResponseWriter, r *http.Request) {
	format := domain.ExportFormat(r.URL.Query().Get("format"))
	file, err := h.service.ExportReport(r.Context(), r.PathValue("id"), format)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeDownload(w, file.Filename, file.ContentType, file.Content)
}
