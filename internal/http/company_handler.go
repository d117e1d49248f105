package http

import (
	"net/http"

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/internal/http/middleware"
	"github.com/simulai/simulai/pkg/logger"
)

// CompanyHandler serves companies and their departments
type CompanyHandler struct {
	service domain.CompanyService
	auth    middleware.Authenticator
	logger  logger.Logger
}

func NewCompanyHandler(service domain.CompanyService, auth middleware.Authenticator, logger logger.Logger) *CompanyHandler {
	return &CompanyHandler{
		service: service,
		auth:    auth,
		logger:  logger,
	}
}

func (h *CompanyHandler) RegisterRoutes(mux *http.ServeMux) {
	requireAuth := middleware.RequireAuth(h.auth)

	mux.Handle("GET /companies", requireAuth(http.HandlerFunc(h.ListCompanies)))
	mux.Handle("POST /companies", requireAuth(http.HandlerFunc(h.CreateCompany)))
	mux.Handle("GET /companies/{id}", requireAuth(http.HandlerFunc(h.GetCompany)))
	mux.Handle("PUT /companies/{id}", requireAuth(http.HandlerFunc(h.UpdateCompany)))
	mux.Handle("DELETE /companies/{id}", requireAuth(http.HandlerFunc(h.DeleteCompany)))
	mux.Handle("POST /companies/{id}/logo", requireAuth(http.HandlerFunc(h.UploadLogo)))

	mux.Handle("GET /companies/{id}/departments", requireAuth(http.HandlerFunc(h.ListDepartments)))
	mux.Handle("POST /companies/{id}/departments", requireAuth(http.HandlerFunc(h.CreateDepartment)))
	mux.Handle("PUT /companies/{id}/departments/{departmentId}", requireAuth(http.HandlerFunc(h.UpdateDepartment)))
	mux.Handle("DELETE /companies/{id}/departments/{departmentId}", requireAuth(http.HandlerFunc(h.DeleteDepartment)))
}

func (h *CompanyHandler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.service.ListCompanies(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, companies)
}

func (h *CompanyHandler) GetCompany(w http.ResponseWriter, r *http.Request) {
	company, err := h.service.GetCompany(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, company)
}

func (h *CompanyHandler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var input domain.CompanyInput
	if !decodeJSON(w, r, &input) {
		return
	}
	company, err := h.service.CreateCompany(r.Context(), input)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, company)
}

func (h *CompanyHandler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	var input domain.CompanyInput
	if !decodeJSON(w, r, &input) {
		return
	}
	company, err := h.service.UpdateCompany(r.Context(), r.PathValue("id"), input)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, company)
}

func (h *CompanyHandler) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCompany(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Company deleted"})
}

func (h *CompanyHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	if !parseMultipart(w, r, domain.MaxUploadSize+(1<<20)) {
		return
	}
	_, fh, err := r.FormFile("logo")
	if err != nil {
		WriteJSONError(w, "Missing logo file", http.StatusBadRequest)
		return
	}
	upload, file, err := uploadFromHeader(fh)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	defer file.Close()

	company, err := h.service.UploadLogo(r.Context(), r.PathValue("id"), upload)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, company)
}

func (h *CompanyHandler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.service.ListDepartments(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, departments)
}

func (h *CompanyHandler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var input domain.DepartmentInput
	if !decodeJSON(w, r, &input) {
		return
	}
	department, err := h.service.CreateDepartment(r.Context(), r.PathValue("id"), input)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, department)
}

func (h *CompanyHandler) UpdateDepartment(w http.ResponseWriter, r *http.Request) {
	var input domain.DepartmentInput
	if !decodeJSON(w, r, &input) {
		return
	}
	department, err := h.service.UpdateDepartment(r.Context(), r.PathValue("id"), r.PathValue("departmentId"), input)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, department)
}

func (h *CompanyHandler) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteDepartment(r.Context(), r.PathValue("id"), r.PathValue("departmentId")); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Department deleted"})
}
