package http

import (
	"bytes"
	"net/http"
	"time"

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/internal/http/middleware"
	"github.com/simulai/simulai/pkg/logger"
)

const maxImportSize = 5 << 20

type UserHandler struct {
	service domain.UserService
	auth    middleware.Authenticator
	logger  logger.Logger
}

func NewUserHandler(service domain.UserService, auth middleware.Authenticator, logger logger.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		auth:    auth,
		logger:  logger,
	}
}

func (h *UserHandler) RegisterRoutes(mux *http.ServeMux) {
	requireAuth := middleware.RequireAuth(h.auth)

	mux.Handle("GET /users", requireAuth(http.HandlerFunc(h.ListUsers)))
	mux.Handle("POST /users", requireAuth(http.HandlerFunc(h.CreateUser)))
	mux.Handle("POST /users/import", requireAuth(http.HandlerFunc(h.ImportUsers)))
	mux.Handle("GET /users/export", requireAuth(http.HandlerFunc(h.ExportUsers)))
	mux.Handle("GET /users/{id}", requireAuth(http.HandlerFunc(h.GetUser)))
	mux.Handle("PUT /users/{id}", requireAuth(http.HandlerFunc(h.UpdateUser)))
	mux.Handle("DELETE /users/{id}", requireAuth(http.HandlerFunc(h.DeleteUser)))
}

func userFilterFromQuery(r *http.Request) domain.UserFilter {
	q := r.URL.Query()
	return domain.UserFilter{
		CompanyID:    q.Get("company_id"),
		DepartmentID: q.Get("department_id"),
		Role:         domain.Role(q.Get("role")),
		Search:       q.Get("search"),
	}
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context(), userFilterFromQuery(r))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.service.CreateUser(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.service.UpdateUser(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteUser(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
}

// ImportUsers accepts the CSV either as a multipart "file" or as the raw body
func (h *UserHandler) ImportUsers(w http.ResponseWriter, r *http.Request) {
	var results []domain.UserImportResult
	var err error

	if isMultipart(r) {
		if !parseMultipart(w, r, maxImportSize) {
			return
		}
		file, _, ferr := r.FormFile("file")
		if ferr != nil {
			WriteJSONError(w, "Missing file", http.StatusBadRequest)
			return
		}
		defer file.Close()
		results, err = h.service.ImportUsers(r.Context(), file)
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
		results, err = h.service.ImportUsers(r.Context(), r.Body)
	}
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	created := 0
	for _, res := range results {
		if res.Status == domain.ImportStatusCreated {
			created++
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"created": created,
		"failed":  len(results) - created,
		"results": results,
	})
}

func (h *UserHandler) ExportUsers(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.service.ExportUsers(r.Context(), userFilterFromQuery(r), &buf); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeDownload(w, "users-"+time.Now().UTC().Format("2006-01-02")+".csv", "text/csv; charset=utf-8", buf.Bytes())
}
