package http

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/internal/domain/mocks"
	"github.com/simulai/simulai/pkg/logger"
)

func setupCompanyHandlerTest(t *testing.T, p *domain.Principal) (*mocks.MockCompanyService, *http.ServeMux) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockCompanyService(ctrl)
	mux := http.NewServeMux()
	NewCompanyHandler(svc, authAs(ctrl, p), logger.NewTestLogger(t)).RegisterRoutes(mux)
	return svc, mux
}

func TestCompanyHandler_CRUD(t *testing.T) {
	svc, mux := setupCompanyHandlerTest(t, adminPrincipal)

	svc.EXPECT().ListCompanies(gomock.Any()).Return([]*domain.Company{{ID: "c1", Name: "Acme"}}, nil)
	w := serve(mux, newAuthedRequest("GET", "/companies", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var companies []domain.Company
	decodeResponse(t, w, &companies)
	require.Len(t, companies, 1)
	assert.Equal(t, "Acme", companies[0].Name)

	svc.EXPECT().CreateCompany(gomock.Any(), domain.CompanyInput{Name: "Globex"}).Return(&domain.Company{ID: "c2", Name: "Globex"}, nil)
	w = serve(mux, newAuthedRequest("POST", "/companies", jsonBody(t, map[string]string{"name": "Globex"})))
	assert.Equal(t, http.StatusCreated, w.Code)

	svc.EXPECT().UpdateCompany(gomock.Any(), "c2", domain.CompanyInput{Name: "Globex Inc"}).Return(&domain.Company{ID: "c2", Name: "Globex Inc"}, nil)
	w = serve(mux, newAuthedRequest("PUT", "/companies/c2", jsonBody(t, map[string]string{"name": "Globex Inc"})))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Globex Inc")

	svc.EXPECT().GetCompany(gomock.Any(), "c9").Return(nil, domain.NewNotFoundError("company", "c9"))
	w = serve(mux, newAuthedRequest("GET", "/companies/c9", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"company not found"}`, w.Body.String())

	svc.EXPECT().DeleteCompany(gomock.Any(), "c2").Return(nil)
	w = serve(mux, newAuthedRequest("DELETE", "/companies/c2", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCompanyHandler_Forbidden(t *testing.T) {
	svc, mux := setupCompanyHandlerTest(t, userPrincipal)

	svc.EXPECT().CreateCompany(gomock.Any(), gomock.Any()).
		Return(nil, domain.NewPermissionError("companies", "create", "only administrators can create companies"))

	w := serve(mux, newAuthedRequest("POST", "/companies", jsonBody(t, map[string]string{"name": "Initech"})))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "only administrators")
}

func TestCompanyHandler_UploadLogo(t *testing.T) {
	svc, mux := setupCompanyHandlerTest(t, companyPrincipal)

	svc.EXPECT().UploadLogo(gomock.Any(), "c1", gomock.Any()).DoAndReturn(func(_ context.Context, _ string, upload domain.Upload) (*domain.Company, error) {
		assert.Equal(t, "logo.png", upload.Filename)
		assert.Equal(t, int64(4), upload.Size)
		raw, _ := io.ReadAll(upload.Body)
		assert.Equal(t, "\x89PNG", string(raw))
		return &domain.Company{ID: "c1", LogoURL: "https://bucket.s3.eu-west-1.amazonaws.com/logos/c1.png"}, nil
	})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("logo", "logo.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("\x89PNG"))
	require.NoError(t, mw.Close())

	req := newAuthedRequest("POST", "/companies/c1/logo", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := serve(mux, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "logos/c1.png")
}

func TestCompanyHandler_UploadLogo_MissingFile(t *testing.T) {
	_, mux := setupCompanyHandlerTest(t, companyPrincipal)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("name", "nope"))
	require.NoError(t, mw.Close())

	req := newAuthedRequest("POST", "/companies/c1/logo", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := serve(mux, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"Missing logo file"}`, w.Body.String())
}

func TestCompanyHandler_Departments(t *testing.T) {
	svc, mux := setupCompanyHandlerTest(t, companyPrincipal)

	svc.EXPECT().ListDepartments(gomock.Any(), "c1").Return([]*domain.Department{{ID: "d1", Name: "Sales", CompanyID: "c1"}}, nil)
	w := serve(mux, newAuthedRequest("GET", "/companies/c1/departments", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Sales")

	svc.EXPECT().CreateDepartment(gomock.Any(), "c1", domain.DepartmentInput{Name: "Support"}).
		Return(&domain.Department{ID: "d2", Name: "Support", CompanyID: "c1"}, nil)
	w = serve(mux, newAuthedRequest("POST", "/companies/c1/departments", jsonBody(t, map[string]string{"name": "Support"})))
	assert.Equal(t, http.StatusCreated, w.Code)

	svc.EXPECT().UpdateDepartment(gomock.Any(), "c1", "d2", domain.DepartmentInput{Name: "Care"}).
		Return(&domain.Department{ID: "d2", Name: "Care", CompanyID: "c1"}, nil)
	w = serve(mux, newAuthedRequest("PUT", "/companies/c1/departments/d2", jsonBody(t, map[string]string{"name": "Care"})))
	assert.Equal(t, http.StatusOK, w.Code)

	svc.EXPECT().DeleteDepartment(gomock.Any(), "c1", "d2").Return(nil)
	w = serve(mux, newAuthedRequest("DELETE", "/companies/c1/departments/d2", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
