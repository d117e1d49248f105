package http

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/internal/domain/mocks"
	"github.com/simulai/simulai/pkg/logger"
)

func setupUserHandlerTest(t *testing.T, p *domain.Principal) (*mocks.MockUserService, *http.ServeMux) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockUserService(ctrl)
	mux := http.NewServeMux()
	NewUserHandler(svc, authAs(ctrl, p), logger.NewTestLogger(t)).RegisterRoutes(mux)
	return svc, mux
}

func TestUserHandler_ListUsers(t *testing.T) {
	svc, mux := setupUserHandlerTest(t, adminPrincipal)

	svc.EXPECT().ListUsers(gomock.Any(), domain.UserFilter{CompanyID: "c1", Role: domain.RoleUser, Search: "ada"}).
		Return([]*domain.User{{ID: "u1", Name: "Ada"}}, nil)

	w := serve(mux, newAuthedRequest("GET", "/users?company_id=c1&role=user&search=ada", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var users []domain.User
	decodeResponse(t, w, &users)
	require.Len(t, users, 1)
	assert.Equal(t, "Ada", users[0].Name)
}

func TestUserHandler_RequiresAuth(t *testing.T) {
	_, mux := setupUserHandlerTest(t, adminPrincipal)

	req, _ := http.NewRequest("GET", "/users", nil)
	w := serve(mux, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserHandler_CreateUser(t *testing.T) {
	svc, mux := setupUserHandlerTest(t, companyPrincipal)

	svc.EXPECT().CreateUser(gomock.Any(), domain.CreateUserRequest{
		Name: "Ada", Email: "ada@example.com", Password: "long-enough", Role: domain.RoleUser, CompanyID: "c1",
	}).Return(&domain.User{ID: "u9", Email: "ada@example.com"}, nil)

	w := serve(mux, newAuthedRequest("POST", "/users", jsonBody(t, map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "long-enough", "role": "user", "company_id": "c1",
	})))
	assert.Equal(t, http.StatusCreated, w.Code)

	svc.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(nil, domain.ErrUserExists)
	w = serve(mux, newAuthedRequest("POST", "/users", jsonBody(t, map[string]string{"email": "ada@example.com"})))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUserHandler_UpdateAndDelete(t *testing.T) {
	svc, mux := setupUserHandlerTest(t, adminPrincipal)

	svc.EXPECT().UpdateUser(gomock.Any(), "u1", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, req domain.UpdateUserRequest) (*domain.User, error) {
			require.NotNil(t, req.Name)
			assert.Equal(t, "Grace", *req.Name)
			assert.Nil(t, req.Role)
			return &domain.User{ID: "u1", Name: "Grace"}, nil
		})
	w := serve(mux, newAuthedRequest("PUT", "/users/u1", strings.NewReader(`{"name":"Grace"}`)))
	assert.Equal(t, http.StatusOK, w.Code)

	svc.EXPECT().DeleteUser(gomock.Any(), "u1").Return(domain.NewPermissionError("users", "delete", "nope"))
	w = serve(mux, newAuthedRequest("DELETE", "/users/u1", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	svc.EXPECT().GetUser(gomock.Any(), "missing").Return(nil, domain.NewNotFoundError("user", "missing"))
	w = serve(mux, newAuthedRequest("GET", "/users/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUserHandler_ImportUsers(t *testing.T) {
	svc, mux := setupUserHandlerTest(t, adminPrincipal)
	csv := "name,lastname,email,role,company_id,password\nAda,Lovelace,ada@example.com,user,c1,\n"

	svc.EXPECT().ImportUsers(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r io.Reader) ([]domain.UserImportResult, error) {
		raw, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, csv, string(raw))
		return []domain.UserImportResult{
			{Row: 2, Email: "ada@example.com", Status: domain.ImportStatusCreated, UserID: "u1"},
			{Row: 3, Email: "bad", Status: domain.ImportStatusFailed, Error: "invalid email format"},
		}, nil
	}).Times(2)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "users.csv")
	require.NoError(t, err)
	_, _ = part.Write([]byte(csv))
	require.NoError(t, mw.Close())

	req := newAuthedRequest("POST", "/users/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := serve(mux, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Created int                       `json:"created"`
		Failed  int                       `json:"failed"`
		Results []domain.UserImportResult `json:"results"`
	}
	decodeResponse(t, w, &resp)
	assert.Equal(t, 1, resp.Created)
	assert.Equal(t, 1, resp.Failed)
	assert.Len(t, resp.Results, 2)

	req = newAuthedRequest("POST", "/users/import", strings.NewReader(csv))
	req.Header.Set("Content-Type", "text/csv")
	w = serve(mux, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUserHandler_ExportUsers(t *testing.T) {
	svc, mux := setupUserHandlerTest(t, adminPrincipal)

	svc.EXPECT().ExportUsers(gomock.Any(), domain.UserFilter{CompanyID: "c1"}, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ domain.UserFilter, w io.Writer) error {
			_, err := io.WriteString(w, "name,lastname,email,role,company_id\n")
			return err
		})

	w := serve(mux, newAuthedRequest("GET", "/users/export?company_id=c1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `attachment; filename="users-`)
	assert.Equal(t, "name,lastname,email,role,company_id\n", w.Body.String())
}
