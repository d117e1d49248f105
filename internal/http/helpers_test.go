package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/internal/domain/mocks"
	"github.com/simulai/simulai/internal/http/middleware"
)

const testToken = "test-token"

var (
	adminPrincipal   = &domain.Principal{UserID: "admin-1", Role: domain.RoleAdmin}
	companyPrincipal = &domain.Principal{UserID: "manager-1", Role: domain.RoleCompany, CompanyID: "c1"}
	userPrincipal    = &domain.Principal{UserID: "u1", Role: domain.RoleUser, CompanyID: "c1"}
)

// authAs makes every authenticated request of the test resolve to p
func authAs(ctrl *gomock.Controller, p *domain.Principal) *mocks.MockAuthService {
	auth := mocks.NewMockAuthService(ctrl)
	auth.EXPECT().Authenticate(gomock.Any(), testToken).Return(p, nil).AnyTimes()
	return auth
}

func newAuthedRequest(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req.AddCookie(&http.Cookie{Name: middleware.AccessTokenCookie, Value: testToken})
	return req
}

func jsonBody(t *testing.T, v interface{}) io.Reader {
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(raw)
}

func serve(mux *http.ServeMux, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}
