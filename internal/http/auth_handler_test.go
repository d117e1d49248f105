package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simulai/simulai/internal/domain"
	"github.com/simulai/simulai/internal/domain/mocks"
	"github.com/simulai/simulai/internal/http/middleware"
	"github.com/simulai/simulai/pkg/logger"
)

func setupAuthHandlerTest(t *testing.T, secure bool) (*mocks.MockAuthService, *http.ServeMux) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockAuthService(ctrl)
	mux := http.NewServeMux()
	NewAuthHandler(svc, 24*time.Hour, secure, logger.NewTestLogger(t)).RegisterRoutes(mux)
	return svc, mux
}

func accessCookie(t *testing.T, resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == middleware.AccessTokenCookie {
			return c
		}
	}
	t.Fatalf("no %s cookie set", middleware.AccessTokenCookie)
	return nil
}

func TestAuthHandler_Login(t *testing.T) {
	svc, mux := setupAuthHandlerTest(t, true)

	svc.EXPECT().Login(gomock.Any(), domain.LoginInput{Email: "ada@example.com", Password: "secret-pass", IP: "192.0.2.1"}).
		Return(&domain.LoginResult{
			Token:     "jwt",
			ExpiresAt: time.Now().Add(24 * time.Hour),
			User:      &domain.User{ID: "u1", Email: "ada@example.com", Role: domain.RoleUser},
		}, nil)

	req := newAuthedRequest("POST", "/login", strings.NewReader(`{"email":"ada@example.com","password":"secret-pass"}`))
	w := serve(mux, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookie := accessCookie(t, w.Result())
	assert.Equal(t, "jwt", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, 86400, cookie.MaxAge)
	assert.NotContains(t, w.Body.String(), "jwt", "the token travels only in the cookie")

	var body struct {
		User domain.User `json:"user"`
	}
	decodeResponse(t, w, &body)
	assert.Equal(t, "u1", body.User.ID)
}

func TestAuthHandler_Login_Errors(t *testing.T) {
	svc, mux := setupAuthHandlerTest(t, false)

	svc.EXPECT().Login(gomock.Any(), gomock.Any()).Return(nil, domain.ErrInvalidCredentials)
	w := serve(mux, newAuthedRequest("POST", "/login", strings.NewReader(`{"email":"a@b.co","password":"wrong-pass"}`)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Result().Cookies())

	svc.EXPECT().Login(gomock.Any(), gomock.Any()).Return(nil, domain.ErrRateLimited)
	w = serve(mux, newAuthedRequest("POST", "/login", strings.NewReader(`{"email":"a@b.co","password":"wrong-pass"}`)))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = serve(mux, newAuthedRequest("POST", "/login", strings.NewReader(`not json`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_Logout(t *testing.T) {
	_, mux := setupAuthHandlerTest(t, false)

	w := serve(mux, newAuthedRequest("POST", "/logout", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	cookie := accessCookie(t, w.Result())
	assert.Empty(t, cookie.Value)
	assert.Equal(t, -1, cookie.MaxAge)
	assert.False(t, cookie.Secure)
}

func TestAuthHandler_VerifyToken(t *testing.T) {
	svc, mux := setupAuthHandlerTest(t, false)

	svc.EXPECT().Authenticate(gomock.Any(), testToken).Return(userPrincipal, nil)
	svc.EXPECT().CurrentUser(gomock.Any()).Return(&domain.User{ID: "u1", Email: "ada@example.com"}, nil)

	w := serve(mux, newAuthedRequest("GET", "/verify-token", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"u1"`)

	w = serve(mux, httptest.NewRequest("GET", "/verify-token", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_VerifyToken_DeletedUser(t *testing.T) {
	svc, mux := setupAuthHandlerTest(t, false)

	svc.EXPECT().Authenticate(gomock.Any(), testToken).Return(userPrincipal, nil)
	svc.EXPECT().CurrentUser(gomock.Any()).Return(nil, domain.NewNotFoundError("user", "u1"))

	w := serve(mux, newAuthedRequest("GET", "/verify-token", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_PasswordReset(t *testing.T) {
	svc, mux := setupAuthHandlerTest(t, false)

	svc.EXPECT().RequestPasswordReset(gomock.Any(), "ada@example.com").Return(nil)
	w := serve(mux, newAuthedRequest("POST", "/request-password-reset", strings.NewReader(`{"email":"ada@example.com"}`)))
	assert.Equal(t, http.StatusOK, w.Code)

	svc.EXPECT().ResetPassword(gomock.Any(), domain.ResetPasswordInput{Token: "t", Password: "short"}).
		Return(domain.ErrInvalidResetToken)
	w = serve(mux, newAuthedRequest("POST", "/reset-password", strings.NewReader(`{"token":"t","password":"short"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid or expired reset token")
}
