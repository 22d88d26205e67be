package handler

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"account_service/internal/apperror"
	"account_service/internal/middleware"
	"account_service/internal/model"
	"account_service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type mockAuthService struct {
	mock.Mock
}

func (m *mockAuthService) Register(ctx context.Context, in service.RegisterInput) (*model.User, error) {
	args := m.Called(ctx, in)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	args := m.Called(ctx, email, password)
	u, _ := args.Get(0).(*model.User)
	return u, args.String(1), args.Error(2)
}

func (m *mockAuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	args := m.Called(ctx, token)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *mockAuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *mockAuthService) UpdateDetails(ctx context.Context, userID, name, mobile string) (*model.User, error) {
	args := m.Called(ctx, userID, name, mobile)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *mockAuthService) UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) (*model.User, string, error) {
	args := m.Called(ctx, userID, currentPassword, newPassword)
	u, _ := args.Get(0).(*model.User)
	return u, args.String(1), args.Error(2)
}

func (m *mockAuthService) ForgotPassword(ctx context.Context, email string, resetURL func(string) string) (*service.ResetRequest, error) {
	args := m.Called(ctx, email, resetURL)
	r, _ := args.Get(0).(*service.ResetRequest)
	return r, args.Error(1)
}

func (m *mockAuthService) ResetPassword(ctx context.Context, token, newPassword string) (*model.User, error) {
	args := m.Called(ctx, token, newPassword)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

var testUser = &model.User{
	ID:           "7f1c3d9e-2b4a-4c61-9a55-0d3e8f2b6a10",
	Name:         "A",
	Email:        "a@b.com",
	Mobile:       "1234567890",
	PasswordHash: "$2a$10$secret",
	Role:         model.RoleUser,
}

func setupRouter(t *testing.T, secure bool) (*gin.Engine, *mockAuthService) {
	t.Helper()
	svc := &mockAuthService{}
	svc.Test(t)
	t.Cleanup(func() { svc.AssertExpectations(t) })

	log, _ := test.NewNullLogger()
	r := gin.New()
	r.Use(middleware.ErrorHandler(log, false))
	h := NewAuthHandler(svc, 30*24*time.Hour, secure)
	h.RegisterAuthRoutes(r.Group("/api/v1"), middleware.Protect(svc))
	return r, svc
}

func doRequest(r http.Handler, method, path, body string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for _, fn := range mutate {
		fn(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bearer(token string) func(*http.Request) {
	return func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+token) }
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func tokenCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.TokenCookie {
			return c
		}
	}
	return nil
}

func TestRegister(t *testing.T) {
	r, svc := setupRouter(t, false)

	in := service.RegisterInput{Name: "A", Email: "a@b.com", Password: "Str0ng!pw", Mobile: "1234567890"}
	svc.On("Register", mock.Anything, in).Return(testUser, nil)

	w := doRequest(r, http.MethodPost, "/api/v1/auth/register",
		`{"name":"A","email":"a@b.com","password":"Str0ng!pw","mobile":"1234567890"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	assert.NotContains(t, w.Body.String(), "secret")
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	user := body["data"].(map[string]any)["user"].(map[string]any)
	assert.Equal(t, "a@b.com", user["email"])
}

func TestRegister_EmptyBodyReachesService(t *testing.T) {
	r, svc := setupRouter(t, false)

	svc.On("Register", mock.Anything, service.RegisterInput{}).Return(nil, service.ErrAllFieldsMandatory)

	w := doRequest(r, http.MethodPost, "/api/v1/auth/register", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, service.MsgAllFieldsMandatory, body["error"])
	assert.Equal(t, "ALL_FIELDS_MAN", body["code"])
}

func TestRegister_InvalidJSON(t *testing.T) {
	r, _ := setupRouter(t, false)

	w := doRequest(r, http.MethodPost, "/api/v1/auth/register", `{"name":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_BODY", decodeBody(t, w)["code"])
}

func TestRegister_FieldErrors(t *testing.T) {
	r, svc := setupRouter(t, false)

	svc.On("Register", mock.Anything, mock.Anything).Return(nil, apperror.NewValidation([]apperror.FieldError{
		{"password": service.MsgPasswordNotStrong},
		{"email": service.MsgEmailInvalid},
	}))

	w := doRequest(r, http.MethodPost, "/api/v1/auth/register", `{"name":"A","email":"x","password":"y","mobile":"1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []any{
		map[string]any{"password": service.MsgPasswordNotStrong},
		map[string]any{"email": service.MsgEmailInvalid},
	}, decodeBody(t, w)["error"])
}

func TestLogin(t *testing.T) {
	r, svc := setupRouter(t, false)

	svc.On("Login", mock.Anything, "a@b.com", "Str0ng!pw").Return(testUser, "jwt-token", nil)

	w := doRequest(r, http.MethodPost, "/api/v1/auth/login", `{"email":"a@b.com","password":"Str0ng!pw"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	data := decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, "jwt-token", data["token"])
	assert.Equal(t, testUser.ID, data["user"].(map[string]any)["id"])

	cookie := tokenCookie(w)
	require.NotNil(t, cookie)
	assert.Equal(t, "jwt-token", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.False(t, cookie.Secure)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), cookie.Expires, time.Minute)
}

func TestLogin_SecureCookieInProduction(t *testing.T) {
	r, svc := setupRouter(t, true)

	svc.On("Login", mock.Anything, "a@b.com", "Str0ng!pw").Return(testUser, "jwt-token", nil)

	w := doRequest(r, http.MethodPost, "/api/v1/auth/login", `{"email":"a@b.com","password":"Str0ng!pw"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, tokenCookie(w).Secure)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	r, svc := setupRouter(t, false)

	svc.On("Login", mock.Anything, "a@b.com", "wrong").Return(nil, "", service.ErrInvalidCredentials)

	w := doRequest(r, http.MethodPost, "/api/v1/auth/login", `{"email":"a@b.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, service.MsgInvalidCredentials, decodeBody(t, w)["error"])
	assert.Nil(t, tokenCookie(w))
}

func TestLogout(t *testing.T) {
	r, _ := setupRouter(t, false)

	w := doRequest(r, http.MethodGet, "/api/v1/auth/logout", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["success"])

	cookie := tokenCookie(w)
	require.NotNil(t, cookie)
	assert.Equal(t, "none", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Expires.Before(time.Now()))
}

func TestMe(t *testing.T) {
	r, svc := setupRouter(t, false)

	svc.On("Authenticate", mock.Anything, "good").Return(testUser, nil)
	svc.On("Me", mock.Anything, testUser.ID).Return(testUser, nil)

	w := doRequest(r, http.MethodGet, "/api/v1/auth/me", "", bearer("good"))
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["status"])
	assert.Equal(t, "a@b.com", body["data"].(map[string]any)["email"])
}

func TestMe_Unauthorized(t *testing.T) {
	r, svc := setupRouter(t, false)

	svc.On("Authenticate", mock.Anything, "").Return(nil, service.ErrNotAuthorized)

	w := doRequest(r, http.MethodGet, "/api/v1/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, service.MsgNotAuthorized, decodeBody(t, w)["error"])
	svc.AssertNotCalled(t, "Me", mock.Anything, mock.Anything)
}

func TestUpdateDetails(t *testing.T) {
	r, svc := setupRouter(t, false)

	updated := *testUser
	updated.Name = "B"
	svc.On("Authenticate", mock.Anything, "good").Return(testUser, nil)
	svc.On("UpdateDetails", mock.Anything, testUser.ID, "B", "555").Return(&updated, nil)

	w := doRequest(r, http.MethodPut, "/api/v1/auth/updatedetails", `{"name":"B","mobile":"555","email":"evil@b.com"}`, bearer("good"))
	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, "B", data["name"])
	assert.Equal(t, "a@b.com", data["email"])
}

func TestUpdatePassword(t *testing.T) {
	r, svc := setupRouter(t, false)

	svc.On("Authenticate", mock.Anything, "good").Return(testUser, nil)
	svc.On("UpdatePassword", mock.Anything, testUser.ID, "Str0ng!pw", "N3w!password").Return(testUser, "fresh-token", nil)

	w := doRequest(r, http.MethodPut, "/api/v1/auth/updatepassword",
		`{"currentPassword":"Str0ng!pw","newPassword":"N3w!password"}`, bearer("good"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "fresh-token", decodeBody(t, w)["data"].(map[string]any)["token"])
	assert.Equal(t, "fresh-token", tokenCookie(w).Value)
}

func TestUpdatePassword_WrongCurrent(t *testing.T) {
	r, svc := setupRouter(t, false)

	svc.On("Authenticate", mock.Anything, "good").Return(testUser, nil)
	svc.On("UpdatePassword", mock.Anything, testUser.ID, "bad", "N3w!password").Return(nil, "", service.ErrIncorrectPassword)

	w := doRequest(r, http.MethodPut, "/api/v1/auth/updatepassword",
		`{"currentPassword":"bad","newPassword":"N3w!password"}`, bearer("good"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INCORRECT_PASS", decodeBody(t, w)["code"])
}

func TestForgotPassword_BuildsResetURL(t *testing.T) {
	tests := []struct {
		name string
		tls  bool
		want string
	}{
		{name: "plain", want: "http://accounts.example.com/api/v1/auth/resetpassword/abc123"},
		{name: "tls", tls: true, want: "https://accounts.example.com/api/v1/auth/resetpassword/abc123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, svc := setupRouter(t, false)

			var built string
			svc.On("ForgotPassword", mock.Anything, "a@b.com", mock.AnythingOfType("func(string) string")).
				Run(func(args mock.Arguments) {
					built = args.Get(2).(func(string) string)("abc123")
				}).
				Return(&service.ResetRequest{ResetURL: tt.want, Message: "msg"}, nil)

			w := doRequest(r, http.MethodPost, "/api/v1/auth/forgotpassword", `{"email":"a@b.com"}`, func(req *http.Request) {
				req.Host = "accounts.example.com"
				if tt.tls {
					req.TLS = &tls.ConnectionState{}
				}
			})

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, built)
			data := decodeBody(t, w)["data"].(map[string]any)
			assert.Equal(t, tt.want, data["resetUrl"])
			assert.Equal(t, "msg", data["message"])
		})
	}
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	r, svc := setupRouter(t, false)

	svc.On("ForgotPassword", mock.Anything, "nobody@b.com", mock.Anything).Return(nil, service.ErrUserNotFound)

	w := doRequest(r, http.MethodPost, "/api/v1/auth/forgotpassword", `{"email":"nobody@b.com"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "USER_NOT_FOUND", decodeBody(t, w)["code"])
}

func TestResetPassword(t *testing.T) {
	r, svc := setupRouter(t, false)

	svc.On("ResetPassword", mock.Anything, "abc123", "N3w!password").Return(testUser, nil)

	w := doRequest(r, http.MethodPut, "/api/v1/auth/resetpassword/abc123", `{"newPassword":"N3w!password"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testUser.ID, decodeBody(t, w)["data"].(map[string]any)["user"].(map[string]any)["id"])
	assert.Nil(t, tokenCookie(w))
}

func TestResetPassword_InvalidToken(t *testing.T) {
	r, svc := setupRouter(t, false)

	svc.On("ResetPassword", mock.Anything, "used", "N3w!password").Return(nil, service.ErrInvalidResetToken)

	w := doRequest(r, http.MethodPut, "/api/v1/auth/resetpassword/used", `{"newPassword":"N3w!password"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, service.MsgInvalidResetToken, decodeBody(t, w)["error"])
}
