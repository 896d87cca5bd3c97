package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitrackapp/fitrack/pkg"
)

func newTestRouter() (*mux.Router, *Service) {
	service := NewService(newRepoMock(), "test-secret", 0)
	handler := NewHandler(service, nil, false)

	router := mux.NewRouter()
	handler.SetupRoutes(router.PathPrefix("/api/v1/auth").Subrouter())
	return router, service
}

func jsonRequest(method, target string, body []byte) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeAPIResponse(t *testing.T, rr *httptest.ResponseRecorder) pkg.APIResponse {
	t.Helper()
	var resp pkg.APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func decodeTokenResponse(t *testing.T, rr *httptest.ResponseRecorder) TokenResponse {
	t.Helper()
	resp := decodeAPIResponse(t, rr)
	rawData, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var tokenResp TokenResponse
	require.NoError(t, json.Unmarshal(rawData, &tokenResp))
	return tokenResp
}

func TestHandler_Register(t *testing.T) {
	router, service := newTestRouter()

	body := []byte(`{"username": "serj", "email": "serj@example.com", "password": "password123"}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, jsonRequest("POST", "/api/v1/auth/register", body))

	require.Equal(t, http.StatusCreated, rr.Code)
	tokenResp := decodeTokenResponse(t, rr)
	require.NotEmpty(t, tokenResp.Token)
	require.NotNil(t, tokenResp.User)
	assert.Equal(t, "serj", tokenResp.User.Username)

	// issued token is valid
	claims, err := service.Verify(tokenResp.Token)
	require.NoError(t, err)
	assert.Equal(t, tokenResp.User.ID.Hex(), claims.UserID)

	// cookie set
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "token", cookies[0].Name)
	assert.Equal(t, tokenResp.Token, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestHandler_Register_passwordNotInResponse(t *testing.T) {
	router, _ := newTestRouter()

	body := []byte(`{"username": "serj", "email": "serj@example.com", "password": "password123"}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, jsonRequest("POST", "/api/v1/auth/register", body))

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.NotContains(t, rr.Body.String(), "password123")
	assert.NotContains(t, rr.Body.String(), `"password"`)
}

func TestHandler_Register_duplicate(t *testing.T) {
	router, _ := newTestRouter()

	body := []byte(`{"username": "serj", "email": "serj@example.com", "password": "password123"}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, jsonRequest("POST", "/api/v1/auth/register", body))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, jsonRequest("POST", "/api/v1/auth/register", body))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "user with that email or username already exists", decodeAPIResponse(t, rr).Message)
}

func TestHandler_Register_validation(t *testing.T) {
	router, _ := newTestRouter()

	body := []byte(`{"username": "ab", "email": "serj@example.com", "password": "password123"}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, jsonRequest("POST", "/api/v1/auth/register", body))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeAPIResponse(t, rr).Message, "username must have at least 3 characters")
}

func TestHandler_Login(t *testing.T) {
	router, _ := newTestRouter()

	registerBody := []byte(`{"username": "serj", "email": "serj@example.com", "password": "password123"}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, jsonRequest("POST", "/api/v1/auth/register", registerBody))
	require.Equal(t, http.StatusCreated, rr.Code)

	loginBody := []byte(`{"email": "serj@example.com", "password": "password123"}`)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, jsonRequest("POST", "/api/v1/auth/login", loginBody))

	require.Equal(t, http.StatusOK, rr.Code)
	tokenResp := decodeTokenResponse(t, rr)
	assert.NotEmpty(t, tokenResp.Token)
}

func TestHandler_Login_invalidCredentials(t *testing.T) {
	router, _ := newTestRouter()

	body := []byte(`{"email": "nobody@example.com", "password": "password123"}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, jsonRequest("POST", "/api/v1/auth/login", body))

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "invalid credentials", decodeAPIResponse(t, rr).Message)
}

func TestHandler_Logout_clearsCookie(t *testing.T) {
	router, _ := newTestRouter()

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, jsonRequest("POST", "/api/v1/auth/logout", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "token", cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.True(t, cookies[0].Expires.Before(time.Now()))
}

func TestHandler_Me(t *testing.T) {
	router, service := newTestRouter()

	user, err := service.Register(jsonRequest("GET", "/", nil).Context(), "serj", "serj@example.com", "password123")
	require.NoError(t, err)

	req := jsonRequest("GET", "/api/v1/auth/me", nil)
	req = req.WithContext(ContextWithUserID(req.Context(), user.ID.Hex()))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"username":"serj"`)
}

func TestHandler_Me_noUserInContext(t *testing.T) {
	router, _ := newTestRouter()

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, jsonRequest("GET", "/api/v1/auth/me", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}
