package meals

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
	"go.uber.org/goleak"

	"github.com/fitrackapp/fitrack/internal/auth"
	"github.com/fitrackapp/fitrack/pkg"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestRouter(now time.Time) (*mux.Router, *repoMock) {
	repo := newRepoMock()
	handler := NewHandler(repo, nil)
	handler.NowFunc = func() time.Time { return now }

	router := mux.NewRouter()
	handler.SetupRoutes(router.PathPrefix("/api/v1/meals").Subrouter())
	return router, repo
}

func authedRequest(method, target string, body []byte, userID string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(auth.ContextWithUserID(req.Context(), userID))
}

func decodeAPIResponse(t *testing.T, rr *httptest.ResponseRecorder) pkg.APIResponse {
	t.Helper()
	var resp pkg.APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestHandler_Upsert_createsThenUpdates(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	router, repo := newTestRouter(now)

	body := []byte(`{
		"date": "2025-03-10T00:00:00Z",
		"mealType": "breakfast",
		"items": ["oats", "banana"],
		"calories": 450,
		"protein": 20
	}`)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest("PUT", "/api/v1/meals/update", body, "user1"))
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decodeAPIResponse(t, rr)
	assert.Equal(t, "success", resp.Status)

	// second upsert for the same slot updates in place
	body = []byte(`{
		"date": "2025-03-10T00:00:00Z",
		"mealType": "breakfast",
		"items": ["oats", "banana", "honey"],
		"calories": 520,
		"protein": 21
	}`)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest("PUT", "/api/v1/meals/update", body, "user1"))
	require.Equal(t, http.StatusOK, rr.Code)

	userMeals, err := repo.ListForUser(authedRequest("GET", "/", nil, "user1").Context(), "user1")
	require.NoError(t, err)
	require.Len(t, userMeals, 1)
	assert.Equal(t, 520.0, userMeals[0].Calories)
	assert.Len(t, userMeals[0].Items, 3)
}

func TestHandler_Upsert_validation(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	router, _ := newTestRouter(now)

	// missing date
	body := []byte(`{"mealType": "lunch", "items": ["rice"]}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest("PUT", "/api/v1/meals/update", body, "user1"))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	// unknown meal type
	body = []byte(`{"date": "2025-03-10T00:00:00Z", "mealType": "brunch"}`)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest("PUT", "/api/v1/meals/update", body, "user1"))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, decodeAPIResponse(t, rr).Message, "invalid meal type")
}

func TestHandler_List_scopedToUser(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	router, _ := newTestRouter(now)

	upsert := func(userID, mealType string) {
		body := []byte(`{"date": "2025-03-10T00:00:00Z", "mealType": "` + mealType + `", "items": ["food"]}`)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, authedRequest("PUT", "/api/v1/meals/update", body, userID))
		require.Equal(t, http.StatusOK, rr.Code)
	}
	upsert("user1", "breakfast")
	upsert("user1", "lunch")
	upsert("user2", "dinner")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest("GET", "/api/v1/meals", nil, "user1"))
	require.Equal(t, http.StatusOK, rr.Code)

	resp := decodeAPIResponse(t, rr)
	var userMeals []Meal
	rawData, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(rawData, &userMeals))
	assert.Len(t, userMeals, 2)
}

func TestHandler_Delete(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	router, _ := newTestRouter(now)

	body := []byte(`{"date": "2025-03-10T00:00:00Z", "mealType": "dinner", "items": ["pasta"]}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest("PUT", "/api/v1/meals/update", body, "user1"))
	require.Equal(t, http.StatusOK, rr.Code)

	deleteBody := []byte(`{"date": "2025-03-10T00:00:00Z", "mealType": "dinner"}`)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest("DELETE", "/api/v1/meals/delete", deleteBody, "user1"))
	require.Equal(t, http.StatusOK, rr.Code)

	// gone now
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest("DELETE", "/api/v1/meals/delete", deleteBody, "user1"))
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_noUserInContext(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	router, _ := newTestRouter(now)

	req := httptest.NewRequest("GET", "/api/v1/meals", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}
