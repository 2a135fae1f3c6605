package recommend

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/z-advisor/backend/internal/service/recommend"
)

func setupRouter(t *testing.T) *chi.Mux {
	t.Helper()
	catalog, err := recommend.Default()
	require.NoError(t, err)

	r := chi.NewRouter()
	New(catalog).RegisterRoutes(r)
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
	return resp
}

func TestRecommendationsByRisk(t *testing.T) {
	resp := get(setupRouter(t), "/recommendations?risk=High")
	require.Equal(t, http.StatusOK, resp.Code)

	var body recommendationsResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body.Recommendations, 3)
	assert.Equal(t, "Global Technology Growth", body.Recommendations[0].Name)
	assert.Equal(t, "Small Companies Fund", body.Recommendations[1].Name)
	assert.Contains(t, body.Summary, "Based on a High risk profile")
}

func TestRecommendationsLimit(t *testing.T) {
	resp := get(setupRouter(t), "/recommendations?risk=low&limit=1")
	require.Equal(t, http.StatusOK, resp.Code)

	var body recommendationsResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Len(t, body.Recommendations, 1)

	assert.Equal(t, http.StatusBadRequest, get(setupRouter(t), "/recommendations?risk=low&limit=zero").Code)
}

func TestRecommendationsErrors(t *testing.T) {
	r := setupRouter(t)

	assert.Equal(t, http.StatusBadRequest, get(r, "/recommendations").Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/recommendations?risk=extreme").Code)
}
