package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/z-advisor/backend/internal/logging"
	"github.com/zhouzirui/z-advisor/backend/internal/model/profile"
	chatService "github.com/zhouzirui/z-advisor/backend/internal/service/chat"
	recommendService "github.com/zhouzirui/z-advisor/backend/internal/service/recommend"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	profiles := profile.NewMemoryStore(profile.Seed())
	chatSvc := chatService.NewService(chatService.WithProfiles(profiles))
	t.Cleanup(chatSvc.Close)

	catalog, err := recommendService.Default()
	require.NoError(t, err)

	return NewRouter(Deps{
		Profiles:       profiles,
		Chat:           chatSvc,
		Catalog:        catalog,
		AllowedOrigins: []string{"http://localhost:8080"},
		PublicBaseURL:  "http://localhost:8080",
		Logger:         logging.Discard(),
	})
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"status":"ok"}`, resp.Body.String())
}

func TestRoutesMounted(t *testing.T) {
	r := newTestRouter(t)

	cases := map[string]int{
		"/api/profiles":                  http.StatusOK,
		"/api/recommendations?risk=low":  http.StatusOK,
		"/api/sessions/missing/messages": http.StatusNotFound,
		"/api/sessions/missing/export":   http.StatusNotFound,
	}
	for path, want := range cases {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, resp.Code, path)
	}
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/session", strings.NewReader(""))
	req.Header.Set("Origin", "http://localhost:8080")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, "http://localhost:8080", resp.Header().Get("Access-Control-Allow-Origin"))
}
