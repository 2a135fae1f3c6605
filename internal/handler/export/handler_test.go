package export

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/zhouzirui/z-advisor/backend/internal/logging"
	"github.com/zhouzirui/z-advisor/backend/internal/model/profile"
	chatservice "github.com/zhouzirui/z-advisor/backend/internal/service/chat"
	"github.com/zhouzirui/z-advisor/backend/internal/service/export"
)

func setup(t *testing.T, baseURL string) (*chi.Mux, string) {
	t.Helper()
	chatSvc := chatservice.NewService(chatservice.WithProfiles(profile.NewMemoryStore(profile.Seed())))
	t.Cleanup(chatSvc.Close)

	session, err := chatSvc.CreateSession(context.Background(), profile.DefaultID)
	require.NoError(t, err)

	sub, ok, err := chatSvc.Submit(context.Background(), session.ID, chatservice.Request{Text: "show my allocation"})
	require.NoError(t, err)
	require.True(t, ok)
	<-sub.Reply

	r := chi.NewRouter()
	New(chatSvc, baseURL, logging.Discard()).RegisterRoutes(r)
	return r, session.ID
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
	return resp
}

func TestExportWorkbook(t *testing.T) {
	r, sessionID := setup(t, "http://localhost:8080")

	resp := get(r, "/sessions/"+sessionID+"/export")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, xlsxContentType, resp.Header().Get("Content-Type"))

	f, err := excelize.OpenReader(bytes.NewReader(resp.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Contains(t, f.GetSheetList(), export.AllocationSheet)
	assert.NotContains(t, f.GetSheetList(), export.PerformanceSheet)
}

func TestShareQRCode(t *testing.T) {
	r, sessionID := setup(t, "http://localhost:8080")

	resp := get(r, "/sessions/"+sessionID+"/share")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "image/png", resp.Header().Get("Content-Type"))
	assert.Equal(t, "http://localhost:8080/chat/"+sessionID, resp.Header().Get("X-Share-Link"))
	assert.True(t, bytes.HasPrefix(resp.Body.Bytes(), []byte("\x89PNG")))

	assert.Equal(t, http.StatusBadRequest, get(r, "/sessions/"+sessionID+"/share?size=5").Code)
}

func TestShareWithoutBaseURL(t *testing.T) {
	r, sessionID := setup(t, "")

	assert.Equal(t, http.StatusServiceUnavailable, get(r, "/sessions/"+sessionID+"/share").Code)
}

func TestUnknownSession(t *testing.T) {
	r, _ := setup(t, "http://localhost:8080")

	assert.Equal(t, http.StatusNotFound, get(r, "/sessions/missing/export").Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/sessions/missing/share").Code)
}
