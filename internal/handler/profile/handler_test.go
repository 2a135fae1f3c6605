package profile

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/z-advisor/backend/internal/model/profile"
)

func setupRouter() *chi.Mux {
	r := chi.NewRouter()
	New(profile.NewMemoryStore(profile.Seed())).RegisterRoutes(r)
	return r
}

func TestListProfilesIncludesGoalProgress(t *testing.T) {
	r := setupRouter()

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/profiles", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var views []struct {
		ID           string  `json:"id"`
		GoalProgress float64 `json:"goalProgress"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &views); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(views) != len(profile.Seed()) {
		t.Fatalf("expected %d profiles, got %d", len(profile.Seed()), len(views))
	}
	if views[0].ID != profile.DefaultID || views[0].GoalProgress != 26 {
		t.Fatalf("unexpected first profile: %+v", views[0])
	}
}

func TestGetProfile(t *testing.T) {
	r := setupRouter()

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/profiles/"+profile.DefaultID, nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	missing := httptest.NewRecorder()
	r.ServeHTTP(missing, httptest.NewRequest(http.MethodGet, "/profiles/nobody", nil))
	if missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", missing.Code)
	}
}
