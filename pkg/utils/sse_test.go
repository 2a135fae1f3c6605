package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendSSEEventFormatsFrame(t *testing.T) {
	rec := httptest.NewRecorder()
	SetupSSEHeaders(rec)

	if err := SendSSEEvent(rec, rec, "message", map[string]string{"content": "hi"}); err != nil {
		t.Fatalf("SendSSEEvent err: %v", err)
	}

	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("unexpected content type: %s", got)
	}
	want := "event: message\ndata: {\"content\":\"hi\"}\n\n"
	if rec.Body.String() != want {
		t.Fatalf("unexpected frame: %q", rec.Body.String())
	}
	if !rec.Flushed {
		t.Fatal("expected frame to be flushed")
	}
}

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, http.StatusNotFound, "session not found")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec.Body.String() != "{\"error\":\"session not found\"}\n" {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
}
