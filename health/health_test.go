package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRoot(t *testing.T) {
	status := NewStatus()
	status.Set(StatusOnline)
	rec := httptest.NewRecorder()
	NewRouter(status).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("code = %d", rec.Code)
	}
	if got := rec.Body.String(); got != "Discord Bot Status: online" {
		t.Errorf("body = %q", got)
	}
}

func TestHealth(t *testing.T) {
	status := NewStatus()
	rec := httptest.NewRecorder()
	NewRouter(status).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "healthy" || body["bot_status"] != StatusStarting {
		t.Errorf("body = %v", body)
	}
}

func TestUnknownPath(t *testing.T) {
	rec := httptest.NewRecorder()
	NewRouter(NewStatus()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("code = %d, want 404", rec.Code)
	}
}
