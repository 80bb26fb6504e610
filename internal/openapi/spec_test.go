package openapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
)

func TestSpecDescribesAllRoutes(t *testing.T) {
	doc := Spec()

	wantPaths := []string{
		"/api/v1/connect",
		"/api/v1/disconnect",
		"/api/v1/status",
		"/api/v1/schema",
		"/api/v1/chat",
		"/api/v1/chat/history",
		"/api/v1/directive",
		"/healthz",
	}
	for _, path := range wantPaths {
		if doc.Paths.Find(path) == nil {
			t.Errorf("document is missing path %s", path)
		}
	}

	history := doc.Paths.Find("/api/v1/chat/history")
	if history.Get == nil || history.Delete == nil {
		t.Error("chat history should expose GET and DELETE")
	}
	directive := doc.Paths.Find("/api/v1/directive")
	if directive.Get == nil || directive.Post == nil || directive.Delete == nil {
		t.Error("directive should expose GET, POST and DELETE")
	}
}

func TestSpecSecuresProtectedOperations(t *testing.T) {
	doc := Spec()

	if doc.Components.SecuritySchemes["bearerAuth"] == nil {
		t.Fatal("bearerAuth security scheme not defined")
	}

	connect := doc.Paths.Find("/api/v1/connect").Post
	if connect.Security != nil {
		t.Error("connect must be reachable without a token")
	}
	chat := doc.Paths.Find("/api/v1/chat").Post
	if chat.Security == nil {
		t.Error("chat must require a token")
	}
}

func TestHandlerServesValidJSON(t *testing.T) {
	h := Handler(slog.New(slog.DiscardHandler))

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest("GET", "/openapi.json", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("content type = %q", got)
	}

	body, _ := io.ReadAll(rec.Body)
	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if parsed["openapi"] != "3.1.0" {
		t.Errorf("openapi version = %v", parsed["openapi"])
	}
}
