package connection

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yndnr/worldsave-go/internal/core/domain"
	"github.com/yndnr/worldsave-go/internal/server/httpserver"
)

func TestNewHTTPClient(t *testing.T) {
	tests := []struct {
		server string
		want   string
	}{
		{"http://localhost:9464", "http://localhost:9464"},
		{"https://localhost:9464/", "https://localhost:9464"},
		{"localhost:9464", "http://localhost:9464"},
	}
	for _, tt := range tests {
		if got := NewHTTPClient(tt.server).BaseURL(); got != tt.want {
			t.Errorf("BaseURL(%q) = %q, want %q", tt.server, got, tt.want)
		}
	}
}

func TestHTTPClient_Endpoints(t *testing.T) {
	var last *domain.SaveSummary
	srv := httptest.NewServer(httpserver.NewRouter(&httpserver.RouterConfig{
		LastSave: func() (*domain.SaveSummary, bool) { return last, last != nil },
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL)
	ctx := context.Background()

	health, err := client.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health["status"] != "healthy" {
		t.Errorf("health status = %v, want healthy", health["status"])
	}

	_, err = client.LastSave(ctx)
	if err == nil || !strings.Contains(err.Error(), "WS-ARG-1001") {
		t.Errorf("LastSave without save error = %v, want WS-ARG-1001", err)
	}

	last = &domain.SaveSummary{RunID: "01RUN", Instances: 5}
	got, err := client.LastSave(ctx)
	if err != nil {
		t.Fatalf("LastSave: %v", err)
	}
	if got.RunID != "01RUN" || got.Instances != 5 {
		t.Errorf("LastSave = %+v", got)
	}
}

func TestParseResponse_PlainError(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.WriteHeader(http.StatusBadGateway)
	err := ParseResponse(rec.Result(), nil)
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Errorf("ParseResponse error = %v, want status 502", err)
	}
}
