package api_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JaimeStill/costmap/internal/api"
	"github.com/JaimeStill/costmap/internal/config"
	"github.com/JaimeStill/costmap/internal/infrastructure"
	"github.com/JaimeStill/costmap/pkg/middleware"
)

func newModule(t *testing.T) http.Handler {
	t.Helper()

	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
version = "0.9.0"

[database]
name = "costmap"
user = "costmap"
port = 1
conn_timeout = "200ms"

[pipeline]
window_days = 60
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	infra, err := infrastructure.New(cfg, infrastructure.WithLogOutput(io.Discard))
	if err != nil {
		t.Fatalf("infrastructure.New() error = %v", err)
	}

	m, err := api.NewModule(cfg, infra)
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}
	if m.Prefix() != "/api" {
		t.Fatalf("Prefix() = %q", m.Prefix())
	}
	return m
}

func TestEnvironment(t *testing.T) {
	m := newModule(t)

	req := httptest.NewRequest(http.MethodGet, "/api/environment", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get(middleware.RequestIDHeader); got != "req-1" {
		t.Errorf("request id = %q, want propagated", got)
	}

	var env api.Environment
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Version != "0.9.0" || env.WindowDays != 60 || env.FingerprintWindowDays != 180 {
		t.Errorf("env = %+v", env)
	}
	if env.StorageEnabled {
		t.Error("StorageEnabled = true without endpoint")
	}
}

func TestRoutesRegistered(t *testing.T) {
	m := newModule(t)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/pipeline/status", http.StatusOK},
		{http.MethodGet, "/api/pipeline/runs/not-a-uuid", http.StatusBadRequest},
		{http.MethodPost, "/api/transactions/upload", http.StatusBadRequest},
		{http.MethodPost, "/api/locations/import/regions", http.StatusBadRequest},
		{http.MethodGet, "/api/archive/runs/BATCH_20260301_080000.json", http.StatusNotFound},
		{http.MethodGet, "/api/health", http.StatusServiceUnavailable},
		{http.MethodGet, "/api/health/database", http.StatusServiceUnavailable},
		{http.MethodGet, "/api/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			m.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
			if rec.Header().Get(middleware.RequestIDHeader) == "" {
				t.Error("request id header missing")
			}
		})
	}
}

func TestOpenAPIDocument(t *testing.T) {
	m := newModule(t)

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/openapi.json", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var doc struct {
		OpenAPI string `json:"openapi"`
		Info    struct {
			Title   string `json:"title"`
			Version string `json:"version"`
		} `json:"info"`
		Paths map[string]map[string]struct {
			Summary     string                     `json:"summary"`
			Parameters  []map[string]any           `json:"parameters"`
			RequestBody json.RawMessage            `json:"requestBody"`
			Responses   map[string]json.RawMessage `json:"responses"`
		} `json:"paths"`
		Components struct {
			Schemas   map[string]json.RawMessage `json:"schemas"`
			Responses map[string]json.RawMessage `json:"responses"`
		} `json:"components"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&doc); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if doc.OpenAPI != "3.1.0" || doc.Info.Title != "costmap API" || doc.Info.Version != "0.9.0" {
		t.Errorf("header = %s %+v", doc.OpenAPI, doc.Info)
	}

	run, ok := doc.Paths["/pipeline/runs/{id}"]["get"]
	if !ok {
		t.Fatalf("paths = %v", doc.Paths)
	}
	if len(run.Parameters) != 1 || run.Parameters[0]["name"] != "id" {
		t.Errorf("parameters = %v", run.Parameters)
	}
	if _, ok := run.Responses["404"]; !ok {
		t.Errorf("responses = %v", run.Responses)
	}

	upload, ok := doc.Paths["/transactions/upload"]["post"]
	if !ok {
		t.Fatal("upload operation missing")
	}
	if !strings.Contains(string(upload.RequestBody), "#/components/schemas/UploadRequest") {
		t.Errorf("upload body = %s", upload.RequestBody)
	}
	if !strings.Contains(string(upload.Responses["200"]), "#/components/schemas/UploadResult") {
		t.Errorf("upload 200 = %s", upload.Responses["200"])
	}

	for _, name := range []string{"UploadRequest", "UploadResult", "Summary", "SummaryPage", "Health", "DatabaseReport", "Error"} {
		if _, ok := doc.Components.Schemas[name]; !ok {
			t.Errorf("schema %s missing", name)
		}
	}
	if _, ok := doc.Components.Responses["Unavailable"]; !ok {
		t.Error("Unavailable response missing")
	}
	if _, ok := doc.Paths["/health"]["get"].Responses["503"]; !ok {
		t.Error("health 503 response missing")
	}
	if _, ok := doc.Paths["/archive/{key}"]; ok {
		t.Error("archive documented without storage")
	}
}
