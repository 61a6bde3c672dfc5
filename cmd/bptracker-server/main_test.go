package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/bptracker/bptracker/internal/config"
	"github.com/bptracker/bptracker/internal/domain/reading"
	"github.com/bptracker/bptracker/internal/platform/metrics"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestClassifyCmd(t *testing.T) {
	out, err := runCmd(t, "classify", "135", "85", "72")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Blood pressure 135/85: High Stage 1 (high)") {
		t.Errorf("unexpected output: %s", out)
	}
	if !strings.Contains(out, "Pulse 72: Normal (normal)") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestClassifyCmd_WithoutPulse(t *testing.T) {
	out, err := runCmd(t, "classify", "185", "100")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Blood pressure 185/100: Crisis (crisis)") {
		t.Errorf("unexpected output: %s", out)
	}
	if strings.Contains(out, "Pulse") {
		t.Errorf("pulse line should be omitted: %s", out)
	}
}

func TestClassifyCmd_Rejects(t *testing.T) {
	tests := [][]string{
		{"classify", "120"},
		{"classify", "abc", "80"},
		{"classify", "80", "120"},
		{"classify", "120", "80", "250"},
	}
	for _, args := range tests {
		if _, err := runCmd(t, args...); err == nil {
			t.Errorf("expected error for %v", args)
		}
	}
}

func TestExportCmd_RejectsUnknownFormat(t *testing.T) {
	_, err := runCmd(t, "export", "--format", "docx")
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestWriteOutput(t *testing.T) {
	var stdout bytes.Buffer
	if err := writeOutput(&stdout, "-", []byte("a,b\n")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stdout.String() != "a,b\n" {
		t.Errorf("expected data on stdout, got %q", stdout.String())
	}

	stdout.Reset()
	path := filepath.Join(t.TempDir(), "report.csv")
	if err := writeOutput(&stdout, path, []byte("a,b\n")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got) != "a,b\n" {
		t.Errorf("unexpected file contents %q", got)
	}
}

func TestRunServer_ReturnsConfigErrors(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if err := runServer(false); err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("expected missing DATABASE_URL error, got %v", err)
	}

	t.Setenv("DATABASE_URL", ":memory:")
	t.Setenv("DB_DRIVER", "mysql")
	if err := runServer(false); err == nil || !strings.Contains(err.Error(), "DB_DRIVER") {
		t.Fatalf("expected invalid DB_DRIVER error, got %v", err)
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Env:               "test",
		DBDriver:          config.DriverSQLite,
		DatabaseURL:       ":memory:",
		Timezone:          "Asia/Hong_Kong",
		DefaultWindowDays: 14,
		CORSOrigins:       []string{"*"},
		BodyLimit:         "64K",
		RequestTimeout:    5 * time.Second,
	}
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	cfg := testConfig()

	st, err := openStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(st.close)

	svc, err := newService(cfg, st.repo, zerolog.Nop())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg, reg)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	return newServer(cfg, zerolog.Nop(), svc, st.health, m)
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_ReadingLifecycle(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/readings",
		`{"upperPressure":135,"lowerPressure":85,"pulseRate":72,"inputDate":"29/10/2025","inputTime":"08:15"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID      int64 `json:"id"`
		Reading struct {
			Date string `json:"inputDate"`
			Time string `json:"inputTime"`
		} `json:"reading"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Reading.Date != "2025-10-29" || created.Reading.Time != "08:15:00" {
		t.Errorf("unexpected stored stamp %+v", created.Reading)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected request id header")
	}

	rec = do(t, srv, http.MethodPost, "/api/readings",
		`{"upperPressure":120,"lowerPressure":70,"pulseRate":60,"inputDate":"2025-10-29","inputTime":"08:15"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate stamp: expected 409, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error"`) {
		t.Errorf("expected error body, got %s", rec.Body.String())
	}

	rec = do(t, srv, http.MethodGet, "/api/readings?fromDate=29/10/2025&toDate=29/10/2025", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Total-Count") != "1" {
		t.Errorf("expected 1 match, got %q", rec.Header().Get("X-Total-Count"))
	}

	rec = do(t, srv, http.MethodGet, "/api/readings/table?fromDate=2025-10-29&toDate=2025-10-29", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("table: expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), reading.BPHighStage1.Label) {
		t.Errorf("expected category in table: %s", rec.Body.String())
	}

	rec = do(t, srv, http.MethodGet, "/api/readings/export?format=csv", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("export: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "blood-pressure-records.csv") {
		t.Errorf("unexpected disposition %q", rec.Header().Get("Content-Disposition"))
	}

	target := "/api/readings/" + strconv.FormatInt(created.ID, 10)
	rec = do(t, srv, http.MethodDelete, target, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}
	rec = do(t, srv, http.MethodGet, target, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: expected 404, got %d", rec.Code)
	}

	rec = do(t, srv, http.MethodGet, "/api/readings/export?format=pdf", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty export: expected 400, got %d", rec.Code)
	}
}

func TestServer_HealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("health: expected 200, got %d", rec.Code)
	}

	rec = do(t, srv, http.MethodGet, "/health/db", "")
	if rec.Code != http.StatusOK {
		t.Errorf("health/db: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	do(t, srv, http.MethodPost, "/api/classify", `{"upperPressure":118,"lowerPressure":76}`)

	rec = do(t, srv, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `bptracker_http_requests_total{method="POST",route="/api/classify",status="200"} 1`) {
		t.Errorf("expected classify request to be counted:\n%s", rec.Body.String())
	}
}

func TestServer_RejectsOversizedBody(t *testing.T) {
	srv := newTestServer(t)

	body := `{"upperPressure":120,"lowerPressure":80,"pulseRate":70,"inputDate":"` + strings.Repeat("x", 70<<10) + `"}`
	rec := do(t, srv, http.MethodPost, "/api/readings", body)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rec.Code)
	}
}
