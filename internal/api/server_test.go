package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/slr/slrgo/internal/auth"
	"github.com/slr/slrgo/internal/tle"
	"github.com/slr/slrgo/internal/transform"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func testServer(authCfg auth.Config, store *tle.Store) http.Handler {
	s := NewServer(":0", testLogger(), authCfg, store, transform.NewStation(0, 0, 0), false)
	return s.HTTPServer().Handler
}

// testCPF builds an ephemeris with 40 samples at 30-second spacing on
// MJD 58000 (2017-09-04), target on a slowly drifting 7000 km radius.
func testCPF() string {
	var b strings.Builder
	b.WriteString("H1 CPF 1 SGF 2017 9 3 10 7411 ajisai\n")
	b.WriteString("H2 8606101 1500 16908 2017 9 4 0 0 0 2017 9 4 0 19 30 30 1 1 0 0 0\n")
	for i := 0; i < 40; i++ {
		sod := float64(i) * 30.0
		fmt.Fprintf(&b, "10 0 58000 %.1f 0 %.1f %.1f 0.0\n", sod, 7000e3+float64(i)*100.0, float64(i)*500.0)
	}
	b.WriteString("99\n")
	return b.String()
}

func postJSON(t *testing.T, h http.Handler, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoints(t *testing.T) {
	h := testServer(auth.Config{}, tle.NewStore())
	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rr.Code)
		}
	}
}

func TestPredictGeometric(t *testing.T) {
	h := testServer(auth.Config{}, tle.NewStore())

	start := time.Date(2017, 9, 4, 0, 5, 0, 0, time.UTC)
	rr := postJSON(t, h, "/api/v1/predict", map[string]any{
		"cpf":      testCPF(),
		"start":    start,
		"end":      start.Add(2 * time.Minute),
		"step_sec": 10,
		"mode":     "geometric",
	}, "")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var resp predictResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Target != "ajisai" {
		t.Errorf("target = %q, want ajisai", resp.Target)
	}
	if len(resp.Samples) != 12 {
		t.Errorf("sample count = %d, want 12", len(resp.Samples))
	}
	for _, s := range resp.Samples {
		if s.RangeM <= 0 || s.TOF <= 0 {
			t.Errorf("sample at %v has range %.1f tof %g", s.UTC, s.RangeM, s.TOF)
		}
	}
}

func TestPredictErrorMapping(t *testing.T) {
	h := testServer(auth.Config{}, tle.NewStore())
	start := time.Date(2017, 9, 4, 0, 5, 0, 0, time.UTC)

	tests := []struct {
		name string
		body map[string]any
	}{
		{
			name: "unknown mode",
			body: map[string]any{
				"cpf": testCPF(), "start": start, "end": start.Add(time.Minute),
				"step_sec": 10, "mode": "instantaneous",
			},
		},
		{
			name: "window outside interior",
			body: map[string]any{
				"cpf": testCPF(), "start": start.Add(-time.Hour), "end": start,
				"step_sec": 10, "mode": "geometric",
			},
		},
		{
			name: "malformed cpf",
			body: map[string]any{
				"cpf": "H1 CPF 1\n", "start": start, "end": start.Add(time.Minute),
				"step_sec": 10, "mode": "geometric",
			},
		},
	}

	for _, tt := range tests {
		rr := postJSON(t, h, "/api/v1/predict", tt.body, "")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400 (body %s)", tt.name, rr.Code, rr.Body.String())
		}
	}
}

func TestPassesRequiresDataset(t *testing.T) {
	h := testServer(auth.Config{}, tle.NewStore())
	rr := postJSON(t, h, "/api/v1/passes", map[string]any{
		"start": time.Now().UTC(), "horizon_hours": 1, "cutoff_deg": 10,
	}, "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 without a dataset", rr.Code)
	}
}

func TestAuthProtectsPredict(t *testing.T) {
	h := testServer(auth.Config{Enabled: true, Token: "secret"}, tle.NewStore())

	rr := postJSON(t, h, "/api/v1/predict", map[string]any{}, "")
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", rr.Code)
	}

	rr = postJSON(t, h, "/api/v1/predict", map[string]any{}, "secret")
	if rr.Code == http.StatusUnauthorized {
		t.Error("valid token rejected")
	}

	// Probes stay open.
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("healthz with auth enabled = %d, want 200", rec.Code)
	}
}

func TestTLEMetadata(t *testing.T) {
	store := tle.NewStore()
	h := testServer(auth.Config{}, store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tle/metadata", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status without dataset = %d, want 503", rr.Code)
	}

	loaded := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)
	store.Set(tle.NewDataset("file:test.tle", loaded, []tle.Entry{
		{NoradID: 16908, Name: "AJISAI", Epoch: loaded.Add(-12 * time.Hour)},
	}))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/tle/metadata", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var meta struct {
		Source     string `json:"source"`
		NumTargets int    `json:"num_targets"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &meta); err != nil {
		t.Fatalf("decode metadata: %v", err)
	}
	if meta.Source != "file:test.tle" || meta.NumTargets != 1 {
		t.Errorf("metadata = %+v", meta)
	}
}
