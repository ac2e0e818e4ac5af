package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/slr/slrgo/internal/astro"
	"github.com/slr/slrgo/internal/auth"
	"github.com/slr/slrgo/internal/cpf"
	"github.com/slr/slrgo/internal/health"
	"github.com/slr/slrgo/internal/httputil"
	"github.com/slr/slrgo/internal/metrics"
	"github.com/slr/slrgo/internal/passes"
	"github.com/slr/slrgo/internal/predict"
	"github.com/slr/slrgo/internal/quasitime"
	"github.com/slr/slrgo/internal/tle"
	"github.com/slr/slrgo/internal/transform"
)

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	store      *tle.Store
	station    transform.Station
	trustProxy bool
}

// NewServer creates a configured HTTP server. The station is the
// default observing site for requests that do not carry their own.
func NewServer(addr string, logger *slog.Logger, authCfg auth.Config, store *tle.Store, station transform.Station, trustProxy bool) *Server {
	s := &Server{
		logger:     logger,
		store:      store,
		station:    station,
		trustProxy: trustProxy,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/v1/tle/metadata", s.handleTLEMetadata)
	mux.HandleFunc("POST /api/v1/predict", s.handlePredict)
	mux.HandleFunc("POST /api/v1/passes", s.handlePasses)
	mux.HandleFunc("POST /api/v1/visibility", s.handleVisibility)

	// Build middleware chain: metrics -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(authCfg)(handler)
	handler = s.loggingMiddleware(handler)
	handler = metrics.Middleware(handler)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// stationSpec optionally overrides the server's default site, either
// geodetic or geocentric.
type stationSpec struct {
	LatDeg *float64    `json:"lat_deg,omitempty"`
	LonDeg *float64    `json:"lon_deg,omitempty"`
	AltM   float64     `json:"alt_m,omitempty"`
	ECEF   *[3]float64 `json:"ecef_m,omitempty"`
}

func (s *Server) resolveStation(spec *stationSpec) (transform.Station, error) {
	if spec == nil {
		return s.station, nil
	}
	if spec.ECEF != nil {
		return transform.NewStationECEF(spec.ECEF[0], spec.ECEF[1], spec.ECEF[2]), nil
	}
	if spec.LatDeg != nil && spec.LonDeg != nil {
		return transform.NewStation(*spec.LatDeg, *spec.LonDeg, spec.AltM), nil
	}
	return transform.Station{}, fmt.Errorf("station needs lat_deg/lon_deg or ecef_m")
}

type predictRequest struct {
	CPF     string       `json:"cpf"`
	Start   time.Time    `json:"start"`
	End     time.Time    `json:"end"`
	StepSec float64      `json:"step_sec"`
	Mode    string       `json:"mode"`
	Station *stationSpec `json:"station,omitempty"`
}

type predictResponse struct {
	Target  string           `json:"target"`
	Mode    string           `json:"mode"`
	Samples []predict.Sample `json:"samples"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.CPF == "" {
		writeError(w, http.StatusBadRequest, "cpf field is required")
		return
	}
	if req.StepSec <= 0 {
		writeError(w, http.StatusBadRequest, "step_sec must be positive")
		return
	}

	sta, err := s.resolveStation(req.Station)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := cpf.Parse(strings.NewReader(req.CPF))
	if err != nil {
		metrics.RecordCPFParse("error")
		s.writeDomainError(w, err)
		return
	}
	metrics.RecordCPFParse("ok")

	samples, err := predict.Trajectory(rec, req.Start, req.End, req.StepSec, predict.Mode(req.Mode), sta)
	if err != nil {
		metrics.RecordPrediction(req.Mode, "error")
		s.writeDomainError(w, err)
		return
	}
	metrics.RecordPrediction(req.Mode, "ok")

	writeJSON(w, http.StatusOK, predictResponse{
		Target:  rec.TargetName,
		Mode:    req.Mode,
		Samples: samples,
	})
}

type passesRequest struct {
	NoradIDs     []int        `json:"norad_ids,omitempty"`
	Start        time.Time    `json:"start"`
	HorizonHours float64      `json:"horizon_hours"`
	CutoffDeg    float64      `json:"cutoff_deg"`
	Station      *stationSpec `json:"station,omitempty"`
}

func (s *Server) handlePasses(w http.ResponseWriter, r *http.Request) {
	var req passesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	batch, ok := s.buildBatch(w, req.Start, req.HorizonHours, req.CutoffDeg, req.Station, req.NoradIDs)
	if !ok {
		return
	}
	batch.TwilightDeg = astro.TwilightDark

	metrics.RecordPassScan()
	results := passes.Predict(r.Context(), batch)
	for i := range results {
		results[i].Windows = nil
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

type visibilityRequest struct {
	NoradIDs       []int        `json:"norad_ids,omitempty"`
	Start          time.Time    `json:"start"`
	HorizonHours   float64      `json:"horizon_hours"`
	CutoffDeg      float64      `json:"cutoff_deg"`
	Twilight       string       `json:"twilight"`
	MinDurationSec float64      `json:"min_duration_sec"`
	WithListing    bool         `json:"with_listing"`
	Station        *stationSpec `json:"station,omitempty"`
}

type visibilityResponse struct {
	Results  []passes.TargetResult  `json:"results"`
	ByTarget []passes.VisibleWindow `json:"by_target"`
	ByDate   []passes.DateGroup     `json:"by_date"`
}

func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request) {
	var req visibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	twilight := astro.TwilightNautical
	if req.Twilight != "" {
		var err error
		twilight, err = astro.ParseTwilight(req.Twilight)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	batch, ok := s.buildBatch(w, req.Start, req.HorizonHours, req.CutoffDeg, req.Station, req.NoradIDs)
	if !ok {
		return
	}
	batch.TwilightDeg = twilight
	batch.MinDuration = time.Duration(req.MinDurationSec * float64(time.Second))
	batch.WithListing = req.WithListing

	metrics.RecordPassScan()
	results := passes.Predict(r.Context(), batch)

	var windows []passes.VisibleWindow
	for _, res := range results {
		windows = append(windows, res.Windows...)
	}
	byTarget, byDate := passes.Aggregate(windows, batch.MinDuration)

	writeJSON(w, http.StatusOK, visibilityResponse{
		Results:  results,
		ByTarget: byTarget,
		ByDate:   byDate,
	})
}

// buildBatch validates the shared scan parameters and selects the TLE
// entries. A false return means the response has already been written.
func (s *Server) buildBatch(w http.ResponseWriter, start time.Time, horizonHours, cutoffDeg float64, spec *stationSpec, noradIDs []int) (passes.Request, bool) {
	if horizonHours <= 0 || horizonHours > 168 {
		writeError(w, http.StatusBadRequest, "horizon_hours must be in (0, 168]")
		return passes.Request{}, false
	}

	sta, err := s.resolveStation(spec)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return passes.Request{}, false
	}

	ds := s.store.Get()
	if ds == nil {
		writeError(w, http.StatusServiceUnavailable, "no TLE dataset loaded")
		return passes.Request{}, false
	}

	entries := ds.Targets
	if len(noradIDs) > 0 {
		want := make(map[int]bool, len(noradIDs))
		for _, id := range noradIDs {
			want[id] = true
		}
		var selected []tle.Entry
		for _, e := range ds.Targets {
			if want[e.NoradID] {
				selected = append(selected, e)
			}
		}
		if len(selected) == 0 {
			writeError(w, http.StatusNotFound, "no requested targets in the loaded catalog")
			return passes.Request{}, false
		}
		entries = selected
	}

	return passes.Request{
		Station:      sta,
		Entries:      entries,
		Start:        start,
		HorizonHours: horizonHours,
		CutoffDeg:    cutoffDeg,
	}, true
}

func (s *Server) handleTLEMetadata(w http.ResponseWriter, r *http.Request) {
	ds := s.store.Get()
	if ds == nil {
		writeError(w, http.StatusServiceUnavailable, "no TLE dataset loaded")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"source":      ds.Source,
		"loaded_at":   ds.LoadedAt,
		"epoch_min":   ds.Epochs.Min,
		"epoch_max":   ds.Epochs.Max,
		"num_targets": len(ds.Targets),
	})
}

// writeDomainError maps the prediction core's error kinds onto HTTP
// statuses: malformed input and bad windows are the caller's fault.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var formatErr *cpf.FormatError
	var rangeErr *quasitime.OutOfRangeError
	var modeErr *predict.ModeError

	switch {
	case errors.As(err, &formatErr), errors.As(err, &rangeErr), errors.As(err, &modeErr):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("request failed", "component", "api", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(sr, r)

		duration := time.Since(start)
		level := slog.LevelInfo
		if probePath(r.URL.Path) {
			level = slog.LevelDebug
		}

		s.logger.Log(r.Context(), level, "request",
			"component", "api",
			"method", r.Method,
			"path", r.URL.Path,
			"status", strconv.Itoa(sr.statusCode),
			"duration_ms", duration.Milliseconds(),
			"remote_ip", httputil.ClientIP(r, s.trustProxy),
		)
	})
}
