package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/slr/slrgo/internal/api"
	"github.com/slr/slrgo/internal/auth"
	"github.com/slr/slrgo/internal/metrics"
	"github.com/slr/slrgo/internal/tle"
	"github.com/slr/slrgo/internal/transform"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	addr := os.Getenv("SLRGO_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	authCfg, err := loadAuthConfig(logger)
	if err != nil {
		logger.Error("invalid auth configuration", "error", err)
		os.Exit(1)
	}

	station, err := loadStation(logger)
	if err != nil {
		logger.Error("invalid station configuration", "error", err)
		os.Exit(1)
	}

	trustProxy := false
	if v := os.Getenv("SLRGO_TRUST_PROXY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid SLRGO_TRUST_PROXY value, defaulting to false", "value", v)
		} else {
			trustProxy = b
		}
	}

	store := tle.NewStore()
	if path := os.Getenv("SLRGO_TLE_FILE"); path != "" {
		loadTLEFile(logger, store, path)
	} else {
		logger.Info("SLRGO_TLE_FILE not set, pass endpoints disabled until a catalog is loaded")
	}

	srv := api.NewServer(addr, logger, authCfg, store, station, trustProxy)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background goroutine to keep the TLE dataset gauges fresh.
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if ds := store.Get(); ds != nil {
					metrics.SetTLEDataset(len(ds.Targets), store.AgeSeconds(time.Now()))
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		logger.Info("starting server", "addr", addr, "auth_enabled", authCfg.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func loadAuthConfig(logger *slog.Logger) (auth.Config, error) {
	cfg := auth.Config{}

	enabledStr := os.Getenv("SLRGO_AUTH_ENABLED")
	if enabledStr != "" {
		enabled, err := strconv.ParseBool(enabledStr)
		if err != nil {
			return cfg, errors.New("SLRGO_AUTH_ENABLED must be a boolean value (true/false/1/0)")
		}
		cfg.Enabled = enabled
	}

	if cfg.Enabled {
		cfg.Token = os.Getenv("SLRGO_AUTH_TOKEN")
		if cfg.Token == "" {
			return cfg, errors.New("SLRGO_AUTH_TOKEN is required when auth is enabled")
		}
		logger.Info("auth enabled")
	}

	return cfg, nil
}

// loadStation reads the default observing site. Either geodetic
// coordinates (SLRGO_STATION_LAT/LON/ALT) or geocentric meters
// (SLRGO_STATION_ECEF, comma-free "x y z") may be given; geodetic wins
// when both are set.
func loadStation(logger *slog.Logger) (transform.Station, error) {
	latStr := os.Getenv("SLRGO_STATION_LAT")
	lonStr := os.Getenv("SLRGO_STATION_LON")

	if latStr != "" && lonStr != "" {
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return transform.Station{}, errors.New("SLRGO_STATION_LAT must be a number (degrees)")
		}
		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			return transform.Station{}, errors.New("SLRGO_STATION_LON must be a number (degrees)")
		}
		alt := 0.0
		if v := os.Getenv("SLRGO_STATION_ALT"); v != "" {
			alt, err = strconv.ParseFloat(v, 64)
			if err != nil {
				return transform.Station{}, errors.New("SLRGO_STATION_ALT must be a number (meters)")
			}
		}
		logger.Info("station config", "lat_deg", lat, "lon_deg", lon, "alt_m", alt)
		return transform.NewStation(lat, lon, alt), nil
	}

	logger.Warn("no station configured, defaulting to 0N 0E; set SLRGO_STATION_LAT/LON")
	return transform.NewStation(0, 0, 0), nil
}

// loadTLEFile reads a 3-line element catalog from disk into the store.
func loadTLEFile(logger *slog.Logger, store *tle.Store, path string) {
	f, err := os.Open(path)
	if err != nil {
		logger.Warn("cannot open TLE file, starting without catalog", "path", path, "error", err)
		return
	}
	defer f.Close()

	entries, err := tle.Parse(f, logger)
	if err != nil {
		logger.Warn("failed to parse TLE file", "path", path, "error", err)
		return
	}
	if len(entries) == 0 {
		logger.Warn("TLE file contained no usable entries", "path", path)
		return
	}

	now := time.Now().UTC()
	store.Set(tle.NewDataset("file:"+path, now, entries))
	metrics.SetTLEDataset(len(entries), 0)
	logger.Info("loaded TLE catalog", "path", path, "count", len(entries))
}
