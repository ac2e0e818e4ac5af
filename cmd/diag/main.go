// diag is an offline driver with two modes:
//
//	diag cpf <cpf-file> [step-sec]    parse an ephemeris, print the header,
//	                                  run a short geometric prediction
//	diag tle <tle-file> [horizon-h]   scan a catalog for visible passes and
//	                                  write the prediction reports to disk
//
// Station and twilight come from the SLRGO_STATION_* / SLRGO_TWILIGHT
// environment variables.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/slr/slrgo/internal/astro"
	"github.com/slr/slrgo/internal/cpf"
	"github.com/slr/slrgo/internal/passes"
	"github.com/slr/slrgo/internal/predict"
	"github.com/slr/slrgo/internal/report"
	"github.com/slr/slrgo/internal/tle"
	"github.com/slr/slrgo/internal/transform"
)

func main() {
	if len(os.Args) < 3 {
		usage()
	}

	switch os.Args[1] {
	case "cpf":
		runCPF(os.Args[2], os.Args[3:])
	case "tle":
		runTLE(os.Args[2], os.Args[3:])
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: diag cpf <cpf-file> [step-sec]")
	fmt.Fprintln(os.Stderr, "       diag tle <tle-file> [horizon-hours]")
	os.Exit(2)
}

// runCPF parses an ephemeris, prints its header, and predicts a short
// geometric arc from the middle of the table.
func runCPF(path string, args []string) {
	stepSec := 1.0
	if len(args) > 0 {
		s, err := strconv.ParseFloat(args[0], 64)
		if err != nil || s <= 0 {
			fmt.Fprintln(os.Stderr, "step-sec must be a positive number")
			os.Exit(2)
		}
		stepSec = s
	}

	f, err := os.Open(path)
	if err != nil {
		fmt.Println("ERROR opening CPF file:", err)
		os.Exit(1)
	}
	rec, err := cpf.Parse(f)
	f.Close()
	if err != nil {
		fmt.Println("ERROR parsing CPF:", err)
		os.Exit(1)
	}

	fmt.Printf("Target: %s (COSPAR %s, NORAD %d)\n", rec.TargetName, rec.CosparID, rec.NoradID)
	fmt.Printf("Source: %s, produced %v, sequence %d\n", rec.Source, rec.ProducedAt, rec.Sequence)
	fmt.Printf("Span: %v .. %v, %d samples at %.0fs, frame %v, type %v\n",
		rec.Start, rec.End, len(rec.Samples), rec.Interval, rec.Frame, rec.TargetType)

	// Predict one minute from the middle of the table, where the
	// interpolation interior is guaranteed.
	mid := rec.Samples[len(rec.Samples)/2].UTC()
	sta := stationFromEnv()
	samples, err := predict.Trajectory(rec, mid, mid.Add(time.Minute), stepSec, predict.ModeGeometric, sta)
	if err != nil {
		fmt.Println("ERROR predicting:", err)
		os.Exit(1)
	}

	fmt.Printf("\nGeometric prediction from %v:\n", mid)
	for _, s := range samples {
		fmt.Printf("  %s az=%8.4f alt=%8.4f range=%10.3fkm tof=%.6fs\n",
			s.UTC.Format("15:04:05"), s.AzimuthDeg, s.AltitudeDeg, s.RangeM/1000, s.TOF)
	}
}

// runTLE scans a catalog for passes and writes the report files.
func runTLE(path string, args []string) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	horizonHours := 24.0
	if len(args) > 0 {
		h, err := strconv.ParseFloat(args[0], 64)
		if err != nil || h <= 0 {
			fmt.Fprintln(os.Stderr, "horizon-hours must be a positive number")
			os.Exit(2)
		}
		horizonHours = h
	}

	f, err := os.Open(path)
	if err != nil {
		fmt.Println("ERROR opening TLE file:", err)
		os.Exit(1)
	}
	entries, err := tle.Parse(f, logger)
	f.Close()
	if err != nil {
		fmt.Println("ERROR parsing TLE:", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d TLE entries\n", len(entries))

	twilight := astro.TwilightNautical
	if v := os.Getenv("SLRGO_TWILIGHT"); v != "" {
		twilight, err = astro.ParseTwilight(v)
		if err != nil {
			fmt.Println("ERROR:", err)
			os.Exit(2)
		}
	}

	now := time.Now().UTC()
	fmt.Printf("Scan start: %v, horizon %.0fh\n", now, horizonHours)

	results := passes.Predict(context.Background(), passes.Request{
		Station:      stationFromEnv(),
		Entries:      entries,
		Start:        now,
		HorizonHours: horizonHours,
		CutoffDeg:    10,
		TwilightDeg:  twilight,
		MinDuration:  2 * time.Minute,
		WithListing:  true,
	})

	outDir := "prediction"
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Println("ERROR creating output dir:", err)
		os.Exit(1)
	}

	var windows []passes.VisibleWindow
	totalPasses := 0
	for _, res := range results {
		if res.Error != "" {
			fmt.Printf("  NORAD %d: ERROR %s\n", res.NoradID, res.Error)
			continue
		}
		fmt.Printf("  NORAD %d (%s): %d passes, %d visible windows\n",
			res.NoradID, res.Name, len(res.Passes), len(res.Windows))
		totalPasses += len(res.Passes)
		windows = append(windows, res.Windows...)

		if len(res.Listing) > 0 {
			if err := writeListing(outDir, res); err != nil {
				fmt.Println("ERROR writing listing:", err)
			}
		}
	}

	byTarget, byDate := passes.Aggregate(windows, 2*time.Minute)
	if err := writeSummaries(outDir, byTarget, byDate); err != nil {
		fmt.Println("ERROR writing summaries:", err)
		os.Exit(1)
	}

	fmt.Printf("\nTotal passes: %d, visible windows: %d\n", totalPasses, len(byTarget))
	fmt.Printf("Reports written to %s/\n", outDir)
}

func stationFromEnv() transform.Station {
	lat, lon, alt := 0.0, 0.0, 0.0
	if v := os.Getenv("SLRGO_STATION_LAT"); v != "" {
		lat, _ = strconv.ParseFloat(v, 64)
	}
	if v := os.Getenv("SLRGO_STATION_LON"); v != "" {
		lon, _ = strconv.ParseFloat(v, 64)
	}
	if v := os.Getenv("SLRGO_STATION_ALT"); v != "" {
		alt, _ = strconv.ParseFloat(v, 64)
	}
	return transform.NewStation(lat, lon, alt)
}

func writeListing(dir string, res passes.TargetResult) error {
	f, err := os.Create(filepath.Join(dir, strconv.Itoa(res.NoradID)+".txt"))
	if err != nil {
		return err
	}
	defer f.Close()
	return report.WriteListing(f, res.Listing)
}

func writeSummaries(dir string, byTarget []passes.VisibleWindow, byDate []passes.DateGroup) error {
	f0, err := os.Create(filepath.Join(dir, "VisiblePasses_bysat.csv"))
	if err != nil {
		return err
	}
	defer f0.Close()
	if err := report.WriteSummaryByTarget(f0, byTarget, 0); err != nil {
		return err
	}

	f1, err := os.Create(filepath.Join(dir, "VisiblePasses_bydate.csv"))
	if err != nil {
		return err
	}
	defer f1.Close()
	return report.WriteSummaryByDate(f1, byDate, 0)
}
