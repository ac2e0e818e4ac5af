package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/slr/slrgo/internal/passes"
)

func TestWriteListing(t *testing.T) {
	rows := []passes.ListingRow{
		{
			UTC:         time.Date(2025, 3, 20, 22, 15, 0, 0, time.UTC),
			AltitudeDeg: 42.1234,
			AzimuthDeg:  180.5,
			RAHours:     12.34567,
			DecDeg:      -5.4321,
			RangeM:      1234567.8,
			SunAltDeg:   -20.25,
			Visible:     true,
		},
		{
			UTC:     time.Date(2025, 3, 20, 22, 15, 1, 0, time.UTC),
			Visible: false,
		},
	}

	var buf bytes.Buffer
	if err := WriteListing(&buf, rows); err != nil {
		t.Fatalf("WriteListing: %v", err)
	}

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "# Date and Time(UTC)") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "2025-03-20 22:15:00") {
		t.Errorf("row missing timestamp: %q", lines[1])
	}
	if !strings.Contains(lines[1], "42.1234") {
		t.Errorf("row missing altitude: %q", lines[1])
	}
	// Range column is kilometers.
	if !strings.Contains(lines[1], "1234.5678") {
		t.Errorf("row missing km range: %q", lines[1])
	}
	if !strings.HasSuffix(lines[1], "1") || !strings.HasSuffix(lines[2], "0") {
		t.Errorf("visible flags wrong: %q / %q", lines[1], lines[2])
	}
}

func TestWriteSummaryByTarget(t *testing.T) {
	start := time.Date(2025, 3, 20, 22, 0, 0, 0, time.UTC)
	wins := []passes.VisibleWindow{
		{Target: "ajisai", Start: start, End: start.Add(150 * time.Second), DurationSeconds: 150},
	}

	var buf bytes.Buffer
	if err := WriteSummaryByTarget(&buf, wins, 8); err != nil {
		t.Fatalf("WriteSummaryByTarget: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	if !strings.Contains(lines[0], "Start Time[UTC+8]") {
		t.Errorf("header = %q", lines[0])
	}
	// 22:00 UTC shifted +8 hours crosses into the next day.
	if !strings.Contains(lines[1], "2025-03-21 06:00:00") {
		t.Errorf("row not shifted to UTC+8: %q", lines[1])
	}
	if !strings.Contains(lines[1], "ajisai") || !strings.Contains(lines[1], "150") {
		t.Errorf("row = %q", lines[1])
	}
}

func TestWriteSummaryByDate(t *testing.T) {
	d1 := time.Date(2025, 3, 20, 1, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 3, 21, 1, 0, 0, 0, time.UTC)
	groups := []passes.DateGroup{
		{Date: "2025-03-20", Windows: []passes.VisibleWindow{
			{Target: "lageos1", Start: d1, End: d1.Add(90 * time.Second), DurationSeconds: 90},
		}},
		{Date: "2025-03-21", Windows: []passes.VisibleWindow{
			{Target: "ajisai", Start: d2, End: d2.Add(60 * time.Second), DurationSeconds: 60},
		}},
	}

	var buf bytes.Buffer
	if err := WriteSummaryByDate(&buf, groups, 0); err != nil {
		t.Fatalf("WriteSummaryByDate: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if !strings.Contains(lines[1], "lageos1") || !strings.Contains(lines[2], "ajisai") {
		t.Errorf("date ordering wrong: %q / %q", lines[1], lines[2])
	}
}
