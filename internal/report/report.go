// Package report renders pass-prediction results into the text and CSV
// layouts expected by downstream ranging-schedule consumers: a
// fixed-width one-day listing per target, and visible-window summaries
// by target and by date.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/slr/slrgo/internal/passes"
)

const timeLayout = "2006-01-02 15:04:05"

// WriteListing writes the fixed-width per-second prediction listing
// for one target. Every row of the pass is included; the final column
// flags the seconds usable for ranging.
func WriteListing(w io.Writer, rows []passes.ListingRow) error {
	_, err := fmt.Fprintf(w, "# %-18s %-8s %-8s %-8s %-8s %-10s %-14s %-7s\n",
		"Date and Time(UTC)", "Alt[deg]", "Az[deg]", "Ra[h]", "Dec[deg]", "Range[km]", "Solar Alt[deg]", "Visible")
	if err != nil {
		return err
	}

	for _, r := range rows {
		visible := 0
		if r.Visible {
			visible = 1
		}
		_, err := fmt.Fprintf(w, "%-20s %8.4f %8.4f %8.5f %8.4f %10.4f %10.4f %7d\n",
			r.UTC.UTC().Format(timeLayout),
			r.AltitudeDeg, r.AzimuthDeg, r.RAHours, r.DecDeg,
			r.RangeM/1000.0, r.SunAltDeg, visible)
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteSummaryByTarget writes the visible-window summary ordered by
// target, as CSV. Window times are shifted by tzOffsetHours so
// operators can read them in station-local time.
func WriteSummaryByTarget(w io.Writer, windows []passes.VisibleWindow, tzOffsetHours int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(summaryHeader(tzOffsetHours)); err != nil {
		return err
	}
	for _, win := range windows {
		if err := cw.Write(summaryRow(win, tzOffsetHours)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummaryByDate writes the visible-window summary grouped by the
// calendar date of the window start, as CSV.
func WriteSummaryByDate(w io.Writer, groups []passes.DateGroup, tzOffsetHours int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(summaryHeader(tzOffsetHours)); err != nil {
		return err
	}
	for _, g := range groups {
		for _, win := range g.Windows {
			if err := cw.Write(summaryRow(win, tzOffsetHours)); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func summaryHeader(tz int) []string {
	zone := fmt.Sprintf("UTC%+d", tz)
	return []string{
		"Start Time[" + zone + "]",
		"End Time[" + zone + "]",
		"Target",
		"Duration[seconds]",
	}
}

func summaryRow(win passes.VisibleWindow, tz int) []string {
	shift := time.Duration(tz) * time.Hour
	return []string{
		win.Start.UTC().Add(shift).Format(timeLayout),
		win.End.UTC().Add(shift).Format(timeLayout),
		win.Target,
		strconv.Itoa(int(win.DurationSeconds + 0.5)),
	}
}
