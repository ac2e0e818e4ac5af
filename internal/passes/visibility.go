package passes

import (
	"sort"
	"time"

	"github.com/slr/slrgo/internal/astro"
	"github.com/slr/slrgo/internal/cpf"
	"github.com/slr/slrgo/internal/transform"
)

// ListingRow is one second of a pass in the per-target prediction
// listing. Rows are emitted for the whole pass regardless of
// visibility; the flag marks the usable seconds.
type ListingRow struct {
	UTC         time.Time `json:"utc"`
	MJD         int       `json:"mjd"`
	SoD         float64   `json:"sod"`
	AltitudeDeg float64   `json:"altitude_deg"`
	AzimuthDeg  float64   `json:"azimuth_deg"`
	RAHours     float64   `json:"ra_hours"`
	DecDeg      float64   `json:"dec_deg"`
	RangeM      float64   `json:"range_m"`
	SunAltDeg   float64   `json:"sun_alt_deg"`
	Visible     bool      `json:"visible"`
}

// VisibleWindow is the sub-interval of a pass during which the station
// is dark and the target is sunlit.
type VisibleWindow struct {
	Target          string    `json:"target"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationSeconds float64   `json:"duration_seconds"`
}

// Classify resamples a pass at one-second resolution and marks each
// sample visible when the station-side solar altitude is below the
// twilight threshold and the target is outside Earth's shadow. It
// returns the full listing plus the first maximal contiguous visible
// run as a VisibleWindow (nil when no sample is visible).
func Classify(state StateFunc, sta transform.Station, target string, p Pass, twilightDeg float64) ([]ListingRow, *VisibleWindow, error) {
	var rows []ListingRow
	for t := p.Rise; !t.After(p.Set); t = t.Add(time.Second) {
		pos, err := state(t)
		if err != nil {
			return nil, nil, err
		}

		la := transform.ECEFToLookAngles(sta, pos.X, pos.Y, pos.Z)
		rd := transform.ECEFToRADec(sta, pos.X, pos.Y, pos.Z, t)
		sunAlt := astro.SunAltitudeDeg(sta, t)

		visible := sunAlt < twilightDeg &&
			astro.IsSunlit([3]float64{pos.X, pos.Y, pos.Z}, t)

		mjd, sod := cpf.MJDOfTime(t)
		rows = append(rows, ListingRow{
			UTC:         t,
			MJD:         mjd,
			SoD:         sod,
			AltitudeDeg: la.AltitudeDeg,
			AzimuthDeg:  la.AzimuthDeg,
			RAHours:     rd.RAHours,
			DecDeg:      rd.DecDeg,
			RangeM:      la.RangeM,
			SunAltDeg:   sunAlt,
			Visible:     visible,
		})
	}

	return rows, visibleRun(rows, target), nil
}

// visibleRun extracts the first maximal contiguous run of visible rows.
func visibleRun(rows []ListingRow, target string) *VisibleWindow {
	start := -1
	for i, r := range rows {
		if r.Visible && start < 0 {
			start = i
		}
		if !r.Visible && start >= 0 {
			return windowOf(rows, target, start, i-1)
		}
	}
	if start < 0 {
		return nil
	}
	return windowOf(rows, target, start, len(rows)-1)
}

func windowOf(rows []ListingRow, target string, lo, hi int) *VisibleWindow {
	w := &VisibleWindow{
		Target: target,
		Start:  rows[lo].UTC,
		End:    rows[hi].UTC,
	}
	w.DurationSeconds = w.End.Sub(w.Start).Seconds()
	return w
}

// DateGroup holds the visible windows whose start falls on one UTC
// calendar date, sorted by start time.
type DateGroup struct {
	Date    string          `json:"date"` // YYYY-MM-DD
	Windows []VisibleWindow `json:"windows"`
}

// Aggregate drops windows shorter than minDuration and produces the
// two summary orderings: by target (then start time) and grouped by
// the calendar date of the window start.
func Aggregate(windows []VisibleWindow, minDuration time.Duration) (byTarget []VisibleWindow, byDate []DateGroup) {
	for _, w := range windows {
		if time.Duration(w.DurationSeconds*float64(time.Second)) >= minDuration {
			byTarget = append(byTarget, w)
		}
	}

	sort.SliceStable(byTarget, func(i, j int) bool {
		if byTarget[i].Target != byTarget[j].Target {
			return byTarget[i].Target < byTarget[j].Target
		}
		return byTarget[i].Start.Before(byTarget[j].Start)
	})

	groups := make(map[string][]VisibleWindow)
	for _, w := range byTarget {
		date := w.Start.UTC().Format("2006-01-02")
		groups[date] = append(groups[date], w)
	}

	dates := make([]string, 0, len(groups))
	for d := range groups {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	for _, d := range dates {
		wins := groups[d]
		sort.SliceStable(wins, func(i, j int) bool {
			return wins[i].Start.Before(wins[j].Start)
		})
		byDate = append(byDate, DateGroup{Date: d, Windows: wins})
	}
	return byTarget, byDate
}
