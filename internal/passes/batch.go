package passes

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/slr/slrgo/internal/propagation"
	"github.com/slr/slrgo/internal/tle"
	"github.com/slr/slrgo/internal/transform"
)

// Request holds the parameters for a batch pass/visibility scan.
type Request struct {
	Station      transform.Station
	Entries      []tle.Entry
	Start        time.Time
	HorizonHours float64
	CutoffDeg    float64       // altitude cutoff, degrees
	TwilightDeg  float64       // station darkness threshold, degrees
	MinDuration  time.Duration // summary filter for visible windows
	WithListing  bool          // emit per-second listing rows
}

// TargetResult holds one target's scan outcome. A failed target
// carries its error here so the rest of the batch still completes.
type TargetResult struct {
	NoradID int             `json:"norad_id"`
	Name    string          `json:"name"`
	Passes  []Pass          `json:"passes"`
	Windows []VisibleWindow `json:"windows,omitempty"`
	Listing []ListingRow    `json:"listing,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Predict scans every entry in the request for passes and visible
// windows. Each target runs in its own goroutine, bounded by a
// semaphore sized to the CPU count.
func Predict(ctx context.Context, req Request) []TargetResult {
	results := make([]TargetResult, len(req.Entries))
	sem := make(chan struct{}, runtime.NumCPU())
	var wg sync.WaitGroup

	for i, entry := range req.Entries {
		wg.Add(1)
		go func(idx int, e tle.Entry) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[idx] = TargetResult{NoradID: e.NoradID, Name: e.Name, Error: "cancelled"}
				return
			}

			res := scanTarget(req, e)
			results[idx] = res
		}(i, entry)
	}

	wg.Wait()
	return results
}

// scanTarget runs detection and classification for a single target.
func scanTarget(req Request, e tle.Entry) TargetResult {
	res := TargetResult{NoradID: e.NoradID, Name: e.Name}

	prop, err := propagation.NewPropagator(e.Line1, e.Line2, e.NoradID)
	if err != nil {
		res.Error = fmt.Sprintf("sgp4 init: %v", err)
		return res
	}
	state := StateFunc(prop.PositionECEF)

	end := req.Start.Add(time.Duration(req.HorizonHours * float64(time.Hour)))
	step := CoarseStepSeconds(prop.NodalPeriodMinutes())

	passes, err := Detect(state, req.Station, req.Start, end, req.CutoffDeg, step)
	if err != nil {
		res.Error = fmt.Sprintf("pass scan: %v", err)
		return res
	}
	res.Passes = passes

	for _, p := range passes {
		rows, win, err := Classify(state, req.Station, e.Name, p, req.TwilightDeg)
		if err != nil {
			res.Error = fmt.Sprintf("visibility: %v", err)
			return res
		}
		if req.WithListing {
			res.Listing = append(res.Listing, rows...)
		}
		if win != nil && time.Duration(win.DurationSeconds*float64(time.Second)) >= req.MinDuration {
			res.Windows = append(res.Windows, *win)
		}
	}
	return res
}
