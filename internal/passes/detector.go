// Package passes finds the time windows during which a target is above
// a station's visibility cutoff, then classifies each window against
// solar darkness and target-sunlit conditions.
package passes

import (
	"fmt"
	"math"
	"time"

	"github.com/slr/slrgo/internal/transform"
)

// StateFunc returns a target's ECEF position (meters) at t. The pass
// detector is agnostic to where positions come from; the TLE path
// supplies an SGP4 propagator and tests supply synthetic profiles.
type StateFunc func(t time.Time) (transform.PositionECEF, error)

// Pass is a contiguous interval during which the target's altitude
// exceeds the cutoff, refined to one-second precision.
type Pass struct {
	Rise time.Time `json:"rise"`
	Set  time.Time `json:"set"`
}

// Duration returns the pass length.
func (p Pass) Duration() time.Duration {
	return p.Set.Sub(p.Rise)
}

// CoarseStepSeconds sizes the coarse scan step from the target's
// orbital period in minutes. Shorter periods get finer steps so a
// brief LEO pass cannot slip between samples.
func CoarseStepSeconds(periodMinutes float64) int {
	step := int(math.Round(60.0 * math.Sqrt(periodMinutes/120.0)))
	if step < 1 {
		step = 1
	}
	return step
}

// Detect scans [start, end] for intervals where the target's altitude
// at the station exceeds cutoffDeg. It samples on a coarse grid of
// stepSec seconds to bracket the crossings, then rescans each
// bracketing step at one-second resolution to pin the boundary.
//
// A target already above the cutoff at start yields a pass rising at
// start; a target still above at end yields a pass setting at end.
// An empty result is not an error.
func Detect(state StateFunc, sta transform.Station, start, end time.Time, cutoffDeg float64, stepSec int) ([]Pass, error) {
	if stepSec < 1 {
		return nil, fmt.Errorf("coarse step must be at least 1s, got %d", stepSec)
	}
	if !end.After(start) {
		return nil, fmt.Errorf("window end %v not after start %v", end, start)
	}

	// Coarse grid, always closing on end so a truncated pass resolves
	// exactly at the window boundary.
	var times []time.Time
	for t := start; !t.After(end); t = t.Add(time.Duration(stepSec) * time.Second) {
		times = append(times, t)
	}
	if last := times[len(times)-1]; last.Before(end) {
		times = append(times, end)
	}

	above := make([]bool, len(times))
	for i, t := range times {
		alt, err := altitudeAt(state, sta, t)
		if err != nil {
			return nil, fmt.Errorf("sampling altitude at %v: %w", t, err)
		}
		above[i] = alt > cutoffDeg
	}

	// Candidate boundaries: indices where the above/below state flips.
	// An initial above state is a rise truncated by the window start.
	var boundaries []int
	if above[0] {
		boundaries = append(boundaries, 0)
	}
	for i := 1; i < len(times); i++ {
		if above[i] != above[i-1] {
			boundaries = append(boundaries, i)
		}
	}
	// An odd count means the final pass is truncated by the window end.
	if len(boundaries)%2 == 1 {
		boundaries = append(boundaries, len(times)-1)
	}

	var passes []Pass
	for i := 0; i+1 < len(boundaries); i += 2 {
		rise, err := refineRise(state, sta, times, above, boundaries[i], cutoffDeg)
		if err != nil {
			return nil, err
		}
		set, err := refineSet(state, sta, times, above, boundaries[i+1], cutoffDeg, end)
		if err != nil {
			return nil, err
		}
		passes = append(passes, Pass{Rise: rise, Set: set})
	}
	return passes, nil
}

// refineRise rescans the coarse step ending at boundary index idx at
// one-second resolution and returns the first instant above the cutoff.
func refineRise(state StateFunc, sta transform.Station, times []time.Time, above []bool, idx int, cutoffDeg float64) (time.Time, error) {
	if idx == 0 {
		// Already above at the window start.
		return times[0], nil
	}
	for t := times[idx-1]; !t.After(times[idx]); t = t.Add(time.Second) {
		alt, err := altitudeAt(state, sta, t)
		if err != nil {
			return time.Time{}, fmt.Errorf("refining rise at %v: %w", t, err)
		}
		if alt > cutoffDeg {
			return t, nil
		}
	}
	// The coarse sample said above, so the loop terminus qualifies.
	return times[idx], nil
}

// refineSet rescans the coarse step around a set boundary. If the
// rescan's final sample is still above the cutoff the pass runs to the
// window edge and the set is the first above-cutoff instant of the
// rescan; otherwise it is the last instant still above.
func refineSet(state StateFunc, sta transform.Station, times []time.Time, above []bool, idx int, cutoffDeg float64, end time.Time) (time.Time, error) {
	if above[idx] {
		// Synthesized closing boundary: still above at the last coarse
		// sample, which the grid pins to the window end.
		return times[idx], nil
	}

	scanEnd := times[idx]
	if scanEnd.After(end) {
		scanEnd = end
	}

	var lastAbove, firstAbove time.Time
	var sawAbove, lastSampleAbove bool
	for t := times[idx-1]; !t.After(scanEnd); t = t.Add(time.Second) {
		alt, err := altitudeAt(state, sta, t)
		if err != nil {
			return time.Time{}, fmt.Errorf("refining set at %v: %w", t, err)
		}
		lastSampleAbove = alt > cutoffDeg
		if lastSampleAbove {
			lastAbove = t
			if !sawAbove {
				firstAbove = t
				sawAbove = true
			}
		}
	}

	if !sawAbove {
		// The whole rescan fell below; the coarse sample before the
		// boundary was the last one above.
		return times[idx-1], nil
	}
	if lastSampleAbove {
		return firstAbove, nil
	}
	return lastAbove, nil
}

func altitudeAt(state StateFunc, sta transform.Station, t time.Time) (float64, error) {
	pos, err := state(t)
	if err != nil {
		return 0, err
	}
	la := transform.ECEFToLookAngles(sta, pos.X, pos.Y, pos.Z)
	return la.AltitudeDeg, nil
}
