// Package quasitime maps the mixed (MJD, second-of-day, leap-second)
// timestamps of a CPF ephemeris onto a single monotonic real-valued
// axis, the quasi-MJD:
//
//	quasi = (mjd - ref) + (sod + leap)/86400
//
// On a day carrying a leap-second insertion the conventional MJD
// compresses 86401 seconds into one day; the quasi-MJD instead keeps
// two nominally one-second-apart samples exactly 1/86400 apart, so a
// polynomial interpolation stencil sees uniform spacing across the
// discontinuity.
package quasitime

import (
	"fmt"
	"sort"
	"time"

	"github.com/slr/slrgo/internal/cpf"
)

// interiorMargin is the number of samples the interpolation stencil
// needs on each side of a bracketing index (4 before, 5 after; the
// tighter side governs the usable interior).
const interiorMargin = 4

// Timeline is the quasi-MJD view of one record's sample table.
// Immutable after New.
type Timeline struct {
	// Source holds the quasi-MJD of every table sample, in order.
	Source []float64

	refMJD      float64
	leapMJD     int // MJD of the sample where the leap flag steps, -1 if none
	leapSeconds int // flag value after the step
}

// New builds the timeline for a record's samples. The reference epoch
// is the median table MJD, which keeps quasi-MJD magnitudes small so
// the day fraction retains sub-microsecond resolution in a float64.
func New(samples []cpf.Sample) *Timeline {
	mjds := make([]float64, len(samples))
	for i, s := range samples {
		mjds[i] = float64(s.MJD)
	}
	sorted := append([]float64(nil), mjds...)
	sort.Float64s(sorted)
	ref := medianSorted(sorted)

	tl := &Timeline{
		Source:  make([]float64, len(samples)),
		refMJD:  ref,
		leapMJD: -1,
	}
	for i, s := range samples {
		tl.Source[i] = (float64(s.MJD) - ref) + (s.SoD+float64(s.LeapSecond))/86400
		if i > 0 && s.LeapSecond != samples[i-1].LeapSecond {
			tl.leapMJD = s.MJD
			tl.leapSeconds = s.LeapSecond
		}
	}
	return tl
}

// medianSorted returns the median of an ascending slice: the middle
// element, or the mean of the two middle elements for even length.
func medianSorted(xs []float64) float64 {
	n := len(xs)
	if n%2 == 1 {
		return xs[n/2]
	}
	return (xs[n/2-1] + xs[n/2]) / 2
}

// HasLeap reports whether the source table spans a leap-second step.
func (tl *Timeline) HasLeap() bool { return tl.leapMJD >= 0 }

// Of converts an explicit (MJD, SoD, leap) triple to quasi-MJD.
func (tl *Timeline) Of(mjd int, sod float64, leap int) float64 {
	return (float64(mjd) - tl.refMJD) + (sod+float64(leap))/86400
}

// OfInstant converts an output grid instant to quasi-MJD, propagating
// the table's leap-second offset onto instants on or after the boundary
// day so both timelines stay consistently quasi-continuous.
func (tl *Timeline) OfInstant(mjd int, sod float64) float64 {
	leap := 0
	if tl.leapMJD >= 0 && mjd >= tl.leapMJD {
		leap = tl.leapSeconds
	}
	return tl.Of(mjd, sod, leap)
}

// OffsetSeconds shifts a quasi-MJD by a span of seconds. Used by the
// light-time resolver to form transmit and receive epochs.
func OffsetSeconds(quasi, seconds float64) float64 {
	return quasi + seconds/86400
}

// OutOfRangeError reports a requested window that leaves the
// interpolatable interior of the source table.
type OutOfRangeError struct {
	Start, End             time.Time
	InteriorLo, InteriorHi time.Time
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("quasitime: window [%s, %s] outside interpolatable interior [%s, %s]",
		e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339),
		e.InteriorLo.Format(time.RFC3339), e.InteriorHi.Format(time.RFC3339))
}

// CheckWindow verifies [start, end] sits strictly inside the table's
// interpolatable interior: interiorMargin samples, plus extra spare
// samples, must remain on each side for the stencil of the
// interpolator. Callers that shift their queries off the grid by less
// than one table interval (light-time offsets) pass extra=1 so the
// shifted epochs still land on a full stencil.
func CheckWindow(samples []cpf.Sample, start, end time.Time, extra int) error {
	margin := interiorMargin + extra
	if len(samples) < 2*margin+2 {
		return &OutOfRangeError{Start: start, End: end}
	}
	lo := samples[margin].UTC()
	hi := samples[len(samples)-margin-1].UTC()
	if start.Before(lo) || end.After(hi) {
		return &OutOfRangeError{Start: start, End: end, InteriorLo: lo, InteriorHi: hi}
	}
	return nil
}
