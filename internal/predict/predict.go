// Package predict turns a parsed CPF ephemeris into station-relative
// pointing samples: azimuth, altitude, range and laser time-of-flight on
// a caller-specified output grid, with optional light-time treatment.
package predict

import (
	"fmt"
	"time"

	"github.com/slr/slrgo/internal/cpf"
	"github.com/slr/slrgo/internal/interp"
	"github.com/slr/slrgo/internal/quasitime"
	"github.com/slr/slrgo/internal/transform"
)

// SpeedOfLight in m/s.
const SpeedOfLight = 299792458.0

// Mode selects the light-time treatment.
type Mode string

const (
	// ModeGeometric reports the instantaneous station→target direction;
	// the up and down legs are assumed symmetric.
	ModeGeometric Mode = "geometric"
	// ModeApparent resolves transmit and receive epochs separately with
	// a single light-time iteration.
	ModeApparent Mode = "apparent"
)

// ModeError reports an unknown prediction mode string. Caller error.
type ModeError struct {
	Mode string
}

func (e *ModeError) Error() string {
	return fmt.Sprintf("predict: mode must be %q or %q, got %q", ModeGeometric, ModeApparent, e.Mode)
}

// Sample is one output instant of a trajectory prediction. In geometric
// mode the delta fields are zero; in apparent mode azimuth/altitude and
// range refer to the transmit direction and the deltas are
// receive − transmit.
type Sample struct {
	UTC time.Time `json:"utc"`
	MJD int       `json:"mjd"`
	SoD float64   `json:"sod"`

	AzimuthDeg  float64 `json:"azimuth_deg"`
	AltitudeDeg float64 `json:"altitude_deg"`
	DeltaAzDeg  float64 `json:"delta_az_deg"`
	DeltaAltDeg float64 `json:"delta_alt_deg"`
	RangeM      float64 `json:"range_m"`
	TOF         float64 `json:"tof_sec"` // round-trip light time, seconds
}

// Trajectory interpolates the record over [start, end) at step seconds
// and projects each position into the station's topocentric frame.
//
// Errors: *quasitime.OutOfRangeError when the window leaves the
// interpolatable interior, *ModeError for an unknown mode. Both are
// fatal for this request only; a batch driver should log and continue.
func Trajectory(rec *cpf.Record, start, end time.Time, stepSec float64, mode Mode, sta transform.Station) ([]Sample, error) {
	if mode != ModeGeometric && mode != ModeApparent {
		return nil, &ModeError{string(mode)}
	}
	extra := 0
	if mode == ModeApparent {
		// Light-time offsets move the transmit and receive queries off
		// the grid by τ, well under one table interval for Earth
		// orbiters, so one spare sample each side keeps them evaluable.
		extra = 1
	}
	if err := quasitime.CheckWindow(rec.Samples, start, end, extra); err != nil {
		return nil, err
	}

	grid := NewGrid(start, end, stepSec)
	tl := quasitime.New(rec.Samples)

	srcPos := make([][3]float64, len(rec.Samples))
	for i, s := range rec.Samples {
		srcPos[i] = s.Position
	}

	queries := make([]float64, len(grid.Times))
	for i := range grid.Times {
		queries[i] = tl.OfInstant(grid.MJD[i], grid.SoD[i])
	}

	positions, err := interp.Positions(queries, tl.Source, srcPos)
	if err != nil {
		return nil, fmt.Errorf("interpolating %s: %w", rec.TargetName, err)
	}

	out := make([]Sample, len(grid.Times))
	for i, pos := range positions {
		la := transform.ECEFToLookAngles(sta, pos[0], pos[1], pos[2])
		s := Sample{
			UTC: grid.Times[i],
			MJD: grid.MJD[i],
			SoD: grid.SoD[i],
		}

		switch mode {
		case ModeGeometric:
			s.AzimuthDeg = la.AzimuthDeg
			s.AltitudeDeg = la.AltitudeDeg
			s.RangeM = la.RangeM
			s.TOF = 2 * la.RangeM / SpeedOfLight

		case ModeApparent:
			// One light-time iteration: τ from the instantaneous range,
			// transmit epoch at t+τ, receive epoch at t−τ.
			tau := la.RangeM / SpeedOfLight
			trans, err := interp.At(quasitime.OffsetSeconds(queries[i], tau), tl.Source, srcPos)
			if err != nil {
				return nil, fmt.Errorf("transmit epoch for %s: %w", rec.TargetName, err)
			}
			recv, err := interp.At(quasitime.OffsetSeconds(queries[i], -tau), tl.Source, srcPos)
			if err != nil {
				return nil, fmt.Errorf("receive epoch for %s: %w", rec.TargetName, err)
			}

			laT := transform.ECEFToLookAngles(sta, trans[0], trans[1], trans[2])
			laR := transform.ECEFToLookAngles(sta, recv[0], recv[1], recv[2])

			s.AzimuthDeg = laT.AzimuthDeg
			s.AltitudeDeg = laT.AltitudeDeg
			s.DeltaAzDeg = laR.AzimuthDeg - laT.AzimuthDeg
			s.DeltaAltDeg = laR.AltitudeDeg - laT.AltitudeDeg
			s.RangeM = laT.RangeM
			s.TOF = 2 * laT.RangeM / SpeedOfLight
		}
		out[i] = s
	}
	return out, nil
}
