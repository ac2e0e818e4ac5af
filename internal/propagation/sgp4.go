// Package propagation wraps the SGP4 orbital model for the TLE-driven
// pass-detection path. CPF-driven prediction does not come through
// here; it interpolates tabulated ephemerides directly.
package propagation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/slr/slrgo/internal/transform"
)

// SGP4 library choice: github.com/joshuaferrara/go-satellite
//
// Selected for: most community adoption, pure Go (no CGO), explicit TEME
// output so we control the TEME→ECEF rotation ourselves.
//
// Note: Propagate() takes Satellite by value so SGP4 error codes are not
// visible to the caller. We detect propagation failures by checking output
// for NaN/Inf and unreasonable position magnitudes.

// Propagator wraps the go-satellite SGP4 model for a single target.
type Propagator struct {
	sat           satellite.Satellite
	noradID       int
	meanMotionRad float64 // rad/min
}

// NewPropagator creates an SGP4 propagator from TLE lines.
// Returns an error if the TLE cannot be parsed or the SGP4 model fails
// to initialize.
//
// Pre-validates TLE format before passing to the library, because
// go-satellite calls log.Fatal on malformed input (which would kill
// the process).
func NewPropagator(line1, line2 string, noradID int) (*Propagator, error) {
	if err := validateTLELines(line1, line2); err != nil {
		return nil, fmt.Errorf("invalid TLE for NORAD %d: %w", noradID, err)
	}

	n, err := meanMotionRadPerMin(line2)
	if err != nil {
		return nil, fmt.Errorf("invalid TLE for NORAD %d: %w", noradID, err)
	}

	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS84)
	if sat.Error != 0 {
		return nil, fmt.Errorf("sgp4 init failed for NORAD %d: code=%d %s", noradID, sat.Error, sat.ErrorStr)
	}
	return &Propagator{sat: sat, noradID: noradID, meanMotionRad: n}, nil
}

// validateTLELines performs basic format validation on TLE lines.
func validateTLELines(line1, line2 string) error {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)

	if len(line1) != 69 {
		return fmt.Errorf("line1 length %d, expected 69", len(line1))
	}
	if len(line2) != 69 {
		return fmt.Errorf("line2 length %d, expected 69", len(line2))
	}
	if line1[0] != '1' {
		return fmt.Errorf("line1 must start with '1', got '%c'", line1[0])
	}
	if line2[0] != '2' {
		return fmt.Errorf("line2 must start with '2', got '%c'", line2[0])
	}
	return nil
}

// meanMotionRadPerMin parses the mean motion field (line2 columns 53-63,
// rev/day) and converts it to radians per minute. The library keeps its
// parsed elements unexported, so we read the field ourselves.
func meanMotionRadPerMin(line2 string) (float64, error) {
	revPerDay, err := strconv.ParseFloat(strings.TrimSpace(line2[52:63]), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid mean motion %q: %w", line2[52:63], err)
	}
	if revPerDay <= 0 {
		return 0, fmt.Errorf("non-positive mean motion %f rev/day", revPerDay)
	}
	return revPerDay * 2 * math.Pi / 1440.0, nil
}

// NodalPeriodMinutes returns the approximate nodal period used to size
// the coarse pass-search step. The mean motion is reduced by half a
// degree per minute to account for nodal regression, giving a slightly
// longer period than the Keplerian 2π/n.
func (p *Propagator) NodalPeriodMinutes() float64 {
	return 2 * math.Pi / (p.meanMotionRad - math.Pi/720.0)
}

// NoradID returns the catalog number this propagator was built from.
func (p *Propagator) NoradID() int { return p.noradID }

// PositionTEME computes the target position at t.
// Returns position and velocity in the TEME frame (km, km/s).
func (p *Propagator) PositionTEME(t time.Time) (transform.PositionTEME, error) {
	t = t.UTC()
	pos, vel := satellite.Propagate(p.sat, t.Year(), int(t.Month()), t.Day(),
		t.Hour(), t.Minute(), t.Second())

	// Detect propagation failures via NaN/Inf check.
	if math.IsNaN(pos.X) || math.IsNaN(pos.Y) || math.IsNaN(pos.Z) ||
		math.IsInf(pos.X, 0) || math.IsInf(pos.Y, 0) || math.IsInf(pos.Z, 0) {
		return transform.PositionTEME{}, fmt.Errorf("sgp4 propagation failed for NORAD %d: output is NaN/Inf", p.noradID)
	}

	return transform.PositionTEME{
		X:  pos.X,
		Y:  pos.Y,
		Z:  pos.Z,
		VX: vel.X,
		VY: vel.Y,
		VZ: vel.Z,
	}, nil
}

// PositionECEF computes the target position at t in the ECEF frame
// (meters), rotating the TEME output by GMST.
func (p *Propagator) PositionECEF(t time.Time) (transform.PositionECEF, error) {
	teme, err := p.PositionTEME(t)
	if err != nil {
		return transform.PositionECEF{}, err
	}

	ecef := transform.TEMEToECEF(teme, transform.GMST(t))
	if !transform.ValidateECEF(ecef) {
		return transform.PositionECEF{}, fmt.Errorf("sgp4 propagation failed for NORAD %d: unreasonable position", p.noradID)
	}
	return ecef, nil
}
