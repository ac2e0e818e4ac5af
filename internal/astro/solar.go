// Package astro supplies the solar quantities the visibility classifier
// needs: station-relative solar altitude, the sun direction in ECEF, and
// an umbra test for whether an orbiting target is sunlit.
//
// Solar coordinates come from the Meeus algorithms (soniakeys/meeus);
// positions are apparent, good to ~0.01°, far below the twilight
// thresholds they are compared against.
package astro

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/sidereal"
	"github.com/soniakeys/meeus/v3/solar"

	"github.com/slr/slrgo/internal/transform"
)

// earthRadiusM is the WGS-84 equatorial radius, used as the umbra
// cylinder radius (conservative: the real umbra cone is narrower).
const earthRadiusM = 6378137.0

// SunRADec returns the sun's apparent right ascension and declination
// in radians at t.
func SunRADec(t time.Time) (ra, dec float64) {
	jd := julian.TimeToJD(t.UTC())
	α, δ := solar.ApparentEquatorial(jd)
	return α.Rad(), δ.Rad()
}

// SunAltitudeDeg computes the sun's altitude above the station's
// horizon in degrees, via the local hour angle:
//
//	sin h = sin φ sin δ + cos φ cos δ cos H
func SunAltitudeDeg(sta transform.Station, t time.Time) float64 {
	ra, dec := SunRADec(t)
	jd := julian.TimeToJD(t.UTC())

	// Local apparent sidereal time; station longitude is east-positive.
	theta := sidereal.Apparent(jd).Rad() + sta.LonRad
	H := theta - ra

	sinAlt := math.Sin(sta.LatRad)*math.Sin(dec) + math.Cos(sta.LatRad)*math.Cos(dec)*math.Cos(H)
	return math.Asin(sinAlt) * 180 / math.Pi
}

// SunDirECEF returns the unit vector pointing from the geocenter toward
// the sun, expressed in the ECEF frame.
func SunDirECEF(t time.Time) [3]float64 {
	ra, dec := SunRADec(t)

	// Equatorial inertial unit vector.
	xi := math.Cos(dec) * math.Cos(ra)
	yi := math.Cos(dec) * math.Sin(ra)
	zi := math.Sin(dec)

	// Spin into ECEF: r_ECEF = R3(GMST) r_ECI.
	gmst := transform.GMST(t)
	cosG := math.Cos(gmst)
	sinG := math.Sin(gmst)

	return [3]float64{
		xi*cosG + yi*sinG,
		-xi*sinG + yi*cosG,
		zi,
	}
}

// IsSunlit reports whether a target at the given ECEF position (meters)
// is outside Earth's shadow, modeled as a cylinder of Earth radius
// extending anti-sunward.
func IsSunlit(pos [3]float64, t time.Time) bool {
	s := SunDirECEF(t)
	return sunlitAgainst(pos, s)
}

// sunlitAgainst is the geometric core, split out so tests can supply a
// fixed sun direction.
func sunlitAgainst(pos, sunDir [3]float64) bool {
	along := pos[0]*sunDir[0] + pos[1]*sunDir[1] + pos[2]*sunDir[2]
	if along >= 0 {
		// Sunward hemisphere is always lit.
		return true
	}
	px := pos[0] - along*sunDir[0]
	py := pos[1] - along*sunDir[1]
	pz := pos[2] - along*sunDir[2]
	perp2 := px*px + py*py + pz*pz
	return perp2 >= earthRadiusM*earthRadiusM
}
