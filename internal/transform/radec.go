package transform

import (
	"math"
	"time"
)

// TopocentricRADec holds station-relative right ascension (hours) and
// declination (degrees) for report rows.
type TopocentricRADec struct {
	RAHours float64 // [0, 24)
	DecDeg  float64 // [-90, 90]
}

// ECEFToRADec computes the topocentric right ascension and declination
// of a target from the station, by rotating the ECEF range vector into
// the true-equator frame with GMST (the inverse of the TEME→ECEF spin).
func ECEFToRADec(sta Station, tgtX, tgtY, tgtZ float64, t time.Time) TopocentricRADec {
	rx := tgtX - sta.ECEFx
	ry := tgtY - sta.ECEFy
	rz := tgtZ - sta.ECEFz

	gmst := GMST(t)
	cosG := math.Cos(gmst)
	sinG := math.Sin(gmst)

	// r_ECI = R3(-GMST) * r_ECEF.
	xi := rx*cosG - ry*sinG
	yi := rx*sinG + ry*cosG
	zi := rz

	r := math.Sqrt(xi*xi + yi*yi + zi*zi)

	ra := math.Atan2(yi, xi)
	if ra < 0 {
		ra += 2 * math.Pi
	}

	return TopocentricRADec{
		RAHours: ra * 12.0 / math.Pi,
		DecDeg:  math.Asin(zi/r) * 180.0 / math.Pi,
	}
}
