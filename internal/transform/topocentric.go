package transform

import "math"

// WGS-84 ellipsoid parameters.
const (
	wgs84A  = 6378137.0             // semi-major axis (meters)
	wgs84F  = 1.0 / 298.257223563   // flattening
	wgs84E2 = wgs84F * (2 - wgs84F) // first eccentricity squared
)

// Station holds a ground station's location in both geodetic and ECEF
// frames. ECEF coordinates are precomputed once so they can be reused
// across the many target lookups of a prediction run.
type Station struct {
	LatRad, LonRad, AltM float64 // geodetic (radians, meters above ellipsoid)
	ECEFx, ECEFy, ECEFz  float64 // precomputed ECEF (meters)
}

// LookAngles holds azimuth, altitude, and range from station to target.
type LookAngles struct {
	AzimuthDeg  float64 // 0 = North, clockwise
	AltitudeDeg float64 // 0 = horizon, 90 = zenith
	RangeM      float64
}

// NewStation creates a Station from geodetic coordinates. Latitude and
// longitude are in degrees, altitude in meters above the WGS-84 ellipsoid.
func NewStation(latDeg, lonDeg, altM float64) Station {
	lat := latDeg * math.Pi / 180.0
	lon := lonDeg * math.Pi / 180.0

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	sinLon := math.Sin(lon)
	cosLon := math.Cos(lon)

	// Radius of curvature in the prime vertical.
	N := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	x := (N + altM) * cosLat * cosLon
	y := (N + altM) * cosLat * sinLon
	z := (N*(1-wgs84E2) + altM) * sinLat

	return Station{
		LatRad: lat,
		LonRad: lon,
		AltM:   altM,
		ECEFx:  x,
		ECEFy:  y,
		ECEFz:  z,
	}
}

// NewStationECEF creates a Station from geocentric (x, y, z) meters,
// recovering the geodetic coordinates needed by the SEZ rotation.
func NewStationECEF(x, y, z float64) Station {
	geo := ECEFToGeodetic(x, y, z)
	return Station{
		LatRad: geo.LatDeg * math.Pi / 180.0,
		LonRad: geo.LonDeg * math.Pi / 180.0,
		AltM:   geo.AltM,
		ECEFx:  x,
		ECEFy:  y,
		ECEFz:  z,
	}
}

// GeodeticPoint holds a geodetic position (latitude/longitude in degrees,
// altitude in meters).
type GeodeticPoint struct {
	LatDeg, LonDeg, AltM float64
}

// ECEFToGeodetic converts ECEF coordinates (meters) to geodetic coordinates
// using the iterative Bowring method. Converges in 2-3 iterations for
// Earth orbits.
func ECEFToGeodetic(x, y, z float64) GeodeticPoint {
	lon := math.Atan2(y, x)

	p := math.Sqrt(x*x + y*y)

	// Initial estimate using Bowring's method.
	lat := math.Atan2(z, p*(1-wgs84E2))

	for i := 0; i < 5; i++ {
		sinLat := math.Sin(lat)
		N := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
		lat = math.Atan2(z+wgs84E2*N*sinLat, p)
	}

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	N := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	var alt float64
	if math.Abs(cosLat) > 1e-10 {
		alt = p/cosLat - N
	} else {
		alt = math.Abs(z)/math.Abs(sinLat) - N*(1-wgs84E2)
	}

	return GeodeticPoint{
		LatDeg: lat * 180.0 / math.Pi,
		LonDeg: lon * 180.0 / math.Pi,
		AltM:   alt,
	}
}

// ECEFToLookAngles computes azimuth, altitude, and range from a station
// to a target given in ECEF/ITRF meters.
//
// Uses the SEZ (South-East-Zenith) topocentric rotation per Vallado
// Section 4.4. Azimuth: 0 = North, measured clockwise.
func ECEFToLookAngles(sta Station, tgtX, tgtY, tgtZ float64) LookAngles {
	// Range vector in ECEF.
	rx := tgtX - sta.ECEFx
	ry := tgtY - sta.ECEFy
	rz := tgtZ - sta.ECEFz

	sinLat := math.Sin(sta.LatRad)
	cosLat := math.Cos(sta.LatRad)
	sinLon := math.Sin(sta.LonRad)
	cosLon := math.Cos(sta.LonRad)

	// Rotate ECEF range vector to SEZ (South, East, Zenith).
	south := sinLat*cosLon*rx + sinLat*sinLon*ry - cosLat*rz
	east := -sinLon*rx + cosLon*ry
	zenith := cosLat*cosLon*rx + cosLat*sinLon*ry + sinLat*rz

	rangeMag := math.Sqrt(south*south + east*east + zenith*zenith)

	// Altitude: angle above the horizon.
	alt := math.Asin(zenith / rangeMag)

	// Azimuth: measured clockwise from North.
	// In SEZ, North = -South direction, so az = atan2(east, -south).
	az := math.Atan2(east, -south)
	if az < 0 {
		az += 2 * math.Pi
	}

	return LookAngles{
		AzimuthDeg:  az * 180.0 / math.Pi,
		AltitudeDeg: alt * 180.0 / math.Pi,
		RangeM:      rangeMag,
	}
}
