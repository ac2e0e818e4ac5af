package cpf

import (
	"fmt"
	"time"
)

// TargetType is the H2 target classification code.
type TargetType int

const (
	TargetRetroSatellite   TargetType = 1 // passive retro-reflector satellite
	TargetLunarReflector   TargetType = 2 // passive lunar surface reflector
	TargetSyncTransponder  TargetType = 3
	TargetAsyncTransponder TargetType = 4
)

func (t TargetType) String() string {
	switch t {
	case TargetRetroSatellite:
		return "retro-reflector satellite"
	case TargetLunarReflector:
		return "lunar reflector"
	case TargetSyncTransponder:
		return "synchronous transponder"
	case TargetAsyncTransponder:
		return "asynchronous transponder"
	}
	return fmt.Sprintf("TargetType(%d)", int(t))
}

// ReferenceFrame is the coordinate frame of the tabulated positions.
type ReferenceFrame int

const (
	FrameITRF           ReferenceFrame = 0
	FrameGCRFTrueOfDate ReferenceFrame = 1
	FrameGCRFMeanJ2000  ReferenceFrame = 2
)

func (f ReferenceFrame) String() string {
	switch f {
	case FrameITRF:
		return "ITRF"
	case FrameGCRFTrueOfDate:
		return "GCRF (true of date)"
	case FrameGCRFMeanJ2000:
		return "GCRF (mean of J2000.0)"
	}
	return fmt.Sprintf("ReferenceFrame(%d)", int(f))
}

// RotationAngleType is the H2 rotational angle convention code.
type RotationAngleType int

const (
	RotationNone       RotationAngleType = 0
	RotationLunarEuler RotationAngleType = 1 // lunar Euler angles phi, theta, psi
	RotationNorthPole  RotationAngleType = 2 // north pole RA/Dec and prime meridian angle
)

// Direction is the light-time convention the ephemeris positions were
// produced under.
type Direction int

const (
	DirectionInstantaneous Direction = 0
	DirectionTransmit      Direction = 1 // light-time iteration at the transmit epoch
	DirectionReceive       Direction = 2 // light-time iteration at the receive epoch
)

func (d Direction) String() string {
	switch d {
	case DirectionInstantaneous:
		return "instantaneous"
	case DirectionTransmit:
		return "transmit light-time"
	case DirectionReceive:
		return "receive light-time"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// Sample is one position record ("10" line) of a CPF ephemeris.
// SoD may reach 86400.0 on a day with a leap-second insertion.
type Sample struct {
	MJD        int
	SoD        float64
	LeapSecond int
	Position   [3]float64 // meters, in the record's reference frame
}

// UTC returns the sample's civil timestamp. A SoD of 86400 on a
// leap-second day folds onto the following midnight.
func (s Sample) UTC() time.Time {
	return TimeFromMJD(s.MJD, s.SoD)
}

// Record is one parsed CPF ephemeris file. Immutable after Parse.
type Record struct {
	Version    string
	Source     string
	ProducedAt time.Time
	Sequence   int
	TargetName string
	CosparID   string
	SIC        string
	NoradID    int
	Start      time.Time
	End        time.Time
	Interval   float64 // nominal seconds between table entries

	TargetType   TargetType
	Frame        ReferenceFrame
	Rotation     RotationAngleType
	CoMCorrected bool // center-of-mass correction applied (prediction is for the reflector array)
	Direction    Direction

	Samples []Sample
}

// mjdUnixEpoch is the MJD of 1970-01-01T00:00:00Z.
const mjdUnixEpoch = 40587

// TimeFromMJD converts an MJD day number and second-of-day to UTC.
func TimeFromMJD(mjd int, sod float64) time.Time {
	sec, frac := int64(sod), sod-float64(int64(sod))
	return time.Unix(int64(mjd-mjdUnixEpoch)*86400+sec, int64(frac*1e9)).UTC()
}

// MJDOfTime splits a UTC instant into an MJD day number and second-of-day.
func MJDOfTime(t time.Time) (mjd int, sod float64) {
	u := t.Unix()
	d := u / 86400
	r := u % 86400
	if r < 0 {
		d--
		r += 86400
	}
	return int(d) + mjdUnixEpoch, float64(r) + float64(t.Nanosecond())/1e9
}

// FormatError reports a malformed or unrecognized CPF field. It is fatal
// for the file being parsed but should not abort a batch of other files.
type FormatError struct {
	Line int
	Msg  string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("cpf: line %d: %s", e.Line, e.Msg)
}
