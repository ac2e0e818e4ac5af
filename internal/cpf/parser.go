// Package cpf parses Consolidated Prediction Format ephemeris files into
// a typed in-memory model. The parse is pure: no I/O beyond the reader,
// no global state, and the returned Record is never mutated afterwards.
package cpf

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Parse reads a CPF ephemeris from r. Header enum codes are validated
// strictly: an unknown target-type, frame, rotation, center-of-mass or
// direction code is a *FormatError, not a silent default.
func Parse(r io.Reader) (*Record, error) {
	scanner := bufio.NewScanner(r)
	rec := &Record{}
	var (
		lineNo       int
		sawH1, sawH2 bool
		directionSet bool
	)

	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "H1":
			if err := parseH1(rec, fields, lineNo); err != nil {
				return nil, err
			}
			sawH1 = true
		case "H2":
			if err := parseH2(rec, fields, lineNo); err != nil {
				return nil, err
			}
			sawH2 = true
		case "10":
			dir, sample, err := parsePositionRow(fields, lineNo)
			if err != nil {
				return nil, err
			}
			if !directionSet {
				rec.Direction = dir
				directionSet = true
			} else if dir != rec.Direction {
				return nil, &FormatError{lineNo, fmt.Sprintf("direction flag changed mid-file: %d then %d", rec.Direction, dir)}
			}
			rec.Samples = append(rec.Samples, sample)
		default:
			// H3-H9, "20"/"30" velocity and correction records, "99" trailer:
			// not needed for interpolation.
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading cpf data: %w", err)
	}

	if !sawH1 || !sawH2 {
		return nil, &FormatError{lineNo, "missing H1 or H2 header"}
	}
	if len(rec.Samples) == 0 {
		return nil, &FormatError{lineNo, "no position records"}
	}
	if err := checkSampleTable(rec.Samples, lineNo); err != nil {
		return nil, err
	}
	return rec, nil
}

func parseH1(rec *Record, f []string, line int) error {
	if len(f) < 10 {
		return &FormatError{line, fmt.Sprintf("H1 has %d fields, want at least 10", len(f))}
	}
	if f[1] != "CPF" {
		return &FormatError{line, fmt.Sprintf("unrecognized format %q", f[1])}
	}
	rec.Version = f[2]
	rec.Source = f[3]

	produced, err := headerTime(f[4:8], []string{"0", "0"}, line)
	if err != nil {
		return err
	}
	rec.ProducedAt = produced

	seq, err := strconv.Atoi(f[8])
	if err != nil {
		return &FormatError{line, fmt.Sprintf("invalid ephemeris sequence number %q", f[8])}
	}
	rec.Sequence = seq
	rec.TargetName = f[9]
	return nil
}

func parseH2(rec *Record, f []string, line int) error {
	if len(f) < 22 {
		return &FormatError{line, fmt.Sprintf("H2 has %d fields, want at least 22", len(f))}
	}
	rec.CosparID = f[1]
	rec.SIC = f[2]

	norad, err := strconv.Atoi(f[3])
	if err != nil {
		return &FormatError{line, fmt.Sprintf("invalid NORAD id %q", f[3])}
	}
	rec.NoradID = norad

	if rec.Start, err = headerTime(f[4:8], f[8:10], line); err != nil {
		return err
	}
	if rec.End, err = headerTime(f[10:14], f[14:16], line); err != nil {
		return err
	}

	interval, err := strconv.ParseFloat(f[16], 64)
	if err != nil {
		return &FormatError{line, fmt.Sprintf("invalid table interval %q", f[16])}
	}
	rec.Interval = interval

	switch f[17] {
	case "1":
		rec.TargetType = TargetRetroSatellite
	case "2":
		rec.TargetType = TargetLunarReflector
	case "3":
		rec.TargetType = TargetSyncTransponder
	case "4":
		rec.TargetType = TargetAsyncTransponder
	default:
		return &FormatError{line, fmt.Sprintf("unknown target type code %q", f[17])}
	}

	switch f[19] {
	case "0":
		rec.Frame = FrameITRF
	case "1":
		rec.Frame = FrameGCRFTrueOfDate
	case "2":
		rec.Frame = FrameGCRFMeanJ2000
	default:
		return &FormatError{line, fmt.Sprintf("unknown reference frame code %q", f[19])}
	}

	switch f[20] {
	case "0":
		rec.Rotation = RotationNone
	case "1":
		rec.Rotation = RotationLunarEuler
	case "2":
		rec.Rotation = RotationNorthPole
	default:
		return &FormatError{line, fmt.Sprintf("unknown rotational angle code %q", f[20])}
	}

	switch f[21] {
	case "0":
		rec.CoMCorrected = false
	case "1":
		rec.CoMCorrected = true
	default:
		return &FormatError{line, fmt.Sprintf("unknown center of mass correction code %q", f[21])}
	}
	return nil
}

// parsePositionRow parses a "10" ephemeris row:
// 10 <direction> <mjd> <sod> <leap> <x> <y> <z>
func parsePositionRow(f []string, line int) (Direction, Sample, error) {
	if len(f) < 8 {
		return 0, Sample{}, &FormatError{line, fmt.Sprintf("position record has %d fields, want 8", len(f))}
	}

	var dir Direction
	switch f[1] {
	case "0":
		dir = DirectionInstantaneous
	case "1":
		dir = DirectionTransmit
	case "2":
		dir = DirectionReceive
	default:
		return 0, Sample{}, &FormatError{line, fmt.Sprintf("unknown direction flag %q", f[1])}
	}

	mjd, err := strconv.Atoi(f[2])
	if err != nil {
		return 0, Sample{}, &FormatError{line, fmt.Sprintf("invalid MJD %q", f[2])}
	}
	sod, err := strconv.ParseFloat(f[3], 64)
	if err != nil {
		return 0, Sample{}, &FormatError{line, fmt.Sprintf("invalid second of day %q", f[3])}
	}
	if sod < 0 || sod > 86400 {
		return 0, Sample{}, &FormatError{line, fmt.Sprintf("second of day %v outside [0, 86400]", sod)}
	}
	leap, err := strconv.Atoi(f[4])
	if err != nil {
		return 0, Sample{}, &FormatError{line, fmt.Sprintf("invalid leap second flag %q", f[4])}
	}
	if leap != 0 && leap != 1 {
		return 0, Sample{}, &FormatError{line, fmt.Sprintf("leap second flag %d outside {0, 1}", leap)}
	}

	var pos [3]float64
	for i := 0; i < 3; i++ {
		pos[i], err = strconv.ParseFloat(f[5+i], 64)
		if err != nil {
			return 0, Sample{}, &FormatError{line, fmt.Sprintf("invalid position component %q", f[5+i])}
		}
	}

	return dir, Sample{MJD: mjd, SoD: sod, LeapSecond: leap, Position: pos}, nil
}

// checkSampleTable enforces the table invariants: strictly increasing
// (MJD, SoD) ordering and at most one leap-second step.
func checkSampleTable(samples []Sample, line int) error {
	steps := 0
	for i := 1; i < len(samples); i++ {
		prev, cur := samples[i-1], samples[i]
		if cur.MJD < prev.MJD || (cur.MJD == prev.MJD && cur.SoD <= prev.SoD) {
			return &FormatError{line, fmt.Sprintf("samples not strictly increasing at entry %d (mjd=%d sod=%v)", i, cur.MJD, cur.SoD)}
		}
		if cur.LeapSecond != prev.LeapSecond {
			steps++
		}
	}
	if steps > 1 {
		return &FormatError{line, fmt.Sprintf("%d leap-second transitions in one table, at most 1 allowed", steps)}
	}
	return nil
}

// headerTime assembles a UTC timestamp from whitespace-separated header
// fields: date is {year, month, day, hour}, hms the remaining {min, sec}.
func headerTime(date, ms []string, line int) (time.Time, error) {
	nums := make([]int, 0, 6)
	for _, s := range append(append([]string{}, date...), ms...) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return time.Time{}, &FormatError{line, fmt.Sprintf("invalid date/time field %q", s)}
		}
		nums = append(nums, n)
	}
	return time.Date(nums[0], time.Month(nums[1]), nums[2], nums[3], nums[4], nums[5], 0, time.UTC), nil
}
