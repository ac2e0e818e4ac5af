package quasitime

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/slr/slrgo/internal/cpf"
)

// oneSecondTable builds n one-second samples starting at (mjd, sod0),
// flipping the leap flag at index leapAt (or never if leapAt < 0).
// Sample leapAt-1 lands on SoD 86400 when the table straddles midnight
// of a leap-second day.
func oneSecondTable(mjd int, sod0 float64, n, leapAt int) []cpf.Sample {
	samples := make([]cpf.Sample, n)
	day, sod, leap := mjd, sod0, 0
	for i := range samples {
		samples[i] = cpf.Sample{MJD: day, SoD: sod, LeapSecond: leap}
		sod++
		if leapAt >= 0 && i+1 == leapAt {
			// Next sample is the first one past the inserted second.
			day, sod, leap = day+1, 0, 1
		} else if sod > 86400 || (leapAt < 0 && sod >= 86400) {
			day, sod = day+1, sod-86400
		}
	}
	return samples
}

func TestLeapMidnightSeparation(t *testing.T) {
	// 23:59:60 (SoD 86400, leap still 0) and the following 00:00:00
	// (leap now 1) are one physical second apart; on the quasi axis they
	// must sit exactly 1/86400 apart, the same spacing as every other
	// adjacent one-second pair.
	samples := []cpf.Sample{
		{MJD: 57753, SoD: 86399, LeapSecond: 0},
		{MJD: 57753, SoD: 86400, LeapSecond: 0},
		{MJD: 57754, SoD: 0, LeapSecond: 1},
	}
	tl := New(samples)

	a := tl.Of(57753, 86400, 0)
	b := tl.Of(57754, 0, 1)
	if math.Abs((b-a)-1.0/86400) > 1e-12 {
		t.Errorf("step across the inserted second = %v days, want 1/86400", b-a)
	}
}

func TestUniformSpacingAcrossLeap(t *testing.T) {
	samples := oneSecondTable(57753, 86391, 20, 10)
	tl := New(samples)

	for i := 1; i < len(tl.Source); i++ {
		dt := tl.Source[i] - tl.Source[i-1]
		if math.Abs(dt-1.0/86400) > 1e-12 {
			t.Fatalf("spacing at %d = %v days, want 1/86400", i, dt)
		}
	}
	if !tl.HasLeap() {
		t.Error("HasLeap() = false, want true")
	}
}

func TestOfInstantPropagatesLeap(t *testing.T) {
	samples := oneSecondTable(57753, 86391, 20, 10)
	tl := New(samples)

	// An output instant on the boundary day gets the leap offset, one
	// on the day before does not.
	before := tl.OfInstant(57753, 86399)
	after := tl.OfInstant(57754, 0)
	if math.Abs((after-before)*86400-2.0) > 1e-9 {
		// 86399 -> midnight is 1 s nominal plus the 1 s leap offset.
		t.Errorf("boundary step = %v s, want 2", (after-before)*86400)
	}
}

func TestNoLeapTable(t *testing.T) {
	samples := oneSecondTable(57994, 0, 20, -1)
	tl := New(samples)
	if tl.HasLeap() {
		t.Error("HasLeap() = true for a leap-free table")
	}
	if got, want := tl.OfInstant(57994, 10), tl.Of(57994, 10, 0); got != want {
		t.Errorf("OfInstant = %v, want %v", got, want)
	}
}

func TestMedianReference(t *testing.T) {
	// Symmetric table: quasi-MJD of the middle sample stays near zero.
	samples := []cpf.Sample{
		{MJD: 57990, SoD: 0}, {MJD: 57991, SoD: 0}, {MJD: 57992, SoD: 0},
		{MJD: 57993, SoD: 0}, {MJD: 57994, SoD: 0},
	}
	tl := New(samples)
	if got := tl.Source[2]; got != 0 {
		t.Errorf("median sample quasi-MJD = %v, want 0", got)
	}

	// Even length: the reference is the mean of the two middle MJDs,
	// 57991.5, so noon of day 57991 maps to exactly zero.
	even := []cpf.Sample{
		{MJD: 57990, SoD: 0}, {MJD: 57991, SoD: 0},
		{MJD: 57992, SoD: 0}, {MJD: 57993, SoD: 0},
	}
	tl = New(even)
	if got := tl.Of(57991, 43200, 0); got != 0 {
		t.Errorf("even-length reference: quasi(57991.5) = %v, want 0", got)
	}
}

func TestCheckWindow(t *testing.T) {
	samples := oneSecondTable(57994, 0, 20, -1)
	lo := samples[4].UTC()
	hi := samples[15].UTC()

	if err := CheckWindow(samples, lo, hi, 0); err != nil {
		t.Errorf("interior window rejected: %v", err)
	}

	var oor *OutOfRangeError
	if err := CheckWindow(samples, samples[0].UTC(), hi, 0); !errors.As(err, &oor) {
		t.Errorf("early start: err = %v, want *OutOfRangeError", err)
	}
	if err := CheckWindow(samples, lo, hi.Add(time.Second), 0); !errors.As(err, &oor) {
		t.Errorf("late end: err = %v, want *OutOfRangeError", err)
	}
	if err := CheckWindow(samples[:8], lo, hi, 0); !errors.As(err, &oor) {
		t.Errorf("short table: err = %v, want *OutOfRangeError", err)
	}

	// One extra spare sample each side shrinks the admissible interior
	// by one table step at both ends.
	if err := CheckWindow(samples, samples[5].UTC(), samples[14].UTC(), 1); err != nil {
		t.Errorf("interior window with spare margin rejected: %v", err)
	}
	if err := CheckWindow(samples, lo, samples[14].UTC(), 1); !errors.As(err, &oor) {
		t.Errorf("start on stencil boundary with spare margin: err = %v, want *OutOfRangeError", err)
	}
	if err := CheckWindow(samples, samples[5].UTC(), hi, 1); !errors.As(err, &oor) {
		t.Errorf("end on stencil boundary with spare margin: err = %v, want *OutOfRangeError", err)
	}
}
