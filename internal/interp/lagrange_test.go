package interp

import (
	"math"
	"testing"
)

// polyTable tabulates a cubic per component on a uniform grid. A
// degree-9 interpolant must reproduce any polynomial of degree <= 9
// exactly (up to floating error).
func polyTable(n int, step float64) ([]float64, [][3]float64) {
	ts := make([]float64, n)
	ps := make([][3]float64, n)
	for i := range ts {
		t := float64(i) * step
		ts[i] = t
		ps[i] = cubic(t)
	}
	return ts, ps
}

func cubic(t float64) [3]float64 {
	return [3]float64{
		1e6 + 2e3*t - 5*t*t + 0.1*t*t*t,
		-3e6 + 1e3*t + 2*t*t,
		5e5 - 4e3*t + t*t - 0.05*t*t*t,
	}
}

func TestExactMatchShortCircuit(t *testing.T) {
	ts, ps := polyTable(20, 1.0/86400)
	for i, q := range ts {
		got, err := At(q, ts, ps)
		if err != nil {
			t.Fatalf("At(%v): %v", q, err)
		}
		if got != ps[i] {
			t.Fatalf("At(source[%d]) = %v, want tabulated %v exactly", i, got, ps[i])
		}
	}
}

func TestPolynomialReproduction(t *testing.T) {
	ts, ps := polyTable(20, 1.0/86400)
	for _, frac := range []float64{0.1, 0.5, 0.9} {
		q := ts[9] + frac*(ts[10]-ts[9])
		got, err := At(q, ts, ps)
		if err != nil {
			t.Fatalf("At(%v): %v", q, err)
		}
		want := cubic(q)
		for d := 0; d < 3; d++ {
			if math.Abs(got[d]-want[d]) > 1e-6 {
				t.Errorf("frac %v component %d: got %v, want %v", frac, d, got[d], want[d])
			}
		}
	}
}

func TestIrregularSpacing(t *testing.T) {
	// Leap-second tables are uniform, but the interpolator must not
	// assume it: perturb the grid and re-check reproduction.
	ts, ps := polyTable(20, 1.0)
	for i := range ts {
		ts[i] += 0.3 * math.Sin(float64(i))
		ps[i] = cubic(ts[i])
	}
	q := (ts[9] + ts[10]) / 2
	got, err := At(q, ts, ps)
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	want := cubic(q)
	for d := 0; d < 3; d++ {
		if math.Abs(got[d]-want[d]) > 1e-6 {
			t.Errorf("component %d: got %v, want %v", d, got[d], want[d])
		}
	}
}

func TestStencilOutOfBounds(t *testing.T) {
	ts, ps := polyTable(20, 1.0)
	for _, q := range []float64{ts[1] + 0.5, ts[17] + 0.5, -10, 100} {
		if _, err := At(q, ts, ps); err == nil {
			t.Errorf("At(%v): expected stencil error", q)
		}
	}
}

func TestPositionsBatch(t *testing.T) {
	ts, ps := polyTable(20, 1.0)
	queries := []float64{ts[5], ts[5] + 0.25, ts[12] + 0.75}
	got, err := Positions(queries, ts, ps)
	if err != nil {
		t.Fatalf("Positions: %v", err)
	}
	if len(got) != len(queries) {
		t.Fatalf("got %d results, want %d", len(got), len(queries))
	}
	if got[0] != ps[5] {
		t.Errorf("exact query not short-circuited: %v", got[0])
	}
}
