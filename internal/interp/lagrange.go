// Package interp reconstructs a continuous trajectory from discrete
// ephemeris samples with local 10-point (degree-9) Lagrange polynomial
// interpolation, evaluated in barycentric form for numerical stability
// on nearly uniform stencils.
package interp

import (
	"fmt"
	"sort"
)

// Stencil geometry: 4 samples before the bracketing index through 5
// after, 10 total. The asymmetry is the convention the historical fit
// window used; outputs stay comparable with existing consumers.
const (
	stencilBefore = 4
	stencilAfter  = 6 // exclusive upper offset from the bracket index
	stencilSize   = stencilBefore + stencilAfter
)

// At evaluates the trajectory at a single quasi-time. source must be
// strictly increasing and positions parallel to it. A query equal to a
// source time short-circuits to the tabulated sample so no rounding
// error is introduced at exact points.
//
// A stencil running out of bounds means the caller skipped the window
// range check; it is reported as an error rather than a panic so a
// batch driver can isolate the failure.
func At(q float64, source []float64, positions [][3]float64) ([3]float64, error) {
	if len(source) != len(positions) {
		return [3]float64{}, fmt.Errorf("interp: %d times vs %d positions", len(source), len(positions))
	}

	// i is the bracket: source[i] <= q < source[i+1].
	i := sort.SearchFloat64s(source, q)
	if i < len(source) && source[i] == q {
		return positions[i], nil
	}
	i--

	lo, hi := i-stencilBefore, i+stencilAfter
	if i < 0 || i+1 >= len(source) || lo < 0 || hi > len(source) {
		return [3]float64{}, fmt.Errorf("interp: query %v has no full %d-point stencil (bracket %d of %d)",
			q, stencilSize, i, len(source))
	}

	return barycentric(q, source[lo:hi], positions[lo:hi]), nil
}

// Positions evaluates the trajectory at every query quasi-time.
func Positions(queries, source []float64, positions [][3]float64) ([][3]float64, error) {
	out := make([][3]float64, len(queries))
	for k, q := range queries {
		p, err := At(q, source, positions)
		if err != nil {
			return nil, err
		}
		out[k] = p
	}
	return out, nil
}

// barycentric evaluates the Lagrange interpolant through the stencil
// points at q, one polynomial per Cartesian component sharing weights.
func barycentric(q float64, xs []float64, ys [][3]float64) [3]float64 {
	var w [stencilSize]float64
	for j := range xs {
		w[j] = 1
		for k := range xs {
			if k != j {
				w[j] /= xs[j] - xs[k]
			}
		}
	}

	var num [3]float64
	var den float64
	for j := range xs {
		c := w[j] / (q - xs[j])
		den += c
		for d := 0; d < 3; d++ {
			num[d] += c * ys[j][d]
		}
	}

	var out [3]float64
	for d := 0; d < 3; d++ {
		out[d] = num[d] / den
	}
	return out
}
