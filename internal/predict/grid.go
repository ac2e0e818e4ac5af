package predict

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/slr/slrgo/internal/cpf"
)

// Grid is the expanded output timeline of one prediction call: explicit
// UTC instants with their MJD/second-of-day split. Never mutated after
// construction.
type Grid struct {
	Times []time.Time
	MJD   []int
	SoD   []float64
}

// NewGrid expands [start, end) at the given step (seconds) into explicit
// instants, matching the half-open convention of the tabulated output
// consumers: the number of points is ceil(round(end-start)/step).
func NewGrid(start, end time.Time, stepSec float64) *Grid {
	span := math.Round(end.Sub(start).Seconds())
	n := int(math.Ceil(span / stepSec))
	if n < 1 {
		n = 1
	}

	offsets := make([]float64, n)
	floats.Span(offsets, 0, float64(n-1)*stepSec)

	g := &Grid{
		Times: make([]time.Time, n),
		MJD:   make([]int, n),
		SoD:   make([]float64, n),
	}
	for i, off := range offsets {
		ti := start.Add(time.Duration(off * float64(time.Second)))
		g.Times[i] = ti
		g.MJD[i], g.SoD[i] = cpf.MJDOfTime(ti)
	}
	return g
}
