// Package interval implements the bound-propagating arithmetic used by
// every impact aggregation step. A Range carries a nominal value plus a
// lower and upper bound; all operations preserve Min <= Value <= Max.
package interval

import (
	"math"

	"github.com/rotisserie/eris"
)

// Range is a nominal value with lower/upper uncertainty bounds.
type Range struct {
	Value float64
	Min   float64
	Max   float64
}

// Exact returns a Range with no modeled uncertainty.
func Exact(v float64) Range {
	return Range{Value: v, Min: v, Max: v}
}

// WithUncertainty expands a nominal value into a symmetric range of
// +/- pct percent. Negative percentages are treated as zero.
func WithUncertainty(v, pct float64) Range {
	if pct <= 0 {
		return Exact(v)
	}
	d := math.Abs(v) * pct / 100
	return Range{Value: v, Min: v - d, Max: v + d}
}

// Valid reports whether Min <= Value <= Max.
func (r Range) Valid() bool {
	return r.Min <= r.Value && r.Value <= r.Max
}

// Negative reports whether any of the three figures is below zero.
func (r Range) Negative() bool {
	return r.Value < 0 || r.Min < 0 || r.Max < 0
}

// Add returns the interval sum: values, lower bounds, and upper bounds
// are added independently.
func (r Range) Add(o Range) Range {
	return Range{
		Value: r.Value + o.Value,
		Min:   r.Min + o.Min,
		Max:   r.Max + o.Max,
	}
}

// Scale multiplies all three figures by a non-negative scalar. A
// negative scalar is a configuration defect, not a valid operation.
func (r Range) Scale(k float64) (Range, error) {
	if k < 0 {
		return Range{}, eris.Errorf("interval: scale by negative factor %v", k)
	}
	return Range{Value: r.Value * k, Min: r.Min * k, Max: r.Max * k}, nil
}

// Mul multiplies two ranges elementwise. Both operands must be
// non-negative, which holds for every quantity and factor in the
// impact formulas.
func (r Range) Mul(o Range) (Range, error) {
	if r.Negative() || o.Negative() {
		return Range{}, eris.New("interval: multiply requires non-negative ranges")
	}
	return Range{Value: r.Value * o.Value, Min: r.Min * o.Min, Max: r.Max * o.Max}, nil
}

// Sum adds a sequence of ranges. The sum of nothing is the exact zero.
func Sum(rs ...Range) Range {
	var total Range
	for _, r := range rs {
		total = total.Add(r)
	}
	return total
}

// RoundSignificant rounds x to n significant figures. It is applied
// only when building the final presentation value, never between
// aggregation steps.
func RoundSignificant(x float64, n int) float64 {
	if x == 0 || n <= 0 || math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	mag := math.Ceil(math.Log10(math.Abs(x)))
	factor := math.Pow(10, float64(n)-mag)
	return math.Round(x*factor) / factor
}

// Round rounds all three figures to n significant figures.
func (r Range) Round(n int) Range {
	return Range{
		Value: RoundSignificant(r.Value, n),
		Min:   RoundSignificant(r.Min, n),
		Max:   RoundSignificant(r.Max, n),
	}
}
