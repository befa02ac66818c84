package allocation

import (
	"math"

	"github.com/papapumpkin/acreage/internal/crop"
	"github.com/papapumpkin/acreage/internal/lp"
)

// Eligible reports whether c can take part in any pair under the growth
// ceiling. Ineligible crops are filtered out before formulation.
func Eligible(c crop.Profile, maxGrowthTime int) bool {
	return c.GrowthTime <= maxGrowthTime
}

// Formulate builds the allocation problem for one pair:
//
//	maximize   d1·x1 + d2·x2
//	subject to x1 + x2 == TotalAcres
//	           x1, x2 >= MinAllocation
//
// where d is each crop's net profit density. The equality has no slack, so
// optima sit on a vertex: the denser crop takes everything the other crop's
// lower bound leaves over.
func Formulate(c1, c2 crop.Profile, m1, m2 crop.Metrics, p Params) lp.Problem {
	inf := math.Inf(1)
	return lp.Problem{
		Name:      pairLabel(c1.Name, c2.Name),
		Direction: lp.Maximize,
		Objective: []float64{c1.NetDensity(m1), c2.NetDensity(m2)},
		Variables: []lp.Variable{
			{Name: "acres_" + c1.Name, Lower: p.MinAllocation, Upper: inf},
			{Name: "acres_" + c2.Name, Lower: p.MinAllocation, Upper: inf},
		},
		Constraints: []lp.Constraint{
			{Name: "total_area", Coeffs: []float64{1, 1}, Sense: lp.Equal, RHS: p.TotalAcres},
		},
	}
}
