package allocation

import (
	"cmp"
	"slices"
)

// DefaultTopK is the number of ranked solutions reported by default.
const DefaultTopK = 10

// Rank orders solutions by total profit, highest first, and keeps the top k
// (k <= 0 keeps all). The sort is stable: equal profits keep their input
// order, which for Search output is pair enumeration order. The input slice
// is not modified.
func Rank(solutions []Solution, k int) []Solution {
	ranked := slices.Clone(solutions)
	slices.SortStableFunc(ranked, func(a, b Solution) int {
		return cmp.Compare(b.TotalProfit, a.TotalProfit)
	})
	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}
