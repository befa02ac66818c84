// Package allocation searches every pair of crops in a catalog for the most
// profitable way to split a fixed area between them. Each eligible pair is
// formulated as a two-variable linear program, solved through a Solver, and
// the optimal results are ranked by total profit.
package allocation

import (
	"errors"
	"fmt"

	"github.com/papapumpkin/acreage/internal/crop"
)

// ErrInvalidParams indicates search parameters that cannot describe a plot.
var ErrInvalidParams = errors.New("invalid allocation parameters")

// Params are the economic and physical limits of one search.
type Params struct {
	TotalAcres    float64 `json:"total_acres"`     // area that must be fully allocated
	MaxGrowthTime int     `json:"max_growth_time"` // eligibility ceiling in days
	HorizonDays   int     `json:"horizon_days"`    // annual horizon for harvest counts
	MinAllocation float64 `json:"min_allocation"`  // lower bound on each crop's area
}

// DefaultParams returns the reference configuration: 100 acres, a 150-day
// growth ceiling, a 365-day horizon and at least 1 acre per crop.
func DefaultParams() Params {
	return Params{
		TotalAcres:    100,
		MaxGrowthTime: 150,
		HorizonDays:   crop.DefaultHorizonDays,
		MinAllocation: 1,
	}
}

// Validate rejects parameters under which no pair could ever be formulated.
func (p Params) Validate() error {
	switch {
	case p.TotalAcres <= 0:
		return fmt.Errorf("%w: total_acres must be positive, got %v", ErrInvalidParams, p.TotalAcres)
	case p.MaxGrowthTime <= 0:
		return fmt.Errorf("%w: max_growth_time must be positive, got %d", ErrInvalidParams, p.MaxGrowthTime)
	case p.HorizonDays <= 0:
		return fmt.Errorf("%w: horizon_days must be positive, got %d", ErrInvalidParams, p.HorizonDays)
	case p.MinAllocation < 0:
		return fmt.Errorf("%w: min_allocation must not be negative, got %v", ErrInvalidParams, p.MinAllocation)
	case 2*p.MinAllocation > p.TotalAcres:
		return fmt.Errorf("%w: two crops at min_allocation %v exceed total_acres %v", ErrInvalidParams, p.MinAllocation, p.TotalAcres)
	}
	return nil
}

// Solution is the optimal allocation for one crop pair. Crop1 is the pair
// member that comes first in the catalog.
type Solution struct {
	Crop1       string  `json:"crop1"`
	Crop2       string  `json:"crop2"`
	Acres1      float64 `json:"acres_crop1"`
	Acres2      float64 `json:"acres_crop2"`
	Harvests1   int     `json:"harvests_crop1"`
	Harvests2   int     `json:"harvests_crop2"`
	TotalProfit float64 `json:"total_profit"`
}

// Pair returns the "crop1+crop2" label used in telemetry and reports.
func (s Solution) Pair() string {
	return pairLabel(s.Crop1, s.Crop2)
}

func pairLabel(a, b string) string {
	return a + "+" + b
}
