package allocation

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/papapumpkin/acreage/internal/crop"
)

// scoredCrop is an eligible crop with its metrics, net profit density and
// catalog position.
type scoredCrop struct {
	profile crop.Profile
	metrics crop.Metrics
	density float64
	index   int
}

// scoreEligible validates params and catalog, then scores every crop within
// the growth ceiling in catalog order. Crops above the ceiling are left out
// rather than scored as zero profit.
func scoreEligible(catalog crop.Catalog, params Params) ([]scoredCrop, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := crop.ValidateCatalog(catalog); err != nil {
		return nil, err
	}
	var eligible []scoredCrop
	for i, c := range catalog {
		if !Eligible(c, params.MaxGrowthTime) {
			continue
		}
		m, err := crop.DeriveMetrics(c, params.HorizonDays)
		if err != nil {
			return nil, err
		}
		eligible = append(eligible, scoredCrop{profile: c, metrics: m, density: c.NetDensity(m), index: i})
	}
	return eligible, nil
}

// Greedy is the baseline the pair search is compared against: rank eligible
// crops by net profit density, give the best one everything except the
// minimum allocation and give the runner-up the minimum. Crop1 is the denser
// crop, not the catalog-earlier one. It reports false when fewer than two
// crops are eligible, and an error for invalid params or a malformed catalog.
func Greedy(catalog crop.Catalog, params Params) (Solution, bool, error) {
	eligible, err := scoreEligible(catalog, params)
	if err != nil {
		return Solution{}, false, fmt.Errorf("greedy: %w", err)
	}
	if len(eligible) < 2 {
		return Solution{}, false, nil
	}

	slices.SortStableFunc(eligible, func(a, b scoredCrop) int {
		return cmp.Compare(b.density, a.density)
	})

	best, second := eligible[0], eligible[1]
	acres1 := params.TotalAcres - params.MinAllocation
	acres2 := params.MinAllocation
	return Solution{
		Crop1:       best.profile.Name,
		Crop2:       second.profile.Name,
		Acres1:      acres1,
		Acres2:      acres2,
		Harvests1:   best.metrics.HarvestsPerYear,
		Harvests2:   second.metrics.HarvestsPerYear,
		TotalProfit: best.density*acres1 + second.density*acres2,
	}, true, nil
}
