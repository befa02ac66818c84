// Package crop models the crop catalog and the per-crop metrics derived from
// it: how many harvests fit into the annual horizon and how much a unit of
// area produces per year.
package crop

import "fmt"

// DefaultHorizonDays is the annual horizon used to count harvest cycles.
const DefaultHorizonDays = 365

// Profile describes one crop in the catalog. Values are immutable once the
// catalog is loaded.
type Profile struct {
	Name          string  `toml:"name" json:"name"`
	SpaceRequired float64 `toml:"space_required" json:"space_required"` // area units per grown unit
	Cost          float64 `toml:"cost" json:"cost"`                     // per unit per cycle
	Yield         float64 `toml:"yield" json:"yield"`                   // revenue per unit per cycle
	GrowthTime    int     `toml:"growth_time" json:"growth_time"`       // days per cycle
}

// Catalog is an ordered collection of crop profiles. Order matters: pairs are
// enumerated and ties are broken by catalog position.
type Catalog []Profile

// Metrics holds the values derived from a Profile and an annual horizon.
type Metrics struct {
	HarvestsPerYear          int
	UnitsPerArea             float64
	ProductionPerAreaPerYear float64
}

// DeriveMetrics computes harvest cycles per year and production density for p.
// A crop whose growth cycle is longer than the horizon gets zero harvests,
// which zeroes its production without being an error.
func DeriveMetrics(p Profile, horizonDays int) (Metrics, error) {
	if horizonDays <= 0 {
		return Metrics{}, fmt.Errorf("%w: %d", ErrInvalidHorizon, horizonDays)
	}
	if p.SpaceRequired <= 0 {
		return Metrics{}, &ValidationError{Crop: p.label(), Field: "space_required", Err: ErrNonPositive}
	}
	if p.GrowthTime <= 0 {
		return Metrics{}, &ValidationError{Crop: p.label(), Field: "growth_time", Err: ErrNonPositive}
	}

	harvests := horizonDays / p.GrowthTime
	units := 1 / p.SpaceRequired
	return Metrics{
		HarvestsPerYear:          harvests,
		UnitsPerArea:             units,
		ProductionPerAreaPerYear: float64(harvests) * units,
	}, nil
}

// NetDensity returns the net profit per unit of area per year for p given its
// derived metrics: (yield - cost) * production per area per year.
func (p Profile) NetDensity(m Metrics) float64 {
	return (p.Yield - p.Cost) * m.ProductionPerAreaPerYear
}

// Validate checks the profile's fields in isolation.
func (p Profile) Validate() error {
	switch {
	case p.Name == "":
		return &ValidationError{Crop: p.label(), Field: "name", Err: ErrMissingName}
	case p.SpaceRequired <= 0:
		return &ValidationError{Crop: p.Name, Field: "space_required", Err: ErrNonPositive}
	case p.GrowthTime <= 0:
		return &ValidationError{Crop: p.Name, Field: "growth_time", Err: ErrNonPositive}
	case p.Cost < 0:
		return &ValidationError{Crop: p.Name, Field: "cost", Err: ErrNegative}
	case p.Yield < 0:
		return &ValidationError{Crop: p.Name, Field: "yield", Err: ErrNegative}
	}
	return nil
}

func (p Profile) label() string {
	if p.Name == "" {
		return "<unnamed>"
	}
	return p.Name
}

// ValidateCatalog validates every profile and rejects duplicate names. It
// stops at the first problem so the caller can report the offending crop.
func ValidateCatalog(c Catalog) error {
	seen := make(map[string]int, len(c))
	for i, p := range c {
		if p.Name == "" {
			return &ValidationError{Crop: fmt.Sprintf("#%d", i+1), Field: "name", Err: ErrMissingName}
		}
		if err := p.Validate(); err != nil {
			return err
		}
		if first, dup := seen[p.Name]; dup {
			return &ValidationError{
				Crop:  p.Name,
				Field: "name",
				Err:   fmt.Errorf("%w (entries #%d and #%d)", ErrDuplicateName, first+1, i+1),
			}
		}
		seen[p.Name] = i
	}
	return nil
}

// Names returns the crop names in catalog order.
func (c Catalog) Names() []string {
	names := make([]string, len(c))
	for i, p := range c {
		names[i] = p.Name
	}
	return names
}
