package allocation

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/papapumpkin/acreage/internal/crop"
)

// ErrInvalidGAOptions indicates genetic search settings outside their range.
var ErrInvalidGAOptions = errors.New("invalid genetic search options")

// Defaults for GAOptions fields left at zero.
const (
	DefaultGAPopulation   = 100
	DefaultGAMutationRate = 0.2
	DefaultGAGenerations  = 150
)

const tournamentSize = 5

// GAOptions tune the genetic baseline. Zero Population, MutationRate and
// Generations take the package defaults. Equal options give equal results.
type GAOptions struct {
	Population   int
	MutationRate float64 // per-child probability in [0, 1]
	Generations  int
	Seed         uint64
}

func (o GAOptions) withDefaults() (GAOptions, error) {
	switch {
	case o.Population < 0:
		return o, fmt.Errorf("%w: population must not be negative, got %d", ErrInvalidGAOptions, o.Population)
	case o.Generations < 0:
		return o, fmt.Errorf("%w: generations must not be negative, got %d", ErrInvalidGAOptions, o.Generations)
	case o.MutationRate < 0 || o.MutationRate > 1:
		return o, fmt.Errorf("%w: mutation rate must be in [0, 1], got %v", ErrInvalidGAOptions, o.MutationRate)
	}
	if o.Population == 0 {
		o.Population = DefaultGAPopulation
	}
	if o.MutationRate == 0 {
		o.MutationRate = DefaultGAMutationRate
	}
	if o.Generations == 0 {
		o.Generations = DefaultGAGenerations
	}
	return o, nil
}

// genome is one candidate allocation: two distinct eligible crops (indexes
// into the eligible slice) and the area given to the first.
type genome struct {
	c1, c2 int
	acres1 float64
}

// gaRun holds the state shared by one genetic search.
type gaRun struct {
	rng      *rand.Rand
	opts     GAOptions
	params   Params
	eligible []scoredCrop
}

// Genetic is a second comparison baseline: an evolutionary search over crop
// pairs and area splits with tournament selection, crossover, mutation and
// elitism. Every candidate keeps both crops at or above MinAllocation and the
// areas summing to TotalAcres, so its profit can never exceed the pair
// search optimum. It reports false when fewer than two crops are eligible.
func Genetic(catalog crop.Catalog, params Params, opts GAOptions) (Solution, bool, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return Solution{}, false, err
	}
	eligible, err := scoreEligible(catalog, params)
	if err != nil {
		return Solution{}, false, fmt.Errorf("genetic: %w", err)
	}
	if len(eligible) < 2 {
		return Solution{}, false, nil
	}

	g := &gaRun{
		rng:      rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
		opts:     opts,
		params:   params,
		eligible: eligible,
	}
	return g.solution(g.evolve()), true, nil
}

func (g *gaRun) evolve() genome {
	pop := make([]genome, g.opts.Population)
	for i := range pop {
		c1, c2 := g.pair()
		pop[i] = genome{c1: c1, c2: c2, acres1: g.clamp(g.lo() + g.rng.Float64()*(g.hi()-g.lo()))}
	}

	best := pop[0]
	bestFit := g.fitness(best)
	fit := make([]float64, len(pop))
	for gen := 0; ; gen++ {
		for i, ind := range pop {
			fit[i] = g.fitness(ind)
			if fit[i] > bestFit {
				best, bestFit = ind, fit[i]
			}
		}
		if gen == g.opts.Generations {
			return best
		}

		next := make([]genome, 0, len(pop))
		next = append(next, best)
		for len(next) < len(pop) {
			child := g.crossover(g.tournament(pop, fit), g.tournament(pop, fit))
			next = append(next, g.mutate(child))
		}
		pop = next
	}
}

func (g *gaRun) tournament(pop []genome, fit []float64) genome {
	winner := g.rng.IntN(len(pop))
	for range tournamentSize - 1 {
		if k := g.rng.IntN(len(pop)); fit[k] > fit[winner] {
			winner = k
		}
	}
	return pop[winner]
}

// crossover either keeps p1's crops with p2's split, or takes one crop from
// a parent, draws a fresh partner and averages the parents' splits.
func (g *gaRun) crossover(p1, p2 genome) genome {
	if g.rng.IntN(2) == 0 {
		return genome{c1: p1.c1, c2: p1.c2, acres1: p2.acres1}
	}
	c1 := p1.c1
	if g.rng.IntN(2) == 1 {
		c1 = p2.c1
	}
	jitter := (g.rng.Float64()*2 - 1) * 0.1 * g.params.TotalAcres
	return genome{c1: c1, c2: g.other(c1), acres1: g.clamp((p1.acres1+p2.acres1)/2 + jitter)}
}

func (g *gaRun) mutate(ind genome) genome {
	if g.rng.Float64() >= g.opts.MutationRate {
		return ind
	}
	switch g.rng.IntN(3) {
	case 0:
		ind.c1 = g.other(ind.c2)
	case 1:
		ind.c2 = g.other(ind.c1)
	default:
		shift := (g.rng.Float64()*2 - 1) * 0.2 * g.params.TotalAcres
		ind.acres1 = g.clamp(ind.acres1 + shift)
	}
	return ind
}

func (g *gaRun) pair() (int, int) {
	c1 := g.rng.IntN(len(g.eligible))
	return c1, g.other(c1)
}

// other draws an eligible crop different from c.
func (g *gaRun) other(c int) int {
	k := g.rng.IntN(len(g.eligible) - 1)
	if k >= c {
		k++
	}
	return k
}

func (g *gaRun) lo() float64 { return g.params.MinAllocation }
func (g *gaRun) hi() float64 { return g.params.TotalAcres - g.params.MinAllocation }

func (g *gaRun) clamp(acres float64) float64 {
	return min(max(acres, g.lo()), g.hi())
}

func (g *gaRun) fitness(ind genome) float64 {
	return g.eligible[ind.c1].density*ind.acres1 + g.eligible[ind.c2].density*(g.params.TotalAcres-ind.acres1)
}

// solution orders the pair by catalog position, matching Search output.
func (g *gaRun) solution(ind genome) Solution {
	a, b := g.eligible[ind.c1], g.eligible[ind.c2]
	acresA, acresB := ind.acres1, g.params.TotalAcres-ind.acres1
	if b.index < a.index {
		a, b = b, a
		acresA, acresB = acresB, acresA
	}
	return Solution{
		Crop1:       a.profile.Name,
		Crop2:       b.profile.Name,
		Acres1:      acresA,
		Acres2:      acresB,
		Harvests1:   a.metrics.HarvestsPerYear,
		Harvests2:   b.metrics.HarvestsPerYear,
		TotalProfit: a.density*acresA + b.density*acresB,
	}
}
