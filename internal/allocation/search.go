package allocation

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/papapumpkin/acreage/internal/crop"
	"github.com/papapumpkin/acreage/internal/lp"
	"github.com/papapumpkin/acreage/internal/telemetry"
)

// Solver solves one allocation problem. Implementations must honor context
// cancellation; any non-optimal outcome discards the pair.
type Solver interface {
	Solve(ctx context.Context, p lp.Problem) lp.Outcome
}

// Options tune how a search runs without changing its results.
type Options struct {
	Workers      int                // concurrent solves; <= 0 means runtime.NumCPU()
	SolveTimeout time.Duration      // per-pair deadline; 0 disables it
	Telemetry    *telemetry.Emitter // optional per-pair event stream
	RunID        string             // tags telemetry events
}

// Result is the outcome of a search. Solutions are in pair enumeration order.
type Result struct {
	Solutions []Solution
	Pairs     int // unordered pairs in the catalog
	Skipped   int // pairs rejected by the growth-time ceiling
	Discarded int // pairs whose solve was not optimal

	// TelemetryErr is the first event write that failed, if any. Later
	// events are still attempted and the search result is unaffected.
	TelemetryErr error
}

// pairJob is one formulated pair waiting for the solver.
type pairJob struct {
	i, j    int
	problem lp.Problem
}

// Search evaluates every unordered pair of crops in catalog and returns the
// optimal allocations. The catalog is validated first; a malformed crop fails
// the whole search before any solve. Pairs containing a crop above the growth
// ceiling are skipped, and infeasible, unbounded, failed or timed-out solves
// are dropped without failing the run.
func Search(ctx context.Context, catalog crop.Catalog, solver Solver, params Params, opts Options) (Result, error) {
	if err := params.Validate(); err != nil {
		return Result{}, err
	}
	if err := crop.ValidateCatalog(catalog); err != nil {
		return Result{}, fmt.Errorf("search: %w", err)
	}

	metrics := make([]crop.Metrics, len(catalog))
	for i, c := range catalog {
		m, err := crop.DeriveMetrics(c, params.HorizonDays)
		if err != nil {
			return Result{}, fmt.Errorf("search: %w", err)
		}
		metrics[i] = m
	}

	var res Result
	emit := func(evt telemetry.Event) {
		evt.RunID = opts.RunID
		if err := opts.Telemetry.Emit(evt); err != nil && res.TelemetryErr == nil {
			res.TelemetryErr = err
		}
	}
	emit(telemetry.Event{
		Kind: telemetry.KindSearchStart,
		Data: map[string]any{"crops": len(catalog), "params": params},
	})

	var jobs []pairJob
	for i := 0; i < len(catalog); i++ {
		for j := i + 1; j < len(catalog); j++ {
			res.Pairs++
			a, b := catalog[i], catalog[j]
			if !Eligible(a, params.MaxGrowthTime) || !Eligible(b, params.MaxGrowthTime) {
				res.Skipped++
				emit(telemetry.Event{
					Kind: telemetry.KindPairSkipped,
					Pair: pairLabel(a.Name, b.Name),
					Data: map[string]int{"growth_time_1": a.GrowthTime, "growth_time_2": b.GrowthTime},
				})
				continue
			}
			jobs = append(jobs, pairJob{i: i, j: j, problem: Formulate(a, b, metrics[i], metrics[j], params)})
		}
	}

	outcomes, err := solveAll(ctx, solver, jobs, opts)
	if err != nil {
		return Result{}, fmt.Errorf("search: %w", err)
	}

	for k, job := range jobs {
		out := outcomes[k]
		label := job.problem.Name
		switch out.Status {
		case lp.StatusOptimal:
			sol := Solution{
				Crop1:       catalog[job.i].Name,
				Crop2:       catalog[job.j].Name,
				Acres1:      out.Values[0],
				Acres2:      out.Values[1],
				Harvests1:   metrics[job.i].HarvestsPerYear,
				Harvests2:   metrics[job.j].HarvestsPerYear,
				TotalProfit: out.Objective,
			}
			res.Solutions = append(res.Solutions, sol)
			emit(telemetry.Event{Kind: telemetry.KindPairSolved, Pair: label, Data: sol})
		case lp.StatusInfeasible, lp.StatusUnbounded, lp.StatusError:
			res.Discarded++
			emit(telemetry.Event{
				Kind: telemetry.KindPairDiscarded,
				Pair: label,
				Data: map[string]string{"status": out.Status.String(), "reason": out.Reason()},
			})
		}
	}

	emit(telemetry.Event{
		Kind: telemetry.KindSearchDone,
		Data: map[string]int{
			"pairs":     res.Pairs,
			"skipped":   res.Skipped,
			"discarded": res.Discarded,
			"solutions": len(res.Solutions),
		},
	})
	return res, nil
}

// solveAll runs the jobs on a bounded pool. Each worker writes only its own
// slot, so the outcomes need no locking and keep enumeration order.
func solveAll(ctx context.Context, solver Solver, jobs []pairJob, opts Options) ([]lp.Outcome, error) {
	outcomes := make([]lp.Outcome, len(jobs))
	if len(jobs) == 0 {
		return outcomes, nil
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for k := range jobs {
		if ctx.Err() != nil {
			break
		}
		sem <- struct{}{} // block if at worker capacity
		wg.Add(1)
		go func(k int) {
			defer func() {
				<-sem
				wg.Done()
			}()
			outcomes[k] = solveOne(ctx, solver, jobs[k].problem, opts.SolveTimeout)
		}(k)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// solveOne applies the per-pair deadline and turns a solver panic into an
// error outcome.
func solveOne(ctx context.Context, solver Solver, p lp.Problem, timeout time.Duration) (out lp.Outcome) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			out = lp.Failed(fmt.Errorf("solver panic on %s: %v", p.Name, r))
		}
	}()
	out = solver.Solve(ctx, p)
	if out.Status == lp.StatusOptimal && len(out.Values) != len(p.Variables) {
		return lp.Failed(fmt.Errorf("solver returned %d values for %d variables", len(out.Values), len(p.Variables)))
	}
	return out
}
