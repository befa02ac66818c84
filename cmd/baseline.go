package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/acreage/internal/allocation"
	"github.com/papapumpkin/acreage/internal/config"
	"github.com/papapumpkin/acreage/internal/lp"
	"github.com/papapumpkin/acreage/internal/ui"
)

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Compare the greedy and genetic allocations against the best pair search result",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		printer := ui.New(cfg.Verbose)

		ctx, cancel := setupSignalContext(printer)
		defer cancel()

		catalog, err := cfg.LoadCatalog()
		if err != nil {
			return err
		}
		params := cfg.Params()

		greedy, greedyOK, err := allocation.Greedy(catalog, params)
		if err != nil {
			return err
		}
		genetic, geneticOK, err := allocation.Genetic(catalog, params, gaOptionsFrom(cmd))
		if err != nil {
			return err
		}
		res, err := allocation.Search(ctx, catalog, lp.NewSimplex(lp.DefaultTolerance), params, allocation.Options{
			Workers:      cfg.Workers,
			SolveTimeout: cfg.SolveTimeout,
		})
		if err != nil {
			return err
		}
		writeBaseline(cmd.OutOrStdout(), []comparison{
			{title: "Greedy baseline", label: "greedy", sol: greedy, ok: greedyOK},
			{title: "Genetic baseline", label: "genetic", sol: genetic, ok: geneticOK},
		}, allocation.Rank(res.Solutions, 1))
		return nil
	},
}

func init() {
	f := baselineCmd.Flags()
	f.Int("population", allocation.DefaultGAPopulation, "genetic baseline population size")
	f.Int("generations", allocation.DefaultGAGenerations, "genetic baseline generations")
	f.Float64("mutation-rate", allocation.DefaultGAMutationRate, "genetic baseline mutation probability")
	f.Uint64("seed", 1, "genetic baseline random seed")
	rootCmd.AddCommand(baselineCmd)
}

func gaOptionsFrom(cmd *cobra.Command) allocation.GAOptions {
	population, _ := cmd.Flags().GetInt("population")
	generations, _ := cmd.Flags().GetInt("generations")
	rate, _ := cmd.Flags().GetFloat64("mutation-rate")
	seed, _ := cmd.Flags().GetUint64("seed")
	return allocation.GAOptions{
		Population:   population,
		MutationRate: rate,
		Generations:  generations,
		Seed:         seed,
	}
}

// comparison is one baseline allocation shown beside the searched optimum.
type comparison struct {
	title string
	label string
	sol   allocation.Solution
	ok    bool
}

// writeBaseline prints each comparison allocation, the best searched pair,
// and the profit the search gains over every available comparison.
func writeBaseline(w io.Writer, comps []comparison, best []allocation.Solution) {
	for _, c := range comps {
		ui.Baseline(w, c.title, c.sol, c.ok)
		fmt.Fprintln(w)
	}
	ui.Report(w, "Best searched pair", best)
	if len(best) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, c := range comps {
		if c.ok {
			fmt.Fprintf(w, "search gain over %s: %.2f\n", c.label, best[0].TotalProfit-c.sol.TotalProfit)
		}
	}
}
