package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/acreage/internal/config"
	"github.com/papapumpkin/acreage/internal/history"
	"github.com/papapumpkin/acreage/internal/ui"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List recorded search runs or show one of them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if cfg.HistoryDB == "" {
			return errors.New("history requires --history or history_db in config")
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		store, err := history.Open(ctx, cfg.HistoryDB)
		if err != nil {
			return err
		}
		defer store.Close()

		out := cmd.OutOrStdout()
		if len(args) == 1 {
			return showRun(ctx, store, out, args[0])
		}
		limit, _ := cmd.Flags().GetInt("limit")
		return listRuns(ctx, store, out, limit)
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list (0 for all)")
	rootCmd.AddCommand(historyCmd)
}

func listRuns(ctx context.Context, store *history.Store, w io.Writer, limit int) error {
	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	rows := make([]ui.RunRow, len(runs))
	for i, r := range runs {
		rows[i] = ui.RunRow{
			ID:        r.ID,
			StartedAt: r.StartedAt,
			Catalog:   r.Catalog,
			Pairs:     r.Pairs,
			Feasible:  r.Pairs - r.Skipped - r.Discarded,
		}
	}
	ui.RunTable(w, rows, time.Now())
	return nil
}

func showRun(ctx context.Context, store *history.Store, w io.Writer, id string) error {
	run, err := store.GetRun(ctx, id)
	if err != nil {
		return err
	}
	p := run.Params
	fmt.Fprintf(w, "run %s at %s\n", run.ID, run.StartedAt.Local().Format(time.DateTime))
	fmt.Fprintf(w, "catalog %s, %v acres, growth <= %d days, horizon %d days, min %v acres\n",
		run.Catalog, p.TotalAcres, p.MaxGrowthTime, p.HorizonDays, p.MinAllocation)
	fmt.Fprintf(w, "%d pair(s), %d skipped, %d discarded\n\n", run.Pairs, run.Skipped, run.Discarded)
	ui.Report(w, fmt.Sprintf("Top %d allocations", len(run.Ranked)), run.Ranked)
	return nil
}
