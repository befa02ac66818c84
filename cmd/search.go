package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/papapumpkin/acreage/internal/allocation"
	"github.com/papapumpkin/acreage/internal/config"
	"github.com/papapumpkin/acreage/internal/export"
	"github.com/papapumpkin/acreage/internal/history"
	"github.com/papapumpkin/acreage/internal/lp"
	"github.com/papapumpkin/acreage/internal/telemetry"
	"github.com/papapumpkin/acreage/internal/ui"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Rank crop pairs by the profit of their optimal land split",
	Args:  cobra.NoArgs,
	RunE:  runSearch,
}

func init() {
	addOutputFlags(searchCmd)
	rootCmd.AddCommand(searchCmd)
}

// addOutputFlags registers the report format flags shared by search-like
// commands.
func addOutputFlags(c *cobra.Command) {
	c.Flags().Bool("json", false, "write the ranking as JSON to stdout")
	c.Flags().String("xlsx", "", "also write the ranking to this spreadsheet")
}

// outputOptions selects how a ranking is written.
type outputOptions struct {
	JSON bool
	XLSX string
}

func outputOptionsFrom(cmd *cobra.Command) outputOptions {
	var o outputOptions
	o.JSON, _ = cmd.Flags().GetBool("json")
	o.XLSX, _ = cmd.Flags().GetString("xlsx")
	return o
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	printer := ui.New(cfg.Verbose)

	ctx, cancel := setupSignalContext(printer)
	defer cancel()

	_, err = searchOnce(ctx, cfg, printer, cmd.OutOrStdout(), outputOptionsFrom(cmd))
	return err
}

// searchRun is the ranked result of one search plus the ID it was recorded
// under.
type searchRun struct {
	ID     string
	Result allocation.Result
	Ranked []allocation.Solution
}

// searchOnce loads the configured catalog, runs the pair search, writes the
// report to out and, when configured, records the run and exports it.
func searchOnce(ctx context.Context, cfg config.Config, printer *ui.Printer, out io.Writer, opts outputOptions) (searchRun, error) {
	catalog, err := cfg.LoadCatalog()
	if err != nil {
		return searchRun{}, err
	}
	printer.Debug(fmt.Sprintf("catalog %s: %d crop(s)", cfg.CatalogLabel(), len(catalog)))

	emitter, err := openTelemetry(cfg.TelemetryPath)
	if err != nil {
		return searchRun{}, err
	}
	defer emitter.Close()

	run := searchRun{ID: uuid.NewString()}
	started := time.Now()
	res, err := allocation.Search(ctx, catalog, lp.NewSimplex(lp.DefaultTolerance), cfg.Params(), allocation.Options{
		Workers:      cfg.Workers,
		SolveTimeout: cfg.SolveTimeout,
		Telemetry:    emitter,
		RunID:        run.ID,
	})
	if err != nil {
		return searchRun{}, err
	}
	run.Result = res
	if res.TelemetryErr != nil {
		printer.Warn(fmt.Sprintf("telemetry incomplete: %v", res.TelemetryErr))
	}
	run.Ranked = allocation.Rank(res.Solutions, cfg.TopK)
	elapsed := time.Since(started)

	summary := ui.SearchSummaryData{
		Catalog:   cfg.CatalogLabel(),
		Crops:     len(catalog),
		Pairs:     res.Pairs,
		Skipped:   res.Skipped,
		Discarded: res.Discarded,
		Feasible:  len(res.Solutions),
		Duration:  elapsed,
	}

	if cfg.HistoryDB != "" {
		if err := recordRun(ctx, cfg, run, started); err != nil {
			return searchRun{}, err
		}
		summary.RunID = run.ID
	}
	printer.SearchSummary(summary)

	if opts.JSON {
		if err := ui.JSON(out, run.Ranked); err != nil {
			return searchRun{}, err
		}
	} else {
		ui.Report(out, reportTitle(len(run.Ranked), cfg.CatalogLabel()), run.Ranked)
	}

	if opts.XLSX != "" {
		if err := export.WriteXLSX(opts.XLSX, cfg.CatalogLabel(), run.Ranked); err != nil {
			return searchRun{}, err
		}
		printer.Info("wrote " + opts.XLSX)
	}
	return run, nil
}

// reportTitle labels the ranked table with its size and catalog source.
func reportTitle(n int, catalog string) string {
	return fmt.Sprintf("Top %d allocations (%s)", n, catalog)
}

// openTelemetry returns a JSONL emitter for path, or a nil emitter (which
// discards events) when path is empty.
func openTelemetry(path string) (*telemetry.Emitter, error) {
	if path == "" {
		return nil, nil
	}
	return telemetry.NewEmitter(path)
}

func recordRun(ctx context.Context, cfg config.Config, run searchRun, started time.Time) error {
	store, err := history.Open(ctx, cfg.HistoryDB)
	if err != nil {
		return err
	}
	defer store.Close()

	_, err = store.SaveRun(ctx, history.Run{
		ID:        run.ID,
		StartedAt: started,
		Catalog:   cfg.CatalogLabel(),
		Params:    cfg.Params(),
		Pairs:     run.Result.Pairs,
		Skipped:   run.Result.Skipped,
		Discarded: run.Result.Discarded,
		Ranked:    run.Ranked,
	})
	return err
}
