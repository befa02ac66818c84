package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papapumpkin/acreage/internal/allocation"
	"github.com/papapumpkin/acreage/internal/config"
	"github.com/papapumpkin/acreage/internal/crop"
	"github.com/papapumpkin/acreage/internal/ui"
)

var rootCmd = &cobra.Command{
	Use:   "acreage",
	Short: "Find the most profitable two-crop land allocations",
	Long: "Acreage evaluates every pair of crops in a catalog, solves a small linear program " +
		"for the most profitable split of the available land, and ranks the pairs by annual profit.",
	SilenceUsage: true,
	RunE:         runSearch,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default .acreage.yaml)")
	pf.BoolP("verbose", "v", false, "verbose output")

	def := allocation.DefaultParams()
	pf.String("catalog", "", "crop catalog TOML file (overrides --preset)")
	pf.String("preset", crop.DefaultPreset, "built-in catalog preset")
	pf.Float64("total-acres", def.TotalAcres, "area that must be fully allocated")
	pf.Int("max-growth-time", def.MaxGrowthTime, "longest eligible growth cycle in days")
	pf.Int("horizon-days", def.HorizonDays, "planning horizon for harvest counts")
	pf.Float64("min-allocation", def.MinAllocation, "minimum area per crop")
	pf.Int("top-k", allocation.DefaultTopK, "number of ranked pairs to report (0 for all)")
	pf.Int("workers", 0, "concurrent pair solves (0 for one per CPU)")
	pf.Duration("solve-timeout", config.DefaultSolveTimeout, "deadline for one pair solve (0 disables)")
	pf.String("telemetry", "", "write per-pair JSONL events to this file")
	pf.String("history", "", "record runs in this SQLite database")

	bindings := map[string]string{
		"verbose":         "verbose",
		"catalog":         "catalog",
		"preset":          "preset",
		"total_acres":     "total-acres",
		"max_growth_time": "max-growth-time",
		"horizon_days":    "horizon-days",
		"min_allocation":  "min-allocation",
		"top_k":           "top-k",
		"workers":         "workers",
		"solve_timeout":   "solve-timeout",
		"telemetry_path":  "telemetry",
		"history_db":      "history",
	}
	for key, flag := range bindings {
		_ = viper.BindPFlag(key, pf.Lookup(flag))
	}

	addOutputFlags(rootCmd)
}

func initConfig() {
	// A missing .env is fine; values may come from the real environment.
	_ = godotenv.Load()

	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".acreage")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("ACREAGE")
	viper.AutomaticEnv()

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}

// setupSignalContext returns a context canceled on SIGINT or SIGTERM.
func setupSignalContext(printer *ui.Printer) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			printer.Info("\nshutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
