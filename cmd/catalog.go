package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/acreage/internal/allocation"
	"github.com/papapumpkin/acreage/internal/config"
	"github.com/papapumpkin/acreage/internal/crop"
	"github.com/papapumpkin/acreage/internal/ui"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Validate a crop catalog and show its derived metrics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if list, _ := cmd.Flags().GetBool("list-presets"); list {
			fmt.Fprintln(out, strings.Join(crop.PresetNames(), "\n"))
			return nil
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		catalog, err := cfg.LoadCatalog()
		if err != nil {
			return err
		}

		if dump, _ := cmd.Flags().GetBool("toml"); dump {
			data, err := catalog.Marshal()
			if err != nil {
				return err
			}
			_, err = out.Write(data)
			return err
		}

		if err := writeCatalog(out, cfg, catalog); err != nil {
			return err
		}
		ui.New(cfg.Verbose).CatalogValid(cfg.CatalogLabel(), len(catalog))
		return nil
	},
}

func init() {
	catalogCmd.Flags().Bool("list-presets", false, "list the built-in catalog presets")
	catalogCmd.Flags().Bool("toml", false, "print the resolved catalog as TOML")
	rootCmd.AddCommand(catalogCmd)
}

// writeCatalog validates catalog and writes its metrics table. Crops above
// the configured growth ceiling are marked ineligible.
func writeCatalog(w io.Writer, cfg config.Config, catalog crop.Catalog) error {
	if err := crop.ValidateCatalog(catalog); err != nil {
		return err
	}
	entries := make([]ui.CatalogEntry, len(catalog))
	for i, c := range catalog {
		m, err := crop.DeriveMetrics(c, cfg.HorizonDays)
		if err != nil {
			return err
		}
		entries[i] = ui.CatalogEntry{
			Profile:  c,
			Metrics:  m,
			Eligible: allocation.Eligible(c, cfg.MaxGrowthTime),
		}
	}
	ui.CatalogTable(w, cfg.CatalogLabel(), entries)
	return nil
}
