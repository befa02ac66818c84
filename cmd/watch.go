package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/acreage/internal/config"
	"github.com/papapumpkin/acreage/internal/ui"
	"github.com/papapumpkin/acreage/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the search whenever the catalog file changes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if cfg.Catalog == "" {
			return errors.New("watch requires --catalog pointing at a TOML file")
		}
		printer := ui.New(cfg.Verbose)

		ctx, cancel := setupSignalContext(printer)
		defer cancel()

		w, err := watcher.New(cfg.Catalog, watcher.DefaultDebounce)
		if err != nil {
			return fmt.Errorf("creating watcher: %w", err)
		}
		if err := w.Start(); err != nil {
			return fmt.Errorf("watching %s: %w", cfg.Catalog, err)
		}
		defer w.Stop()

		return watchLoop(ctx, cfg, printer, cmd.OutOrStdout(), outputOptionsFrom(cmd), w.Changes)
	},
}

func init() {
	addOutputFlags(watchCmd)
	rootCmd.AddCommand(watchCmd)
}

// watchLoop runs one search immediately and another after every change
// until ctx is canceled or changes is closed. Search errors are reported and
// the loop keeps waiting, since a catalog is often invalid mid-edit.
func watchLoop(ctx context.Context, cfg config.Config, printer *ui.Printer, out io.Writer, opts outputOptions, changes <-chan watcher.Change) error {
	rerun := func() {
		if _, err := searchOnce(ctx, cfg, printer, out, opts); err != nil {
			if ctx.Err() != nil {
				return
			}
			printer.Error(err.Error())
		}
	}

	rerun()
	printer.Watching(cfg.Catalog)
	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			printer.CatalogChanged(change.File, time.Now())
			if change.Kind == watcher.ChangeRemoved {
				printer.Warn("catalog removed; waiting for it to reappear")
				continue
			}
			rerun()
		}
	}
}
