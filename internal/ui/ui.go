// Package ui renders acreage's console output: colored status lines on
// stderr and the ranked allocation report.
package ui

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
)

// ANSI color codes.
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	yellow = "\033[33m"
	green  = "\033[32m"
	red    = "\033[31m"
	cyan   = "\033[36m"
)

// Printer writes human-oriented status lines. Debug lines are only written
// when the printer is verbose.
type Printer struct {
	w       io.Writer
	verbose bool
}

// New returns a Printer writing to os.Stderr.
func New(verbose bool) *Printer {
	return NewWriter(os.Stderr, verbose)
}

// NewWriter returns a Printer writing to w.
func NewWriter(w io.Writer, verbose bool) *Printer {
	return &Printer{w: w, verbose: verbose}
}

// Info writes a dimmed informational line.
func (p *Printer) Info(msg string) {
	fmt.Fprintf(p.w, dim+"%s"+reset+"\n", msg)
}

// Debug writes msg only in verbose mode.
func (p *Printer) Debug(msg string) {
	if !p.verbose {
		return
	}
	fmt.Fprintf(p.w, dim+"debug: %s"+reset+"\n", msg)
}

// Warn writes a highlighted warning line.
func (p *Printer) Warn(msg string) {
	fmt.Fprintf(p.w, yellow+bold+"⚠ "+reset+"%s\n", msg)
}

// Error writes an error line.
func (p *Printer) Error(msg string) {
	fmt.Fprintf(p.w, red+bold+"error: "+reset+"%s\n", msg)
}

// SearchSummaryData holds the counts shown after a search completes.
type SearchSummaryData struct {
	Catalog   string
	Crops     int
	Pairs     int
	Skipped   int
	Discarded int
	Feasible  int
	Duration  time.Duration
	RunID     string // empty when history is disabled
}

// SearchSummary writes the one-line outcome of a search followed by the
// skipped and discarded pair counts.
func (p *Printer) SearchSummary(d SearchSummaryData) {
	mark, color := "✓", green
	if d.Feasible == 0 {
		mark, color = "✗", red
	}
	fmt.Fprintf(p.w, color+bold+"%s %s"+reset+" — %d crop(s), %d pair(s), %d feasible "+dim+"(%s)"+reset+"\n",
		mark, d.Catalog, d.Crops, d.Pairs, d.Feasible, d.Duration.Round(time.Millisecond))
	if d.Skipped > 0 {
		fmt.Fprintf(p.w, "  "+dim+"skipped %d pair(s) above the growth-time ceiling"+reset+"\n", d.Skipped)
	}
	if d.Discarded > 0 {
		fmt.Fprintf(p.w, "  "+yellow+"discarded %d pair(s) without an optimal solve"+reset+"\n", d.Discarded)
	}
	if d.RunID != "" {
		fmt.Fprintf(p.w, "  "+cyan+"run"+reset+" %s\n", d.RunID)
	}
}

// CatalogValid reports a catalog that passed validation.
func (p *Printer) CatalogValid(label string, crops int) {
	fmt.Fprintf(p.w, green+bold+"✓ catalog %q"+reset+" — %d crop(s), no errors\n", label, crops)
}

// Watching announces that the watch loop is waiting for changes to file.
func (p *Printer) Watching(file string) {
	fmt.Fprintf(p.w, cyan+"◆ watching"+reset+" %s "+dim+"(ctrl-c to stop)"+reset+"\n", file)
}

// CatalogChanged announces a reload triggered by a change to file.
func (p *Printer) CatalogChanged(file string, at time.Time) {
	fmt.Fprintf(p.w, "\n"+cyan+"◆ catalog changed"+reset+" %s "+dim+"(%s)"+reset+"\n",
		file, at.Format(time.TimeOnly))
}

// profit formats a currency amount with thousands separators.
func profit(v float64) string {
	return humanize.CommafWithDigits(v, 2)
}

// acres formats an area with at most two decimals.
func acres(v float64) string {
	return humanize.FtoaWithDigits(v, 2)
}
