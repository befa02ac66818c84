package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/papapumpkin/acreage/internal/allocation"
	"github.com/papapumpkin/acreage/internal/crop"
)

// Color palette.
var (
	colorPrimary = lipgloss.Color("#00BFFF") // Cyan: headings
	colorSuccess = lipgloss.Color("#00E676") // Green: profit
	colorMuted   = lipgloss.Color("#636363") // Gray: de-emphasized
	colorWhite   = lipgloss.Color("#EEEEEE") // Off-white: primary text
)

// Report styles.
var (
	styleTitle  = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	styleHeader = lipgloss.NewStyle().Bold(true).Foreground(colorWhite).Underline(true)
	styleCell   = lipgloss.NewStyle().Foreground(colorWhite)
	styleMuted  = lipgloss.NewStyle().Foreground(colorMuted)
	styleProfit = lipgloss.NewStyle().Bold(true).Foreground(colorSuccess)
)

// column is one column of a rendered table.
type column struct {
	title string
	width int
	right bool
}

func renderRow(cols []column, cells []string, style lipgloss.Style) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		s := style.Width(c.width)
		if c.right {
			s = s.Align(lipgloss.Right)
		}
		parts[i] = s.Render(cells[i])
	}
	return strings.Join(parts, "  ")
}

func renderHeader(cols []column) string {
	titles := make([]string, len(cols))
	for i, c := range cols {
		titles[i] = c.title
	}
	return renderRow(cols, titles, styleHeader)
}

// widen grows each column to fit the longest cell.
func widen(cols []column, rows [][]string) {
	for i := range cols {
		cols[i].width = max(cols[i].width, lipgloss.Width(cols[i].title))
		for _, r := range rows {
			cols[i].width = max(cols[i].width, lipgloss.Width(r[i]))
		}
	}
}

// Report writes the ranked allocation table to w: for each solution its rank,
// crop names, allocated areas, annual harvest counts and total profit.
func Report(w io.Writer, title string, ranked []allocation.Solution) {
	fmt.Fprintln(w, styleTitle.Render(title))
	if len(ranked) == 0 {
		fmt.Fprintln(w, styleMuted.Render("  no feasible crop pair"))
		return
	}

	cols := []column{
		{title: "#", right: true},
		{title: "Crop 1"},
		{title: "Crop 2"},
		{title: "Acres", right: true},
		{title: "Harvests/yr", right: true},
		{title: "Profit", right: true},
	}
	rows := make([][]string, len(ranked))
	for i, s := range ranked {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			s.Crop1,
			s.Crop2,
			acres(s.Acres1) + " / " + acres(s.Acres2),
			strconv.Itoa(s.Harvests1) + " / " + strconv.Itoa(s.Harvests2),
			profit(s.TotalProfit),
		}
	}
	widen(cols, rows)

	fmt.Fprintln(w, renderHeader(cols))
	last := len(cols) - 1
	for _, r := range rows {
		line := renderRow(cols[:last], r[:last], styleCell)
		p := styleProfit.Width(cols[last].width).Align(lipgloss.Right).Render(r[last])
		fmt.Fprintln(w, line+"  "+p)
	}
}

// Baseline writes a comparison allocation under title, or a note when fewer
// than two crops are eligible.
func Baseline(w io.Writer, title string, s allocation.Solution, ok bool) {
	fmt.Fprintln(w, styleTitle.Render(title))
	if !ok {
		fmt.Fprintln(w, styleMuted.Render("  fewer than two eligible crops"))
		return
	}
	fmt.Fprintf(w, "  %s %s acres, %s harvests/yr\n", styleCell.Render(s.Crop1), acres(s.Acres1), strconv.Itoa(s.Harvests1))
	fmt.Fprintf(w, "  %s %s acres, %s harvests/yr\n", styleCell.Render(s.Crop2), acres(s.Acres2), strconv.Itoa(s.Harvests2))
	fmt.Fprintf(w, "  profit %s\n", styleProfit.Render(profit(s.TotalProfit)))
}

// CatalogEntry pairs a crop with its derived metrics and eligibility.
type CatalogEntry struct {
	Profile  crop.Profile
	Metrics  crop.Metrics
	Eligible bool
}

// CatalogTable writes each crop with its derived metrics and net profit
// density. Crops above the growth-time ceiling are dimmed.
func CatalogTable(w io.Writer, title string, entries []CatalogEntry) {
	fmt.Fprintln(w, styleTitle.Render(title))
	cols := []column{
		{title: "Crop"},
		{title: "Space", right: true},
		{title: "Cost", right: true},
		{title: "Yield", right: true},
		{title: "Growth (d)", right: true},
		{title: "Harvests/yr", right: true},
		{title: "Net/acre/yr", right: true},
	}
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			e.Profile.Name,
			acres(e.Profile.SpaceRequired),
			profit(e.Profile.Cost),
			profit(e.Profile.Yield),
			strconv.Itoa(e.Profile.GrowthTime),
			strconv.Itoa(e.Metrics.HarvestsPerYear),
			profit(e.Profile.NetDensity(e.Metrics)),
		}
	}
	widen(cols, rows)

	fmt.Fprintln(w, renderHeader(cols))
	for i, r := range rows {
		style := styleCell
		if !entries[i].Eligible {
			style = styleMuted
		}
		fmt.Fprintln(w, renderRow(cols, r, style))
	}
}

// jsonReport is the machine-readable form of a ranking.
type jsonReport struct {
	Solutions []jsonSolution `json:"solutions"`
}

type jsonSolution struct {
	Rank int `json:"rank"`
	allocation.Solution
}

// JSON writes ranked as an indented JSON document with 1-based ranks.
func JSON(w io.Writer, ranked []allocation.Solution) error {
	out := jsonReport{Solutions: make([]jsonSolution, len(ranked))}
	for i, s := range ranked {
		out.Solutions[i] = jsonSolution{Rank: i + 1, Solution: s}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

// RunRow is one stored search run as listed by the history command.
type RunRow struct {
	ID        string
	StartedAt time.Time
	Catalog   string
	Pairs     int
	Feasible  int
}

// RunTable lists stored runs, newest first, with their age relative to now.
func RunTable(w io.Writer, rows []RunRow, now time.Time) {
	fmt.Fprintln(w, styleTitle.Render("Stored runs"))
	if len(rows) == 0 {
		fmt.Fprintln(w, styleMuted.Render("  no runs recorded"))
		return
	}
	cols := []column{
		{title: "Run"},
		{title: "Started"},
		{title: "Catalog"},
		{title: "Pairs", right: true},
		{title: "Ranked", right: true},
	}
	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = []string{
			r.ID,
			humanize.RelTime(r.StartedAt, now, "ago", "from now"),
			r.Catalog,
			strconv.Itoa(r.Pairs),
			strconv.Itoa(r.Feasible),
		}
	}
	widen(cols, cells)

	fmt.Fprintln(w, renderHeader(cols))
	for _, c := range cells {
		fmt.Fprintln(w, renderRow(cols, c, styleCell))
	}
}
