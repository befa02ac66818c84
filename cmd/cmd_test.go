package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/papapumpkin/acreage/internal/allocation"
	"github.com/papapumpkin/acreage/internal/config"
	"github.com/papapumpkin/acreage/internal/crop"
	"github.com/papapumpkin/acreage/internal/export"
	"github.com/papapumpkin/acreage/internal/history"
	"github.com/papapumpkin/acreage/internal/telemetry"
	"github.com/papapumpkin/acreage/internal/ui"
	"github.com/papapumpkin/acreage/internal/watcher"
)

func testConfig() config.Config {
	def := allocation.DefaultParams()
	return config.Config{
		TotalAcres:    def.TotalAcres,
		MaxGrowthTime: def.MaxGrowthTime,
		HorizonDays:   def.HorizonDays,
		MinAllocation: def.MinAllocation,
		TopK:          2,
		Preset:        crop.DefaultPreset,
		SolveTimeout:  config.DefaultSolveTimeout,
	}
}

func quietPrinter() *ui.Printer {
	return ui.NewWriter(io.Discard, false)
}

func TestCommands_Registered(t *testing.T) {
	t.Parallel()

	want := map[string]bool{"search": false, "baseline": false, "catalog": false, "watch": false, "history": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("expected %q subcommand to be registered on rootCmd", name)
		}
	}
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	t.Parallel()

	flags := []string{
		"config", "verbose", "catalog", "preset", "total-acres", "max-growth-time",
		"horizon-days", "min-allocation", "top-k", "workers", "solve-timeout", "telemetry", "history",
	}
	for _, name := range flags {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if rootCmd.PersistentFlags().Lookup(name) == nil {
				t.Errorf("expected persistent flag %q on rootCmd", name)
			}
		})
	}
}

func TestOutputFlags(t *testing.T) {
	t.Parallel()

	for _, c := range []string{"root", "search", "watch"} {
		cmd := rootCmd
		switch c {
		case "search":
			cmd = searchCmd
		case "watch":
			cmd = watchCmd
		}
		for _, name := range []string{"json", "xlsx"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected flag --%s on %s", name, c)
			}
		}
	}
}

func TestSearchOnce_Report(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	run, err := searchOnce(context.Background(), testConfig(), quietPrinter(), &out, outputOptions{})
	if err != nil {
		t.Fatalf("searchOnce: %v", err)
	}
	if run.Result.Pairs != 45 {
		t.Errorf("pairs = %d, want 45", run.Result.Pairs)
	}
	if len(run.Ranked) != 2 {
		t.Fatalf("ranked = %d, want 2", len(run.Ranked))
	}
	if got := run.Ranked[0].Pair(); got != "Cenoura+Pepino" {
		t.Errorf("best pair = %q, want Cenoura+Pepino", got)
	}
	for _, s := range []string{"Top 2 allocations (preset:baseline)", "287,280"} {
		if !strings.Contains(out.String(), s) {
			t.Errorf("report missing %q:\n%s", s, out.String())
		}
	}
	if strings.ContainsRune(out.String(), '—') {
		t.Errorf("report title should use a plain separator:\n%s", out.String())
	}
}

func TestSearchOnce_JSON(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	if _, err := searchOnce(context.Background(), testConfig(), quietPrinter(), &out, outputOptions{JSON: true}); err != nil {
		t.Fatalf("searchOnce: %v", err)
	}
	var doc struct {
		Solutions []struct {
			Rank  int    `json:"rank"`
			Crop1 string `json:"crop1"`
		} `json:"solutions"`
	}
	if err := json.Unmarshal(out.Bytes(), &doc); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, out.String())
	}
	if len(doc.Solutions) != 2 || doc.Solutions[0].Rank != 1 || doc.Solutions[0].Crop1 != "Cenoura" {
		t.Errorf("unexpected JSON report: %+v", doc.Solutions)
	}
}

func TestSearchOnce_RecordsAndExports(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := testConfig()
	cfg.HistoryDB = filepath.Join(dir, "runs.db")
	cfg.TelemetryPath = filepath.Join(dir, "events.jsonl")
	xlsx := filepath.Join(dir, "ranking.xlsx")

	ctx := context.Background()
	run, err := searchOnce(ctx, cfg, quietPrinter(), io.Discard, outputOptions{XLSX: xlsx})
	if err != nil {
		t.Fatalf("searchOnce: %v", err)
	}

	store, err := history.Open(ctx, cfg.HistoryDB)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	defer store.Close()
	stored, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if stored.Catalog != "preset:baseline" || len(stored.Ranked) != 2 || stored.Pairs != 45 {
		t.Errorf("unexpected stored run: %+v", stored)
	}

	f, err := excelize.OpenFile(xlsx)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(export.SheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("xlsx rows = %d, want header + 2", len(rows))
	}

	data, err := os.ReadFile(cfg.TelemetryPath)
	if err != nil {
		t.Fatalf("read telemetry: %v", err)
	}
	kinds := map[string]int{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		var evt telemetry.Event
		if err := json.Unmarshal(sc.Bytes(), &evt); err != nil {
			t.Fatalf("bad telemetry line %q: %v", sc.Text(), err)
		}
		if evt.RunID != run.ID {
			t.Errorf("event run id = %q, want %q", evt.RunID, run.ID)
		}
		kinds[evt.Kind]++
	}
	if kinds[telemetry.KindSearchStart] != 1 || kinds[telemetry.KindSearchDone] != 1 {
		t.Errorf("unexpected telemetry kinds: %v", kinds)
	}
}

func TestSearchOnce_MissingCatalog(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Catalog = filepath.Join(t.TempDir(), "missing.toml")
	if _, err := searchOnce(context.Background(), cfg, quietPrinter(), io.Discard, outputOptions{}); err == nil {
		t.Fatal("expected error for a missing catalog file")
	}
}

func TestWriteCatalog(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	catalog, err := crop.Preset("baseline")
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := writeCatalog(&out, cfg, catalog); err != nil {
		t.Fatalf("writeCatalog: %v", err)
	}
	for _, name := range catalog.Names() {
		if !strings.Contains(out.String(), name) {
			t.Errorf("catalog table missing %q", name)
		}
	}

	bad := crop.Catalog{{Name: "Broken", SpaceRequired: 0, Cost: 1, Yield: 2, GrowthTime: 10}}
	if err := writeCatalog(io.Discard, cfg, bad); err == nil {
		t.Error("expected validation error for a malformed crop")
	}
}

func TestWriteBaseline(t *testing.T) {
	t.Parallel()

	greedy := allocation.Solution{Crop1: "Pepino", Crop2: "Cenoura", Acres1: 99, Acres2: 1, TotalProfit: 100}
	genetic := allocation.Solution{Crop1: "Cenoura", Crop2: "Pepino", Acres1: 10, Acres2: 90, TotalProfit: 140}
	best := []allocation.Solution{{Crop1: "Cenoura", Crop2: "Pepino", Acres1: 1, Acres2: 99, TotalProfit: 150}}
	comps := []comparison{
		{title: "Greedy baseline", label: "greedy", sol: greedy, ok: true},
		{title: "Genetic baseline", label: "genetic", sol: genetic, ok: true},
	}

	var out bytes.Buffer
	writeBaseline(&out, comps, best)
	for _, s := range []string{
		"Greedy baseline",
		"Genetic baseline",
		"Best searched pair",
		"search gain over greedy: 50.00",
		"search gain over genetic: 10.00",
	} {
		if !strings.Contains(out.String(), s) {
			t.Errorf("baseline output missing %q:\n%s", s, out.String())
		}
	}

	out.Reset()
	writeBaseline(&out, []comparison{{title: "Greedy baseline", label: "greedy"}}, nil)
	if strings.Contains(out.String(), "search gain") {
		t.Errorf("gain should be omitted without a comparison allocation:\n%s", out.String())
	}
}

func TestGAOptionsFrom_Defaults(t *testing.T) {
	t.Parallel()

	want := allocation.GAOptions{
		Population:   allocation.DefaultGAPopulation,
		MutationRate: allocation.DefaultGAMutationRate,
		Generations:  allocation.DefaultGAGenerations,
		Seed:         1,
	}
	if got := gaOptionsFrom(baselineCmd); got != want {
		t.Errorf("gaOptionsFrom = %+v, want %+v", got, want)
	}
}

func TestWatchLoop_RerunsOnChange(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "crops.toml")
	doc := "[[crop]]\nname = \"A\"\nspace_required = 1.0\ncost = 1\nyield = 4\ngrowth_time = 100\n" +
		"[[crop]]\nname = \"B\"\nspace_required = 1.0\ncost = 1\nyield = 3\ngrowth_time = 100\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := testConfig()
	cfg.Catalog = path

	changes := make(chan watcher.Change, 2)
	changes <- watcher.Change{Kind: watcher.ChangeModified, File: path}
	changes <- watcher.Change{Kind: watcher.ChangeRemoved, File: path}
	close(changes)

	var out bytes.Buffer
	if err := watchLoop(context.Background(), cfg, quietPrinter(), &out, outputOptions{}, changes); err != nil {
		t.Fatalf("watchLoop: %v", err)
	}
	// Initial run plus one rerun; the removal does not search.
	if got := strings.Count(out.String(), "Top 1 allocations"); got != 2 {
		t.Errorf("searches = %d, want 2:\n%s", got, out.String())
	}
}

func TestWatchLoop_StopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cfg := testConfig()
	changes := make(chan watcher.Change)

	done := make(chan error, 1)
	go func() { done <- watchLoop(ctx, cfg, quietPrinter(), io.Discard, outputOptions{}, changes) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("watchLoop returned %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watchLoop did not stop after cancel")
	}
}

func TestHistoryListAndShow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, err := history.Open(ctx, filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	id, err := store.SaveRun(ctx, history.Run{
		Catalog:   "preset:stress",
		Params:    allocation.DefaultParams(),
		Pairs:     45,
		Skipped:   5,
		Discarded: 1,
		Ranked:    []allocation.Solution{{Crop1: "A", Crop2: "B", Acres1: 99, Acres2: 1, TotalProfit: 10}},
	})
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	var out bytes.Buffer
	if err := listRuns(ctx, store, &out, 10); err != nil {
		t.Fatalf("listRuns: %v", err)
	}
	for _, s := range []string{id, "preset:stress", "39"} {
		if !strings.Contains(out.String(), s) {
			t.Errorf("run list missing %q:\n%s", s, out.String())
		}
	}

	out.Reset()
	if err := showRun(ctx, store, &out, id); err != nil {
		t.Fatalf("showRun: %v", err)
	}
	for _, s := range []string{"45 pair(s), 5 skipped, 1 discarded", "Top 1 allocations"} {
		if !strings.Contains(out.String(), s) {
			t.Errorf("run detail missing %q:\n%s", s, out.String())
		}
	}

	if err := showRun(ctx, store, io.Discard, "missing"); err == nil {
		t.Error("expected error for unknown run id")
	}
}
