// Package integration exercises the scan pipeline end to end: CSV
// fixtures on disk, through loading, detection and screening, down to
// the scan-history store.
package integration

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"vcpscan/internal/analysis/indicators"
	"vcpscan/internal/analysis/screener"
	"vcpscan/internal/analysis/vcp"
	"vcpscan/internal/data"
	"vcpscan/internal/models"
	"vcpscan/internal/store"
)

type anchor struct {
	bar   int
	price float64
}

// pathCloses linearly interpolates a closing-price path through the
// given anchors. The last anchor must land on bar n-1.
func pathCloses(anchors []anchor, n int) []float64 {
	closes := make([]float64, n)
	for i := 0; i < len(anchors)-1; i++ {
		a, b := anchors[i], anchors[i+1]
		span := b.bar - a.bar
		for j := a.bar; j <= b.bar; j++ {
			frac := float64(j-a.bar) / float64(span)
			closes[j] = a.price + (b.price-a.price)*frac
		}
	}
	return closes
}

// vcpCloses is a 120-bar series built to contract: a 30-bar advance
// from 50 to 100, three pullbacks near 20%, 13% and 7%, then a tight
// consolidation just under the pivot.
func vcpCloses() []float64 {
	return pathCloses([]anchor{
		{0, 50}, {29, 100},
		{37, 80}, {45, 95},
		{53, 83.6}, {61, 96},
		{69, 90.24}, {77, 95.5},
		{81, 94.8}, {85, 96.2}, {89, 94.9}, {93, 96.1},
		{97, 94.8}, {101, 96.2}, {105, 95.0}, {109, 96.0},
		{113, 94.9}, {117, 96.1}, {119, 96.3},
	}, 120)
}

// vcpVolume dries up through the base: heavy on the advance, fading
// through the pullbacks, quiet in the final consolidation.
func vcpVolume(i int) float64 {
	switch {
	case i < 29:
		return 3e6
	case i <= 69:
		return 5e6 - float64(i-29)/40*3.5e6
	default:
		return 1e6
	}
}

// flatCloses never swings, so no contractions can form.
func flatCloses(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 50
	}
	return closes
}

// chopCloses widens instead of contracting: a 12% pullback followed by
// a 20% one, then broad oscillation.
func chopCloses() []float64 {
	return pathCloses([]anchor{
		{0, 50}, {29, 100},
		{37, 88}, {45, 97},
		{57, 77}, {69, 94},
		{75, 85}, {81, 93}, {87, 84}, {93, 94},
		{99, 84}, {105, 93}, {111, 84}, {117, 93},
		{119, 90},
	}, 120)
}

// writeBarsCSV writes a daily OHLCV file the way bar exports ship: one
// header row, ascending dates, one row per session.
func writeBarsCSV(t *testing.T, dir, symbol string, closes []float64, volume func(i int) float64) {
	t.Helper()

	var sb strings.Builder
	sb.WriteString("date,open,high,low,close,volume\n")
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		day := start.AddDate(0, 0, i)
		fmt.Fprintf(&sb, "%s,%.2f,%.2f,%.2f,%.2f,%d\n",
			day.Format("2006-01-02"), c, c+0.5, c-0.5, c, int64(volume(i)))
	}

	path := filepath.Join(dir, symbol+".csv")
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		t.Fatalf("Failed to write %s bars: %v", symbol, err)
	}
}

func TestScanPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tmp := t.TempDir()
	barsDir := filepath.Join(tmp, "bars")
	if err := os.MkdirAll(barsDir, 0755); err != nil {
		t.Fatalf("Failed to create bars dir: %v", err)
	}

	// Test 1: Lay down the fixture universe. VCPX carries a textbook
	// base, FLAT and CHOP must not match, NODATA has no file at all.
	writeBarsCSV(t, barsDir, "VCPX", vcpCloses(), vcpVolume)
	writeBarsCSV(t, barsDir, "FLAT", flatCloses(120), func(int) float64 { return 2e6 })
	writeBarsCSV(t, barsDir, "CHOP", chopCloses(), func(int) float64 { return 2e6 })

	universePath := filepath.Join(tmp, "universe.yaml")
	universeYAML := "name: testuni\nsymbols:\n  - vcpx\n  - flat\n  - chop\n  - nodata\n"
	if err := os.WriteFile(universePath, []byte(universeYAML), 0644); err != nil {
		t.Fatalf("Failed to write universe file: %v", err)
	}

	universe, err := data.LoadUniverse(universePath)
	if err != nil {
		t.Fatalf("LoadUniverse() error = %v", err)
	}
	symbols := universe.Symbols()
	if len(symbols) != 4 {
		t.Fatalf("Universe has %d symbols, want 4", len(symbols))
	}
	if symbols[0] != "VCPX" {
		t.Errorf("Symbols not uppercased: got %q", symbols[0])
	}

	// Test 2: Run the screener across the universe with two workers.
	engine, err := vcp.NewEngine(vcp.DefaultConfig())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	scanner := vcp.NewScanner(engine, 60)
	provider := data.NewDirProvider(barsDir)

	var mu sync.Mutex
	lastScanned := 0
	scanCfg := screener.Config{
		Workers: 2,
		Progress: func(scanned, total int) {
			mu.Lock()
			if scanned > lastScanned {
				lastScanned = scanned
			}
			mu.Unlock()
		},
	}

	scr := screener.New(scanner, provider.Candles, scanCfg, zerolog.Nop())
	hits, stats, err := scr.Run(ctx, symbols)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// Test 3: Verify the scan accounting. The missing file fails, the
	// three real symbols analyze, only VCPX clears the gate.
	if stats.Total != 4 {
		t.Errorf("stats.Total = %d, want 4", stats.Total)
	}
	if stats.Analyzed != 3 {
		t.Errorf("stats.Analyzed = %d, want 3", stats.Analyzed)
	}
	if stats.Failed != 1 {
		t.Errorf("stats.Failed = %d, want 1", stats.Failed)
	}
	if stats.Matched != 1 {
		t.Errorf("stats.Matched = %d, want 1", stats.Matched)
	}
	if len(hits) != 1 {
		t.Fatalf("Got %d hits, want 1", len(hits))
	}

	mu.Lock()
	if lastScanned != 4 {
		t.Errorf("Progress reached %d of 4 symbols", lastScanned)
	}
	mu.Unlock()

	// Test 4: Inspect the hit itself.
	hit := hits[0]
	if hit.Symbol != "VCPX" {
		t.Errorf("hit.Symbol = %q, want VCPX", hit.Symbol)
	}
	if !hit.Result.IsPattern {
		t.Errorf("Hit not flagged as a pattern, diagnostics: %v", hit.Result.Diagnostics)
	}
	if hit.Result.Score < 60 {
		t.Errorf("hit.Result.Score = %.1f, want >= 60", hit.Result.Score)
	}
	if hit.Result.ContractionCount != 3 {
		t.Errorf("hit.Result.ContractionCount = %d, want 3", hit.Result.ContractionCount)
	}
	if hit.Result.PivotPrice == nil {
		t.Error("Hit has no pivot price")
	}
	if hit.Trend == nil {
		t.Fatal("Hit has no trend context")
	}
	if !hit.Trend.InUptrend {
		t.Errorf("Trend not flagged as uptrend: close %.2f vs SMA50 %.2f", hit.Trend.Close, hit.Trend.SMA50)
	}

	// Test 5: Persist the run and read it back through both queries.
	st, err := store.NewSQLiteStore(filepath.Join(tmp, "scan.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer st.Close()

	run := models.NewScanRun(universe.Name, scanner.MinScore())
	run.Finish(stats.Total, stats.Matched)

	rows := make([]store.ScanResult, 0, len(hits))
	for _, h := range hits {
		rows = append(rows, store.ResultFromAnalysis(run.ID, h.Symbol, h.Result))
	}
	if err := st.SaveScanRun(ctx, run, rows); err != nil {
		t.Fatalf("SaveScanRun() error = %v", err)
	}

	runs, err := st.GetScanRuns(ctx, store.RunFilter{Universe: "testuni"})
	if err != nil {
		t.Fatalf("GetScanRuns() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("Got %d stored runs, want 1", len(runs))
	}
	if runs[0].ID != run.ID {
		t.Errorf("Stored run ID = %q, want %q", runs[0].ID, run.ID)
	}
	if runs[0].Total != 4 || runs[0].Matched != 1 {
		t.Errorf("Stored run counts = %d/%d, want 4/1", runs[0].Total, runs[0].Matched)
	}

	stored, err := st.GetScanResults(ctx, store.ResultFilter{RunID: run.ID})
	if err != nil {
		t.Fatalf("GetScanResults() error = %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("Got %d stored results, want 1", len(stored))
	}
	if stored[0].Symbol != "VCPX" {
		t.Errorf("Stored symbol = %q, want VCPX", stored[0].Symbol)
	}
	if stored[0].Score != hit.Result.Score {
		t.Errorf("Stored score = %v, want %v", stored[0].Score, hit.Result.Score)
	}
	if stored[0].ContractionCount != hit.Result.ContractionCount {
		t.Errorf("Stored contraction count = %d, want %d", stored[0].ContractionCount, hit.Result.ContractionCount)
	}
	if stored[0].PivotPrice == nil || hit.Result.PivotPrice == nil {
		t.Fatal("Pivot price lost in the round trip")
	}
	if *stored[0].PivotPrice != *hit.Result.PivotPrice {
		t.Errorf("Stored pivot = %v, want %v", *stored[0].PivotPrice, *hit.Result.PivotPrice)
	}

	t.Logf("Scan pipeline test passed: score=%.1f, contractions=%d, %d analyzed, %d failed",
		hit.Result.Score, hit.Result.ContractionCount, stats.Analyzed, stats.Failed)
}

func TestAnalyzeFromCSV(t *testing.T) {
	tmp := t.TempDir()
	writeBarsCSV(t, tmp, "VCPX", vcpCloses(), vcpVolume)

	// Test 1: Load the file and run the engine directly on candles.
	candles, err := data.LoadCSV(filepath.Join(tmp, "VCPX.csv"))
	if err != nil {
		t.Fatalf("LoadCSV() error = %v", err)
	}
	if len(candles) != 120 {
		t.Fatalf("Loaded %d candles, want 120", len(candles))
	}

	engine, err := vcp.NewEngine(vcp.DefaultConfig())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	result, err := engine.AnalyzeCandles(candles)
	if err != nil {
		t.Fatalf("AnalyzeCandles() error = %v", err)
	}

	// Test 2: The fixture must detect, with depths shrinking
	// contraction over contraction and volume drying up.
	if !result.IsPattern {
		t.Fatalf("Fixture not detected, diagnostics: %v", result.Diagnostics)
	}
	for i := 1; i < len(result.DepthSequence); i++ {
		if result.DepthSequence[i] >= result.DepthSequence[i-1] {
			t.Errorf("DepthSequence[%d] = %.2f, not below DepthSequence[%d] = %.2f",
				i, result.DepthSequence[i], i-1, result.DepthSequence[i-1])
		}
	}
	if result.VolumeTrend >= 0 {
		t.Errorf("VolumeTrend = %.2f, want negative on drying volume", result.VolumeTrend)
	}
	if result.PivotPrice == nil {
		t.Fatal("Result has no pivot price")
	}
	if len(result.Diagnostics) == 0 {
		t.Error("Result carries no diagnostics")
	}

	// Test 3: Trend context computed from the same candles.
	trend, err := indicators.ComputeTrendContext(candles)
	if err != nil {
		t.Fatalf("ComputeTrendContext() error = %v", err)
	}
	if trend.Close != candles[len(candles)-1].Close {
		t.Errorf("trend.Close = %v, want %v", trend.Close, candles[len(candles)-1].Close)
	}
	if !trend.InUptrend {
		t.Errorf("Fixture not in uptrend: close %.2f vs SMA50 %.2f", trend.Close, trend.SMA50)
	}
	if math.Abs(trend.High52Week-100.5) > 0.01 {
		t.Errorf("trend.High52Week = %.2f, want 100.50", trend.High52Week)
	}
	if math.Abs(trend.Low52Week-49.5) > 0.01 {
		t.Errorf("trend.Low52Week = %.2f, want 49.50", trend.Low52Week)
	}

	t.Logf("CSV analysis test passed: score=%.1f, pivot=%.2f", result.Score, *result.PivotPrice)
}
