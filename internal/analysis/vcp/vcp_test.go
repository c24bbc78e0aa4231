package vcp

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"vcpscan/internal/models"
)

type anchor struct {
	bar   int
	price float64
}

// pathFromAnchors linearly interpolates a closing-price path through
// the given anchors and wraps it in a frame with a fixed half-point
// bar range and the supplied volumes.
func pathFromAnchors(anchors []anchor, n int, volume func(i int) float64) *Frame {
	base := make([]float64, n)
	for k := 0; k < len(anchors)-1; k++ {
		a, b := anchors[k], anchors[k+1]
		for i := a.bar; i <= b.bar && i < n; i++ {
			frac := float64(i-a.bar) / float64(b.bar-a.bar)
			base[i] = a.price + frac*(b.price-a.price)
		}
	}
	for i := anchors[len(anchors)-1].bar; i < n; i++ {
		base[i] = anchors[len(anchors)-1].price
	}

	f := &Frame{
		Open:   make([]float64, n),
		High:   make([]float64, n),
		Low:    make([]float64, n),
		Close:  make([]float64, n),
		Volume: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		f.Open[i] = base[i]
		f.High[i] = base[i] + 0.5
		f.Low[i] = base[i] - 0.5
		f.Close[i] = base[i]
		f.Volume[i] = volume(i)
	}
	return f
}

// vcpFixture is a 120-bar series built to contract: a 30-bar advance
// from 50 to 100, three pullbacks near 20%, 13% and 7% on steadily
// drying volume, then a tight consolidation just under the pivot.
func vcpFixture() *Frame {
	anchors := []anchor{
		{0, 50}, {29, 100},
		{37, 80}, {45, 95},
		{53, 83.6}, {61, 96},
		{69, 90.24}, {77, 95.5},
		{81, 94.8}, {85, 96.2}, {89, 94.9}, {93, 96.1},
		{97, 94.8}, {101, 96.2}, {105, 95.0}, {109, 96.0},
		{113, 94.9}, {117, 96.1}, {119, 96.3},
	}
	return pathFromAnchors(anchors, 120, func(i int) float64 {
		switch {
		case i < 29:
			return 3e6
		case i <= 69:
			return 5e6 - float64(i-29)/40*3.5e6
		default:
			return 1e6
		}
	})
}

func mustEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(DefaultConfig())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return engine
}

func TestAnalyzeNilFrame(t *testing.T) {
	engine := mustEngine(t)
	if _, err := engine.Analyze(nil); !errors.Is(err, ErrNilFrame) {
		t.Errorf("Analyze(nil) error = %v, want ErrNilFrame", err)
	}
}

func TestAnalyzeShortHistory(t *testing.T) {
	engine := mustEngine(t)
	frame := pathFromAnchors([]anchor{{0, 50}, {29, 100}}, 30, func(int) float64 { return 1e6 })

	result, err := engine.Analyze(frame)
	if err != nil {
		t.Fatalf("Analyze() error = %v, want soft result", err)
	}
	if result.IsPattern {
		t.Error("short history flagged as a pattern")
	}
	if result.ContractionCount != 0 {
		t.Errorf("ContractionCount = %d, want 0", result.ContractionCount)
	}
	if len(result.Diagnostics) == 0 {
		t.Error("expected a diagnostic explaining the rejection")
	}
}

func TestAnalyzeMonotonicUptrend(t *testing.T) {
	engine := mustEngine(t)
	frame := pathFromAnchors([]anchor{{0, 50}, {99, 150}}, 100, func(int) float64 { return 1e6 })

	result, err := engine.Analyze(frame)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if result.IsPattern || result.ContractionCount != 0 {
		t.Errorf("monotonic uptrend produced %d contractions, pattern=%v", result.ContractionCount, result.IsPattern)
	}
	if len(result.Diagnostics) == 0 {
		t.Error("expected a diagnostic")
	}
}

func TestAnalyzeShallowPullbacksOnly(t *testing.T) {
	engine := mustEngine(t)
	anchors := []anchor{
		{0, 100}, {8, 102.4}, {11, 100.8}, {19, 103.2}, {22, 101.6},
		{30, 104.0}, {33, 102.4}, {41, 104.8}, {44, 103.2}, {52, 105.6},
		{55, 104.0}, {63, 106.4}, {66, 104.8}, {74, 107.2}, {77, 105.6},
		{85, 108.0}, {88, 106.4}, {96, 108.8}, {99, 107.6},
	}
	frame := pathFromAnchors(anchors, 100, func(int) float64 { return 1e6 })

	result, err := engine.Analyze(frame)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if result.ContractionCount != 0 {
		t.Errorf("ContractionCount = %d, want 0 for sub-threshold pullbacks", result.ContractionCount)
	}
	if result.IsPattern {
		t.Error("shallow pullbacks flagged as a pattern")
	}
}

func TestAnalyzeFixture(t *testing.T) {
	engine := mustEngine(t)
	result, err := engine.Analyze(vcpFixture())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if !result.IsPattern {
		t.Fatalf("fixture not detected as a pattern, diagnostics: %v", result.Diagnostics)
	}
	if result.ContractionCount != 3 {
		t.Fatalf("ContractionCount = %d, want 3", result.ContractionCount)
	}

	wantDepths := []float64{20.90, 12.98, 7.00}
	for i, want := range wantDepths {
		if math.Abs(result.DepthSequence[i]-want) > 0.05 {
			t.Errorf("DepthSequence[%d] = %v, want about %v", i, result.DepthSequence[i], want)
		}
	}

	if result.VolumeTrend > -0.9 {
		t.Errorf("VolumeTrend = %v, want a strong dry-up near -1", result.VolumeTrend)
	}
	if result.RangeContraction < 0.5 {
		t.Errorf("RangeContraction = %v, want at least 0.5", result.RangeContraction)
	}

	if result.PivotPrice == nil {
		t.Fatal("PivotPrice missing")
	}
	if math.Abs(*result.PivotPrice-100.5) > 1e-9 {
		t.Errorf("PivotPrice = %v, want 100.5", *result.PivotPrice)
	}
	if result.PivotDistancePct <= 4 || result.PivotDistancePct >= 5 {
		t.Errorf("PivotDistancePct = %v, want between 4 and 5", result.PivotDistancePct)
	}

	if result.Score <= 60 {
		t.Errorf("Score = %v, want above 60", result.Score)
	}
	if len(result.Components) != 5 {
		t.Errorf("Components has %d entries, want 5", len(result.Components))
	}

	if len(result.Diagnostics) == 0 {
		t.Fatal("expected diagnostics")
	}
	verdict := result.Diagnostics[len(result.Diagnostics)-1]
	if !strings.Contains(verdict, "valid volatility contraction pattern") {
		t.Errorf("verdict = %q, want the acceptance message", verdict)
	}

	// The first leg spans the advance peak down to the first trough.
	first := result.Contractions[0]
	if first.StartIndex != 29 || first.EndIndex != 37 {
		t.Errorf("first leg spans [%d,%d], want [29,37]", first.StartIndex, first.EndIndex)
	}
	if first.DurationBars != 8 {
		t.Errorf("first leg duration = %d, want 8", first.DurationBars)
	}
}

func TestAnalyzeCandlesMatchesFrame(t *testing.T) {
	engine := mustEngine(t)
	frame := vcpFixture()

	candles := make([]models.Candle, frame.Len())
	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range candles {
		candles[i] = models.Candle{
			Timestamp: day.AddDate(0, 0, i),
			Open:      frame.Open[i],
			High:      frame.High[i],
			Low:       frame.Low[i],
			Close:     frame.Close[i],
			Volume:    int64(frame.Volume[i]),
		}
	}

	fromFrame, err := engine.Analyze(frame)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	fromCandles, err := engine.AnalyzeCandles(candles)
	if err != nil {
		t.Fatalf("AnalyzeCandles() error = %v", err)
	}

	if fromFrame.Score != fromCandles.Score || fromFrame.ContractionCount != fromCandles.ContractionCount {
		t.Errorf("candle path diverged: score %v vs %v, count %d vs %d",
			fromFrame.Score, fromCandles.Score, fromFrame.ContractionCount, fromCandles.ContractionCount)
	}
}

func TestScannerGate(t *testing.T) {
	engine := mustEngine(t)

	t.Run("hit above the gate", func(t *testing.T) {
		scanner := NewScanner(engine, 60)
		result, hit, err := scanner.Scan(vcpFixture())
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if !hit {
			t.Errorf("score %v with pattern %v did not clear a gate of 60", result.Score, result.IsPattern)
		}
	})

	t.Run("gated below the threshold", func(t *testing.T) {
		scanner := NewScanner(engine, 99)
		result, hit, err := scanner.Scan(vcpFixture())
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if hit {
			t.Errorf("score %v cleared an impossible gate", result.Score)
		}
		if result == nil || result.ContractionCount == 0 {
			t.Error("gated scan should still return the full result")
		}
	})

	t.Run("non-pattern never hits", func(t *testing.T) {
		scanner := NewScanner(engine, 0)
		frame := pathFromAnchors([]anchor{{0, 50}, {99, 150}}, 100, func(int) float64 { return 1e6 })
		_, hit, err := scanner.Scan(frame)
		if err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		if hit {
			t.Error("monotonic uptrend cleared the gate")
		}
	})
}
