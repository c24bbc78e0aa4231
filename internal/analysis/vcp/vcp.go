// Package vcp detects volatility contraction patterns in daily OHLCV
// series. A VCP is a sequence of pullbacks from a base high where each
// pullback is shallower than the last, volume dries up as the base
// develops, and price finishes near the pivot (the breakout level).
//
// The pipeline runs in fixed order: swing detection, contraction
// segmentation, signal measurement, validation, scoring, narration.
// Validation and scoring read the same signals independently, so a
// rejected series still carries a meaningful score for ranking.
package vcp

import (
	"errors"
	"fmt"

	"vcpscan/internal/models"
)

// minBars is the shortest series worth analyzing. Below it there is
// not enough structure for even two contractions plus a base.
const minBars = 50

// ErrNilFrame is returned when Analyze is called without data.
var ErrNilFrame = errors.New("nil data frame")

// Result is the complete outcome of one analysis. It is built once
// per call and never mutated afterward, so callers may cache or share
// it freely.
type Result struct {
	IsPattern        bool               `json:"is_pattern"`
	Contractions     []Contraction      `json:"contractions,omitempty"`
	ContractionCount int                `json:"contraction_count"`
	DepthSequence    []float64          `json:"depth_sequence,omitempty"`
	VolumeTrend      float64            `json:"volume_trend"`
	RangeContraction float64            `json:"range_contraction"`
	PivotPrice       *float64           `json:"pivot_price,omitempty"`
	PivotDistancePct float64            `json:"pivot_distance_pct"`
	Score            float64            `json:"score"`
	Components       map[string]float64 `json:"components,omitempty"`
	Diagnostics      []string           `json:"diagnostics"`
}

// Engine runs the detection pipeline with a fixed configuration.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine after validating the configuration.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Analyze runs the full pipeline over a frame. Structural defects in
// the frame surface as errors at frame construction, not here; thin
// or featureless series come back as a normal non-pattern Result so a
// batch scan never aborts on one bad symbol.
func (e *Engine) Analyze(frame *Frame) (*Result, error) {
	if frame == nil {
		return nil, ErrNilFrame
	}
	n := frame.Len()
	if n < minBars {
		return emptyResult(fmt.Sprintf("insufficient history: %d bars (minimum %d)", n, minBars)), nil
	}

	highs := findSwingHighs(frame.High, e.cfg.SwingWindow, e.cfg.MinSwingDistance)
	lows := findSwingLows(frame.Low, e.cfg.SwingWindow, e.cfg.MinSwingDistance)

	windowStart := n - lookbackBars
	if windowStart < 0 {
		windowStart = 0
	}
	base, ok := baseSwingHigh(highs, windowStart)
	if !ok {
		return emptyResult(fmt.Sprintf("no swing highs in the last %d bars", lookbackBars)), nil
	}

	contractions := segmentContractions(frame, base, highs, lows, e.cfg)
	if len(contractions) == 0 {
		return emptyResult(fmt.Sprintf("no pullbacks of at least %.1f%% from the base high", e.cfg.MinDepthPct)), nil
	}

	sig := buildSignals(frame, contractions, e.cfg)
	accepted := validate(sig, e.cfg)
	total, components := score(sig, e.cfg)

	result := &Result{
		IsPattern:        accepted,
		Contractions:     contractions,
		ContractionCount: len(contractions),
		DepthSequence:    sig.depths,
		VolumeTrend:      sig.volumeTrend,
		RangeContraction: sig.rangeContraction,
		PivotDistancePct: sig.pivotDistancePct,
		Score:            total,
		Components:       components,
		Diagnostics:      narrate(sig, e.cfg, accepted, total),
	}
	if sig.hasPivot {
		pivot := sig.pivotPrice
		result.PivotPrice = &pivot
	}
	return result, nil
}

// AnalyzeCandles adapts a candle series to the frame form and runs
// Analyze. Candles are assumed to already be in chronological order.
func (e *Engine) AnalyzeCandles(candles []models.Candle) (*Result, error) {
	return e.Analyze(FrameFromCandles(candles))
}

func emptyResult(diagnostic string) *Result {
	return &Result{
		Diagnostics: []string{diagnostic},
	}
}
