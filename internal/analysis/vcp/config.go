package vcp

import (
	"math"

	apperrors "vcpscan/internal/errors"
)

// Config tunes the detector. Build one (usually from DefaultConfig),
// validate it, and share it freely: the engine never mutates it, so a
// single Config may serve any number of concurrent analyses.
type Config struct {
	// MinContractions is the smallest pullback count that can still be
	// called a pattern.
	MinContractions int
	// MaxContractions caps how many pullbacks the segmenter tracks.
	MaxContractions int
	// MinDepthPct is the shallowest pullback counted as a contraction.
	MinDepthPct float64
	// MaxFirstDepthPct rejects bases that start with a crash rather
	// than a pullback.
	MaxFirstDepthPct float64
	// DepthDecreaseRatio is the per-step tolerance: each depth must be
	// at most this fraction of its predecessor to count as strict.
	DepthDecreaseRatio float64
	// SwingWindow is the number of bars on each side of a candidate
	// extremum.
	SwingWindow int
	// MinSwingDistance is the minimum bar spacing between accepted
	// swings of the same kind.
	MinSwingDistance int
	// VolumeDryUpThreshold is the correlation below which the volume
	// term earns full credit.
	VolumeDryUpThreshold float64
	// RangeContractionThreshold is the range-shrink fraction needed for
	// full range credit.
	RangeContractionThreshold float64
	// PivotDistanceThreshold is the percent band around the pivot
	// considered near enough to act on.
	PivotDistanceThreshold float64
	// Weights splits the 100-point score across the five signals.
	Weights Weights
}

// Weights holds the five scoring weights. They must sum to 100.
type Weights struct {
	Contractions     float64
	DepthProgression float64
	VolumeDryUp      float64
	RangeTightening  float64
	PivotProximity   float64
}

// Sum returns the combined weight.
func (w Weights) Sum() float64 {
	return w.Contractions + w.DepthProgression + w.VolumeDryUp + w.RangeTightening + w.PivotProximity
}

// DefaultWeights returns the standard 25/25/20/15/15 split.
func DefaultWeights() Weights {
	return Weights{
		Contractions:     25,
		DepthProgression: 25,
		VolumeDryUp:      20,
		RangeTightening:  15,
		PivotProximity:   15,
	}
}

// DefaultConfig returns the standard detector tuning.
func DefaultConfig() Config {
	return Config{
		MinContractions:           2,
		MaxContractions:           5,
		MinDepthPct:               3.0,
		MaxFirstDepthPct:          35.0,
		DepthDecreaseRatio:        0.7,
		SwingWindow:               5,
		MinSwingDistance:          3,
		VolumeDryUpThreshold:      -0.2,
		RangeContractionThreshold: 0.5,
		PivotDistanceThreshold:    5.0,
		Weights:                   DefaultWeights(),
	}
}

// Validate checks the configuration for values the pipeline cannot work
// with.
func (c Config) Validate() error {
	if c.MinContractions < 1 {
		return apperrors.NewValidationError("min_contractions", c.MinContractions, "must be at least 1")
	}
	if c.MaxContractions < c.MinContractions {
		return apperrors.NewValidationError("max_contractions", c.MaxContractions, "must be >= min_contractions")
	}
	if c.MinDepthPct <= 0 || c.MinDepthPct >= 100 {
		return apperrors.NewValidationError("min_depth_pct", c.MinDepthPct, "must be in (0, 100)")
	}
	if c.MaxFirstDepthPct < c.MinDepthPct {
		return apperrors.NewValidationError("max_first_depth_pct", c.MaxFirstDepthPct, "must be >= min_depth_pct")
	}
	if c.DepthDecreaseRatio <= 0 || c.DepthDecreaseRatio > 1 {
		return apperrors.NewValidationError("depth_decrease_ratio", c.DepthDecreaseRatio, "must be in (0, 1]")
	}
	if c.SwingWindow < 1 {
		return apperrors.NewValidationError("swing_window", c.SwingWindow, "must be at least 1")
	}
	if c.MinSwingDistance < 1 {
		return apperrors.NewValidationError("min_swing_distance", c.MinSwingDistance, "must be at least 1")
	}
	if c.RangeContractionThreshold <= 0 || c.RangeContractionThreshold > 1 {
		return apperrors.NewValidationError("range_contraction_threshold", c.RangeContractionThreshold, "must be in (0, 1]")
	}
	if c.PivotDistanceThreshold <= 0 {
		return apperrors.NewValidationError("pivot_distance_threshold", c.PivotDistanceThreshold, "must be positive")
	}
	if math.Abs(c.Weights.Sum()-100) > 1e-6 {
		return apperrors.NewValidationError("weights", c.Weights.Sum(), "must sum to 100")
	}
	return nil
}
