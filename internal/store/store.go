// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"vcpscan/internal/analysis/vcp"
	"vcpscan/internal/models"
)

// DataStore defines the interface for scan persistence.
type DataStore interface {
	// Scan history
	SaveScanRun(ctx context.Context, run *models.ScanRun, results []ScanResult) error
	GetScanRuns(ctx context.Context, filter RunFilter) ([]models.ScanRun, error)
	GetScanResults(ctx context.Context, filter ResultFilter) ([]ScanResult, error)

	// Lifecycle
	Close() error
}

// ScanResult is one symbol's stored outcome within a scan run.
type ScanResult struct {
	RunID            string            `json:"run_id"`
	Symbol           string            `json:"symbol"`
	IsPattern        bool              `json:"is_pattern"`
	Score            float64           `json:"score"`
	ContractionCount int               `json:"contraction_count"`
	PivotPrice       *float64          `json:"pivot_price,omitempty"`
	PivotDistancePct float64           `json:"pivot_distance_pct"`
	VolumeTrend      float64           `json:"volume_trend"`
	RangeContraction float64           `json:"range_contraction"`
	Contractions     []vcp.Contraction `json:"contractions,omitempty"`
	Diagnostics      []string          `json:"diagnostics,omitempty"`
}

// ResultFromAnalysis builds a storable row from an engine result.
func ResultFromAnalysis(runID, symbol string, res *vcp.Result) ScanResult {
	return ScanResult{
		RunID:            runID,
		Symbol:           symbol,
		IsPattern:        res.IsPattern,
		Score:            res.Score,
		ContractionCount: res.ContractionCount,
		PivotPrice:       res.PivotPrice,
		PivotDistancePct: res.PivotDistancePct,
		VolumeTrend:      res.VolumeTrend,
		RangeContraction: res.RangeContraction,
		Contractions:     res.Contractions,
		Diagnostics:      res.Diagnostics,
	}
}

// RunFilter represents filters for querying scan runs.
type RunFilter struct {
	Universe  string
	StartDate time.Time
	EndDate   time.Time
	Limit     int
}

// ResultFilter represents filters for querying stored scan results.
type ResultFilter struct {
	RunID       string
	Symbol      string
	PatternOnly bool
	MinScore    float64
	Limit       int
}
