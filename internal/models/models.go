// Package models provides domain models for the scanner application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Candle represents OHLCV data for a time period.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// Stock identifies one instrument in a scan universe.
type Stock struct {
	Symbol   string `json:"symbol" yaml:"symbol"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Exchange string `json:"exchange,omitempty" yaml:"exchange,omitempty"`
}

// Universe is a named list of instruments to scan.
type Universe struct {
	Name   string  `json:"name" yaml:"name"`
	Stocks []Stock `json:"stocks" yaml:"stocks"`
}

// Symbols returns the plain symbol list of the universe.
func (u *Universe) Symbols() []string {
	symbols := make([]string, len(u.Stocks))
	for i, s := range u.Stocks {
		symbols[i] = s.Symbol
	}
	return symbols
}

// ScanRun records one batch scan for persistence.
type ScanRun struct {
	ID         string        `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Universe   string        `json:"universe"`
	Total      int           `json:"total"`
	Matched    int           `json:"matched"`
	MinScore   float64       `json:"min_score"`
	Duration   time.Duration `json:"duration"`
}

// NewScanRun starts a run record for the given universe.
func NewScanRun(universe string, minScore float64) *ScanRun {
	return &ScanRun{
		ID:        uuid.New().String(),
		StartedAt: time.Now().UTC(),
		Universe:  universe,
		MinScore:  minScore,
	}
}

// Finish stamps the end of the run.
func (r *ScanRun) Finish(total, matched int) {
	r.FinishedAt = time.Now().UTC()
	r.Total = total
	r.Matched = matched
	r.Duration = r.FinishedAt.Sub(r.StartedAt)
}
