package vcp

import (
	"strings"

	apperrors "vcpscan/internal/errors"
	"vcpscan/internal/models"
)

// requiredColumns are the bar fields the pipeline reads. Open is
// accepted but never used by the detector.
var requiredColumns = []string{"high", "low", "close", "volume"}

// Frame is a normalized, fixed-length columnar view over one bar
// series. Columns are resolved case-insensitively once, here, so the
// analyzers downstream never deal with naming. Treat a built Frame as
// read-only.
type Frame struct {
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
}

// NewFrame builds a Frame from named columns. Column names are matched
// case-insensitively. A missing required column or a length mismatch is
// a structural error; there is no soft fallback.
func NewFrame(columns map[string][]float64) (*Frame, error) {
	resolved := make(map[string][]float64, len(columns))
	for name, col := range columns {
		resolved[strings.ToLower(strings.TrimSpace(name))] = col
	}

	for _, name := range requiredColumns {
		if resolved[name] == nil {
			return nil, apperrors.NewMissingColumnError(name, "")
		}
	}

	f := &Frame{
		Open:   resolved["open"],
		High:   resolved["high"],
		Low:    resolved["low"],
		Close:  resolved["close"],
		Volume: resolved["volume"],
	}

	n := len(f.Close)
	if len(f.High) != n || len(f.Low) != n || len(f.Volume) != n || (f.Open != nil && len(f.Open) != n) {
		return nil, apperrors.NewDataError("frame", "", "column lengths disagree", nil)
	}
	return f, nil
}

// FrameFromCandles builds a Frame from a candle series. Candles always
// carry the canonical fields, so this cannot fail structurally.
func FrameFromCandles(candles []models.Candle) *Frame {
	f := &Frame{
		Open:   make([]float64, len(candles)),
		High:   make([]float64, len(candles)),
		Low:    make([]float64, len(candles)),
		Close:  make([]float64, len(candles)),
		Volume: make([]float64, len(candles)),
	}
	for i, c := range candles {
		f.Open[i] = c.Open
		f.High[i] = c.High
		f.Low[i] = c.Low
		f.Close[i] = c.Close
		f.Volume[i] = float64(c.Volume)
	}
	return f
}

// Len returns the number of bars in the frame.
func (f *Frame) Len() int {
	return len(f.Close)
}

// LatestClose returns the last close, or 0 for an empty frame.
func (f *Frame) LatestClose() float64 {
	if len(f.Close) == 0 {
		return 0
	}
	return f.Close[len(f.Close)-1]
}
