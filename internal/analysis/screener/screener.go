// Package screener fans the pattern engine out across a symbol
// universe with a bounded worker pool. One bad symbol never aborts a
// run; failures are counted and the scan moves on.
package screener

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"vcpscan/internal/analysis/indicators"
	"vcpscan/internal/analysis/vcp"
	apperrors "vcpscan/internal/errors"
	"vcpscan/internal/logging"
	"vcpscan/internal/models"
)

// CandleProvider supplies the bar history for a symbol.
type CandleProvider func(ctx context.Context, symbol string) ([]models.Candle, error)

// ProgressCallback is invoked after each symbol completes, from
// whichever worker finished it.
type ProgressCallback func(scanned, total int)

// Hit is one symbol that cleared the scanner gate.
type Hit struct {
	Symbol string                   `json:"symbol"`
	Result *vcp.Result              `json:"result"`
	Trend  *indicators.TrendContext `json:"trend,omitempty"`
}

// Stats summarizes a completed run.
type Stats struct {
	Total    int           `json:"total"`
	Analyzed int           `json:"analyzed"`
	Matched  int           `json:"matched"`
	Failed   int           `json:"failed"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Config tunes a screener run.
type Config struct {
	// Workers bounds concurrent symbol analyses. Zero or negative
	// falls back to 4.
	Workers int
	// RequireUptrend drops hits whose longer trend is not up.
	RequireUptrend bool
	// Progress, when set, receives completion ticks.
	Progress ProgressCallback
}

// Screener runs one vcp.Scanner across many symbols.
type Screener struct {
	scanner        *vcp.Scanner
	provider       CandleProvider
	workers        int
	requireUptrend bool
	progress       ProgressCallback
	logger         zerolog.Logger
}

// New creates a screener around a scanner and a candle source.
func New(scanner *vcp.Scanner, provider CandleProvider, cfg Config, logger zerolog.Logger) *Screener {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	return &Screener{
		scanner:        scanner,
		provider:       provider,
		workers:        workers,
		requireUptrend: cfg.RequireUptrend,
		progress:       cfg.Progress,
		logger:         logging.WithOperation(logger, "scan"),
	}
}

type symbolOutcome struct {
	hit      *Hit
	analyzed bool
	failed   bool
}

// Run scans every symbol and returns the hits sorted by score, best
// first. Cancellation returns the hits collected so far along with the
// context's error.
func (s *Screener) Run(ctx context.Context, symbols []string) ([]Hit, Stats, error) {
	if len(symbols) == 0 {
		return nil, Stats{}, apperrors.ErrUniverseEmpty
	}

	start := time.Now()
	total := len(symbols)

	workChan := make(chan string, total)
	resultChan := make(chan symbolOutcome, total)

	var scanned int64
	var wg sync.WaitGroup

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range workChan {
				select {
				case <-ctx.Done():
					return
				default:
					resultChan <- s.scanSymbol(ctx, symbol)
					done := atomic.AddInt64(&scanned, 1)
					if s.progress != nil {
						s.progress(int(done), total)
					}
				}
			}
		}()
	}

	go func() {
		for _, symbol := range symbols {
			select {
			case <-ctx.Done():
				close(workChan)
				return
			case workChan <- symbol:
			}
		}
		close(workChan)
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var hits []Hit
	stats := Stats{Total: total}
	for outcome := range resultChan {
		if outcome.failed {
			stats.Failed++
			continue
		}
		if outcome.analyzed {
			stats.Analyzed++
		}
		if outcome.hit != nil {
			hits = append(hits, *outcome.hit)
		}
	}
	stats.Matched = len(hits)
	stats.Elapsed = time.Since(start)

	sort.Slice(hits, func(i, j int) bool {
		return hits[i].Result.Score > hits[j].Result.Score
	})

	return hits, stats, ctx.Err()
}

func (s *Screener) scanSymbol(ctx context.Context, symbol string) symbolOutcome {
	logger := logging.WithSymbol(s.logger, symbol)

	candles, err := s.provider(ctx, symbol)
	if err != nil {
		logger.Debug().Err(err).Msg("Candle load failed")
		return symbolOutcome{failed: true}
	}

	result, matched, err := s.scanner.Scan(vcp.FrameFromCandles(candles))
	if err != nil {
		logger.Debug().Err(err).Msg("Analysis failed")
		return symbolOutcome{failed: true}
	}
	if !matched {
		return symbolOutcome{analyzed: true}
	}

	hit := &Hit{Symbol: symbol, Result: result}
	if trend, err := indicators.ComputeTrendContext(candles); err == nil {
		hit.Trend = trend
		if s.requireUptrend && !trend.InUptrend {
			logger.Debug().Msg("Hit dropped, not in uptrend")
			return symbolOutcome{analyzed: true}
		}
	} else if s.requireUptrend {
		return symbolOutcome{analyzed: true}
	}

	pivot := 0.0
	if result.PivotPrice != nil {
		pivot = *result.PivotPrice
	}
	logging.LogPatternHit(logger, symbol, result.Score, result.ContractionCount, pivot)

	return symbolOutcome{analyzed: true, hit: hit}
}
