package indicators

import (
	"fmt"

	"vcpscan/internal/models"
)

// SMA calculates Simple Moving Average.
type SMA struct {
	period int
}

// NewSMA creates a new SMA indicator.
func NewSMA(period int) *SMA {
	return &SMA{period: period}
}

func (s *SMA) Name() string {
	return fmt.Sprintf("SMA_%d", s.period)
}

func (s *SMA) Period() int {
	return s.period
}

func (s *SMA) Calculate(candles []models.Candle) ([]float64, error) {
	if s.period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < s.period {
		return nil, ErrInsufficientData
	}

	result := make([]float64, len(candles))
	closes := closePrices(candles)

	for i := s.period - 1; i < len(candles); i++ {
		result[i] = mean(closes[i-s.period+1 : i+1])
	}

	return result, nil
}

// EMA calculates Exponential Moving Average.
type EMA struct {
	period int
}

// NewEMA creates a new EMA indicator.
func NewEMA(period int) *EMA {
	return &EMA{period: period}
}

func (e *EMA) Name() string {
	return fmt.Sprintf("EMA_%d", e.period)
}

func (e *EMA) Period() int {
	return e.period
}

func (e *EMA) Calculate(candles []models.Candle) ([]float64, error) {
	if e.period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < e.period {
		return nil, ErrInsufficientData
	}

	result := make([]float64, len(candles))
	closes := closePrices(candles)
	multiplier := 2.0 / float64(e.period+1)

	// First EMA is SMA
	result[e.period-1] = mean(closes[:e.period])

	for i := e.period; i < len(candles); i++ {
		result[i] = (closes[i]-result[i-1])*multiplier + result[i-1]
	}

	return result, nil
}

// TrendContext summarizes where a series sits inside its longer trend.
// Contraction bases are only worth trading when they form in an
// uptrend, so scan output carries this next to the pattern result.
type TrendContext struct {
	Close           float64 `json:"close"`
	SMA50           float64 `json:"sma_50"`
	SMA200          float64 `json:"sma_200,omitempty"`
	RSI14           float64 `json:"rsi_14"`
	ATR14           float64 `json:"atr_14"`
	High52Week      float64 `json:"high_52wk"`
	Low52Week       float64 `json:"low_52wk"`
	PctFromHigh     float64 `json:"pct_from_52wk_high"`
	PctAboveLow     float64 `json:"pct_above_52wk_low"`
	InUptrend       bool    `json:"in_uptrend"`
}

// yearBars approximates one trading year of daily bars.
const yearBars = 252

// ComputeTrendContext derives the trend summary from the most recent
// bars. Needs at least 50 bars; the 200-day average is reported only
// when the series is long enough, and the uptrend test then falls back
// to the 50-day average alone.
func ComputeTrendContext(candles []models.Candle) (*TrendContext, error) {
	if len(candles) < 50 {
		return nil, ErrInsufficientData
	}

	n := len(candles)
	closes := closePrices(candles)
	latest := closes[n-1]

	sma50Series, err := NewSMA(50).Calculate(candles)
	if err != nil {
		return nil, err
	}
	rsiSeries, err := NewRSI(14).Calculate(candles)
	if err != nil {
		return nil, err
	}
	atrSeries, err := NewATR(14).Calculate(candles)
	if err != nil {
		return nil, err
	}

	ctx := &TrendContext{
		Close: latest,
		SMA50: sma50Series[n-1],
		RSI14: rsiSeries[n-1],
		ATR14: atrSeries[n-1],
	}

	if n >= 200 {
		sma200Series, err := NewSMA(200).Calculate(candles)
		if err != nil {
			return nil, err
		}
		ctx.SMA200 = sma200Series[n-1]
	}

	window := candles
	if n > yearBars {
		window = candles[n-yearBars:]
	}
	ctx.High52Week = highest(highPrices(window))
	ctx.Low52Week = lowest(lowPrices(window))
	if ctx.High52Week > 0 {
		ctx.PctFromHigh = (ctx.High52Week - latest) / ctx.High52Week * 100
	}
	if ctx.Low52Week > 0 {
		ctx.PctAboveLow = (latest - ctx.Low52Week) / ctx.Low52Week * 100
	}

	ctx.InUptrend = latest > ctx.SMA50 && (ctx.SMA200 == 0 || ctx.SMA50 > ctx.SMA200)
	return ctx, nil
}
