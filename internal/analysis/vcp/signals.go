package vcp

import "math"

// volumeRejectLevel is the hard validation ceiling on the volume
// trend. Rising volume into a base is distribution, not accumulation,
// so it stays a constant rather than a Config knob.
const volumeRejectLevel = 0.3

// signals carries every measured quantity from segmentation through
// validation, scoring, and narration, so the three consumers observe
// the same numbers.
type signals struct {
	contractions     []Contraction
	depths           []float64
	strictDecrease   bool
	volumeTrend      float64
	rangeContraction float64
	pivotPrice       float64
	hasPivot         bool
	pivotDistancePct float64
	latestClose      float64
}

func buildSignals(frame *Frame, contractions []Contraction, cfg Config) signals {
	sig := signals{
		contractions: contractions,
		depths:       make([]float64, 0, len(contractions)),
		latestClose:  frame.LatestClose(),
	}
	for _, c := range contractions {
		sig.depths = append(sig.depths, c.DepthPct)
	}
	sig.strictDecrease = checkDepthProgression(sig.depths, cfg.DepthDecreaseRatio)
	sig.volumeTrend = volumeTrend(contractions)
	sig.rangeContraction = rangeContraction(frame, contractions)
	sig.pivotPrice, sig.hasPivot = locatePivot(contractions)
	if sig.hasPivot {
		sig.pivotDistancePct = pivotDistance(sig.pivotPrice, sig.latestClose)
	}
	return sig
}

// checkDepthProgression reports whether each successive depth is at
// most ratio times the one before it. Vacuously true for fewer than
// two depths.
func checkDepthProgression(depths []float64, ratio float64) bool {
	for i := 1; i < len(depths); i++ {
		if depths[i-1] == 0 {
			return false
		}
		if depths[i]/depths[i-1] > ratio {
			return false
		}
	}
	return true
}

// volumeTrend is the Pearson correlation between contraction ordinal
// (0, 1, 2, ...) and average volume. Negative means volume dried up as
// the base developed. Returns 0 for fewer than two contractions or
// when volume has no variance.
func volumeTrend(contractions []Contraction) float64 {
	if len(contractions) < 2 {
		return 0
	}
	ordinals := make([]float64, len(contractions))
	volumes := make([]float64, len(contractions))
	for i, c := range contractions {
		ordinals[i] = float64(i)
		volumes[i] = c.AvgVolume
	}
	return pearson(ordinals, volumes)
}

func pearson(xs, ys []float64) float64 {
	meanX := mean(xs)
	meanY := mean(ys)

	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	return cov / (math.Sqrt(varX) * math.Sqrt(varY))
}

// rangeContraction compares the bar-range tightness of the last
// contraction against the first, as 1 - last/first clamped at 0. A
// value near 1 means the most recent leg trades in a far tighter band
// than the opening leg.
func rangeContraction(frame *Frame, contractions []Contraction) float64 {
	if len(contractions) < 2 {
		return 0
	}
	first := periodRangePct(frame, contractions[0])
	last := periodRangePct(frame, contractions[len(contractions)-1])
	if first == 0 {
		return 0
	}
	rc := 1 - last/first
	if rc < 0 {
		return 0
	}
	return rc
}

// periodRangePct measures the high-low span across a contraction's
// bars, as a percentage of the span's high. Uses the raw series, not
// just the swing pivots, so intraleg spikes count.
func periodRangePct(frame *Frame, c Contraction) float64 {
	hi := highest(frame.High[c.StartIndex : c.EndIndex+1])
	lo := lowest(frame.Low[c.StartIndex : c.EndIndex+1])
	if hi == 0 {
		return 0
	}
	return (hi - lo) / hi * 100
}

// locatePivot returns the highest contraction-starting high. That is
// the level a breakout has to clear; the all-time high may sit far
// outside the base and would overstate the buy point.
func locatePivot(contractions []Contraction) (float64, bool) {
	if len(contractions) == 0 {
		return 0, false
	}
	pivot := contractions[0].HighPrice
	for _, c := range contractions[1:] {
		if c.HighPrice > pivot {
			pivot = c.HighPrice
		}
	}
	return pivot, true
}

// pivotDistance is signed percent distance from close up to the pivot.
// Positive when price sits below the pivot, negative when it has
// already traded through it.
func pivotDistance(pivot, latestClose float64) float64 {
	if latestClose == 0 {
		return 0
	}
	return (pivot - latestClose) / latestClose * 100
}

// validate applies every structural requirement at once. Failing any
// single check rejects the pattern; the score is computed regardless
// so near misses remain rankable.
func validate(sig signals, cfg Config) bool {
	if len(sig.contractions) < cfg.MinContractions {
		return false
	}
	if sig.depths[0] > cfg.MaxFirstDepthPct {
		return false
	}
	if !sig.strictDecrease {
		last := sig.depths[len(sig.depths)-1]
		if last >= sig.depths[0] {
			return false
		}
	}
	if sig.volumeTrend > volumeRejectLevel {
		return false
	}
	if abs(sig.pivotDistancePct) > cfg.PivotDistanceThreshold {
		return false
	}
	return true
}
