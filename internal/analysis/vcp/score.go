package vcp

// Component keys in Result.Components. Each maps to one weighted term
// of the composite score.
const (
	ComponentContractions = "contractions"
	ComponentDepth        = "depth_progression"
	ComponentVolume       = "volume_dryup"
	ComponentRange        = "range_tightening"
	ComponentPivot        = "pivot_proximity"
)

// score converts measured signals into a 0-100 composite plus the
// per-component breakdown. Scoring is independent of validation: a
// rejected pattern still gets a score so scan output can rank near
// misses.
func score(sig signals, cfg Config) (float64, map[string]float64) {
	components := make(map[string]float64, 5)

	count := float64(len(sig.contractions))
	if count > 4 {
		count = 4
	}
	components[ComponentContractions] = count / 4 * cfg.Weights.Contractions

	components[ComponentDepth] = depthTerm(sig, cfg.Weights.DepthProgression)
	components[ComponentVolume] = volumeTerm(sig.volumeTrend, cfg)
	components[ComponentRange] = rangeTerm(sig.rangeContraction, cfg)
	components[ComponentPivot] = pivotTerm(sig, cfg)

	var total float64
	for _, v := range components {
		total += v
	}
	return clamp(total, 0, 100), components
}

func depthTerm(sig signals, weight float64) float64 {
	if len(sig.depths) == 0 {
		return 0
	}
	if sig.strictDecrease {
		return weight
	}
	first := sig.depths[0]
	last := sig.depths[len(sig.depths)-1]
	if first > 0 && last < first {
		return weight * (1 - last/first)
	}
	return 0
}

// volumeTerm rewards drying volume. Past the dry-up threshold the full
// weight is earned; milder negative trends earn proportionally; a
// rising trend is penalized steeply until the term hits zero.
func volumeTerm(vt float64, cfg Config) float64 {
	weight := cfg.Weights.VolumeDryUp
	switch {
	case vt < cfg.VolumeDryUpThreshold:
		return weight
	case vt < 0:
		return weight * abs(vt)
	default:
		return clamp(weight-vt*10, 0, weight)
	}
}

func rangeTerm(rc float64, cfg Config) float64 {
	weight := cfg.Weights.RangeTightening
	if rc >= cfg.RangeContractionThreshold {
		return weight
	}
	return weight * rc / cfg.RangeContractionThreshold
}

// pivotTerm decays linearly with distance from the pivot and is zero
// at or beyond the distance threshold, on either side.
func pivotTerm(sig signals, cfg Config) float64 {
	if !sig.hasPivot {
		return 0
	}
	weight := cfg.Weights.PivotProximity
	return clamp(weight*(1-abs(sig.pivotDistancePct)/cfg.PivotDistanceThreshold), 0, weight)
}
