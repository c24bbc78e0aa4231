package vcp

import (
	"fmt"
	"strings"
)

// narrate renders the measured signals as reader-facing strings. It
// reports, never decides: acceptance was settled by validate and the
// score by score before this runs.
func narrate(sig signals, cfg Config, accepted bool, total float64) []string {
	diags := make([]string, 0, 8)

	diags = append(diags, fmt.Sprintf("%d contraction(s) found, depths: %s",
		len(sig.contractions), formatDepths(sig.depths)))

	if len(sig.depths) > 0 && sig.depths[0] > cfg.MaxFirstDepthPct {
		diags = append(diags, fmt.Sprintf("first pullback %.1f%% exceeds the %.1f%% ceiling, base too loose",
			sig.depths[0], cfg.MaxFirstDepthPct))
	}

	switch {
	case sig.strictDecrease:
		diags = append(diags, fmt.Sprintf("each pullback within %.0f%% of the prior, clean tightening",
			cfg.DepthDecreaseRatio*100))
	case len(sig.depths) >= 2 && sig.depths[len(sig.depths)-1] < sig.depths[0]:
		diags = append(diags, fmt.Sprintf("tightening is uneven but the last pullback (%.1f%%) is shallower than the first (%.1f%%)",
			sig.depths[len(sig.depths)-1], sig.depths[0]))
	case len(sig.depths) >= 2:
		diags = append(diags, fmt.Sprintf("pullbacks are not getting shallower (first %.1f%%, last %.1f%%)",
			sig.depths[0], sig.depths[len(sig.depths)-1]))
	}

	switch {
	case sig.volumeTrend < cfg.VolumeDryUpThreshold:
		diags = append(diags, fmt.Sprintf("volume dried up across the base (trend %.2f)", sig.volumeTrend))
	case sig.volumeTrend < 0:
		diags = append(diags, fmt.Sprintf("volume easing but not yet dry (trend %.2f)", sig.volumeTrend))
	case sig.volumeTrend > volumeRejectLevel:
		diags = append(diags, fmt.Sprintf("volume rising into the base (trend %.2f), supply still present", sig.volumeTrend))
	default:
		diags = append(diags, fmt.Sprintf("volume trend flat (%.2f)", sig.volumeTrend))
	}

	if sig.rangeContraction >= cfg.RangeContractionThreshold {
		diags = append(diags, fmt.Sprintf("trading range tightened %.0f%% from first to last contraction",
			sig.rangeContraction*100))
	} else {
		diags = append(diags, fmt.Sprintf("trading range tightened only %.0f%%", sig.rangeContraction*100))
	}

	if sig.hasPivot {
		switch {
		case abs(sig.pivotDistancePct) > cfg.PivotDistanceThreshold:
			diags = append(diags, fmt.Sprintf("close is %.1f%% from the %.2f pivot, outside the %.1f%% entry zone",
				abs(sig.pivotDistancePct), sig.pivotPrice, cfg.PivotDistanceThreshold))
		case sig.pivotDistancePct >= 0:
			diags = append(diags, fmt.Sprintf("close sits %.1f%% below the %.2f pivot", sig.pivotDistancePct, sig.pivotPrice))
		default:
			diags = append(diags, fmt.Sprintf("close already %.1f%% above the %.2f pivot", -sig.pivotDistancePct, sig.pivotPrice))
		}
	}

	if accepted {
		diags = append(diags, fmt.Sprintf("valid volatility contraction pattern, score %.1f", total))
	} else {
		diags = append(diags, fmt.Sprintf("pattern rejected, score %.1f", total))
	}

	return diags
}

func formatDepths(depths []float64) string {
	parts := make([]string, len(depths))
	for i, d := range depths {
		parts[i] = fmt.Sprintf("%.1f%%", d)
	}
	return strings.Join(parts, " -> ")
}
