package vcp

// lookbackBars bounds how far back the segmenter looks for the base
// high. Older structure is stale for breakout timing.
const lookbackBars = 120

// Contraction is one pullback leg, from a reference swing high down to
// a subsequent swing low. Values are fixed at construction; legs are
// emitted in time order and never overlap.
type Contraction struct {
	StartIndex   int     `json:"start_index"`
	EndIndex     int     `json:"end_index"`
	HighPrice    float64 `json:"high_price"`
	LowPrice     float64 `json:"low_price"`
	DepthPct     float64 `json:"depth_pct"`
	DurationBars int     `json:"duration_bars"`
	AvgVolume    float64 `json:"avg_volume"`
}

// baseSwingHigh picks the highest-priced swing high at or after
// windowStart. Returns false when the window holds no swing highs.
func baseSwingHigh(highs []swingPoint, windowStart int) (swingPoint, bool) {
	base := swingPoint{index: -1}
	for _, sp := range highs {
		if sp.index < windowStart {
			continue
		}
		if base.index == -1 || sp.price > base.price {
			base = sp
		}
	}
	return base, base.index != -1
}

// segmentContractions walks swing lows forward from the base high,
// emitting one Contraction per pullback of at least MinDepthPct. After
// each emit the reference advances to the first later swing high that
// cleared the just-used low, so a failed bounce cannot freeze the walk.
func segmentContractions(frame *Frame, base swingPoint, highs, lows []swingPoint, cfg Config) []Contraction {
	var contractions []Contraction
	refHigh := base

	for _, low := range lows {
		if len(contractions) >= cfg.MaxContractions {
			break
		}
		if low.index <= refHigh.index {
			continue
		}

		depth := (refHigh.price - low.price) / refHigh.price * 100
		if depth < cfg.MinDepthPct {
			continue
		}

		contractions = append(contractions, Contraction{
			StartIndex:   refHigh.index,
			EndIndex:     low.index,
			HighPrice:    refHigh.price,
			LowPrice:     low.price,
			DepthPct:     depth,
			DurationBars: low.index - refHigh.index,
			AvgVolume:    mean(frame.Volume[refHigh.index : low.index+1]),
		})

		// Lookahead over swing highs is quadratic in the worst case,
		// but daily series keep the swing count in the tens.
		advanced := false
		for _, h := range highs {
			if h.index > low.index && h.price > low.price {
				refHigh = h
				advanced = true
				break
			}
		}
		if !advanced {
			break
		}
	}

	return contractions
}
