package vcp

// swingPoint is a local price extreme. Swing points live only inside
// segmentation and are never exposed in a Result.
type swingPoint struct {
	index int
	price float64
}

// findSwingHighs returns the bars whose high equals the window maximum
// over window bars on each side, in time order. Candidates closer than
// minDist bars to the previously accepted swing are skipped.
func findSwingHighs(prices []float64, window, minDist int) []swingPoint {
	var swings []swingPoint
	n := len(prices)

	// The window scan is O(n*w). A monotonic deque would reduce it to
	// O(n) should intraday series ever feed the detector.
	for i := window; i < n-window; i++ {
		isHigh := true
		for j := i - window; j <= i+window; j++ {
			if prices[j] > prices[i] {
				isHigh = false
				break
			}
		}
		if !isHigh {
			continue
		}
		if len(swings) > 0 && i-swings[len(swings)-1].index < minDist {
			continue
		}
		swings = append(swings, swingPoint{index: i, price: prices[i]})
	}

	return swings
}

// findSwingLows mirrors findSwingHighs for window minima.
func findSwingLows(prices []float64, window, minDist int) []swingPoint {
	var swings []swingPoint
	n := len(prices)

	for i := window; i < n-window; i++ {
		isLow := true
		for j := i - window; j <= i+window; j++ {
			if prices[j] < prices[i] {
				isLow = false
				break
			}
		}
		if !isLow {
			continue
		}
		if len(swings) > 0 && i-swings[len(swings)-1].index < minDist {
			continue
		}
		swings = append(swings, swingPoint{index: i, price: prices[i]})
	}

	return swings
}
