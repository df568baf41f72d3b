package analytics

import "github.com/markcheno/go-talib"

// RSIPeriod is the classic 14-close lookback.
const RSIPeriod = 14

// RSI computes the relative strength index over the most recent period
// closes using the classic average-gain/average-loss ratio.
//
// Defaults: fewer than period+1 closes yields the neutral 50; a flat or
// all-gain window yields 100 (maximal strength), never a division by zero.
func RSI(closes []float64, period int) float64 {
	if period <= 0 {
		period = RSIPeriod
	}
	if len(closes) < period+1 {
		return 50
	}

	// talib's first emitted value is the simple-average RSI over the initial
	// period; feeding exactly period+1 closes gives the classic formula
	// without Wilder smoothing creeping in from older data.
	window := closes[len(closes)-(period+1):]
	out := talib.Rsi(window, period)
	return Clamp(out[len(out)-1], 0, 100)
}
