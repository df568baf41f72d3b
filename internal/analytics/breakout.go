package analytics

import "marketpulse/internal/domain"

// breakoutWindow is how many recent candles define the high/low band.
const breakoutWindow = 10

// DetectBreakout compares the current price to the 10-candle high/low band
// plus a noise threshold of one-third the average candle range. It returns
// the broken level and direction, or nil when price is inside the band.
//
// Fewer than 10 candles yields nil (no breakout).
func DetectBreakout(price float64, candles []domain.Candle) *domain.Breakout {
	if len(candles) < breakoutWindow {
		return nil
	}

	window := candles[len(candles)-breakoutWindow:]
	high := window[0].High
	low := window[0].Low
	var rangeSum float64
	for _, c := range window {
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
		rangeSum += c.High - c.Low
	}
	threshold := rangeSum / breakoutWindow / 3

	switch {
	case price > high+threshold:
		return &domain.Breakout{Level: high, Direction: domain.BreakoutResistance}
	case price < low-threshold:
		return &domain.Breakout{Level: low, Direction: domain.BreakoutSupport}
	}
	return nil
}
