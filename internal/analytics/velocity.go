package analytics

import (
	"math"

	"marketpulse/internal/domain"
)

// trendThreshold is the +-10% magnitude band around the previous velocity
// inside which the trend is considered stable.
const trendThreshold = 0.10

// Velocity derives instantaneous price-change-per-second from the two most
// recent candles and classifies the trend by comparing the magnitude of the
// last two velocities.
//
// Fewer than 3 candles yields {0, stable}.
func Velocity(candles []domain.Candle) (float64, domain.VelocityTrend) {
	if len(candles) < 3 {
		return 0, domain.TrendStable
	}

	c0 := candles[len(candles)-3]
	c1 := candles[len(candles)-2]
	c2 := candles[len(candles)-1]

	prev := velocityBetween(c0, c1)
	curr := velocityBetween(c1, c2)

	trend := domain.TrendStable
	switch {
	case math.Abs(curr) > math.Abs(prev)*(1+trendThreshold):
		trend = domain.TrendAccelerating
	case math.Abs(curr) < math.Abs(prev)*(1-trendThreshold):
		trend = domain.TrendDecelerating
	}
	return curr, trend
}

func velocityBetween(a, b domain.Candle) float64 {
	dt := b.CloseTime.Sub(a.CloseTime).Seconds()
	if dt <= 0 {
		return 0
	}
	return (b.Close - a.Close) / dt
}
