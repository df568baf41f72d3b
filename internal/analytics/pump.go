package analytics

import (
	"math"

	"marketpulse/internal/domain"
)

// PumpProbability is an additive heuristic score: it starts at 50, is
// adjusted by bucketed thresholds on recent price change, volume change and
// volatility, damped toward 50 by the timeframe's reliability weight, then
// clamped to 0-100.
//
// This is explicitly a weighted heuristic, not a calibrated probability.
// Consumers must not over-interpret it.
func PumpProbability(priceChangePct, volumeChangePct, volatility float64, tf domain.Timeframe) float64 {
	score := 50.0

	switch {
	case priceChangePct > 20:
		score += 15
	case priceChangePct > 10:
		score += 10
	case priceChangePct > 5:
		score += 5
	case priceChangePct < -10:
		score -= 15
	case priceChangePct < -5:
		score -= 10
	case priceChangePct < 0:
		score -= 5
	}

	switch {
	case volumeChangePct > 100:
		score += 20
	case volumeChangePct > 50:
		score += 12
	case volumeChangePct > 20:
		score += 6
	case volumeChangePct < -50:
		score -= 10
	case volumeChangePct < -20:
		score -= 5
	}

	switch {
	case volatility > 80:
		score += 10
	case volatility > 60:
		score += 6
	case volatility > 40:
		score += 3
	}

	// Damp toward neutral: short timeframes carry less signal.
	score = 50 + (score-50)*tf.DampingWeight()
	return Clamp(score, 0, 100)
}

// ProfitTarget derives a volatility-proportional target in percent,
// scaled by the timeframe multiplier and clamped into 1-30.
func ProfitTarget(volatility float64, tf domain.Timeframe) float64 {
	return Clamp(math.Round(volatility/10*tf.ProfitMultiplier()), 1, 30)
}
