package analytics

import (
	"time"

	"marketpulse/internal/domain"
)

// DeriveFromSnapshot builds a MarketRecord from a 24h ticker snapshot,
// optionally enriched with candle history and a reference-asset series.
//
// Scores that need candles (RSI, correlation, breakout) stay absent when the
// corresponding input is missing; they are never zero-filled. Volume change
// needs a prior snapshot, so the caller supplies it when known.
func DeriveFromSnapshot(snap domain.TickerSnapshot, candles, reference []domain.Candle, volumeChangePct *float64, tf domain.Timeframe, bounds LiquidityBounds, now time.Time) domain.MarketRecord {
	vol := Volatility(snap.HighPrice, snap.LowPrice, snap.LastPrice)
	velocity, trend := Velocity(candles)

	rec := domain.MarketRecord{
		Symbol:              snap.Symbol,
		Price:               snap.LastPrice,
		PriceChangePercent:  snap.PriceChangePercent,
		Volume:              snap.QuoteVolume,
		VolumeChangePercent: volumeChangePct,
		Volatility:          vol,
		Liquidity:           bounds.Liquidity(snap.QuoteVolume),
		Velocity:            velocity,
		VelocityTrend:       trend,
		PumpProbability:     PumpProbability(snap.PriceChangePercent, deref(volumeChangePct), vol, tf),
		ProfitTarget:        ProfitTarget(vol, tf),
		UpdatedAt:           now,
	}

	if len(candles) > 0 {
		rsi := RSI(closesOf(candles), RSIPeriod)
		rec.RSI = &rsi
		rec.Breakout = DetectBreakout(snap.LastPrice, candles)
	}
	if len(candles) > 0 && len(reference) > 0 {
		corr := Correlation(candles, reference)
		rec.Correlation = &corr
	}
	return rec
}

// DeriveFromTick builds a MarketRecord from a single streamed tick using its
// embedded 24h stats. Fields not derivable from one tick (RSI, correlation,
// breakout, market cap, volume change) are left absent.
func DeriveFromTick(tick domain.Tick, tf domain.Timeframe, bounds LiquidityBounds) domain.MarketRecord {
	vol := Volatility(tick.High24h, tick.Low24h, tick.Price)
	at := tick.At
	if at.IsZero() {
		at = time.Now()
	}

	return domain.MarketRecord{
		Symbol:             tick.Symbol,
		Price:              tick.Price,
		PriceChangePercent: tick.ChangePercent,
		Volume:             tick.QuoteVolume24h,
		Volatility:         vol,
		Liquidity:          bounds.Liquidity(tick.QuoteVolume24h),
		Velocity:           0,
		VelocityTrend:      domain.TrendStable,
		PumpProbability:    PumpProbability(tick.ChangePercent, 0, vol, tf),
		ProfitTarget:       ProfitTarget(vol, tf),
		UpdatedAt:          at,
	}
}

func closesOf(candles []domain.Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
