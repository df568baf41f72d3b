// Package analytics holds the pure derivation functions that turn raw
// exchange payloads into normalized scores. Every function is total: bad or
// insufficient input yields a documented default, never an error or a panic,
// so callers can invoke them opportunistically as data arrives.
package analytics

import "math"

// LiquidityBounds maps 24h quote volume onto the 0-100 liquidity scale.
// Volume at or below Floor scores 0, at or above Ceiling scores 100.
type LiquidityBounds struct {
	Floor   float64
	Ceiling float64
}

// DefaultLiquidityBounds covers $10K .. $100M of 24h volume.
func DefaultLiquidityBounds() LiquidityBounds {
	return LiquidityBounds{Floor: 10_000, Ceiling: 100_000_000}
}

// Clamp bounds v into [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Volatility derives a 0-100 spread score from the 24h high-low range
// relative to the last price, scaled x5 for visible spread.
// A zero or negative last price yields zero volatility (defined, not an error).
func Volatility(high, low, last float64) float64 {
	if last <= 0 {
		return 0
	}
	return Clamp((high-low)/last*100*5, 0, 100)
}

// Liquidity maps 24h quote volume into 0-100 on a log scale between the
// configured floor and ceiling.
func (b LiquidityBounds) Liquidity(volume float64) float64 {
	if volume <= b.Floor {
		return 0
	}
	if volume >= b.Ceiling {
		return 100
	}
	score := 100 * (math.Log(volume) - math.Log(b.Floor)) / (math.Log(b.Ceiling) - math.Log(b.Floor))
	return Clamp(math.Round(score), 0, 100)
}
