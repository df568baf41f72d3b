package domain

// Timeframe is the analysis horizon requested by a consumer. Shorter
// horizons carry less signal, so heuristics are damped harder on them.
type Timeframe string

const (
	Timeframe1m  Timeframe = "1m"
	Timeframe5m  Timeframe = "5m"
	Timeframe15m Timeframe = "15m"
	Timeframe1h  Timeframe = "1h"
	Timeframe4h  Timeframe = "4h"
	Timeframe1d  Timeframe = "1d"
)

// Valid reports whether tf is a supported timeframe.
func (tf Timeframe) Valid() bool {
	switch tf {
	case Timeframe1m, Timeframe5m, Timeframe15m, Timeframe1h, Timeframe4h, Timeframe1d:
		return true
	}
	return false
}

// DampingWeight scales heuristic scores toward neutral. Shorter timeframes
// are damped harder, reflecting lower reliability of the signal.
func (tf Timeframe) DampingWeight() float64 {
	switch tf {
	case Timeframe1m:
		return 0.5
	case Timeframe5m:
		return 0.6
	case Timeframe15m:
		return 0.7
	case Timeframe1h:
		return 0.85
	case Timeframe4h:
		return 0.95
	case Timeframe1d:
		return 1.0
	default:
		return 0.5
	}
}

// ProfitMultiplier scales the volatility-based profit target from 0.5 on the
// shortest timeframe to 1.5 on the longest.
func (tf Timeframe) ProfitMultiplier() float64 {
	switch tf {
	case Timeframe1m:
		return 0.5
	case Timeframe5m:
		return 0.7
	case Timeframe15m:
		return 0.85
	case Timeframe1h:
		return 1.0
	case Timeframe4h:
		return 1.25
	case Timeframe1d:
		return 1.5
	default:
		return 0.5
	}
}
