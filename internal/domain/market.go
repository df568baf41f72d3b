package domain

import "time"

// Symbol represents tradable pair metadata from the exchange.
// Immutable once fetched; the whole set is replaced on each metadata pull.
type Symbol struct {
	Symbol         string `json:"symbol"`     // Pair name (e.g., "BTCUSDT")
	BaseAsset      string `json:"base_asset"` // "BTC"
	QuoteAsset     string `json:"quote_asset"`
	TradingEnabled bool   `json:"trading_enabled"`
}

// TickerSnapshot is a point-in-time 24h rolling window view of one pair.
// Superseded by the next fetch or tick.
type TickerSnapshot struct {
	Symbol             string  `json:"symbol"`
	LastPrice          float64 `json:"last_price"`
	PriceChangePercent float64 `json:"price_change_percent"` // 24h change (%)
	HighPrice          float64 `json:"high_price"`           // 24h high
	LowPrice           float64 `json:"low_price"`            // 24h low
	QuoteVolume        float64 `json:"quote_volume"`         // 24h volume in quote asset
}

// Candle is one OHLCV bar. Sequences are oldest-first and append-only.
type Candle struct {
	OpenTime  time.Time `json:"open_time"`
	CloseTime time.Time `json:"close_time"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Tick is a single real-time update pushed for one symbol. It carries the
// exchange's embedded 24h stats so a record can be derived without a REST call.
type Tick struct {
	Symbol         string    `json:"symbol"`
	Price          float64   `json:"price"`
	ChangePercent  float64   `json:"change_percent"` // 24h change (%)
	High24h        float64   `json:"high_24h"`
	Low24h         float64   `json:"low_24h"`
	QuoteVolume24h float64   `json:"quote_volume_24h"`
	At             time.Time `json:"at"`
}

// VelocityTrend classifies how price velocity is evolving.
type VelocityTrend string

const (
	TrendAccelerating VelocityTrend = "accelerating"
	TrendDecelerating VelocityTrend = "decelerating"
	TrendStable       VelocityTrend = "stable"
)

// BreakoutDirection tells which side of the recent band price escaped.
type BreakoutDirection string

const (
	BreakoutResistance BreakoutDirection = "resistance"
	BreakoutSupport    BreakoutDirection = "support"
)

// Breakout is the level that was broken and in which direction.
type Breakout struct {
	Level     float64           `json:"level"`
	Direction BreakoutDirection `json:"direction"`
}

// MarketRecord is the engine's output unit: one normalized, derived view per
// symbol. Latest-wins — a new record fully replaces the prior one. Optional
// fields are pointers: absent means "not derivable from the inputs at hand",
// never a silent zero.
type MarketRecord struct {
	Symbol              string        `json:"symbol"`
	Price               float64       `json:"price"`
	PriceChangePercent  float64       `json:"price_change_percent"`
	Volume              float64       `json:"volume"` // 24h quote volume
	VolumeChangePercent *float64      `json:"volume_change_percent,omitempty"`
	Volatility          float64       `json:"volatility"` // 0..100
	Liquidity           float64       `json:"liquidity"`  // 0..100
	RSI                 *float64      `json:"rsi,omitempty"`
	Correlation         *float64      `json:"correlation,omitempty"` // -100..100, vs reference asset
	Velocity            float64       `json:"velocity"`              // price change per second
	VelocityTrend       VelocityTrend `json:"velocity_trend"`
	Breakout            *Breakout     `json:"breakout,omitempty"`
	MarketCap           *float64      `json:"market_cap,omitempty"`
	PumpProbability     float64       `json:"pump_probability"` // 0..100, heuristic
	ProfitTarget        float64       `json:"profit_target"`    // 1..30 (%)
	UpdatedAt           time.Time     `json:"updated_at"`
}

// MarketMood is the aggregate 0-100 sentiment view of the whole market.
type MarketMood struct {
	Sentiment           float64 `json:"sentiment"` // 0..100
	BTCChangePercent    float64 `json:"btc_change_percent"`
	MarketChangePercent float64 `json:"market_change_percent"`
	Volatility          float64 `json:"volatility"` // normalized market-wide, 0..100
}

// NeutralMood is returned when the upstream market view is unavailable.
// Downstream consumers see a flat market, never an error.
func NeutralMood() MarketMood {
	return MarketMood{Sentiment: 50, BTCChangePercent: 0, MarketChangePercent: 0, Volatility: 30}
}
