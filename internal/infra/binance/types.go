package binance

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"marketpulse/internal/domain"
)

const (
	maxReconnectRetries = 10
	pingInterval        = 3 * time.Minute
	readTimeout         = 5 * time.Minute
	handshakeTimeout    = 10 * time.Second
)

// exchangeInfoResponse represents /api/v3/exchangeInfo
type exchangeInfoResponse struct {
	Symbols []exchangeSymbol `json:"symbols"`
}

type exchangeSymbol struct {
	Symbol     string `json:"symbol"`
	Status     string `json:"status"` // TRADING, BREAK, ...
	BaseAsset  string `json:"baseAsset"`
	QuoteAsset string `json:"quoteAsset"`
}

func (s exchangeSymbol) toDomain() domain.Symbol {
	return domain.Symbol{
		Symbol:         s.Symbol,
		BaseAsset:      s.BaseAsset,
		QuoteAsset:     s.QuoteAsset,
		TradingEnabled: s.Status == "TRADING",
	}
}

// ticker24hPayload represents one /api/v3/ticker/24hr entry.
// Prices arrive as strings; they are validated at this boundary so nothing
// undefined leaks into the analytics pipeline.
type ticker24hPayload struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	QuoteVolume        string `json:"quoteVolume"`
}

func (p ticker24hPayload) toDomain() (domain.TickerSnapshot, error) {
	if p.Symbol == "" {
		return domain.TickerSnapshot{}, domain.ErrInvalidSymbol
	}
	last, err := decimal.NewFromString(p.LastPrice)
	if err != nil {
		return domain.TickerSnapshot{}, fmt.Errorf("ticker %s: bad last price %q: %w", p.Symbol, p.LastPrice, err)
	}
	return domain.TickerSnapshot{
		Symbol:             p.Symbol,
		LastPrice:          last.InexactFloat64(),
		PriceChangePercent: parseFloatOrZero(p.PriceChangePercent),
		HighPrice:          parseFloatOrZero(p.HighPrice),
		LowPrice:           parseFloatOrZero(p.LowPrice),
		QuoteVolume:        parseFloatOrZero(p.QuoteVolume),
	}, nil
}

// klineRow is the positional kline array:
// [openTime, open, high, low, close, volume, closeTime, quoteVolume, ...]
type klineRow []json.RawMessage

func (r klineRow) toDomain() (domain.Candle, error) {
	if len(r) < 7 {
		return domain.Candle{}, fmt.Errorf("kline row too short: %d fields", len(r))
	}

	var openMS, closeMS int64
	if err := json.Unmarshal(r[0], &openMS); err != nil {
		return domain.Candle{}, fmt.Errorf("kline open time: %w", err)
	}
	if err := json.Unmarshal(r[6], &closeMS); err != nil {
		return domain.Candle{}, fmt.Errorf("kline close time: %w", err)
	}

	fields := make([]float64, 5)
	for i := 1; i <= 5; i++ {
		var s string
		if err := json.Unmarshal(r[i], &s); err != nil {
			return domain.Candle{}, fmt.Errorf("kline field %d: %w", i, err)
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return domain.Candle{}, fmt.Errorf("kline field %d: %w", i, err)
		}
		fields[i-1] = d.InexactFloat64()
	}

	return domain.Candle{
		OpenTime:  time.UnixMilli(openMS).UTC(),
		CloseTime: time.UnixMilli(closeMS).UTC(),
		Open:      fields[0],
		High:      fields[1],
		Low:       fields[2],
		Close:     fields[3],
		Volume:    fields[4],
	}, nil
}

// subscribeRequest represents the stream subscription message
type subscribeRequest struct {
	Method string   `json:"method"` // SUBSCRIBE
	Params []string `json:"params"`
	ID     int      `json:"id"`
}

// miniTickerEvent represents a 24hrMiniTicker stream payload
type miniTickerEvent struct {
	EventType   string `json:"e"` // 24hrMiniTicker
	EventTimeMS int64  `json:"E"`
	Symbol      string `json:"s"`
	Close       string `json:"c"`
	Open        string `json:"o"`
	High        string `json:"h"`
	Low         string `json:"l"`
	QuoteVolume string `json:"q"`
}

func (e miniTickerEvent) toTick() (domain.Tick, bool) {
	price, err := decimal.NewFromString(e.Close)
	if err != nil || e.Symbol == "" {
		return domain.Tick{}, false
	}

	last := price.InexactFloat64()
	open := parseFloatOrZero(e.Open)
	change := 0.0
	if open != 0 {
		change = (last - open) / open * 100
	}

	return domain.Tick{
		Symbol:         e.Symbol,
		Price:          last,
		ChangePercent:  change,
		High24h:        parseFloatOrZero(e.High),
		Low24h:         parseFloatOrZero(e.Low),
		QuoteVolume24h: parseFloatOrZero(e.QuoteVolume),
		At:             time.UnixMilli(e.EventTimeMS).UTC(),
	}, true
}

func parseFloatOrZero(s string) float64 {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}
