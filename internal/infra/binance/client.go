package binance

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"marketpulse/internal/domain"
	"marketpulse/internal/infra"
)

// Client is the exchange REST client for market data (Boundary Layer).
// Every call routes through the request throttle and the retrying transport;
// there is deliberately no unthrottled path, so none of these are dangerous
// to call in a loop.
type Client struct {
	baseURL    string
	httpClient *http.Client
	throttle   *infra.Throttle
	maxRetries int
	logger     *slog.Logger
}

// NewClient creates a new market data client.
func NewClient(baseURL string, throttle *infra.Throttle, maxRetries int) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
		throttle:   throttle,
		maxRetries: maxRetries,
		logger:     slog.Default().With("module", "binance_client"),
	}
}

// ExchangeInfo fetches metadata for every listed pair.
func (c *Client) ExchangeInfo(ctx context.Context) ([]domain.Symbol, error) {
	var resp exchangeInfoResponse
	if err := c.get(ctx, "/api/v3/exchangeInfo", nil, &resp); err != nil {
		return nil, err
	}

	symbols := make([]domain.Symbol, 0, len(resp.Symbols))
	for _, s := range resp.Symbols {
		symbols = append(symbols, s.toDomain())
	}
	return symbols, nil
}

// Tickers24h fetches the full-market 24h snapshot.
func (c *Client) Tickers24h(ctx context.Context) ([]domain.TickerSnapshot, error) {
	var payload []ticker24hPayload
	if err := c.get(ctx, "/api/v3/ticker/24hr", nil, &payload); err != nil {
		return nil, err
	}

	snapshots := make([]domain.TickerSnapshot, 0, len(payload))
	for _, p := range payload {
		snap, err := p.toDomain()
		if err != nil {
			// One malformed row must not sink the market view.
			c.logger.Warn("Skipping malformed ticker", slog.Any("error", err))
			continue
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

// Ticker24h fetches the 24h snapshot for a single symbol.
func (c *Client) Ticker24h(ctx context.Context, symbol string) (domain.TickerSnapshot, error) {
	if symbol == "" {
		return domain.TickerSnapshot{}, domain.ErrInvalidSymbol
	}

	q := url.Values{"symbol": {symbol}}
	var payload ticker24hPayload
	if err := c.get(ctx, "/api/v3/ticker/24hr", q, &payload); err != nil {
		return domain.TickerSnapshot{}, err
	}
	return payload.toDomain()
}

// Klines fetches a fixed-size candle window, returned oldest-first by open
// time regardless of upstream ordering.
func (c *Client) Klines(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	if symbol == "" {
		return nil, domain.ErrInvalidSymbol
	}
	if limit <= 0 {
		limit = 100
	}

	q := url.Values{
		"symbol":   {symbol},
		"interval": {interval},
		"limit":    {strconv.Itoa(limit)},
	}
	var rows []klineRow
	if err := c.get(ctx, "/api/v3/klines", q, &rows); err != nil {
		return nil, err
	}

	candles := make([]domain.Candle, 0, len(rows))
	for _, row := range rows {
		candle, err := row.toDomain()
		if err != nil {
			c.logger.Warn("Skipping malformed kline",
				slog.String("symbol", symbol), slog.Any("error", err))
			continue
		}
		candles = append(candles, candle)
	}

	sort.Slice(candles, func(i, j int) bool {
		return candles[i].OpenTime.Before(candles[j].OpenTime)
	})
	return candles, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return c.throttle.Schedule(ctx, func() error {
		return infra.FetchJSON(ctx, c.httpClient, u, out, c.maxRetries)
	})
}
