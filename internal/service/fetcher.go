package service

import (
	"context"
	"log/slog"
	"strings"

	"marketpulse/internal/domain"
	"marketpulse/internal/infra"
	"marketpulse/internal/infra/binance"
)

// SnapshotFetcher retrieves tradable symbol metadata, 24h snapshots and
// candle history through the throttled, retrying exchange client.
//
// Error policy (deliberate asymmetry): market-wide listings degrade to an
// empty slice with a logged cause — a partial market view beats halting the
// facade. Pinpoint queries (single snapshot, candles) fail loudly so the
// caller that needs a value sees why it is missing.
type SnapshotFetcher struct {
	client     *binance.Client
	quoteAsset string
	blacklist  map[string]struct{}
	logger     *slog.Logger
}

// NewSnapshotFetcher creates a fetcher filtering to one quote asset and
// excluding the stable-coin blacklist (they only add self-correlated noise
// to gem ranking).
func NewSnapshotFetcher(client *binance.Client, quoteAsset string, blacklist []string) *SnapshotFetcher {
	bl := make(map[string]struct{}, len(blacklist))
	for _, b := range blacklist {
		bl[strings.ToUpper(b)] = struct{}{}
	}
	return &SnapshotFetcher{
		client:     client,
		quoteAsset: strings.ToUpper(quoteAsset),
		blacklist:  bl,
		logger:     slog.Default().With("module", "fetcher"),
	}
}

// ListTradableSymbols fetches exchange metadata filtered to the configured
// quote asset, trading-enabled status and the blacklist.
//
// On transport failure it returns an empty list: callers must treat that as
// "temporarily unavailable", not "no symbols exist".
func (f *SnapshotFetcher) ListTradableSymbols(ctx context.Context) []domain.Symbol {
	all, err := f.client.ExchangeInfo(ctx)
	if err != nil {
		infra.GlobalMetrics.RecordUpstreamFailure()
		f.logger.Warn("Symbol listing unavailable", slog.Any("error", err))
		return []domain.Symbol{}
	}

	symbols := make([]domain.Symbol, 0, len(all))
	for _, s := range all {
		if !s.TradingEnabled {
			continue
		}
		if !strings.EqualFold(s.QuoteAsset, f.quoteAsset) {
			continue
		}
		if _, banned := f.blacklist[strings.ToUpper(s.BaseAsset)]; banned {
			continue
		}
		symbols = append(symbols, s)
	}
	return symbols
}

// Get24hSnapshots fetches the full-market 24h snapshot; empty on failure.
func (f *SnapshotFetcher) Get24hSnapshots(ctx context.Context) []domain.TickerSnapshot {
	snaps, err := f.client.Tickers24h(ctx)
	if err != nil {
		infra.GlobalMetrics.RecordUpstreamFailure()
		f.logger.Warn("Market snapshot unavailable", slog.Any("error", err))
		return []domain.TickerSnapshot{}
	}
	return snaps
}

// GetSnapshot fetches the 24h snapshot for one symbol. Unlike the aggregate
// path, a failure here propagates.
func (f *SnapshotFetcher) GetSnapshot(ctx context.Context, symbol string) (domain.TickerSnapshot, error) {
	return f.client.Ticker24h(ctx, symbol)
}

// GetCandles fetches a fixed-size historical window, oldest-first.
// Failures propagate; candles back a pinpoint analysis, not a market view.
func (f *SnapshotFetcher) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	return f.client.Klines(ctx, symbol, interval, limit)
}
