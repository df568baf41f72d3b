package service

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"marketpulse/internal/analytics"
	"marketpulse/internal/domain"
)

// MarketSource is what the facade needs from the snapshot fetcher.
type MarketSource interface {
	ListTradableSymbols(ctx context.Context) []domain.Symbol
	Get24hSnapshots(ctx context.Context) []domain.TickerSnapshot
	GetSnapshot(ctx context.Context, symbol string) (domain.TickerSnapshot, error)
	GetCandles(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error)
}

// SentimentSource is an opaque per-symbol 0-100 score provider.
type SentimentSource interface {
	Score(ctx context.Context, symbol string, tf domain.Timeframe) float64
}

// SupplySource answers circulating supply lookups for market-cap banding.
type SupplySource interface {
	CirculatingSupply(symbol string) (float64, bool)
}

const defaultCandleLimit = 100

// Facade composes the fetcher, analytics and the record cache to answer
// ranked market queries. Market-wide queries degrade to empty or neutral
// results on upstream failure — consumers see a shorter list or flat scores,
// never an error.
type Facade struct {
	source      MarketSource
	cache       *RecordCache
	supply      SupplySource    // optional; gems need it
	sentiment   SentimentSource // optional
	bounds      analytics.LiquidityBounds
	refSymbol   string // anchor for mood and correlation (e.g., BTCUSDT)
	candleLimit int
	logger      *slog.Logger
}

// NewFacade creates a market query facade.
func NewFacade(source MarketSource, cache *RecordCache, bounds analytics.LiquidityBounds, refSymbol string) *Facade {
	if cache == nil {
		cache = NewRecordCache()
	}
	return &Facade{
		source:      source,
		cache:       cache,
		bounds:      bounds,
		refSymbol:   refSymbol,
		candleLimit: defaultCandleLimit,
		logger:      slog.Default().With("module", "facade"),
	}
}

// SetSupplySource wires a circulating-supply lookup for market-cap banding.
func (f *Facade) SetSupplySource(s SupplySource) {
	f.supply = s
}

// SetSentimentSource wires the opaque sentiment provider.
func (f *Facade) SetSentimentSource(s SentimentSource) {
	f.sentiment = s
}

// GetTopGainers returns up to limit records with positive 24h change,
// sorted descending. Equal changes keep their snapshot order so results stay
// deterministic.
func (f *Facade) GetTopGainers(ctx context.Context, tf domain.Timeframe, limit int) []domain.MarketRecord {
	snaps := f.source.Get24hSnapshots(ctx)
	now := time.Now()

	records := make([]domain.MarketRecord, 0, len(snaps))
	for _, snap := range snaps {
		if snap.PriceChangePercent <= 0 {
			continue
		}
		records = append(records, analytics.DeriveFromSnapshot(snap, nil, nil, nil, tf, f.bounds, now))
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].PriceChangePercent > records[j].PriceChangePercent
	})
	records = truncate(records, limit)

	f.cache.Upsert(records...)
	return records
}

// GetLowCapGems returns up to limit records inside the [minCap, maxCap]
// market-cap band, ranked by composite potential score
// 0.4*volatility + 0.3*|volume change| + 0.3*|price change| descending.
// Symbols whose market cap cannot be established are excluded — the band
// cannot be verified for them.
func (f *Facade) GetLowCapGems(ctx context.Context, tf domain.Timeframe, minCap, maxCap float64, limit int) []domain.MarketRecord {
	snaps := f.source.Get24hSnapshots(ctx)
	now := time.Now()

	type scored struct {
		rec   domain.MarketRecord
		score float64
	}
	candidates := make([]scored, 0, len(snaps))

	for _, snap := range snaps {
		cap := f.marketCap(snap.Symbol, snap.LastPrice)
		if cap == nil || *cap < minCap || *cap > maxCap {
			continue
		}

		volumeChange := f.volumeChange(snap)
		rec := analytics.DeriveFromSnapshot(snap, nil, nil, volumeChange, tf, f.bounds, now)
		rec.MarketCap = cap

		score := 0.4*rec.Volatility +
			0.3*math.Abs(derefOrZero(rec.VolumeChangePercent)) +
			0.3*math.Abs(rec.PriceChangePercent)
		candidates = append(candidates, scored{rec: rec, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	records := make([]domain.MarketRecord, 0, len(candidates))
	for _, c := range candidates {
		records = append(records, c.rec)
	}
	records = truncate(records, limit)

	f.cache.Upsert(records...)
	return records
}

// GetMarketMood aggregates reference-asset and market-wide price action into
// a 0-100 sentiment. Any upstream failure yields the exact neutral default.
func (f *Facade) GetMarketMood(ctx context.Context) domain.MarketMood {
	snaps := f.source.Get24hSnapshots(ctx)
	if len(snaps) == 0 {
		return domain.NeutralMood()
	}

	var btcChange float64
	btcFound := false
	var changeSum, volSum float64
	for _, snap := range snaps {
		if snap.Symbol == f.refSymbol {
			btcChange = snap.PriceChangePercent
			btcFound = true
		}
		changeSum += snap.PriceChangePercent
		volSum += analytics.Volatility(snap.HighPrice, snap.LowPrice, snap.LastPrice)
	}
	if !btcFound {
		// Without the anchor the mood formula is undefined; stay neutral.
		f.logger.Warn("Reference symbol missing from snapshot", slog.String("symbol", f.refSymbol))
		return domain.NeutralMood()
	}

	marketChange := changeSum / float64(len(snaps))
	marketVol := analytics.Clamp(volSum/float64(len(snaps)), 0, 100)

	sentiment := 50 + 4*btcChange + 3*marketChange
	// Volatility amplifies whichever way BTC is pulling.
	switch {
	case btcChange > 0:
		sentiment += marketVol / 10
	case btcChange < 0:
		sentiment -= marketVol / 10
	}

	return domain.MarketMood{
		Sentiment:           analytics.Clamp(sentiment, 0, 100),
		BTCChangePercent:    btcChange,
		MarketChangePercent: marketChange,
		Volatility:          marketVol,
	}
}

// GetSymbolDetail builds the fully derived record for one symbol: snapshot
// plus candle history, reference correlation and volume change against the
// cached prior view. This is a pinpoint query — failures propagate.
func (f *Facade) GetSymbolDetail(ctx context.Context, symbol string, tf domain.Timeframe) (domain.MarketRecord, error) {
	if !tf.Valid() {
		return domain.MarketRecord{}, domain.ErrInvalidTimeframe
	}

	snap, err := f.source.GetSnapshot(ctx, symbol)
	if err != nil {
		return domain.MarketRecord{}, err
	}

	candles, err := f.source.GetCandles(ctx, symbol, string(tf), f.candleLimit)
	if err != nil {
		return domain.MarketRecord{}, err
	}

	var reference []domain.Candle
	if f.refSymbol != "" && f.refSymbol != symbol {
		reference, err = f.source.GetCandles(ctx, f.refSymbol, string(tf), f.candleLimit)
		if err != nil {
			// Correlation is an enrichment; the detail view survives without it.
			f.logger.Warn("Reference candles unavailable", slog.Any("error", err))
			reference = nil
		}
	}

	rec := analytics.DeriveFromSnapshot(snap, candles, reference, f.volumeChange(snap), tf, f.bounds, time.Now())
	rec.MarketCap = f.marketCap(snap.Symbol, snap.LastPrice)

	f.cache.Upsert(rec)
	return rec, nil
}

// GetSentiment passes through the opaque provider; neutral without one.
func (f *Facade) GetSentiment(ctx context.Context, symbol string, tf domain.Timeframe) float64 {
	if f.sentiment == nil {
		return 50
	}
	return f.sentiment.Score(ctx, symbol, tf)
}

// Records exposes the latest derived view per symbol.
func (f *Facade) Records() []domain.MarketRecord {
	return f.cache.All()
}

func (f *Facade) marketCap(symbol string, price float64) *float64 {
	if f.supply == nil || price <= 0 {
		return nil
	}
	supply, ok := f.supply.CirculatingSupply(symbol)
	if !ok || supply <= 0 {
		return nil
	}
	cap := supply * price
	return &cap
}

// volumeChange derives the 24h volume delta against the cached prior record.
func (f *Facade) volumeChange(snap domain.TickerSnapshot) *float64 {
	prev, ok := f.cache.Get(snap.Symbol)
	if !ok || prev.Volume <= 0 {
		return nil
	}
	change := (snap.QuoteVolume - prev.Volume) / prev.Volume * 100
	return &change
}

func truncate(records []domain.MarketRecord, limit int) []domain.MarketRecord {
	if limit > 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}

func derefOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
