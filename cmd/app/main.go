package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketpulse/internal/analytics"
	"marketpulse/internal/app"
	"marketpulse/internal/domain"
	"marketpulse/internal/infra"
	"marketpulse/internal/infra/binance"
	"marketpulse/internal/service"

	_ "net/http/pprof" // For pprof profiling
)

const refreshInterval = 30 * time.Second

func main() {
	// 1. Pprof Server (for performance profiling)
	go func() {
		// Localhost only for security
		slog.Info("🕵️ Pprof server started on localhost:6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			slog.Error("Pprof server failed", slog.Any("error", err))
		}
	}()

	// 2. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize("configs/config.yaml"); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	cfg := bootstrap.Config

	// 3. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Throttled Exchange Client
	throttle := infra.NewThrottle(cfg.Exchange.RequestsPerMinute, time.Minute)
	defer throttle.Close()

	client := binance.NewClient(cfg.Exchange.RestURL, throttle, cfg.Exchange.MaxRetries)
	fetcher := service.NewSnapshotFetcher(client, cfg.Exchange.QuoteAsset, cfg.Exchange.StablecoinBlacklist)

	// 5. Background Symbol Sync
	go bootstrap.SyncSymbols(ctx, fetcher)

	// 6. Tick Aggregator + Stream Worker
	bounds := analytics.LiquidityBounds{
		Floor:   cfg.Analytics.LiquidityFloor,
		Ceiling: cfg.Analytics.LiquidityCeiling,
	}

	aggregator := service.NewTickAggregator(
		time.Duration(cfg.Aggregator.FlushWindowMS)*time.Millisecond,
		domain.Timeframe1m,
		bounds,
	)
	aggregator.Start(ctx)
	defer aggregator.Stop()

	cache := service.NewRecordCache()

	streamSymbols := pickStreamSymbols(ctx, fetcher, cfg.Exchange.MaxStreamSymbols)
	if len(streamSymbols) > 0 {
		aggregator.Subscribe(streamSymbols, func(records []domain.MarketRecord) {
			cache.Upsert(records...)
		})

		streamWorker := binance.NewStreamWorker(cfg.Exchange.WSURL, streamSymbols, aggregator.Inbox())
		if err := streamWorker.Connect(ctx); err != nil {
			slog.Error("Failed to connect stream", slog.Any("error", err))
		}
		defer streamWorker.Disconnect()
		slog.InfoContext(ctx, "✅ StreamWorker started", slog.Int("symbols", len(streamSymbols)))
	}

	// 7. Query Facade
	facade := service.NewFacade(fetcher, cache, bounds, cfg.Exchange.ReferenceSymbol)
	facade.SetSupplySource(bootstrap.Storage)
	if cfg.Sentiment.URL != "" {
		sentiment := infra.NewSentimentClient(cfg.Sentiment.URL, time.Duration(cfg.Sentiment.TimeoutSec)*time.Second)
		facade.SetSentimentSource(sentiment)
	}

	// 8. Periodic Market Refresh
	go refreshLoop(ctx, facade, bootstrap)

	slog.InfoContext(ctx, "✨ MarketPulse fully operational. Press Ctrl+C to exit.")

	// Wait for shutdown signal
	<-ctx.Done()

	slog.InfoContext(ctx, "👋 Shutting down gracefully...")
}

// pickStreamSymbols selects the head of the tradable list for live streaming.
func pickStreamSymbols(ctx context.Context, fetcher *service.SnapshotFetcher, limit int) []string {
	symbols := fetcher.ListTradableSymbols(ctx)
	if len(symbols) > limit {
		symbols = symbols[:limit]
	}
	names := make([]string, 0, len(symbols))
	for _, s := range symbols {
		names = append(names, s.Symbol)
	}
	return names
}

// refreshLoop re-derives the ranked market view on a fixed cadence and
// persists it so a restart has something to serve immediately.
func refreshLoop(ctx context.Context, facade *service.Facade, bootstrap *app.Bootstrap) {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			gainers := facade.GetTopGainers(ctx, domain.Timeframe1h, 20)
			mood := facade.GetMarketMood(ctx)
			slog.Info("Market refresh",
				slog.Int("gainers", len(gainers)),
				slog.Float64("sentiment", mood.Sentiment))

			if err := bootstrap.Storage.SaveRecords(facade.Records()); err != nil {
				slog.Error("Failed to persist records", slog.Any("error", err))
			}
		}
	}
}
