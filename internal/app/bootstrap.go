package app

import (
	"context"
	"log/slog"

	"marketpulse/internal/infra"
	"marketpulse/internal/infra/storage"
	"marketpulse/internal/service"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config  *infra.Config
	Storage *storage.Storage
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (config, logger, DB)
func (b *Bootstrap) Initialize(configPath string) error {
	slog.Info("🚀 Bootstrapping MarketPulse...")

	// 1. Load Config
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Initialize Storage (DB)
	store, err := storage.NewStorage(cfg.Storage.Path)
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("✅ Database initialized")

	return nil
}

// SyncSymbols refreshes the persisted symbol set from the exchange. Supply
// figures already on file survive the swap.
func (b *Bootstrap) SyncSymbols(ctx context.Context, fetcher *service.SnapshotFetcher) {
	slog.Info("🔄 Starting symbol synchronization...")

	symbols := fetcher.ListTradableSymbols(ctx)
	if len(symbols) == 0 {
		slog.Warn("No tradable symbols fetched, keeping existing set")
		return
	}

	if err := b.Storage.ReplaceSymbols(symbols); err != nil {
		slog.Error("Failed to persist symbols", slog.Any("error", err))
		return
	}

	slog.Info("✨ Symbol sync complete", slog.Int("symbols", len(symbols)))
}
