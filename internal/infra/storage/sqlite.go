package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"marketpulse/internal/domain"
)

// SymbolInfo is the persisted pair metadata. CirculatingSupply is maintained
// out-of-band (config or an external provider) and feeds market-cap banding.
type SymbolInfo struct {
	Symbol            string `gorm:"primaryKey"`
	BaseAsset         string
	QuoteAsset        string
	TradingEnabled    bool
	CirculatingSupply float64
	UpdatedAt         time.Time
}

// RecordSnapshot is the last derived view of one symbol, kept so a restart
// can serve something before the first fetch completes.
type RecordSnapshot struct {
	Symbol             string `gorm:"primaryKey"`
	Price              float64
	PriceChangePercent float64
	Volume             float64
	Volatility         float64
	Liquidity          float64
	PumpProbability    float64
	ProfitTarget       float64
	UpdatedAt          time.Time
}

// Storage defines the interface for data persistence
type Storage struct {
	db *gorm.DB
}

// NewStorage creates a new SQLite storage instance. An empty path resolves
// to the OS config directory.
func NewStorage(path string) (*Storage, error) {
	dbPath := path
	if dbPath == "" {
		resolved, err := getDBPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve DB path: %w", err)
		}
		dbPath = resolved
	}

	// Ensure directory exists
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto Migration
	if err := db.AutoMigrate(&SymbolInfo{}, &RecordSnapshot{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// getDBPath resolves the database file path based on OS
func getDBPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "MarketPulse", "data", "marketpulse.db"), nil
}

// ======================================================================================
// Symbol Operations
// ======================================================================================

// ReplaceSymbols swaps the whole symbol set in one transaction. Symbol
// metadata is refreshed wholesale on each pull; supply figures already on
// file are preserved.
func (s *Storage) ReplaceSymbols(symbols []domain.Symbol) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		supplies := make(map[string]float64)
		var existing []SymbolInfo
		if err := tx.Find(&existing).Error; err != nil {
			return err
		}
		for _, info := range existing {
			if info.CirculatingSupply > 0 {
				supplies[info.Symbol] = info.CirculatingSupply
			}
		}

		if err := tx.Where("1 = 1").Delete(&SymbolInfo{}).Error; err != nil {
			return err
		}

		now := time.Now()
		for _, sym := range symbols {
			info := SymbolInfo{
				Symbol:            sym.Symbol,
				BaseAsset:         sym.BaseAsset,
				QuoteAsset:        sym.QuoteAsset,
				TradingEnabled:    sym.TradingEnabled,
				CirculatingSupply: supplies[sym.Symbol],
				UpdatedAt:         now,
			}
			if err := tx.Create(&info).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetSymbol retrieves pair metadata by symbol
func (s *Storage) GetSymbol(symbol string) (*SymbolInfo, error) {
	var info SymbolInfo
	err := s.db.First(&info, "symbol = ?", symbol).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// GetAllSymbols retrieves all persisted pairs
func (s *Storage) GetAllSymbols() ([]SymbolInfo, error) {
	var infos []SymbolInfo
	err := s.db.Find(&infos).Error
	return infos, err
}

// CirculatingSupply returns the supply figure on file for a symbol. The
// second result is false when the symbol is unknown or has no figure yet.
func (s *Storage) CirculatingSupply(symbol string) (float64, bool) {
	info, err := s.GetSymbol(symbol)
	if err != nil || info == nil || info.CirculatingSupply <= 0 {
		return 0, false
	}
	return info.CirculatingSupply, true
}

// SetCirculatingSupply stores the supply figure used for market-cap banding.
func (s *Storage) SetCirculatingSupply(symbol string, supply float64) error {
	var info SymbolInfo
	if err := s.db.First(&info, "symbol = ?", symbol).Error; err != nil {
		return err
	}

	info.CirculatingSupply = supply
	info.UpdatedAt = time.Now()
	return s.db.Save(&info).Error
}

// ======================================================================================
// Record Operations
// ======================================================================================

// SaveRecords upserts the latest derived view per symbol.
func (s *Storage) SaveRecords(records []domain.MarketRecord) error {
	for _, rec := range records {
		snap := RecordSnapshot{
			Symbol:             rec.Symbol,
			Price:              rec.Price,
			PriceChangePercent: rec.PriceChangePercent,
			Volume:             rec.Volume,
			Volatility:         rec.Volatility,
			Liquidity:          rec.Liquidity,
			PumpProbability:    rec.PumpProbability,
			ProfitTarget:       rec.ProfitTarget,
			UpdatedAt:          rec.UpdatedAt,
		}
		if err := s.db.Save(&snap).Error; err != nil {
			return err
		}
	}
	return nil
}

// LoadRecords retrieves all persisted record snapshots.
func (s *Storage) LoadRecords() ([]RecordSnapshot, error) {
	var snaps []RecordSnapshot
	err := s.db.Find(&snaps).Error
	return snaps, err
}
