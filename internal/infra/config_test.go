package infra

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
exchange:
  rest_url: https://api.example.com
  ws_url: wss://stream.example.com/ws
  quote_asset: USDT
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Exchange.RequestsPerMinute != 1200 {
		t.Errorf("Expected default 1200 rpm, got %d", cfg.Exchange.RequestsPerMinute)
	}
	if cfg.Exchange.ReferenceSymbol != "BTCUSDT" {
		t.Errorf("Expected derived reference symbol BTCUSDT, got %s", cfg.Exchange.ReferenceSymbol)
	}
	if cfg.Aggregator.FlushWindowMS != 100 {
		t.Errorf("Expected default 100ms flush window, got %d", cfg.Aggregator.FlushWindowMS)
	}
	if cfg.Analytics.LiquidityFloor != 10_000 || cfg.Analytics.LiquidityCeiling != 100_000_000 {
		t.Errorf("Expected default liquidity bounds, got %v..%v",
			cfg.Analytics.LiquidityFloor, cfg.Analytics.LiquidityCeiling)
	}
}

func TestLoadConfig_InvalidURL(t *testing.T) {
	path := writeConfig(t, `
exchange:
  rest_url: ftp://api.example.com
  ws_url: wss://stream.example.com/ws
  quote_asset: USDT
`)

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("Expected validation error for non-http REST URL")
	}
}

func TestLoadConfig_MissingQuoteAsset(t *testing.T) {
	path := writeConfig(t, `
exchange:
  rest_url: https://api.example.com
  ws_url: wss://stream.example.com/ws
`)

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("Expected validation error for missing quote asset")
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("MARKETPULSE_REST_URL", "https://proxy.example.com")

	path := writeConfig(t, `
exchange:
  rest_url: https://api.example.com
  ws_url: wss://stream.example.com/ws
  quote_asset: USDT
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Exchange.RestURL != "https://proxy.example.com" {
		t.Errorf("Env override not applied, got %s", cfg.Exchange.RestURL)
	}
}

func TestLoadConfig_FileMissing(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Expected error for missing file")
	}
}
