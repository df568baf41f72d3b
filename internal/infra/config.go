package infra

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultUserAgent is a browser-like user agent string to avoid bot detection
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Config holds every runtime setting of the application.
// Sensitive or environment-specific values can be overridden via env vars
// after loading.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Exchange struct {
		RestURL             string   `yaml:"rest_url"`
		WSURL               string   `yaml:"ws_url"`
		QuoteAsset          string   `yaml:"quote_asset"`
		ReferenceSymbol     string   `yaml:"reference_symbol"` // anchor for mood/correlation (e.g., BTCUSDT)
		StablecoinBlacklist []string `yaml:"stablecoin_blacklist"`
		RequestsPerMinute   int      `yaml:"requests_per_minute"`
		MaxRetries          int      `yaml:"max_retries"`
		MaxStreamSymbols    int      `yaml:"max_stream_symbols"`
	} `yaml:"exchange"`

	Aggregator struct {
		FlushWindowMS int `yaml:"flush_window_ms"`
	} `yaml:"aggregator"`

	Analytics struct {
		LiquidityFloor   float64 `yaml:"liquidity_floor"`
		LiquidityCeiling float64 `yaml:"liquidity_ceiling"`
	} `yaml:"analytics"`

	Sentiment struct {
		URL        string `yaml:"url"`
		TimeoutSec int    `yaml:"timeout_sec"`
	} `yaml:"sentiment"`

	Storage struct {
		Path string `yaml:"path"` // empty resolves to the OS config dir
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Exchange.RequestsPerMinute == 0 {
		c.Exchange.RequestsPerMinute = 1200
	}
	if c.Exchange.MaxRetries == 0 {
		c.Exchange.MaxRetries = 3
	}
	if c.Exchange.MaxStreamSymbols == 0 {
		c.Exchange.MaxStreamSymbols = 50
	}
	if c.Exchange.ReferenceSymbol == "" {
		c.Exchange.ReferenceSymbol = "BTC" + c.Exchange.QuoteAsset
	}
	if c.Aggregator.FlushWindowMS == 0 {
		c.Aggregator.FlushWindowMS = 100
	}
	if c.Analytics.LiquidityFloor == 0 {
		c.Analytics.LiquidityFloor = 10_000
	}
	if c.Analytics.LiquidityCeiling == 0 {
		c.Analytics.LiquidityCeiling = 100_000_000
	}
	if c.Sentiment.TimeoutSec == 0 {
		c.Sentiment.TimeoutSec = 10
	}
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Exchange.RestURL, "http://") && !strings.HasPrefix(c.Exchange.RestURL, "https://") {
		return fmt.Errorf("invalid exchange REST URL: %s", c.Exchange.RestURL)
	}
	if !strings.HasPrefix(c.Exchange.WSURL, "ws://") && !strings.HasPrefix(c.Exchange.WSURL, "wss://") {
		return fmt.Errorf("invalid exchange WS URL: %s", c.Exchange.WSURL)
	}
	if c.Exchange.QuoteAsset == "" {
		return fmt.Errorf("quote asset is required")
	}
	if c.Exchange.RequestsPerMinute <= 0 {
		return fmt.Errorf("requests per minute must be positive")
	}
	if c.Aggregator.FlushWindowMS <= 0 {
		return fmt.Errorf("flush window must be positive")
	}
	if c.Analytics.LiquidityCeiling <= c.Analytics.LiquidityFloor {
		return fmt.Errorf("liquidity ceiling must exceed floor")
	}
	return nil
}

// overrideWithEnv replaces settings from the environment when present.
func overrideWithEnv(cfg *Config) {
	if url := os.Getenv("MARKETPULSE_REST_URL"); url != "" {
		cfg.Exchange.RestURL = url
	}
	if url := os.Getenv("MARKETPULSE_WS_URL"); url != "" {
		cfg.Exchange.WSURL = url
	}
	if url := os.Getenv("MARKETPULSE_SENTIMENT_URL"); url != "" {
		cfg.Sentiment.URL = url
	}
	if path := os.Getenv("MARKETPULSE_DB_PATH"); path != "" {
		cfg.Storage.Path = path
	}
}
