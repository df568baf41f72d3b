package infra

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"marketpulse/internal/domain"
)

// sentimentResponse is the provider's wire shape. The provider is a black
// box: only the numeric 0-100 contract matters here.
type sentimentResponse struct {
	Symbol    string  `json:"symbol"`
	Timeframe string  `json:"timeframe"`
	Score     float64 `json:"score"`
}

// SentimentClient fetches per-symbol sentiment scores from an opaque
// provider. Failures never propagate: the last known score for the symbol is
// returned, or the neutral 50 when nothing was ever fetched.
type SentimentClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu     sync.RWMutex
	scores map[string]float64
}

// NewSentimentClient creates a sentiment provider client.
func NewSentimentClient(baseURL string, timeout time.Duration) *SentimentClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SentimentClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default().With("module", "sentiment"),
		scores:     make(map[string]float64),
	}
}

// Score returns the provider's 0-100 score for symbol on the given
// timeframe. On any failure it degrades to the cached or neutral score.
func (c *SentimentClient) Score(ctx context.Context, symbol string, tf domain.Timeframe) float64 {
	if c.baseURL == "" {
		return 50
	}

	u := fmt.Sprintf("%s/v1/sentiment?symbol=%s&timeframe=%s",
		c.baseURL, url.QueryEscape(symbol), url.QueryEscape(string(tf)))

	var resp sentimentResponse
	if err := FetchJSON(ctx, c.httpClient, u, &resp, 2); err != nil {
		c.logger.Warn("Sentiment fetch failed, using fallback",
			slog.String("symbol", symbol), slog.Any("error", err))
		return c.cached(symbol)
	}

	score := resp.Score
	if score < 0 {
		score = 0
	} else if score > 100 {
		score = 100
	}

	c.mu.Lock()
	c.scores[symbol] = score
	c.mu.Unlock()
	return score
}

func (c *SentimentClient) cached(symbol string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if s, ok := c.scores[symbol]; ok {
		return s
	}
	return 50
}
