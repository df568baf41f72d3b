package infra

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jpillora/backoff"

	"marketpulse/internal/domain"
)

const (
	// DefaultMaxRetries bounds the retry loop of FetchJSON.
	DefaultMaxRetries = 3

	retryBaseDelay = 500 * time.Millisecond
	retryMaxDelay  = 10 * time.Second
)

// FetchJSON performs a GET for a JSON payload with bounded
// exponential-backoff retry (baseDelay * 2^(attempt-1)).
//
// Non-2xx responses and network failures are retried; once attempts are
// exhausted a terminal error wrapping ErrRetriesExhausted and the last cause
// is returned. A structurally valid but semantically empty body is a success
// at this layer — absence of data is the caller's concern. A body that fails
// to decode is terminal immediately (retrying will not fix the payload).
func FetchJSON(ctx context.Context, client *http.Client, url string, out any, maxRetries int) error {
	if client == nil {
		client = http.DefaultClient
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	b := &backoff.Backoff{Min: retryBaseDelay, Max: retryMaxDelay, Factor: 2}
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if attempt > 1 {
			GlobalMetrics.RecordRequestRetry()
			delay := b.Duration()
			slog.Warn("Retrying fetch",
				slog.String("url", url),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
				slog.Any("error", lastErr),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := doFetch(ctx, client, url, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !domain.IsRetriable(err) {
			return err
		}
	}

	return errors.Join(domain.ErrRetriesExhausted, lastErr)
}

func doFetch(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", DefaultUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return domain.NewTransportError("get", url, 0, err)
	}
	defer resp.Body.Close()
	GlobalMetrics.RecordRequest()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return domain.NewTransportError("get", url, resp.StatusCode, nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewTransportError("read", url, 0, err)
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return domain.NewDecodeError(url, err)
	}
	return nil
}
