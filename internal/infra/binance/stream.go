package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jpillora/backoff"

	"marketpulse/internal/domain"
	"marketpulse/internal/infra"
)

// StreamWorker handles the exchange's push feed over WebSocket. It
// subscribes to per-symbol 24h miniTicker streams and forwards parsed ticks
// into the aggregator inbox, dropping rather than blocking when the inbox is
// full.
type StreamWorker struct {
	wsURL   string
	symbols []string
	inbox   chan<- domain.Tick

	conn       *websocket.Conn
	mu         sync.RWMutex
	writeMu    sync.Mutex
	connected  bool
	pingCancel context.CancelFunc // stops the current connection's ping loop
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// NewStreamWorker creates a stream worker for the given symbol set.
func NewStreamWorker(wsURL string, symbols []string, inbox chan<- domain.Tick) *StreamWorker {
	return &StreamWorker{
		wsURL:   wsURL,
		symbols: symbols,
		inbox:   inbox,
	}
}

// Connect starts the WebSocket connection with automatic reconnection
func (w *StreamWorker) Connect(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.connectionLoop(ctx)
	return nil
}

func (w *StreamWorker) connectionLoop(ctx context.Context) {
	defer w.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Stream worker panic recovered", slog.Any("panic", r))
		}
	}()

	b := &backoff.Backoff{Min: time.Second, Max: 60 * time.Second, Factor: 2, Jitter: true}
	retryCount := 0

	for {
		select {
		case <-ctx.Done():
			slog.Info("Stream connection loop stopped")
			return
		default:
		}

		if err := w.connect(ctx); err != nil {
			slog.Warn("Stream connection failed",
				slog.Any("error", err),
				slog.Int("retry", retryCount),
			)

			delay := b.Duration()
			retryCount++
			if retryCount > maxReconnectRetries {
				retryCount = 0
				b.Reset()
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		}

		retryCount = 0
		b.Reset()
		w.readLoop(ctx)
	}
}

func (w *StreamWorker) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}

	header := make(http.Header)
	header.Add("User-Agent", infra.DefaultUserAgent)

	conn, _, err := dialer.DialContext(ctx, w.wsURL, header)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	w.mu.Lock()
	w.conn = conn
	w.connected = true
	w.mu.Unlock()
	infra.GlobalMetrics.SetStreamConnected(true)

	if err := w.subscribe(); err != nil {
		w.closeConnection()
		return fmt.Errorf("subscribe failed: %w", err)
	}

	// Ping on a per-connection context so reconnects don't pile up loops.
	pingCtx, pingCancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.pingCancel = pingCancel
	w.mu.Unlock()
	go w.pingLoop(pingCtx)

	slog.Info("Stream connected", slog.Int("subs", len(w.symbols)))
	return nil
}

func (w *StreamWorker) subscribe() error {
	params := make([]string, 0, len(w.symbols))
	for _, s := range w.symbols {
		params = append(params, strings.ToLower(s)+"@miniTicker")
	}

	req := subscribeRequest{Method: "SUBSCRIBE", Params: params, ID: 1}
	msgBytes, err := json.Marshal(req)
	if err != nil {
		return err
	}

	return w.threadSafeWrite(websocket.TextMessage, msgBytes)
}

func (w *StreamWorker) threadSafeWrite(messageType int, data []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	w.mu.RLock()
	conn := w.conn
	w.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("connection is nil")
	}

	return conn.WriteMessage(messageType, data)
}

func (w *StreamWorker) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Stream pingLoop panic recovered", slog.Any("panic", r))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.threadSafeWrite(websocket.PingMessage, nil); err != nil {
				slog.Warn("Stream ping failed", slog.Any("error", err))
			}
		}
	}
}

func (w *StreamWorker) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		w.mu.RLock()
		conn := w.conn
		w.mu.RUnlock()

		if conn == nil {
			return
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("Stream read error", slog.Any("error", err))
			}
			w.closeConnection()
			return
		}

		w.handleMessage(message)
	}
}

func (w *StreamWorker) handleMessage(message []byte) {
	var ev miniTickerEvent
	if err := json.Unmarshal(message, &ev); err != nil {
		return
	}
	if ev.EventType != "24hrMiniTicker" {
		return // subscription acks and other control frames
	}

	tick, ok := ev.toTick()
	if !ok {
		return
	}

	select {
	case w.inbox <- tick:
	default:
		// Never block the socket on a slow consumer.
		infra.GlobalMetrics.RecordTickDropped()
		slog.Debug("Tick inbox full, dropping", slog.String("symbol", tick.Symbol))
	}
}

func (w *StreamWorker) closeConnection() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pingCancel != nil {
		w.pingCancel()
		w.pingCancel = nil
	}
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}
	w.connected = false
	infra.GlobalMetrics.SetStreamConnected(false)
}

// Disconnect closes the connection
func (w *StreamWorker) Disconnect() {
	if w.cancel != nil {
		w.cancel()
	}
	w.closeConnection()
	w.wg.Wait()
	slog.Info("Stream disconnected")
}

// IsConnected returns connection status
func (w *StreamWorker) IsConnected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.connected
}
