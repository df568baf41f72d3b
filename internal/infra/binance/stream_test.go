package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"marketpulse/internal/domain"
)

// newWSServer runs a minimal upgrade-and-drain WebSocket endpoint.
func newWSServer(t *testing.T) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestStreamWorker_CloseConnectionStopsPingLoop(t *testing.T) {
	w := NewStreamWorker(newWSServer(t), []string{"BTCUSDT"}, make(chan domain.Tick, 1))

	if err := w.connect(context.Background()); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	if !w.IsConnected() {
		t.Fatal("Expected connected state after connect")
	}

	// Each connection must tear down its own ping loop; otherwise every
	// reconnect would leave one more behind until shutdown.
	fired := make(chan struct{})
	w.mu.Lock()
	if w.pingCancel == nil {
		w.mu.Unlock()
		t.Fatal("Expected a per-connection ping cancel after connect")
	}
	orig := w.pingCancel
	w.pingCancel = func() { orig(); close(fired) }
	w.mu.Unlock()

	w.closeConnection()

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("closeConnection did not cancel the ping loop")
	}
	if w.IsConnected() {
		t.Error("Expected disconnected state")
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.pingCancel != nil {
		t.Error("Expected ping cancel to be cleared")
	}
}

func TestStreamWorker_PingLoopExitsOnCancel(t *testing.T) {
	w := NewStreamWorker("ws://unused", nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.pingLoop(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pingLoop did not stop on context cancel")
	}
}
