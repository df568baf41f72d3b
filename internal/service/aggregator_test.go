package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"marketpulse/internal/analytics"
	"marketpulse/internal/domain"
)

const testWindow = 50 * time.Millisecond

func newTestAggregator() *TickAggregator {
	return NewTickAggregator(testWindow, domain.Timeframe1m, analytics.DefaultLiquidityBounds())
}

// batchCollector records delivered batches for assertions.
type batchCollector struct {
	mu      sync.Mutex
	batches [][]domain.MarketRecord
}

func (c *batchCollector) collect(records []domain.MarketRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches = append(c.batches, records)
}

func (c *batchCollector) all() [][]domain.MarketRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]domain.MarketRecord, len(c.batches))
	copy(out, c.batches)
	return out
}

func tick(symbol string, price float64) domain.Tick {
	return domain.Tick{Symbol: symbol, Price: price, At: time.Now()}
}

func TestAggregator_LatestTickPerSymbolWins(t *testing.T) {
	agg := newTestAggregator()
	col := &batchCollector{}
	agg.Subscribe([]string{"BTCUSDT", "ETHUSDT"}, col.collect)

	// Three ticks inside one window, two for the same symbol.
	agg.Ingest(tick("BTCUSDT", 100))
	agg.Ingest(tick("ETHUSDT", 10))
	agg.Ingest(tick("BTCUSDT", 105))

	time.Sleep(3 * testWindow)

	batches := col.all()
	if len(batches) != 1 {
		t.Fatalf("Expected exactly 1 flush, got %d", len(batches))
	}
	records := batches[0]
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	// Records are sorted by symbol.
	if records[0].Symbol != "BTCUSDT" || records[0].Price != 105 {
		t.Errorf("Expected latest BTCUSDT price 105, got %+v", records[0])
	}
	if records[1].Symbol != "ETHUSDT" || records[1].Price != 10 {
		t.Errorf("Expected ETHUSDT price 10, got %+v", records[1])
	}
}

func TestAggregator_DropsUnsubscribedSymbols(t *testing.T) {
	agg := newTestAggregator()
	col := &batchCollector{}
	agg.Subscribe([]string{"BTCUSDT"}, col.collect)

	agg.Ingest(tick("DOGEUSDT", 0.1))

	time.Sleep(3 * testWindow)
	if len(col.all()) != 0 {
		t.Error("Tick for unsubscribed symbol must not trigger a flush")
	}
}

func TestAggregator_UnsubscribeDropsBufferedTicks(t *testing.T) {
	agg := newTestAggregator()
	col := &batchCollector{}
	agg.Subscribe([]string{"BTCUSDT"}, col.collect)

	agg.Ingest(tick("BTCUSDT", 100))
	agg.UnsubscribeAll()

	// The pending window must not fire a final partial batch.
	time.Sleep(3 * testWindow)
	if got := len(col.all()); got != 0 {
		t.Errorf("Expected no flush after unsubscribe, got %d", got)
	}

	// And later ticks are discarded outright.
	agg.Ingest(tick("BTCUSDT", 101))
	time.Sleep(3 * testWindow)
	if got := len(col.all()); got != 0 {
		t.Errorf("Expected no flush without subscription, got %d", got)
	}
}

func TestAggregator_SubscribeReplaces(t *testing.T) {
	agg := newTestAggregator()
	first := &batchCollector{}
	second := &batchCollector{}

	agg.Subscribe([]string{"BTCUSDT"}, first.collect)
	agg.Ingest(tick("BTCUSDT", 100))

	agg.Subscribe([]string{"ETHUSDT"}, second.collect)
	agg.Ingest(tick("ETHUSDT", 10))

	time.Sleep(3 * testWindow)

	if got := len(first.all()); got != 0 {
		t.Errorf("Replaced subscription must not receive batches, got %d", got)
	}
	batches := second.all()
	if len(batches) != 1 || len(batches[0]) != 1 || batches[0][0].Symbol != "ETHUSDT" {
		t.Errorf("Expected one ETHUSDT batch, got %+v", batches)
	}
}

func TestAggregator_InboxDelivery(t *testing.T) {
	agg := newTestAggregator()
	col := &batchCollector{}
	agg.Subscribe([]string{"BTCUSDT"}, col.collect)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	agg.Start(ctx)
	defer agg.Stop()

	agg.Inbox() <- tick("BTCUSDT", 100)

	deadline := time.After(2 * time.Second)
	for {
		if len(col.all()) == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("Timed out waiting for a flush via inbox")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestAggregator_SupersededTimerFireIsIgnored(t *testing.T) {
	agg := newTestAggregator()
	col := &batchCollector{}
	agg.Subscribe([]string{"BTCUSDT"}, col.collect)

	agg.Ingest(tick("BTCUSDT", 100))
	agg.Ingest(tick("BTCUSDT", 101))

	agg.mu.Lock()
	gen, seq := agg.gen, agg.seq
	agg.mu.Unlock()

	// A fire from the first arm can lose the race against the second tick's
	// re-arm and only reach the lock afterwards. It must not deliver the new
	// window's buffer ahead of its debounce.
	agg.flush(gen, seq-1)
	if got := len(col.all()); got != 0 {
		t.Fatalf("Superseded timer fire delivered a batch: %d", got)
	}

	time.Sleep(3 * testWindow)
	batches := col.all()
	if len(batches) != 1 {
		t.Fatalf("Expected exactly 1 flush from the live timer, got %d", len(batches))
	}
	if batches[0][0].Price != 101 {
		t.Errorf("Expected latest price 101, got %v", batches[0][0].Price)
	}
}

func TestAggregator_DebounceExtendsWindow(t *testing.T) {
	agg := newTestAggregator()
	col := &batchCollector{}
	agg.Subscribe([]string{"BTCUSDT"}, col.collect)

	// Keep feeding ticks faster than the window elapses.
	for i := 0; i < 4; i++ {
		agg.Ingest(tick("BTCUSDT", float64(100+i)))
		time.Sleep(testWindow / 2)
	}
	time.Sleep(3 * testWindow)

	batches := col.all()
	if len(batches) != 1 {
		t.Fatalf("Expected a single debounced flush, got %d", len(batches))
	}
	if batches[0][0].Price != 103 {
		t.Errorf("Expected final price 103, got %v", batches[0][0].Price)
	}
}
