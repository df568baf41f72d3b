package service

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"marketpulse/internal/analytics"
	"marketpulse/internal/domain"
	"marketpulse/internal/infra"
)

// BatchFunc receives one normalized record batch per flush window.
type BatchFunc func([]domain.MarketRecord)

// TickAggregator coalesces streamed ticks into bounded-frequency record
// batches. Ticks buffered within one debounce window collapse to the latest
// value per symbol ("latest within window", not "every tick"); when the
// window elapses the buffer is normalized into MarketRecords and delivered
// to the subscriber in a single call.
//
// At most one subscription is active: Subscribe replaces, never stacks.
// One aggregator is constructed per consumer and passed explicitly.
type TickAggregator struct {
	window time.Duration
	tf     domain.Timeframe
	bounds analytics.LiquidityBounds
	inbox  chan domain.Tick
	logger *slog.Logger

	mu      sync.Mutex
	gen     uint64 // bumped on every (un)subscribe; stale timer fires no-op
	seq     uint64 // bumped on every timer arm; invalidates superseded arms
	symbols map[string]struct{}
	buf     map[string]domain.Tick
	timer   *time.Timer
	onBatch BatchFunc

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTickAggregator creates an aggregator flushing at most once per window.
// Tick-derived heuristics use tf for damping; the shortest timeframe is the
// honest choice for instantaneous data.
func NewTickAggregator(window time.Duration, tf domain.Timeframe, bounds analytics.LiquidityBounds) *TickAggregator {
	if window <= 0 {
		window = 100 * time.Millisecond
	}
	if !tf.Valid() {
		tf = domain.Timeframe1m
	}
	return &TickAggregator{
		window: window,
		tf:     tf,
		bounds: bounds,
		inbox:  make(chan domain.Tick, 2048),
		logger: slog.Default().With("module", "aggregator"),
	}
}

// Inbox returns the tick channel. The stream worker sends here.
func (a *TickAggregator) Inbox() chan<- domain.Tick {
	return a.inbox
}

// Start launches the inbox loop.
func (a *TickAggregator) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)
	a.wg.Add(1)
	go a.run(ctx)
}

func (a *TickAggregator) run(ctx context.Context) {
	defer a.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case tick := <-a.inbox:
			a.Ingest(tick)
		}
	}
}

// Stop halts the inbox loop and drops any active subscription.
func (a *TickAggregator) Stop() {
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()
	a.UnsubscribeAll()
}

// Subscribe ties the symbol set to a batch callback, replacing any prior
// subscription. Buffered ticks from the previous subscription are dropped,
// not flushed.
func (a *TickAggregator) Subscribe(symbols []string, onBatch BatchFunc) {
	set := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		set[s] = struct{}{}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.gen++
	a.stopTimerLocked()
	a.symbols = set
	a.buf = make(map[string]domain.Tick)
	a.onBatch = onBatch
	a.logger.Info("Subscribed", slog.Int("symbols", len(set)))
}

// UnsubscribeAll cancels the debounce timer and drops the buffer without a
// final partial flush. Idempotent.
func (a *TickAggregator) UnsubscribeAll() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gen++
	a.stopTimerLocked()
	a.symbols = nil
	a.buf = nil
	a.onBatch = nil
}

// Ingest buffers one tick and (re)arms the debounce timer. Ticks for
// unsubscribed symbols are discarded.
func (a *TickAggregator) Ingest(tick domain.Tick) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.onBatch == nil {
		infra.GlobalMetrics.RecordTickDropped()
		return
	}
	if _, ok := a.symbols[tick.Symbol]; !ok {
		infra.GlobalMetrics.RecordTickDropped()
		return
	}

	// Latest tick per symbol within the window wins.
	a.buf[tick.Symbol] = tick
	infra.GlobalMetrics.RecordTickIngested()

	// Arm a fresh timer rather than Reset: a timer that already fired may be
	// blocked on the mutex right now, and resetting it would leave an armed
	// orphan behind once flush nils the field. Each arm gets its own sequence
	// so superseded fires abort instead of flushing a later window early.
	if a.timer != nil {
		a.timer.Stop()
	}
	a.seq++
	gen, seq := a.gen, a.seq
	a.timer = time.AfterFunc(a.window, func() { a.flush(gen, seq) })
}

func (a *TickAggregator) flush(gen, seq uint64) {
	a.mu.Lock()
	if gen != a.gen || seq != a.seq || a.onBatch == nil || len(a.buf) == 0 {
		// Unsubscribed, resubscribed, or superseded by a later arm while the
		// timer fire was in flight.
		a.mu.Unlock()
		return
	}

	records := make([]domain.MarketRecord, 0, len(a.buf))
	for _, tick := range a.buf {
		records = append(records, analytics.DeriveFromTick(tick, a.tf, a.bounds))
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Symbol < records[j].Symbol })

	cb := a.onBatch
	a.buf = make(map[string]domain.Tick)
	a.timer = nil
	a.mu.Unlock()

	// One delivery per flush window, outside the lock.
	cb(records)
	infra.GlobalMetrics.RecordBatchFlushed(len(records))
}

func (a *TickAggregator) stopTimerLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}
