package service

import (
	"testing"
	"time"

	"marketpulse/internal/domain"
)

func TestRecordCache_LatestWins(t *testing.T) {
	cache := NewRecordCache()
	now := time.Now()

	cache.Upsert(domain.MarketRecord{Symbol: "BTCUSDT", Price: 100, UpdatedAt: now})
	cache.Upsert(domain.MarketRecord{Symbol: "BTCUSDT", Price: 105, UpdatedAt: now.Add(time.Second)})

	rec, ok := cache.Get("BTCUSDT")
	if !ok {
		t.Fatal("Expected cached record")
	}
	if rec.Price != 105 {
		t.Errorf("Expected latest price 105, got %v", rec.Price)
	}
	if cache.Len() != 1 {
		t.Errorf("Expected 1 symbol, got %d", cache.Len())
	}
}

func TestRecordCache_StaleRecordSkipped(t *testing.T) {
	cache := NewRecordCache()
	now := time.Now()

	cache.Upsert(domain.MarketRecord{Symbol: "BTCUSDT", Price: 105, UpdatedAt: now})
	// A late-arriving older record must not regress the view.
	cache.Upsert(domain.MarketRecord{Symbol: "BTCUSDT", Price: 100, UpdatedAt: now.Add(-time.Minute)})

	rec, _ := cache.Get("BTCUSDT")
	if rec.Price != 105 {
		t.Errorf("Stale record applied: got price %v", rec.Price)
	}
}

func TestRecordCache_ReplacesWholeRecord(t *testing.T) {
	cache := NewRecordCache()
	now := time.Now()

	rsi := 70.0
	cache.Upsert(domain.MarketRecord{Symbol: "BTCUSDT", RSI: &rsi, UpdatedAt: now})
	// The replacement has no RSI; it must not inherit the old one.
	cache.Upsert(domain.MarketRecord{Symbol: "BTCUSDT", UpdatedAt: now.Add(time.Second)})

	rec, _ := cache.Get("BTCUSDT")
	if rec.RSI != nil {
		t.Error("Partial fields must not be merged across records")
	}
}

func TestRecordCache_AllSorted(t *testing.T) {
	cache := NewRecordCache()
	now := time.Now()

	cache.Upsert(
		domain.MarketRecord{Symbol: "ETHUSDT", UpdatedAt: now},
		domain.MarketRecord{Symbol: "BTCUSDT", UpdatedAt: now},
		domain.MarketRecord{Symbol: "SOLUSDT", UpdatedAt: now},
	)

	all := cache.All()
	want := []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}
	if len(all) != len(want) {
		t.Fatalf("Expected %d records, got %d", len(want), len(all))
	}
	for i, sym := range want {
		if all[i].Symbol != sym {
			t.Errorf("Position %d: expected %s, got %s", i, sym, all[i].Symbol)
		}
	}
}
