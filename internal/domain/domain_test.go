package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestTimeframe_Valid(t *testing.T) {
	for _, tf := range []Timeframe{Timeframe1m, Timeframe5m, Timeframe15m, Timeframe1h, Timeframe4h, Timeframe1d} {
		if !tf.Valid() {
			t.Errorf("%s should be valid", tf)
		}
	}
	for _, tf := range []Timeframe{"", "2w", "1M", "30s"} {
		if tf.Valid() {
			t.Errorf("%q should be invalid", tf)
		}
	}
}

func TestTimeframe_DampingMonotonic(t *testing.T) {
	// Longer horizons must never be damped harder than shorter ones.
	ordered := []Timeframe{Timeframe1m, Timeframe5m, Timeframe15m, Timeframe1h, Timeframe4h, Timeframe1d}
	for i := 1; i < len(ordered); i++ {
		if ordered[i].DampingWeight() <= ordered[i-1].DampingWeight() {
			t.Errorf("DampingWeight(%s) <= DampingWeight(%s)", ordered[i], ordered[i-1])
		}
		if ordered[i].ProfitMultiplier() <= ordered[i-1].ProfitMultiplier() {
			t.Errorf("ProfitMultiplier(%s) <= ProfitMultiplier(%s)", ordered[i], ordered[i-1])
		}
	}
}

func TestTimeframe_UnknownFallsBackToShortest(t *testing.T) {
	unknown := Timeframe("3w")
	if unknown.DampingWeight() != Timeframe1m.DampingWeight() {
		t.Error("Unknown timeframe should damp like the shortest")
	}
	if unknown.ProfitMultiplier() != Timeframe1m.ProfitMultiplier() {
		t.Error("Unknown timeframe should target like the shortest")
	}
}

func TestIsRetriable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"transport error", NewTransportError("get", "http://x", 503, nil), true},
		{"decode error", NewDecodeError("http://x", errors.New("bad json")), false},
		{"config error", &ConfigError{Field: "url", Err: errors.New("missing")}, false},
		{"plain error", errors.New("whatever"), false},
		{"wrapped transport error", fmt.Errorf("context: %w", NewTransportError("get", "http://x", 0, errors.New("refused"))), true},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetriable(tt.err); got != tt.want {
				t.Errorf("IsRetriable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestTransportError_Message(t *testing.T) {
	err := NewTransportError("get", "http://api/x", 502, nil)
	want := "get http://api/x: status 502"
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}
}
