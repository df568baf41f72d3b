package analytics

import (
	"math"
	"testing"
	"time"

	"marketpulse/internal/domain"
)

// candlesFromCloses builds a minute-spaced candle series from close prices.
func candlesFromCloses(start time.Time, closes ...float64) []domain.Candle {
	out := make([]domain.Candle, len(closes))
	for i, c := range closes {
		open := start.Add(time.Duration(i) * time.Minute)
		out[i] = domain.Candle{
			OpenTime:  open,
			CloseTime: open.Add(time.Minute),
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
		}
	}
	return out
}

// applyChanges grows a close series from a start price by percentage steps.
func applyChanges(start float64, changes []float64) []float64 {
	closes := []float64{start}
	price := start
	for _, ch := range changes {
		price *= 1 + ch/100
		closes = append(closes, price)
	}
	return closes
}

func TestRSI_InsufficientData(t *testing.T) {
	// 14 closes provide only 13 changes; the indicator needs period+1.
	closes := make([]float64, 14)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	if got := RSI(closes, RSIPeriod); got != 50 {
		t.Errorf("Expected exact neutral 50, got %v", got)
	}
	if got := RSI(nil, RSIPeriod); got != 50 {
		t.Errorf("Expected 50 on empty input, got %v", got)
	}
}

func TestRSI_AllGains(t *testing.T) {
	closes := make([]float64, 15)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	if got := RSI(closes, RSIPeriod); got != 100 {
		t.Errorf("Expected 100 for monotonic gains, got %v", got)
	}
}

func TestRSI_Balanced(t *testing.T) {
	// Alternating +1/-1 moves: average gain equals average loss.
	closes := make([]float64, 15)
	closes[0] = 100
	for i := 1; i < len(closes); i++ {
		if i%2 == 1 {
			closes[i] = closes[i-1] + 1
		} else {
			closes[i] = closes[i-1] - 1
		}
	}

	got := RSI(closes, RSIPeriod)
	if math.Abs(got-50) > 1e-9 {
		t.Errorf("Expected 50 for balanced moves, got %v", got)
	}
}

func TestCorrelation_Perfect(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	changes := []float64{1, 2, -1, 3, 0.5, -2}

	candles := candlesFromCloses(start, applyChanges(100, changes)...)
	// Reference moves twice as hard in the same direction each step.
	doubled := make([]float64, len(changes))
	for i, ch := range changes {
		doubled[i] = 2 * ch
	}
	reference := candlesFromCloses(start, applyChanges(50, doubled)...)

	got := Correlation(candles, reference)
	if math.Abs(got-100) > 1e-6 {
		t.Errorf("Expected ~100 for co-moving series, got %v", got)
	}
}

func TestCorrelation_Inverse(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	changes := []float64{1, 2, -1, 3, 0.5, -2}
	negated := make([]float64, len(changes))
	for i, ch := range changes {
		negated[i] = -ch
	}

	candles := candlesFromCloses(start, applyChanges(100, changes)...)
	reference := candlesFromCloses(start, applyChanges(50, negated)...)

	got := Correlation(candles, reference)
	if math.Abs(got+100) > 1e-6 {
		t.Errorf("Expected ~-100 for inverse series, got %v", got)
	}
}

func TestCorrelation_InsufficientOverlap(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	candles := candlesFromCloses(start, 100, 101, 102, 103, 104)
	// Reference opens an hour later: zero aligned timestamps.
	reference := candlesFromCloses(start.Add(time.Hour), 50, 51, 52, 53, 54)

	if got := Correlation(candles, reference); got != 0 {
		t.Errorf("Expected 0 without overlap, got %v", got)
	}
	if got := Correlation(candles, candles[:4]); got != 0 {
		t.Errorf("Expected 0 with too few matched points, got %v", got)
	}
}

func TestVelocity_InsufficientCandles(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	v, trend := Velocity(candlesFromCloses(start, 100, 101))
	if v != 0 || trend != domain.TrendStable {
		t.Errorf("Expected {0, stable}, got {%v, %s}", v, trend)
	}
}

func TestVelocity_Trends(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		closes    []float64
		wantV     float64
		wantTrend domain.VelocityTrend
	}{
		{"accelerating", []float64{100, 101, 103}, 2.0 / 60, domain.TrendAccelerating},
		{"decelerating", []float64{100, 103, 104}, 1.0 / 60, domain.TrendDecelerating},
		{"stable", []float64{100, 101, 102}, 1.0 / 60, domain.TrendStable},
		{"falling accelerates too", []float64{100, 99, 97}, -2.0 / 60, domain.TrendAccelerating},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, trend := Velocity(candlesFromCloses(start, tt.closes...))
			if math.Abs(v-tt.wantV) > 1e-9 {
				t.Errorf("velocity = %v, want %v", v, tt.wantV)
			}
			if trend != tt.wantTrend {
				t.Errorf("trend = %s, want %s", trend, tt.wantTrend)
			}
		})
	}
}

func TestDetectBreakout(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// 10 uniform candles: band 90..110, avg range 20, threshold 20/3.
	band := make([]domain.Candle, 10)
	for i := range band {
		open := start.Add(time.Duration(i) * time.Minute)
		band[i] = domain.Candle{
			OpenTime:  open,
			CloseTime: open.Add(time.Minute),
			Open:      100,
			High:      110,
			Low:       90,
			Close:     100,
		}
	}

	if got := DetectBreakout(120, band[:9]); got != nil {
		t.Errorf("Expected nil with fewer than 10 candles, got %+v", got)
	}

	up := DetectBreakout(117, band)
	if up == nil || up.Direction != domain.BreakoutResistance || up.Level != 110 {
		t.Errorf("Expected resistance breakout at 110, got %+v", up)
	}

	down := DetectBreakout(83, band)
	if down == nil || down.Direction != domain.BreakoutSupport || down.Level != 90 {
		t.Errorf("Expected support breakout at 90, got %+v", down)
	}

	// Inside the band, and inside the noise threshold above the band.
	if got := DetectBreakout(105, band); got != nil {
		t.Errorf("Expected nil inside band, got %+v", got)
	}
	if got := DetectBreakout(112, band); got != nil {
		t.Errorf("Expected nil inside noise threshold, got %+v", got)
	}
}
