package analytics

import (
	"math"
	"sort"
	"time"

	"marketpulse/internal/domain"
)

// minCorrelationPoints is the minimum number of matched percentage-change
// points required before a correlation is considered defined.
const minCorrelationPoints = 5

// Correlation computes the Pearson correlation of percentage price changes
// between a symbol's candles and a reference asset's candles, aligned by
// open time, scaled to -100..100.
//
// Fewer than 5 matched change points yields 0: an undefined correlation is
// treated as "no relationship", not an error.
func Correlation(candles, reference []domain.Candle) float64 {
	ref := make(map[time.Time]float64, len(reference))
	for _, c := range reference {
		ref[c.OpenTime] = c.Close
	}

	type pair struct {
		at   time.Time
		a, b float64
	}
	matched := make([]pair, 0, len(candles))
	for _, c := range candles {
		if rc, ok := ref[c.OpenTime]; ok {
			matched = append(matched, pair{at: c.OpenTime, a: c.Close, b: rc})
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].at.Before(matched[j].at) })

	// Percentage changes between consecutive aligned closes.
	var xs, ys []float64
	for i := 1; i < len(matched); i++ {
		if matched[i-1].a == 0 || matched[i-1].b == 0 {
			continue
		}
		xs = append(xs, (matched[i].a-matched[i-1].a)/matched[i-1].a*100)
		ys = append(ys, (matched[i].b-matched[i-1].b)/matched[i-1].b*100)
	}
	if len(xs) < minCorrelationPoints {
		return 0
	}

	r := pearson(xs, ys)
	if math.IsNaN(r) {
		return 0
	}
	return Clamp(r*100, -100, 100)
}

func pearson(xs, ys []float64) float64 {
	n := float64(len(xs))
	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var cov, varX, varY float64
	for i := range xs {
		dx, dy := xs[i]-meanX, ys[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(varX*varY)
}
