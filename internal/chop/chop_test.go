package chop

import (
	"testing"
	"time"

	"odte-trader/internal/store"
	"odte-trader/internal/types"
)

func barsFromCloses(closes []float64, span float64) []types.Bar {
	bars := make([]types.Bar, len(closes))
	base := time.Date(2025, 3, 10, 9, 45, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = types.Bar{
			Ts:     base.Add(time.Duration(i) * 5 * time.Minute),
			Open:   c,
			High:   c + span,
			Low:    c - span,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func constant(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestTrendingMarketIsNotChoppy(t *testing.T) {
	d := New(store.DefaultConfig())

	closes := make([]float64, 12)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	bars := barsFromCloses(closes, 0.5)
	score := d.Score(bars, constant(99, 12), closes, closes)

	if score.IsChoppy {
		t.Errorf("Expected trending market not choppy, got %+v", score)
	}
	if score.VWAPCrossesPerHour != 0 {
		t.Errorf("Expected 0 VWAP crosses, got %d", score.VWAPCrossesPerHour)
	}
}

func TestVWAPWhipsawIsChoppy(t *testing.T) {
	d := New(store.DefaultConfig())

	closes := make([]float64, 12)
	for i := range closes {
		if i%2 == 0 {
			closes[i] = 101
		} else {
			closes[i] = 99
		}
	}
	bars := barsFromCloses(closes, 0.5)
	// Steep EMA keeps the flatness clause out of the way.
	steep := make([]float64, 12)
	for i := range steep {
		steep[i] = 100 + float64(i)
	}
	score := d.Score(bars, constant(100, 12), steep, steep)

	if score.VWAPCrossesPerHour < 3 {
		t.Fatalf("Expected at least 3 crosses, got %d", score.VWAPCrossesPerHour)
	}
	if !score.IsChoppy {
		t.Errorf("Expected whipsaw market to be choppy, got %+v", score)
	}
}

func TestFlatEMAIsChoppy(t *testing.T) {
	d := New(store.DefaultConfig())

	closes := make([]float64, 12)
	for i := range closes {
		closes[i] = 101 // always above VWAP, no crosses
	}
	bars := barsFromCloses(closes, 0.5)
	score := d.Score(bars, constant(100, 12), constant(100, 12), constant(100, 12))

	if score.VWAPCrossesPerHour != 0 {
		t.Fatalf("Expected 0 crosses, got %d", score.VWAPCrossesPerHour)
	}
	if !score.IsChoppy {
		t.Errorf("Expected flat EMAs to read as choppy, got %+v", score)
	}
}

func TestLowATRIsChoppy(t *testing.T) {
	d := New(store.DefaultConfig())

	// Enough history for the ATR window, microscopic ranges.
	n := 20
	closes := make([]float64, n)
	steep := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.001
		steep[i] = 100 + float64(i)
	}
	bars := barsFromCloses(closes, 0.01)
	score := d.Score(bars, constant(99, n), steep, steep)

	if !score.IsChoppy {
		t.Errorf("Expected low-ATR market to be choppy, got %+v", score)
	}
	if score.ATRPct >= 0.002 {
		t.Errorf("Expected ATR%% below the minimum threshold, got %f", score.ATRPct)
	}
}

func TestShortWindowIsNeutral(t *testing.T) {
	d := New(store.DefaultConfig())

	closes := []float64{100, 101, 100, 101}
	bars := barsFromCloses(closes, 0.5)
	score := d.Score(bars, constant(100, 4), closes, closes)

	if score.IsChoppy {
		t.Error("Expected too-short window to be treated as not choppy")
	}
}
