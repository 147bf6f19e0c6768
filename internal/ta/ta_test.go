package ta

import (
	"math"
	"testing"
)

func TestSMA(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5}
	if got := SMA(vals, 3); got != 4 {
		t.Errorf("Expected SMA 4, got %f", got)
	}
	if !math.IsNaN(SMA(vals, 6)) {
		t.Error("Expected NaN for insufficient data")
	}
}

func TestTailMeanDegradesGracefully(t *testing.T) {
	vals := []float64{2, 4}
	if got := TailMean(vals, 10); got != 3 {
		t.Errorf("Expected mean over available values 3, got %f", got)
	}
	if got := TailMean(nil, 10); got != 0 {
		t.Errorf("Expected 0 for empty slice, got %f", got)
	}
}

func TestEMASeries(t *testing.T) {
	vals := []float64{10, 10, 10}
	out := EMASeries(vals, 9, nil)
	for i, v := range out {
		if v != 10 {
			t.Errorf("Constant series EMA[%d]: expected 10, got %f", i, v)
		}
	}

	seed := 20.0
	out = EMASeries(vals, 9, &seed)
	alpha := 2.0 / 10.0
	want := alpha*10 + (1-alpha)*20
	if math.Abs(out[0]-want) > 1e-9 {
		t.Errorf("Seeded EMA[0]: expected %f, got %f", want, out[0])
	}
	if out[2] <= 10 || out[2] >= out[0] {
		t.Errorf("Seeded EMA must decay toward the data, got %v", out)
	}
}

func TestVWAPSeriesZeroVolume(t *testing.T) {
	highs := []float64{101, 103}
	lows := []float64{99, 101}
	closes := []float64{100, 102}
	out := VWAPSeries(highs, lows, closes, []float64{0, 0})

	if out[0] != 100 || out[1] != 102 {
		t.Errorf("Zero volume VWAP must fall back to typical price, got %v", out)
	}
}

func TestPctChange(t *testing.T) {
	vals := []float64{100, 110}
	if got := PctChange(vals, 1); math.Abs(got-10) > 1e-9 {
		t.Errorf("Expected 10%%, got %f", got)
	}
	if got := PctChange(vals, 5); got != 0 {
		t.Errorf("Expected 0 for short series, got %f", got)
	}
	if got := PctChange([]float64{0, 10}, 1); got != 0 {
		t.Errorf("Expected 0 for zero base, got %f", got)
	}
}

func TestATR(t *testing.T) {
	n := 15
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := range highs {
		highs[i], lows[i], closes[i] = 101, 99, 100
	}
	if got := ATR(highs, lows, closes, 14); math.Abs(got-2) > 1e-9 {
		t.Errorf("Expected ATR 2, got %f", got)
	}
	if !math.IsNaN(ATR(highs[:5], lows[:5], closes[:5], 14)) {
		t.Error("Expected NaN for insufficient history")
	}

	// Gap day: true range uses the previous close.
	highs[n-1], lows[n-1], closes[n-1] = 106, 105, 105
	got := ATR(highs, lows, closes, 14)
	if got <= 2 {
		t.Errorf("Expected gap to widen ATR above 2, got %f", got)
	}
}
