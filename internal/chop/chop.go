// Package chop scores choppiness over a trailing window: VWAP cross count,
// EMA slope flatness, and ATR as a fraction of price. Choppy periods cap
// signal confidence downstream.
package chop

import (
	"math"

	"odte-trader/internal/store"
	"odte-trader/internal/ta"
	"odte-trader/internal/types"
)

type Detector struct {
	cfg *store.Config
}

func New(cfg *store.Config) *Detector {
	return &Detector{cfg: cfg}
}

// Score assesses the market state as of the last element of bars. The vwap
// and EMA series must be aligned with bars. With fewer bars than the
// lookback window the market is treated as not choppy; there is not enough
// evidence either way.
func (d *Detector) Score(bars []types.Bar, vwap, emaFast, emaSlow []float64) types.ChopScore {
	lb := d.cfg.Chop.LookbackBars
	if len(bars) < lb || len(vwap) < lb {
		return types.ChopScore{}
	}

	crosses := countVWAPCrosses(bars, vwap, lb)
	flatness := math.Max(slope(emaFast, lb), slope(emaSlow, lb))
	atrPct, atrOK := d.atrPct(bars)

	choppy := crosses >= d.cfg.Chop.CrossThreshold ||
		flatness < d.cfg.Chop.EMAFlatPct/100.0 ||
		(atrOK && atrPct < d.cfg.Chop.ATRMinPct/100.0)

	return types.ChopScore{
		VWAPCrossesPerHour: crosses,
		EMAFlatness:        flatness,
		ATRPct:             atrPct,
		IsChoppy:           choppy,
	}
}

// countVWAPCrosses counts sign changes of price-above-VWAP over the last
// window bars. The first bar of the window is the baseline and does not
// count as a cross.
func countVWAPCrosses(bars []types.Bar, vwap []float64, window int) int {
	start := len(bars) - window
	crosses := 0
	prevAbove := bars[start].Close > vwap[start]
	for i := start + 1; i < len(bars); i++ {
		above := bars[i].Close > vwap[i]
		if above != prevAbove {
			crosses++
		}
		prevAbove = above
	}
	return crosses
}

// slope is the absolute fractional change of a series over the last window
// bars. A zero starting value makes the slope 0, never NaN.
func slope(series []float64, window int) float64 {
	if len(series) < window {
		return 0
	}
	first := series[len(series)-window]
	last := series[len(series)-1]
	if first == 0 {
		return 0
	}
	return math.Abs((last - first) / first)
}

// atrPct is the rolling-mean true range over the ATR period expressed as a
// fraction of the latest close. With too little history for the ATR window
// the second return is false and the low-volatility clause is skipped.
func (d *Detector) atrPct(bars []types.Bar) (float64, bool) {
	n := len(bars)
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i, b := range bars {
		highs[i], lows[i], closes[i] = b.High, b.Low, b.Close
	}
	atr := ta.ATR(highs, lows, closes, d.cfg.Chop.ATRPeriod)
	price := closes[n-1]
	if math.IsNaN(atr) || price <= 0 {
		return 0, false
	}
	return atr / price, true
}
