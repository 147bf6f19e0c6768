// Package intraday computes the per-bar indicator state for one trading
// session: session-cumulative VWAP, fast/slow EMAs seeded from the prior
// session, short returns, realized volatility, and the micro trend.
package intraday

import (
	"fmt"
	"math"

	"odte-trader/internal/store"
	"odte-trader/internal/ta"
	"odte-trader/internal/types"
)

// PrevSession carries EMA state across the session boundary. The first bar
// of a new day seeds as alpha*open + (1-alpha)*prior EMA.
type PrevSession struct {
	EMAFast float64
	EMASlow float64
}

// Series holds full-session indicator series aligned with the input bars.
// VWAP and the EMAs are cumulative, so a prefix of the series is exactly
// the state an observer would have had at that bar.
type Series struct {
	VWAP    []float64
	EMAFast []float64
	EMASlow []float64
}

type Engine struct {
	cfg *store.Config
}

func New(cfg *store.Config) *Engine {
	return &Engine{cfg: cfg}
}

// Compute builds the session series from one day's bars. prev may be nil
// for the first session in a backtest.
func (e *Engine) Compute(bars []types.Bar, prev *PrevSession) Series {
	n := len(bars)
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i, b := range bars {
		highs[i], lows[i], closes[i], volumes[i] = b.High, b.Low, b.Close, b.Volume
	}

	var s Series
	s.VWAP = ta.VWAPSeries(highs, lows, closes, volumes)

	if n > 0 {
		fastSeed, slowSeed := seeds(bars[0].Open, prev, e.cfg.Intraday.EMAFast, e.cfg.Intraday.EMASlow)
		s.EMAFast = emaFromSeed(closes, e.cfg.Intraday.EMAFast, fastSeed)
		s.EMASlow = emaFromSeed(closes, e.cfg.Intraday.EMASlow, slowSeed)
	}
	return s
}

// seeds computes the session-open EMA values. With no prior session the
// EMAs start at the first close, the standard cold start.
func seeds(open float64, prev *PrevSession, fastN, slowN int) (*float64, *float64) {
	if prev == nil {
		return nil, nil
	}
	alphaF := 2.0 / (float64(fastN) + 1.0)
	alphaS := 2.0 / (float64(slowN) + 1.0)
	f := alphaF*open + (1-alphaF)*prev.EMAFast
	sl := alphaS*open + (1-alphaS)*prev.EMASlow
	return &f, &sl
}

// emaFromSeed runs the EMA recurrence with an explicit first value when a
// seed is present.
func emaFromSeed(closes []float64, n int, seed *float64) []float64 {
	if seed == nil {
		return ta.EMASeries(closes, n, nil)
	}
	out := make([]float64, len(closes))
	alpha := 2.0 / (float64(n) + 1.0)
	out[0] = *seed
	for i := 1; i < len(closes); i++ {
		out[i] = alpha*closes[i] + (1-alpha)*out[i-1]
	}
	return out
}

// Snapshot derives the indicator state as of bar index idx. All ratios
// guard zero denominators and return the neutral value instead of NaN.
func (e *Engine) Snapshot(bars []types.Bar, s Series, idx int) (types.IntradaySnapshot, error) {
	if idx < 0 || idx >= len(bars) {
		return types.IntradaySnapshot{}, fmt.Errorf("intraday: bar index %d out of range: %w", idx, types.ErrDataGap)
	}
	closes := make([]float64, idx+1)
	for i := 0; i <= idx; i++ {
		closes[i] = bars[i].Close
	}

	price := bars[idx].Close
	vwap := s.VWAP[idx]
	emaFast := s.EMAFast[idx]
	emaSlow := s.EMASlow[idx]

	distPct := 0.0
	if vwap > 0 {
		distPct = (price - vwap) / vwap * 100.0
	}

	snap := types.IntradaySnapshot{
		Price:       price,
		VWAP:        vwap,
		EMAFast:     emaFast,
		EMASlow:     emaSlow,
		Return1:     ta.PctChange(closes, 1),
		Return5:     ta.PctChange(closes, 5),
		RealizedVol: e.realizedVol(closes),
		VWAPDistPct: distPct,
		MicroTrend:  microTrend(price, emaFast, emaSlow, vwap),
	}
	return snap, nil
}

// realizedVol annualizes the standard deviation of 1-bar returns over the
// configured lookback: stddev * sqrt(bars_per_day * 252). Fewer than two
// returns yields 0.
func (e *Engine) realizedVol(closes []float64) float64 {
	if len(closes) < 3 {
		return 0
	}
	rets := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			rets = append(rets, 0)
			continue
		}
		rets = append(rets, (closes[i]-closes[i-1])/closes[i-1]*100.0)
	}
	n := e.cfg.Intraday.VolLookback
	if n > len(rets) {
		n = len(rets)
	}
	if n < 2 {
		return 0
	}
	sd := ta.StdDev(rets, n)
	if math.IsNaN(sd) {
		return 0
	}
	return sd * math.Sqrt(float64(e.cfg.Session.BarsPerDay)*252.0)
}

func microTrend(price, emaFast, emaSlow, vwap float64) types.MicroTrend {
	switch {
	case emaFast > emaSlow && price > vwap:
		return types.MicroUp
	case emaFast < emaSlow && price < vwap:
		return types.MicroDown
	default:
		return types.MicroNeutral
	}
}
