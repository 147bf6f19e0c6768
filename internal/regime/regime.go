// Package regime classifies the daily timeframe: trend versus the moving
// averages, opening gap, session range, and the resulting 0DTE permission.
// A snapshot is derived once per trading day and never recomputed intraday.
package regime

import (
	"fmt"

	"odte-trader/internal/store"
	"odte-trader/internal/ta"
	"odte-trader/internal/types"
)

type Engine struct {
	cfg *store.Config
}

func New(cfg *store.Config) *Engine {
	return &Engine{cfg: cfg}
}

// Analyze builds the day's regime snapshot from the daily bar history and
// the current session's running prices. vix may be nil when no VIX data was
// available; that skips the hard-deck rule rather than failing.
//
// Fewer daily bars than the MA periods degrade gracefully (the average is
// taken over whatever is available); an empty history is a data gap.
func (e *Engine) Analyze(daily []types.Bar, today types.DaySummary, vix *float64) (*types.RegimeSnapshot, error) {
	if len(daily) == 0 {
		return nil, fmt.Errorf("regime: no daily bars: %w", types.ErrDataGap)
	}

	closes := make([]float64, len(daily))
	for i, b := range daily {
		closes[i] = b.Close
	}
	maShort := ta.TailMean(closes, e.cfg.Regime.MAShort)
	maLong := ta.TailMean(closes, e.cfg.Regime.MALong)
	latest := closes[len(closes)-1]

	var trend types.Trend
	switch {
	case latest > maShort && latest > maLong:
		trend = types.TrendBullish
	case latest < maShort:
		trend = types.TrendBearish
	default:
		trend = types.TrendNeutral
	}

	gapPct := 0.0
	if today.PrevClose > 0 {
		gapPct = (today.Open - today.PrevClose) / today.PrevClose * 100.0
	}
	rangePct := 0.0
	if today.Open > 0 {
		rangePct = (today.High - today.Low) / today.Open * 100.0
	}

	perm, reason := e.permission(gapPct, rangePct, vix)

	return &types.RegimeSnapshot{
		Trend:            trend,
		GapPct:           gapPct,
		RangePct:         rangePct,
		MAShort:          maShort,
		MALong:           maLong,
		LatestClose:      latest,
		Permission:       perm,
		PermissionReason: reason,
	}, nil
}

// permission runs the 0DTE decision tree in its fixed priority order. The
// VIX hard deck is evaluated only when a level is known; absence skips the
// rule, it is not a failure.
func (e *Engine) permission(gapPct, rangePct float64, vix *float64) (types.Permission, string) {
	if vix != nil && *vix <= e.cfg.Regime.VIXFloor {
		return types.PermAvoid, fmt.Sprintf("VIX %.1f at or below %.1f, too calm for 0DTE", *vix, e.cfg.Regime.VIXFloor)
	}
	if abs(gapPct) < e.cfg.Regime.GapSmallPct && rangePct < e.cfg.Regime.RangeLowPct {
		return types.PermAvoid, "small gap and low range, likely chop"
	}
	if rangePct > e.cfg.Regime.RangeHighPct {
		return types.PermFavorable, "volatile day, directional 0DTE OK"
	}
	return types.PermCaution, "mixed conditions"
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
