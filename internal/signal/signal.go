// Package signal combines the regime, intraday, chop, time-of-day and
// volatility views into one directional signal per bar. Evaluation is a
// pure function of the input snapshots plus static configuration.
package signal

import (
	"context"
	"fmt"
	"math"

	"odte-trader/internal/store"
	"odte-trader/internal/timefilter"
	"odte-trader/internal/types"
)

type Engine struct {
	cfg    *store.Config
	filter *timefilter.Filter
}

func New(cfg *store.Config) *Engine {
	return &Engine{cfg: cfg, filter: timefilter.New(cfg)}
}

// Evaluate scores one bar. Adjustments run in a fixed order: chop cap,
// time-of-day multiplier, regime permission, volatility environment, then
// the strict options-mode verdict. A signal failing strict mode keeps its
// direction and confidence but is flagged non-tradeable; callers branch on
// Tradeable, not on confidence alone.
func (e *Engine) Evaluate(ctx context.Context, in types.SignalInput) types.Signal {
	_ = ctx

	sig := types.Signal{
		Direction:  types.DirNone,
		Confidence: types.ConfNone,
		Ts:         in.At,
	}
	if in.Regime != nil {
		sig.Permission = in.Regime.Permission
	}

	callHits, putHits := e.score(in)
	switch {
	case len(callHits) > len(putHits):
		sig.Direction = types.DirCall
		sig.Confidence = gradeConfidence(len(callHits))
		sig.Rationale = callHits
	case len(putHits) > len(callHits):
		sig.Direction = types.DirPut
		sig.Confidence = gradeConfidence(len(putHits))
		sig.Rationale = putHits
	default:
		sig.Rationale = []string{"mixed signals, no clear bias"}
	}
	if sig.Confidence == types.ConfNone {
		sig.Direction = types.DirNone
	}

	// Chop cap: choppy tape never carries better than MEDIUM.
	if in.Chop.IsChoppy && sig.Confidence > types.ConfMedium {
		sig.Confidence = types.ConfMedium
		sig.Rationale = append(sig.Rationale, "choppy market, confidence capped")
	}

	dec := e.filter.Evaluate(in.At)
	sig.AllowTrade = dec.Allow
	if !dec.Allow {
		sig.Rationale = append(sig.Rationale, dec.Label)
	} else if dec.Multiplier != 1.0 {
		adj := timefilter.Adjust(sig.Confidence, dec.Multiplier)
		if adj != sig.Confidence {
			sig.Rationale = append(sig.Rationale, dec.Label)
		}
		sig.Confidence = adj
	}

	sig = e.applyEnvironment(sig, in)
	sig.Tradeable = e.strictVerdict(&sig, in)
	return sig
}

// score evaluates the four bullish and four bearish alignment conditions.
// The matched condition names become the signal rationale.
func (e *Engine) score(in types.SignalInput) (call, put []string) {
	trend := types.TrendNeutral
	if in.Regime != nil {
		trend = in.Regime.Trend
	}
	id := in.Intraday

	if trend == types.TrendBullish {
		call = append(call, "bullish daily trend")
	}
	if id.MicroTrend == types.MicroUp {
		call = append(call, "micro trend up")
	}
	if id.Price > id.VWAP {
		call = append(call, "price above VWAP")
	}
	if id.Return5 > 0 {
		call = append(call, "positive 5-bar return")
	}

	if trend == types.TrendBearish {
		put = append(put, "bearish daily trend")
	}
	if id.MicroTrend == types.MicroDown {
		put = append(put, "micro trend down")
	}
	if id.Price < id.VWAP {
		put = append(put, "price below VWAP")
	}
	if id.Return5 < 0 {
		put = append(put, "negative 5-bar return")
	}
	return call, put
}

func gradeConfidence(hits int) types.Confidence {
	switch {
	case hits >= 4:
		return types.ConfHigh
	case hits == 3:
		return types.ConfMedium
	case hits == 2:
		return types.ConfLow
	default:
		return types.ConfNone
	}
}

// applyEnvironment folds the regime permission and the volatility context
// into the graded confidence. AVOID is terminal: it pins confidence to LOW
// and skips the volatility adjustment entirely.
func (e *Engine) applyEnvironment(sig types.Signal, in types.SignalInput) types.Signal {
	if sig.Direction == types.DirNone {
		return sig
	}

	if sig.Permission == types.PermAvoid {
		sig.Confidence = types.ConfLow
		sig.Rationale = append(sig.Rationale, "0DTE AVOID regime")
		return sig
	}
	if sig.Permission == types.PermFavorable && sig.Confidence == types.ConfMedium {
		sig.Confidence = types.ConfHigh
		sig.Rationale = append(sig.Rationale, "0DTE FAVORABLE regime")
	}

	// Both readings are required; a partial context skips the adjustment.
	if in.Vol.ATMIV == nil || in.Vol.VIXLevel == nil {
		return sig
	}
	iv, vix := *in.Vol.ATMIV, *in.Vol.VIXLevel
	switch {
	case iv < 15 && vix < 15:
		if sig.Confidence == types.ConfMedium {
			sig.Confidence = types.ConfLow
			sig.Rationale = append(sig.Rationale, "low IV, calm environment")
		}
	case iv > 20 || vix > 20:
		if sig.Confidence == types.ConfMedium {
			sig.Confidence = types.ConfHigh
		}
		sig.Rationale = append(sig.Rationale, "high IV, elevated volatility")
	}
	return sig
}

// strictVerdict decides the options-mode tradeable flag. With strict mode
// off every directional signal is tradeable. With it on, the signal must
// clear all gates at once; the first miss is recorded in the rationale.
func (e *Engine) strictVerdict(sig *types.Signal, in types.SignalInput) bool {
	if sig.Direction == types.DirNone {
		return false
	}
	if !e.cfg.Options.StrictMode {
		return true
	}

	if sig.Permission != types.PermFavorable {
		sig.Rationale = append(sig.Rationale,
			fmt.Sprintf("options mode: requires FAVORABLE regime (current %s)", sig.Permission))
		return false
	}
	if sig.Confidence != types.ConfHigh {
		sig.Rationale = append(sig.Rationale,
			fmt.Sprintf("options mode: requires HIGH confidence (current %s)", sig.Confidence))
		return false
	}
	if math.Abs(in.Intraday.Return5) < e.cfg.Options.MinMovePct {
		sig.Rationale = append(sig.Rationale,
			fmt.Sprintf("options mode: requires %.1f%%+ move (current %.2f%%)",
				e.cfg.Options.MinMovePct, in.Intraday.Return5))
		return false
	}
	if in.Vol.ATMIV != nil && *in.Vol.ATMIV < e.cfg.Options.MinIVPct {
		sig.Rationale = append(sig.Rationale,
			fmt.Sprintf("options mode: IV too low (%.1f%% < %.1f%%)",
				*in.Vol.ATMIV, e.cfg.Options.MinIVPct))
		return false
	}
	return true
}
