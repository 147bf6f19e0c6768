// Package vol assembles the implied-volatility context consumed by the
// regime and signal engines. Fetching option chains and VIX history is an
// external collaborator's job; this package only derives rank/percentile
// from a supplied close series and applies the proxy fallback chain. Every
// field is optional and absence never propagates as an error.
package vol

import "odte-trader/internal/types"

// Build derives the volatility context from an optional ATM implied vol
// (percent) and an optional VIX daily close history whose last element is
// the current level. Fallbacks, in order: live VIX history; ATM IV standing
// in for VIX with midpoint rank/percentile; nothing.
func Build(atmIV *float64, vixCloses []float64) types.VolContext {
	ctx := types.VolContext{ATMIV: atmIV, Source: types.VolUnavailable}

	valid := make([]float64, 0, len(vixCloses))
	for _, c := range vixCloses {
		if c > 0 {
			valid = append(valid, c)
		}
	}

	if len(valid) > 0 {
		level := valid[len(valid)-1]
		ctx.VIXLevel = &level
		ctx.Source = types.VolLive

		min, max := valid[0], valid[0]
		below := 0
		for _, c := range valid {
			if c < min {
				min = c
			}
			if c > max {
				max = c
			}
			if c <= level {
				below++
			}
		}
		if max > min {
			rank := (level - min) / (max - min)
			ctx.VIXRank = &rank
		}
		pct := float64(below) / float64(len(valid))
		ctx.VIXPercentile = &pct
		return ctx
	}

	if atmIV != nil && *atmIV > 0 {
		level := *atmIV
		mid := 0.5
		ctx.VIXLevel = &level
		ctx.VIXRank = &mid
		ctx.VIXPercentile = &mid
		ctx.Source = types.VolProxy
	}
	return ctx
}

// BuildForDay is the backtest variant: the VIX level comes from the given
// day's open when that bar exists (avoiding look-ahead into the close)
// while rank and percentile come from the trailing close history. atmIV is
// typically nil historically, so the day's VIX level doubles as the IV
// proxy for option pricing.
func BuildForDay(dayOpen *float64, trailingCloses []float64) types.VolContext {
	ctx := Build(nil, trailingCloses)
	if dayOpen != nil && *dayOpen > 0 {
		ctx.VIXLevel = dayOpen
	}
	if ctx.VIXLevel != nil {
		// Historical runs have no option chain; VIX stands in for ATM IV.
		ctx.ATMIV = ctx.VIXLevel
		ctx.Source = types.VolProxy
	}
	return ctx
}
