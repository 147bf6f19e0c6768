package types

import "errors"

// Recoverable per-bar failure classes. Components catch these at their
// boundary and substitute the documented neutral value; they never abort a
// backtest run. Configuration errors are the only fatal class and are
// reported by store.Config validation before simulation starts.
var (
	// ErrDataGap means missing or insufficient bars for a computation.
	// Contract: emit a NONE signal / skip the bar.
	ErrDataGap = errors.New("data gap: missing or insufficient bars")

	// ErrVolUnavailable means no IV/VIX data could be obtained.
	// Contract: proceed without the volatility adjustment.
	ErrVolUnavailable = errors.New("volatility context unavailable")

	// ErrDegenerateMath means a division by zero or a non-positive
	// time-to-expiry/volatility. Contract: return the defined fallback.
	ErrDegenerateMath = errors.New("degenerate math input")
)
