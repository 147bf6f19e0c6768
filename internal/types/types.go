package types

import "time"

// Bar is one OHLCV sample at a fixed interval (daily or intraday).
// Bars are immutable once loaded and ordered by timestamp.
type Bar struct {
	Ts     time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Direction is the trade bias emitted by the signal engine. CALL and PUT
// both mean a purchased option; there are no short premium trades.
type Direction int

const (
	DirNone Direction = iota
	DirCall
	DirPut
)

func (d Direction) String() string {
	switch d {
	case DirCall:
		return "CALL"
	case DirPut:
		return "PUT"
	default:
		return "NONE"
	}
}

// Confidence is totally ordered: NONE < LOW < MEDIUM < HIGH. The integer
// values double as the numeric scale the time filter multiplies.
type Confidence int

const (
	ConfNone Confidence = iota
	ConfLow
	ConfMedium
	ConfHigh
)

func (c Confidence) String() string {
	switch c {
	case ConfLow:
		return "LOW"
	case ConfMedium:
		return "MEDIUM"
	case ConfHigh:
		return "HIGH"
	default:
		return "NONE"
	}
}

// Permission is the daily 0DTE trading permission from the regime engine.
type Permission int

const (
	PermCaution Permission = iota
	PermFavorable
	PermAvoid
)

func (p Permission) String() string {
	switch p {
	case PermFavorable:
		return "FAVORABLE"
	case PermAvoid:
		return "AVOID"
	default:
		return "CAUTION"
	}
}

// Trend is the daily-timeframe trend classification.
type Trend int

const (
	TrendNeutral Trend = iota
	TrendBullish
	TrendBearish
)

func (t Trend) String() string {
	switch t {
	case TrendBullish:
		return "Bullish"
	case TrendBearish:
		return "Bearish"
	default:
		return "Neutral"
	}
}

// MicroTrend is the intraday EMA/VWAP trend classification.
type MicroTrend int

const (
	MicroNeutral MicroTrend = iota
	MicroUp
	MicroDown
)

func (m MicroTrend) String() string {
	switch m {
	case MicroUp:
		return "Up"
	case MicroDown:
		return "Down"
	default:
		return "Neutral"
	}
}

// ExitReason records why a simulated trade closed. Exactly one is set per
// trade, checked in priority order TP, SL, TIME, EOD.
type ExitReason int

const (
	ExitTP ExitReason = iota
	ExitSL
	ExitTime
	ExitEOD
)

func (r ExitReason) String() string {
	switch r {
	case ExitTP:
		return "TP"
	case ExitSL:
		return "SL"
	case ExitTime:
		return "TIME"
	default:
		return "EOD"
	}
}

// VolSource tells downstream consumers where the volatility context came
// from, so proxy data is never mistaken for a live option chain.
type VolSource int

const (
	VolUnavailable VolSource = iota
	VolLive
	VolProxy
)

func (s VolSource) String() string {
	switch s {
	case VolLive:
		return "live"
	case VolProxy:
		return "proxy"
	default:
		return "unavailable"
	}
}

// RegimeSnapshot is the daily trend/gap/range classification plus the 0DTE
// permission. Derived once per trading day and never recomputed intraday.
type RegimeSnapshot struct {
	Trend            Trend      `json:"trend"`
	GapPct           float64    `json:"gap_pct"`
	RangePct         float64    `json:"range_pct"`
	MAShort          float64    `json:"ma_short"`
	MALong           float64    `json:"ma_long"`
	LatestClose      float64    `json:"latest_close"`
	Permission       Permission `json:"permission"`
	PermissionReason string     `json:"permission_reason"`
}

// DaySummary carries the current session's running prices plus the prior
// daily close, the inputs to gap and range classification.
type DaySummary struct {
	PrevClose float64
	Open      float64
	High      float64
	Low       float64
}

// IntradaySnapshot is recomputed per intraday bar.
type IntradaySnapshot struct {
	Price       float64    `json:"price"`
	VWAP        float64    `json:"vwap"`
	EMAFast     float64    `json:"ema_fast"`
	EMASlow     float64    `json:"ema_slow"`
	Return1     float64    `json:"return_1"`
	Return5     float64    `json:"return_5"`
	RealizedVol float64    `json:"realized_vol"`
	VWAPDistPct float64    `json:"distance_from_vwap_pct"`
	MicroTrend  MicroTrend `json:"micro_trend"`
}

// ChopScore is the choppiness assessment over a trailing window.
// EMAFlatness is the larger of the two EMA slopes, so "both flat" is
// equivalent to EMAFlatness being below the threshold.
type ChopScore struct {
	VWAPCrossesPerHour int     `json:"vwap_crosses_per_hour"`
	EMAFlatness        float64 `json:"ema_flatness"`
	ATRPct             float64 `json:"atr_pct"`
	IsChoppy           bool    `json:"is_choppy"`
}

// VolContext is the implied-volatility environment. Any field may be nil;
// consumers proceed without the corresponding adjustment.
type VolContext struct {
	ATMIV         *float64  `json:"atm_iv"`
	VIXLevel      *float64  `json:"vix_level"`
	VIXRank       *float64  `json:"vix_rank"`
	VIXPercentile *float64  `json:"vix_percentile"`
	Source        VolSource `json:"source"`
}

// Signal is the per-bar output of the signal engine. It is a pure function
// of the snapshots plus static configuration.
//
// AllowTrade is the time-of-day gate; Tradeable is the strict options-mode
// verdict. A discretionary signal (Tradeable=false) is still emitted with
// its direction and confidence intact so callers can display it; the
// backtest only enters on Tradeable && AllowTrade.
type Signal struct {
	Direction  Direction  `json:"direction"`
	Confidence Confidence `json:"confidence"`
	Permission Permission `json:"permission"`
	Rationale  []string   `json:"rationale"`
	AllowTrade bool       `json:"allow_trade"`
	Tradeable  bool       `json:"tradeable"`
	Ts         time.Time  `json:"timestamp"`
}

// SignalInput bundles everything the signal engine consumes for one bar.
type SignalInput struct {
	Regime   *RegimeSnapshot
	Intraday IntradaySnapshot
	Chop     ChopScore
	Vol      VolContext
	At       time.Time
}

// TradeRecord is immutable once the trade closes. The ordered sequence of
// records is the backtest's canonical regression artifact.
type TradeRecord struct {
	EntryTime       time.Time  `json:"entry_time"`
	ExitTime        time.Time  `json:"exit_time"`
	Direction       Direction  `json:"direction"`
	Confidence      Confidence `json:"confidence"`
	Permission      Permission `json:"permission"`
	Strike          float64    `json:"strike"`
	Contracts       int        `json:"contracts"`
	EntryUnderlying float64    `json:"entry_underlying"`
	ExitUnderlying  float64    `json:"exit_underlying"`
	EntryPrice      float64    `json:"entry_price"`
	ExitPrice       float64    `json:"exit_price"`
	TheoEntryPrice  float64    `json:"theoretical_entry_price"`
	TheoExitPrice   float64    `json:"theoretical_exit_price"`
	EntryIV         float64    `json:"entry_iv"`
	EntryDelta      float64    `json:"entry_delta"`
	PnL             float64    `json:"pnl"`
	RMultiple       float64    `json:"r_multiple"`
	Commissions     float64    `json:"commissions"`
	Slippage        float64    `json:"slippage"`
	ExitReason      ExitReason `json:"exit_reason"`
	Rationale       string     `json:"rationale"`
}

// EquityPoint is one sample of the running equity curve.
type EquityPoint struct {
	Ts     time.Time `json:"timestamp"`
	Equity float64   `json:"equity"`
}

// WindowStats is the per-entry-window performance breakdown.
type WindowStats struct {
	Window   string  `json:"window"`
	Trades   int     `json:"trades"`
	WinRate  float64 `json:"win_rate"`
	AvgR     float64 `json:"avg_r_multiple"`
	TotalPnL float64 `json:"total_pnl"`
}

// BacktestInput is the full in-memory dataset for one simulation run. All
// series are ordered by timestamp; VIXDaily may be empty, in which case the
// run proceeds without a volatility context.
type BacktestInput struct {
	Daily    []Bar
	Intraday []Bar
	VIXDaily []Bar
	Start    time.Time
	End      time.Time
}

// BacktestResult is the complete output of one simulation run.
type BacktestResult struct {
	Trades           []TradeRecord `json:"trades"`
	EquityCurve      []EquityPoint `json:"equity_curve"`
	NumTrades        int           `json:"num_trades"`
	WinRate          float64       `json:"win_rate"`
	TotalPnL         float64       `json:"total_pnl"`
	AvgWin           float64       `json:"avg_win"`
	AvgLoss          float64       `json:"avg_loss"`
	AvgRMultiple     float64       `json:"avg_r_multiple"`
	MaxDrawdown      float64       `json:"max_drawdown"`
	ProfitFactor     float64       `json:"profit_factor"`
	TotalCommissions float64       `json:"total_commissions"`
	TimeOfDay        []WindowStats `json:"time_analysis"`
	DaysProcessed    int           `json:"days_processed"`
	DaysSkipped      int           `json:"days_skipped"`
}
