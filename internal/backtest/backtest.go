// Package backtest replays the signal pipeline over historical bars and
// simulates 0DTE option trades with a realistic cost model. The simulator
// is single-threaded and deterministic: identical bars and configuration
// produce a byte-for-byte identical trade log.
package backtest

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"odte-trader/internal/chop"
	"odte-trader/internal/interfaces"
	"odte-trader/internal/intraday"
	"odte-trader/internal/logger"
	"odte-trader/internal/options"
	"odte-trader/internal/regime"
	"odte-trader/internal/store"
	"odte-trader/internal/types"
	"odte-trader/internal/vol"
)

type Engine struct {
	cfg      *store.Config
	signaler interfaces.Signaler
	regimes  *regime.Engine
	intra    *intraday.Engine
	chops    *chop.Detector

	sessionMin int
	endMin     int
	closeMin   int
	blockMin   int
}

func New(cfg *store.Config, signaler interfaces.Signaler) *Engine {
	return &Engine{
		cfg:        cfg,
		signaler:   signaler,
		regimes:    regime.New(cfg),
		intra:      intraday.New(cfg),
		chops:      chop.New(cfg),
		sessionMin: clockMin(cfg.Session.Start),
		endMin:     clockMin(cfg.Session.End),
		closeMin:   clockMin(cfg.Session.Close),
		blockMin:   clockMin(cfg.TimeFilter.BlockEntriesAfter),
	}
}

// position exists from entry to exit. At most one is open at any simulated
// instant.
type position struct {
	direction  types.Direction
	confidence types.Confidence
	permission types.Permission
	rationale  string
	entryTime  time.Time
	entryUnder float64
	entryFill  float64
	theoEntry  float64
	strike     float64
	sigma      float64
	delta      float64
}

// state is scoped to one run and never shared.
type state struct {
	equity        float64
	peakEquity    float64
	consecLosses  int
	cooldownUntil time.Time
	pos           *position
	trades        []types.TradeRecord
	curve         []types.EquityPoint
	commissions   float64
}

type daySlice struct {
	date time.Time
	bars []types.Bar
}

// Run walks the bar history in timestamp order. Per-day computation
// failures skip the day; only an unusable configuration aborts the run.
func (e *Engine) Run(ctx context.Context, in types.BacktestInput) (*types.BacktestResult, error) {
	loc, err := e.cfg.Location()
	if err != nil {
		return nil, err
	}

	st := &state{
		equity:     e.cfg.Backtest.StartingEquity,
		peakEquity: e.cfg.Backtest.StartingEquity,
	}
	res := &types.BacktestResult{}

	days := groupByDay(in.Intraday, loc)
	var prev *intraday.PrevSession
	for _, day := range days {
		if !in.Start.IsZero() && day.date.Before(dateOnly(in.Start.In(loc))) {
			continue
		}
		if !in.End.IsZero() && day.date.After(dateOnly(in.End.In(loc))) {
			continue
		}

		series, ok := e.runDay(ctx, day, in, st, prev, loc)
		if !ok {
			res.DaysSkipped++
			continue
		}
		res.DaysProcessed++
		if n := len(series.EMAFast); n > 0 {
			prev = &intraday.PrevSession{
				EMAFast: series.EMAFast[n-1],
				EMASlow: series.EMASlow[n-1],
			}
		}
	}

	e.finalize(res, st)
	return res, nil
}

// runDay processes one session. It returns the computed indicator series so
// the caller can carry the closing EMA state into the next session.
func (e *Engine) runDay(ctx context.Context, day daySlice, in types.BacktestInput, st *state, prev *intraday.PrevSession, loc *time.Location) (intraday.Series, bool) {
	bars := day.bars
	if len(bars) == 0 {
		return intraday.Series{}, false
	}

	// Loss streak and cooldown are day-scoped.
	st.consecLosses = 0
	st.cooldownUntil = time.Time{}

	dailyHist := dailyUpTo(in.Daily, day.date, loc)
	volCtx := e.volForDay(in.VIXDaily, day.date, loc)

	reg, err := e.regimes.Analyze(dailyHist, e.daySummary(dailyHist, bars), volCtx.VIXLevel)
	if err != nil {
		logger.Warn(ctx, "Regime analysis failed, day skipped",
			"day", day.date.Format("2006-01-02"), "error", err.Error())
		return intraday.Series{}, false
	}

	series := e.intra.Compute(bars, prev)

	var lastIdx = -1
	for i, bar := range bars {
		t := bar.Ts.In(loc)
		m := minuteOfDay(t)
		if m < e.sessionMin || m > e.closeMin {
			continue
		}
		lastIdx = i

		if st.pos != nil {
			e.checkExit(ctx, st, bar, t, m, false)
		}

		if st.pos == nil && m < e.blockMin {
			e.tryEnter(ctx, st, bars, series, i, reg, volCtx, t)
		}

		st.curve = append(st.curve, types.EquityPoint{Ts: bar.Ts, Equity: st.equity})
	}

	// Truncated data: close whatever is still open at the last real bar.
	if st.pos != nil && lastIdx >= 0 {
		bar := bars[lastIdx]
		t := bar.Ts.In(loc)
		e.checkExit(ctx, st, bar, t, minuteOfDay(t), true)
	}
	return series, true
}

func (e *Engine) tryEnter(ctx context.Context, st *state, bars []types.Bar, series intraday.Series, i int, reg *types.RegimeSnapshot, volCtx types.VolContext, t time.Time) {
	snap, err := e.intra.Snapshot(bars, series, i)
	if err != nil {
		return
	}
	score := e.chops.Score(bars[:i+1], series.VWAP[:i+1], series.EMAFast[:i+1], series.EMASlow[:i+1])

	sig := e.signaler.Evaluate(ctx, types.SignalInput{
		Regime:   reg,
		Intraday: snap,
		Chop:     score,
		Vol:      volCtx,
		At:       t,
	})

	if sig.Direction == types.DirNone || !sig.AllowTrade || !sig.Tradeable {
		return
	}
	if sig.Confidence < e.cfg.MinEntryConfidence() {
		return
	}
	if !st.cooldownUntil.IsZero() && t.Before(st.cooldownUntil) {
		logger.Risk(ctx, e.cfg.Symbol, "cooldown_block",
			"bar_time", t.Format(time.RFC3339),
			"cooldown_until", st.cooldownUntil.Format(time.RFC3339))
		return
	}
	if st.consecLosses >= e.cfg.Backtest.MaxConsecutiveLosses {
		logger.Risk(ctx, e.cfg.Symbol, "circuit_breaker",
			"bar_time", t.Format(time.RFC3339),
			"consecutive_losses", st.consecLosses)
		return
	}

	price := bars[i].Close
	strike := options.ATMStrike(price, sig.Direction, e.cfg.Options.StrikeSpacing)
	expiry := options.YearsToExpiry(t)
	sigma := e.sigma(volCtx)

	theo := options.Price(price, strike, expiry, e.cfg.Options.RiskFreeRate, sigma, sig.Direction)
	if theo <= 0 {
		return
	}

	// Simulated quote: cheap premium trades wide, clamped to 2-10%.
	spreadFrac := math.Max(0.02, math.Min(0.10, theo*0.5))
	bid := theo * (1 - spreadFrac/2)
	ask := theo * (1 + spreadFrac/2)
	if bid <= 0 || (ask-bid)/bid > e.cfg.Backtest.MaxSpreadPct/100 {
		// Spread veto fires before position creation; no cost is charged.
		return
	}

	fill := ask * (1 + e.cfg.Backtest.SlippagePct/100)
	st.pos = &position{
		direction:  sig.Direction,
		confidence: sig.Confidence,
		permission: sig.Permission,
		rationale:  strings.Join(sig.Rationale, "; "),
		entryTime:  bars[i].Ts,
		entryUnder: price,
		entryFill:  fill,
		theoEntry:  theo,
		strike:     strike,
		sigma:      sigma,
		delta:      options.Delta(price, strike, expiry, e.cfg.Options.RiskFreeRate, sigma, sig.Direction),
	}
}

// checkExit reprices the open position and closes it on the first exit rule
// that fires, in priority order TP, SL, TIME, EOD.
func (e *Engine) checkExit(ctx context.Context, st *state, bar types.Bar, t time.Time, m int, forceEOD bool) {
	pos := st.pos
	expiry := options.YearsToExpiry(t)
	theo := options.Price(bar.Close, pos.strike, expiry, e.cfg.Options.RiskFreeRate, pos.sigma, pos.direction)

	pnlPct := 0.0
	if pos.entryFill > 0 {
		pnlPct = (theo - pos.entryFill) / pos.entryFill
	}

	var reason types.ExitReason
	switch {
	case pnlPct >= e.cfg.Backtest.TPPct/100:
		reason = types.ExitTP
	case pnlPct <= -e.cfg.Backtest.SLPct/100:
		reason = types.ExitSL
	case m >= e.endMin:
		reason = types.ExitTime
	case m >= e.closeMin || forceEOD:
		reason = types.ExitEOD
	default:
		return
	}

	exitFill := theo * (1 - e.cfg.Backtest.SlippagePct/100)
	contracts := e.cfg.Backtest.Contracts
	commission := 2 * float64(contracts) * e.cfg.Backtest.CommissionPerContract
	pnl := (exitFill-pos.entryFill)*100*float64(contracts) - commission
	slippage := ((pos.entryFill - pos.theoEntry) + (theo - exitFill)) * 100 * float64(contracts)

	risk := pos.entryFill * (e.cfg.Backtest.SLPct / 100) * 100 * float64(contracts)
	rMultiple := 0.0
	if risk > 1e-9 {
		rMultiple = pnl / risk
	}

	st.equity += pnl
	if st.equity > st.peakEquity {
		st.peakEquity = st.equity
	}
	st.commissions += commission

	switch reason {
	case types.ExitSL:
		st.consecLosses++
		st.cooldownUntil = t.Add(time.Duration(e.cfg.Backtest.CooldownMinutes) * time.Minute)
	case types.ExitTP:
		st.consecLosses = 0
	}

	st.trades = append(st.trades, types.TradeRecord{
		EntryTime:       pos.entryTime,
		ExitTime:        bar.Ts,
		Direction:       pos.direction,
		Confidence:      pos.confidence,
		Permission:      pos.permission,
		Strike:          pos.strike,
		Contracts:       contracts,
		EntryUnderlying: pos.entryUnder,
		ExitUnderlying:  bar.Close,
		EntryPrice:      pos.entryFill,
		ExitPrice:       exitFill,
		TheoEntryPrice:  pos.theoEntry,
		TheoExitPrice:   theo,
		EntryIV:         pos.sigma * 100,
		EntryDelta:      pos.delta,
		PnL:             pnl,
		RMultiple:       rMultiple,
		Commissions:     commission,
		Slippage:        slippage,
		ExitReason:      reason,
		Rationale:       pos.rationale,
	})

	logger.Trade(ctx, e.cfg.Symbol, pos.direction.String(), contracts,
		pos.entryFill, exitFill, pnl, reason.String(),
		"strike", pos.strike,
		"entry_time", pos.entryTime.Format(time.RFC3339),
		"exit_time", bar.Ts.Format(time.RFC3339),
		"equity", st.equity,
	)

	st.pos = nil
}

// sigma picks the pricing volatility: ATM IV, then VIX, then the
// configured default, converted from percent to a fraction.
func (e *Engine) sigma(volCtx types.VolContext) float64 {
	if volCtx.ATMIV != nil && *volCtx.ATMIV > 0 {
		return *volCtx.ATMIV / 100
	}
	if volCtx.VIXLevel != nil && *volCtx.VIXLevel > 0 {
		return *volCtx.VIXLevel / 100
	}
	return e.cfg.Options.DefaultIVPct / 100
}

// daySummary derives the day's gap/range inputs. The previous close is the
// second-to-last daily bar because the daily history includes today.
func (e *Engine) daySummary(dailyHist []types.Bar, bars []types.Bar) types.DaySummary {
	sum := types.DaySummary{
		Open: bars[0].Open,
		High: bars[0].High,
		Low:  bars[0].Low,
	}
	for _, b := range bars[1:] {
		if b.High > sum.High {
			sum.High = b.High
		}
		if b.Low < sum.Low {
			sum.Low = b.Low
		}
	}
	switch {
	case len(dailyHist) >= 2:
		sum.PrevClose = dailyHist[len(dailyHist)-2].Close
	case len(dailyHist) == 1:
		sum.PrevClose = dailyHist[0].Close
	default:
		sum.PrevClose = bars[0].Open
	}
	return sum
}

// volForDay builds the day's volatility context from the VIX daily series.
// The level is the day's open so no intraday information leaks in; the
// rank/percentile history is strictly prior closes.
func (e *Engine) volForDay(vix []types.Bar, day time.Time, loc *time.Location) types.VolContext {
	var open *float64
	var trail []float64
	for _, b := range vix {
		d := dateOnly(b.Ts.In(loc))
		switch {
		case d.Equal(day):
			v := b.Open
			open = &v
		case d.Before(day):
			trail = append(trail, b.Close)
		}
	}
	if n := e.cfg.Vol.LookbackDays; n > 0 && len(trail) > n {
		trail = trail[len(trail)-n:]
	}
	return vol.BuildForDay(open, trail)
}

func (e *Engine) finalize(res *types.BacktestResult, st *state) {
	res.Trades = st.trades
	res.EquityCurve = st.curve
	res.NumTrades = len(st.trades)
	res.TotalCommissions = st.commissions
	res.TimeOfDay = e.timeOfDay(st.trades)

	if len(st.trades) == 0 {
		return
	}

	var grossWin, grossLoss, sumR float64
	var nWins, nLosses int
	for _, tr := range st.trades {
		res.TotalPnL += tr.PnL
		sumR += tr.RMultiple
		if tr.PnL > 0 {
			nWins++
			grossWin += tr.PnL
		} else {
			nLosses++
			grossLoss += -tr.PnL
		}
	}
	res.WinRate = float64(nWins) / float64(len(st.trades))
	res.AvgRMultiple = sumR / float64(len(st.trades))
	if nWins > 0 {
		res.AvgWin = grossWin / float64(nWins)
	}
	if nLosses > 0 {
		res.AvgLoss = -grossLoss / float64(nLosses)
	}
	if grossLoss > 0 {
		res.ProfitFactor = grossWin / grossLoss
	}

	peak := -math.MaxFloat64
	for _, p := range st.curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			dd := (p.Equity - peak) / peak
			if -dd > res.MaxDrawdown {
				res.MaxDrawdown = -dd
			}
		}
	}
}

// entryWindows is the fixed reporting breakdown by entry time of day.
var entryWindows = []struct {
	label    string
	from, to int
}{
	{"Early Open (9:45-9:55)", 9*60 + 45, 9*60 + 55},
	{"Morning Drive (9:55-10:30)", 9*60 + 55, 10*60 + 30},
	{"Mid-Morning Trend (10:30-11:45)", 10*60 + 30, 11*60 + 45},
	{"Lunch Chop (11:45-13:30)", 11*60 + 45, 13*60 + 30},
	{"Afternoon Wake-up (13:30-14:15)", 13*60 + 30, 14*60 + 15},
	{"Breakout Window (14:15-14:30)", 14*60 + 15, 14*60 + 30},
	{"Late Day (14:30+)", 14*60 + 30, 16 * 60},
}

func (e *Engine) timeOfDay(trades []types.TradeRecord) []types.WindowStats {
	loc, err := e.cfg.Location()
	if err != nil {
		loc = time.UTC
	}
	out := make([]types.WindowStats, 0, len(entryWindows))
	for _, w := range entryWindows {
		ws := types.WindowStats{Window: w.label}
		var wins int
		var sumR float64
		for _, tr := range trades {
			m := minuteOfDay(tr.EntryTime.In(loc))
			if m < w.from || m >= w.to {
				continue
			}
			ws.Trades++
			ws.TotalPnL += tr.PnL
			sumR += tr.RMultiple
			if tr.PnL > 0 {
				wins++
			}
		}
		if ws.Trades > 0 {
			ws.WinRate = float64(wins) / float64(ws.Trades)
			ws.AvgR = sumR / float64(ws.Trades)
		}
		out = append(out, ws)
	}
	return out
}

func groupByDay(bars []types.Bar, loc *time.Location) []daySlice {
	byDay := map[time.Time][]types.Bar{}
	for _, b := range bars {
		d := dateOnly(b.Ts.In(loc))
		byDay[d] = append(byDay[d], b)
	}
	out := make([]daySlice, 0, len(byDay))
	for d, bs := range byDay {
		sort.Slice(bs, func(i, j int) bool { return bs[i].Ts.Before(bs[j].Ts) })
		out = append(out, daySlice{date: d, bars: bs})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].date.Before(out[j].date) })
	return out
}

func dailyUpTo(daily []types.Bar, day time.Time, loc *time.Location) []types.Bar {
	out := make([]types.Bar, 0, len(daily))
	for _, b := range daily {
		if !dateOnly(b.Ts.In(loc)).After(day) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ts.Before(out[j].Ts) })
	return out
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// clockMin parses "HH:MM"; config validation guarantees the format.
func clockMin(s string) int {
	i := strings.IndexByte(s, ':')
	h, _ := strconv.Atoi(s[:i])
	m, _ := strconv.Atoi(s[i+1:])
	return h*60 + m
}
