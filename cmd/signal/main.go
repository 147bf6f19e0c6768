package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"odte-trader/internal/chop"
	"odte-trader/internal/interfaces"
	"odte-trader/internal/intraday"
	"odte-trader/internal/logger"
	"odte-trader/internal/marketdata"
	"odte-trader/internal/regime"
	"odte-trader/internal/signal"
	"odte-trader/internal/signal/signalobs"
	"odte-trader/internal/store"
	"odte-trader/internal/types"
	"odte-trader/internal/vol"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dayFlag := flag.String("day", "", "trading day YYYY-MM-DD (default: last day in data)")
	all := flag.Bool("all", false, "print a signal for every session bar, not just the latest")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := store.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	ctx := context.Background()
	defer func() { _ = logger.Shutdown(ctx) }()

	loc, err := cfg.Location()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving timezone: %v\n", err)
		os.Exit(1)
	}

	if err := run(ctx, cfg, loc, *dayFlag, *all); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *store.Config, loc *time.Location, dayFlag string, all bool) error {
	src, err := marketdata.NewCSVSource(cfg.Data.DailyCSV, cfg.Data.IntradayCSV, loc)
	if err != nil {
		return err
	}
	var vix []types.Bar
	if cfg.Data.VIXCSV != "" {
		if vix, err = marketdata.LoadBars(cfg.Data.VIXCSV, loc); err != nil {
			return err
		}
	}

	day, err := pickDay(ctx, src, cfg.Symbol, loc, dayFlag)
	if err != nil {
		return err
	}
	bars, err := src.IntradayBars(ctx, cfg.Symbol, day)
	if err != nil {
		return err
	}
	if len(bars) == 0 {
		return fmt.Errorf("no intraday bars for %s", day.Format("2006-01-02"))
	}

	volCtx := volForDay(cfg, vix, day, loc)
	dayEnd := day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	hist, err := src.DailyBars(ctx, cfg.Symbol, time.Time{}, dayEnd)
	if err != nil {
		return err
	}

	reg, err := regime.New(cfg).Analyze(hist, daySummary(hist, bars), volCtx.VIXLevel)
	if err != nil {
		return err
	}

	intraEng := intraday.New(cfg)
	series := intraEng.Compute(bars, nil)
	chops := chop.New(cfg)
	sig := signalobs.Wrap(signal.New(cfg), cfg.Symbol)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	from := len(bars) - 1
	if all {
		from = 0
	}
	for i := from; i < len(bars); i++ {
		snap, err := intraEng.Snapshot(bars, series, i)
		if err != nil {
			continue
		}
		out := sig.Evaluate(ctx, types.SignalInput{
			Regime:   reg,
			Intraday: snap,
			Chop:     chops.Score(bars[:i+1], series.VWAP[:i+1], series.EMAFast[:i+1], series.EMASlow[:i+1]),
			Vol:      volCtx,
			At:       bars[i].Ts.In(loc),
		})
		if err := enc.Encode(out); err != nil {
			return err
		}
	}
	return nil
}

func pickDay(ctx context.Context, src interfaces.BarSource, symbol string, loc *time.Location, dayFlag string) (time.Time, error) {
	if dayFlag != "" {
		return time.ParseInLocation("2006-01-02", dayFlag, loc)
	}
	days, err := src.TradingDays(ctx, symbol)
	if err != nil {
		return time.Time{}, err
	}
	if len(days) == 0 {
		return time.Time{}, fmt.Errorf("intraday data is empty")
	}
	return days[len(days)-1], nil
}

func daySummary(hist []types.Bar, bars []types.Bar) types.DaySummary {
	sum := types.DaySummary{Open: bars[0].Open, High: bars[0].High, Low: bars[0].Low}
	for _, b := range bars[1:] {
		if b.High > sum.High {
			sum.High = b.High
		}
		if b.Low < sum.Low {
			sum.Low = b.Low
		}
	}
	switch {
	case len(hist) >= 2:
		sum.PrevClose = hist[len(hist)-2].Close
	case len(hist) == 1:
		sum.PrevClose = hist[0].Close
	default:
		sum.PrevClose = bars[0].Open
	}
	return sum
}

func volForDay(cfg *store.Config, vix []types.Bar, day time.Time, loc *time.Location) types.VolContext {
	var open *float64
	var trail []float64
	for _, b := range vix {
		t := b.Ts.In(loc)
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		switch {
		case d.Equal(day):
			v := b.Open
			open = &v
		case d.Before(day):
			trail = append(trail, b.Close)
		}
	}
	if n := cfg.Vol.LookbackDays; n > 0 && len(trail) > n {
		trail = trail[len(trail)-n:]
	}
	return vol.BuildForDay(open, trail)
}
