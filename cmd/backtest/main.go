package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"odte-trader/internal/backtest"
	"odte-trader/internal/backtest/backtestobs"
	"odte-trader/internal/journal"
	"odte-trader/internal/logger"
	"odte-trader/internal/marketdata"
	"odte-trader/internal/runlog"
	"odte-trader/internal/signal"
	"odte-trader/internal/signal/signalobs"
	"odte-trader/internal/store"
	"odte-trader/internal/trace"
	"odte-trader/internal/types"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	startFlag := flag.String("start", "", "first trading day YYYY-MM-DD (overrides config)")
	endFlag := flag.String("end", "", "last trading day YYYY-MM-DD (overrides config)")
	journalPath := flag.String("journal", "", "trade journal CSV path (overrides config)")
	outputFile := flag.String("output", "", "write full result JSON to file (optional)")
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
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	ctx := context.Background()
	defer func() {
		_ = logger.Shutdown(ctx)
		_ = trace.Shutdown(ctx)
	}()

	loc, err := cfg.Location()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving timezone: %v\n", err)
		os.Exit(1)
	}

	in, err := loadInput(cfg, loc, *startFlag, *endFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading market data: %v\n", err)
		os.Exit(1)
	}

	sig := signalobs.Wrap(signal.New(cfg), cfg.Symbol)
	bt := backtestobs.Wrap(backtest.New(cfg, sig))

	result, err := bt.Run(ctx, in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running backtest: %v\n", err)
		os.Exit(1)
	}

	printSummary(result)

	if *outputFile != "" {
		b, _ := json.MarshalIndent(result, "", "  ")
		if err := os.WriteFile(*outputFile, b, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing result file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Result written to %s\n", *outputFile)
	}

	path := cfg.Journal.Path
	if *journalPath != "" {
		path = *journalPath
	}
	if path != "" {
		if err := journal.Write(path, result.Trades); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing trade journal: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Trade journal written to %s\n", path)
	}

	for _, tr := range result.Trades {
		if err := runlog.AppendTrade(cfg.Symbol, tr); err != nil {
			logger.Warn(ctx, "Run log append failed", "error", err.Error())
			break
		}
	}
	if err := runlog.AppendSummary(cfg.Symbol, result); err != nil {
		logger.Warn(ctx, "Run log summary failed", "error", err.Error())
	}
	_ = runlog.CompressOlder(14)
}

func loadInput(cfg *store.Config, loc *time.Location, startFlag, endFlag string) (types.BacktestInput, error) {
	var in types.BacktestInput
	var err error

	in.Daily, err = marketdata.LoadBars(cfg.Data.DailyCSV, loc)
	if err != nil {
		return in, err
	}
	in.Intraday, err = marketdata.LoadBars(cfg.Data.IntradayCSV, loc)
	if err != nil {
		return in, err
	}
	if cfg.Data.VIXCSV != "" {
		in.VIXDaily, err = marketdata.LoadBars(cfg.Data.VIXCSV, loc)
		if err != nil {
			return in, err
		}
	}

	start := cfg.Data.Start
	if startFlag != "" {
		start = startFlag
	}
	end := cfg.Data.End
	if endFlag != "" {
		end = endFlag
	}
	if start != "" {
		in.Start, err = time.ParseInLocation("2006-01-02", start, loc)
		if err != nil {
			return in, fmt.Errorf("bad start date %q: %w", start, err)
		}
	}
	if end != "" {
		in.End, err = time.ParseInLocation("2006-01-02", end, loc)
		if err != nil {
			return in, fmt.Errorf("bad end date %q: %w", end, err)
		}
	}
	return in, nil
}

func printSummary(r *types.BacktestResult) {
	summary := map[string]any{
		"days_processed":    r.DaysProcessed,
		"days_skipped":      r.DaysSkipped,
		"num_trades":        r.NumTrades,
		"win_rate":          r.WinRate,
		"total_pnl":         r.TotalPnL,
		"avg_win":           r.AvgWin,
		"avg_loss":          r.AvgLoss,
		"avg_r_multiple":    r.AvgRMultiple,
		"max_drawdown":      r.MaxDrawdown,
		"profit_factor":     r.ProfitFactor,
		"total_commissions": r.TotalCommissions,
	}
	b, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(b))

	fmt.Println("\nTime-of-day breakdown:")
	for _, w := range r.TimeOfDay {
		fmt.Printf("  %-36s trades=%-3d win_rate=%.2f avg_r=%+.2f pnl=%+.2f\n",
			w.Window, w.Trades, w.WinRate, w.AvgR, w.TotalPnL)
	}
}
