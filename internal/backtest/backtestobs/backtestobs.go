package backtestobs

import (
	"context"
	"time"

	"odte-trader/internal/interfaces"
	"odte-trader/internal/logger"
	"odte-trader/internal/trace"
	"odte-trader/internal/types"
)

type observableBacktester struct {
	backtester interfaces.Backtester
}

var _ interfaces.Backtester = (*observableBacktester)(nil)

func Wrap(bt interfaces.Backtester) interfaces.Backtester {
	return &observableBacktester{
		backtester: bt,
	}
}

func (ob *observableBacktester) Run(ctx context.Context, in types.BacktestInput) (*types.BacktestResult, error) {
	ctx, span := trace.StartSpan(ctx, "backtest.Run")
	defer span.End()

	start := time.Now()

	logger.Info(ctx, "Starting backtest run",
		"daily_bars", len(in.Daily),
		"intraday_bars", len(in.Intraday),
		"vix_bars", len(in.VIXDaily),
	)

	result, err := ob.backtester.Run(ctx, in)
	if err != nil {
		logger.ErrorWithErr(ctx, "Backtest run failed", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	logger.Info(ctx, "Backtest run completed",
		"days_processed", result.DaysProcessed,
		"days_skipped", result.DaysSkipped,
		"num_trades", result.NumTrades,
		"win_rate", result.WinRate,
		"total_pnl", result.TotalPnL,
		"max_drawdown", result.MaxDrawdown,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result, nil
}
