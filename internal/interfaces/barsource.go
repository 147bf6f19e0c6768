package interfaces

import (
	"context"
	"time"

	"odte-trader/internal/types"
)

// BarSource supplies ordered bar series. Implementations tolerate gaps;
// a missing session is absence of bars, not an error.
type BarSource interface {
	DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]types.Bar, error)
	IntradayBars(ctx context.Context, symbol string, day time.Time) ([]types.Bar, error)
	TradingDays(ctx context.Context, symbol string) ([]time.Time, error)
}
