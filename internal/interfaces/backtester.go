package interfaces

import (
	"context"

	"odte-trader/internal/types"
)

type Backtester interface {
	Run(ctx context.Context, in types.BacktestInput) (*types.BacktestResult, error)
}
