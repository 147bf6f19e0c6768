package signalobs

import (
	"context"
	"strings"
	"time"

	"odte-trader/internal/interfaces"
	"odte-trader/internal/logger"
	"odte-trader/internal/trace"
	"odte-trader/internal/types"
)

type observableSignaler struct {
	signaler interfaces.Signaler
	symbol   string
}

var _ interfaces.Signaler = (*observableSignaler)(nil)

func Wrap(s interfaces.Signaler, symbol string) interfaces.Signaler {
	return &observableSignaler{
		signaler: s,
		symbol:   symbol,
	}
}

func (os *observableSignaler) Evaluate(ctx context.Context, in types.SignalInput) types.Signal {
	ctx, span := trace.StartSpan(ctx, "signal.Evaluate")
	defer span.End()

	start := time.Now()

	sig := os.signaler.Evaluate(ctx, in)

	logger.Signal(ctx, os.symbol, sig.Direction.String(), sig.Confidence.String(), sig.Tradeable,
		strings.Join(sig.Rationale, "; "),
		"permission", sig.Permission.String(),
		"allow_trade", sig.AllowTrade,
		"bar_time", sig.Ts.Format(time.RFC3339),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return sig
}
