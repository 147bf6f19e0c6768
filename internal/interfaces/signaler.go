package interfaces

import (
	"context"

	"odte-trader/internal/types"
)

type Signaler interface {
	Evaluate(ctx context.Context, in types.SignalInput) types.Signal
}
