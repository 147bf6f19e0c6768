// Package journal persists the closed-trade sequence as a CSV artifact.
// The file is the run's canonical regression baseline: identical inputs
// must reproduce it byte for byte.
package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"

	"odte-trader/internal/types"
)

type row struct {
	EntryTime       string  `csv:"entry_time"`
	ExitTime        string  `csv:"exit_time"`
	Direction       string  `csv:"direction"`
	Confidence      string  `csv:"confidence"`
	Permission      string  `csv:"permission"`
	Strike          float64 `csv:"strike"`
	Contracts       int     `csv:"contracts"`
	EntryUnderlying float64 `csv:"entry_underlying"`
	ExitUnderlying  float64 `csv:"exit_underlying"`
	EntryPrice      float64 `csv:"entry_price"`
	ExitPrice       float64 `csv:"exit_price"`
	TheoEntryPrice  float64 `csv:"theoretical_entry_price"`
	TheoExitPrice   float64 `csv:"theoretical_exit_price"`
	EntryIV         float64 `csv:"entry_iv"`
	EntryDelta      float64 `csv:"entry_delta"`
	PnL             float64 `csv:"pnl"`
	RMultiple       float64 `csv:"r_multiple"`
	Commissions     float64 `csv:"commissions"`
	Slippage        float64 `csv:"slippage"`
	ExitReason      string  `csv:"exit_reason"`
	Rationale       string  `csv:"rationale"`
}

// Write stores the trade log at path, creating parent directories as
// needed. An existing file is replaced.
func Write(path string, trades []types.TradeRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("journal: create dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("journal: open %s: %w", path, err)
	}
	defer f.Close()

	rows := make([]*row, 0, len(trades))
	for _, tr := range trades {
		rows = append(rows, &row{
			EntryTime:       tr.EntryTime.Format(time.RFC3339),
			ExitTime:        tr.ExitTime.Format(time.RFC3339),
			Direction:       tr.Direction.String(),
			Confidence:      tr.Confidence.String(),
			Permission:      tr.Permission.String(),
			Strike:          tr.Strike,
			Contracts:       tr.Contracts,
			EntryUnderlying: tr.EntryUnderlying,
			ExitUnderlying:  tr.ExitUnderlying,
			EntryPrice:      tr.EntryPrice,
			ExitPrice:       tr.ExitPrice,
			TheoEntryPrice:  tr.TheoEntryPrice,
			TheoExitPrice:   tr.TheoExitPrice,
			EntryIV:         tr.EntryIV,
			EntryDelta:      tr.EntryDelta,
			PnL:             tr.PnL,
			RMultiple:       tr.RMultiple,
			Commissions:     tr.Commissions,
			Slippage:        tr.Slippage,
			ExitReason:      tr.ExitReason.String(),
			Rationale:       tr.Rationale,
		})
	}
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("journal: write %s: %w", path, err)
	}
	return nil
}

// Read loads a previously written trade log.
func Read(path string) ([]types.TradeRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	defer f.Close()

	var rows []*row
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("journal: parse %s: %w", path, err)
	}

	trades := make([]types.TradeRecord, 0, len(rows))
	for _, r := range rows {
		entry, err := time.Parse(time.RFC3339, r.EntryTime)
		if err != nil {
			return nil, fmt.Errorf("journal: bad entry_time %q: %w", r.EntryTime, err)
		}
		exit, err := time.Parse(time.RFC3339, r.ExitTime)
		if err != nil {
			return nil, fmt.Errorf("journal: bad exit_time %q: %w", r.ExitTime, err)
		}
		trades = append(trades, types.TradeRecord{
			EntryTime:       entry,
			ExitTime:        exit,
			Direction:       parseDirection(r.Direction),
			Confidence:      parseConfidence(r.Confidence),
			Permission:      parsePermission(r.Permission),
			Strike:          r.Strike,
			Contracts:       r.Contracts,
			EntryUnderlying: r.EntryUnderlying,
			ExitUnderlying:  r.ExitUnderlying,
			EntryPrice:      r.EntryPrice,
			ExitPrice:       r.ExitPrice,
			TheoEntryPrice:  r.TheoEntryPrice,
			TheoExitPrice:   r.TheoExitPrice,
			EntryIV:         r.EntryIV,
			EntryDelta:      r.EntryDelta,
			PnL:             r.PnL,
			RMultiple:       r.RMultiple,
			Commissions:     r.Commissions,
			Slippage:        r.Slippage,
			ExitReason:      parseExitReason(r.ExitReason),
			Rationale:       r.Rationale,
		})
	}
	return trades, nil
}

func parseDirection(s string) types.Direction {
	switch s {
	case "CALL":
		return types.DirCall
	case "PUT":
		return types.DirPut
	default:
		return types.DirNone
	}
}

func parseConfidence(s string) types.Confidence {
	switch s {
	case "LOW":
		return types.ConfLow
	case "MEDIUM":
		return types.ConfMedium
	case "HIGH":
		return types.ConfHigh
	default:
		return types.ConfNone
	}
}

func parsePermission(s string) types.Permission {
	switch s {
	case "FAVORABLE":
		return types.PermFavorable
	case "AVOID":
		return types.PermAvoid
	default:
		return types.PermCaution
	}
}

func parseExitReason(s string) types.ExitReason {
	switch s {
	case "TP":
		return types.ExitTP
	case "SL":
		return types.ExitSL
	case "TIME":
		return types.ExitTime
	default:
		return types.ExitEOD
	}
}
