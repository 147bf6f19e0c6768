package journal

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"odte-trader/internal/types"
)

func sampleTrades() []types.TradeRecord {
	entry := time.Date(2025, 3, 10, 10, 15, 0, 0, time.UTC)
	return []types.TradeRecord{
		{
			EntryTime:       entry,
			ExitTime:        entry.Add(25 * time.Minute),
			Direction:       types.DirCall,
			Confidence:      types.ConfHigh,
			Permission:      types.PermFavorable,
			Strike:          584,
			Contracts:       1,
			EntryUnderlying: 584.37,
			ExitUnderlying:  586.10,
			EntryPrice:      1.42,
			ExitPrice:       2.05,
			TheoEntryPrice:  1.35,
			TheoExitPrice:   2.08,
			EntryIV:         17.5,
			EntryDelta:      0.54,
			PnL:             60.5,
			RMultiple:       0.85,
			Commissions:     2.5,
			Slippage:        10,
			ExitReason:      types.ExitTP,
			Rationale:       "bullish daily trend; micro trend up",
		},
		{
			EntryTime:  entry.Add(2 * time.Hour),
			ExitTime:   entry.Add(3 * time.Hour),
			Direction:  types.DirPut,
			Confidence: types.ConfMedium,
			Permission: types.PermCaution,
			Strike:     585,
			Contracts:  2,
			EntryPrice: 1.10,
			ExitPrice:  0.55,
			PnL:        -112.5,
			RMultiple:  -1.02,
			ExitReason: types.ExitSL,
		},
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "trades.csv")
	trades := sampleTrades()

	if err := Write(path, trades); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !reflect.DeepEqual(got, trades) {
		t.Errorf("Round trip mismatch:\n got %+v\nwant %+v", got, trades)
	}
}

func TestWriteIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "b.csv")
	trades := sampleTrades()

	if err := Write(a, trades); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := Write(b, trades); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	ba, err := os.ReadFile(a)
	if err != nil {
		t.Fatal(err)
	}
	bb, err := os.ReadFile(b)
	if err != nil {
		t.Fatal(err)
	}
	if string(ba) != string(bb) {
		t.Error("Expected byte-identical journals for identical trades")
	}
}

func TestHeaderAndEnumRendering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	if err := Write(path, sampleTrades()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(b)

	for _, want := range []string{"entry_time", "exit_reason", "CALL", "PUT", "TP", "SL", "FAVORABLE"} {
		if !strings.Contains(content, want) {
			t.Errorf("Expected journal to contain %q", want)
		}
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Error("Expected error for missing journal")
	}
}

func TestEmptyTradeLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	if err := Write(path, nil); err != nil {
		t.Fatalf("Write failed for empty log: %v", err)
	}
}
