package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"odte-trader/internal/journal"
	"odte-trader/internal/types"
)

func trade(day int, pnl float64) types.TradeRecord {
	entry := time.Date(2025, 3, day, 10, 0, 0, 0, time.UTC)
	return types.TradeRecord{
		EntryTime:   entry,
		ExitTime:    entry.Add(30 * time.Minute),
		Direction:   types.DirCall,
		Confidence:  types.ConfHigh,
		Permission:  types.PermFavorable,
		Contracts:   1,
		PnL:         pnl,
		RMultiple:   pnl / 50,
		Commissions: 2.5,
		ExitReason:  types.ExitTP,
	}
}

func TestSummarizePerDay(t *testing.T) {
	dir := t.TempDir()
	journalPath := filepath.Join(dir, "trades.csv")
	trades := []types.TradeRecord{
		trade(10, 60), trade(10, -40), trade(12, 25),
	}
	if err := journal.Write(journalPath, trades); err != nil {
		t.Fatalf("journal.Write failed: %v", err)
	}

	outPath, err := NewSummarizer(dir, time.UTC).Summarize(journalPath)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	f, err := os.Open(outPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	// Header, two day rows, TOTAL.
	if len(rows) != 4 {
		t.Fatalf("Expected 4 CSV rows, got %d", len(rows))
	}
	if rows[1][0] != "2025-03-10" || rows[1][1] != "2" || rows[1][2] != "1" {
		t.Errorf("Expected day 2025-03-10 with 2 trades and 1 win, got %v", rows[1])
	}
	if rows[2][0] != "2025-03-12" || rows[2][1] != "1" {
		t.Errorf("Expected day 2025-03-12 with 1 trade, got %v", rows[2])
	}
	if rows[3][0] != "TOTAL" || rows[3][1] != "3" || rows[3][2] != "2" {
		t.Errorf("Expected TOTAL row with 3 trades and 2 wins, got %v", rows[3])
	}
	if rows[1][6] != "20.00" {
		t.Errorf("Expected day-one pnl 20.00, got %q", rows[1][6])
	}
}

func TestSummarizeEmptyJournal(t *testing.T) {
	dir := t.TempDir()
	journalPath := filepath.Join(dir, "trades.csv")
	if err := journal.Write(journalPath, nil); err != nil {
		t.Fatalf("journal.Write failed: %v", err)
	}

	outPath, err := NewSummarizer(dir, time.UTC).Summarize(journalPath)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if outPath != "" {
		t.Errorf("Expected empty path for empty journal, got %q", outPath)
	}
}

func TestSummarizeMissingJournal(t *testing.T) {
	dir := t.TempDir()
	if _, err := NewSummarizer(dir, time.UTC).Summarize(filepath.Join(dir, "absent.csv")); err == nil {
		t.Error("Expected error for missing journal")
	}
}
