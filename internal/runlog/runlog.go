// Package runlog appends one JSON line per closed trade, plus a summary
// line per run, to a dated file under the log directory. The journal CSV is
// the regression artifact; this file is the human-greppable audit trail.
package runlog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"odte-trader/internal/types"
)

var mu sync.Mutex

type TradeEntry struct {
	Time       string         `json:"time"`
	Symbol     string         `json:"symbol"`
	Direction  string         `json:"direction"`
	Contracts  int            `json:"contracts"`
	EntryTime  string         `json:"entry_time"`
	ExitTime   string         `json:"exit_time"`
	EntryPrice float64        `json:"entry_price"`
	ExitPrice  float64        `json:"exit_price"`
	PnL        float64        `json:"pnl"`
	RMultiple  float64        `json:"r_multiple"`
	ExitReason string         `json:"exit_reason"`
	Rationale  string         `json:"rationale,omitempty"`
	Extra      map[string]any `json:"extra,omitempty"`
}

type SummaryEntry struct {
	Time        string  `json:"time"`
	Symbol      string  `json:"symbol"`
	Days        int     `json:"days"`
	Trades      int     `json:"trades"`
	WinRate     float64 `json:"win_rate"`
	TotalPnL    float64 `json:"total_pnl"`
	MaxDrawdown float64 `json:"max_drawdown"`
	Commissions float64 `json:"commissions"`
}

func logDir() string {
	if v := os.Getenv("ODTE_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

func dailyFilepath(t time.Time) string {
	return filepath.Join(logDir(), t.Format("2006-01-02")+".txt")
}

func appendLine(v any) error {
	mu.Lock()
	defer mu.Unlock()
	p := dailyFilepath(time.Now())
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, _ := json.Marshal(v)
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// AppendTrade writes one closed trade as a JSON line.
func AppendTrade(symbol string, tr types.TradeRecord) error {
	return appendLine(TradeEntry{
		Time:       time.Now().Format("2006-01-02 15:04:05"),
		Symbol:     symbol,
		Direction:  tr.Direction.String(),
		Contracts:  tr.Contracts,
		EntryTime:  tr.EntryTime.Format(time.RFC3339),
		ExitTime:   tr.ExitTime.Format(time.RFC3339),
		EntryPrice: tr.EntryPrice,
		ExitPrice:  tr.ExitPrice,
		PnL:        tr.PnL,
		RMultiple:  tr.RMultiple,
		ExitReason: tr.ExitReason.String(),
		Rationale:  tr.Rationale,
	})
}

// AppendSummary writes one run-level summary JSON line.
func AppendSummary(symbol string, res *types.BacktestResult) error {
	return appendLine(SummaryEntry{
		Time:        time.Now().Format("2006-01-02 15:04:05"),
		Symbol:      symbol,
		Days:        res.DaysProcessed,
		Trades:      res.NumTrades,
		WinRate:     res.WinRate,
		TotalPnL:    res.TotalPnL,
		MaxDrawdown: res.MaxDrawdown,
		Commissions: res.TotalCommissions,
	})
}

// CompressOlder gzips .txt log files older than retentionDays and removes
// the originals. Failures on individual files are skipped.
func CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	root := logDir()
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || filepath.Ext(p) != ".txt" {
			return nil
		}
		info, er := os.Stat(p)
		if er != nil {
			return nil
		}
		cutoff := time.Now().AddDate(0, 0, -retentionDays)
		if !info.ModTime().Before(cutoff) {
			return nil
		}
		gz := p + ".gz"
		if _, e2 := os.Stat(gz); e2 == nil {
			_ = os.Remove(p)
			return nil
		}

		in, e3 := os.Open(p)
		if e3 != nil {
			return nil
		}
		defer in.Close()

		out, e4 := os.OpenFile(gz, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if e4 != nil {
			return nil
		}
		gw := gzip.NewWriter(out)
		if _, e5 := io.Copy(gw, in); e5 == nil {
			_ = gw.Close()
			_ = out.Close()
			_ = os.Remove(p)
		} else {
			_ = gw.Close()
			_ = out.Close()
		}
		return nil
	})
}
