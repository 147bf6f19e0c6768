// Package report turns a trade journal into a per-day performance summary
// CSV: one row per trading day plus a TOTAL row.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"odte-trader/internal/interfaces"
	"odte-trader/internal/journal"
)

type dayRow struct {
	date        string
	trades      int
	wins        int
	grossWin    float64
	grossLoss   float64
	pnl         float64
	commissions float64
	sumR        float64
}

type summarizer struct {
	outDir string
	loc    *time.Location
}

var _ interfaces.Reporter = (*summarizer)(nil)

func NewSummarizer(outDir string, loc *time.Location) interfaces.Reporter {
	return &summarizer{outDir: outDir, loc: loc}
}

func (s *summarizer) Summarize(journalPath string) (string, error) {
	trades, err := journal.Read(journalPath)
	if err != nil {
		return "", err
	}
	if len(trades) == 0 {
		return "", nil
	}

	byDay := map[string]*dayRow{}
	for _, tr := range trades {
		d := tr.EntryTime.In(s.loc).Format("2006-01-02")
		row := byDay[d]
		if row == nil {
			row = &dayRow{date: d}
			byDay[d] = row
		}
		row.trades++
		row.pnl += tr.PnL
		row.commissions += tr.Commissions
		row.sumR += tr.RMultiple
		if tr.PnL > 0 {
			row.wins++
			row.grossWin += tr.PnL
		} else {
			row.grossLoss += -tr.PnL
		}
	}

	dates := make([]string, 0, len(byDay))
	for d := range byDay {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	outPath := filepath.Join(s.outDir, "daily_summary.csv")
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	defer w.Flush()
	headers := []string{"date", "trades", "wins", "win_rate", "gross_win", "gross_loss", "pnl", "commissions", "avg_r"}
	if err := w.Write(headers); err != nil {
		return "", err
	}

	var total dayRow
	for _, d := range dates {
		r := byDay[d]
		rec := []string{
			r.date,
			strconv.Itoa(r.trades),
			strconv.Itoa(r.wins),
			fmt.Sprintf("%.4f", float64(r.wins)/float64(r.trades)),
			fmt.Sprintf("%.2f", r.grossWin),
			fmt.Sprintf("%.2f", r.grossLoss),
			fmt.Sprintf("%.2f", r.pnl),
			fmt.Sprintf("%.2f", r.commissions),
			fmt.Sprintf("%.4f", r.sumR/float64(r.trades)),
		}
		if err := w.Write(rec); err != nil {
			return "", err
		}
		total.trades += r.trades
		total.wins += r.wins
		total.grossWin += r.grossWin
		total.grossLoss += r.grossLoss
		total.pnl += r.pnl
		total.commissions += r.commissions
		total.sumR += r.sumR
	}
	_ = w.Write([]string{
		"TOTAL",
		strconv.Itoa(total.trades),
		strconv.Itoa(total.wins),
		fmt.Sprintf("%.4f", float64(total.wins)/float64(total.trades)),
		fmt.Sprintf("%.2f", total.grossWin),
		fmt.Sprintf("%.2f", total.grossLoss),
		fmt.Sprintf("%.2f", total.pnl),
		fmt.Sprintf("%.2f", total.commissions),
		fmt.Sprintf("%.4f", total.sumR/float64(total.trades)),
	})
	return outPath, nil
}
