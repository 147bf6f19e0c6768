// Package marketdata loads OHLCV bar series from CSV files. Series are
// returned sorted by timestamp with duplicate timestamps dropped; a missing
// session is simply absent bars, never an error.
package marketdata

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/gocarina/gocsv"

	"odte-trader/internal/types"
)

type barRow struct {
	Timestamp string  `csv:"timestamp"`
	Open      float64 `csv:"open"`
	High      float64 `csv:"high"`
	Low       float64 `csv:"low"`
	Close     float64 `csv:"close"`
	Volume    float64 `csv:"volume"`
}

// timeFormats are tried in order when parsing the timestamp column.
var timeFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// LoadBars reads a bar series from a CSV file with the header
// timestamp,open,high,low,close,volume. Timestamps without a zone are
// interpreted in loc.
func LoadBars(path string, loc *time.Location) ([]types.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("marketdata: open %s: %w", path, err)
	}
	defer f.Close()

	var rows []*barRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("marketdata: parse %s: %w", path, err)
	}

	bars := make([]types.Bar, 0, len(rows))
	for _, r := range rows {
		ts, err := parseTime(r.Timestamp, loc)
		if err != nil {
			return nil, fmt.Errorf("marketdata: %s: %w", path, err)
		}
		bars = append(bars, types.Bar{
			Ts:     ts,
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Ts.Before(bars[j].Ts) })
	return dedupe(bars), nil
}

// dedupe keeps the first bar of each timestamp; input must be sorted.
func dedupe(bars []types.Bar) []types.Bar {
	out := bars[:0]
	for i, b := range bars {
		if i > 0 && b.Ts.Equal(bars[i-1].Ts) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func parseTime(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range timeFormats {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

// SliceRange returns the bars with Start <= Ts and, when end is set,
// Ts <= end (end is inclusive, interpreted as a whole day when it carries
// no clock component).
func SliceRange(bars []types.Bar, start, end time.Time) []types.Bar {
	out := make([]types.Bar, 0, len(bars))
	for _, b := range bars {
		if !start.IsZero() && b.Ts.Before(start) {
			continue
		}
		if !end.IsZero() && b.Ts.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// TradingDays enumerates the distinct dates present in a bar series, in
// order.
func TradingDays(bars []types.Bar, loc *time.Location) []time.Time {
	var days []time.Time
	for _, b := range bars {
		t := b.Ts.In(loc)
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		if len(days) == 0 || !days[len(days)-1].Equal(d) {
			days = append(days, d)
		}
	}
	return days
}
