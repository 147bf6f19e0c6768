package regime

import (
	"errors"
	"testing"
	"time"

	"odte-trader/internal/store"
	"odte-trader/internal/types"
)

func dailySeries(closes ...float64) []types.Bar {
	bars := make([]types.Bar, len(closes))
	base := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = types.Bar{
			Ts:     base.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

// summaryFor builds a day summary with the requested gap and range
// percentages against a previous close of 100.
func summaryFor(gapPct, rangePct float64) types.DaySummary {
	prevClose := 100.0
	open := prevClose * (1 + gapPct/100)
	return types.DaySummary{
		PrevClose: prevClose,
		Open:      open,
		High:      open + open*(rangePct/100),
		Low:       open,
	}
}

func f(v float64) *float64 { return &v }

func TestPermissionDecisionTree(t *testing.T) {
	eng := New(store.DefaultConfig())
	daily := dailySeries(98, 99, 100, 101, 102)

	cases := []struct {
		name     string
		vix      *float64
		gapPct   float64
		rangePct float64
		want     types.Permission
	}{
		{"high vix volatile day", f(25), 0.5, 2.0, types.PermFavorable},
		{"vix below floor overrides all", f(12), 0.5, 2.0, types.PermAvoid},
		{"ordinary day", f(20), 0.3, 0.8, types.PermCaution},
		{"missing vix skips the floor rule", nil, 0.5, 2.0, types.PermFavorable},
		{"small gap low range chop", f(20), 0.1, 0.4, types.PermAvoid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap, err := eng.Analyze(daily, summaryFor(tc.gapPct, tc.rangePct), tc.vix)
			if err != nil {
				t.Fatalf("Analyze failed: %v", err)
			}
			if snap.Permission != tc.want {
				t.Errorf("Expected permission %s, got %s (reason: %s)",
					tc.want, snap.Permission, snap.PermissionReason)
			}
		})
	}
}

func TestTrendClassification(t *testing.T) {
	eng := New(store.DefaultConfig())

	rising := dailySeries(90, 92, 94, 96, 98, 100, 102, 104)
	snap, err := eng.Analyze(rising, summaryFor(0.5, 1.0), nil)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if snap.Trend != types.TrendBullish {
		t.Errorf("Expected Bullish trend for rising series, got %s", snap.Trend)
	}

	falling := dailySeries(104, 102, 100, 98, 96, 94, 92, 90)
	snap, err = eng.Analyze(falling, summaryFor(0.5, 1.0), nil)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if snap.Trend != types.TrendBearish {
		t.Errorf("Expected Bearish trend for falling series, got %s", snap.Trend)
	}
}

func TestShortHistoryDegradesGracefully(t *testing.T) {
	eng := New(store.DefaultConfig())

	// Far fewer bars than the long MA period still produces a snapshot.
	snap, err := eng.Analyze(dailySeries(100, 101, 102), summaryFor(0.5, 1.0), nil)
	if err != nil {
		t.Fatalf("Analyze failed on short history: %v", err)
	}
	if snap.MAShort == 0 || snap.MALong == 0 {
		t.Errorf("Expected moving averages over available bars, got %f/%f",
			snap.MAShort, snap.MALong)
	}
}

func TestEmptyDailyIsDataGap(t *testing.T) {
	eng := New(store.DefaultConfig())
	_, err := eng.Analyze(nil, summaryFor(0.5, 1.0), nil)
	if err == nil {
		t.Fatal("Expected error for empty daily series")
	}
	if !errors.Is(err, types.ErrDataGap) {
		t.Errorf("Expected ErrDataGap, got %v", err)
	}
}

func TestGapAndRangeMath(t *testing.T) {
	eng := New(store.DefaultConfig())
	daily := dailySeries(98, 99, 100)

	today := types.DaySummary{PrevClose: 100, Open: 101, High: 103, Low: 100.5}
	snap, err := eng.Analyze(daily, today, nil)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if got, want := snap.GapPct, 1.0; !almostEqual(got, want) {
		t.Errorf("Expected gap %.2f%%, got %.4f%%", want, got)
	}
	// (103 - 100.5) / 101
	if got, want := snap.RangePct, 2.5/101*100; !almostEqual(got, want) {
		t.Errorf("Expected range %.4f%%, got %.4f%%", want, got)
	}
}

func almostEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-9
}
