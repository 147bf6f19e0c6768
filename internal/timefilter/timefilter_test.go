package timefilter

import (
	"testing"
	"time"

	"odte-trader/internal/store"
	"odte-trader/internal/types"
)

func at(hour, min int) time.Time {
	return time.Date(2025, 3, 10, hour, min, 0, 0, time.UTC)
}

func TestEvaluatePrecedence(t *testing.T) {
	f := New(store.DefaultConfig())

	cases := []struct {
		name       string
		when       time.Time
		wantAllow  bool
		wantMult   float64
		wantLabel  string
	}{
		{"before session open", at(9, 30), false, 0, "session closed"},
		{"at or after market close", at(16, 0), false, 0, "session closed"},
		{"late day entry block", at(14, 30), false, 0, "late day entry block"},
		{"post-open caution", at(9, 50), true, 0.5, "post-open caution"},
		{"lunch chop window", at(12, 30), true, 0.6, "lunch chop"},
		{"power hour window", at(14, 20), true, 1.2, "power hour"},
		{"normal hours", at(10, 30), true, 1.0, "normal hours"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := f.Evaluate(tc.when)
			if d.Allow != tc.wantAllow {
				t.Errorf("Expected allow=%v, got %v", tc.wantAllow, d.Allow)
			}
			if d.Multiplier != tc.wantMult {
				t.Errorf("Expected multiplier %v, got %v", tc.wantMult, d.Multiplier)
			}
			if d.Label != tc.wantLabel {
				t.Errorf("Expected label %q, got %q", tc.wantLabel, d.Label)
			}
		})
	}
}

// A multiplier below 1.0 must always strictly downgrade HIGH, and a
// multiplier at or above 1.0 must never downgrade. The integer truncation
// is what makes both hold: 0.9*HIGH is 2.7 which truncates to MEDIUM.
func TestAdjustOneDirectional(t *testing.T) {
	subOne := []float64{0.5, 0.6, 0.7, 0.9, 0.99}
	for _, m := range subOne {
		if got := Adjust(types.ConfHigh, m); got >= types.ConfHigh {
			t.Errorf("Multiplier %v on HIGH must downgrade, got %s", m, got)
		}
	}

	atLeastOne := []float64{1.0, 1.1, 1.2}
	grades := []types.Confidence{types.ConfLow, types.ConfMedium, types.ConfHigh}
	for _, m := range atLeastOne {
		for _, c := range grades {
			if got := Adjust(c, m); got < c {
				t.Errorf("Multiplier %v on %s must never downgrade, got %s", m, c, got)
			}
		}
	}
}

func TestAdjustClampsAndTruncates(t *testing.T) {
	if got := Adjust(types.ConfHigh, 0.7); got != types.ConfMedium {
		t.Errorf("0.7*HIGH should truncate 2.1 to MEDIUM, got %s", got)
	}
	if got := Adjust(types.ConfMedium, 0.6); got != types.ConfLow {
		t.Errorf("0.6*MEDIUM should truncate 1.2 to LOW, got %s", got)
	}
	if got := Adjust(types.ConfLow, 0.5); got != types.ConfLow {
		t.Errorf("Adjusted confidence must clamp at LOW, got %s", got)
	}
	if got := Adjust(types.ConfHigh, 1.2); got != types.ConfHigh {
		t.Errorf("Adjusted confidence must clamp at HIGH, got %s", got)
	}
	if got := Adjust(types.ConfNone, 1.2); got != types.ConfNone {
		t.Errorf("NONE must pass through unchanged, got %s", got)
	}
}

func TestPhaseLabels(t *testing.T) {
	cases := []struct {
		when time.Time
		want string
	}{
		{at(9, 15), "Pre-Market"},
		{at(10, 0), "Open Drive"},
		{at(12, 0), "Midday"},
		{at(14, 0), "Afternoon Drift"},
		{at(15, 0), "Power Hour"},
		{at(15, 45), "After Hours"},
	}
	for _, tc := range cases {
		if got := Phase(tc.when); got != tc.want {
			t.Errorf("Phase(%s): expected %q, got %q", tc.when.Format("15:04"), tc.want, got)
		}
	}
}
