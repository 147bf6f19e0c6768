package store

import (
	"os"
	"path/filepath"
	"testing"

	"odte-trader/internal/types"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestDefaultsApplied(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "symbol: SPY\n"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Session.Start != "09:45" || cfg.Session.End != "15:30" || cfg.Session.Close != "16:00" {
		t.Errorf("Unexpected session defaults: %+v", cfg.Session)
	}
	if cfg.Regime.MAShort != 20 || cfg.Regime.MALong != 50 {
		t.Errorf("Unexpected MA defaults: %d/%d", cfg.Regime.MAShort, cfg.Regime.MALong)
	}
	if cfg.Intraday.EMAFast != 9 || cfg.Intraday.EMASlow != 21 {
		t.Errorf("Unexpected EMA defaults: %d/%d", cfg.Intraday.EMAFast, cfg.Intraday.EMASlow)
	}
	if cfg.Backtest.TPPct != 20 || cfg.Backtest.SLPct != 50 {
		t.Errorf("Unexpected TP/SL defaults: %.1f/%.1f", cfg.Backtest.TPPct, cfg.Backtest.SLPct)
	}
	if len(cfg.TimeFilter.Windows) == 0 {
		t.Error("Expected default time-filter windows")
	}
	if _, err := cfg.Location(); err != nil {
		t.Errorf("Default timezone must resolve: %v", err)
	}
}

func TestExplicitValuesSurviveDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
backtest:
  tp_pct: 35
  cooldown_minutes: 15
`))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Backtest.TPPct != 35 {
		t.Errorf("Expected tp_pct 35, got %.1f", cfg.Backtest.TPPct)
	}
	if cfg.Backtest.CooldownMinutes != 15 {
		t.Errorf("Expected cooldown 15, got %d", cfg.Backtest.CooldownMinutes)
	}
}

func TestInvalidConfigFailsFast(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"bad clock", "session:\n  start: \"9am\"\n"},
		{"session out of order", "session:\n  start: \"15:00\"\n  end: \"10:00\"\n"},
		{"negative tp", "backtest:\n  tp_pct: -5\n"},
		{"zero contracts", "backtest:\n  contracts: -1\n"},
		{"bad min confidence", "backtest:\n  min_entry_confidence: EXTREME\n"},
		{"bad ema order", "intraday:\n  ema_fast: 21\n  ema_slow: 9\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tc.body)); err == nil {
				t.Error("Expected configuration error")
			}
		})
	}
}

func TestMissingFileIsError(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestMinEntryConfidenceMapping(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MinEntryConfidence() != types.ConfMedium {
		t.Errorf("Expected default MEDIUM, got %s", cfg.MinEntryConfidence())
	}
	cfg.Backtest.MinEntryConfidence = "HIGH"
	if cfg.MinEntryConfidence() != types.ConfHigh {
		t.Errorf("Expected HIGH, got %s", cfg.MinEntryConfidence())
	}
	cfg.Backtest.MinEntryConfidence = "LOW"
	if cfg.MinEntryConfidence() != types.ConfLow {
		t.Errorf("Expected LOW, got %s", cfg.MinEntryConfidence())
	}
}
