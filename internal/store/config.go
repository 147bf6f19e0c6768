package store

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"odte-trader/internal/types"
)

// Window is one time-of-day filter entry. Times are "HH:MM" wall clock in
// the configured exchange timezone.
type Window struct {
	Start      string  `yaml:"start"`
	End        string  `yaml:"end"`
	Allow      bool    `yaml:"allow"`
	Multiplier float64 `yaml:"multiplier"`
	Label      string  `yaml:"label"`
}

type Config struct {
	Symbol   string `yaml:"symbol"`
	Timezone string `yaml:"timezone"`

	Session struct {
		Start      string `yaml:"start"`       // first bar eligible for signals
		End        string `yaml:"end"`         // forced TIME exit cutoff
		Close      string `yaml:"close"`       // market close, last processed bar
		BarMinutes int    `yaml:"bar_minutes"` // intraday bar interval
		BarsPerDay int    `yaml:"bars_per_day"`
	} `yaml:"session"`

	Regime struct {
		MAShort      int     `yaml:"ma_short"`
		MALong       int     `yaml:"ma_long"`
		GapSmallPct  float64 `yaml:"gap_small_pct"`
		RangeLowPct  float64 `yaml:"range_low_pct"`
		RangeHighPct float64 `yaml:"range_high_pct"`
		VIXFloor     float64 `yaml:"vix_floor"`
	} `yaml:"regime"`

	Intraday struct {
		EMAFast     int `yaml:"ema_fast"`
		EMASlow     int `yaml:"ema_slow"`
		VolLookback int `yaml:"vol_lookback"`
	} `yaml:"intraday"`

	Chop struct {
		LookbackBars   int     `yaml:"lookback_bars"`
		CrossThreshold int     `yaml:"vwap_cross_threshold"`
		EMAFlatPct     float64 `yaml:"ema_flat_pct"`
		ATRPeriod      int     `yaml:"atr_period"`
		ATRMinPct      float64 `yaml:"atr_min_pct"`
	} `yaml:"chop"`

	TimeFilter struct {
		BlockEntriesAfter     string   `yaml:"block_entries_after"`
		OpenCautionMinutes    int      `yaml:"open_caution_minutes"`
		OpenCautionMultiplier float64  `yaml:"open_caution_multiplier"`
		Windows               []Window `yaml:"windows"`
	} `yaml:"time_filter"`

	Vol struct {
		LookbackDays int `yaml:"lookback_days"`
	} `yaml:"vol"`

	Options struct {
		StrictMode    bool    `yaml:"strict_mode"`
		MinIVPct      float64 `yaml:"min_iv_pct"`
		MinMovePct    float64 `yaml:"min_move_pct"`
		RiskFreeRate  float64 `yaml:"risk_free_rate"`
		StrikeSpacing float64 `yaml:"strike_spacing"`
		DefaultIVPct  float64 `yaml:"default_iv_pct"`
	} `yaml:"options"`

	Backtest struct {
		TPPct                 float64 `yaml:"tp_pct"`
		SLPct                 float64 `yaml:"sl_pct"`
		Contracts             int     `yaml:"contracts"`
		CooldownMinutes       int     `yaml:"cooldown_minutes"`
		MaxConsecutiveLosses  int     `yaml:"max_consecutive_losses"`
		CommissionPerContract float64 `yaml:"commission_per_contract"`
		SlippagePct           float64 `yaml:"slippage_pct"`
		MaxSpreadPct          float64 `yaml:"max_spread_pct"`
		StartingEquity        float64 `yaml:"starting_equity"`
		MinEntryConfidence    string  `yaml:"min_entry_confidence"`
	} `yaml:"backtest"`

	Data struct {
		DailyCSV    string `yaml:"daily_csv"`
		IntradayCSV string `yaml:"intraday_csv"`
		VIXCSV      string `yaml:"vix_csv"`
		Start       string `yaml:"start"` // YYYY-MM-DD
		End         string `yaml:"end"`
	} `yaml:"data"`

	Journal struct {
		Path string `yaml:"path"`
	} `yaml:"journal"`
}

// MinEntryConfidence maps the configured string to the confidence enum.
// Validate guarantees the string is one of LOW, MEDIUM, HIGH.
func (c *Config) MinEntryConfidence() types.Confidence {
	switch c.Backtest.MinEntryConfidence {
	case "LOW":
		return types.ConfLow
	case "HIGH":
		return types.ConfHigh
	default:
		return types.ConfMedium
	}
}

// Location resolves the configured exchange timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func validClock(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}

func (c *Config) Validate() error {
	for _, clk := range []struct{ name, v string }{
		{"session.start", c.Session.Start},
		{"session.end", c.Session.End},
		{"session.close", c.Session.Close},
		{"time_filter.block_entries_after", c.TimeFilter.BlockEntriesAfter},
	} {
		if !validClock(clk.v) {
			return fmt.Errorf("%s: %q is not a valid HH:MM time", clk.name, clk.v)
		}
	}
	if c.Session.Start >= c.Session.End || c.Session.End > c.Session.Close {
		return fmt.Errorf("session times must satisfy start < end <= close, got %s / %s / %s",
			c.Session.Start, c.Session.End, c.Session.Close)
	}
	if c.Session.BarMinutes <= 0 || c.Session.BarsPerDay <= 0 {
		return fmt.Errorf("session.bar_minutes and session.bars_per_day must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if c.Regime.MAShort <= 0 || c.Regime.MALong <= 0 || c.Regime.MAShort >= c.Regime.MALong {
		return fmt.Errorf("regime moving averages must satisfy 0 < ma_short < ma_long, got %d/%d",
			c.Regime.MAShort, c.Regime.MALong)
	}
	if c.Intraday.EMAFast <= 0 || c.Intraday.EMASlow <= 0 || c.Intraday.EMAFast >= c.Intraday.EMASlow {
		return fmt.Errorf("intraday EMAs must satisfy 0 < ema_fast < ema_slow, got %d/%d",
			c.Intraday.EMAFast, c.Intraday.EMASlow)
	}
	if c.Chop.LookbackBars < 2 || c.Chop.ATRPeriod < 1 {
		return fmt.Errorf("chop.lookback_bars must be >= 2 and chop.atr_period >= 1")
	}
	for i, w := range c.TimeFilter.Windows {
		if !validClock(w.Start) || !validClock(w.End) || w.Start >= w.End {
			return fmt.Errorf("time_filter.windows[%d]: bad window %q-%q", i, w.Start, w.End)
		}
		if w.Multiplier < 0 || w.Multiplier > 2 {
			return fmt.Errorf("time_filter.windows[%d]: multiplier %.2f out of range [0,2]", i, w.Multiplier)
		}
	}
	if c.Backtest.TPPct <= 0 || c.Backtest.SLPct <= 0 {
		return fmt.Errorf("backtest tp_pct and sl_pct must be positive, got %.2f/%.2f",
			c.Backtest.TPPct, c.Backtest.SLPct)
	}
	if c.Backtest.Contracts < 1 {
		return fmt.Errorf("backtest.contracts must be >= 1, got %d", c.Backtest.Contracts)
	}
	if c.Backtest.CooldownMinutes < 0 {
		return fmt.Errorf("backtest.cooldown_minutes cannot be negative")
	}
	if c.Backtest.MaxConsecutiveLosses < 1 {
		return fmt.Errorf("backtest.max_consecutive_losses must be >= 1, got %d", c.Backtest.MaxConsecutiveLosses)
	}
	if c.Backtest.SlippagePct < 0 || c.Backtest.MaxSpreadPct <= 0 {
		return fmt.Errorf("backtest slippage_pct must be >= 0 and max_spread_pct > 0")
	}
	if c.Backtest.StartingEquity <= 0 {
		return fmt.Errorf("backtest.starting_equity must be positive, got %.2f", c.Backtest.StartingEquity)
	}
	switch c.Backtest.MinEntryConfidence {
	case "LOW", "MEDIUM", "HIGH":
	default:
		return fmt.Errorf("backtest.min_entry_confidence must be LOW, MEDIUM, or HIGH, got %q",
			c.Backtest.MinEntryConfidence)
	}
	if c.Options.StrictMode && (c.Options.MinIVPct <= 0 || c.Options.MinMovePct <= 0) {
		return fmt.Errorf("options strict mode requires positive min_iv_pct and min_move_pct")
	}
	if c.Options.StrikeSpacing <= 0 {
		return fmt.Errorf("options.strike_spacing must be positive, got %.2f", c.Options.StrikeSpacing)
	}
	return nil
}

// applyDefaults fills unset fields with the standard SPY 0DTE parameters.
func (c *Config) applyDefaults() {
	if c.Symbol == "" {
		c.Symbol = "SPY"
	}
	if c.Timezone == "" {
		c.Timezone = "America/New_York"
	}
	if c.Session.Start == "" {
		c.Session.Start = "09:45"
	}
	if c.Session.End == "" {
		c.Session.End = "15:30"
	}
	if c.Session.Close == "" {
		c.Session.Close = "16:00"
	}
	if c.Session.BarMinutes == 0 {
		c.Session.BarMinutes = 5
	}
	if c.Session.BarsPerDay == 0 {
		c.Session.BarsPerDay = 78
	}
	if c.Regime.MAShort == 0 {
		c.Regime.MAShort = 20
	}
	if c.Regime.MALong == 0 {
		c.Regime.MALong = 50
	}
	if c.Regime.GapSmallPct == 0 {
		c.Regime.GapSmallPct = 0.2
	}
	if c.Regime.RangeLowPct == 0 {
		c.Regime.RangeLowPct = 0.5
	}
	if c.Regime.RangeHighPct == 0 {
		c.Regime.RangeHighPct = 1.5
	}
	if c.Regime.VIXFloor == 0 {
		c.Regime.VIXFloor = 15
	}
	if c.Intraday.EMAFast == 0 {
		c.Intraday.EMAFast = 9
	}
	if c.Intraday.EMASlow == 0 {
		c.Intraday.EMASlow = 21
	}
	if c.Intraday.VolLookback == 0 {
		c.Intraday.VolLookback = 20
	}
	if c.Chop.LookbackBars == 0 {
		c.Chop.LookbackBars = 12
	}
	if c.Chop.CrossThreshold == 0 {
		c.Chop.CrossThreshold = 3
	}
	if c.Chop.EMAFlatPct == 0 {
		c.Chop.EMAFlatPct = 0.1
	}
	if c.Chop.ATRPeriod == 0 {
		c.Chop.ATRPeriod = 14
	}
	if c.Chop.ATRMinPct == 0 {
		c.Chop.ATRMinPct = 0.2
	}
	if c.TimeFilter.BlockEntriesAfter == "" {
		c.TimeFilter.BlockEntriesAfter = "14:30"
	}
	if c.TimeFilter.OpenCautionMinutes == 0 {
		c.TimeFilter.OpenCautionMinutes = 10
	}
	if c.TimeFilter.OpenCautionMultiplier == 0 {
		c.TimeFilter.OpenCautionMultiplier = 0.5
	}
	if c.TimeFilter.Windows == nil {
		c.TimeFilter.Windows = []Window{
			{Start: "11:45", End: "13:30", Allow: true, Multiplier: 0.6, Label: "lunch chop"},
			{Start: "14:15", End: "15:30", Allow: true, Multiplier: 1.2, Label: "power hour"},
		}
	}
	if c.Vol.LookbackDays == 0 {
		c.Vol.LookbackDays = 252
	}
	if c.Options.MinIVPct == 0 {
		c.Options.MinIVPct = 12
	}
	if c.Options.MinMovePct == 0 {
		c.Options.MinMovePct = 1.0
	}
	if c.Options.RiskFreeRate == 0 {
		c.Options.RiskFreeRate = 0.045
	}
	if c.Options.StrikeSpacing == 0 {
		c.Options.StrikeSpacing = 1.0
	}
	if c.Options.DefaultIVPct == 0 {
		c.Options.DefaultIVPct = 20
	}
	if c.Backtest.TPPct == 0 {
		c.Backtest.TPPct = 20
	}
	if c.Backtest.SLPct == 0 {
		c.Backtest.SLPct = 50
	}
	if c.Backtest.Contracts == 0 {
		c.Backtest.Contracts = 1
	}
	if c.Backtest.CooldownMinutes == 0 {
		c.Backtest.CooldownMinutes = 30
	}
	if c.Backtest.MaxConsecutiveLosses == 0 {
		c.Backtest.MaxConsecutiveLosses = 2
	}
	if c.Backtest.CommissionPerContract == 0 {
		c.Backtest.CommissionPerContract = 1.25
	}
	if c.Backtest.SlippagePct == 0 {
		c.Backtest.SlippagePct = 0.5
	}
	if c.Backtest.MaxSpreadPct == 0 {
		// The simulated quote widens to 10% of mid for normal premiums,
		// which is ~10.5% of the bid; the cap must sit above that.
		c.Backtest.MaxSpreadPct = 15
	}
	if c.Backtest.StartingEquity == 0 {
		c.Backtest.StartingEquity = 10000
	}
	if c.Backtest.MinEntryConfidence == "" {
		c.Backtest.MinEntryConfidence = "MEDIUM"
	}
	if c.Journal.Path == "" {
		c.Journal.Path = "data/trade_journal.csv"
	}
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

// DefaultConfig returns a fully defaulted configuration, mostly for tests
// and the signal CLI when no file is supplied.
func DefaultConfig() *Config {
	var c Config
	c.applyDefaults()
	return &c
}
