// Package timefilter maps wall-clock time of day to an entry gate and a
// confidence multiplier. It is a pure function of the clock plus static
// configuration.
package timefilter

import (
	"strconv"
	"strings"
	"time"

	"odte-trader/internal/store"
	"odte-trader/internal/types"
)

// Decision is the filter output for one instant.
type Decision struct {
	Allow      bool
	Multiplier float64
	Label      string
}

type Filter struct {
	cfg        *store.Config
	sessionMin int
	blockMin   int
	closeMin   int
	windows    []window
}

type window struct {
	startMin, endMin int
	allow            bool
	multiplier       float64
	label            string
}

func New(cfg *store.Config) *Filter {
	f := &Filter{
		cfg:        cfg,
		sessionMin: mustMinutes(cfg.Session.Start),
		blockMin:   mustMinutes(cfg.TimeFilter.BlockEntriesAfter),
		closeMin:   mustMinutes(cfg.Session.Close),
	}
	for _, w := range cfg.TimeFilter.Windows {
		f.windows = append(f.windows, window{
			startMin:   mustMinutes(w.Start),
			endMin:     mustMinutes(w.End),
			allow:      w.Allow,
			multiplier: w.Multiplier,
			label:      w.Label,
		})
	}
	return f
}

// Evaluate resolves the gate for an instant, in fixed precedence: closed
// session, late-day entry block, post-open caution, then the configured
// windows in listed order, then normal hours.
func (f *Filter) Evaluate(t time.Time) Decision {
	m := minuteOfDay(t)

	if m < f.sessionMin || m >= f.closeMin {
		return Decision{Allow: false, Multiplier: 0, Label: "session closed"}
	}
	if m >= f.blockMin {
		return Decision{Allow: false, Multiplier: 0, Label: "late day entry block"}
	}
	if m-f.sessionMin < f.cfg.TimeFilter.OpenCautionMinutes {
		return Decision{Allow: true, Multiplier: f.cfg.TimeFilter.OpenCautionMultiplier, Label: "post-open caution"}
	}
	for _, w := range f.windows {
		if m >= w.startMin && m < w.endMin {
			return Decision{Allow: w.allow, Multiplier: w.multiplier, Label: w.label}
		}
	}
	return Decision{Allow: true, Multiplier: 1.0, Label: "normal hours"}
}

// Adjust scales a confidence grade by the multiplier on the numeric scale
// LOW=1 MEDIUM=2 HIGH=3, truncating toward zero and re-clamping to [1,3].
// Truncation is load-bearing: it guarantees a multiplier below 1.0 always
// strictly downgrades (0.9*HIGH is 2.7, which truncates to MEDIUM) while a
// multiplier at or above 1.0 never downgrades. NONE passes through.
func Adjust(c types.Confidence, multiplier float64) types.Confidence {
	if c == types.ConfNone {
		return c
	}
	adj := int(float64(c) * multiplier)
	if adj < 1 {
		adj = 1
	}
	if adj > 3 {
		adj = 3
	}
	return types.Confidence(adj)
}

// Phase labels the market phase for an instant, matching the session
// breakdown used in reporting.
func Phase(t time.Time) string {
	m := minuteOfDay(t)
	switch {
	case m < 9*60+30:
		return "Pre-Market"
	case m < 11*60:
		return "Open Drive"
	case m < 13*60+30:
		return "Midday"
	case m < 14*60+30:
		return "Afternoon Drift"
	case m < 15*60+30:
		return "Power Hour"
	default:
		return "After Hours"
	}
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// mustMinutes parses "HH:MM"; config validation guarantees the format.
func mustMinutes(s string) int {
	i := strings.IndexByte(s, ':')
	h, _ := strconv.Atoi(s[:i])
	m, _ := strconv.Atoi(s[i+1:])
	return h*60 + m
}
