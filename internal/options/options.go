// Package options prices European options with the Black-Scholes closed
// form and provides the 0DTE helpers: ATM strike selection and the
// time-to-expiry clock. The same Price function serves entry and exit so
// premium changes are attributable only to underlying/time/vol changes.
package options

import (
	"math"
	"time"

	"odte-trader/internal/types"
)

// tradingHoursPerYear converts clock hours to expiry years: 252 trading
// days of 6.5 regular-session hours.
const tradingHoursPerYear = 252.0 * 6.5

func normCDF(x float64) float64 {
	return 0.5 * (1.0 + math.Erf(x/math.Sqrt2))
}

func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2.0*math.Pi)
}

func d1d2(s, k, t, r, sigma float64) (float64, float64) {
	d1 := (math.Log(s/k) + (r+0.5*sigma*sigma)*t) / (sigma * math.Sqrt(t))
	return d1, d1 - sigma*math.Sqrt(t)
}

// Intrinsic is the exercise value, the defined fallback for degenerate
// pricing inputs.
func Intrinsic(s, k float64, typ types.Direction) float64 {
	if typ == types.DirPut {
		return math.Max(k-s, 0)
	}
	return math.Max(s-k, 0)
}

// Price returns the Black-Scholes premium. Non-positive time-to-expiry or
// volatility falls back to intrinsic value rather than NaN.
func Price(s, k, t, r, sigma float64, typ types.Direction) float64 {
	if t <= 0 || sigma <= 0 || s <= 0 || k <= 0 {
		return Intrinsic(s, k, typ)
	}
	d1, d2 := d1d2(s, k, t, r, sigma)
	var p float64
	if typ == types.DirPut {
		p = k*math.Exp(-r*t)*normCDF(-d2) - s*normCDF(-d1)
	} else {
		p = s*normCDF(d1) - k*math.Exp(-r*t)*normCDF(d2)
	}
	return math.Max(p, 0)
}

// Delta is the premium sensitivity to the underlying. At expiry it
// collapses to the exercise indicator.
func Delta(s, k, t, r, sigma float64, typ types.Direction) float64 {
	if t <= 0 || sigma <= 0 {
		if typ == types.DirPut {
			if s < k {
				return -1
			}
			return 0
		}
		if s > k {
			return 1
		}
		return 0
	}
	d1, _ := d1d2(s, k, t, r, sigma)
	if typ == types.DirPut {
		return -normCDF(-d1)
	}
	return normCDF(d1)
}

// Gamma is identical for calls and puts.
func Gamma(s, k, t, r, sigma float64) float64 {
	if t <= 0 || sigma <= 0 || s <= 0 {
		return 0
	}
	d1, _ := d1d2(s, k, t, r, sigma)
	return normPDF(d1) / (s * sigma * math.Sqrt(t))
}

// Theta is the per-day time decay (negative for long premium).
func Theta(s, k, t, r, sigma float64, typ types.Direction) float64 {
	if t <= 0 || sigma <= 0 {
		return 0
	}
	d1, d2 := d1d2(s, k, t, r, sigma)
	term1 := -s * normPDF(d1) * sigma / (2 * math.Sqrt(t))
	var term2 float64
	if typ == types.DirPut {
		term2 = r * k * math.Exp(-r*t) * normCDF(-d2)
	} else {
		term2 = -r * k * math.Exp(-r*t) * normCDF(d2)
	}
	return (term1 + term2) / 365.0
}

// Vega is the premium change per one percentage point of IV, identical for
// calls and puts.
func Vega(s, k, t, r, sigma float64) float64 {
	if t <= 0 || sigma <= 0 {
		return 0
	}
	d1, _ := d1d2(s, k, t, r, sigma)
	return s * normPDF(d1) * math.Sqrt(t) / 100.0
}

// Greeks bundles all sensitivities for one contract.
type Greeks struct {
	Price float64 `json:"price"`
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
}

func AllGreeks(s, k, t, r, sigma float64, typ types.Direction) Greeks {
	return Greeks{
		Price: Price(s, k, t, r, sigma, typ),
		Delta: Delta(s, k, t, r, sigma, typ),
		Gamma: Gamma(s, k, t, r, sigma),
		Theta: Theta(s, k, t, r, sigma, typ),
		Vega:  Vega(s, k, t, r, sigma),
	}
}

// ATMStrike selects the at-the-money, slightly in-the-money strike: floor
// for calls, ceil for puts.
func ATMStrike(price float64, typ types.Direction, spacing float64) float64 {
	if spacing <= 0 {
		spacing = 1.0
	}
	if typ == types.DirPut {
		return math.Ceil(price/spacing) * spacing
	}
	return math.Floor(price/spacing) * spacing
}

// YearsToExpiry is the 0DTE expiry clock: fraction of a trading year
// remaining until 16:00 on the instant's own day. At or past the close it
// returns 0, the expiration boundary.
func YearsToExpiry(at time.Time) float64 {
	decimal := float64(at.Hour()) + float64(at.Minute())/60.0
	hours := 16.0 - decimal
	if hours <= 0 {
		return 0
	}
	return hours / tradingHoursPerYear
}
