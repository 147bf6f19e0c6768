package options

import (
	"math"
	"testing"
	"time"

	"odte-trader/internal/types"
)

func TestDegenerateInputsFallBackToIntrinsic(t *testing.T) {
	// Expired call, in the money.
	if got := Price(105, 100, 0, 0.045, 0.2, types.DirCall); got != 5 {
		t.Errorf("Expected intrinsic 5 for expired ITM call, got %f", got)
	}
	// Expired put, out of the money.
	if got := Price(105, 100, 0, 0.045, 0.2, types.DirPut); got != 0 {
		t.Errorf("Expected 0 for expired OTM put, got %f", got)
	}
	// Zero volatility.
	if got := Price(95, 100, 0.01, 0.045, 0, types.DirPut); got != 5 {
		t.Errorf("Expected intrinsic 5 for zero-vol ITM put, got %f", got)
	}
	if math.IsNaN(Price(100, 100, -1, 0.045, -1, types.DirCall)) {
		t.Error("Degenerate inputs must never produce NaN")
	}
}

func TestPriceBounds(t *testing.T) {
	T := 0.01
	call := Price(100, 100, T, 0.045, 0.2, types.DirCall)
	put := Price(100, 100, T, 0.045, 0.2, types.DirPut)

	if call <= 0 || put <= 0 {
		t.Fatalf("ATM premiums must be positive, got call=%f put=%f", call, put)
	}
	if call >= 100 {
		t.Errorf("Call premium cannot exceed the underlying, got %f", call)
	}

	// Deeper ITM is worth more.
	if Price(110, 100, T, 0.045, 0.2, types.DirCall) <= call {
		t.Error("Expected call premium to grow with the underlying")
	}
	if Price(90, 100, T, 0.045, 0.2, types.DirPut) <= put {
		t.Error("Expected put premium to grow as the underlying falls")
	}
}

func TestPutCallParity(t *testing.T) {
	s, k, T, r, sigma := 100.0, 98.0, 0.02, 0.045, 0.25

	call := Price(s, k, T, r, sigma, types.DirCall)
	put := Price(s, k, T, r, sigma, types.DirPut)

	lhs := call - put
	rhs := s - k*math.Exp(-r*T)
	if math.Abs(lhs-rhs) > 1e-9 {
		t.Errorf("Put-call parity violated: C-P=%f, S-K·e^(-rT)=%f", lhs, rhs)
	}
}

func TestDelta(t *testing.T) {
	T := 0.01
	dc := Delta(100, 100, T, 0.045, 0.2, types.DirCall)
	dp := Delta(100, 100, T, 0.045, 0.2, types.DirPut)

	if dc <= 0 || dc >= 1 {
		t.Errorf("Call delta must be in (0,1), got %f", dc)
	}
	if dp >= 0 || dp <= -1 {
		t.Errorf("Put delta must be in (-1,0), got %f", dp)
	}
	if math.Abs(dc-dp-1) > 1e-9 {
		t.Errorf("Expected call delta - put delta = 1, got %f", dc-dp)
	}

	// At expiry delta collapses to the exercise indicator.
	if got := Delta(105, 100, 0, 0.045, 0.2, types.DirCall); got != 1 {
		t.Errorf("Expected expired ITM call delta 1, got %f", got)
	}
	if got := Delta(105, 100, 0, 0.045, 0.2, types.DirPut); got != 0 {
		t.Errorf("Expected expired OTM put delta 0, got %f", got)
	}
}

func TestGreeksSigns(t *testing.T) {
	g := AllGreeks(100, 100, 0.01, 0.045, 0.2, types.DirCall)
	if g.Gamma <= 0 {
		t.Errorf("ATM gamma must be positive, got %f", g.Gamma)
	}
	if g.Theta >= 0 {
		t.Errorf("Long ATM premium decays, expected negative theta, got %f", g.Theta)
	}
	if g.Vega <= 0 {
		t.Errorf("Vega must be positive, got %f", g.Vega)
	}
}

func TestATMStrike(t *testing.T) {
	if got := ATMStrike(584.37, types.DirCall, 1); got != 584 {
		t.Errorf("Expected call strike floored to 584, got %f", got)
	}
	if got := ATMStrike(584.37, types.DirPut, 1); got != 585 {
		t.Errorf("Expected put strike ceiled to 585, got %f", got)
	}
	if got := ATMStrike(584.37, types.DirCall, 5); got != 580 {
		t.Errorf("Expected call strike floored to 580 with spacing 5, got %f", got)
	}
}

func TestYearsToExpiry(t *testing.T) {
	morning := time.Date(2025, 3, 10, 9, 45, 0, 0, time.UTC)
	noon := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	close := time.Date(2025, 3, 10, 16, 0, 0, 0, time.UTC)
	after := time.Date(2025, 3, 10, 16, 30, 0, 0, time.UTC)

	if got, want := YearsToExpiry(noon), 4.0/(252*6.5); math.Abs(got-want) > 1e-12 {
		t.Errorf("Expected %.10f at noon, got %.10f", want, got)
	}
	if YearsToExpiry(morning) <= YearsToExpiry(noon) {
		t.Error("Expected more time value earlier in the day")
	}
	if got := YearsToExpiry(close); got != 0 {
		t.Errorf("Expected 0 at the close, got %f", got)
	}
	if got := YearsToExpiry(after); got != 0 {
		t.Errorf("Expected 0 after the close, got %f", got)
	}
}
