package ta

import "math"

func SMA(vals []float64, n int) float64 {
	if len(vals) < n || n <= 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(vals) - n; i < len(vals); i++ {
		sum += vals[i]
	}
	return sum / float64(n)
}

// TailMean averages the last n values, or everything available when fewer
// than n exist. Returns 0 for an empty slice.
func TailMean(vals []float64, n int) float64 {
	if len(vals) == 0 {
		return 0
	}
	if n > len(vals) {
		n = len(vals)
	}
	sum := 0.0
	for i := len(vals) - n; i < len(vals); i++ {
		sum += vals[i]
	}
	return sum / float64(n)
}

func StdDev(vals []float64, n int) float64 {
	if len(vals) < n || n <= 0 {
		return math.NaN()
	}
	m := SMA(vals, n)
	s := 0.0
	for i := len(vals) - n; i < len(vals); i++ {
		d := vals[i] - m
		s += d * d
	}
	return math.Sqrt(s / float64(n))
}

// EMASeries computes an exponential moving average with alpha = 2/(n+1).
// When seed is non-nil the first element is alpha*first + (1-alpha)*seed,
// which is how a new session continues from the prior session's EMA;
// otherwise the series starts at the first value.
func EMASeries(vals []float64, n int, seed *float64) []float64 {
	if len(vals) == 0 || n <= 0 {
		return nil
	}
	alpha := 2.0 / (float64(n) + 1.0)
	out := make([]float64, len(vals))
	if seed != nil {
		out[0] = alpha*vals[0] + (1-alpha)*(*seed)
	} else {
		out[0] = vals[0]
	}
	for i := 1; i < len(vals); i++ {
		out[i] = alpha*vals[i] + (1-alpha)*out[i-1]
	}
	return out
}

// VWAPSeries computes session-cumulative volume-weighted average price from
// typical prices (H+L+C)/3. Zero cumulative volume yields the typical price
// itself rather than a NaN.
func VWAPSeries(highs, lows, closes, volumes []float64) []float64 {
	n := len(closes)
	out := make([]float64, n)
	cumPV, cumV := 0.0, 0.0
	for i := 0; i < n; i++ {
		tp := (highs[i] + lows[i] + closes[i]) / 3.0
		cumPV += tp * volumes[i]
		cumV += volumes[i]
		if cumV > 0 {
			out[i] = cumPV / cumV
		} else {
			out[i] = tp
		}
	}
	return out
}

// PctChange returns the percentage change of the last value over the value
// n bars earlier, or 0 when the series is too short or the base is zero.
func PctChange(vals []float64, n int) float64 {
	if len(vals) <= n || n <= 0 {
		return 0
	}
	base := vals[len(vals)-1-n]
	if base == 0 {
		return 0
	}
	return (vals[len(vals)-1] - base) / base * 100.0
}

// ATR is the rolling mean of true range over the last period bars.
func ATR(highs, lows, closes []float64, period int) float64 {
	if len(highs) != len(lows) || len(lows) != len(closes) {
		return math.NaN()
	}
	n := period
	if len(closes) < n+1 {
		return math.NaN()
	}
	sum := 0.0
	for i := len(closes) - n; i < len(closes); i++ {
		tr1 := highs[i] - lows[i]
		tr2 := math.Abs(highs[i] - closes[i-1])
		tr3 := math.Abs(lows[i] - closes[i-1])
		sum += math.Max(tr1, math.Max(tr2, tr3))
	}
	return sum / float64(n)
}
