// Package timeseries reads values out of sparse per-minute arrays and
// estimates them from end-of-game totals when the arrays are absent.
package timeseries

import "math"

// Calibration factors for proportional estimates. These shape the guess
// toward how the stat is usually distributed over a game; they are not
// measured values.
const (
	// DenyConcentration favours the laning phase, where most denies happen.
	DenyConcentration = 1.2
	// LaningLastHitFactor discounts early farm, which is slower than average.
	LaningLastHitFactor = 0.8
	// MidGameLastHitFactor reflects the farm ramp after laning.
	MidGameLastHitFactor = 1.1
	// LaningRateFactor scales a final GPM or XPM down to its value at
	// minute 10 when no per-minute series exists.
	LaningRateFactor = 0.8
)

// Kind tells ValueAt how to read a series.
type Kind int

const (
	// Accumulating series hold per-minute deltas that must be summed.
	Accumulating Kind = iota
	// Cumulative series already hold running values.
	Cumulative
)

// Fallback carries the totals used to estimate a value when the series
// does not reach the requested minute.
type Fallback struct {
	Total        float64
	MatchMinutes float64
	Factor       float64
}

// Accumulate sums series[0..i], clamping i to the last index.
func Accumulate(series []float64, i int) float64 {
	if len(series) == 0 || i < 0 {
		return 0
	}
	if i > len(series)-1 {
		i = len(series) - 1
	}
	var sum float64
	for _, v := range series[:i+1] {
		sum += v
	}
	return math.Max(sum, 0)
}

// IndexAt returns series[i], clamping i to the last index.
func IndexAt(series []float64, i int) float64 {
	if len(series) == 0 || i < 0 {
		return 0
	}
	if i > len(series)-1 {
		i = len(series) - 1
	}
	return math.Max(series[i], 0)
}

// Estimate scales total by the elapsed fraction of the match and a
// calibration factor. A zero factor means 1. The result is kept in [0, total].
func Estimate(total float64, target int, matchMinutes, factor float64) float64 {
	if total <= 0 || matchMinutes <= 0 || target < 0 {
		return 0
	}
	if factor == 0 {
		factor = 1
	}
	v := total * (math.Min(float64(target), matchMinutes) / matchMinutes) * factor
	return math.Max(0, math.Min(v, total))
}

// ValueAt reads minute from series when it is long enough, otherwise
// estimates from the fallback, otherwise clamps into the series.
func ValueAt(kind Kind, series []float64, minute int, fb Fallback) float64 {
	if minute < 0 {
		return 0
	}
	if len(series) > minute {
		return read(kind, series, minute)
	}
	if fb.Total > 0 && fb.MatchMinutes > 0 {
		return Estimate(fb.Total, minute, fb.MatchMinutes, fb.Factor)
	}
	if len(series) > 0 {
		return read(kind, series, minute)
	}
	return 0
}

func read(kind Kind, series []float64, minute int) float64 {
	if kind == Accumulating {
		return Accumulate(series, minute)
	}
	return IndexAt(series, minute)
}
