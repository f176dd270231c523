package timeseries

import (
	"math"
	"testing"
)

func TestAccumulateLastHitsAtTen(t *testing.T) {
	lh := []float64{4, 5, 6, 5, 4, 3, 5, 6, 7, 8, 9}
	if got := Accumulate(lh, 10); got != 62 {
		t.Fatalf("Accumulate(lh, 10) = %v, want 62", got)
	}
	if got := ValueAt(Accumulating, lh, 10, Fallback{Total: 300, MatchMinutes: 30}); got != 62 {
		t.Fatalf("ValueAt should prefer the series, got %v", got)
	}
}

// TestAccumulateStepProperty: each step adds exactly the element at that index.
func TestAccumulateStepProperty(t *testing.T) {
	a := []float64{3, 0, 7, 2, 9, 1}
	for i := 1; i < len(a); i++ {
		if Accumulate(a, i) != Accumulate(a, i-1)+a[i] {
			t.Errorf("step %d broke the running sum", i)
		}
	}
}

func TestEstimateFromTotals(t *testing.T) {
	if got := ValueAt(Accumulating, nil, 10, Fallback{Total: 300, MatchMinutes: 30}); got != 100 {
		t.Fatalf("estimate = %v, want 100", got)
	}
	got := ValueAt(Accumulating, nil, 10, Fallback{Total: 300, MatchMinutes: 30, Factor: LaningLastHitFactor})
	if math.Abs(got-80) > 1e-9 {
		t.Fatalf("laning estimate = %v, want 80", got)
	}
}

func TestEstimateCapsAndFloors(t *testing.T) {
	cases := []struct {
		name   string
		total  float64
		target int
		mm     float64
		factor float64
		want   float64
	}{
		{"target beyond match", 50, 40, 20, 1, 50},
		{"factor would overshoot", 10, 10, 10, 1.2, 10},
		{"no total", 0, 10, 30, 1, 0},
		{"no minutes", 100, 10, 0, 1, 0},
		{"negative target", 100, -3, 30, 1, 0},
		{"zero factor", 60, 15, 30, 0, 30},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Estimate(c.total, c.target, c.mm, c.factor); math.Abs(got-c.want) > 1e-9 {
				t.Errorf("Estimate = %v, want %v", got, c.want)
			}
		})
	}
}

func TestClampedBounds(t *testing.T) {
	s := []float64{1, 2, 3}
	if got := IndexAt(s, 99); got != 3 {
		t.Errorf("IndexAt past end = %v, want 3", got)
	}
	if got := Accumulate(s, 99); got != 6 {
		t.Errorf("Accumulate past end = %v, want 6", got)
	}
	if IndexAt(nil, 0) != 0 || Accumulate(nil, 5) != 0 || IndexAt(s, -1) != 0 {
		t.Error("empty or negative index should read as 0")
	}
	// short series, no fallback: clamp.
	if got := ValueAt(Cumulative, s, 10, Fallback{}); got != 3 {
		t.Errorf("ValueAt clamp = %v, want 3", got)
	}
	if got := ValueAt(Cumulative, nil, 10, Fallback{}); got != 0 {
		t.Errorf("ValueAt empty = %v, want 0", got)
	}
}

func TestNeverNegative(t *testing.T) {
	s := []float64{-5, -2}
	if Accumulate(s, 1) < 0 || IndexAt(s, 0) < 0 {
		t.Error("negative values must floor at 0")
	}
}
