package benchmark

import "testing"

func pts(times ...int) []Point {
	out := make([]Point, len(times))
	for i, t := range times {
		out[i] = Point{Time: t, CS: float64(t * 5)}
	}
	return out
}

func TestAtOrBeforePicksLatestNotAfter(t *testing.T) {
	// unsorted on purpose
	points := pts(20, 5, 10, 15)
	p := AtOrBefore(points, 12)
	if p == nil || p.Time != 10 {
		t.Fatalf("AtOrBefore(12) = %+v, want time 10", p)
	}
	p = AtOrBefore(points, 15)
	if p == nil || p.Time != 15 {
		t.Fatalf("AtOrBefore(15) = %+v, want exact match 15", p)
	}
}

// TestAtOrBeforeFallback: target earlier than all data falls back to the
// latest available point, never nil.
func TestAtOrBeforeFallback(t *testing.T) {
	points := pts(10, 30, 20)
	p := AtOrBefore(points, 2)
	if p == nil {
		t.Fatal("expected fallback point, got nil")
	}
	if p.Time != 30 {
		t.Errorf("fallback time = %d, want 30 (latest overall)", p.Time)
	}
}

func TestAtOrBeforeEmpty(t *testing.T) {
	if p := AtOrBefore(nil, 10); p != nil {
		t.Errorf("expected nil for empty sequence, got %+v", p)
	}
}

func TestAtOrBeforeReturnsCopy(t *testing.T) {
	points := pts(10)
	p := AtOrBefore(points, 10)
	p.CS = -1
	if points[0].CS == -1 {
		t.Error("resolver must not alias the cached sequence")
	}
}

func TestNearestWithinTolerance(t *testing.T) {
	points := pts(8, 14, 26)
	p := Nearest(points, 11, DefaultTolerance)
	if p == nil || p.Time != 8 {
		t.Fatalf("Nearest(11) = %+v, want 8 (tie goes earlier)", p)
	}
	p = Nearest(points, 13, DefaultTolerance)
	if p == nil || p.Time != 14 {
		t.Fatalf("Nearest(13) = %+v, want 14", p)
	}
	if p := Nearest(points, 20, 5); p != nil {
		t.Errorf("Nearest(20, ±5) = %+v, want nil", p)
	}
}

func TestGroupingForBracket(t *testing.T) {
	cases := map[int]Grouping{
		0: Uncalibrated, 1: HeraldGuardian, 2: HeraldGuardian,
		3: CrusaderArchon, 4: CrusaderArchon, 5: LegendAncient,
		6: LegendAncient, 7: DivineImmortal, 8: DivineImmortal,
		// OpenDota rank tiers
		54: LegendAncient, 80: DivineImmortal, 13: HeraldGuardian,
	}
	for in, want := range cases {
		if got := GroupingForBracket(in); got != want {
			t.Errorf("GroupingForBracket(%d) = %s, want %s", in, got, want)
		}
	}
}

func TestKeyString(t *testing.T) {
	k := Key{HeroID: 1, Position: "POSITION_1", Grouping: LegendAncient}
	if got := k.String(); got != "1-POSITION_1-LEGEND_ANCIENT" {
		t.Errorf("Key.String() = %q", got)
	}
	if _, err := ParseGrouping("legend_ancient"); err != nil {
		t.Errorf("ParseGrouping: %v", err)
	}
	if _, err := ParseGrouping("ANCIENT"); err == nil {
		t.Error("expected error for unknown grouping")
	}
}
