// Package benchmark resolves hero, position and bracket averages over time
// and caches them per hero and position.
package benchmark

import (
	"sort"
)

// DefaultTolerance is the window, in minutes, used by Nearest lookups.
const DefaultTolerance = 5

// Point is the population average for one hero, position and bracket at an
// elapsed minute. Sequences of points are sparse and not necessarily sorted.
type Point struct {
	Time          int     `json:"time"`
	MatchCount    int     `json:"matchCount"`
	Kills         float64 `json:"kills"`
	Deaths        float64 `json:"deaths"`
	Assists       float64 `json:"assists"`
	Networth      float64 `json:"networth"`
	Level         float64 `json:"level"`
	CS            float64 `json:"cs"`
	Denies        float64 `json:"dn"`
	GoldPerMinute float64 `json:"goldPerMinute"`
	XP            float64 `json:"xp"`
	CampsStacked  float64 `json:"campsStacked"`
	HeroDamage    float64 `json:"heroDamage"`
	TowerDamage   float64 `json:"towerDamage"`
	HealingAllies float64 `json:"healingAllies"`
}

// AtOrBefore returns the latest point with Time <= minute. When the target
// precedes every point it falls back to the latest point overall. It returns
// nil only for an empty sequence.
func AtOrBefore(points []Point, minute int) *Point {
	if len(points) == 0 {
		return nil
	}
	best, latest := -1, 0
	for i := range points {
		t := points[i].Time
		if t > points[latest].Time {
			latest = i
		}
		if t <= minute && (best < 0 || t > points[best].Time) {
			best = i
		}
	}
	if best < 0 {
		best = latest
	}
	p := points[best]
	return &p
}

// Nearest returns the point closest to minute within ±tolerance. Ties go to
// the earlier point. Returns nil if nothing qualifies.
func Nearest(points []Point, minute, tolerance int) *Point {
	best := -1
	bestDiff := 0
	for i := range points {
		diff := points[i].Time - minute
		if diff < 0 {
			diff = -diff
		}
		if diff > tolerance {
			continue
		}
		if best < 0 || diff < bestDiff || (diff == bestDiff && points[i].Time < points[best].Time) {
			best, bestDiff = i, diff
		}
	}
	if best < 0 {
		return nil
	}
	p := points[best]
	return &p
}

// Sorted returns a copy ordered by Time.
func Sorted(points []Point) []Point {
	out := make([]Point, len(points))
	copy(out, points)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}
