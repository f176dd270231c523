// Package report turns engine findings into the summary sentence and
// timeline, and renders reports for the terminal.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pable/dota-coach/internal/model"
	"github.com/pable/dota-coach/internal/rules"
)

const (
	// firstCoreMedianSeconds is used when the thresholds document has no
	// firstCoreMedian_s entry.
	firstCoreMedianSeconds = 720
	// lastHits10Fallback is used when neither a benchmark nor the
	// carryLastHits10 threshold is available.
	lastHits10Fallback = 50

	midGameMinute = 20
)

// Summary builds the one-line report summary from the top win and fix.
func Summary(fixes, wins []model.Finding) string {
	var b strings.Builder
	if len(wins) > 0 {
		fmt.Fprintf(&b, "Strong performance in %s. ", strings.ToLower(wins[0].Title))
	}
	if len(fixes) > 0 {
		fmt.Fprintf(&b, "Focus on %s for improvement.", strings.ToLower(fixes[0].Title))
	} else {
		b.WriteString("Overall solid performance with room for optimization.")
	}
	return b.String()
}

// Timeline lists the notable moments of the player's game in time order.
func Timeline(d *model.PlayerData, facts rules.Facts, th *rules.Thresholds) []model.TimelineMarker {
	var out []model.TimelineMarker

	if d.FirstCoreSeconds > 0 {
		median := lookup(th, "thresholds.firstCoreMedian_s", firstCoreMedianSeconds)
		out = append(out, model.TimelineMarker{
			Label:       "First Core Item",
			Time:        d.FirstCoreSeconds,
			Description: fmt.Sprintf("Core item timing %s", Clock(d.FirstCoreSeconds)),
			Delta:       float64(d.FirstCoreSeconds) - median,
			HasDelta:    true,
		})
	}

	if d.Role.IsCore() {
		ref, ok := facts.Benchmark("last_hits", 10)
		if !ok {
			ref = lookup(th, "thresholds.carryLastHits10", lastHits10Fallback)
		}
		out = append(out, model.TimelineMarker{
			Label:       "10-min Farm",
			Time:        600,
			Description: fmt.Sprintf("Last hits: %.0f", d.LastHitsAt10),
			Delta:       d.LastHitsAt10 - ref,
			HasDelta:    true,
		})
	}

	if minute, ok := levelSixMinute(d.Series); ok {
		m := model.TimelineMarker{
			Label:       "Level 6",
			Time:        minute * 60,
			Description: fmt.Sprintf("Reached level 6 at minute %d", minute),
		}
		if avg, ok := facts.Benchmark("level", minute); ok {
			m.Delta, m.HasDelta = 6-avg, true
		}
		out = append(out, m)
	}

	if d.MatchMinutes > midGameMinute {
		nw, _ := facts.Player("networth", midGameMinute)
		m := model.TimelineMarker{
			Label:       "Mid-game Net Worth",
			Time:        midGameMinute * 60,
			Description: fmt.Sprintf("Net worth: %.0f", nw),
		}
		if avg, ok := facts.Benchmark("networth", midGameMinute); ok {
			m.Delta, m.HasDelta = nw-avg, true
		}
		out = append(out, m)
	}

	sortMarkers(out)
	return out
}

func levelSixMinute(s *model.Series) (int, bool) {
	if s == nil {
		return 0, false
	}
	for i, lvl := range s.Level {
		if lvl >= 6 {
			return i, true
		}
	}
	return 0, false
}

func sortMarkers(ms []model.TimelineMarker) {
	sort.SliceStable(ms, func(i, j int) bool { return ms[i].Time < ms[j].Time })
}

func lookup(th *rules.Thresholds, path string, fallback float64) float64 {
	if v, ok := th.Lookup(path); ok {
		return v
	}
	return fallback
}

// Clock formats seconds as m:ss.
func Clock(seconds int) string {
	if seconds < 0 {
		return "-" + Clock(-seconds)
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
