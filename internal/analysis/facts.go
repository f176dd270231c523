// Package analysis wires normalized player data, benchmarks and the rule
// engine into a report.
package analysis

import (
	"math"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/pable/dota-coach/internal/benchmark"
	"github.com/pable/dota-coach/internal/model"
	"github.com/pable/dota-coach/internal/timeseries"
)

// pctPrefix selects a provider percentile, e.g. "pct.gold_per_min".
const pctPrefix = "pct."

// PercentileKeys are the provider percentile names rules may reference.
var PercentileKeys = []string{
	"gold_per_min",
	"xp_per_min",
	"kills_per_min",
	"last_hits_per_min",
	"hero_damage_per_min",
	"hero_healing_per_min",
	"tower_damage",
	"stuns_per_min",
}

// metric describes how one name is read for the player and, when it has a
// population average, for the benchmark.
type metric struct {
	// player returns the value at minute, or at end of game when minute < 0.
	player func(d *model.PlayerData, minute int) (float64, bool)
	// bench reads the average from a benchmark point; nil when the metric
	// has no benchmark counterpart.
	bench func(p benchmark.Point) (float64, bool)
}

func final(v func(d *model.PlayerData) float64) func(*model.PlayerData, int) (float64, bool) {
	return func(d *model.PlayerData, _ int) (float64, bool) { return v(d), true }
}

func field(v func(p benchmark.Point) float64) func(benchmark.Point) (float64, bool) {
	return func(p benchmark.Point) (float64, bool) { return v(p), true }
}

// estimated reads an accumulating series, falling back to a proportional
// estimate of the final total.
func estimated(series func(s *model.Series) []float64, total func(d *model.PlayerData) int, factor func(minute int) float64) func(*model.PlayerData, int) (float64, bool) {
	return func(d *model.PlayerData, minute int) (float64, bool) {
		if minute < 0 {
			return float64(total(d)), true
		}
		var s []float64
		if d.Series != nil {
			s = series(d.Series)
		}
		f := 1.0
		if factor != nil {
			f = factor(minute)
		}
		return timeseries.ValueAt(timeseries.Accumulating, s, minute,
			timeseries.Fallback{Total: float64(total(d)), MatchMinutes: d.MatchMinutes, Factor: f}), true
	}
}

// cumulative reads a running-value series; without one only the final
// value is known.
func cumulative(series func(s *model.Series) []float64, total func(d *model.PlayerData) int) func(*model.PlayerData, int) (float64, bool) {
	return func(d *model.PlayerData, minute int) (float64, bool) {
		if minute < 0 {
			return float64(total(d)), true
		}
		if d.Series != nil {
			if s := series(d.Series); len(s) > 0 {
				return timeseries.IndexAt(s, minute), true
			}
		}
		return timeseries.Estimate(float64(total(d)), minute, d.MatchMinutes, 1), total(d) > 0
	}
}

// lastHitFactor shapes the farm estimate by game phase.
func lastHitFactor(minute int) float64 {
	if minute <= 10 {
		return timeseries.LaningLastHitFactor
	}
	return timeseries.MidGameLastHitFactor
}

func denyFactor(int) float64 { return timeseries.DenyConcentration }

// earlyDeaths estimates deaths inside the first window minutes.
func earlyDeaths(window int) func(*model.PlayerData, int) (float64, bool) {
	return func(d *model.PlayerData, _ int) (float64, bool) {
		if d.MatchMinutes <= 0 {
			return 0, true
		}
		return math.Round(timeseries.Estimate(float64(d.Deaths), window, d.MatchMinutes, 1)), true
	}
}

// proportional has no series; values before the end are estimated from the
// final total.
func proportional(total func(d *model.PlayerData) int) func(*model.PlayerData, int) (float64, bool) {
	return func(d *model.PlayerData, minute int) (float64, bool) {
		v := float64(total(d))
		if minute < 0 {
			return v, true
		}
		return timeseries.Estimate(v, minute, d.MatchMinutes, 1), true
	}
}

func gpmAt(d *model.PlayerData, minute int) (float64, bool) {
	if minute < 0 {
		return float64(d.GPM), true
	}
	if d.Series != nil && len(d.Series.GoldPerMinute) > 0 {
		return timeseries.IndexAt(d.Series.GoldPerMinute, minute), true
	}
	return float64(d.GPM), d.GPM > 0
}

func xpmAt(d *model.PlayerData, minute int) (float64, bool) {
	if minute < 0 {
		return float64(d.XPM), true
	}
	if minute > 0 && d.Series != nil && len(d.Series.XP) > 0 {
		return timeseries.Accumulate(d.Series.XP, minute) / float64(minute), true
	}
	return float64(d.XPM), d.XPM > 0
}

// rateAt10 reads a per-minute rate at minute 10, discounting the final rate
// for the slower laning phase when no series exists.
func rateAt10(at func(*model.PlayerData, int) (float64, bool), total func(d *model.PlayerData) int, hasSeries func(s *model.Series) bool) func(*model.PlayerData, int) (float64, bool) {
	return func(d *model.PlayerData, _ int) (float64, bool) {
		if d.Series != nil && hasSeries(d.Series) {
			return at(d, 10)
		}
		return float64(total(d)) * timeseries.LaningRateFactor, true
	}
}

var catalog = map[string]metric{
	"match_minutes": {player: final(func(d *model.PlayerData) float64 { return d.MatchMinutes })},
	"kpct":          {player: final(func(d *model.PlayerData) float64 { return d.KillParticipation })},
	"deaths_per10":  {player: final(func(d *model.PlayerData) float64 { return d.DeathsPer10 })},
	"dpm":           {player: final(func(d *model.PlayerData) float64 { return d.DamagePerMinute })},
	"tdpm":          {player: final(func(d *model.PlayerData) float64 { return d.TowerDamagePerMinute })},
	"first_core_s":  {player: final(func(d *model.PlayerData) float64 { return float64(d.FirstCoreSeconds) })},
	"obs":           {player: final(func(d *model.PlayerData) float64 { return float64(d.Observers) })},
	"sentries":      {player: final(func(d *model.PlayerData) float64 { return float64(d.Sentries) })},
	"smokes_used":   {player: final(func(d *model.PlayerData) float64 { return float64(d.SmokesUsed) })},

	"early_deaths_0_10": {player: earlyDeaths(10)},
	"early_deaths_0_15": {player: earlyDeaths(15)},
	"last_hits_10":      {player: final(func(d *model.PlayerData) float64 { return d.LastHitsAt10 })},
	"denies_10":         {player: final(func(d *model.PlayerData) float64 { return d.DeniesAt10 })},
	"gpm_10": {player: rateAt10(gpmAt, func(d *model.PlayerData) int { return d.GPM },
		func(s *model.Series) bool { return len(s.GoldPerMinute) > 0 })},
	"xpm_10": {player: rateAt10(xpmAt, func(d *model.PlayerData) int { return d.XPM },
		func(s *model.Series) bool { return len(s.XP) > 0 })},

	"last_hits": {
		player: estimated(func(s *model.Series) []float64 { return s.LastHits }, func(d *model.PlayerData) int { return d.LastHits }, lastHitFactor),
		bench:  field(func(p benchmark.Point) float64 { return p.CS }),
	},
	"denies": {
		player: estimated(func(s *model.Series) []float64 { return s.Denies }, func(d *model.PlayerData) int { return d.Denies }, denyFactor),
		bench:  field(func(p benchmark.Point) float64 { return p.Denies }),
	},
	"stacks": {
		player: estimated(func(s *model.Series) []float64 { return s.CampStack }, func(d *model.PlayerData) int { return d.CampsStacked }, nil),
		bench:  field(func(p benchmark.Point) float64 { return p.CampsStacked }),
	},
	"networth": {
		player: cumulative(func(s *model.Series) []float64 { return s.Networth }, func(d *model.PlayerData) int { return d.NetWorth }),
		bench:  field(func(p benchmark.Point) float64 { return p.Networth }),
	},
	"level": {
		player: cumulative(func(s *model.Series) []float64 { return s.Level }, func(d *model.PlayerData) int { return d.Level }),
		bench:  field(func(p benchmark.Point) float64 { return p.Level }),
	},
	"gpm": {
		player: gpmAt,
		bench:  field(func(p benchmark.Point) float64 { return p.GoldPerMinute }),
	},
	"xpm": {
		player: xpmAt,
		bench: func(p benchmark.Point) (float64, bool) {
			if p.Time <= 0 {
				return 0, false
			}
			return p.XP / float64(p.Time), true
		},
	},
	"kills": {
		player: proportional(func(d *model.PlayerData) int { return d.Kills }),
		bench:  field(func(p benchmark.Point) float64 { return p.Kills }),
	},
	"deaths": {
		player: proportional(func(d *model.PlayerData) int { return d.Deaths }),
		bench:  field(func(p benchmark.Point) float64 { return p.Deaths }),
	},
	"assists": {
		player: proportional(func(d *model.PlayerData) int { return d.Assists }),
		bench:  field(func(p benchmark.Point) float64 { return p.Assists }),
	},
	"hero_damage": {
		player: proportional(func(d *model.PlayerData) int { return d.HeroDamage }),
		bench:  field(func(p benchmark.Point) float64 { return p.HeroDamage }),
	},
	"tower_damage": {
		player: proportional(func(d *model.PlayerData) int { return d.TowerDamage }),
		bench:  field(func(p benchmark.Point) float64 { return p.TowerDamage }),
	},
	"hero_healing": {
		player: proportional(func(d *model.PlayerData) int { return d.HeroHealing }),
		bench:  field(func(p benchmark.Point) float64 { return p.HealingAllies }),
	},
}

// KnownMetric reports whether name can be evaluated.
func KnownMetric(name string) bool {
	if key, ok := strings.CutPrefix(name, pctPrefix); ok {
		return lo.Contains(PercentileKeys, key)
	}
	_, ok := catalog[name]
	return ok
}

// Metrics lists every metric name, sorted.
func Metrics() []string {
	names := lo.Keys(catalog)
	names = append(names, lo.Map(PercentileKeys, func(k string, _ int) string { return pctPrefix + k })...)
	sort.Strings(names)
	return names
}

// Facts exposes one player's values and the matching benchmark sequence to
// the rule engine.
type Facts struct {
	d     *model.PlayerData
	bench []benchmark.Point
}

// NewFacts builds facts for d. bench may be empty, in which case every
// benchmark lookup misses.
func NewFacts(d *model.PlayerData, bench []benchmark.Point) *Facts {
	return &Facts{d: d, bench: bench}
}

// Known implements rules.Facts.
func (f *Facts) Known(name string) bool { return KnownMetric(name) }

// Player implements rules.Facts.
func (f *Facts) Player(name string, minute int) (float64, bool) {
	if key, ok := strings.CutPrefix(name, pctPrefix); ok {
		p, found := f.d.Percentiles[key]
		return p.Pct, found
	}
	m, ok := catalog[name]
	if !ok {
		return 0, false
	}
	return m.player(f.d, minute)
}

// Benchmark implements rules.Facts. End-of-game lookups use the point at
// or before the final minute.
func (f *Facts) Benchmark(name string, minute int) (float64, bool) {
	m, ok := catalog[name]
	if !ok || m.bench == nil {
		return 0, false
	}
	p := f.Point(minute)
	if p == nil {
		return 0, false
	}
	return m.bench(*p)
}

// Point resolves the benchmark point for minute, or for the final minute
// when minute < 0.
func (f *Facts) Point(minute int) *benchmark.Point {
	if minute < 0 {
		minute = int(f.d.MatchMinutes)
	}
	return benchmark.AtOrBefore(f.bench, minute)
}
