package analysis

import (
	"fmt"
	"math"

	"github.com/samber/lo"

	"github.com/pable/dota-coach/internal/benchmark"
	"github.com/pable/dota-coach/internal/model"
)

const (
	laningMinute  = 10
	midGameMinute = 20
)

// Section names.
const (
	SectionLaning  = "Laning"
	SectionMidGame = "Mid game"
	SectionSupport = "Support"
	SectionOverall = "End of game"
)

// Compare builds the player-versus-average sections. Rows without a
// benchmark point are kept and marked unavailable.
func Compare(f *Facts) []model.ComparisonSection {
	d := f.d
	sections := []model.ComparisonSection{laning(f)}
	if mid := midGame(f); mid != nil {
		sections = append(sections, *mid)
	}
	if d.Role.IsSupport() {
		sections = append(sections, support(f))
	}
	sections = append(sections, overall(f))
	return sections
}

func row(metric, label string, minute int, player float64, avg *float64) model.Comparison {
	c := model.Comparison{Metric: metric, Label: label, Minute: minute, Player: player}
	if avg == nil {
		return c
	}
	c.Available = true
	c.Average = *avg
	c.Difference = player - *avg
	if *avg > 0 {
		c.PercentDiff = c.Difference / *avg * 100
	}
	return c
}

// benchAt reads metric from p, or nil when p is missing.
func benchAt(metric string, p *benchmark.Point) *float64 {
	if p == nil {
		return nil
	}
	v, ok := catalog[metric].bench(*p)
	if !ok {
		return nil
	}
	return &v
}

func playerAt(f *Facts, metric string, minute int) float64 {
	v, _ := f.Player(metric, minute)
	return math.Round(v)
}

func laning(f *Facts) model.ComparisonSection {
	p := f.Point(laningMinute)
	cs := row("last_hits", "CS @ 10", laningMinute, playerAt(f, "last_hits", laningMinute), benchAt("last_hits", p))
	dn := row("denies", "Denies @ 10", laningMinute, playerAt(f, "denies", laningMinute), benchAt("denies", p))

	s := model.ComparisonSection{Name: SectionLaning, Minute: laningMinute, Rows: []model.Comparison{cs, dn}}
	if !cs.Available {
		s.Summary = "Laning phase data not available."
		return s
	}
	csAbove, dnAbove := cs.PercentDiff > 0, dn.PercentDiff > 0
	switch {
	case csAbove && dnAbove:
		s.Summary = "Strong laning performance! You exceeded average CS and denies at 10 minutes, showing excellent last-hitting and lane control."
	case csAbove:
		s.Summary = "Good CS performance at 10 minutes, but consider focusing more on denying creeps to gain lane advantage."
	case dnAbove:
		s.Summary = "Solid deny performance, but work on improving your last-hitting to maximize your gold income during laning."
	default:
		s.Summary = "Laning phase needs improvement. Focus on both last-hitting and denying to gain better lane control and farm efficiency."
	}
	return s
}

// midGame compares at min(20, match minute). Matches shorter than the
// laning phase have no mid game.
func midGame(f *Facts) *model.ComparisonSection {
	minute := min(midGameMinute, int(math.Floor(f.d.MatchMinutes)))
	if minute <= laningMinute {
		return nil
	}
	p := benchmark.Nearest(f.bench, minute, benchmark.DefaultTolerance)
	nw := row("networth", fmt.Sprintf("Net worth @ %d", minute), minute, playerAt(f, "networth", minute), benchAt("networth", p))
	lh := row("last_hits", fmt.Sprintf("Last hits @ %d", minute), minute, playerAt(f, "last_hits", minute), benchAt("last_hits", p))

	s := model.ComparisonSection{Name: SectionMidGame, Minute: minute, Rows: []model.Comparison{nw, lh}}
	if !nw.Available {
		s.Summary = "Mid game data not available."
		return &s
	}
	nwAbove, lhAbove := nw.PercentDiff > 0, lh.PercentDiff > 0
	switch {
	case nwAbove && lhAbove:
		s.Summary = fmt.Sprintf("Excellent mid game performance! You exceeded average net worth and last hits at %d minutes, showing strong farming and item progression.", minute)
	case nwAbove:
		s.Summary = fmt.Sprintf("Good net worth progression at %d minutes, but consider improving your last hitting to maximize your gold income during mid game.", minute)
	case lhAbove:
		s.Summary = "Solid last hitting performance, but work on converting your farm into better item timings and net worth efficiency."
	default:
		s.Summary = "Mid game needs improvement. Focus on both farming efficiency and item progression to gain better map control and teamfight presence."
	}
	return &s
}

func support(f *Facts) model.ComparisonSection {
	st := row("stacks", "Camps stacked", 0, float64(f.d.CampsStacked), benchAt("stacks", f.Point(EndOfGame)))
	s := model.ComparisonSection{Name: SectionSupport, Rows: []model.Comparison{st}}
	switch {
	case !st.Available:
		s.Summary = "Support data not available."
	case st.PercentDiff > 0:
		s.Summary = "Excellent support performance! You stacked more camps than average, showing strong map control and team support."
	default:
		s.Summary = "Consider improving your camp stacking to better support your team's farming and map control."
	}
	return s
}

var overallMetrics = []struct{ metric, label string }{
	{"gpm", "GPM"},
	{"xpm", "XPM"},
	{"kills", "Kills"},
	{"deaths", "Deaths"},
	{"networth", "Net worth"},
	{"last_hits", "CS"},
	{"hero_damage", "Hero damage"},
	{"tower_damage", "Tower damage"},
}

func overall(f *Facts) model.ComparisonSection {
	p := f.Point(EndOfGame)
	rows := lo.Map(overallMetrics, func(m struct{ metric, label string }, _ int) model.Comparison {
		return row(m.metric, m.label, 0, playerAt(f, m.metric, EndOfGame), benchAt(m.metric, p))
	})
	s := model.ComparisonSection{Name: SectionOverall, Rows: rows}

	avail := lo.Filter(rows, func(c model.Comparison, _ int) bool { return c.Available })
	if len(avail) == 0 {
		s.Summary = "No hero averages available for this hero and position."
		return s
	}
	// Fewer deaths than average counts as above average.
	above := lo.CountBy(avail, func(c model.Comparison) bool {
		if c.Metric == "deaths" {
			return c.PercentDiff < 0
		}
		return c.PercentDiff > 0
	})
	below := lo.CountBy(avail, func(c model.Comparison) bool {
		if c.Metric == "deaths" {
			return c.PercentDiff > 0
		}
		return c.PercentDiff < 0
	})
	hero := f.d.HeroName
	switch {
	case above > below:
		s.Summary = fmt.Sprintf("%s performed above average in %d out of %d key metrics. Strong performance overall!", hero, above, len(avail))
	case below > above:
		s.Summary = fmt.Sprintf("%s performed below average in %d out of %d key metrics. There's room for improvement.", hero, below, len(avail))
	default:
		s.Summary = fmt.Sprintf("%s had a mixed performance, with some metrics above and some below average.", hero)
	}
	return s
}
