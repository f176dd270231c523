package rules

import (
	"sort"

	"github.com/pable/dota-coach/internal/model"
)

// sortCandidates orders by weight, then absolute delta, then configured
// role-specific priority, then rule id.
func sortCandidates(cs []candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if a.finding.Weight != b.finding.Weight {
			return a.finding.Weight > b.finding.Weight
		}
		if a.absDelta != b.absDelta {
			return a.absDelta > b.absDelta
		}
		if a.rank != b.rank {
			return a.rank < b.rank
		}
		return a.rule.ID < b.rule.ID
	})
}

// pick takes candidates in order, honouring the total and per-category caps.
func pick(cs []candidate, max, perCategory int) []model.Finding {
	out := make([]model.Finding, 0, max)
	perCat := map[string]int{}
	for _, c := range cs {
		if len(out) == max {
			break
		}
		if perCat[c.finding.Category] >= perCategory {
			continue
		}
		perCat[c.finding.Category]++
		f := c.finding
		f.Priority = len(out) + 1
		out = append(out, f)
	}
	return out
}

func selectFindings(cands []candidate, sel Selection) (fixes, wins []model.Finding, defaulted bool) {
	if len(cands) == 0 {
		return DefaultFixes(sel.MaxFixes), DefaultWins(sel.MaxWins), true
	}

	var fixC, winC []candidate
	for _, c := range cands {
		if c.finding.Kind == model.KindWin {
			winC = append(winC, c)
		} else {
			fixC = append(fixC, c)
		}
	}
	sortCandidates(fixC)
	sortCandidates(winC)

	fixes = pick(fixC, sel.MaxFixes, sel.MaxPerCategory)
	wins = pick(winC, sel.MaxWins, sel.MaxPerCategory)

	if sel.Balanced() {
		if len(fixes) == 0 && len(wins) > 0 {
			fixes = DefaultFixes(sel.MaxFixes)
		}
		if len(wins) == 0 && len(fixes) > 0 {
			wins = DefaultWins(sel.MaxWins)
		}
	}
	return fixes, wins, false
}
