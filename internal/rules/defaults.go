package rules

import "github.com/pable/dota-coach/internal/model"

var defaultFixes = []model.Finding{
	{
		Kind:        model.KindFix,
		Title:       "Focus on positioning",
		Description: "Work on staying alive longer and being in the right place at the right time.",
		Category:    "positioning",
		Priority:    1,
	},
	{
		Kind:        model.KindFix,
		Title:       "Improve farming efficiency",
		Description: "Look for opportunities to farm more efficiently and hit your item timings.",
		Category:    "farming",
		Priority:    2,
	},
	{
		Kind:        model.KindFix,
		Title:       "Better team coordination",
		Description: "Communicate more with your team and coordinate your movements and objectives.",
		Category:    "teamwork",
		Priority:    3,
	},
}

var defaultWins = []model.Finding{
	{
		Kind:        model.KindWin,
		Title:       "Good game awareness",
		Description: "You showed good understanding of the game flow and made solid decisions.",
		Category:    "general",
		KPI:         "general",
		Priority:    1,
	},
	{
		Kind:        model.KindWin,
		Title:       "Positive attitude",
		Description: "Maintaining a positive mindset helps you and your team perform better.",
		Category:    "general",
		KPI:         "general",
		Priority:    2,
	},
}

// DefaultFixes returns up to max generic fixes.
func DefaultFixes(max int) []model.Finding { return defaults(defaultFixes, max) }

// DefaultWins returns up to max generic wins.
func DefaultWins(max int) []model.Finding { return defaults(defaultWins, max) }

func defaults(src []model.Finding, max int) []model.Finding {
	if max <= 0 || max > len(src) {
		max = len(src)
	}
	out := make([]model.Finding, max)
	for i := range out {
		out[i] = src[i]
		out[i].Severity = Low.String()
		out[i].Weight = Low.Weight()
		out[i].Confidence = 1
		out[i].ConfidenceLabel = "low"
	}
	return out
}
