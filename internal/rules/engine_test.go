package rules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/dota-coach/internal/logging"
	"github.com/pable/dota-coach/internal/model"
)

const testThresholds = `
thresholds:
  deathsPer10High: 2.0
  deathsPer10VeryHigh: 2.4
bands:
  great: 0.75
`

const testRules = `
version: "test"
categories:
  - {id: positioning, name: Positioning}
  - {id: farming, name: Farming}
  - {id: laning, name: Laning}
guards:
  - id: short_game
    any:
      - {op: lt, metric: match_minutes, value: 25}
selection:
  maxFixes: 3
  maxWins: 2
  maxPerCategory: 2
  roleSpecificPriority:
    pos1: [carry_deaths]
rules:
  - id: carry_deaths
    type: fix
    roles: [pos1]
    roleSpecific: true
    category: positioning
    severity: HIGH
    all:
      - {op: gt, metric: deaths_per10, value: {$ref: thresholds.deathsPer10High}}
    bigGap: {metric: deaths_per10, over: {$ref: thresholds.deathsPer10VeryHigh}}
    guards: [short_game]
    advice: {title: Carry deaths, detail: Die less.}
  - id: general_deaths
    type: fix
    roles: [ANY]
    category: positioning
    severity: HIGH
    all:
      - {op: gt, metric: deaths_per10, value: {$ref: deathsPer10High}}
    guards: [short_game]
    advice: {title: General deaths, detail: Die less in general.}
  - id: cs_behind
    type: fix
    roles: [pos1, pos2]
    category: laning
    severity: MEDIUM
    atMin: 10
    all:
      - {op: delta_less_than, metric: last_hits, value: -0.25}
    context:
      - if: {op: delta_greater_than, metric: denies, value: 0.2}
        effect: attachNote
        note: Denies were fine.
    advice: {title: CS behind, detail: Last hit more.}
  - id: win_farm
    type: win
    roles: [ANY]
    category: farming
    severity: 0.7
    all:
      - {op: gte, metric: pct.gold_per_min, value: {$ref: bands.great}}
    advice: {title: Great farm, detail: Nice farm.}
`

func loadTest(t *testing.T) *Ruleset {
	t.Helper()
	rs, err := Load([]byte(testRules), []byte(testThresholds))
	require.NoError(t, err)
	return rs
}

func testEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(loadTest(t), logging.NewNop())
}

func baseFacts() *mapFacts {
	return newFacts().
		with("match_minutes", 40).
		with("deaths_per10", 1).
		with("pct.gold_per_min", 0.5).
		at("last_hits", 10, 60, 60).
		at("denies", 10, 5, 5)
}

func titles(fs []model.Finding) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Title
	}
	return out
}

// TestNoMatchesGivesDefaults: a clean pos1 game yields the generic lists.
func TestNoMatchesGivesDefaults(t *testing.T) {
	res := testEngine(t).Evaluate(context.Background(), model.RolePos1, baseFacts())

	assert.True(t, res.Defaulted)
	assert.Zero(t, res.Matched)
	require.Len(t, res.Fixes, 3)
	require.Len(t, res.Wins, 2)
	assert.Equal(t, []string{"Focus on positioning", "Improve farming efficiency", "Better team coordination"}, titles(res.Fixes))
	assert.Equal(t, []string{"Good game awareness", "Positive attitude"}, titles(res.Wins))
	assert.Equal(t, "LOW", res.Fixes[0].Severity)
	assert.Equal(t, 0.30, res.Fixes[0].Weight)
}

func TestRoleFilterAndBalance(t *testing.T) {
	facts := baseFacts().with("deaths_per10", 2.6)
	res := testEngine(t).Evaluate(context.Background(), model.RolePos3, facts)

	assert.False(t, res.Defaulted)
	assert.Equal(t, 1, res.Matched)
	require.Len(t, res.Fixes, 1)
	assert.Equal(t, "general_deaths", res.Fixes[0].RuleID)
	assert.Equal(t, 1, res.Fixes[0].Priority)
	// Balanced: wins padded with defaults.
	assert.Equal(t, []string{"Good game awareness", "Positive attitude"}, titles(res.Wins))
}

func TestConfidenceAndBigGap(t *testing.T) {
	facts := baseFacts().with("deaths_per10", 2.6)
	res := testEngine(t).Evaluate(context.Background(), model.RolePos1, facts)

	var carry model.Finding
	for _, f := range res.Fixes {
		if f.RuleID == "carry_deaths" {
			carry = f
		}
	}
	require.Equal(t, "carry_deaths", carry.RuleID)
	// 1 condition + big gap + role-specific bonus.
	assert.Equal(t, 2.5, carry.Confidence)
	assert.Equal(t, "low", carry.ConfidenceLabel)
	assert.Equal(t, "deaths_per10", carry.KPI)
	require.Len(t, carry.Evidence, 1)
	assert.Equal(t, 2.0, carry.Evidence[0].Reference)
}

func TestGuardSuppressesRoleSpecificAndDampensGeneral(t *testing.T) {
	facts := baseFacts().with("deaths_per10", 3).with("match_minutes", 22)
	res := testEngine(t).Evaluate(context.Background(), model.RolePos1, facts)

	ids := make([]string, 0, len(res.Fixes))
	for _, f := range res.Fixes {
		ids = append(ids, f.RuleID)
	}
	assert.NotContains(t, ids, "carry_deaths")
	require.Contains(t, ids, "general_deaths")
	for _, f := range res.Fixes {
		if f.RuleID == "general_deaths" {
			assert.Equal(t, "MEDIUM", f.Severity)
			assert.Equal(t, 0.55, f.Weight)
			assert.Equal(t, 0.0, f.Confidence)
		}
	}
}

func TestContextNote(t *testing.T) {
	facts := baseFacts().at("last_hits", 10, 40, 60).at("denies", 10, 8, 5)
	res := testEngine(t).Evaluate(context.Background(), model.RolePos2, facts)

	require.NotEmpty(t, res.Fixes)
	assert.Equal(t, "cs_behind", res.Fixes[0].RuleID)
	assert.Equal(t, "Last hit more. Denies were fine.", res.Fixes[0].Description)
	assert.Equal(t, 10, res.Fixes[0].Evidence[0].Minute)
}

func TestSortOrderAndPriority(t *testing.T) {
	facts := baseFacts().
		with("deaths_per10", 2.6).
		with("pct.gold_per_min", 0.9).
		at("last_hits", 10, 30, 60)
	res := testEngine(t).Evaluate(context.Background(), model.RolePos1, facts)

	// carry_deaths and general_deaths tie on weight and gap; the configured
	// role priority puts carry_deaths first.
	require.Len(t, res.Fixes, 3)
	assert.Equal(t, "carry_deaths", res.Fixes[0].RuleID)
	assert.Equal(t, "general_deaths", res.Fixes[1].RuleID)
	assert.Equal(t, "cs_behind", res.Fixes[2].RuleID)
	for i, f := range res.Fixes {
		assert.Equal(t, i+1, f.Priority)
	}
	require.Len(t, res.Wins, 1)
	assert.Equal(t, "win_farm", res.Wins[0].RuleID)
	assert.Equal(t, "HIGH", res.Wins[0].Severity)
}

func TestPickCaps(t *testing.T) {
	mk := func(id, cat string, w float64) candidate {
		r := &Rule{ID: id}
		return candidate{rule: r, finding: model.Finding{RuleID: id, Category: cat, Weight: w, Kind: model.KindFix}}
	}
	cs := []candidate{
		mk("a", "positioning", 1), mk("b", "positioning", 0.8), mk("c", "positioning", 0.8),
		mk("d", "farming", 0.55), mk("e", "laning", 0.3),
	}
	sortCandidates(cs)
	got := pick(cs, 3, 2)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "b", "d"}, []string{got[0].RuleID, got[1].RuleID, got[2].RuleID})
}

func TestEvaluateIsDeterministic(t *testing.T) {
	e := testEngine(t)
	facts := baseFacts().with("deaths_per10", 2.6).with("pct.gold_per_min", 0.9).at("last_hits", 10, 30, 60)
	first := e.Evaluate(context.Background(), model.RolePos1, facts)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, e.Evaluate(context.Background(), model.RolePos1, facts))
	}
}

func TestGapsAreRecorded(t *testing.T) {
	rs := loadTest(t)
	rs.Rules = append(rs.Rules, Rule{
		ID: "needs_idle", Type: model.KindFix, Roles: []string{"ANY"}, Category: "positioning",
		Severity: Severity{Bucket: Medium, set: true},
		All:      []Condition{{Op: OpGT, Metric: "idle_time_30s", Value: Lit(2)}},
		Advice:   Advice{Title: "Idle", Detail: "Move."},
	})
	res := NewEngine(rs, logging.NewNop()).Evaluate(context.Background(), model.RolePos3, baseFacts())

	require.Len(t, res.Gaps, 1)
	assert.Contains(t, res.Gaps[0], "needs_idle")
	assert.True(t, res.Defaulted)
}
