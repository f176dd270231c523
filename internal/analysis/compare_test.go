package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/dota-coach/internal/model"
)

func section(t *testing.T, ss []model.ComparisonSection, name string) model.ComparisonSection {
	t.Helper()
	for _, s := range ss {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("section %q not found", name)
	return model.ComparisonSection{}
}

func TestCompareLaning(t *testing.T) {
	ss := Compare(NewFacts(carryData(), points()))

	lane := section(t, ss, SectionLaning)
	require.Len(t, lane.Rows, 2)
	cs := lane.Rows[0]
	assert.True(t, cs.Available)
	assert.Equal(t, 80.0, cs.Player)
	assert.Equal(t, 60.0, cs.Average)
	assert.Equal(t, 20.0, cs.Difference)
	assert.InDelta(t, 33.33, cs.PercentDiff, 0.01)
	assert.Contains(t, lane.Summary, "Strong laning performance!")
}

func TestCompareMidGame(t *testing.T) {
	ss := Compare(NewFacts(carryData(), points()))

	mid := section(t, ss, SectionMidGame)
	assert.Equal(t, 20, mid.Minute)
	require.Len(t, mid.Rows, 2)
	assert.Equal(t, 12000.0, mid.Rows[0].Player)
	assert.Equal(t, 11000.0, mid.Rows[0].Average)
	// 300 * 20/30 * 1.1
	assert.Equal(t, 220.0, mid.Rows[1].Player)
	assert.Contains(t, mid.Summary, "at 20 minutes")
}

func TestCompareShortGameHasNoMidGame(t *testing.T) {
	d := carryData()
	d.MatchMinutes = 9
	for _, s := range Compare(NewFacts(d, points())) {
		assert.NotEqual(t, SectionMidGame, s.Name)
	}
}

func TestCompareWithoutBenchmarks(t *testing.T) {
	ss := Compare(NewFacts(carryData(), nil))

	lane := section(t, ss, SectionLaning)
	assert.False(t, lane.Rows[0].Available)
	assert.Equal(t, "Laning phase data not available.", lane.Summary)

	end := section(t, ss, SectionOverall)
	assert.Equal(t, "No hero averages available for this hero and position.", end.Summary)
}

func TestCompareSupportSection(t *testing.T) {
	d := carryData()
	d.Role = model.RolePos5
	d.CampsStacked = 5
	sup := section(t, Compare(NewFacts(d, points())), SectionSupport)
	require.Len(t, sup.Rows, 1)
	assert.Equal(t, 2.0, sup.Rows[0].Average)
	assert.Contains(t, sup.Summary, "Excellent support performance!")
}

func TestCompareOverallCountsFewerDeathsAsAbove(t *testing.T) {
	end := section(t, Compare(NewFacts(carryData(), points())), SectionOverall)
	var deaths model.Comparison
	for _, r := range end.Rows {
		if r.Metric == "deaths" {
			deaths = r
		}
	}
	assert.Equal(t, 6.0, deaths.Player)
	assert.Equal(t, 5.0, deaths.Average)
	assert.Contains(t, end.Summary, "Anti-Mage performed above average")
}
