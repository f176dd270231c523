package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/dota-coach/internal/apperr"
	"github.com/pable/dota-coach/internal/benchmark"
	"github.com/pable/dota-coach/internal/logging"
	"github.com/pable/dota-coach/internal/model"
	"github.com/pable/dota-coach/internal/opendota"
	"github.com/pable/dota-coach/internal/rules"
	"github.com/pable/dota-coach/internal/storage"
	"github.com/pable/dota-coach/internal/stratz"
)

type fakeStratz struct {
	match *stratz.Match
	err   error
}

func (f *fakeStratz) FetchMatch(context.Context, int64) (*stratz.Match, []byte, error) {
	return f.match, []byte(`{"id":7}`), f.err
}

type fakeOpenDota struct{ match *opendota.Match }

func (f *fakeOpenDota) FetchMatch(context.Context, int64) (*opendota.Match, []byte, error) {
	return f.match, nil, nil
}

type fakeBenchmarks struct {
	points []benchmark.Point
	err    error
	keys   []benchmark.Key
}

func (f *fakeBenchmarks) Get(_ context.Context, key benchmark.Key) ([]benchmark.Point, error) {
	f.keys = append(f.keys, key)
	return f.points, f.err
}

type rawSink struct{ saved map[int64][]byte }

func (r *rawSink) SaveMatch(_ context.Context, _ model.Provider, id int64, raw []byte) error {
	r.saved[id] = raw
	return nil
}

func f64(v float64) *float64 { return &v }
func intp(v int) *int         { return &v }

func stratzMatch() *stratz.Match {
	carry := stratz.Player{
		PlayerSlot: 0, IsRadiant: true, Position: "POSITION_1",
		Hero:  stratz.Hero{ID: 1, DisplayName: "Anti-Mage"},
		Kills: 8, Deaths: 1, Assists: 4,
		NumLastHits: 420, NumDenies: 15, Networth: 26000,
		GoldPerMinute: 720, ExperiencePerMinute: 800, Level: 25,
		HeroDamage: 30000, TowerDamage: 9000,
		Stats: &stratz.PlayerStats{
			LastHitsPerMinute: []float64{0, 4, 6, 7, 7, 8, 8, 8, 9, 9, 9},
			NetworthPerMinute: []float64{600, 900, 1300, 1800, 2300, 2900, 3500, 4100, 4800, 5500, 6200},
			Level:             []float64{1, 2, 3, 4, 5, 6, 7, 7, 8, 9, 10},
		},
		HeroAverage: []stratz.HeroAverage{
			{Time: 10, CS: f64(55), DN: f64(6), Networth: f64(4800), Level: f64(9)},
			{Time: 35, CS: f64(300), Networth: f64(20000), Level: f64(22), Deaths: f64(5)},
		},
	}
	support := stratz.Player{PlayerSlot: 4, SteamAccountID: i64p(22202), IsRadiant: true, Position: "POSITION_5", Hero: stratz.Hero{ID: 5}, Kills: 2}
	enemy := stratz.Player{PlayerSlot: 128, IsRadiant: false, Position: "POSITION_1", Hero: stratz.Hero{ID: 2}, Kills: 5}
	return &stratz.Match{
		ID: 7, DidRadiantWin: true, DurationSeconds: 35 * 60, Bracket: intp(6),
		Players: []stratz.Player{carry, support, enemy},
	}
}

func newAnalyzer(t *testing.T, cfg Config) *Analyzer {
	t.Helper()
	cfg.Rules = rules.NewStore("", "", logging.NewNop())
	cfg.Logger = logging.NewNop()
	cfg.Now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	return New(cfg)
}

func TestAnalyzeStratzFallsBackToMatchAverages(t *testing.T) {
	bench := &fakeBenchmarks{err: apperr.BenchmarkUnavailable(errors.New("boom"), "fetch")}
	sink := &rawSink{saved: map[int64][]byte{}}
	a := newAnalyzer(t, Config{Stratz: &fakeStratz{match: stratzMatch()}, Benchmarks: bench, Raw: sink})

	r, d, err := a.Analyze(context.Background(), Request{MatchID: 7, Provider: model.ProviderStratz, Slot: intp(0)})
	require.NoError(t, err)

	assert.Equal(t, model.RolePos1, d.Role)
	require.Len(t, bench.keys, 1)
	assert.Equal(t, benchmark.Key{HeroID: 1, Position: "POSITION_1", Grouping: benchmark.LegendAncient}, bench.keys[0])
	assert.Equal(t, "LEGEND_ANCIENT", r.Grouping)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), r.CreatedAt)
	assert.Contains(t, sink.saved, int64(7))

	// CS 75 at 10 against the match's own average of 55.
	lane := r.Comparisons[0]
	require.True(t, lane.Rows[0].Available)
	assert.Equal(t, 75.0, lane.Rows[0].Player)
	assert.Equal(t, 55.0, lane.Rows[0].Average)

	require.NotEmpty(t, r.Wins)
	assert.LessOrEqual(t, len(r.Fixes), 3)
	assert.LessOrEqual(t, len(r.Wins), 2)
	assert.NotEmpty(t, r.Summary)

	var labels []string
	for _, m := range r.Timeline {
		labels = append(labels, m.Label)
	}
	assert.Equal(t, []string{"Level 6", "10-min Farm", "Mid-game Net Worth", "First Core Item"}, labels)
}

func TestAnalyzeUsesExplicitGrouping(t *testing.T) {
	bench := &fakeBenchmarks{points: points()}
	a := newAnalyzer(t, Config{Stratz: &fakeStratz{match: stratzMatch()}, Benchmarks: bench})

	r, _, err := a.Analyze(context.Background(), Request{MatchID: 7, Provider: model.ProviderStratz, HeroID: 1, Grouping: benchmark.HeraldGuardian})
	require.NoError(t, err)
	assert.Equal(t, benchmark.HeraldGuardian, bench.keys[0].Grouping)
	assert.Equal(t, "HERALD_GUARDIAN", r.Grouping)
}

func i64p(v int64) *int64 { return &v }

func TestAnalyzeSelectsByAccount(t *testing.T) {
	ctx := context.Background()

	a := newAnalyzer(t, Config{Stratz: &fakeStratz{match: stratzMatch()}})
	_, d, err := a.Analyze(ctx, Request{MatchID: 7, Provider: model.ProviderStratz, AccountID: 22202, HeroID: 1})
	require.NoError(t, err)
	assert.Equal(t, 5, d.HeroID)
	assert.Equal(t, model.RolePos5, d.Role)

	_, _, err = a.Analyze(ctx, Request{MatchID: 7, Provider: model.ProviderStratz, AccountID: 1})
	assert.True(t, apperr.Is(err, apperr.ErrInputNotFound))

	od := &opendota.Match{MatchID: 7, Duration: 1800, Players: []opendota.Player{
		{AccountID: 10, PlayerSlot: 0, HeroID: 1},
		{AccountID: 22202, PlayerSlot: 132, HeroID: 5},
	}}
	a = newAnalyzer(t, Config{OpenDota: &fakeOpenDota{match: od}})
	_, d, err = a.Analyze(ctx, Request{MatchID: 7, Provider: model.ProviderOpenDota, AccountID: 22202, Role: model.RolePos5})
	require.NoError(t, err)
	assert.Equal(t, 132, d.PlayerSlot)
}

func TestAnalyzeFromStoredMatch(t *testing.T) {
	ctx := context.Background()
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	raw := []byte(`{"match_id":9,"duration":2400,"radiant_win":true,"players":[` +
		`{"player_slot":0,"hero_id":1,"kills":6,"last_hits":310,"gold_per_min":610,"xp_per_min":640,"lh_t":[0,5,10,15,20,25,30,35,40,45,50]}]}`)
	require.NoError(t, db.SaveMatch(ctx, model.ProviderOpenDota, 9, raw))

	a := newAnalyzer(t, Config{
		OpenDota:   storage.OpenDotaArchive{DB: db},
		Benchmarks: benchmark.NewCache(benchmark.CacheConfig{Persister: db, Logger: logging.NewNop()}),
	})
	r, d, err := a.Analyze(ctx, Request{MatchID: 9, Provider: model.ProviderOpenDota, HeroID: 1, Role: model.RolePos1})
	require.NoError(t, err)
	assert.Equal(t, 40.0, d.MatchMinutes)
	assert.Equal(t, 50.0, d.LastHitsAt10)
	assert.Equal(t, int64(9), r.MatchID)
	assert.False(t, r.Comparisons[0].Rows[0].Available)

	_, _, err = a.Analyze(ctx, Request{MatchID: 10, Provider: model.ProviderOpenDota, HeroID: 1, Role: model.RolePos1})
	assert.True(t, apperr.Is(err, apperr.ErrInputNotFound))
}

func TestAnalyzeTerminalErrors(t *testing.T) {
	ctx := context.Background()

	a := newAnalyzer(t, Config{Stratz: &fakeStratz{err: apperr.Upstream(nil, "stratz down")}})
	_, _, err := a.Analyze(ctx, Request{MatchID: 7, Provider: model.ProviderStratz, HeroID: 1})
	assert.True(t, apperr.Is(err, apperr.ErrUpstreamFetchFailed))
	assert.True(t, apperr.Terminal(err))

	a = newAnalyzer(t, Config{Stratz: &fakeStratz{match: stratzMatch()}})
	_, _, err = a.Analyze(ctx, Request{MatchID: 7, Provider: model.ProviderStratz, HeroID: 99})
	assert.True(t, apperr.Is(err, apperr.ErrInputNotFound))

	a = newAnalyzer(t, Config{OpenDota: &fakeOpenDota{match: &opendota.Match{MatchID: 7}}})
	_, _, err = a.Analyze(ctx, Request{MatchID: 7, Provider: model.ProviderOpenDota, HeroID: 1, Role: model.RolePos1})
	assert.True(t, apperr.Is(err, apperr.ErrInputNotFound))
}

// TestEvaluateCleanCarryGetsDefaults: pos1 with nothing notable yields the
// three generic fixes and two generic wins.
func TestEvaluateCleanCarryGetsDefaults(t *testing.T) {
	rs, err := rules.Default()
	require.NoError(t, err)

	d := carryData()
	d.Deaths = 0
	d.DeathsPer10 = 0
	d.LastHitsAt10 = 55
	r := Evaluate(context.Background(), rs, d, nil, logging.NewNop())

	assert.True(t, r.Defaulted)
	require.Len(t, r.Fixes, 3)
	require.Len(t, r.Wins, 2)
	assert.Equal(t, "Focus on positioning", r.Fixes[0].Title)
	assert.Equal(t, "Good game awareness", r.Wins[0].Title)
	assert.Equal(t, "Strong performance in good game awareness. Focus on focus on positioning for improvement.", r.Summary)
	assert.Empty(t, r.Gaps)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	rs, err := rules.Default()
	require.NoError(t, err)
	d := carryData()
	d.Percentiles = map[string]model.Percentile{"gold_per_min": {Pct: 0.9}, "last_hits_per_min": {Pct: 0.8}}

	first := Evaluate(context.Background(), rs, d, points(), logging.NewNop())
	for i := 0; i < 10; i++ {
		again := Evaluate(context.Background(), rs, d, points(), logging.NewNop())
		assert.Equal(t, first.Fixes, again.Fixes)
		assert.Equal(t, first.Wins, again.Wins)
		assert.Equal(t, first.Summary, again.Summary)
	}
}
