package analysis

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pable/dota-coach/internal/apperr"
	"github.com/pable/dota-coach/internal/benchmark"
	"github.com/pable/dota-coach/internal/logging"
	"github.com/pable/dota-coach/internal/model"
	"github.com/pable/dota-coach/internal/normalize"
	"github.com/pable/dota-coach/internal/opendota"
	"github.com/pable/dota-coach/internal/report"
	"github.com/pable/dota-coach/internal/rules"
	"github.com/pable/dota-coach/internal/stratz"
)

// EndOfGame asks a fact for its final value.
const EndOfGame = rules.EndOfGame

// OpenDotaSource fetches OpenDota matches.
type OpenDotaSource interface {
	FetchMatch(ctx context.Context, matchID int64) (*opendota.Match, []byte, error)
}

// StratzSource fetches Stratz matches.
type StratzSource interface {
	FetchMatch(ctx context.Context, matchID int64) (*stratz.Match, []byte, error)
}

// Benchmarks resolves benchmark sequences; *benchmark.Cache satisfies it.
type Benchmarks interface {
	Get(ctx context.Context, key benchmark.Key) ([]benchmark.Point, error)
}

// RawSink persists raw provider payloads. Optional.
type RawSink interface {
	SaveMatch(ctx context.Context, provider model.Provider, matchID int64, raw []byte) error
}

// Request selects the match, player and context of one analysis.
type Request struct {
	MatchID  int64
	Provider model.Provider
	// Slot selects the player; when nil AccountID, then HeroID, does.
	Slot      *int
	AccountID int64
	HeroID    int
	// Role is required for OpenDota; for Stratz it defaults to the
	// provider's position.
	Role model.Role
	// Grouping overrides the bracket derived from the match.
	Grouping benchmark.Grouping
}

type Config struct {
	OpenDota   OpenDotaSource
	Stratz     StratzSource
	Benchmarks Benchmarks
	Rules      *rules.Store
	Raw        RawSink
	// DefaultGrouping is used when the match carries no rank.
	DefaultGrouping benchmark.Grouping
	Logger          *logging.Logger
	Now             func() time.Time
}

// Analyzer runs the fetch, normalize, benchmark, evaluate and format
// pipeline for one player.
type Analyzer struct {
	cfg    Config
	logger *logging.Logger
	now    func() time.Time
}

func New(cfg Config) *Analyzer {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	if cfg.DefaultGrouping == "" {
		cfg.DefaultGrouping = benchmark.LegendAncient
	}
	return &Analyzer{cfg: cfg, logger: logger, now: now}
}

// Analyze produces the report for one player. Fetch and player-selection
// failures are terminal; missing benchmarks only degrade the report.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*model.Report, *model.PlayerData, error) {
	ctx = logging.WithFields(ctx, "match_id", req.MatchID, "provider", string(req.Provider))

	rs, err := a.cfg.Rules.Current(ctx)
	if err != nil {
		return nil, nil, err
	}

	d, err := a.load(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	a.logger.InfoContext(ctx, "player normalized", "hero", d.HeroName, "role", string(d.Role), "minutes", d.MatchMinutes)

	grouping := a.grouping(req, d)
	points := a.benchmarks(ctx, d, grouping)

	r := Evaluate(ctx, rs, d, points, a.logger)
	r.ID = uuid.NewString()
	r.Grouping = string(grouping)
	r.CreatedAt = a.now().UTC()
	return r, d, nil
}

// Evaluate runs the rule engine and formatter over already-normalized data.
// It never fails: gaps and missing benchmarks are reported in the result.
func Evaluate(ctx context.Context, rs *rules.Ruleset, d *model.PlayerData, points []benchmark.Point, logger *logging.Logger) *model.Report {
	if logger == nil {
		logger = logging.Default()
	}
	facts := NewFacts(d, points)
	res := rules.NewEngine(rs, logger).Evaluate(ctx, d.Role, facts)

	comparisons := Compare(facts)
	r := &model.Report{
		MatchID:        d.MatchID,
		Provider:       d.Provider,
		HeroID:         d.HeroID,
		HeroName:       d.HeroName,
		Role:           d.Role,
		RulesetVersion: rs.Version,
		Defaulted:      res.Defaulted,
		Summary:        report.Summary(res.Fixes, res.Wins),
		Fixes:          res.Fixes,
		Wins:           res.Wins,
		Timeline:       report.Timeline(d, facts, rs.Thresholds),
		Comparisons:    comparisons,
		Overview:       comparisons[len(comparisons)-1].Summary,
		Gaps:           res.Gaps,
	}
	logger.InfoContext(ctx, "analysis complete",
		"matched", res.Matched, "fixes", len(r.Fixes), "wins", len(r.Wins), "defaulted", r.Defaulted, "gaps", len(r.Gaps))
	return r
}

func (a *Analyzer) load(ctx context.Context, req Request) (*model.PlayerData, error) {
	switch req.Provider {
	case model.ProviderStratz:
		if a.cfg.Stratz == nil {
			return nil, apperr.NotFoundf("stratz provider not configured")
		}
		m, raw, err := a.cfg.Stratz.FetchMatch(ctx, req.MatchID)
		if err != nil {
			return nil, err
		}
		a.saveRaw(ctx, req, raw)
		return normalize.FromStratz(m, normalize.Selector{Slot: req.Slot, AccountID: req.AccountID, HeroID: req.HeroID}, req.Role)

	case model.ProviderOpenDota, "":
		if a.cfg.OpenDota == nil {
			return nil, apperr.NotFoundf("opendota provider not configured")
		}
		m, raw, err := a.cfg.OpenDota.FetchMatch(ctx, req.MatchID)
		if err != nil {
			return nil, err
		}
		a.saveRaw(ctx, req, raw)
		slot, err := openDotaSlot(m, req)
		if err != nil {
			return nil, err
		}
		return normalize.FromOpenDota(m, slot, req.Role)
	}
	return nil, apperr.NotFoundf("unknown provider %q", req.Provider)
}

func openDotaSlot(m *opendota.Match, req Request) (int, error) {
	if req.Slot != nil {
		return *req.Slot, nil
	}
	for _, p := range m.Players {
		if req.AccountID != 0 {
			if p.AccountID == req.AccountID {
				return p.PlayerSlot, nil
			}
			continue
		}
		if p.HeroID == req.HeroID {
			return p.PlayerSlot, nil
		}
	}
	if req.AccountID != 0 {
		return 0, apperr.NotFoundf("account %d not found in match %d", req.AccountID, m.MatchID)
	}
	return 0, apperr.NotFoundf("hero %d not found in match %d", req.HeroID, m.MatchID)
}

func (a *Analyzer) saveRaw(ctx context.Context, req Request, raw []byte) {
	if a.cfg.Raw == nil || len(raw) == 0 {
		return
	}
	p := req.Provider
	if p == "" {
		p = model.ProviderOpenDota
	}
	if err := a.cfg.Raw.SaveMatch(ctx, p, req.MatchID, raw); err != nil {
		a.logger.WarnContext(ctx, "raw match not stored", "error", err)
	}
}

func (a *Analyzer) grouping(req Request, d *model.PlayerData) benchmark.Grouping {
	switch {
	case req.Grouping != "":
		return req.Grouping
	case d.Bracket > 0:
		return benchmark.GroupingForBracket(d.Bracket)
	}
	return a.cfg.DefaultGrouping
}

// benchmarks resolves the sequence for the player's hero, position and
// grouping. On failure it falls back to the averages embedded in the
// match, then to none.
func (a *Analyzer) benchmarks(ctx context.Context, d *model.PlayerData, g benchmark.Grouping) []benchmark.Point {
	if a.cfg.Benchmarks != nil {
		key := benchmark.Key{HeroID: d.HeroID, Position: d.Role.Position(), Grouping: g}
		points, err := a.cfg.Benchmarks.Get(ctx, key)
		if err == nil && len(points) > 0 {
			return points
		}
		a.logger.WarnContext(ctx, "benchmarks unavailable", "key", key.String(), "error", err, "fallback", len(d.HeroAverage) > 0)
	}
	return d.HeroAverage
}
