package stratz

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/pable/dota-coach/internal/apperr"
	"github.com/pable/dota-coach/internal/benchmark"
)

const statFields = `time matchCount kills deaths assists networth level cs dn goldPerMinute xp campsStacked heroDamage towerDamage healingAllies`

// benchmarkQuery builds one document with an aliased selection per grouping
// so a single round trip fills the whole hero and position.
func benchmarkQuery() string {
	var b strings.Builder
	b.WriteString("query HeroBenchmarks($heroId: Short!, $position: MatchPlayerPositionType!) {\n  heroStats {\n")
	for _, g := range benchmark.Groupings {
		fmt.Fprintf(&b, "    %s: stats(heroIds: [$heroId], positionIds: [$position], bracketBasicIds: [%s], groupByTime: true) { %s }\n",
			alias(g), g, statFields)
	}
	b.WriteString("  }\n}")
	return b.String()
}

func alias(g benchmark.Grouping) string {
	return strings.ToLower(string(g))
}

// FetchHeroBenchmarks returns time-bucketed averages for every grouping.
// It satisfies benchmark.Fetcher.
func (c *Client) FetchHeroBenchmarks(ctx context.Context, heroID int, position string) (map[benchmark.Grouping][]benchmark.Point, error) {
	raw, err := c.query(ctx, benchmarkQuery(), map[string]any{"heroId": heroID, "position": position})
	if err != nil {
		return nil, err
	}
	var resp gqlResponse[struct {
		HeroStats map[string][]HeroAverage `json:"heroStats"`
	}]
	if err := sonic.Unmarshal(raw, &resp); err != nil {
		return nil, apperr.Upstream(err, "decode stratz hero stats")
	}
	out := make(map[benchmark.Grouping][]benchmark.Point, len(benchmark.Groupings))
	for _, g := range benchmark.Groupings {
		out[g] = Points(resp.Data.HeroStats[alias(g)])
	}
	c.logger.DebugContext(ctx, "hero benchmarks fetched", "hero_id", heroID, "position", position)
	return out, nil
}

var _ benchmark.Fetcher = (*Client)(nil)
