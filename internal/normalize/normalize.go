// Package normalize turns provider match payloads into the canonical
// model.PlayerData record.
package normalize

import (
	"math"

	"github.com/pable/dota-coach/internal/apperr"
	"github.com/pable/dota-coach/internal/model"
	"github.com/pable/dota-coach/internal/opendota"
	"github.com/pable/dota-coach/internal/stratz"
	"github.com/pable/dota-coach/internal/timeseries"
)

// Core items are the contiguous id range 1..200.
const (
	coreItemMin = 1
	coreItemMax = 200

	// firstCoreShare and firstCoreCap bound the first-core estimate when a
	// core item is in the final inventory.
	firstCoreShare = 0.3
	firstCoreCap   = 900
)

// Selector picks a player in a Stratz match: by slot when set, else by
// account, else by hero.
type Selector struct {
	Slot      *int
	AccountID int64
	HeroID    int
}

// FromOpenDota builds the record for the player in slot. role must be set.
func FromOpenDota(m *opendota.Match, slot int, role model.Role) (*model.PlayerData, error) {
	if m == nil {
		return nil, apperr.NotFoundf("no match")
	}
	var p *opendota.Player
	for i := range m.Players {
		if m.Players[i].PlayerSlot == slot {
			p = &m.Players[i]
			break
		}
	}
	if p == nil {
		return nil, apperr.NotFoundf("player slot %d not found in match %d", slot, m.MatchID)
	}
	if role == model.RoleUnknown {
		return nil, apperr.NotFoundf("role required for opendota match %d", m.MatchID)
	}

	radiant := p.Radiant()
	teamKills := 0
	for i := range m.Players {
		if m.Players[i].Radiant() == radiant {
			teamKills += m.Players[i].Kills
		}
	}

	d := &model.PlayerData{
		MatchID:         m.MatchID,
		Provider:        model.ProviderOpenDota,
		HeroID:          p.HeroID,
		HeroName:        model.HeroName(p.HeroID),
		Role:            role,
		PlayerSlot:      p.PlayerSlot,
		IsRadiant:       radiant,
		RadiantWin:      m.RadiantWin,
		Won:             m.RadiantWin == radiant,
		Bracket:         p.RankTier,
		DurationSeconds: m.Duration,
		Kills:           p.Kills,
		Deaths:          p.Deaths,
		Assists:         p.Assists,
		TeamKills:       teamKills,
		LastHits:        p.LastHits,
		Denies:          p.Denies,
		NetWorth:        p.NetWorth,
		GPM:             p.GoldPerMin,
		XPM:             p.XPPerMin,
		Level:           p.Level,
		HeroDamage:      p.HeroDamage,
		TowerDamage:     p.TowerDamage,
		HeroHealing:     p.HeroHealing,
		Observers:       p.Observers(),
		Sentries:        p.Sentries(),
		CampsStacked:    p.Stacks(),
		SmokesUsed:      p.ItemUses["smoke_of_deceit"],
	}
	d.FirstCoreSeconds = firstCoreFromInventory(p.Items(), m.Duration)

	series := &model.Series{
		LastHits: deltas(p.LHT),
		Denies:   deltas(p.DNT),
		XP:       deltas(p.XPT),
		Networth: p.GoldT,
	}
	if !series.Empty() {
		d.Series = series
	}
	if len(p.Benchmarks) > 0 {
		d.Percentiles = make(map[string]model.Percentile, len(p.Benchmarks))
		for k, v := range p.Benchmarks {
			d.Percentiles[k] = model.Percentile{Raw: v.Raw, Pct: v.Pct}
		}
	}

	derive(d)
	return d, nil
}

// FromStratz builds the record for the selected player. An empty role is
// taken from the player's reported position.
func FromStratz(m *stratz.Match, sel Selector, role model.Role) (*model.PlayerData, error) {
	if m == nil {
		return nil, apperr.NotFoundf("no match")
	}
	var p *stratz.Player
	for i := range m.Players {
		cand := &m.Players[i]
		if sel.Slot != nil {
			if cand.PlayerSlot == *sel.Slot {
				p = cand
				break
			}
			continue
		}
		if sel.AccountID != 0 {
			if cand.SteamAccountID != nil && *cand.SteamAccountID == sel.AccountID {
				p = cand
				break
			}
			continue
		}
		if cand.Hero.ID == sel.HeroID {
			p = cand
			break
		}
	}
	if p == nil {
		if sel.Slot != nil {
			return nil, apperr.NotFoundf("player slot %d not found in match %d", *sel.Slot, m.ID)
		}
		if sel.AccountID != 0 {
			return nil, apperr.NotFoundf("account %d not found in match %d", sel.AccountID, m.ID)
		}
		return nil, apperr.NotFoundf("hero %d not found in match %d", sel.HeroID, m.ID)
	}
	if role == model.RoleUnknown {
		r, err := model.ParseRole(p.Position)
		if err != nil {
			return nil, apperr.NotFoundf("role for hero %d: %v", p.Hero.ID, err)
		}
		role = r
	}

	teamKills := 0
	for i := range m.Players {
		if m.Players[i].IsRadiant == p.IsRadiant {
			teamKills += m.Players[i].Kills
		}
	}

	name := p.Hero.DisplayName
	if name == "" {
		name = model.HeroName(p.Hero.ID)
	}
	bracket := 0
	switch {
	case m.Bracket != nil:
		bracket = *m.Bracket
	case m.Rank != nil:
		bracket = *m.Rank
	}

	d := &model.PlayerData{
		MatchID:         m.ID,
		Provider:        model.ProviderStratz,
		HeroID:          p.Hero.ID,
		HeroName:        name,
		Role:            role,
		PlayerSlot:      p.PlayerSlot,
		IsRadiant:       p.IsRadiant,
		RadiantWin:      m.DidRadiantWin,
		Won:             m.DidRadiantWin == p.IsRadiant,
		Bracket:         bracket,
		DurationSeconds: m.DurationSeconds,
		Kills:           p.Kills,
		Deaths:          p.Deaths,
		Assists:         p.Assists,
		TeamKills:       teamKills,
		LastHits:        p.NumLastHits,
		Denies:          p.NumDenies,
		NetWorth:        p.Networth,
		GPM:             p.GoldPerMinute,
		XPM:             p.ExperiencePerMinute,
		Level:           p.Level,
		HeroDamage:      p.HeroDamage,
		TowerDamage:     p.TowerDamage,
		HeroHealing:     p.HeroHealing,
		// no inventory in the query
		FirstCoreSeconds: m.DurationSeconds,
	}
	if s := p.Stats; s != nil {
		series := &model.Series{
			GoldPerMinute: s.GoldPerMinute,
			XP:            s.ExperiencePerMinute,
			Level:         s.Level,
			LastHits:      s.LastHitsPerMinute,
			Denies:        s.DeniesPerMinute,
			CampStack:     s.CampStack,
			Networth:      s.NetworthPerMinute,
		}
		if !series.Empty() {
			d.Series = series
			d.CampsStacked = int(timeseries.Accumulate(s.CampStack, len(s.CampStack)-1))
		}
	}
	if len(p.HeroAverage) > 0 {
		d.HeroAverage = stratz.Points(p.HeroAverage)
	}

	derive(d)
	return d, nil
}

// derive fills the ratios shared by both providers.
func derive(d *model.PlayerData) {
	mm := float64(d.DurationSeconds) / 60
	d.MatchMinutes = mm
	d.MinuteBucket = MinuteBucket(mm)
	d.KillParticipation = float64(d.Kills+d.Assists) / float64(max(d.TeamKills, 1)) * 100
	if mm > 0 {
		d.DeathsPer10 = float64(d.Deaths) / mm * 10
		d.DamagePerMinute = float64(d.HeroDamage) / mm
		d.TowerDamagePerMinute = float64(d.TowerDamage) / mm
	}

	var lh, dn []float64
	if d.Series != nil {
		lh, dn = d.Series.LastHits, d.Series.Denies
	}
	d.LastHitsAt10 = timeseries.ValueAt(timeseries.Accumulating, lh, 10,
		timeseries.Fallback{Total: float64(d.LastHits), MatchMinutes: mm})
	d.DeniesAt10 = timeseries.ValueAt(timeseries.Accumulating, dn, 10,
		timeseries.Fallback{Total: float64(d.Denies), MatchMinutes: mm})
}

// MinuteBucket labels a match length.
func MinuteBucket(matchMinutes float64) string {
	switch {
	case matchMinutes > 20:
		return "20+"
	case matchMinutes > 15:
		return "15-20"
	case matchMinutes > 10:
		return "10-15"
	default:
		return "0-10"
	}
}

func firstCoreFromInventory(items [6]int, duration int) int {
	for _, id := range items {
		if id >= coreItemMin && id <= coreItemMax {
			return int(math.Round(math.Min(firstCoreShare*float64(duration), firstCoreCap)))
		}
	}
	return duration
}

// deltas turns a cumulative series into per-minute increments.
func deltas(cum []float64) []float64 {
	if len(cum) == 0 {
		return nil
	}
	out := make([]float64, len(cum))
	prev := 0.0
	for i, v := range cum {
		out[i] = math.Max(v-prev, 0)
		prev = v
	}
	return out
}
