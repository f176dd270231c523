package stratz

import "github.com/pable/dota-coach/internal/benchmark"

// Match is the subset of the GraphQL match type we query.
type Match struct {
	ID              int64    `json:"id"`
	DidRadiantWin   bool     `json:"didRadiantWin"`
	DurationSeconds int      `json:"durationSeconds"`
	StartDateTime   int64    `json:"startDateTime"`
	GameMode        string   `json:"gameMode"`
	Rank            *int     `json:"rank"`
	Bracket         *int     `json:"bracket"`
	Players         []Player `json:"players"`
}

// Hero identifies the hero a player picked.
type Hero struct {
	ID          int    `json:"id"`
	DisplayName string `json:"displayName"`
	ShortName   string `json:"shortName"`
}

// Player is one entry of Match.Players.
type Player struct {
	PlayerSlot          int           `json:"playerSlot"`
	SteamAccountID      *int64        `json:"steamAccountId"`
	IsRadiant           bool          `json:"isRadiant"`
	Hero                Hero          `json:"hero"`
	Position            string        `json:"position"`
	Lane                string        `json:"lane"`
	Kills               int           `json:"kills"`
	Deaths              int           `json:"deaths"`
	Assists             int           `json:"assists"`
	NumLastHits         int           `json:"numLastHits"`
	NumDenies           int           `json:"numDenies"`
	Networth            int           `json:"networth"`
	GoldPerMinute       int           `json:"goldPerMinute"`
	ExperiencePerMinute int           `json:"experiencePerMinute"`
	Level               int           `json:"level"`
	HeroDamage          int           `json:"heroDamage"`
	TowerDamage         int           `json:"towerDamage"`
	HeroHealing         int           `json:"heroHealing"`
	Imp                 *float64      `json:"imp"`
	Stats               *PlayerStats  `json:"stats"`
	HeroAverage         []HeroAverage `json:"heroAverage"`
}

// PlayerStats holds per-minute arrays. Any of them may be missing.
type PlayerStats struct {
	GoldPerMinute       []float64 `json:"goldPerMinute"`
	ExperiencePerMinute []float64 `json:"experiencePerMinute"`
	Level               []float64 `json:"level"`
	LastHitsPerMinute   []float64 `json:"lastHitsPerMinute"`
	DeniesPerMinute     []float64 `json:"deniesPerMinute"`
	CampStack           []float64 `json:"campStack"`
	NetworthPerMinute   []float64 `json:"networthPerMinute"`
}

// HeroAverage is one time bucket of population averages. Numeric fields are
// nullable on the wire.
type HeroAverage struct {
	Time          int      `json:"time"`
	Position      string   `json:"position"`
	MatchCount    int      `json:"matchCount"`
	WinCount      int      `json:"winCount"`
	Kills         *float64 `json:"kills"`
	Deaths        *float64 `json:"deaths"`
	Assists       *float64 `json:"assists"`
	Networth      *float64 `json:"networth"`
	Level         *float64 `json:"level"`
	CS            *float64 `json:"cs"`
	DN            *float64 `json:"dn"`
	GoldPerMinute *float64 `json:"goldPerMinute"`
	XP            *float64 `json:"xp"`
	CampsStacked  *float64 `json:"campsStacked"`
	HeroDamage    *float64 `json:"heroDamage"`
	Damage        *float64 `json:"damage"`
	TowerDamage   *float64 `json:"towerDamage"`
	HealingAllies *float64 `json:"healingAllies"`
}

// Point converts the wire shape into a benchmark point. HeroDamage falls
// back to the broader damage average.
func (h HeroAverage) Point() benchmark.Point {
	dmg := val(h.HeroDamage)
	if h.HeroDamage == nil {
		dmg = val(h.Damage)
	}
	return benchmark.Point{
		Time:          h.Time,
		MatchCount:    h.MatchCount,
		Kills:         val(h.Kills),
		Deaths:        val(h.Deaths),
		Assists:       val(h.Assists),
		Networth:      val(h.Networth),
		Level:         val(h.Level),
		CS:            val(h.CS),
		Denies:        val(h.DN),
		GoldPerMinute: val(h.GoldPerMinute),
		XP:            val(h.XP),
		CampsStacked:  val(h.CampsStacked),
		HeroDamage:    dmg,
		TowerDamage:   val(h.TowerDamage),
		HealingAllies: val(h.HealingAllies),
	}
}

// Points converts a slice of averages.
func Points(avgs []HeroAverage) []benchmark.Point {
	out := make([]benchmark.Point, 0, len(avgs))
	for _, a := range avgs {
		out = append(out, a.Point())
	}
	return out
}

func val(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

type gqlError struct {
	Message string `json:"message"`
}

type gqlResponse[T any] struct {
	Data   T          `json:"data"`
	Errors []gqlError `json:"errors"`
}
