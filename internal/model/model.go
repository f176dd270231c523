// Package model holds the canonical per-player record and the report shapes
// shared by the analysis pipeline, storage and rendering.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/pable/dota-coach/internal/benchmark"
)

// Provider names the upstream a match came from.
type Provider string

const (
	ProviderOpenDota Provider = "opendota"
	ProviderStratz   Provider = "stratz"
)

// Role is a farm position, pos1 (carry) through pos5 (hard support).
type Role string

const (
	RoleUnknown Role = ""
	RolePos1    Role = "pos1"
	RolePos2    Role = "pos2"
	RolePos3    Role = "pos3"
	RolePos4    Role = "pos4"
	RolePos5    Role = "pos5"
)

// ParseRole accepts "pos1", "1" or "POSITION_1".
func ParseRole(s string) (Role, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.TrimPrefix(v, "position_")
	v = strings.TrimPrefix(v, "pos")
	switch v {
	case "1", "2", "3", "4", "5":
		return Role("pos" + v), nil
	}
	return RoleUnknown, fmt.Errorf("unknown role %q", s)
}

// Position returns the provider position label, e.g. POSITION_1.
func (r Role) Position() string {
	if r == RoleUnknown {
		return ""
	}
	return "POSITION_" + strings.TrimPrefix(string(r), "pos")
}

// IsCore reports whether the role is one of the three farming positions.
func (r Role) IsCore() bool {
	return r == RolePos1 || r == RolePos2 || r == RolePos3
}

// IsSupport reports whether the role is pos4 or pos5.
func (r Role) IsSupport() bool {
	return r == RolePos4 || r == RolePos5
}

// Series holds optional per-minute arrays indexed by elapsed minute.
// LastHits, Denies, CampStack and XP hold per-minute deltas; Networth,
// Level and GoldPerMinute are already cumulative.
type Series struct {
	GoldPerMinute []float64 `json:"goldPerMinute,omitempty"`
	XP            []float64 `json:"experiencePerMinute,omitempty"`
	Level         []float64 `json:"level,omitempty"`
	LastHits      []float64 `json:"lastHitsPerMinute,omitempty"`
	Denies        []float64 `json:"deniesPerMinute,omitempty"`
	CampStack     []float64 `json:"campStack,omitempty"`
	Networth      []float64 `json:"networthPerMinute,omitempty"`
}

// Empty reports whether no series is present.
func (s *Series) Empty() bool {
	if s == nil {
		return true
	}
	return len(s.GoldPerMinute) == 0 && len(s.XP) == 0 && len(s.Level) == 0 &&
		len(s.LastHits) == 0 && len(s.Denies) == 0 && len(s.CampStack) == 0 && len(s.Networth) == 0
}

// Percentile is a provider-supplied percentile for one metric.
type Percentile struct {
	Raw float64 `json:"raw"`
	Pct float64 `json:"pct"`
}

// PlayerData is the canonical per-player record produced by normalization.
// It is immutable once built.
type PlayerData struct {
	MatchID    int64    `json:"matchId"`
	Provider   Provider `json:"provider"`
	HeroID     int      `json:"heroId"`
	HeroName   string   `json:"heroName"`
	Role       Role     `json:"role"`
	PlayerSlot int      `json:"playerSlot"`
	IsRadiant  bool     `json:"isRadiant"`
	RadiantWin bool     `json:"radiantWin"`
	Won        bool     `json:"won"`
	Bracket    int      `json:"bracket"`

	DurationSeconds int     `json:"durationSeconds"`
	MatchMinutes    float64 `json:"matchMinutes"`
	MinuteBucket    string  `json:"minuteBucket"`

	Kills        int `json:"kills"`
	Deaths       int `json:"deaths"`
	Assists      int `json:"assists"`
	TeamKills    int `json:"teamKills"`
	LastHits     int `json:"lastHits"`
	Denies       int `json:"denies"`
	NetWorth     int `json:"networth"`
	GPM          int `json:"gpm"`
	XPM          int `json:"xpm"`
	Level        int `json:"level"`
	HeroDamage   int `json:"heroDamage"`
	TowerDamage  int `json:"towerDamage"`
	HeroHealing  int `json:"heroHealing"`
	Observers    int `json:"observers"`
	Sentries     int `json:"sentries"`
	CampsStacked int `json:"campsStacked"`
	SmokesUsed   int `json:"smokesUsed"`

	KillParticipation    float64 `json:"killParticipation"`
	DeathsPer10          float64 `json:"deathsPer10"`
	DamagePerMinute      float64 `json:"damagePerMinute"`
	TowerDamagePerMinute float64 `json:"towerDamagePerMinute"`
	FirstCoreSeconds     int     `json:"firstCoreSeconds"`
	LastHitsAt10         float64 `json:"lastHitsAt10"`
	DeniesAt10           float64 `json:"deniesAt10"`

	Series      *Series               `json:"series,omitempty"`
	HeroAverage []benchmark.Point     `json:"heroAverage,omitempty"`
	Percentiles map[string]Percentile `json:"percentiles,omitempty"`
}

// Kind separates improvement findings from strengths.
type Kind string

const (
	KindFix Kind = "fix"
	KindWin Kind = "win"
)

// Evidence records one compared value behind a finding. For benchmark deltas
// Reference is the population average and Delta the signed fraction; for raw
// comparisons Reference is the resolved threshold and Delta is player minus it.
type Evidence struct {
	Metric        string  `json:"metric"`
	Minute        int     `json:"minute"`
	Player        float64 `json:"player"`
	Reference     float64 `json:"reference"`
	Delta         float64 `json:"delta"`
	FromBenchmark bool    `json:"fromBenchmark"`
}

// Finding is one rendered fix or win.
type Finding struct {
	RuleID          string     `json:"ruleId,omitempty"`
	Kind            Kind       `json:"kind"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Category        string     `json:"category"`
	KPI             string     `json:"kpi,omitempty"`
	Severity        string     `json:"severity"`
	Weight          float64    `json:"weight"`
	Priority        int        `json:"priority"`
	Confidence      float64    `json:"confidence"`
	ConfidenceLabel string     `json:"confidenceLabel"`
	Evidence        []Evidence `json:"evidence,omitempty"`
}

// TimelineMarker is a notable moment; Time is in seconds.
type TimelineMarker struct {
	Label       string  `json:"label"`
	Time        int     `json:"time"`
	Description string  `json:"description"`
	Delta       float64 `json:"delta"`
	HasDelta    bool    `json:"hasDelta"`
}

// Comparison is one player-versus-average row.
type Comparison struct {
	Metric      string  `json:"metric"`
	Label       string  `json:"label"`
	Minute      int     `json:"minute,omitempty"`
	Player      float64 `json:"player"`
	Average     float64 `json:"average"`
	Difference  float64 `json:"difference"`
	PercentDiff float64 `json:"percentDiff"`
	Available   bool    `json:"available"`
}

// ComparisonSection groups comparisons for one phase of the game.
type ComparisonSection struct {
	Name    string       `json:"name"`
	Minute  int          `json:"minute,omitempty"`
	Summary string       `json:"summary"`
	Rows    []Comparison `json:"rows"`
}

// Report is the analysis output for one player in one match.
type Report struct {
	ID             string              `json:"id"`
	MatchID        int64               `json:"matchId"`
	Provider       Provider            `json:"provider"`
	HeroID         int                 `json:"heroId"`
	HeroName       string              `json:"heroName"`
	Role           Role                `json:"role"`
	Grouping       string              `json:"grouping"`
	RulesetVersion string              `json:"rulesetVersion"`
	CreatedAt      time.Time           `json:"createdAt"`
	Defaulted      bool                `json:"defaulted"`
	Summary        string              `json:"summary"`
	Fixes          []Finding           `json:"fixes"`
	Wins           []Finding           `json:"wins"`
	Timeline       []TimelineMarker    `json:"timeline"`
	Comparisons    []ComparisonSection `json:"comparisons,omitempty"`
	Overview       string              `json:"overview,omitempty"`
	Gaps           []string            `json:"gaps,omitempty"`
}

// ReportSummary is the listing view of a stored report.
type ReportSummary struct {
	ID        string
	MatchID   int64
	Provider  Provider
	HeroID    int
	HeroName  string
	Role      Role
	Summary   string
	CreatedAt time.Time
}
