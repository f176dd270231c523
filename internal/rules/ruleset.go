// Package rules loads the declarative coaching ruleset and evaluates it
// against a player's facts to produce ranked fixes and wins.
package rules

import (
	"github.com/pable/dota-coach/internal/model"
)

// Op is a comparison operator.
type Op string

const (
	OpLT  Op = "lt"
	OpLTE Op = "lte"
	OpGT  Op = "gt"
	OpGTE Op = "gte"
	OpEQ  Op = "eq"

	OpDeltaLessThan    Op = "delta_less_than"
	OpDeltaGreaterThan Op = "delta_greater_than"
	OpDeltaLTE         Op = "delta_lte"
	OpDeltaGTE         Op = "delta_gte"
)

// IsDelta reports whether the operator compares against a benchmark.
func (o Op) IsDelta() bool {
	switch o {
	case OpDeltaLessThan, OpDeltaGreaterThan, OpDeltaLTE, OpDeltaGTE:
		return true
	}
	return false
}

// Condition compares one metric against an operand. Metric may carry its
// own anchor as "name@minute".
type Condition struct {
	Op     Op      `yaml:"op" validate:"required,oneof=lt lte gt gte eq delta_less_than delta_greater_than delta_lte delta_gte"`
	Metric string  `yaml:"metric" validate:"required"`
	Value  Operand `yaml:"value"`
}

// Guard is a named condition group. It is active when any (or all) of its
// conditions match.
type Guard struct {
	ID  string      `yaml:"id" validate:"required"`
	Any []Condition `yaml:"any" validate:"dive"`
	All []Condition `yaml:"all" validate:"dive"`
}

// Category groups rules for display and selection caps.
type Category struct {
	ID          string `yaml:"id" validate:"required"`
	Name        string `yaml:"name" validate:"required"`
	Description string `yaml:"description"`
	Priority    int    `yaml:"priority" validate:"gte=0"`
}

type Advice struct {
	Title  string `yaml:"title" validate:"required"`
	Detail string `yaml:"detail" validate:"required"`
}

// BigGap raises confidence when the gap exceeds Over. With Metric set the
// metric's player value is compared; otherwise the primary evidence's
// absolute delta is.
type BigGap struct {
	Metric string  `yaml:"metric"`
	Over   Operand `yaml:"over"`
}

// Effect is what a matching context entry does to a finding.
type Effect string

const (
	EffectAttachNote  Effect = "attachNote"
	EffectDampenLevel Effect = "dampenLevel"
)

// Context optionally annotates or dampens a matched rule.
type Context struct {
	If     Condition `yaml:"if"`
	Effect Effect    `yaml:"effect" validate:"required,oneof=attachNote dampenLevel"`
	Note   string    `yaml:"note" validate:"required_if=Effect attachNote"`
}

// MaxContext is how many context entries are evaluated per rule.
const MaxContext = 2

// Rule is one declarative fix or win.
type Rule struct {
	ID           string      `yaml:"id" validate:"required"`
	Type         model.Kind  `yaml:"type" validate:"required,oneof=fix win"`
	Roles        []string    `yaml:"roles" validate:"required,min=1"`
	RoleSpecific bool        `yaml:"roleSpecific"`
	Category     string      `yaml:"category" validate:"required"`
	Severity     Severity    `yaml:"severity"`
	AtMin        *int        `yaml:"atMin" validate:"omitempty,gte=0,lte=120"`
	EndOfGame    bool        `yaml:"endOfGame"`
	All          []Condition `yaml:"all" validate:"dive"`
	Any          []Condition `yaml:"any" validate:"dive"`
	BigGap       *BigGap     `yaml:"bigGap"`
	Guards       []string    `yaml:"guards"`
	Advice       Advice      `yaml:"advice"`
	Context      []Context   `yaml:"context" validate:"max=2,dive"`
}

// Anchor returns the rule's minute, or -1 for end of game.
func (r *Rule) Anchor() int {
	if r.AtMin != nil && !r.EndOfGame {
		return *r.AtMin
	}
	return -1
}

// AppliesTo reports whether the rule targets role.
func (r *Rule) AppliesTo(role model.Role) bool {
	for _, v := range r.Roles {
		switch v {
		case "ANY", "ALL", "any", "all":
			return true
		}
		if v == string(role) {
			return true
		}
	}
	return false
}

// Selection bounds the final finding lists.
type Selection struct {
	MaxFixes             int                 `yaml:"maxFixes" validate:"gte=1,lte=10"`
	MaxWins              int                 `yaml:"maxWins" validate:"gte=1,lte=10"`
	MaxPerCategory       int                 `yaml:"maxPerCategory" validate:"gte=1"`
	RequireWinAndFix     *bool               `yaml:"requireWinAndFix"`
	RoleSpecificPriority map[string][]string `yaml:"roleSpecificPriority"`
}

// Balanced reports whether an empty side is filled with defaults.
func (s Selection) Balanced() bool {
	return s.RequireWinAndFix == nil || *s.RequireWinAndFix
}

// Confidence configures the confidence score and its labels.
type Confidence struct {
	BasePerCondition  float64 `yaml:"basePerCondition" validate:"gte=0"`
	BigGapBonus       float64 `yaml:"bigGapBonus" validate:"gte=0"`
	GuardPenalty      float64 `yaml:"guardPenalty" validate:"gte=0"`
	RoleSpecificBonus float64 `yaml:"roleSpecificBonus" validate:"gte=0"`
	MediumFrom        float64 `yaml:"mediumFrom" validate:"gt=0"`
	HighFrom          float64 `yaml:"highFrom" validate:"gtfield=MediumFrom"`
}

// Label maps a score to low, medium or high.
func (c Confidence) Label(score float64) string {
	switch {
	case score >= c.HighFrom:
		return "high"
	case score >= c.MediumFrom:
		return "medium"
	default:
		return "low"
	}
}

// Ruleset is the parsed, validated and immutable rule document together
// with the thresholds its references resolve against.
type Ruleset struct {
	Version    string     `yaml:"version" validate:"required"`
	Categories []Category `yaml:"categories" validate:"required,min=1,dive"`
	Guards     []Guard    `yaml:"guards" validate:"dive"`
	Rules      []Rule     `yaml:"rules" validate:"required,min=1,dive"`
	Selection  Selection  `yaml:"selection"`
	Confidence Confidence `yaml:"confidence"`

	Thresholds *Thresholds `yaml:"-"`

	guards     map[string]*Guard
	categories map[string]*Category
}

// Guard returns a guard by id.
func (rs *Ruleset) Guard(id string) (*Guard, bool) {
	g, ok := rs.guards[id]
	return g, ok
}

// Category returns a category by id.
func (rs *Ruleset) Category(id string) (*Category, bool) {
	c, ok := rs.categories[id]
	return c, ok
}

func (rs *Ruleset) index() {
	rs.guards = make(map[string]*Guard, len(rs.Guards))
	for i := range rs.Guards {
		rs.guards[rs.Guards[i].ID] = &rs.Guards[i]
	}
	rs.categories = make(map[string]*Category, len(rs.Categories))
	for i := range rs.Categories {
		rs.categories[rs.Categories[i].ID] = &rs.Categories[i]
	}
}
