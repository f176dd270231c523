package rules

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/pable/dota-coach/internal/apperr"
)

//go:embed default_ruleset.yaml
var defaultRuleset []byte

//go:embed default_thresholds.yaml
var defaultThresholds []byte

var validate = validator.New()

var validRoles = map[string]bool{
	"pos1": true, "pos2": true, "pos3": true, "pos4": true, "pos5": true,
	"ANY": true, "ALL": true, "any": true, "all": true,
}

// Default loads the embedded ruleset and thresholds.
func Default() (*Ruleset, error) {
	return Load(defaultRuleset, defaultThresholds)
}

// LoadFiles reads the ruleset and thresholds from disk. An empty path
// selects the embedded document.
func LoadFiles(rulesPath, thresholdsPath string) (*Ruleset, error) {
	rdata, tdata := defaultRuleset, defaultThresholds
	var err error
	if rulesPath != "" {
		if rdata, err = os.ReadFile(rulesPath); err != nil {
			return nil, apperr.ConfigParse(err, "read ruleset %s", rulesPath)
		}
	}
	if thresholdsPath != "" {
		if tdata, err = os.ReadFile(thresholdsPath); err != nil {
			return nil, apperr.ConfigParse(err, "read thresholds %s", thresholdsPath)
		}
	}
	return Load(rdata, tdata)
}

// Load parses and validates a ruleset document and its thresholds. Any
// structural problem fails the whole load with ErrConfigParse.
func Load(rulesData, thresholdsData []byte) (*Ruleset, error) {
	th, err := ParseThresholds(thresholdsData)
	if err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(rulesData))
	dec.KnownFields(true)
	var rs Ruleset
	if err := dec.Decode(&rs); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperr.ConfigParse(nil, "ruleset document is empty")
		}
		return nil, apperr.ConfigParse(err, "parse ruleset")
	}
	applySelectionDefaults(&rs)

	if err := validate.Struct(&rs); err != nil {
		return nil, apperr.ConfigParse(err, "validate ruleset")
	}
	if err := check(&rs); err != nil {
		return nil, apperr.ConfigParse(err, "validate ruleset")
	}
	rs.Thresholds = th
	rs.index()
	return &rs, nil
}

func applySelectionDefaults(rs *Ruleset) {
	s := &rs.Selection
	if s.MaxFixes == 0 {
		s.MaxFixes = 3
	}
	if s.MaxWins == 0 {
		s.MaxWins = 2
	}
	if s.MaxPerCategory == 0 {
		s.MaxPerCategory = 2
	}
	c := &rs.Confidence
	if *c == (Confidence{}) {
		*c = Confidence{BasePerCondition: 1, BigGapBonus: 1, GuardPenalty: 1, RoleSpecificBonus: 0.5}
	}
	if c.MediumFrom == 0 && c.HighFrom == 0 {
		c.MediumFrom, c.HighFrom = 3, 5
	}
}

// check covers the cross-references the validator cannot express.
func check(rs *Ruleset) error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	cats := map[string]bool{}
	for _, c := range rs.Categories {
		if cats[c.ID] {
			add("duplicate category %q", c.ID)
		}
		cats[c.ID] = true
	}
	guards := map[string]bool{}
	for _, g := range rs.Guards {
		if guards[g.ID] {
			add("duplicate guard %q", g.ID)
		}
		guards[g.ID] = true
		if len(g.Any) == 0 && len(g.All) == 0 {
			add("guard %q has no conditions", g.ID)
		}
		if len(g.Any) > 0 && len(g.All) > 0 {
			add("guard %q: any and all are exclusive", g.ID)
		}
	}

	ids := map[string]bool{}
	for _, r := range rs.Rules {
		if ids[r.ID] {
			add("duplicate rule %q", r.ID)
		}
		ids[r.ID] = true
		if !cats[r.Category] {
			add("rule %q: unknown category %q", r.ID, r.Category)
		}
		if !r.Severity.IsSet() {
			add("rule %q: severity is required", r.ID)
		}
		if len(r.All) == 0 && len(r.Any) == 0 {
			add("rule %q: needs at least one condition", r.ID)
		}
		if r.AtMin != nil && r.EndOfGame {
			add("rule %q: atMin and endOfGame are exclusive", r.ID)
		}
		for _, role := range r.Roles {
			if !validRoles[role] {
				add("rule %q: unknown role %q", r.ID, role)
			}
		}
		for _, g := range r.Guards {
			if !guards[g] {
				add("rule %q: unknown guard %q", r.ID, g)
			}
		}
		if r.BigGap != nil && r.BigGap.Over.Kind == OperandNone {
			add("rule %q: bigGap needs over", r.ID)
		}
		forEachCondition(&r, func(c Condition) {
			if c.Value.Kind == OperandNone {
				add("rule %q: condition on %q has no value", r.ID, c.Metric)
			}
		})
	}
	for role, list := range rs.Selection.RoleSpecificPriority {
		for _, id := range list {
			if !ids[id] {
				add("roleSpecificPriority %s: unknown rule %q", role, id)
			}
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func forEachCondition(r *Rule, fn func(Condition)) {
	for _, c := range r.All {
		fn(c)
	}
	for _, c := range r.Any {
		fn(c)
	}
	for _, cx := range r.Context {
		fn(cx.If)
	}
}
