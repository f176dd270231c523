package rules

import (
	"context"

	"github.com/pable/dota-coach/internal/logging"
	"github.com/pable/dota-coach/internal/model"
)

// Result is the outcome of one engine run.
type Result struct {
	Fixes []model.Finding
	Wins  []model.Finding
	// Matched counts rules whose conditions held, before selection.
	Matched int
	// Defaulted is set when nothing matched and both lists are defaults.
	Defaulted bool
	// Gaps lists rule evaluation gaps, one line per rule and reason.
	Gaps []string
}

// Engine evaluates a ruleset. It holds no per-request state.
type Engine struct {
	rs     *Ruleset
	logger *logging.Logger
}

func NewEngine(rs *Ruleset, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{rs: rs, logger: logger}
}

// Ruleset returns the ruleset the engine evaluates.
func (e *Engine) Ruleset() *Ruleset { return e.rs }

// candidate is a matched rule before selection.
type candidate struct {
	rule     *Rule
	finding  model.Finding
	bucket   Bucket
	absDelta float64
	rank     int
}

// Evaluate runs every rule that applies to role and selects the final
// fixes and wins.
func (e *Engine) Evaluate(ctx context.Context, role model.Role, facts Facts) Result {
	var res Result
	var cands []candidate

	priority := e.rs.Selection.RoleSpecificPriority[string(role)]
	rank := make(map[string]int, len(priority))
	for i, id := range priority {
		rank[id] = i
	}

	for i := range e.rs.Rules {
		r := &e.rs.Rules[i]
		if !r.AppliesTo(role) {
			continue
		}
		c, ok, gaps := e.evalRule(r, facts)
		for _, g := range gaps {
			e.logger.WarnContext(ctx, "rule evaluation gap", "rule", r.ID, "error", g)
			res.Gaps = append(res.Gaps, r.ID+": "+g.Error())
		}
		if !ok {
			continue
		}
		c.rank = len(priority)
		if idx, listed := rank[r.ID]; listed {
			c.rank = idx
		}
		cands = append(cands, c)
	}

	res.Matched = len(cands)
	res.Fixes, res.Wins, res.Defaulted = selectFindings(cands, e.rs.Selection)
	return res
}

// evalRule evaluates guards, conditions, confidence and context for one
// rule. ok is false when the rule did not match or a guard suppressed it.
func (e *Engine) evalRule(r *Rule, facts Facts) (candidate, bool, []error) {
	var gaps []error
	anchor := r.Anchor()
	th := e.rs.Thresholds

	activeGuards := 0
	for _, id := range r.Guards {
		g, ok := e.rs.Guard(id)
		if !ok {
			continue
		}
		on, errs := guardActive(g, anchor, facts, th)
		gaps = append(gaps, errs...)
		if on {
			activeGuards++
		}
	}
	if activeGuards > 0 && r.RoleSpecific {
		return candidate{}, false, gaps
	}

	var evidence []model.Evidence
	var primary *Outcome
	satisfied := 0
	for _, c := range r.All {
		out, err := Evaluate(c, anchor, facts, th)
		if err != nil {
			gaps = append(gaps, err)
		}
		if !out.Matched {
			return candidate{}, false, gaps
		}
		satisfied++
		evidence = append(evidence, out.Evidence)
		if primary == nil {
			o := out
			primary = &o
		}
	}
	if len(r.Any) > 0 {
		hit := false
		for _, c := range r.Any {
			out, err := Evaluate(c, anchor, facts, th)
			if err != nil {
				gaps = append(gaps, err)
			}
			if !out.Matched {
				continue
			}
			hit = true
			satisfied++
			evidence = append(evidence, out.Evidence)
			if primary == nil {
				o := out
				primary = &o
			}
		}
		if !hit {
			return candidate{}, false, gaps
		}
	}
	if primary == nil {
		return candidate{}, false, gaps
	}

	bucket := r.Severity.Bucket
	if activeGuards > 0 {
		bucket = bucket.Dampen()
	}

	desc := r.Advice.Detail
	for i, cx := range r.Context {
		if i == MaxContext {
			break
		}
		out, err := Evaluate(cx.If, anchor, facts, th)
		if err != nil {
			gaps = append(gaps, err)
		}
		if !out.Matched {
			continue
		}
		switch cx.Effect {
		case EffectAttachNote:
			desc += " " + cx.Note
		case EffectDampenLevel:
			bucket = bucket.Dampen()
		}
	}

	conf := e.rs.Confidence
	score := conf.BasePerCondition * float64(satisfied)
	big, err := bigGapExceeded(r, primary, anchor, facts, th)
	if err != nil {
		gaps = append(gaps, err)
	}
	if big {
		score += conf.BigGapBonus
	}
	score -= conf.GuardPenalty * float64(activeGuards)
	if r.RoleSpecific {
		score += conf.RoleSpecificBonus
	}
	if score < 0 {
		score = 0
	}

	f := model.Finding{
		RuleID:          r.ID,
		Kind:            r.Type,
		Title:           r.Advice.Title,
		Description:     desc,
		Category:        r.Category,
		KPI:             primary.Evidence.Metric,
		Severity:        bucket.String(),
		Weight:          bucket.Weight(),
		Confidence:      score,
		ConfidenceLabel: conf.Label(score),
		Evidence:        evidence,
	}
	return candidate{rule: r, finding: f, bucket: bucket, absDelta: primary.AbsDelta}, true, gaps
}

func guardActive(g *Guard, anchor int, facts Facts, th *Thresholds) (bool, []error) {
	var errs []error
	if len(g.Any) > 0 {
		for _, c := range g.Any {
			out, err := Evaluate(c, anchor, facts, th)
			if err != nil {
				errs = append(errs, err)
			}
			if out.Matched {
				return true, errs
			}
		}
		return false, errs
	}
	if len(g.All) == 0 {
		return false, nil
	}
	for _, c := range g.All {
		out, err := Evaluate(c, anchor, facts, th)
		if err != nil {
			errs = append(errs, err)
		}
		if !out.Matched {
			return false, errs
		}
	}
	return true, errs
}

func bigGapExceeded(r *Rule, primary *Outcome, anchor int, facts Facts, th *Thresholds) (bool, error) {
	if r.BigGap == nil {
		return false, nil
	}
	over, ok, err := resolveWith(r.BigGap.Over, th, facts, anchor)
	if err != nil || !ok {
		return false, err
	}
	if r.BigGap.Metric == "" {
		return primary.AbsDelta > over, nil
	}
	name, minute, err := SplitMetric(r.BigGap.Metric, anchor)
	if err != nil {
		return false, err
	}
	v, ok := facts.Player(name, minute)
	return ok && v > over, nil
}
