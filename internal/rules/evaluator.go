package rules

import (
	"math"
	"strconv"
	"strings"

	"github.com/pable/dota-coach/internal/apperr"
	"github.com/pable/dota-coach/internal/model"
)

// EndOfGame is the anchor minute meaning "final values".
const EndOfGame = -1

const (
	eqEpsilon    = 0.01
	deltaEpsilon = 1e-6
)

// Facts supplies player and benchmark values to the evaluator. A minute
// below zero asks for end-of-game values. The bool is false when the value
// is not available for this player, which is not an error.
type Facts interface {
	Known(metric string) bool
	Player(metric string, minute int) (float64, bool)
	Benchmark(metric string, minute int) (float64, bool)
}

// Outcome is the result of one condition.
type Outcome struct {
	Matched  bool
	AbsDelta float64
	Evidence model.Evidence
}

// SplitMetric separates "name@minute" into its parts. Without a suffix the
// anchor is returned unchanged.
func SplitMetric(metric string, anchor int) (string, int, error) {
	name, at, found := strings.Cut(metric, "@")
	if !found {
		return metric, anchor, nil
	}
	m, err := strconv.Atoi(at)
	if err != nil || m < 0 {
		return name, anchor, apperr.Gapf("bad minute in metric %q", metric)
	}
	return name, m, nil
}

// Evaluate applies one condition at anchor. Unknown metrics and unresolvable
// references return an ErrRuleEvaluationGap error with a non-matching
// outcome; missing data is simply a non-match.
func Evaluate(c Condition, anchor int, facts Facts, th *Thresholds) (Outcome, error) {
	name, minute, err := SplitMetric(c.Metric, anchor)
	if err != nil {
		return Outcome{}, err
	}
	if !facts.Known(name) {
		return Outcome{}, apperr.Gapf("unknown metric %q", name)
	}
	target, ok, err := resolveWith(c.Value, th, facts, minute)
	if err != nil || !ok {
		return Outcome{}, err
	}

	p, ok := facts.Player(name, minute)
	if !ok {
		return Outcome{}, nil
	}
	ev := model.Evidence{Metric: name, Minute: minute, Player: p}

	if c.Op.IsDelta() {
		b, ok := facts.Benchmark(name, minute)
		if !ok {
			return Outcome{}, nil
		}
		delta := (p - b) / math.Max(b, deltaEpsilon)
		ev.Reference, ev.Delta, ev.FromBenchmark = b, delta, true
		return Outcome{Matched: compare(c.Op, delta, target), AbsDelta: math.Abs(delta), Evidence: ev}, nil
	}

	ev.Reference, ev.Delta = target, p-target
	return Outcome{Matched: compare(c.Op, p, target), AbsDelta: math.Abs(p - target), Evidence: ev}, nil
}

func compare(op Op, v, target float64) bool {
	switch op {
	case OpLT, OpDeltaLessThan:
		return v < target
	case OpLTE, OpDeltaLTE:
		return v <= target
	case OpGT, OpDeltaGreaterThan:
		return v > target
	case OpGTE, OpDeltaGTE:
		return v >= target
	case OpEQ:
		return math.Abs(v-target) < eqEpsilon
	}
	return false
}
