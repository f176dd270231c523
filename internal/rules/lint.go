package rules

import "fmt"

// Lint lists references and metrics that would surface as evaluation gaps
// at runtime. known reports whether a metric name is supported.
func Lint(rs *Ruleset, known func(metric string) bool) []string {
	var out []string
	checkCond := func(owner string, c Condition) {
		name, _, err := SplitMetric(c.Metric, EndOfGame)
		if err != nil {
			out = append(out, fmt.Sprintf("%s: %v", owner, err))
		} else if !known(name) {
			out = append(out, fmt.Sprintf("%s: unknown metric %q", owner, name))
		}
		out = append(out, lintOperand(owner, c.Value, rs.Thresholds, known)...)
	}

	for _, g := range rs.Guards {
		for _, c := range append(append([]Condition{}, g.Any...), g.All...) {
			checkCond("guard "+g.ID, c)
		}
	}
	for i := range rs.Rules {
		r := &rs.Rules[i]
		owner := "rule " + r.ID
		forEachCondition(r, func(c Condition) { checkCond(owner, c) })
		if r.BigGap != nil {
			if r.BigGap.Metric != "" {
				if name, _, _ := SplitMetric(r.BigGap.Metric, EndOfGame); !known(name) {
					out = append(out, fmt.Sprintf("%s: unknown bigGap metric %q", owner, name))
				}
			}
			out = append(out, lintOperand(owner, r.BigGap.Over, rs.Thresholds, known)...)
		}
	}
	return out
}

func lintOperand(owner string, op Operand, th *Thresholds, known func(string) bool) []string {
	switch op.Kind {
	case OperandRef:
		if _, ok := th.Lookup(op.Ref); !ok {
			return []string{fmt.Sprintf("%s: unknown reference %q", owner, op.Ref)}
		}
	case OperandCeilDiv:
		var out []string
		if !known(op.Metric) {
			out = append(out, fmt.Sprintf("%s: unknown metric %q in %s", owner, op.Metric, op))
		}
		if op.By != nil {
			out = append(out, lintOperand(owner, *op.By, th, known)...)
		}
		return out
	}
	return nil
}
