package rules

import (
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/pable/dota-coach/internal/apperr"
)

// OperandKind tags an Operand.
type OperandKind int

const (
	OperandNone OperandKind = iota
	OperandLiteral
	OperandRef
	// OperandCeilDiv is ceil(metric / by), where by is itself a literal or ref.
	OperandCeilDiv
)

// Operand is the right-hand side of a condition. In YAML it is a number,
// {$ref: path} or {$ceilDiv: {metric: name, by: operand}}.
type Operand struct {
	Kind    OperandKind
	Literal float64
	Ref     string
	Metric  string
	By      *Operand
}

// Lit builds a literal operand.
func Lit(v float64) Operand { return Operand{Kind: OperandLiteral, Literal: v} }

// RefTo builds a reference operand.
func RefTo(path string) Operand { return Operand{Kind: OperandRef, Ref: path} }

func (o Operand) String() string {
	switch o.Kind {
	case OperandLiteral:
		return strconv.FormatFloat(o.Literal, 'g', -1, 64)
	case OperandRef:
		return "$" + o.Ref
	case OperandCeilDiv:
		if o.By != nil {
			return fmt.Sprintf("ceil(%s/%s)", o.Metric, o.By)
		}
		return fmt.Sprintf("ceil(%s/?)", o.Metric)
	}
	return "<none>"
}

// UnmarshalYAML decodes the three operand shapes.
func (o *Operand) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		v, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return fmt.Errorf("line %d: operand %q is not a number", n.Line, n.Value)
		}
		*o = Lit(v)
		return nil
	case yaml.MappingNode:
		var raw struct {
			Ref     string `yaml:"$ref"`
			CeilDiv *struct {
				Metric string  `yaml:"metric"`
				By     Operand `yaml:"by"`
			} `yaml:"$ceilDiv"`
		}
		if err := n.Decode(&raw); err != nil {
			return err
		}
		switch {
		case raw.Ref != "" && raw.CeilDiv == nil:
			*o = RefTo(raw.Ref)
		case raw.CeilDiv != nil && raw.Ref == "":
			if raw.CeilDiv.Metric == "" || raw.CeilDiv.By.Kind == OperandNone {
				return fmt.Errorf("line %d: $ceilDiv needs metric and by", n.Line)
			}
			by := raw.CeilDiv.By
			*o = Operand{Kind: OperandCeilDiv, Metric: raw.CeilDiv.Metric, By: &by}
		default:
			return fmt.Errorf("line %d: operand must have exactly one of $ref or $ceilDiv", n.Line)
		}
		return nil
	}
	return fmt.Errorf("line %d: unsupported operand", n.Line)
}

// Resolve returns the numeric value of a literal or reference operand. An
// unknown reference is a rule evaluation gap.
func Resolve(op Operand, th *Thresholds) (float64, error) {
	switch op.Kind {
	case OperandLiteral:
		return op.Literal, nil
	case OperandRef:
		if v, ok := th.Lookup(op.Ref); ok {
			return v, nil
		}
		return 0, apperr.Gapf("unknown reference %q", op.Ref)
	case OperandCeilDiv:
		return 0, apperr.Gapf("%s needs player facts", op)
	}
	return 0, apperr.Gapf("missing operand")
}

// resolveWith also handles operands that depend on the player's facts.
// ok is false when the facts lack a value; that is not an error.
func resolveWith(op Operand, th *Thresholds, facts Facts, minute int) (v float64, ok bool, err error) {
	if op.Kind != OperandCeilDiv {
		v, err = Resolve(op, th)
		return v, err == nil, err
	}
	if !facts.Known(op.Metric) {
		return 0, false, apperr.Gapf("unknown metric %q", op.Metric)
	}
	num, ok := facts.Player(op.Metric, minute)
	if !ok {
		return 0, false, nil
	}
	by, err := Resolve(*op.By, th)
	if err != nil {
		return 0, false, err
	}
	if by == 0 {
		return 0, false, apperr.Gapf("%s divides by zero", op)
	}
	return math.Ceil(num / by), true, nil
}
