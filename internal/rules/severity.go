package rules

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Bucket is a named severity level.
type Bucket int

const (
	Low Bucket = iota
	Medium
	High
	Critical
)

var bucketNames = [...]string{"LOW", "MEDIUM", "HIGH", "CRITICAL"}
var bucketWeights = [...]float64{0.30, 0.55, 0.80, 1.00}

func (b Bucket) String() string { return bucketNames[b] }

// Weight is the ranking weight of the bucket.
func (b Bucket) Weight() float64 { return bucketWeights[b] }

// Dampen lowers the bucket by one; LOW stays LOW.
func (b Bucket) Dampen() Bucket {
	if b == Low {
		return Low
	}
	return b - 1
}

// ParseBucket parses a bucket name in any case.
func ParseBucket(s string) (Bucket, error) {
	for i, n := range bucketNames {
		if strings.EqualFold(n, strings.TrimSpace(s)) {
			return Bucket(i), nil
		}
	}
	return Low, fmt.Errorf("unknown severity %q", s)
}

// BucketFor maps a numeric severity in [0,1] to a bucket.
func BucketFor(v float64) Bucket {
	switch {
	case v <= 0.3:
		return Low
	case v <= 0.55:
		return Medium
	case v <= 0.8:
		return High
	default:
		return Critical
	}
}

// Severity is either numeric (0..1) or a bucket name in the document. It is
// normalized to a bucket at load time.
type Severity struct {
	Bucket Bucket
	set    bool
}

// IsSet reports whether the document specified a severity.
func (s Severity) IsSet() bool { return s.set }

func (s *Severity) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: severity must be a number or LOW/MEDIUM/HIGH/CRITICAL", n.Line)
	}
	if v, err := strconv.ParseFloat(n.Value, 64); err == nil {
		if v < 0 || v > 1 {
			return fmt.Errorf("line %d: numeric severity %v outside [0,1]", n.Line, v)
		}
		*s = Severity{Bucket: BucketFor(v), set: true}
		return nil
	}
	b, err := ParseBucket(n.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*s = Severity{Bucket: b, set: true}
	return nil
}
