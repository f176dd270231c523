// Package apperr defines the error taxonomy shared by the analysis pipeline.
//
// Each sentinel is attached to concrete errors with errors.Mark, so callers
// classify failures with errors.Is while the original cause and its message
// stay intact.
package apperr

import (
	"github.com/cockroachdb/errors"
)

var (
	// ErrInputNotFound: the requested match, player or hero is absent. Terminal.
	ErrInputNotFound = errors.New("input not found")
	// ErrUpstreamFetchFailed: a provider request failed at the network or HTTP level.
	ErrUpstreamFetchFailed = errors.New("upstream fetch failed")
	// ErrBenchmarkUnavailable: no usable benchmark data. Recoverable.
	ErrBenchmarkUnavailable = errors.New("benchmark unavailable")
	// ErrConfigParse: a ruleset, threshold or config document is malformed. Load-time only.
	ErrConfigParse = errors.New("config parse error")
	// ErrRuleEvaluationGap: a rule names an unknown metric or an unresolvable reference.
	ErrRuleEvaluationGap = errors.New("rule evaluation gap")
)

// NotFoundf returns a new error marked as ErrInputNotFound.
func NotFoundf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrInputNotFound)
}

// Upstream wraps err with a message and marks it as ErrUpstreamFetchFailed.
// A nil err yields a fresh error carrying only the message.
func Upstream(err error, format string, args ...any) error {
	if err == nil {
		return errors.Mark(errors.Newf(format, args...), ErrUpstreamFetchFailed)
	}
	return errors.Mark(errors.Wrapf(err, format, args...), ErrUpstreamFetchFailed)
}

// BenchmarkUnavailable wraps err and marks it as ErrBenchmarkUnavailable.
// Marks already present on err, such as ErrUpstreamFetchFailed, are kept.
func BenchmarkUnavailable(err error, format string, args ...any) error {
	if err == nil {
		return errors.Mark(errors.Newf(format, args...), ErrBenchmarkUnavailable)
	}
	return errors.Mark(errors.Wrapf(err, format, args...), ErrBenchmarkUnavailable)
}

// ConfigParse wraps err and marks it as ErrConfigParse.
func ConfigParse(err error, format string, args ...any) error {
	if err == nil {
		return errors.Mark(errors.Newf(format, args...), ErrConfigParse)
	}
	return errors.Mark(errors.Wrapf(err, format, args...), ErrConfigParse)
}

// Gapf returns a new error marked as ErrRuleEvaluationGap.
func Gapf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrRuleEvaluationGap)
}

// Is reports whether err carries the given sentinel.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Terminal reports whether err should abort an analysis rather than degrade it.
func Terminal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrBenchmarkUnavailable) && !errors.Is(err, ErrRuleEvaluationGap)
}
