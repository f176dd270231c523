package rules

import "fmt"

// mapFacts is a Facts backed by maps keyed "metric" (end of game) or
// "metric@minute".
type mapFacts struct {
	known  map[string]bool
	player map[string]float64
	bench  map[string]float64
}

func newFacts() *mapFacts {
	return &mapFacts{known: map[string]bool{}, player: map[string]float64{}, bench: map[string]float64{}}
}

func key(metric string, minute int) string {
	if minute < 0 {
		return metric
	}
	return fmt.Sprintf("%s@%d", metric, minute)
}

func (f *mapFacts) with(metric string, v float64) *mapFacts {
	f.known[metric] = true
	f.player[metric] = v
	return f
}

func (f *mapFacts) at(metric string, minute int, player, bench float64) *mapFacts {
	f.known[metric] = true
	f.player[key(metric, minute)] = player
	f.bench[key(metric, minute)] = bench
	return f
}

func (f *mapFacts) declare(metrics ...string) *mapFacts {
	for _, m := range metrics {
		f.known[m] = true
	}
	return f
}

func (f *mapFacts) Known(metric string) bool { return f.known[metric] }

func (f *mapFacts) Player(metric string, minute int) (float64, bool) {
	v, ok := f.player[key(metric, minute)]
	return v, ok
}

func (f *mapFacts) Benchmark(metric string, minute int) (float64, bool) {
	v, ok := f.bench[key(metric, minute)]
	return v, ok
}
