package benchmark

import (
	"fmt"
	"strings"

	"github.com/pable/dota-coach/internal/apperr"
)

// Grouping is a skill-tier bucket, named after the provider's bracket enum.
type Grouping string

const (
	Uncalibrated   Grouping = "UNCALIBRATED"
	HeraldGuardian Grouping = "HERALD_GUARDIAN"
	CrusaderArchon Grouping = "CRUSADER_ARCHON"
	LegendAncient  Grouping = "LEGEND_ANCIENT"
	DivineImmortal Grouping = "DIVINE_IMMORTAL"
)

// Groupings lists all groupings in rank order.
var Groupings = []Grouping{Uncalibrated, HeraldGuardian, CrusaderArchon, LegendAncient, DivineImmortal}

// ParseGrouping accepts a grouping name in any case.
func ParseGrouping(s string) (Grouping, error) {
	g := Grouping(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Groupings {
		if g == known {
			return g, nil
		}
	}
	return "", apperr.NotFoundf("unknown bracket grouping %q", s)
}

// GroupingForBracket maps a rank bracket (0 uncalibrated, 1 Herald .. 8
// Immortal) or an OpenDota rank tier (tens digit is the bracket) to a grouping.
func GroupingForBracket(bracket int) Grouping {
	if bracket >= 10 {
		bracket /= 10
	}
	switch {
	case bracket <= 0:
		return Uncalibrated
	case bracket <= 2:
		return HeraldGuardian
	case bracket <= 4:
		return CrusaderArchon
	case bracket <= 6:
		return LegendAncient
	default:
		return DivineImmortal
	}
}

// Key identifies one cached benchmark sequence.
type Key struct {
	HeroID   int
	Position string
	Grouping Grouping
}

// String renders the key as heroId-position-grouping.
func (k Key) String() string {
	return fmt.Sprintf("%d-%s-%s", k.HeroID, k.Position, k.Grouping)
}

func (k Key) flightKey() string {
	return fmt.Sprintf("%d-%s", k.HeroID, k.Position)
}
