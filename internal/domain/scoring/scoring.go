// Package scoring generates place-to-points tables for individual and relay
// events.
//
// A table is defined by three parameters: the number of scoring places (16
// or 24), the points for first place, and the relay multiplier. The shape of
// the decay between first and last scoring place is a pluggable Curve.
package scoring

import (
	"math"
	"slices"

	"github.com/okian/meetscore/internal/domain/model"
)

// Supported numbers of scoring places.
const (
	Places16 = 16
	Places24 = 24
)

// Published championship tables used by the default curve.
var (
	published16 = []int{20, 17, 16, 15, 14, 13, 12, 11, 9, 7, 6, 5, 4, 3, 2, 1}
	published24 = []int{32, 28, 27, 26, 25, 24, 23, 22, 20, 17, 16, 15, 14, 13, 12, 11, 9, 7, 6, 5, 4, 3, 2, 1}
)

// Curve yields the individual points for place (1-based) in a table of
// places scoring places whose first place is worth startPoints.
type Curve interface {
	Points(place, places, startPoints int) int
}

// CurveFunc adapts a function to Curve.
type CurveFunc func(place, places, startPoints int) int

// Points implements Curve.
func (f CurveFunc) Points(place, places, startPoints int) int { return f(place, places, startPoints) }

// PublishedCurve scales the published 16/24-place championship tables so that
// first place is worth startPoints.
var PublishedCurve Curve = CurveFunc(func(place, places, startPoints int) int {
	ref := published16
	if places == Places24 {
		ref = published24
	}
	if place < 1 || place > len(ref) {
		return 0
	}
	return int(math.Round(float64(ref[place-1]) * float64(startPoints) / float64(ref[0])))
})

// Table is a generated place-to-points lookup. Index p-1 holds place p.
type Table struct {
	Places     int   `json:"places"`
	Individual []int `json:"individual"`
	Relay      []int `json:"relay"`
}

// IndividualPoints returns the points for place in individual and diving events.
func (t Table) IndividualPoints(place int) int { return lookup(t.Individual, place) }

// RelayPoints returns the points for place in relay events.
func (t Table) RelayPoints(place int) int { return lookup(t.Relay, place) }

// Points returns the points for place in an event of the given type. Places
// beyond the table, and place 0 (unplaced), score nothing.
func (t Table) Points(eventType model.EventType, place int) int {
	if eventType == model.Relay {
		return t.RelayPoints(place)
	}
	return t.IndividualPoints(place)
}

func lookup(values []int, place int) int {
	if place < 1 || place > len(values) {
		return 0
	}
	return values[place-1]
}

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithCurve replaces the decay curve.
func WithCurve(c Curve) Option {
	return func(g *Generator) {
		if c != nil {
			g.curve = c
		}
	}
}

// WithCustomTable uses explicit individual values instead of a curve. The
// table must have exactly places entries, start at startPoints and never
// increase.
func WithCustomTable(values []int) Option {
	return func(g *Generator) {
		g.custom = slices.Clone(values)
	}
}

// Generator builds scoring tables.
type Generator struct {
	curve  Curve
	custom []int
}

// NewGenerator creates a generator using PublishedCurve unless overridden.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{curve: PublishedCurve}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate is shorthand for NewGenerator(opts...).Generate.
func Generate(places, startPoints int, relayMultiplier float64, opts ...Option) (Table, error) {
	return NewGenerator(opts...).Generate(places, startPoints, relayMultiplier)
}

// Generate builds the individual and relay tables.
func (g *Generator) Generate(places, startPoints int, relayMultiplier float64) (Table, error) {
	if places != Places16 && places != Places24 {
		return Table{}, &ConfigurationError{Field: "scoring_places", Reason: "must be 16 or 24"}
	}
	if startPoints < 1 {
		return Table{}, &ConfigurationError{Field: "scoring_start_points", Reason: "must be at least 1"}
	}
	if math.IsNaN(relayMultiplier) || math.IsInf(relayMultiplier, 0) || relayMultiplier < 1 {
		return Table{}, &ConfigurationError{Field: "relay_multiplier", Reason: "must be at least 1"}
	}

	individual := make([]int, places)
	if g.custom != nil {
		if len(g.custom) != places {
			return Table{}, &ConfigurationError{Field: "custom_table", Reason: "length must equal scoring places"}
		}
		copy(individual, g.custom)
	} else {
		for p := 1; p <= places; p++ {
			individual[p-1] = g.curve.Points(p, places, startPoints)
		}
	}
	if err := validate(individual, startPoints); err != nil {
		return Table{}, err
	}

	relay := make([]int, places)
	for i, v := range individual {
		pts := math.Round(float64(v) * relayMultiplier)
		if pts > math.MaxInt32 {
			return Table{}, &ConfigurationError{Field: "relay_multiplier", Reason: "relay points overflow"}
		}
		relay[i] = int(pts)
	}
	return Table{Places: places, Individual: individual, Relay: relay}, nil
}

func validate(individual []int, startPoints int) error {
	if individual[0] != startPoints {
		return &ConfigurationError{Field: "individual", Reason: "first place must equal start points"}
	}
	for i := 1; i < len(individual); i++ {
		if individual[i] < 0 {
			return &ConfigurationError{Field: "individual", Reason: "points must not be negative"}
		}
		if individual[i] > individual[i-1] {
			return &ConfigurationError{Field: "individual", Reason: "points must not increase with place"}
		}
	}
	return nil
}
