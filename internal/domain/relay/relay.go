// Package relay derives relay leg times from athletes' individual and split
// times and composes them into relay totals.
package relay

import (
	"math"

	"github.com/okian/meetscore/internal/domain/model"
	"github.com/okian/meetscore/internal/domain/timecodec"
)

// Leg is the stroke and distance swum on one relay leg.
type Leg struct {
	Stroke   model.Stroke `json:"stroke"`
	Distance int          `json:"distance"`
}

// Source records where a leg time came from.
type Source string

// Leg time sources.
const (
	SourceCustom    Source = "custom"
	SourceFlat      Source = "flat"
	SourceSplit     Source = "split"
	SourceCorrected Source = "corrected"
)

var medleyOrder = [model.RelayLegs]model.Stroke{model.Back, model.Breast, model.Fly, model.Free}

// LegsFor derives the four legs of a relay event from its name: a free
// relay is four equal free legs, a medley relay is back, breast, fly, free.
func LegsFor(eventName string) ([model.RelayLegs]Leg, bool) {
	var legs [model.RelayLegs]Leg
	n, ok := timecodec.ParseEventName(eventName)
	if !ok || !n.Relay || n.Distance <= 0 || n.Distance%model.RelayLegs != 0 {
		return legs, false
	}
	d := n.Distance / model.RelayLegs
	for i := range legs {
		switch n.Stroke {
		case model.Medley:
			legs[i] = Leg{Stroke: medleyOrder[i], Distance: d}
		default:
			legs[i] = Leg{Stroke: n.Stroke, Distance: d}
		}
	}
	return legs, true
}

// LegRequest asks for the effective time of one leg.
type LegRequest struct {
	AthleteID string
	LegIndex  int
	Leg       Leg
	UseSplit  bool
	Custom    *float64
}

// LegTime is a resolved leg time and its source.
type LegTime struct {
	Seconds float64 `json:"seconds"`
	Source  Source  `json:"source"`
}

// Option applies a configuration option to the Composer.
type Option func(*Composer)

// WithCorrectionFactor sets the seconds subtracted from flat-start times on
// legs after the first.
func WithCorrectionFactor(seconds float64) Option {
	return func(c *Composer) {
		if seconds >= 0 {
			c.correction = seconds
		}
	}
}

// Composer resolves leg times against a fixed set of athletes.
type Composer struct {
	athletes   map[string]model.Athlete
	correction float64
}

// NewComposer indexes athletes for leg lookups.
func NewComposer(athletes []model.Athlete, opts ...Option) *Composer {
	c := &Composer{athletes: make(map[string]model.Athlete, len(athletes))}
	for _, a := range athletes {
		c.athletes[a.ID] = a
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LegTime resolves the effective time of one leg.
//
// A custom time always wins, floored at zero. Leg 0 uses the flat-start time. Later legs use
// the relay split when requested and on file, otherwise the flat-start time
// minus the correction factor, floored at zero.
func (c *Composer) LegTime(req LegRequest) (LegTime, error) {
	if req.Custom != nil {
		return LegTime{Seconds: timecodec.Round2(math.Max(0, *req.Custom)), Source: SourceCustom}, nil
	}
	if req.AthleteID == "" {
		return LegTime{}, c.unresolved(req, "no athlete assigned")
	}
	a, ok := c.athletes[req.AthleteID]
	if !ok {
		return LegTime{}, c.unresolved(req, "unknown athlete")
	}
	if req.LegIndex > 0 && req.UseSplit {
		if s, ok := bestTime(a, req.Leg, true); ok {
			return LegTime{Seconds: s, Source: SourceSplit}, nil
		}
	}
	flat, ok := bestTime(a, req.Leg, false)
	if !ok {
		return LegTime{}, c.unresolved(req, "no flat-start time on file")
	}
	if req.LegIndex == 0 {
		return LegTime{Seconds: flat, Source: SourceFlat}, nil
	}
	return LegTime{Seconds: timecodec.Round2(math.Max(0, flat-c.correction)), Source: SourceCorrected}, nil
}

func (c *Composer) unresolved(req LegRequest, reason string) error {
	return &LegUnresolvedError{AthleteID: req.AthleteID, LegIndex: req.LegIndex, Leg: req.Leg, Reason: reason}
}

// bestTime returns the athlete's fastest recorded time for the leg's
// individual event, restricted to splits or flat starts.
func bestTime(a model.Athlete, leg Leg, split bool) (float64, bool) {
	key := timecodec.Key(leg.Distance, leg.Stroke, false)
	best, found := 0.0, false
	for _, et := range a.Times {
		if et.IsRelaySplit != split || timecodec.NormalizeEventName(et.Event) != key {
			continue
		}
		s, ok := seconds(et)
		if !ok {
			continue
		}
		if !found || s < best {
			best, found = s, true
		}
	}
	return best, found
}

func seconds(et model.EventTime) (float64, bool) {
	if et.Seconds > 0 {
		return et.Seconds, true
	}
	if et.Time == "" {
		return 0, false
	}
	s, err := timecodec.ParseSeconds(et.Time)
	if err != nil {
		return 0, false
	}
	return s, true
}

// Composition is a relay's resolved legs and total. Total is nil unless all
// four legs resolved.
type Composition struct {
	Legs       [model.RelayLegs]*float64 `json:"legs"`
	Sources    [model.RelayLegs]Source   `json:"sources"`
	Total      *float64                  `json:"total,omitempty"`
	Unresolved []*LegUnresolvedError     `json:"-"`
}

// Compose resolves every leg of entry. Custom leg times on the entry
// override the fallback chain.
func (c *Composer) Compose(entry model.RelayEntry, legs [model.RelayLegs]Leg) Composition {
	var (
		out   Composition
		total float64
	)
	for i := range legs {
		lt, err := c.LegTime(LegRequest{
			AthleteID: entry.Members[i],
			LegIndex:  i,
			Leg:       legs[i],
			UseSplit:  entry.UseRelaySplits[i],
			Custom:    entry.Times[i],
		})
		if err != nil {
			out.Unresolved = append(out.Unresolved, err.(*LegUnresolvedError)) //nolint:errorlint // LegTime only returns this type
			continue
		}
		out.Legs[i] = model.Float(lt.Seconds)
		out.Sources[i] = lt.Source
		total += lt.Seconds
	}
	if len(out.Unresolved) == 0 {
		out.Total = model.Float(timecodec.Round2(total))
	}
	return out
}
