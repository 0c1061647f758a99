// Package engine runs a whole-meet scoring pass: it generates the scoring
// table, composes relay seed times, resolves every event and aggregates team
// scores. Every pass recomputes the full meet from the snapshot; nothing is
// patched incrementally.
package engine

import (
	"github.com/okian/meetscore/internal/domain/aggregate"
	"github.com/okian/meetscore/internal/domain/model"
	"github.com/okian/meetscore/internal/domain/placement"
	"github.com/okian/meetscore/internal/domain/relay"
	"github.com/okian/meetscore/internal/domain/scoring"
	"github.com/okian/meetscore/internal/domain/timecodec"
)

// Result is the outcome of one scoring pass. Meet is a scored copy of the
// input; Compositions is parallel to Meet.Relays.
type Result struct {
	Meet         model.Meet                 `json:"meet"`
	Table        scoring.Table              `json:"table"`
	Compositions []relay.Composition        `json:"compositions"`
	Teams        []model.MeetTeam           `json:"teams"`
	Standings    []model.MeetTeam           `json:"standings"`
	Advisories   []*relay.LegUnresolvedError `json:"-"`
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithScoringOptions passes options to the scoring table generator.
func WithScoringOptions(opts ...scoring.Option) Option {
	return func(e *Engine) {
		e.scoringOpts = append(e.scoringOpts, opts...)
	}
}

// Engine scores meets. It holds no state between passes.
type Engine struct {
	scoringOpts []scoring.Option
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Score is shorthand for New(opts...).Score.
func Score(m *model.Meet, opts ...Option) (Result, error) {
	return New(opts...).Score(m)
}

// Score scores m. Either every place and point is produced or an error is
// returned and nothing is.
func (e *Engine) Score(m *model.Meet) (Result, error) {
	cfg := m.Config
	table, err := scoring.Generate(cfg.ScoringPlaces, cfg.ScoringStartPoints, cfg.RelayMultiplier, e.scoringOpts...)
	if err != nil {
		return Result{}, err
	}

	out := m.Clone()
	res := Result{Table: table, Compositions: make([]relay.Composition, len(out.Relays))}

	events := make(map[string]model.Event, len(out.Events))
	for _, ev := range out.Events {
		events[ev.ID] = ev
	}

	composer := relay.NewComposer(out.Athletes, relay.WithCorrectionFactor(cfg.CorrectionFactor))
	for i := range out.Relays {
		r := &out.Relays[i]
		legs, ok := relay.LegsFor(events[r.EventID].Name)
		if !ok {
			continue
		}
		comp := composer.Compose(*r, legs)
		res.Compositions[i] = comp
		res.Advisories = append(res.Advisories, comp.Unresolved...)
		if comp.Total != nil {
			r.SeedSeconds = model.Float(*comp.Total)
			r.SeedTime = timecodec.FormatSeconds(*comp.Total, false)
		}
	}

	resolveAll(&out, events, table)

	res.Meet = out
	res.Teams = aggregate.TeamScores(&out)
	res.Standings = aggregate.Standings(res.Teams)
	return res, nil
}

// resolveAll places every lineup and relay of m in its event.
func resolveAll(m *model.Meet, events map[string]model.Event, table scoring.Table) {
	exhibition := m.Exhibition()
	lineupsByEvent := make(map[string][]int)
	for i := range m.Lineups {
		l := &m.Lineups[i]
		clearComputed(&l.Place, &l.Points, l.Official)
		if _, ok := events[l.EventID]; !ok || exhibition[l.AthleteID] {
			l.Points = 0
			continue
		}
		lineupsByEvent[l.EventID] = append(lineupsByEvent[l.EventID], i)
	}
	relaysByEvent := make(map[string][]int)
	for i := range m.Relays {
		r := &m.Relays[i]
		clearComputed(&r.Place, &r.Points, r.Official)
		if ev, ok := events[r.EventID]; !ok || ev.Type != model.Relay || hasExhibition(r, exhibition) {
			r.Points = 0
			continue
		}
		relaysByEvent[r.EventID] = append(relaysByEvent[r.EventID], i)
	}

	for _, ev := range m.Events {
		if ev.Type == model.Relay {
			idx := relaysByEvent[ev.ID]
			entries := make([]placement.Entry, len(idx))
			for j, i := range idx {
				r := m.Relays[i]
				entries[j] = entry(r.ID, r.FinalSeconds, r.SeedSeconds, r.Place, r.Official)
			}
			for j, pr := range placement.Resolve(entries, ev.Type, table) {
				apply(&m.Relays[idx[j]].Place, &m.Relays[idx[j]].Points, pr)
			}
			continue
		}

		idx := lineupsByEvent[ev.ID]
		if ev.Type == model.Diving && !m.Config.DivingIncluded {
			for _, i := range idx {
				m.Lineups[i].Points = 0
			}
			continue
		}
		entries := make([]placement.Entry, len(idx))
		for j, i := range idx {
			l := m.Lineups[i]
			entries[j] = entry(l.ID, l.FinalSeconds, l.SeedSeconds, l.Place, l.Official)
		}
		for j, pr := range placement.Resolve(entries, ev.Type, table) {
			apply(&m.Lineups[idx[j]].Place, &m.Lineups[idx[j]].Points, pr)
		}
	}
}

// entry ranks on the final value when known, else the seed. Only official
// places are authoritative.
func entry(id string, final, seed *float64, place *int, official bool) placement.Entry {
	e := placement.Entry{ID: id, Seed: seed}
	if final != nil {
		e.Seed = final
	}
	if official && place != nil {
		e.Place = place
	}
	return e
}

func clearComputed(place **int, points *int, official bool) {
	if !official {
		*place = nil
	}
	*points = 0
}

func apply(place **int, points *int, r placement.Result) {
	if r.Place == placement.Unplaced {
		*place = nil
		*points = 0
		return
	}
	*place = model.Int(r.Place)
	*points = r.Points
}

func hasExhibition(r *model.RelayEntry, exhibition map[string]bool) bool {
	for _, id := range r.Members {
		if exhibition[id] {
			return true
		}
	}
	return false
}
