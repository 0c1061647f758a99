package aggregate

import (
	"cmp"
	"slices"

	"github.com/okian/meetscore/internal/domain/model"
)

// TeamPoints is one team's points at a step of the progression.
type TeamPoints struct {
	TeamID string `json:"team_id"`
	Points int    `json:"points"`
}

// Step is the team points after (cumulative) or within (delta) one event.
type Step struct {
	EventID   string       `json:"event_id"`
	EventName string       `json:"event_name"`
	Teams     []TeamPoints `json:"teams"`
}

var typeRank = map[model.EventType]int{model.Individual: 0, model.Relay: 1, model.Diving: 2}

// ProgramOrder returns m's events in the order they are swum: the custom
// EventOrder when given (unlisted events follow in default order), otherwise
// individual, relay, diving, each by name.
func ProgramOrder(m *model.Meet) []model.Event {
	byDefault := slices.Clone(m.Events)
	slices.SortStableFunc(byDefault, func(a, b model.Event) int {
		if c := cmp.Compare(typeRank[a.Type], typeRank[b.Type]); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	if len(m.EventOrder) == 0 {
		return byDefault
	}

	byID := make(map[string]model.Event, len(m.Events))
	for _, e := range m.Events {
		byID[e.ID] = e
	}
	used := make(map[string]bool, len(m.EventOrder))
	out := make([]model.Event, 0, len(m.Events))
	for _, id := range m.EventOrder {
		if e, ok := byID[id]; ok && !used[id] {
			used[id] = true
			out = append(out, e)
		}
	}
	for _, e := range byDefault {
		if !used[e.ID] {
			out = append(out, e)
		}
	}
	return out
}

// Progression replays events in program order and reports team points after
// each one: running totals when cumulative, per-event points otherwise.
func Progression(m *model.Meet, cumulative bool) []Step {
	ix := newIndex(m)
	order := teamOrder(m, ix)
	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}

	perEvent := make(map[string][]int)
	bucket := func(eventID string) []int {
		b, ok := perEvent[eventID]
		if !ok {
			b = make([]int, len(order))
			perEvent[eventID] = b
		}
		return b
	}
	for _, l := range m.Lineups {
		if ix.exhibition[l.AthleteID] {
			continue
		}
		if i, ok := pos[ix.team[l.AthleteID]]; ok {
			bucket(l.EventID)[i] += l.Points
		}
	}
	for _, r := range m.Relays {
		if !ix.relayCounts(r) {
			continue
		}
		if i, ok := pos[r.TeamID]; ok {
			bucket(r.EventID)[i] += r.Points
		}
	}

	running := make([]int, len(order))
	steps := make([]Step, 0, len(m.Events))
	for _, e := range ProgramOrder(m) {
		delta := perEvent[e.ID]
		step := Step{EventID: e.ID, EventName: e.Name, Teams: make([]TeamPoints, len(order))}
		for i, id := range order {
			d := 0
			if delta != nil {
				d = delta[i]
			}
			running[i] += d
			p := d
			if cumulative {
				p = running[i]
			}
			step.Teams[i] = TeamPoints{TeamID: id, Points: p}
		}
		steps = append(steps, step)
	}
	return steps
}
