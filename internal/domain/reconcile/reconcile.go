// Package reconcile matches rows from published meet results onto the
// entries of a meet so their places and final times can be recorded as
// official.
package reconcile

import (
	"strings"
	"unicode"

	"github.com/okian/meetscore/internal/domain/model"
	"github.com/okian/meetscore/internal/domain/timecodec"
)

// Row is one line of published results.
type Row struct {
	EventName string `json:"event_name"`
	Name      string `json:"name,omitempty"`
	TeamName  string `json:"team_name,omitempty"`
	Place     *int   `json:"place,omitempty"`
	Time      string `json:"time,omitempty"`
}

// Outcome is either Resolved or Unresolved.
type Outcome interface {
	Source() Row
	outcome()
}

// Resolved is a row matched to exactly one entry. Exactly one of LineupID
// and RelayID is set.
type Resolved struct {
	Row       Row      `json:"row"`
	EventID   string   `json:"event_id"`
	LineupID  string   `json:"lineup_id,omitempty"`
	RelayID   string   `json:"relay_id,omitempty"`
	AthleteID string   `json:"athlete_id,omitempty"`
	Seconds   *float64 `json:"seconds,omitempty"`
}

// Unresolved is a row that matched nothing or more than one entry.
// Candidates holds the competing entry or event IDs when there are any.
type Unresolved struct {
	Row        Row      `json:"row"`
	Reason     Reason   `json:"reason"`
	Candidates []string `json:"candidates,omitempty"`
}

// Source returns the matched row.
func (r Resolved) Source() Row { return r.Row }

// Source returns the unmatched row.
func (r Unresolved) Source() Row { return r.Row }

func (Resolved) outcome() {}

func (Unresolved) outcome() {}

type matcher struct {
	m        *model.Meet
	events   map[string][]model.Event
	athletes map[string]model.Athlete
	teams    map[string]string
}

func newMatcher(m *model.Meet) *matcher {
	mt := &matcher{
		m:        m,
		events:   make(map[string][]model.Event),
		athletes: make(map[string]model.Athlete, len(m.Athletes)),
		teams:    make(map[string]string, len(m.Teams)),
	}
	for _, e := range m.Events {
		k := timecodec.NormalizeEventName(e.Name)
		mt.events[k] = append(mt.events[k], e)
	}
	for _, a := range m.Athletes {
		mt.athletes[a.ID] = a
	}
	for _, t := range m.Teams {
		mt.teams[t.ID] = t.Name
	}
	return mt
}

// Reconcile matches every row against m. Outcomes are parallel to rows.
// Rows are independent: one unmatched row never affects another.
func Reconcile(m *model.Meet, rows []Row) []Outcome {
	mt := newMatcher(m)
	out := make([]Outcome, 0, len(rows))
	for _, row := range rows {
		out = append(out, mt.match(row))
	}
	return out
}

func (mt *matcher) match(row Row) Outcome {
	evs := mt.events[timecodec.NormalizeEventName(row.EventName)]
	switch len(evs) {
	case 0:
		return Unresolved{Row: row, Reason: ReasonUnknownEvent}
	case 1:
	default:
		ids := make([]string, 0, len(evs))
		for _, e := range evs {
			ids = append(ids, e.ID)
		}
		return Unresolved{Row: row, Reason: ReasonAmbiguous, Candidates: ids}
	}
	ev := evs[0]

	var secs *float64
	if strings.TrimSpace(row.Time) != "" {
		v, err := timecodec.Parse(row.Time, ev.Type.ScoreLike())
		if err != nil {
			return Unresolved{Row: row, Reason: ReasonBadTime}
		}
		secs = &v
	}

	if ev.Type == model.Relay {
		return mt.matchRelay(row, ev, secs)
	}
	return mt.matchLineup(row, ev, secs)
}

func (mt *matcher) matchLineup(row Row, ev model.Event, secs *float64) Outcome {
	want := normalizeName(row.Name)
	var hits []model.Lineup
	for _, l := range mt.m.Lineups {
		if l.EventID != ev.ID {
			continue
		}
		a, ok := mt.athletes[l.AthleteID]
		if !ok || normalizeName(a.FullName()) != want {
			continue
		}
		if row.TeamName != "" && !mt.sameTeam(a.TeamID, row.TeamName) {
			continue
		}
		hits = append(hits, l)
	}
	switch len(hits) {
	case 0:
		return Unresolved{Row: row, Reason: ReasonNoMatch}
	case 1:
		return Resolved{Row: row, EventID: ev.ID, LineupID: hits[0].ID, AthleteID: hits[0].AthleteID, Seconds: secs}
	}
	ids := make([]string, 0, len(hits))
	for _, l := range hits {
		ids = append(ids, l.ID)
	}
	return Unresolved{Row: row, Reason: ReasonAmbiguous, Candidates: ids}
}

func (mt *matcher) matchRelay(row Row, ev model.Event, secs *float64) Outcome {
	team := row.TeamName
	if team == "" {
		team = row.Name
	}
	var hits []model.RelayEntry
	for _, r := range mt.m.Relays {
		if r.EventID == ev.ID && mt.sameTeam(r.TeamID, team) {
			hits = append(hits, r)
		}
	}
	switch len(hits) {
	case 0:
		return Unresolved{Row: row, Reason: ReasonNoMatch}
	case 1:
		return Resolved{Row: row, EventID: ev.ID, RelayID: hits[0].ID, Seconds: secs}
	}
	ids := make([]string, 0, len(hits))
	for _, r := range hits {
		ids = append(ids, r.ID)
	}
	return Unresolved{Row: row, Reason: ReasonAmbiguous, Candidates: ids}
}

func (mt *matcher) sameTeam(teamID, name string) bool {
	n := normalizeName(name)
	return n != "" && (n == normalizeName(teamID) || n == normalizeName(mt.teams[teamID]))
}

// normalizeName folds "Last, First" and "First Last" to the same
// lower-case, punctuation-free form.
func normalizeName(s string) string {
	if last, first, ok := strings.Cut(s, ","); ok {
		s = first + " " + last
	}
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return unicode.ToLower(r)
		case r == '\'' || r == '.':
			return -1
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// Apply returns a copy of m with every resolved row written onto its entry:
// the final time when present, and the place as an official result when
// present. Unresolved outcomes are ignored.
func Apply(m *model.Meet, outcomes []Outcome) model.Meet {
	out := m.Clone()
	lineups := make(map[string]int, len(out.Lineups))
	for i, l := range out.Lineups {
		lineups[l.ID] = i
	}
	relays := make(map[string]int, len(out.Relays))
	for i, r := range out.Relays {
		relays[r.ID] = i
	}
	events := make(map[string]model.Event, len(out.Events))
	for _, e := range out.Events {
		events[e.ID] = e
	}

	for _, o := range outcomes {
		r, ok := o.(Resolved)
		if !ok {
			continue
		}
		scoreLike := events[r.EventID].Type.ScoreLike()
		var final string
		if r.Seconds != nil {
			final = timecodec.FormatSeconds(*r.Seconds, scoreLike)
		}
		switch {
		case r.LineupID != "":
			i, ok := lineups[r.LineupID]
			if !ok {
				continue
			}
			l := &out.Lineups[i]
			if r.Seconds != nil {
				l.FinalSeconds = model.Float(*r.Seconds)
				l.FinalTime = final
			}
			if r.Row.Place != nil && *r.Row.Place > 0 {
				l.Place = model.Int(*r.Row.Place)
				l.Official = true
			}
		case r.RelayID != "":
			i, ok := relays[r.RelayID]
			if !ok {
				continue
			}
			e := &out.Relays[i]
			if r.Seconds != nil {
				e.FinalSeconds = model.Float(*r.Seconds)
				e.FinalTime = final
			}
			if r.Row.Place != nil && *r.Row.Place > 0 {
				e.Place = model.Int(*r.Row.Place)
				e.Official = true
			}
		}
	}
	return out
}

// Count returns how many outcomes are resolved and unresolved.
func Count(outcomes []Outcome) (resolved, unresolved int) {
	for _, o := range outcomes {
		if _, ok := o.(Resolved); ok {
			resolved++
		} else {
			unresolved++
		}
	}
	return resolved, unresolved
}
