// Package aggregate sums entry points into team scores, standings and score
// progression over the meet program.
package aggregate

import (
	"slices"

	"github.com/okian/meetscore/internal/domain/model"
)

// index resolves what aggregation needs about a meet.
type index struct {
	eventType  map[string]model.EventType
	team       map[string]string
	exhibition map[string]bool
}

func newIndex(m *model.Meet) index {
	ix := index{
		eventType:  make(map[string]model.EventType, len(m.Events)),
		team:       make(map[string]string, len(m.Athletes)),
		exhibition: m.Exhibition(),
	}
	for _, e := range m.Events {
		ix.eventType[e.ID] = e.Type
	}
	for _, a := range m.Athletes {
		ix.team[a.ID] = a.TeamID
	}
	return ix
}

// relayCounts reports whether a relay scores for its team. A relay with an
// exhibition swimmer is itself exhibition.
func (ix index) relayCounts(r model.RelayEntry) bool {
	for _, id := range r.Members {
		if ix.exhibition[id] {
			return false
		}
	}
	return true
}

// teamOrder lists m.Teams then any team only seen on entries, in first-seen
// order.
func teamOrder(m *model.Meet, ix index) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, t := range m.Teams {
		add(t.ID)
	}
	for _, l := range m.Lineups {
		add(ix.team[l.AthleteID])
	}
	for _, r := range m.Relays {
		add(r.TeamID)
	}
	return out
}

// TeamScores sums the points already resolved on m's lineups and relays into
// one MeetTeam per team. Exhibition entries are excluded.
func TeamScores(m *model.Meet) []model.MeetTeam {
	ix := newIndex(m)
	order := teamOrder(m, ix)
	pos := make(map[string]int, len(order))
	out := make([]model.MeetTeam, len(order))
	for i, id := range order {
		pos[id] = i
		out[i].TeamID = id
	}

	for _, l := range m.Lineups {
		if ix.exhibition[l.AthleteID] {
			continue
		}
		i, ok := pos[ix.team[l.AthleteID]]
		if !ok {
			continue
		}
		switch ix.eventType[l.EventID] {
		case model.Individual:
			out[i].IndividualScore += l.Points
		case model.Diving:
			out[i].DivingScore += l.Points
		}
	}
	for _, r := range m.Relays {
		i, ok := pos[r.TeamID]
		if !ok || !ix.relayCounts(r) || ix.eventType[r.EventID] != model.Relay {
			continue
		}
		out[i].RelayScore += r.Points
	}
	for i := range out {
		out[i].TotalScore = out[i].IndividualScore + out[i].DivingScore + out[i].RelayScore
	}
	return out
}

// TeamScore returns the aggregate for one team.
func TeamScore(m *model.Meet, teamID string) model.MeetTeam {
	for _, t := range TeamScores(m) {
		if t.TeamID == teamID {
			return t
		}
	}
	return model.MeetTeam{TeamID: teamID}
}

// Standings orders teams by total score, highest first. Equal totals keep
// input order.
func Standings(teams []model.MeetTeam) []model.MeetTeam {
	out := slices.Clone(teams)
	slices.SortStableFunc(out, func(a, b model.MeetTeam) int {
		return b.TotalScore - a.TotalScore
	})
	return out
}
