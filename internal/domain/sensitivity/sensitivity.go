// Package sensitivity re-scores a meet with one athlete's times nudged up
// and down by a percentage to show how many points hinge on that athlete.
//
// Each athlete is varied alone against the true baseline; there is no
// modelling of several athletes changing together.
package sensitivity

import (
	"fmt"
	"math"
	"slices"

	"github.com/okian/meetscore/internal/domain/aggregate"
	"github.com/okian/meetscore/internal/domain/engine"
	"github.com/okian/meetscore/internal/domain/model"
	"github.com/okian/meetscore/internal/domain/relay"
	"github.com/okian/meetscore/internal/domain/timecodec"
)

// Scenario names one of the three runs.
type Scenario string

// Scenarios.
const (
	Better   Scenario = "better"
	Baseline Scenario = "baseline"
	Worse    Scenario = "worse"
)

// EventPoints is the athlete's result in one event under a scenario.
type EventPoints struct {
	EventID   string   `json:"event_id"`
	EventName string   `json:"event_name"`
	Seconds   *float64 `json:"seconds,omitempty"`
	Place     int      `json:"place"`
	Points    int      `json:"points"`
	Relay     bool     `json:"relay,omitempty"`
}

// ScenarioResult is the athlete's and team's points under one scenario.
// AthletePoints counts individual and diving events; points of relays the
// athlete swims are reported separately since they belong to four athletes.
type ScenarioResult struct {
	AthletePoints int           `json:"athlete_points"`
	RelayPoints   int           `json:"relay_points"`
	TeamTotal     int           `json:"team_total"`
	Events        []EventPoints `json:"events"`
}

// Outcome holds all three scenarios for one athlete.
type Outcome struct {
	AthleteID string         `json:"athlete_id"`
	TeamID    string         `json:"team_id"`
	Percent   float64        `json:"percent"`
	Better    ScenarioResult `json:"better"`
	Baseline  ScenarioResult `json:"baseline"`
	Worse     ScenarioResult `json:"worse"`
}

// BetterDelta is the athlete's point gain in the better scenario.
func (o Outcome) BetterDelta() int { return o.Better.AthletePoints - o.Baseline.AthletePoints }

// WorseDelta is the athlete's point change in the worse scenario.
func (o Outcome) WorseDelta() int { return o.Worse.AthletePoints - o.Baseline.AthletePoints }

// Run analyses up to model.MaxSensitivityAthletes athletes of teamID.
//
// For each athlete the events they are entered in, relays included, are
// projected from times alone: official places in those events are set aside
// so that a faster or slower swim can move the athlete. The baseline is
// computed the same way so the three scenarios are comparable.
func Run(m *model.Meet, teamID string, athleteIDs []string, percent float64, opts ...engine.Option) ([]Outcome, error) {
	if len(athleteIDs) > model.MaxSensitivityAthletes {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyAthletes, len(athleteIDs), model.MaxSensitivityAthletes)
	}
	if math.IsNaN(percent) || percent <= 0 || percent >= 100 {
		return nil, fmt.Errorf("%w: %g", ErrInvalidPercent, percent)
	}
	team := make(map[string]string, len(m.Athletes))
	for _, a := range m.Athletes {
		team[a.ID] = a.TeamID
	}
	for _, id := range athleteIDs {
		if team[id] != teamID {
			return nil, fmt.Errorf("%w: %s not on %s", ErrAthleteNotOnTeam, id, teamID)
		}
	}

	eng := engine.New(opts...)
	out := make([]Outcome, 0, len(athleteIDs))
	for _, id := range athleteIDs {
		o := Outcome{AthleteID: id, TeamID: teamID, Percent: percent}
		for _, sc := range []Scenario{Baseline, Better, Worse} {
			r, err := runScenario(eng, m, teamID, id, percent, sc)
			if err != nil {
				return nil, err
			}
			switch sc {
			case Better:
				o.Better = r
			case Worse:
				o.Worse = r
			default:
				o.Baseline = r
			}
		}
		out = append(out, o)
	}
	return out, nil
}

func runScenario(eng *engine.Engine, m *model.Meet, teamID, athleteID string, percent float64, sc Scenario) (ScenarioResult, error) {
	events := make(map[string]model.Event, len(m.Events))
	for _, e := range m.Events {
		events[e.ID] = e
	}

	sim := m.Clone()
	affected := make(map[string]bool)
	for _, l := range sim.Lineups {
		if l.AthleteID == athleteID {
			affected[l.EventID] = true
		}
	}
	for _, r := range sim.Relays {
		if swims(r, athleteID) {
			affected[r.EventID] = true
		}
	}
	for i := range sim.Lineups {
		l := &sim.Lineups[i]
		if !affected[l.EventID] {
			continue
		}
		l.Official = false
		if l.AthleteID == athleteID {
			perturb(l, factor(events[l.EventID].Type.ScoreLike(), percent, sc))
		}
	}
	if sc != Baseline {
		perturbRelays(m, &sim, events, athleteID, factor(false, percent, sc))
	}
	for i := range sim.Relays {
		if affected[sim.Relays[i].EventID] {
			sim.Relays[i].Official = false
		}
	}

	res, err := eng.Score(&sim)
	if err != nil {
		return ScenarioResult{}, err
	}

	var r ScenarioResult
	for _, l := range res.Meet.Lineups {
		if l.AthleteID != athleteID {
			continue
		}
		r.AthletePoints += l.Points
		r.Events = append(r.Events, eventPoints(events[l.EventID], l.FinalSeconds, l.SeedSeconds, l.Place, l.Points, false))
	}
	for _, rl := range res.Meet.Relays {
		if !swims(rl, athleteID) {
			continue
		}
		r.RelayPoints += rl.Points
		r.Events = append(r.Events, eventPoints(events[rl.EventID], rl.FinalSeconds, rl.SeedSeconds, rl.Place, rl.Points, true))
	}
	r.TeamTotal = aggregate.TeamScore(&res.Meet, teamID).TotalScore
	return r, nil
}

func eventPoints(ev model.Event, final, seed *float64, place *int, points int, isRelay bool) EventPoints {
	ep := EventPoints{EventID: ev.ID, EventName: ev.Name, Seconds: seed, Points: points, Relay: isRelay}
	if final != nil {
		ep.Seconds = final
	}
	if place != nil {
		ep.Place = *place
	}
	return ep
}

// factor is the multiplier applied to a ranked value: below one for a
// faster time or a lower score.
func factor(scoreLike bool, percent float64, sc Scenario) float64 {
	switch {
	case sc == Baseline:
		return 1
	case (sc == Better) == scoreLike:
		return 1 + percent/100
	default:
		return 1 - percent/100
	}
}

// perturb scales the ranked value of l, the final when known else the seed.
func perturb(l *model.Lineup, f float64) {
	target := l.SeedSeconds
	if l.FinalSeconds != nil {
		target = l.FinalSeconds
	}
	if target == nil {
		return
	}
	*target = timecodec.Round2(*target * f)
}

// perturbRelays scales the athlete's recorded swim times and custom leg
// times so the engine re-composes every relay they swim. A relay final moves
// by the change in its composed total.
func perturbRelays(orig *model.Meet, sim *model.Meet, events map[string]model.Event, athleteID string, f float64) {
	sim.Athletes = scaleTimes(orig.Athletes, athleteID, f)

	correction := relay.WithCorrectionFactor(orig.Config.CorrectionFactor)
	before := relay.NewComposer(orig.Athletes, correction)
	after := relay.NewComposer(sim.Athletes, correction)
	for i := range sim.Relays {
		r := &sim.Relays[i]
		if !swims(*r, athleteID) {
			continue
		}
		for leg, id := range r.Members {
			if id == athleteID && r.Times[leg] != nil {
				*r.Times[leg] = timecodec.Round2(*r.Times[leg] * f)
			}
		}
		if r.FinalSeconds == nil {
			continue
		}
		legs, ok := relay.LegsFor(events[r.EventID].Name)
		if !ok {
			continue
		}
		was, now := before.Compose(orig.Relays[i], legs), after.Compose(*r, legs)
		if was.Total == nil || now.Total == nil {
			continue
		}
		*r.FinalSeconds = timecodec.Round2(math.Max(0, *r.FinalSeconds+*now.Total-*was.Total))
	}
}

// scaleTimes returns athletes with the swim times of athleteID scaled by f.
// Diving records and the input slice are left alone.
func scaleTimes(athletes []model.Athlete, athleteID string, f float64) []model.Athlete {
	out := slices.Clone(athletes)
	for i := range out {
		if out[i].ID != athleteID {
			continue
		}
		times := slices.Clone(out[i].Times)
		for j := range times {
			et := &times[j]
			if n, ok := timecodec.ParseEventName(et.Event); ok && n.Stroke == model.Dive {
				continue
			}
			secs := et.Seconds
			if secs <= 0 {
				parsed, err := timecodec.ParseSeconds(et.Time)
				if err != nil {
					continue
				}
				secs = parsed
			}
			et.Seconds = timecodec.Round2(secs * f)
			et.Time = timecodec.FormatSeconds(et.Seconds, false)
		}
		out[i].Times = times
	}
	return out
}

func swims(r model.RelayEntry, athleteID string) bool {
	return slices.Contains(r.Members[:], athleteID)
}
