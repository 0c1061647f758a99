// Package roster accounts for a team's scoring-eligible head count and checks
// roster selections against meet limits.
package roster

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/meetscore/internal/domain/model"
)

// epsilon absorbs float drift from fractional diver weights.
const epsilon = 1e-9

// ScoringCount returns |swimmers| + |divers| × diverRatio over the counted
// athletes: the selection minus the test spot group, plus the group's
// scoring candidate. Duplicate IDs count once; unknown IDs count as swimmers.
func ScoringCount(selected, testSpot []string, scoringCandidate string, athletes []model.Athlete, diverRatio float64) float64 {
	divers := make(map[string]bool, len(athletes))
	for _, a := range athletes {
		if a.IsDiver {
			divers[a.ID] = true
		}
	}
	counted := countedIDs(selected, testSpot, scoringCandidate)

	var swimmers, diving int
	for id := range counted {
		if divers[id] {
			diving++
		} else {
			swimmers++
		}
	}
	return float64(swimmers) + float64(diving)*diverRatio
}

func countedIDs(selected, testSpot []string, scoringCandidate string) map[string]bool {
	group := toSet(testSpot)
	sel := toSet(selected)
	out := make(map[string]bool, len(sel))
	for id := range sel {
		if !group[id] {
			out[id] = true
		}
	}
	if len(group) > 0 && group[scoringCandidate] && sel[scoringCandidate] {
		out[scoringCandidate] = true
	}
	return out
}

// Validate checks a roster selection. It returns the violations found; the
// error is reserved for an invalid configuration.
func Validate(sel model.RosterSelection, athletes []model.Athlete, cfg model.Config) ([]model.Violation, error) {
	if math.IsNaN(cfg.DiverRatio) || cfg.DiverRatio < 0 || cfg.DiverRatio > 1 {
		return nil, fmt.Errorf("%w: %g", ErrInvalidDiverRatio, cfg.DiverRatio)
	}
	names := nameIndex(athletes)
	selected := toSet(sel.SelectedAthleteIDs)
	var out []model.Violation

	count := ScoringCount(sel.SelectedAthleteIDs, sel.TestSpotAthleteIDs, sel.TestSpotScoringAthleteID, athletes, cfg.DiverRatio)
	if cfg.MaxAthletes > 0 && count > float64(cfg.MaxAthletes)+epsilon {
		out = append(out, model.Violation{
			Kind: model.KindScoringCount, SubjectID: sel.TeamID, Subject: sel.TeamID,
			Limit: float64(cfg.MaxAthletes), Actual: count,
		})
	}

	group := toSet(sel.TestSpotAthleteIDs)
	if len(group) > 0 && !group[sel.TestSpotScoringAthleteID] {
		out = append(out, model.Violation{
			Kind: model.KindTestSpotCandidate, SubjectID: sel.TestSpotScoringAthleteID,
			Subject: nameOr(names, sel.TestSpotScoringAthleteID), Limit: 1, Actual: 0,
		})
	}
	for _, id := range sortedKeys(group) {
		if !selected[id] {
			out = append(out, memberViolation(model.KindTestSpotMember, id, names))
		}
	}

	sens := toSet(sel.SensitivityAthleteIDs)
	if len(sens) > model.MaxSensitivityAthletes {
		out = append(out, model.Violation{
			Kind: model.KindSensitivityCount, SubjectID: sel.TeamID, Subject: sel.TeamID,
			Limit: model.MaxSensitivityAthletes, Actual: float64(len(sens)),
		})
	}
	for _, id := range sortedKeys(sens) {
		if !selected[id] {
			out = append(out, memberViolation(model.KindSensitivityMember, id, names))
		}
	}

	for _, id := range sortedKeys(toSet(sel.ExhibitionAthleteIDs)) {
		if selected[id] {
			out = append(out, memberViolation(model.KindExhibitionOverlap, id, names))
		}
	}
	return out, nil
}

// Check validates sel for a save: any violation blocks it with a
// *model.LimitError.
func Check(sel model.RosterSelection, athletes []model.Athlete, cfg model.Config) error {
	vs, err := Validate(sel, athletes, cfg)
	if err != nil {
		return err
	}
	return model.CheckViolations(vs)
}

func memberViolation(kind, id string, names map[string]string) model.Violation {
	return model.Violation{Kind: kind, SubjectID: id, Subject: nameOr(names, id), Limit: 0, Actual: 1}
}

func toSet(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id != "" {
			out[id] = true
		}
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func nameIndex(athletes []model.Athlete) map[string]string {
	out := make(map[string]string, len(athletes))
	for _, a := range athletes {
		out[a.ID] = a.FullName()
	}
	return out
}

func nameOr(names map[string]string, id string) string {
	if n := names[id]; n != "" {
		return n
	}
	return id
}
