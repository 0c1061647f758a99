package roster

import (
	"sort"

	"github.com/okian/meetscore/internal/domain/model"
)

// ValidateEntryCounts reports athletes entered in more individual events
// than MaxIndivEvents or more diving events than MaxDivingEvents. Limits
// that are not positive are not enforced.
func ValidateEntryCounts(lineups []model.Lineup, events []model.Event, athletes []model.Athlete, cfg model.Config) []model.Violation {
	types := make(map[string]model.EventType, len(events))
	for _, e := range events {
		types[e.ID] = e.Type
	}
	indiv := make(map[string]map[string]bool)
	diving := make(map[string]map[string]bool)
	for _, l := range lineups {
		target := indiv
		if types[l.EventID] == model.Diving {
			target = diving
		} else if types[l.EventID] != model.Individual {
			continue
		}
		if target[l.AthleteID] == nil {
			target[l.AthleteID] = make(map[string]bool)
		}
		target[l.AthleteID][l.EventID] = true
	}

	names := nameIndex(athletes)
	var out []model.Violation
	out = append(out, over(indiv, cfg.MaxIndivEvents, model.KindIndividualCount, names)...)
	out = append(out, over(diving, cfg.MaxDivingEvents, model.KindDivingCount, names)...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind > out[j].Kind
		}
		return out[i].Subject < out[j].Subject
	})
	return out
}

func over(counts map[string]map[string]bool, limit int, kind string, names map[string]string) []model.Violation {
	if limit <= 0 {
		return nil
	}
	var out []model.Violation
	for id, evs := range counts {
		if len(evs) > limit {
			out = append(out, model.Violation{
				Kind: kind, SubjectID: id, Subject: nameOr(names, id),
				Limit: float64(limit), Actual: float64(len(evs)),
			})
		}
	}
	return out
}
