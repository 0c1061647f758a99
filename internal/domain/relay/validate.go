package relay

import (
	"sort"

	"github.com/okian/meetscore/internal/domain/model"
)

// ValidateRelayCounts reports every athlete appearing in more than maxRelays
// distinct relay events across relays. A non-positive maxRelays disables the
// check. Violations are ordered by athlete name.
func ValidateRelayCounts(relays []model.RelayEntry, athletes []model.Athlete, maxRelays int) []model.Violation {
	if maxRelays <= 0 {
		return nil
	}
	events := make(map[string]map[string]bool)
	for _, r := range relays {
		for _, id := range r.Members {
			if id == "" {
				continue
			}
			if events[id] == nil {
				events[id] = make(map[string]bool)
			}
			events[id][r.EventID] = true
		}
	}

	names := make(map[string]string, len(athletes))
	for _, a := range athletes {
		names[a.ID] = a.FullName()
	}

	var out []model.Violation
	for id, evs := range events {
		if len(evs) <= maxRelays {
			continue
		}
		name := names[id]
		if name == "" {
			name = id
		}
		out = append(out, model.Violation{
			Kind:      model.KindRelayCount,
			SubjectID: id,
			Subject:   name,
			Limit:     float64(maxRelays),
			Actual:    float64(len(evs)),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Subject != out[j].Subject {
			return out[i].Subject < out[j].Subject
		}
		return out[i].SubjectID < out[j].SubjectID
	})
	return out
}
