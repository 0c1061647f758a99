// Package placement ranks the competitors of one event and assigns places
// and points.
package placement

import (
	"slices"

	"github.com/okian/meetscore/internal/domain/model"
	"github.com/okian/meetscore/internal/domain/scoring"
)

// Entry is one competitor in an event. Seed is the value ranked on (a final
// time or score when known, otherwise the seed). Place, when set, is an
// authoritative result and is trusted as-is; Points optionally carries
// externally supplied points for such an entry.
type Entry struct {
	ID     string
	Seed   *float64
	Place  *int
	Points *int
}

// Result is the resolved place and points of one entry. Place 0 means the
// entry could not be placed (no seed) and scores nothing.
type Result struct {
	ID     string `json:"id"`
	Place  int    `json:"place"`
	Points int    `json:"points"`
}

// Unplaced is the place of an entry without a seed value.
const Unplaced = 0

// Resolve assigns places and points to entries of one event. Results are
// returned in input order.
//
// Authoritative entries keep their place. The others are ranked by seed,
// ascending for timed events and descending for diving, with equal seeds
// keeping input order, and take the lowest places not already claimed.
// Entries without a seed are never placed.
func Resolve(entries []Entry, eventType model.EventType, table scoring.Table) []Result {
	results := make([]Result, len(entries))
	taken := make(map[int]bool)
	var ranked []int

	for i, e := range entries {
		results[i].ID = e.ID
		switch {
		case e.Place != nil && *e.Place > 0:
			place := *e.Place
			taken[place] = true
			results[i].Place = place
			if e.Points != nil {
				results[i].Points = *e.Points
			} else {
				results[i].Points = table.Points(eventType, place)
			}
		case e.Seed != nil:
			ranked = append(ranked, i)
		default:
			results[i].Place = Unplaced
		}
	}

	descending := eventType.ScoreLike()
	slices.SortStableFunc(ranked, func(a, b int) int {
		sa, sb := *entries[a].Seed, *entries[b].Seed
		switch {
		case sa == sb:
			return 0
		case (sa < sb) != descending:
			return -1
		default:
			return 1
		}
	})

	next := 1
	for _, i := range ranked {
		for taken[next] {
			next++
		}
		results[i].Place = next
		results[i].Points = table.Points(eventType, next)
		next++
	}
	return results
}
