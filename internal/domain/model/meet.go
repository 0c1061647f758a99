package model

// MaxSensitivityAthletes bounds the number of athletes analysed per team.
const MaxSensitivityAthletes = 3

// Config holds meet-level scoring and roster limits.
type Config struct {
	ScoringPlaces      int     `json:"scoring_places" koanf:"scoring_places"`
	ScoringStartPoints int     `json:"scoring_start_points" koanf:"scoring_start_points"`
	RelayMultiplier    float64 `json:"relay_multiplier" koanf:"relay_multiplier"`
	MaxAthletes        int     `json:"max_athletes" koanf:"max_athletes"`
	DiverRatio         float64 `json:"diver_ratio" koanf:"diver_ratio"`
	MaxIndivEvents     int     `json:"max_indiv_events" koanf:"max_indiv_events"`
	MaxRelays          int     `json:"max_relays" koanf:"max_relays"`
	MaxDivingEvents    int     `json:"max_diving_events" koanf:"max_diving_events"`
	DivingIncluded     bool    `json:"diving_included" koanf:"diving_included"`
	// CorrectionFactor is subtracted (in seconds) from flat-start times used
	// on relay legs after the first.
	CorrectionFactor float64 `json:"correction_factor" koanf:"correction_factor"`
}

// RosterSelection is one team's choice of athletes for a meet.
type RosterSelection struct {
	TeamID                   string   `json:"team_id"`
	SelectedAthleteIDs       []string `json:"selected_athlete_ids"`
	TestSpotAthleteIDs       []string `json:"test_spot_athlete_ids,omitempty"`
	TestSpotScoringAthleteID string   `json:"test_spot_scoring_athlete_id,omitempty"`
	SensitivityAthleteIDs    []string `json:"sensitivity_athlete_ids,omitempty"`
	SensitivityPercent       float64  `json:"sensitivity_percent,omitempty"`
	ExhibitionAthleteIDs     []string `json:"exhibition_athlete_ids,omitempty"`
}

// Meet is the in-memory snapshot every engine operation reads.
type Meet struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Config Config `json:"config"`

	Events []Event `json:"events"`
	// EventOrder optionally lists event IDs in the order they are swum.
	EventOrder []string          `json:"event_order,omitempty"`
	Teams      []Team            `json:"teams"`
	Athletes   []Athlete         `json:"athletes"`
	Lineups    []Lineup          `json:"lineups"`
	Relays     []RelayEntry      `json:"relays"`
	Rosters    []RosterSelection `json:"rosters,omitempty"`
}

// Clone returns a deep copy of the derived rows so callers can rewrite
// places and points without touching the original snapshot. Reference data
// (events, athletes) is shared.
func (m *Meet) Clone() Meet {
	c := *m
	c.Lineups = make([]Lineup, len(m.Lineups))
	for i, l := range m.Lineups {
		c.Lineups[i] = l.clone()
	}
	c.Relays = make([]RelayEntry, len(m.Relays))
	for i, r := range m.Relays {
		c.Relays[i] = r.clone()
	}
	c.Rosters = append([]RosterSelection(nil), m.Rosters...)
	return c
}

// Roster returns the selection for teamID, if any.
func (m *Meet) Roster(teamID string) (RosterSelection, bool) {
	for _, r := range m.Rosters {
		if r.TeamID == teamID {
			return r, true
		}
	}
	return RosterSelection{}, false
}

// Exhibition returns the set of athlete IDs swimming exhibition for any team.
func (m *Meet) Exhibition() map[string]bool {
	out := make(map[string]bool)
	for _, r := range m.Rosters {
		for _, id := range r.ExhibitionAthleteIDs {
			out[id] = true
		}
	}
	return out
}

func (l Lineup) clone() Lineup {
	l.SeedSeconds = copyFloat(l.SeedSeconds)
	l.FinalSeconds = copyFloat(l.FinalSeconds)
	if l.Place != nil {
		l.Place = Int(*l.Place)
	}
	return l
}

func (r RelayEntry) clone() RelayEntry {
	for i := range r.Times {
		r.Times[i] = copyFloat(r.Times[i])
	}
	r.SeedSeconds = copyFloat(r.SeedSeconds)
	r.FinalSeconds = copyFloat(r.FinalSeconds)
	if r.Place != nil {
		r.Place = Int(*r.Place)
	}
	return r
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return Float(*v)
}
