package model

// Lineup is one individual (or diving) entry of an athlete in an event.
// Place and Points are either real results (Official) or engine output; only
// official places are trusted when scoring is recomputed.
type Lineup struct {
	ID           string   `json:"id"`
	AthleteID    string   `json:"athlete_id"`
	EventID      string   `json:"event_id"`
	SeedTime     string   `json:"seed_time,omitempty"`
	SeedSeconds  *float64 `json:"seed_seconds,omitempty"`
	FinalTime    string   `json:"final_time,omitempty"`
	FinalSeconds *float64 `json:"final_seconds,omitempty"`
	Place        *int     `json:"place,omitempty"`
	Points       int      `json:"points"`
	Official     bool     `json:"official,omitempty"`
}

// RelayLegs is the number of legs in every relay.
const RelayLegs = 4

// RelayEntry is one team's relay in one relay event. Members[0] always swims
// from a flat start. Times holds explicitly supplied custom leg times.
type RelayEntry struct {
	ID             string              `json:"id"`
	TeamID         string              `json:"team_id"`
	EventID        string              `json:"event_id"`
	Members        [RelayLegs]string   `json:"members"`
	Times          [RelayLegs]*float64 `json:"times"`
	UseRelaySplits [RelayLegs]bool     `json:"use_relay_splits"`
	SeedTime       string              `json:"seed_time,omitempty"`
	SeedSeconds    *float64            `json:"seed_seconds,omitempty"`
	FinalTime      string              `json:"final_time,omitempty"`
	FinalSeconds   *float64            `json:"final_seconds,omitempty"`
	Place          *int                `json:"place,omitempty"`
	Points         int                 `json:"points"`
	Official       bool                `json:"official,omitempty"`
}

// MeetTeam is a derived team aggregate, recomputed wholesale on each pass.
type MeetTeam struct {
	TeamID          string `json:"team_id"`
	IndividualScore int    `json:"individual_score"`
	DivingScore     int    `json:"diving_score"`
	RelayScore      int    `json:"relay_score"`
	TotalScore      int    `json:"total_score"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
