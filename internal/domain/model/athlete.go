package model

import "strings"

// EventTime is a recorded time (or diving score) for an athlete in one event.
// An athlete may hold two records for the same event, one flat start and one
// relay split.
type EventTime struct {
	Event        string  `json:"event"`
	Time         string  `json:"time"`
	Seconds      float64 `json:"seconds"`
	IsRelaySplit bool    `json:"is_relay_split"`
}

// Athlete is a roster member. Read-only to the engine.
type Athlete struct {
	ID        string      `json:"id"`
	TeamID    string      `json:"team_id"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Year      string      `json:"year,omitempty"`
	IsDiver   bool        `json:"is_diver"`
	Times     []EventTime `json:"times,omitempty"`
}

// FullName returns "First Last".
func (a Athlete) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Team is a participating team.
type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
