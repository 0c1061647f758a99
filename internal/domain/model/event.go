// Package model contains domain models passed between layers.
package model

// EventType classifies an event in the meet program.
type EventType string

// Event types.
const (
	Individual EventType = "individual"
	Relay      EventType = "relay"
	Diving     EventType = "diving"
)

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	switch t {
	case Individual, Relay, Diving:
		return true
	}
	return false
}

// ScoreLike reports whether higher values are better for the event type.
func (t EventType) ScoreLike() bool { return t == Diving }

// Stroke names a swimming stroke.
type Stroke string

// Strokes.
const (
	Free   Stroke = "free"
	Back   Stroke = "back"
	Breast Stroke = "breast"
	Fly    Stroke = "fly"
	IM     Stroke = "im"
	Medley Stroke = "medley"
	Dive   Stroke = "diving"
)

// Event is immutable reference data for the meet's program.
type Event struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	Type EventType `json:"event_type"`
}
