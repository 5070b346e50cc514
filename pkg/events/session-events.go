package events

import (
	"encoding/json"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTypeState     EventType = "state"
	EventTypeSeed      EventType = "seed"
	EventTypeTurn      EventType = "turn"
	EventTypeSynthesis EventType = "synthesis"
	EventTypeError     EventType = "error"
)

// Event is published for every step of a brainstorming session.
type Event struct {
	Type      EventType `json:"type"`
	SessionID uuid.UUID `json:"session_id"`
	// Index is the transcript position of seed and turn events.
	Index  int    `json:"index"`
	Agent  string `json:"agent,omitempty"`
	State  string `json:"state,omitempty"`
	Text   string `json:"text,omitempty"`
	Tokens int    `json:"tokens,omitempty"`
}

func NewEventFromJson(b []byte) (*Event, error) {
	e := &Event{}
	if err := json.Unmarshal(b, e); err != nil {
		return nil, err
	}
	return e, nil
}
