package domain

import "time"

type EventType string

const (
	EventAlert     EventType = "alert"
	EventEmergency EventType = "emergency"
)

// EventMessage is the broker envelope for alerts and emergencies. Exactly one
// of Alert and Emergency is set, matching Type.
type EventMessage struct {
	Type        EventType  `json:"type"`
	SubjectID   string     `json:"subject_id"`
	PublishedAt time.Time  `json:"published_at"`
	Alert       *Alert     `json:"alert,omitempty"`
	Emergency   *Emergency `json:"emergency,omitempty"`
}
