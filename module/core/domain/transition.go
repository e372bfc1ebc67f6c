package domain

import "time"

type Direction string

const (
	DirectionEntering Direction = "entering"
	DirectionExiting  Direction = "exiting"
)

type TransitionEvent struct {
	SubjectID string     `json:"subject_id"`
	ZoneID    string     `json:"zone_id"`
	Direction Direction  `json:"direction"`
	Timestamp time.Time  `json:"timestamp"`
	Position  Coordinate `json:"position"`
}
