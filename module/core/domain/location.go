package domain

import "time"

// Sample is one position report for a subject.
type Sample struct {
	SubjectID string     `json:"subject_id"`
	Position  Coordinate `json:"position"`
	Timestamp time.Time  `json:"timestamp"`
	Accuracy  float64    `json:"accuracy,omitempty"`
}

type Subject struct {
	SubjectID string `json:"subject_id"`
}

type HistoryQuery struct {
	SubjectID string
	Start     time.Time
	End       time.Time
}

// MembershipSnapshot is the serializable evaluator state of one subject.
type MembershipSnapshot struct {
	SubjectID  string    `json:"subject_id"`
	ZoneIDs    []string  `json:"zone_ids"`
	LastSample time.Time `json:"last_sample"`
	HasSampled bool      `json:"has_sampled"`
}
