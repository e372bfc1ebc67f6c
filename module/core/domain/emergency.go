package domain

import "time"

type EmergencyStatus string

const (
	EmergencyActive   EmergencyStatus = "active"
	EmergencyResolved EmergencyStatus = "resolved"
)

type Emergency struct {
	ID         string          `json:"id"`
	SubjectID  string          `json:"subject_id"`
	Position   Coordinate      `json:"position"`
	Message    string          `json:"message"`
	Type       string          `json:"type"`
	Severity   Severity        `json:"severity"`
	Status     EmergencyStatus `json:"status"`
	Timestamp  time.Time       `json:"timestamp"`
	ResolvedAt *time.Time      `json:"resolved_at,omitempty"`
}

type AdvisoryLevel string

const (
	AdvisorySafe     AdvisoryLevel = "safe"
	AdvisoryModerate AdvisoryLevel = "moderate"
	AdvisoryHigh     AdvisoryLevel = "high"
)

type Advisory struct {
	Level           AdvisoryLevel `json:"level"`
	Message         string        `json:"message"`
	Recommendations []string      `json:"recommendations"`
}
