package domain

import "time"

type Alert struct {
	ID                 string         `json:"id"`
	SubjectID          string         `json:"subject_id"`
	ZoneID             string         `json:"zone_id"`
	ZoneName           string         `json:"zone_name"`
	ZoneClassification Classification `json:"zone_classification"`
	Direction          Direction      `json:"direction"`
	Severity           Severity       `json:"severity"`
	Position           Coordinate     `json:"position"`
	Timestamp          time.Time      `json:"timestamp"`
	Acknowledged       bool           `json:"acknowledged"`
	AcknowledgedAt     *time.Time     `json:"acknowledged_at,omitempty"`
}

type SafetyScore struct {
	SubjectID string    `json:"subject_id"`
	Score     int       `json:"score"`
	UpdatedAt time.Time `json:"updated_at"`
}
