package tracker

import (
	"encoding/json"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/chalosafe/safezone/module/core/domain"
)

// TopicPattern matches every subject's location topic.
const TopicPattern = "/chalosafe/subject/+/location"

// LocationMessage is the MQTT payload of one position report. Timestamp is
// unix seconds.
type LocationMessage struct {
	SubjectID string  `json:"subject_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"`
	Accuracy  float64 `json:"accuracy,omitempty"`
}

func Topic(subjectID string) string {
	return "/chalosafe/subject/" + subjectID + "/location"
}

func NewLocationMessage(s domain.Sample) LocationMessage {
	return LocationMessage{
		SubjectID: s.SubjectID,
		Latitude:  s.Position.Lat,
		Longitude: s.Position.Lon,
		Timestamp: s.Timestamp.Unix(),
		Accuracy:  s.Accuracy,
	}
}

func (m LocationMessage) Sample() domain.Sample {
	return domain.Sample{
		SubjectID: m.SubjectID,
		Position:  domain.Coordinate{Lat: m.Latitude, Lon: m.Longitude},
		Timestamp: time.Unix(m.Timestamp, 0).UTC(),
		Accuracy:  m.Accuracy,
	}
}

// Publish sends s on its subject's topic and waits for the broker to accept
// it.
func Publish(client mqtt.Client, s domain.Sample) error {
	payload, err := json.Marshal(NewLocationMessage(s))
	if err != nil {
		return err
	}
	token := client.Publish(Topic(s.SubjectID), 1, false, payload)
	token.Wait()
	return token.Error()
}
