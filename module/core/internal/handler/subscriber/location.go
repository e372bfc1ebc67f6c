package subscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/chalosafe/safezone/module/core/domain"
	"github.com/chalosafe/safezone/pkg/tracker"
)

type locationService interface {
	SaveLocation(ctx context.Context, s *domain.Sample) error
}

type sampleQueue interface {
	Submit(sample domain.Sample)
}

type LocationSubscriber struct {
	client      mqtt.Client
	locationSvc locationService
	queue       sampleQueue
	logger      *zap.Logger
}

func NewLocationSubscriber(client mqtt.Client, locationSvc locationService, queue sampleQueue, logger *zap.Logger) *LocationSubscriber {
	return &LocationSubscriber{
		client:      client,
		locationSvc: locationSvc,
		queue:       queue,
		logger:      logger,
	}
}

func (s *LocationSubscriber) Start() error {
	token := s.client.Subscribe(tracker.TopicPattern, 1, s.handleMessage)
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}
	s.logger.Info("subscribed to location topic", zap.String("topic", tracker.TopicPattern))
	return nil
}

// handleMessage stores the sample in the location history and queues it for
// evaluation. Samples that fail to store are still evaluated.
func (s *LocationSubscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var raw tracker.LocationMessage
	if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
		s.logger.Warn("invalid location message", zap.String("topic", msg.Topic()), zap.Error(err))
		return
	}
	if raw.SubjectID == "" {
		raw.SubjectID = subjectFromTopic(msg.Topic())
	}

	if err := validateLocationMessage(&raw); err != nil {
		s.logger.Warn("location message rejected", zap.String("topic", msg.Topic()), zap.Error(err))
		return
	}

	sample := raw.Sample()

	if err := s.locationSvc.SaveLocation(context.Background(), &sample); err != nil {
		s.logger.Error("save location", zap.String("subject_id", sample.SubjectID), zap.Error(err))
	}

	s.queue.Submit(sample)
}

func subjectFromTopic(topic string) string {
	parts := strings.Split(strings.Trim(topic, "/"), "/")
	if len(parts) == 4 && parts[0] == "chalosafe" && parts[1] == "subject" && parts[3] == "location" {
		return parts[2]
	}
	return ""
}

func validateLocationMessage(msg *tracker.LocationMessage) error {
	if msg.SubjectID == "" {
		return fmt.Errorf("subject_id: required")
	}
	if err := (domain.Coordinate{Lat: msg.Latitude, Lon: msg.Longitude}).Validate(); err != nil {
		return err
	}
	if msg.Timestamp <= 0 {
		return fmt.Errorf("timestamp: must be positive")
	}
	if msg.Accuracy < 0 {
		return fmt.Errorf("accuracy: must not be negative")
	}
	return nil
}
