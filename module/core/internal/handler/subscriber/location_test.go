package subscriber

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/chalosafe/safezone/module/core/domain"
	"github.com/chalosafe/safezone/pkg/tracker"
)

type mockLocationSvc struct {
	saveLocationFn func(ctx context.Context, s *domain.Sample) error
}

func (m *mockLocationSvc) SaveLocation(ctx context.Context, s *domain.Sample) error {
	return m.saveLocationFn(ctx, s)
}

type mockQueue struct {
	submitted []domain.Sample
}

func (m *mockQueue) Submit(s domain.Sample) {
	m.submitted = append(m.submitted, s)
}

type fakeMQTTMessage struct {
	topic   string
	payload []byte
}

func (f *fakeMQTTMessage) Duplicate() bool   { return false }
func (f *fakeMQTTMessage) Qos() byte         { return 0 }
func (f *fakeMQTTMessage) Retained() bool    { return false }
func (f *fakeMQTTMessage) Topic() string     { return f.topic }
func (f *fakeMQTTMessage) MessageID() uint16 { return 0 }
func (f *fakeMQTTMessage) Payload() []byte   { return f.payload }
func (f *fakeMQTTMessage) Ack()              {}

func newTestSubscriber(locSvc locationService, queue *mockQueue) *LocationSubscriber {
	return &LocationSubscriber{locationSvc: locSvc, queue: queue, logger: zap.NewNop()}
}

func message(t *testing.T, msg tracker.LocationMessage) *fakeMQTTMessage {
	t.Helper()
	payload, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	return &fakeMQTTMessage{topic: tracker.Topic("DT-1001"), payload: payload}
}

func TestHandleMessage_Success(t *testing.T) {
	var saved *domain.Sample
	locSvc := &mockLocationSvc{
		saveLocationFn: func(_ context.Context, s *domain.Sample) error {
			saved = s
			return nil
		},
	}
	queue := &mockQueue{}

	sub := newTestSubscriber(locSvc, queue)
	sub.handleMessage(nil, message(t, tracker.LocationMessage{
		SubjectID: "DT-1001",
		Latitude:  12.9,
		Longitude: 77.5,
		Timestamp: 1715003456,
		Accuracy:  8,
	}))

	if saved == nil {
		t.Fatal("expected SaveLocation to be called")
	}
	if saved.SubjectID != "DT-1001" {
		t.Errorf("expected DT-1001, got %s", saved.SubjectID)
	}
	if saved.Position.Lat != 12.9 {
		t.Errorf("expected 12.9, got %f", saved.Position.Lat)
	}
	expectedTs := time.Unix(1715003456, 0)
	if !saved.Timestamp.Equal(expectedTs) {
		t.Errorf("expected %v, got %v", expectedTs, saved.Timestamp)
	}
	if len(queue.submitted) != 1 {
		t.Fatalf("expected 1 queued sample, got %d", len(queue.submitted))
	}
	if queue.submitted[0].Accuracy != 8 {
		t.Errorf("expected accuracy 8, got %f", queue.submitted[0].Accuracy)
	}
}

func TestHandleMessage_SubjectFromTopic(t *testing.T) {
	locSvc := &mockLocationSvc{saveLocationFn: func(context.Context, *domain.Sample) error { return nil }}
	queue := &mockQueue{}

	sub := newTestSubscriber(locSvc, queue)
	sub.handleMessage(nil, message(t, tracker.LocationMessage{Latitude: 12.9, Longitude: 77.5, Timestamp: 1715003456}))

	if len(queue.submitted) != 1 || queue.submitted[0].SubjectID != "DT-1001" {
		t.Fatalf("expected subject from topic, got %+v", queue.submitted)
	}
}

func TestHandleMessage_InvalidJSON(t *testing.T) {
	locSvc := &mockLocationSvc{
		saveLocationFn: func(_ context.Context, _ *domain.Sample) error {
			t.Fatal("SaveLocation should not be called")
			return nil
		},
	}
	queue := &mockQueue{}

	sub := newTestSubscriber(locSvc, queue)
	sub.handleMessage(nil, &fakeMQTTMessage{topic: tracker.Topic("DT-1001"), payload: []byte("invalid")})

	if len(queue.submitted) != 0 {
		t.Fatal("nothing should be queued")
	}
}

func TestHandleMessage_ValidationError(t *testing.T) {
	locSvc := &mockLocationSvc{
		saveLocationFn: func(_ context.Context, _ *domain.Sample) error {
			t.Fatal("SaveLocation should not be called")
			return nil
		},
	}
	queue := &mockQueue{}

	sub := newTestSubscriber(locSvc, queue)
	sub.handleMessage(nil, message(t, tracker.LocationMessage{SubjectID: "DT-1001", Latitude: 120, Longitude: 77.5, Timestamp: 1715003456}))

	if len(queue.submitted) != 0 {
		t.Fatal("nothing should be queued")
	}
}

func TestHandleMessage_SaveErrorStillEvaluates(t *testing.T) {
	locSvc := &mockLocationSvc{
		saveLocationFn: func(_ context.Context, _ *domain.Sample) error {
			return errors.New("db error")
		},
	}
	queue := &mockQueue{}

	sub := newTestSubscriber(locSvc, queue)
	sub.handleMessage(nil, message(t, tracker.LocationMessage{SubjectID: "DT-1001", Latitude: 12.9, Longitude: 77.5, Timestamp: 1715003456}))

	if len(queue.submitted) != 1 {
		t.Fatalf("expected sample to be queued despite save error, got %d", len(queue.submitted))
	}
}

func TestSubjectFromTopic(t *testing.T) {
	tests := map[string]string{
		"/chalosafe/subject/DT-1001/location": "DT-1001",
		"chalosafe/subject/DT-7/location":     "DT-7",
		"/fleet/vehicle/B1234XYZ/location":    "",
		"/chalosafe/subject/location":         "",
	}
	for topic, want := range tests {
		if got := subjectFromTopic(topic); got != want {
			t.Errorf("subjectFromTopic(%q) = %q, want %q", topic, got, want)
		}
	}
}

func TestValidateLocationMessage(t *testing.T) {
	tests := []struct {
		name    string
		msg     tracker.LocationMessage
		wantErr bool
	}{
		{"valid", tracker.LocationMessage{SubjectID: "X", Latitude: 0, Longitude: 0, Timestamp: 1}, false},
		{"empty subject_id", tracker.LocationMessage{Latitude: 0, Longitude: 0, Timestamp: 1}, true},
		{"lat too low", tracker.LocationMessage{SubjectID: "X", Latitude: -91, Longitude: 0, Timestamp: 1}, true},
		{"lat too high", tracker.LocationMessage{SubjectID: "X", Latitude: 91, Longitude: 0, Timestamp: 1}, true},
		{"lon too low", tracker.LocationMessage{SubjectID: "X", Latitude: 0, Longitude: -181, Timestamp: 1}, true},
		{"lon too high", tracker.LocationMessage{SubjectID: "X", Latitude: 0, Longitude: 181, Timestamp: 1}, true},
		{"zero timestamp", tracker.LocationMessage{SubjectID: "X", Latitude: 0, Longitude: 0, Timestamp: 0}, true},
		{"negative timestamp", tracker.LocationMessage{SubjectID: "X", Latitude: 0, Longitude: 0, Timestamp: -1}, true},
		{"negative accuracy", tracker.LocationMessage{SubjectID: "X", Latitude: 0, Longitude: 0, Timestamp: 1, Accuracy: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateLocationMessage(&tt.msg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateLocationMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
