package service

import (
	"sync"
	"time"

	"github.com/chalosafe/safezone/module/core/domain"
)

// Outcome is everything one processed sample produced.
type Outcome struct {
	Sample       domain.Sample            `json:"sample"`
	Transitions  []domain.TransitionEvent `json:"transitions"`
	Alerts       []domain.Alert           `json:"alerts"`
	Score        int                      `json:"score"`
	ScoreChanged bool                     `json:"score_changed"`
	Dropped      bool                     `json:"dropped"`
}

// Session owns the monitoring state of a single subject. All state changes go
// through its mutex, so samples for one subject are applied one at a time.
type Session struct {
	mu sync.Mutex

	subjectID  string
	evaluator  *Evaluator
	alerts     *AlertManager
	score      *ScoreAdjuster
	lastSample time.Time
	hasSampled bool
}

type zoneProvider interface {
	zoneSource
	zoneLookup
}

func NewSession(subjectID string, zones zoneProvider, initialScore int) *Session {
	return &Session{
		subjectID: subjectID,
		evaluator: NewEvaluator(subjectID, zones),
		alerts:    NewAlertManager(subjectID, zones),
		score:     NewScoreAdjuster(initialScore),
	}
}

func (s *Session) SubjectID() string {
	return s.subjectID
}

// Process applies one sample. Samples older than the last processed one are
// dropped without error; an invalid position returns ErrInvalidPosition and
// leaves the session unchanged.
func (s *Session) Process(sample domain.Sample) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Outcome{Sample: sample, Score: s.score.Score()}
	if s.hasSampled && sample.Timestamp.Before(s.lastSample) {
		out.Dropped = true
		return out, nil
	}

	events, err := s.evaluator.Evaluate(sample.Position, sample.Timestamp)
	if err != nil {
		return out, err
	}
	s.lastSample = sample.Timestamp
	s.hasSampled = true

	out.Transitions = events
	for _, ev := range events {
		alert := s.alerts.OnTransition(ev)
		if alert == nil {
			continue
		}
		out.Alerts = append(out.Alerts, *alert)
		before := s.score.Score()
		if s.score.ApplyAlert(*alert) != before {
			out.ScoreChanged = true
		}
	}
	out.Score = s.score.Score()
	return out, nil
}

func (s *Session) Acknowledge(alertID string) (domain.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alerts.Acknowledge(alertID)
}

func (s *Session) Alerts() ([]domain.Alert, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alerts.Alerts(), s.alerts.UnreadCount()
}

func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score.Score()
}

// Recover gives the periodic +1 when the subject has no open alert. It reports
// the new score and whether it moved.
func (s *Session) Recover() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.alerts.UnreadCount() > 0 {
		return s.score.Score(), false
	}
	before := s.score.Score()
	after := s.score.Recover()
	return after, after != before
}

func (s *Session) Snapshot() domain.MembershipSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.MembershipSnapshot{
		SubjectID:  s.subjectID,
		ZoneIDs:    s.evaluator.Membership(),
		LastSample: s.lastSample,
		HasSampled: s.hasSampled,
	}
}

// Restore resumes from persisted state. It must run before the session is
// shared.
func (s *Session) Restore(snap *domain.MembershipSnapshot, alerts []domain.Alert) {
	if snap != nil {
		s.evaluator.Restore(snap.ZoneIDs)
		s.lastSample = snap.LastSample
		s.hasSampled = snap.HasSampled
	}
	s.alerts.Restore(alerts)
}
