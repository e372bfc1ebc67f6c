package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"go.uber.org/zap"

	"github.com/chalosafe/safezone/module/core/domain"
	"github.com/chalosafe/safezone/module/core/internal/repository/database"
	"github.com/chalosafe/safezone/module/core/internal/repository/publisher"
	"github.com/chalosafe/safezone/module/core/internal/repository/state"
)

// Notifier receives live updates for display. Implementations must not block.
type Notifier interface {
	Notify(subjectID, kind string, payload any)
}

const (
	NotifyTransition = "transition"
	NotifyAlert      = "alert"
	NotifyScore      = "score"
	NotifyEmergency  = "emergency"
)

// Monitor keeps one Session per subject and pushes what sessions produce to
// the persistence, broker and display sinks. A failing sink is logged and
// never stops monitoring.
type Monitor struct {
	zones     *ZoneRegistry
	sessions  cmap.ConcurrentMap[string, *Session]
	alertRepo database.AlertRepository
	scoreRepo database.ScoreRepository
	store     state.MembershipStore
	publisher publisher.EventPublisher
	notifier  Notifier
	logger    *zap.Logger
	now       func() time.Time
}

type MonitorDeps struct {
	Zones     *ZoneRegistry
	Alerts    database.AlertRepository
	Scores    database.ScoreRepository
	Store     state.MembershipStore
	Publisher publisher.EventPublisher
	Notifier  Notifier
	Logger    *zap.Logger
}

func NewMonitor(deps MonitorDeps) *Monitor {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		zones:     deps.Zones,
		sessions:  cmap.New[*Session](),
		alertRepo: deps.Alerts,
		scoreRepo: deps.Scores,
		store:     deps.Store,
		publisher: deps.Publisher,
		notifier:  deps.Notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// Process runs one sample through the subject's session and fans the outcome
// out to the sinks.
func (m *Monitor) Process(ctx context.Context, sample domain.Sample) (Outcome, error) {
	sess := m.session(ctx, sample.SubjectID)

	out, err := sess.Process(sample)
	if err != nil {
		return out, err
	}
	log := m.logger.With(zap.String("subject_id", sample.SubjectID))
	if out.Dropped {
		log.Debug("stale sample dropped", zap.Time("timestamp", sample.Timestamp))
		return out, nil
	}

	for i := range out.Transitions {
		ev := out.Transitions[i]
		log.Info("zone transition", zap.String("zone_id", ev.ZoneID), zap.String("direction", string(ev.Direction)))
		m.notify(sample.SubjectID, NotifyTransition, ev)
	}

	for i := range out.Alerts {
		alert := out.Alerts[i]
		log.Warn("safety alert raised",
			zap.String("alert_id", alert.ID),
			zap.String("zone_id", alert.ZoneID),
			zap.String("severity", string(alert.Severity)),
		)
		if m.alertRepo != nil {
			if err := m.alertRepo.Insert(ctx, &alert); err != nil {
				log.Error("persist alert", zap.String("alert_id", alert.ID), zap.Error(err))
			}
		}
		if m.publisher != nil {
			if err := m.publisher.PublishAlert(ctx, &alert); err != nil {
				log.Error("publish alert", zap.String("alert_id", alert.ID), zap.Error(err))
			}
		}
		m.notify(sample.SubjectID, NotifyAlert, alert)
	}

	if out.ScoreChanged {
		m.saveScore(ctx, sample.SubjectID, out.Score)
	}

	m.saveSnapshot(ctx, sess)
	return out, nil
}

// Acknowledge marks an alert of the subject as seen. A subject that was never
// monitored returns ErrSubjectNotFound.
func (m *Monitor) Acknowledge(ctx context.Context, subjectID, alertID string) (domain.Alert, error) {
	sess, known := m.lookup(ctx, subjectID)
	if !known {
		return domain.Alert{}, fmt.Errorf("%w: %s", domain.ErrSubjectNotFound, subjectID)
	}
	alert, err := sess.Acknowledge(alertID)
	if err != nil {
		return domain.Alert{}, err
	}
	if m.alertRepo != nil && alert.AcknowledgedAt != nil {
		if err := m.alertRepo.Acknowledge(ctx, alert.ID, *alert.AcknowledgedAt); err != nil {
			m.logger.Error("persist acknowledgement",
				zap.String("subject_id", subjectID), zap.String("alert_id", alertID), zap.Error(err))
		}
	}
	return alert, nil
}

// Alerts returns the subject's alert history, newest first, and the number of
// unacknowledged alerts.
func (m *Monitor) Alerts(ctx context.Context, subjectID string) ([]domain.Alert, int) {
	sess, _ := m.lookup(ctx, subjectID)
	return sess.Alerts()
}

func (m *Monitor) Score(ctx context.Context, subjectID string) int {
	sess, _ := m.lookup(ctx, subjectID)
	return sess.Score()
}

func (m *Monitor) Membership(ctx context.Context, subjectID string) []string {
	sess, _ := m.lookup(ctx, subjectID)
	return sess.Snapshot().ZoneIDs
}

// RecoverScores applies the periodic recovery increment to every subject
// without an open alert.
func (m *Monitor) RecoverScores(ctx context.Context) {
	for item := range m.sessions.IterBuffered() {
		score, changed := item.Val.Recover()
		if changed {
			m.saveScore(ctx, item.Key, score)
		}
	}
}

// Run calls RecoverScores every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.logger.Info("score recovery started", zap.Duration("interval", interval))
	for {
		select {
		case <-ticker.C:
			m.RecoverScores(ctx)
		case <-ctx.Done():
			m.logger.Info("score recovery stopped")
			return
		}
	}
}

// session returns the subject's live session, restoring and keeping it on
// first use. Only sample processing calls it.
func (m *Monitor) session(ctx context.Context, subjectID string) *Session {
	if sess, ok := m.sessions.Get(subjectID); ok {
		return sess
	}
	sess, _ := m.restore(ctx, subjectID)
	return m.keep(subjectID, sess)
}

// lookup serves reads. A subject with nothing live or persisted gets a
// throwaway default session, so unknown ids never enter the session map. The
// bool reports whether the subject is known.
func (m *Monitor) lookup(ctx context.Context, subjectID string) (*Session, bool) {
	if sess, ok := m.sessions.Get(subjectID); ok {
		return sess, true
	}
	sess, persisted := m.restore(ctx, subjectID)
	if !persisted {
		return sess, false
	}
	return m.keep(subjectID, sess), true
}

// keep stores sess unless a concurrent restore stored one first, and returns
// whichever is live.
func (m *Monitor) keep(subjectID string, sess *Session) *Session {
	if m.sessions.SetIfAbsent(subjectID, sess) {
		return sess
	}
	live, _ := m.sessions.Get(subjectID)
	return live
}

// restore builds a session from the persisted score, membership snapshot and
// alert history. It reports whether any of them existed.
func (m *Monitor) restore(ctx context.Context, subjectID string) (*Session, bool) {
	log := m.logger.With(zap.String("subject_id", subjectID))
	persisted := false

	initial := DefaultScore
	if m.scoreRepo != nil {
		score, err := m.scoreRepo.Get(ctx, subjectID)
		switch {
		case err == nil:
			initial = score.Score
			persisted = true
		case errors.Is(err, domain.ErrSubjectNotFound):
		default:
			log.Error("load safety score", zap.Error(err))
		}
	}

	sess := NewSession(subjectID, m.zones, initial)

	var snap *domain.MembershipSnapshot
	if m.store != nil {
		var err error
		snap, err = m.store.Load(ctx, subjectID)
		if err != nil {
			log.Error("load membership snapshot", zap.Error(err))
			snap = nil
		}
	}

	var alerts []domain.Alert
	if m.alertRepo != nil {
		var err error
		alerts, err = m.alertRepo.ListBySubject(ctx, subjectID)
		if err != nil {
			log.Error("load alert history", zap.Error(err))
			alerts = nil
		}
	}

	sess.Restore(snap, alerts)
	persisted = persisted || snap != nil || len(alerts) > 0
	log.Debug("session restored", zap.Int("score", initial), zap.Int("alerts", len(alerts)), zap.Bool("persisted", persisted))
	return sess, persisted
}

func (m *Monitor) saveScore(ctx context.Context, subjectID string, score int) {
	s := domain.SafetyScore{SubjectID: subjectID, Score: score, UpdatedAt: m.now()}
	if m.scoreRepo != nil {
		if err := m.scoreRepo.Upsert(ctx, &s); err != nil {
			m.logger.Error("persist safety score", zap.String("subject_id", subjectID), zap.Error(err))
		}
	}
	m.notify(subjectID, NotifyScore, s)
}

func (m *Monitor) saveSnapshot(ctx context.Context, sess *Session) {
	if m.store == nil {
		return
	}
	snap := sess.Snapshot()
	if err := m.store.Save(ctx, &snap); err != nil {
		m.logger.Error("persist membership snapshot", zap.String("subject_id", snap.SubjectID), zap.Error(err))
	}
}

func (m *Monitor) notify(subjectID, kind string, payload any) {
	if m.notifier != nil {
		m.notifier.Notify(subjectID, kind, payload)
	}
}
