package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chalosafe/safezone/module/core/domain"
)

type zoneLookup interface {
	Zone(id string) (domain.Zone, bool)
}

// AlertManager turns transition events into alerts for one subject. At most one
// unacknowledged alert exists per zone; entries while one is open are
// suppressed. Alerts are kept for the whole session.
type AlertManager struct {
	subjectID string
	zones     zoneLookup
	history   []*domain.Alert
	byID      map[string]*domain.Alert
	open      map[string]*domain.Alert // zone id -> unacknowledged alert

	now   func() time.Time
	newID func() string
}

func NewAlertManager(subjectID string, zones zoneLookup) *AlertManager {
	return &AlertManager{
		subjectID: subjectID,
		zones:     zones,
		byID:      map[string]*domain.Alert{},
		open:      map[string]*domain.Alert{},
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
}

// OnTransition returns the alert raised by event, or nil when the event is an
// exit, targets a safe or unknown zone, or is suppressed by an open alert.
func (m *AlertManager) OnTransition(event domain.TransitionEvent) *domain.Alert {
	if event.Direction != domain.DirectionEntering {
		return nil
	}

	zone, ok := m.zones.Zone(event.ZoneID)
	if !ok || !zone.Classification.AlertWorthy() {
		return nil
	}
	if _, pending := m.open[zone.ID]; pending {
		return nil
	}

	alert := &domain.Alert{
		ID:                 m.newID(),
		SubjectID:          m.subjectID,
		ZoneID:             zone.ID,
		ZoneName:           zone.Name,
		ZoneClassification: zone.Classification,
		Direction:          event.Direction,
		Severity:           zone.AlertLevel,
		Position:           event.Position,
		Timestamp:          event.Timestamp,
	}
	m.add(alert)

	out := *alert
	return &out
}

// Acknowledge marks the alert as seen. Acknowledging twice is a no-op.
func (m *AlertManager) Acknowledge(alertID string) (domain.Alert, error) {
	alert, ok := m.byID[alertID]
	if !ok {
		return domain.Alert{}, fmt.Errorf("%w: %s", domain.ErrAlertNotFound, alertID)
	}
	if !alert.Acknowledged {
		at := m.now()
		alert.Acknowledged = true
		alert.AcknowledgedAt = &at
		if m.open[alert.ZoneID] == alert {
			delete(m.open, alert.ZoneID)
		}
	}
	return *alert, nil
}

// Alerts returns the alert history, newest first.
func (m *AlertManager) Alerts() []domain.Alert {
	out := make([]domain.Alert, 0, len(m.history))
	for i := len(m.history) - 1; i >= 0; i-- {
		out = append(out, *m.history[i])
	}
	return out
}

func (m *AlertManager) UnreadCount() int {
	return len(m.open)
}

// Restore loads previously persisted alerts, oldest first.
func (m *AlertManager) Restore(alerts []domain.Alert) {
	for i := range alerts {
		a := alerts[i]
		if _, exists := m.byID[a.ID]; exists {
			continue
		}
		m.add(&a)
	}
}

func (m *AlertManager) add(alert *domain.Alert) {
	m.history = append(m.history, alert)
	m.byID[alert.ID] = alert
	if !alert.Acknowledged {
		m.open[alert.ZoneID] = alert
	}
}
