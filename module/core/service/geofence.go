package service

import (
	"sort"
	"time"

	"github.com/chalosafe/safezone/module/core/domain"
)

type zoneSource interface {
	Snapshot() []domain.Zone
}

// Evaluator tracks which zones one subject is inside and reports the
// transitions caused by each new position. It is not safe for concurrent use;
// Session serialises access.
type Evaluator struct {
	subjectID string
	zones     zoneSource
	members   map[string]struct{}
}

func NewEvaluator(subjectID string, zones zoneSource) *Evaluator {
	return &Evaluator{
		subjectID: subjectID,
		zones:     zones,
		members:   map[string]struct{}{},
	}
}

// Evaluate computes containment for position against every zone, diffs it with
// the previous membership and returns exits followed by entries, each ordered
// by zone id. An invalid position leaves the membership untouched.
func (e *Evaluator) Evaluate(position domain.Coordinate, ts time.Time) ([]domain.TransitionEvent, error) {
	if err := position.Validate(); err != nil {
		return nil, err
	}

	zones := e.zones.Snapshot()
	next := make(map[string]struct{}, len(e.members))
	for i := range zones {
		if zones[i].Contains(position) {
			next[zones[i].ID] = struct{}{}
		}
	}

	var exited, entered []string
	for id := range e.members {
		if _, ok := next[id]; !ok {
			exited = append(exited, id)
		}
	}
	for id := range next {
		if _, ok := e.members[id]; !ok {
			entered = append(entered, id)
		}
	}
	sort.Strings(exited)
	sort.Strings(entered)

	events := make([]domain.TransitionEvent, 0, len(exited)+len(entered))
	for _, id := range exited {
		events = append(events, e.event(id, domain.DirectionExiting, position, ts))
	}
	for _, id := range entered {
		events = append(events, e.event(id, domain.DirectionEntering, position, ts))
	}

	e.members = next
	return events, nil
}

// Membership returns the zone ids the subject is currently inside, sorted.
func (e *Evaluator) Membership() []string {
	ids := make([]string, 0, len(e.members))
	for id := range e.members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Restore replaces the membership, used when resuming a persisted session.
func (e *Evaluator) Restore(zoneIDs []string) {
	e.members = make(map[string]struct{}, len(zoneIDs))
	for _, id := range zoneIDs {
		e.members[id] = struct{}{}
	}
}

func (e *Evaluator) event(zoneID string, dir domain.Direction, pos domain.Coordinate, ts time.Time) domain.TransitionEvent {
	return domain.TransitionEvent{
		SubjectID: e.subjectID,
		ZoneID:    zoneID,
		Direction: dir,
		Timestamp: ts,
		Position:  pos,
	}
}
