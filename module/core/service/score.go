package service

import "github.com/chalosafe/safezone/module/core/domain"

const (
	MinScore     = 0
	MaxScore     = 100
	DefaultScore = MaxScore
)

// ScoreDelta maps an alert severity to its score adjustment.
func ScoreDelta(s domain.Severity) int {
	switch s {
	case domain.SeverityHigh:
		return -5
	case domain.SeverityMedium:
		return -2
	default:
		return 1
	}
}

// ScoreAdjuster keeps a safety score clamped to [MinScore, MaxScore].
type ScoreAdjuster struct {
	score int
}

func NewScoreAdjuster(initial int) *ScoreAdjuster {
	return &ScoreAdjuster{score: clamp(initial)}
}

func (s *ScoreAdjuster) ApplyAlert(alert domain.Alert) int {
	return s.apply(ScoreDelta(alert.Severity))
}

// Recover applies the periodic +1 given while no incident is open.
func (s *ScoreAdjuster) Recover() int {
	return s.apply(1)
}

func (s *ScoreAdjuster) Score() int {
	return s.score
}

func (s *ScoreAdjuster) apply(delta int) int {
	s.score = clamp(s.score + delta)
	return s.score
}

func clamp(v int) int {
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}
