package database

import (
	"context"
	"time"

	"github.com/chalosafe/safezone/module/core/domain"
)

type LocationRepository interface {
	Insert(ctx context.Context, sample *domain.Sample) error
	GetLatest(ctx context.Context, subjectID string) (*domain.Sample, error)
	GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.Sample, error)
	GetAllSubjects(ctx context.Context) ([]domain.Subject, error)
}

type AlertRepository interface {
	Insert(ctx context.Context, alert *domain.Alert) error
	Acknowledge(ctx context.Context, alertID string, at time.Time) error
	ListBySubject(ctx context.Context, subjectID string) ([]domain.Alert, error)
}

type ScoreRepository interface {
	Get(ctx context.Context, subjectID string) (*domain.SafetyScore, error)
	Upsert(ctx context.Context, score *domain.SafetyScore) error
}

type EmergencyRepository interface {
	Insert(ctx context.Context, e *domain.Emergency) error
	Get(ctx context.Context, id string) (*domain.Emergency, error)
	Resolve(ctx context.Context, id string, at time.Time) error
	ListActive(ctx context.Context) ([]domain.Emergency, error)
}
