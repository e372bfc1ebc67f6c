package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chalosafe/safezone/module/core/domain"
	"github.com/chalosafe/safezone/module/core/internal/repository/database"
	"github.com/chalosafe/safezone/module/core/internal/repository/publisher"
)

const (
	defaultEmergencyMessage = "Emergency SOS activated"
	defaultEmergencyType    = "emergency"
)

type SOSRequest struct {
	SubjectID string
	Position  domain.Coordinate
	Message   string
	Type      string
	Severity  domain.Severity
}

// EmergencyService records SOS requests and hands them to the broker for
// dispatch.
type EmergencyService struct {
	repo      database.EmergencyRepository
	publisher publisher.EventPublisher
	notifier  Notifier
	logger    *zap.Logger
	now       func() time.Time
}

func NewEmergencyService(repo database.EmergencyRepository, pub publisher.EventPublisher, notifier Notifier, logger *zap.Logger) *EmergencyService {
	return &EmergencyService{
		repo:      repo,
		publisher: pub,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *EmergencyService) Raise(ctx context.Context, req SOSRequest) (*domain.Emergency, error) {
	if req.SubjectID == "" {
		return nil, fmt.Errorf("subject_id: required")
	}
	if err := req.Position.Validate(); err != nil {
		return nil, err
	}

	e := &domain.Emergency{
		ID:        uuid.NewString(),
		SubjectID: req.SubjectID,
		Position:  req.Position,
		Message:   req.Message,
		Type:      req.Type,
		Severity:  req.Severity,
		Status:    domain.EmergencyActive,
		Timestamp: s.now(),
	}
	if e.Message == "" {
		e.Message = defaultEmergencyMessage
	}
	if e.Type == "" {
		e.Type = defaultEmergencyType
	}
	if e.Severity == "" {
		e.Severity = domain.SeverityHigh
	}

	if err := s.repo.Insert(ctx, e); err != nil {
		return nil, fmt.Errorf("store emergency: %w", err)
	}

	s.logger.Warn("emergency raised",
		zap.String("emergency_id", e.ID),
		zap.String("subject_id", e.SubjectID),
		zap.Float64("latitude", e.Position.Lat),
		zap.Float64("longitude", e.Position.Lon),
	)

	if err := s.publisher.PublishEmergency(ctx, e); err != nil {
		s.logger.Error("publish emergency", zap.String("emergency_id", e.ID), zap.Error(err))
	}
	if s.notifier != nil {
		s.notifier.Notify(e.SubjectID, NotifyEmergency, e)
	}
	return e, nil
}

func (s *EmergencyService) Resolve(ctx context.Context, id string) (*domain.Emergency, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status == domain.EmergencyResolved {
		return e, nil
	}

	at := s.now()
	if err := s.repo.Resolve(ctx, id, at); err != nil {
		return nil, fmt.Errorf("resolve emergency: %w", err)
	}
	e.Status = domain.EmergencyResolved
	e.ResolvedAt = &at
	return e, nil
}

func (s *EmergencyService) ListActive(ctx context.Context) ([]domain.Emergency, error) {
	return s.repo.ListActive(ctx)
}
