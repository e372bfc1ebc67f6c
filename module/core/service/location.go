package service

import (
	"context"
	"fmt"

	"github.com/chalosafe/safezone/module/core/domain"
	"github.com/chalosafe/safezone/module/core/internal/repository/database"
)

// LocationService keeps the raw position history. It is independent of zone
// evaluation: a sample is stored whether or not it changed any membership.
type LocationService struct {
	repo database.LocationRepository
}

func NewLocationService(repo database.LocationRepository) *LocationService {
	return &LocationService{repo: repo}
}

// SaveLocation rejects samples that could never be evaluated so the history
// only holds usable fixes.
func (s *LocationService) SaveLocation(ctx context.Context, sample *domain.Sample) error {
	if sample.SubjectID == "" {
		return fmt.Errorf("%w: subject_id is required", domain.ErrInvalidPosition)
	}
	if err := sample.Position.Validate(); err != nil {
		return err
	}
	if err := s.repo.Insert(ctx, sample); err != nil {
		return fmt.Errorf("store location of %s: %w", sample.SubjectID, err)
	}
	return nil
}

func (s *LocationService) GetLatest(ctx context.Context, subjectID string) (*domain.Sample, error) {
	return s.repo.GetLatest(ctx, subjectID)
}

// GetHistory returns samples within the inclusive window, oldest first. An
// inverted window yields nothing without touching the store.
func (s *LocationService) GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.Sample, error) {
	if query.End.Before(query.Start) {
		return []domain.Sample{}, nil
	}
	samples, err := s.repo.GetHistory(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("history of %s: %w", query.SubjectID, err)
	}
	return samples, nil
}

func (s *LocationService) GetAllSubjects(ctx context.Context) ([]domain.Subject, error) {
	return s.repo.GetAllSubjects(ctx)
}
