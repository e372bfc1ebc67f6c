package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/chalosafe/safezone/module/core/domain"
	"github.com/chalosafe/safezone/module/core/internal/repository/database"
)

var _ database.LocationRepository = (*LocationRepo)(nil)

type LocationRepo struct {
	db *sql.DB
}

func NewLocationRepo(db *sql.DB) *LocationRepo {
	return &LocationRepo{db: db}
}

func (r *LocationRepo) Insert(ctx context.Context, s *domain.Sample) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO subject_locations (subject_id, latitude, longitude, accuracy, timestamp) VALUES ($1, $2, $3, $4, $5)`,
		s.SubjectID, s.Position.Lat, s.Position.Lon, s.Accuracy, s.Timestamp,
	)
	return err
}

// GetLatest returns domain.ErrSubjectNotFound when the subject never reported.
func (r *LocationRepo) GetLatest(ctx context.Context, subjectID string) (*domain.Sample, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT subject_id, latitude, longitude, accuracy, timestamp FROM subject_locations WHERE subject_id = $1 ORDER BY timestamp DESC LIMIT 1`,
		subjectID,
	)

	var s domain.Sample
	if err := row.Scan(&s.SubjectID, &s.Position.Lat, &s.Position.Lon, &s.Accuracy, &s.Timestamp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSubjectNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *LocationRepo) GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.Sample, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT subject_id, latitude, longitude, accuracy, timestamp FROM subject_locations WHERE subject_id = $1 AND timestamp >= $2 AND timestamp <= $3 ORDER BY timestamp ASC`,
		query.SubjectID, query.Start, query.End,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.Sample
	for rows.Next() {
		var s domain.Sample
		if err := rows.Scan(&s.SubjectID, &s.Position.Lat, &s.Position.Lon, &s.Accuracy, &s.Timestamp); err != nil {
			return nil, err
		}
		results = append(results, s)
	}
	return results, rows.Err()
}

func (r *LocationRepo) GetAllSubjects(ctx context.Context) ([]domain.Subject, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT subject_id FROM subject_locations ORDER BY subject_id`,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.Subject
	for rows.Next() {
		var s domain.Subject
		if err := rows.Scan(&s.SubjectID); err != nil {
			return nil, err
		}
		results = append(results, s)
	}
	return results, rows.Err()
}
