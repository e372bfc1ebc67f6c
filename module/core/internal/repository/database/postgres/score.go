package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/chalosafe/safezone/module/core/domain"
	"github.com/chalosafe/safezone/module/core/internal/repository/database"
)

var _ database.ScoreRepository = (*ScoreRepo)(nil)

type ScoreRepo struct {
	db *sql.DB
}

func NewScoreRepo(db *sql.DB) *ScoreRepo {
	return &ScoreRepo{db: db}
}

func (r *ScoreRepo) Get(ctx context.Context, subjectID string) (*domain.SafetyScore, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT subject_id, score, updated_at FROM safety_scores WHERE subject_id = $1`,
		subjectID,
	)

	var s domain.SafetyScore
	if err := row.Scan(&s.SubjectID, &s.Score, &s.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSubjectNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *ScoreRepo) Upsert(ctx context.Context, s *domain.SafetyScore) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO safety_scores (subject_id, score, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (subject_id) DO UPDATE SET score = EXCLUDED.score, updated_at = EXCLUDED.updated_at`,
		s.SubjectID, s.Score, s.UpdatedAt,
	)
	return err
}
