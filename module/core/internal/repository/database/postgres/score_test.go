package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/chalosafe/safezone/module/core/domain"
)

func TestScoreGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	ts := time.Unix(1715003456, 0)
	mock.ExpectQuery(`SELECT subject_id, score, updated_at FROM safety_scores WHERE subject_id = (.+)`).
		WithArgs("DT-1001").
		WillReturnRows(sqlmock.NewRows([]string{"subject_id", "score", "updated_at"}).AddRow("DT-1001", 85, ts))

	repo := NewScoreRepo(db)
	s, err := repo.Get(context.Background(), "DT-1001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Score != 85 {
		t.Errorf("expected 85, got %d", s.Score)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestScoreGet_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`SELECT subject_id, score, updated_at FROM safety_scores`).
		WithArgs("UNKNOWN").
		WillReturnRows(sqlmock.NewRows([]string{"subject_id", "score", "updated_at"}))

	repo := NewScoreRepo(db)
	_, err = repo.Get(context.Background(), "UNKNOWN")
	if !errors.Is(err, domain.ErrSubjectNotFound) {
		t.Fatalf("expected ErrSubjectNotFound, got %v", err)
	}
}

func TestScoreUpsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	ts := time.Unix(1715003456, 0)
	mock.ExpectExec(`INSERT INTO safety_scores (.+) ON CONFLICT \(subject_id\) DO UPDATE`).
		WithArgs("DT-1001", 95, ts).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewScoreRepo(db)
	err = repo.Upsert(context.Background(), &domain.SafetyScore{SubjectID: "DT-1001", Score: 95, UpdatedAt: ts})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
