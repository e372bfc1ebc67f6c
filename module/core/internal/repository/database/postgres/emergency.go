package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/chalosafe/safezone/module/core/domain"
	"github.com/chalosafe/safezone/module/core/internal/repository/database"
)

var _ database.EmergencyRepository = (*EmergencyRepo)(nil)

type EmergencyRepo struct {
	db *sql.DB
}

func NewEmergencyRepo(db *sql.DB) *EmergencyRepo {
	return &EmergencyRepo{db: db}
}

const emergencyColumns = `id, subject_id, latitude, longitude, message, type, severity, status, timestamp, resolved_at`

func (r *EmergencyRepo) Insert(ctx context.Context, e *domain.Emergency) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO emergencies (`+emergencyColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.SubjectID, e.Position.Lat, e.Position.Lon, e.Message, e.Type, string(e.Severity), string(e.Status), e.Timestamp, e.ResolvedAt,
	)
	return err
}

func (r *EmergencyRepo) Get(ctx context.Context, id string) (*domain.Emergency, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+emergencyColumns+` FROM emergencies WHERE id = $1`,
		id,
	)
	e, err := scanEmergency(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("emergency %s: %w", id, domain.ErrEmergencyNotFound)
	}
	return e, err
}

func (r *EmergencyRepo) Resolve(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE emergencies SET status = $2, resolved_at = $3 WHERE id = $1`,
		id, string(domain.EmergencyResolved), at,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("emergency %s: %w", id, domain.ErrEmergencyNotFound)
	}
	return nil
}

// ListActive returns unresolved emergencies, newest first.
func (r *EmergencyRepo) ListActive(ctx context.Context) ([]domain.Emergency, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+emergencyColumns+` FROM emergencies WHERE status = $1 ORDER BY timestamp DESC`,
		string(domain.EmergencyActive),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.Emergency
	for rows.Next() {
		e, err := scanEmergency(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *e)
	}
	return results, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmergency(row rowScanner) (*domain.Emergency, error) {
	var (
		e          domain.Emergency
		resolvedAt sql.NullTime
	)
	if err := row.Scan(&e.ID, &e.SubjectID, &e.Position.Lat, &e.Position.Lon, &e.Message, &e.Type,
		&e.Severity, &e.Status, &e.Timestamp, &resolvedAt); err != nil {
		return nil, err
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		e.ResolvedAt = &t
	}
	return &e, nil
}
