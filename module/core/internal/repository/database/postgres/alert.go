package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/chalosafe/safezone/module/core/domain"
	"github.com/chalosafe/safezone/module/core/internal/repository/database"
)

var _ database.AlertRepository = (*AlertRepo)(nil)

type AlertRepo struct {
	db *sql.DB
}

func NewAlertRepo(db *sql.DB) *AlertRepo {
	return &AlertRepo{db: db}
}

func (r *AlertRepo) Insert(ctx context.Context, a *domain.Alert) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO alerts (id, subject_id, zone_id, zone_name, zone_classification, direction, severity, latitude, longitude, timestamp, acknowledged, acknowledged_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		a.ID, a.SubjectID, a.ZoneID, a.ZoneName, string(a.ZoneClassification), string(a.Direction), string(a.Severity),
		a.Position.Lat, a.Position.Lon, a.Timestamp, a.Acknowledged, a.AcknowledgedAt,
	)
	return err
}

// Acknowledge keeps the first acknowledgement time when called twice.
func (r *AlertRepo) Acknowledge(ctx context.Context, alertID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE alerts SET acknowledged = TRUE, acknowledged_at = COALESCE(acknowledged_at, $2) WHERE id = $1`,
		alertID, at,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("alert %s: %w", alertID, domain.ErrAlertNotFound)
	}
	return nil
}

// ListBySubject returns the subject's alerts in the order they were raised.
func (r *AlertRepo) ListBySubject(ctx context.Context, subjectID string) ([]domain.Alert, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, subject_id, zone_id, zone_name, zone_classification, direction, severity, latitude, longitude, timestamp, acknowledged, acknowledged_at
		FROM alerts WHERE subject_id = $1 ORDER BY timestamp ASC`,
		subjectID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.Alert
	for rows.Next() {
		var (
			a       domain.Alert
			ackedAt sql.NullTime
		)
		if err := rows.Scan(&a.ID, &a.SubjectID, &a.ZoneID, &a.ZoneName, &a.ZoneClassification, &a.Direction, &a.Severity,
			&a.Position.Lat, &a.Position.Lon, &a.Timestamp, &a.Acknowledged, &ackedAt); err != nil {
			return nil, err
		}
		if ackedAt.Valid {
			t := ackedAt.Time
			a.AcknowledgedAt = &t
		}
		results = append(results, a)
	}
	return results, rows.Err()
}
