// Package reports provides the PostgreSQL-backed repository for accepted
// hazard reports.
package reports

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ibalodis/fieldsignal/internal/dbx"
	"github.com/ibalodis/fieldsignal/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, report *models.Report) error {
	mediaKeys, err := json.Marshal(report.MediaKeys)
	if err != nil {
		return fmt.Errorf("marshal media keys: %w", err)
	}

	query := `
		INSERT INTO reports (id, user_id, latitude, longitude, description,
			severity, hazard_type, urgency, location_label,
			reporter_name, reporter_contact, media_keys, created_at, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = r.db.ExecContext(ctx, query,
		report.ID, report.UserID, report.Latitude, report.Longitude, report.Description,
		report.Severity, report.HazardType, report.Urgency, report.LocationLabel,
		report.ReporterName, report.ReporterContact, mediaKeys, report.CreatedAt, report.ReceivedAt)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

// List returns the latest reports, newest first.
func (r *PostgresRepository) List(ctx context.Context, limit int) ([]models.Report, error) {
	query := `
		SELECT id, user_id, latitude, longitude, description,
			severity, hazard_type, urgency, location_label,
			reporter_name, reporter_contact, media_keys, created_at, received_at
		FROM reports
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select reports: %w", err)
	}
	defer rows.Close()

	var result []models.Report
	for rows.Next() {
		var item models.Report
		var mediaKeys []byte
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.Latitude, &item.Longitude, &item.Description,
			&item.Severity, &item.HazardType, &item.Urgency, &item.LocationLabel,
			&item.ReporterName, &item.ReporterContact, &mediaKeys, &item.CreatedAt, &item.ReceivedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(mediaKeys, &item.MediaKeys); err != nil {
			return nil, fmt.Errorf("unmarshal media keys: %w", err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
