package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ibalodis/fieldsignal/internal/client/models"
	"github.com/ibalodis/fieldsignal/internal/common"
	"github.com/ibalodis/fieldsignal/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Save upserts a report by id. Payload and media refs are stored as JSON so
// the row always carries the full record.
func (r *SQLiteRepository) Save(ctx context.Context, report *models.QueuedReport) error {
	payload, err := json.Marshal(report.Payload)
	if err != nil {
		return fmt.Errorf("%w: marshal payload: %v", common.ErrStorage, err)
	}
	media, err := json.Marshal(report.MediaRefs)
	if err != nil {
		return fmt.Errorf("%w: marshal media refs: %v", common.ErrStorage, err)
	}

	query := `INSERT INTO reports (id, payload, media_refs, created_at, sync_state)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET payload = excluded.payload,
				media_refs = excluded.media_refs,
				created_at = excluded.created_at,
				sync_state = excluded.sync_state
	`
	_, err = r.db.ExecContext(ctx, query,
		report.ID, payload, media, report.CreatedAt.UTC().Format(time.RFC3339Nano), string(report.SyncState))
	if err != nil {
		return fmt.Errorf("%w: failed to upsert report: %v", common.ErrStorage, err)
	}
	return nil
}

// GetAll re-scans the reports table and returns every record.
func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.QueuedReport, error) {
	query := `SELECT id, payload, media_refs, created_at, sync_state FROM reports`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to select reports: %v", common.ErrStorage, err)
	}
	defer rows.Close()

	var result []models.QueuedReport
	for rows.Next() {
		item, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	return result, nil
}

// MarkSynced flips sync_state to synced. The predicate only ever moves a
// record forward; an already-synced row is left untouched.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	query := `UPDATE reports SET sync_state = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, string(models.SyncStateSynced), id)
	if err != nil {
		return fmt.Errorf("%w: failed to mark report synced: %v", common.ErrStorage, err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected: %v", common.ErrStorage, err)
	}
	if ra == 0 {
		return fmt.Errorf("%w: report %s", common.ErrNotFound, id)
	}
	return nil
}

// Remove deletes a report row. A missing id is a no-op.
func (r *SQLiteRepository) Remove(ctx context.Context, id string) error {
	query := `DELETE FROM reports WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("%w: failed to remove report: %v", common.ErrStorage, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*models.QueuedReport, error) {
	var payload, media []byte
	var createdAt, syncState string

	item := &models.QueuedReport{}
	if err := row.Scan(&item.ID, &payload, &media, &createdAt, &syncState); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: scan report: %v", common.ErrStorage, err)
	}

	if err := json.Unmarshal(payload, &item.Payload); err != nil {
		return nil, fmt.Errorf("%w: unmarshal payload: %v", common.ErrStorage, err)
	}
	if err := json.Unmarshal(media, &item.MediaRefs); err != nil {
		return nil, fmt.Errorf("%w: unmarshal media refs: %v", common.ErrStorage, err)
	}

	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("%w: parse created_at: %v", common.ErrStorage, err)
	}
	item.CreatedAt = ts
	item.SyncState = models.SyncState(syncState)
	return item, nil
}
