package store

import (
	"context"

	"github.com/ibalodis/fieldsignal/internal/client/models"
)

// Repository is the durable local store for queued reports: a persistent
// mapping from report ID to the full record, surviving process restarts.
// It is the single source of truth for sync state; in-memory views held by
// callers must be re-derivable from it at any time.
type Repository interface {
	// Save persists or overwrites one record, atomically for that key.
	Save(ctx context.Context, report *models.QueuedReport) error

	// GetAll returns every stored record. Each call re-scans the store.
	GetAll(ctx context.Context) ([]models.QueuedReport, error)

	// MarkSynced flips a record's sync state to Synced. The transition is
	// one-way; a Synced record is never reverted.
	MarkSynced(ctx context.Context, id string) error

	// Remove deletes a record. Removing an absent ID is a no-op.
	Remove(ctx context.Context, id string) error
}

// MetadataRepository is a small key/value store in the same database,
// holding session data (access token, user name) for offline use.
type MetadataRepository interface {
	Get(ctx context.Context, name string) (string, error)
	Set(ctx context.Context, name string, value string) error

	// SetSession atomically stores the access token and user name.
	SetSession(ctx context.Context, token, username string) error

	Clear(ctx context.Context) error
}
