package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ibalodis/fieldsignal/internal/common"
	"github.com/ibalodis/fieldsignal/internal/dbx"
)

// Well-known metadata keys.
const (
	MetaAccessToken = "access_token"
	MetaUserName    = "username"
)

// SQLiteMetadataRepository implements MetadataRepository over the metadata
// table in the client database.
type SQLiteMetadataRepository struct {
	db *sql.DB
}

func NewSQLiteMetadataRepository(db *sql.DB) *SQLiteMetadataRepository {
	return &SQLiteMetadataRepository{db: db}
}

// Get returns the stored value or common.ErrNotFound when the key is absent.
func (r *SQLiteMetadataRepository) Get(ctx context.Context, name string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", common.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: failed to get metadata[%s]: %v", common.ErrStorage, name, err)
	}
	return value, nil
}

func (r *SQLiteMetadataRepository) Set(ctx context.Context, name string, value string) error {
	return setValue(ctx, r.db, name, value)
}

// SetSession stores the access token and user name in one transaction so a
// crash between the two writes cannot leave a half-written session.
func (r *SQLiteMetadataRepository) SetSession(ctx context.Context, token, username string) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := setValue(ctx, tx, MetaAccessToken, token); err != nil {
			return err
		}
		return setValue(ctx, tx, MetaUserName, username)
	})
}

// Clear wipes all session metadata (used on logout).
func (r *SQLiteMetadataRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM metadata`); err != nil {
		return fmt.Errorf("%w: failed to clear metadata: %v", common.ErrStorage, err)
	}
	return nil
}

func setValue(ctx context.Context, db dbx.DBTX, name string, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO metadata (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value
	`, name, value)
	if err != nil {
		return fmt.Errorf("%w: failed to set metadata[%s]: %v", common.ErrStorage, name, err)
	}
	return nil
}
