package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/fieldaudit/internal/apperr"
	"github.com/starford/fieldaudit/internal/models"
)

const recordsSchemaSQL = `
CREATE TABLE IF NOT EXISTS records (
	id       TEXT PRIMARY KEY,
	data     TEXT NOT NULL,
	saved_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLite is the primary record backend: one table keyed by record ID with
// the snapshot stored as a JSON document.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("storage: create db dir: %w", err)
	}
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("storage: open db: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}
	if _, err := conn.ExecContext(ctx, recordsSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: apply schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

func (db *SQLite) Name() string { return "sqlite" }

// PutRecord upserts the record inside a read-write transaction.
func (db *SQLite) PutRecord(ctx context.Context, rec models.Record) error {
	data, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("storage: marshal record: %w", err)
	}
	savedAt := rec.Data.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now().UTC()
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.ExecContext(ctx, `
		INSERT INTO records (id, data, saved_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			data     = excluded.data,
			saved_at = excluded.saved_at
	`, rec.ID, string(data), savedAt)
	if err != nil {
		return fmt.Errorf("storage: upsert record: %w", err)
	}
	return tx.Commit()
}

// GetRecord reads the snapshot stored under id.
func (db *SQLite) GetRecord(ctx context.Context, id string) (models.Snapshot, error) {
	var data string
	err := db.conn.QueryRowContext(ctx, `SELECT data FROM records WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Snapshot{}, apperr.ErrNotFound
	}
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("storage: get record: %w", err)
	}
	return models.DecodeRecord([]byte(data))
}

// DeleteRecord removes the record; deleting a missing record is a no-op.
func (db *SQLite) DeleteRecord(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id); err != nil {
		return fmt.Errorf("storage: delete record: %w", err)
	}
	return tx.Commit()
}

// Close closes the underlying database connection.
func (db *SQLite) Close() error {
	return db.conn.Close()
}
