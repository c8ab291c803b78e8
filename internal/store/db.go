package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/desklinehq/deskline/internal/types"
	_ "modernc.org/sqlite"
)

const snapshotKey = "snapshot"

const schemaSQL = `
-- Client-side state, one JSON document per key
CREATE TABLE IF NOT EXISTS deskline_state (
  key TEXT PRIMARY KEY,          -- e.g., "snapshot"
  value TEXT NOT NULL,           -- JSON document
  updated_at INTEGER NOT NULL    -- unix ms of last write
);
`

// DB is the SQLite-backed store.
type DB struct {
	conn *sql.DB
}

// Open opens (creating if needed) the state database at path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = conn.Close()
		return nil, err
	}

	if _, err := conn.Exec(schemaSQL); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the underlying database.
func (d *DB) Close() error {
	return d.conn.Close()
}

// SaveSnapshot replaces the stored snapshot.
func (d *DB) SaveSnapshot(snap *types.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = d.conn.Exec(
		"INSERT OR REPLACE INTO deskline_state (key, value, updated_at) VALUES (?, ?, ?)",
		snapshotKey, string(data), time.Now().UnixMilli(),
	)
	return err
}

// LoadSnapshot returns the stored snapshot, or (nil, nil) when none
// has been saved.
func (d *DB) LoadSnapshot() (*types.Snapshot, error) {
	row := d.conn.QueryRow("SELECT value FROM deskline_state WHERE key = ?", snapshotKey)
	var value string
	if err := row.Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	var snap types.Snapshot
	if err := json.Unmarshal([]byte(value), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// ClearSnapshot removes the stored snapshot.
func (d *DB) ClearSnapshot() error {
	_, err := d.conn.Exec("DELETE FROM deskline_state WHERE key = ?", snapshotKey)
	return err
}
