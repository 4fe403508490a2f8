package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS transcriptions (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    job_id         TEXT     NOT NULL,
    engine         TEXT     NOT NULL DEFAULT '',
    model          TEXT     NOT NULL DEFAULT '',
    file_name      TEXT     NOT NULL,
    file_path      TEXT     NOT NULL DEFAULT '',
    audio_duration REAL     NOT NULL DEFAULT 0,
    transcription  TEXT     NOT NULL DEFAULT '',
    output_path    TEXT     NOT NULL DEFAULT '',
    created_at     DATETIME NOT NULL,
    has_error      INTEGER  NOT NULL DEFAULT 0,
    error_message  TEXT     NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_transcriptions_file_name ON transcriptions (file_name);
CREATE INDEX IF NOT EXISTS idx_transcriptions_created_at ON transcriptions (created_at);
`

// Open opens (creating if needed) the history database at dbPath and
// ensures the schema exists.
func Open(dbPath string) (*SQLiteDB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=rwc&_busy_timeout=5000", dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := InitSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return NewSQLiteDB(db), nil
}

// InitSchema creates the transcriptions table and its indexes.
func InitSchema(db *sql.DB) error {
	if _, err := db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}
