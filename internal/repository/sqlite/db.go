package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"calai/internal/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS meals (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	query TEXT NOT NULL DEFAULT '',
	image_path TEXT NOT NULL DEFAULT '',
	summary TEXT NOT NULL,
	segments TEXT NOT NULL,
	analyzed_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS chat_turns (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS photos (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	file_name TEXT NOT NULL,
	original_name TEXT NOT NULL,
	file_type TEXT NOT NULL,
	file_size INTEGER NOT NULL,
	storage_key TEXT NOT NULL,
	content_type TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_meals_session ON meals(session_id, analyzed_at);
CREATE INDEX IF NOT EXISTS idx_chat_turns_session ON chat_turns(session_id, id);
CREATE INDEX IF NOT EXISTS idx_photos_session ON photos(session_id);
`

// NewDB opens the SQLite database and ensures the schema exists.
func NewDB(cfg *config.DBConfig) (*sql.DB, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// modernc.org/sqlite serializes writes through a single connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return db, nil
}
