package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// OpenSession creates a private in-memory SQLite database for one study
// session and applies the schema. The database lives exactly as long as the
// session: closing the handle discards everything.
func OpenSession() (*sql.DB, error) {
	conn, err := sql.Open("sqlite", "file::memory:?_foreign_keys=1")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// A second connection would see a different :memory: database.
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return conn, nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS topics (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			topic_key TEXT NOT NULL UNIQUE,
			topic TEXT NOT NULL,
			summary TEXT NOT NULL DEFAULT '',
			updated_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS quiz_items (
			id TEXT PRIMARY KEY,
			quiz_id TEXT NOT NULL,
			topic_key TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY(topic_key) REFERENCES topics(topic_key) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS attempts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			item_id TEXT NOT NULL,
			submitted TEXT NOT NULL,
			is_correct INTEGER NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY(item_id) REFERENCES quiz_items(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS exchanges (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_quiz_items_quiz ON quiz_items(quiz_id);`,
		`CREATE INDEX IF NOT EXISTS idx_quiz_items_topic ON quiz_items(topic_key);`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_item ON attempts(item_id);`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("execute %q: %w", stmt, err)
		}
	}
	return nil
}
