// Package database implements the SQLite-backed repositories for users,
// study groups, homeworks and pending registration requests.
package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps sql.DB for the homework bot.
type DB struct {
	*sql.DB
}

// NewDB opens the database at path and creates missing tables.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := createTables(db); err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS study_groups (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			grade INTEGER NOT NULL DEFAULT 0,
			letter TEXT NOT NULL DEFAULT '',
			title TEXT UNIQUE NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY,
			username TEXT NOT NULL DEFAULT '',
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			patronymic TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT 'GUEST',
			score INTEGER NOT NULL DEFAULT 0,
			group_id INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (group_id) REFERENCES study_groups(id)
		)`,

		// Many-to-many enrollment: a user belongs to their class group
		// and the catch-all group.
		`CREATE TABLE IF NOT EXISTS group_members (
			user_id INTEGER NOT NULL,
			group_id INTEGER NOT NULL,
			PRIMARY KEY (user_id, group_id),
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY (group_id) REFERENCES study_groups(id)
		)`,

		`CREATE TABLE IF NOT EXISTS homeworks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			group_id INTEGER NOT NULL,
			deadline DATETIME,
			deleted BOOLEAN NOT NULL DEFAULT 0,
			expired BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (group_id) REFERENCES study_groups(id)
		)`,

		`CREATE TABLE IF NOT EXISTS user_homeworks (
			homework_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			completed BOOLEAN NOT NULL DEFAULT 0,
			checked BOOLEAN NOT NULL DEFAULT 0,
			score INTEGER NOT NULL DEFAULT 0,
			deleted BOOLEAN NOT NULL DEFAULT 0,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (homework_id, user_id),
			FOREIGN KEY (homework_id) REFERENCES homeworks(id),
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		// Registration approval requests; messages holds "chat:message"
		// refs of the admin notifications for later retraction.
		`CREATE TABLE IF NOT EXISTS pending_requests (
			user_id INTEGER PRIMARY KEY,
			messages TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_homeworks_group ON homeworks(group_id)`,
		`CREATE INDEX IF NOT EXISTS idx_user_homeworks_user ON user_homeworks(user_id)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}

	// The catch-all group has a fixed id so registration can always find it.
	_, err := db.Exec(
		`INSERT OR IGNORE INTO study_groups (id, grade, letter, title) VALUES (0, 0, '', 'Матол')`)
	if err != nil {
		return fmt.Errorf("seed catch-all group: %w", err)
	}
	return nil
}
