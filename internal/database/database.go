// Package database stores runs, episodes and reward detections in SQLite.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DB is the training history store. A single connection is kept open so
// writes from the recorder are serialized.
type DB struct {
	conn *sql.DB
	path string
}

// Open creates the parent directory if needed and connects with foreign
// keys enforced. Callers run RunMigrations before recording.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database %s: %w", path, err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	return &DB{conn: conn, path: path}, nil
}

func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

func (db *DB) Path() string {
	return db.path
}

// inTx commits when fn succeeds and rolls back otherwise.
func (db *DB) inTx(fn func(*sql.Tx) error) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%v (rollback: %w)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

// GetVersion reports the highest applied migration, 0 for a fresh file.
func (db *DB) GetVersion() (int, error) {
	var exists bool
	if err := db.conn.QueryRow(
		`SELECT COUNT(*) > 0 FROM sqlite_master WHERE type = 'table' AND name = 'schema_version'`,
	).Scan(&exists); err != nil || !exists {
		return 0, err
	}

	var version int
	err := db.conn.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	return version, err
}

var historyTables = []string{"runs", "episodes", "detections", "error_log"}

// GetStats returns row counts for the history tables that exist.
func (db *DB) GetStats() (map[string]int64, error) {
	stats := make(map[string]int64, len(historyTables))
	for _, table := range historyTables {
		var count int64
		if err := db.conn.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			continue
		}
		stats[table] = count
	}
	return stats, nil
}
