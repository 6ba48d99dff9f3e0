package database

import (
	"database/sql"
	"fmt"
	"time"

	"jordanella.com/kanjuden-gym/internal/logging"
)

// Migration is one schema step. Down is kept for manual rollbacks.
type Migration struct {
	Version     int
	Description string
	Up          string
	Down        string
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "schema_version",
		Up: `CREATE TABLE IF NOT EXISTS schema_version (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			version INTEGER NOT NULL UNIQUE,
			description TEXT NOT NULL,
			applied_at DATETIME NOT NULL
		)`,
		Down: `DROP TABLE IF EXISTS schema_version`,
	},
	{
		Version:     2,
		Description: "runs",
		Up: `CREATE TABLE runs (
			id TEXT PRIMARY KEY,
			window_rect TEXT NOT NULL,
			observation_shape TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			ended_at DATETIME
		)`,
		Down: `DROP TABLE IF EXISTS runs`,
	},
	{
		Version:     3,
		Description: "episodes",
		Up: `CREATE TABLE episodes (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			episode_index INTEGER NOT NULL,
			started_at DATETIME NOT NULL,
			ended_at DATETIME,
			steps INTEGER NOT NULL DEFAULT 0,
			total_reward REAL NOT NULL DEFAULT 0,
			terminal BOOLEAN NOT NULL DEFAULT 0
		);
		CREATE INDEX idx_episodes_run ON episodes(run_id, episode_index);`,
		Down: `DROP TABLE IF EXISTS episodes`,
	},
	{
		Version:     4,
		Description: "detections and error_log",
		Up: `CREATE TABLE detections (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			episode_id TEXT NOT NULL REFERENCES episodes(id) ON DELETE CASCADE,
			step INTEGER NOT NULL,
			event TEXT NOT NULL,
			template TEXT NOT NULL,
			score REAL NOT NULL,
			reward REAL NOT NULL,
			terminal BOOLEAN NOT NULL DEFAULT 0,
			detected_at DATETIME NOT NULL
		);
		CREATE INDEX idx_detections_episode ON detections(episode_id);
		CREATE INDEX idx_detections_event ON detections(event);
		CREATE TABLE error_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT,
			source TEXT NOT NULL,
			component TEXT NOT NULL,
			error_message TEXT NOT NULL,
			occurred_at DATETIME NOT NULL
		);`,
		Down: `DROP TABLE IF EXISTS error_log; DROP TABLE IF EXISTS detections;`,
	},
}

// LatestVersion is the schema version this build migrates to
func LatestVersion() int {
	return migrations[len(migrations)-1].Version
}

var migrationLogger = logging.NewLogger("Database")

// RunMigrations applies every migration above the stored version, each in
// its own transaction.
func (db *DB) RunMigrations() error {
	current, err := db.GetVersion()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if current > LatestVersion() {
		return fmt.Errorf("database schema version %d is newer than supported version %d", current, LatestVersion())
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		migrationLogger.InfoWithContext("Applying migration", map[string]interface{}{
			"version":     m.Version,
			"description": m.Description,
		})

		err := db.inTx(func(tx *sql.Tx) error {
			if _, err := tx.Exec(m.Up); err != nil {
				return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
			}
			_, err := tx.Exec(
				`INSERT INTO schema_version (version, description, applied_at) VALUES (?, ?, ?)`,
				m.Version, m.Description, time.Now(),
			)
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}
