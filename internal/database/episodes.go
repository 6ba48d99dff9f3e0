package database

import (
	"database/sql"
	"fmt"
	"time"
)

// StartRun records the start of an environment session
func (db *DB) StartRun(runID, windowRect, observationShape string) error {
	_, err := db.conn.Exec(`
		INSERT INTO runs (id, window_rect, observation_shape, started_at)
		VALUES (?, ?, ?, ?)
	`, runID, windowRect, observationShape, time.Now())
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// EndRun stamps the end time of a session
func (db *DB) EndRun(runID string) error {
	_, err := db.conn.Exec(`UPDATE runs SET ended_at = ? WHERE id = ?`, time.Now(), runID)
	return err
}

// GetRun loads a run by ID
func (db *DB) GetRun(runID string) (*Run, error) {
	run := &Run{}
	var endedAt sql.NullTime
	err := db.conn.QueryRow(`
		SELECT id, window_rect, observation_shape, started_at, ended_at
		FROM runs WHERE id = ?
	`, runID).Scan(&run.ID, &run.WindowRect, &run.ObservationShape, &run.StartedAt, &endedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, err
	}
	if endedAt.Valid {
		run.EndedAt = &endedAt.Time
	}
	return run, nil
}

// StartEpisode records a new episode of a run
func (db *DB) StartEpisode(runID, episodeID string, index int) error {
	_, err := db.conn.Exec(`
		INSERT INTO episodes (id, run_id, episode_index, started_at)
		VALUES (?, ?, ?, ?)
	`, episodeID, runID, index, time.Now())
	if err != nil {
		return fmt.Errorf("failed to insert episode: %w", err)
	}
	return nil
}

// EndEpisode stores the final counters of an episode
func (db *DB) EndEpisode(episodeID string, steps int, totalReward float64, terminal bool) error {
	result, err := db.conn.Exec(`
		UPDATE episodes
		SET ended_at = ?, steps = ?, total_reward = ?, terminal = ?
		WHERE id = ?
	`, time.Now(), steps, totalReward, terminal, episodeID)
	if err != nil {
		return fmt.Errorf("failed to update episode: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("episode %s not found", episodeID)
	}
	return nil
}

// GetEpisode loads an episode by ID
func (db *DB) GetEpisode(episodeID string) (*Episode, error) {
	ep := &Episode{}
	var endedAt sql.NullTime
	err := db.conn.QueryRow(`
		SELECT id, run_id, episode_index, started_at, ended_at, steps, total_reward, terminal
		FROM episodes WHERE id = ?
	`, episodeID).Scan(&ep.ID, &ep.RunID, &ep.Index, &ep.StartedAt, &endedAt, &ep.Steps, &ep.TotalReward, &ep.Terminal)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("episode %s not found", episodeID)
	}
	if err != nil {
		return nil, err
	}
	if endedAt.Valid {
		ep.EndedAt = &endedAt.Time
	}
	return ep, nil
}

// RecordDetection stores a reward event
func (db *DB) RecordDetection(d Detection) (int64, error) {
	if d.DetectedAt.IsZero() {
		d.DetectedAt = time.Now()
	}
	result, err := db.conn.Exec(`
		INSERT INTO detections (episode_id, step, event, template, score, reward, terminal, detected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, d.EpisodeID, d.Step, d.Event, d.Template, d.Score, d.Reward, d.Terminal, d.DetectedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert detection: %w", err)
	}
	return result.LastInsertId()
}

// ListDetections returns the detections of an episode in step order
func (db *DB) ListDetections(episodeID string) ([]Detection, error) {
	rows, err := db.conn.Query(`
		SELECT id, episode_id, step, event, template, score, reward, terminal, detected_at
		FROM detections WHERE episode_id = ?
		ORDER BY step, id
	`, episodeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Detection
	for rows.Next() {
		var d Detection
		if err := rows.Scan(&d.ID, &d.EpisodeID, &d.Step, &d.Event, &d.Template, &d.Score, &d.Reward, &d.Terminal, &d.DetectedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// LogError records an error event
func (db *DB) LogError(runID, source, component, message string) error {
	_, err := db.conn.Exec(`
		INSERT INTO error_log (run_id, source, component, error_message, occurred_at)
		VALUES (?, ?, ?, ?, ?)
	`, runID, source, component, message, time.Now())
	return err
}

// EpisodeStats summarises the episodes of a run
func (db *DB) EpisodeStats(runID string) (*EpisodeStats, error) {
	stats := &EpisodeStats{DetectionCounts: make(map[string]int)}

	var best sql.NullFloat64
	var mean sql.NullFloat64
	err := db.conn.QueryRow(`
		SELECT
			COUNT(*),
			COUNT(ended_at),
			COALESCE(SUM(CASE WHEN terminal THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(steps), 0),
			COALESCE(SUM(total_reward), 0),
			AVG(CASE WHEN ended_at IS NOT NULL THEN total_reward END),
			MAX(CASE WHEN ended_at IS NOT NULL THEN total_reward END)
		FROM episodes WHERE run_id = ?
	`, runID).Scan(&stats.Episodes, &stats.Finished, &stats.TerminalCount, &stats.TotalSteps,
		&stats.TotalReward, &mean, &best)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate episodes: %w", err)
	}
	stats.MeanReward = mean.Float64
	stats.BestReward = best.Float64

	rows, err := db.conn.Query(`
		SELECT d.event, COUNT(*)
		FROM detections d JOIN episodes e ON e.id = d.episode_id
		WHERE e.run_id = ?
		GROUP BY d.event
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var event string
		var count int
		if err := rows.Scan(&event, &count); err != nil {
			return nil, err
		}
		stats.DetectionCounts[event] = count
	}
	return stats, rows.Err()
}
