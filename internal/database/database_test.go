package database

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"jordanella.com/kanjuden-gym/internal/events"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.RunMigrations(); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}
	return db
}

func TestMigrationsReachLatestVersion(t *testing.T) {
	db := openTestDB(t)

	version, err := db.GetVersion()
	if err != nil {
		t.Fatalf("GetVersion failed: %v", err)
	}
	if version != LatestVersion() {
		t.Errorf("Expected version %d, got %d", LatestVersion(), version)
	}

	// Running again is a no-op
	if err := db.RunMigrations(); err != nil {
		t.Fatalf("Second RunMigrations failed: %v", err)
	}

	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	for _, table := range []string{"runs", "episodes", "detections", "error_log"} {
		if _, ok := stats[table]; !ok {
			t.Errorf("Expected table %s to exist", table)
		}
	}
}

func TestMigrationsRejectNewerSchema(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.conn.Exec(
		`INSERT INTO schema_version (version, description, applied_at) VALUES (?, ?, ?)`,
		LatestVersion()+1, "from a newer build", time.Now(),
	); err != nil {
		t.Fatal(err)
	}
	if err := db.RunMigrations(); err == nil {
		t.Error("Expected RunMigrations to refuse a newer schema")
	}
}

func TestEpisodeLifecycle(t *testing.T) {
	db := openTestDB(t)

	if err := db.StartRun("run-1", "(0,0)-(800,600)", "[192 225 1]"); err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}
	if err := db.StartEpisode("run-1", "ep-1", 0); err != nil {
		t.Fatalf("StartEpisode failed: %v", err)
	}

	detections := []Detection{
		{EpisodeID: "ep-1", Step: 5, Event: "bonus_collected", Template: "get_spell_card_bonus", Score: 0.97, Reward: 10},
		{EpisodeID: "ep-1", Step: 2, Event: "chapter_finished", Template: "chapter_finish_1", Score: 0.96, Reward: 10},
		{EpisodeID: "ep-1", Step: 9, Event: "mission_incomplete", Template: "mission_incomplete", Score: 0.99, Reward: -100, Terminal: true},
	}
	for _, d := range detections {
		if _, err := db.RecordDetection(d); err != nil {
			t.Fatalf("RecordDetection failed: %v", err)
		}
	}

	if err := db.EndEpisode("ep-1", 9, -80, true); err != nil {
		t.Fatalf("EndEpisode failed: %v", err)
	}

	ep, err := db.GetEpisode("ep-1")
	if err != nil {
		t.Fatalf("GetEpisode failed: %v", err)
	}
	if ep.Steps != 9 || ep.TotalReward != -80 || !ep.Terminal || ep.EndedAt == nil {
		t.Errorf("Unexpected episode: %+v", ep)
	}

	got, err := db.ListDetections("ep-1")
	if err != nil {
		t.Fatalf("ListDetections failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 detections, got %d", len(got))
	}
	if got[0].Step != 2 || got[2].Step != 9 {
		t.Errorf("Detections not in step order: %+v", got)
	}

	stats, err := db.EpisodeStats("run-1")
	if err != nil {
		t.Fatalf("EpisodeStats failed: %v", err)
	}
	if stats.Episodes != 1 || stats.Finished != 1 || stats.TerminalCount != 1 {
		t.Errorf("Unexpected counts: %+v", stats)
	}
	if stats.BestReward != -80 || stats.MeanReward != -80 {
		t.Errorf("Unexpected rewards: %+v", stats)
	}
	if stats.DetectionCounts["mission_incomplete"] != 1 || stats.DetectionCounts["bonus_collected"] != 1 {
		t.Errorf("Unexpected detection counts: %v", stats.DetectionCounts)
	}
}

func TestEndEpisodeUnknown(t *testing.T) {
	db := openTestDB(t)
	if err := db.EndEpisode("missing", 1, 0, false); err == nil {
		t.Error("Expected error for unknown episode")
	}
}

func TestRecorderPersistsEvents(t *testing.T) {
	db := openTestDB(t)
	bus := events.NewEventBus(32)
	rec := NewRecorder(db, bus)

	bus.Publish(events.NewEnvReadyEvent("run-7", 0, 0, 800, 600, []int{192, 225, 1}))
	bus.Publish(events.NewEpisodeStartedEvent("run-7", "ep-a", 0))
	bus.Publish(events.NewRewardDetectedEvent("ep-a", 3, "bonus_collected", "get_spell_card_bonus", 0.98, 10, false))
	bus.Publish(events.NewEpisodeEndedEvent("ep-a", 4, 10, false))
	bus.Publish(events.NewErrorEvent("env", "snapshot", errors.New("disk full"), nil))
	bus.Stop()

	if rec.RunID() != "run-7" {
		t.Errorf("Expected run-7, got %q", rec.RunID())
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	run, err := db.GetRun("run-7")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run.EndedAt == nil {
		t.Error("Expected run to be ended")
	}
	if run.ObservationShape != "[192 225 1]" {
		t.Errorf("Unexpected shape %q", run.ObservationShape)
	}

	ep, err := db.GetEpisode("ep-a")
	if err != nil {
		t.Fatalf("GetEpisode failed: %v", err)
	}
	if ep.Steps != 4 || ep.TotalReward != 10 || ep.Terminal {
		t.Errorf("Unexpected episode: %+v", ep)
	}

	stats, _ := db.GetStats()
	if stats["detections"] != 1 || stats["error_log"] != 1 {
		t.Errorf("Unexpected table stats: %v", stats)
	}
}
