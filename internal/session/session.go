// Package session assembles a configured environment with its logging,
// event bus and episode store, and tears it down again.
package session

import (
	"context"
	"errors"
	"fmt"

	"jordanella.com/kanjuden-gym/internal/config"
	"jordanella.com/kanjuden-gym/internal/database"
	"jordanella.com/kanjuden-gym/internal/env"
	"jordanella.com/kanjuden-gym/internal/events"
	"jordanella.com/kanjuden-gym/internal/logging"
)

// Session owns everything opened for one environment run
type Session struct {
	Config *config.Config
	Bus    *events.Bus
	Env    *env.Env
	DB     *database.DB

	recorder *database.Recorder
	eventLog *logging.EventLogger
	logger   *logging.Logger
}

// Builder produces the host dependencies; env.HostDeps in production
type Builder func(cfg *config.Config, bus events.EventBus) (env.Deps, error)

// Open sets up logging, the bus, the optional event log and database, then
// constructs the environment. viewer may be nil.
func Open(ctx context.Context, cfg *config.Config, build Builder, viewer env.Viewer) (*Session, error) {
	logging.SetDefaultLevel(logging.ParseLevel(cfg.LogLevel))

	s := &Session{
		Config: cfg,
		Bus:    events.NewEventBus(1024),
		logger: logging.NewLogger("Session"),
	}

	if cfg.EventLog {
		el, err := logging.NewEventLogger(s.Bus, cfg.LogDir)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.eventLog = el
		s.logger.InfoWithContext("Logging events", map[string]interface{}{"path": el.Path()})
	}

	if cfg.DatabasePath != "" {
		db, err := database.Open(cfg.DatabasePath)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.DB = db
		if err := db.RunMigrations(); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		s.recorder = database.NewRecorder(db, s.Bus)
		s.logger.InfoWithContext("Recording episodes", map[string]interface{}{"path": db.Path()})
	}

	deps, err := build(cfg, s.Bus)
	if err != nil {
		s.Close()
		return nil, err
	}
	deps.Bus = s.Bus
	if viewer != nil {
		deps.Viewer = viewer
	}

	e, err := env.New(ctx, cfg, deps)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Env = e
	return s, nil
}

// Close ends the episode, drains the bus and closes the stores
func (s *Session) Close() error {
	var errs []error
	if s.Env != nil {
		errs = append(errs, s.Env.Close())
		if stats := s.Env.ErrorStats(); stats["total"] > 0 {
			s.logger.WarnWithContext("Errors reported during session", toContext(stats))
		}
	}
	s.Bus.Stop()
	if dropped, panicked := s.Bus.Dropped(), s.Bus.HandlerPanics(); dropped > 0 || panicked > 0 {
		s.logger.WarnWithContext("Event bus lost events", map[string]interface{}{
			"dropped":        dropped,
			"handler_panics": panicked,
		})
	}

	if s.recorder != nil {
		if s.Env != nil {
			if stats, err := s.DB.EpisodeStats(s.Env.RunID()); err == nil {
				s.logger.InfoWithContext("Run summary", map[string]interface{}{
					"episodes":     stats.Episodes,
					"steps":        stats.TotalSteps,
					"reward":       stats.TotalReward,
					"best":         stats.BestReward,
					"detections":   fmt.Sprint(stats.DetectionCounts),
					"terminations": stats.TerminalCount,
				})
			}
		}
		errs = append(errs, s.recorder.Close())
	}
	if s.DB != nil {
		if counts, err := s.DB.GetStats(); err == nil {
			s.logger.DebugWithContext("Database rows", toContext(counts))
		}
		errs = append(errs, s.DB.Close())
	}
	if s.eventLog != nil {
		errs = append(errs, s.eventLog.Close())
	}
	return errors.Join(errs...)
}

func toContext[V int | int64](m map[string]V) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
