package database

import "time"

// Run is one environment session
type Run struct {
	ID               string
	WindowRect       string
	ObservationShape string
	StartedAt        time.Time
	EndedAt          *time.Time
}

// Episode is one reset-to-terminal span
type Episode struct {
	ID          string
	RunID       string
	Index       int
	StartedAt   time.Time
	EndedAt     *time.Time
	Steps       int
	TotalReward float64
	Terminal    bool
}

// Detection is one reward event seen during an episode
type Detection struct {
	ID         int64
	EpisodeID  string
	Step       int
	Event      string
	Template   string
	Score      float64
	Reward     float64
	Terminal   bool
	DetectedAt time.Time
}

// EpisodeStats aggregates finished episodes of a run
type EpisodeStats struct {
	Episodes        int
	Finished        int
	TerminalCount   int
	TotalSteps      int
	TotalReward     float64
	MeanReward      float64
	BestReward      float64
	DetectionCounts map[string]int
}
