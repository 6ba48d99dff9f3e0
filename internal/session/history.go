package session

import (
	"fmt"
	"io"
	"sort"

	"jordanella.com/kanjuden-gym/internal/database"
)

// History writes a plain text report of the episode store to w. With runID
// the run and its episode summary are included; with episodeID the episode
// and its detections in step order.
func History(w io.Writer, db *database.DB, runID, episodeID string) error {
	counts, err := db.GetStats()
	if err != nil {
		return err
	}
	tables := make([]string, 0, len(counts))
	for table := range counts {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	for _, table := range tables {
		fmt.Fprintf(w, "%-12s %d\n", table, counts[table])
	}

	if runID != "" {
		run, err := db.GetRun(runID)
		if err != nil {
			return err
		}
		ended := "running"
		if run.EndedAt != nil {
			ended = run.EndedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "\nrun %s  window %s  observation %s\n", run.ID, run.WindowRect, run.ObservationShape)
		fmt.Fprintf(w, "  started %s  ended %s\n", run.StartedAt.Format("2006-01-02 15:04:05"), ended)

		stats, err := db.EpisodeStats(runID)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  episodes %d (finished %d, terminal %d)  steps %d\n",
			stats.Episodes, stats.Finished, stats.TerminalCount, stats.TotalSteps)
		fmt.Fprintf(w, "  reward total %.2f  mean %.2f  best %.2f\n",
			stats.TotalReward, stats.MeanReward, stats.BestReward)
	}

	if episodeID != "" {
		ep, err := db.GetEpisode(episodeID)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "\nepisode %s  run %s  #%d  steps %d  reward %.2f  terminal %t\n",
			ep.ID, ep.RunID, ep.Index, ep.Steps, ep.TotalReward, ep.Terminal)

		detections, err := db.ListDetections(episodeID)
		if err != nil {
			return err
		}
		for _, d := range detections {
			fmt.Fprintf(w, "  step %-6d %-20s %-24s score %.3f  reward %+.2f\n",
				d.Step, d.Event, d.Template, d.Score, d.Reward)
		}
	}
	return nil
}
