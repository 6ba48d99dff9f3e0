// kanjuden trains an agent on Legacy of Lunatic Kingdom.
//
// Usage:
//
//	kanjuden [-c class] [-w title] [--use_rgb] [--shrink_ratio r]
//	         [--clip_top n] [--clip_bottom n] [--clip_left n] [--clip_right n]
//	         [--settings Settings.ini] [--timesteps n] [--viewer]
//	kanjuden settings [flags] out.ini
//	kanjuden history [--settings Settings.ini] [--run id] [--episode id]
//
// The game must already be running. Settings come from Settings.ini (or
// $KANJUDEN_SETTINGS), flags override them, and the model is written to
// the configured model path when the session ends. settings writes the
// resolved configuration back out as INI; history reports what the episode
// database has recorded.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"

	"jordanella.com/kanjuden-gym/internal/config"
	"jordanella.com/kanjuden-gym/internal/database"
	"jordanella.com/kanjuden-gym/internal/env"
	"jordanella.com/kanjuden-gym/internal/gui"
	"jordanella.com/kanjuden-gym/internal/logging"
	"jordanella.com/kanjuden-gym/internal/session"
	"jordanella.com/kanjuden-gym/internal/trainer"
)

var (
	flags         *session.Flags
	flagTimesteps int
	flagSeed      int64

	settingsFlags *session.Flags

	historySettings string
	historyRun      string
	historyEpisode  string
)

var rootCmd = &cobra.Command{
	Use:          "kanjuden",
	Short:        "Train an agent on Legacy of Lunatic Kingdom",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runTraining,
}

var settingsCmd = &cobra.Command{
	Use:   "settings out.ini",
	Short: "Write the resolved settings, flags applied, to an INI file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := settingsFlags.Load()
		if err != nil {
			return err
		}
		return config.SaveToINI(cfg, args[0])
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Report runs, episodes and detections from the episode database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(config.SettingsPath(historySettings))
		if err != nil {
			return err
		}
		if cfg.DatabasePath == "" {
			return fmt.Errorf("no database_path configured")
		}
		db, err := database.Open(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()
		return session.History(cmd.OutOrStdout(), db, historyRun, historyEpisode)
	},
}

func init() {
	// the trainer never renders, so the window only shows the status panel
	flags = session.BindFlags(rootCmd, false)
	rootCmd.Flags().IntVar(&flagTimesteps, "timesteps", config.NewDefaultConfig().Timesteps, "Number of environment steps to train for")
	rootCmd.Flags().Int64Var(&flagSeed, "seed", config.NewDefaultConfig().Seed, "Agent RNG seed")

	settingsFlags = session.BindFlags(settingsCmd, false)

	historyCmd.Flags().StringVar(&historySettings, "settings", "", "Path to Settings.ini")
	historyCmd.Flags().StringVar(&historyRun, "run", "", "Run ID to summarise")
	historyCmd.Flags().StringVar(&historyEpisode, "episode", "", "Episode ID whose detections to list")

	rootCmd.AddCommand(settingsCmd, historyCmd)
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "failed to load .env:", err)
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runTraining(cmd *cobra.Command, args []string) error {
	cfg, err := flags.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("timesteps") {
		cfg.Timesteps = flagTimesteps
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = flagSeed
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := logging.NewLogger("Main")

	train := func(viewer *gui.Viewer) error {
		var v env.Viewer
		if viewer != nil {
			v = viewer
		}
		s, err := session.Open(ctx, cfg, env.HostDeps, v)
		if err != nil {
			return err
		}
		defer s.Close()
		if viewer != nil {
			viewer.Attach(s.Bus)
		}

		agent := trainer.NewRandomAgent(s.Env.ActionSpace(), cfg.Seed)
		summary, err := trainer.Run(ctx, s.Env, agent, cfg.Timesteps, cfg.ModelPath)
		if err != nil {
			return err
		}
		logger.InfoWithContext("Session complete", map[string]interface{}{
			"timesteps": summary.Timesteps,
			"episodes":  summary.Episodes,
			"model":     summary.ModelPath,
		})
		return nil
	}

	if !flags.Viewer {
		return train(nil)
	}

	// fyne owns the main goroutine; training runs beside it
	viewer := gui.NewViewer(app.NewWithID("com.jordanella.kanjuden-gym"))
	errCh := make(chan error, 1)
	go func() {
		errCh <- train(viewer)
		viewer.Quit()
	}()
	viewer.Run()
	return <-errCh
}
