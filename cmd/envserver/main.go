// envserver exposes the environment to an external trainer over a websocket
// on /env. Flags match kanjuden.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"

	"jordanella.com/kanjuden-gym/internal/bridge"
	"jordanella.com/kanjuden-gym/internal/config"
	"jordanella.com/kanjuden-gym/internal/env"
	"jordanella.com/kanjuden-gym/internal/gui"
	"jordanella.com/kanjuden-gym/internal/session"
)

var (
	flags    *session.Flags
	flagAddr string
)

var rootCmd = &cobra.Command{
	Use:          "envserver",
	Short:        "Serve the Legacy of Lunatic Kingdom environment to a trainer",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runServer,
}

func init() {
	flags = session.BindFlags(rootCmd, true)
	rootCmd.Flags().StringVar(&flagAddr, "addr", config.NewDefaultConfig().BridgeAddr, "Listen address")
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "failed to load .env:", err)
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := flags.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.BridgeAddr = flagAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	serve := func(viewer *gui.Viewer) error {
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

		return bridge.NewServer(s.Env, bridge.DefaultConfig(cfg.BridgeAddr)).ListenAndServe(ctx)
	}

	if !flags.Viewer {
		return serve(nil)
	}

	viewer := gui.NewViewer(app.NewWithID("com.jordanella.kanjuden-gym"))
	errCh := make(chan error, 1)
	go func() {
		errCh <- serve(viewer)
		viewer.Quit()
	}()
	viewer.Run()
	return <-errCh
}
