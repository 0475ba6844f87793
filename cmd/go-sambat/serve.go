package main

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-sambat/internal/config"
	"github.com/tartampluch/go-sambat/internal/engine"
	"github.com/tartampluch/go-sambat/internal/server"
	"github.com/tartampluch/go-sambat/internal/worker"
)

// newServeCommand runs the HTTP server and the refresh worker until interrupted.
func newServeCommand(a *cliApp) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   config.CmdServeUse,
		Short: config.CmdServeShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port > 0 {
				a.settings.ServerPort = port
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&port, config.FlagPort, 0, config.FlagDescPort)
	return cmd
}

// serve wires the server, the worker and the settings watcher.
func (a *cliApp) serve(ctx context.Context) error {
	logStartupInfo()

	s := a.settings
	srv := server.NewCalendarServer(strconv.Itoa(s.ServerPort), server.Options{
		RateLimit:      s.RateLimit,
		MetricsEnabled: s.MetricsEnabled,
	})

	w := &worker.Worker{
		Syncer:    a.newGenerator(),
		Publisher: srv,
		Config:    a.syncConfig,
		Interval:  a.refreshInterval,
		Changes:   a.loader.Watch(),
	}
	go w.Run(ctx)

	if err := srv.Start(ctx); err != nil {
		return err
	}

	slog.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)
	return nil
}

// current prefers the live settings, which change when the file is edited.
func (a *cliApp) current() *config.Settings {
	if s := a.loader.Current(); s != nil {
		return s
	}
	return a.settings
}

func (a *cliApp) syncConfig() engine.SyncConfig {
	s := a.current()
	return engine.SyncConfig{
		Mode:       s.SourceMode,
		LocalPath:  s.LocalPath,
		BackendURL: s.BackendURL,
		Schedule:   s.Notifications,
	}
}

func (a *cliApp) refreshInterval() time.Duration {
	return a.current().RefreshInterval()
}

func (a *cliApp) newGenerator() *engine.Generator {
	return &engine.Generator{
		Clock:      engine.RealClock{},
		Fetcher:    engine.NewHTTPFetcher(),
		Translator: a.tr,
	}
}
