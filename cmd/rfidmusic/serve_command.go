package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"rfidmusic/internal/services/playback"
	"rfidmusic/internal/webapp"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the mapping web service",
		Long:  "Serve the JSON API that resolves scans against the RFID-to-album mappings and triggers playback on the configured host.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger("webapp")
			if err != nil {
				return err
			}

			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			var playbackSvc webapp.PlaybackService
			if cfg.Playback.Enabled && cfg.Playback.Host != "" {
				playbackSvc = playback.NewClient(
					cfg.Playback.BaseURL(),
					time.Duration(cfg.Playback.RequestTimeout)*time.Second,
					nil,
				)
			}

			server, err := webapp.New(cfg, st, playbackSvc, logger)
			if err != nil {
				return err
			}

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if err := server.Start(runCtx); err != nil {
				return err
			}
			<-runCtx.Done()
			server.Stop()
			logger.Info("web service stopped")
			return nil
		},
	}
}
