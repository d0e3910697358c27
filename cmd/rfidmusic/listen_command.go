package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"rfidmusic/internal/listener"
	"rfidmusic/internal/logging"
	"rfidmusic/internal/services/mapper"
)

func newListenCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Run the RFID scan listener",
		Long:  "Locate the RFID reader, read scans, and deliver them to the mapping web service. Falls back to stdin when no reader device is usable.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger("listener")
			if err != nil {
				return err
			}

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			client := mapper.NewClient(
				cfg.Consumer.BaseURL(),
				time.Duration(cfg.Consumer.RequestTimeout)*time.Second,
				time.Duration(cfg.Consumer.HealthPoll)*time.Second,
				nil,
				logger,
			)
			l, err := listener.New(cfg, client, logger)
			if err != nil {
				return err
			}

			logger.Info("listener starting",
				logging.String("consumer", cfg.Consumer.BaseURL()),
			)
			if err := l.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			logger.Info("listener stopped")
			return nil
		},
	}
}
