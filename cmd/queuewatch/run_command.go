package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"queuewatch/internal/config"
	"queuewatch/internal/daemon"
	"queuewatch/internal/intercept"
	"queuewatch/internal/logging"
	"queuewatch/internal/notifications"
	"queuewatch/internal/queue"
	"queuewatch/internal/shape"
)

const logStreamCapacity = 4096

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the queuewatch daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemonProcess(cmd.Context(), ctx)
		},
	}
}

func runDaemonProcess(cmdCtx context.Context, ctx *commandContext) error {
	if ctx == nil {
		return errors.New("command context is required")
	}
	if cmdCtx == nil {
		cmdCtx = context.Background()
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logHub := logging.NewStreamHub(logStreamCapacity)
	logger, err := logging.NewFromConfig(cfg, logHub)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	store := queue.NewStore()
	interceptor := intercept.New(store, interceptOptions(cfg, logger))

	d, err := daemon.New(cfg, daemon.Deps{
		Store:       store,
		Interceptor: interceptor,
		Notifier:    notifications.NewService(cfg),
		Stream:      logHub,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	if cfg.Attach.Upstream == "" {
		logger.Warn("attach.upstream not set; no traffic will be observed until one is configured")
	}

	d.Wait(signalCtx)
	interceptor.Wait()
	logger.Info("queuewatch daemon shutting down")
	return nil
}

func interceptOptions(cfg *config.Config, logger *slog.Logger) intercept.Options {
	return intercept.Options{
		Matcher:               shape.NewMatcher(cfg.Interception.URLFragments),
		MaxBodyBytes:          cfg.Interception.MaxBodyBytes,
		DecodeContentEncoding: cfg.Interception.DecodeContentEncoding,
		Logger:                logger,
	}
}
