package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gridScope/internal/model"
)

func runDashboard(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger, cmd.OutOrStdout(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	svc, err := a.dashboardService(ctx)
	if err != nil {
		return err
	}

	// Whatever was read is shown, alongside earlier values for the rest.
	_, refreshErr := svc.Refresh(ctx)
	if err := a.renderer.Render(svc.State()); err != nil {
		return err
	}
	return refreshErr
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger, cmd.OutOrStdout(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	svc, err := a.dashboardService(ctx)
	if err != nil {
		return err
	}

	logger.Info("watch start", zap.Duration("interval", cfg.Interval))
	return svc.Watch(ctx, cfg.Interval, func(model.Snapshot, error) {
		if err := a.renderer.Render(svc.State()); err != nil {
			logger.Warn("render failed", zap.Error(err))
		}
	})
}
