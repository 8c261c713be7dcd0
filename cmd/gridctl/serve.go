package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gridScope/internal/api"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	readOnly, _ := cmd.Flags().GetBool("read-only")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger, cmd.OutOrStdout(), !readOnly)
	if err != nil {
		return err
	}
	defer a.Close()

	svc, err := a.dashboardService(ctx)
	if err != nil {
		return err
	}
	if _, err := svc.Refresh(ctx); err != nil {
		logger.Warn("initial refresh failed", zap.Error(err))
	}

	var writer api.Settings
	if !readOnly {
		writer = a.settingsWriter()
		if cfg.APIToken == "" && !loopback(cfg.Listen) {
			logger.Warn("write endpoints exposed without api-token", zap.String("listen", cfg.Listen))
		}
	}

	gin.SetMode(gin.ReleaseMode)
	server := api.NewServer(api.Config{
		Listen:            cfg.Listen,
		CORSOrigins:       cfg.CORSOrigins,
		APIToken:          cfg.APIToken,
		RefreshAfterWrite: cfg.ShouldRefresh,
	}, svc, writer, logger)

	return server.Run(ctx)
}

func loopback(listen string) bool {
	host, _, err := net.SplitHostPort(listen)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
