package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gridScope/internal/settings"
)

func runUpdateParams(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	form := settings.Form{}
	form.GridSize, _ = cmd.Flags().GetString("grid-size")
	form.LowerPrice, _ = cmd.Flags().GetString("lower-price")
	form.UpperPrice, _ = cmd.Flags().GetString("upper-price")
	form.AmountPerGrid, _ = cmd.Flags().GetString("amount-per-grid")
	form.StopLossPrice, _ = cmd.Flags().GetString("stop-loss-price")

	// Reject bad input before dialing the provider.
	if _, err := form.Parameters(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger, cmd.OutOrStdout(), true)
	if err != nil {
		return err
	}
	defer a.Close()

	out := a.settingsWriter().Submit(ctx, form)
	return a.finishWrite(ctx, cmd.OutOrStdout(), out)
}

func runWithdraw(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger, cmd.OutOrStdout(), true)
	if err != nil {
		return err
	}
	defer a.Close()

	yes, _ := cmd.Flags().GetBool("yes")
	if !yes {
		prompt := fmt.Sprintf("Withdraw all funds from %s?", a.contractAddress().Hex())
		if !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), prompt) {
			return fmt.Errorf("withdraw cancelled")
		}
	}

	out := a.settingsWriter().Withdraw(ctx)
	return a.finishWrite(ctx, cmd.OutOrStdout(), out)
}

// finishWrite reports the outcome and refreshes the dashboard per the refresh policy.
func (a *app) finishWrite(ctx context.Context, w io.Writer, out settings.Outcome) error {
	if out.OK() {
		fmt.Fprintf(w, "%s confirmed: tx %s\n", out.Method, out.TxHash().Hex())
	}

	if a.cfg.ShouldRefresh(out.OK()) {
		svc, err := a.dashboardService(ctx)
		if err != nil {
			return err
		}
		if _, err := svc.Refresh(ctx); err != nil {
			a.logger.Warn("refresh after write failed", zap.Error(err))
		}
		if err := a.renderer.Render(svc.State()); err != nil {
			return err
		}
	}
	return out.Err
}

func confirm(in io.Reader, w io.Writer, prompt string) bool {
	fmt.Fprintf(w, "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
