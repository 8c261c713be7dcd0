package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"gridScope/internal/config"
)

func main() {
	root := &cobra.Command{
		Use:          "gridctl",
		Short:        "Grid trading contract dashboard and settings client",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	dashboardCmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Read the contract metrics once and print them",
		RunE:  runDashboard,
	}
	addConnectionFlags(dashboardCmd.Flags())
	addReadFlags(dashboardCmd.Flags())
	root.AddCommand(dashboardCmd)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh the dashboard on an interval",
		RunE:  runWatch,
	}
	addConnectionFlags(watchCmd.Flags())
	addReadFlags(watchCmd.Flags())
	watchCmd.Flags().Duration("interval", 15*time.Second, "refresh interval")
	root.AddCommand(watchCmd)

	updateCmd := &cobra.Command{
		Use:   "update-params",
		Short: "Submit new trading parameters",
		RunE:  runUpdateParams,
	}
	addConnectionFlags(updateCmd.Flags())
	addReadFlags(updateCmd.Flags())
	addWriteFlags(updateCmd.Flags())
	updateCmd.Flags().String("grid-size", "", "number of grid levels")
	updateCmd.Flags().String("lower-price", "", "lower price in ETH")
	updateCmd.Flags().String("upper-price", "", "upper price in ETH")
	updateCmd.Flags().String("amount-per-grid", "", "amount per grid in ETH")
	updateCmd.Flags().String("stop-loss-price", "", "stop-loss price in ETH")
	root.AddCommand(updateCmd)

	withdrawCmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Call emergencyWithdraw",
		RunE:  runWithdraw,
	}
	addConnectionFlags(withdrawCmd.Flags())
	addReadFlags(withdrawCmd.Flags())
	addWriteFlags(withdrawCmd.Flags())
	withdrawCmd.Flags().Bool("yes", false, "skip the confirmation prompt")
	root.AddCommand(withdrawCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard and settings over HTTP",
		RunE:  runServe,
	}
	addConnectionFlags(serveCmd.Flags())
	addReadFlags(serveCmd.Flags())
	addWriteFlags(serveCmd.Flags())
	serveCmd.Flags().String("listen", config.DefaultListen, "HTTP listen address")
	serveCmd.Flags().StringSlice("cors-origins", nil, "allowed CORS origins (comma-separated), empty allows GET from any origin")
	serveCmd.Flags().String("api-token", "", "bearer token required on write endpoints")
	serveCmd.Flags().Bool("read-only", false, "disable the write endpoints")
	root.AddCommand(serveCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addConnectionFlags(flags *pflag.FlagSet) {
	flags.String("rpc", "", "JSON-RPC provider URL")
	flags.String("contract", "", "grid trading contract address")
	flags.String("abi", "", "optional ABI JSON file (artifact or bare array)")
	flags.Int("max-retries", 0, "retry attempts for failed reads")
	flags.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	flags.String("pg-dsn", "", "optional Postgres DSN for snapshots and transactions")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
}

func addReadFlags(flags *pflag.FlagSet) {
	flags.String("read-mode", "sequential", "metric read mode (sequential, independent)")
	flags.Int("concurrency", 4, "parallel reads in independent mode")
	flags.String("out", "", "optional snapshot JSONL path")
	flags.String("state-file", "./data/dashboard_state.json", "last known values file, empty disables")
	flags.String("format", "table", "output format (table, json)")
}

func addWriteFlags(flags *pflag.FlagSet) {
	flags.String("wallet", "node", "signing wallet (node, key)")
	flags.String("private-key", "", "hex private key for wallet=key")
	flags.Duration("receipt-poll", time.Second, "receipt polling interval")
	flags.Duration("receipt-timeout", 2*time.Minute, "maximum wait for a receipt")
	flags.String("tx-out", "", "optional transaction JSONL path")
	flags.String("refresh", "success", "refresh after write (success, always, never)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
