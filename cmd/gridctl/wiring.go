package main

import (
	"context"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gridScope/internal/chain"
	"gridScope/internal/config"
	"gridScope/internal/contract"
	"gridScope/internal/dashboard"
	"gridScope/internal/settings"
	"gridScope/internal/storage"
	"gridScope/internal/storage/postgres"
)

// app holds the dependencies shared by every command.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	chain    *chain.Client
	client   *contract.Client
	sink     storage.Storage
	pg       *postgres.Store
	renderer *dashboard.Renderer
}

func loadConfig(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return config.Config{}, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger, out io.Writer, withWallet bool) (*app, error) {
	parsedABI, err := contract.LoadABI(cfg.ABIPath)
	if err != nil {
		return nil, err
	}
	address, err := chain.ParseAddress(cfg.Contract)
	if err != nil {
		return nil, err
	}
	renderer, err := dashboard.NewRenderer(out, cfg.Format)
	if err != nil {
		return nil, err
	}

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}
	a := &app{cfg: cfg, logger: logger, chain: chainClient, renderer: renderer}

	var wallet contract.Wallet
	if withWallet {
		wallet, err = a.newWallet()
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	a.client, err = contract.NewClient(contract.Config{
		Address:        address,
		ABI:            parsedABI,
		MaxRetries:     cfg.MaxRetries,
		RetryBackoff:   cfg.RetryBackoff,
		ReceiptPoll:    cfg.ReceiptPoll,
		ReceiptTimeout: cfg.ReceiptTimeout,
	}, chainClient, wallet, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	sinks := storage.Multi{storage.NewJsonlStorage(cfg.Out, cfg.TxOut)}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.pg = store
		if err := store.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, err
		}
		sinks = append(sinks, store)
	}
	a.sink = sinks

	logger.Info("gridctl start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("contract", address.Hex()),
		zap.String("read_mode", cfg.ReadMode),
		zap.Bool("abi_file", cfg.ABIPath != ""),
		zap.Bool("postgres", a.pg != nil),
	)
	return a, nil
}

func (a *app) newWallet() (contract.Wallet, error) {
	switch a.cfg.Wallet {
	case config.WalletKey:
		w, err := chain.NewKeyWallet(a.chain, a.cfg.PrivateKey)
		if err != nil {
			return nil, err
		}
		a.logger.Info("using local key wallet", zap.String("address", w.Address().Hex()))
		return w, nil
	default:
		return a.chain, nil
	}
}

// dashboardService builds the read side and restores the last known values.
func (a *app) dashboardService(ctx context.Context) (*dashboard.Service, error) {
	mode, err := dashboard.ParseMode(a.cfg.ReadMode)
	if err != nil {
		return nil, err
	}
	reader := dashboard.NewReader(dashboard.ReaderConfig{
		Contract:    a.client.Address().Hex(),
		Mode:        mode,
		Concurrency: a.cfg.Concurrency,
	}, a.client, a.logger)

	state := dashboard.NewState()
	svc := dashboard.NewService(reader, state, a.sink, a.logger)

	var store dashboard.StateStore
	switch {
	case a.cfg.StateFile != "":
		file := &dashboard.FileStateStore{Path: a.cfg.StateFile}
		svc.WithStateStore(file)
		store = file
	case a.pg != nil:
		store = &dashboard.DBStateStore{Source: a.pg, Contract: a.client.Address().Hex()}
	}
	if err := dashboard.Restore(ctx, state, store); err != nil {
		a.logger.Warn("restore dashboard state failed", zap.Error(err))
	}
	return svc, nil
}

func (a *app) settingsWriter() *settings.Writer {
	return settings.NewWriter(a.client, a.sink, a.logger)
}

func (a *app) contractAddress() common.Address { return a.client.Address() }

func (a *app) Close() {
	if a.pg != nil {
		a.pg.Close()
	}
	if a.chain != nil {
		a.chain.Close()
	}
}
