package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"smart-grocer/chart"
	"smart-grocer/cli"
	"smart-grocer/config"
	"smart-grocer/services"
	"smart-grocer/storage"
	"smart-grocer/utils"
)

func main() {
	cfg := config.Load()
	logger := utils.NewLoggerWithLevel(cfg.LogLevel)

	code := run(cfg, logger, os.Args[1:])
	logger.Sync()
	os.Exit(code)
}

func run(cfg *config.Config, logger *utils.Logger, args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Debug("Config: store=%s | market=%q | queue=%d | chart poll=%s x%d",
		cfg.StoreBackend, cfg.DefaultSupermarket, cfg.PersistQueueSize,
		cfg.ChartPollInterval(), cfg.ChartMaxAttempts)

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open %s store: %v", cfg.StoreBackend, err)
		if cfg.StoreBackend == config.BackendPostgres {
			logger.Error("Make sure Docker is running: docker compose up -d")
		}
		return 1
	}
	defer store.Close()

	state := storage.LoadSession(store, cfg.DefaultSupermarket, logger)
	persister := storage.NewPersister(store, cfg.PersistQueueSize, logger)
	defer persister.Close()

	receipts, err := storage.NewCSVReceiptWriter(cfg.ReceiptCSVPath)
	if err != nil {
		logger.Warn("Receipts disabled: %v", err)
	}

	deps := cli.Deps{
		Session: services.NewSessionManager(state, cfg.DefaultSupermarket, persister, logger),
		Printer: services.NewInsightService(logger, cfg.CurrencySymbol),
		Probe: chart.NewProbe(&chart.ChromeChecker{Bin: cfg.ChromeBin},
			cfg.ChartPollInterval(), cfg.ChartMaxAttempts, logger),
		Renderer: chart.NewRenderer(cfg.ChromeBin, 0, logger),
		ChartDir: cfg.ChartOutputDir,
		In:       os.Stdin,
		Out:      os.Stdout,
		Logger:   logger,
	}
	if len(args) > 0 && (args[0] == "shell" || args[0] == "chart") {
		deps.Probe.Start(ctx)
	}
	if receipts != nil {
		deps.Receipts = receipts
		defer receipts.Close()
	}
	app := cli.New(deps)

	code := 0
	if err := app.Run(ctx, args); err != nil {
		app.Report(err)
		code = 1
		if errors.Is(err, cli.ErrUsage) {
			code = 2
		}
	}

	persister.Flush()
	return code
}

func openStore(ctx context.Context, cfg *config.Config, logger *utils.Logger) (storage.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendBadger:
		return storage.NewBadgerStore(cfg.BadgerDir, logger)
	case config.BackendPostgres:
		return storage.NewPostgresStore(ctx, cfg.DSN(), cfg.MaxRetries, logger)
	case config.BackendMemory:
		logger.Warn("Using the in-memory store, nothing survives this process")
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
