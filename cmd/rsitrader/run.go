package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/rsitrader/config"
	"github.com/vadiminshakov/rsitrader/internal"
	"github.com/vadiminshakov/rsitrader/internal/domain"
	"github.com/vadiminshakov/rsitrader/internal/events"
	"github.com/vadiminshakov/rsitrader/internal/storage/runlock"
	"github.com/vadiminshakov/rsitrader/internal/web"
	"github.com/vadiminshakov/rsitrader/pkg/logging"
)

const indicatorBuffer = 16

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the trading loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return run(ctx)
		},
	}
}

func run(ctx context.Context) error {
	conf, err := config.Load(configPath)
	if err != nil {
		return err
	}

	level, err := zapcore.ParseLevel(conf.LogLevel)
	if err != nil {
		return errors.Wrapf(domain.ErrConfig, "log_level: %v", err)
	}

	logger, closeLogs, err := logging.New(conf.LogsDir, level)
	if err != nil {
		return errors.Wrap(err, "init logging")
	}
	defer func() { _ = closeLogs() }()
	zap.ReplaceGlobals(logger)

	lock, err := runlock.Acquire(runlock.Path(conf.StateFile))
	if err != nil {
		logger.Error("another rsitrader owns the state", zap.String("state_file", conf.StateFile), zap.Error(err))
		return err
	}
	defer func() { _ = lock.Release() }()

	feed := events.NewIndicatorBroadcaster(indicatorBuffer)
	bot, err := internal.NewTradingBot(logger, conf, feed)
	if err != nil {
		logger.Error("failed to create trading bot", zap.Error(err))
		return err
	}
	defer func() {
		if err := bot.Close(); err != nil {
			logger.Warn("failed to close trading bot", zap.Error(err))
		}
	}()

	logger.Info("rsitrader started",
		zap.String("platform", conf.Platform),
		zap.String("data_source", conf.DataSource),
		zap.String("pair", conf.Pair.String()),
		zap.Float64("entry", conf.Thresholds.Entry),
		zap.Float64("exit", conf.Thresholds.Exit),
		zap.String("quantity", conf.Quantity.String()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := bot.Run(gctx, logger)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if conf.AdminAddr != "" {
		server := web.NewServer(conf.AdminAddr, bot.Strategy, bot.Ledger, feed, logger)
		g.Go(func() error {
			return server.Start(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("rsitrader stopped", zap.Error(err))
		return err
	}

	logger.Info("rsitrader stopped")
	return nil
}
