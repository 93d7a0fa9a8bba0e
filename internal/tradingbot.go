package internal

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/rsitrader/config"
	"github.com/vadiminshakov/rsitrader/internal/domain"
	"github.com/vadiminshakov/rsitrader/internal/metrics"
	"github.com/vadiminshakov/rsitrader/internal/services/strategy/rsi"
	"github.com/vadiminshakov/rsitrader/internal/storage/ledger"
)

// TradingStrategy one iteration of the decision loop per Trade call.
type TradingStrategy interface {
	Trade(ctx context.Context) (*domain.TradeRecord, error)
	Close() error
}

// TradingBot represents a single trading instance
type TradingBot struct {
	Config          config.Config
	Strategy        *rsi.Strategy
	Ledger          *ledger.Ledger
	tradingStrategy TradingStrategy
}

// NewTradingBot creates a new trading bot instance
func NewTradingBot(logger *zap.Logger, conf config.Config, publisher rsi.Publisher) (*TradingBot, error) {
	client, err := newClient(conf)
	if err != nil {
		return nil, err
	}

	provider, err := newServiceProvider(client, conf, logger)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create service provider")
	}

	tsLogger := logger.With(zap.String("pair", conf.Pair.String()))
	strategy, tradeLedger, err := newStrategyFactory(tsLogger).createTradingStrategy(conf, provider, publisher)
	if err != nil {
		return nil, err
	}

	return &TradingBot{
		Config:          conf,
		Strategy:        strategy,
		Ledger:          tradeLedger,
		tradingStrategy: strategy,
	}, nil
}

// Close closes the trading bot
func (b *TradingBot) Close() error {
	return b.tradingStrategy.Close()
}

// Run executes the decision loop until ctx is cancelled or a fatal error occurs.
// Non-fatal iteration errors are logged and retried after the poll interval.
func (b *TradingBot) Run(ctx context.Context, logger *zap.Logger) error {
	pair := b.Config.Pair.String()
	logger.Info("Starting trading loop", zap.String("pair", pair), zap.Duration("poll_interval", b.Config.PollInterval))

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Context done, stopping trading bot run loop.", zap.String("pair", pair))
			return ctx.Err()
		case <-timer.C:
		}

		trade, err := b.tradingStrategy.Trade(ctx)
		switch {
		case err == nil:
		case domain.IsFatal(err):
			logger.Error("Fatal trading error, stopping", zap.String("pair", pair), zap.Error(err))
			return err
		case ctx.Err() != nil:
			logger.Info("Context done, stopping trading bot run loop.", zap.String("pair", pair))
			return ctx.Err()
		default:
			kind := domain.ErrorKind(err)
			metrics.IterationErrorsTotal.WithLabelValues(kind).Inc()
			logger.Error("Trading iteration failed", zap.String("pair", pair), zap.String("kind", kind), zap.Error(err))
		}

		if trade != nil {
			logger.Info("Trade completed", zap.String("pair", pair), zap.Stringer("trade", trade))
		}

		timer.Reset(b.Config.PollInterval)
	}
}
