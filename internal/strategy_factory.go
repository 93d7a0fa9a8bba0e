package internal

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/rsitrader/config"
	"github.com/vadiminshakov/rsitrader/internal/services/marketdata"
	"github.com/vadiminshakov/rsitrader/internal/services/strategy/rsi"
	"github.com/vadiminshakov/rsitrader/internal/storage/accountstate"
	"github.com/vadiminshakov/rsitrader/internal/storage/ledger"
	"github.com/vadiminshakov/rsitrader/internal/storage/orderjournal"
	"github.com/vadiminshakov/rsitrader/pkg/indicators"
)

// strategyFactory creates trading strategies.
type strategyFactory struct {
	logger *zap.Logger
}

// newStrategyFactory creates a new strategy factory.
func newStrategyFactory(logger *zap.Logger) *strategyFactory {
	return &strategyFactory{logger: logger}
}

// createTradingStrategy opens the persistent stores and wires the RSI strategy.
func (f *strategyFactory) createTradingStrategy(
	conf config.Config,
	provider serviceProvider,
	publisher rsi.Publisher,
) (*rsi.Strategy, *ledger.Ledger, error) {
	store, err := accountstate.NewStore(conf.StateFile)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to open account state store")
	}

	tradeLedger, err := ledger.New(conf.TradesDir, time.Local)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to open trade ledger")
	}

	tradeSvc, err := provider.Trader(conf.Pair)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create trader")
	}

	journal, err := orderjournal.Open(conf.WALDir, f.logger)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to open order journal")
	}

	strategy, err := rsi.NewStrategy(
		f.logger,
		rsi.Config{
			Pair:                 conf.Pair,
			Interval:             conf.Interval,
			Lookback:             conf.Lookback,
			Quantity:             conf.Quantity,
			Thresholds:           conf.Thresholds,
			OrderPollInitial:     conf.OrderPollInitial,
			OrderPollMaxInterval: conf.OrderPollMaxInterval,
			OrderPollTimeout:     conf.OrderPollTimeout,
			DataRetries:          -1,
		},
		rsi.Deps{
			Market:    marketdata.NewCollector(newKlineProvider(conf, provider)),
			Trader:    tradeSvc,
			Indicator: indicators.NewRSI(conf.RSIPeriod),
			Store:     store,
			Ledger:    tradeLedger,
			Journal:   journal,
			Publisher: publisher,
		},
	)
	if err != nil {
		_ = journal.Close()
		return nil, nil, errors.Wrap(err, "failed to create RSI strategy")
	}

	return strategy, tradeLedger, nil
}
