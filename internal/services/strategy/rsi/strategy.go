// Package rsi implements the RSI threshold-crossing strategy: buy on a downward crossing of the
// entry level, sell on an upward crossing of the exit level, one position at a time.
package rsi

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/rsitrader/internal/domain"
	"github.com/vadiminshakov/rsitrader/internal/metrics"
	"github.com/vadiminshakov/rsitrader/internal/storage/orderjournal"
	"github.com/vadiminshakov/rsitrader/pkg/retrier"
	"go.uber.org/zap"
)

const (
	defaultDataRetries       = 2
	defaultDataRetryInterval = time.Second
)

// ErrOrderInFlight an administrative edit was refused because an order is not reconciled yet.
var ErrOrderInFlight = errors.New("order in flight")

// MarketData supplies recent closing prices.
type MarketData interface {
	FetchRecent(ctx context.Context, pair domain.Pair, interval string, lookback int) ([]domain.PricePoint, error)
}

// Trader places market orders and reports their status.
type Trader interface {
	SubmitMarketOrder(ctx context.Context, pair domain.Pair, side domain.Side, quantity decimal.Decimal, clientOrderID string) (string, error)
	PollStatus(ctx context.Context, pair domain.Pair, clientOrderID string) (*domain.Order, error)
	GetBalance(ctx context.Context, currency string) (decimal.Decimal, error)
}

// Indicator computes the oscillator value of the latest close.
type Indicator interface {
	Latest(closes []decimal.Decimal) (float64, error)
}

// StateStore persists the account state.
type StateStore interface {
	Load() (domain.AccountState, error)
	Save(state domain.AccountState) error
}

// Ledger records completed trades.
type Ledger interface {
	Append(rec domain.TradeRecord) error
	Records(day time.Time) ([]domain.TradeRecord, error)
}

// Publisher receives an indicator snapshot after every successful sample.
type Publisher interface {
	Publish(s domain.IndicatorSnapshot)
}

// Config immutable strategy parameters.
type Config struct {
	Pair       domain.Pair
	Interval   string
	Lookback   int
	Quantity   decimal.Decimal
	Thresholds domain.Thresholds

	OrderPollInitial     time.Duration
	OrderPollMaxInterval time.Duration
	OrderPollTimeout     time.Duration

	DataRetries       int
	DataRetryInterval time.Duration
}

// Deps collaborators of the strategy. Publisher is optional.
type Deps struct {
	Market    MarketData
	Trader    Trader
	Indicator Indicator
	Store     StateStore
	Ledger    Ledger
	Journal   *orderjournal.Journal
	Publisher Publisher
}

// Strategy one decision loop iteration per Trade call. Trade and administrative edits are
// serialized by mu, so they never interleave.
type Strategy struct {
	mu sync.Mutex

	cfg     Config
	l       *zap.Logger
	market  MarketData
	trader  Trader
	rsi     Indicator
	store   StateStore
	ledger  Ledger
	journal *orderjournal.Journal
	pub     Publisher
	now     func() time.Time

	previous  float64
	current   float64
	hasSample bool
}

// NewStrategy validates the configuration and wires collaborators.
func NewStrategy(l *zap.Logger, cfg Config, deps Deps) (*Strategy, error) {
	if l == nil {
		l = zap.NewNop()
	}
	if deps.Market == nil || deps.Trader == nil || deps.Indicator == nil ||
		deps.Store == nil || deps.Ledger == nil || deps.Journal == nil {
		return nil, errors.New("rsi strategy: market, trader, indicator, store, ledger and journal are required")
	}
	if !cfg.Quantity.IsPositive() {
		return nil, errors.Wrapf(domain.ErrConfig, "quantity must be positive, got %s", cfg.Quantity)
	}
	if cfg.Lookback <= 0 {
		return nil, errors.Wrapf(domain.ErrConfig, "lookback must be positive, got %d", cfg.Lookback)
	}
	if cfg.Thresholds.Entry >= cfg.Thresholds.Exit {
		return nil, errors.Wrapf(domain.ErrConfig, "entry threshold %.2f must be below exit threshold %.2f",
			cfg.Thresholds.Entry, cfg.Thresholds.Exit)
	}
	if cfg.OrderPollTimeout <= 0 || cfg.OrderPollInitial <= 0 {
		return nil, errors.Wrap(domain.ErrConfig, "order poll interval and timeout must be positive")
	}
	if cfg.OrderPollMaxInterval < cfg.OrderPollInitial {
		cfg.OrderPollMaxInterval = cfg.OrderPollInitial
	}
	if cfg.DataRetries < 0 {
		cfg.DataRetries = defaultDataRetries
	}
	if cfg.DataRetryInterval <= 0 {
		cfg.DataRetryInterval = defaultDataRetryInterval
	}

	return &Strategy{
		cfg:     cfg,
		l:       l,
		market:  deps.Market,
		trader:  deps.Trader,
		rsi:     deps.Indicator,
		store:   deps.Store,
		ledger:  deps.Ledger,
		journal: deps.Journal,
		pub:     deps.Publisher,
		now:     time.Now,
	}, nil
}

// Pair traded instrument.
func (s *Strategy) Pair() domain.Pair {
	return s.cfg.Pair
}

// Trade runs one iteration: reconcile in-flight orders, sample the indicator, act on a
// crossing and report. It returns the trade committed in this iteration, if any.
func (s *Strategy) Trade(ctx context.Context) (*domain.TradeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.store.Load()
	if err != nil {
		return nil, errors.Wrap(err, "load account state")
	}

	reconciled, err := s.reconcile(ctx, &state)
	if err != nil {
		return nil, err
	}

	value, err := s.sample(ctx)
	if err != nil {
		return reconciled, err
	}

	if s.hasSample {
		s.previous = s.current
	} else {
		// cold start: no crossing can be observed on the first sample of a process
		s.previous = value
		s.hasSample = true
	}
	s.current = value

	decision := domain.Decide(state.Mode(), s.previous, s.current, s.cfg.Thresholds)

	trade := reconciled
	if side, ok := decision.Side(); ok {
		s.l.Info("threshold crossed",
			zap.String("pair", s.cfg.Pair.String()),
			zap.String("decision", decision.String()),
			zap.Float64("previous", s.previous),
			zap.Float64("current", s.current))

		trade, err = s.execute(ctx, &state, side)
	}

	s.observe(ctx, state, decision)

	return trade, err
}

// State returns the persisted account state.
func (s *Strategy) State() (domain.AccountState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.Load()
}

// SetCanBuy overrides the trading side. Refused while an order is not reconciled.
func (s *Strategy) SetCanBuy(canBuy bool) (domain.AccountState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pending := s.journal.Unfinished(); len(pending) > 0 {
		return domain.AccountState{}, errors.Wrapf(ErrOrderInFlight, "order %s", pending[0].ID)
	}

	state, err := s.store.Load()
	if err != nil {
		return domain.AccountState{}, errors.Wrap(err, "load account state")
	}
	if state.CanBuy == canBuy {
		return state, nil
	}

	state.CanBuy = canBuy
	state.UpdatedAt = s.now()
	if err := s.store.Save(state); err != nil {
		return domain.AccountState{}, errors.Wrap(err, "save account state")
	}

	s.l.Info("account state changed manually", zap.Bool("can_buy", canBuy))
	metrics.CanBuy.WithLabelValues(s.cfg.Pair.String()).Set(boolToFloat(canBuy))
	return state, nil
}

// Indicator returns the retained previous and current samples.
func (s *Strategy) Indicator() (previous, current float64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.previous, s.current, s.hasSample
}

// Close releases the order journal.
func (s *Strategy) Close() error {
	return s.journal.Close()
}

// sample fetches a fresh window and computes the indicator. Retained samples are untouched on error.
func (s *Strategy) sample(ctx context.Context) (float64, error) {
	r := retrier.New(
		retrier.WithMaxRetries(s.cfg.DataRetries),
		retrier.WithInitialInterval(s.cfg.DataRetryInterval),
		retrier.WithMaxInterval(4*s.cfg.DataRetryInterval),
		retrier.WithRetryIf(func(err error) bool {
			return errors.Is(err, domain.ErrDataUnavailable)
		}),
	)

	points, err := retrier.DoWithData(r, ctx, func(ctx context.Context) ([]domain.PricePoint, error) {
		return s.market.FetchRecent(ctx, s.cfg.Pair, s.cfg.Interval, s.cfg.Lookback)
	})
	if err != nil {
		return 0, errors.Wrapf(err, "fetch %s price window", s.cfg.Pair)
	}

	value, err := s.rsi.Latest(domain.Closes(points))
	if err != nil {
		return 0, errors.Wrapf(err, "compute indicator for %s", s.cfg.Pair)
	}

	return value, nil
}

// execute journals the intent, submits it and drives it to a terminal status.
func (s *Strategy) execute(ctx context.Context, state *domain.AccountState, side domain.Side) (*domain.TradeRecord, error) {
	intent, err := s.journal.Prepare(s.cfg.Pair, side, s.cfg.Quantity)
	if err != nil {
		return nil, errors.Wrap(err, "journal order intent")
	}

	venueID, err := s.trader.SubmitMarketOrder(ctx, s.cfg.Pair, side, s.cfg.Quantity, intent.ID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderRejected) {
			s.reject(intent, err)
			return nil, nil
		}
		// outcome unknown; the intent stays pending and is re-polled next iteration
		return nil, errors.Wrapf(err, "submit %s order %s", side, intent.ID)
	}

	if err := s.journal.MarkSubmitted(intent, venueID); err != nil {
		return nil, errors.Wrapf(err, "journal submitted order %s", intent.ID)
	}

	s.l.Info("order submitted",
		zap.String("intent_id", intent.ID),
		zap.String("venue_id", venueID),
		zap.String("side", side.String()),
		zap.String("quantity", s.cfg.Quantity.String()))

	return s.settle(ctx, state, intent)
}

// observe emits the per-iteration line, metrics and indicator snapshot.
func (s *Strategy) observe(ctx context.Context, state domain.AccountState, decision domain.Decision) {
	balance := "n/a"
	if b, err := s.trader.GetBalance(ctx, s.cfg.Pair.From); err != nil {
		s.l.Warn("failed to get balance", zap.String("asset", s.cfg.Pair.From), zap.Error(err))
	} else {
		balance = b.String()
	}

	s.l.Info(fmt.Sprintf("asset: %s, rsi: %.4f, balance: %s", s.cfg.Pair.Symbol(), s.current, balance))

	pair := s.cfg.Pair.String()
	metrics.IndicatorValue.WithLabelValues(pair).Set(s.current)
	metrics.CanBuy.WithLabelValues(pair).Set(boolToFloat(state.CanBuy))

	if s.pub != nil {
		s.pub.Publish(domain.IndicatorSnapshot{
			Timestamp: s.now(),
			Pair:      pair,
			Value:     s.current,
			Previous:  s.previous,
			Mode:      state.Mode(),
			Decision:  decision.String(),
		})
	}
}

func boolToFloat(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
