package rsi

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/rsitrader/internal/domain"
	"github.com/vadiminshakov/rsitrader/internal/metrics"
	"github.com/vadiminshakov/rsitrader/internal/storage/orderjournal"
	"github.com/vadiminshakov/rsitrader/pkg/retrier"
	"go.uber.org/zap"
)

var (
	errOrderPending = errors.New("order still pending")
	errOrderUnknown = errors.New("order never reached the venue")
)

// reconcile finishes intents left over from a timed out poll or a crash before anything new is placed.
func (s *Strategy) reconcile(ctx context.Context, state *domain.AccountState) (*domain.TradeRecord, error) {
	var trade *domain.TradeRecord
	for _, intent := range s.journal.Unfinished() {
		s.l.Info("reconciling order intent",
			zap.String("intent_id", intent.ID),
			zap.String("status", string(intent.Status)),
			zap.String("side", intent.Side.String()))

		var (
			rec *domain.TradeRecord
			err error
		)
		if intent.Status == orderjournal.StatusRecording || intent.Status == orderjournal.StatusRecorded {
			rec, err = s.commit(state, intent, intent.FilledQty, intent.AveragePrice)
		} else {
			rec, err = s.settle(ctx, state, intent)
		}
		if err != nil {
			return trade, errors.Wrapf(err, "reconcile order %s", intent.ID)
		}
		if rec != nil {
			trade = rec
		}
	}

	return trade, nil
}

// settle polls the venue until the order is terminal and commits the outcome.
// On timeout the intent is left as is for the next iteration.
func (s *Strategy) settle(ctx context.Context, state *domain.AccountState, intent *orderjournal.Intent) (*domain.TradeRecord, error) {
	pair, err := domain.ParsePair(intent.Pair)
	if err != nil {
		return nil, errors.Wrapf(err, "order %s", intent.ID)
	}

	start := time.Now()
	order, err := s.awaitTerminal(ctx, pair, intent)
	metrics.OrderSettleSeconds.Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, errOrderUnknown):
		s.reject(intent, err)
		return nil, nil
	case err != nil:
		return nil, err
	}

	if order.Status == domain.OrderStatusRejected {
		s.reject(intent, domain.ErrOrderRejected)
		return nil, nil
	}

	avg, err := order.AverageFillPrice()
	if err != nil {
		return nil, errors.Wrapf(err, "average fill price of order %s", intent.ID)
	}

	return s.commit(state, intent, order.FilledQuantity(), avg)
}

func (s *Strategy) awaitTerminal(ctx context.Context, pair domain.Pair, intent *orderjournal.Intent) (*domain.Order, error) {
	r := retrier.New(
		retrier.WithMaxRetries(-1),
		retrier.WithInitialInterval(s.cfg.OrderPollInitial),
		retrier.WithMaxInterval(s.cfg.OrderPollMaxInterval),
		retrier.WithMaxElapsedTime(s.cfg.OrderPollTimeout),
		retrier.WithRetryIf(func(err error) bool {
			return !errors.Is(err, errOrderUnknown)
		}),
	)

	order, err := retrier.DoWithData(r, ctx, func(ctx context.Context) (*domain.Order, error) {
		order, err := s.trader.PollStatus(ctx, pair, intent.ID)
		if err != nil {
			if errors.Is(err, domain.ErrOrderNotFound) && intent.Status == orderjournal.StatusPending {
				return nil, errors.Wrap(errOrderUnknown, err.Error())
			}
			s.l.Debug("order status poll failed", zap.String("intent_id", intent.ID), zap.Error(err))
			return nil, err
		}
		if !order.Status.IsTerminal() {
			return nil, errOrderPending
		}
		return order, nil
	})
	if err == nil {
		return order, nil
	}
	if errors.Is(err, errOrderUnknown) {
		return nil, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, errors.Wrapf(ctxErr, "await order %s", intent.ID)
	}

	return nil, errors.Wrapf(domain.ErrOrderTimeout, "order %s not terminal after %s: %v",
		intent.ID, s.cfg.OrderPollTimeout, err)
}

// commit records the fill in the ledger and flips the account state. Each step is journaled;
// a replay never appends a ledger row twice.
func (s *Strategy) commit(state *domain.AccountState, intent *orderjournal.Intent, qty, avg decimal.Decimal) (*domain.TradeRecord, error) {
	pair, err := domain.ParsePair(intent.Pair)
	if err != nil {
		return nil, errors.Wrapf(err, "order %s", intent.ID)
	}

	rec := domain.TradeRecord{
		Symbol:           pair.Symbol(),
		Side:             intent.Side,
		AverageFillPrice: avg,
		Quantity:         qty,
		Timestamp:        s.now(),
	}
	if !intent.RecordedAt.IsZero() {
		rec.Timestamp = intent.RecordedAt
	}

	if err := s.record(intent, rec); err != nil {
		return nil, err
	}

	if state.ApplyFill(pair, intent.Side, qty, intent.ID, s.now()) {
		if err := s.store.Save(*state); err != nil {
			return nil, errors.Wrap(err, "save account state")
		}
	}

	if err := s.journal.MarkDone(intent); err != nil {
		return nil, errors.Wrapf(err, "journal done order %s", intent.ID)
	}

	metrics.TradesTotal.WithLabelValues(intent.Side.String()).Inc()
	s.l.Info("trade committed",
		zap.String("intent_id", intent.ID),
		zap.String("trade", rec.String()),
		zap.String("mode", string(state.Mode())))

	return &rec, nil
}

// record appends rec to the ledger exactly once. The partition row count is journaled before
// the append; a recording intent whose partition grew past it was already appended.
func (s *Strategy) record(intent *orderjournal.Intent, rec domain.TradeRecord) error {
	switch intent.Status {
	case orderjournal.StatusRecorded:
		return nil
	case orderjournal.StatusRecording:
		rows, err := s.ledger.Records(rec.Timestamp)
		if err != nil {
			return errors.Wrapf(err, "read ledger for order %s", intent.ID)
		}
		if len(rows) > intent.LedgerRows {
			s.l.Info("trade already in ledger", zap.String("intent_id", intent.ID))
			return errors.Wrapf(s.journal.MarkRecorded(intent, rec.Quantity, rec.AverageFillPrice),
				"journal recorded order %s", intent.ID)
		}
	default:
		rows, err := s.ledger.Records(rec.Timestamp)
		if err != nil {
			return errors.Wrapf(err, "read ledger for order %s", intent.ID)
		}
		if err := s.journal.MarkRecording(intent, rec.Quantity, rec.AverageFillPrice, rec.Timestamp, len(rows)); err != nil {
			return errors.Wrapf(err, "journal recording order %s", intent.ID)
		}
	}

	if err := s.ledger.Append(rec); err != nil {
		return errors.Wrapf(err, "append trade %s", intent.ID)
	}
	return errors.Wrapf(s.journal.MarkRecorded(intent, rec.Quantity, rec.AverageFillPrice),
		"journal recorded order %s", intent.ID)
}

func (s *Strategy) reject(intent *orderjournal.Intent, cause error) {
	metrics.OrdersRejectedTotal.WithLabelValues(intent.Side.String()).Inc()
	s.l.Warn("order rejected, account state unchanged",
		zap.String("intent_id", intent.ID),
		zap.String("side", intent.Side.String()),
		zap.Error(cause))

	if err := s.journal.MarkFailed(intent, cause); err != nil {
		s.l.Error("failed to journal rejected order", zap.String("intent_id", intent.ID), zap.Error(err))
	}
}
