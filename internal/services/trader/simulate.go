package trader

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/rsitrader/internal/domain"
	"github.com/vadiminshakov/rsitrader/internal/storage/simstate"
	"go.uber.org/zap"
)

// DefaultQuoteBalance starting quote balance of a fresh paper wallet.
var DefaultQuoteBalance = decimal.NewFromInt(10000)

// maxStoredOrders bounds the paper order book; older orders are evicted first.
const maxStoredOrders = 100

// Pricer defines an interface for getting the price of a trading pair.
type Pricer interface {
	GetPrice(ctx context.Context, pair domain.Pair) (decimal.Decimal, error)
}

// SimulateTrader paper spot venue: market orders fill instantly at the current price.
type SimulateTrader struct {
	mu         sync.RWMutex
	pair       domain.Pair
	logger     *zap.Logger
	wallet     map[string]decimal.Decimal
	orders     map[string]*domain.Order
	seq        int
	pricer     Pricer
	stateStore *simstate.Store
}

// NewSimulateTrader creates a new SimulateTrader. A nil store keeps the wallet in memory only.
func NewSimulateTrader(pair domain.Pair, quoteBalance decimal.Decimal, store *simstate.Store,
	logger *zap.Logger, pricer Pricer) (*SimulateTrader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pricer == nil {
		return nil, errors.New("pricer is required for SimulateTrader")
	}
	if !quoteBalance.IsPositive() {
		quoteBalance = DefaultQuoteBalance
	}

	trader := &SimulateTrader{
		pair:       pair,
		logger:     logger,
		wallet:     map[string]decimal.Decimal{pair.From: decimal.Zero, pair.To: quoteBalance},
		orders:     make(map[string]*domain.Order),
		pricer:     pricer,
		stateStore: store,
	}
	if err := trader.restoreState(); err != nil {
		return nil, errors.Wrap(err, "restore simulate state")
	}

	logger.Info("simulate init",
		zap.String("pair", pair.String()),
		zap.String("base", trader.wallet[pair.From].String()),
		zap.String("quote", trader.wallet[pair.To].String()))
	return trader, nil
}

// SubmitMarketOrder fills the order at the current price. Resubmitting a known client id
// returns the existing order.
func (t *SimulateTrader) SubmitMarketOrder(ctx context.Context, pair domain.Pair, side domain.Side,
	quantity decimal.Decimal, clientOrderID string) (string, error) {
	if pair != t.pair {
		return "", errors.Wrapf(domain.ErrOrderRejected, "simulator trades %s only, got %s", t.pair, pair)
	}
	if !quantity.IsPositive() {
		return "", errors.Wrapf(domain.ErrOrderRejected, "%s amount must be positive, got %s", side, quantity)
	}

	price, err := t.pricer.GetPrice(ctx, t.pair)
	if err != nil {
		return "", errors.Wrap(err, "failed to get price for simulated order")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.orders[clientOrderID]; ok {
		return existing.VenueID, nil
	}

	switch side {
	case domain.SideBuy:
		cost := quantity.Mul(price)
		if t.wallet[t.pair.To].LessThan(cost) {
			return "", errors.Wrapf(domain.ErrOrderRejected, "insufficient %s balance: have %s need %s",
				t.pair.To, t.wallet[t.pair.To], cost)
		}
		t.wallet[t.pair.To] = t.wallet[t.pair.To].Sub(cost)
		t.wallet[t.pair.From] = t.wallet[t.pair.From].Add(quantity)
	case domain.SideSell:
		if t.wallet[t.pair.From].LessThan(quantity) {
			return "", errors.Wrapf(domain.ErrOrderRejected, "insufficient %s balance: have %s need %s",
				t.pair.From, t.wallet[t.pair.From], quantity)
		}
		t.wallet[t.pair.From] = t.wallet[t.pair.From].Sub(quantity)
		t.wallet[t.pair.To] = t.wallet[t.pair.To].Add(quantity.Mul(price))
	default:
		return "", errors.Errorf("unknown side %q", side)
	}

	t.seq++
	order := &domain.Order{
		ID:                clientOrderID,
		VenueID:           fmt.Sprintf("paper-%d", t.seq),
		Side:              side,
		RequestedQuantity: quantity,
		Status:            domain.OrderStatusFilled,
		Fills:             []domain.Fill{{Price: price, Quantity: quantity}},
	}
	t.orders[clientOrderID] = order
	t.prune()
	t.persist()

	t.logger.Info("Simulated order executed",
		zap.String("id", clientOrderID),
		zap.String("side", side.String()),
		zap.String("amount", quantity.String()),
		zap.String("price", price.String()))
	return order.VenueID, nil
}

// PollStatus returns the stored order.
func (t *SimulateTrader) PollStatus(ctx context.Context, pair domain.Pair, clientOrderID string) (*domain.Order, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	o, ok := t.orders[clientOrderID]
	if !ok {
		return nil, errors.Wrapf(domain.ErrOrderNotFound, "simulated order %s", clientOrderID)
	}
	clone := *o
	clone.Fills = append([]domain.Fill(nil), o.Fills...)
	return &clone, nil
}

func (t *SimulateTrader) GetBalance(ctx context.Context, currency string) (decimal.Decimal, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.wallet[currency], nil
}

func (t *SimulateTrader) restoreState() error {
	if t.stateStore == nil {
		return nil
	}
	state, err := t.stateStore.Load()
	if err != nil || state == nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for currency, balanceStr := range state.Wallet {
		if balanceStr == "" {
			t.wallet[currency] = decimal.Zero
			continue
		}
		parsed, err := decimal.NewFromString(balanceStr)
		if err != nil {
			return errors.Wrapf(err, "decode %s balance", currency)
		}
		t.wallet[currency] = parsed
	}

	for id, stored := range state.Orders {
		order, err := stored.ToOrder(id)
		if err != nil {
			return errors.Wrapf(err, "decode order %s", id)
		}
		t.orders[id] = order
		if n := venueSeq(order.VenueID); n > t.seq {
			t.seq = n
		}
	}
	t.prune()

	return nil
}

// prune drops the oldest orders beyond maxStoredOrders. Callers hold t.mu.
func (t *SimulateTrader) prune() {
	if len(t.orders) <= maxStoredOrders {
		return
	}

	ids := make([]string, 0, len(t.orders))
	for id := range t.orders {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return venueSeq(t.orders[ids[i]].VenueID) < venueSeq(t.orders[ids[j]].VenueID)
	})
	for _, id := range ids[:len(ids)-maxStoredOrders] {
		delete(t.orders, id)
	}
}

func venueSeq(venueID string) int {
	var n int
	if _, err := fmt.Sscanf(venueID, "paper-%d", &n); err != nil {
		return 0
	}
	return n
}

func (t *SimulateTrader) persist() {
	if t.stateStore == nil {
		return
	}

	state := simstate.State{
		Pair:   t.pair.String(),
		Wallet: make(map[string]string, len(t.wallet)),
		Orders: make(map[string]simstate.StoredOrder, len(t.orders)),
	}
	for currency, balance := range t.wallet {
		state.Wallet[currency] = balance.String()
	}
	for id, order := range t.orders {
		state.Orders[id] = simstate.NewStoredOrder(order)
	}

	if err := t.stateStore.Save(state); err != nil {
		t.logger.Warn("failed to persist simulate state", zap.Error(err))
	}
}
