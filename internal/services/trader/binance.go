package trader

import (
	"context"
	"sync"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/rsitrader/internal/domain"
)

// Binance error codes.
const (
	binanceOrderNotFound    = -2013 // Order does not exist.
	binanceFilterFailure    = -1013
	binanceNewOrderRejected = -2010
	binanceRejectedMBXKey   = -2015
	binanceParamErrorsFirst = -1199
	binanceParamErrorsLast  = -1100
)

// BinanceTrader places spot market orders on Binance.
type BinanceTrader struct {
	client *binance.Client

	mu    sync.Mutex
	fills map[string][]domain.Fill
}

func NewBinanceTrader(client *binance.Client) *BinanceTrader {
	return &BinanceTrader{
		client: client,
		fills:  make(map[string][]domain.Fill),
	}
}

// SubmitMarketOrder sends a market order tagged with clientOrderID. Only API errors that
// prove the order was not accepted are reported as domain.ErrOrderRejected. Anything else,
// including -1006/-1007 "execution status unknown", is returned as-is since the order may
// still have been placed.
func (t *BinanceTrader) SubmitMarketOrder(ctx context.Context, pair domain.Pair, side domain.Side,
	quantity decimal.Decimal, clientOrderID string) (string, error) {
	sideType, err := toBinanceSide(side)
	if err != nil {
		return "", err
	}

	resp, err := t.client.NewCreateOrderService().Symbol(pair.Symbol()).
		Side(sideType).Type(binance.OrderTypeMarket).
		Quantity(quantity.String()).
		NewClientOrderID(clientOrderID).
		NewOrderRespType(binance.NewOrderRespTypeFULL).
		Do(ctx)
	if err != nil {
		if apiErr, ok := err.(*common.APIError); ok && notPlaced(apiErr.Code) {
			return "", errors.Wrapf(domain.ErrOrderRejected, "binance %s %s: code %d: %s",
				side, pair.Symbol(), apiErr.Code, apiErr.Message)
		}
		return "", errors.Wrap(err, "failed to submit binance market order")
	}

	fills := make([]domain.Fill, 0, len(resp.Fills))
	for _, f := range resp.Fills {
		if f == nil {
			continue
		}
		price, err := decimal.NewFromString(f.Price)
		if err != nil {
			return "", errors.Wrap(err, "failed to parse fill price")
		}
		qty, err := decimal.NewFromString(f.Quantity)
		if err != nil {
			return "", errors.Wrap(err, "failed to parse fill quantity")
		}
		fills = append(fills, domain.Fill{Price: price, Quantity: qty})
	}
	if len(fills) > 0 {
		t.mu.Lock()
		t.fills[clientOrderID] = fills
		t.mu.Unlock()
	}

	return decimal.NewFromInt(resp.OrderID).String(), nil
}

// notPlaced reports whether the venue refused the request before creating an order.
func notPlaced(code int64) bool {
	switch {
	case code == binanceNewOrderRejected, code == binanceFilterFailure, code == binanceRejectedMBXKey:
		return true
	case code >= binanceParamErrorsFirst && code <= binanceParamErrorsLast:
		return true
	}
	return false
}

// PollStatus queries the order by client order id.
func (t *BinanceTrader) PollStatus(ctx context.Context, pair domain.Pair, clientOrderID string) (*domain.Order, error) {
	order, err := t.client.NewGetOrderService().
		Symbol(pair.Symbol()).
		OrigClientOrderID(clientOrderID).
		Do(ctx)
	if err != nil {
		if apiErr, ok := err.(*common.APIError); ok && apiErr.Code == binanceOrderNotFound {
			return nil, errors.Wrapf(domain.ErrOrderNotFound, "binance order %s", clientOrderID)
		}
		return nil, errors.Wrap(err, "failed to query binance order status")
	}

	executedQty, err := decimal.NewFromString(order.ExecutedQuantity)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse executed quantity")
	}
	requestedQty, err := decimal.NewFromString(order.OrigQuantity)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse requested quantity")
	}

	result := &domain.Order{
		ID:                clientOrderID,
		VenueID:           decimal.NewFromInt(order.OrderID).String(),
		Side:              fromBinanceSide(order.Side),
		RequestedQuantity: requestedQty,
		Status:            domain.OrderStatusPending,
	}

	switch order.Status {
	case binance.OrderStatusTypeFilled:
		result.Status = domain.OrderStatusFilled
	case binance.OrderStatusTypeCanceled, binance.OrderStatusTypeRejected, binance.OrderStatusTypeExpired:
		// a partially executed market order that was cancelled still moved funds
		if executedQty.IsPositive() {
			result.Status = domain.OrderStatusFilled
		} else {
			result.Status = domain.OrderStatusRejected
		}
	default:
		return result, nil
	}

	if result.Status == domain.OrderStatusFilled {
		fills, err := t.fillsFor(clientOrderID, executedQty, order.CummulativeQuoteQuantity)
		if err != nil {
			return nil, err
		}
		result.Fills = fills

		t.mu.Lock()
		delete(t.fills, clientOrderID)
		t.mu.Unlock()
	}

	return result, nil
}

// GetBalance returns the free spot balance of asset.
func (t *BinanceTrader) GetBalance(ctx context.Context, currency string) (decimal.Decimal, error) {
	account, err := t.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "failed to get binance account balance")
	}

	for _, balance := range account.Balances {
		if balance.Asset == currency {
			free, err := decimal.NewFromString(balance.Free)
			if err != nil {
				return decimal.Zero, errors.Wrap(err, "failed to parse balance")
			}
			return free, nil
		}
	}

	return decimal.Zero, nil
}

// fillsFor prefers the per-trade fills of the create response; when they are unknown
// (e.g. after a restart) a single aggregate fill is derived from cumulative quote volume.
func (t *BinanceTrader) fillsFor(clientOrderID string, executedQty decimal.Decimal, cumQuote string) ([]domain.Fill, error) {
	t.mu.Lock()
	cached := t.fills[clientOrderID]
	t.mu.Unlock()

	if len(cached) > 0 {
		total := decimal.Zero
		for _, f := range cached {
			total = total.Add(f.Quantity)
		}
		if total.Equal(executedQty) {
			return cached, nil
		}
	}

	if !executedQty.IsPositive() {
		return nil, errors.Errorf("binance order %s filled without executed quantity", clientOrderID)
	}

	quote, err := decimal.NewFromString(cumQuote)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse cumulative quote quantity")
	}

	return []domain.Fill{{Price: quote.DivRound(executedQty, 8), Quantity: executedQty}}, nil
}

func toBinanceSide(side domain.Side) (binance.SideType, error) {
	switch side {
	case domain.SideBuy:
		return binance.SideTypeBuy, nil
	case domain.SideSell:
		return binance.SideTypeSell, nil
	default:
		return "", errors.Errorf("unknown side %q", side)
	}
}

func fromBinanceSide(side binance.SideType) domain.Side {
	if side == binance.SideTypeSell {
		return domain.SideSell
	}
	return domain.SideBuy
}
