package domain

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// OrderStatus lifecycle status of a venue order.
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusFilled   OrderStatus = "filled"
	OrderStatusRejected OrderStatus = "rejected"
)

// IsTerminal reports whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusFilled || s == OrderStatusRejected
}

// Fill a single execution of (part of) an order.
type Fill struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// Order a market order as observed on the venue.
type Order struct {
	// ID client order id, assigned before submission.
	ID string
	// VenueID order id assigned by the venue.
	VenueID           string
	Side              Side
	RequestedQuantity decimal.Decimal
	Status            OrderStatus
	Fills             []Fill
}

// FilledQuantity sum of fill quantities.
func (o *Order) FilledQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, f := range o.Fills {
		total = total.Add(f.Quantity)
	}
	return total
}

// AverageFillPrice quantity-weighted average price across all fills.
func (o *Order) AverageFillPrice() (decimal.Decimal, error) {
	qty := decimal.Zero
	notional := decimal.Zero
	for _, f := range o.Fills {
		if f.Quantity.IsNegative() || f.Price.IsNegative() {
			return decimal.Zero, errors.Errorf("order %s has negative fill %s@%s", o.ID, f.Quantity, f.Price)
		}
		qty = qty.Add(f.Quantity)
		notional = notional.Add(f.Price.Mul(f.Quantity))
	}

	if qty.IsZero() {
		return decimal.Zero, errors.Errorf("order %s has no filled quantity", o.ID)
	}

	return notional.DivRound(qty, 8), nil
}
