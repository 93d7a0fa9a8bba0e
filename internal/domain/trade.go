package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TradeRecord completed trade, one per filled order.
type TradeRecord struct {
	Symbol           string
	Side             Side
	AverageFillPrice decimal.Decimal
	Quantity         decimal.Decimal
	Timestamp        time.Time
}

// String returns a human-readable string representation.
func (t TradeRecord) String() string {
	return fmt.Sprintf("%s %s %s for %s per unit", t.Side, t.Quantity.String(), t.Symbol, t.AverageFillPrice.String())
}
