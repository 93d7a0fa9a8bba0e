package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint a closing price sample.
type PricePoint struct {
	Time  time.Time
	Price decimal.Decimal
}

// Closes extracts prices preserving order.
func Closes(points []PricePoint) []decimal.Decimal {
	out := make([]decimal.Decimal, len(points))
	for i, p := range points {
		out[i] = p.Price
	}
	return out
}
