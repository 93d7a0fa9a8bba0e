// Package marketdata fetches recent closing prices from cryptocurrency exchanges.
package marketdata

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/rsitrader/internal/domain"
)

const fetchTimeout = 30 * time.Second

// KlineData represents a single candlestick data point
type KlineData struct {
	OpenTime  time.Time
	Close     decimal.Decimal
	CloseTime time.Time
}

// KlineProvider defines the interface for fetching kline (candlestick) data
type KlineProvider interface {
	// GetKlines fetches the most recent klines for a trading pair.
	// interval uses exchange-neutral notation ("1m", "5m", "1h", "1d").
	GetKlines(ctx context.Context, pair domain.Pair, interval string, limit int) ([]KlineData, error)
}

// Collector turns venue klines into an ordered closing price window.
type Collector struct {
	provider KlineProvider
}

// NewCollector creates a collector over the given provider.
func NewCollector(provider KlineProvider) *Collector {
	return &Collector{provider: provider}
}

// FetchRecent returns exactly lookback closes, newest last. Any failure, including a short
// or malformed window, is reported as domain.ErrDataUnavailable.
func (c *Collector) FetchRecent(ctx context.Context, pair domain.Pair, interval string, lookback int) ([]domain.PricePoint, error) {
	if lookback <= 0 {
		return nil, errors.Errorf("lookback must be > 0, got %d", lookback)
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	klines, err := c.provider.GetKlines(ctxWithTimeout, pair, interval, lookback)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrapf(domain.ErrDataUnavailable, "fetch klines for %s: %v", pair, err)
	}
	if len(klines) < lookback {
		return nil, errors.Wrapf(domain.ErrDataUnavailable, "got %d klines for %s, want %d", len(klines), pair, lookback)
	}

	sort.SliceStable(klines, func(i, j int) bool {
		return klines[i].OpenTime.Before(klines[j].OpenTime)
	})
	klines = klines[len(klines)-lookback:]

	points := make([]domain.PricePoint, len(klines))
	for i, k := range klines {
		if !k.Close.IsPositive() {
			return nil, errors.Wrapf(domain.ErrDataUnavailable, "non-positive close %s at index %d", k.Close, i)
		}
		ts := k.CloseTime
		if ts.IsZero() {
			ts = k.OpenTime
		}
		points[i] = domain.PricePoint{Time: ts, Price: k.Close}
	}

	return points, nil
}
