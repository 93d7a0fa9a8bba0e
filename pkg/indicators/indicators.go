// Package indicators computes momentum oscillators over closing prices.
package indicators

import (
	"math"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/rsitrader/internal/domain"
)

// DefaultRSIPeriod classic Wilder look-back.
const DefaultRSIPeriod = 14

// neutralRSI value reported when the window has neither gains nor losses.
const neutralRSI = 50.0

// RSI relative strength index calculator with a fixed period.
type RSI struct {
	period int
}

// NewRSI creates an RSI calculator. Non-positive periods fall back to DefaultRSIPeriod.
func NewRSI(period int) *RSI {
	if period <= 0 {
		period = DefaultRSIPeriod
	}
	return &RSI{period: period}
}

// Period returns the look-back period.
func (r *RSI) Period() int {
	return r.period
}

// MinSamples minimum number of closes required for one value.
func (r *RSI) MinSamples() int {
	return r.period + 1
}

// Latest returns the RSI of the most recent sample, always within [0, 100].
func (r *RSI) Latest(closes []decimal.Decimal) (float64, error) {
	series, err := r.Series(closes)
	if err != nil {
		return 0, err
	}

	return series[len(series)-1], nil
}

// Series returns RSI values for every sample past the warmup period.
func (r *RSI) Series(closes []decimal.Decimal) ([]float64, error) {
	if len(closes) < r.MinSamples() {
		return nil, errors.Wrapf(domain.ErrInsufficientHistory, "rsi(%d) needs %d closes, got %d",
			r.period, r.MinSamples(), len(closes))
	}

	rsi := momentum.NewRsiWithPeriod[float64](r.period)
	inputChan := helper.SliceToChan(decimalsToFloat64(closes))
	out := helper.ChanToSlice(rsi.Compute(inputChan))
	if len(out) == 0 {
		return nil, errors.Wrapf(domain.ErrInsufficientHistory, "rsi(%d) produced no values from %d closes",
			r.period, len(closes))
	}

	for i, v := range out {
		out[i] = normalize(v)
	}

	return out, nil
}

// normalize maps the degenerate flat-window result to neutral and clamps to the oscillator range.
func normalize(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return neutralRSI
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// decimalsToFloat64 converts a slice of decimal.Decimal to []float64.
func decimalsToFloat64(decimals []decimal.Decimal) []float64 {
	result := make([]float64, len(decimals))
	for i, d := range decimals {
		result[i], _ = d.Float64()
	}
	return result
}
