package indicators

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/rsitrader/internal/domain"
)

func closesFrom(values ...float64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.NewFromFloat(v)
	}
	return out
}

func ramp(start, step float64, n int) []decimal.Decimal {
	values := make([]float64, n)
	for i := range values {
		values[i] = start + step*float64(i)
	}
	return closesFrom(values...)
}

func TestRSI_Latest(t *testing.T) {
	t.Run("only gains", func(t *testing.T) {
		v, err := NewRSI(14).Latest(ramp(100, 1, 60))
		require.NoError(t, err)
		assert.InDelta(t, 100, v, 1e-6)
	})

	t.Run("only losses", func(t *testing.T) {
		v, err := NewRSI(14).Latest(ramp(200, -1, 60))
		require.NoError(t, err)
		assert.InDelta(t, 0, v, 1e-6)
	})

	t.Run("flat series is neutral", func(t *testing.T) {
		v, err := NewRSI(14).Latest(ramp(100, 0, 30))
		require.NoError(t, err)
		assert.InDelta(t, 50, v, 1e-6)
	})

	t.Run("minimum window", func(t *testing.T) {
		_, err := NewRSI(14).Latest(ramp(100, 1, 15))
		require.NoError(t, err)
	})

	t.Run("insufficient history", func(t *testing.T) {
		_, err := NewRSI(14).Latest(ramp(100, 1, 14))
		require.ErrorIs(t, err, domain.ErrInsufficientHistory)

		_, err = NewRSI(14).Latest(nil)
		require.ErrorIs(t, err, domain.ErrInsufficientHistory)
	})
}

func TestRSI_SeriesBoundedAndDeterministic(t *testing.T) {
	closes := closesFrom(
		100, 101.5, 99.8, 102.3, 103.1, 101.0, 98.7, 97.2, 99.9, 104.4,
		105.0, 103.3, 102.8, 101.1, 100.2, 99.0, 98.1, 100.5, 102.2, 101.7,
		103.9, 106.1, 104.0, 102.5, 101.8, 100.9, 99.4, 98.8, 97.5, 99.1,
	)

	rsi := NewRSI(14)
	first, err := rsi.Series(closes)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	for _, v := range first {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}

	second, err := rsi.Series(closes)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNewRSI_DefaultPeriod(t *testing.T) {
	assert.Equal(t, DefaultRSIPeriod, NewRSI(0).Period())
	assert.Equal(t, 15, NewRSI(0).MinSamples())
}
