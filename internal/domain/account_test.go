package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountState_ApplyFill(t *testing.T) {
	pair := Pair{From: "BTC", To: "USDT"}
	qty := decimal.RequireFromString("0.01")
	now := time.Now()

	state := NewAccountState()
	require.True(t, state.CanBuy)
	require.Equal(t, ModeBuying, state.Mode())

	applied := state.ApplyFill(pair, SideBuy, qty, "buy-1", now)
	require.True(t, applied)
	assert.False(t, state.CanBuy)
	assert.Equal(t, ModeHolding, state.Mode())
	assert.True(t, state.Holdings["BTC"].Equal(qty))

	// same order is never applied twice
	applied = state.ApplyFill(pair, SideBuy, qty, "buy-1", now)
	assert.False(t, applied)
	assert.True(t, state.Holdings["BTC"].Equal(qty))

	applied = state.ApplyFill(pair, SideSell, qty, "sell-1", now)
	require.True(t, applied)
	assert.True(t, state.CanBuy)
	assert.True(t, state.Holdings["BTC"].IsZero())
	assert.Equal(t, "sell-1", state.LastOrderID)
}

func TestAccountState_Clone(t *testing.T) {
	state := NewAccountState()
	state.Holdings["BTC"] = decimal.NewFromInt(1)

	clone := state.Clone()
	clone.Holdings["BTC"] = decimal.NewFromInt(2)

	assert.True(t, state.Holdings["BTC"].Equal(decimal.NewFromInt(1)))
}

func TestParsePair(t *testing.T) {
	pair, err := ParsePair("btc_usdt")
	require.NoError(t, err)
	assert.Equal(t, Pair{From: "BTC", To: "USDT"}, pair)
	assert.Equal(t, "BTCUSDT", pair.Symbol())
	assert.Equal(t, "BTC_USDT", pair.String())

	for _, bad := range []string{"", "BTCUSDT", "BTC_", "_USDT", "A_B_C"} {
		_, err := ParsePair(bad)
		assert.Error(t, err, bad)
	}
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(ErrStateCorruption))
	assert.True(t, IsFatal(ErrConfig))
	assert.False(t, IsFatal(ErrDataUnavailable))
	assert.False(t, IsFatal(ErrOrderTimeout))
	assert.Equal(t, "order_rejected", ErrorKind(ErrOrderRejected))
}
