package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecide(t *testing.T) {
	th := Thresholds{Entry: 25, Exit: 74}

	tests := []struct {
		name     string
		mode     Mode
		previous float64
		current  float64
		want     Decision
	}{
		{name: "entry crossing while buying", mode: ModeBuying, previous: 30, current: 24, want: DecisionBuy},
		{name: "exit crossing while holding", mode: ModeHolding, previous: 70, current: 76, want: DecisionSell},
		{name: "flat below entry", mode: ModeBuying, previous: 20, current: 20, want: DecisionNone},
		{name: "stays below entry", mode: ModeBuying, previous: 24, current: 22, want: DecisionNone},
		{name: "stays above exit", mode: ModeHolding, previous: 80, current: 78, want: DecisionNone},
		{name: "entry crossing ignored while holding", mode: ModeHolding, previous: 30, current: 24, want: DecisionNone},
		{name: "exit crossing ignored while buying", mode: ModeBuying, previous: 70, current: 76, want: DecisionNone},
		{name: "touching entry is not a crossing", mode: ModeBuying, previous: 30, current: 25, want: DecisionNone},
		{name: "starting on entry is not a crossing", mode: ModeBuying, previous: 25, current: 20, want: DecisionNone},
		{name: "upward move through entry", mode: ModeBuying, previous: 20, current: 30, want: DecisionNone},
		{name: "cold start", mode: ModeBuying, previous: 24, current: 24, want: DecisionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.mode, tt.previous, tt.current, th))
		})
	}
}

func TestDecide_FiresOncePerTraversal(t *testing.T) {
	th := Thresholds{Entry: 25, Exit: 74}
	series := []float64{40, 30, 24, 20, 18, 22, 26, 31, 23, 21}

	fired := 0
	for i := 1; i < len(series); i++ {
		if Decide(ModeBuying, series[i-1], series[i], th) == DecisionBuy {
			fired++
		}
	}

	// two downward traversals: 30->24 and 31->23
	require.Equal(t, 2, fired)
}

func TestDecision_Side(t *testing.T) {
	side, ok := DecisionBuy.Side()
	require.True(t, ok)
	assert.Equal(t, SideBuy, side)

	side, ok = DecisionSell.Side()
	require.True(t, ok)
	assert.Equal(t, SideSell, side)

	_, ok = DecisionNone.Side()
	assert.False(t, ok)
}
