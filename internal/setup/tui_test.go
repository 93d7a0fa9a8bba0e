package setup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/rsitrader/config"
	"github.com/vadiminshakov/rsitrader/internal/domain"
)

func TestBuildFile(t *testing.T) {
	a := defaultAnswers()
	a.platform = config.PlatformBinance
	a.pair = "eth_usdt"
	a.entry = "30"
	a.exit = "70"
	a.pollInterval = "1m"

	f, err := buildFile(a)
	require.NoError(t, err)
	assert.Equal(t, config.PlatformBinance, f.Platform)
	assert.Equal(t, 30.0, f.EntryThreshold)
	assert.Equal(t, 70.0, f.ExitThreshold)
	assert.Equal(t, time.Minute, f.PollInterval)
	assert.Equal(t, config.Default().OrderPollTimeout, f.OrderPollTimeout)
}

func TestBuildFile_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*answers)
	}{
		{name: "entry not a number", mutate: func(a *answers) { a.entry = "low" }},
		{name: "entry above exit", mutate: func(a *answers) { a.entry, a.exit = "80", "20" }},
		{name: "bad duration", mutate: func(a *answers) { a.pollInterval = "soon" }},
		{name: "bad interval", mutate: func(a *answers) { a.interval = "2m" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := defaultAnswers()
			tt.mutate(&a)
			_, err := buildFile(a)
			require.ErrorIs(t, err, domain.ErrConfig)
		})
	}
}

func TestValidators(t *testing.T) {
	assert.NoError(t, validatePair("BTC_USDT"))
	assert.Error(t, validatePair("BTCUSDT"))

	assert.NoError(t, validateQuantity("0.01"))
	assert.Error(t, validateQuantity("0"))
	assert.Error(t, validateQuantity("abc"))

	assert.NoError(t, validateThreshold("25"))
	assert.Error(t, validateThreshold("101"))
	assert.Error(t, validateThreshold("-1"))

	assert.NoError(t, validateDuration("10s"))
	assert.Error(t, validateDuration("0s"))
	assert.Error(t, validateDuration("x"))
}
