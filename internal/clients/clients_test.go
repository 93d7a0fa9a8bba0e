package clients

import (
	"testing"

	"github.com/adshao/go-binance/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBinanceClient_Testnet(t *testing.T) {
	t.Cleanup(func() { binance.UseTestnet = false })

	client := NewBinanceClient("key", "secret", true)
	require.NotNil(t, client)
	assert.Contains(t, client.BaseURL, "testnet")

	client = NewBinanceClient("key", "secret", false)
	assert.NotContains(t, client.BaseURL, "testnet")
}

func TestNewPaperClient(t *testing.T) {
	c := NewPaperClient("/tmp/paper")
	require.NotNil(t, c.Market())
	assert.Equal(t, "/tmp/paper", c.StateDir())
	assert.Empty(t, c.Market().APIKey)
}

func TestNewBybitClient(t *testing.T) {
	assert.NotNil(t, NewBybitClient("", ""))
	assert.NotNil(t, NewBybitClient("key", "secret"))
}
