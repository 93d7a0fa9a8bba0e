package clients

import (
	"github.com/hirokisan/bybit/v2"
)

// NewBybitClient creates a client; without keys only public market endpoints are usable.
func NewBybitClient(apiKey, apiSecret string) *bybit.Client {
	client := bybit.NewClient()
	if apiKey != "" && apiSecret != "" {
		client = client.WithAuth(apiKey, apiSecret)
	}

	return client
}
