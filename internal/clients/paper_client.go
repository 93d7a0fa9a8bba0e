package clients

import (
	"github.com/adshao/go-binance/v2"
)

// PaperClient public Binance market data plus the directory of the paper wallet.
type PaperClient struct {
	market   *binance.Client
	stateDir string
}

// NewPaperClient creates a paper venue client. Prices come from the public mainnet API.
func NewPaperClient(stateDir string) *PaperClient {
	return &PaperClient{
		market:   binance.NewClient("", ""),
		stateDir: stateDir,
	}
}

// Market returns the unauthenticated Binance client.
func (c *PaperClient) Market() *binance.Client {
	return c.market
}

// StateDir returns where the paper wallet is persisted.
func (c *PaperClient) StateDir() string {
	return c.stateDir
}
