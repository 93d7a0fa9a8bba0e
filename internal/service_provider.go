package internal

import (
	"fmt"

	binance "github.com/adshao/go-binance/v2"
	bybit "github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/rsitrader/config"
	"github.com/vadiminshakov/rsitrader/internal/clients"
	"github.com/vadiminshakov/rsitrader/internal/domain"
	"github.com/vadiminshakov/rsitrader/internal/services/marketdata"
	"github.com/vadiminshakov/rsitrader/internal/services/pricer"
	"github.com/vadiminshakov/rsitrader/internal/services/strategy/rsi"
	"github.com/vadiminshakov/rsitrader/internal/services/trader"
	"github.com/vadiminshakov/rsitrader/internal/storage/simstate"
)

// serviceProvider creates venue-specific services for one platform.
type serviceProvider interface {
	Trader(pair domain.Pair) (rsi.Trader, error)
	Pricer() pricer.Pricer
	KlineProvider() marketdata.KlineProvider
}

// newServiceProvider dispatches on the client type.
func newServiceProvider(client any, conf config.Config, logger *zap.Logger) (serviceProvider, error) {
	switch c := client.(type) {
	case *binance.Client:
		return &binanceProvider{client: c}, nil
	case *clients.PaperClient:
		p := &paperProvider{client: c, quoteBalance: conf.PaperQuoteBalance, logger: logger}
		if conf.DataSource == config.DataSourceBybit {
			p.pricer = pricer.NewBybitPricer(newBybitClient(conf))
		} else {
			p.pricer = pricer.NewBinancePricer(c.Market())
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported client type: %T", client)
	}
}

// newClient builds the venue client for the configured platform.
func newClient(conf config.Config) (any, error) {
	switch conf.Platform {
	case config.PlatformBinance:
		creds := conf.Credentials
		return clients.NewBinanceClient(creds.BinanceAPIKey, creds.BinanceAPISecret, conf.Testnet), nil
	case config.PlatformPaper:
		return clients.NewPaperClient(conf.PaperDir), nil
	default:
		return nil, errors.Wrapf(domain.ErrConfig, "unsupported platform: %s", conf.Platform)
	}
}

// newKlineProvider honours data_source; bybit needs no credentials for public klines.
func newKlineProvider(conf config.Config, provider serviceProvider) marketdata.KlineProvider {
	if conf.DataSource == config.DataSourceBybit {
		return marketdata.NewBybitKlineProvider(newBybitClient(conf))
	}
	return provider.KlineProvider()
}

func newBybitClient(conf config.Config) *bybit.Client {
	creds := conf.Credentials
	return clients.NewBybitClient(creds.BybitAPIKey, creds.BybitAPISecret)
}

type binanceProvider struct {
	client *binance.Client
}

func (p *binanceProvider) Trader(_ domain.Pair) (rsi.Trader, error) {
	return trader.NewBinanceTrader(p.client), nil
}
func (p *binanceProvider) Pricer() pricer.Pricer {
	return pricer.NewBinancePricer(p.client)
}
func (p *binanceProvider) KlineProvider() marketdata.KlineProvider {
	return marketdata.NewBinanceKlineProvider(p.client)
}

type paperProvider struct {
	client       *clients.PaperClient
	quoteBalance decimal.Decimal
	logger       *zap.Logger
	pricer       pricer.Pricer
}

func (p *paperProvider) Trader(pair domain.Pair) (rsi.Trader, error) {
	store, err := simstate.NewStore(p.client.StateDir(), pair)
	if err != nil {
		return nil, errors.Wrap(err, "open paper wallet")
	}
	return trader.NewSimulateTrader(pair, p.quoteBalance, store, p.logger, p.Pricer())
}
func (p *paperProvider) Pricer() pricer.Pricer {
	return pricer.NewBinancePricer(p.client.Market())
}
func (p *paperProvider) KlineProvider() marketdata.KlineProvider {
	return marketdata.NewBinanceKlineProvider(p.client.Market())
}
