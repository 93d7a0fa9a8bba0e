// Package config loads the bot configuration from a YAML file and the environment.
package config

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/rsitrader/internal/domain"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultPath config file used when --config is not given.
	DefaultPath = "config.yaml"
	// DefaultEnvFile optional dotenv file with credentials.
	DefaultEnvFile = ".env"

	PlatformBinance = "binance"
	PlatformPaper   = "paper"

	DataSourceBinance = "binance"
	DataSourceBybit   = "bybit"
)

var validIntervals = map[string]struct{}{
	"1m": {}, "3m": {}, "5m": {}, "15m": {}, "30m": {},
	"1h": {}, "2h": {}, "4h": {}, "6h": {}, "8h": {}, "12h": {},
	"1d": {}, "3d": {}, "1w": {}, "1M": {},
}

// File on-disk representation of the configuration.
type File struct {
	Platform             string        `yaml:"platform"`
	DataSource           string        `yaml:"data_source"`
	Pair                 string        `yaml:"pair"`
	Interval             string        `yaml:"interval"`
	Lookback             int           `yaml:"lookback"`
	RSIPeriod            int           `yaml:"rsi_period"`
	EntryThreshold       float64       `yaml:"entry_threshold"`
	ExitThreshold        float64       `yaml:"exit_threshold"`
	Quantity             string        `yaml:"quantity"`
	PollInterval         time.Duration `yaml:"poll_interval"`
	OrderPollInitial     time.Duration `yaml:"order_poll_initial"`
	OrderPollMaxInterval time.Duration `yaml:"order_poll_max_interval"`
	OrderPollTimeout     time.Duration `yaml:"order_poll_timeout"`
	StateFile            string        `yaml:"state_file"`
	TradesDir            string        `yaml:"trades_dir"`
	LogsDir              string        `yaml:"logs_dir"`
	LogLevel             string        `yaml:"log_level"`
	WALDir               string        `yaml:"wal_dir"`
	PaperDir             string        `yaml:"paper_dir"`
	PaperQuoteBalance    string        `yaml:"paper_quote_balance"`
	AdminAddr            string        `yaml:"admin_addr,omitempty"`
	Testnet              bool          `yaml:"testnet"`
}

// Credentials venue API keys, taken from the environment only.
type Credentials struct {
	BinanceAPIKey    string
	BinanceAPISecret string
	BybitAPIKey      string
	BybitAPISecret   string
}

// Config validated, immutable runtime parameters.
type Config struct {
	Platform             string
	DataSource           string
	Pair                 domain.Pair
	Interval             string
	Lookback             int
	RSIPeriod            int
	Thresholds           domain.Thresholds
	Quantity             decimal.Decimal
	PollInterval         time.Duration
	OrderPollInitial     time.Duration
	OrderPollMaxInterval time.Duration
	OrderPollTimeout     time.Duration
	StateFile            string
	TradesDir            string
	LogsDir              string
	LogLevel             string
	WALDir               string
	PaperDir             string
	PaperQuoteBalance    decimal.Decimal
	AdminAddr            string
	Testnet              bool
	Credentials          Credentials
}

// Default configuration values.
func Default() File {
	return File{
		Platform:             PlatformPaper,
		DataSource:           DataSourceBinance,
		Pair:                 "BTC_USDT",
		Interval:             "1m",
		Lookback:             60,
		RSIPeriod:            14,
		EntryThreshold:       25,
		ExitThreshold:        74,
		Quantity:             "0.01",
		PollInterval:         10 * time.Second,
		OrderPollInitial:     time.Second,
		OrderPollMaxInterval: 10 * time.Second,
		OrderPollTimeout:     2 * time.Minute,
		StateFile:            "bot_account.json",
		TradesDir:            "trades",
		LogsDir:              "logs",
		LogLevel:             "info",
		WALDir:               filepath.Join("wal", "orders"),
		PaperDir:             filepath.Join("wal", "paper"),
		PaperQuoteBalance:    "10000",
		Testnet:              true,
	}
}

// Load reads the dotenv file (if any), the YAML file at path and the environment.
func Load(path string) (Config, error) {
	if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, errors.Wrapf(domain.ErrConfig, "load %s: %v", DefaultEnvFile, err)
	}

	f, err := ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	return Parse(f, os.Getenv)
}

// ReadFile decodes the YAML file on top of the defaults.
func ReadFile(path string) (File, error) {
	if path == "" {
		path = DefaultPath
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		return File{}, errors.Wrapf(domain.ErrConfig, "read config %s: %v", path, err)
	}

	f := Default()
	if err := yaml.Unmarshal(payload, &f); err != nil {
		return File{}, errors.Wrapf(domain.ErrConfig, "decode config %s: %v", path, err)
	}

	return f, nil
}

// WriteFile stores f as YAML.
func WriteFile(path string, f File) error {
	payload, err := yaml.Marshal(f)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create config dir %s", dir)
		}
	}

	return errors.Wrapf(os.WriteFile(path, payload, 0o600), "write config %s", path)
}

// Parse validates f and resolves credentials with getenv.
func Parse(f File, getenv func(string) string) (Config, error) {
	pair, err := domain.ParsePair(f.Pair)
	if err != nil {
		return Config{}, invalid("pair", err.Error())
	}

	quantity, err := decimal.NewFromString(f.Quantity)
	if err != nil {
		return Config{}, invalid("quantity", fmt.Sprintf("%q is not a decimal", f.Quantity))
	}
	if !quantity.IsPositive() {
		return Config{}, invalid("quantity", "must be positive")
	}

	conf := Config{
		Platform:             f.Platform,
		DataSource:           f.DataSource,
		Pair:                 pair,
		Interval:             f.Interval,
		Lookback:             f.Lookback,
		RSIPeriod:            f.RSIPeriod,
		Thresholds:           domain.Thresholds{Entry: f.EntryThreshold, Exit: f.ExitThreshold},
		Quantity:             quantity,
		PollInterval:         f.PollInterval,
		OrderPollInitial:     f.OrderPollInitial,
		OrderPollMaxInterval: f.OrderPollMaxInterval,
		OrderPollTimeout:     f.OrderPollTimeout,
		StateFile:            f.StateFile,
		TradesDir:            f.TradesDir,
		LogsDir:              f.LogsDir,
		LogLevel:             f.LogLevel,
		WALDir:               f.WALDir,
		PaperDir:             f.PaperDir,
		AdminAddr:            f.AdminAddr,
		Testnet:              f.Testnet,
		Credentials: Credentials{
			BinanceAPIKey:    getenv("BINANCE_API_KEY"),
			BinanceAPISecret: getenv("BINANCE_API_SECRET"),
			BybitAPIKey:      getenv("BYBIT_API_KEY"),
			BybitAPISecret:   getenv("BYBIT_API_SECRET"),
		},
	}

	if conf.Platform == PlatformPaper {
		conf.PaperQuoteBalance, err = decimal.NewFromString(f.PaperQuoteBalance)
		if err != nil || conf.PaperQuoteBalance.IsNegative() {
			return Config{}, invalid("paper_quote_balance", fmt.Sprintf("%q is not a non-negative decimal", f.PaperQuoteBalance))
		}
	}

	if err := conf.Validate(); err != nil {
		return Config{}, err
	}

	return conf, nil
}

// Validate checks parameter ranges and required credentials.
func (c Config) Validate() error {
	switch c.Platform {
	case PlatformBinance:
		if c.Credentials.BinanceAPIKey == "" || c.Credentials.BinanceAPISecret == "" {
			return invalid("credentials", "BINANCE_API_KEY and BINANCE_API_SECRET environment variables must be set")
		}
	case PlatformPaper:
	default:
		return invalid("platform", fmt.Sprintf("unsupported platform %q", c.Platform))
	}

	switch c.DataSource {
	case DataSourceBinance, DataSourceBybit:
	default:
		return invalid("data_source", fmt.Sprintf("unsupported data source %q", c.DataSource))
	}

	if _, ok := validIntervals[c.Interval]; !ok {
		return invalid("interval", fmt.Sprintf("unsupported interval %q", c.Interval))
	}
	if c.RSIPeriod < 2 {
		return invalid("rsi_period", "must be at least 2")
	}
	if c.Lookback < c.RSIPeriod+1 {
		return invalid("lookback", fmt.Sprintf("must be at least rsi_period+1 (%d)", c.RSIPeriod+1))
	}

	t := c.Thresholds
	if t.Entry < 0 || t.Entry > 100 || t.Exit < 0 || t.Exit > 100 {
		return invalid("thresholds", "must be within [0, 100]")
	}
	if t.Entry >= t.Exit {
		return invalid("thresholds", fmt.Sprintf("entry %.2f must be below exit %.2f", t.Entry, t.Exit))
	}

	if c.PollInterval <= 0 {
		return invalid("poll_interval", "must be positive")
	}
	if c.OrderPollInitial <= 0 || c.OrderPollMaxInterval < c.OrderPollInitial {
		return invalid("order_poll_initial", "must be positive and not above order_poll_max_interval")
	}
	if c.OrderPollTimeout < c.OrderPollInitial {
		return invalid("order_poll_timeout", "must not be below order_poll_initial")
	}

	if c.StateFile == "" || c.TradesDir == "" || c.LogsDir == "" || c.WALDir == "" {
		return invalid("paths", "state_file, trades_dir, logs_dir and wal_dir are required")
	}

	return nil
}

func invalid(field, reason string) error {
	return errors.Wrapf(domain.ErrConfig, "%s: %s", field, reason)
}
