// Package setup is the interactive configuration wizard.
package setup

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/rsitrader/config"
	"github.com/vadiminshakov/rsitrader/internal/domain"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// answers raw wizard input.
type answers struct {
	platform     string
	dataSource   string
	pair         string
	interval     string
	entry        string
	exit         string
	quantity     string
	pollInterval string
	adminAddr    string
	testnet      bool
}

func defaultAnswers() answers {
	d := config.Default()
	return answers{
		platform:     d.Platform,
		dataSource:   d.DataSource,
		pair:         d.Pair,
		interval:     d.Interval,
		entry:        strconv.FormatFloat(d.EntryThreshold, 'f', -1, 64),
		exit:         strconv.FormatFloat(d.ExitThreshold, 'f', -1, 64),
		quantity:     d.Quantity,
		pollInterval: d.PollInterval.String(),
		testnet:      d.Testnet,
	}
}

func step(title string) {
	fmt.Print("\033[H\033[2J") // clear screen
	fmt.Println(headerStyle.Render("RSI TRADER CONFIG WIZARD"))
	fmt.Println(stepStyle.Render(title))
}

// RunTUI launches the terminal configuration wizard and writes the result to path.
func RunTUI(path string) error {
	a := defaultAnswers()
	var confirm bool

	step("STEP 1: VENUE")
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Paper trading fills orders locally at live prices.\n"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Where should orders go?").
				Options(
					huh.NewOption("Paper trading", config.PlatformPaper),
					huh.NewOption("Binance spot", config.PlatformBinance),
				).
				Value(&a.platform),
			huh.NewSelect[string]().
				Title("Candle data source").
				Options(
					huh.NewOption("Binance", config.DataSourceBinance),
					huh.NewOption("Bybit", config.DataSourceBybit),
				).
				Value(&a.dataSource),
		),
	).Run()
	if err != nil {
		return err
	}

	if a.platform == config.PlatformBinance {
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Use the Binance spot testnet?").
					Value(&a.testnet),
			),
		).Run()
		if err != nil {
			return err
		}
	}

	step("STEP 2: ASSET")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Trading Pair").
				Description("BASE_QUOTE (e.g. BTC_USDT)").
				Value(&a.pair).
				Validate(validatePair),
			huh.NewInput().
				Title("Quantity per trade").
				Description("Base asset amount bought on entry and sold on exit").
				Value(&a.quantity).
				Validate(validateQuantity),
		),
	).Run()
	if err != nil {
		return err
	}

	step("STEP 3: RSI")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Candle interval").
				Description("e.g. 1m, 5m, 1h").
				Value(&a.interval),
			huh.NewInput().
				Title("Entry threshold").
				Description("Buy when RSI crosses below (0-100)").
				Value(&a.entry).
				Validate(validateThreshold),
			huh.NewInput().
				Title("Exit threshold").
				Description("Sell when RSI crosses above (0-100)").
				Value(&a.exit).
				Validate(validateThreshold),
			huh.NewInput().
				Title("Poll interval").
				Description("Duration string (e.g. 10s, 1m)").
				Value(&a.pollInterval).
				Validate(validateDuration),
			huh.NewInput().
				Title("Admin address").
				Description("host:port for health/metrics/state, empty to disable").
				Value(&a.adminAddr),
		),
	).Run()
	if err != nil {
		return err
	}

	f, err := buildFile(a)
	if err != nil {
		return err
	}

	step("FINAL CONFIRMATION")
	summary := fmt.Sprintf(
		"Platform: %s\nData: %s\nPair: %s\nQuantity: %s\nInterval: %s\nEntry/Exit: %s/%s\nPoll: %s\n",
		f.Platform, f.DataSource, f.Pair, f.Quantity, f.Interval, a.entry, a.exit, f.PollInterval,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirm {
		return errors.New("setup cancelled by user")
	}

	if err := config.WriteFile(path, f); err != nil {
		return err
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s", path)))
	if f.Platform == config.PlatformBinance {
		fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Set BINANCE_API_KEY and BINANCE_API_SECRET (or put them in .env) before running."))
	}
	return nil
}

// buildFile converts wizard answers into a validated config file.
func buildFile(a answers) (config.File, error) {
	f := config.Default()
	f.Platform = a.platform
	f.DataSource = a.dataSource
	f.Pair = a.pair
	f.Interval = a.interval
	f.Quantity = a.quantity
	f.AdminAddr = a.adminAddr
	f.Testnet = a.testnet

	var err error
	if f.EntryThreshold, err = strconv.ParseFloat(a.entry, 64); err != nil {
		return config.File{}, errors.Wrap(domain.ErrConfig, "entry threshold must be a number")
	}
	if f.ExitThreshold, err = strconv.ParseFloat(a.exit, 64); err != nil {
		return config.File{}, errors.Wrap(domain.ErrConfig, "exit threshold must be a number")
	}
	if f.PollInterval, err = time.ParseDuration(a.pollInterval); err != nil {
		return config.File{}, errors.Wrap(domain.ErrConfig, "poll interval must be a duration")
	}

	// credentials are checked at run time, the file itself must be valid
	credentials := func(string) string { return "set" }
	if _, err := config.Parse(f, credentials); err != nil {
		return config.File{}, err
	}

	return f, nil
}

func validatePair(s string) error {
	_, err := domain.ParsePair(s)
	return err
}

func validateQuantity(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return errors.New("must be a valid number")
	}
	if !d.IsPositive() {
		return errors.New("must be positive")
	}
	return nil
}

func validateThreshold(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return errors.New("must be a valid number")
	}
	if v < 0 || v > 100 {
		return errors.New("must be between 0 and 100")
	}
	return nil
}

func validateDuration(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	if d <= 0 {
		return errors.New("must be positive")
	}
	return nil
}
