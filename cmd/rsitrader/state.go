package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vadiminshakov/rsitrader/config"
	"github.com/vadiminshakov/rsitrader/internal/domain"
	"github.com/vadiminshakov/rsitrader/internal/storage/accountstate"
	"github.com/vadiminshakov/rsitrader/internal/storage/orderjournal"
	"github.com/vadiminshakov/rsitrader/internal/storage/runlock"
)

func stateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or edit the persisted account state",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the account state",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := config.ReadFile(configPath)
			if err != nil {
				return err
			}
			store, err := accountstate.NewStore(f.StateFile)
			if err != nil {
				return err
			}
			state, err := store.Load()
			if err != nil {
				return err
			}
			return printState(cmd.OutOrStdout(), state)
		},
	})

	var canBuy bool
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Override the trading side of a stopped bot (use PUT /state on a running one)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("can-buy") {
				return errors.New("--can-buy is required")
			}
			f, err := config.ReadFile(configPath)
			if err != nil {
				return err
			}
			state, err := setCanBuy(f, canBuy)
			if err != nil {
				return err
			}
			return printState(cmd.OutOrStdout(), state)
		},
	}
	setCmd.Flags().BoolVar(&canBuy, "can-buy", true, "true to wait for an entry crossing, false to wait for an exit crossing")
	cmd.AddCommand(setCmd)

	return cmd
}

// setCanBuy edits the state file, refusing while the bot runs or the order journal has
// unreconciled orders.
func setCanBuy(f config.File, canBuy bool) (domain.AccountState, error) {
	lock, err := runlock.Acquire(runlock.Path(f.StateFile))
	if err != nil {
		if errors.Is(err, runlock.ErrLocked) {
			return domain.AccountState{}, errors.Wrap(err, "the bot is running, use PUT /state on its admin API")
		}
		return domain.AccountState{}, err
	}
	defer func() { _ = lock.Release() }()

	journal, err := orderjournal.Open(f.WALDir, zap.NewNop())
	if err != nil {
		return domain.AccountState{}, err
	}
	defer journal.Close()

	if pending := journal.Unfinished(); len(pending) > 0 {
		return domain.AccountState{}, errors.Errorf("order %s is not reconciled yet, run the bot first", pending[0].ID)
	}

	store, err := accountstate.NewStore(f.StateFile)
	if err != nil {
		return domain.AccountState{}, err
	}
	state, err := store.Load()
	if err != nil {
		return domain.AccountState{}, err
	}

	state.CanBuy = canBuy
	state.UpdatedAt = time.Now()
	if err := store.Save(state); err != nil {
		return domain.AccountState{}, err
	}
	return state, nil
}

func printState(w io.Writer, state domain.AccountState) error {
	holdings := make(map[string]string, len(state.Holdings))
	for asset, qty := range state.Holdings {
		holdings[asset] = qty.String()
	}

	payload, err := json.MarshalIndent(map[string]any{
		"can_buy":       state.CanBuy,
		"mode":          state.Mode(),
		"holdings":      holdings,
		"last_order_id": state.LastOrderID,
	}, "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(payload))
	return err
}
