// Package accountstate persists the trading side and holdings of the bot.
package accountstate

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/rsitrader/internal/domain"
	"github.com/vadiminshakov/rsitrader/internal/storage/atomicfile"
)

// DefaultPath state file used when none is configured.
const DefaultPath = "bot_account.json"

// Store file-backed account state. Every Save is an atomic replace.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store backed by the file at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create account state dir")
	}

	return &Store{path: path}, nil
}

// Path returns the state file location.
func (s *Store) Path() string {
	return s.path
}

// record on-disk layout; pointers and json.Number make required fields detectable.
type record struct {
	CanBuy      *bool                  `json:"can_buy"`
	Holdings    map[string]json.Number `json:"holdings"`
	LastOrderID string                 `json:"last_order_id,omitempty"`
	UpdatedAt   *time.Time             `json:"updated_at,omitempty"`
}

// Load reads the persisted state. A missing file is initialized with the default state.
// A structurally invalid file yields domain.ErrStateCorruption and is left untouched.
func (s *Store) Load() (domain.AccountState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			state := domain.NewAccountState()
			if err := s.write(state); err != nil {
				return domain.AccountState{}, errors.Wrap(err, "initialize account state")
			}
			return state, nil
		}
		return domain.AccountState{}, errors.Wrap(err, "read account state")
	}

	return decode(payload)
}

// Save persists the full state.
func (s *Store) Save(state domain.AccountState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.write(state)
}

func (s *Store) write(state domain.AccountState) error {
	canBuy := state.CanBuy
	rec := record{
		CanBuy:      &canBuy,
		Holdings:    make(map[string]json.Number, len(state.Holdings)),
		LastOrderID: state.LastOrderID,
	}
	for asset, qty := range state.Holdings {
		rec.Holdings[asset] = json.Number(qty.String())
	}
	if !state.UpdatedAt.IsZero() {
		at := state.UpdatedAt.UTC()
		rec.UpdatedAt = &at
	}

	payload, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode account state")
	}

	return errors.Wrap(atomicfile.Write(s.path, payload, 0o644), "persist account state")
}

func decode(payload []byte) (domain.AccountState, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return domain.AccountState{}, errors.Wrap(domain.ErrStateCorruption, "state file is empty")
	}

	var rec record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return domain.AccountState{}, errors.Wrapf(domain.ErrStateCorruption, "decode state: %v", err)
	}
	if rec.CanBuy == nil {
		return domain.AccountState{}, errors.Wrap(domain.ErrStateCorruption, "can_buy is missing")
	}
	if rec.Holdings == nil {
		return domain.AccountState{}, errors.Wrap(domain.ErrStateCorruption, "holdings is missing")
	}

	state := domain.AccountState{
		CanBuy:      *rec.CanBuy,
		Holdings:    make(map[string]decimal.Decimal, len(rec.Holdings)),
		LastOrderID: rec.LastOrderID,
	}
	for asset, raw := range rec.Holdings {
		qty, err := decimal.NewFromString(raw.String())
		if err != nil {
			return domain.AccountState{}, errors.Wrapf(domain.ErrStateCorruption, "holding %s: %v", asset, err)
		}
		state.Holdings[asset] = qty
	}
	if rec.UpdatedAt != nil {
		state.UpdatedAt = *rec.UpdatedAt
	}

	return state, nil
}
