// Package simstate persists the paper trading wallet and its orders so restarts keep balances.
package simstate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/rsitrader/internal/domain"
	"github.com/vadiminshakov/rsitrader/internal/storage/atomicfile"
)

const defaultStateDir = "./wal/paper"

// Store persists simulator state per trading pair.
type Store struct {
	path string
}

// NewStore creates a simulator state store for the given pair inside dir.
func NewStore(dir string, pair domain.Pair) (*Store, error) {
	if dir == "" {
		dir = defaultStateDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create simulate state dir")
	}

	fullName := fmt.Sprintf("%s.json", sanitizeScope(pair.String()))

	return &Store{path: filepath.Join(dir, fullName)}, nil
}

// State represents all persisted simulator data.
type State struct {
	Pair   string                 `json:"pair"`
	Wallet map[string]string      `json:"wallet"`
	Orders map[string]StoredOrder `json:"orders,omitempty"`
}

// StoredOrder is a serializable snapshot of a filled paper order.
type StoredOrder struct {
	VenueID  string      `json:"venue_id"`
	Side     domain.Side `json:"side"`
	Quantity string      `json:"quantity"`
	Price    string      `json:"price"`
}

// Load reads simulator state from disk. A missing file yields nil state.
func (s *Store) Load() (*State, error) {
	if s == nil || s.path == "" {
		return nil, nil
	}

	payload, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, errors.Wrap(err, "read simulate state")
	}

	if len(payload) == 0 {
		return nil, nil
	}

	var state State
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, errors.Wrap(err, "decode simulate state")
	}

	return &state, nil
}

// Save writes simulator state to disk atomically.
func (s *Store) Save(state State) error {
	if s == nil || s.path == "" {
		return nil
	}

	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode simulate state")
	}

	return errors.Wrap(atomicfile.Write(s.path, payload, 0o644), "persist simulate state")
}

// NewStoredOrder converts a filled order into its stored representation.
func NewStoredOrder(order *domain.Order) StoredOrder {
	stored := StoredOrder{
		VenueID:  order.VenueID,
		Side:     order.Side,
		Quantity: order.RequestedQuantity.String(),
	}
	if len(order.Fills) > 0 {
		stored.Price = order.Fills[0].Price.String()
	}
	return stored
}

// ToOrder reconstructs a filled order from stored data.
func (so StoredOrder) ToOrder(id string) (*domain.Order, error) {
	qty, err := decimal.NewFromString(so.Quantity)
	if err != nil {
		return nil, errors.Wrap(err, "decode order quantity")
	}
	price, err := decimal.NewFromString(so.Price)
	if err != nil {
		return nil, errors.Wrap(err, "decode order price")
	}

	return &domain.Order{
		ID:                id,
		VenueID:           so.VenueID,
		Side:              so.Side,
		RequestedQuantity: qty,
		Status:            domain.OrderStatusFilled,
		Fills:             []domain.Fill{{Price: price, Quantity: qty}},
	}, nil
}

func sanitizeScope(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return ""
	}

	var b strings.Builder

	prevUnderscore := false

	for _, r := range value {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)

			prevUnderscore = false

			continue
		}

		if !prevUnderscore {
			b.WriteByte('_')

			prevUnderscore = true
		}
	}

	return strings.Trim(b.String(), "_")
}
