package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountState which side of the strategy is active. It is the single source of
// truth for the trading loop and is persisted after every committed trade.
type AccountState struct {
	CanBuy   bool
	Holdings map[string]decimal.Decimal
	// LastOrderID client id of the last order applied to this state.
	LastOrderID string
	UpdatedAt   time.Time
}

// NewAccountState returns the initial state: buying, nothing held.
func NewAccountState() AccountState {
	return AccountState{
		CanBuy:   true,
		Holdings: make(map[string]decimal.Decimal),
	}
}

// Mode state machine mode derived from CanBuy.
func (s AccountState) Mode() Mode {
	if s.CanBuy {
		return ModeBuying
	}
	return ModeHolding
}

// ApplyFill commits a filled order: a buy moves to holding, a sell back to buying.
// Applying the same order twice is a no-op.
func (s *AccountState) ApplyFill(pair Pair, side Side, quantity decimal.Decimal, orderID string, at time.Time) bool {
	if orderID != "" && s.LastOrderID == orderID {
		return false
	}
	if s.Holdings == nil {
		s.Holdings = make(map[string]decimal.Decimal)
	}

	held := s.Holdings[pair.From]
	switch side {
	case SideBuy:
		s.Holdings[pair.From] = held.Add(quantity)
		s.CanBuy = false
	case SideSell:
		s.Holdings[pair.From] = held.Sub(quantity)
		s.CanBuy = true
	default:
		return false
	}

	s.LastOrderID = orderID
	s.UpdatedAt = at
	return true
}

// Clone deep copy.
func (s AccountState) Clone() AccountState {
	c := s
	c.Holdings = make(map[string]decimal.Decimal, len(s.Holdings))
	for k, v := range s.Holdings {
		c.Holdings[k] = v
	}
	return c
}

// Mode of the trading state machine.
type Mode string

const (
	// ModeBuying waits for a downward entry crossing.
	ModeBuying Mode = "BUYING"
	// ModeHolding waits for an upward exit crossing.
	ModeHolding Mode = "HOLDING"
)
