package domain

import "fmt"

// Side order direction.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// String returns the string representation of the side.
func (s Side) String() string {
	return string(s)
}

// IsValid checks if the side is known.
func (s Side) IsValid() bool {
	return s == SideBuy || s == SideSell
}

// ParseSide parses a side name.
func ParseSide(s string) (Side, error) {
	side := Side(s)
	if !side.IsValid() {
		return "", fmt.Errorf("unknown side %q", s)
	}
	return side, nil
}
