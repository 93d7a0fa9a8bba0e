package domain

// Decision outcome of evaluating one indicator transition.
type Decision int

const (
	DecisionNone Decision = iota
	DecisionBuy
	DecisionSell
)

// String returns the string representation of the decision.
func (d Decision) String() string {
	switch d {
	case DecisionBuy:
		return "buy"
	case DecisionSell:
		return "sell"
	default:
		return "none"
	}
}

// Side maps a trading decision to an order side.
func (d Decision) Side() (Side, bool) {
	switch d {
	case DecisionBuy:
		return SideBuy, true
	case DecisionSell:
		return SideSell, true
	default:
		return "", false
	}
}

// Thresholds entry/exit levels of the oscillator.
type Thresholds struct {
	Entry float64
	Exit  float64
}

// CrossedBelow reports a downward crossing of level between two consecutive samples.
func CrossedBelow(previous, current, level float64) bool {
	return previous > level && current < level
}

// CrossedAbove reports an upward crossing of level between two consecutive samples.
func CrossedAbove(previous, current, level float64) bool {
	return previous < level && current > level
}

// Decide evaluates only the crossing allowed by the current mode. Crossings are
// edge-triggered: a value staying past a threshold never re-triggers.
func Decide(mode Mode, previous, current float64, t Thresholds) Decision {
	switch mode {
	case ModeBuying:
		if CrossedBelow(previous, current, t.Entry) {
			return DecisionBuy
		}
	case ModeHolding:
		if CrossedAbove(previous, current, t.Exit) {
			return DecisionSell
		}
	}
	return DecisionNone
}
