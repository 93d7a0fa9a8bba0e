package domain

import "github.com/pkg/errors"

// Error taxonomy of the trading loop. Callers wrap these with context and
// classify with errors.Is.
var (
	// ErrDataUnavailable market data could not be fetched; retried next cycle.
	ErrDataUnavailable = errors.New("market data unavailable")
	// ErrInsufficientHistory too few samples to compute the indicator.
	ErrInsufficientHistory = errors.New("insufficient price history")
	// ErrOrderRejected the venue declined the order.
	ErrOrderRejected = errors.New("order rejected")
	// ErrOrderTimeout the order did not reach a terminal status in time.
	ErrOrderTimeout = errors.New("order status timeout")
	// ErrOrderNotFound the venue has no order with the given id.
	ErrOrderNotFound = errors.New("order not found")
	// ErrStateCorruption the persisted account state is structurally invalid.
	ErrStateCorruption = errors.New("account state corrupted")
	// ErrConfig missing credentials or invalid parameters.
	ErrConfig = errors.New("invalid configuration")
)

// IsFatal reports whether err must stop the process instead of being retried.
func IsFatal(err error) bool {
	return errors.Is(err, ErrStateCorruption) || errors.Is(err, ErrConfig)
}

// ErrorKind short label for metrics and logs.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDataUnavailable):
		return "data_unavailable"
	case errors.Is(err, ErrInsufficientHistory):
		return "insufficient_history"
	case errors.Is(err, ErrOrderRejected):
		return "order_rejected"
	case errors.Is(err, ErrOrderTimeout):
		return "order_timeout"
	case errors.Is(err, ErrOrderNotFound):
		return "order_not_found"
	case errors.Is(err, ErrStateCorruption):
		return "state_corruption"
	case errors.Is(err, ErrConfig):
		return "config"
	default:
		return "other"
	}
}
