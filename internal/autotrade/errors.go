package autotrade

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRunning rejects a second start without an intervening stop.
	ErrAlreadyRunning = errors.New("auto trading already running")
	// ErrMarketClosed rejects a start outside trading hours.
	ErrMarketClosed = errors.New("market is closed")
)

// ValidationError reports a malformed Config before any state change.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config: %s %s", e.Field, e.Reason)
}
