package engine

import "fmt"

// InsufficientDataError is returned by Run when the history is too short to
// simulate. It is fatal: callers must be able to tell "no data" apart from
// "no trades".
type InsufficientDataError struct {
	Bars int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: need at least 2 bars, got %d", e.Bars)
}
