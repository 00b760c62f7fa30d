package dht

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an operation references a node or key
	// that does not exist. The operation has no effect.
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfiguration is returned when an engine is constructed with
	// invalid parameters or an operation is given arguments that would break
	// the engine's invariants.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrDegenerateRebalance is used when a candidate load balancing move
	// would leave a section without enough slack. Only the candidate is
	// skipped.
	ErrDegenerateRebalance = errors.New("degenerate rebalance")
)

// SkippedMove describes a load balancing candidate that was not executed.
type SkippedMove struct {
	Move   string // Name of the candidate move.
	Shift  int    // Computed shift amount.
	Slack  int    // Available slack in the section being shrunk.
	Reason string
}

// Error implements error.
func (s *SkippedMove) Error() string {
	return fmt.Sprintf("%s skipped (shift %d, slack %d): %s", s.Move, s.Shift, s.Slack, s.Reason)
}

// Unwrap returns ErrDegenerateRebalance.
func (s *SkippedMove) Unwrap() error { return ErrDegenerateRebalance }

// NotFoundf returns an error wrapping ErrNotFound.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

// Invalidf returns an error wrapping ErrInvalidConfiguration.
func Invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidConfiguration)
}
