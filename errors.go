package msci

import (
	"errors"
	"fmt"
)

var (
	// ErrNotSetup is returned when an operation runs before Setup succeeds.
	ErrNotSetup = errors.New("system not set up")

	// ErrMissingIntegrals is returned when the coordinator rank calls Setup
	// without an integral table.
	ErrMissingIntegrals = errors.New("coordinator rank requires an integral table")
)

// ErrInvalidConfig indicates a missing or ill-typed configuration key.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidConfig struct {
	Key   string
	cause error
}

func (e *ErrInvalidConfig) Error() string {
	return fmt.Sprintf("invalid config key %q: %v", e.Key, e.cause)
}

func (e *ErrInvalidConfig) Unwrap() error { return e.cause }
