package contract

import "errors"

// Sentinel errors shared across packages. Wrap them with fmt.Errorf("...: %w", err)
// and inspect them with errors.Is.
var (
	// ErrLookup means an item identity could not be resolved to its payload.
	ErrLookup = errors.New("lookup error")

	// ErrContractViolation means an internal invariant was broken.
	ErrContractViolation = errors.New("contract violation")

	// ErrUnknownTask means the task id is not declared in the configuration.
	ErrUnknownTask = errors.New("unknown task")

	// ErrInvalidProportion means a candidate source has a negative or non-finite weight.
	ErrInvalidProportion = errors.New("invalid source proportion")
)
