package types

import "errors"

// Sentinel errors for the blink library.
//
// These errors provide type-safe error checking using errors.Is() and
// errors.As(). Components wrap them with context using
// fmt.Errorf("...: %w", err), carrying the first violating operator or
// vertex. Every error aborts the reassignment invocation as a whole; there
// is no local recovery.

// Input validation errors - violations in the restored state or topology.
var (
	// ErrInvalidParallelism is returned for a non-positive parallelism or a
	// parallelism exceeding the number of key groups.
	ErrInvalidParallelism = errors.New("invalid parallelism")

	// ErrInvalidKeyGroupRange is returned for a malformed key-group range or
	// offsets that disagree with their range.
	ErrInvalidKeyGroupRange = errors.New("invalid key group range")

	// ErrSubtaskIndexOutOfRange is returned when a recorded subtask index
	// lies outside [0, parallelism).
	ErrSubtaskIndexOutOfRange = errors.New("subtask index out of range")

	// ErrRawKeyedWithoutManaged is returned when a subtask records raw keyed
	// state without managed keyed state.
	ErrRawKeyedWithoutManaged = errors.New("raw keyed state without managed keyed state")
)

// Precondition errors - violations detected before any assignment result is
// observable.
var (
	// ErrMaxParallelismTooLow is returned when the restored max parallelism
	// is lower than the new parallelism.
	ErrMaxParallelismTooLow = errors.New("restored max parallelism lower than new parallelism")

	// ErrMaxParallelismMismatch is returned when the user-fixed max
	// parallelism differs from the restored one.
	ErrMaxParallelismMismatch = errors.New("max parallelism of restored state does not match configured max parallelism")

	// ErrUnmappedState is returned when prior state has no operator in the
	// new topology and non-restored state is not allowed.
	ErrUnmappedState = errors.New("no operator in new topology for restored state")

	// ErrChainLengthMismatch is returned when the prior-state chain length
	// differs from the new topology chain length for the same vertex.
	ErrChainLengthMismatch = errors.New("operator chain length mismatch")
)

// Structural errors - invariant violations in input or implementation.
var (
	// ErrKeyedStateOnNonHeadOperator is returned when keyed state is recorded
	// for an operator that is not the head of its chain.
	ErrKeyedStateOnNonHeadOperator = errors.New("keyed state on non-head operator")

	// ErrHandleIntersectCorrupt is returned when a handle's Intersect yields
	// a range outside its input; it indicates a handle implementation bug.
	ErrHandleIntersectCorrupt = errors.New("handle intersection outside requested range")

	// ErrInternalInvariant is returned for any other invariant failure; the
	// wrapped message carries the site.
	ErrInternalInvariant = errors.New("internal invariant violated")
)
