package types

import "fmt"

// SubtaskState is the complete persisted state of one operator subtask: the
// four handle collections an execution attempt needs to resume.
//
// Handles are shared by reference and never mutated; a SubtaskState either
// forwards prior handles verbatim or carries intersection-derived ones.
type SubtaskState struct {
	// ManagedOperatorState holds the backend-managed operator state handles.
	ManagedOperatorState []*OperatorStateHandle

	// RawOperatorState holds the operator state handles written through the
	// raw stream.
	RawOperatorState []*OperatorStateHandle

	// ManagedKeyedState holds the backend-managed keyed state handles.
	ManagedKeyedState []KeyedStateHandle

	// RawKeyedState holds the keyed state handles written through the raw
	// stream. Raw keyed state can only exist alongside managed keyed state.
	RawKeyedState []KeyedStateHandle
}

// HasState reports whether any of the four collections is non-empty.
func (s *SubtaskState) HasState() bool {
	if s == nil {
		return false
	}

	return len(s.ManagedOperatorState) > 0 ||
		len(s.RawOperatorState) > 0 ||
		len(s.ManagedKeyedState) > 0 ||
		len(s.RawKeyedState) > 0
}

// Validate checks the keyed-state rawness invariant: raw keyed state may
// only be present when managed keyed state is present.
//
// Returns:
//   - error: ErrRawKeyedWithoutManaged on violation, nil otherwise
func (s *SubtaskState) Validate() error {
	if s == nil {
		return nil
	}
	if len(s.ManagedKeyedState) == 0 && len(s.RawKeyedState) > 0 {
		return fmt.Errorf("%w: %d raw keyed handles", ErrRawKeyedWithoutManaged, len(s.RawKeyedState))
	}

	return nil
}
