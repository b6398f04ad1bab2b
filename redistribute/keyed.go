package redistribute

import (
	"fmt"

	"github.com/tiexiw/blink/types"
)

// IntersectingHandles intersects every handle with the given range and
// collects the non-empty results.
//
// When verify is true, each non-nil intersection result is checked to lie
// within both the requested range and the source handle's own range; a
// violation reports ErrHandleIntersectCorrupt, which indicates a bug in the
// handle implementation rather than in the input state.
//
// Parameters:
//   - handles: Keyed state handles of one or more old subtasks
//   - r: The new subtask's key-group range
//   - verify: Enable the intersection containment check
//
// Returns:
//   - []types.KeyedStateHandle: Handles restricted to r, source order kept
//   - error: ErrHandleIntersectCorrupt when verification fails
func IntersectingHandles(handles []types.KeyedStateHandle, r types.KeyGroupRange, verify bool) ([]types.KeyedStateHandle, error) {
	var out []types.KeyedStateHandle
	for _, handle := range handles {
		if handle == nil {
			continue
		}
		intersected := handle.Intersect(r)
		if intersected == nil {
			continue
		}
		if verify {
			got := intersected.KeyGroupRange()
			if got.Intersect(r) != got || got.Intersect(handle.KeyGroupRange()) != got {
				return nil, fmt.Errorf("%w: handle %s intersected with %s yielded %s",
					types.ErrHandleIntersectCorrupt, handle.KeyGroupRange(), r, got)
			}
		}
		out = append(out, intersected)
	}

	return out, nil
}

// ManagedKeyedStates collects the managed keyed handles of all old subtasks
// of an operator that intersect the given new subtask range.
//
// Old subtasks are visited in ascending index order, so the result is
// deterministic.
//
// Parameters:
//   - operatorState: Prior state of the head operator
//   - subtaskRange: The new subtask's key-group range
//   - verify: Enable the intersection containment check
//
// Returns:
//   - []types.KeyedStateHandle: Intersection-derived managed keyed handles
//   - error: ErrHandleIntersectCorrupt when verification fails
func ManagedKeyedStates(operatorState *types.OperatorState, subtaskRange types.KeyGroupRange, verify bool) ([]types.KeyedStateHandle, error) {
	var out []types.KeyedStateHandle
	for i := 0; i < operatorState.Parallelism(); i++ {
		subtask := operatorState.Subtask(i)
		if subtask == nil {
			continue
		}
		handles, err := IntersectingHandles(subtask.ManagedKeyedState, subtaskRange, verify)
		if err != nil {
			return nil, err
		}
		out = append(out, handles...)
	}

	return out, nil
}

// RawKeyedStates collects the raw keyed handles of all old subtasks of an
// operator that intersect the given new subtask range.
//
// Parameters:
//   - operatorState: Prior state of the head operator
//   - subtaskRange: The new subtask's key-group range
//   - verify: Enable the intersection containment check
//
// Returns:
//   - []types.KeyedStateHandle: Intersection-derived raw keyed handles
//   - error: ErrHandleIntersectCorrupt when verification fails
func RawKeyedStates(operatorState *types.OperatorState, subtaskRange types.KeyGroupRange, verify bool) ([]types.KeyedStateHandle, error) {
	var out []types.KeyedStateHandle
	for i := 0; i < operatorState.Parallelism(); i++ {
		subtask := operatorState.Subtask(i)
		if subtask == nil {
			continue
		}
		handles, err := IntersectingHandles(subtask.RawKeyedState, subtaskRange, verify)
		if err != nil {
			return nil, err
		}
		out = append(out, handles...)
	}

	return out, nil
}

// KeyedStatesForSubtask computes the keyed-state assignment of one new
// subtask of a head operator.
//
// When the parallelism is unchanged, the original subtask's handles are
// reused verbatim; any backend-local artifacts referenced by the handles
// stay valid that way. Otherwise every old handle is intersected with the
// new subtask's range.
//
// Parameters:
//   - operatorState: Prior state of the head operator
//   - subtaskRange: Key-group range of the new subtask
//   - subtaskIndex: Index of the new subtask
//   - newParallelism: Parallelism of the new execution
//   - verify: Enable the intersection containment check
//
// Returns:
//   - []types.KeyedStateHandle: Managed keyed assignment
//   - []types.KeyedStateHandle: Raw keyed assignment
//   - error: ErrHandleIntersectCorrupt when verification fails
func KeyedStatesForSubtask(
	operatorState *types.OperatorState,
	subtaskRange types.KeyGroupRange,
	subtaskIndex int,
	newParallelism int,
	verify bool,
) ([]types.KeyedStateHandle, []types.KeyedStateHandle, error) {
	if newParallelism == operatorState.Parallelism() {
		subtask := operatorState.Subtask(subtaskIndex)
		if subtask == nil {
			return nil, nil, nil
		}

		return subtask.ManagedKeyedState, subtask.RawKeyedState, nil
	}

	managed, err := ManagedKeyedStates(operatorState, subtaskRange, verify)
	if err != nil {
		return nil, nil, err
	}
	raw, err := RawKeyedStates(operatorState, subtaskRange, verify)
	if err != nil {
		return nil, nil, err
	}

	return managed, raw, nil
}
