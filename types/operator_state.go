package types

import "fmt"

// OperatorState is the prior-execution state of one operator: a sparse map
// from old subtask index to SubtaskState, plus the parallelism the state was
// written with and the max parallelism fixed at original job submission.
type OperatorState struct {
	operatorID     OperatorID
	parallelism    int
	maxParallelism int
	subtasks       map[int]*SubtaskState
}

// NewOperatorState creates an empty operator state index.
//
// Parameters:
//   - operatorID: The operator the state belongs to
//   - parallelism: Parallelism the state was written with (> 0)
//   - maxParallelism: Max parallelism fixed at job submission (>= parallelism)
//
// Returns:
//   - *OperatorState: Empty index; fill with PutSubtask
//   - error: ErrInvalidParallelism if the parallelism bounds are violated
func NewOperatorState(operatorID OperatorID, parallelism, maxParallelism int) (*OperatorState, error) {
	if parallelism <= 0 || maxParallelism < parallelism {
		return nil, fmt.Errorf("%w: parallelism %d, max parallelism %d for operator %s",
			ErrInvalidParallelism, parallelism, maxParallelism, operatorID)
	}

	return &OperatorState{
		operatorID:     operatorID,
		parallelism:    parallelism,
		maxParallelism: maxParallelism,
		subtasks:       make(map[int]*SubtaskState),
	}, nil
}

// OperatorID returns the operator the state belongs to.
func (o *OperatorState) OperatorID() OperatorID { return o.operatorID }

// Parallelism returns the parallelism the state was written with.
func (o *OperatorState) Parallelism() int { return o.parallelism }

// MaxParallelism returns the max parallelism fixed at job submission.
func (o *OperatorState) MaxParallelism() int { return o.maxParallelism }

// PutSubtask records the state of one old subtask.
//
// Parameters:
//   - subtaskIndex: Old subtask index in [0, parallelism)
//   - state: The subtask's handle collections
//
// Returns:
//   - error: ErrSubtaskIndexOutOfRange if the index is outside the old
//     parallelism, or the state's own validation error
func (o *OperatorState) PutSubtask(subtaskIndex int, state *SubtaskState) error {
	if subtaskIndex < 0 || subtaskIndex >= o.parallelism {
		return fmt.Errorf("%w: %d not in [0, %d) for operator %s",
			ErrSubtaskIndexOutOfRange, subtaskIndex, o.parallelism, o.operatorID)
	}
	if err := state.Validate(); err != nil {
		return fmt.Errorf("subtask %d of operator %s: %w", subtaskIndex, o.operatorID, err)
	}
	o.subtasks[subtaskIndex] = state

	return nil
}

// Subtask returns the recorded state of one old subtask, or nil when the
// subtask recorded no state.
func (o *OperatorState) Subtask(subtaskIndex int) *SubtaskState {
	return o.subtasks[subtaskIndex]
}

// HasState reports whether any old subtask recorded state.
func (o *OperatorState) HasState() bool {
	for _, st := range o.subtasks {
		if st.HasState() {
			return true
		}
	}

	return false
}

// NumRecordedSubtasks returns the number of old subtasks that recorded state.
func (o *OperatorState) NumRecordedSubtasks() int {
	return len(o.subtasks)
}

// OperatorStates is the ordered prior-execution state index: every stateful
// operator the prior execution recorded, keyed by operator id and iterable
// in insertion order.
type OperatorStates struct {
	order []OperatorID
	byID  map[OperatorID]*OperatorState
}

// NewOperatorStates creates an empty index.
func NewOperatorStates() *OperatorStates {
	return &OperatorStates{byID: make(map[OperatorID]*OperatorState)}
}

// Put adds or replaces the state of one operator. Insertion order is kept
// for iteration; replacing keeps the original position.
func (s *OperatorStates) Put(state *OperatorState) {
	id := state.OperatorID()
	if _, exists := s.byID[id]; !exists {
		s.order = append(s.order, id)
	}
	s.byID[id] = state
}

// Get returns the state of one operator.
//
// Returns:
//   - *OperatorState: The operator's state
//   - bool: false if the operator is not in the index
func (s *OperatorStates) Get(id OperatorID) (*OperatorState, bool) {
	state, ok := s.byID[id]

	return state, ok
}

// Contains reports whether the operator is in the index.
func (s *OperatorStates) Contains(id OperatorID) bool {
	_, ok := s.byID[id]

	return ok
}

// Remove deletes the operator from the index and returns its state.
//
// The driver removes operators as it matches them against the topology, so
// whatever remains afterwards is unmapped state.
//
// Returns:
//   - *OperatorState: The removed state
//   - bool: false if the operator was not in the index
func (s *OperatorStates) Remove(id OperatorID) (*OperatorState, bool) {
	state, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	delete(s.byID, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)

			break
		}
	}

	return state, true
}

// Len returns the number of operators in the index.
func (s *OperatorStates) Len() int {
	return len(s.byID)
}

// IDs returns the operator ids in insertion order.
func (s *OperatorStates) IDs() []OperatorID {
	ids := make([]OperatorID, len(s.order))
	copy(ids, s.order)

	return ids
}

// Clone returns a shallow copy of the index. The contained OperatorState
// values are shared; only the index structure is copied.
//
// The driver clones the index before matching so the caller's copy survives
// a failed reassignment untouched.
func (s *OperatorStates) Clone() *OperatorStates {
	clone := &OperatorStates{
		order: make([]OperatorID, len(s.order)),
		byID:  make(map[OperatorID]*OperatorState, len(s.byID)),
	}
	copy(clone.order, s.order)
	for id, state := range s.byID {
		clone.byID[id] = state
	}

	return clone
}
